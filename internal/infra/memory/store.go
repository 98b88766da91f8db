package memory

import (
	"context"
	"slices"
	"sort"
	"sync"

	"quiz-insights-service/internal/domain"
)

// DB is an in-process document store shared by the memory repositories.
// A single lock makes every counter update and the cascade delete atomic.
type DB struct {
	mu        sync.RWMutex
	quizzes   map[string]domain.Quiz
	questions map[string]domain.Question
	responses []domain.QuizResponse
}

func NewDB() *DB {
	return &DB{
		quizzes:   make(map[string]domain.Quiz),
		questions: make(map[string]domain.Question),
	}
}

// QuizStore is an in-memory implementation of app.QuizRepository.
type QuizStore struct{ db *DB }

func NewQuizStore(db *DB) *QuizStore { return &QuizStore{db: db} }

func (s *QuizStore) Create(_ context.Context, quiz domain.Quiz) (domain.Quiz, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	quiz = cloneQuiz(quiz)
	s.db.quizzes[quiz.ID] = quiz
	return cloneQuiz(quiz), nil
}

func (s *QuizStore) FindByID(_ context.Context, id string) (domain.Quiz, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	quiz, ok := s.db.quizzes[id]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return cloneQuiz(quiz), nil
}

func (s *QuizStore) FindByCreator(_ context.Context, userID string) ([]domain.Quiz, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	quizzes := s.byCreatorLocked(userID)
	sort.SliceStable(quizzes, func(i, j int) bool {
		return quizzes[i].CreatedOn.Before(quizzes[j].CreatedOn)
	})
	return quizzes, nil
}

func (s *QuizStore) Trending(_ context.Context, userID string) ([]domain.Quiz, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	quizzes := s.byCreatorLocked(userID)
	sort.SliceStable(quizzes, func(i, j int) bool {
		if quizzes[i].Impressions != quizzes[j].Impressions {
			return quizzes[i].Impressions > quizzes[j].Impressions
		}
		return quizzes[i].CreatedOn.After(quizzes[j].CreatedOn)
	})
	return quizzes, nil
}

func (s *QuizStore) byCreatorLocked(userID string) []domain.Quiz {
	quizzes := make([]domain.Quiz, 0)
	for _, quiz := range s.db.quizzes {
		if quiz.Creator == userID {
			quizzes = append(quizzes, cloneQuiz(quiz))
		}
	}
	return quizzes
}

func (s *QuizStore) AppendQuestions(_ context.Context, id string, questionIDs []string) (domain.Quiz, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	quiz, ok := s.db.quizzes[id]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	quiz.Questions = append(slices.Clone(quiz.Questions), questionIDs...)
	s.db.quizzes[id] = quiz
	return cloneQuiz(quiz), nil
}

func (s *QuizStore) IncrementImpressions(_ context.Context, id string) (domain.Quiz, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	quiz, ok := s.db.quizzes[id]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	quiz.Impressions++
	s.db.quizzes[id] = quiz
	return cloneQuiz(quiz), nil
}

func (s *QuizStore) TotalImpressions(_ context.Context, userID string) (int64, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	var total int64
	for _, quiz := range s.db.quizzes {
		if quiz.Creator == userID {
			total += quiz.Impressions
		}
	}
	return total, nil
}

func (s *QuizStore) DeleteCascade(_ context.Context, id string) (int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	quiz, ok := s.db.quizzes[id]
	if !ok {
		return 0, domain.ErrQuizNotFound
	}
	delete(s.db.quizzes, id)
	return s.db.deleteQuestionsLocked(quiz.Questions), nil
}

func (db *DB) deleteQuestionsLocked(ids []string) int64 {
	var removed int64
	for _, qid := range ids {
		if _, ok := db.questions[qid]; ok {
			delete(db.questions, qid)
			removed++
		}
	}
	return removed
}

// QuestionStore is an in-memory implementation of app.QuestionRepository.
type QuestionStore struct{ db *DB }

func NewQuestionStore(db *DB) *QuestionStore { return &QuestionStore{db: db} }

func (s *QuestionStore) Create(_ context.Context, question domain.Question) (domain.Question, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	question = cloneQuestion(question)
	s.db.questions[question.ID] = question
	return cloneQuestion(question), nil
}

func (s *QuestionStore) FindByID(_ context.Context, id string) (domain.Question, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	question, ok := s.db.questions[id]
	if !ok {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	return cloneQuestion(question), nil
}

func (s *QuestionStore) FindMany(_ context.Context, ids []string) ([]domain.Question, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	questions := make([]domain.Question, 0, len(ids))
	for _, id := range ids {
		if q, ok := s.db.questions[id]; ok {
			questions = append(questions, cloneQuestion(q))
		}
	}
	return questions, nil
}

func (s *QuestionStore) FindByCreator(_ context.Context, userID string) ([]domain.Question, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	questions := make([]domain.Question, 0)
	for _, q := range s.db.questions {
		if q.Creator == userID {
			questions = append(questions, cloneQuestion(q))
		}
	}
	sort.SliceStable(questions, func(i, j int) bool {
		return questions[i].CreatedAt.Before(questions[j].CreatedAt)
	})
	return questions, nil
}

func (s *QuestionStore) Update(_ context.Context, id string, patch domain.QuestionPatch) (domain.Question, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	question, ok := s.db.questions[id]
	if !ok {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	options := make([]domain.Option, len(patch.Options))
	for i, opt := range patch.Options {
		options[i] = domain.Option{Text: opt.Text, ImageURL: opt.ImageURL}
		if i < len(question.Options) {
			options[i].Attempts = question.Options[i].Attempts
		}
	}
	question.Prompt = patch.Prompt
	question.Options = options
	question.CorrectAnswer = patch.CorrectAnswer
	question.Timer = patch.Timer
	question = cloneQuestion(question)
	s.db.questions[id] = question
	return cloneQuestion(question), nil
}

func (s *QuestionStore) DeleteMany(_ context.Context, ids []string) (int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return s.db.deleteQuestionsLocked(ids), nil
}

func (s *QuestionStore) IncrementAttempts(_ context.Context, id string, correct bool) (domain.Question, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	question, ok := s.db.questions[id]
	if !ok {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	question.TotalAttempts++
	if correct {
		question.CorrectAttempts++
	} else {
		question.IncorrectAttempts++
	}
	s.db.questions[id] = question
	return cloneQuestion(question), nil
}

func (s *QuestionStore) IncrementOption(_ context.Context, id string, optionIndex int) (domain.Question, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	question, ok := s.db.questions[id]
	if !ok {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	if optionIndex >= 0 && optionIndex < len(question.Options) {
		question.Options = slices.Clone(question.Options)
		question.Options[optionIndex].Attempts++
		s.db.questions[id] = question
	}
	return cloneQuestion(question), nil
}

// ResponseStore is an in-memory append-only implementation of app.ResponseRepository.
type ResponseStore struct{ db *DB }

func NewResponseStore(db *DB) *ResponseStore { return &ResponseStore{db: db} }

func (s *ResponseStore) Record(_ context.Context, response domain.QuizResponse) (domain.QuizResponse, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	response = cloneResponse(response)
	s.db.responses = append(s.db.responses, response)
	return cloneResponse(response), nil
}

func (s *ResponseStore) FindByQuiz(_ context.Context, quizID string) ([]domain.QuizResponse, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	responses := make([]domain.QuizResponse, 0)
	for _, r := range s.db.responses {
		if r.QuizID == quizID {
			responses = append(responses, cloneResponse(r))
		}
	}
	return responses, nil
}

func cloneQuiz(q domain.Quiz) domain.Quiz {
	q.Questions = slices.Clone(q.Questions)
	if q.Questions == nil {
		q.Questions = []string{}
	}
	return q
}

func cloneQuestion(q domain.Question) domain.Question {
	q.Options = slices.Clone(q.Options)
	if q.CorrectAnswer != nil {
		answer := *q.CorrectAnswer
		q.CorrectAnswer = &answer
	}
	return q
}

func cloneResponse(r domain.QuizResponse) domain.QuizResponse {
	r.Answers = slices.Clone(r.Answers)
	r.Selections = slices.Clone(r.Selections)
	r.QuestionIDs = slices.Clone(r.QuestionIDs)
	r.Result.SelectedOptions = slices.Clone(r.Result.SelectedOptions)
	return r
}
