package app

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"

	"quiz-insights-service/internal/domain"
)

// OptionDraft is a submitted answer option.
type OptionDraft struct {
	Text     string `json:"text" validate:"required_without=ImageURL"`
	ImageURL string `json:"imageUrl"`
}

// QuestionDraft is the payload for a new question. QuizType defaults to the type of the quiz.
type QuestionDraft struct {
	Prompt        string          `json:"question" validate:"required"`
	Options       []OptionDraft   `json:"options" validate:"required,min=1,dive"`
	QuizType      domain.QuizType `json:"quizType"`
	CorrectAnswer *int            `json:"correctAnswer"`
	Timer         domain.Timer    `json:"timer"`
}

// QuestionUpdate replaces the editable fields of an existing question.
type QuestionUpdate struct {
	ID            string        `json:"id" validate:"required"`
	Prompt        string        `json:"question" validate:"required"`
	Options       []OptionDraft `json:"options" validate:"required,min=1,dive"`
	CorrectAnswer *int          `json:"correctAnswer"`
	Timer         domain.Timer  `json:"timer"`
}

// AttachQuestions creates the drafts and appends them to the quiz in draft order.
func (s *QuizService) AttachQuestions(ctx context.Context, userID, quizID string, drafts []QuestionDraft) (domain.Quiz, error) {
	if err := checkID("user id", userID); err != nil {
		return domain.Quiz{}, err
	}
	quiz, err := s.findQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	if len(drafts) == 0 {
		return domain.Quiz{}, fmt.Errorf("%w: no questions given", domain.ErrInvalidInput)
	}
	return s.attach(ctx, userID, quiz, drafts)
}

func (s *QuizService) attach(ctx context.Context, userID string, quiz domain.Quiz, drafts []QuestionDraft) (domain.Quiz, error) {
	questions, err := s.buildQuestions(quiz, userID, drafts)
	if err != nil {
		return domain.Quiz{}, err
	}
	updated, err := s.persistQuestions(ctx, quiz, questions)
	if err != nil {
		return domain.Quiz{}, err
	}
	s.invalidate(ctx, quiz.ID)
	return updated, nil
}

// buildQuestions validates every draft before anything is written.
func (s *QuizService) buildQuestions(quiz domain.Quiz, userID string, drafts []QuestionDraft) ([]domain.Question, error) {
	questions := make([]domain.Question, len(drafts))
	for i, draft := range drafts {
		if err := validateStruct(draft); err != nil {
			return nil, fmt.Errorf("question %d: %w", i+1, err)
		}
		q, err := s.buildQuestion(quiz, userID, draft)
		if err != nil {
			return nil, fmt.Errorf("question %d: %w", i+1, err)
		}
		questions[i] = q
	}
	return questions, nil
}

// persistQuestions creates the questions concurrently and appends them to the quiz in order.
func (s *QuizService) persistQuestions(ctx context.Context, quiz domain.Quiz, questions []domain.Question) (domain.Quiz, error) {
	ids := make([]string, len(questions))
	for i, q := range questions {
		ids[i] = q.ID
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := range questions {
		g.Go(func() error {
			created, err := s.questions.Create(gctx, questions[i])
			if err != nil {
				return err
			}
			questions[i] = created
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.discard(ctx, ids)
		return domain.Quiz{}, err
	}

	updated, err := s.quizzes.AppendQuestions(ctx, quiz.ID, ids)
	if err != nil {
		s.discard(ctx, ids)
		return domain.Quiz{}, err
	}
	return updated, nil
}

// discard removes questions that could not be linked to their quiz.
func (s *QuizService) discard(ctx context.Context, ids []string) {
	if _, err := s.questions.DeleteMany(ctx, ids); err != nil {
		s.opts.logger.WithError(err).Warn("failed to remove unlinked questions")
	}
}

func (s *QuizService) buildQuestion(quiz domain.Quiz, userID string, draft QuestionDraft) (domain.Question, error) {
	quizType := draft.QuizType
	if quizType == "" {
		quizType = quiz.Type
	}
	if quizType != quiz.Type {
		return domain.Question{}, fmt.Errorf("%w: question type %q does not match quiz type %q", domain.ErrInvalidInput, quizType, quiz.Type)
	}
	correct, timer, err := scoringFields(quizType, len(draft.Options), draft.CorrectAnswer, draft.Timer)
	if err != nil {
		return domain.Question{}, err
	}
	return domain.Question{
		ID:            s.opts.newID(),
		Prompt:        draft.Prompt,
		Options:       toOptions(draft.Options),
		QuizType:      quizType,
		CorrectAnswer: correct,
		Timer:         timer,
		QuizID:        quiz.ID,
		Creator:       userID,
		CreatedAt:     s.opts.now().UTC(),
	}, nil
}

// scoringFields enforces that correctAnswer and timer exist only for Q&A questions.
func scoringFields(quizType domain.QuizType, options int, correct *int, timer domain.Timer) (*int, domain.Timer, error) {
	switch quizType {
	case domain.QuizTypeQnA:
		if correct == nil {
			return nil, "", fmt.Errorf("%w: correctAnswer is required for Q&A questions", domain.ErrInvalidInput)
		}
		if *correct < 1 || *correct > options {
			return nil, "", fmt.Errorf("%w: correctAnswer %d out of range 1..%d", domain.ErrInvalidInput, *correct, options)
		}
		if !timer.Valid() {
			return nil, "", fmt.Errorf("%w: timer must be one of 5, 10, OFF", domain.ErrInvalidInput)
		}
		answer := *correct
		return &answer, timer, nil
	case domain.QuizTypePoll:
		return nil, domain.TimerOff, nil
	}
	return nil, "", fmt.Errorf("%w: %q", domain.ErrInvalidQuizType, quizType)
}

func toOptions(drafts []OptionDraft) []domain.Option {
	options := make([]domain.Option, len(drafts))
	for i, d := range drafts {
		options[i] = domain.Option{Text: d.Text, ImageURL: d.ImageURL}
	}
	return options
}

// QuizQuestions returns the questions of a quiz in quiz order.
func (s *QuizService) QuizQuestions(ctx context.Context, quizID string) ([]domain.Question, error) {
	quiz, err := s.findQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if len(quiz.Questions) == 0 {
		return []domain.Question{}, nil
	}
	return s.questions.FindMany(ctx, quiz.Questions)
}

// UpdateQuizQuestions applies every update or none: all questions must exist and
// belong to the quiz before the first one is written.
func (s *QuizService) UpdateQuizQuestions(ctx context.Context, quizID string, updates []QuestionUpdate) ([]domain.Question, error) {
	quiz, err := s.findQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if updates == nil {
		return nil, fmt.Errorf("%w: questions must be an array", domain.ErrInvalidInput)
	}

	patches := make([]domain.QuestionPatch, len(updates))
	for i, u := range updates {
		if err := validateStruct(u); err != nil {
			return nil, fmt.Errorf("question %d: %w", i+1, err)
		}
		if err := checkID("question id", u.ID); err != nil {
			return nil, err
		}
		if !slices.Contains(quiz.Questions, u.ID) {
			return nil, fmt.Errorf("%w: %s", domain.ErrQuestionNotFound, u.ID)
		}
		existing, err := s.questions.FindByID(ctx, u.ID)
		if err != nil {
			return nil, err
		}
		correct, timer, err := scoringFields(existing.QuizType, len(u.Options), u.CorrectAnswer, u.Timer)
		if err != nil {
			return nil, fmt.Errorf("question %d: %w", i+1, err)
		}
		patches[i] = domain.QuestionPatch{
			Prompt:        u.Prompt,
			Options:       toOptions(u.Options),
			CorrectAnswer: correct,
			Timer:         timer,
		}
	}

	updated := make([]domain.Question, 0, len(updates))
	for i, u := range updates {
		q, err := s.questions.Update(ctx, u.ID, patches[i])
		if err != nil {
			return nil, err
		}
		updated = append(updated, q)
	}
	s.invalidate(ctx, quiz.ID)
	return updated, nil
}

// QuestionsByCreator lists the questions authored by userID.
func (s *QuizService) QuestionsByCreator(ctx context.Context, userID string) ([]domain.Question, error) {
	if err := checkID("user id", userID); err != nil {
		return nil, err
	}
	questions, err := s.questions.FindByCreator(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: no questions for user %s", domain.ErrQuestionNotFound, userID)
	}
	return questions, nil
}

func isQuestionMissing(err error) bool {
	return errors.Is(err, domain.ErrQuestionNotFound)
}
