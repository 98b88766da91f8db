package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"quiz-insights-service/internal/domain"
)

// QuizService contains the quiz and question authoring use cases.
type QuizService struct {
	quizzes   QuizRepository
	questions QuestionRepository
	opts      options
}

func NewQuizService(quizzes QuizRepository, questions QuestionRepository, opts ...Option) *QuizService {
	return &QuizService{quizzes: quizzes, questions: questions, opts: buildOptions(opts)}
}

// QuizDraft is the payload for creating a quiz, optionally with an initial question batch.
type QuizDraft struct {
	Name      string          `json:"name" validate:"required"`
	Type      domain.QuizType `json:"type" validate:"required"`
	Questions []QuestionDraft `json:"questions" validate:"dive"`
}

// CreateQuiz stores a new quiz owned by userID.
func (s *QuizService) CreateQuiz(ctx context.Context, userID string, draft QuizDraft) (domain.Quiz, error) {
	if err := checkID("user id", userID); err != nil {
		return domain.Quiz{}, err
	}
	draft.Name = strings.TrimSpace(draft.Name)
	if err := validateStruct(draft); err != nil {
		return domain.Quiz{}, err
	}
	if !draft.Type.Valid() {
		return domain.Quiz{}, fmt.Errorf("%w: %q", domain.ErrInvalidQuizType, draft.Type)
	}

	quiz := domain.Quiz{
		ID:        s.opts.newID(),
		Name:      draft.Name,
		Type:      draft.Type,
		CreatedOn: s.opts.now().UTC(),
		Creator:   userID,
		Questions: []string{},
	}
	questions, err := s.buildQuestions(quiz, userID, draft.Questions)
	if err != nil {
		return domain.Quiz{}, err
	}

	quiz, err = s.quizzes.Create(ctx, quiz)
	if err != nil {
		return domain.Quiz{}, err
	}
	if len(questions) == 0 {
		return quiz, nil
	}
	updated, err := s.persistQuestions(ctx, quiz, questions)
	if err != nil {
		if _, derr := s.quizzes.DeleteCascade(ctx, quiz.ID); derr != nil {
			s.opts.logger.WithError(derr).WithField("quiz_id", quiz.ID).Warn("failed to remove quiz after question error")
		}
		return domain.Quiz{}, err
	}
	return updated, nil
}

// GetQuiz returns the quiz and counts the access as one impression.
func (s *QuizService) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	if err := checkID("quiz id", quizID); err != nil {
		return domain.Quiz{}, err
	}
	quiz, err := s.quizzes.IncrementImpressions(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	s.invalidate(ctx, quizID)
	return quiz, nil
}

// RecordImpression counts one impression and returns the new total.
func (s *QuizService) RecordImpression(ctx context.Context, quizID string) (int64, error) {
	quiz, err := s.GetQuiz(ctx, quizID)
	if err != nil {
		return 0, err
	}
	return quiz.Impressions, nil
}

func (s *QuizService) ListQuizzes(ctx context.Context, userID string) ([]domain.Quiz, error) {
	if err := checkID("user id", userID); err != nil {
		return nil, err
	}
	return s.quizzes.FindByCreator(ctx, userID)
}

// Trending lists the user's quizzes, most viewed first and newest first on ties.
func (s *QuizService) Trending(ctx context.Context, userID string) ([]domain.Quiz, error) {
	if err := checkID("user id", userID); err != nil {
		return nil, err
	}
	return s.quizzes.Trending(ctx, userID)
}

// TotalImpressions sums impressions over every quiz owned by userID.
func (s *QuizService) TotalImpressions(ctx context.Context, userID string) (int64, error) {
	if err := checkID("user id", userID); err != nil {
		return 0, err
	}
	return s.quizzes.TotalImpressions(ctx, userID)
}

// DeleteQuiz removes the quiz together with all of its questions.
func (s *QuizService) DeleteQuiz(ctx context.Context, quizID string) error {
	if err := checkID("quiz id", quizID); err != nil {
		return err
	}
	removed, err := s.quizzes.DeleteCascade(ctx, quizID)
	if err != nil {
		return err
	}
	s.invalidate(ctx, quizID)
	s.opts.logger.WithFields(logrus.Fields{"quiz_id": quizID, "questions": removed}).Info("quiz deleted")
	return nil
}

// invalidate drops the cached analytics report after the quiz or its questions change.
func (s *QuizService) invalidate(ctx context.Context, quizID string) {
	if s.opts.cache == nil {
		return
	}
	if err := s.opts.cache.Invalidate(ctx, quizID); err != nil {
		s.opts.logger.WithError(err).WithField("quiz_id", quizID).Warn("failed to invalidate analytics cache")
	}
}

// QuestionsInUserQuizzes returns every question referenced by the user's quizzes.
func (s *QuizService) QuestionsInUserQuizzes(ctx context.Context, userID string) ([]domain.Question, error) {
	quizzes, err := s.ListQuizzes(ctx, userID)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, quiz := range quizzes {
		ids = append(ids, quiz.Questions...)
	}
	if len(ids) == 0 {
		return []domain.Question{}, nil
	}
	return s.questions.FindMany(ctx, ids)
}

func (s *QuizService) findQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	if err := checkID("quiz id", quizID); err != nil {
		return domain.Quiz{}, err
	}
	quiz, err := s.quizzes.FindByID(ctx, quizID)
	if errors.Is(err, domain.ErrQuizNotFound) {
		return domain.Quiz{}, fmt.Errorf("%w: %s", domain.ErrQuizNotFound, quizID)
	}
	return quiz, err
}
