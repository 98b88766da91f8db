package app

import (
	"context"

	"quiz-insights-service/internal/domain"
)

// QuizRepository persists quizzes. Impression updates must be atomic in the store.
type QuizRepository interface {
	Create(ctx context.Context, quiz domain.Quiz) (domain.Quiz, error)
	FindByID(ctx context.Context, id string) (domain.Quiz, error)
	FindByCreator(ctx context.Context, userID string) ([]domain.Quiz, error)
	// Trending lists the user's quizzes by impressions desc, then createdOn desc.
	Trending(ctx context.Context, userID string) ([]domain.Quiz, error)
	AppendQuestions(ctx context.Context, id string, questionIDs []string) (domain.Quiz, error)
	IncrementImpressions(ctx context.Context, id string) (domain.Quiz, error)
	TotalImpressions(ctx context.Context, userID string) (int64, error)
	// DeleteCascade removes the quiz and every question it references in one
	// atomic step and returns the number of removed questions.
	DeleteCascade(ctx context.Context, id string) (int64, error)
}

// QuestionRepository persists questions and owns their attempt counters.
type QuestionRepository interface {
	Create(ctx context.Context, question domain.Question) (domain.Question, error)
	FindByID(ctx context.Context, id string) (domain.Question, error)
	// FindMany returns the questions that resolve, in the order of ids.
	FindMany(ctx context.Context, ids []string) ([]domain.Question, error)
	FindByCreator(ctx context.Context, userID string) ([]domain.Question, error)
	Update(ctx context.Context, id string, patch domain.QuestionPatch) (domain.Question, error)
	DeleteMany(ctx context.Context, ids []string) (int64, error)
	IncrementAttempts(ctx context.Context, id string, correct bool) (domain.Question, error)
	IncrementOption(ctx context.Context, id string, optionIndex int) (domain.Question, error)
}

// ResponseRepository is the append-only log of submissions.
type ResponseRepository interface {
	Record(ctx context.Context, response domain.QuizResponse) (domain.QuizResponse, error)
	FindByQuiz(ctx context.Context, quizID string) ([]domain.QuizResponse, error)
}

// ReportLoader produces analytics reports (directly or from a cache).
type ReportLoader interface {
	LoadReport(ctx context.Context, quizID string) (domain.AnalyticsReport, error)
}

// ReportCache is a ReportLoader whose entries can be dropped after a submission.
type ReportCache interface {
	ReportLoader
	Invalidate(ctx context.Context, quizID string) error
}
