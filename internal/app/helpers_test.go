package app_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"quiz-insights-service/internal/app"
	"quiz-insights-service/internal/domain"
	"quiz-insights-service/internal/infra/memory"
)

type fixture struct {
	db          *memory.DB
	quizzes     *memory.QuizStore
	questions   *memory.QuestionStore
	responses   *memory.ResponseStore
	quizService *app.QuizService
	submissions *app.SubmissionService
	analytics   *app.AnalyticsService
	feed        *app.Feed
	logs        *test.Hook
	user        string
	now         time.Time
}

func newFixture(t *testing.T, opts ...app.Option) *fixture {
	t.Helper()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	db := memory.NewDB()
	f := &fixture{
		db:        db,
		quizzes:   memory.NewQuizStore(db),
		questions: memory.NewQuestionStore(db),
		responses: memory.NewResponseStore(db),
		feed:      app.NewFeed(),
		logs:      hook,
		user:      uuid.NewString(),
		now:       time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	base := append([]app.Option{
		app.WithLogger(logger),
		app.WithClock(func() time.Time { return f.now }),
	}, opts...)
	f.quizService = app.NewQuizService(f.quizzes, f.questions, base...)
	f.analytics = app.NewAnalyticsService(f.quizzes, f.questions, f.responses, base...)
	f.submissions = app.NewSubmissionService(f.quizzes, f.questions, f.responses,
		append(base, app.WithFeed(f.feed))...)
	return f
}

func intPtr(v int) *int { return &v }

func qnaQuestion(prompt string, correct int, options ...string) app.QuestionDraft {
	return app.QuestionDraft{
		Prompt:        prompt,
		Options:       optionDrafts(options...),
		CorrectAnswer: intPtr(correct),
		Timer:         domain.Timer10,
	}
}

func pollQuestion(prompt string, options ...string) app.QuestionDraft {
	return app.QuestionDraft{Prompt: prompt, Options: optionDrafts(options...)}
}

func optionDrafts(texts ...string) []app.OptionDraft {
	drafts := make([]app.OptionDraft, len(texts))
	for i, text := range texts {
		drafts[i] = app.OptionDraft{Text: text}
	}
	return drafts
}

func (f *fixture) createQuiz(t *testing.T, name string, quizType domain.QuizType, questions ...app.QuestionDraft) domain.Quiz {
	t.Helper()
	quiz, err := f.quizService.CreateQuiz(context.Background(), f.user, app.QuizDraft{
		Name:      name,
		Type:      quizType,
		Questions: questions,
	})
	require.NoError(t, err)
	return quiz
}

func (f *fixture) question(t *testing.T, id string) domain.Question {
	t.Helper()
	q, err := f.questions.FindByID(context.Background(), id)
	require.NoError(t, err)
	return q
}

// cachedQuizService returns a quiz service that invalidates the returned report cache.
func (f *fixture) cachedQuizService() (*app.QuizService, *memory.ReportCache) {
	reports := memory.NewReportCache(f.analytics, time.Hour)
	logger, _ := test.NewNullLogger()
	return app.NewQuizService(f.quizzes, f.questions, app.WithLogger(logger), app.WithReportCache(reports)), reports
}
