package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"quiz-insights-service/internal/domain"
)

func TestIncrementImpressionsIsAtomic(t *testing.T) {
	ctx := context.Background()
	quizzes := NewQuizStore(NewDB())
	if _, err := quizzes.Create(ctx, domain.Quiz{ID: "quiz-1", Impressions: 3}); err != nil {
		t.Fatalf("create: %v", err)
	}

	const calls = 50
	var wg sync.WaitGroup
	for i := 0; i < calls; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := quizzes.IncrementImpressions(ctx, "quiz-1"); err != nil {
				t.Errorf("increment: %v", err)
			}
		}()
	}
	wg.Wait()

	quiz, err := quizzes.FindByID(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if quiz.Impressions != 3+calls {
		t.Fatalf("expected %d impressions, got %d", 3+calls, quiz.Impressions)
	}
}

func TestDeleteCascadeRemovesQuestions(t *testing.T) {
	ctx := context.Background()
	db := NewDB()
	quizzes, questions := NewQuizStore(db), NewQuestionStore(db)

	_, _ = quizzes.Create(ctx, domain.Quiz{ID: "quiz-1", Questions: []string{"q1", "q2"}})
	_, _ = questions.Create(ctx, domain.Question{ID: "q1"})
	_, _ = questions.Create(ctx, domain.Question{ID: "q2"})
	_, _ = questions.Create(ctx, domain.Question{ID: "q3"})

	removed, err := quizzes.DeleteCascade(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 removed questions, got %d", removed)
	}
	if _, err := quizzes.FindByID(ctx, "quiz-1"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected quiz removed, got %v", err)
	}
	for _, id := range []string{"q1", "q2"} {
		if _, err := questions.FindByID(ctx, id); !errors.Is(err, domain.ErrQuestionNotFound) {
			t.Fatalf("expected %s removed, got %v", id, err)
		}
	}
	if _, err := questions.FindByID(ctx, "q3"); err != nil {
		t.Fatalf("unrelated question should survive: %v", err)
	}
	if _, err := quizzes.DeleteCascade(ctx, "quiz-1"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestTrendingOrdersByImpressionsThenNewest(t *testing.T) {
	ctx := context.Background()
	quizzes := NewQuizStore(NewDB())
	t1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)
	t3 := t1.Add(2 * time.Hour)

	_, _ = quizzes.Create(ctx, domain.Quiz{ID: "a", Creator: "u1", Impressions: 5, CreatedOn: t1})
	_, _ = quizzes.Create(ctx, domain.Quiz{ID: "b", Creator: "u1", Impressions: 5, CreatedOn: t2})
	_, _ = quizzes.Create(ctx, domain.Quiz{ID: "c", Creator: "u1", Impressions: 3, CreatedOn: t3})
	_, _ = quizzes.Create(ctx, domain.Quiz{ID: "other", Creator: "u2", Impressions: 9, CreatedOn: t3})

	trending, err := quizzes.Trending(ctx, "u1")
	if err != nil {
		t.Fatalf("trending: %v", err)
	}
	got := []string{}
	for _, q := range trending {
		got = append(got, q.ID)
	}
	if len(got) != 3 || got[0] != "b" || got[1] != "a" || got[2] != "c" {
		t.Fatalf("unexpected order %v", got)
	}
}

func TestTotalImpressionsWithoutQuizzesIsZero(t *testing.T) {
	total, err := NewQuizStore(NewDB()).TotalImpressions(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("total: %v", err)
	}
	if total != 0 {
		t.Fatalf("expected 0, got %d", total)
	}
}

func TestQuestionCounters(t *testing.T) {
	ctx := context.Background()
	questions := NewQuestionStore(NewDB())
	_, _ = questions.Create(ctx, domain.Question{
		ID:       "q1",
		QuizType: domain.QuizTypePoll,
		Options:  []domain.Option{{Text: "a"}, {Text: "b"}},
	})

	q, err := questions.IncrementOption(ctx, "q1", 1)
	if err != nil {
		t.Fatalf("increment option: %v", err)
	}
	if q.Options[1].Attempts != 1 || q.Options[0].Attempts != 0 {
		t.Fatalf("unexpected option counters %+v", q.Options)
	}
	q, _ = questions.IncrementOption(ctx, "q1", 7)
	if q.Options[0].Attempts+q.Options[1].Attempts != 1 {
		t.Fatalf("out of range option should not change counters: %+v", q.Options)
	}

	q, _ = questions.IncrementAttempts(ctx, "q1", true)
	q, _ = questions.IncrementAttempts(ctx, "q1", false)
	if q.TotalAttempts != 2 || q.CorrectAttempts != 1 || q.IncorrectAttempts != 1 {
		t.Fatalf("unexpected attempt counters %+v", q)
	}

	if _, err := questions.IncrementAttempts(ctx, "missing", true); !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateKeepsSurvivingOptionCounters(t *testing.T) {
	ctx := context.Background()
	questions := NewQuestionStore(NewDB())
	_, _ = questions.Create(ctx, domain.Question{
		ID:      "q1",
		Options: []domain.Option{{Text: "a", Attempts: 4}, {Text: "b", Attempts: 2}},
	})

	q, err := questions.Update(ctx, "q1", domain.QuestionPatch{
		Prompt:  "new prompt",
		Options: []domain.Option{{Text: "A"}},
		Timer:   domain.TimerOff,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if q.Prompt != "new prompt" || len(q.Options) != 1 || q.Options[0].Attempts != 4 || q.Options[0].Text != "A" {
		t.Fatalf("unexpected updated question %+v", q)
	}
}

func TestFindManyKeepsRequestedOrder(t *testing.T) {
	ctx := context.Background()
	questions := NewQuestionStore(NewDB())
	_, _ = questions.Create(ctx, domain.Question{ID: "q1"})
	_, _ = questions.Create(ctx, domain.Question{ID: "q2"})

	found, err := questions.FindMany(ctx, []string{"q2", "missing", "q1"})
	if err != nil {
		t.Fatalf("find many: %v", err)
	}
	if len(found) != 2 || found[0].ID != "q2" || found[1].ID != "q1" {
		t.Fatalf("unexpected result %+v", found)
	}
}
