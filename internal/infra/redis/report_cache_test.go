package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"quiz-insights-service/internal/domain"
)

func TestReportCacheCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	loader := &countingLoader{}
	cache := NewReportCache(newClient(mr), loader, time.Minute)

	report, err := cache.LoadReport(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("load report: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}
	if !mr.Exists("quiz:quiz-1:analytics:0") {
		t.Fatalf("expected report stored in redis, keys=%v", mr.Keys())
	}

	// Second call should hit cache, loader not incremented.
	cached, err := cache.LoadReport(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("load cached report: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
	if cached.Analytics.QuizName != report.Analytics.QuizName || cached.Analytics.PollResponses["q1"].Options["2"] != 3 {
		t.Fatalf("cached report differs: %+v", cached)
	}
}

func TestReportCacheInvalidateBumpsGeneration(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	loader := &countingLoader{}
	cache := NewReportCache(newClient(mr), loader, time.Minute)

	_, _ = cache.LoadReport(context.Background(), "quiz-1")
	if err := cache.Invalidate(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if _, err := cache.LoadReport(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("load after invalidate: %v", err)
	}
	if loader.calls != 2 {
		t.Fatalf("expected reload after invalidate, loader calls=%d", loader.calls)
	}
	if !mr.Exists("quiz:quiz-1:analytics:1") {
		t.Fatalf("expected report under new generation, keys=%v", mr.Keys())
	}
}

func TestReportCacheExpiresWithTTL(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	loader := &countingLoader{}
	cache := NewReportCache(newClient(mr), loader, time.Minute)

	_, _ = cache.LoadReport(context.Background(), "quiz-1")
	mr.FastForward(2 * time.Minute)
	_, _ = cache.LoadReport(context.Background(), "quiz-1")
	if loader.calls != 2 {
		t.Fatalf("expected reload after ttl, loader calls=%d", loader.calls)
	}
}

func TestReportCachePropagatesLoaderErrors(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	cache := NewReportCache(newClient(mr), &countingLoader{err: domain.ErrQuizNotFound}, time.Minute)
	if _, err := cache.LoadReport(context.Background(), "quiz-1"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected quiz not found, got %v", err)
	}
	if len(mr.Keys()) != 0 {
		t.Fatalf("errors must not be cached, keys=%v", mr.Keys())
	}
}

type countingLoader struct {
	calls int
	err   error
}

func (l *countingLoader) LoadReport(_ context.Context, quizID string) (domain.AnalyticsReport, error) {
	l.calls++
	if l.err != nil {
		return domain.AnalyticsReport{}, l.err
	}
	return domain.AnalyticsReport{
		QuizID: quizID,
		Analytics: domain.Analytics{
			QuizName: "Favourite colours",
			PollResponses: map[string]domain.PollTally{
				"q1": {QuestionText: "Pick one", Options: map[string]int{"2": 3}},
			},
		},
	}, nil
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
