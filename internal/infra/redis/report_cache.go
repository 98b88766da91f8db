package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"quiz-insights-service/internal/app"
	"quiz-insights-service/internal/domain"
)

// ReportCache stores analytics reports as JSON in Redis and falls back to a loader on miss.
// Reports are stored as:     SET quiz:{quizID}:analytics:{generation} {json} EX ttl
// Invalidation bumps:        INCR quiz:{quizID}:analytics:generation
// so a report computed before an invalidation is written under a key nobody reads.
type ReportCache struct {
	client *redis.Client
	loader app.ReportLoader
	ttl    time.Duration
	sf     singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewReportCache(client *redis.Client, loader app.ReportLoader, ttl time.Duration) *ReportCache {
	return &ReportCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *ReportCache) LoadReport(ctx context.Context, quizID string) (domain.AnalyticsReport, error) {
	key, err := c.reportKey(ctx, quizID)
	if err != nil {
		return domain.AnalyticsReport{}, err
	}
	if report, ok := c.cached(ctx, key); ok {
		return report, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another instance filled it.
		if report, ok := c.cached(ctx, key); ok {
			return report, nil
		}

		report, err := c.loader.LoadReport(ctx, quizID)
		if err != nil {
			return domain.AnalyticsReport{}, err
		}

		if ttl := c.ttlWithJitter(); ttl > 0 {
			if data, err := json.Marshal(report); err == nil {
				_ = c.client.Set(ctx, key, data, ttl).Err()
			}
		}
		return report, nil
	})
	if err != nil {
		return domain.AnalyticsReport{}, err
	}
	return result.(domain.AnalyticsReport), nil
}

// Invalidate makes every report cached so far for quizID unreachable.
func (c *ReportCache) Invalidate(ctx context.Context, quizID string) error {
	if err := c.client.Incr(ctx, c.generationKey(quizID)).Err(); err != nil {
		return fmt.Errorf("invalidate analytics of %s: %w", quizID, err)
	}
	return nil
}

func (c *ReportCache) cached(ctx context.Context, key string) (domain.AnalyticsReport, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return domain.AnalyticsReport{}, false
	}
	var report domain.AnalyticsReport
	if err := json.Unmarshal(data, &report); err != nil {
		return domain.AnalyticsReport{}, false
	}
	return report, true
}

func (c *ReportCache) reportKey(ctx context.Context, quizID string) (string, error) {
	gen, err := c.client.Get(ctx, c.generationKey(quizID)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("read analytics generation: %w", err)
	}
	return fmt.Sprintf("quiz:%s:analytics:%d", quizID, gen), nil
}

func (c *ReportCache) generationKey(quizID string) string {
	return "quiz:" + quizID + ":analytics:generation"
}

func (c *ReportCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
