package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"quiz-insights-service/internal/app"
	"quiz-insights-service/internal/domain"
)

// ReportCache keeps analytics reports for a TTL to avoid re-folding responses on every read.
type ReportCache struct {
	loader app.ReportLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	mu    sync.RWMutex
	rnd   *rand.Rand
	cache map[string]cachedReport
	// generation is bumped by Invalidate so that loads started earlier are not stored.
	generation map[string]uint64
}

type cachedReport struct {
	report    domain.AnalyticsReport
	expiresAt time.Time
}

func NewReportCache(loader app.ReportLoader, ttl time.Duration) *ReportCache {
	return &ReportCache{
		loader:     loader,
		ttl:        ttl,
		clock:      time.Now,
		rnd:        rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:      make(map[string]cachedReport),
		generation: make(map[string]uint64),
	}
}

func (c *ReportCache) LoadReport(ctx context.Context, quizID string) (domain.AnalyticsReport, error) {
	if report, ok := c.lookup(quizID); ok {
		return report, nil
	}

	result, err, _ := c.sf.Do(quizID, func() (interface{}, error) {
		if report, ok := c.lookup(quizID); ok {
			return report, nil
		}
		c.mu.RLock()
		gen := c.generation[quizID]
		c.mu.RUnlock()

		report, err := c.loader.LoadReport(ctx, quizID)
		if err != nil {
			return domain.AnalyticsReport{}, err
		}

		c.mu.Lock()
		if c.generation[quizID] == gen {
			c.cache[quizID] = cachedReport{
				report:    report,
				expiresAt: c.clock().Add(c.ttlWithJitterLocked()),
			}
		}
		c.mu.Unlock()
		return report, nil
	})
	if err != nil {
		return domain.AnalyticsReport{}, err
	}
	return result.(domain.AnalyticsReport), nil
}

// Invalidate drops the cached report of quizID.
func (c *ReportCache) Invalidate(_ context.Context, quizID string) error {
	c.mu.Lock()
	delete(c.cache, quizID)
	c.generation[quizID]++
	c.mu.Unlock()
	c.sf.Forget(quizID)
	return nil
}

func (c *ReportCache) lookup(quizID string) (domain.AnalyticsReport, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.cache[quizID]
	if !ok || !entry.expiresAt.After(c.clock()) {
		return domain.AnalyticsReport{}, false
	}
	return entry.report, true
}

func (c *ReportCache) ttlWithJitterLocked() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
