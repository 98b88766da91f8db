package app

import (
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type options struct {
	now    func() time.Time
	newID  func() string
	logger logrus.FieldLogger
	cache  ReportCache
	feed   *Feed
}

// Option customizes a service.
type Option func(*options)

// WithClock is used by tests for deterministic timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithIDGenerator overrides uuid generation.
func WithIDGenerator(newID func() string) Option {
	return func(o *options) { o.newID = newID }
}

func WithLogger(logger logrus.FieldLogger) Option {
	return func(o *options) { o.logger = logger }
}

// WithReportCache makes submissions invalidate cached analytics of their quiz.
func WithReportCache(cache ReportCache) Option {
	return func(o *options) { o.cache = cache }
}

// WithFeed makes submissions publish a SubmissionEvent.
func WithFeed(feed *Feed) Option {
	return func(o *options) { o.feed = feed }
}

func buildOptions(opts []Option) options {
	o := options{
		now:    time.Now,
		newID:  uuid.NewString,
		logger: logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
