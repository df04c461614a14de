package engine

import (
	"log/slog"
	"time"

	"github.com/scrypster/ephemera/internal/insight"
)

// Option configures a Loom or a Room.
type Option func(*options)

type options struct {
	now    func() time.Time
	rand   insight.RandomSource
	logger *slog.Logger
	newID  func() string
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithRandomSource sets the source of lifespan jitter.
func WithRandomSource(src insight.RandomSource) Option {
	return func(o *options) { o.rand = src }
}

// WithLogger sets the logger for lifecycle and mutation events.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithIDGenerator replaces the UUID generator used for threads and messages.
func WithIDGenerator(fn func() string) Option {
	return func(o *options) { o.newID = fn }
}

func buildOptions(opts []Option) options {
	o := options{
		now:    time.Now,
		rand:   insight.AmbientSource(),
		logger: slog.Default(),
		newID:  newUUID,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
