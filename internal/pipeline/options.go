package pipeline

import (
	"io"
	"log/slog"
	"time"

	"github.com/dshills/acra/internal/events"
)

// Option configures pipeline components.
type Option func(*options)

type options struct {
	log       *slog.Logger
	publisher events.Publisher
	backoff   time.Duration
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithEvents publishes terminal transitions to p.
func WithEvents(p events.Publisher) Option {
	return func(o *options) { o.publisher = p }
}

// WithBackoff sets the pause after a failed dequeue.
func WithBackoff(d time.Duration) Option {
	return func(o *options) { o.backoff = d }
}

func buildOptions(opts []Option) options {
	o := options{
		log:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		publisher: events.Nop{},
		backoff:   time.Second,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
