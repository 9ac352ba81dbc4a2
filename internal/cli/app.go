package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dshills/acra/internal/cache"
	"github.com/dshills/acra/internal/config"
	"github.com/dshills/acra/internal/events"
	"github.com/dshills/acra/internal/pipeline"
	"github.com/dshills/acra/internal/postgres"
	"github.com/dshills/acra/internal/queue"
	"github.com/dshills/acra/internal/review"
	"github.com/dshills/acra/internal/submission"
)

// startupProbe bounds each backend check made while wiring the app.
const startupProbe = 5 * time.Second

// app holds the components shared by serve, worker and reprocess.
type app struct {
	cfg        config.Config
	log        *slog.Logger
	store      submission.Store
	queue      queue.Queue
	publisher  events.Publisher
	chain      *review.Chain
	runner     *pipeline.Runner
	dispatcher *pipeline.Dispatcher

	closers []func() error
}

// buildApp wires the store, queue, event publisher, review chain and
// pipeline from cfg. Unreachable backends are logged, never fatal: the API
// must still start and fall back to inline review.
func buildApp(ctx context.Context, cfg config.Config, log *slog.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log, publisher: events.Nop{}}

	store, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	a.store = store

	q, err := queue.Open(cfg.Queue)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("opening queue: %w", err)
	}
	a.queue = q
	a.closers = append(a.closers, q.Close)

	if rq, ok := q.(*queue.RedisQueue); ok {
		pctx, cancel := context.WithTimeout(ctx, startupProbe)
		if err := rq.Ping(pctx); err != nil {
			log.Warn("queue unreachable, reviews will run inline until it recovers", "queue", rq.Name(), "error", err)
		}
		cancel()
		if cfg.Events.Enabled {
			a.publisher = events.NewPublisher(rq.Client(), cfg.Events.Stream, cfg.Events.MaxLen)
		}
	} else {
		log.Info("no queue configured, reviews run inline")
		if cfg.Events.Enabled {
			log.Warn("review events need queue.address; events disabled")
		}
	}

	c, err := cache.New(cfg.Cache)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("opening cache: %w", err)
	}
	chainOpts := []review.Option{review.WithLogger(log)}
	if c.Enabled() {
		chainOpts = append(chainOpts, review.WithCache(c))
	}
	a.chain = review.NewChain(cfg, chainOpts...)
	log.Info("review chain ready", "providers", a.chain.Names())

	a.runner = pipeline.NewRunner(a.store, a.chain,
		pipeline.WithLogger(log), pipeline.WithEvents(a.publisher))
	a.dispatcher = pipeline.NewDispatcher(a.store,
		pipeline.AsyncExecutor{Queue: a.queue},
		pipeline.InlineExecutor{Runner: a.runner},
		pipeline.WithLogger(log))
	return a, nil
}

func (a *app) openStore(ctx context.Context) (submission.Store, error) {
	switch a.cfg.Store.Driver {
	case config.DriverMemory:
		a.log.Warn("using the in-memory store; submissions are lost on exit")
		return submission.NewMemoryStore(), nil
	case config.DriverPostgres:
		db, err := postgres.Open(a.cfg.Store.DSN)
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		mctx, cancel := context.WithTimeout(ctx, startupProbe)
		defer cancel()
		if err := postgres.Migrate(mctx, db); err != nil {
			a.log.Warn("could not prepare database schema, continuing", "error", err)
		}
		store := postgres.NewStore(db)
		a.closers = append(a.closers, store.Close)
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store driver: %q", a.cfg.Store.Driver)
	}
}

// hasQueue reports whether a broker is configured.
func (a *app) hasQueue() bool {
	_, disabled := a.queue.(queue.Disabled)
	return a.queue != nil && !disabled
}

// Close releases every backend in reverse order of opening.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
