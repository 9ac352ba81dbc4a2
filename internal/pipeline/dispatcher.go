package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dshills/acra/internal/queue"
	"github.com/dshills/acra/internal/submission"
)

// Executor starts a review for a submission.
type Executor interface {
	Execute(ctx context.Context, id int64) error
}

// AsyncExecutor hands the review to the queue.
type AsyncExecutor struct {
	Queue queue.Queue
}

func (e AsyncExecutor) Execute(ctx context.Context, id int64) error {
	return e.Queue.Enqueue(ctx, queue.Job{SubmissionID: id, EnqueuedAt: time.Now().UTC()})
}

// InlineExecutor reviews in the calling goroutine.
type InlineExecutor struct {
	Runner *Runner
}

func (e InlineExecutor) Execute(ctx context.Context, id int64) error {
	return e.Runner.Run(ctx, id)
}

// Dispatcher accepts new submissions.
type Dispatcher struct {
	store  submission.Store
	async  Executor
	inline Executor
	log    *slog.Logger
}

// NewDispatcher returns a Dispatcher that prefers async and falls back to
// inline. A nil async always runs inline.
func NewDispatcher(store submission.Store, async, inline Executor, opts ...Option) *Dispatcher {
	o := buildOptions(opts)
	return &Dispatcher{store: store, async: async, inline: inline, log: o.log}
}

// Submit persists a pending submission and starts its review. If the async
// executor fails, the review runs inline before Submit returns. The returned
// submission is re-read after dispatch: pending when queued, terminal when
// reviewed inline.
func (d *Dispatcher) Submit(ctx context.Context, code string, language *string) (submission.Submission, error) {
	sub, err := d.store.Create(ctx, code, language)
	if err != nil {
		return submission.Submission{}, fmt.Errorf("creating submission: %w", err)
	}

	d.dispatch(ctx, sub.ID)

	latest, err := d.store.Get(ctx, sub.ID)
	if err != nil {
		return sub, fmt.Errorf("re-reading submission %d: %w", sub.ID, err)
	}
	return latest, nil
}

func (d *Dispatcher) dispatch(ctx context.Context, id int64) {
	if d.async != nil {
		err := d.async.Execute(ctx, id)
		if err == nil {
			d.log.Debug("review queued", "submission_id", id)
			return
		}
		d.log.Warn("queue unavailable, reviewing inline", "submission_id", id, "error", err)
	}
	// A started review runs to completion even if the caller goes away.
	// The runner records the failure on the submission itself.
	if err := d.inline.Execute(context.WithoutCancel(ctx), id); err != nil {
		d.log.Error("inline review failed", "submission_id", id, "error", err)
	}
}
