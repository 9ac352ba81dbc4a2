package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dshills/acra/internal/queue"
	"github.com/dshills/acra/internal/submission"
)

// Worker drains a queue with a fixed number of goroutines.
type Worker struct {
	q           queue.Queue
	runner      *Runner
	concurrency int
	backoff     time.Duration
	log         *slog.Logger
}

// NewWorker returns a Worker. Supported options: WithLogger, WithBackoff.
func NewWorker(q queue.Queue, runner *Runner, concurrency int, opts ...Option) *Worker {
	o := buildOptions(opts)
	if concurrency < 1 {
		concurrency = 1
	}
	return &Worker{
		q:           q,
		runner:      runner,
		concurrency: concurrency,
		backoff:     o.backoff,
		log:         o.log,
	}
}

// Run processes jobs until ctx is cancelled, then waits for in-flight jobs to
// finish.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info("worker started", "concurrency", w.concurrency)

	var wg sync.WaitGroup
	for i := 0; i < w.concurrency; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			w.loop(ctx, slot)
		}(i)
	}
	wg.Wait()

	w.log.Info("worker stopped")
	return nil
}

func (w *Worker) loop(ctx context.Context, slot int) {
	for {
		job, err := w.q.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if errors.Is(err, queue.ErrMalformedJob) {
				w.log.Warn("dropping malformed job", "slot", slot, "error", err)
				continue
			}
			w.log.Error("dequeue failed", "slot", slot, "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(w.backoff):
			}
			continue
		}
		// In-flight jobs finish even when shutdown begins.
		w.process(context.WithoutCancel(ctx), slot, job)
	}
}

func (w *Worker) process(ctx context.Context, slot int, job queue.Job) {
	defer func() {
		if p := recover(); p != nil {
			w.log.Error("job panicked", "slot", slot, "submission_id", job.SubmissionID, "panic", fmt.Sprint(p))
		}
	}()

	if !job.EnqueuedAt.IsZero() {
		w.log.Debug("job dequeued", "slot", slot, "submission_id", job.SubmissionID, "wait_ms", time.Since(job.EnqueuedAt).Milliseconds())
	}
	err := w.runner.Run(ctx, job.SubmissionID)
	switch {
	case err == nil:
	case errors.Is(err, submission.ErrNotFound):
		w.log.Warn("skipping job for missing submission", "slot", slot, "submission_id", job.SubmissionID)
	default:
		w.log.Error("review job failed", "slot", slot, "submission_id", job.SubmissionID, "error", err)
	}
}
