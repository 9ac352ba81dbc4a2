package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dshills/acra/internal/events"
	"github.com/dshills/acra/internal/review"
	"github.com/dshills/acra/internal/submission"
)

// Reviewer produces review text. *review.Chain satisfies it.
type Reviewer interface {
	GenerateReview(ctx context.Context, code, language string) review.Result
}

// ExecutionError reports a review run that ended in the error state.
type ExecutionError struct {
	SubmissionID int64
	Err          error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("review of submission %d failed: %v", e.SubmissionID, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// Runner executes reviews against a store.
type Runner struct {
	store     submission.Store
	reviewer  Reviewer
	log       *slog.Logger
	publisher events.Publisher
	locks     keyedMutex
}

// NewRunner returns a Runner. Supported options: WithLogger, WithEvents.
func NewRunner(store submission.Store, reviewer Reviewer, opts ...Option) *Runner {
	o := buildOptions(opts)
	return &Runner{
		store:     store,
		reviewer:  reviewer,
		log:       o.log,
		publisher: o.publisher,
	}
}

// Run reviews submission id. A missing submission returns an error wrapping
// submission.ErrNotFound and changes nothing. Any failure after the
// submission is read leaves it in the error state and returns an
// *ExecutionError. Concurrent runs for the same id in this process are
// serialized.
func (r *Runner) Run(ctx context.Context, id int64) (err error) {
	unlock := r.locks.lock(id)
	defer unlock()

	start := time.Now()
	sub, err := r.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, submission.ErrNotFound) {
			r.log.Warn("submission not found", "submission_id", id)
			return err
		}
		return &ExecutionError{SubmissionID: id, Err: fmt.Errorf("reading submission: %w", err)}
	}

	defer func() {
		if p := recover(); p != nil {
			err = r.fail(ctx, sub, start, fmt.Errorf("panic: %v", p))
		}
	}()

	r.log.Info("processing review", "submission_id", id)
	if err := r.store.MarkProcessing(ctx, id); err != nil {
		return r.fail(ctx, sub, start, fmt.Errorf("marking processing: %w", err))
	}

	res := r.reviewer.GenerateReview(ctx, sub.Code, sub.LanguageOrEmpty())

	if err := r.store.MarkReviewed(ctx, id, res.Text); err != nil {
		return r.fail(ctx, sub, start, fmt.Errorf("storing review: %w", err))
	}

	elapsed := time.Since(start)
	r.log.Info("review completed", "submission_id", id, "provider", res.Provider, "duration_ms", elapsed.Milliseconds())
	r.publish(ctx, sub, submission.StatusReviewed, res.Provider, elapsed)
	return nil
}

// fail moves the submission to error. The write ignores cancellation of ctx
// so a shutdown does not strand the submission in processing.
func (r *Runner) fail(ctx context.Context, sub submission.Submission, start time.Time, cause error) error {
	r.log.Error("review failed", "submission_id", sub.ID, "error", cause)
	if err := r.store.MarkError(context.WithoutCancel(ctx), sub.ID); err != nil {
		r.log.Error("marking submission as error failed", "submission_id", sub.ID, "error", err)
	}
	r.publish(ctx, sub, submission.StatusError, "", time.Since(start))
	return &ExecutionError{SubmissionID: sub.ID, Err: cause}
}

func (r *Runner) publish(ctx context.Context, sub submission.Submission, status submission.Status, provider string, elapsed time.Duration) {
	ev := events.Event{
		SubmissionID: sub.ID,
		Status:       status,
		Provider:     provider,
		Language:     sub.LanguageOrEmpty(),
		DurationMs:   elapsed.Milliseconds(),
		CompletedAt:  time.Now().UTC(),
	}
	if err := r.publisher.Publish(context.WithoutCancel(ctx), ev); err != nil {
		r.log.Warn("publishing review event failed", "submission_id", sub.ID, "error", err)
	}
}

// Summary reports a ReprocessPending pass.
type Summary struct {
	Processed    int `json:"processed"`
	Errored      int `json:"errored"`
	TotalPending int `json:"total_pending"`
}

// ReprocessPending runs every submission that was pending when the call
// started, one at a time. Submissions created during the pass are left for
// the queue. Cancelling ctx stops the pass between submissions, never
// during one.
func (r *Runner) ReprocessPending(ctx context.Context) (Summary, error) {
	pending, err := r.store.ListByStatus(ctx, submission.StatusPending)
	if err != nil {
		return Summary{}, fmt.Errorf("listing pending submissions: %w", err)
	}

	summary := Summary{TotalPending: len(pending)}
	for _, sub := range pending {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if err := r.Run(context.WithoutCancel(ctx), sub.ID); err != nil {
			summary.Errored++
			continue
		}
		summary.Processed++
	}
	r.log.Info("reprocessed pending submissions",
		"processed", summary.Processed, "errored", summary.Errored, "total_pending", summary.TotalPending)
	return summary, nil
}

// keyedMutex hands out one mutex per submission id.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[int64]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func (k *keyedMutex) lock(id int64) (unlock func()) {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[int64]*refMutex)
	}
	m, ok := k.locks[id]
	if !ok {
		m = &refMutex{}
		k.locks[id] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, id)
		}
		k.mu.Unlock()
	}
}
