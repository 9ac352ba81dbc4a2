package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dshills/acra/internal/events"
	"github.com/dshills/acra/internal/queue"
	"github.com/dshills/acra/internal/review"
	"github.com/dshills/acra/internal/submission"
)

func strPtr(s string) *string { return &s }

// rulesOnly is the chain with every remote provider unavailable.
func rulesOnly() *review.Chain {
	return review.NewStaticChain(nil)
}

// funcReviewer adapts a function to Reviewer.
type funcReviewer func(ctx context.Context, code, language string) review.Result

func (f funcReviewer) GenerateReview(ctx context.Context, code, language string) review.Result {
	return f(ctx, code, language)
}

// flakyStore wraps a store and fails selected operations.
type flakyStore struct {
	submission.Store
	failReviewed error
	failGet      error
}

func (f *flakyStore) MarkReviewed(ctx context.Context, id int64, text string) error {
	if f.failReviewed != nil {
		return f.failReviewed
	}
	return f.Store.MarkReviewed(ctx, id, text)
}

func (f *flakyStore) Get(ctx context.Context, id int64) (submission.Submission, error) {
	if f.failGet != nil {
		return submission.Submission{}, f.failGet
	}
	return f.Store.Get(ctx, id)
}

// ctxStore fails writes on a cancelled context, as database/sql does.
type ctxStore struct {
	submission.Store
}

func (c ctxStore) MarkProcessing(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.Store.MarkProcessing(ctx, id)
}

func (c ctxStore) MarkReviewed(ctx context.Context, id int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.Store.MarkReviewed(ctx, id, text)
}

// failingQueue rejects every enqueue.
type failingQueue struct {
	queue.Disabled
	calls atomic.Int32
}

func (f *failingQueue) Enqueue(context.Context, queue.Job) error {
	f.calls.Add(1)
	return errors.New("connection refused")
}

// chanQueue is an in-memory queue for worker tests.
type chanQueue struct {
	ch chan queue.Job
}

func newChanQueue() *chanQueue { return &chanQueue{ch: make(chan queue.Job, 64)} }

func (q *chanQueue) Enqueue(_ context.Context, job queue.Job) error {
	q.ch <- job
	return nil
}

func (q *chanQueue) Dequeue(ctx context.Context) (queue.Job, error) {
	select {
	case <-ctx.Done():
		return queue.Job{}, ctx.Err()
	case job := <-q.ch:
		return job, nil
	}
}

func (q *chanQueue) Close() error { return nil }

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordingPublisher) Publish(_ context.Context, ev events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recordingPublisher) snapshot() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.Event(nil), r.events...)
}

// waitFor polls cond until it is true or the deadline passes.
func waitFor(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}
