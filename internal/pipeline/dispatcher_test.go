package pipeline

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/dshills/acra/internal/queue"
	"github.com/dshills/acra/internal/review"
	"github.com/dshills/acra/internal/submission"
)

func TestDispatcher_QueueDownReviewsInline(t *testing.T) {
	ctx := context.Background()
	store := submission.NewMemoryStore()
	runner := NewRunner(store, rulesOnly())
	q := &failingQueue{}

	var logs bytes.Buffer
	d := NewDispatcher(store, AsyncExecutor{Queue: q}, InlineExecutor{Runner: runner},
		WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))

	sub, err := d.Submit(ctx, "x = 1", strPtr("python"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if q.calls.Load() != 1 {
		t.Errorf("enqueue attempts = %d, want 1", q.calls.Load())
	}
	if !sub.Status.Terminal() {
		t.Fatalf("Status = %q, want terminal", sub.Status)
	}
	if sub.Status != submission.StatusReviewed || !strings.Contains(*sub.Review, "Basic Review (python)") {
		t.Errorf("submission = %+v", sub)
	}
	if !strings.Contains(logs.String(), "level=WARN") {
		t.Errorf("fallback should be logged as a warning:\n%s", logs.String())
	}
}

func TestDispatcher_DisabledQueue(t *testing.T) {
	ctx := context.Background()
	store := submission.NewMemoryStore()
	runner := NewRunner(store, rulesOnly())
	d := NewDispatcher(store, AsyncExecutor{Queue: queue.Disabled{}}, InlineExecutor{Runner: runner})

	sub, err := d.Submit(ctx, "", strPtr("js"))
	if err != nil {
		t.Fatal(err)
	}
	if sub.Status != submission.StatusReviewed {
		t.Errorf("Status = %q", sub.Status)
	}
	if !strings.Contains(*sub.Review, "Code is empty.") {
		t.Errorf("Review = %q", *sub.Review)
	}
}

func TestDispatcher_AsyncLeavesPending(t *testing.T) {
	ctx := context.Background()
	store := submission.NewMemoryStore()
	runner := NewRunner(store, rulesOnly())
	q := newChanQueue()
	d := NewDispatcher(store, AsyncExecutor{Queue: q}, InlineExecutor{Runner: runner})

	sub, err := d.Submit(ctx, "print('x')", strPtr("python"))
	if err != nil {
		t.Fatal(err)
	}
	if sub.Status != submission.StatusPending || sub.Review != nil {
		t.Errorf("submission = %+v, want pending", sub)
	}
	select {
	case job := <-q.ch:
		if job.SubmissionID != sub.ID {
			t.Errorf("job id = %d, want %d", job.SubmissionID, sub.ID)
		}
		if job.EnqueuedAt.IsZero() {
			t.Error("EnqueuedAt should be set")
		}
	default:
		t.Fatal("no job enqueued")
	}
}

func TestDispatcher_NilAsync(t *testing.T) {
	store := submission.NewMemoryStore()
	d := NewDispatcher(store, nil, InlineExecutor{Runner: NewRunner(store, rulesOnly())})
	sub, err := d.Submit(context.Background(), "x = 1", nil)
	if err != nil {
		t.Fatal(err)
	}
	if sub.Status != submission.StatusReviewed {
		t.Errorf("Status = %q", sub.Status)
	}
}

func TestDispatcher_InlineFailureStillReturns(t *testing.T) {
	ctx := context.Background()
	mem := submission.NewMemoryStore()
	store := &flakyStore{Store: mem, failReviewed: context.DeadlineExceeded}
	d := NewDispatcher(store, AsyncExecutor{Queue: &failingQueue{}}, InlineExecutor{Runner: NewRunner(store, rulesOnly())})

	sub, err := d.Submit(ctx, "x = 1", nil)
	if err != nil {
		t.Fatalf("Submit should succeed even when the review fails: %v", err)
	}
	if sub.Status != submission.StatusError {
		t.Errorf("Status = %q, want error", sub.Status)
	}
}

func TestDispatcher_InlineReviewOutlivesCaller(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	mem := submission.NewMemoryStore()
	store := ctxStore{Store: mem}

	var reviewCtxErr error
	runner := NewRunner(store, funcReviewer(func(rctx context.Context, code, language string) review.Result {
		cancel()
		reviewCtxErr = rctx.Err()
		return review.Result{Text: "looks fine", Provider: "stub"}
	}))
	d := NewDispatcher(store, AsyncExecutor{Queue: &failingQueue{}}, InlineExecutor{Runner: runner})

	sub, err := d.Submit(ctx, "x = 1", strPtr("python"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if reviewCtxErr != nil {
		t.Errorf("review context err = %v, want nil", reviewCtxErr)
	}
	if sub.Status != submission.StatusReviewed || sub.Review == nil || *sub.Review != "looks fine" {
		t.Fatalf("returned submission = %+v, want reviewed", sub)
	}
	stored, err := mem.Get(context.Background(), sub.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Status != submission.StatusReviewed {
		t.Errorf("stored status = %q, want reviewed", stored.Status)
	}
}
