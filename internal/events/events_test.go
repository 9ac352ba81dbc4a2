package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/dshills/acra/internal/submission"
)

func newClient(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return rdb, mr
}

func TestPublishAndConsume(t *testing.T) {
	rdb, _ := newClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pub := NewPublisher(rdb, "test:events", 100)
	completed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := pub.Publish(ctx, Event{
		SubmissionID: 7,
		Status:       submission.StatusReviewed,
		Provider:     "rules",
		Language:     "python",
		DurationMs:   12,
		CompletedAt:  completed,
	}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if err := pub.Publish(ctx, Event{SubmissionID: 8, Status: submission.StatusError}); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	consumer := NewConsumer(rdb, "test:events", "tail", WithBlock(100*time.Millisecond))

	var mu sync.Mutex
	var got []Event
	err := consumer.Run(ctx, func(_ context.Context, ev Event) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, ev)
		if len(got) == 2 {
			cancel()
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("got %d events, want 2", len(got))
	}
	first := got[0]
	if first.SubmissionID != 7 || first.Status != submission.StatusReviewed || first.Provider != "rules" {
		t.Errorf("first = %+v", first)
	}
	if !first.CompletedAt.Equal(completed) {
		t.Errorf("CompletedAt = %v, want %v", first.CompletedAt, completed)
	}
	if first.DurationMs != 12 || first.Language != "python" {
		t.Errorf("first = %+v", first)
	}
	if got[1].Status != submission.StatusError {
		t.Errorf("second status = %q", got[1].Status)
	}
}

func TestConsumer_HandlerErrorStops(t *testing.T) {
	rdb, _ := newClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	NewPublisher(rdb, "", 0).Publish(ctx, Event{SubmissionID: 1, Status: submission.StatusReviewed})

	boom := errors.New("boom")
	c := NewConsumer(rdb, "", "g", WithBlock(100*time.Millisecond))
	err := c.Run(ctx, func(context.Context, Event) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}

	pending, err := rdb.XPending(ctx, DefaultStream, "g").Result()
	if err != nil {
		t.Fatal(err)
	}
	if pending.Count != 1 {
		t.Errorf("pending = %d, want 1 (unacknowledged)", pending.Count)
	}
}

func TestConsumer_SkipsUndecodable(t *testing.T) {
	rdb, _ := newClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rdb.XAdd(ctx, &redis.XAddArgs{Stream: "s", Values: map[string]interface{}{"submission_id": "x"}})
	NewPublisher(rdb, "s", 0).Publish(ctx, Event{SubmissionID: 3, Status: submission.StatusReviewed})

	var got []int64
	c := NewConsumer(rdb, "s", "g", WithBlock(100*time.Millisecond))
	err := c.Run(ctx, func(_ context.Context, ev Event) error {
		got = append(got, ev.SubmissionID)
		cancel()
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] != 3 {
		t.Errorf("got = %v, want [3]", got)
	}
}

func TestEnsureConsumerGroup_Idempotent(t *testing.T) {
	rdb, _ := newClient(t)
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := EnsureConsumerGroup(ctx, rdb, "s", "g"); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}
}

func TestNewConsumer_UniqueNames(t *testing.T) {
	rdb, _ := newClient(t)
	a := NewConsumer(rdb, "", "g")
	b := NewConsumer(rdb, "", "g")
	if a.Name() == b.Name() {
		t.Errorf("consumer names should differ: %s", a.Name())
	}
}

func TestMapToEvent_Errors(t *testing.T) {
	if _, err := MapToEvent("1-0", map[string]interface{}{"submission_id": "abc", "status": "reviewed"}); err == nil {
		t.Error("expected error for non-numeric id")
	}
	if _, err := MapToEvent("1-0", map[string]interface{}{"submission_id": "1", "status": "done"}); err == nil {
		t.Error("expected error for unknown status")
	}
}

func TestNop(t *testing.T) {
	if err := (Nop{}).Publish(context.Background(), Event{}); err != nil {
		t.Error(err)
	}
}
