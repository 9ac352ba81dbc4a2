// Package events publishes terminal review outcomes to a Redis stream and
// reads them back through a consumer group.
package events

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dshills/acra/internal/submission"
)

// DefaultStream is the stream key used when none is configured.
const DefaultStream = "acra:review-events"

// Event records how a review run ended.
type Event struct {
	ID           string            `json:"id,omitempty"`
	SubmissionID int64             `json:"submission_id"`
	Status       submission.Status `json:"status"`
	Provider     string            `json:"provider,omitempty"`
	Language     string            `json:"language,omitempty"`
	DurationMs   int64             `json:"duration_ms"`
	CompletedAt  time.Time         `json:"completed_at"`
}

// Publisher sends events. Publishing is best effort; callers log failures.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// RedisPublisher appends events to a stream with XADD.
type RedisPublisher struct {
	rdb    *redis.Client
	stream string
	maxLen int64
}

// NewPublisher returns a publisher on stream. maxLen caps the stream length
// approximately; zero leaves it unbounded.
func NewPublisher(rdb *redis.Client, stream string, maxLen int64) *RedisPublisher {
	if stream == "" {
		stream = DefaultStream
	}
	return &RedisPublisher{rdb: rdb, stream: stream, maxLen: maxLen}
}

func (p *RedisPublisher) Publish(ctx context.Context, ev Event) error {
	if ev.CompletedAt.IsZero() {
		ev.CompletedAt = time.Now().UTC()
	}
	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			"submission_id": ev.SubmissionID,
			"status":        string(ev.Status),
			"provider":      ev.Provider,
			"language":      ev.Language,
			"duration_ms":   ev.DurationMs,
			"completed_at":  ev.CompletedAt.Format(time.RFC3339Nano),
		},
		ID: "*",
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}
	if err := p.rdb.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("publishing event for submission %d: %w", ev.SubmissionID, err)
	}
	return nil
}

// EnsureConsumerGroup creates group on stream, creating the stream if needed.
// An existing group is not an error.
func EnsureConsumerGroup(ctx context.Context, rdb *redis.Client, stream, group string) error {
	err := rdb.XGroupCreateMkStream(ctx, stream, group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("creating consumer group %s: %w", group, err)
	}
	return nil
}

// MapToEvent decodes stream values written by RedisPublisher.
func MapToEvent(id string, values map[string]interface{}) (Event, error) {
	getStr := func(k string) string {
		if v, ok := values[k].(string); ok {
			return v
		}
		return ""
	}

	subID, err := strconv.ParseInt(getStr("submission_id"), 10, 64)
	if err != nil {
		return Event{}, fmt.Errorf("event %s: bad submission_id: %w", id, err)
	}
	status := submission.Status(getStr("status"))
	if !status.Valid() {
		return Event{}, fmt.Errorf("event %s: unknown status %q", id, status)
	}
	durationMs, _ := strconv.ParseInt(getStr("duration_ms"), 10, 64)
	completedAt, err := time.Parse(time.RFC3339Nano, getStr("completed_at"))
	if err != nil {
		completedAt = time.Time{}
	}

	return Event{
		ID:           id,
		SubmissionID: subID,
		Status:       status,
		Provider:     getStr("provider"),
		Language:     getStr("language"),
		DurationMs:   durationMs,
		CompletedAt:  completedAt,
	}, nil
}

// errSkip marks a message that could not be decoded.
var errSkip = errors.New("undecodable event")
