package events

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Consumer reads events as one member of a consumer group.
type Consumer struct {
	rdb    *redis.Client
	stream string
	group  string
	name   string
	block  time.Duration
	log    *slog.Logger
}

// ConsumerOption configures a Consumer.
type ConsumerOption func(*Consumer)

// WithConsumerLogger sets the logger for undecodable messages.
func WithConsumerLogger(l *slog.Logger) ConsumerOption {
	return func(c *Consumer) { c.log = l }
}

// WithBlock sets how long each read waits for new messages.
func WithBlock(d time.Duration) ConsumerOption {
	return func(c *Consumer) { c.block = d }
}

// NewConsumer returns a consumer with a unique member name.
func NewConsumer(rdb *redis.Client, stream, group string, opts ...ConsumerOption) *Consumer {
	if stream == "" {
		stream = DefaultStream
	}
	c := &Consumer{
		rdb:    rdb,
		stream: stream,
		group:  group,
		name:   "acra-" + uuid.NewString(),
		block:  2 * time.Second,
		log:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the consumer's member name within the group.
func (c *Consumer) Name() string { return c.name }

// Run delivers events to handle until ctx is done. Messages are acknowledged
// after handle returns nil; a handler error stops Run and leaves the message
// pending for redelivery. Undecodable messages are logged and acknowledged.
func (c *Consumer) Run(ctx context.Context, handle func(context.Context, Event) error) error {
	if err := EnsureConsumerGroup(ctx, c.rdb, c.stream, c.group); err != nil {
		return err
	}
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		streams, err := c.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    c.group,
			Consumer: c.name,
			Streams:  []string{c.stream, ">"},
			Count:    10,
			Block:    c.block,
		}).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("reading %s: %w", c.stream, err)
		}

		for _, s := range streams {
			for _, msg := range s.Messages {
				if err := c.deliver(ctx, msg, handle); err != nil {
					return err
				}
			}
		}
	}
}

func (c *Consumer) deliver(ctx context.Context, msg redis.XMessage, handle func(context.Context, Event) error) error {
	ev, err := MapToEvent(msg.ID, msg.Values)
	if err != nil {
		c.log.Warn("skipping event", "id", msg.ID, "error", fmt.Errorf("%w: %w", errSkip, err))
	} else if err := handle(ctx, ev); err != nil {
		return fmt.Errorf("handling event %s: %w", msg.ID, err)
	}
	// The handler may have cancelled ctx; the ack must still land.
	if err := c.rdb.XAck(context.WithoutCancel(ctx), c.stream, c.group, msg.ID).Err(); err != nil {
		return fmt.Errorf("acknowledging event %s: %w", msg.ID, err)
	}
	return nil
}
