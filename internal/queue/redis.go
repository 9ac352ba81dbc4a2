package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dshills/acra/internal/config"
)

// DefaultName is the list key used when none is configured.
const DefaultName = "acra:reviews"

// RedisQueue is a Queue on a Redis list: LPUSH to enqueue, BRPOP to dequeue.
type RedisQueue struct {
	rdb         *redis.Client
	name        string
	pollTimeout time.Duration
	ownsClient  bool
}

var _ Queue = (*RedisQueue)(nil)

// NewClient builds a Redis client from a redis:// URL or a bare host:port.
func NewClient(address string) (*redis.Client, error) {
	if strings.Contains(address, "://") {
		opts, err := redis.ParseURL(address)
		if err != nil {
			return nil, fmt.Errorf("parsing redis url: %w", err)
		}
		return redis.NewClient(opts), nil
	}
	return redis.NewClient(&redis.Options{Addr: address}), nil
}

// Open connects to the queue described by cfg. It returns Disabled when no
// address is configured. The broker is not contacted; use Ping to check it.
func Open(cfg config.QueueConfig) (Queue, error) {
	if cfg.Address == "" {
		return Disabled{}, nil
	}
	rdb, err := NewClient(cfg.Address)
	if err != nil {
		return nil, err
	}
	q := NewRedis(rdb, cfg.Name, cfg.PollTimeout)
	q.ownsClient = true
	return q, nil
}

// NewRedis wraps an existing client. The caller keeps ownership of rdb.
func NewRedis(rdb *redis.Client, name string, pollTimeout time.Duration) *RedisQueue {
	if name == "" {
		name = DefaultName
	}
	// BRPOP timeouts have one second resolution.
	if pollTimeout < time.Second {
		pollTimeout = time.Second
	}
	return &RedisQueue{rdb: rdb, name: name, pollTimeout: pollTimeout}
}

// Name returns the list key.
func (q *RedisQueue) Name() string { return q.name }

// Client returns the underlying Redis client.
func (q *RedisQueue) Client() *redis.Client { return q.rdb }

func (q *RedisQueue) Enqueue(ctx context.Context, job Job) error {
	if job.EnqueuedAt.IsZero() {
		job.EnqueuedAt = time.Now().UTC()
	}
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshaling job: %w", err)
	}
	if err := q.rdb.LPush(ctx, q.name, data).Err(); err != nil {
		return fmt.Errorf("enqueue submission %d: %w: %w", job.SubmissionID, ErrUnavailable, err)
	}
	return nil
}

func (q *RedisQueue) Dequeue(ctx context.Context) (Job, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Job{}, err
		}
		result, err := q.rdb.BRPop(ctx, q.pollTimeout, q.name).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return Job{}, ctxErr
			}
			return Job{}, fmt.Errorf("dequeue: %w: %w", ErrUnavailable, err)
		}

		var job Job
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			return Job{}, fmt.Errorf("%w: %w", ErrMalformedJob, err)
		}
		if job.SubmissionID <= 0 {
			return Job{}, fmt.Errorf("%w: missing submission_id", ErrMalformedJob)
		}
		return job, nil
	}
}

// Len returns the number of waiting jobs.
func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	n, err := q.rdb.LLen(ctx, q.name).Result()
	if err != nil {
		return 0, fmt.Errorf("queue length: %w: %w", ErrUnavailable, err)
	}
	return n, nil
}

// Ping checks that the broker is reachable.
func (q *RedisQueue) Ping(ctx context.Context) error {
	if err := q.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}

// Close releases the client if Open created it.
func (q *RedisQueue) Close() error {
	if !q.ownsClient {
		return nil
	}
	return q.rdb.Close()
}
