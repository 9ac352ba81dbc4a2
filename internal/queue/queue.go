// Package queue carries review jobs from the API to worker processes.
package queue

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrUnavailable is returned when the broker cannot accept or deliver
	// jobs. Callers fall back to inline execution.
	ErrUnavailable = errors.New("queue unavailable")

	// ErrMalformedJob is returned by Dequeue for a payload that is not a job.
	// The payload has already been removed from the queue.
	ErrMalformedJob = errors.New("malformed job payload")
)

// Job asks a worker to review one submission. It carries only the id; the
// worker reads the code from the store.
type Job struct {
	SubmissionID int64     `json:"submission_id"`
	EnqueuedAt   time.Time `json:"enqueued_at"`
}

// Queue is a FIFO of jobs with at-most-once delivery.
type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	// Dequeue blocks until a job is available or ctx is done.
	Dequeue(ctx context.Context) (Job, error)
	Close() error
}

// Disabled is the queue used when no broker is configured. Every call fails
// with ErrUnavailable.
type Disabled struct{}

func (Disabled) Enqueue(context.Context, Job) error { return ErrUnavailable }

func (Disabled) Dequeue(context.Context) (Job, error) { return Job{}, ErrUnavailable }

func (Disabled) Close() error { return nil }
