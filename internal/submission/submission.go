// Package submission defines the Submission record, its lifecycle states and
// the Store interface that persists it.
package submission

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no submission exists with the requested id.
var ErrNotFound = errors.New("submission not found")

// Status is the lifecycle state of a submission.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusReviewed   Status = "reviewed"
	StatusError      Status = "error"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusReviewed, StatusError:
		return true
	}
	return false
}

// Terminal reports whether no further transition is expected.
func (s Status) Terminal() bool {
	return s == StatusReviewed || s == StatusError
}

// Submission is one code snippet and its review. Review is non-empty exactly
// when Status is StatusReviewed.
type Submission struct {
	ID        int64     `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	Language  *string   `db:"language" json:"language"`
	Review    *string   `db:"review" json:"review"`
	Status    Status    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// LanguageOrEmpty returns the language tag, or "" when none was given.
func (s Submission) LanguageOrEmpty() string {
	if s.Language == nil {
		return ""
	}
	return *s.Language
}

// Store persists submissions. Every method returns ErrNotFound (possibly
// wrapped) when the id does not exist.
type Store interface {
	Create(ctx context.Context, code string, language *string) (Submission, error)
	Get(ctx context.Context, id int64) (Submission, error)
	// List returns at most limit submissions, newest first.
	List(ctx context.Context, limit int) ([]Submission, error)
	// ListByStatus returns all submissions in a status, oldest first.
	ListByStatus(ctx context.Context, status Status) ([]Submission, error)
	// MarkProcessing moves a submission to processing and clears any review.
	MarkProcessing(ctx context.Context, id int64) error
	// MarkReviewed stores the review and the reviewed status in one write.
	MarkReviewed(ctx context.Context, id int64, review string) error
	// MarkError moves a submission to error and clears any review.
	MarkError(ctx context.Context, id int64) error
}

// ErrEmptyReview is returned by MarkReviewed when the review text is blank.
var ErrEmptyReview = errors.New("review text is empty")
