package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/dshills/acra/internal/submission"
)

const selectColumns = `id, code, language, review, status, created_at`

// Store is a submission.Store backed by PostgreSQL.
type Store struct {
	db *sqlx.DB
}

var _ submission.Store = (*Store)(nil)

// NewStore wraps an open pool.
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// DB returns the underlying pool.
func (s *Store) DB() *sqlx.DB { return s.db }

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the pool.
func (s *Store) Close() error {
	return s.db.Close()
}

type createArgs struct {
	Code     string            `db:"code"`
	Language *string           `db:"language"`
	Status   submission.Status `db:"status"`
}

func (s *Store) Create(ctx context.Context, code string, language *string) (submission.Submission, error) {
	query, args, err := sqlx.Named(
		`INSERT INTO submissions (code, language, status)
        VALUES (:code, :language, :status)
        RETURNING `+selectColumns,
		createArgs{Code: code, Language: language, Status: submission.StatusPending},
	)
	if err != nil {
		return submission.Submission{}, fmt.Errorf("binding insert: %w", err)
	}

	var sub submission.Submission
	if err := s.db.QueryRowxContext(ctx, s.db.Rebind(query), args...).StructScan(&sub); err != nil {
		return submission.Submission{}, fmt.Errorf("inserting submission: %w", err)
	}
	return sub, nil
}

func (s *Store) Get(ctx context.Context, id int64) (submission.Submission, error) {
	var sub submission.Submission
	err := s.db.GetContext(ctx, &sub, `SELECT `+selectColumns+` FROM submissions WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return submission.Submission{}, fmt.Errorf("get %d: %w", id, submission.ErrNotFound)
	}
	if err != nil {
		return submission.Submission{}, fmt.Errorf("get %d: %w", id, err)
	}
	return sub, nil
}

func (s *Store) List(ctx context.Context, limit int) ([]submission.Submission, error) {
	subs := []submission.Submission{}
	err := s.db.SelectContext(ctx, &subs,
		`SELECT `+selectColumns+` FROM submissions ORDER BY id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing submissions: %w", err)
	}
	return subs, nil
}

func (s *Store) ListByStatus(ctx context.Context, status submission.Status) ([]submission.Submission, error) {
	subs := []submission.Submission{}
	err := s.db.SelectContext(ctx, &subs,
		`SELECT `+selectColumns+` FROM submissions WHERE status = $1 ORDER BY id ASC`, string(status))
	if err != nil {
		return nil, fmt.Errorf("listing %s submissions: %w", status, err)
	}
	return subs, nil
}

type updateArgs struct {
	ID     int64             `db:"id"`
	Status submission.Status `db:"status"`
	Review *string           `db:"review"`
}

func (s *Store) MarkProcessing(ctx context.Context, id int64) error {
	return s.update(ctx, updateArgs{ID: id, Status: submission.StatusProcessing})
}

func (s *Store) MarkReviewed(ctx context.Context, id int64, review string) error {
	if strings.TrimSpace(review) == "" {
		return fmt.Errorf("mark reviewed %d: %w", id, submission.ErrEmptyReview)
	}
	return s.update(ctx, updateArgs{ID: id, Status: submission.StatusReviewed, Review: &review})
}

func (s *Store) MarkError(ctx context.Context, id int64) error {
	return s.update(ctx, updateArgs{ID: id, Status: submission.StatusError})
}

// update writes status and review together so the pair is never observed
// half-applied.
func (s *Store) update(ctx context.Context, args updateArgs) error {
	res, err := s.db.NamedExecContext(ctx,
		`UPDATE submissions SET status = :status, review = :review WHERE id = :id`, args)
	if err != nil {
		return fmt.Errorf("updating %d to %s: %w", args.ID, args.Status, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating %d: %w", args.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("update %d: %w", args.ID, submission.ErrNotFound)
	}
	return nil
}
