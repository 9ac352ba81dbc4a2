// Package postgres implements submission.Store on PostgreSQL using sqlx and
// lib/pq.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Open returns a connection pool for dsn. It does not contact the server, so
// the API can start while the database is still coming up.
func Open(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

// schema is applied on every start. Columns added after the first release
// use ADD COLUMN IF NOT EXISTS so older tables upgrade in place.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS submissions (
    id SERIAL PRIMARY KEY,
    code TEXT NOT NULL,
    language VARCHAR(50),
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`ALTER TABLE submissions ADD COLUMN IF NOT EXISTS review TEXT`,
	`ALTER TABLE submissions ADD COLUMN IF NOT EXISTS status VARCHAR(20) NOT NULL DEFAULT 'pending'`,
	`CREATE INDEX IF NOT EXISTS submissions_status_id_idx ON submissions (status, id)`,
}

// Migrate creates or upgrades the submissions table. It is idempotent.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrating schema: %w", err)
		}
	}
	return nil
}
