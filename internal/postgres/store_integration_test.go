//go:build integration

package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/dshills/acra/internal/submission"
	"github.com/dshills/acra/internal/submission/storetest"
)

// Run with: ACRA_TEST_DATABASE_URL=postgres://... go test -tags integration ./internal/postgres
func TestStore(t *testing.T) {
	dsn := os.Getenv("ACRA_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("ACRA_TEST_DATABASE_URL not set")
	}

	storetest.Run(t, func(t *testing.T) submission.Store {
		ctx := context.Background()
		db, err := Open(dsn)
		if err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { db.Close() })

		if err := Migrate(ctx, db); err != nil {
			t.Fatalf("Migrate: %v", err)
		}
		// Running twice must be harmless.
		if err := Migrate(ctx, db); err != nil {
			t.Fatalf("second Migrate: %v", err)
		}
		if _, err := db.ExecContext(ctx, `TRUNCATE submissions RESTART IDENTITY`); err != nil {
			t.Fatalf("truncate: %v", err)
		}
		return NewStore(db)
	})
}
