// Package storetest holds behavioral tests shared by every submission.Store
// implementation.
package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/dshills/acra/internal/submission"
)

// Run exercises store against the Store contract. newStore must return an
// empty store for each call.
func Run(t *testing.T, newStore func(t *testing.T) submission.Store) {
	t.Run("CreateGet", func(t *testing.T) { testCreateGet(t, newStore(t)) })
	t.Run("NotFound", func(t *testing.T) { testNotFound(t, newStore(t)) })
	t.Run("Transitions", func(t *testing.T) { testTransitions(t, newStore(t)) })
	t.Run("EmptyReviewRejected", func(t *testing.T) { testEmptyReview(t, newStore(t)) })
	t.Run("ListOrder", func(t *testing.T) { testListOrder(t, newStore(t)) })
	t.Run("ListByStatus", func(t *testing.T) { testListByStatus(t, newStore(t)) })
}

func lang(s string) *string { return &s }

func testCreateGet(t *testing.T, store submission.Store) {
	ctx := context.Background()

	created, err := store.Create(ctx, "x = 1", lang("python"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == 0 {
		t.Error("Create should assign an id")
	}
	if created.Status != submission.StatusPending {
		t.Errorf("Status = %q, want pending", created.Status)
	}
	if created.Review != nil {
		t.Error("new submission should have no review")
	}
	if created.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}

	got, err := store.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Code != "x = 1" || got.LanguageOrEmpty() != "python" {
		t.Errorf("Get = %+v", got)
	}

	noLang, err := store.Create(ctx, "print(1)", nil)
	if err != nil {
		t.Fatalf("Create without language: %v", err)
	}
	if noLang.Language != nil {
		t.Errorf("Language = %v, want nil", *noLang.Language)
	}
	if noLang.ID <= created.ID {
		t.Errorf("ids should increase: %d then %d", created.ID, noLang.ID)
	}
}

func testNotFound(t *testing.T, store submission.Store) {
	ctx := context.Background()
	const missing = 987654

	if _, err := store.Get(ctx, missing); !errors.Is(err, submission.ErrNotFound) {
		t.Errorf("Get: err = %v, want ErrNotFound", err)
	}
	if err := store.MarkProcessing(ctx, missing); !errors.Is(err, submission.ErrNotFound) {
		t.Errorf("MarkProcessing: err = %v, want ErrNotFound", err)
	}
	if err := store.MarkReviewed(ctx, missing, "ok"); !errors.Is(err, submission.ErrNotFound) {
		t.Errorf("MarkReviewed: err = %v, want ErrNotFound", err)
	}
	if err := store.MarkError(ctx, missing); !errors.Is(err, submission.ErrNotFound) {
		t.Errorf("MarkError: err = %v, want ErrNotFound", err)
	}
}

func testTransitions(t *testing.T, store submission.Store) {
	ctx := context.Background()
	s, err := store.Create(ctx, "code", nil)
	if err != nil {
		t.Fatal(err)
	}

	if err := store.MarkProcessing(ctx, s.ID); err != nil {
		t.Fatalf("MarkProcessing: %v", err)
	}
	assertState(t, store, s.ID, submission.StatusProcessing, false)

	if err := store.MarkReviewed(ctx, s.ID, "Basic Review: fine"); err != nil {
		t.Fatalf("MarkReviewed: %v", err)
	}
	got := assertState(t, store, s.ID, submission.StatusReviewed, true)
	if *got.Review != "Basic Review: fine" {
		t.Errorf("Review = %q", *got.Review)
	}

	// Reprocessing clears the previous review.
	if err := store.MarkProcessing(ctx, s.ID); err != nil {
		t.Fatal(err)
	}
	assertState(t, store, s.ID, submission.StatusProcessing, false)

	if err := store.MarkReviewed(ctx, s.ID, "second"); err != nil {
		t.Fatal(err)
	}
	if err := store.MarkError(ctx, s.ID); err != nil {
		t.Fatalf("MarkError: %v", err)
	}
	assertState(t, store, s.ID, submission.StatusError, false)
}

func testEmptyReview(t *testing.T, store submission.Store) {
	ctx := context.Background()
	s, err := store.Create(ctx, "code", nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.MarkReviewed(ctx, s.ID, "  "); !errors.Is(err, submission.ErrEmptyReview) {
		t.Errorf("err = %v, want ErrEmptyReview", err)
	}
	assertState(t, store, s.ID, submission.StatusPending, false)
}

func testListOrder(t *testing.T, store submission.Store) {
	ctx := context.Background()
	var ids []int64
	for i := 0; i < 5; i++ {
		s, err := store.Create(ctx, "code", nil)
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, s.ID)
	}

	all, err := store.List(ctx, 50)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("List returned %d, want 5", len(all))
	}
	for i, s := range all {
		if want := ids[len(ids)-1-i]; s.ID != want {
			t.Errorf("List[%d].ID = %d, want %d (newest first)", i, s.ID, want)
		}
	}

	limited, err := store.List(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 2 || limited[0].ID != ids[4] {
		t.Errorf("List(2) = %v", limited)
	}
}

func testListByStatus(t *testing.T, store submission.Store) {
	ctx := context.Background()
	var ids []int64
	for i := 0; i < 4; i++ {
		s, err := store.Create(ctx, "code", nil)
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, s.ID)
	}
	if err := store.MarkError(ctx, ids[1]); err != nil {
		t.Fatal(err)
	}

	pending, err := store.ListByStatus(ctx, submission.StatusPending)
	if err != nil {
		t.Fatalf("ListByStatus: %v", err)
	}
	want := []int64{ids[0], ids[2], ids[3]}
	if len(pending) != len(want) {
		t.Fatalf("pending = %d rows, want %d", len(pending), len(want))
	}
	for i, s := range pending {
		if s.ID != want[i] {
			t.Errorf("pending[%d].ID = %d, want %d (oldest first)", i, s.ID, want[i])
		}
	}

	errored, err := store.ListByStatus(ctx, submission.StatusError)
	if err != nil {
		t.Fatal(err)
	}
	if len(errored) != 1 || errored[0].ID != ids[1] {
		t.Errorf("errored = %v", errored)
	}
}

// assertState checks status and the review/status invariant.
func assertState(t *testing.T, store submission.Store, id int64, status submission.Status, wantReview bool) submission.Submission {
	t.Helper()
	got, err := store.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get(%d): %v", id, err)
	}
	if got.Status != status {
		t.Errorf("Status = %q, want %q", got.Status, status)
	}
	if hasReview := got.Review != nil && *got.Review != ""; hasReview != wantReview {
		t.Errorf("review present = %v, want %v", hasReview, wantReview)
	}
	return got
}
