package submission

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an in-process Store. It is safe for concurrent use.
type MemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	rows   map[int64]Submission
	now    func() time.Time
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rows: make(map[int64]Submission),
		now:  time.Now,
	}
}

func (m *MemoryStore) Create(_ context.Context, code string, language *string) (Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	s := Submission{
		ID:        m.nextID,
		Code:      code,
		Language:  cloneString(language),
		Status:    StatusPending,
		CreatedAt: m.now().UTC(),
	}
	m.rows[s.ID] = s
	return copySubmission(s), nil
}

func (m *MemoryStore) Get(_ context.Context, id int64) (Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.rows[id]
	if !ok {
		return Submission{}, fmt.Errorf("get %d: %w", id, ErrNotFound)
	}
	return copySubmission(s), nil
}

func (m *MemoryStore) List(_ context.Context, limit int) ([]Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := m.sorted(func(Submission) bool { return true })
	// Newest first.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) ListByStatus(_ context.Context, status Status) ([]Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.sorted(func(s Submission) bool { return s.Status == status }), nil
}

func (m *MemoryStore) MarkProcessing(_ context.Context, id int64) error {
	return m.update(id, func(s *Submission) {
		s.Status = StatusProcessing
		s.Review = nil
	})
}

func (m *MemoryStore) MarkReviewed(_ context.Context, id int64, review string) error {
	if strings.TrimSpace(review) == "" {
		return fmt.Errorf("mark reviewed %d: %w", id, ErrEmptyReview)
	}
	return m.update(id, func(s *Submission) {
		s.Status = StatusReviewed
		s.Review = &review
	})
}

func (m *MemoryStore) MarkError(_ context.Context, id int64) error {
	return m.update(id, func(s *Submission) {
		s.Status = StatusError
		s.Review = nil
	})
}

func (m *MemoryStore) update(id int64, fn func(*Submission)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.rows[id]
	if !ok {
		return fmt.Errorf("update %d: %w", id, ErrNotFound)
	}
	fn(&s)
	m.rows[id] = s
	return nil
}

// sorted returns matching rows in ascending id order. Callers hold the lock.
func (m *MemoryStore) sorted(keep func(Submission) bool) []Submission {
	out := make([]Submission, 0, len(m.rows))
	for _, s := range m.rows {
		if keep(s) {
			out = append(out, copySubmission(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func copySubmission(s Submission) Submission {
	s.Language = cloneString(s.Language)
	s.Review = cloneString(s.Review)
	return s
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
