package suppression

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ignite/deliverability/internal/domain"
)

// mockRepo is an in-memory repository for testing.
type mockRepo struct {
	mu    sync.RWMutex
	store map[string]*domain.SuppressionEntry // keyed by email
}

func newMockRepo() *mockRepo {
	return &mockRepo{store: make(map[string]*domain.SuppressionEntry)}
}

func (m *mockRepo) IsSuppressed(_ context.Context, email string, now time.Time) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.store[email]
	if !ok {
		return false, nil
	}
	return !e.Expired(now), nil
}

func (m *mockRepo) Upsert(_ context.Context, e *domain.SuppressionEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *e
	m.store[e.Email] = &cp
	return nil
}

func (m *mockRepo) Remove(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[email]; !ok {
		return ErrNotFound
	}
	delete(m.store, email)
	return nil
}

func (m *mockRepo) Summary(_ context.Context, now time.Time) (int, map[string]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	total := 0
	byReason := make(map[string]int)
	for _, e := range m.store {
		if e.Expired(now) {
			continue
		}
		total++
		byReason[string(e.Reason)]++
	}
	return total, byReason, nil
}

func (m *mockRepo) List(_ context.Context, f ListFilter) ([]domain.SuppressionEntry, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.SuppressionEntry
	for _, e := range m.store {
		if f.Reason != "" && string(e.Reason) != f.Reason {
			continue
		}
		out = append(out, *e)
	}
	return out, len(out), nil
}

type countingVelocity struct{ calls int }

func (c *countingVelocity) Record(context.Context) { c.calls++ }

func TestAdd_SuppressesEmail(t *testing.T) {
	svc := NewService(newMockRepo(), nil, nil)
	ctx := context.Background()

	err := svc.Add(ctx, AddInput{
		Email:          "Bounce@Example.COM",
		Reason:         domain.ReasonHardBounce,
		SourceRecordID: "rec-001",
		Notes:          "550 user unknown",
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	ok, err := svc.IsSuppressed(ctx, "bounce@example.com")
	if err != nil {
		t.Fatalf("IsSuppressed: %v", err)
	}
	if !ok {
		t.Error("expected email to be suppressed after Add()")
	}
}

func TestAdd_EmptyEmail_Fails(t *testing.T) {
	svc := NewService(newMockRepo(), nil, nil)

	err := svc.Add(context.Background(), AddInput{Reason: domain.ReasonManual})
	if err == nil {
		t.Error("expected error for empty email")
	}
}

func TestAdd_MissingReason_Fails(t *testing.T) {
	svc := NewService(newMockRepo(), nil, nil)

	err := svc.Add(context.Background(), AddInput{Email: "x@example.com"})
	if err == nil {
		t.Error("expected error for missing reason")
	}
}

func TestAdd_UpsertKeepsSingleEntry(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := svc.Add(ctx, AddInput{Email: "dup@example.com", Reason: domain.ReasonComplaint}); err != nil {
			t.Fatalf("Add #%d: %v", i, err)
		}
	}

	summary, err := svc.GetSummary(ctx)
	if err != nil {
		t.Fatalf("GetSummary: %v", err)
	}
	if summary.Total != 1 {
		t.Errorf("expected 1 suppression after repeated upserts, got %d", summary.Total)
	}
}

func TestIsSuppressed_ExpiredEntry_TreatedAsAbsent(t *testing.T) {
	svc := NewService(newMockRepo(), nil, nil)
	ctx := context.Background()

	past := time.Now().UTC().Add(-time.Hour)
	err := svc.Add(ctx, AddInput{
		Email:     "lapsed@example.com",
		Reason:    domain.ReasonManual,
		ExpiresAt: &past,
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	ok, err := svc.IsSuppressed(ctx, "lapsed@example.com")
	if err != nil {
		t.Fatalf("IsSuppressed: %v", err)
	}
	if ok {
		t.Error("expected expired entry to be treated as not suppressed")
	}
}

func TestAdd_RevivesExpiredEntry(t *testing.T) {
	svc := NewService(newMockRepo(), nil, nil)
	ctx := context.Background()

	past := time.Now().UTC().Add(-time.Hour)
	_ = svc.Add(ctx, AddInput{Email: "back@example.com", Reason: domain.ReasonManual, ExpiresAt: &past})

	if err := svc.Add(ctx, AddInput{Email: "back@example.com", Reason: domain.ReasonHardBounce}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	ok, _ := svc.IsSuppressed(ctx, "back@example.com")
	if !ok {
		t.Error("expected re-added entry to be live again")
	}
}

func TestRemove_DeletesEntry(t *testing.T) {
	svc := NewService(newMockRepo(), nil, nil)
	ctx := context.Background()

	_ = svc.Add(ctx, AddInput{Email: "remove@example.com", Reason: domain.ReasonManual})

	if err := svc.Remove(ctx, "Remove@Example.com"); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	ok, _ := svc.IsSuppressed(ctx, "remove@example.com")
	if ok {
		t.Error("expected email to no longer be suppressed after Remove()")
	}
}

func TestRemove_NotFound_ReturnsError(t *testing.T) {
	svc := NewService(newMockRepo(), nil, nil)

	err := svc.Remove(context.Background(), "ghost@example.com")
	if err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGetSummary_GroupsByReason(t *testing.T) {
	svc := NewService(newMockRepo(), nil, nil)
	ctx := context.Background()

	_ = svc.Add(ctx, AddInput{Email: "a@example.com", Reason: domain.ReasonHardBounce})
	_ = svc.Add(ctx, AddInput{Email: "b@example.com", Reason: domain.ReasonComplaint})
	_ = svc.Add(ctx, AddInput{Email: "c@example.com", Reason: domain.ReasonHardBounce})

	summary, err := svc.GetSummary(ctx)
	if err != nil {
		t.Fatalf("GetSummary: %v", err)
	}
	if summary.Total != 3 {
		t.Errorf("expected total=3, got %d", summary.Total)
	}
	if summary.ByReason["hard_bounce"] != 2 {
		t.Errorf("expected 2 hard bounces, got %d", summary.ByReason["hard_bounce"])
	}
	if summary.ByReason["complaint"] != 1 {
		t.Errorf("expected 1 complaint, got %d", summary.ByReason["complaint"])
	}
}

func TestAdd_RecordsVelocity(t *testing.T) {
	vel := &countingVelocity{}
	svc := NewService(newMockRepo(), vel, nil)
	ctx := context.Background()

	_ = svc.Add(ctx, AddInput{Email: "v1@example.com", Reason: domain.ReasonManual})
	_ = svc.Add(ctx, AddInput{Email: "v2@example.com", Reason: domain.ReasonManual})

	if vel.calls != 2 {
		t.Errorf("expected 2 velocity records, got %d", vel.calls)
	}
}
