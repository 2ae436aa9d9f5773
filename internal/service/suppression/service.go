package suppression

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/deliverability/internal/domain"
	"github.com/ignite/deliverability/internal/metrics"
)

// VelocityRecorder is notified on every suppression upsert. Implementations
// must be best-effort and non-blocking.
type VelocityRecorder interface {
	Record(ctx context.Context)
}

// Service implements suppression list business logic. It is safe for
// concurrent use if the underlying repository is concurrency-safe.
type Service struct {
	repo     Repository
	velocity VelocityRecorder
	metrics  *metrics.Metrics
}

// NewService creates a suppression service backed by the given repository.
// velocity and m may be nil.
func NewService(repo Repository, velocity VelocityRecorder, m *metrics.Metrics) *Service {
	return &Service{repo: repo, velocity: velocity, metrics: m}
}

// IsSuppressed checks whether an email address should be blocked from
// sending. Entries past their expiry count as not suppressed; callers must
// not cache the result beyond the current operation.
func (s *Service) IsSuppressed(ctx context.Context, email string) (bool, error) {
	return s.repo.IsSuppressed(ctx, normalizeEmail(email), time.Now().UTC())
}

// AddInput holds the fields for suppressing an email.
type AddInput struct {
	Email          string
	Reason         domain.SuppressionReason
	SourceRecordID string
	Notes          string
	ExpiresAt      *time.Time
}

// Add upserts a suppression entry keyed on the normalized email. An existing
// entry is replaced and its AddedAt refreshed, which also revives an expired
// entry.
func (s *Service) Add(ctx context.Context, in AddInput) error {
	email := normalizeEmail(in.Email)
	if email == "" {
		return fmt.Errorf("email is required")
	}
	if in.Reason == "" {
		return fmt.Errorf("reason is required")
	}

	entry := &domain.SuppressionEntry{
		ID:             uuid.New().String(),
		Email:          email,
		Reason:         in.Reason,
		SourceRecordID: in.SourceRecordID,
		Notes:          in.Notes,
		AddedAt:        time.Now().UTC(),
		ExpiresAt:      in.ExpiresAt,
	}
	if err := s.repo.Upsert(ctx, entry); err != nil {
		return err
	}

	if s.velocity != nil {
		s.velocity.Record(ctx)
	}
	s.metrics.SuppressionAdded(string(in.Reason))
	return nil
}

// Suppress is a positional-argument convenience over Add used by the event
// processor for automatic suppressions. Automatic entries never expire.
func (s *Service) Suppress(ctx context.Context, email string, reason domain.SuppressionReason, sourceRecordID, notes string) error {
	return s.Add(ctx, AddInput{
		Email:          email,
		Reason:         reason,
		SourceRecordID: sourceRecordID,
		Notes:          notes,
	})
}

// Remove deletes a suppression entry. Returns ErrNotFound if the email is
// not suppressed.
func (s *Service) Remove(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return fmt.Errorf("email is required")
	}
	return s.repo.Remove(ctx, email)
}

// Summary holds aggregate counts for dashboards.
type Summary struct {
	Total    int            `json:"total"`
	ByReason map[string]int `json:"by_reason"`
}

// GetSummary counts live entries grouped by reason.
func (s *Service) GetSummary(ctx context.Context) (*Summary, error) {
	total, byReason, err := s.repo.Summary(ctx, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if byReason == nil {
		byReason = make(map[string]int)
	}
	return &Summary{Total: total, ByReason: byReason}, nil
}

// List returns suppression entries matching the given filter.
func (s *Service) List(ctx context.Context, f ListFilter) ([]domain.SuppressionEntry, int, error) {
	return s.repo.List(ctx, f)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
