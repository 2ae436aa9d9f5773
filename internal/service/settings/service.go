package settings

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/deliverability/internal/domain"
)

// Service implements tracking configuration business logic.
type Service struct {
	repo  Repository
	audit AuditRepository
}

// NewService creates a settings service backed by the given repositories.
func NewService(repo Repository, audit AuditRepository) *Service {
	return &Service{repo: repo, audit: audit}
}

// Get returns the tracking configuration, creating it with defaults on first
// read. Idempotent.
func (s *Service) Get(ctx context.Context) (domain.TrackingConfig, error) {
	return s.repo.GetOrCreate(ctx, domain.DefaultTrackingConfig())
}

// Patch is a partial update: only non-nil fields are applied.
type Patch struct {
	TrackOpens             *bool `json:"track_opens"`
	TrackClicks            *bool `json:"track_clicks"`
	TrackBounces           *bool `json:"track_bounces"`
	TrackComplaints        *bool `json:"track_complaints"`
	AutoSuppressHardBounce *bool `json:"auto_suppress_hard_bounce"`
	AutoSuppressComplaint  *bool `json:"auto_suppress_complaint"`
	RetentionDays          *int  `json:"retention_days"`
}

// Validate checks the fields present in the patch. The whole update is
// rejected on any failure.
func (p Patch) Validate() error {
	if p.RetentionDays != nil {
		if *p.RetentionDays < domain.MinRetentionDays || *p.RetentionDays > domain.MaxRetentionDays {
			return fmt.Errorf("retention_days must be between %d and %d, got %d",
				domain.MinRetentionDays, domain.MaxRetentionDays, *p.RetentionDays)
		}
	}
	return nil
}

// Update applies the patch atomically and audits the before/after diff of
// exactly the changed fields. A patch that changes nothing writes neither
// the row nor an audit entry.
func (s *Service) Update(ctx context.Context, p Patch, actor string) (domain.TrackingConfig, error) {
	if err := p.Validate(); err != nil {
		return domain.TrackingConfig{}, err
	}

	cur, err := s.Get(ctx)
	if err != nil {
		return domain.TrackingConfig{}, err
	}

	next := cur
	diff := make(map[string]domain.FieldChange)

	applyBool := func(field string, dst *bool, src *bool) {
		if src != nil && *src != *dst {
			diff[field] = domain.FieldChange{Before: *dst, After: *src}
			*dst = *src
		}
	}
	applyBool("track_opens", &next.TrackOpens, p.TrackOpens)
	applyBool("track_clicks", &next.TrackClicks, p.TrackClicks)
	applyBool("track_bounces", &next.TrackBounces, p.TrackBounces)
	applyBool("track_complaints", &next.TrackComplaints, p.TrackComplaints)
	applyBool("auto_suppress_hard_bounce", &next.AutoSuppressHardBounce, p.AutoSuppressHardBounce)
	applyBool("auto_suppress_complaint", &next.AutoSuppressComplaint, p.AutoSuppressComplaint)
	if p.RetentionDays != nil && *p.RetentionDays != next.RetentionDays {
		diff["retention_days"] = domain.FieldChange{Before: next.RetentionDays, After: *p.RetentionDays}
		next.RetentionDays = *p.RetentionDays
	}

	if len(diff) == 0 {
		return cur, nil
	}

	next.UpdatedAt = time.Now().UTC()
	if err := s.repo.Save(ctx, next); err != nil {
		return domain.TrackingConfig{}, fmt.Errorf("save tracking config: %w", err)
	}

	entry := &domain.AuditEntry{
		ID:           uuid.New().String(),
		Action:       domain.AuditConfigUpdate,
		ResourceType: domain.ResourceTrackingConfig,
		ResourceID:   "singleton",
		Actor:        actor,
		Metadata:     &domain.AuditMetadata{ConfigDiff: diff},
		CreatedAt:    next.UpdatedAt,
	}
	if err := s.audit.Append(ctx, entry); err != nil {
		return domain.TrackingConfig{}, fmt.Errorf("append config audit entry: %w", err)
	}

	return next, nil
}
