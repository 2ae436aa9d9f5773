package tracking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/deliverability/internal/domain"
	"github.com/ignite/deliverability/internal/metrics"
)

// Service implements the delivery-event state machine. It is safe for
// concurrent use: all mutations go through atomic repository operations.
type Service struct {
	repo     DeliveryRepository
	audit    AuditRepository
	config   ConfigSource
	suppress Suppressor
	metrics  *metrics.Metrics
}

// NewService creates a tracking service. m may be nil.
func NewService(repo DeliveryRepository, audit AuditRepository, config ConfigSource, suppress Suppressor, m *metrics.Metrics) *Service {
	return &Service{repo: repo, audit: audit, config: config, suppress: suppress, metrics: m}
}

// RecordSendInput holds the fields for registering a dispatched message.
type RecordSendInput struct {
	CampaignID        string
	RecipientEmail    string
	ProviderMessageID string
	RecipientID       string

	// Sent marks the record as already handed to the provider; the record is
	// created in status sent with sent_at set, instead of pending.
	Sent bool
}

// RecordSend creates the delivery record for a dispatched message. Called by
// the send pipeline, not by the event processor.
func (s *Service) RecordSend(ctx context.Context, in RecordSendInput) (*domain.DeliveryRecord, error) {
	if in.ProviderMessageID == "" {
		return nil, fmt.Errorf("provider_message_id is required")
	}
	if in.CampaignID == "" {
		return nil, fmt.Errorf("campaign_id is required")
	}
	if in.RecipientEmail == "" {
		return nil, fmt.Errorf("recipient_email is required")
	}

	now := time.Now().UTC()
	rec := &domain.DeliveryRecord{
		ID:                uuid.New().String(),
		ProviderMessageID: in.ProviderMessageID,
		CampaignID:        in.CampaignID,
		RecipientID:       in.RecipientID,
		RecipientEmail:    strings.ToLower(strings.TrimSpace(in.RecipientEmail)),
		Status:            domain.StatusPending,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if in.Sent {
		rec.Status = domain.StatusSent
		rec.SentAt = &now
	}

	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("create delivery record: %w", err)
	}

	if in.Sent {
		entry := &domain.AuditEntry{
			ID:           uuid.New().String(),
			Action:       domain.AuditEmailSent,
			ResourceType: domain.ResourceDeliveryRecord,
			ResourceID:   rec.ID,
			Metadata: &domain.AuditMetadata{
				EventType:      domain.EventSent,
				CampaignID:     rec.CampaignID,
				RecipientEmail: rec.RecipientEmail,
			},
			CreatedAt: now,
		}
		if err := s.audit.Append(ctx, entry); err != nil {
			return nil, fmt.Errorf("append audit entry: %w", err)
		}
	}
	return rec, nil
}

// ProcessEvent consumes one normalized delivery event.
//
// An event referencing an unknown provider message id is logged and dropped
// without error: webhooks are at-least-once and may reference records not
// yet visible or already purged, so retrying cannot help. Storage errors
// propagate to the caller and are safe to retry.
func (s *Service) ProcessEvent(ctx context.Context, evt domain.EmailEvent) error {
	if err := evt.Validate(); err != nil {
		return err
	}
	evt.Normalize(time.Now().UTC())

	rec, err := s.repo.FindByProviderMessageID(ctx, evt.ProviderMessageID)
	if errors.Is(err, ErrNotFound) {
		log.Printf("[tracking] WARN: %s event references unknown message %q, dropping",
			evt.Type, evt.ProviderMessageID)
		s.metrics.EventDropped(metrics.DropUnknownRecord)
		return nil
	}
	if err != nil {
		return fmt.Errorf("lookup delivery record: %w", err)
	}

	cfg, err := s.config.Get(ctx)
	if err != nil {
		return fmt.Errorf("load tracking config: %w", err)
	}
	if !cfg.Tracks(evt.Type) {
		s.metrics.EventDropped(metrics.DropGated)
		return nil
	}

	if evt.Type.Engagement() {
		if err := s.repo.SetEngagementIfNull(ctx, evt.ProviderMessageID, evt.Type, evt.Timestamp); err != nil {
			return fmt.Errorf("apply %s event: %w", evt.Type, err)
		}
		s.metrics.EventProcessed(string(evt.Type))
		return nil
	}

	status, ok := evt.Type.TargetStatus()
	if !ok {
		return fmt.Errorf("event type %q has no target status", evt.Type)
	}

	upd := StatusUpdate{
		ProviderMessageID: evt.ProviderMessageID,
		EventType:         evt.Type,
		Status:            status,
		Timestamp:         evt.Timestamp,
	}
	if evt.Type == domain.EventBounced {
		upd.BounceType = evt.Bounce.Type
		upd.BounceReason = evt.Bounce.Reason
	}
	if err := s.repo.ApplyStatusEvent(ctx, upd); err != nil {
		return fmt.Errorf("apply %s event: %w", evt.Type, err)
	}

	if err := s.autoSuppress(ctx, cfg, evt, rec); err != nil {
		return err
	}

	if action, audited := auditActionFor(evt.Type); audited {
		entry := &domain.AuditEntry{
			ID:           uuid.New().String(),
			Action:       action,
			ResourceType: domain.ResourceDeliveryRecord,
			ResourceID:   rec.ID,
			Metadata: &domain.AuditMetadata{
				EventType:      evt.Type,
				CampaignID:     rec.CampaignID,
				RecipientEmail: rec.RecipientEmail,
			},
			CreatedAt: evt.Timestamp,
		}
		if evt.Type == domain.EventBounced {
			entry.Metadata.BounceType = evt.Bounce.Type
			entry.Metadata.BounceReason = evt.Bounce.Reason
		}
		if err := s.audit.Append(ctx, entry); err != nil {
			return fmt.Errorf("append audit entry: %w", err)
		}
	}

	s.metrics.EventProcessed(string(evt.Type))
	return nil
}

// autoSuppress upserts a suppression entry when the event and configuration
// call for it. Only a hard bounce is strong enough evidence to block all
// future sends; soft and undetermined bounces never suppress.
func (s *Service) autoSuppress(ctx context.Context, cfg domain.TrackingConfig, evt domain.EmailEvent, rec *domain.DeliveryRecord) error {
	email := rec.RecipientEmail
	if email == "" {
		email = evt.RecipientEmail
	}
	if email == "" {
		return nil
	}

	switch {
	case evt.Type == domain.EventBounced && evt.Bounce.Type == domain.BounceHard && cfg.AutoSuppressHardBounce:
		if err := s.suppress.Suppress(ctx, email, domain.ReasonHardBounce, rec.ID, evt.Bounce.Reason); err != nil {
			return fmt.Errorf("suppress hard bounce: %w", err)
		}
	case evt.Type == domain.EventComplained && cfg.AutoSuppressComplaint:
		if err := s.suppress.Suppress(ctx, email, domain.ReasonComplaint, rec.ID, ""); err != nil {
			return fmt.Errorf("suppress complaint: %w", err)
		}
	}
	return nil
}

// CleanupOldDeliveryLogs deletes delivery records older than the configured
// retention window and returns the number deleted. Pure range-delete: safe
// to re-run and to run concurrently with ingestion. Suppression and audit
// rows are never touched.
func (s *Service) CleanupOldDeliveryLogs(ctx context.Context) (int64, error) {
	cfg, err := s.config.Get(ctx)
	if err != nil {
		return 0, fmt.Errorf("load tracking config: %w", err)
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -cfg.RetentionDays)
	n, err := s.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return n, fmt.Errorf("delete delivery records before %s: %w", cutoff.Format(time.RFC3339), err)
	}

	s.metrics.RecordsPurged(n)
	if n > 0 {
		log.Printf("[tracking] purged %d delivery records older than %d days", n, cfg.RetentionDays)
	}
	return n, nil
}

// auditActionFor maps event types to audit actions. Delivered, opened and
// clicked events are not individually audited.
func auditActionFor(t domain.EmailEventType) (domain.AuditAction, bool) {
	switch t {
	case domain.EventSent:
		return domain.AuditEmailSent, true
	case domain.EventBounced:
		return domain.AuditEmailBounced, true
	case domain.EventComplained:
		return domain.AuditEmailComplained, true
	case domain.EventUnsubscribed:
		return domain.AuditEmailUnsubscribed, true
	}
	return "", false
}
