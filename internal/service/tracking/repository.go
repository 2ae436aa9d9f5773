package tracking

import (
	"context"
	"time"

	"github.com/ignite/deliverability/internal/domain"
)

// StatusUpdate describes an atomic status transition applied by a
// state-changing event. The repository must set the status, the stage
// timestamp for the event type, and the bounce metadata (for bounces) in a
// single statement, refusing to downgrade a record already in a terminal
// status when the target status is non-terminal.
type StatusUpdate struct {
	ProviderMessageID string
	EventType         domain.EmailEventType
	Status            domain.DeliveryStatus
	Timestamp         time.Time
	BounceType        domain.BounceType
	BounceReason      string
}

// DeliveryRepository defines the data access contract for delivery records.
type DeliveryRepository interface {
	// Create persists a new record. ProviderMessageID is unique; a duplicate
	// insert fails.
	Create(ctx context.Context, rec *domain.DeliveryRecord) error

	// FindByProviderMessageID returns the record or ErrNotFound.
	FindByProviderMessageID(ctx context.Context, providerMessageID string) (*domain.DeliveryRecord, error)

	// SetEngagementIfNull sets the opened_at/clicked_at timestamp only if it
	// is currently null, as one atomic conditional statement. Reapplying a
	// duplicate event is a no-op, not an error.
	SetEngagementIfNull(ctx context.Context, providerMessageID string, kind domain.EmailEventType, at time.Time) error

	// ApplyStatusEvent applies a StatusUpdate atomically.
	ApplyStatusEvent(ctx context.Context, u StatusUpdate) error

	// DeleteOlderThan removes records created before cutoff and returns the
	// number deleted. Safe to re-run and to run concurrently with ingestion.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// AuditRepository is the slice of the audit log the event processor needs.
type AuditRepository interface {
	Append(ctx context.Context, e *domain.AuditEntry) error
}

// ConfigSource provides the current tracking configuration.
type ConfigSource interface {
	Get(ctx context.Context) (domain.TrackingConfig, error)
}

// Suppressor is the slice of the suppression list the event processor needs.
// Satisfied by suppression.Service.
type Suppressor interface {
	Suppress(ctx context.Context, email string, reason domain.SuppressionReason, sourceRecordID, notes string) error
}
