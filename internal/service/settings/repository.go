package settings

import (
	"context"

	"github.com/ignite/deliverability/internal/domain"
)

// Repository defines the data access contract for the tracking
// configuration singleton.
type Repository interface {
	// GetOrCreate returns the singleton row, inserting defaults first if the
	// row is absent. Concurrent first reads must converge on a single row.
	GetOrCreate(ctx context.Context, defaults domain.TrackingConfig) (domain.TrackingConfig, error)

	// Save replaces the singleton row.
	Save(ctx context.Context, cfg domain.TrackingConfig) error
}

// AuditRepository is the slice of the audit log the settings service needs.
type AuditRepository interface {
	Append(ctx context.Context, e *domain.AuditEntry) error
}
