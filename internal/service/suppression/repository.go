package suppression

import (
	"context"
	"time"

	"github.com/ignite/deliverability/internal/domain"
)

// Repository defines the data access contract for the suppression list.
// Emails passed in are already case-normalized by the service.
type Repository interface {
	// IsSuppressed returns true if a live (non-expired as of now) entry
	// exists for the email.
	IsSuppressed(ctx context.Context, email string, now time.Time) (bool, error)

	// Upsert inserts or replaces the entry keyed on email. A replaced entry
	// takes all fields from e, including AddedAt.
	Upsert(ctx context.Context, e *domain.SuppressionEntry) error

	// Remove hard-deletes the entry. Returns ErrNotFound if it doesn't exist.
	Remove(ctx context.Context, email string) error

	// Summary returns the live entry count grouped by reason.
	Summary(ctx context.Context, now time.Time) (total int, byReason map[string]int, err error)

	// List returns entries matching the filter, newest first, plus the total
	// match count.
	List(ctx context.Context, f ListFilter) ([]domain.SuppressionEntry, int, error)
}

// ListFilter controls pagination and filtering for suppression lists.
type ListFilter struct {
	Reason string
	Limit  int
	Offset int
}
