package domain

import "time"

// SuppressionReason enumerates why an email was suppressed.
type SuppressionReason string

const (
	ReasonHardBounce  SuppressionReason = "hard_bounce"
	ReasonComplaint   SuppressionReason = "complaint"
	ReasonUnsubscribe SuppressionReason = "unsubscribe"
	ReasonManual      SuppressionReason = "manual"
)

// SuppressionEntry is a single entry in the suppression list. At most one
// live entry exists per case-normalized email; an entry whose ExpiresAt is in
// the past is treated as absent by readers.
type SuppressionEntry struct {
	ID             string            `json:"id" db:"id"`
	Email          string            `json:"email" db:"email"`
	Reason         SuppressionReason `json:"reason" db:"reason"`
	SourceRecordID string            `json:"source_record_id,omitempty" db:"source_record_id"`
	Notes          string            `json:"notes,omitempty" db:"notes"`
	AddedAt        time.Time         `json:"added_at" db:"added_at"`
	ExpiresAt      *time.Time        `json:"expires_at,omitempty" db:"expires_at"`
}

// Expired reports whether the entry has lapsed as of now.
func (s SuppressionEntry) Expired(now time.Time) bool {
	return s.ExpiresAt != nil && !s.ExpiresAt.After(now)
}
