package domain

import "time"

// DeliveryStatus enumerates the lifecycle states of an outbound message.
type DeliveryStatus string

const (
	StatusPending      DeliveryStatus = "pending"
	StatusSent         DeliveryStatus = "sent"
	StatusDelivered    DeliveryStatus = "delivered"
	StatusBounced      DeliveryStatus = "bounced"
	StatusComplained   DeliveryStatus = "complained"
	StatusUnsubscribed DeliveryStatus = "unsubscribed"
)

// Terminal reports whether the status is a dead end for the message.
// A terminal status must never be downgraded by a late-arriving
// earlier-stage event.
func (s DeliveryStatus) Terminal() bool {
	switch s {
	case StatusBounced, StatusComplained, StatusUnsubscribed:
		return true
	}
	return false
}

// BounceType classifies a bounce as reported by the sending provider.
type BounceType string

const (
	BounceHard         BounceType = "hard"
	BounceSoft         BounceType = "soft"
	BounceUndetermined BounceType = "undetermined"
)

// DeliveryRecord tracks a single outbound message attempt. One row exists per
// message dispatched through the send pipeline, keyed by the provider-assigned
// message id. Only the event processor mutates it after creation; only the
// retention cleanup deletes it.
type DeliveryRecord struct {
	ID                string         `json:"id" db:"id"`
	ProviderMessageID string         `json:"provider_message_id" db:"provider_message_id"`
	CampaignID        string         `json:"campaign_id" db:"campaign_id"`
	RecipientID       string         `json:"recipient_id,omitempty" db:"recipient_id"`
	RecipientEmail    string         `json:"recipient_email" db:"recipient_email"`
	Status            DeliveryStatus `json:"status" db:"status"`

	// Stage timestamps, each set at most once, in order of first occurrence.
	// OpenedAt and ClickedAt are engagement flags, not states: they never
	// change Status.
	SentAt         *time.Time `json:"sent_at,omitempty" db:"sent_at"`
	DeliveredAt    *time.Time `json:"delivered_at,omitempty" db:"delivered_at"`
	BouncedAt      *time.Time `json:"bounced_at,omitempty" db:"bounced_at"`
	ComplainedAt   *time.Time `json:"complained_at,omitempty" db:"complained_at"`
	UnsubscribedAt *time.Time `json:"unsubscribed_at,omitempty" db:"unsubscribed_at"`
	OpenedAt       *time.Time `json:"opened_at,omitempty" db:"opened_at"`
	ClickedAt      *time.Time `json:"clicked_at,omitempty" db:"clicked_at"`

	// Populated only when a bounce event is applied.
	BounceType   BounceType `json:"bounce_type,omitempty" db:"bounce_type"`
	BounceReason string     `json:"bounce_reason,omitempty" db:"bounce_reason"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
