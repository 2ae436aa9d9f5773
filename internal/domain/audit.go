package domain

import "time"

// AuditAction enumerates auditable actions. Delivered, opened and clicked
// events are not individually audited: too high-volume, low forensic value.
type AuditAction string

const (
	AuditEmailSent         AuditAction = "EMAIL_SENT"
	AuditEmailDelivered    AuditAction = "EMAIL_DELIVERED"
	AuditEmailBounced      AuditAction = "EMAIL_BOUNCED"
	AuditEmailComplained   AuditAction = "EMAIL_COMPLAINED"
	AuditEmailUnsubscribed AuditAction = "EMAIL_UNSUBSCRIBED"
	AuditConfigUpdate      AuditAction = "CONFIG_UPDATE"
)

// Resource types referenced by audit entries.
const (
	ResourceDeliveryRecord = "delivery_record"
	ResourceTrackingConfig = "tracking_config"
)

// FieldChange records a before/after pair for a single configuration field.
type FieldChange struct {
	Before any `json:"before"`
	After  any `json:"after"`
}

// AuditMetadata is the structured, per-action-type metadata attached to an
// audit entry. Event actions fill the event fields; CONFIG_UPDATE fills
// ConfigDiff with exactly the changed fields.
type AuditMetadata struct {
	EventType      EmailEventType         `json:"event_type,omitempty"`
	CampaignID     string                 `json:"campaign_id,omitempty"`
	RecipientEmail string                 `json:"recipient_email,omitempty"`
	BounceType     BounceType             `json:"bounce_type,omitempty"`
	BounceReason   string                 `json:"bounce_reason,omitempty"`
	ConfigDiff     map[string]FieldChange `json:"config_diff,omitempty"`
}

// AuditEntry is an append-only record of an action taken by the engine or an
// administrator. Entries are never mutated and are retained independently of
// delivery records.
type AuditEntry struct {
	ID           string         `json:"id" db:"id"`
	Action       AuditAction    `json:"action" db:"action"`
	ResourceType string         `json:"resource_type" db:"resource_type"`
	ResourceID   string         `json:"resource_id" db:"resource_id"`
	Actor        string         `json:"actor,omitempty" db:"actor"`
	Metadata     *AuditMetadata `json:"metadata,omitempty" db:"metadata"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
}
