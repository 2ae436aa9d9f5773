package domain

import (
	"fmt"
	"time"
)

// EmailEventType enumerates the normalized delivery events emitted by the
// webhook/ingestion layer after translating provider-specific payloads.
type EmailEventType string

const (
	EventSent         EmailEventType = "sent"
	EventDelivered    EmailEventType = "delivered"
	EventBounced      EmailEventType = "bounced"
	EventComplained   EmailEventType = "complained"
	EventUnsubscribed EmailEventType = "unsubscribed"
	EventOpened       EmailEventType = "opened"
	EventClicked      EmailEventType = "clicked"
)

// Valid reports whether t is one of the known event types.
func (t EmailEventType) Valid() bool {
	switch t {
	case EventSent, EventDelivered, EventBounced, EventComplained,
		EventUnsubscribed, EventOpened, EventClicked:
		return true
	}
	return false
}

// Engagement reports whether t is a pure engagement signal. Engagement events
// set their timestamp on first occurrence and never change the record status.
func (t EmailEventType) Engagement() bool {
	return t == EventOpened || t == EventClicked
}

// TargetStatus returns the delivery status a state-changing event advances the
// record to. ok is false for engagement events.
func (t EmailEventType) TargetStatus() (DeliveryStatus, bool) {
	switch t {
	case EventSent:
		return StatusSent, true
	case EventDelivered:
		return StatusDelivered, true
	case EventBounced:
		return StatusBounced, true
	case EventComplained:
		return StatusComplained, true
	case EventUnsubscribed:
		return StatusUnsubscribed, true
	}
	return "", false
}

// BounceDetail carries the fields only bounce events have.
type BounceDetail struct {
	Type   BounceType `json:"type"`
	Reason string     `json:"reason,omitempty"`
}

// EmailEvent is a normalized delivery event. It is a tagged variant: Type
// selects the case, and Bounce is populated only for bounced events.
type EmailEvent struct {
	Type              EmailEventType `json:"type"`
	ProviderMessageID string         `json:"provider_message_id"`
	RecipientEmail    string         `json:"recipient_email,omitempty"`
	Timestamp         time.Time      `json:"timestamp"`
	Bounce            *BounceDetail  `json:"bounce,omitempty"`
}

// Validate checks structural correctness of the event. A bounced event
// without detail is tolerated (the bounce is classified undetermined by
// Normalize); bounce detail on any other event type is rejected.
func (e EmailEvent) Validate() error {
	if !e.Type.Valid() {
		return fmt.Errorf("unknown event type %q", e.Type)
	}
	if e.ProviderMessageID == "" {
		return fmt.Errorf("provider_message_id is required")
	}
	if e.Bounce != nil && e.Type != EventBounced {
		return fmt.Errorf("bounce detail is only valid on bounced events, got %q", e.Type)
	}
	if e.Bounce != nil {
		switch e.Bounce.Type {
		case BounceHard, BounceSoft, BounceUndetermined:
		default:
			return fmt.Errorf("unknown bounce type %q", e.Bounce.Type)
		}
	}
	return nil
}

// Normalize fills defaults: a zero timestamp becomes now, and a bounced event
// without detail is classified undetermined.
func (e *EmailEvent) Normalize(now time.Time) {
	if e.Timestamp.IsZero() {
		e.Timestamp = now
	}
	if e.Type == EventBounced && e.Bounce == nil {
		e.Bounce = &BounceDetail{Type: BounceUndetermined}
	}
}
