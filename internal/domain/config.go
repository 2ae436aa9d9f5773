package domain

import "time"

// Bounds for TrackingConfig.RetentionDays.
const (
	MinRetentionDays = 7
	MaxRetentionDays = 365
)

// TrackingConfig is the singleton configuration controlling which delivery
// signals are tracked and how aggressively suppression is applied. It is
// lazily created on first read with privacy-first defaults.
type TrackingConfig struct {
	TrackOpens             bool      `json:"track_opens" db:"track_opens"`
	TrackClicks            bool      `json:"track_clicks" db:"track_clicks"`
	TrackBounces           bool      `json:"track_bounces" db:"track_bounces"`
	TrackComplaints        bool      `json:"track_complaints" db:"track_complaints"`
	AutoSuppressHardBounce bool      `json:"auto_suppress_hard_bounce" db:"auto_suppress_hard_bounce"`
	AutoSuppressComplaint  bool      `json:"auto_suppress_complaint" db:"auto_suppress_complaint"`
	RetentionDays          int       `json:"retention_days" db:"retention_days"`
	UpdatedAt              time.Time `json:"updated_at" db:"updated_at"`
}

// DefaultTrackingConfig returns the privacy-first defaults: engagement
// tracking off, bounce/complaint tracking and auto-suppression on.
func DefaultTrackingConfig() TrackingConfig {
	return TrackingConfig{
		TrackOpens:             false,
		TrackClicks:            false,
		TrackBounces:           true,
		TrackComplaints:        true,
		AutoSuppressHardBounce: true,
		AutoSuppressComplaint:  true,
		RetentionDays:          90,
	}
}

// Tracks reports whether events of type t should be processed at all.
// Only opens, clicks, bounces and complaints are gated; sent, delivered and
// unsubscribed events are always processed.
func (c TrackingConfig) Tracks(t EmailEventType) bool {
	switch t {
	case EventOpened:
		return c.TrackOpens
	case EventClicked:
		return c.TrackClicks
	case EventBounced:
		return c.TrackBounces
	case EventComplained:
		return c.TrackComplaints
	}
	return true
}
