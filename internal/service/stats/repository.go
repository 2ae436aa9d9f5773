package stats

import (
	"context"
	"time"

	"github.com/ignite/deliverability/internal/domain"
)

// DomainCount is the bounce count for one recipient domain.
type DomainCount struct {
	Domain string `json:"domain"`
	Count  int64  `json:"count"`
}

// CampaignRollup holds raw per-campaign counts straight from storage.
// Derived rates are computed by the service.
type CampaignRollup struct {
	CampaignID string     `json:"campaign_id"`
	Recipients int64      `json:"recipients"`
	Delivered  int64      `json:"delivered"`
	Bounced    int64      `json:"bounced"`
	Complained int64      `json:"complained"`
	LastSentAt *time.Time `json:"last_sent_at,omitempty"`
}

// Repository defines the read-only data access contract for statistics.
type Repository interface {
	// StatusCounts counts delivery records created in [start, end) grouped
	// by status. Statuses with no records are absent from the map.
	StatusCounts(ctx context.Context, start, end time.Time) (map[domain.DeliveryStatus]int64, error)

	// TopBounceDomains returns the recipient domains with the most bounced
	// records in [start, end), largest first.
	TopBounceDomains(ctx context.Context, start, end time.Time, limit int) ([]DomainCount, error)

	// RecentCampaigns returns per-campaign rollups ordered by most recent
	// send.
	RecentCampaigns(ctx context.Context, limit int) ([]CampaignRollup, error)
}

// VelocitySource reports how many suppressions were added in the current
// short-term window. Optional; a nil source disables velocity alerts.
type VelocitySource interface {
	Count(ctx context.Context) (int64, error)
}
