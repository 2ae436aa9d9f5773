package stats

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ignite/deliverability/internal/domain"
)

// Alert thresholds. Rates are fractions, not percentages.
const (
	bounceCritical    = 0.05
	bounceWarning     = 0.02
	complaintCritical = 0.005
	complaintWarning  = 0.001
	deliveryWarning   = 0.90

	// minSampleSize gates the delivery-rate alert: tiny sends produce
	// noisy rates that are not worth waking anyone up for.
	minSampleSize = 100

	// velocityThreshold is the number of suppressions in the current
	// 5-minute bucket that triggers a list-poisoning warning.
	velocityThreshold = 50

	topBounceDomainLimit = 10
)

// Severity levels for health alerts.
const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"
)

// DeliveryStats aggregates one reporting window.
type DeliveryStats struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`

	Sent         int64 `json:"sent"`
	Delivered    int64 `json:"delivered"`
	Bounced      int64 `json:"bounced"`
	Complained   int64 `json:"complained"`
	Unsubscribed int64 `json:"unsubscribed"`
	Pending      int64 `json:"pending"`

	DeliveryRate  float64 `json:"delivery_rate"`
	BounceRate    float64 `json:"bounce_rate"`
	ComplaintRate float64 `json:"complaint_rate"`

	TopBounceDomains []DomainCount `json:"top_bounce_domains"`
}

// Alert is one threshold breach.
type Alert struct {
	Metric   string  `json:"metric"`
	Severity string  `json:"severity"`
	Value    float64 `json:"value"`
	Message  string  `json:"message"`
}

// CampaignStats is a per-campaign rollup with derived rates.
type CampaignStats struct {
	CampaignRollup
	DeliveryRate float64 `json:"delivery_rate"`
	BounceRate   float64 `json:"bounce_rate"`
}

// Service computes statistics and alerts. velocity may be nil.
type Service struct {
	repo     Repository
	velocity VelocitySource
}

// NewService creates a stats service.
func NewService(repo Repository, velocity VelocitySource) *Service {
	return &Service{repo: repo, velocity: velocity}
}

// DeliveryStats aggregates records created in [start, end). Sent counts
// every record that left pending; all rates use sent as the denominator and
// are zero when the window is empty.
func (s *Service) DeliveryStats(ctx context.Context, start, end time.Time) (*DeliveryStats, error) {
	counts, err := s.repo.StatusCounts(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("count delivery records: %w", err)
	}

	out := &DeliveryStats{
		Start:        start,
		End:          end,
		Delivered:    counts[domain.StatusDelivered],
		Bounced:      counts[domain.StatusBounced],
		Complained:   counts[domain.StatusComplained],
		Unsubscribed: counts[domain.StatusUnsubscribed],
		Pending:      counts[domain.StatusPending],
	}
	out.Sent = counts[domain.StatusSent] + out.Delivered + out.Bounced +
		out.Complained + out.Unsubscribed

	out.DeliveryRate = rate(out.Delivered, out.Sent)
	out.BounceRate = rate(out.Bounced, out.Sent)
	out.ComplaintRate = rate(out.Complained, out.Sent)

	domains, err := s.repo.TopBounceDomains(ctx, start, end, topBounceDomainLimit)
	if err != nil {
		return nil, fmt.Errorf("rank bounce domains: %w", err)
	}
	out.TopBounceDomains = domains
	return out, nil
}

// HealthAlerts evaluates the trailing window against fixed thresholds. At
// most one alert per metric; when both tiers are crossed the higher one
// wins. days values below 1 default to 7.
func (s *Service) HealthAlerts(ctx context.Context, days int) ([]Alert, error) {
	if days < 1 {
		days = 7
	}
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -days)

	st, err := s.DeliveryStats(ctx, start, end)
	if err != nil {
		return nil, err
	}

	alerts := make([]Alert, 0, 4)

	switch {
	case st.BounceRate >= bounceCritical:
		alerts = append(alerts, Alert{
			Metric:   "bounce_rate",
			Severity: SeverityCritical,
			Value:    st.BounceRate,
			Message:  fmt.Sprintf("bounce rate %.2f%% over the last %dd exceeds %.0f%%", st.BounceRate*100, days, bounceCritical*100),
		})
	case st.BounceRate >= bounceWarning:
		alerts = append(alerts, Alert{
			Metric:   "bounce_rate",
			Severity: SeverityWarning,
			Value:    st.BounceRate,
			Message:  fmt.Sprintf("bounce rate %.2f%% over the last %dd exceeds %.0f%%", st.BounceRate*100, days, bounceWarning*100),
		})
	}

	switch {
	case st.ComplaintRate >= complaintCritical:
		alerts = append(alerts, Alert{
			Metric:   "complaint_rate",
			Severity: SeverityCritical,
			Value:    st.ComplaintRate,
			Message:  fmt.Sprintf("complaint rate %.3f%% over the last %dd exceeds %.1f%%", st.ComplaintRate*100, days, complaintCritical*100),
		})
	case st.ComplaintRate >= complaintWarning:
		alerts = append(alerts, Alert{
			Metric:   "complaint_rate",
			Severity: SeverityWarning,
			Value:    st.ComplaintRate,
			Message:  fmt.Sprintf("complaint rate %.3f%% over the last %dd exceeds %.1f%%", st.ComplaintRate*100, days, complaintWarning*100),
		})
	}

	if st.Sent > minSampleSize && st.DeliveryRate < deliveryWarning {
		alerts = append(alerts, Alert{
			Metric:   "delivery_rate",
			Severity: SeverityWarning,
			Value:    st.DeliveryRate,
			Message:  fmt.Sprintf("delivery rate %.2f%% over the last %dd is below %.0f%%", st.DeliveryRate*100, days, deliveryWarning*100),
		})
	}

	if s.velocity != nil {
		n, err := s.velocity.Count(ctx)
		if err != nil {
			// best-effort source; a dead redis must not break alerting
			log.Printf("[Stats] WARN: suppression velocity unavailable: %v", err)
		} else if n >= velocityThreshold {
			alerts = append(alerts, Alert{
				Metric:   "suppression_velocity",
				Severity: SeverityWarning,
				Value:    float64(n),
				Message:  fmt.Sprintf("%d suppressions added in the last 5 minutes", n),
			})
		}
	}

	return alerts, nil
}

// RecentCampaignStats returns per-campaign rollups with derived rates for
// the most recently sent campaigns. limit values below 1 default to 10.
func (s *Service) RecentCampaignStats(ctx context.Context, limit int) ([]CampaignStats, error) {
	if limit < 1 {
		limit = 10
	}
	rollups, err := s.repo.RecentCampaigns(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("load campaign rollups: %w", err)
	}

	out := make([]CampaignStats, 0, len(rollups))
	for _, r := range rollups {
		out = append(out, CampaignStats{
			CampaignRollup: r,
			DeliveryRate:   rate(r.Delivered, r.Recipients),
			BounceRate:     rate(r.Bounced, r.Recipients),
		})
	}
	return out, nil
}

func rate(part, whole int64) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole)
}
