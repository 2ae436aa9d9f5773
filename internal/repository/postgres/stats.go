package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ignite/deliverability/internal/domain"
	"github.com/ignite/deliverability/internal/service/stats"
)

// StatsRepo implements stats.Repository against PostgreSQL. All queries are
// read-only aggregates over delivery_records.
type StatsRepo struct{ db *sql.DB }

// NewStatsRepo creates a Postgres-backed statistics repository.
func NewStatsRepo(db *sql.DB) *StatsRepo { return &StatsRepo{db: db} }

func (r *StatsRepo) StatusCounts(ctx context.Context, start, end time.Time) (map[domain.DeliveryStatus]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT status, COUNT(*)
		FROM delivery_records
		WHERE created_at >= $1 AND created_at < $2
		GROUP BY status
	`, start, end)
	if err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}
	defer rows.Close()

	out := make(map[domain.DeliveryStatus]int64)
	for rows.Next() {
		var status domain.DeliveryStatus
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		out[status] = n
	}
	return out, rows.Err()
}

func (r *StatsRepo) TopBounceDomains(ctx context.Context, start, end time.Time, limit int) ([]stats.DomainCount, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT SPLIT_PART(recipient_email, '@', 2) AS domain, COUNT(*) AS n
		FROM delivery_records
		WHERE status = 'bounced' AND created_at >= $1 AND created_at < $2
		GROUP BY domain
		ORDER BY n DESC
		LIMIT $3
	`, start, end, limit)
	if err != nil {
		return nil, fmt.Errorf("rank bounce domains: %w", err)
	}
	defer rows.Close()

	var out []stats.DomainCount
	for rows.Next() {
		var d stats.DomainCount
		if err := rows.Scan(&d.Domain, &d.Count); err != nil {
			return nil, fmt.Errorf("scan bounce domain: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *StatsRepo) RecentCampaigns(ctx context.Context, limit int) ([]stats.CampaignRollup, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT campaign_id,
			COUNT(*) AS recipients,
			COUNT(*) FILTER (WHERE status = 'delivered') AS delivered,
			COUNT(*) FILTER (WHERE status = 'bounced') AS bounced,
			COUNT(*) FILTER (WHERE status = 'complained') AS complained,
			MAX(COALESCE(sent_at, created_at)) AS last_sent_at
		FROM delivery_records
		GROUP BY campaign_id
		ORDER BY last_sent_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("roll up campaigns: %w", err)
	}
	defer rows.Close()

	var out []stats.CampaignRollup
	for rows.Next() {
		var c stats.CampaignRollup
		if err := rows.Scan(&c.CampaignID, &c.Recipients, &c.Delivered, &c.Bounced, &c.Complained, &c.LastSentAt); err != nil {
			return nil, fmt.Errorf("scan campaign rollup: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
