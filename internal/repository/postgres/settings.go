package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ignite/deliverability/internal/domain"
)

// SettingsRepo implements settings.Repository against PostgreSQL. The
// configuration lives in a single row with id = 1; the insert-if-absent in
// GetOrCreate makes concurrent first reads converge on that one row.
type SettingsRepo struct{ db *sql.DB }

// NewSettingsRepo creates a Postgres-backed settings repository.
func NewSettingsRepo(db *sql.DB) *SettingsRepo { return &SettingsRepo{db: db} }

func (r *SettingsRepo) GetOrCreate(ctx context.Context, defaults domain.TrackingConfig) (domain.TrackingConfig, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tracking_config (id, track_opens, track_clicks, track_bounces, track_complaints,
			auto_suppress_hard_bounce, auto_suppress_complaint, retention_days, updated_at)
		VALUES (1, $1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (id) DO NOTHING
	`, defaults.TrackOpens, defaults.TrackClicks, defaults.TrackBounces, defaults.TrackComplaints,
		defaults.AutoSuppressHardBounce, defaults.AutoSuppressComplaint, defaults.RetentionDays)
	if err != nil {
		return domain.TrackingConfig{}, fmt.Errorf("seed tracking config: %w", err)
	}

	var cfg domain.TrackingConfig
	err = r.db.QueryRowContext(ctx, `
		SELECT track_opens, track_clicks, track_bounces, track_complaints,
			auto_suppress_hard_bounce, auto_suppress_complaint, retention_days, updated_at
		FROM tracking_config
		WHERE id = 1
	`).Scan(&cfg.TrackOpens, &cfg.TrackClicks, &cfg.TrackBounces, &cfg.TrackComplaints,
		&cfg.AutoSuppressHardBounce, &cfg.AutoSuppressComplaint, &cfg.RetentionDays, &cfg.UpdatedAt)
	if err != nil {
		return domain.TrackingConfig{}, fmt.Errorf("load tracking config: %w", err)
	}
	return cfg, nil
}

func (r *SettingsRepo) Save(ctx context.Context, cfg domain.TrackingConfig) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE tracking_config
		SET track_opens = $1, track_clicks = $2, track_bounces = $3, track_complaints = $4,
			auto_suppress_hard_bounce = $5, auto_suppress_complaint = $6, retention_days = $7,
			updated_at = NOW()
		WHERE id = 1
	`, cfg.TrackOpens, cfg.TrackClicks, cfg.TrackBounces, cfg.TrackComplaints,
		cfg.AutoSuppressHardBounce, cfg.AutoSuppressComplaint, cfg.RetentionDays)
	if err != nil {
		return fmt.Errorf("save tracking config: %w", err)
	}
	return nil
}
