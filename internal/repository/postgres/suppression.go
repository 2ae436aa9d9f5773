package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ignite/deliverability/internal/domain"
	"github.com/ignite/deliverability/internal/service/suppression"
)

// SuppressionRepo implements suppression.Repository against PostgreSQL.
// Expiry is lazy: expired rows stay in the table and every read filters
// them out with the same predicate.
type SuppressionRepo struct{ db *sql.DB }

// NewSuppressionRepo creates a Postgres-backed suppression repository.
func NewSuppressionRepo(db *sql.DB) *SuppressionRepo { return &SuppressionRepo{db: db} }

const liveEntry = `(expires_at IS NULL OR expires_at > $1)`

func (r *SuppressionRepo) IsSuppressed(ctx context.Context, email string, now time.Time) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM suppression_entries WHERE email = $2 AND `+liveEntry+`)`,
		now, email,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check suppression: %w", err)
	}
	return exists, nil
}

func (r *SuppressionRepo) Upsert(ctx context.Context, e *domain.SuppressionEntry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO suppression_entries (id, email, reason, source_record_id, notes, added_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (email) DO UPDATE SET
			reason = EXCLUDED.reason,
			source_record_id = EXCLUDED.source_record_id,
			notes = EXCLUDED.notes,
			added_at = EXCLUDED.added_at,
			expires_at = EXCLUDED.expires_at
	`, e.ID, e.Email, e.Reason, e.SourceRecordID, e.Notes, e.AddedAt, e.ExpiresAt)
	if err != nil {
		return fmt.Errorf("upsert suppression: %w", err)
	}
	return nil
}

func (r *SuppressionRepo) Remove(ctx context.Context, email string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM suppression_entries WHERE email = $1`, email)
	if err != nil {
		return fmt.Errorf("remove suppression: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return suppression.ErrNotFound
	}
	return nil
}

func (r *SuppressionRepo) Summary(ctx context.Context, now time.Time) (int, map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT reason, COUNT(*)
		FROM suppression_entries
		WHERE `+liveEntry+`
		GROUP BY reason
	`, now)
	if err != nil {
		return 0, nil, fmt.Errorf("summarize suppressions: %w", err)
	}
	defer rows.Close()

	total := 0
	byReason := make(map[string]int)
	for rows.Next() {
		var reason string
		var n int
		if err := rows.Scan(&reason, &n); err != nil {
			return 0, nil, fmt.Errorf("scan suppression summary: %w", err)
		}
		byReason[reason] = n
		total += n
	}
	return total, byReason, rows.Err()
}

func (r *SuppressionRepo) List(ctx context.Context, f suppression.ListFilter) ([]domain.SuppressionEntry, int, error) {
	now := time.Now().UTC()

	where := liveEntry
	args := []any{now}
	if f.Reason != "" {
		where += fmt.Sprintf(` AND reason = $%d`, len(args)+1)
		args = append(args, f.Reason)
	}

	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM suppression_entries WHERE `+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count suppressions: %w", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = total
	}
	args = append(args, limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, email, reason, source_record_id, notes, added_at, expires_at
		FROM suppression_entries
		WHERE %s
		ORDER BY added_at DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list suppressions: %w", err)
	}
	defer rows.Close()

	var out []domain.SuppressionEntry
	for rows.Next() {
		var e domain.SuppressionEntry
		if err := rows.Scan(&e.ID, &e.Email, &e.Reason, &e.SourceRecordID, &e.Notes, &e.AddedAt, &e.ExpiresAt); err != nil {
			return nil, 0, fmt.Errorf("scan suppression: %w", err)
		}
		out = append(out, e)
	}
	return out, total, rows.Err()
}
