package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/deliverability/internal/domain"
	"github.com/ignite/deliverability/internal/service/tracking"
)

// deleteBatchSize bounds a single retention delete statement so it never
// holds locks on the whole table.
const deleteBatchSize = 10000

// deleteStatementTimeout caps each retention delete statement.
const deleteStatementTimeout = 60 * time.Second

// DeliveryRepo implements tracking.DeliveryRepository against PostgreSQL.
type DeliveryRepo struct{ db *sql.DB }

// NewDeliveryRepo creates a Postgres-backed delivery record repository.
func NewDeliveryRepo(db *sql.DB) *DeliveryRepo { return &DeliveryRepo{db: db} }

const deliveryColumns = `id, provider_message_id, campaign_id, recipient_id, recipient_email,
	status, sent_at, delivered_at, bounced_at, complained_at, unsubscribed_at,
	opened_at, clicked_at, bounce_type, bounce_reason, created_at, updated_at`

func (r *DeliveryRepo) Create(ctx context.Context, rec *domain.DeliveryRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO delivery_records (id, provider_message_id, campaign_id, recipient_id,
			recipient_email, status, sent_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, rec.ID, rec.ProviderMessageID, rec.CampaignID, rec.RecipientID,
		rec.RecipientEmail, rec.Status, rec.SentAt, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert delivery record: %w", err)
	}
	return nil
}

func (r *DeliveryRepo) FindByProviderMessageID(ctx context.Context, providerMessageID string) (*domain.DeliveryRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+deliveryColumns+`
		FROM delivery_records
		WHERE provider_message_id = $1
	`, providerMessageID)

	var rec domain.DeliveryRecord
	err := row.Scan(
		&rec.ID, &rec.ProviderMessageID, &rec.CampaignID, &rec.RecipientID, &rec.RecipientEmail,
		&rec.Status, &rec.SentAt, &rec.DeliveredAt, &rec.BouncedAt, &rec.ComplainedAt,
		&rec.UnsubscribedAt, &rec.OpenedAt, &rec.ClickedAt, &rec.BounceType, &rec.BounceReason,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, tracking.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find delivery record: %w", err)
	}
	return &rec, nil
}

// SetEngagementIfNull sets opened_at/clicked_at in one conditional UPDATE.
// The IS NULL predicate makes duplicate and racing events harmless: the
// first writer wins and every later attempt matches zero rows.
func (r *DeliveryRepo) SetEngagementIfNull(ctx context.Context, providerMessageID string, kind domain.EmailEventType, at time.Time) error {
	var col string
	switch kind {
	case domain.EventOpened:
		col = "opened_at"
	case domain.EventClicked:
		col = "clicked_at"
	default:
		return fmt.Errorf("event type %q is not an engagement event", kind)
	}

	_, err := r.db.ExecContext(ctx, `
		UPDATE delivery_records
		SET `+col+` = $1, updated_at = NOW()
		WHERE provider_message_id = $2 AND `+col+` IS NULL
	`, at, providerMessageID)
	if err != nil {
		return fmt.Errorf("set %s: %w", col, err)
	}
	return nil
}

// ApplyStatusEvent applies a status transition in one statement. When the
// target status is non-terminal the WHERE clause refuses to touch records
// already in a terminal status, so a late delivered event can never
// downgrade a bounce.
func (r *DeliveryRepo) ApplyStatusEvent(ctx context.Context, u tracking.StatusUpdate) error {
	stampCol, err := stageColumn(u.EventType)
	if err != nil {
		return err
	}

	set := `status = $1, ` + stampCol + ` = $2, updated_at = NOW()`
	args := []any{u.Status, u.Timestamp}
	if u.EventType == domain.EventBounced {
		set += `, bounce_type = $3, bounce_reason = $4`
		args = append(args, u.BounceType, u.BounceReason)
	}

	where := fmt.Sprintf(`provider_message_id = $%d`, len(args)+1)
	args = append(args, u.ProviderMessageID)
	if !u.Status.Terminal() {
		where += ` AND status NOT IN ('bounced', 'complained', 'unsubscribed')`
	}

	_, err = r.db.ExecContext(ctx, `UPDATE delivery_records SET `+set+` WHERE `+where, args...)
	if err != nil {
		return fmt.Errorf("apply %s event: %w", u.EventType, err)
	}
	return nil
}

// DeleteOlderThan removes records created before cutoff in bounded batches
// so retention runs never starve concurrent ingestion.
func (r *DeliveryRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	var total int64
	for {
		batchCtx, cancel := context.WithTimeout(ctx, deleteStatementTimeout)
		res, err := r.db.ExecContext(batchCtx, `
			DELETE FROM delivery_records
			WHERE id IN (
				SELECT id FROM delivery_records
				WHERE created_at < $1
				LIMIT $2
			)
		`, cutoff, deleteBatchSize)
		cancel()
		if err != nil {
			return total, fmt.Errorf("delete delivery records: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return total, fmt.Errorf("delete delivery records: %w", err)
		}
		total += n
		if n < deleteBatchSize {
			return total, nil
		}
	}
}

func stageColumn(t domain.EmailEventType) (string, error) {
	switch t {
	case domain.EventSent:
		return "sent_at", nil
	case domain.EventDelivered:
		return "delivered_at", nil
	case domain.EventBounced:
		return "bounced_at", nil
	case domain.EventComplained:
		return "complained_at", nil
	case domain.EventUnsubscribed:
		return "unsubscribed_at", nil
	}
	return "", fmt.Errorf("event type %q has no stage column", t)
}
