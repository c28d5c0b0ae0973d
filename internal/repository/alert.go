package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/twuijri/Vex/internal/models"
)

type AlertRepository interface {
	Create(ctx context.Context, alert *models.Alert) error
	Get(ctx context.Context, id int64) (*models.Alert, error)
	SetAlertMessage(ctx context.Context, id, alertChatID int64, alertMessageID int) error
	// Resolve flips a pending alert to a terminal status. It returns false
	// when the alert was already resolved, which makes a second button press
	// a recognized no-op rather than a double action.
	Resolve(ctx context.Context, id int64, status string, resolvedBy int64) (bool, error)
	SetResolutionNote(ctx context.Context, id int64, note string) error
	ListPending(ctx context.Context) ([]*models.Alert, error)
}

type alertRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewAlertRepository(db *sqlx.DB, logger *zap.Logger) AlertRepository {
	return &alertRepository{db: db, logger: logger}
}

const alertColumns = `id, chat_id, message_id, user_id, user_name, message_text, score, status,
	alert_chat_id, alert_message_id, resolved_by, resolved_at, resolution_note, created_at`

func (r *alertRepository) Create(ctx context.Context, alert *models.Alert) error {
	query := `
		INSERT INTO moderation_alerts (chat_id, message_id, user_id, user_name, message_text, score, status)
		VALUES ($1, $2, $3, $4, $5, $6, 'pending')
		RETURNING ` + alertColumns
	return r.db.QueryRowxContext(ctx, query,
		alert.ChatID, alert.MessageID, alert.UserID, alert.UserName, alert.MessageText, alert.Score,
	).StructScan(alert)
}

func (r *alertRepository) Get(ctx context.Context, id int64) (*models.Alert, error) {
	var alert models.Alert
	query := `SELECT ` + alertColumns + ` FROM moderation_alerts WHERE id = $1`
	err := r.db.GetContext(ctx, &alert, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &alert, nil
}

func (r *alertRepository) SetAlertMessage(ctx context.Context, id, alertChatID int64, alertMessageID int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE moderation_alerts SET alert_chat_id = $2, alert_message_id = $3 WHERE id = $1`,
		id, alertChatID, alertMessageID)
	return err
}

func (r *alertRepository) Resolve(ctx context.Context, id int64, status string, resolvedBy int64) (bool, error) {
	// The status guard makes resolution first-writer-wins even when two
	// reviewers press a button at the same time.
	query := `
		UPDATE moderation_alerts
		SET status = $2, resolved_by = $3, resolved_at = NOW()
		WHERE id = $1 AND status = 'pending'`
	res, err := r.db.ExecContext(ctx, query, id, status, resolvedBy)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *alertRepository) SetResolutionNote(ctx context.Context, id int64, note string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE moderation_alerts SET resolution_note = NULLIF($2, '') WHERE id = $1`, id, note)
	return err
}

func (r *alertRepository) ListPending(ctx context.Context) ([]*models.Alert, error) {
	var alerts []*models.Alert
	query := `SELECT ` + alertColumns + ` FROM moderation_alerts WHERE status = 'pending' ORDER BY created_at`
	if err := r.db.SelectContext(ctx, &alerts, query); err != nil {
		return nil, err
	}
	return alerts, nil
}
