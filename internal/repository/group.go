package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/twuijri/Vex/internal/models"
)

type GroupRepository interface {
	IsManaged(ctx context.Context, telegramGroupID int64) (bool, error)
	GetByTelegramID(ctx context.Context, telegramGroupID int64) (*models.ManagedGroup, error)
	Activate(ctx context.Context, telegramGroupID int64, name, groupType string, activatedBy int64) (*models.ManagedGroup, error)
	Deactivate(ctx context.Context, telegramGroupID int64) (bool, error)
	ListAll(ctx context.Context) ([]*models.ManagedGroup, error)

	// Word lists are read fresh on every message so dashboard edits take
	// effect immediately.
	ListBlockedWords(ctx context.Context, telegramGroupID int64) ([]string, error)
	ListAllowedWords(ctx context.Context, telegramGroupID int64) ([]string, error)
	AddBlockedWord(ctx context.Context, telegramGroupID int64, word string) error
	RemoveBlockedWord(ctx context.Context, telegramGroupID int64, word string) (bool, error)
}

type groupRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewGroupRepository(db *sqlx.DB, logger *zap.Logger) GroupRepository {
	return &groupRepository{db: db, logger: logger}
}

func (r *groupRepository) IsManaged(ctx context.Context, telegramGroupID int64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM managed_groups WHERE telegram_group_id = $1 AND is_active = TRUE)`
	err := r.db.GetContext(ctx, &exists, query, telegramGroupID)
	return exists, err
}

func (r *groupRepository) GetByTelegramID(ctx context.Context, telegramGroupID int64) (*models.ManagedGroup, error) {
	var group models.ManagedGroup
	query := `SELECT id, telegram_group_id, group_name, group_type, activated_by, is_active, activated_at
	          FROM managed_groups WHERE telegram_group_id = $1`
	err := r.db.GetContext(ctx, &group, query, telegramGroupID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &group, nil
}

func (r *groupRepository) Activate(ctx context.Context, telegramGroupID int64, name, groupType string, activatedBy int64) (*models.ManagedGroup, error) {
	var group models.ManagedGroup
	query := `
		INSERT INTO managed_groups (telegram_group_id, group_name, group_type, activated_by, is_active)
		VALUES ($1, $2, $3, $4, TRUE)
		ON CONFLICT (telegram_group_id) DO UPDATE SET
			is_active = TRUE, group_name = EXCLUDED.group_name
		RETURNING id, telegram_group_id, group_name, group_type, activated_by, is_active, activated_at`
	err := r.db.QueryRowxContext(ctx, query, telegramGroupID, name, groupType, activatedBy).StructScan(&group)
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *groupRepository) Deactivate(ctx context.Context, telegramGroupID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE managed_groups SET is_active = FALSE WHERE telegram_group_id = $1 AND is_active = TRUE`,
		telegramGroupID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *groupRepository) ListAll(ctx context.Context) ([]*models.ManagedGroup, error) {
	var groups []*models.ManagedGroup
	query := `SELECT id, telegram_group_id, group_name, group_type, activated_by, is_active, activated_at
	          FROM managed_groups ORDER BY id`
	if err := r.db.SelectContext(ctx, &groups, query); err != nil {
		return nil, err
	}
	return groups, nil
}

func (r *groupRepository) ListBlockedWords(ctx context.Context, telegramGroupID int64) ([]string, error) {
	var words []string
	query := `
		SELECT w.word FROM blocked_words w
		JOIN managed_groups g ON g.id = w.group_id
		WHERE g.telegram_group_id = $1 AND w.is_active = TRUE AND g.is_active = TRUE
		ORDER BY w.id`
	if err := r.db.SelectContext(ctx, &words, query, telegramGroupID); err != nil {
		return nil, err
	}
	return words, nil
}

func (r *groupRepository) ListAllowedWords(ctx context.Context, telegramGroupID int64) ([]string, error) {
	var words []string
	query := `
		SELECT w.word FROM allowed_words w
		JOIN managed_groups g ON g.id = w.group_id
		WHERE g.telegram_group_id = $1 AND w.is_active = TRUE AND g.is_active = TRUE
		ORDER BY w.id`
	if err := r.db.SelectContext(ctx, &words, query, telegramGroupID); err != nil {
		return nil, err
	}
	return words, nil
}

func (r *groupRepository) AddBlockedWord(ctx context.Context, telegramGroupID int64, word string) error {
	query := `
		INSERT INTO blocked_words (group_id, word)
		SELECT g.id, $2 FROM managed_groups g WHERE g.telegram_group_id = $1`
	res, err := r.db.ExecContext(ctx, query, telegramGroupID, word)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *groupRepository) RemoveBlockedWord(ctx context.Context, telegramGroupID int64, word string) (bool, error) {
	query := `
		DELETE FROM blocked_words w
		USING managed_groups g
		WHERE w.group_id = g.id AND g.telegram_group_id = $1 AND w.word = $2`
	res, err := r.db.ExecContext(ctx, query, telegramGroupID, word)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
