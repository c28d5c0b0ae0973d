package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/twuijri/Vex/internal/models"
)

type AdminRepository interface {
	IsAdmin(ctx context.Context, telegramID int64) (bool, error)
	ListAll(ctx context.Context) ([]*models.Admin, error)
	// AdminGroupID returns the review channel id, or 0 when none is set.
	AdminGroupID(ctx context.Context) (int64, error)
	PromptOverride(ctx context.Context) (string, error)
}

type adminRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewAdminRepository(db *sqlx.DB, logger *zap.Logger) AdminRepository {
	return &adminRepository{db: db, logger: logger}
}

func (r *adminRepository) IsAdmin(ctx context.Context, telegramID int64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM admins WHERE telegram_id = $1)`
	err := r.db.GetContext(ctx, &exists, query, telegramID)
	return exists, err
}

func (r *adminRepository) ListAll(ctx context.Context) ([]*models.Admin, error) {
	var admins []*models.Admin
	query := `SELECT id, telegram_id, first_name, username, is_super_admin, added_at FROM admins ORDER BY id`
	if err := r.db.SelectContext(ctx, &admins, query); err != nil {
		return nil, err
	}
	return admins, nil
}

func (r *adminRepository) getConfig(ctx context.Context) (*models.BotConfig, error) {
	var cfg models.BotConfig
	query := `SELECT id, admin_group_id, ai_prompt_override, updated_at FROM bot_config WHERE id = 1`
	err := r.db.GetContext(ctx, &cfg, query)
	if err != nil {
		if err == sql.ErrNoRows {
			return &models.BotConfig{}, nil
		}
		return nil, err
	}
	return &cfg, nil
}

func (r *adminRepository) AdminGroupID(ctx context.Context) (int64, error) {
	cfg, err := r.getConfig(ctx)
	if err != nil {
		return 0, err
	}
	if !cfg.AdminGroupID.Valid {
		return 0, nil
	}
	return cfg.AdminGroupID.Int64, nil
}

func (r *adminRepository) PromptOverride(ctx context.Context) (string, error) {
	cfg, err := r.getConfig(ctx)
	if err != nil {
		return "", err
	}
	if !cfg.AIPromptOverride.Valid {
		return "", nil
	}
	return cfg.AIPromptOverride.String, nil
}
