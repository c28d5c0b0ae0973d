package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/twuijri/Vex/internal/models"
)

type DashboardUserRepository interface {
	GetByUsername(ctx context.Context, username string) (*models.DashboardUser, error)
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, user *models.DashboardUser) error
}

type dashboardUserRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewDashboardUserRepository(db *sqlx.DB, logger *zap.Logger) DashboardUserRepository {
	return &dashboardUserRepository{db: db, logger: logger}
}

func (r *dashboardUserRepository) GetByUsername(ctx context.Context, username string) (*models.DashboardUser, error) {
	var user models.DashboardUser
	query := `SELECT id, username, password_hash, created_at FROM dashboard_users WHERE username = $1`
	err := r.db.GetContext(ctx, &user, query, username)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *dashboardUserRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM dashboard_users`)
	return count, err
}

func (r *dashboardUserRepository) Create(ctx context.Context, user *models.DashboardUser) error {
	query := `INSERT INTO dashboard_users (username, password_hash) VALUES ($1, $2)
	          RETURNING id, username, password_hash, created_at`
	return r.db.QueryRowxContext(ctx, query, user.Username, user.PasswordHash).StructScan(user)
}
