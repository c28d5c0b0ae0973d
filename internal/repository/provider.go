package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/twuijri/Vex/internal/models"
)

type ProviderRepository interface {
	// ListActive returns active providers in cascade order: priority
	// ascending, insertion order breaking ties.
	ListActive(ctx context.Context) ([]models.Provider, error)
	ListAll(ctx context.Context) ([]models.Provider, error)
	Get(ctx context.Context, id int64) (*models.Provider, error)
	Add(ctx context.Context, p *models.Provider) error
	Delete(ctx context.Context, id int64) (bool, error)
	Toggle(ctx context.Context, id int64) (*bool, error)
	Move(ctx context.Context, id int64, direction string) (bool, error)
}

type providerRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewProviderRepository(db *sqlx.DB, logger *zap.Logger) ProviderRepository {
	return &providerRepository{db: db, logger: logger}
}

const providerColumns = `id, name, provider_type, api_key, model, priority, is_active, created_at`

func (r *providerRepository) ListActive(ctx context.Context) ([]models.Provider, error) {
	var providers []models.Provider
	query := `SELECT ` + providerColumns + ` FROM ai_providers WHERE is_active = TRUE ORDER BY priority, id`
	if err := r.db.SelectContext(ctx, &providers, query); err != nil {
		return nil, err
	}
	return providers, nil
}

func (r *providerRepository) ListAll(ctx context.Context) ([]models.Provider, error) {
	var providers []models.Provider
	query := `SELECT ` + providerColumns + ` FROM ai_providers ORDER BY priority, id`
	if err := r.db.SelectContext(ctx, &providers, query); err != nil {
		return nil, err
	}
	return providers, nil
}

func (r *providerRepository) Get(ctx context.Context, id int64) (*models.Provider, error) {
	var p models.Provider
	query := `SELECT ` + providerColumns + ` FROM ai_providers WHERE id = $1`
	err := r.db.GetContext(ctx, &p, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *providerRepository) Add(ctx context.Context, p *models.Provider) error {
	query := `
		INSERT INTO ai_providers (name, provider_type, api_key, model, priority, is_active)
		VALUES ($1, $2, $3, $4, $5, TRUE)
		RETURNING ` + providerColumns
	return r.db.QueryRowxContext(ctx, query, p.Name, p.Kind, p.APIKey, p.Model, p.Priority).StructScan(p)
}

func (r *providerRepository) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM ai_providers WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *providerRepository) Toggle(ctx context.Context, id int64) (*bool, error) {
	var active bool
	query := `UPDATE ai_providers SET is_active = NOT is_active WHERE id = $1 RETURNING is_active`
	err := r.db.GetContext(ctx, &active, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &active, nil
}

// Move swaps priorities with the neighboring provider so the cascade order
// can be reshuffled from the dashboard.
func (r *providerRepository) Move(ctx context.Context, id int64, direction string) (bool, error) {
	if direction != "up" && direction != "down" {
		return false, fmt.Errorf("invalid direction %q", direction)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	var providers []models.Provider
	if err := tx.SelectContext(ctx, &providers,
		`SELECT `+providerColumns+` FROM ai_providers ORDER BY priority, id FOR UPDATE`); err != nil {
		return false, err
	}

	idx := -1
	for i, p := range providers {
		if p.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return false, nil
	}

	var swap int
	switch {
	case direction == "up" && idx > 0:
		swap = idx - 1
	case direction == "down" && idx < len(providers)-1:
		swap = idx + 1
	default:
		return false, nil
	}

	a, b := providers[idx], providers[swap]
	if _, err := tx.ExecContext(ctx, `UPDATE ai_providers SET priority = $1 WHERE id = $2`, b.Priority, a.ID); err != nil {
		return false, err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE ai_providers SET priority = $1 WHERE id = $2`, a.Priority, b.ID); err != nil {
		return false, err
	}

	return true, tx.Commit()
}
