package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/twuijri/Vex/internal/models"
)

// UsageStatRepository is the persistent quota ledger: one row per
// (provider key, UTC calendar day).
type UsageStatRepository interface {
	// Record bumps today's counter and overwrites the last status/error in a
	// single atomic upsert, safe under concurrent writers.
	Record(ctx context.Context, providerKey, status, lastError string) error
	// IsExhausted reports whether the provider should be pre-skipped today:
	// counted requests reached the daily limit, or the backend already
	// signalled daily exhaustion.
	IsExhausted(ctx context.Context, providerKey string, dailyLimit int) (bool, error)
	ListRecent(ctx context.Context, days int) ([]*models.ProviderUsageStat, error)
	Delete(ctx context.Context, statID int64) (bool, error)
}

type usageStatRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewUsageStatRepository(db *sqlx.DB, logger *zap.Logger) UsageStatRepository {
	return &usageStatRepository{db: db, logger: logger}
}

func (r *usageStatRepository) Record(ctx context.Context, providerKey, status, lastError string) error {
	// The unique (provider_key, stat_date) index makes this a
	// read-modify-write inside the database, so concurrent pipeline runs
	// never lose an increment or a rate_limit_day marking.
	query := `
		INSERT INTO ai_provider_stats (provider_key, stat_date, requests_count, last_status, last_error, last_used_at)
		VALUES ($1, $2, 1, $3, NULLIF($4, ''), NOW())
		ON CONFLICT (provider_key, stat_date) DO UPDATE SET
			requests_count = ai_provider_stats.requests_count + 1,
			last_status    = EXCLUDED.last_status,
			last_error     = EXCLUDED.last_error,
			last_used_at   = EXCLUDED.last_used_at`
	_, err := r.db.ExecContext(ctx, query, providerKey, todayUTC(), status, lastError)
	return err
}

func (r *usageStatRepository) IsExhausted(ctx context.Context, providerKey string, dailyLimit int) (bool, error) {
	var stat models.ProviderUsageStat
	query := `SELECT id, provider_key, stat_date, requests_count, last_status, last_error, last_used_at
	          FROM ai_provider_stats WHERE provider_key = $1 AND stat_date = $2`
	err := r.db.GetContext(ctx, &stat, query, providerKey, todayUTC())
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil // No usage today yet
		}
		return false, err
	}
	if stat.LastStatus.Valid && stat.LastStatus.String == models.StatusRateLimitDay {
		return true, nil
	}
	return stat.RequestsCount >= dailyLimit, nil
}

func (r *usageStatRepository) ListRecent(ctx context.Context, days int) ([]*models.ProviderUsageStat, error) {
	cutoff := todayUTC().AddDate(0, 0, -days)
	var stats []*models.ProviderUsageStat
	query := `SELECT id, provider_key, stat_date, requests_count, last_status, last_error, last_used_at
	          FROM ai_provider_stats WHERE stat_date >= $1
	          ORDER BY stat_date DESC, last_used_at DESC NULLS LAST`
	if err := r.db.SelectContext(ctx, &stats, query, cutoff); err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *usageStatRepository) Delete(ctx context.Context, statID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM ai_provider_stats WHERE id = $1`, statID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// todayUTC truncates now to the UTC calendar day the ledger is keyed by.
func todayUTC() time.Time {
	y, m, d := time.Now().UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
