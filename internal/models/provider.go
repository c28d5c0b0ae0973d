package models

import (
	"database/sql"
	"fmt"
	"time"
)

// Last-outcome statuses recorded in the usage ledger.
const (
	StatusOK              = "ok"
	StatusRateLimitMinute = "rate_limit_minute"
	StatusRateLimitDay    = "rate_limit_day"
	StatusError           = "error"
)

// ProviderKind identifies the integration type of an AI provider.
type ProviderKind string

const (
	ProviderGoogleStudio ProviderKind = "google_studio"
	ProviderBlackbox     ProviderKind = "blackbox"
	ProviderHuggingFace  ProviderKind = "huggingface"
)

// Provider is a configured abuse-classification backend, managed from the
// dashboard. Lower priority is tried first.
type Provider struct {
	ID        int64        `db:"id" json:"id"`
	Name      string       `db:"name" json:"name"`
	Kind      ProviderKind `db:"provider_type" json:"provider_type"`
	APIKey    string       `db:"api_key" json:"-"`
	Model     string       `db:"model" json:"model"`
	Priority  int          `db:"priority" json:"priority"`
	IsActive  bool         `db:"is_active" json:"is_active"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
}

// Key returns the ledger key for this provider. It includes the row id so two
// entries of the same kind are accounted separately.
func (p Provider) Key() string {
	return fmt.Sprintf("%s:%d:%s", p.Kind, p.ID, p.Name)
}

// ProviderUsageStat is one daily accounting row per provider key.
type ProviderUsageStat struct {
	ID            int64          `db:"id" json:"id"`
	ProviderKey   string         `db:"provider_key" json:"provider"`
	StatDate      time.Time      `db:"stat_date" json:"date"`
	RequestsCount int            `db:"requests_count" json:"requests"`
	LastStatus    sql.NullString `db:"last_status" json:"status"`
	LastError     sql.NullString `db:"last_error" json:"error"`
	LastUsedAt    sql.NullTime   `db:"last_used_at" json:"last_used"`
}
