package models

import (
	"database/sql"
	"time"
)

// Admin is a bot administrator. Admin messages bypass moderation entirely.
type Admin struct {
	ID           int64          `db:"id" json:"id"`
	TelegramID   int64          `db:"telegram_id" json:"telegram_id"`
	FirstName    string         `db:"first_name" json:"first_name"`
	Username     sql.NullString `db:"username" json:"username"`
	IsSuperAdmin bool           `db:"is_super_admin" json:"is_super_admin"`
	AddedAt      time.Time      `db:"added_at" json:"added_at"`
}

// BotConfig is the single-row bot configuration (setup wizard output).
type BotConfig struct {
	ID               int64          `db:"id" json:"id"`
	AdminGroupID     sql.NullInt64  `db:"admin_group_id" json:"admin_group_id"`
	AIPromptOverride sql.NullString `db:"ai_prompt_override" json:"ai_prompt_override"`
	UpdatedAt        time.Time      `db:"updated_at" json:"updated_at"`
}

// DashboardUser is an operator account for the web dashboard.
type DashboardUser struct {
	ID           int64     `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
