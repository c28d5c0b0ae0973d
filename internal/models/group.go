package models

import (
	"database/sql"
	"time"
)

// ManagedGroup is a Telegram group the bot moderates. Word lists hang off a
// group as plain strings; they have no model type of their own.
type ManagedGroup struct {
	ID              int64          `db:"id" json:"id"`
	TelegramGroupID int64          `db:"telegram_group_id" json:"telegram_group_id"`
	GroupName       string         `db:"group_name" json:"group_name"`
	GroupType       sql.NullString `db:"group_type" json:"group_type"`
	ActivatedBy     sql.NullInt64  `db:"activated_by" json:"activated_by"`
	IsActive        bool           `db:"is_active" json:"is_active"`
	ActivatedAt     time.Time      `db:"activated_at" json:"activated_at"`
}
