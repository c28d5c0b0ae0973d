package models

import (
	"database/sql"
	"time"
)

// Alert resolution states. An alert is terminal once a reviewer acts.
const (
	AlertPending = "pending"
	AlertDeleted = "deleted"
	AlertKept    = "kept"
)

// Alert is one outstanding human-review item created when the AI layer
// scores a message at or above the escalation threshold.
type Alert struct {
	ID             int64          `db:"id" json:"id"`
	ChatID         int64          `db:"chat_id" json:"chat_id"`
	MessageID      int            `db:"message_id" json:"message_id"`
	UserID         int64          `db:"user_id" json:"user_id"`
	UserName       string         `db:"user_name" json:"user_name"`
	MessageText    string         `db:"message_text" json:"message_text"`
	Score          float64        `db:"score" json:"score"`
	Status         string         `db:"status" json:"status"`
	AlertChatID    sql.NullInt64  `db:"alert_chat_id" json:"alert_chat_id"`
	AlertMessageID sql.NullInt64  `db:"alert_message_id" json:"alert_message_id"`
	ResolvedBy     sql.NullInt64  `db:"resolved_by" json:"resolved_by"`
	ResolvedAt     sql.NullTime   `db:"resolved_at" json:"resolved_at"`
	ResolutionNote sql.NullString `db:"resolution_note" json:"resolution_note"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
}
