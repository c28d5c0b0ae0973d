// Package guard is the moderation pipeline: every group message runs
// normalize → blacklist → AI cascade, and high scores escalate to a human
// review alert instead of an automatic deletion.
package guard

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/twuijri/Vex/internal/models"
	"github.com/twuijri/Vex/internal/normalize"
)

// AbuseThreshold is the score at or above which a message escalates to
// human review. Only the admin-curated blacklist deletes automatically; the
// probabilistic layer never does.
const AbuseThreshold = 0.65

const alertTextPreview = 300

// ErrAlreadyResolved marks a reviewer action on an alert that was resolved
// before. It is a recognized no-op, not a failure.
var ErrAlreadyResolved = errors.New("alert already resolved")

// ErrAlertNotFound is returned for callback data referencing an unknown alert.
var ErrAlertNotFound = errors.New("alert not found")

// Reviewer actions accepted by ResolveAlert.
const (
	ActionDelete = "delete"
	ActionKeep   = "keep"
)

// Message is the subset of an incoming group message the pipeline consumes.
type Message struct {
	ChatID    int64
	MessageID int
	UserID    int64
	UserName  string
	Text      string // text or caption; empty for pure media
}

// Reviewer identifies the admin who pressed an alert button.
type Reviewer struct {
	ID   int64
	Name string
}

// Resolution describes the outcome of one reviewer action.
type Resolution struct {
	Status string // models.AlertDeleted or models.AlertKept
	Note   string // non-fatal note, e.g. the target message was already gone
}

// GroupStore answers managed-group membership; WordStore covers the lists.
type GroupStore interface {
	WordStore
	IsManaged(ctx context.Context, telegramGroupID int64) (bool, error)
}

// AdminStore answers bot-admin membership and locates the review group.
type AdminStore interface {
	IsAdmin(ctx context.Context, telegramID int64) (bool, error)
	AdminGroupID(ctx context.Context) (int64, error)
}

// RoleChecker reports whether a user holds an elevated chat role
// (administrator or owner) in the given chat.
type RoleChecker interface {
	IsElevated(ctx context.Context, chatID, userID int64) (bool, error)
}

// AlertStore persists review alerts.
type AlertStore interface {
	Create(ctx context.Context, alert *models.Alert) error
	Get(ctx context.Context, id int64) (*models.Alert, error)
	SetAlertMessage(ctx context.Context, id, alertChatID int64, alertMessageID int) error
	Resolve(ctx context.Context, id int64, status string, resolvedBy int64) (bool, error)
	SetResolutionNote(ctx context.Context, id int64, note string) error
}

// Analyzer is the AI cascade.
type Analyzer interface {
	Analyze(ctx context.Context, text string) float64
}

// Transport is the message side-effect surface the pipeline needs from the
// bot layer.
type Transport interface {
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
	// SendAlert posts the review alert with delete/keep buttons bound to
	// alertID and returns the posted message id.
	SendAlert(ctx context.Context, chatID int64, text string, alertID int64) (int, error)
	EditAlert(ctx context.Context, chatID int64, messageID int, text string) error
}

// Pipeline wires the moderation layers together.
type Pipeline struct {
	groups    GroupStore
	admins    AdminStore
	roles     RoleChecker
	alerts    AlertStore
	analyzer  Analyzer
	transport Transport
	matcher   *Matcher
	logger    *zap.Logger

	normalizeFn func(string) string
	threshold   float64
}

func NewPipeline(
	groups GroupStore,
	admins AdminStore,
	roles RoleChecker,
	alerts AlertStore,
	analyzer Analyzer,
	transport Transport,
	logger *zap.Logger,
) *Pipeline {
	return &Pipeline{
		groups:      groups,
		admins:      admins,
		roles:       roles,
		alerts:      alerts,
		analyzer:    analyzer,
		transport:   transport,
		matcher:     NewMatcher(groups, logger),
		logger:      logger,
		normalizeFn: normalize.Normalize,
		threshold:   AbuseThreshold,
	}
}

// HandleIncomingMessage runs the full pipeline on one group message. It is
// safe to call concurrently for different messages; each call is one
// sequential unit of work.
func (p *Pipeline) HandleIncomingMessage(ctx context.Context, msg Message) error {
	managed, err := p.groups.IsManaged(ctx, msg.ChatID)
	if err != nil {
		return fmt.Errorf("managed group lookup: %w", err)
	}
	if !managed {
		return nil
	}

	// Elevated users bypass the whole pipeline, checked before any text
	// work is done.
	if isAdmin, err := p.admins.IsAdmin(ctx, msg.UserID); err != nil {
		p.logger.Error("Bot admin lookup failed", zap.Int64("user_id", msg.UserID), zap.Error(err))
	} else if isAdmin {
		return nil
	}
	if elevated, err := p.roles.IsElevated(ctx, msg.ChatID, msg.UserID); err != nil {
		p.logger.Warn("Chat role lookup failed", zap.Int64("user_id", msg.UserID), zap.Error(err))
	} else if elevated {
		return nil
	}

	if msg.Text == "" {
		return nil // Pure media, nothing to inspect
	}

	normalized := p.normalizeFn(msg.Text)
	if normalized == "" {
		return nil
	}

	hit, err := p.matcher.Matches(ctx, normalized, msg.ChatID)
	if err != nil {
		return fmt.Errorf("blacklist check: %w", err)
	}
	if hit {
		p.logger.Info("Blocked word detected, deleting message",
			zap.Int64("chat_id", msg.ChatID),
			zap.Int64("user_id", msg.UserID))
		if err := p.transport.DeleteMessage(ctx, msg.ChatID, msg.MessageID); err != nil {
			p.logger.Warn("Could not delete message", zap.Error(err))
		}
		return nil // Blacklist hit stops the pipeline, AI layer never runs
	}

	adminGroupID, err := p.admins.AdminGroupID(ctx)
	if err != nil {
		return fmt.Errorf("admin group lookup: %w", err)
	}
	if adminGroupID == 0 {
		return nil // No review group configured, AI layer is moot
	}

	score := p.analyzer.Analyze(ctx, normalized)
	p.logger.Debug("AI score",
		zap.Float64("score", score),
		zap.Float64("threshold", p.threshold),
		zap.Int64("chat_id", msg.ChatID),
		zap.Int64("user_id", msg.UserID))
	if score < p.threshold {
		return nil
	}

	return p.escalate(ctx, msg, score, adminGroupID)
}

func (p *Pipeline) escalate(ctx context.Context, msg Message, score float64, adminGroupID int64) error {
	alert := &models.Alert{
		ChatID:      msg.ChatID,
		MessageID:   msg.MessageID,
		UserID:      msg.UserID,
		UserName:    msg.UserName,
		MessageText: truncate(msg.Text, alertTextPreview),
		Score:       score,
	}
	if err := p.alerts.Create(ctx, alert); err != nil {
		return fmt.Errorf("create alert: %w", err)
	}

	messageID, err := p.transport.SendAlert(ctx, adminGroupID, AlertText(alert), alert.ID)
	if err != nil {
		p.logger.Error("Failed to send admin alert",
			zap.Int64("alert_id", alert.ID), zap.Error(err))
		return nil // Alert row stays pending and is visible on the dashboard
	}

	if err := p.alerts.SetAlertMessage(ctx, alert.ID, adminGroupID, messageID); err != nil {
		p.logger.Error("Failed to store alert message id",
			zap.Int64("alert_id", alert.ID), zap.Error(err))
	}

	p.logger.Info("Message escalated for review",
		zap.Int64("alert_id", alert.ID),
		zap.Float64("score", score),
		zap.Int64("chat_id", msg.ChatID),
		zap.Int64("user_id", msg.UserID))
	return nil
}

// ResolveAlert records a reviewer's decision. Resolution is idempotent: the
// first action wins, a repeat returns ErrAlreadyResolved and triggers no
// second deletion.
func (p *Pipeline) ResolveAlert(ctx context.Context, alertID int64, action string, reviewer Reviewer) (*Resolution, error) {
	if action != ActionDelete && action != ActionKeep {
		return nil, fmt.Errorf("unknown alert action %q", action)
	}

	alert, err := p.alerts.Get(ctx, alertID)
	if err != nil {
		return nil, fmt.Errorf("load alert: %w", err)
	}
	if alert == nil {
		return nil, ErrAlertNotFound
	}

	status := models.AlertKept
	if action == ActionDelete {
		status = models.AlertDeleted
	}

	claimed, err := p.alerts.Resolve(ctx, alertID, status, reviewer.ID)
	if err != nil {
		return nil, fmt.Errorf("resolve alert: %w", err)
	}
	if !claimed {
		return nil, ErrAlreadyResolved
	}

	res := &Resolution{Status: status}
	if action == ActionDelete {
		if err := p.transport.DeleteMessage(ctx, alert.ChatID, alert.MessageID); err != nil {
			// Already gone or missing permission; the decision stands either
			// way, the note just surfaces it on the alert.
			p.logger.Warn("Could not delete reported message",
				zap.Int64("alert_id", alertID), zap.Error(err))
			res.Note = "تعذر حذف الرسالة (ربما حُذفت مسبقاً)"
			if err := p.alerts.SetResolutionNote(ctx, alertID, res.Note); err != nil {
				p.logger.Error("Failed to store resolution note", zap.Error(err))
			}
		}
	}

	p.updateAlertMessage(ctx, alert, status, reviewer, res.Note)

	p.logger.Info("Alert resolved",
		zap.Int64("alert_id", alertID),
		zap.String("status", status),
		zap.Int64("reviewer", reviewer.ID))
	return res, nil
}

func (p *Pipeline) updateAlertMessage(ctx context.Context, alert *models.Alert, status string, reviewer Reviewer, note string) {
	if !alert.AlertChatID.Valid || !alert.AlertMessageID.Valid {
		return
	}

	var line string
	if status == models.AlertDeleted {
		line = fmt.Sprintf("\n\n✅ تم حذف الرسالة بواسطة %s", reviewer.Name)
	} else {
		line = fmt.Sprintf("\n\n✅ تم السماح بالرسالة بواسطة %s", reviewer.Name)
	}
	if note != "" {
		line += "\n⚠️ " + note
	}

	err := p.transport.EditAlert(ctx, alert.AlertChatID.Int64, int(alert.AlertMessageID.Int64), AlertText(alert)+line)
	if err != nil {
		p.logger.Warn("Could not edit alert message",
			zap.Int64("alert_id", alert.ID), zap.Error(err))
	}
}

// AlertText renders the review-channel alert body.
func AlertText(alert *models.Alert) string {
	return fmt.Sprintf(
		"⚠️ اشتباه برسالة مسيئة بنسبة %d%%\n\n👤 المستخدم: %s (%d)\n💬 الرسالة الأصلية:\n%s",
		int(alert.Score*100),
		alert.UserName,
		alert.UserID,
		alert.MessageText,
	)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
