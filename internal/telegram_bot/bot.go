package telegram_bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/twuijri/Vex/internal/guard"
	"github.com/twuijri/Vex/internal/repository"
)

// Bot runs the Telegram update loop and is the pipeline's message transport
// and chat-role checker.
type Bot struct {
	api       *tgbotapi.BotAPI
	logger    *zap.Logger
	pipeline  *guard.Pipeline
	groupRepo repository.GroupRepository
	adminRepo repository.AdminRepository
}

// NewBot creates the bot instance. The pipeline is attached afterwards with
// SetPipeline because it needs the bot as its transport.
func NewBot(token string, groupRepo repository.GroupRepository, adminRepo repository.AdminRepository, logger *zap.Logger) (*Bot, error) {
	botAPI, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot API: %w", err)
	}

	logger.Info("Telegram bot authorized", zap.String("username", botAPI.Self.UserName))

	return &Bot{
		api:       botAPI,
		logger:    logger,
		groupRepo: groupRepo,
		adminRepo: adminRepo,
	}, nil
}

func (b *Bot) SetPipeline(pipeline *guard.Pipeline) {
	b.pipeline = pipeline
}

// Start begins listening for updates from Telegram.
func (b *Bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	b.logger.Info("Telegram bot started, waiting for updates...")

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("Telegram bot shutting down...")
			b.api.StopReceivingUpdates()
			return nil
		case update := <-updates:
			if update.CallbackQuery != nil {
				go b.handleCallbackQuery(ctx, update.CallbackQuery)
			} else if update.Message != nil {
				// Messages from different chats carry no ordering
				// guarantee, so each pipeline run gets its own goroutine.
				go b.handleMessage(ctx, update.Message)
			}
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.From == nil {
		return
	}

	if message.Chat.IsGroup() || message.Chat.IsSuperGroup() {
		if message.IsCommand() {
			b.handleGroupCommand(ctx, message)
			return
		}
		b.guardMessage(ctx, message)
		return
	}

	if message.IsCommand() {
		switch message.Command() {
		case "start":
			b.sendMessage(message.Chat.ID, "👋 أهلاً! أنا بوت حماية المجموعات. أضفني لمجموعتك وفعّلني من لوحة التحكم.")
		case "help":
			b.sendMessage(message.Chat.ID, "الأوامر داخل المجموعة:\n/addword كلمة — حظر كلمة\n/delword كلمة — إلغاء الحظر\n/words — عرض الكلمات المحظورة")
		}
	}
}

func (b *Bot) guardMessage(ctx context.Context, message *tgbotapi.Message) {
	text := message.Text
	if text == "" {
		text = message.Caption
	}

	userName := message.From.FirstName
	if message.From.UserName != "" {
		userName = "@" + message.From.UserName
	}

	err := b.pipeline.HandleIncomingMessage(ctx, guard.Message{
		ChatID:    message.Chat.ID,
		MessageID: message.MessageID,
		UserID:    message.From.ID,
		UserName:  userName,
		Text:      text,
	})
	if err != nil {
		b.logger.Error("Moderation pipeline failed",
			zap.Int64("chat_id", message.Chat.ID),
			zap.Error(err))
	}
}

// handleGroupCommand serves the group activation and blocked-word commands.
func (b *Bot) handleGroupCommand(ctx context.Context, message *tgbotapi.Message) {
	cmd := message.Command()

	// Activation commands work in not-yet-managed groups and are reserved
	// for bot admins.
	if cmd == "activate" || cmd == "deactivate" {
		isAdmin, err := b.adminRepo.IsAdmin(ctx, message.From.ID)
		if err != nil {
			b.logger.Error("Bot admin lookup failed", zap.Error(err))
			return
		}
		if !isAdmin {
			return
		}
		if cmd == "activate" {
			groupType := "group"
			if message.Chat.IsSuperGroup() {
				groupType = "supergroup"
			}
			if _, err := b.groupRepo.Activate(ctx, message.Chat.ID, message.Chat.Title, groupType, message.From.ID); err != nil {
				b.logger.Error("Failed to activate group", zap.Int64("chat_id", message.Chat.ID), zap.Error(err))
				b.sendMessage(message.Chat.ID, "⚠️ تعذر تفعيل الحماية")
				return
			}
			b.sendMessage(message.Chat.ID, "🛡️ تم تفعيل الحماية في هذه المجموعة")
			return
		}
		deactivated, err := b.groupRepo.Deactivate(ctx, message.Chat.ID)
		if err != nil {
			b.logger.Error("Failed to deactivate group", zap.Int64("chat_id", message.Chat.ID), zap.Error(err))
			return
		}
		if deactivated {
			b.sendMessage(message.Chat.ID, "🛑 تم إيقاف الحماية في هذه المجموعة")
		}
		return
	}

	if cmd != "addword" && cmd != "delword" && cmd != "words" {
		return
	}

	managed, err := b.groupRepo.IsManaged(ctx, message.Chat.ID)
	if err != nil || !managed {
		return
	}

	allowed, err := b.adminRepo.IsAdmin(ctx, message.From.ID)
	if err != nil {
		b.logger.Error("Bot admin lookup failed", zap.Error(err))
	}
	if !allowed {
		if elevated, err := b.IsElevated(ctx, message.Chat.ID, message.From.ID); err != nil || !elevated {
			return
		}
	}

	switch cmd {
	case "addword":
		word := strings.TrimSpace(message.CommandArguments())
		if word == "" {
			b.sendMessage(message.Chat.ID, "الاستخدام: /addword كلمة")
			return
		}
		if err := b.groupRepo.AddBlockedWord(ctx, message.Chat.ID, word); err != nil {
			b.logger.Error("Failed to add blocked word", zap.Error(err))
			b.sendMessage(message.Chat.ID, "⚠️ تعذر حفظ الكلمة")
			return
		}
		b.sendMessage(message.Chat.ID, "✅ تم حظر الكلمة")
	case "delword":
		word := strings.TrimSpace(message.CommandArguments())
		if word == "" {
			b.sendMessage(message.Chat.ID, "الاستخدام: /delword كلمة")
			return
		}
		removed, err := b.groupRepo.RemoveBlockedWord(ctx, message.Chat.ID, word)
		if err != nil {
			b.logger.Error("Failed to remove blocked word", zap.Error(err))
			return
		}
		if removed {
			b.sendMessage(message.Chat.ID, "☑️ تم إلغاء حظر الكلمة")
		} else {
			b.sendMessage(message.Chat.ID, "⚠️ الكلمة ليست محظورة")
		}
	case "words":
		words, err := b.groupRepo.ListBlockedWords(ctx, message.Chat.ID)
		if err != nil {
			b.logger.Error("Failed to list blocked words", zap.Error(err))
			return
		}
		if len(words) == 0 {
			b.sendMessage(message.Chat.ID, "لا توجد كلمات محظورة في هذه المجموعة.")
			return
		}
		b.sendMessage(message.Chat.ID, "🚫 الكلمات المحظورة:\n- "+strings.Join(words, "\n- "))
	}
}

// handleCallbackQuery routes alert button presses to the pipeline.
func (b *Bot) handleCallbackQuery(ctx context.Context, query *tgbotapi.CallbackQuery) {
	b.logger.Info("Received callback query",
		zap.String("data", query.Data),
		zap.Int64("user_id", query.From.ID))

	// Parse callback data: "guard_delete:<alert_id>" or "guard_keep:<alert_id>"
	parts := strings.SplitN(query.Data, ":", 2)
	if len(parts) != 2 {
		b.answerCallback(query.ID, "⚠️ خطأ في بيانات الزر")
		return
	}

	var action string
	switch parts[0] {
	case "guard_delete":
		action = guard.ActionDelete
	case "guard_keep":
		action = guard.ActionKeep
	default:
		b.answerCallback(query.ID, "⚠️ إجراء غير معروف")
		return
	}

	alertID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		b.logger.Error("Failed to parse alert id", zap.String("data", query.Data), zap.Error(err))
		b.answerCallback(query.ID, "⚠️ خطأ في رقم التنبيه")
		return
	}

	reviewerName := query.From.FirstName
	if query.From.UserName != "" {
		reviewerName = "@" + query.From.UserName
	}

	res, err := b.pipeline.ResolveAlert(ctx, alertID, action, guard.Reviewer{
		ID:   query.From.ID,
		Name: reviewerName,
	})
	switch {
	case errors.Is(err, guard.ErrAlreadyResolved):
		// Second press is a no-op with its own acknowledgment, never a
		// second deletion.
		b.answerCallback(query.ID, "ℹ️ تمت معالجة هذا التنبيه مسبقاً")
	case errors.Is(err, guard.ErrAlertNotFound):
		b.answerCallback(query.ID, "⚠️ التنبيه غير موجود")
	case err != nil:
		b.logger.Error("Failed to resolve alert", zap.Int64("alert_id", alertID), zap.Error(err))
		b.answerCallback(query.ID, "⚠️ تعذر تنفيذ الإجراء")
	case res.Note != "":
		b.answerCallback(query.ID, "✅ تم التنفيذ — "+res.Note)
	case action == guard.ActionDelete:
		b.answerCallback(query.ID, "✅ تم حذف الرسالة")
	default:
		b.answerCallback(query.ID, "✅ تم السماح بالرسالة")
	}
}

// IsElevated reports whether the user is the chat owner or an administrator.
func (b *Bot) IsElevated(ctx context.Context, chatID, userID int64) (bool, error) {
	member, err := b.api.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
			ChatID: chatID,
			UserID: userID,
		},
	})
	if err != nil {
		return false, err
	}
	return member.Status == "creator" || member.Status == "administrator", nil
}

func (b *Bot) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	_, err := b.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID))
	return err
}

func (b *Bot) SendAlert(ctx context.Context, chatID int64, text string, alertID int64) (int, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗑️ احذف الرسالة", fmt.Sprintf("guard_delete:%d", alertID)),
			tgbotapi.NewInlineKeyboardButtonData("✅ لا تحذف", fmt.Sprintf("guard_keep:%d", alertID)),
		),
	)

	sent, err := b.api.Send(msg)
	if err != nil {
		return 0, fmt.Errorf("failed to send alert: %w", err)
	}
	return sent.MessageID, nil
}

func (b *Bot) EditAlert(ctx context.Context, chatID int64, messageID int, text string) error {
	// Editing without a reply markup also strips the buttons.
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	_, err := b.api.Send(edit)
	return err
}

func (b *Bot) answerCallback(callbackID, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		b.logger.Error("Failed to answer callback query", zap.Error(err))
	}
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
