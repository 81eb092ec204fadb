package telegram

import (
	"context"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

func (h *Handler) handleMessage(ctx context.Context, m *tgbotapi.Message) {
	from := m.From
	chatID := m.Chat.ID
	defer h.save(ctx, from.ID)

	if !m.IsCommand() {
		h.sendError(chatID, msgUnknownCommand)
		return
	}

	args := strings.TrimSpace(m.CommandArguments())

	switch m.Command() {
	case "start":
		_ = h.withErrorHandling(h.handleStart(from))(ctx, chatID)

	case "help":
		_, _ = h.send(newMessage(chatID, md(helpText)))

	case "quiz":
		_ = h.withErrorHandling(h.handleQuiz(from, strings.ToLower(args), ""))(ctx, chatID)

	case "topics":
		_ = h.withErrorHandling(h.handleTopics(from))(ctx, chatID)

	case "stats", "progress", "goal":
		_ = h.withErrorHandling(h.handleProgress(from, 0))(ctx, chatID)

	case "settings":
		_ = h.withErrorHandling(h.handleSettings(from, 0))(ctx, chatID)

	case "country":
		_ = h.withErrorHandling(h.handleChangeCountry(from, strings.ToLower(args), 0))(ctx, chatID)

	case "language":
		_ = h.withErrorHandling(h.handleChangeLanguage(from, strings.ToLower(args), 0))(ctx, chatID)

	case "uilang":
		_ = h.withErrorHandling(h.handleChangeUILanguage(from, strings.ToLower(args)))(ctx, chatID)

	case "examdate":
		_ = h.withErrorHandling(h.handleChangeExamDate(from, args))(ctx, chatID)

	case "dailygoal":
		_ = h.withErrorHandling(h.handleChangeDailyGoal(from, args, 0))(ctx, chatID)

	default:
		h.sendError(chatID, msgUnknownCommand)
	}
}

// handleStart binds the sender to a backend user and greets them.
func (h *Handler) handleStart(from *tgbotapi.User) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		_, user, err := h.client(ctx, from)
		if err != nil {
			return err
		}

		msg := newMessage(chatID, buildWelcomeMessage(user))
		msg.ReplyMarkup = buildStartKeyboard()
		_, err = h.send(msg)
		return err
	}
}

// handleProgress renders statistics, daily goal and streaks. A zero
// messageID sends a new message, otherwise the message is edited in place.
func (h *Handler) handleProgress(from *tgbotapi.User, messageID int) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		h.logger.Debug("rendering progress", zap.Int64("user_id", from.ID))

		client, _, err := h.client(ctx, from)
		if err != nil {
			return err
		}

		summary, err := h.progressService.Summary(ctx, client)
		if err != nil {
			return err
		}

		return h.reply(chatID, messageID, formatSummary(summary), buildProgressKeyboard())
	}
}

// handleSettings renders the settings screen.
func (h *Handler) handleSettings(from *tgbotapi.User, messageID int) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		h.logger.Debug("rendering settings", zap.Int64("user_id", from.ID))

		client, _, err := h.client(ctx, from)
		if err != nil {
			return err
		}

		text := formatSettings(client.Session.Settings(), client.Session.ExamDate(), client.Session.DailyGoal())
		return h.reply(chatID, messageID, text, buildSettingsKeyboard())
	}
}

func (h *Handler) handleTopics(from *tgbotapi.User) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		client, _, err := h.client(ctx, from)
		if err != nil {
			return err
		}

		topics, err := h.settingsService.Topics(ctx, client)
		if err != nil {
			return err
		}
		if len(topics) == 0 {
			h.sendError(chatID, msgNoTopics)
			return nil
		}

		return h.reply(chatID, 0, formatTopics(topics), buildTopicsKeyboard(topics))
	}
}

func (h *Handler) handleChangeCountry(from *tgbotapi.User, country string, messageID int) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		client, _, err := h.client(ctx, from)
		if err != nil {
			return err
		}
		if err := h.settingsService.ChangeExamCountry(ctx, client, country); err != nil {
			return err
		}
		return h.handleSettings(from, messageID)(ctx, chatID)
	}
}

func (h *Handler) handleChangeLanguage(from *tgbotapi.User, language string, messageID int) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		client, _, err := h.client(ctx, from)
		if err != nil {
			return err
		}
		if err := h.settingsService.ChangeExamLanguage(ctx, client, language); err != nil {
			return err
		}
		return h.handleSettings(from, messageID)(ctx, chatID)
	}
}

func (h *Handler) handleChangeUILanguage(from *tgbotapi.User, language string) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		client, _, err := h.client(ctx, from)
		if err != nil {
			return err
		}
		if err := h.settingsService.ChangeUILanguage(ctx, client, language); err != nil {
			return err
		}
		return h.handleSettings(from, 0)(ctx, chatID)
	}
}

func (h *Handler) handleChangeExamDate(from *tgbotapi.User, date string) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		client, _, err := h.client(ctx, from)
		if err != nil {
			return err
		}
		if err := h.settingsService.ChangeExamDate(ctx, client, date); err != nil {
			return err
		}
		return h.handleProgress(from, 0)(ctx, chatID)
	}
}

func (h *Handler) handleChangeDailyGoal(from *tgbotapi.User, value string, messageID int) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		goal, err := strconv.Atoi(value)
		if err != nil {
			h.sendError(chatID, msgInvalidDailyGoal)
			return nil
		}

		client, _, err := h.client(ctx, from)
		if err != nil {
			return err
		}
		if err := h.settingsService.ChangeDailyGoal(ctx, client, goal); err != nil {
			return err
		}
		return h.handleSettings(from, messageID)(ctx, chatID)
	}
}

// reply sends text as a new message when messageID is zero and edits the
// existing message otherwise.
func (h *Handler) reply(chatID int64, messageID int, text string, kb tgbotapi.InlineKeyboardMarkup) error {
	if messageID == 0 {
		msg := newMessage(chatID, text)
		msg.ReplyMarkup = kb
		_, err := h.send(msg)
		return err
	}

	edit := newEdit(chatID, messageID, text)
	edit.ReplyMarkup = &kb
	if _, err := h.bot.Request(edit); err != nil && !isNotModified(err) {
		h.logger.Error("failed to edit telegram message", zap.Error(err))
		return err
	}
	return nil
}

// isNotModified reports the error Telegram returns when an edit leaves the
// message unchanged.
func isNotModified(err error) bool {
	return strings.Contains(err.Error(), "message is not modified")
}
