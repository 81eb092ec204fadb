package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

func (h *Handler) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil || cb.From == nil {
		return
	}

	// Remove the user's "clock".
	defer h.request(tgbotapi.NewCallback(cb.ID, ""))
	defer h.save(ctx, cb.From.ID)

	chatID := cb.Message.Chat.ID
	data := decodeCallback(cb.Data)

	var fn HandlerFunc
	switch data.Action {
	case actionQuiz:
		fn = h.quizCallback(cb, data)
	case actionProgress:
		fn = h.handleProgress(cb.From, cb.Message.MessageID)
	case actionSettings:
		fn = h.settingsCallback(cb, data)
	case actionTopic:
		fn = h.topicCallback(cb, data)
	}

	if fn == nil {
		h.logger.Warn("unknown callback", zap.String("data", data.Raw))
		return
	}

	_ = h.withErrorHandling(fn)(ctx, chatID)
}

func (h *Handler) quizCallback(cb *tgbotapi.CallbackQuery, data callbackData) HandlerFunc {
	switch data.param(0) {
	case quizStart:
		return h.handleQuiz(cb.From, data.param(1), "")
	case quizAnswer:
		questionIndex, ok := data.intParam(1)
		if !ok {
			return nil
		}
		option, ok := data.intParam(2)
		if !ok {
			return nil
		}
		return h.handleAnswer(cb, questionIndex, option)
	case quizFinish:
		return h.handleFinish(cb)
	default:
		return nil
	}
}

func (h *Handler) settingsCallback(cb *tgbotapi.CallbackQuery, data callbackData) HandlerFunc {
	messageID := cb.Message.MessageID
	value := data.param(1)

	switch data.param(0) {
	case settingsMenu:
		return h.handleSettings(cb.From, messageID)

	case settingsCountry:
		if value == "" {
			return h.showKeyboard(messageID, md("🌍 Выберите страну экзамена:"), buildCountryKeyboard())
		}
		return h.handleChangeCountry(cb.From, value, messageID)

	case settingsLanguage:
		if value == "" {
			return h.showKeyboard(messageID, md("🗣 Выберите язык вопросов:"), buildLanguageKeyboard())
		}
		return h.handleChangeLanguage(cb.From, value, messageID)

	case settingsDailyGoal:
		if value == "" {
			return h.showKeyboard(messageID, md("🎯 Сколько вопросов в день осваивать?"), buildDailyGoalKeyboard())
		}
		return h.handleChangeDailyGoal(cb.From, value, messageID)

	default:
		return nil
	}
}

// topicCallback starts a repetition for the topic at the given position of
// the cached topic list.
func (h *Handler) topicCallback(cb *tgbotapi.CallbackQuery, data callbackData) HandlerFunc {
	index, ok := data.intParam(0)
	if !ok {
		return nil
	}

	return func(ctx context.Context, chatID int64) error {
		client, _, err := h.client(ctx, cb.From)
		if err != nil {
			return err
		}

		topics, err := h.settingsService.Topics(ctx, client)
		if err != nil {
			return err
		}
		if index >= len(topics) {
			h.sendError(chatID, msgQuestionExpired)
			return nil
		}

		return h.handleQuiz(cb.From, "", topics[index])(ctx, chatID)
	}
}

func (h *Handler) showKeyboard(messageID int, text string, kb tgbotapi.InlineKeyboardMarkup) HandlerFunc {
	return func(_ context.Context, chatID int64) error {
		return h.reply(chatID, messageID, text, kb)
	}
}
