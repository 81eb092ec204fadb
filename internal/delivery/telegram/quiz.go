package telegram

import (
	"context"
	"errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/aliskhannn/exam-prep-bot/internal/storage"
)

// handleQuiz starts a repetition and sends its first question.
func (h *Handler) handleQuiz(from *tgbotapi.User, mode, topic string) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		client, _, err := h.client(ctx, from)
		if err != nil {
			return err
		}

		questions, err := h.studyService.StartRepetition(ctx, client, mode, topic)
		if err != nil {
			return err
		}

		h.logger.Debug("repetition started",
			zap.Int64("user_id", from.ID),
			zap.String("mode", mode),
			zap.Int("questions", len(questions)),
		)

		if _, err := h.send(newMessage(chatID, buildQuizStartMessage(mode, topic, len(questions)))); err != nil {
			return err
		}

		return h.sendQuestion(chatID, client, 0)
	}
}

// sendQuestion sends the question at index and strips the keyboard from the
// previous prompt so that only one question is answerable at a time.
func (h *Handler) sendQuestion(chatID int64, client *storage.Client, index int) error {
	q, err := h.studyService.Question(client, index)
	if err != nil {
		return err
	}

	msg := newMessage(chatID, formatQuizQuestion(q, index+1, h.studyService.QuestionCount(client)))
	msg.ReplyMarkup = buildQuizAnswerKeyboard(q, index)

	sent, err := h.send(msg)
	if err != nil {
		return err
	}

	if prev, ok := h.prompts.Swap(client.TelegramID, chatID, sent.MessageID); ok && prev.MessageID != sent.MessageID {
		h.request(tgbotapi.NewEditMessageReplyMarkup(prev.ChatID, prev.MessageID, tgbotapi.InlineKeyboardMarkup{
			InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{},
		}))
	}

	return nil
}

// handleAnswer records the chosen option, shows feedback in place of the
// question and moves on to the next one.
func (h *Handler) handleAnswer(cb *tgbotapi.CallbackQuery, questionIndex, option int) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		messageID := cb.Message.MessageID

		// Repeated taps and taps on older prompts are dropped.
		if !h.prompts.Release(cb.From.ID, messageID) {
			h.logger.Debug("stale answer callback",
				zap.Int64("user_id", cb.From.ID),
				zap.Int("message_id", messageID),
			)
			return nil
		}

		client, _, err := h.client(ctx, cb.From)
		if err != nil {
			return err
		}

		q, err := h.studyService.Question(client, questionIndex)
		if err != nil {
			return err
		}

		correct, err := h.studyService.Answer(client, q, option)
		if err != nil {
			return err
		}

		total := h.studyService.QuestionCount(client)
		text := formatQuizQuestion(q, questionIndex+1, total) + "\n\n" + formatAnswerFeedback(q, correct)
		if _, err := h.bot.Request(newEdit(chatID, messageID, text)); err != nil && !isNotModified(err) {
			h.logger.Warn("failed to show answer feedback", zap.Error(err))
		}

		if next := questionIndex + 1; next < total {
			return h.sendQuestion(chatID, client, next)
		}

		return h.finishQuiz(ctx, chatID, client)
	}
}

// handleFinish ends the repetition early on request.
func (h *Handler) handleFinish(cb *tgbotapi.CallbackQuery) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		client, _, err := h.client(ctx, cb.From)
		if err != nil {
			return err
		}

		if h.prompts.Release(cb.From.ID, cb.Message.MessageID) {
			h.request(tgbotapi.NewEditMessageReplyMarkup(chatID, cb.Message.MessageID, tgbotapi.InlineKeyboardMarkup{
				InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{},
			}))
		}

		return h.finishQuiz(ctx, chatID, client)
	}
}

// finishQuiz submits buffered answers and shows the result. Answers that
// fail to submit stay buffered for the background sync.
func (h *Handler) finishQuiz(ctx context.Context, chatID int64, client *storage.Client) error {
	result, err := h.studyService.Finish(ctx, client)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		h.logger.Warn("failed to submit answers",
			zap.Int64("telegram_id", client.TelegramID),
			zap.Error(err),
		)
		h.sendError(chatID, msgSubmitFailed)
		return nil
	}

	msg := newMessage(chatID, formatQuizResult(result))
	msg.ReplyMarkup = buildQuizResultKeyboard()
	_, err = h.send(msg)
	return err
}
