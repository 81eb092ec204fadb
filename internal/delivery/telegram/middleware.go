package telegram

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/aliskhannn/exam-prep-bot/internal/api"
	"github.com/aliskhannn/exam-prep-bot/internal/service"
	"github.com/aliskhannn/exam-prep-bot/internal/session"
)

type HandlerFunc func(ctx context.Context, chatID int64) error

func (h *Handler) withErrorHandling(fn HandlerFunc) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		if err := fn(ctx, chatID); err != nil {
			h.logger.Error("handle error",
				zap.Int64("chat_id", chatID),
				zap.Error(err),
			)
			h.sendError(chatID, errorMessage(err))
		}
		return nil
	}
}

// errorMessage maps an error to the text shown to the user.
func errorMessage(err error) string {
	var statusErr *api.StatusError

	switch {
	case errors.Is(err, session.ErrNotAuthenticated), errors.Is(err, api.ErrNotFound):
		return msgNotAuthenticated
	case errors.Is(err, service.ErrNoQuestionsAvailable):
		return msgNoQuestions
	case errors.Is(err, service.ErrQuestionNotFound), errors.Is(err, service.ErrInvalidOption):
		return msgQuestionExpired
	case errors.Is(err, service.ErrInvalidCountry):
		return msgInvalidCountry
	case errors.Is(err, service.ErrInvalidLanguage):
		return msgInvalidLanguage
	case errors.Is(err, service.ErrInvalidDailyGoal):
		return msgInvalidDailyGoal
	case errors.Is(err, service.ErrInvalidExamDate):
		return msgInvalidExamDate
	case errors.Is(err, service.ErrExamDateInPast):
		return msgExamDateInPast
	case errors.As(err, &statusErr) && !statusErr.Retryable():
		return msgInternalError
	default:
		return msgBackendUnavailable
	}
}
