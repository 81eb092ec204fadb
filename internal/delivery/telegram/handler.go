package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/aliskhannn/exam-prep-bot/internal/domain/entities"
	"github.com/aliskhannn/exam-prep-bot/internal/service"
	"github.com/aliskhannn/exam-prep-bot/internal/storage"
)

type ClientRegistry interface {
	Get(ctx context.Context, telegramID int64) (*storage.Client, error)
	Save(ctx context.Context, telegramID int64) error
}

type UserService interface {
	EnsureUser(ctx context.Context, client *storage.Client, identity entities.TelegramIdentity) (*entities.User, error)
}

type StudyService interface {
	StartRepetition(ctx context.Context, client *storage.Client, mode, topic string) ([]entities.Question, error)
	Question(client *storage.Client, index int) (entities.Question, error)
	QuestionCount(client *storage.Client) int
	Answer(client *storage.Client, question entities.Question, selected int) (bool, error)
	Finish(ctx context.Context, client *storage.Client) (service.SessionResult, error)
}

type ProgressService interface {
	Summary(ctx context.Context, client *storage.Client) (*service.Summary, error)
}

type SettingsService interface {
	ChangeExamCountry(ctx context.Context, client *storage.Client, country string) error
	ChangeExamLanguage(ctx context.Context, client *storage.Client, language string) error
	ChangeUILanguage(ctx context.Context, client *storage.Client, language string) error
	ChangeExamDate(ctx context.Context, client *storage.Client, date string) error
	ChangeDailyGoal(ctx context.Context, client *storage.Client, goal int) error
	Topics(ctx context.Context, client *storage.Client) ([]string, error)
}

// PromptStorage tracks the last question message of each user.
type PromptStorage interface {
	Swap(telegramID, chatID int64, messageID int) (storage.PromptMessage, bool)
	Release(telegramID int64, messageID int) bool
}

type Handler struct {
	bot             *tgbotapi.BotAPI
	logger          *zap.Logger
	clients         ClientRegistry
	userService     UserService
	studyService    StudyService
	progressService ProgressService
	settingsService SettingsService
	prompts         PromptStorage
}

func NewHandler(
	bot *tgbotapi.BotAPI,
	logger *zap.Logger,
	clients ClientRegistry,
	userService UserService,
	studyService StudyService,
	progressService ProgressService,
	settingsService SettingsService,
	prompts PromptStorage,
) *Handler {
	return &Handler{
		bot:             bot,
		logger:          logger,
		clients:         clients,
		userService:     userService,
		studyService:    studyService,
		progressService: progressService,
		settingsService: settingsService,
		prompts:         prompts,
	}
}

func (h *Handler) Run(ctx context.Context) error {
	h.logger.Info("telegram handler started")
	defer h.logger.Info("telegram handler stopped")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := h.bot.GetUpdatesChan(u)
	defer h.bot.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			h.handleUpdate(ctx, update)
		}
	}
}

func (h *Handler) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		h.logger.Debug("callback received",
			zap.Int64("user_id", update.CallbackQuery.From.ID),
			zap.String("data", update.CallbackQuery.Data),
		)
		h.handleCallback(ctx, update.CallbackQuery)
		return
	}

	if update.Message == nil || update.Message.From == nil {
		h.logger.Debug("update without message and callback")
		return
	}

	h.logger.Debug("update received",
		zap.Int64("chat_id", update.Message.Chat.ID),
		zap.String("text", update.Message.Text),
	)

	h.handleMessage(ctx, update.Message)
}

// client returns the bundle of the sender bound to a backend user.
func (h *Handler) client(ctx context.Context, from *tgbotapi.User) (*storage.Client, *entities.User, error) {
	client, err := h.clients.Get(ctx, from.ID)
	if err != nil {
		return nil, nil, err
	}

	user, err := h.userService.EnsureUser(ctx, client, identityOf(from))
	if err != nil {
		return nil, nil, err
	}

	return client, user, nil
}

// save persists changed client state after an update was handled.
func (h *Handler) save(ctx context.Context, telegramID int64) {
	if err := h.clients.Save(ctx, telegramID); err != nil {
		h.logger.Warn("failed to save client state",
			zap.Int64("telegram_id", telegramID),
			zap.Error(err),
		)
	}
}

func identityOf(from *tgbotapi.User) entities.TelegramIdentity {
	return entities.TelegramIdentity{
		ID:           from.ID,
		FirstName:    from.FirstName,
		LastName:     from.LastName,
		Username:     from.UserName,
		LanguageCode: from.LanguageCode,
	}
}

func (h *Handler) sendError(chatID int64, text string) {
	_, _ = h.send(newPlainMessage(chatID, text))
}

func (h *Handler) send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	msg, err := h.bot.Send(c)
	if err != nil {
		h.logger.Error("failed to send telegram message",
			zap.Error(err),
		)
	}
	return msg, err
}

// request performs a call whose response carries no message, such as a
// callback answer or a keyboard removal.
func (h *Handler) request(c tgbotapi.Chattable) {
	if _, err := h.bot.Request(c); err != nil {
		h.logger.Debug("telegram request failed", zap.Error(err))
	}
}
