package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/aliskhannn/exam-prep-bot/internal/domain/entities"
	"github.com/aliskhannn/exam-prep-bot/internal/storage"
)

type UserService struct {
	logger *zap.Logger
}

func NewUserService(logger *zap.Logger) *UserService {
	return &UserService{logger: logger}
}

// EnsureUser makes sure the client is bound to a backend user. A restored
// identity is reused; otherwise the user is looked up or created.
func (s *UserService) EnsureUser(
	ctx context.Context, client *storage.Client, identity entities.TelegramIdentity,
) (*entities.User, error) {
	if client.Session.IsAuthenticated() && client.Session.TelegramID() == identity.ID {
		return client.Session.LoadUser(ctx)
	}

	user, err := client.Session.Authenticate(ctx, identity)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user authenticated",
		zap.Int64("telegram_id", identity.ID),
		zap.String("user_id", user.ID),
	)

	return user, nil
}
