package service

import (
	"context"

	"github.com/aliskhannn/exam-prep-bot/internal/domain/entities"
	"github.com/aliskhannn/exam-prep-bot/internal/storage"
)

// QuestionAPI fetches question batches from the quiz backend.
type QuestionAPI interface {
	GetQuestions(ctx context.Context, filter entities.QuestionFilter) ([]entities.Question, error)
}

// ProgressAPI fetches progress history from the quiz backend.
type ProgressAPI interface {
	GetWeeklyProgress(ctx context.Context, userID string) ([]int, error)
}

// QuizStorage keeps the active question batch of each user.
type QuizStorage interface {
	Store(telegramID int64, questions []entities.Question)
	Get(telegramID int64) []entities.Question
	Question(telegramID int64, index int) (entities.Question, bool)
	Delete(telegramID int64)
}

// ClientRegistry enumerates and saves loaded client bundles.
type ClientRegistry interface {
	Range(fn func(client *storage.Client) bool)
	SaveDirty(ctx context.Context) (int, error)
}
