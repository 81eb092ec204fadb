package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/aliskhannn/exam-prep-bot/internal/domain/entities"
	"github.com/aliskhannn/exam-prep-bot/internal/session"
	"github.com/aliskhannn/exam-prep-bot/internal/storage"
)

// Summary is everything the progress screen shows.
type Summary struct {
	Stats          entities.UserStats
	MasteredToday  int
	Remaining      int
	ExamDate       *time.Time
	Goal           *entities.DailyGoal
	EffectiveGoal  int
	Weekly         []int
	CurrentStreak  int
	MaxStreak      int
	PendingAnswers int
	SyncFailed     bool
}

// ProgressService assembles progress summaries from the client caches.
type ProgressService struct {
	api    ProgressAPI
	now    func() time.Time
	logger *zap.Logger
}

// NewProgressService creates a new ProgressService.
func NewProgressService(api ProgressAPI, logger *zap.Logger) *ProgressService {
	return &ProgressService{
		api:    api,
		now:    time.Now,
		logger: logger,
	}
}

// Summary loads statistics and derives the daily goal and streaks.
func (s *ProgressService) Summary(ctx context.Context, client *storage.Client) (*Summary, error) {
	sess := client.Session
	userID := sess.UserID()
	if userID == "" {
		return nil, session.ErrNotAuthenticated
	}

	now := s.now()
	today := startOfDay(now)

	snap, err := client.Stats.Load(ctx, userID, entities.FormatDate(today))
	if err != nil {
		return nil, fmt.Errorf("load stats: %w", err)
	}

	remaining, err := sess.LoadRemainingCount(ctx, sess.RemainingKey())
	if err != nil {
		return nil, fmt.Errorf("load remaining count: %w", err)
	}

	weekly, err := s.api.GetWeeklyProgress(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get weekly progress: %w", err)
	}

	summary := &Summary{
		Stats:          snap.Stats,
		MasteredToday:  snap.DailyProgress.QuestionsMasteredToday,
		Remaining:      remaining,
		Weekly:         weekly,
		PendingAnswers: sess.PendingAnswers(),
		SyncFailed:     client.Stats.LastSyncError() != nil,
	}

	if raw := sess.ExamDate(); raw != nil {
		examDate, err := entities.ParseDate(*raw, now.Location())
		if err != nil {
			s.logger.Warn("ignoring malformed exam date",
				zap.String("user_id", userID),
				zap.String("exam_date", *raw),
			)
		} else {
			summary.ExamDate = &examDate
		}
	}

	summary.Goal = entities.CalculateDailyGoal(summary.ExamDate, snap.Stats.TotalQuestions, snap.Stats.Correct, today)
	summary.EffectiveGoal = entities.EffectiveDailyGoal(sess.DailyGoal(), summary.Goal)
	summary.CurrentStreak = entities.CurrentStreak(weekly, summary.EffectiveGoal)
	summary.MaxStreak = entities.MaxStreak(weekly, summary.EffectiveGoal)

	return summary, nil
}
