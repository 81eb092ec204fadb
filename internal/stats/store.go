// Package stats caches the aggregate statistics shown on the progress screen
// and applies optimistic updates after a study session.
package stats

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/aliskhannn/exam-prep-bot/internal/domain/entities"
)

// DefaultMaxAge is the freshness window used when none is configured.
const DefaultMaxAge = 10 * time.Minute

// API is the part of the quiz backend the statistics store depends on.
type API interface {
	GetUserStats(ctx context.Context, userID string) (*entities.UserStats, error)
	GetDailyProgress(ctx context.Context, userID, date string) (*entities.DailyProgress, error)
}

// Snapshot is a consistent copy of the cached statistics.
type Snapshot struct {
	Stats         entities.UserStats
	DailyProgress entities.DailyProgress
	FetchedAt     time.Time
}

// Store caches user stats and daily progress as one unit.
type Store struct {
	api    API
	logger *zap.Logger
	now    func() time.Time
	maxAge time.Duration

	mu            sync.RWMutex
	stats         *entities.UserStats
	dailyProgress *entities.DailyProgress
	fetchedAt     time.Time
	lastSyncErr   error

	inflight sync.WaitGroup
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock used for freshness checks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger used by background reconciliation.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithMaxAge sets how long fetched statistics are served from cache.
func WithMaxAge(maxAge time.Duration) Option {
	return func(s *Store) {
		if maxAge > 0 {
			s.maxAge = maxAge
		}
	}
}

// New creates an empty statistics store backed by api.
func New(api API, opts ...Option) *Store {
	s := &Store{
		api:    api,
		logger: zap.NewNop(),
		now:    time.Now,
		maxAge: DefaultMaxAge,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IsFresh reports whether both snapshots are present and were fetched less
// than maxAge ago.
func (s *Store) IsFresh(maxAge time.Duration) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isFreshLocked(maxAge)
}

func (s *Store) isFreshLocked(maxAge time.Duration) bool {
	if s.stats == nil || s.dailyProgress == nil {
		return false
	}
	return s.now().Sub(s.fetchedAt) < maxAge
}

// Snapshot returns the cached statistics, if any.
func (s *Store) Snapshot() (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.stats == nil || s.dailyProgress == nil {
		return Snapshot{}, false
	}
	return Snapshot{
		Stats:         *s.stats,
		DailyProgress: *s.dailyProgress,
		FetchedAt:     s.fetchedAt,
	}, true
}

// Load returns cached statistics while they are fresh. Otherwise it fetches
// stats and daily progress for date concurrently and stores both. If either
// request fails nothing is stored.
func (s *Store) Load(ctx context.Context, userID, date string) (Snapshot, error) {
	s.mu.RLock()
	if s.isFreshLocked(s.maxAge) && s.dailyProgress.Date == date {
		snap := Snapshot{Stats: *s.stats, DailyProgress: *s.dailyProgress, FetchedAt: s.fetchedAt}
		s.mu.RUnlock()
		return snap, nil
	}
	s.mu.RUnlock()

	return s.fetch(ctx, userID, date)
}

func (s *Store) fetch(ctx context.Context, userID, date string) (Snapshot, error) {
	var (
		stats    *entities.UserStats
		progress *entities.DailyProgress
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stats, err = s.api.GetUserStats(gctx, userID)
		if err != nil {
			return fmt.Errorf("fetch user stats: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		progress, err = s.api.GetDailyProgress(gctx, userID, date)
		if err != nil {
			return fmt.Errorf("fetch daily progress: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}

	if progress.Date == "" {
		progress.Date = date
	}

	snap := Snapshot{
		Stats:         *stats,
		DailyProgress: *progress,
		FetchedAt:     s.now(),
	}

	s.mu.Lock()
	s.stats = &snap.Stats
	s.dailyProgress = &snap.DailyProgress
	s.fetchedAt = snap.FetchedAt
	s.mu.Unlock()

	return snap, nil
}

// ApplySessionResult adds the outcome of a finished study session to the
// cached counters without a network call. It does nothing when either
// snapshot is missing. The total question count is left to reconciliation.
func (s *Store) ApplySessionResult(correct, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stats == nil || s.dailyProgress == nil {
		return
	}

	stats := *s.stats
	stats.Answered += total
	stats.Correct += correct
	s.stats = &stats

	progress := *s.dailyProgress
	progress.QuestionsMasteredToday += correct
	s.dailyProgress = &progress
}

// Reconcile fetches authoritative statistics, overwriting any optimistic
// estimate. The outcome is recorded for LastSyncError.
func (s *Store) Reconcile(ctx context.Context, userID, date string) error {
	_, err := s.fetch(ctx, userID, date)

	s.mu.Lock()
	s.lastSyncErr = err
	s.mu.Unlock()

	return err
}

// ReconcileAsync runs Reconcile in the background. The reconciliation outlives
// the caller's cancellation; failures are logged and recorded, never retried.
func (s *Store) ReconcileAsync(ctx context.Context, userID, date string) {
	ctx = context.WithoutCancel(ctx)

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()

		if err := s.Reconcile(ctx, userID, date); err != nil {
			s.logger.Warn("failed to reconcile statistics",
				zap.String("user_id", userID),
				zap.String("date", date),
				zap.Error(err),
			)
		}
	}()
}

// Wait blocks until all background reconciliations have finished.
func (s *Store) Wait() {
	s.inflight.Wait()
}

// LastSyncError returns the error of the most recent reconciliation, nil if it
// succeeded or none ran yet.
func (s *Store) LastSyncError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSyncErr
}

// Invalidate drops both snapshots.
func (s *Store) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats = nil
	s.dailyProgress = nil
	s.fetchedAt = time.Time{}
}
