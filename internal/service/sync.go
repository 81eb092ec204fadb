package service

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/aliskhannn/exam-prep-bot/internal/storage"
)

const maxConcurrentFlushes = 10

// SyncReport is the outcome of one sync run.
type SyncReport struct {
	Flushed     int // clients whose buffered answers were submitted
	FlushFailed int
	Skipped     int // clients in the middle of a repetition
	StatesSaved int
	SaveFailed  bool
}

// SyncService periodically resubmits buffered answers and saves changed
// client state.
type SyncService struct {
	clients  ClientRegistry
	schedule string
	logger   *zap.Logger
}

// NewSyncService creates a new sync service running on a cron schedule.
func NewSyncService(clients ClientRegistry, schedule string, logger *zap.Logger) *SyncService {
	return &SyncService{
		clients:  clients,
		schedule: schedule,
		logger:   logger,
	}
}

// Start runs the schedule until ctx is cancelled, then performs a final run
// so nothing buffered is lost on shutdown.
func (s *SyncService) Start(ctx context.Context) error {
	c := cron.New(cron.WithLocation(time.UTC))

	_, err := c.AddFunc(s.schedule, func() {
		s.logger.Debug("cron triggered: syncing clients")
		s.RunOnce(ctx)
	})
	if err != nil {
		return err
	}

	c.Start()
	s.logger.Info("sync service started", zap.String("schedule", s.schedule))

	<-ctx.Done()

	<-c.Stop().Done()

	// Buffers live in memory only, so the last run also sends answers of
	// unfinished repetitions.
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	s.run(shutdownCtx, true)

	s.logger.Info("sync service stopped")
	return nil
}

// RunOnce submits pending answers of every loaded client that is not in the
// middle of a repetition and saves all changed client states.
func (s *SyncService) RunOnce(ctx context.Context) SyncReport {
	return s.run(ctx, false)
}

func (s *SyncService) run(ctx context.Context, final bool) SyncReport {
	var report SyncReport

	var pending []*storage.Client
	s.clients.Range(func(client *storage.Client) bool {
		if client.Session.PendingAnswers() == 0 {
			return true
		}
		if !final && client.Session.InRepetition() {
			report.Skipped++
			return true
		}
		pending = append(pending, client)
		return true
	})

	report.Flushed, report.FlushFailed = s.flush(ctx, pending, final)

	saved, err := s.clients.SaveDirty(ctx)
	if err != nil {
		report.SaveFailed = true
		s.logger.Error("failed to save client states", zap.Error(err))
	}
	report.StatesSaved = saved

	if report.Flushed > 0 || report.FlushFailed > 0 || report.StatesSaved > 0 {
		s.logger.Info("clients synced",
			zap.Int("flushed", report.Flushed),
			zap.Int("flush_failed", report.FlushFailed),
			zap.Int("skipped", report.Skipped),
			zap.Int("states_saved", report.StatesSaved),
		)
	}

	return report
}

// flush submits buffered answers concurrently with bounded parallelism.
func (s *SyncService) flush(ctx context.Context, clients []*storage.Client, final bool) (flushed, failed int) {
	sem := semaphore.NewWeighted(maxConcurrentFlushes)
	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, client := range clients {
		client := client
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)

		go func() {
			defer wg.Done()
			defer sem.Release(1)

			submit := client.Session.FlushIdle
			if final {
				submit = client.Session.SubmitAnswers
			}
			batch, err := submit(ctx)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				s.logger.Warn("failed to flush buffered answers",
					zap.Int64("telegram_id", client.TelegramID),
					zap.Error(err),
				)
				return
			}
			if len(batch) > 0 {
				flushed++
				client.Stats.Invalidate()
			}
		}()
	}

	wg.Wait()
	return flushed, failed
}
