package session

import (
	"context"
	"fmt"
	"slices"

	"github.com/aliskhannn/exam-prep-bot/internal/domain/entities"
)

// User returns the cached profile snapshot.
func (s *Store) User() (*entities.User, bool) {
	var user *entities.User
	s.read(func(st *state) { user = cloneUser(st.user) })
	return user, user != nil
}

// SetUser replaces the cached profile snapshot.
func (s *Store) SetUser(user *entities.User) {
	s.mutate(func(st *state) []Change {
		st.user = cloneUser(user)
		return []Change{ChangeUser}
	})
}

// ClearUser drops the cached profile snapshot.
func (s *Store) ClearUser() {
	s.mutate(func(st *state) []Change {
		st.user = nil
		return []Change{ChangeUser}
	})
}

// LoadUser returns the cached profile or fetches it by Telegram ID.
func (s *Store) LoadUser(ctx context.Context) (*entities.User, error) {
	if user, ok := s.User(); ok {
		return user, nil
	}

	telegramID := s.TelegramID()
	if telegramID == 0 {
		return nil, ErrNotAuthenticated
	}

	user, err := s.api.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	s.SetUser(user)
	return cloneUser(user), nil
}

// ExamSettings returns the cached exam-settings snapshot.
func (s *Store) ExamSettings() (*entities.ExamSettings, bool) {
	var settings *entities.ExamSettings
	s.read(func(st *state) { settings = cloneExamSettings(st.examSettings) })
	return settings, settings != nil
}

// SetExamSettings replaces the cached exam-settings snapshot.
func (s *Store) SetExamSettings(settings *entities.ExamSettings) {
	s.mutate(func(st *state) []Change {
		st.examSettings = cloneExamSettings(settings)
		return []Change{ChangeExamSettings}
	})
}

// ClearExamSettings drops the cached exam-settings snapshot.
func (s *Store) ClearExamSettings() {
	s.mutate(func(st *state) []Change {
		st.examSettings = nil
		return []Change{ChangeExamSettings}
	})
}

// LoadExamSettings returns the cached exam settings or fetches them.
func (s *Store) LoadExamSettings(ctx context.Context) (*entities.ExamSettings, error) {
	if settings, ok := s.ExamSettings(); ok {
		return settings, nil
	}

	userID := s.UserID()
	if userID == "" {
		return nil, ErrNotAuthenticated
	}

	settings, err := s.api.GetExamSettings(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load exam settings: %w", err)
	}

	s.SetExamSettings(settings)
	return cloneExamSettings(settings), nil
}

// RemainingCount returns the cached remaining count together with its key.
func (s *Store) RemainingCount() (int, RemainingKey, bool) {
	var (
		count int
		key   RemainingKey
		ok    bool
	)
	s.read(func(st *state) {
		if st.remaining != nil {
			count, key, ok = st.remaining.count, st.remaining.key, true
		}
	})
	return count, key, ok
}

// SetRemainingCount replaces the cached remaining count and its key.
func (s *Store) SetRemainingCount(key RemainingKey, count int) {
	s.mutate(func(st *state) []Change {
		st.remaining = &cachedRemaining{count: count, key: key}
		return []Change{ChangeRemainingCount}
	})
}

// ClearRemainingCount drops the cached remaining count.
func (s *Store) ClearRemainingCount() {
	s.mutate(func(st *state) []Change {
		st.remaining = nil
		return []Change{ChangeRemainingCount}
	})
}

// LoadRemainingCount returns the remaining count for key, calling the backend
// unless the cached snapshot was stored under exactly the same key.
func (s *Store) LoadRemainingCount(ctx context.Context, key RemainingKey) (int, error) {
	if key.UserID == "" {
		return 0, ErrNotAuthenticated
	}

	if count, cachedKey, ok := s.RemainingCount(); ok && cachedKey == key {
		return count, nil
	}

	count, err := s.api.GetRemainingCount(ctx, key.UserID, key.Country, key.Language)
	if err != nil {
		return 0, fmt.Errorf("load remaining count: %w", err)
	}

	s.SetRemainingCount(key, count)
	return count, nil
}

// Topics returns the cached topic list together with its key.
func (s *Store) Topics() ([]string, TopicsKey, bool) {
	var (
		topics []string
		key    TopicsKey
		ok     bool
	)
	s.read(func(st *state) {
		if st.topics != nil {
			topics, key, ok = slices.Clone(st.topics.topics), st.topics.key, true
		}
	})
	return topics, key, ok
}

// SetTopics replaces the cached topic list and its key.
func (s *Store) SetTopics(key TopicsKey, topics []string) {
	s.mutate(func(st *state) []Change {
		st.topics = &cachedTopics{topics: slices.Clone(topics), key: key}
		return []Change{ChangeTopics}
	})
}

// ClearTopics drops the cached topic list.
func (s *Store) ClearTopics() {
	s.mutate(func(st *state) []Change {
		st.topics = nil
		return []Change{ChangeTopics}
	})
}

// LoadTopics returns the topic list for key, calling the backend unless the
// cached list was stored under exactly the same key.
func (s *Store) LoadTopics(ctx context.Context, key TopicsKey) ([]string, error) {
	if topics, cachedKey, ok := s.Topics(); ok && cachedKey == key {
		return topics, nil
	}

	topics, err := s.api.GetTopics(ctx, key.Country, key.Language)
	if err != nil {
		return nil, fmt.Errorf("load topics: %w", err)
	}

	s.SetTopics(key, topics)
	return slices.Clone(topics), nil
}

// DailyProgress returns the cached daily progress snapshot.
func (s *Store) DailyProgress() (entities.DailyProgress, bool) {
	var (
		progress entities.DailyProgress
		ok       bool
	)
	s.read(func(st *state) {
		if st.dailyProgress != nil {
			progress, ok = *st.dailyProgress, true
		}
	})
	return progress, ok
}

// SetDailyProgress replaces the cached daily progress snapshot.
func (s *Store) SetDailyProgress(progress entities.DailyProgress) {
	s.mutate(func(st *state) []Change {
		st.dailyProgress = &progress
		return []Change{ChangeDailyProgress}
	})
}

// ClearDailyProgress drops the cached daily progress snapshot.
func (s *Store) ClearDailyProgress() {
	s.mutate(func(st *state) []Change {
		st.dailyProgress = nil
		return []Change{ChangeDailyProgress}
	})
}

// LoadDailyProgress returns progress for date ("YYYY-MM-DD"). The snapshot is
// only reused when it was fetched for the same date.
func (s *Store) LoadDailyProgress(ctx context.Context, date string) (entities.DailyProgress, error) {
	if progress, ok := s.DailyProgress(); ok && progress.Date == date {
		return progress, nil
	}

	userID := s.UserID()
	if userID == "" {
		return entities.DailyProgress{}, ErrNotAuthenticated
	}

	progress, err := s.api.GetDailyProgress(ctx, userID, date)
	if err != nil {
		return entities.DailyProgress{}, fmt.Errorf("load daily progress: %w", err)
	}

	// The backend may omit the date; key the snapshot by what was asked for.
	if progress.Date == "" {
		progress.Date = date
	}

	s.SetDailyProgress(*progress)
	return *progress, nil
}
