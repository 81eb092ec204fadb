package session

import "github.com/aliskhannn/exam-prep-bot/internal/domain/entities"

// PersistedState is the part of a session that survives a restart.
// Exam settings, remaining count, daily progress and buffered answers are
// memory-only and rebuilt on first access.
type PersistedState struct {
	UserID          string         `json:"user_id,omitempty"`
	TelegramID      int64          `json:"telegram_id,omitempty"`
	User            *entities.User `json:"cached_user,omitempty"`
	ExamCountry     string         `json:"exam_country,omitempty"`
	ExamLanguage    string         `json:"exam_language,omitempty"`
	UILanguage      string         `json:"ui_language,omitempty"`
	ExamDate        *string        `json:"exam_date,omitempty"`
	ManualDailyGoal *int           `json:"manual_daily_goal,omitempty"`
	Topics          []string       `json:"cached_topics,omitempty"`
	TopicsKey       *TopicsKey     `json:"cached_topics_key,omitempty"`
}

// persistedSubset is the allowlist of state fields written at save points.
func persistedSubset(st *state) PersistedState {
	p := PersistedState{
		UserID:          st.userID,
		TelegramID:      st.telegramID,
		User:            cloneUser(st.user),
		ExamCountry:     st.settings.ExamCountry,
		ExamLanguage:    st.settings.ExamLanguage,
		UILanguage:      st.settings.UILanguage,
		ExamDate:        clonePtr(st.settings.ExamDate),
		ManualDailyGoal: clonePtr(st.settings.ManualDailyGoal),
	}
	if st.topics != nil {
		key := st.topics.key
		p.Topics = append([]string(nil), st.topics.topics...)
		p.TopicsKey = &key
	}
	return p
}

// Persisted returns the persisted subset of the current state.
func (s *Store) Persisted() PersistedState {
	var p PersistedState
	s.read(func(st *state) { p = persistedSubset(st) })
	return p
}

// Restore replaces the state with a previously persisted subset. Memory-only
// caches start empty. Subscribers are not notified: restoring is not a change
// that needs saving.
func (s *Store) Restore(p PersistedState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = state{
		userID:     p.UserID,
		telegramID: p.TelegramID,
		user:       cloneUser(p.User),
		settings: Settings{
			ExamCountry:     p.ExamCountry,
			ExamLanguage:    p.ExamLanguage,
			UILanguage:      p.UILanguage,
			ExamDate:        clonePtr(p.ExamDate),
			ManualDailyGoal: clonePtr(p.ManualDailyGoal),
		},
	}
	if p.TopicsKey != nil {
		s.state.topics = &cachedTopics{
			topics: append([]string(nil), p.Topics...),
			key:    *p.TopicsKey,
		}
	}
}
