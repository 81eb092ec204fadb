// Package session holds the per-user client state: identity, study settings,
// memoized backend snapshots and the buffer of answers not yet submitted.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/aliskhannn/exam-prep-bot/internal/domain/entities"
)

var ErrNotAuthenticated = errors.New("session: user is not authenticated")

// API is the part of the quiz backend the session store depends on.
type API interface {
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*entities.User, error)
	CreateUser(ctx context.Context, payload entities.UserCreate) (*entities.User, error)
	PatchUser(ctx context.Context, userID string, patch entities.UserPatch) (*entities.User, error)
	SubmitAnswers(ctx context.Context, userID string, answers []entities.AnswerSubmission) error
	GetDailyProgress(ctx context.Context, userID, date string) (*entities.DailyProgress, error)
	GetExamSettings(ctx context.Context, userID string) (*entities.ExamSettings, error)
	UpdateExamSettings(ctx context.Context, userID string, update entities.ExamSettingsUpdate) (*entities.ExamSettings, error)
	GetRemainingCount(ctx context.Context, userID, country, language string) (int, error)
	GetTopics(ctx context.Context, country, language string) ([]string, error)
}

// Settings are the user's study settings kept outside the profile snapshot.
type Settings struct {
	ExamCountry     string  // question bank country
	ExamLanguage    string  // question bank language
	UILanguage      string  // display language
	ExamDate        *string // nullable, "YYYY-MM-DD"
	ManualDailyGoal *int    // nullable override of the computed goal
}

type state struct {
	userID     string
	telegramID int64
	settings   Settings

	user          *entities.User
	examSettings  *entities.ExamSettings
	remaining     *cachedRemaining
	topics        *cachedTopics
	dailyProgress *entities.DailyProgress
	answers       []entities.Answer
	inRepetition  bool
}

// Store is the session cache store of one client.
// All methods are safe for concurrent use; network calls are never made
// while the state lock is held.
type Store struct {
	api    API
	logger *zap.Logger
	now    func() time.Time

	mu    sync.RWMutex
	state state

	// submitMu serializes answer submissions and repetition starts of this store.
	submitMu sync.Mutex

	subMu       sync.Mutex
	subscribers map[int]func(Change)
	nextSubID   int
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock used for answer timestamps and "today".
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger used for best-effort operations.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithSettings sets the initial study settings.
func WithSettings(settings Settings) Option {
	return func(s *Store) { s.state.settings = cloneSettings(settings) }
}

// New creates an empty, unauthenticated store.
func New(api API, opts ...Option) *Store {
	s := &Store{
		api:         api,
		logger:      zap.NewNop(),
		now:         time.Now,
		subscribers: make(map[int]func(Change)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers fn to be called after every mutation.
// fn runs outside the store lock and may read from the store.
func (s *Store) Subscribe(fn func(Change)) (cancel func()) {
	s.subMu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subscribers, id)
		s.subMu.Unlock()
	}
}

// mutate applies fn under the write lock and notifies subscribers about the
// changes fn reports.
func (s *Store) mutate(fn func(st *state) []Change) {
	s.mu.Lock()
	changes := fn(&s.state)
	s.mu.Unlock()

	s.notify(changes)
}

func (s *Store) notify(changes []Change) {
	if len(changes) == 0 {
		return
	}

	s.subMu.Lock()
	subs := make([]func(Change), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.subMu.Unlock()

	for _, change := range changes {
		for _, fn := range subs {
			fn(change)
		}
	}
}

func (s *Store) read(fn func(st *state)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(&s.state)
}

// UserID returns the backend user ID, empty if not authenticated.
func (s *Store) UserID() string {
	var id string
	s.read(func(st *state) { id = st.userID })
	return id
}

// TelegramID returns the Telegram user ID the session belongs to.
func (s *Store) TelegramID() int64 {
	var id int64
	s.read(func(st *state) { id = st.telegramID })
	return id
}

// IsAuthenticated reports whether a backend user ID is known.
func (s *Store) IsAuthenticated() bool {
	return s.UserID() != ""
}

// Settings returns a copy of the plain study settings.
func (s *Store) Settings() Settings {
	var settings Settings
	s.read(func(st *state) { settings = cloneSettings(st.settings) })
	return settings
}

// ExamDate returns the exam date, preferring the profile snapshot over the
// plain session field.
func (s *Store) ExamDate() *string {
	var date *string
	s.read(func(st *state) {
		if st.user != nil && st.user.ExamDate != nil {
			date = clonePtr(st.user.ExamDate)
			return
		}
		date = clonePtr(st.settings.ExamDate)
	})
	return date
}

// DailyGoal returns the manual daily goal, preferring the profile snapshot
// over the plain session field.
func (s *Store) DailyGoal() *int {
	var goal *int
	s.read(func(st *state) {
		if st.user != nil && st.user.DailyGoal != nil {
			goal = clonePtr(st.user.DailyGoal)
			return
		}
		goal = clonePtr(st.settings.ManualDailyGoal)
	})
	return goal
}

// RemainingKey returns the remaining-count key for the current identity and settings.
func (s *Store) RemainingKey() RemainingKey {
	var key RemainingKey
	s.read(func(st *state) { key = st.remainingKey() })
	return key
}

// TopicsKey returns the topics key for the current settings.
func (s *Store) TopicsKey() TopicsKey {
	var key TopicsKey
	s.read(func(st *state) { key = st.topicsKey() })
	return key
}

func (st *state) remainingKey() RemainingKey {
	return RemainingKey{
		UserID:   st.userID,
		Country:  st.settings.ExamCountry,
		Language: st.settings.ExamLanguage,
	}
}

func (st *state) topicsKey() TopicsKey {
	return TopicsKey{
		Country:  st.settings.ExamCountry,
		Language: st.settings.ExamLanguage,
	}
}

func (s *Store) today() string {
	return entities.FormatDate(s.now())
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneSettings(in Settings) Settings {
	out := in
	out.ExamDate = clonePtr(in.ExamDate)
	out.ManualDailyGoal = clonePtr(in.ManualDailyGoal)
	return out
}

func cloneUser(u *entities.User) *entities.User {
	if u == nil {
		return nil
	}
	out := *u
	out.ExamDate = clonePtr(u.ExamDate)
	out.DailyGoal = clonePtr(u.DailyGoal)
	return &out
}

func cloneExamSettings(es *entities.ExamSettings) *entities.ExamSettings {
	if es == nil {
		return nil
	}
	return &entities.ExamSettings{
		ExamDate:  clonePtr(es.ExamDate),
		DailyGoal: clonePtr(es.DailyGoal),
	}
}
