package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aliskhannn/exam-prep-bot/internal/api"
	"github.com/aliskhannn/exam-prep-bot/internal/domain/entities"
	"github.com/aliskhannn/exam-prep-bot/internal/session"
	"github.com/aliskhannn/exam-prep-bot/internal/stats"
	"github.com/aliskhannn/exam-prep-bot/internal/storage"
)

var errBackendDown = errors.New("backend down")

// fakeBackend implements every backend interface the services and stores use.
type fakeBackend struct {
	mu    sync.Mutex
	calls map[string]int

	user         entities.User
	userExists   bool
	examSettings entities.ExamSettings
	stats        entities.UserStats
	mastered     int
	weekly       []int
	questions    []entities.Question
	submitted    []entities.AnswerSubmission

	failSubmit  error
	failStats   error
	failPatch   error
	lastFilter  entities.QuestionFilter
	lastPatch   entities.UserPatch
	lastSetting entities.ExamSettingsUpdate
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		calls:  make(map[string]int),
		stats:  entities.UserStats{Answered: 20, Correct: 20, TotalQuestions: 100},
		weekly: []int{0, 5, 5, 5, 0, 5, 5},
		questions: []entities.Question{
			{ID: "q1", Text: "Wie viele Bundesländer?", Options: []string{"14", "15", "16", "17"}, CorrectIndex: 2},
			{ID: "q2", Text: "Hauptstadt?", Options: []string{"Bonn", "Berlin"}, CorrectIndex: 1},
		},
	}
}

func (f *fakeBackend) hit(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
}

func (f *fakeBackend) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeBackend) GetUserByTelegramID(_ context.Context, telegramID int64) (*entities.User, error) {
	f.hit("GetUserByTelegramID")
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.userExists || f.user.TelegramID != telegramID {
		return nil, api.ErrNotFound
	}
	u := f.user
	return &u, nil
}

func (f *fakeBackend) CreateUser(_ context.Context, payload entities.UserCreate) (*entities.User, error) {
	f.hit("CreateUser")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.user = entities.User{
		ID:           fmt.Sprintf("u-%d", payload.TelegramID),
		TelegramID:   payload.TelegramID,
		FirstName:    payload.FirstName,
		ExamCountry:  payload.ExamCountry,
		ExamLanguage: payload.ExamLanguage,
		UILanguage:   payload.UILanguage,
	}
	f.userExists = true
	u := f.user
	return &u, nil
}

func (f *fakeBackend) PatchUser(_ context.Context, _ string, patch entities.UserPatch) (*entities.User, error) {
	f.hit("PatchUser")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failPatch != nil {
		return nil, f.failPatch
	}
	f.lastPatch = patch
	if patch.ExamCountry != nil {
		f.user.ExamCountry = *patch.ExamCountry
	}
	if patch.ExamLanguage != nil {
		f.user.ExamLanguage = *patch.ExamLanguage
	}
	if patch.UILanguage != nil {
		f.user.UILanguage = *patch.UILanguage
	}
	u := f.user
	return &u, nil
}

func (f *fakeBackend) GetQuestions(_ context.Context, filter entities.QuestionFilter) ([]entities.Question, error) {
	f.hit("GetQuestions")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastFilter = filter
	return f.questions, nil
}

func (f *fakeBackend) SubmitAnswers(_ context.Context, _ string, answers []entities.AnswerSubmission) error {
	f.hit("SubmitAnswers")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSubmit != nil {
		return f.failSubmit
	}
	f.submitted = append(f.submitted, answers...)
	return nil
}

func (f *fakeBackend) GetUserStats(_ context.Context, _ string) (*entities.UserStats, error) {
	f.hit("GetUserStats")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failStats != nil {
		return nil, f.failStats
	}
	s := f.stats
	return &s, nil
}

func (f *fakeBackend) GetDailyProgress(_ context.Context, _ string, date string) (*entities.DailyProgress, error) {
	f.hit("GetDailyProgress")
	f.mu.Lock()
	defer f.mu.Unlock()
	return &entities.DailyProgress{QuestionsMasteredToday: f.mastered, Date: date}, nil
}

func (f *fakeBackend) GetWeeklyProgress(_ context.Context, _ string) ([]int, error) {
	f.hit("GetWeeklyProgress")
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.weekly...), nil
}

func (f *fakeBackend) GetExamSettings(_ context.Context, _ string) (*entities.ExamSettings, error) {
	f.hit("GetExamSettings")
	f.mu.Lock()
	defer f.mu.Unlock()
	es := f.examSettings
	return &es, nil
}

func (f *fakeBackend) UpdateExamSettings(_ context.Context, _ string, update entities.ExamSettingsUpdate) (*entities.ExamSettings, error) {
	f.hit("UpdateExamSettings")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastSetting = update
	if update.ExamDate != nil {
		f.examSettings.ExamDate = update.ExamDate
		f.user.ExamDate = update.ExamDate
	}
	if update.DailyGoal != nil {
		f.examSettings.DailyGoal = update.DailyGoal
		f.user.DailyGoal = update.DailyGoal
	}
	es := f.examSettings
	return &es, nil
}

func (f *fakeBackend) GetRemainingCount(_ context.Context, _ string, _, _ string) (int, error) {
	f.hit("GetRemainingCount")
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stats.TotalQuestions - f.stats.Correct, nil
}

func (f *fakeBackend) GetTopics(_ context.Context, _, _ string) ([]string, error) {
	f.hit("GetTopics")
	return []string{"Politik", "Geschichte"}, nil
}

var testNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func testClock() time.Time { return testNow }

// newTestClient builds an authenticated client bundle against backend.
func newTestClient(backend *fakeBackend) *storage.Client {
	client := &storage.Client{
		TelegramID: 42,
		Session: session.New(backend,
			session.WithClock(testClock),
			session.WithSettings(session.Settings{ExamCountry: "de", ExamLanguage: "de", UILanguage: "ru"}),
		),
		Stats: stats.New(backend, stats.WithClock(testClock)),
	}
	if _, err := client.Session.Authenticate(context.Background(), entities.TelegramIdentity{ID: 42, FirstName: "Anna"}); err != nil {
		panic(err)
	}
	return client
}
