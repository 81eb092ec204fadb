package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aliskhannn/exam-prep-bot/internal/api"
	"github.com/aliskhannn/exam-prep-bot/internal/domain/entities"
)

var errBackendDown = errors.New("backend down")

// fakeAPI is an in-memory backend that counts calls per endpoint.
type fakeAPI struct {
	mu    sync.Mutex
	calls map[string]int

	users        map[int64]*entities.User
	examSettings entities.ExamSettings
	remaining    map[string]int
	topics       map[string][]string
	mastered     int
	submitted    [][]entities.AnswerSubmission

	failSubmit     error
	failRemaining  error
	failTopics     error
	failUserLookup error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		calls:     make(map[string]int),
		users:     make(map[int64]*entities.User),
		remaining: map[string]int{"de/de": 300, "at/de": 200, "de/en": 250},
		topics: map[string][]string{
			"de/de": {"Geschichte", "Politik"},
			"at/de": {"Verfassung"},
			"de/en": {"History", "Politics"},
		},
	}
}

func (f *fakeAPI) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeAPI) hit(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
}

func (f *fakeAPI) GetUserByTelegramID(_ context.Context, telegramID int64) (*entities.User, error) {
	f.hit("GetUserByTelegramID")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUserLookup != nil {
		return nil, f.failUserLookup
	}
	u, ok := f.users[telegramID]
	if !ok {
		return nil, fmt.Errorf("GET /users/telegram/%d: %w", telegramID, api.ErrNotFound)
	}
	c := *u
	return &c, nil
}

func (f *fakeAPI) CreateUser(_ context.Context, payload entities.UserCreate) (*entities.User, error) {
	f.hit("CreateUser")
	f.mu.Lock()
	defer f.mu.Unlock()
	u := &entities.User{
		ID:           fmt.Sprintf("u-%d", payload.TelegramID),
		TelegramID:   payload.TelegramID,
		FirstName:    payload.FirstName,
		ExamCountry:  payload.ExamCountry,
		ExamLanguage: payload.ExamLanguage,
		UILanguage:   payload.UILanguage,
	}
	f.users[payload.TelegramID] = u
	c := *u
	return &c, nil
}

func (f *fakeAPI) PatchUser(_ context.Context, userID string, patch entities.UserPatch) (*entities.User, error) {
	f.hit("PatchUser")
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ID != userID {
			continue
		}
		if patch.ExamCountry != nil {
			u.ExamCountry = *patch.ExamCountry
		}
		if patch.ExamLanguage != nil {
			u.ExamLanguage = *patch.ExamLanguage
		}
		if patch.FirstName != nil {
			u.FirstName = *patch.FirstName
		}
		if patch.DailyGoal != nil {
			u.DailyGoal = patch.DailyGoal
		}
		c := *u
		return &c, nil
	}
	return nil, api.ErrNotFound
}

func (f *fakeAPI) SubmitAnswers(_ context.Context, _ string, answers []entities.AnswerSubmission) error {
	f.hit("SubmitAnswers")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSubmit != nil {
		return f.failSubmit
	}
	f.submitted = append(f.submitted, answers)
	for _, a := range answers {
		if a.IsCorrect {
			f.mastered++
		}
	}
	return nil
}

func (f *fakeAPI) GetDailyProgress(_ context.Context, _ string, date string) (*entities.DailyProgress, error) {
	f.hit("GetDailyProgress")
	f.mu.Lock()
	defer f.mu.Unlock()
	return &entities.DailyProgress{QuestionsMasteredToday: f.mastered, Date: date}, nil
}

func (f *fakeAPI) GetExamSettings(_ context.Context, _ string) (*entities.ExamSettings, error) {
	f.hit("GetExamSettings")
	f.mu.Lock()
	defer f.mu.Unlock()
	es := f.examSettings
	return &es, nil
}

func (f *fakeAPI) UpdateExamSettings(_ context.Context, userID string, update entities.ExamSettingsUpdate) (*entities.ExamSettings, error) {
	f.hit("UpdateExamSettings")
	f.mu.Lock()
	defer f.mu.Unlock()
	if update.ExamDate != nil {
		f.examSettings.ExamDate = update.ExamDate
	}
	if update.DailyGoal != nil {
		f.examSettings.DailyGoal = update.DailyGoal
	}
	for _, u := range f.users {
		if u.ID == userID {
			u.ExamDate = f.examSettings.ExamDate
			u.DailyGoal = f.examSettings.DailyGoal
		}
	}
	es := f.examSettings
	return &es, nil
}

func (f *fakeAPI) GetRemainingCount(_ context.Context, _ string, country, language string) (int, error) {
	f.hit("GetRemainingCount")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failRemaining != nil {
		return 0, f.failRemaining
	}
	return f.remaining[country+"/"+language], nil
}

func (f *fakeAPI) GetTopics(_ context.Context, country, language string) ([]string, error) {
	f.hit("GetTopics")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failTopics != nil {
		return nil, f.failTopics
	}
	return f.topics[country+"/"+language], nil
}

var fixedNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T, backend *fakeAPI) *Store {
	t.Helper()
	return New(backend,
		WithClock(func() time.Time { return fixedNow }),
		WithSettings(Settings{ExamCountry: "de", ExamLanguage: "de", UILanguage: "ru"}),
	)
}

func authenticatedStore(t *testing.T, backend *fakeAPI) *Store {
	t.Helper()
	s := newTestStore(t, backend)
	_, err := s.Authenticate(context.Background(), entities.TelegramIdentity{ID: 42, FirstName: "Anna"})
	require.NoError(t, err)
	return s
}

func TestAuthenticate_CreatesUserOnFirstRun(t *testing.T) {
	backend := newFakeAPI()
	s := newTestStore(t, backend)

	user, err := s.Authenticate(context.Background(), entities.TelegramIdentity{ID: 42, FirstName: "Anna", LanguageCode: "en"})
	require.NoError(t, err)

	assert.Equal(t, "u-42", user.ID)
	assert.Equal(t, "u-42", s.UserID())
	assert.Equal(t, int64(42), s.TelegramID())
	assert.Equal(t, "de", user.ExamCountry)
	assert.Equal(t, 1, backend.count("CreateUser"))

	cached, ok := s.User()
	require.True(t, ok)
	assert.Equal(t, "Anna", cached.FirstName)
}

func TestAuthenticate_ExistingUserMirrorsSettings(t *testing.T) {
	backend := newFakeAPI()
	examDate := "2026-12-01"
	backend.users[42] = &entities.User{ID: "u-42", TelegramID: 42, ExamCountry: "at", ExamLanguage: "de", ExamDate: &examDate}
	s := newTestStore(t, backend)
	s.SetTopics(TopicsKey{Country: "de", Language: "de"}, []string{"old"})

	_, err := s.Authenticate(context.Background(), entities.TelegramIdentity{ID: 42})
	require.NoError(t, err)

	settings := s.Settings()
	assert.Equal(t, "at", settings.ExamCountry)
	require.NotNil(t, settings.ExamDate)
	assert.Equal(t, examDate, *settings.ExamDate)
	assert.Zero(t, backend.count("CreateUser"))

	_, _, ok := s.Topics()
	assert.False(t, ok, "topics of the previous bank must be dropped")
}

func TestAuthenticate_LookupFailurePropagates(t *testing.T) {
	backend := newFakeAPI()
	backend.failUserLookup = errBackendDown
	s := newTestStore(t, backend)

	_, err := s.Authenticate(context.Background(), entities.TelegramIdentity{ID: 42})
	assert.ErrorIs(t, err, errBackendDown)
	assert.False(t, s.IsAuthenticated())
	assert.Zero(t, backend.count("CreateUser"))
}

func TestLoaders_RequireIdentity(t *testing.T) {
	s := newTestStore(t, newFakeAPI())
	ctx := context.Background()

	_, err := s.LoadUser(ctx)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	_, err = s.LoadExamSettings(ctx)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	_, err = s.LoadRemainingCount(ctx, s.RemainingKey())
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	_, err = s.LoadDailyProgress(ctx, "2026-10-19")
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestLoadUser_CallsBackendOnce(t *testing.T) {
	backend := newFakeAPI()
	s := authenticatedStore(t, backend)
	ctx := context.Background()

	s.ClearUser()
	lookups := backend.count("GetUserByTelegramID")

	first, err := s.LoadUser(ctx)
	require.NoError(t, err)
	second, err := s.LoadUser(ctx)
	require.NoError(t, err)

	assert.Equal(t, "u-42", first.ID)
	assert.Equal(t, first, second)
	assert.Equal(t, lookups+1, backend.count("GetUserByTelegramID"))
}

func TestLoadExamSettings_CallsBackendOnce(t *testing.T) {
	backend := newFakeAPI()
	goal := 15
	backend.examSettings = entities.ExamSettings{DailyGoal: &goal}
	s := authenticatedStore(t, backend)
	ctx := context.Background()

	first, err := s.LoadExamSettings(ctx)
	require.NoError(t, err)
	second, err := s.LoadExamSettings(ctx)
	require.NoError(t, err)

	require.NotNil(t, first.DailyGoal)
	assert.Equal(t, 15, *first.DailyGoal)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, backend.count("GetExamSettings"))
}

func TestLoadRemainingCount_CallsBackendOnce(t *testing.T) {
	backend := newFakeAPI()
	s := authenticatedStore(t, backend)
	ctx := context.Background()

	first, err := s.LoadRemainingCount(ctx, s.RemainingKey())
	require.NoError(t, err)
	second, err := s.LoadRemainingCount(ctx, s.RemainingKey())
	require.NoError(t, err)

	assert.Equal(t, 300, first)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, backend.count("GetRemainingCount"))
}

func TestLoadRemainingCount_KeyMismatchRefetches(t *testing.T) {
	backend := newFakeAPI()
	s := authenticatedStore(t, backend)
	ctx := context.Background()

	_, err := s.LoadRemainingCount(ctx, s.RemainingKey())
	require.NoError(t, err)

	key := s.RemainingKey()
	key.Country = "at"
	count, err := s.LoadRemainingCount(ctx, key)
	require.NoError(t, err)

	assert.Equal(t, 200, count)
	assert.Equal(t, 2, backend.count("GetRemainingCount"))

	_, cachedKey, ok := s.RemainingCount()
	require.True(t, ok)
	assert.Equal(t, key, cachedKey)
}

func TestLoadRemainingCount_FailureLeavesCache(t *testing.T) {
	backend := newFakeAPI()
	s := authenticatedStore(t, backend)
	ctx := context.Background()

	_, err := s.LoadRemainingCount(ctx, s.RemainingKey())
	require.NoError(t, err)

	backend.failRemaining = errBackendDown
	key := s.RemainingKey()
	key.Language = "en"
	_, err = s.LoadRemainingCount(ctx, key)
	assert.ErrorIs(t, err, errBackendDown)

	count, cachedKey, ok := s.RemainingCount()
	require.True(t, ok)
	assert.Equal(t, 300, count)
	assert.Equal(t, s.RemainingKey(), cachedKey)
}

func TestLoadTopics_KeyDiscipline(t *testing.T) {
	backend := newFakeAPI()
	s := newTestStore(t, backend)
	ctx := context.Background()

	topics, err := s.LoadTopics(ctx, s.TopicsKey())
	require.NoError(t, err)
	assert.Equal(t, []string{"Geschichte", "Politik"}, topics)

	_, err = s.LoadTopics(ctx, s.TopicsKey())
	require.NoError(t, err)
	assert.Equal(t, 1, backend.count("GetTopics"))

	topics, err = s.LoadTopics(ctx, TopicsKey{Country: "de", Language: "en"})
	require.NoError(t, err)
	assert.Equal(t, []string{"History", "Politics"}, topics)
	assert.Equal(t, 2, backend.count("GetTopics"))
}

func TestLoadTopics_CallsBackendOnce(t *testing.T) {
	backend := newFakeAPI()
	s := newTestStore(t, backend)
	ctx := context.Background()

	first, err := s.LoadTopics(ctx, s.TopicsKey())
	require.NoError(t, err)
	second, err := s.LoadTopics(ctx, s.TopicsKey())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, backend.count("GetTopics"))
}

func TestLoadTopics_FailureLeavesCache(t *testing.T) {
	backend := newFakeAPI()
	s := newTestStore(t, backend)
	ctx := context.Background()

	_, err := s.LoadTopics(ctx, s.TopicsKey())
	require.NoError(t, err)

	backend.failTopics = errBackendDown
	_, err = s.LoadTopics(ctx, TopicsKey{Country: "at", Language: "de"})
	assert.ErrorIs(t, err, errBackendDown)

	topics, cachedKey, ok := s.Topics()
	require.True(t, ok)
	assert.Equal(t, []string{"Geschichte", "Politik"}, topics)
	assert.Equal(t, s.TopicsKey(), cachedKey)
}

func TestKeysDoNotCollideOnDelimiters(t *testing.T) {
	a := TopicsKey{Country: "de", Language: "en"}
	b := TopicsKey{Country: "d", Language: "een"}
	assert.NotEqual(t, a, b)
}

func TestSetExamCountry_SameValueKeepsCaches(t *testing.T) {
	backend := newFakeAPI()
	s := authenticatedStore(t, backend)
	ctx := context.Background()

	_, err := s.LoadRemainingCount(ctx, s.RemainingKey())
	require.NoError(t, err)
	_, err = s.LoadTopics(ctx, s.TopicsKey())
	require.NoError(t, err)

	assert.False(t, s.SetExamCountry("de"))

	_, err = s.LoadRemainingCount(ctx, s.RemainingKey())
	require.NoError(t, err)
	_, err = s.LoadTopics(ctx, s.TopicsKey())
	require.NoError(t, err)

	assert.Equal(t, 1, backend.count("GetRemainingCount"))
	assert.Equal(t, 1, backend.count("GetTopics"))
}

func TestSetExamCountry_ChangeDropsKeyedCaches(t *testing.T) {
	backend := newFakeAPI()
	s := authenticatedStore(t, backend)
	ctx := context.Background()

	_, err := s.LoadRemainingCount(ctx, s.RemainingKey())
	require.NoError(t, err)
	_, err = s.LoadTopics(ctx, s.TopicsKey())
	require.NoError(t, err)

	assert.True(t, s.SetExamCountry("at"))

	_, _, ok := s.RemainingCount()
	assert.False(t, ok)
	_, _, ok = s.Topics()
	assert.False(t, ok)

	count, err := s.LoadRemainingCount(ctx, s.RemainingKey())
	require.NoError(t, err)
	assert.Equal(t, 200, count)
	assert.Equal(t, 2, backend.count("GetRemainingCount"))
}

func TestSetExamLanguage_ChangeDropsKeyedCaches(t *testing.T) {
	backend := newFakeAPI()
	s := authenticatedStore(t, backend)

	s.SetTopics(s.TopicsKey(), []string{"x"})
	s.SetRemainingCount(s.RemainingKey(), 1)

	assert.True(t, s.SetExamLanguage("en"))
	assert.Equal(t, "en", s.Settings().ExamLanguage)

	_, _, ok := s.Topics()
	assert.False(t, ok)
	_, _, ok = s.RemainingCount()
	assert.False(t, ok)
}

func TestUpdateUser_ExamFieldDropsExamSettings(t *testing.T) {
	backend := newFakeAPI()
	s := authenticatedStore(t, backend)
	ctx := context.Background()

	_, err := s.LoadExamSettings(ctx)
	require.NoError(t, err)

	name := "Anya"
	_, err = s.UpdateUser(ctx, entities.UserPatch{FirstName: &name})
	require.NoError(t, err)
	_, ok := s.ExamSettings()
	assert.True(t, ok, "a name change keeps exam settings")

	country := "at"
	user, err := s.UpdateUser(ctx, entities.UserPatch{ExamCountry: &country})
	require.NoError(t, err)
	assert.Equal(t, "at", user.ExamCountry)

	_, ok = s.ExamSettings()
	assert.False(t, ok)

	cached, ok := s.User()
	require.True(t, ok)
	assert.Equal(t, "at", cached.ExamCountry)
}

func TestUpdateExamSettings_WriteThenReconcile(t *testing.T) {
	backend := newFakeAPI()
	s := authenticatedStore(t, backend)
	ctx := context.Background()

	oldDate := "2026-11-01"
	s.SetExamSettings(&entities.ExamSettings{ExamDate: &oldDate})
	lookupsBefore := backend.count("GetUserByTelegramID")

	goal := 20
	settings, err := s.UpdateExamSettings(ctx, entities.ExamSettingsUpdate{DailyGoal: &goal})
	require.NoError(t, err)
	require.NotNil(t, settings.DailyGoal)
	assert.Equal(t, 20, *settings.DailyGoal)

	cachedSettings, ok := s.ExamSettings()
	require.True(t, ok)
	assert.Nil(t, cachedSettings.ExamDate, "previous snapshot must be replaced")
	require.NotNil(t, cachedSettings.DailyGoal)

	require.NotNil(t, s.Settings().ManualDailyGoal)
	assert.Equal(t, 20, *s.Settings().ManualDailyGoal)
	assert.Nil(t, s.Settings().ExamDate)

	assert.Equal(t, lookupsBefore+1, backend.count("GetUserByTelegramID"))
	user, ok := s.User()
	require.True(t, ok)
	require.NotNil(t, user.DailyGoal)
	assert.Equal(t, 20, *user.DailyGoal)
	assert.Equal(t, 20, *s.DailyGoal())
}

func TestUpdateExamSettings_ReloadFailureDropsUser(t *testing.T) {
	backend := newFakeAPI()
	s := authenticatedStore(t, backend)

	backend.failUserLookup = errBackendDown
	date := "2026-12-24"
	_, err := s.UpdateExamSettings(context.Background(), entities.ExamSettingsUpdate{ExamDate: &date})
	assert.ErrorIs(t, err, errBackendDown)

	_, ok := s.User()
	assert.False(t, ok)
	_, ok = s.ExamSettings()
	assert.True(t, ok)
	assert.Equal(t, date, *s.ExamDate())
}

func TestAddAnswer_FirstWins(t *testing.T) {
	s := newTestStore(t, newFakeAPI())

	assert.True(t, s.AddAnswer(entities.Answer{QuestionID: "q1", SelectedIndex: 2, IsCorrect: true}))
	assert.False(t, s.AddAnswer(entities.Answer{QuestionID: "q1", SelectedIndex: 0, IsCorrect: false}))
	assert.True(t, s.AddAnswer(entities.Answer{QuestionID: "q2", SelectedIndex: 1}))

	answers := s.Answers()
	require.Len(t, answers, 2)
	assert.Equal(t, entities.Answer{QuestionID: "q1", SelectedIndex: 2, IsCorrect: true, Timestamp: fixedNow}, answers[0])
	assert.Equal(t, "q2", answers[1].QuestionID)

	s.StartRepetition()
	assert.Zero(t, s.PendingAnswers())
}

func TestSubmitAnswers_EmptyIsNoop(t *testing.T) {
	backend := newFakeAPI()
	s := authenticatedStore(t, backend)

	batch, err := s.SubmitAnswers(context.Background())
	require.NoError(t, err)
	assert.Empty(t, batch)
	assert.Zero(t, backend.count("SubmitAnswers"))
}

func TestSubmitAnswers_Success(t *testing.T) {
	backend := newFakeAPI()
	s := authenticatedStore(t, backend)
	ctx := context.Background()

	_, err := s.LoadRemainingCount(ctx, s.RemainingKey())
	require.NoError(t, err)

	s.AddAnswer(entities.Answer{QuestionID: "q1", IsCorrect: true})
	s.AddAnswer(entities.Answer{QuestionID: "q2", IsCorrect: false})

	batch, err := s.SubmitAnswers(ctx)
	require.NoError(t, err)
	assert.Len(t, batch, 2)

	require.Len(t, backend.submitted, 1)
	assert.Equal(t, []entities.AnswerSubmission{
		{QuestionID: "q1", IsCorrect: true, Timestamp: fixedNow},
		{QuestionID: "q2", IsCorrect: false, Timestamp: fixedNow},
	}, backend.submitted[0])

	assert.Zero(t, s.PendingAnswers())
	_, _, ok := s.RemainingCount()
	assert.False(t, ok)

	progress, ok := s.DailyProgress()
	require.True(t, ok)
	assert.Equal(t, "2026-10-19", progress.Date)
	assert.Equal(t, 1, progress.QuestionsMasteredToday)
}

func TestSubmitAnswers_FailureKeepsBuffer(t *testing.T) {
	backend := newFakeAPI()
	s := authenticatedStore(t, backend)
	ctx := context.Background()

	s.AddAnswer(entities.Answer{QuestionID: "q1", IsCorrect: true})
	backend.failSubmit = errBackendDown

	_, err := s.SubmitAnswers(ctx)
	assert.ErrorIs(t, err, errBackendDown)
	assert.Equal(t, 1, s.PendingAnswers())

	backend.failSubmit = nil
	batch, err := s.SubmitAnswers(ctx)
	require.NoError(t, err)
	assert.Len(t, batch, 1)
	assert.Equal(t, 2, backend.count("SubmitAnswers"))
}

func TestFlushIdle_SkipsActiveRepetition(t *testing.T) {
	backend := newFakeAPI()
	s := authenticatedStore(t, backend)
	ctx := context.Background()

	s.StartRepetition()
	assert.True(t, s.InRepetition())
	s.AddAnswer(entities.Answer{QuestionID: "q1", IsCorrect: true})

	batch, err := s.FlushIdle(ctx)
	require.NoError(t, err)
	assert.Empty(t, batch)
	assert.Zero(t, backend.count("SubmitAnswers"))

	assert.False(t, s.AddAnswer(entities.Answer{QuestionID: "q1", IsCorrect: false}),
		"the session still remembers its first answer")

	s.EndRepetition()
	assert.False(t, s.InRepetition())

	batch, err = s.FlushIdle(ctx)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.True(t, batch[0].IsCorrect)
	assert.Zero(t, s.PendingAnswers())
}

func TestSubmitAnswers_IgnoresRepetitionFlag(t *testing.T) {
	backend := newFakeAPI()
	s := authenticatedStore(t, backend)

	s.StartRepetition()
	s.AddAnswer(entities.Answer{QuestionID: "q1"})

	batch, err := s.SubmitAnswers(context.Background())
	require.NoError(t, err)
	assert.Len(t, batch, 1)
}

func TestSubscribe_NotifiesAfterMutation(t *testing.T) {
	s := newTestStore(t, newFakeAPI())

	var (
		mu   sync.Mutex
		seen []Change
	)
	cancel := s.Subscribe(func(c Change) {
		// Reading inside the callback must not deadlock.
		_ = s.Settings()
		mu.Lock()
		seen = append(seen, c)
		mu.Unlock()
	})

	s.SetExamCountry("at")
	s.SetExamCountry("at")
	cancel()
	s.SetUILanguage("en")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []Change{ChangeSettings, ChangeRemainingCount, ChangeTopics}, seen)
}

func TestPersisted_AllowlistAndRestore(t *testing.T) {
	backend := newFakeAPI()
	s := authenticatedStore(t, backend)
	ctx := context.Background()

	_, err := s.LoadTopics(ctx, s.TopicsKey())
	require.NoError(t, err)
	_, err = s.LoadRemainingCount(ctx, s.RemainingKey())
	require.NoError(t, err)
	_, err = s.LoadExamSettings(ctx)
	require.NoError(t, err)
	s.AddAnswer(entities.Answer{QuestionID: "q1"})
	date := "2026-12-01"
	s.SetExamDate(&date)

	raw, err := json.Marshal(s.Persisted())
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.NotContains(t, decoded, "answers")
	assert.NotContains(t, decoded, "remaining_count")
	assert.NotContains(t, decoded, "exam_settings")

	var p PersistedState
	require.NoError(t, json.Unmarshal(raw, &p))

	restored := New(backend)
	restored.Restore(p)

	assert.Equal(t, "u-42", restored.UserID())
	assert.Equal(t, s.Settings(), restored.Settings())
	_, ok := restored.User()
	assert.True(t, ok)
	_, ok = restored.ExamSettings()
	assert.False(t, ok)
	_, _, ok = restored.RemainingCount()
	assert.False(t, ok)
	assert.Zero(t, restored.PendingAnswers())

	topics, err := restored.LoadTopics(ctx, restored.TopicsKey())
	require.NoError(t, err)
	assert.Equal(t, []string{"Geschichte", "Politik"}, topics)
	assert.Equal(t, 1, backend.count("GetTopics"), "restored topics are served from cache")
}

func TestGetters_ReturnCopies(t *testing.T) {
	s := newTestStore(t, newFakeAPI())
	goal := 5
	s.SetUser(&entities.User{ID: "u-1", DailyGoal: &goal})

	user, _ := s.User()
	*user.DailyGoal = 99
	user.FirstName = "changed"

	again, _ := s.User()
	assert.Equal(t, 5, *again.DailyGoal)
	assert.Empty(t, again.FirstName)
}
