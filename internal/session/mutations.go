package session

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/aliskhannn/exam-prep-bot/internal/api"
	"github.com/aliskhannn/exam-prep-bot/internal/domain/entities"
)

// Authenticate resolves the backend user for a Telegram identity, creating it
// on first use, and makes it the session's identity.
func (s *Store) Authenticate(ctx context.Context, identity entities.TelegramIdentity) (*entities.User, error) {
	user, err := s.api.GetUserByTelegramID(ctx, identity.ID)
	if errors.Is(err, api.ErrNotFound) {
		settings := s.Settings()
		uiLanguage := settings.UILanguage
		if uiLanguage == "" {
			uiLanguage = identity.LanguageCode
		}

		user, err = s.api.CreateUser(ctx, entities.UserCreate{
			TelegramID:   identity.ID,
			FirstName:    identity.FirstName,
			LastName:     identity.LastName,
			Username:     identity.Username,
			ExamCountry:  settings.ExamCountry,
			ExamLanguage: settings.ExamLanguage,
			UILanguage:   uiLanguage,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("authenticate user %d: %w", identity.ID, err)
	}

	s.mutate(func(st *state) []Change {
		changes := []Change{ChangeIdentity, ChangeUser}

		// Snapshots of another identity are worthless now.
		if st.userID != "" && st.userID != user.ID {
			st.examSettings = nil
			st.remaining = nil
			st.dailyProgress = nil
			st.answers = nil
			changes = append(changes, ChangeExamSettings, ChangeRemainingCount, ChangeDailyProgress, ChangeAnswers)
		}

		st.userID = user.ID
		st.telegramID = identity.ID
		st.user = cloneUser(user)

		if mirrorProfile(st, user) {
			changes = append(changes, ChangeSettings, ChangeRemainingCount, ChangeTopics)
		}
		return changes
	})

	return cloneUser(user), nil
}

// mirrorProfile copies the profile's study settings into the plain session
// fields. It reports whether the question bank selection changed, in which
// case the keyed caches are dropped.
func mirrorProfile(st *state, user *entities.User) bool {
	bankChanged := false
	if user.ExamCountry != "" && user.ExamCountry != st.settings.ExamCountry {
		st.settings.ExamCountry = user.ExamCountry
		bankChanged = true
	}
	if user.ExamLanguage != "" && user.ExamLanguage != st.settings.ExamLanguage {
		st.settings.ExamLanguage = user.ExamLanguage
		bankChanged = true
	}
	if user.UILanguage != "" {
		st.settings.UILanguage = user.UILanguage
	}
	if user.ExamDate != nil {
		st.settings.ExamDate = clonePtr(user.ExamDate)
	}
	if user.DailyGoal != nil {
		st.settings.ManualDailyGoal = clonePtr(user.DailyGoal)
	}

	if bankChanged {
		st.remaining = nil
		st.topics = nil
	}
	return bankChanged
}

// UpdateUser patches the profile on the backend and caches the result.
// A patch touching exam settings also drops the exam-settings snapshot.
func (s *Store) UpdateUser(ctx context.Context, patch entities.UserPatch) (*entities.User, error) {
	userID := s.UserID()
	if userID == "" {
		return nil, ErrNotAuthenticated
	}

	user, err := s.api.PatchUser(ctx, userID, patch)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.mutate(func(st *state) []Change {
		st.user = cloneUser(user)
		if !patch.TouchesExamSettings() {
			return []Change{ChangeUser}
		}
		st.examSettings = nil
		return []Change{ChangeUser, ChangeExamSettings}
	})

	return cloneUser(user), nil
}

// UpdateExamSettings writes exam settings, mirrors them into the session
// fields, caches the response and then refetches the profile, which embeds the
// same fields.
func (s *Store) UpdateExamSettings(ctx context.Context, update entities.ExamSettingsUpdate) (*entities.ExamSettings, error) {
	userID := s.UserID()
	if userID == "" {
		return nil, ErrNotAuthenticated
	}

	settings, err := s.api.UpdateExamSettings(ctx, userID, update)
	if err != nil {
		return nil, fmt.Errorf("update exam settings: %w", err)
	}

	s.mutate(func(st *state) []Change {
		changes := []Change{ChangeExamSettings}
		if update.ExamDate != nil || update.DailyGoal != nil {
			changes = append(changes, ChangeSettings)
		}
		if update.ExamDate != nil {
			st.settings.ExamDate = clonePtr(update.ExamDate)
		}
		if update.DailyGoal != nil {
			st.settings.ManualDailyGoal = clonePtr(update.DailyGoal)
		}
		st.examSettings = cloneExamSettings(settings)
		return changes
	})

	if err := s.reloadUser(ctx); err != nil {
		return cloneExamSettings(settings), err
	}

	return cloneExamSettings(settings), nil
}

// reloadUser fetches a fresh profile. On failure the stale snapshot is dropped
// so the next read goes to the backend.
func (s *Store) reloadUser(ctx context.Context) error {
	telegramID := s.TelegramID()
	if telegramID == 0 {
		s.ClearUser()
		return ErrNotAuthenticated
	}

	user, err := s.api.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		s.ClearUser()
		return fmt.Errorf("reload user: %w", err)
	}

	s.SetUser(user)
	return nil
}

// SetExamCountry changes the question bank country. Setting the current value
// is a no-op; a new value drops the remaining-count and topics snapshots.
func (s *Store) SetExamCountry(country string) bool {
	return s.setBankField(country, func(st *state) *string { return &st.settings.ExamCountry })
}

// SetExamLanguage changes the question bank language with the same rules as
// SetExamCountry.
func (s *Store) SetExamLanguage(language string) bool {
	return s.setBankField(language, func(st *state) *string { return &st.settings.ExamLanguage })
}

func (s *Store) setBankField(value string, field func(st *state) *string) bool {
	changed := false
	s.mutate(func(st *state) []Change {
		f := field(st)
		if *f == value {
			return nil
		}
		*f = value
		st.remaining = nil
		st.topics = nil
		changed = true
		return []Change{ChangeSettings, ChangeRemainingCount, ChangeTopics}
	})
	return changed
}

// SetUILanguage changes the display language.
func (s *Store) SetUILanguage(language string) {
	s.mutate(func(st *state) []Change {
		st.settings.UILanguage = language
		return []Change{ChangeSettings}
	})
}

// SetExamDate changes the plain exam date field. Nil clears it.
func (s *Store) SetExamDate(date *string) {
	s.mutate(func(st *state) []Change {
		st.settings.ExamDate = clonePtr(date)
		return []Change{ChangeSettings}
	})
}

// SetManualDailyGoal changes the plain daily goal override. Nil clears it.
func (s *Store) SetManualDailyGoal(goal *int) {
	s.mutate(func(st *state) []Change {
		st.settings.ManualDailyGoal = clonePtr(goal)
		return []Change{ChangeSettings}
	})
}

// AddAnswer buffers an answer. Only the first answer per question is kept;
// it reports whether a was stored.
func (s *Store) AddAnswer(a entities.Answer) bool {
	if a.Timestamp.IsZero() {
		a.Timestamp = s.now()
	}

	added := false
	s.mutate(func(st *state) []Change {
		for _, existing := range st.answers {
			if existing.QuestionID == a.QuestionID {
				return nil
			}
		}
		st.answers = append(st.answers, a)
		added = true
		return []Change{ChangeAnswers}
	})
	return added
}

// Answers returns the buffered answers in insertion order.
func (s *Store) Answers() []entities.Answer {
	var answers []entities.Answer
	s.read(func(st *state) { answers = slices.Clone(st.answers) })
	return answers
}

// PendingAnswers returns the number of buffered answers.
func (s *Store) PendingAnswers() int {
	var n int
	s.read(func(st *state) { n = len(st.answers) })
	return n
}

// StartRepetition begins a new repetition session with an empty buffer. It
// waits for an in-flight submission so that the new session never loses
// answers to a flush of the previous one.
func (s *Store) StartRepetition() {
	s.submitMu.Lock()
	defer s.submitMu.Unlock()

	s.mutate(func(st *state) []Change {
		st.answers = nil
		st.inRepetition = true
		return []Change{ChangeAnswers}
	})
}

// EndRepetition marks the current repetition as finished. Its buffered
// answers become eligible for FlushIdle.
func (s *Store) EndRepetition() {
	s.mutate(func(st *state) []Change {
		st.inRepetition = false
		return nil
	})
}

// InRepetition reports whether a repetition is in progress.
func (s *Store) InRepetition() bool {
	var active bool
	s.read(func(st *state) { active = st.inRepetition })
	return active
}

// SubmitAnswers sends the whole buffer in one request and returns the
// submitted answers. An empty buffer is a no-op.
//
// On success the submitted answers leave the buffer, the remaining count is
// dropped and today's progress is refreshed. On failure the buffer is left
// intact so a later call resubmits it.
func (s *Store) SubmitAnswers(ctx context.Context) ([]entities.Answer, error) {
	return s.submit(ctx, false)
}

// FlushIdle behaves like SubmitAnswers but does nothing while a repetition
// is in progress.
func (s *Store) FlushIdle(ctx context.Context) ([]entities.Answer, error) {
	return s.submit(ctx, true)
}

func (s *Store) submit(ctx context.Context, idleOnly bool) ([]entities.Answer, error) {
	s.submitMu.Lock()
	defer s.submitMu.Unlock()

	var (
		userID string
		batch  []entities.Answer
	)
	s.read(func(st *state) {
		if idleOnly && st.inRepetition {
			return
		}
		userID = st.userID
		batch = slices.Clone(st.answers)
	})

	if len(batch) == 0 {
		return nil, nil
	}
	if userID == "" {
		return nil, ErrNotAuthenticated
	}

	submissions := make([]entities.AnswerSubmission, 0, len(batch))
	for _, a := range batch {
		submissions = append(submissions, a.Submission())
	}

	if err := s.api.SubmitAnswers(ctx, userID, submissions); err != nil {
		return nil, fmt.Errorf("submit answers: %w", err)
	}

	submitted := make(map[string]struct{}, len(batch))
	for _, a := range batch {
		submitted[a.QuestionID] = struct{}{}
	}

	s.mutate(func(st *state) []Change {
		// Answers buffered while the request was in flight stay for the next flush.
		st.answers = slices.DeleteFunc(st.answers, func(a entities.Answer) bool {
			_, ok := submitted[a.QuestionID]
			return ok
		})
		st.remaining = nil
		st.dailyProgress = nil
		return []Change{ChangeAnswers, ChangeRemainingCount, ChangeDailyProgress}
	})

	if _, err := s.LoadDailyProgress(ctx, s.today()); err != nil {
		s.logger.Warn("failed to refresh daily progress after submission",
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}

	return batch, nil
}
