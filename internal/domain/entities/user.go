package entities

import "time"

// User is the profile record kept by the quiz backend.
type User struct {
	ID               string    `json:"id"`          // backend user ID
	TelegramID       int64     `json:"telegram_id"` // Telegram user ID
	FirstName        string    `json:"first_name"`
	LastName         string    `json:"last_name,omitempty"`
	Username         string    `json:"username,omitempty"`
	ExamCountry      string    `json:"exam_country,omitempty"`
	ExamLanguage     string    `json:"exam_language,omitempty"`
	UILanguage       string    `json:"ui_language,omitempty"`
	ExamDate         *string   `json:"exam_date,omitempty"`  // nullable, "YYYY-MM-DD"
	DailyGoal        *int      `json:"daily_goal,omitempty"` // nullable manual override
	RemindersEnabled bool      `json:"reminders_enabled"`
	ReminderTime     string    `json:"reminder_time,omitempty"` // "HH:MM" in user's local time
	CreatedAt        time.Time `json:"created_at,omitzero"`
}

// DisplayName returns the name shown to the user.
func (u *User) DisplayName() string {
	if u.FirstName != "" {
		return u.FirstName
	}
	if u.Username != "" {
		return "@" + u.Username
	}
	return ""
}

// TelegramIdentity is what the Telegram host environment tells us about the user.
type TelegramIdentity struct {
	ID           int64
	FirstName    string
	LastName     string
	Username     string
	LanguageCode string
}

// UserCreate is the payload for creating (or upserting) a user on the backend.
type UserCreate struct {
	TelegramID   int64  `json:"telegram_id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name,omitempty"`
	Username     string `json:"username,omitempty"`
	ExamCountry  string `json:"exam_country,omitempty"`
	ExamLanguage string `json:"exam_language,omitempty"`
	UILanguage   string `json:"ui_language,omitempty"`
}

// UserPatch is a partial user update. Nil fields are left untouched by the backend.
type UserPatch struct {
	FirstName        *string `json:"first_name,omitempty"`
	LastName         *string `json:"last_name,omitempty"`
	Username         *string `json:"username,omitempty"`
	ExamCountry      *string `json:"exam_country,omitempty"`
	ExamLanguage     *string `json:"exam_language,omitempty"`
	UILanguage       *string `json:"ui_language,omitempty"`
	ExamDate         *string `json:"exam_date,omitempty"`
	DailyGoal        *int    `json:"daily_goal,omitempty"`
	RemindersEnabled *bool   `json:"reminders_enabled,omitempty"`
	ReminderTime     *string `json:"reminder_time,omitempty"`
}

// TouchesExamSettings reports whether the patch changes any field the
// exam-settings endpoint depends on.
func (p UserPatch) TouchesExamSettings() bool {
	return p.ExamCountry != nil ||
		p.ExamLanguage != nil ||
		p.ExamDate != nil ||
		p.DailyGoal != nil
}
