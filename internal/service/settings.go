package service

import (
	"context"
	"fmt"
	"time"

	"github.com/aliskhannn/exam-prep-bot/internal/domain/entities"
	"github.com/aliskhannn/exam-prep-bot/internal/storage"
)

// SettingsService changes study settings locally and on the backend.
type SettingsService struct {
	now func() time.Time
}

// NewSettingsService creates a new SettingsService.
func NewSettingsService() *SettingsService {
	return &SettingsService{now: time.Now}
}

// ChangeExamCountry switches the question bank country. Choosing the current
// country does nothing.
func (s *SettingsService) ChangeExamCountry(ctx context.Context, client *storage.Client, country string) error {
	if !validateCode(country) {
		return ErrInvalidCountry
	}
	if !client.Session.SetExamCountry(country) {
		return nil
	}
	client.Stats.Invalidate()

	if _, err := client.Session.UpdateUser(ctx, entities.UserPatch{ExamCountry: &country}); err != nil {
		return fmt.Errorf("change exam country: %w", err)
	}
	return nil
}

// ChangeExamLanguage switches the question bank language. Choosing the
// current language does nothing.
func (s *SettingsService) ChangeExamLanguage(ctx context.Context, client *storage.Client, language string) error {
	if !validateCode(language) {
		return ErrInvalidLanguage
	}
	if !client.Session.SetExamLanguage(language) {
		return nil
	}
	client.Stats.Invalidate()

	if _, err := client.Session.UpdateUser(ctx, entities.UserPatch{ExamLanguage: &language}); err != nil {
		return fmt.Errorf("change exam language: %w", err)
	}
	return nil
}

// ChangeUILanguage switches the display language.
func (s *SettingsService) ChangeUILanguage(ctx context.Context, client *storage.Client, language string) error {
	if !validateCode(language) {
		return ErrInvalidLanguage
	}
	client.Session.SetUILanguage(language)

	if _, err := client.Session.UpdateUser(ctx, entities.UserPatch{UILanguage: &language}); err != nil {
		return fmt.Errorf("change ui language: %w", err)
	}
	return nil
}

// ChangeExamDate sets the exam date given as "YYYY-MM-DD".
func (s *SettingsService) ChangeExamDate(ctx context.Context, client *storage.Client, date string) error {
	examDate, err := parseExamDate(date, s.now())
	if err != nil {
		return err
	}

	formatted := entities.FormatDate(examDate)
	client.Session.SetExamDate(&formatted)

	if _, err := client.Session.UpdateExamSettings(ctx, entities.ExamSettingsUpdate{ExamDate: &formatted}); err != nil {
		return fmt.Errorf("change exam date: %w", err)
	}
	return nil
}

// ChangeDailyGoal sets a manual daily goal overriding the computed one.
func (s *SettingsService) ChangeDailyGoal(ctx context.Context, client *storage.Client, goal int) error {
	if err := validateDailyGoal(goal); err != nil {
		return err
	}
	client.Session.SetManualDailyGoal(&goal)

	if _, err := client.Session.UpdateExamSettings(ctx, entities.ExamSettingsUpdate{DailyGoal: &goal}); err != nil {
		return fmt.Errorf("change daily goal: %w", err)
	}
	return nil
}

// Topics returns the topics of the client's question bank.
func (s *SettingsService) Topics(ctx context.Context, client *storage.Client) ([]string, error) {
	return client.Session.LoadTopics(ctx, client.Session.TopicsKey())
}
