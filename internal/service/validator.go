package service

import (
	"errors"
	"time"

	"github.com/aliskhannn/exam-prep-bot/internal/domain/entities"
)

const maxDailyGoal = 500

var (
	ErrInvalidCountry   = errors.New("invalid exam country")
	ErrInvalidLanguage  = errors.New("invalid language")
	ErrInvalidDailyGoal = errors.New("invalid daily goal")
	ErrInvalidExamDate  = errors.New("invalid exam date")
	ErrExamDateInPast   = errors.New("exam date is in the past")
)

// validateCode accepts two-letter lowercase codes such as "de" or "en".
func validateCode(code string) bool {
	if len(code) != 2 {
		return false
	}
	for _, r := range code {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}

func validateDailyGoal(goal int) error {
	if goal < 1 || goal > maxDailyGoal {
		return ErrInvalidDailyGoal
	}
	return nil
}

// parseExamDate parses "YYYY-MM-DD" and rejects dates before today.
func parseExamDate(s string, now time.Time) (time.Time, error) {
	date, err := entities.ParseDate(s, now.Location())
	if err != nil {
		return time.Time{}, ErrInvalidExamDate
	}
	if date.Before(startOfDay(now)) {
		return time.Time{}, ErrExamDateInPast
	}
	return date, nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
