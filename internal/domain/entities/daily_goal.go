package entities

import (
	"math"
	"time"
)

// learningShare is the part of the time left before the exam that is used for
// new material. The rest is kept for review.
const learningShare = 0.8

// DailyGoal is the recommended study quota derived from the exam date.
type DailyGoal struct {
	DailyGoal     int // questions per day
	Remaining     int // questions not yet answered correctly
	DaysUntilExam int // whole days left, never negative
	LearningDays  int // days used for new material, at least 1
}

// CalculateDailyGoal computes the recommended number of questions per day.
//
// It returns nil when no exam date is set. Otherwise:
//  1. daysUntilExam = max(0, ceil((examDate - today) / 24h)).
//  2. remaining = max(0, total - correct); zero remaining yields a zero goal.
//  3. learningDays = max(1, floor(daysUntilExam * 0.8)).
//  4. dailyGoal = max(1, ceil(remaining / learningDays)).
//
// today is the only notion of "now" the function uses.
func CalculateDailyGoal(examDate *time.Time, total, correct int, today time.Time) *DailyGoal {
	if examDate == nil {
		return nil
	}

	// 1. Days left until the exam, clamped at zero for past dates.
	daysUntilExam := int(math.Ceil(examDate.Sub(today).Hours() / 24))
	daysUntilExam = max(0, daysUntilExam)

	// 2. Nothing left to learn means nothing to schedule.
	remaining := max(0, total-correct)
	learningDays := max(1, int(math.Floor(float64(daysUntilExam)*learningShare)))
	if remaining == 0 {
		return &DailyGoal{
			DailyGoal:     0,
			Remaining:     0,
			DaysUntilExam: daysUntilExam,
			LearningDays:  learningDays,
		}
	}

	// 3. Spread the remaining questions over the learning days.
	dailyGoal := (remaining + learningDays - 1) / learningDays

	return &DailyGoal{
		DailyGoal:     max(1, dailyGoal),
		Remaining:     remaining,
		DaysUntilExam: daysUntilExam,
		LearningDays:  learningDays,
	}
}

// EffectiveDailyGoal returns the goal the user should follow: a positive
// manual override wins over the computed recommendation.
func EffectiveDailyGoal(manual *int, computed *DailyGoal) int {
	if manual != nil && *manual > 0 {
		return *manual
	}
	if computed == nil {
		return 0
	}
	return computed.DailyGoal
}
