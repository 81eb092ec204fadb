package entities

// UserStats holds aggregate answer counters.
type UserStats struct {
	Answered       int `json:"answered"`
	Correct        int `json:"correct"`
	TotalQuestions int `json:"total_questions"`
}

// Accuracy returns the share of correct answers in percent.
func (s UserStats) Accuracy() float64 {
	if s.Answered == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Answered) * 100
}

// DailyProgress is the number of questions mastered on one calendar date.
type DailyProgress struct {
	QuestionsMasteredToday int    `json:"questions_mastered_today"`
	Date                   string `json:"date"` // "YYYY-MM-DD"
}
