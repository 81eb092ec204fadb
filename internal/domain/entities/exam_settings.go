package entities

// ExamSettings is the exam-settings record returned by the backend.
type ExamSettings struct {
	ExamDate  *string `json:"exam_date"`  // nullable, "YYYY-MM-DD"
	DailyGoal *int    `json:"daily_goal"` // nullable manual override
}

// ExamSettingsUpdate carries the fields to change. Nil fields are not sent.
type ExamSettingsUpdate struct {
	ExamDate  *string `json:"exam_date,omitempty"`
	DailyGoal *int    `json:"daily_goal,omitempty"`
}
