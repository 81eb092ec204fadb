package session

// Change tells subscribers which part of the store was mutated.
type Change int

const (
	ChangeIdentity Change = iota + 1
	ChangeSettings
	ChangeUser
	ChangeExamSettings
	ChangeRemainingCount
	ChangeTopics
	ChangeAnswers
	ChangeDailyProgress
)

var changeNames = map[Change]string{
	ChangeIdentity:       "identity",
	ChangeSettings:       "settings",
	ChangeUser:           "user",
	ChangeExamSettings:   "exam_settings",
	ChangeRemainingCount: "remaining_count",
	ChangeTopics:         "topics",
	ChangeAnswers:        "answers",
	ChangeDailyProgress:  "daily_progress",
}

func (c Change) String() string {
	if name, ok := changeNames[c]; ok {
		return name
	}
	return "unknown"
}

// Persisted reports whether the change touches state that survives a restart.
func (c Change) Persisted() bool {
	switch c {
	case ChangeIdentity, ChangeSettings, ChangeUser, ChangeTopics:
		return true
	default:
		return false
	}
}
