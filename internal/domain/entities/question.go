package entities

// Question modes understood by the backend.
const (
	QuestionModeNew    = "new"    // never answered correctly
	QuestionModeReview = "review" // answered before, due again
	QuestionModeMixed  = "mixed"  // backend decides
)

// Question is a single multiple-choice question.
type Question struct {
	ID           string   `json:"id"`
	Text         string   `json:"text"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_index"`
	Topic        string   `json:"topic,omitempty"`
	Explanation  string   `json:"explanation,omitempty"`
}

// IsCorrect reports whether the option at index is the right one.
func (q Question) IsCorrect(index int) bool {
	return index == q.CorrectIndex
}

// CorrectAnswer returns the text of the right option, or an empty string
// if the question is malformed.
func (q Question) CorrectAnswer() string {
	if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
		return ""
	}
	return q.Options[q.CorrectIndex]
}

// QuestionFilter selects a batch of questions. Empty fields are omitted.
type QuestionFilter struct {
	UserID    string
	Country   string
	Language  string
	Mode      string
	BatchSize int
	Topic     string
}
