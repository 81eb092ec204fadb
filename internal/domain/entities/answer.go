package entities

import "time"

// Answer is a locally buffered answer to a question.
type Answer struct {
	QuestionID    string
	SelectedIndex int
	IsCorrect     bool
	Timestamp     time.Time
}

// AnswerSubmission is the wire form of an answer in a batch submission.
type AnswerSubmission struct {
	QuestionID string    `json:"question_id"`
	IsCorrect  bool      `json:"is_correct"`
	Timestamp  time.Time `json:"timestamp"`
}

// Submission converts a buffered answer into its wire form.
func (a Answer) Submission() AnswerSubmission {
	return AnswerSubmission{
		QuestionID: a.QuestionID,
		IsCorrect:  a.IsCorrect,
		Timestamp:  a.Timestamp,
	}
}
