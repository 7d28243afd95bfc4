package model

import "time"

// ExamContext is the explicit state of a student's in-progress exam. Core
// operations take it as input and return an updated copy; persisting it
// between requests is the caller's concern. A nil context means the student
// has no exam in progress.
type ExamContext struct {
	AttemptID int64       `json:"attempt_id"`
	Kind      AttemptKind `json:"kind"`
	StartedAt time.Time   `json:"started_at"`
	// QuestionIndex is the 0-based index of the last delivered question.
	QuestionIndex int `json:"question_index"`
	// QuestionShownAt is when that question was delivered. It is the
	// reference point for the answer window and resets on every delivery.
	QuestionShownAt time.Time `json:"question_shown_at"`
}
