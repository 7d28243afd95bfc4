package model

import "time"

// AttemptKind is the exam category. Each kind fixes its question count,
// per-question point value, and lifetime attempt limit.
type AttemptKind string

const (
	KindPractice AttemptKind = "practice"
	KindFinal    AttemptKind = "final"
)

// PassingScore is the minimum score (inclusive) to pass, for both kinds.
const PassingScore = 75.0

// AnswerWindowSeconds is how long a student has to answer a question once
// it has been shown. Late answers are recorded but never credited.
const AnswerWindowSeconds = 60

// Valid reports whether k is a known attempt kind.
func (k AttemptKind) Valid() bool {
	return k == KindPractice || k == KindFinal
}

// QuestionCount returns how many questions an attempt of this kind holds.
func (k AttemptKind) QuestionCount() int {
	if k == KindFinal {
		return 40
	}
	return 20
}

// PointValue returns the score value of one correct answer. The values are
// chosen so a fully correct attempt of either kind totals exactly 100.
func (k AttemptKind) PointValue() float64 {
	if k == KindFinal {
		return 2.5
	}
	return 5.0
}

// AttemptLimit returns how many attempts of this kind a student may create.
func (k AttemptKind) AttemptLimit() int {
	if k == KindFinal {
		return 3
	}
	return 6
}

// AttemptStatus is the explicit lifecycle phase of an attempt.
type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptClosed     AttemptStatus = "closed"
)

// Attempt represents one instance of a student taking an exam. Score and
// Passed stay at their zero values until the attempt is closed.
type Attempt struct {
	ID                   int64         `json:"id"`
	Matricula            int64         `json:"matricula"`
	Kind                 AttemptKind   `json:"kind"`
	Status               AttemptStatus `json:"status"`
	Score                float64       `json:"score"`
	Passed               bool          `json:"passed"`
	TotalDurationSeconds *int          `json:"total_duration_seconds,omitempty"`
	CreatedAt            time.Time     `json:"created_at"`
}

// AttemptSummary is the result of closing an attempt.
type AttemptSummary struct {
	TotalQuestions int     `json:"total_questions"`
	CorrectCount   int     `json:"correct_count"`
	Score          float64 `json:"score"`
	Passed         bool    `json:"passed"`
}

// ScoredResponse is the per-question data needed to grade an attempt.
type ScoredResponse struct {
	QuestionID     int64
	ChosenOptionID *int64
	ChosenCorrect  bool
	OnTime         bool
	ElapsedSeconds *int
}

// ResponseDetail is one reviewed question of a finished (or abandoned)
// attempt, in original presentation order.
type ResponseDetail struct {
	QuestionID     int64   `json:"question_id"`
	Prompt         string  `json:"prompt"`
	Topic          *string `json:"topic,omitempty"`
	ImagePath      *string `json:"image_path,omitempty"`
	CorrectOption  string  `json:"correct_option"`
	ChosenOption   *string `json:"chosen_option,omitempty"`
	IsCorrect      bool    `json:"is_correct"`
	OnTime         bool    `json:"on_time"`
	ElapsedSeconds *int    `json:"elapsed_seconds,omitempty"`
}

// AttemptDetail is the full review of an attempt: general data, per-question
// breakdown, and derived counters.
type AttemptDetail struct {
	Attempt    Attempt          `json:"attempt"`
	Correct    int              `json:"correct"`
	Incorrect  int              `json:"incorrect"`
	Unanswered int              `json:"unanswered"`
	Questions  []ResponseDetail `json:"questions"`
}

// StartAttemptRequest is the payload for starting a new exam attempt.
type StartAttemptRequest struct {
	Kind AttemptKind `json:"kind" binding:"required,oneof=practice final"`
}

// SubmitAnswerRequest is the payload for answering the currently shown
// question. OptionID is null when the student submitted without choosing.
type SubmitAnswerRequest struct {
	QuestionID int64  `json:"question_id" binding:"required,min=1"`
	OptionID   *int64 `json:"option_id" binding:"omitempty,min=1"`
}
