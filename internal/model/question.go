package model

// Question represents one multiple-choice question from the bank.
type Question struct {
	ID        int64   `json:"id"`
	Prompt    string  `json:"prompt"`
	ImageCode *string `json:"image_code,omitempty"`
	ImagePath *string `json:"image_path,omitempty"`
	Topic     *string `json:"topic,omitempty"`
}

// AnswerOption represents one selectable option of a question. Exactly one
// option per question carries IsCorrect; content authoring guarantees it.
type AnswerOption struct {
	ID         int64  `json:"id"`
	QuestionID int64  `json:"question_id"`
	Text       string `json:"text"`
	IsCorrect  bool   `json:"is_correct"`
}

// OptionView is an answer option as shown to a student during an exam:
// the correctness flag never leaves the server.
type OptionView struct {
	ID   int64  `json:"id"`
	Text string `json:"text"`
}

// QuestionView is one delivered exam question with its shuffled options
// and progress information.
type QuestionView struct {
	Index    int          `json:"index"`
	Total    int          `json:"total"`
	Question Question     `json:"question"`
	Options  []OptionView `json:"options"`
}

// CreateQuestionRequest is the admin payload for adding a question with
// its options to the bank.
type CreateQuestionRequest struct {
	Prompt    string                `json:"prompt" binding:"required,min=5"`
	ImageCode *string               `json:"image_code" binding:"omitempty,max=50"`
	Topic     *string               `json:"topic" binding:"omitempty,max=100"`
	Options   []CreateOptionRequest `json:"options" binding:"required,min=2,max=6,dive"`
}

// CreateOptionRequest is one option inside CreateQuestionRequest.
type CreateOptionRequest struct {
	Text      string `json:"text" binding:"required,min=1,max=500"`
	IsCorrect bool   `json:"is_correct"`
}
