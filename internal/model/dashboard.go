package model

// TopicStat is one row of a topic error-rate ranking.
type TopicStat struct {
	Topic     string  `json:"topic"`
	Answered  int     `json:"answered"`
	Failed    int     `json:"failed"`
	ErrorRate float64 `json:"error_rate"`
}

// QuestionStat is one row of a question error-rate ranking.
type QuestionStat struct {
	QuestionID int64   `json:"question_id"`
	Prompt     string  `json:"prompt"`
	Topic      *string `json:"topic"`
	Answered   int     `json:"answered"`
	Failed     int     `json:"failed"`
	ErrorRate  float64 `json:"error_rate"`
}

// StudentDashboard aggregates one student's performance. PredictedFinalScore
// is nil until at least one practice attempt has been closed.
type StudentDashboard struct {
	WeakTopics          []TopicStat `json:"weak_topics"`
	AvgAnswerSeconds    float64     `json:"avg_answer_seconds"`
	BestPracticeScore   float64     `json:"best_practice_score"`
	BestFinalScore      float64     `json:"best_final_score"`
	PredictedFinalScore *float64    `json:"predicted_final_score"`
	PracticeAttempts    int         `json:"practice_attempts"`
	FinalAttempts       int         `json:"final_attempts"`
}

// AdminDashboard aggregates performance across the whole school.
type AdminDashboard struct {
	AvgScore         float64        `json:"avg_score"`
	MaxScore         float64        `json:"max_score"`
	MinScore         float64        `json:"min_score"`
	FinalsPassed     int            `json:"finals_passed"`
	FinalsFailed     int            `json:"finals_failed"`
	HardestTopics    []TopicStat    `json:"hardest_topics"`
	HardestQuestions []QuestionStat `json:"hardest_questions"`
}
