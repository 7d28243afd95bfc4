package repository

import (
	"context"

	"github.com/grupovial/drivetest-backend/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DashboardRepository runs the aggregate queries behind the student and
// admin dashboards. Every method reads closed attempts only, so a partially
// scored attempt never leaks into the statistics.
type DashboardRepository struct {
	pool *pgxpool.Pool
}

// NewDashboardRepository creates a new DashboardRepository.
func NewDashboardRepository(pool *pgxpool.Pool) *DashboardRepository {
	return &DashboardRepository{pool: pool}
}

// WeakTopicsForStudent returns the topics where the student fails the most,
// by error rate. Topics with too few answered questions are skipped so one
// unlucky question does not dominate the list.
func (r *DashboardRepository) WeakTopicsForStudent(ctx context.Context, matricula int64) ([]model.TopicStat, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT q.topic,
		        COUNT(*) AS answered,
		        COUNT(*) FILTER (WHERE NOT (o.is_correct AND resp.on_time)) AS failed
		 FROM responses resp
		 JOIN attempts a ON a.id = resp.attempt_id
		 JOIN questions q ON q.id = resp.question_id
		 LEFT JOIN answer_options o ON o.id = resp.chosen_option_id
		 WHERE a.matricula = $1
		   AND a.status = 'closed'
		   AND resp.chosen_option_id IS NOT NULL
		   AND q.topic IS NOT NULL
		 GROUP BY q.topic
		 HAVING COUNT(*) > 2
		 ORDER BY COUNT(*) FILTER (WHERE NOT (o.is_correct AND resp.on_time))::FLOAT / COUNT(*) DESC
		 LIMIT 5`, matricula,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTopicStats(rows)
}

// AverageAnswerTimeForStudent returns the student's mean time per answered
// question, in seconds. Zero when nothing has been answered yet.
func (r *DashboardRepository) AverageAnswerTimeForStudent(ctx context.Context, matricula int64) (float64, error) {
	var avg float64
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(AVG(resp.elapsed_seconds), 0)
		 FROM responses resp
		 JOIN attempts a ON a.id = resp.attempt_id
		 WHERE a.matricula = $1
		   AND a.status = 'closed'
		   AND resp.elapsed_seconds IS NOT NULL`, matricula,
	).Scan(&avg)
	return avg, err
}

// BestScoreForStudent returns the student's highest score in closed attempts
// of one kind. Zero when there are none.
func (r *DashboardRepository) BestScoreForStudent(ctx context.Context, matricula int64, kind model.AttemptKind) (float64, error) {
	var best float64
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(score), 0)
		 FROM attempts
		 WHERE matricula = $1 AND kind = $2 AND status = 'closed'`,
		matricula, kind,
	).Scan(&best)
	return best, err
}

// PredictedFinalScoreForStudent estimates the student's next final exam
// score as the average of their closed practice scores. Returns zero and
// false when no practice attempt has been closed.
func (r *DashboardRepository) PredictedFinalScoreForStudent(ctx context.Context, matricula int64) (float64, bool, error) {
	var avg *float64
	err := r.pool.QueryRow(ctx,
		`SELECT AVG(score)
		 FROM attempts
		 WHERE matricula = $1 AND kind = $2 AND status = 'closed'`,
		matricula, model.KindPractice,
	).Scan(&avg)
	if err != nil {
		return 0, false, err
	}
	if avg == nil {
		return 0, false, nil
	}
	return *avg, true, nil
}

// GlobalScoreStats returns average, maximum, and minimum score over every
// closed attempt in the system.
func (r *DashboardRepository) GlobalScoreStats(ctx context.Context) (avg, max, min float64, err error) {
	err = r.pool.QueryRow(ctx,
		`SELECT COALESCE(AVG(score), 0), COALESCE(MAX(score), 0), COALESCE(MIN(score), 0)
		 FROM attempts WHERE status = 'closed'`,
	).Scan(&avg, &max, &min)
	return avg, max, min, err
}

// FinalExamOutcomes counts passed and failed closed final attempts.
func (r *DashboardRepository) FinalExamOutcomes(ctx context.Context) (passed, failed int, err error) {
	err = r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FILTER (WHERE passed), COUNT(*) FILTER (WHERE NOT passed)
		 FROM attempts
		 WHERE kind = $1 AND status = 'closed'`, model.KindFinal,
	).Scan(&passed, &failed)
	return passed, failed, err
}

// HardestTopics returns the topics with the highest global error rate.
func (r *DashboardRepository) HardestTopics(ctx context.Context) ([]model.TopicStat, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT q.topic,
		        COUNT(*) AS answered,
		        COUNT(*) FILTER (WHERE NOT (o.is_correct AND resp.on_time)) AS failed
		 FROM responses resp
		 JOIN attempts a ON a.id = resp.attempt_id
		 JOIN questions q ON q.id = resp.question_id
		 LEFT JOIN answer_options o ON o.id = resp.chosen_option_id
		 WHERE a.status = 'closed'
		   AND resp.chosen_option_id IS NOT NULL
		   AND q.topic IS NOT NULL
		 GROUP BY q.topic
		 HAVING COUNT(*) > 5
		 ORDER BY COUNT(*) FILTER (WHERE NOT (o.is_correct AND resp.on_time))::FLOAT / COUNT(*) DESC
		 LIMIT 5`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTopicStats(rows)
}

// HardestQuestions returns the individual questions missed most often,
// skipping questions seen too few times for the rate to mean anything.
func (r *DashboardRepository) HardestQuestions(ctx context.Context) ([]model.QuestionStat, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT q.id, q.prompt, q.topic,
		        COUNT(*) AS answered,
		        COUNT(*) FILTER (WHERE NOT (o.is_correct AND resp.on_time)) AS failed
		 FROM responses resp
		 JOIN attempts a ON a.id = resp.attempt_id
		 JOIN questions q ON q.id = resp.question_id
		 LEFT JOIN answer_options o ON o.id = resp.chosen_option_id
		 WHERE a.status = 'closed'
		   AND resp.chosen_option_id IS NOT NULL
		 GROUP BY q.id, q.prompt, q.topic
		 HAVING COUNT(*) > 5
		 ORDER BY COUNT(*) FILTER (WHERE NOT (o.is_correct AND resp.on_time))::FLOAT / COUNT(*) DESC
		 LIMIT 5`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []model.QuestionStat
	for rows.Next() {
		var qs model.QuestionStat
		if err := rows.Scan(&qs.QuestionID, &qs.Prompt, &qs.Topic, &qs.Answered, &qs.Failed); err != nil {
			return nil, err
		}
		if qs.Answered > 0 {
			qs.ErrorRate = float64(qs.Failed) / float64(qs.Answered)
		}
		stats = append(stats, qs)
	}
	return stats, rows.Err()
}

func scanTopicStats(rows pgx.Rows) ([]model.TopicStat, error) {
	var stats []model.TopicStat
	for rows.Next() {
		var ts model.TopicStat
		if err := rows.Scan(&ts.Topic, &ts.Answered, &ts.Failed); err != nil {
			return nil, err
		}
		if ts.Answered > 0 {
			ts.ErrorRate = float64(ts.Failed) / float64(ts.Answered)
		}
		stats = append(stats, ts)
	}
	return stats, rows.Err()
}
