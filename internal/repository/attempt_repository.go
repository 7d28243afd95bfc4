package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/grupovial/drivetest-backend/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Sentinel errors surfaced to the service layer.
var (
	ErrAttemptAlreadyClosed = errors.New("attempt is already closed")
	ErrOptionMismatch       = errors.New("chosen option does not belong to the question")
)

// AttemptRepository handles attempt and response data access.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

// CountByStudentAndKind counts a student's attempts of one kind, open or
// closed. Used against the per-kind attempt limits.
func (r *AttemptRepository) CountByStudentAndKind(ctx context.Context, matricula int64, kind model.AttemptKind) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM attempts WHERE matricula = $1 AND kind = $2`,
		matricula, kind,
	).Scan(&count)
	return count, err
}

// CreateWithResponses inserts the attempt row and one response row per
// selected question, in selection order, inside a single transaction. A
// half-created attempt must never become deliverable.
func (r *AttemptRepository) CreateWithResponses(ctx context.Context, a *model.Attempt, questions []model.Question) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO attempts (matricula, kind, status, score, passed)
		 VALUES ($1, $2, $3, 0, FALSE)
		 RETURNING id, created_at`,
		a.Matricula, a.Kind, model.AttemptInProgress,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}
	a.Status = model.AttemptInProgress

	rows := make([][]interface{}, len(questions))
	for i, q := range questions {
		rows[i] = []interface{}{a.ID, q.ID, i}
	}

	copied, err := tx.CopyFrom(ctx,
		pgx.Identifier{"responses"},
		[]string{"attempt_id", "question_id", "position"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("insert responses: %w", err)
	}
	if copied != int64(len(questions)) {
		return fmt.Errorf("insert responses: wrote %d of %d rows", copied, len(questions))
	}

	return tx.Commit(ctx)
}

// GetByID retrieves an attempt by its identifier.
func (r *AttemptRepository) GetByID(ctx context.Context, id int64) (*model.Attempt, error) {
	a := &model.Attempt{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, matricula, kind, status, score, passed, total_duration_seconds, created_at
		 FROM attempts WHERE id = $1`, id,
	).Scan(&a.ID, &a.Matricula, &a.Kind, &a.Status, &a.Score, &a.Passed, &a.TotalDurationSeconds, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// QuestionAt returns the index-th (0-based, presentation order) question of
// an attempt together with the attempt's total question count. A nil
// question with a non-zero total means the index is past the last question.
func (r *AttemptRepository) QuestionAt(ctx context.Context, attemptID int64, index int) (*model.Question, int, error) {
	var total int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM responses WHERE attempt_id = $1`, attemptID,
	).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	if index < 0 || index >= total {
		return nil, total, nil
	}

	q := &model.Question{}
	err = r.pool.QueryRow(ctx,
		`SELECT q.id, q.prompt, q.image_code, qi.path, q.topic
		 FROM responses r
		 JOIN questions q ON q.id = r.question_id
		 LEFT JOIN question_images qi ON qi.code = q.image_code
		 WHERE r.attempt_id = $1 AND r.position = $2`,
		attemptID, index,
	).Scan(&q.ID, &q.Prompt, &q.ImageCode, &q.ImagePath, &q.Topic)
	if err != nil {
		return nil, total, err
	}
	return q, total, nil
}

// UpdateResponse records (or overwrites) the student's answer for one
// question of an in-progress attempt. Updating a closed attempt fails with
// ErrAttemptAlreadyClosed; an option from another question fails with
// ErrOptionMismatch via the composite foreign key.
func (r *AttemptRepository) UpdateResponse(ctx context.Context, attemptID, questionID int64, chosenOptionID *int64, onTime bool, elapsedSeconds int) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE responses r
		 SET chosen_option_id = $3, on_time = $4, elapsed_seconds = $5
		 FROM attempts a
		 WHERE r.attempt_id = $1 AND r.question_id = $2
		   AND a.id = r.attempt_id AND a.status = $6`,
		attemptID, questionID, chosenOptionID, onTime, elapsedSeconds, model.AttemptInProgress,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrOptionMismatch
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		// Either the attempt is closed, or the (attempt, question) pair
		// does not exist. Look at the attempt to tell them apart.
		a, err := r.GetByID(ctx, attemptID)
		if err != nil {
			return err
		}
		if a.Status == model.AttemptClosed {
			return ErrAttemptAlreadyClosed
		}
		return pgx.ErrNoRows
	}
	return nil
}

// ResponsesForScoring reads every response of an attempt with the
// correctness flag of the chosen option (false when nothing was chosen).
func (r *AttemptRepository) ResponsesForScoring(ctx context.Context, attemptID int64) ([]model.ScoredResponse, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT r.question_id, r.chosen_option_id, COALESCE(o.is_correct, FALSE), r.on_time, r.elapsed_seconds
		 FROM responses r
		 LEFT JOIN answer_options o ON o.id = r.chosen_option_id
		 WHERE r.attempt_id = $1
		 ORDER BY r.position`, attemptID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var responses []model.ScoredResponse
	for rows.Next() {
		var sr model.ScoredResponse
		if err := rows.Scan(&sr.QuestionID, &sr.ChosenOptionID, &sr.ChosenCorrect, &sr.OnTime, &sr.ElapsedSeconds); err != nil {
			return nil, err
		}
		responses = append(responses, sr)
	}
	return responses, rows.Err()
}

// Close persists the final score onto an in-progress attempt. The status
// guard makes the score/pass transition one-time: closing twice fails with
// ErrAttemptAlreadyClosed.
func (r *AttemptRepository) Close(ctx context.Context, attemptID int64, score float64, passed bool, totalDurationSeconds int) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE attempts
		 SET status = $2, score = $3, passed = $4, total_duration_seconds = $5
		 WHERE id = $1 AND status = $6`,
		attemptID, model.AttemptClosed, score, passed, totalDurationSeconds, model.AttemptInProgress,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		a, err := r.GetByID(ctx, attemptID)
		if err != nil {
			return err
		}
		if a.Status == model.AttemptClosed {
			return ErrAttemptAlreadyClosed
		}
		return pgx.ErrNoRows
	}
	return nil
}

// ListByStudentAndKind retrieves a student's attempts of one kind, newest
// first.
func (r *AttemptRepository) ListByStudentAndKind(ctx context.Context, matricula int64, kind model.AttemptKind) ([]model.Attempt, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, matricula, kind, status, score, passed, total_duration_seconds, created_at
		 FROM attempts
		 WHERE matricula = $1 AND kind = $2
		 ORDER BY created_at DESC`, matricula, kind,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []model.Attempt
	for rows.Next() {
		var a model.Attempt
		if err := rows.Scan(&a.ID, &a.Matricula, &a.Kind, &a.Status, &a.Score, &a.Passed, &a.TotalDurationSeconds, &a.CreatedAt); err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// GetDetail retrieves an attempt's review data in presentation order. When
// owner is non-nil and does not match the attempt's student, the attempt is
// reported as missing rather than revealing that it exists.
func (r *AttemptRepository) GetDetail(ctx context.Context, attemptID int64, owner *int64) (*model.AttemptDetail, error) {
	attempt, err := r.GetByID(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if owner != nil && attempt.Matricula != *owner {
		return nil, pgx.ErrNoRows
	}

	rows, err := r.pool.Query(ctx,
		`SELECT r.question_id, q.prompt, q.topic, qi.path,
		        oc.option_text, oe.option_text,
		        r.on_time, r.elapsed_seconds,
		        r.chosen_option_id, COALESCE(oe.is_correct, FALSE)
		 FROM responses r
		 JOIN questions q ON q.id = r.question_id
		 LEFT JOIN question_images qi ON qi.code = q.image_code
		 LEFT JOIN answer_options oc ON oc.question_id = q.id AND oc.is_correct
		 LEFT JOIN answer_options oe ON oe.id = r.chosen_option_id
		 WHERE r.attempt_id = $1
		 ORDER BY r.position`, attemptID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	detail := &model.AttemptDetail{Attempt: *attempt}
	for rows.Next() {
		var (
			d             model.ResponseDetail
			correctOption *string
			chosenID      *int64
			chosenCorrect bool
		)
		if err := rows.Scan(&d.QuestionID, &d.Prompt, &d.Topic, &d.ImagePath,
			&correctOption, &d.ChosenOption,
			&d.OnTime, &d.ElapsedSeconds,
			&chosenID, &chosenCorrect); err != nil {
			return nil, err
		}
		if correctOption != nil {
			d.CorrectOption = *correctOption
		}

		// Same crediting rule as scoring: an answer only counts when one
		// was chosen, it is the correct option, and it arrived on time.
		switch {
		case chosenID == nil:
			detail.Unanswered++
		case chosenCorrect && d.OnTime:
			d.IsCorrect = true
			detail.Correct++
		default:
			detail.Incorrect++
		}

		detail.Questions = append(detail.Questions, d)
	}
	return detail, rows.Err()
}
