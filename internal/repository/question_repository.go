package repository

import (
	"context"
	"fmt"

	"github.com/grupovial/drivetest-backend/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// QuestionRepository handles question bank data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// SelectRandom draws up to n distinct questions uniformly at random from the
// whole bank. Callers must check the returned length: fewer than n means the
// bank is too small.
func (r *QuestionRepository) SelectRandom(ctx context.Context, n int) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT q.id, q.prompt, q.image_code, qi.path, q.topic
		 FROM questions q
		 LEFT JOIN question_images qi ON qi.code = q.image_code
		 ORDER BY RANDOM()
		 LIMIT $1`, n,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanQuestions(rows)
}

// OptionsFor retrieves all answer options of a question, correctness flags
// included. Shuffling for delivery happens in the service layer.
func (r *QuestionRepository) OptionsFor(ctx context.Context, questionID int64) ([]model.AnswerOption, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, question_id, option_text, is_correct
		 FROM answer_options
		 WHERE question_id = $1
		 ORDER BY id`, questionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var options []model.AnswerOption
	for rows.Next() {
		var o model.AnswerOption
		if err := rows.Scan(&o.ID, &o.QuestionID, &o.Text, &o.IsCorrect); err != nil {
			return nil, err
		}
		options = append(options, o)
	}
	return options, rows.Err()
}

// ListPaginated retrieves questions with their options for administration.
func (r *QuestionRepository) ListPaginated(ctx context.Context, limit, offset int) ([]model.Question, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM questions`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT q.id, q.prompt, q.image_code, qi.path, q.topic
		 FROM questions q
		 LEFT JOIN question_images qi ON qi.code = q.image_code
		 ORDER BY q.id
		 LIMIT $1 OFFSET $2`, limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	questions, err := scanQuestions(rows)
	if err != nil {
		return nil, 0, err
	}
	return questions, total, nil
}

// CreateWithOptions inserts a question and its options in one transaction.
func (r *QuestionRepository) CreateWithOptions(ctx context.Context, q *model.Question, options []model.AnswerOption) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO questions (prompt, image_code, topic)
		 VALUES ($1, $2, $3)
		 RETURNING id`,
		q.Prompt, q.ImageCode, q.Topic,
	).Scan(&q.ID)
	if err != nil {
		return fmt.Errorf("insert question: %w", err)
	}

	for i := range options {
		options[i].QuestionID = q.ID
		err = tx.QueryRow(ctx,
			`INSERT INTO answer_options (question_id, option_text, is_correct)
			 VALUES ($1, $2, $3)
			 RETURNING id`,
			q.ID, options[i].Text, options[i].IsCorrect,
		).Scan(&options[i].ID)
		if err != nil {
			return fmt.Errorf("insert option: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// ReplaceOptions swaps a question's option set inside one transaction.
// Only valid while no response references the old options.
func (r *QuestionRepository) ReplaceOptions(ctx context.Context, questionID int64, options []model.AnswerOption) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM answer_options WHERE question_id = $1`, questionID); err != nil {
		return fmt.Errorf("delete options: %w", err)
	}

	for i := range options {
		options[i].QuestionID = questionID
		err = tx.QueryRow(ctx,
			`INSERT INTO answer_options (question_id, option_text, is_correct)
			 VALUES ($1, $2, $3)
			 RETURNING id`,
			questionID, options[i].Text, options[i].IsCorrect,
		).Scan(&options[i].ID)
		if err != nil {
			return fmt.Errorf("insert option: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// Update modifies a question's prompt, image, and topic.
func (r *QuestionRepository) Update(ctx context.Context, q *model.Question) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE questions SET prompt = $1, image_code = $2, topic = $3 WHERE id = $4`,
		q.Prompt, q.ImageCode, q.Topic, q.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Delete removes a question and (via cascade) its options.
func (r *QuestionRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// UpsertImage registers an image in the image bank.
func (r *QuestionRepository) UpsertImage(ctx context.Context, code, path string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO question_images (code, path)
		 VALUES ($1, $2)
		 ON CONFLICT (code) DO UPDATE SET path = EXCLUDED.path`,
		code, path,
	)
	return err
}

func scanQuestions(rows pgx.Rows) ([]model.Question, error) {
	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.Prompt, &q.ImageCode, &q.ImagePath, &q.Topic); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}
