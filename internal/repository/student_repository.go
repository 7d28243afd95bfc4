package repository

import (
	"context"
	"errors"

	"github.com/grupovial/drivetest-backend/internal/model"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrDuplicateStudent = errors.New("student with this matricula or email already exists")

// StudentRepository handles student data access.
type StudentRepository struct {
	pool *pgxpool.Pool
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(pool *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{pool: pool}
}

// GetByMatricula retrieves a student by their matricula.
func (r *StudentRepository) GetByMatricula(ctx context.Context, matricula int64) (*model.Student, error) {
	s := &model.Student{}
	err := r.pool.QueryRow(ctx,
		`SELECT matricula, first_name, last_name, second_last_name, email, phone, password_hash, role, created_at
		 FROM students WHERE matricula = $1`, matricula,
	).Scan(&s.Matricula, &s.FirstName, &s.LastName, &s.SecondLastName, &s.Email, &s.Phone, &s.PasswordHash, &s.Role, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Create inserts a new student.
func (r *StudentRepository) Create(ctx context.Context, s *model.Student) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO students (matricula, first_name, last_name, second_last_name, email, phone, password_hash, role)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING created_at`,
		s.Matricula, s.FirstName, s.LastName, s.SecondLastName, s.Email, s.Phone, s.PasswordHash, s.Role,
	).Scan(&s.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateStudent
		}
		return err
	}
	return nil
}

// ListPaginated retrieves students ordered by matricula.
func (r *StudentRepository) ListPaginated(ctx context.Context, limit, offset int) ([]model.Student, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM students`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT matricula, first_name, last_name, second_last_name, email, phone, password_hash, role, created_at
		 FROM students
		 ORDER BY matricula
		 LIMIT $1 OFFSET $2`, limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var students []model.Student
	for rows.Next() {
		var s model.Student
		if err := rows.Scan(&s.Matricula, &s.FirstName, &s.LastName, &s.SecondLastName, &s.Email, &s.Phone, &s.PasswordHash, &s.Role, &s.CreatedAt); err != nil {
			return nil, 0, err
		}
		students = append(students, s)
	}
	return students, total, rows.Err()
}

// UpdatePassword updates a student's password hash.
func (r *StudentRepository) UpdatePassword(ctx context.Context, matricula int64, passwordHash string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE students SET password_hash = $1 WHERE matricula = $2`,
		passwordHash, matricula,
	)
	return err
}
