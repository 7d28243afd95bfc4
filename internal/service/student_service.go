package service

import (
	"context"

	"github.com/grupovial/drivetest-backend/internal/model"
	"github.com/grupovial/drivetest-backend/internal/repository"
)

// StudentService exposes student account queries for administration.
type StudentService struct {
	students *repository.StudentRepository
}

// NewStudentService creates a new StudentService.
func NewStudentService(students *repository.StudentRepository) *StudentService {
	return &StudentService{students: students}
}

// List returns a page of registered students with the total count.
func (s *StudentService) List(ctx context.Context, limit, offset int) ([]model.Student, int, error) {
	return s.students.ListPaginated(ctx, limit, offset)
}

// Get retrieves one student by matricula.
func (s *StudentService) Get(ctx context.Context, matricula int64) (*model.Student, error) {
	return s.students.GetByMatricula(ctx, matricula)
}
