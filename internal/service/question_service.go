package service

import (
	"context"
	"errors"

	"github.com/grupovial/drivetest-backend/internal/model"
	"github.com/grupovial/drivetest-backend/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	ErrQuestionNotFound = errors.New("question not found")
	ErrOneCorrectOption = errors.New("exactly one option must be marked correct")
)

// QuestionService handles question bank administration.
type QuestionService struct {
	questions *repository.QuestionRepository
	logger    zerolog.Logger
}

// NewQuestionService creates a new QuestionService.
func NewQuestionService(questions *repository.QuestionRepository) *QuestionService {
	return &QuestionService{
		questions: questions,
		logger:    log.With().Str("component", "question_service").Logger(),
	}
}

// List returns a page of the question bank with the total count.
func (s *QuestionService) List(ctx context.Context, limit, offset int) ([]model.Question, int, error) {
	return s.questions.ListPaginated(ctx, limit, offset)
}

// OptionsFor returns a question's options, correctness included, for
// administration screens.
func (s *QuestionService) OptionsFor(ctx context.Context, questionID int64) ([]model.AnswerOption, error) {
	return s.questions.OptionsFor(ctx, questionID)
}

// Create adds a question with its options to the bank. Exactly one option
// must be marked correct; scoring depends on it.
func (s *QuestionService) Create(ctx context.Context, req *model.CreateQuestionRequest) (*model.Question, error) {
	options, err := buildOptions(req.Options)
	if err != nil {
		return nil, err
	}

	question := &model.Question{
		Prompt:    req.Prompt,
		ImageCode: req.ImageCode,
		Topic:     req.Topic,
	}
	if err := s.questions.CreateWithOptions(ctx, question, options); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("question_id", question.ID).Msg("question created")
	return question, nil
}

// Update rewrites a question's prompt, image, topic, and option set.
func (s *QuestionService) Update(ctx context.Context, id int64, req *model.CreateQuestionRequest) error {
	options, err := buildOptions(req.Options)
	if err != nil {
		return err
	}

	question := &model.Question{
		ID:        id,
		Prompt:    req.Prompt,
		ImageCode: req.ImageCode,
		Topic:     req.Topic,
	}
	if err := s.questions.Update(ctx, question); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrQuestionNotFound
		}
		return err
	}
	return s.questions.ReplaceOptions(ctx, id, options)
}

// Delete removes a question and its options from the bank.
func (s *QuestionService) Delete(ctx context.Context, id int64) error {
	if err := s.questions.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrQuestionNotFound
		}
		return err
	}
	return nil
}

func buildOptions(reqs []model.CreateOptionRequest) ([]model.AnswerOption, error) {
	correct := 0
	options := make([]model.AnswerOption, len(reqs))
	for i, o := range reqs {
		if o.IsCorrect {
			correct++
		}
		options[i] = model.AnswerOption{Text: o.Text, IsCorrect: o.IsCorrect}
	}
	if correct != 1 {
		return nil, ErrOneCorrectOption
	}
	return options, nil
}
