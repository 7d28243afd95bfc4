package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/grupovial/drivetest-backend/internal/model"
	"github.com/grupovial/drivetest-backend/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	ErrAttemptLimitReached = errors.New("attempt limit reached for this exam kind")
	ErrInsufficientContent = errors.New("question bank is smaller than the exam size")
	ErrNoActiveAttempt     = errors.New("no exam attempt in progress")
	ErrAttemptNotFound     = errors.New("attempt not found")
	ErrAttemptClosed       = errors.New("attempt is already closed")
	ErrNoMoreQuestions     = errors.New("all questions have been delivered")
	ErrUnknownQuestion     = errors.New("question is not part of this attempt")
	ErrInvalidOption       = errors.New("option does not belong to the question")
	ErrScoringFailed       = errors.New("scoring failed")
)

type attemptStore interface {
	CountByStudentAndKind(ctx context.Context, matricula int64, kind model.AttemptKind) (int, error)
	CreateWithResponses(ctx context.Context, a *model.Attempt, questions []model.Question) error
	GetByID(ctx context.Context, id int64) (*model.Attempt, error)
	QuestionAt(ctx context.Context, attemptID int64, index int) (*model.Question, int, error)
	UpdateResponse(ctx context.Context, attemptID, questionID int64, chosenOptionID *int64, onTime bool, elapsedSeconds int) error
	ResponsesForScoring(ctx context.Context, attemptID int64) ([]model.ScoredResponse, error)
	Close(ctx context.Context, attemptID int64, score float64, passed bool, totalDurationSeconds int) error
	ListByStudentAndKind(ctx context.Context, matricula int64, kind model.AttemptKind) ([]model.Attempt, error)
	GetDetail(ctx context.Context, attemptID int64, owner *int64) (*model.AttemptDetail, error)
}

type questionStore interface {
	SelectRandom(ctx context.Context, n int) ([]model.Question, error)
	OptionsFor(ctx context.Context, questionID int64) ([]model.AnswerOption, error)
}

// ExamService drives the exam attempt lifecycle: start, question delivery,
// answering, and one-time scoring on close. Operations that belong to an
// in-progress exam take the student's ExamContext and return the updated
// copy; callers persist it between requests.
type ExamService struct {
	attempts  attemptStore
	questions questionStore
	now       func() time.Time
	logger    zerolog.Logger
}

// NewExamService creates a new ExamService.
func NewExamService(attempts attemptStore, questions questionStore) *ExamService {
	return &ExamService{
		attempts:  attempts,
		questions: questions,
		now:       time.Now,
		logger:    log.With().Str("component", "exam_service").Logger(),
	}
}

// StartAttempt creates a new attempt of the given kind with a fresh random
// question selection, and returns the context for taking it. Starting a new
// attempt while another is in progress abandons the old one: it stays
// in_progress, unscored, and keeps counting toward the limit.
func (s *ExamService) StartAttempt(ctx context.Context, matricula int64, kind model.AttemptKind) (*model.Attempt, *model.ExamContext, error) {
	count, err := s.attempts.CountByStudentAndKind(ctx, matricula, kind)
	if err != nil {
		return nil, nil, fmt.Errorf("count attempts: %w", err)
	}
	if count >= kind.AttemptLimit() {
		return nil, nil, ErrAttemptLimitReached
	}

	questions, err := s.questions.SelectRandom(ctx, kind.QuestionCount())
	if err != nil {
		return nil, nil, fmt.Errorf("select questions: %w", err)
	}
	if len(questions) < kind.QuestionCount() {
		return nil, nil, ErrInsufficientContent
	}

	attempt := &model.Attempt{Matricula: matricula, Kind: kind}
	if err := s.attempts.CreateWithResponses(ctx, attempt, questions); err != nil {
		return nil, nil, fmt.Errorf("create attempt: %w", err)
	}

	examCtx := &model.ExamContext{
		AttemptID: attempt.ID,
		Kind:      kind,
		StartedAt: s.now(),
	}

	s.logger.Info().
		Int64("matricula", matricula).
		Int64("attempt_id", attempt.ID).
		Str("kind", string(kind)).
		Int("attempt_number", count+1).
		Msg("attempt started")

	return attempt, examCtx, nil
}

// GetQuestion delivers the current question of the in-progress exam with its
// options in a fresh random order. Delivery stamps QuestionShownAt on the
// returned context, which starts the answer window. Asking past the last
// question returns ErrNoMoreQuestions.
func (s *ExamService) GetQuestion(ctx context.Context, examCtx *model.ExamContext) (*model.QuestionView, *model.ExamContext, error) {
	if examCtx == nil {
		return nil, nil, ErrNoActiveAttempt
	}

	attempt, err := s.attempts.GetByID(ctx, examCtx.AttemptID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, ErrAttemptNotFound
		}
		return nil, nil, fmt.Errorf("load attempt: %w", err)
	}
	if attempt.Status == model.AttemptClosed {
		return nil, nil, ErrAttemptClosed
	}

	question, total, err := s.attempts.QuestionAt(ctx, examCtx.AttemptID, examCtx.QuestionIndex)
	if err != nil {
		return nil, nil, fmt.Errorf("load question: %w", err)
	}
	if question == nil {
		return nil, nil, ErrNoMoreQuestions
	}

	options, err := s.questions.OptionsFor(ctx, question.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("load options: %w", err)
	}

	views := make([]model.OptionView, len(options))
	for i, o := range options {
		views[i] = model.OptionView{ID: o.ID, Text: o.Text}
	}
	rand.Shuffle(len(views), func(i, j int) {
		views[i], views[j] = views[j], views[i]
	})

	updated := *examCtx
	updated.QuestionShownAt = s.now()

	view := &model.QuestionView{
		Index:    examCtx.QuestionIndex,
		Total:    total,
		Question: *question,
		Options:  views,
	}
	return view, &updated, nil
}

// SubmitAnswer records the student's choice for one question of the
// in-progress exam and advances the context to the next question. A nil
// option means the student skipped. Answers landing after the window closed
// are stored but marked late; re-submitting the same question overwrites the
// earlier answer, last write wins.
func (s *ExamService) SubmitAnswer(ctx context.Context, examCtx *model.ExamContext, req *model.SubmitAnswerRequest) (*model.ExamContext, error) {
	if examCtx == nil {
		return nil, ErrNoActiveAttempt
	}

	elapsed := int(s.now().Sub(examCtx.QuestionShownAt).Seconds())
	if elapsed < 0 {
		elapsed = 0
	}
	onTime := elapsed <= model.AnswerWindowSeconds

	err := s.attempts.UpdateResponse(ctx, examCtx.AttemptID, req.QuestionID, req.OptionID, onTime, elapsed)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrOptionMismatch):
			return nil, ErrInvalidOption
		case errors.Is(err, repository.ErrAttemptAlreadyClosed):
			return nil, ErrAttemptClosed
		case errors.Is(err, pgx.ErrNoRows):
			return nil, ErrUnknownQuestion
		}
		return nil, fmt.Errorf("record answer: %w", err)
	}

	updated := *examCtx
	updated.QuestionIndex++
	updated.QuestionShownAt = time.Time{}
	return &updated, nil
}

// CloseAttempt scores the in-progress exam and closes it. An answer is
// credited only when an option was chosen, it is the correct one, and it
// arrived on time. The score transition is one-time: a second close fails
// with ErrAttemptClosed and the stored score stands.
func (s *ExamService) CloseAttempt(ctx context.Context, examCtx *model.ExamContext) (*model.AttemptSummary, error) {
	if examCtx == nil {
		return nil, ErrNoActiveAttempt
	}

	responses, err := s.attempts.ResponsesForScoring(ctx, examCtx.AttemptID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrScoringFailed, err)
	}

	correct := 0
	for _, r := range responses {
		if r.ChosenOptionID != nil && r.ChosenCorrect && r.OnTime {
			correct++
		}
	}

	score := float64(correct) * examCtx.Kind.PointValue()
	passed := score >= model.PassingScore
	duration := int(s.now().Sub(examCtx.StartedAt).Seconds())

	err = s.attempts.Close(ctx, examCtx.AttemptID, score, passed, duration)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrAttemptAlreadyClosed):
			return nil, ErrAttemptClosed
		case errors.Is(err, pgx.ErrNoRows):
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrScoringFailed, err)
	}

	s.logger.Info().
		Int64("attempt_id", examCtx.AttemptID).
		Str("kind", string(examCtx.Kind)).
		Int("correct", correct).
		Float64("score", score).
		Bool("passed", passed).
		Msg("attempt closed")

	return &model.AttemptSummary{
		TotalQuestions: len(responses),
		CorrectCount:   correct,
		Score:          score,
		Passed:         passed,
	}, nil
}

// AttemptHistory lists a student's attempts of one kind, newest first.
func (s *ExamService) AttemptHistory(ctx context.Context, matricula int64, kind model.AttemptKind) ([]model.Attempt, error) {
	return s.attempts.ListByStudentAndKind(ctx, matricula, kind)
}

// AttemptDetail returns the full review of one attempt. When owner is
// non-nil the attempt must belong to that student; otherwise (admin access)
// any attempt is visible.
func (s *ExamService) AttemptDetail(ctx context.Context, attemptID int64, owner *int64) (*model.AttemptDetail, error) {
	detail, err := s.attempts.GetDetail(ctx, attemptID, owner)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAttemptNotFound
		}
		return nil, err
	}
	return detail, nil
}
