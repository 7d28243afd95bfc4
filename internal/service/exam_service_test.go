package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/grupovial/drivetest-backend/internal/model"
	"github.com/grupovial/drivetest-backend/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// The fakes model a deterministic question bank: question q offers options
// q*10 .. q*10+3, and q*10 is the correct one.

func correctOptionFor(questionID int64) int64 { return questionID * 10 }
func wrongOptionFor(questionID int64) int64   { return questionID*10 + 1 }

type fakeQuestionStore struct {
	bankSize int
}

func (f *fakeQuestionStore) SelectRandom(_ context.Context, n int) ([]model.Question, error) {
	if n > f.bankSize {
		n = f.bankSize
	}
	questions := make([]model.Question, n)
	for i := range questions {
		id := int64(i + 1)
		questions[i] = model.Question{ID: id, Prompt: fmt.Sprintf("question %d", id)}
	}
	return questions, nil
}

func (f *fakeQuestionStore) OptionsFor(_ context.Context, questionID int64) ([]model.AnswerOption, error) {
	options := make([]model.AnswerOption, 4)
	for i := range options {
		options[i] = model.AnswerOption{
			ID:         questionID*10 + int64(i),
			QuestionID: questionID,
			Text:       fmt.Sprintf("option %d", i),
			IsCorrect:  i == 0,
		}
	}
	return options, nil
}

type fakeAttemptStore struct {
	nextID    int64
	attempts  map[int64]*model.Attempt
	responses map[int64][]model.ScoredResponse
}

func newFakeAttemptStore() *fakeAttemptStore {
	return &fakeAttemptStore{
		attempts:  make(map[int64]*model.Attempt),
		responses: make(map[int64][]model.ScoredResponse),
	}
}

func (f *fakeAttemptStore) CountByStudentAndKind(_ context.Context, matricula int64, kind model.AttemptKind) (int, error) {
	count := 0
	for _, a := range f.attempts {
		if a.Matricula == matricula && a.Kind == kind {
			count++
		}
	}
	return count, nil
}

func (f *fakeAttemptStore) CreateWithResponses(_ context.Context, a *model.Attempt, questions []model.Question) error {
	f.nextID++
	a.ID = f.nextID
	a.Status = model.AttemptInProgress
	a.CreatedAt = time.Now()
	stored := *a
	f.attempts[a.ID] = &stored

	responses := make([]model.ScoredResponse, len(questions))
	for i, q := range questions {
		responses[i] = model.ScoredResponse{QuestionID: q.ID, OnTime: true}
	}
	f.responses[a.ID] = responses
	return nil
}

func (f *fakeAttemptStore) GetByID(_ context.Context, id int64) (*model.Attempt, error) {
	a, ok := f.attempts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *a
	return &copied, nil
}

func (f *fakeAttemptStore) QuestionAt(_ context.Context, attemptID int64, index int) (*model.Question, int, error) {
	responses := f.responses[attemptID]
	total := len(responses)
	if index < 0 || index >= total {
		return nil, total, nil
	}
	qid := responses[index].QuestionID
	return &model.Question{ID: qid, Prompt: fmt.Sprintf("question %d", qid)}, total, nil
}

func (f *fakeAttemptStore) UpdateResponse(_ context.Context, attemptID, questionID int64, chosenOptionID *int64, onTime bool, elapsedSeconds int) error {
	a, ok := f.attempts[attemptID]
	if !ok {
		return pgx.ErrNoRows
	}
	if a.Status == model.AttemptClosed {
		return repository.ErrAttemptAlreadyClosed
	}
	if chosenOptionID != nil && *chosenOptionID/10 != questionID {
		return repository.ErrOptionMismatch
	}
	for i, r := range f.responses[attemptID] {
		if r.QuestionID != questionID {
			continue
		}
		elapsed := elapsedSeconds
		f.responses[attemptID][i] = model.ScoredResponse{
			QuestionID:     questionID,
			ChosenOptionID: chosenOptionID,
			ChosenCorrect:  chosenOptionID != nil && *chosenOptionID == correctOptionFor(questionID),
			OnTime:         onTime,
			ElapsedSeconds: &elapsed,
		}
		return nil
	}
	return pgx.ErrNoRows
}

func (f *fakeAttemptStore) ResponsesForScoring(_ context.Context, attemptID int64) ([]model.ScoredResponse, error) {
	responses, ok := f.responses[attemptID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := make([]model.ScoredResponse, len(responses))
	copy(out, responses)
	return out, nil
}

func (f *fakeAttemptStore) Close(_ context.Context, attemptID int64, score float64, passed bool, totalDurationSeconds int) error {
	a, ok := f.attempts[attemptID]
	if !ok {
		return pgx.ErrNoRows
	}
	if a.Status == model.AttemptClosed {
		return repository.ErrAttemptAlreadyClosed
	}
	a.Status = model.AttemptClosed
	a.Score = score
	a.Passed = passed
	a.TotalDurationSeconds = &totalDurationSeconds
	return nil
}

func (f *fakeAttemptStore) ListByStudentAndKind(_ context.Context, matricula int64, kind model.AttemptKind) ([]model.Attempt, error) {
	var out []model.Attempt
	for id := f.nextID; id >= 1; id-- {
		if a, ok := f.attempts[id]; ok && a.Matricula == matricula && a.Kind == kind {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeAttemptStore) GetDetail(_ context.Context, attemptID int64, owner *int64) (*model.AttemptDetail, error) {
	a, ok := f.attempts[attemptID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	if owner != nil && a.Matricula != *owner {
		return nil, pgx.ErrNoRows
	}

	detail := &model.AttemptDetail{Attempt: *a}
	for _, r := range f.responses[attemptID] {
		d := model.ResponseDetail{QuestionID: r.QuestionID, OnTime: r.OnTime}
		switch {
		case r.ChosenOptionID == nil:
			detail.Unanswered++
		case r.ChosenCorrect && r.OnTime:
			d.IsCorrect = true
			detail.Correct++
		default:
			detail.Incorrect++
		}
		detail.Questions = append(detail.Questions, d)
	}
	return detail, nil
}

// testClock is a controllable clock for driving the answer window.
type testClock struct {
	current time.Time
}

func (c *testClock) now() time.Time          { return c.current }
func (c *testClock) advance(d time.Duration) { c.current = c.current.Add(d) }

func newTestExamService(bankSize int) (*ExamService, *fakeAttemptStore, *testClock) {
	attempts := newFakeAttemptStore()
	clock := &testClock{current: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}
	svc := &ExamService{
		attempts:  attempts,
		questions: &fakeQuestionStore{bankSize: bankSize},
		now:       clock.now,
		logger:    zerolog.Nop(),
	}
	return svc, attempts, clock
}

// takeExam walks a full attempt: start, then for each question deliver and
// answer, choosing the correct option for the first `correct` questions and
// a wrong one afterwards. Returns the final context.
func takeExam(t *testing.T, svc *ExamService, clock *testClock, matricula int64, kind model.AttemptKind, correct int) *model.ExamContext {
	t.Helper()
	ctx := context.Background()

	_, examCtx, err := svc.StartAttempt(ctx, matricula, kind)
	if err != nil {
		t.Fatalf("StartAttempt: %v", err)
	}

	for i := 0; i < kind.QuestionCount(); i++ {
		view, updated, err := svc.GetQuestion(ctx, examCtx)
		if err != nil {
			t.Fatalf("GetQuestion %d: %v", i, err)
		}
		examCtx = updated

		clock.advance(10 * time.Second)

		optionID := wrongOptionFor(view.Question.ID)
		if i < correct {
			optionID = correctOptionFor(view.Question.ID)
		}
		examCtx, err = svc.SubmitAnswer(ctx, examCtx, &model.SubmitAnswerRequest{
			QuestionID: view.Question.ID,
			OptionID:   &optionID,
		})
		if err != nil {
			t.Fatalf("SubmitAnswer %d: %v", i, err)
		}
	}
	return examCtx
}

func TestStartAttemptEnforcesLimits(t *testing.T) {
	tests := []struct {
		kind  model.AttemptKind
		limit int
	}{
		{model.KindPractice, 6},
		{model.KindFinal, 3},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			svc, _, _ := newTestExamService(100)
			ctx := context.Background()

			for i := 0; i < tt.limit; i++ {
				if _, _, err := svc.StartAttempt(ctx, 1001, tt.kind); err != nil {
					t.Fatalf("attempt %d: %v", i+1, err)
				}
			}

			_, _, err := svc.StartAttempt(ctx, 1001, tt.kind)
			if !errors.Is(err, ErrAttemptLimitReached) {
				t.Fatalf("attempt %d: got %v, want ErrAttemptLimitReached", tt.limit+1, err)
			}

			// Another student is unaffected.
			if _, _, err := svc.StartAttempt(ctx, 2002, tt.kind); err != nil {
				t.Fatalf("other student: %v", err)
			}
		})
	}
}

func TestStartAttemptRequiresFullBank(t *testing.T) {
	svc, _, _ := newTestExamService(19)
	_, _, err := svc.StartAttempt(context.Background(), 1001, model.KindPractice)
	if !errors.Is(err, ErrInsufficientContent) {
		t.Fatalf("got %v, want ErrInsufficientContent", err)
	}

	// A bank of exactly the exam size is enough.
	svc, _, _ = newTestExamService(20)
	attempt, examCtx, err := svc.StartAttempt(context.Background(), 1001, model.KindPractice)
	if err != nil {
		t.Fatalf("exact bank: %v", err)
	}
	if examCtx.AttemptID != attempt.ID || examCtx.Kind != model.KindPractice {
		t.Fatalf("context mismatch: %+v vs attempt %d", examCtx, attempt.ID)
	}
}

func TestPerfectScoreIsHundredForBothKinds(t *testing.T) {
	for _, kind := range []model.AttemptKind{model.KindPractice, model.KindFinal} {
		t.Run(string(kind), func(t *testing.T) {
			svc, _, clock := newTestExamService(100)
			examCtx := takeExam(t, svc, clock, 1001, kind, kind.QuestionCount())

			summary, err := svc.CloseAttempt(context.Background(), examCtx)
			if err != nil {
				t.Fatalf("CloseAttempt: %v", err)
			}
			if summary.Score != 100.0 {
				t.Errorf("score = %v, want 100.0", summary.Score)
			}
			if !summary.Passed {
				t.Error("perfect attempt should pass")
			}
			if summary.CorrectCount != kind.QuestionCount() {
				t.Errorf("correct = %d, want %d", summary.CorrectCount, kind.QuestionCount())
			}
		})
	}
}

func TestPassBoundary(t *testing.T) {
	tests := []struct {
		name    string
		kind    model.AttemptKind
		correct int
		score   float64
		passed  bool
	}{
		{"final exactly 75 passes", model.KindFinal, 30, 75.0, true},
		{"final just below fails", model.KindFinal, 29, 72.5, false},
		{"practice exactly 75 passes", model.KindPractice, 15, 75.0, true},
		{"practice just below fails", model.KindPractice, 14, 70.0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, clock := newTestExamService(100)
			examCtx := takeExam(t, svc, clock, 1001, tt.kind, tt.correct)

			summary, err := svc.CloseAttempt(context.Background(), examCtx)
			if err != nil {
				t.Fatalf("CloseAttempt: %v", err)
			}
			if summary.Score != tt.score {
				t.Errorf("score = %v, want %v", summary.Score, tt.score)
			}
			if summary.Passed != tt.passed {
				t.Errorf("passed = %v, want %v", summary.Passed, tt.passed)
			}
		})
	}
}

func TestLateCorrectAnswerIsNotCredited(t *testing.T) {
	svc, _, clock := newTestExamService(100)
	ctx := context.Background()

	_, examCtx, err := svc.StartAttempt(ctx, 1001, model.KindPractice)
	if err != nil {
		t.Fatalf("StartAttempt: %v", err)
	}

	// First question: correct, 30s after delivery. Within the window.
	view, examCtx, err := svc.GetQuestion(ctx, examCtx)
	if err != nil {
		t.Fatalf("GetQuestion: %v", err)
	}
	clock.advance(30 * time.Second)
	optionID := correctOptionFor(view.Question.ID)
	examCtx, err = svc.SubmitAnswer(ctx, examCtx, &model.SubmitAnswerRequest{QuestionID: view.Question.ID, OptionID: &optionID})
	if err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}

	// Second question: correct, but 75s after delivery. Past the window.
	view, examCtx, err = svc.GetQuestion(ctx, examCtx)
	if err != nil {
		t.Fatalf("GetQuestion: %v", err)
	}
	clock.advance(75 * time.Second)
	optionID = correctOptionFor(view.Question.ID)
	examCtx, err = svc.SubmitAnswer(ctx, examCtx, &model.SubmitAnswerRequest{QuestionID: view.Question.ID, OptionID: &optionID})
	if err != nil {
		t.Fatalf("late SubmitAnswer: %v", err)
	}

	summary, err := svc.CloseAttempt(ctx, examCtx)
	if err != nil {
		t.Fatalf("CloseAttempt: %v", err)
	}
	if summary.CorrectCount != 1 {
		t.Errorf("correct = %d, want 1 (late answer must not count)", summary.CorrectCount)
	}
	if summary.Score != 5.0 {
		t.Errorf("score = %v, want 5.0", summary.Score)
	}
}

func TestSkippedQuestionIsNotCredited(t *testing.T) {
	svc, _, clock := newTestExamService(100)
	ctx := context.Background()

	_, examCtx, err := svc.StartAttempt(ctx, 1001, model.KindPractice)
	if err != nil {
		t.Fatalf("StartAttempt: %v", err)
	}

	view, examCtx, err := svc.GetQuestion(ctx, examCtx)
	if err != nil {
		t.Fatalf("GetQuestion: %v", err)
	}
	clock.advance(5 * time.Second)
	examCtx, err = svc.SubmitAnswer(ctx, examCtx, &model.SubmitAnswerRequest{QuestionID: view.Question.ID, OptionID: nil})
	if err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}

	summary, err := svc.CloseAttempt(ctx, examCtx)
	if err != nil {
		t.Fatalf("CloseAttempt: %v", err)
	}
	if summary.CorrectCount != 0 {
		t.Errorf("correct = %d, want 0", summary.CorrectCount)
	}
}

func TestQuestionWalkDeliversEveryQuestionOnce(t *testing.T) {
	svc, _, clock := newTestExamService(100)
	ctx := context.Background()

	_, examCtx, err := svc.StartAttempt(ctx, 1001, model.KindPractice)
	if err != nil {
		t.Fatalf("StartAttempt: %v", err)
	}

	seen := make(map[int64]bool)
	for i := 0; i < 20; i++ {
		view, updated, err := svc.GetQuestion(ctx, examCtx)
		if err != nil {
			t.Fatalf("GetQuestion %d: %v", i, err)
		}
		if view.Index != i {
			t.Errorf("index = %d, want %d", view.Index, i)
		}
		if view.Total != 20 {
			t.Errorf("total = %d, want 20", view.Total)
		}
		if len(view.Options) != 4 {
			t.Errorf("options = %d, want 4", len(view.Options))
		}
		if seen[view.Question.ID] {
			t.Errorf("question %d delivered twice", view.Question.ID)
		}
		seen[view.Question.ID] = true
		if updated.QuestionShownAt.IsZero() {
			t.Error("delivery must stamp QuestionShownAt")
		}

		clock.advance(time.Second)
		optionID := correctOptionFor(view.Question.ID)
		examCtx, err = svc.SubmitAnswer(ctx, updated, &model.SubmitAnswerRequest{QuestionID: view.Question.ID, OptionID: &optionID})
		if err != nil {
			t.Fatalf("SubmitAnswer %d: %v", i, err)
		}
		if examCtx.QuestionIndex != i+1 {
			t.Errorf("QuestionIndex = %d, want %d", examCtx.QuestionIndex, i+1)
		}
	}

	// Past the last question the exam reports completion.
	_, _, err = svc.GetQuestion(ctx, examCtx)
	if !errors.Is(err, ErrNoMoreQuestions) {
		t.Fatalf("got %v, want ErrNoMoreQuestions", err)
	}
}

func TestResubmitOverwritesEarlierAnswer(t *testing.T) {
	svc, _, clock := newTestExamService(100)
	ctx := context.Background()

	_, examCtx, err := svc.StartAttempt(ctx, 1001, model.KindPractice)
	if err != nil {
		t.Fatalf("StartAttempt: %v", err)
	}

	view, examCtx, err := svc.GetQuestion(ctx, examCtx)
	if err != nil {
		t.Fatalf("GetQuestion: %v", err)
	}

	clock.advance(5 * time.Second)
	wrong := wrongOptionFor(view.Question.ID)
	afterFirst, err := svc.SubmitAnswer(ctx, examCtx, &model.SubmitAnswerRequest{QuestionID: view.Question.ID, OptionID: &wrong})
	if err != nil {
		t.Fatalf("first SubmitAnswer: %v", err)
	}

	// Re-answer the same question with the correct option. Last write wins.
	clock.advance(5 * time.Second)
	correct := correctOptionFor(view.Question.ID)
	_, err = svc.SubmitAnswer(ctx, examCtx, &model.SubmitAnswerRequest{QuestionID: view.Question.ID, OptionID: &correct})
	if err != nil {
		t.Fatalf("second SubmitAnswer: %v", err)
	}

	summary, err := svc.CloseAttempt(ctx, afterFirst)
	if err != nil {
		t.Fatalf("CloseAttempt: %v", err)
	}
	if summary.CorrectCount != 1 {
		t.Errorf("correct = %d, want 1", summary.CorrectCount)
	}
}

func TestSubmitRejectsForeignOption(t *testing.T) {
	svc, _, clock := newTestExamService(100)
	ctx := context.Background()

	_, examCtx, err := svc.StartAttempt(ctx, 1001, model.KindPractice)
	if err != nil {
		t.Fatalf("StartAttempt: %v", err)
	}

	view, examCtx, err := svc.GetQuestion(ctx, examCtx)
	if err != nil {
		t.Fatalf("GetQuestion: %v", err)
	}
	clock.advance(time.Second)

	// An option belonging to a different question.
	foreign := correctOptionFor(view.Question.ID + 1)
	_, err = svc.SubmitAnswer(ctx, examCtx, &model.SubmitAnswerRequest{QuestionID: view.Question.ID, OptionID: &foreign})
	if !errors.Is(err, ErrInvalidOption) {
		t.Fatalf("got %v, want ErrInvalidOption", err)
	}
}

func TestCloseIsOneTime(t *testing.T) {
	svc, attempts, clock := newTestExamService(100)
	ctx := context.Background()

	examCtx := takeExam(t, svc, clock, 1001, model.KindPractice, 20)

	first, err := svc.CloseAttempt(ctx, examCtx)
	if err != nil {
		t.Fatalf("first close: %v", err)
	}

	_, err = svc.CloseAttempt(ctx, examCtx)
	if !errors.Is(err, ErrAttemptClosed) {
		t.Fatalf("second close: got %v, want ErrAttemptClosed", err)
	}

	// The stored score is the one from the first close.
	stored, err := attempts.GetByID(ctx, examCtx.AttemptID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.Score != first.Score {
		t.Errorf("stored score = %v, want %v", stored.Score, first.Score)
	}
	if stored.Status != model.AttemptClosed {
		t.Errorf("status = %v, want closed", stored.Status)
	}
}

func TestOperationsAfterCloseAreRejected(t *testing.T) {
	svc, _, clock := newTestExamService(100)
	ctx := context.Background()

	examCtx := takeExam(t, svc, clock, 1001, model.KindPractice, 10)
	if _, err := svc.CloseAttempt(ctx, examCtx); err != nil {
		t.Fatalf("CloseAttempt: %v", err)
	}

	// Delivery against the closed attempt.
	stale := *examCtx
	stale.QuestionIndex = 0
	if _, _, err := svc.GetQuestion(ctx, &stale); !errors.Is(err, ErrAttemptClosed) {
		t.Errorf("GetQuestion: got %v, want ErrAttemptClosed", err)
	}

	// Answering against the closed attempt.
	optionID := correctOptionFor(1)
	if _, err := svc.SubmitAnswer(ctx, &stale, &model.SubmitAnswerRequest{QuestionID: 1, OptionID: &optionID}); !errors.Is(err, ErrAttemptClosed) {
		t.Errorf("SubmitAnswer: got %v, want ErrAttemptClosed", err)
	}
}

func TestNilContextIsNoActiveAttempt(t *testing.T) {
	svc, _, _ := newTestExamService(100)
	ctx := context.Background()

	if _, _, err := svc.GetQuestion(ctx, nil); !errors.Is(err, ErrNoActiveAttempt) {
		t.Errorf("GetQuestion: got %v, want ErrNoActiveAttempt", err)
	}
	optionID := int64(10)
	if _, err := svc.SubmitAnswer(ctx, nil, &model.SubmitAnswerRequest{QuestionID: 1, OptionID: &optionID}); !errors.Is(err, ErrNoActiveAttempt) {
		t.Errorf("SubmitAnswer: got %v, want ErrNoActiveAttempt", err)
	}
	if _, err := svc.CloseAttempt(ctx, nil); !errors.Is(err, ErrNoActiveAttempt) {
		t.Errorf("CloseAttempt: got %v, want ErrNoActiveAttempt", err)
	}
}

func TestAttemptDetailIsOwnerFiltered(t *testing.T) {
	svc, _, clock := newTestExamService(100)
	ctx := context.Background()

	examCtx := takeExam(t, svc, clock, 1001, model.KindPractice, 12)
	if _, err := svc.CloseAttempt(ctx, examCtx); err != nil {
		t.Fatalf("CloseAttempt: %v", err)
	}

	owner := int64(1001)
	detail, err := svc.AttemptDetail(ctx, examCtx.AttemptID, &owner)
	if err != nil {
		t.Fatalf("owner detail: %v", err)
	}
	if detail.Correct != 12 || detail.Incorrect != 8 || detail.Unanswered != 0 {
		t.Errorf("counters = %d/%d/%d, want 12/8/0", detail.Correct, detail.Incorrect, detail.Unanswered)
	}

	// Someone else's matricula sees nothing, not even existence.
	other := int64(9999)
	if _, err := svc.AttemptDetail(ctx, examCtx.AttemptID, &other); !errors.Is(err, ErrAttemptNotFound) {
		t.Errorf("foreign detail: got %v, want ErrAttemptNotFound", err)
	}

	// Admin access (nil owner) sees any attempt.
	if _, err := svc.AttemptDetail(ctx, examCtx.AttemptID, nil); err != nil {
		t.Errorf("admin detail: %v", err)
	}
}

func TestCloseRecordsTotalDuration(t *testing.T) {
	svc, attempts, clock := newTestExamService(100)
	ctx := context.Background()

	_, examCtx, err := svc.StartAttempt(ctx, 1001, model.KindPractice)
	if err != nil {
		t.Fatalf("StartAttempt: %v", err)
	}

	clock.advance(7 * time.Minute)
	if _, err := svc.CloseAttempt(ctx, examCtx); err != nil {
		t.Fatalf("CloseAttempt: %v", err)
	}

	stored, err := attempts.GetByID(ctx, examCtx.AttemptID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.TotalDurationSeconds == nil || *stored.TotalDurationSeconds != 420 {
		t.Errorf("duration = %v, want 420", stored.TotalDurationSeconds)
	}
}
