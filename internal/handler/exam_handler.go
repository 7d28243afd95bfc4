package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/grupovial/drivetest-backend/internal/middleware"
	"github.com/grupovial/drivetest-backend/internal/model"
	"github.com/grupovial/drivetest-backend/internal/response"
	"github.com/grupovial/drivetest-backend/internal/service"
	"github.com/grupovial/drivetest-backend/internal/validator"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ExamHandler exposes the exam attempt lifecycle to students. The student's
// exam context lives in Redis between requests: every lifecycle endpoint
// loads it, hands it to the service, and persists whatever comes back.
type ExamHandler struct {
	examService  *service.ExamService
	examCtxStore *service.ExamContextStore
	logger       zerolog.Logger
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(examService *service.ExamService, examCtxStore *service.ExamContextStore) *ExamHandler {
	return &ExamHandler{
		examService:  examService,
		examCtxStore: examCtxStore,
		logger:       log.With().Str("component", "exam_handler").Logger(),
	}
}

// StartAttempt handles POST /api/v1/student/attempts
func (h *ExamHandler) StartAttempt(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var req model.StartAttemptRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	attempt, examCtx, err := h.examService.StartAttempt(c.Request.Context(), claims.Matricula, req.Kind)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAttemptLimitReached):
			response.Fail(c, http.StatusConflict, response.ErrAttemptLimitReached)
		case errors.Is(err, service.ErrInsufficientContent):
			response.Fail(c, http.StatusConflict, response.ErrInsufficientQuestions)
		default:
			h.logger.Error().Err(err).Msg("start attempt failed")
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	if err := h.examCtxStore.Save(c.Request.Context(), claims.Matricula, examCtx); err != nil {
		h.logger.Error().Err(err).Int64("attempt_id", attempt.ID).Msg("exam context save failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"attempt":         attempt,
		"total_questions": attempt.Kind.QuestionCount(),
	})
}

// GetQuestion handles GET /api/v1/student/attempts/current/question
// Delivering a question starts its answer window. Once every question has
// been delivered the endpoint reports completion instead.
func (h *ExamHandler) GetQuestion(c *gin.Context) {
	claims := middleware.GetClaims(c)

	examCtx, err := h.examCtxStore.Load(c.Request.Context(), claims.Matricula)
	if err != nil {
		h.logger.Error().Err(err).Msg("exam context load failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if examCtx == nil {
		response.Fail(c, http.StatusNotFound, response.ErrNoActiveAttempt)
		return
	}

	view, updated, err := h.examService.GetQuestion(c.Request.Context(), examCtx)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoMoreQuestions):
			response.Success(c, http.StatusOK, gin.H{"completed": true})
		case errors.Is(err, service.ErrAttemptClosed), errors.Is(err, service.ErrAttemptNotFound):
			// Stale context pointing at a finished or missing attempt.
			_ = h.examCtxStore.Clear(c.Request.Context(), claims.Matricula)
			response.Fail(c, http.StatusNotFound, response.ErrNoActiveAttempt)
		default:
			h.logger.Error().Err(err).Msg("question delivery failed")
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	if err := h.examCtxStore.Save(c.Request.Context(), claims.Matricula, updated); err != nil {
		h.logger.Error().Err(err).Msg("exam context save failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, view)
}

// SubmitAnswer handles POST /api/v1/student/attempts/current/answer
func (h *ExamHandler) SubmitAnswer(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var req model.SubmitAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	examCtx, err := h.examCtxStore.Load(c.Request.Context(), claims.Matricula)
	if err != nil {
		h.logger.Error().Err(err).Msg("exam context load failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if examCtx == nil {
		response.Fail(c, http.StatusNotFound, response.ErrNoActiveAttempt)
		return
	}

	updated, err := h.examService.SubmitAnswer(c.Request.Context(), examCtx, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidOption):
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidOption)
		case errors.Is(err, service.ErrUnknownQuestion):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, service.ErrAttemptClosed):
			_ = h.examCtxStore.Clear(c.Request.Context(), claims.Matricula)
			response.Fail(c, http.StatusConflict, response.ErrAttemptClosed)
		default:
			h.logger.Error().Err(err).Msg("answer submission failed")
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	if err := h.examCtxStore.Save(c.Request.Context(), claims.Matricula, updated); err != nil {
		h.logger.Error().Err(err).Msg("exam context save failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"question_index": updated.QuestionIndex})
}

// CloseAttempt handles POST /api/v1/student/attempts/current/close
// The exam context is cleared no matter how closing goes: even when scoring
// fails the student ends up out of the exam, with the attempt recorded.
func (h *ExamHandler) CloseAttempt(c *gin.Context) {
	claims := middleware.GetClaims(c)

	examCtx, err := h.examCtxStore.Load(c.Request.Context(), claims.Matricula)
	if err != nil {
		h.logger.Error().Err(err).Msg("exam context load failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if examCtx == nil {
		response.Fail(c, http.StatusNotFound, response.ErrNoActiveAttempt)
		return
	}

	defer func() {
		if err := h.examCtxStore.Clear(c.Request.Context(), claims.Matricula); err != nil {
			h.logger.Warn().Err(err).Int64("matricula", claims.Matricula).Msg("exam context clear failed")
		}
	}()

	summary, err := h.examService.CloseAttempt(c.Request.Context(), examCtx)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAttemptClosed):
			response.Fail(c, http.StatusConflict, response.ErrAttemptClosed)
		case errors.Is(err, service.ErrAttemptNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		default:
			h.logger.Error().Err(err).Int64("attempt_id", examCtx.AttemptID).Msg("scoring failed")
			response.Fail(c, http.StatusInternalServerError, response.ErrScoringFailed)
		}
		return
	}

	response.Success(c, http.StatusOK, summary)
}

// ListAttempts handles GET /api/v1/student/attempts?kind=practice|final
func (h *ExamHandler) ListAttempts(c *gin.Context) {
	claims := middleware.GetClaims(c)

	kind := model.AttemptKind(c.DefaultQuery("kind", string(model.KindPractice)))
	if !kind.Valid() {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}

	attempts, err := h.examService.AttemptHistory(c.Request.Context(), claims.Matricula, kind)
	if err != nil {
		h.logger.Error().Err(err).Msg("attempt history failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, attempts)
}

// GetAttemptDetail handles GET /api/v1/student/attempts/:id
// Students only see their own attempts; someone else's attempt answers as
// not found.
func (h *ExamHandler) GetAttemptDetail(c *gin.Context) {
	claims := middleware.GetClaims(c)

	attemptID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	detail, err := h.examService.AttemptDetail(c.Request.Context(), attemptID, &claims.Matricula)
	if err != nil {
		if errors.Is(err, service.ErrAttemptNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		h.logger.Error().Err(err).Msg("attempt detail failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, detail)
}

// GetAttemptDetailAdmin handles GET /api/v1/admin/attempts/:id
func (h *ExamHandler) GetAttemptDetailAdmin(c *gin.Context) {
	attemptID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	detail, err := h.examService.AttemptDetail(c.Request.Context(), attemptID, nil)
	if err != nil {
		if errors.Is(err, service.ErrAttemptNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		h.logger.Error().Err(err).Msg("attempt detail failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, detail)
}
