package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/grupovial/drivetest-backend/internal/model"
	"github.com/grupovial/drivetest-backend/internal/response"
	"github.com/grupovial/drivetest-backend/internal/service"
	"github.com/grupovial/drivetest-backend/internal/validator"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// QuestionHandler exposes question bank administration.
type QuestionHandler struct {
	questionService *service.QuestionService
	logger          zerolog.Logger
}

// NewQuestionHandler creates a new QuestionHandler.
func NewQuestionHandler(questionService *service.QuestionService) *QuestionHandler {
	return &QuestionHandler{
		questionService: questionService,
		logger:          log.With().Str("component", "question_handler").Logger(),
	}
}

// List handles GET /api/v1/admin/questions
func (h *QuestionHandler) List(c *gin.Context) {
	page, perPage := parsePagination(c)

	questions, total, err := h.questionService.List(c.Request.Context(), perPage, (page-1)*perPage)
	if err != nil {
		h.logger.Error().Err(err).Msg("question list failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, questions, buildPagination(page, perPage, total))
}

// Options handles GET /api/v1/admin/questions/:id/options
func (h *QuestionHandler) Options(c *gin.Context) {
	questionID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	options, err := h.questionService.OptionsFor(c.Request.Context(), questionID)
	if err != nil {
		h.logger.Error().Err(err).Msg("options lookup failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, options)
}

// Create handles POST /api/v1/admin/questions
func (h *QuestionHandler) Create(c *gin.Context) {
	var req model.CreateQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	question, err := h.questionService.Create(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrOneCorrectOption) {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{
				"options": "Debe haber exactamente una opción correcta.",
			})
			return
		}
		h.logger.Error().Err(err).Msg("question create failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, question)
}

// Update handles PUT /api/v1/admin/questions/:id
func (h *QuestionHandler) Update(c *gin.Context) {
	questionID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.CreateQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.questionService.Update(c.Request.Context(), questionID, &req); err != nil {
		switch {
		case errors.Is(err, service.ErrQuestionNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, service.ErrOneCorrectOption):
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{
				"options": "Debe haber exactamente una opción correcta.",
			})
		default:
			h.logger.Error().Err(err).Msg("question update failed")
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, nil)
}

// Delete handles DELETE /api/v1/admin/questions/:id
func (h *QuestionHandler) Delete(c *gin.Context) {
	questionID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.questionService.Delete(c.Request.Context(), questionID); err != nil {
		if errors.Is(err, service.ErrQuestionNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		h.logger.Error().Err(err).Msg("question delete failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, nil)
}

func parsePagination(c *gin.Context) (page, perPage int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	perPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return page, perPage
}

func buildPagination(page, perPage, total int) *response.Pagination {
	totalPages := total / perPage
	if total%perPage != 0 {
		totalPages++
	}
	return &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: totalPages,
	}
}
