package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/grupovial/drivetest-backend/internal/response"
	"github.com/grupovial/drivetest-backend/internal/service"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// StudentHandler exposes student account administration.
type StudentHandler struct {
	studentService *service.StudentService
	authService    *service.AuthService
	logger         zerolog.Logger
}

// NewStudentHandler creates a new StudentHandler.
func NewStudentHandler(studentService *service.StudentService, authService *service.AuthService) *StudentHandler {
	return &StudentHandler{
		studentService: studentService,
		authService:    authService,
		logger:         log.With().Str("component", "student_handler").Logger(),
	}
}

// List handles GET /api/v1/admin/students
func (h *StudentHandler) List(c *gin.Context) {
	page, perPage := parsePagination(c)

	students, total, err := h.studentService.List(c.Request.Context(), perPage, (page-1)*perPage)
	if err != nil {
		h.logger.Error().Err(err).Msg("student list failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, students, buildPagination(page, perPage, total))
}

// ResetSession handles POST /api/v1/admin/students/:matricula/reset-session
// Kicks the student's active device so they can log in again elsewhere.
func (h *StudentHandler) ResetSession(c *gin.Context) {
	matricula, err := strconv.ParseInt(c.Param("matricula"), 10, 64)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.authService.ResetSession(c.Request.Context(), matricula); err != nil {
		h.logger.Error().Err(err).Msg("session reset failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	h.logger.Info().Int64("matricula", matricula).Msg("session reset by admin")
	response.Success(c, http.StatusOK, nil)
}
