package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/grupovial/drivetest-backend/internal/middleware"
	"github.com/grupovial/drivetest-backend/internal/model"
	"github.com/grupovial/drivetest-backend/internal/response"
	"github.com/grupovial/drivetest-backend/internal/service"
	"github.com/grupovial/drivetest-backend/internal/validator"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// AuthHandler handles registration, login, and session endpoints.
type AuthHandler struct {
	authService    *service.AuthService
	studentService *service.StudentService
	examCtxStore   *service.ExamContextStore
	logger         zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *service.AuthService, studentService *service.StudentService, examCtxStore *service.ExamContextStore) *AuthHandler {
	return &AuthHandler{
		authService:    authService,
		studentService: studentService,
		examCtxStore:   examCtxStore,
		logger:         log.With().Str("component", "auth_handler").Logger(),
	}
}

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	student, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrDuplicateStudent) {
			response.Fail(c, http.StatusConflict, response.ErrConflict)
			return
		}
		h.logger.Error().Err(err).Msg("register failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, student)
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	token, student, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
			return
		}
		h.logger.Error().Err(err).Msg("login failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"token":   token,
		"student": student,
	})
}

// Logout handles POST /api/v1/auth/logout
// Ending the session also abandons any exam in progress.
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	if err := h.authService.Logout(c.Request.Context(), claims.Matricula); err != nil {
		h.logger.Error().Err(err).Msg("logout failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if err := h.examCtxStore.Clear(c.Request.Context(), claims.Matricula); err != nil {
		h.logger.Warn().Err(err).Int64("matricula", claims.Matricula).Msg("exam context clear on logout failed")
	}

	response.Success(c, http.StatusOK, nil)
}

// Me handles GET /api/v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	student, err := h.studentService.Get(c.Request.Context(), claims.Matricula)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, student)
}
