package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/grupovial/drivetest-backend/internal/middleware"
	"github.com/grupovial/drivetest-backend/internal/response"
	"github.com/grupovial/drivetest-backend/internal/service"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DashboardHandler exposes the analytics views.
type DashboardHandler struct {
	dashboardService *service.DashboardService
	logger           zerolog.Logger
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(dashboardService *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		logger:           log.With().Str("component", "dashboard_handler").Logger(),
	}
}

// Student handles GET /api/v1/student/dashboard
func (h *DashboardHandler) Student(c *gin.Context) {
	claims := middleware.GetClaims(c)

	dashboard, err := h.dashboardService.StudentDashboard(c.Request.Context(), claims.Matricula)
	if err != nil {
		h.logger.Error().Err(err).Msg("student dashboard failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, dashboard)
}

// Admin handles GET /api/v1/admin/dashboard
func (h *DashboardHandler) Admin(c *gin.Context) {
	dashboard, err := h.dashboardService.AdminDashboard(c.Request.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("admin dashboard failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, dashboard)
}
