package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/grupovial/drivetest-backend/internal/config"
	"github.com/grupovial/drivetest-backend/internal/handler"
	"github.com/grupovial/drivetest-backend/internal/middleware"
	"github.com/grupovial/drivetest-backend/internal/response"
	"github.com/grupovial/drivetest-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth      *handler.AuthHandler
	Exam      *handler.ExamHandler
	Question  *handler.QuestionHandler
	Student   *handler.StudentHandler
	Dashboard *handler.DashboardHandler
	Media     *handler.MediaHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Apply brotli middleware globally.
	router.Use(middleware.Brotli())

	// Serve question images statically with aggressive caching (1 year).
	uploadsGroup := router.Group("/uploads")
	uploadsGroup.Use(middleware.CacheControl(31536000))
	{
		uploadsGroup.Static("/", cfg.UploadDir)
	}

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for auth routes (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/register", handlers.Auth.Register)
		auth.POST("/login", handlers.Auth.Login)

		// Authenticated profile routes
		auth.POST("/logout", middleware.RequireJWT(authService), handlers.Auth.Logout)
		auth.GET("/me", middleware.RequireJWT(authService), handlers.Auth.Me)
	}

	// ─── 2. Student Group (JWT + Single Device) ────────────────────────
	studentAPI := router.Group("/api/v1/student")
	studentAPI.Use(
		middleware.RequireStudentJWT(authService),
		middleware.CheckSingleDeviceSession(authService),
	)
	{
		studentAPI.POST("/attempts", handlers.Exam.StartAttempt)
		studentAPI.GET("/attempts", handlers.Exam.ListAttempts)
		studentAPI.GET("/attempts/current/question", handlers.Exam.GetQuestion)
		studentAPI.POST("/attempts/current/answer", handlers.Exam.SubmitAnswer)
		studentAPI.POST("/attempts/current/close", handlers.Exam.CloseAttempt)
		studentAPI.GET("/attempts/:id", handlers.Exam.GetAttemptDetail)
		studentAPI.GET("/dashboard", handlers.Dashboard.Student)
	}

	// ─── 3. Admin Group (JWT) ──────────────────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(middleware.RequireAdminJWT(authService))
	{
		// Question bank management
		adminAPI.GET("/questions", handlers.Question.List)
		adminAPI.POST("/questions", handlers.Question.Create)
		adminAPI.GET("/questions/:id/options", handlers.Question.Options)
		adminAPI.PUT("/questions/:id", handlers.Question.Update)
		adminAPI.DELETE("/questions/:id", handlers.Question.Delete)

		// Question image uploads
		adminAPI.POST("/media/question-images", handlers.Media.UploadQuestionImage)

		// Student administration
		adminAPI.GET("/students", handlers.Student.List)
		adminAPI.POST("/students/:matricula/reset-session", handlers.Student.ResetSession)

		// Attempt review and analytics
		adminAPI.GET("/attempts/:id", handlers.Exam.GetAttemptDetailAdmin)
		adminAPI.GET("/dashboard", handlers.Dashboard.Admin)
	}

	return router
}
