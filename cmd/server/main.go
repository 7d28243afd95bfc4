package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/grupovial/drivetest-backend/internal/config"
	"github.com/grupovial/drivetest-backend/internal/database"
	"github.com/grupovial/drivetest-backend/internal/handler"
	"github.com/grupovial/drivetest-backend/internal/logger"
	"github.com/grupovial/drivetest-backend/internal/repository"
	"github.com/grupovial/drivetest-backend/internal/router"
	"github.com/grupovial/drivetest-backend/internal/service"
	"github.com/grupovial/drivetest-backend/internal/validator"
	"github.com/rs/zerolog"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting DriveTest Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	studentRepo := repository.NewStudentRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	attemptRepo := repository.NewAttemptRepository(pool)
	dashboardRepo := repository.NewDashboardRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(studentRepo, rdb, cfg)
	studentService := service.NewStudentService(studentRepo)
	examService := service.NewExamService(attemptRepo, questionRepo)
	examCtxStore := service.NewExamContextStore(rdb)
	questionService := service.NewQuestionService(questionRepo)
	dashboardService := service.NewDashboardService(dashboardRepo, attemptRepo, rdb, cfg)
	mediaService, err := service.NewMediaService(questionRepo, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize media storage")
	}

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:      handler.NewAuthHandler(authService, studentService, examCtxStore),
		Exam:      handler.NewExamHandler(examService, examCtxStore),
		Question:  handler.NewQuestionHandler(questionService),
		Student:   handler.NewStudentHandler(studentService, authService),
		Dashboard: handler.NewDashboardHandler(dashboardService),
		Media:     handler.NewMediaHandler(mediaService),
	}

	// ─── Prewarm Redis Caches ─────────────────────────────────────────
	// Compute the admin dashboard aggregates before accepting traffic so
	// the first admin request does not pay for them.
	dashboardService.Prewarm(ctx)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
