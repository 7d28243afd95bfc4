package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/grupovial/drivetest-backend/internal/config"
	"github.com/grupovial/drivetest-backend/internal/model"
	"github.com/grupovial/drivetest-backend/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DashboardService assembles the student and admin analytics views. The
// admin view aggregates over the whole system, so it is cached in Redis
// and recomputed at most once per TTL.
type DashboardService struct {
	dashboards *repository.DashboardRepository
	attempts   *repository.AttemptRepository
	redis      *redis.Client
	cfg        *config.Config
	logger     zerolog.Logger
}

// NewDashboardService creates a new DashboardService.
func NewDashboardService(dashboards *repository.DashboardRepository, attempts *repository.AttemptRepository, redisClient *redis.Client, cfg *config.Config) *DashboardService {
	return &DashboardService{
		dashboards: dashboards,
		attempts:   attempts,
		redis:      redisClient,
		cfg:        cfg,
		logger:     log.With().Str("component", "dashboard_service").Logger(),
	}
}

// StudentDashboard computes one student's performance view. It is cheap
// enough to compute on every request.
func (s *DashboardService) StudentDashboard(ctx context.Context, matricula int64) (*model.StudentDashboard, error) {
	weak, err := s.dashboards.WeakTopicsForStudent(ctx, matricula)
	if err != nil {
		return nil, fmt.Errorf("weak topics: %w", err)
	}

	avgTime, err := s.dashboards.AverageAnswerTimeForStudent(ctx, matricula)
	if err != nil {
		return nil, fmt.Errorf("average answer time: %w", err)
	}

	bestPractice, err := s.dashboards.BestScoreForStudent(ctx, matricula, model.KindPractice)
	if err != nil {
		return nil, fmt.Errorf("best practice score: %w", err)
	}

	bestFinal, err := s.dashboards.BestScoreForStudent(ctx, matricula, model.KindFinal)
	if err != nil {
		return nil, fmt.Errorf("best final score: %w", err)
	}

	predicted, hasPrediction, err := s.dashboards.PredictedFinalScoreForStudent(ctx, matricula)
	if err != nil {
		return nil, fmt.Errorf("predicted score: %w", err)
	}

	practiceCount, err := s.attempts.CountByStudentAndKind(ctx, matricula, model.KindPractice)
	if err != nil {
		return nil, fmt.Errorf("practice count: %w", err)
	}

	finalCount, err := s.attempts.CountByStudentAndKind(ctx, matricula, model.KindFinal)
	if err != nil {
		return nil, fmt.Errorf("final count: %w", err)
	}

	dashboard := &model.StudentDashboard{
		WeakTopics:        weak,
		AvgAnswerSeconds:  avgTime,
		BestPracticeScore: bestPractice,
		BestFinalScore:    bestFinal,
		PracticeAttempts:  practiceCount,
		FinalAttempts:     finalCount,
	}
	if hasPrediction {
		dashboard.PredictedFinalScore = &predicted
	}
	return dashboard, nil
}

// AdminDashboard returns the system-wide analytics view, served from the
// Redis cache when fresh.
func (s *DashboardService) AdminDashboard(ctx context.Context) (*model.AdminDashboard, error) {
	raw, err := s.redis.Get(ctx, config.CacheKey.AdminDashboardKey()).Bytes()
	if err == nil {
		var cached model.AdminDashboard
		if err := json.Unmarshal(raw, &cached); err == nil {
			return &cached, nil
		}
		// Corrupt cache entry, fall through and recompute.
	} else if !errors.Is(err, redis.Nil) {
		s.logger.Warn().Err(err).Msg("dashboard cache read failed, recomputing")
	}

	dashboard, err := s.computeAdminDashboard(ctx)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(dashboard); err == nil {
		if err := s.redis.Set(ctx, config.CacheKey.AdminDashboardKey(), raw, s.cfg.DashboardCacheTTL).Err(); err != nil {
			s.logger.Warn().Err(err).Msg("dashboard cache write failed")
		}
	}
	return dashboard, nil
}

// Prewarm computes the admin dashboard once so the first request after
// startup does not pay for the aggregation.
func (s *DashboardService) Prewarm(ctx context.Context) {
	if _, err := s.AdminDashboard(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("dashboard prewarm failed")
		return
	}
	s.logger.Info().Msg("admin dashboard prewarmed")
}

func (s *DashboardService) computeAdminDashboard(ctx context.Context) (*model.AdminDashboard, error) {
	avg, max, min, err := s.dashboards.GlobalScoreStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("global stats: %w", err)
	}

	passed, failed, err := s.dashboards.FinalExamOutcomes(ctx)
	if err != nil {
		return nil, fmt.Errorf("final outcomes: %w", err)
	}

	topics, err := s.dashboards.HardestTopics(ctx)
	if err != nil {
		return nil, fmt.Errorf("hardest topics: %w", err)
	}

	questions, err := s.dashboards.HardestQuestions(ctx)
	if err != nil {
		return nil, fmt.Errorf("hardest questions: %w", err)
	}

	return &model.AdminDashboard{
		AvgScore:         avg,
		MaxScore:         max,
		MinScore:         min,
		FinalsPassed:     passed,
		FinalsFailed:     failed,
		HardestTopics:    topics,
		HardestQuestions: questions,
	}, nil
}
