package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/grupovial/drivetest-backend/internal/config"
	"github.com/grupovial/drivetest-backend/internal/model"
	"github.com/redis/go-redis/v9"
)

// examContextTTL bounds how long an abandoned exam context lingers in Redis.
// The attempt itself stays in_progress in the database either way.
const examContextTTL = 24 * time.Hour

// ExamContextStore persists each student's in-progress exam context in
// Redis, keyed by matricula. Handlers load the context before calling the
// exam service and save the returned copy after.
type ExamContextStore struct {
	redis *redis.Client
}

// NewExamContextStore creates a new ExamContextStore.
func NewExamContextStore(redisClient *redis.Client) *ExamContextStore {
	return &ExamContextStore{redis: redisClient}
}

// Load returns the student's exam context, or nil when no exam is in
// progress.
func (s *ExamContextStore) Load(ctx context.Context, matricula int64) (*model.ExamContext, error) {
	raw, err := s.redis.Get(ctx, config.CacheKey.ExamContextKey(matricula)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("load exam context: %w", err)
	}

	var examCtx model.ExamContext
	if err := json.Unmarshal(raw, &examCtx); err != nil {
		return nil, fmt.Errorf("decode exam context: %w", err)
	}
	return &examCtx, nil
}

// Save overwrites the student's exam context.
func (s *ExamContextStore) Save(ctx context.Context, matricula int64, examCtx *model.ExamContext) error {
	raw, err := json.Marshal(examCtx)
	if err != nil {
		return fmt.Errorf("encode exam context: %w", err)
	}
	return s.redis.Set(ctx, config.CacheKey.ExamContextKey(matricula), raw, examContextTTL).Err()
}

// Clear removes the student's exam context. Clearing an absent context is
// not an error.
func (s *ExamContextStore) Clear(ctx context.Context, matricula int64) error {
	return s.redis.Del(ctx, config.CacheKey.ExamContextKey(matricula)).Err()
}
