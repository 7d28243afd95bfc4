package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/grupovial/drivetest-backend/internal/model"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestExamContextStoreRoundTrip(t *testing.T) {
	store := NewExamContextStore(newTestRedis(t))
	ctx := context.Background()

	shown := time.Date(2026, 3, 10, 9, 5, 0, 0, time.UTC)
	examCtx := &model.ExamContext{
		AttemptID:       42,
		Kind:            model.KindFinal,
		StartedAt:       shown.Add(-5 * time.Minute),
		QuestionIndex:   7,
		QuestionShownAt: shown,
	}

	if err := store.Save(ctx, 1001, examCtx); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := store.Load(ctx, 1001)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded == nil {
		t.Fatal("Load returned nil for a saved context")
	}
	if loaded.AttemptID != 42 || loaded.Kind != model.KindFinal || loaded.QuestionIndex != 7 {
		t.Errorf("loaded = %+v, want original", loaded)
	}
	if !loaded.QuestionShownAt.Equal(shown) {
		t.Errorf("QuestionShownAt = %v, want %v", loaded.QuestionShownAt, shown)
	}
}

func TestExamContextStoreMissingIsNil(t *testing.T) {
	store := NewExamContextStore(newTestRedis(t))

	loaded, err := store.Load(context.Background(), 1001)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded != nil {
		t.Fatalf("Load = %+v, want nil for absent context", loaded)
	}
}

func TestExamContextStoreClear(t *testing.T) {
	store := NewExamContextStore(newTestRedis(t))
	ctx := context.Background()

	if err := store.Save(ctx, 1001, &model.ExamContext{AttemptID: 1, Kind: model.KindPractice}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Clear(ctx, 1001); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	loaded, err := store.Load(ctx, 1001)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded != nil {
		t.Fatal("context survived Clear")
	}

	// Clearing again is fine.
	if err := store.Clear(ctx, 1001); err != nil {
		t.Fatalf("second Clear: %v", err)
	}
}

func TestExamContextStoreIsPerStudent(t *testing.T) {
	store := NewExamContextStore(newTestRedis(t))
	ctx := context.Background()

	if err := store.Save(ctx, 1001, &model.ExamContext{AttemptID: 1, Kind: model.KindPractice}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := store.Load(ctx, 2002)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded != nil {
		t.Fatal("student 2002 sees student 1001's context")
	}
}
