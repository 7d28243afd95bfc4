package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// LoginSessionKey returns the cache key for a user's login session (JTI).
func (r *CacheKeyStruct) LoginSessionKey(matricula int64) string {
	return fmt.Sprintf("login:%d", matricula)
}

// ExamContextKey returns the cache key for a student's in-progress exam
// context (active attempt, presentation index, question-shown timestamp).
func (r *CacheKeyStruct) ExamContextKey(matricula int64) string {
	return fmt.Sprintf("student:%d:exam_context", matricula)
}

// AdminDashboardKey returns the cache key for the admin dashboard aggregates.
func (r *CacheKeyStruct) AdminDashboardKey() string {
	return "dashboard:admin"
}

var CacheKey = NewCacheKeyStruct()
