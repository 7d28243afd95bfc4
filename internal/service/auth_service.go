package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/grupovial/drivetest-backend/internal/config"
	"github.com/grupovial/drivetest-backend/internal/model"
	"github.com/grupovial/drivetest-backend/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid matricula or password")
	ErrDuplicateStudent   = repository.ErrDuplicateStudent
)

// Claims is the JWT payload issued on login. The JTI doubles as the
// single-device session handle stored in Redis.
type Claims struct {
	Matricula int64      `json:"matricula"`
	Role      model.Role `json:"role"`
	jwt.RegisteredClaims
}

type studentStore interface {
	GetByMatricula(ctx context.Context, matricula int64) (*model.Student, error)
	Create(ctx context.Context, s *model.Student) error
}

// AuthService handles registration, login, and session lifecycle.
type AuthService struct {
	students studentStore
	redis    *redis.Client
	cfg      *config.Config
	logger   zerolog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(students studentStore, redisClient *redis.Client, cfg *config.Config) *AuthService {
	return &AuthService{
		students: students,
		redis:    redisClient,
		cfg:      cfg,
		logger:   log.With().Str("component", "auth_service").Logger(),
	}
}

// Register creates a new student account with a bcrypt-hashed password.
func (s *AuthService) Register(ctx context.Context, req *model.RegisterRequest) (*model.Student, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	student := &model.Student{
		Matricula:      req.Matricula,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		SecondLastName: req.SecondLastName,
		Email:          req.Email,
		Phone:          req.Phone,
		PasswordHash:   string(hash),
		Role:           model.RoleStudent,
	}

	if err := s.students.Create(ctx, student); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("matricula", student.Matricula).Msg("student registered")
	return student, nil
}

// Login verifies credentials and issues a signed JWT. The token's JTI is
// stored in Redis as the student's single active session: logging in again
// invalidates any token issued before.
func (s *AuthService) Login(ctx context.Context, req *model.LoginRequest) (string, *model.Student, error) {
	student, err := s.students.GetByMatricula(ctx, req.Matricula)
	if err != nil {
		// Not-found and wrong password answer identically.
		return "", nil, ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword([]byte(student.PasswordHash), []byte(req.Password)) != nil {
		return "", nil, ErrInvalidCredentials
	}

	jti := uuid.NewString()
	token, err := s.generateToken(student, jti)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}

	err = s.redis.Set(ctx, config.CacheKey.LoginSessionKey(student.Matricula), jti, s.cfg.JWTExpiry).Err()
	if err != nil {
		return "", nil, fmt.Errorf("store session: %w", err)
	}

	s.logger.Info().Int64("matricula", student.Matricula).Str("role", string(student.Role)).Msg("login")
	return token, student, nil
}

// Logout drops the student's active session. Tokens issued before become
// unusable on the next request.
func (s *AuthService) Logout(ctx context.Context, matricula int64) error {
	return s.redis.Del(ctx, config.CacheKey.LoginSessionKey(matricula)).Err()
}

// ResetSession force-clears a student's session, for admin support cases.
func (s *AuthService) ResetSession(ctx context.Context, matricula int64) error {
	return s.redis.Del(ctx, config.CacheKey.LoginSessionKey(matricula)).Err()
}

// ValidateToken parses and verifies a JWT, returning its claims.
func (s *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// ValidateStudentSession checks that the token's JTI is still the student's
// active session. A mismatch means a newer login or an admin session reset.
func (s *AuthService) ValidateStudentSession(ctx context.Context, matricula int64, jti string) error {
	stored, err := s.redis.Get(ctx, config.CacheKey.LoginSessionKey(matricula)).Result()
	if err != nil {
		return fmt.Errorf("no active session: %w", err)
	}
	if stored != jti {
		return errors.New("session superseded")
	}
	return nil
}

// jwtNow supplies token timestamps; a variable so it can be pinned.
var jwtNow = time.Now

func (s *AuthService) generateToken(student *model.Student, jti string) (string, error) {
	now := jwtNow()
	claims := Claims{
		Matricula: student.Matricula,
		Role:      student.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   fmt.Sprintf("%d", student.Matricula),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWTExpiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}
