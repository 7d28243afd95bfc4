package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/grupovial/drivetest-backend/internal/config"
	"github.com/grupovial/drivetest-backend/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

type fakeStudentStore struct {
	students map[int64]*model.Student
}

func newFakeStudentStore() *fakeStudentStore {
	return &fakeStudentStore{students: make(map[int64]*model.Student)}
}

func (f *fakeStudentStore) GetByMatricula(_ context.Context, matricula int64) (*model.Student, error) {
	s, ok := f.students[matricula]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *s
	return &copied, nil
}

func (f *fakeStudentStore) Create(_ context.Context, s *model.Student) error {
	if _, ok := f.students[s.Matricula]; ok {
		return ErrDuplicateStudent
	}
	s.CreatedAt = time.Now()
	stored := *s
	f.students[s.Matricula] = &stored
	return nil
}

func newTestAuthService(t *testing.T) (*AuthService, *fakeStudentStore) {
	t.Helper()
	students := newFakeStudentStore()
	cfg := &config.Config{
		JWTSecret:  "test-secret",
		JWTExpiry:  time.Hour,
		BcryptCost: bcrypt.MinCost,
	}
	svc := &AuthService{
		students: students,
		redis:    newTestRedis(t),
		cfg:      cfg,
		logger:   zerolog.Nop(),
	}
	return svc, students
}

func TestRegisterHashesPassword(t *testing.T) {
	svc, students := newTestAuthService(t)

	student, err := svc.Register(context.Background(), &model.RegisterRequest{
		Matricula: 1001,
		FirstName: "Laura",
		LastName:  "Mendoza",
		Email:     "laura@example.com",
		Password:  "hunter22",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if student.Role != model.RoleStudent {
		t.Errorf("role = %v, want student", student.Role)
	}
	stored := students.students[1001]
	if stored.PasswordHash == "hunter22" {
		t.Fatal("password stored in plain text")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("hunter22")); err != nil {
		t.Errorf("stored hash does not match password: %v", err)
	}
}

func TestRegisterDuplicateMatricula(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	req := &model.RegisterRequest{
		Matricula: 1001,
		FirstName: "Laura",
		LastName:  "Mendoza",
		Email:     "laura@example.com",
		Password:  "hunter22",
	}
	if _, err := svc.Register(ctx, req); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if _, err := svc.Register(ctx, req); !errors.Is(err, ErrDuplicateStudent) {
		t.Fatalf("second Register: got %v, want ErrDuplicateStudent", err)
	}
}

func TestLoginIssuesValidToken(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, &model.RegisterRequest{
		Matricula: 1001, FirstName: "Laura", LastName: "Mendoza",
		Email: "laura@example.com", Password: "hunter22",
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	token, student, err := svc.Login(ctx, &model.LoginRequest{Matricula: 1001, Password: "hunter22"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if student.Matricula != 1001 {
		t.Errorf("matricula = %d, want 1001", student.Matricula)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.Matricula != 1001 || claims.Role != model.RoleStudent {
		t.Errorf("claims = %+v", claims)
	}
	if err := svc.ValidateStudentSession(ctx, 1001, claims.ID); err != nil {
		t.Errorf("fresh session rejected: %v", err)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, &model.RegisterRequest{
		Matricula: 1001, FirstName: "Laura", LastName: "Mendoza",
		Email: "laura@example.com", Password: "hunter22",
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, _, err := svc.Login(ctx, &model.LoginRequest{Matricula: 1001, Password: "wrong"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: got %v, want ErrInvalidCredentials", err)
	}
	// Unknown matricula answers identically.
	if _, _, err := svc.Login(ctx, &model.LoginRequest{Matricula: 9999, Password: "hunter22"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown matricula: got %v, want ErrInvalidCredentials", err)
	}
}

func TestSecondLoginSupersedesFirstSession(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, &model.RegisterRequest{
		Matricula: 1001, FirstName: "Laura", LastName: "Mendoza",
		Email: "laura@example.com", Password: "hunter22",
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	first, _, err := svc.Login(ctx, &model.LoginRequest{Matricula: 1001, Password: "hunter22"})
	if err != nil {
		t.Fatalf("first Login: %v", err)
	}
	firstClaims, err := svc.ValidateToken(first)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}

	if _, _, err := svc.Login(ctx, &model.LoginRequest{Matricula: 1001, Password: "hunter22"}); err != nil {
		t.Fatalf("second Login: %v", err)
	}

	// The first device's JTI is no longer the active session.
	if err := svc.ValidateStudentSession(ctx, 1001, firstClaims.ID); err == nil {
		t.Error("first session still valid after second login")
	}
}

func TestLogoutEndsSession(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, &model.RegisterRequest{
		Matricula: 1001, FirstName: "Laura", LastName: "Mendoza",
		Email: "laura@example.com", Password: "hunter22",
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	token, _, err := svc.Login(ctx, &model.LoginRequest{Matricula: 1001, Password: "hunter22"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}

	if err := svc.Logout(ctx, 1001); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if err := svc.ValidateStudentSession(ctx, 1001, claims.ID); err == nil {
		t.Error("session still valid after logout")
	}
}

func TestValidateTokenRejectsTampering(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, &model.RegisterRequest{
		Matricula: 1001, FirstName: "Laura", LastName: "Mendoza",
		Email: "laura@example.com", Password: "hunter22",
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	token, _, err := svc.Login(ctx, &model.LoginRequest{Matricula: 1001, Password: "hunter22"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if _, err := svc.ValidateToken(token + "x"); err == nil {
		t.Error("tampered token accepted")
	}
	if _, err := svc.ValidateToken("not-a-token"); err == nil {
		t.Error("garbage token accepted")
	}
}
