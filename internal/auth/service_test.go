package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgAuth "github.com/brieflyhq/briefly-backend/pkg/auth"
	"github.com/brieflyhq/briefly-backend/pkg/auth/session"
	"github.com/brieflyhq/briefly-backend/pkg/config"
	"github.com/brieflyhq/briefly-backend/pkg/db/models"
	pkgerrors "github.com/brieflyhq/briefly-backend/pkg/errors"
	"github.com/brieflyhq/briefly-backend/pkg/security"
)

func TestServiceLoginIssuesTokens(t *testing.T) {
	password := "reader-secret"
	hashed := mustHashPassword(t, password)
	user := &models.User{
		ID:           uuid.New(),
		Email:        "reader@example.com",
		PasswordHash: hashed,
		FullName:     "Reader One",
		IsActive:     true,
		IsSubscriber: true,
		Plan:         "pro",
	}
	cfg := config.JWTConfig{
		Secret:            "secret",
		Issuer:            "briefly",
		ExpirationMinutes: 30,
	}

	svc, _, err := buildTestService(user, cfg)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	resp, err := svc.Login(context.Background(), LoginRequest{
		Email:    user.Email,
		Password: password,
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	claims, err := pkgAuth.ParseAccessToken(cfg, resp.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.UserID != user.ID {
		t.Fatalf("expected user id claim %s, got %s", user.ID, claims.UserID)
	}
	if !claims.IsSubscriber {
		t.Fatal("expected subscriber claim")
	}
	if resp.RefreshToken == "" {
		t.Fatal("expected refresh token to be set")
	}
	if resp.User == nil || resp.User.LastLoginAt == nil {
		t.Fatal("expected last login recorded on response user")
	}
}

func TestServiceLoginWrongPassword(t *testing.T) {
	hashed := mustHashPassword(t, "right-password")
	user := &models.User{
		ID:           uuid.New(),
		Email:        "reader@example.com",
		PasswordHash: hashed,
		FullName:     "Reader One",
		IsActive:     true,
	}
	cfg := config.JWTConfig{Secret: "secret", Issuer: "briefly", ExpirationMinutes: 30}

	svc, _, err := buildTestService(user, cfg)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	_, err = svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: "wrong"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
}

func TestServiceLoginInactiveAccount(t *testing.T) {
	password := "inactive-secret"
	hashed := mustHashPassword(t, password)
	user := &models.User{
		ID:           uuid.New(),
		Email:        "gone@example.com",
		PasswordHash: hashed,
		FullName:     "Gone User",
		IsActive:     false,
	}
	cfg := config.JWTConfig{Secret: "secret", Issuer: "briefly", ExpirationMinutes: 30}

	svc, _, err := buildTestService(user, cfg)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	_, err = svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: password})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
}

func TestServiceLoginUnknownEmail(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "briefly", ExpirationMinutes: 30}
	svc, _, err := buildTestService(nil, cfg)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	_, err = svc.Login(context.Background(), LoginRequest{Email: "missing@example.com", Password: "anything"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
}

func TestServiceRefreshRotatesSession(t *testing.T) {
	password := "refresh-secret"
	hashed := mustHashPassword(t, password)
	user := &models.User{
		ID:           uuid.New(),
		Email:        "reader@example.com",
		PasswordHash: hashed,
		FullName:     "Reader One",
		IsActive:     true,
	}
	cfg := config.JWTConfig{Secret: "secret", Issuer: "briefly", ExpirationMinutes: 30}

	svc, sessions, err := buildTestService(user, cfg)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	resp, err := svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: password})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	// Promote the user between login and refresh; the new token must see it.
	user.IsSubscriber = true

	refreshed, err := svc.Refresh(context.Background(), resp.AccessToken, resp.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed.RefreshToken == resp.RefreshToken {
		t.Fatal("expected rotated refresh token")
	}

	claims, err := pkgAuth.ParseAccessToken(cfg, refreshed.AccessToken)
	if err != nil {
		t.Fatalf("parse refreshed token: %v", err)
	}
	if !claims.IsSubscriber {
		t.Fatal("expected refreshed token to carry new entitlement")
	}
	if sessions.revoked[claimsJTI(t, cfg, resp.AccessToken)] != true {
		t.Fatal("expected old session removed on rotate")
	}
}

func TestServiceRefreshRejectsBadToken(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "briefly", ExpirationMinutes: 30}
	svc, _, err := buildTestService(nil, cfg)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	_, err = svc.Refresh(context.Background(), "not-a-jwt", "whatever")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
}

func claimsJTI(t *testing.T, cfg config.JWTConfig, token string) string {
	t.Helper()
	claims, err := pkgAuth.ParseAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	return claims.ID
}

func buildTestService(user *models.User, jwtCfg config.JWTConfig) (Service, *stubSessionManager, error) {
	userRepo := stubUserRepo{user: user}
	sessionMgr := newStubSessionManager()
	svc, err := NewService(ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessionMgr,
		JWTConfig:      jwtCfg,
	})
	return svc, sessionMgr, err
}

func mustHashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return hash
}

type stubUserRepo struct {
	user *models.User
	err  error
}

func (s stubUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.user == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.user, nil
}

func (s stubUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if s.user == nil || s.user.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.user, nil
}

func (s stubUserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	if s.user != nil && s.user.ID == id {
		s.user.LastLoginAt = &at
	}
	return nil
}

type stubSessionManager struct {
	tokens  map[string]string
	revoked map[string]bool
	counter int
}

func newStubSessionManager() *stubSessionManager {
	return &stubSessionManager{
		tokens:  map[string]string{},
		revoked: map[string]bool{},
	}
}

func (s *stubSessionManager) Generate(ctx context.Context, accessID string) (string, error) {
	s.counter++
	token := uuid.NewString()
	s.tokens[accessID] = token
	return token, nil
}

func (s *stubSessionManager) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	stored, ok := s.tokens[oldAccessID]
	if !ok || stored != provided {
		return "", "", session.ErrInvalidRefreshToken
	}
	delete(s.tokens, oldAccessID)
	s.revoked[oldAccessID] = true
	newAccessID := uuid.NewString()
	newToken := uuid.NewString()
	s.tokens[newAccessID] = newToken
	return newAccessID, newToken, nil
}

func (s *stubSessionManager) Revoke(ctx context.Context, accessID string) error {
	delete(s.tokens, accessID)
	s.revoked[accessID] = true
	return nil
}
