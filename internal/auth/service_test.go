package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgAuth "github.com/shopward/shopward-backend/pkg/auth"
	"github.com/shopward/shopward-backend/pkg/auth/session"
	"github.com/shopward/shopward-backend/pkg/config"
	"github.com/shopward/shopward-backend/pkg/db/models"
	pkgerrors "github.com/shopward/shopward-backend/pkg/errors"
	"github.com/shopward/shopward-backend/pkg/security"
)

type stubUserRepo struct {
	findByEmail     func(ctx context.Context, email string) (*models.User, error)
	findByID        func(ctx context.Context, id uuid.UUID) (*models.User, error)
	updateLastLogin func(ctx context.Context, id uuid.UUID, at time.Time) error

	lastLoginID uuid.UUID
	lastLoginAt time.Time
}

func (s *stubUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findByEmail(ctx, email)
}

func (s *stubUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.findByID(ctx, id)
}

func (s *stubUserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	s.lastLoginID = id
	s.lastLoginAt = at
	if s.updateLastLogin != nil {
		return s.updateLastLogin(ctx, id, at)
	}
	return nil
}

type stubSessionManager struct {
	issue  func(ctx context.Context, userID string) (string, error)
	rotate func(ctx context.Context, userID, token string) (string, error)
	revoke func(ctx context.Context, userID string) error

	revokedUserID string
}

func (s *stubSessionManager) Issue(ctx context.Context, userID string) (string, error) {
	if s.issue != nil {
		return s.issue(ctx, userID)
	}
	return "refresh-token", nil
}

func (s *stubSessionManager) Rotate(ctx context.Context, userID, token string) (string, error) {
	if s.rotate != nil {
		return s.rotate(ctx, userID, token)
	}
	return "rotated-token", nil
}

func (s *stubSessionManager) Revoke(ctx context.Context, userID string) error {
	s.revokedUserID = userID
	if s.revoke != nil {
		return s.revoke(ctx, userID)
	}
	return nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "shopward-test",
		ExpirationMinutes: 15,
	}
}

func hashFor(t *testing.T, password string) string {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{
		ArgonMemoryKB:    8 * 1024,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return hash
}

func testUser(t *testing.T, password string) *models.User {
	t.Helper()
	storeID := uuid.New()
	return &models.User{
		ID:           uuid.New(),
		StoreID:      &storeID,
		Email:        "owner@example.com",
		PasswordHash: hashFor(t, password),
		FirstName:    "Ada",
		LastName:     "Lovelace",
		Role:         "owner",
	}
}

func newTestService(t *testing.T, repo *stubUserRepo, sessions *stubSessionManager) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		SessionManager: sessions,
		JWTConfig:      testJWTConfig(),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func assertUnauthorized(t *testing.T, err error) {
	t.Helper()
	appErr := pkgerrors.As(err)
	if appErr == nil {
		t.Fatalf("expected app error, got %v", err)
	}
	if appErr.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %s", appErr.Code())
	}
	if appErr.Message() != invalidCredentialsMessage {
		t.Fatalf("unexpected message %q", appErr.Message())
	}
}

func TestLoginIssuesTokenPair(t *testing.T) {
	user := testUser(t, "s3cret-pass")
	repo := &stubUserRepo{
		findByEmail: func(_ context.Context, email string) (*models.User, error) {
			if email != user.Email {
				return nil, gorm.ErrRecordNotFound
			}
			return user, nil
		},
	}
	sessions := &stubSessionManager{}
	svc := newTestService(t, repo, sessions)

	resp, err := svc.Login(context.Background(), LoginRequest{Email: "Owner@Example.com ", Password: "s3cret-pass"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.AccessToken == "" {
		t.Fatal("expected access token")
	}
	if resp.RefreshToken != "refresh-token" {
		t.Fatalf("unexpected refresh token %q", resp.RefreshToken)
	}
	if resp.ExpiresIn != 15*60 {
		t.Fatalf("unexpected expires_in %d", resp.ExpiresIn)
	}
	if resp.User == nil || resp.User.ID != user.ID {
		t.Fatal("expected user in response")
	}
	if repo.lastLoginID != user.ID {
		t.Fatal("expected last login recorded")
	}

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig(), resp.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.UserID != user.ID {
		t.Fatalf("unexpected user id in claims: %s", claims.UserID)
	}
	if claims.StoreID == nil || *claims.StoreID != *user.StoreID {
		t.Fatal("expected store id in claims")
	}
	if claims.Role != "owner" {
		t.Fatalf("unexpected role %q", claims.Role)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	repo := &stubUserRepo{
		findByEmail: func(context.Context, string) (*models.User, error) {
			return nil, gorm.ErrRecordNotFound
		},
	}
	svc := newTestService(t, repo, &stubSessionManager{})

	_, err := svc.Login(context.Background(), LoginRequest{Email: "ghost@example.com", Password: "whatever"})
	assertUnauthorized(t, err)
}

func TestLoginWrongPassword(t *testing.T) {
	user := testUser(t, "correct-pass")
	repo := &stubUserRepo{
		findByEmail: func(context.Context, string) (*models.User, error) {
			return user, nil
		},
	}
	svc := newTestService(t, repo, &stubSessionManager{})

	_, err := svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: "wrong-pass"})
	assertUnauthorized(t, err)
}

func TestLoginBlankEmail(t *testing.T) {
	svc := newTestService(t, &stubUserRepo{}, &stubSessionManager{})

	_, err := svc.Login(context.Background(), LoginRequest{Email: "   ", Password: "whatever"})
	assertUnauthorized(t, err)
}

func TestRefreshRotatesToken(t *testing.T) {
	user := testUser(t, "s3cret-pass")
	repo := &stubUserRepo{
		findByID: func(_ context.Context, id uuid.UUID) (*models.User, error) {
			if id != user.ID {
				return nil, gorm.ErrRecordNotFound
			}
			return user, nil
		},
	}
	var rotatedFor, rotatedToken string
	sessions := &stubSessionManager{
		rotate: func(_ context.Context, userID, token string) (string, error) {
			rotatedFor = userID
			rotatedToken = token
			return "fresh-refresh", nil
		},
	}
	svc := newTestService(t, repo, sessions)

	pair, err := svc.Refresh(context.Background(), RefreshRequest{UserID: user.ID, RefreshToken: "old-refresh"})
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if rotatedFor != user.ID.String() || rotatedToken != "old-refresh" {
		t.Fatalf("unexpected rotate call %q %q", rotatedFor, rotatedToken)
	}
	if pair.RefreshToken != "fresh-refresh" {
		t.Fatalf("unexpected refresh token %q", pair.RefreshToken)
	}
	if pair.AccessToken == "" {
		t.Fatal("expected new access token")
	}
}

func TestRefreshInvalidToken(t *testing.T) {
	sessions := &stubSessionManager{
		rotate: func(context.Context, string, string) (string, error) {
			return "", session.ErrInvalidRefreshToken
		},
	}
	svc := newTestService(t, &stubUserRepo{}, sessions)

	_, err := svc.Refresh(context.Background(), RefreshRequest{UserID: uuid.New(), RefreshToken: "stale"})
	assertUnauthorized(t, err)
}

func TestRefreshMissingFields(t *testing.T) {
	svc := newTestService(t, &stubUserRepo{}, &stubSessionManager{})

	_, err := svc.Refresh(context.Background(), RefreshRequest{})
	assertUnauthorized(t, err)
}

func TestLogoutRevokesSession(t *testing.T) {
	sessions := &stubSessionManager{}
	svc := newTestService(t, &stubUserRepo{}, sessions)

	userID := uuid.New()
	if err := svc.Logout(context.Background(), LogoutRequest{UserID: userID}); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if sessions.revokedUserID != userID.String() {
		t.Fatalf("expected revoke for %s, got %q", userID, sessions.revokedUserID)
	}
}
