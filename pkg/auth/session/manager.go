package session

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	redislib "github.com/redis/go-redis/v9"
	"github.com/shopward/shopward-backend/pkg/config"
	redisclient "github.com/shopward/shopward-backend/pkg/redis"
)

const refreshTokenBytes = 32

var ErrInvalidRefreshToken = errors.New("invalid refresh token")

type sessionStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	RefreshTokenKey(userID string) string
}

// Manager handles refresh token creation, verification, and rotation.
type Manager struct {
	store sessionStore
	ttl   time.Duration
}

// NewManager constructs a session manager backed by Redis.
func NewManager(client *redisclient.Client, cfg config.JWTConfig) (*Manager, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	ttl := cfg.RefreshTokenTTL()
	if ttl <= 0 {
		return nil, fmt.Errorf("refresh token ttl must be positive")
	}
	return &Manager{store: client, ttl: ttl}, nil
}

// Issue creates and stores a refresh token for the user.
func (m *Manager) Issue(ctx context.Context, userID string) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", fmt.Errorf("user id is required")
	}
	token, err := generateRefreshToken()
	if err != nil {
		return "", err
	}
	if err := m.store.Set(ctx, m.store.RefreshTokenKey(userID), token, m.ttl); err != nil {
		return "", err
	}
	return token, nil
}

// Verify checks the presented refresh token against the stored one.
func (m *Manager) Verify(ctx context.Context, userID, token string) error {
	stored, err := m.store.Get(ctx, m.store.RefreshTokenKey(userID))
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return ErrInvalidRefreshToken
		}
		return err
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(token)) != 1 {
		return ErrInvalidRefreshToken
	}
	return nil
}

// Rotate verifies the current token and replaces it with a fresh one.
func (m *Manager) Rotate(ctx context.Context, userID, token string) (string, error) {
	if err := m.Verify(ctx, userID, token); err != nil {
		return "", err
	}
	return m.Issue(ctx, userID)
}

// Revoke deletes the stored refresh token for the user.
func (m *Manager) Revoke(ctx context.Context, userID string) error {
	return m.store.Del(ctx, m.store.RefreshTokenKey(userID))
}

func generateRefreshToken() (string, error) {
	buf := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate refresh token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
