package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
	"github.com/shelfwise/library-backend/pkg/config"
	redisclient "github.com/shelfwise/library-backend/pkg/redis"
)

// ErrNoSession means the access id was never issued, expired or was revoked.
var ErrNoSession = errors.New("session not found")

type store interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	AccessSessionKey(accessID string) string
}

// AccessSessionChecker is the read side used by the auth middleware.
type AccessSessionChecker interface {
	SessionOwner(ctx context.Context, accessID string) (uuid.UUID, error)
}

// Manager maps live access ids (the JWT jti) to the user they were issued to.
// A token whose session is gone has been logged out, whatever its exp says.
type Manager struct {
	store store
	ttl   time.Duration
}

// NewManager builds a Redis-backed manager whose sessions live as long as
// the tokens they back.
func NewManager(client *redisclient.Client, cfg config.JWTConfig) (*Manager, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	return newManager(client, cfg.TokenTTL())
}

func newManager(s store, ttl time.Duration) (*Manager, error) {
	if ttl <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}
	return &Manager{store: s, ttl: ttl}, nil
}

// Start records accessID as a live session owned by userID.
func (m *Manager) Start(ctx context.Context, accessID string, userID uuid.UUID) error {
	key, err := m.key(accessID)
	if err != nil {
		return err
	}
	if userID == uuid.Nil {
		return fmt.Errorf("user id is required")
	}
	return m.store.Set(ctx, key, userID.String(), m.ttl)
}

// Revoke ends the session. Revoking an unknown id is not an error.
func (m *Manager) Revoke(ctx context.Context, accessID string) error {
	key, err := m.key(accessID)
	if err != nil {
		return err
	}
	return m.store.Del(ctx, key)
}

// SessionOwner returns the user a live session belongs to, or ErrNoSession.
func (m *Manager) SessionOwner(ctx context.Context, accessID string) (uuid.UUID, error) {
	key, err := m.key(accessID)
	if err != nil {
		return uuid.Nil, err
	}
	raw, err := m.store.Get(ctx, key)
	switch {
	case errors.Is(err, redislib.Nil):
		return uuid.Nil, ErrNoSession
	case err != nil:
		return uuid.Nil, err
	}
	owner, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("corrupt session %s: %w", accessID, err)
	}
	return owner, nil
}

func (m *Manager) key(accessID string) (string, error) {
	accessID = strings.TrimSpace(accessID)
	if accessID == "" {
		return "", fmt.Errorf("access id is required")
	}
	return m.store.AccessSessionKey(accessID), nil
}

// NewAccessID produces the identifier used as the JWT jti and session key.
func NewAccessID() string {
	return uuid.NewString()
}
