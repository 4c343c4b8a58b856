package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
)

type mockStore struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
}

func newMockStore() *mockStore {
	return &mockStore{data: make(map[string]string), ttls: make(map[string]time.Duration)}
}

func (m *mockStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = fmt.Sprint(value)
	m.ttls[key] = ttl
	return nil
}

func (m *mockStore) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.data[key]
	if !ok {
		return "", redislib.Nil
	}
	return val, nil
}

func (m *mockStore) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *mockStore) AccessSessionKey(accessID string) string {
	return fmt.Sprintf("sess:%s", accessID)
}

func TestManagerStartOwnerRevoke(t *testing.T) {
	store := newMockStore()
	manager, err := newManager(store, time.Hour)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	ctx := context.Background()
	accessID := NewAccessID()
	userID := uuid.New()

	if err := manager.Start(ctx, accessID, userID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if ttl := store.ttls[store.AccessSessionKey(accessID)]; ttl != time.Hour {
		t.Fatalf("expected ttl 1h, got %v", ttl)
	}

	owner, err := manager.SessionOwner(ctx, accessID)
	if err != nil || owner != userID {
		t.Fatalf("expected owner %s, got %s (%v)", userID, owner, err)
	}

	if err := manager.Revoke(ctx, accessID); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, err := manager.SessionOwner(ctx, accessID); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession after revoke, got %v", err)
	}
	if err := manager.Revoke(ctx, accessID); err != nil {
		t.Fatalf("second revoke should be a no-op, got %v", err)
	}
}

func TestManagerRejectsBadInput(t *testing.T) {
	store := newMockStore()
	manager, err := newManager(store, time.Hour)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	ctx := context.Background()
	if err := manager.Start(ctx, " ", uuid.New()); err == nil {
		t.Fatal("expected error for blank access id")
	}
	if err := manager.Start(ctx, NewAccessID(), uuid.Nil); err == nil {
		t.Fatal("expected error for nil user id")
	}
	if _, err := manager.SessionOwner(ctx, ""); err == nil || errors.Is(err, ErrNoSession) {
		t.Fatalf("expected input error for blank access id, got %v", err)
	}
	if _, err := newManager(store, 0); err == nil {
		t.Fatal("expected error for zero ttl")
	}
}

func TestManagerReportsCorruptSession(t *testing.T) {
	store := newMockStore()
	manager, _ := newManager(store, time.Hour)
	store.data[store.AccessSessionKey("jti-1")] = "not-a-uuid"

	if _, err := manager.SessionOwner(context.Background(), "jti-1"); err == nil || errors.Is(err, ErrNoSession) {
		t.Fatalf("expected corrupt session error, got %v", err)
	}
}
