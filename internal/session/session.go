// Package session stores opaque bearer tokens for signed-in dashboard users.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrNotFound is returned when a token is unknown, expired, or revoked.
var ErrNotFound = errors.New("session not found or expired")

// Data is what a valid token resolves to.
type Data struct {
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Section      string    `json:"section"`
	IsAdmin      bool      `json:"isAdmin"`
	IsSuperAdmin bool      `json:"isSuperAdmin"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Store is the session backend. Tokens are opaque strings handed to
// clients as bearer credentials.
type Store interface {
	Save(ctx context.Context, token string, data Data, ttl time.Duration) error
	Lookup(ctx context.Context, token string) (Data, error)
	Revoke(ctx context.Context, token string) error
}

// NewToken returns a fresh random session token.
func NewToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

type memoryEntry struct {
	data      Data
	expiresAt time.Time
}

// MemoryStore keeps sessions in process memory, for deployments without
// Redis and for tests. Sessions do not survive a restart.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]memoryEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]memoryEntry)}
}

func (s *MemoryStore) Save(ctx context.Context, token string, data Data, ttl time.Duration) error {
	if token == "" {
		return errors.New("empty session token")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[token] = memoryEntry{data: data, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (s *MemoryStore) Lookup(ctx context.Context, token string) (Data, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.sessions[token]
	if !ok {
		return Data{}, ErrNotFound
	}
	if time.Now().After(entry.expiresAt) {
		delete(s.sessions, token)
		return Data{}, ErrNotFound
	}
	return entry.data, nil
}

func (s *MemoryStore) Revoke(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

// DefaultTTL is applied when a caller passes a non-positive TTL.
const DefaultTTL = 30 * 24 * time.Hour
