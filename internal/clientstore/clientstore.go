// Package clientstore is the server side of the client-storage namespace: the
// flat string-to-string space that remote dashboard clients mirror locally.
package clientstore

import (
	"context"
	"sync"
)

// Namespace is one deployment-wide mutable key-value space. Writes are
// idempotent overwrites; there is no per-key locking and no compare-and-swap,
// so concurrent clients are last-write-wins by design.
type Namespace interface {
	GetAll(ctx context.Context) (map[string]string, error)
	SetItem(ctx context.Context, key, value string) error
	DeleteItem(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// MemoryNamespace backs the namespace with process memory, for deployments
// without Redis and for tests. Contents do not survive a restart.
type MemoryNamespace struct {
	mu   sync.Mutex
	data map[string]string
}

func NewMemoryNamespace() *MemoryNamespace {
	return &MemoryNamespace{data: make(map[string]string)}
}

func (n *MemoryNamespace) GetAll(ctx context.Context) (map[string]string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make(map[string]string, len(n.data))
	for k, v := range n.data {
		out[k] = v
	}
	return out, nil
}

func (n *MemoryNamespace) SetItem(ctx context.Context, key, value string) error {
	if key == "" {
		return nil
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.data[key] = value
	return nil
}

func (n *MemoryNamespace) DeleteItem(ctx context.Context, key string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.data, key)
	return nil
}

func (n *MemoryNamespace) Clear(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.data = make(map[string]string)
	return nil
}
