package kv

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// RemoteStore makes the server's client-storage namespace look like a local
// synchronous Store. Construction does one blocking fetch of the whole
// namespace; after that reads never touch the network. Writes hit the
// in-memory mirror immediately and are replayed to the server by a background
// worker, so callers keep synchronous semantics while the remote side is
// best-effort. The mirror can diverge from the server under persistent network
// failure; SyncState makes that observable per key instead of silent.
//
// Two clients writing the same namespace are not reconciled: last write to the
// server wins, and a stale mirror stays stale until a fresh RemoteStore is
// constructed. That matches the product behavior this replaces.
type RemoteStore struct {
	baseURL string
	client  *retryablehttp.Client

	mu      sync.Mutex
	data    map[string]string
	order   []string
	pending map[string]int
	syncErr map[string]error
	queue   []remoteOp
	cond    *sync.Cond
	closed  bool
	idle    bool
}

type remoteOp struct {
	method string // http.MethodPut or http.MethodDelete
	path   string
	key    string // mirror key the op belongs to; "" for bulk clear
	body   []byte
}

// RemoteOption adjusts RemoteStore construction.
type RemoteOption func(*RemoteStore)

// WithHTTPClient substitutes the transport, mainly for tests.
func WithHTTPClient(client *retryablehttp.Client) RemoteOption {
	return func(s *RemoteStore) { s.client = client }
}

func defaultClient() *retryablehttp.Client {
	client := retryablehttp.NewClient()
	client.RetryMax = 2
	client.RetryWaitMin = 200 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	client.HTTPClient.Timeout = 10 * time.Second
	client.Logger = nil
	return client
}

// NewRemoteStore builds a store over baseURL's /api/client-storage namespace.
// It never fails: if the initial fetch errors in any way the store starts
// empty, because an empty dashboard beats no dashboard.
func NewRemoteStore(baseURL string, opts ...RemoteOption) *RemoteStore {
	s := &RemoteStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		data:    make(map[string]string),
		pending: make(map[string]int),
		syncErr: make(map[string]error),
		idle:    true,
	}
	s.cond = sync.NewCond(&s.mu)
	for _, opt := range opts {
		opt(s)
	}
	if s.client == nil {
		s.client = defaultClient()
	}
	s.loadInitial()
	go s.drain()
	return s
}

func (s *RemoteStore) loadInitial() {
	resp, err := s.client.Get(s.baseURL + "/api/client-storage")
	if err != nil {
		log.Printf("kv: initial load failed, starting empty: %v", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("kv: initial load returned %d, starting empty", resp.StatusCode)
		return
	}
	var payload struct {
		Data map[string]string `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		log.Printf("kv: initial load parse failed, starting empty: %v", err)
		return
	}
	for key, value := range payload.Data {
		trimmed := strings.TrimSpace(key)
		if trimmed == "" {
			continue
		}
		s.data[trimmed] = value
		s.order = append(s.order, trimmed)
	}
}

func (s *RemoteStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.data[key]
	return value, ok
}

func (s *RemoteStore) Set(key, value string) {
	if key == "" {
		return
	}
	body, err := json.Marshal(map[string]string{"key": key, "value": value})
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data[key]; !exists {
		s.order = append(s.order, key)
	}
	s.data[key] = value
	s.enqueueLocked(remoteOp{
		method: http.MethodPut,
		path:   "/api/client-storage/item",
		key:    key,
		body:   body,
	})
}

func (s *RemoteStore) Remove(key string) {
	if key == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data[key]; !exists {
		return
	}
	delete(s.data, key)
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.enqueueLocked(remoteOp{
		method: http.MethodDelete,
		path:   "/api/client-storage/item/" + url.PathEscape(key),
		key:    key,
	})
}

func (s *RemoteStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[string]string)
	s.order = nil
	s.enqueueLocked(remoteOp{
		method: http.MethodDelete,
		path:   "/api/client-storage",
	})
}

func (s *RemoteStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

func (s *RemoteStore) Key(index int) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.order) {
		return "", false
	}
	return s.order[index], true
}

func (s *RemoteStore) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// SyncState reports whether writes for key are still queued or in flight, and
// the error from the last failed push. A nil error with pending=false means
// the mirror and the server agree on this key as far as this client knows.
func (s *RemoteStore) SyncState(key string) (pending bool, lastErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending[key] > 0, s.syncErr[key]
}

// Flush blocks until every queued write has been attempted. Failed pushes
// still count as attempted; check SyncState for the outcome.
func (s *RemoteStore) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.queue) > 0 || !s.idle {
		s.cond.Wait()
	}
}

// Close drains the queue and stops the background worker.
func (s *RemoteStore) Close() {
	s.Flush()
	s.mu.Lock()
	s.closed = true
	s.cond.Broadcast()
	s.mu.Unlock()
}

func (s *RemoteStore) enqueueLocked(op remoteOp) {
	if s.closed {
		return
	}
	s.queue = append(s.queue, op)
	s.pending[op.key]++
	s.cond.Broadcast()
}

func (s *RemoteStore) drain() {
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.closed {
			s.idle = true
			s.cond.Broadcast()
			s.cond.Wait()
		}
		if s.closed && len(s.queue) == 0 {
			s.mu.Unlock()
			return
		}
		op := s.queue[0]
		s.queue = s.queue[1:]
		s.idle = false
		s.mu.Unlock()

		err := s.push(op)

		s.mu.Lock()
		s.pending[op.key]--
		if s.pending[op.key] <= 0 {
			delete(s.pending, op.key)
		}
		if err != nil {
			s.syncErr[op.key] = err
			log.Printf("kv: push %s %s failed: %v", op.method, op.path, err)
		} else {
			delete(s.syncErr, op.key)
		}
		if len(s.queue) == 0 {
			s.idle = true
			s.cond.Broadcast()
		}
		s.mu.Unlock()
	}
}

func (s *RemoteStore) push(op remoteOp) error {
	var body any
	if op.body != nil {
		body = bytes.NewReader(op.body)
	}
	req, err := retryablehttp.NewRequest(op.method, s.baseURL+op.path, body)
	if err != nil {
		return err
	}
	if op.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("remote returned %d", resp.StatusCode)
	}
	return nil
}
