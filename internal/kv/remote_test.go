package kv

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

func testClient() *retryablehttp.Client {
	client := retryablehttp.NewClient()
	client.RetryMax = 0
	client.HTTPClient.Timeout = 2 * time.Second
	client.Logger = nil
	return client
}

// fakeNamespace implements the server half of the client-storage API.
type fakeNamespace struct {
	mu       sync.Mutex
	data     map[string]string
	failPut  bool
	putCount int
}

func newFakeNamespace(initial map[string]string) *fakeNamespace {
	if initial == nil {
		initial = make(map[string]string)
	}
	return &fakeNamespace{data: initial}
}

func (f *fakeNamespace) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/client-storage":
			_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": f.data})
		case r.Method == http.MethodPut && r.URL.Path == "/api/client-storage/item":
			f.putCount++
			if f.failPut {
				http.Error(w, "boom", http.StatusInternalServerError)
				return
			}
			var body struct{ Key, Value string }
			_ = json.NewDecoder(r.Body).Decode(&body)
			f.data[body.Key] = body.Value
			_ = json.NewEncoder(w).Encode(map[string]any{"success": true})
		case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/api/client-storage/item/"):
			key, _ := url.PathUnescape(strings.TrimPrefix(r.URL.Path, "/api/client-storage/item/"))
			delete(f.data, key)
			_ = json.NewEncoder(w).Encode(map[string]any{"success": true})
		case r.Method == http.MethodDelete && r.URL.Path == "/api/client-storage":
			f.data = make(map[string]string)
			_ = json.NewEncoder(w).Encode(map[string]any{"success": true})
		default:
			http.NotFound(w, r)
		}
	})
}

func (f *fakeNamespace) get(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	return v, ok
}

func (f *fakeNamespace) setFailPut(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failPut = fail
}

func TestRemoteStoreInitialLoad(t *testing.T) {
	ns := newFakeNamespace(map[string]string{"projectUpdates": `{"AB-1":{}}`})
	server := httptest.NewServer(ns.handler())
	defer server.Close()

	store := NewRemoteStore(server.URL, WithHTTPClient(testClient()))
	defer store.Close()

	if value, ok := store.Get("projectUpdates"); !ok || value != `{"AB-1":{}}` {
		t.Errorf("Get(projectUpdates) = (%q, %v), want mirrored value", value, ok)
	}
	if store.Len() != 1 {
		t.Errorf("Len() = %d, want 1", store.Len())
	}
}

func TestRemoteStoreConstructionNeverFails(t *testing.T) {
	// Nothing listens here; construction must still produce a usable store.
	store := NewRemoteStore("http://127.0.0.1:1", WithHTTPClient(testClient()))
	defer store.Close()

	if store.Len() != 0 {
		t.Errorf("Len() = %d, want 0 after failed initial load", store.Len())
	}
	if value, ok := store.Get("anything"); ok || value != "" {
		t.Errorf("Get = (%q, %v), want miss", value, ok)
	}
}

func TestRemoteStoreConstructionBadBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("this is not json"))
	}))
	defer server.Close()

	store := NewRemoteStore(server.URL, WithHTTPClient(testClient()))
	defer store.Close()
	if store.Len() != 0 {
		t.Errorf("Len() = %d, want 0 after unparseable initial load", store.Len())
	}
}

func TestRemoteStoreWriteThrough(t *testing.T) {
	ns := newFakeNamespace(nil)
	server := httptest.NewServer(ns.handler())
	defer server.Close()

	store := NewRemoteStore(server.URL, WithHTTPClient(testClient()))
	defer store.Close()

	store.Set("k", "v")
	if value, ok := store.Get("k"); !ok || value != "v" {
		t.Fatalf("Get(k) = (%q, %v) immediately after Set, want (\"v\", true)", value, ok)
	}

	store.Flush()
	if value, ok := ns.get("k"); !ok || value != "v" {
		t.Errorf("remote value = (%q, %v), want pushed (\"v\", true)", value, ok)
	}
	if pending, err := store.SyncState("k"); pending || err != nil {
		t.Errorf("SyncState(k) = (%v, %v), want settled", pending, err)
	}
}

func TestRemoteStoreWriteSurvivesRemoteFailure(t *testing.T) {
	ns := newFakeNamespace(nil)
	ns.setFailPut(true)
	server := httptest.NewServer(ns.handler())
	defer server.Close()

	store := NewRemoteStore(server.URL, WithHTTPClient(testClient()))
	defer store.Close()

	store.Set("k", "v")
	store.Flush()

	// The local mirror keeps the write even though the push failed.
	if value, ok := store.Get("k"); !ok || value != "v" {
		t.Errorf("Get(k) = (%q, %v) after failed push, want (\"v\", true)", value, ok)
	}
	if _, err := store.SyncState("k"); err == nil {
		t.Error("SyncState(k) should report the failed push")
	}

	// Recovery: next successful push clears the error.
	ns.setFailPut(false)
	store.Set("k", "v2")
	store.Flush()
	if pending, err := store.SyncState("k"); pending || err != nil {
		t.Errorf("SyncState(k) after recovery = (%v, %v), want settled", pending, err)
	}
	if value, _ := ns.get("k"); value != "v2" {
		t.Errorf("remote value after recovery = %q, want \"v2\"", value)
	}
}

func TestRemoteStoreRemoveAndClear(t *testing.T) {
	ns := newFakeNamespace(map[string]string{"a": "1", "b": "2"})
	server := httptest.NewServer(ns.handler())
	defer server.Close()

	store := NewRemoteStore(server.URL, WithHTTPClient(testClient()))
	defer store.Close()

	store.Remove("a")
	store.Flush()
	if _, ok := store.Get("a"); ok {
		t.Error("mirror still holds removed key")
	}
	if _, ok := ns.get("a"); ok {
		t.Error("remote still holds removed key")
	}

	// Removing an absent key pushes nothing.
	before := ns.putCount
	store.Remove("missing")
	store.Flush()
	if ns.putCount != before {
		t.Error("Remove of absent key should not reach the remote")
	}

	store.Clear()
	store.Flush()
	if store.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", store.Len())
	}
	if _, ok := ns.get("b"); ok {
		t.Error("remote still holds data after Clear")
	}
}

func TestRemoteStoreEmptyKeyRejected(t *testing.T) {
	ns := newFakeNamespace(nil)
	server := httptest.NewServer(ns.handler())
	defer server.Close()

	store := NewRemoteStore(server.URL, WithHTTPClient(testClient()))
	defer store.Close()

	store.Set("", "value")
	store.Flush()
	if store.Len() != 0 {
		t.Errorf("Len() = %d after empty-key Set, want 0", store.Len())
	}
	if ns.putCount != 0 {
		t.Error("empty-key Set must not produce a remote path")
	}
}
