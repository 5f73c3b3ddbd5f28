// Package ledger layers sparse per-contract overrides on top of externally
// owned base records. Update overrides, Program-of-Works state, and compiled
// document marks all follow the same pattern: one JSON blob per family in the
// key-value store, entries keyed by normalized contract-derived IDs, merged
// over the base at read time. The dashboard previously implemented this three
// times with drifting edge cases; Ledger is the single parameterized version.
package ledger

import (
	"encoding/json"
	"strings"

	"sitewatch/api/internal/contract"
	"sitewatch/api/internal/kv"
)

// Ledger stores overrides of type T under one namespace key in a kv.Store.
type Ledger[T any] struct {
	store     kv.Store
	namespace string
	normalize func(string) string
}

// New builds a ledger keyed by contract ID. Entry IDs are normalized with
// contract.NormalizeID on every call, so raw and canonical IDs address the
// same entry.
func New[T any](store kv.Store, namespace string) *Ledger[T] {
	return &Ledger[T]{store: store, namespace: namespace, normalize: contract.NormalizeID}
}

// NewKeyed builds a ledger for composite entry IDs assembled by the caller,
// such as "section:doc:CONTRACTID". Keys are stored as given apart from
// surrounding whitespace; normalizing individual segments is the key
// builder's concern.
func NewKeyed[T any](store kv.Store, namespace string) *Ledger[T] {
	return &Ledger[T]{store: store, namespace: namespace, normalize: strings.TrimSpace}
}

// load reads the whole family. Missing or malformed blobs read as empty;
// a corrupt ledger must degrade to "no overrides", never to an error.
func (l *Ledger[T]) load() map[string]json.RawMessage {
	raw, ok := l.store.Get(l.namespace)
	if !ok || raw == "" {
		return map[string]json.RawMessage{}
	}
	var entries map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &entries); err != nil || entries == nil {
		return map[string]json.RawMessage{}
	}
	return entries
}

func (l *Ledger[T]) save(entries map[string]json.RawMessage) {
	encoded, err := json.Marshal(entries)
	if err != nil {
		return
	}
	l.store.Set(l.namespace, string(encoded))
}

// Get returns the override for entityID, if any. A present-but-corrupt entry
// reads as absent.
func (l *Ledger[T]) Get(entityID string) (T, bool) {
	var zero T
	key := l.normalize(entityID)
	if key == "" {
		return zero, false
	}
	raw, ok := l.load()[key]
	if !ok {
		return zero, false
	}
	var value T
	if err := json.Unmarshal(raw, &value); err != nil {
		return zero, false
	}
	return value, true
}

// Set replaces the override for entityID. Field-level merging is the caller's
// concern; the ledger stores whole override records.
func (l *Ledger[T]) Set(entityID string, value T) {
	key := l.normalize(entityID)
	if key == "" {
		return
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return
	}
	entries := l.load()
	entries[key] = encoded
	l.save(entries)
}

// Remove deletes the override for entityID; no-op if absent.
func (l *Ledger[T]) Remove(entityID string) {
	key := l.normalize(entityID)
	if key == "" {
		return
	}
	entries := l.load()
	if _, ok := entries[key]; !ok {
		return
	}
	delete(entries, key)
	l.save(entries)
}

// All returns every decodable override keyed by normalized ID.
func (l *Ledger[T]) All() map[string]T {
	entries := l.load()
	out := make(map[string]T, len(entries))
	for key, raw := range entries {
		var value T
		if err := json.Unmarshal(raw, &value); err != nil {
			continue
		}
		out[l.normalize(key)] = value
	}
	return out
}
