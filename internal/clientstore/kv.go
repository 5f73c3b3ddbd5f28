package clientstore

import (
	"context"
	"log"
	"sort"
)

// KV adapts a Namespace to the synchronous kv.Store contract, so the override
// ledgers can run server-side over the same keys the dashboard clients write.
// Namespace errors degrade to empty reads and dropped writes, matching the
// degradation policy of the client tiers; they are logged, never returned.
type KV struct {
	ns Namespace
}

func NewKV(ns Namespace) *KV {
	return &KV{ns: ns}
}

func (s *KV) Get(key string) (string, bool) {
	all, err := s.ns.GetAll(context.Background())
	if err != nil {
		log.Printf("clientstore: read failed: %v", err)
		return "", false
	}
	value, ok := all[key]
	return value, ok
}

func (s *KV) Set(key, value string) {
	if key == "" {
		return
	}
	if err := s.ns.SetItem(context.Background(), key, value); err != nil {
		log.Printf("clientstore: write %q failed: %v", key, err)
	}
}

func (s *KV) Remove(key string) {
	if key == "" {
		return
	}
	if err := s.ns.DeleteItem(context.Background(), key); err != nil {
		log.Printf("clientstore: delete %q failed: %v", key, err)
	}
}

func (s *KV) Clear() {
	if err := s.ns.Clear(context.Background()); err != nil {
		log.Printf("clientstore: clear failed: %v", err)
	}
}

func (s *KV) Len() int {
	all, err := s.ns.GetAll(context.Background())
	if err != nil {
		return 0
	}
	return len(all)
}

func (s *KV) Key(index int) (string, bool) {
	keys := s.Keys()
	if index < 0 || index >= len(keys) {
		return "", false
	}
	return keys[index], true
}

// Keys enumerates in sorted order. The namespace has no insertion order to
// preserve, so sorting keeps enumeration stable across calls.
func (s *KV) Keys() []string {
	all, err := s.ns.GetAll(context.Background())
	if err != nil {
		return nil
	}
	keys := make([]string, 0, len(all))
	for k := range all {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
