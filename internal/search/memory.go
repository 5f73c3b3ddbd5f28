package search

import (
	"sort"
	"strings"
	"sync"
)

// Memory implements Searcher and Indexer with case-insensitive substring
// matching over an in-process copy of the project records. It is the
// fallback when Meilisearch is absent or down.
type Memory struct {
	mu      sync.RWMutex
	records map[string]ProjectRecord
}

func NewMemory() *Memory {
	return &Memory{records: make(map[string]ProjectRecord)}
}

// Healthy always returns true; memory never goes away.
func (m *Memory) Healthy() bool {
	return true
}

func (m *Memory) IndexProject(rec ProjectRecord) error {
	if rec.ID == "" {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.ID] = rec
	return nil
}

func (m *Memory) IndexProjects(recs []ProjectRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range recs {
		if rec.ID == "" {
			continue
		}
		m.records[rec.ID] = rec
	}
	return nil
}

func (m *Memory) DeleteProject(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, id)
	return nil
}

func (m *Memory) Search(q Query) ([]Result, int, error) {
	needle := strings.ToLower(strings.TrimSpace(q.Text))

	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []Result
	for _, rec := range m.records {
		if q.FilterCategory != "" && !strings.EqualFold(rec.Category, q.FilterCategory) {
			continue
		}
		if q.FilterStatus != "" && !strings.EqualFold(rec.Status, q.FilterStatus) {
			continue
		}
		if needle != "" && !recordMatches(rec, needle) {
			continue
		}
		matched = append(matched, Result{
			ContractID:  rec.ID,
			Description: rec.Description,
			Location:    rec.Location,
			Category:    rec.Category,
			Contractor:  rec.Contractor,
			Status:      rec.Status,
		})
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ContractID < matched[j].ContractID })

	total := len(matched)
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func recordMatches(rec ProjectRecord, needle string) bool {
	for _, field := range []string{rec.ID, rec.Description, rec.Location, rec.Contractor} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}
