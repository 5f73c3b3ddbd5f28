// Package search indexes projects for the dashboard search box. Meilisearch
// is the primary engine; an in-memory substring matcher covers deployments
// without one.
package search

import "log"

// Service is the facade that tries Meilisearch first and falls back to the
// in-memory matcher.
type Service struct {
	meili  *Meili
	memory *Memory
}

// NewService creates a search service. meili may be nil if Meilisearch is
// not configured.
func NewService(meili *Meili, memory *Memory) *Service {
	if memory == nil {
		memory = NewMemory()
	}
	return &Service{meili: meili, memory: memory}
}

// Search tries Meilisearch if healthy, otherwise the memory index.
func (s *Service) Search(q Query) Response {
	if s.meili != nil && s.meili.Healthy() {
		results, total, err := s.meili.Search(q)
		if err == nil {
			return Response{Results: nonNil(results), Total: total, Query: q.Text}
		}
		log.Printf("search: meilisearch error, falling back to memory: %v", err)
	}

	results, total, err := s.memory.Search(q)
	if err != nil {
		log.Printf("search: memory index error: %v", err)
		return Response{Results: []Result{}, Total: 0, Query: q.Text}
	}
	return Response{Results: nonNil(results), Total: total, Query: q.Text}
}

// IndexProject updates both indexes. The Meilisearch push is fire-and-forget.
func (s *Service) IndexProject(rec ProjectRecord) {
	_ = s.memory.IndexProject(rec)
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.IndexProject(rec); err != nil {
			log.Printf("search: index project %s: %v", rec.ID, err)
		}
	}()
}

// DeleteProject removes a project from both indexes (fire-and-forget to
// Meilisearch).
func (s *Service) DeleteProject(id string) {
	_ = s.memory.DeleteProject(id)
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.DeleteProject(id); err != nil {
			log.Printf("search: delete project %s: %v", id, err)
		}
	}()
}

// ReindexAll replaces both indexes with the given records, typically the
// full workbook at startup.
func (s *Service) ReindexAll(recs []ProjectRecord) {
	_ = s.memory.IndexProjects(recs)
	if s.meili == nil || !s.meili.Healthy() || len(recs) == 0 {
		return
	}
	if err := s.meili.IndexProjects(recs); err != nil {
		log.Printf("search: reindex projects: %v", err)
	}
}

func nonNil(r []Result) []Result {
	if r == nil {
		return []Result{}
	}
	return r
}
