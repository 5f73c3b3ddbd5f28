package search

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync/atomic"
	"time"

	meili "github.com/meilisearch/meilisearch-go"
)

const idxProjects = "sitewatch_projects"

// Meili implements Searcher and Indexer via Meilisearch.
type Meili struct {
	client  meili.ServiceManager
	healthy atomic.Bool
	done    chan struct{}
}

// NewMeili creates a Meilisearch client and configures the project index.
// An unreachable server is tolerated; the health loop keeps retrying.
func NewMeili(url, apiKey string) *Meili {
	client := meili.New(url, meili.WithAPIKey(apiKey))

	m := &Meili{
		client: client,
		done:   make(chan struct{}),
	}

	if _, err := client.Health(); err != nil {
		log.Printf("search: meilisearch unavailable at %s: %v", url, err)
		m.healthy.Store(false)
	} else {
		m.healthy.Store(true)
		m.configureIndex()
	}

	go m.healthLoop()
	return m
}

func (m *Meili) configureIndex() {
	if _, err := m.client.CreateIndex(&meili.IndexConfig{
		Uid:        idxProjects,
		PrimaryKey: "id",
	}); err != nil {
		log.Printf("search: create index %s (may already exist): %v", idxProjects, err)
	}

	index := m.client.Index(idxProjects)
	filterable := []interface{}{"category", "status"}
	if _, err := index.UpdateFilterableAttributes(&filterable); err != nil {
		log.Printf("search: update filterable attrs for %s: %v", idxProjects, err)
	}
	searchable := []string{"id", "description", "location", "contractor"}
	if _, err := index.UpdateSearchableAttributes(&searchable); err != nil {
		log.Printf("search: update searchable attrs for %s: %v", idxProjects, err)
	}
}

func (m *Meili) healthLoop() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			_, err := m.client.Health()
			wasHealthy := m.healthy.Load()
			m.healthy.Store(err == nil)
			if err == nil && !wasHealthy {
				log.Println("search: meilisearch recovered, reconfiguring index")
				m.configureIndex()
			}
		}
	}
}

// Close stops the background health monitor.
func (m *Meili) Close() {
	close(m.done)
}

// Healthy reports whether Meilisearch is reachable.
func (m *Meili) Healthy() bool {
	return m.healthy.Load()
}

// Search queries the project index.
func (m *Meili) Search(q Query) ([]Result, int, error) {
	if !m.healthy.Load() {
		return nil, 0, fmt.Errorf("meilisearch unhealthy")
	}

	limit := int64(q.Limit)
	if limit == 0 {
		limit = 20
	}

	sr := &meili.SearchRequest{
		Limit:                 limit,
		Offset:                int64(q.Offset),
		AttributesToHighlight: []string{"*"},
		HighlightPreTag:       "<mark>",
		HighlightPostTag:      "</mark>",
	}

	var filters []string
	if q.FilterCategory != "" {
		filters = append(filters, fmt.Sprintf("category = %q", q.FilterCategory))
	}
	if q.FilterStatus != "" {
		filters = append(filters, fmt.Sprintf("status = %q", q.FilterStatus))
	}
	if len(filters) > 0 {
		sr.Filter = filters
	}

	resp, err := m.client.Index(idxProjects).Search(q.Text, sr)
	if err != nil {
		m.healthy.Store(false)
		return nil, 0, fmt.Errorf("meilisearch search: %w", err)
	}

	results := make([]Result, 0, len(resp.Hits))
	for _, hit := range resp.Hits {
		r := Result{
			ContractID:  decodeString(hit, "id"),
			Description: decodeString(hit, "description"),
			Location:    decodeString(hit, "location"),
			Category:    decodeString(hit, "category"),
			Contractor:  decodeString(hit, "contractor"),
			Status:      decodeString(hit, "status"),
		}
		r.Snippet = firstNonBlank(decodeFormattedString(hit, "description"), r.Description)
		results = append(results, r)
	}
	return results, int(resp.EstimatedTotalHits), nil
}

func decodeString(hit meili.Hit, key string) string {
	raw, ok := hit[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return ""
}

func decodeFormattedString(hit meili.Hit, key string) string {
	raw, ok := hit["_formatted"]
	if !ok {
		return ""
	}
	var formatted map[string]string
	if err := json.Unmarshal(raw, &formatted); err != nil {
		return ""
	}
	return strings.TrimSpace(formatted[key])
}

func firstNonBlank(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

// IndexProject adds or updates a project in the search index.
func (m *Meili) IndexProject(rec ProjectRecord) error {
	_, err := m.client.Index(idxProjects).AddDocuments([]ProjectRecord{rec}, nil)
	return err
}

// IndexProjects bulk-indexes projects.
func (m *Meili) IndexProjects(recs []ProjectRecord) error {
	if len(recs) == 0 {
		return nil
	}
	_, err := m.client.Index(idxProjects).AddDocuments(recs, nil)
	return err
}

// DeleteProject removes a project from the search index.
func (m *Meili) DeleteProject(id string) error {
	_, err := m.client.Index(idxProjects).DeleteDocument(id, nil)
	return err
}
