package search

// ProjectRecord is the data we index for a project.
type ProjectRecord struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Category    string `json:"category"`
	Contractor  string `json:"contractor"`
	Status      string `json:"status"`
}

// Query describes a search request.
type Query struct {
	Text           string
	FilterCategory string // empty = all categories
	FilterStatus   string
	Limit          int
	Offset         int
}

// Result is a single search hit returned to the caller.
type Result struct {
	ContractID  string `json:"contractId"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Category    string `json:"category"`
	Contractor  string `json:"contractor"`
	Status      string `json:"status"`
	Snippet     string `json:"snippet,omitempty"`
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Searcher can execute a project search.
type Searcher interface {
	Search(q Query) ([]Result, int, error)
	Healthy() bool
}

// Indexer can push projects into a search index.
type Indexer interface {
	IndexProject(rec ProjectRecord) error
	IndexProjects(recs []ProjectRecord) error
	DeleteProject(id string) error
}
