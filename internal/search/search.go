// Package search offers title search over a user's flowcharts, backed by
// Meilisearch with a store-scan fallback when it is unavailable.
package search

import "time"

// Result is a single search hit returned to the caller.
type Result struct {
	SessionID string    `json:"session_id"`
	Title     string    `json:"title"`
	Owner     string    `json:"-"`
	UpdatedAt time.Time `json:"updated_iso"`
}

// Query describes a search request. Owner scopes results to the caller's
// namespace; an empty owner matches nothing.
type Query struct {
	Text  string
	Owner string
	Limit int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// FlowchartRecord is the data we index for a flowchart session.
type FlowchartRecord struct {
	SessionID string    `json:"session_id"`
	Title     string    `json:"title"`
	Owner     string    `json:"owner"`
	UpdatedAt time.Time `json:"updated_iso"`
}

// Searcher can execute a title search.
type Searcher interface {
	Search(q Query) ([]Result, int, error)
	Healthy() bool
}
