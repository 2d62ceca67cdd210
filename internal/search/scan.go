package search

import (
	"context"
	"sort"
	"strings"

	"flowsmith/api/internal/flowchart"
	"flowsmith/api/internal/store"
)

// namespaceLister is the slice of the document store the scanner needs.
type namespaceLister interface {
	ListOwned(ctx context.Context, owner string) ([]store.OwnedRecord, error)
}

// Scan is the fallback Searcher: it walks the owner's namespace and does a
// case-insensitive substring match on titles. Adequate for the per-user
// record counts this system sees.
type Scan struct {
	store namespaceLister
}

func NewScan(store namespaceLister) *Scan {
	return &Scan{store: store}
}

// Healthy always reports true; the scanner has no external dependency.
func (s *Scan) Healthy() bool { return true }

// Search matches the query text against flowchart titles in the owner's
// namespace, most recently updated first. Corrupt records are skipped.
func (s *Scan) Search(q Query) ([]Result, int, error) {
	if q.Owner == "" {
		return []Result{}, 0, nil
	}

	records, err := s.store.ListOwned(context.Background(), q.Owner)
	if err != nil {
		return nil, 0, err
	}

	needle := strings.ToLower(strings.TrimSpace(q.Text))
	results := make([]Result, 0)
	for _, record := range records {
		doc, err := flowchart.Parse(record.Content)
		if err != nil {
			continue
		}
		title := doc.Title()
		if needle != "" && !strings.Contains(strings.ToLower(title), needle) {
			continue
		}
		results = append(results, Result{
			SessionID: record.SessionID,
			Title:     title,
			Owner:     q.Owner,
			UpdatedAt: record.UpdatedAt,
		})
	}

	sort.Slice(results, func(a, b int) bool {
		return results[a].UpdatedAt.After(results[b].UpdatedAt)
	})

	total := len(results)
	if q.Limit > 0 && len(results) > q.Limit {
		results = results[:q.Limit]
	}
	return results, total, nil
}
