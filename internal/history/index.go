// Package history derives a per-owner listing of past flowchart sessions
// from the document store's namespace, grouped by calendar day.
package history

import (
	"context"
	"math"
	"sort"
	"time"

	"flowsmith/api/internal/flowchart"
	"flowsmith/api/internal/store"
)

// Summary is one history entry.
type Summary struct {
	SessionID string    `json:"session_id"`
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updated_iso"`
	SizeKB    float64   `json:"size_kb"`
}

// DayGroup holds one calendar day's entries, most recent first.
type DayGroup struct {
	Date    string    `json:"date"`
	Entries []Summary `json:"entries"`
}

// namespaceLister is the slice of the document store the index needs.
type namespaceLister interface {
	ListOwned(ctx context.Context, owner string) ([]store.OwnedRecord, error)
}

// Index builds history listings. Records whose content does not parse are
// skipped rather than failing the whole listing.
type Index struct {
	store namespaceLister
}

func NewIndex(store namespaceLister) *Index {
	return &Index{store: store}
}

// ListFor returns the owner's sessions grouped by server-local calendar
// day, days ordered most recent first, entries within a day likewise.
// An absent owner has no history.
func (i *Index) ListFor(ctx context.Context, owner string) ([]DayGroup, error) {
	if owner == "" {
		return []DayGroup{}, nil
	}

	records, err := i.store.ListOwned(ctx, owner)
	if err != nil {
		return nil, err
	}

	summaries := make([]Summary, 0, len(records))
	for _, record := range records {
		doc, err := flowchart.Parse(record.Content)
		if err != nil {
			continue
		}
		summaries = append(summaries, Summary{
			SessionID: record.SessionID,
			Title:     doc.Title(),
			UpdatedAt: record.UpdatedAt,
			SizeKB:    math.Round(float64(record.Size)/1024*10) / 10,
		})
	}

	sort.Slice(summaries, func(a, b int) bool {
		return summaries[a].UpdatedAt.After(summaries[b].UpdatedAt)
	})

	groups := make([]DayGroup, 0)
	byDate := map[string]int{}
	for _, summary := range summaries {
		date := summary.UpdatedAt.Local().Format("2006-01-02")
		idx, ok := byDate[date]
		if !ok {
			idx = len(groups)
			byDate[date] = idx
			groups = append(groups, DayGroup{Date: date, Entries: []Summary{}})
		}
		groups[idx].Entries = append(groups[idx].Entries, summary)
	}
	return groups, nil
}
