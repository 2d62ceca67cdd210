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

const idxFlowcharts = "flowsmith_flowcharts"

// Meili implements Searcher via Meilisearch.
type Meili struct {
	client  meili.ServiceManager
	healthy atomic.Bool
	done    chan struct{}
}

// NewMeili creates a Meilisearch client and configures the flowchart index.
// The caller should proceed without search if the initial connection fails;
// the background loop keeps probing and reconfigures on recovery.
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
		Uid:        idxFlowcharts,
		PrimaryKey: "session_id",
	}); err != nil {
		log.Printf("search: create index %s (may already exist): %v", idxFlowcharts, err)
	}

	index := m.client.Index(idxFlowcharts)
	filterable := []interface{}{"owner"}
	if _, err := index.UpdateFilterableAttributes(&filterable); err != nil {
		log.Printf("search: update filterable attrs for %s: %v", idxFlowcharts, err)
	}
	searchable := []string{"title"}
	if _, err := index.UpdateSearchableAttributes(&searchable); err != nil {
		log.Printf("search: update searchable attrs for %s: %v", idxFlowcharts, err)
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

// Search queries the flowchart index, scoped to the query's owner.
func (m *Meili) Search(q Query) ([]Result, int, error) {
	if !m.healthy.Load() {
		return nil, 0, fmt.Errorf("meilisearch unhealthy")
	}

	limit := int64(q.Limit)
	if limit == 0 {
		limit = 20
	}

	resp, err := m.client.Index(idxFlowcharts).Search(q.Text, &meili.SearchRequest{
		Limit:  limit,
		Filter: []string{fmt.Sprintf("owner = %q", q.Owner)},
	})
	if err != nil {
		m.healthy.Store(false)
		return nil, 0, fmt.Errorf("meilisearch search: %w", err)
	}

	results := make([]Result, 0, len(resp.Hits))
	for _, hit := range resp.Hits {
		results = append(results, hitToResult(hit))
	}
	return results, int(resp.EstimatedTotalHits), nil
}

func hitToResult(hit meili.Hit) Result {
	r := Result{
		SessionID: decodeString(hit, "session_id"),
		Title:     decodeString(hit, "title"),
		Owner:     decodeString(hit, "owner"),
	}
	if raw, ok := hit["updated_iso"]; ok {
		var ts time.Time
		if err := json.Unmarshal(raw, &ts); err == nil {
			r.UpdatedAt = ts
		}
	}
	return r
}

func decodeString(hit meili.Hit, key string) string {
	raw, ok := hit[key]
	if !ok {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return ""
}

// IndexFlowchart adds or updates a flowchart in the search index.
func (m *Meili) IndexFlowchart(rec FlowchartRecord) error {
	_, err := m.client.Index(idxFlowcharts).AddDocuments([]FlowchartRecord{rec}, nil)
	return err
}

// DeleteFlowchart removes a flowchart from the search index.
func (m *Meili) DeleteFlowchart(sessionID string) error {
	_, err := m.client.Index(idxFlowcharts).DeleteDocument(sessionID, nil)
	return err
}

// IndexFlowcharts bulk-indexes flowchart records.
func (m *Meili) IndexFlowcharts(records []FlowchartRecord) error {
	if len(records) == 0 {
		return nil
	}
	_, err := m.client.Index(idxFlowcharts).AddDocuments(records, nil)
	return err
}
