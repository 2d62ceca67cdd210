package search

import "log"

// Service is the facade that tries Meilisearch first and falls back to a
// namespace scan.
type Service struct {
	meili *Meili
	scan  *Scan
}

// NewService creates a search service. meili may be nil if Meilisearch is
// not configured.
func NewService(meili *Meili, scan *Scan) *Service {
	return &Service{meili: meili, scan: scan}
}

// Search tries Meilisearch if healthy, otherwise falls back to scanning
// the owner's namespace. Search never fails the request; errors degrade to
// an empty result set.
func (s *Service) Search(q Query) Response {
	if s.meili != nil && s.meili.Healthy() {
		results, total, err := s.meili.Search(q)
		if err == nil {
			return Response{Results: nonNil(results), Total: total, Query: q.Text}
		}
		log.Printf("search: meilisearch error, falling back to scan: %v", err)
	}

	results, total, err := s.scan.Search(q)
	if err != nil {
		log.Printf("search: scan error: %v", err)
		return Response{Results: []Result{}, Total: 0, Query: q.Text}
	}
	return Response{Results: nonNil(results), Total: total, Query: q.Text}
}

// IndexFlowchart indexes a flowchart (fire-and-forget to Meilisearch).
func (s *Service) IndexFlowchart(rec FlowchartRecord) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.IndexFlowchart(rec); err != nil {
			log.Printf("search: index flowchart %s: %v", rec.SessionID, err)
		}
	}()
}

// DeleteFlowchart removes a flowchart from the search index (fire-and-forget).
func (s *Service) DeleteFlowchart(sessionID string) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.DeleteFlowchart(sessionID); err != nil {
			log.Printf("search: delete flowchart %s: %v", sessionID, err)
		}
	}()
}

func nonNil(r []Result) []Result {
	if r == nil {
		return []Result{}
	}
	return r
}
