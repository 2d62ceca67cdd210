package app

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"flowsmith/api/internal/catalog"
	"flowsmith/api/internal/config"
	"flowsmith/api/internal/flowchart"
	"flowsmith/api/internal/genai"
	"flowsmith/api/internal/history"
	"flowsmith/api/internal/search"
	"flowsmith/api/internal/session"
	"flowsmith/api/internal/store"
	"flowsmith/api/internal/util"
)

type fakeDocs struct {
	docs    map[string]flowchart.Document
	pingErr error
}

func newFakeDocs() *fakeDocs {
	return &fakeDocs{docs: map[string]flowchart.Document{}}
}

func (f *fakeDocs) key(sessionID, owner string) string {
	return store.StorageKey(sessionID, owner)
}

func (f *fakeDocs) resolve(sessionID, owner string) (string, bool) {
	if owner != "" {
		if _, ok := f.docs[f.key(sessionID, owner)]; ok {
			return f.key(sessionID, owner), true
		}
	}
	if _, ok := f.docs[sessionID]; ok {
		return sessionID, true
	}
	return "", false
}

func (f *fakeDocs) Save(_ context.Context, sessionID string, doc flowchart.Document, owner string) error {
	f.docs[f.key(sessionID, owner)] = doc
	return nil
}

func (f *fakeDocs) Load(_ context.Context, sessionID, owner string) (flowchart.Document, error) {
	if key, ok := f.resolve(sessionID, owner); ok {
		return f.docs[key], nil
	}
	return flowchart.Empty(), nil
}

func (f *fakeDocs) Resolve(_ context.Context, sessionID, owner string) (string, error) {
	if key, ok := f.resolve(sessionID, owner); ok {
		return key, nil
	}
	return "", store.ErrNotFound
}

func (f *fakeDocs) Raw(_ context.Context, sessionID, owner string) ([]byte, store.Entry, error) {
	key, ok := f.resolve(sessionID, owner)
	if !ok {
		return nil, store.Entry{}, store.ErrNotFound
	}
	content, err := flowchart.Marshal(f.docs[key])
	return content, store.Entry{Key: key, Size: int64(len(content))}, err
}

func (f *fakeDocs) Delete(_ context.Context, sessionID, owner string) error {
	if key, ok := f.resolve(sessionID, owner); ok {
		delete(f.docs, key)
	}
	return nil
}

func (f *fakeDocs) Ping(context.Context) error { return f.pingErr }

type fakeGateway struct {
	doc flowchart.Document
	err error
}

func (g *fakeGateway) Generate(_ context.Context, _, _ string) (string, flowchart.Document, error) {
	if g.err != nil {
		return "", flowchart.Empty(), g.err
	}
	return util.NewID(""), g.doc, nil
}

func (g *fakeGateway) Modify(_ context.Context, sessionID, _, _ string) (flowchart.Document, error) {
	if g.err != nil {
		return flowchart.Empty(), g.err
	}
	if sessionID == "" {
		return flowchart.Empty(), genai.ErrSessionRequired
	}
	return g.doc, nil
}

type fakeCatalog struct {
	byRole map[string][]string
}

func (c *fakeCatalog) ListForRole(role string) ([]string, error) {
	names := c.byRole[role]
	if names == nil {
		names = []string{}
	}
	return names, nil
}

func (c *fakeCatalog) Instantiate(_ context.Context, name string) (catalog.Instance, error) {
	for _, names := range c.byRole {
		for _, n := range names {
			if n == name {
				return catalog.Instance{
					SessionID: util.NewID(""),
					Document:  flowchart.Empty(),
					Template:  name,
				}, nil
			}
		}
	}
	return catalog.Instance{}, catalog.ErrNotFound
}

type fakeHistory struct {
	days []history.DayGroup
}

func (h *fakeHistory) ListFor(_ context.Context, owner string) ([]history.DayGroup, error) {
	if owner == "" {
		return []history.DayGroup{}, nil
	}
	return h.days, nil
}

type fakeSearch struct {
	indexed []search.FlowchartRecord
	deleted []string
}

func (s *fakeSearch) Search(q search.Query) search.Response {
	return search.Response{Results: []search.Result{}, Query: q.Text}
}

func (s *fakeSearch) IndexFlowchart(rec search.FlowchartRecord) {
	s.indexed = append(s.indexed, rec)
}

func (s *fakeSearch) DeleteFlowchart(sessionID string) {
	s.deleted = append(s.deleted, sessionID)
}

func testConfig() config.Config {
	return config.Config{
		TokenSecret: "test-secret",
		SessionTTL:  time.Hour,
		CORSOrigin:  "*",
	}
}

func newTestService(docs *fakeDocs, gateway *fakeGateway, searchSvc *fakeSearch) *Service {
	if docs == nil {
		docs = newFakeDocs()
	}
	if gateway == nil {
		gateway = &fakeGateway{doc: flowchart.Empty()}
	}
	if searchSvc == nil {
		searchSvc = &fakeSearch{}
	}
	cat := &fakeCatalog{byRole: map[string][]string{
		"NPI":     {"warehouse", "smt_top"},
		"Quality": {"wave_soldering"},
	}}
	return New(testConfig(), docs, gateway, cat, &fakeHistory{}, searchSvc, session.NewMemoryStore())
}

func TestLoginIssuesValidToken(t *testing.T) {
	svc := newTestService(nil, nil, nil)

	payload, err := svc.Login(context.Background(), "avery@example.com", "NPI")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	token, _ := payload["token"].(string)
	if token == "" {
		t.Fatal("expected a token")
	}

	sess, err := svc.SessionFromToken(context.Background(), token)
	if err != nil {
		t.Fatalf("session from token: %v", err)
	}
	if sess.Email != "avery@example.com" || sess.Role != "NPI" {
		t.Fatalf("unexpected session %+v", sess)
	}
}

func TestLoginRequiresEmailAndRole(t *testing.T) {
	svc := newTestService(nil, nil, nil)

	for _, tt := range []struct{ email, role string }{
		{"   ", "NPI"},
		{"avery@example.com", ""},
	} {
		_, err := svc.Login(context.Background(), tt.email, tt.role)
		var domainErr *DomainError
		if !errors.As(err, &domainErr) || domainErr.Status != http.StatusBadRequest {
			t.Fatalf("Login(%q, %q): expected validation error, got %v", tt.email, tt.role, err)
		}
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	svc := newTestService(nil, nil, nil)

	payload, err := svc.Login(context.Background(), "avery@example.com", "NPI")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	token := payload["token"].(string)

	if err := svc.Logout(context.Background(), token); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := svc.SessionFromToken(context.Background(), token); err == nil {
		t.Fatal("revoked token must not resolve to a session")
	}
}

func TestLogoutWithGarbageTokenSucceeds(t *testing.T) {
	svc := newTestService(nil, nil, nil)
	if err := svc.Logout(context.Background(), "not.a.token"); err != nil {
		t.Fatalf("logout must tolerate invalid tokens: %v", err)
	}
}

func TestGenerateIndexesOwnedSessions(t *testing.T) {
	searchSvc := &fakeSearch{}
	doc := flowchart.Document{Nodes: []flowchart.Node{{Key: 1, Text: "Start"}}, Links: []flowchart.Link{}}
	svc := newTestService(nil, &fakeGateway{doc: doc}, searchSvc)

	if _, err := svc.Generate(context.Background(), Session{Email: "avery@example.com"}, "draw"); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(searchSvc.indexed) != 1 || searchSvc.indexed[0].Title != "Start" {
		t.Fatalf("owned generation must be indexed, got %+v", searchSvc.indexed)
	}

	if _, err := svc.Generate(context.Background(), Session{}, "draw"); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(searchSvc.indexed) != 1 {
		t.Fatal("anonymous generation must not be indexed")
	}
}

func TestDeleteHistoryRemovesSearchEntry(t *testing.T) {
	docs := newFakeDocs()
	searchSvc := &fakeSearch{}
	svc := newTestService(docs, nil, searchSvc)

	sess := Session{Email: "avery@example.com"}
	doc := flowchart.Document{Nodes: []flowchart.Node{{Key: 1, Text: "x"}}, Links: []flowchart.Link{}}
	if _, err := svc.SaveFlowchart(context.Background(), sess, "s1", doc); err != nil {
		t.Fatalf("save: %v", err)
	}

	payload, err := svc.DeleteHistory(context.Background(), sess, "s1")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if payload["status"] != "deleted" {
		t.Fatalf("unexpected payload %v", payload)
	}
	if len(searchSvc.deleted) != 1 || searchSvc.deleted[0] != "s1" {
		t.Fatalf("search entry not deleted: %+v", searchSvc.deleted)
	}
	if _, _, err := docs.Raw(context.Background(), "s1", sess.Email); !errors.Is(err, store.ErrNotFound) {
		t.Fatal("record must be gone after delete")
	}
}

func TestOpenHistoryMissingSession(t *testing.T) {
	svc := newTestService(nil, nil, nil)

	_, err := svc.OpenHistory(context.Background(), Session{Email: "avery@example.com"}, "missing")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTemplatesFollowRole(t *testing.T) {
	svc := newTestService(nil, nil, nil)

	payload, err := svc.Templates(Session{Role: "Quality"})
	if err != nil {
		t.Fatalf("templates: %v", err)
	}
	names := payload["templates"].([]string)
	if len(names) != 1 || names[0] != "wave_soldering" {
		t.Fatalf("unexpected templates %v", names)
	}

	payload, err = svc.Templates(Session{})
	if err != nil {
		t.Fatalf("templates: %v", err)
	}
	if len(payload["templates"].([]string)) != 0 {
		t.Fatal("anonymous role must see no templates")
	}
}
