// Package app ties the flowchart subsystems together behind the HTTP API.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"flowsmith/api/internal/auth"
	"flowsmith/api/internal/catalog"
	"flowsmith/api/internal/config"
	"flowsmith/api/internal/export"
	"flowsmith/api/internal/flowchart"
	"flowsmith/api/internal/history"
	"flowsmith/api/internal/search"
	"flowsmith/api/internal/store"
	"flowsmith/api/internal/util"
)

// Session is the caller's identity for one request. Anonymous callers carry
// the zero value: no owner namespace, no role.
type Session struct {
	Email     string
	Role      string
	JTI       string
	ExpiresAt time.Time
}

// Anonymous reports whether the session carries no identity.
func (s Session) Anonymous() bool { return s.Email == "" }

type documentStore interface {
	Save(ctx context.Context, sessionID string, doc flowchart.Document, owner string) error
	Load(ctx context.Context, sessionID, owner string) (flowchart.Document, error)
	Raw(ctx context.Context, sessionID, owner string) ([]byte, store.Entry, error)
	Resolve(ctx context.Context, sessionID, owner string) (string, error)
	Delete(ctx context.Context, sessionID, owner string) error
	Ping(ctx context.Context) error
}

type generator interface {
	Generate(ctx context.Context, prompt, owner string) (string, flowchart.Document, error)
	Modify(ctx context.Context, sessionID, instruction, owner string) (flowchart.Document, error)
}

type templateCatalog interface {
	ListForRole(role string) ([]string, error)
	Instantiate(ctx context.Context, name string) (catalog.Instance, error)
}

type historyIndex interface {
	ListFor(ctx context.Context, owner string) ([]history.DayGroup, error)
}

type searchService interface {
	Search(q search.Query) search.Response
	IndexFlowchart(rec search.FlowchartRecord)
	DeleteFlowchart(sessionID string)
}

type revocationStore interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	Revoked(ctx context.Context, jti string) (bool, error)
	Ping(ctx context.Context) error
}

type Service struct {
	cfg        config.Config
	store      documentStore
	gateway    generator
	catalog    templateCatalog
	history    historyIndex
	search     searchService
	revocation revocationStore
}

func New(cfg config.Config, docs documentStore, gateway generator, cat templateCatalog, hist historyIndex, searchSvc searchService, revocation revocationStore) *Service {
	return &Service{
		cfg:        cfg,
		store:      docs,
		gateway:    gateway,
		catalog:    cat,
		history:    hist,
		search:     searchSvc,
		revocation: revocation,
	}
}

// Ping reports storage reachability for readiness checks.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// PingRevocation reports revocation-store reachability.
func (s *Service) PingRevocation(ctx context.Context) error {
	return s.revocation.Ping(ctx)
}

// Login issues a signed token for a self-asserted identity. The email is
// taken at face value; it only scopes storage, it grants nothing.
func (s *Service) Login(ctx context.Context, email, role string) (map[string]any, error) {
	email = strings.TrimSpace(email)
	role = strings.TrimSpace(role)
	if email == "" || role == "" {
		return nil, domainError(http.StatusBadRequest, "VALIDATION_ERROR", "email and role are required", nil)
	}

	expiresAt := time.Now().Add(s.cfg.SessionTTL)
	claims := auth.Claims{
		Email: email,
		Role:  role,
		JTI:   util.NewID(""),
		Exp:   expiresAt.Unix(),
	}
	token, err := auth.IssueToken([]byte(s.cfg.TokenSecret), claims)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	return map[string]any{
		"token":     token,
		"email":     email,
		"role":      role,
		"expiresAt": expiresAt.Unix(),
	}, nil
}

// Logout revokes the token for the remainder of its lifetime. An invalid or
// expired token needs no revocation, so logout never fails the caller.
func (s *Service) Logout(ctx context.Context, token string) error {
	claims, err := auth.ParseToken([]byte(s.cfg.TokenSecret), token)
	if err != nil {
		return nil
	}
	ttl := time.Until(time.Unix(claims.Exp, 0))
	return s.revocation.Revoke(ctx, claims.JTI, ttl)
}

// SessionFromToken validates the token and rejects revoked ones.
func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.TokenSecret), token)
	if err != nil {
		return Session{}, err
	}
	revoked, err := s.revocation.Revoked(ctx, claims.JTI)
	if err != nil {
		return Session{}, fmt.Errorf("revocation lookup: %w", err)
	}
	if revoked {
		return Session{}, auth.ErrInvalidToken
	}
	return Session{
		Email:     claims.Email,
		Role:      claims.Role,
		JTI:       claims.JTI,
		ExpiresAt: time.Unix(claims.Exp, 0),
	}, nil
}

// Generate creates a new flowchart from a prompt and persists it under a
// fresh session.
func (s *Service) Generate(ctx context.Context, session Session, prompt string) (map[string]any, error) {
	sessionID, doc, err := s.gateway.Generate(ctx, prompt, session.Email)
	if err != nil {
		return nil, err
	}
	s.indexForSearch(session, sessionID, doc)
	return map[string]any{"json": doc, "session_id": sessionID}, nil
}

// Modify applies an instruction to the stored flowchart of an existing
// session.
func (s *Service) Modify(ctx context.Context, session Session, sessionID, instruction string) (map[string]any, error) {
	doc, err := s.gateway.Modify(ctx, sessionID, instruction, session.Email)
	if err != nil {
		return nil, err
	}
	s.indexForSearch(session, sessionID, doc)
	return map[string]any{"json": doc, "session_id": sessionID}, nil
}

// SaveFlowchart overwrites the session's document with client-provided
// content.
func (s *Service) SaveFlowchart(ctx context.Context, session Session, sessionID string, doc flowchart.Document) (map[string]any, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, domainError(http.StatusBadRequest, "VALIDATION_ERROR", "session_id and json required", nil)
	}
	doc.Normalize()
	if err := s.store.Save(ctx, sessionID, doc, session.Email); err != nil {
		return nil, err
	}
	s.indexForSearch(session, sessionID, doc)
	return map[string]any{"status": "saved"}, nil
}

// LoadFlowchart returns the session's document, or the empty document when
// nothing is stored yet.
func (s *Service) LoadFlowchart(ctx context.Context, session Session, sessionID string) (map[string]any, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, domainError(http.StatusBadRequest, "VALIDATION_ERROR", "session_id required", nil)
	}
	doc, err := s.store.Load(ctx, sessionID, session.Email)
	if err != nil {
		return nil, err
	}
	return map[string]any{"json": doc}, nil
}

// History lists the caller's sessions grouped by day. Anonymous callers
// have no history.
func (s *Service) History(ctx context.Context, session Session) (map[string]any, error) {
	days, err := s.history.ListFor(ctx, session.Email)
	if err != nil {
		return nil, err
	}
	return map[string]any{"days": days}, nil
}

// OpenHistory returns the stored document for an existing session; unlike
// LoadFlowchart, an absent record is an error here.
func (s *Service) OpenHistory(ctx context.Context, session Session, sessionID string) (map[string]any, error) {
	content, _, err := s.store.Raw(ctx, sessionID, session.Email)
	if err != nil {
		return nil, err
	}
	doc, err := flowchart.Parse(content)
	if err != nil {
		return nil, fmt.Errorf("parse stored document: %w", err)
	}
	return map[string]any{"json": doc, "session_id": sessionID}, nil
}

// Download renders a stored session as a downloadable file. JSON downloads
// are named after the session id, PDF after the flowchart title.
func (s *Service) Download(ctx context.Context, session Session, sessionID string, format export.Format) (*export.Result, error) {
	content, _, err := s.store.Raw(ctx, sessionID, session.Email)
	if err != nil {
		return nil, err
	}
	doc, err := flowchart.Parse(content)
	if err != nil {
		return nil, fmt.Errorf("parse stored document: %w", err)
	}
	result, err := export.Export(doc, format)
	if err != nil {
		return nil, err
	}
	if format == export.FormatJSON || format == "" {
		result.Filename = sessionID + ".json"
	}
	return result, nil
}

// DeleteHistory removes the session's record. Deleting an absent record
// succeeds without touching anything.
func (s *Service) DeleteHistory(ctx context.Context, session Session, sessionID string) (map[string]any, error) {
	_, err := s.store.Resolve(ctx, sessionID, session.Email)
	if errors.Is(err, store.ErrNotFound) {
		return map[string]any{"status": "ok"}, nil
	}
	if err != nil {
		return nil, err
	}
	if err := s.store.Delete(ctx, sessionID, session.Email); err != nil {
		return nil, err
	}
	s.search.DeleteFlowchart(sessionID)
	return map[string]any{"status": "deleted", "session_id": sessionID}, nil
}

// Templates lists the template names visible to the session's role.
func (s *Service) Templates(session Session) (map[string]any, error) {
	names, err := s.catalog.ListForRole(session.Role)
	if err != nil {
		return nil, err
	}
	return map[string]any{"templates": names}, nil
}

// LoadTemplate instantiates a template into a fresh session.
func (s *Service) LoadTemplate(ctx context.Context, name string) (map[string]any, error) {
	instance, err := s.catalog.Instantiate(ctx, name)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"json":       instance.Document,
		"session_id": instance.SessionID,
		"template":   instance.Template,
	}, nil
}

// Search matches the query against the caller's flowchart titles.
func (s *Service) Search(session Session, text string, limit int) search.Response {
	return s.search.Search(search.Query{
		Text:  strings.TrimSpace(text),
		Owner: session.Email,
		Limit: limit,
	})
}

// indexForSearch pushes an owned record into the search index. Anonymous
// sessions are not searchable.
func (s *Service) indexForSearch(session Session, sessionID string, doc flowchart.Document) {
	if session.Anonymous() {
		return
	}
	s.search.IndexFlowchart(search.FlowchartRecord{
		SessionID: sessionID,
		Title:     doc.Title(),
		Owner:     session.Email,
		UpdatedAt: time.Now().UTC(),
	})
}
