// Package store persists flowchart documents as a flat keyed namespace.
// A record belongs to (owner, session id); owned records live under the key
// "owner__session" with the owner email sanitized, unowned records under the
// bare session id. Lookups prefer the owner's key and fall back to the
// unnamespaced one, never the other way around.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"flowsmith/api/internal/flowchart"
)

// ErrNotFound reports that no record exists at any resolvable key.
var ErrNotFound = errors.New("record not found")

// Entry describes a stored record without its content.
type Entry struct {
	Key       string
	Size      int64
	UpdatedAt time.Time
}

// Backend is a flat keyed blob store. Implementations: Postgres, MinIO.
// Get and Stat return ErrNotFound (possibly wrapped) for absent keys; every
// other failure is a storage-medium error and propagates untouched.
type Backend interface {
	Put(ctx context.Context, key string, content []byte) error
	Get(ctx context.Context, key string) ([]byte, Entry, error)
	Stat(ctx context.Context, key string) (Entry, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]Entry, error)
	Ping(ctx context.Context) error
}

// OwnedRecord is one record from an owner's namespace, content included.
type OwnedRecord struct {
	SessionID string
	Content   []byte
	Size      int64
	UpdatedAt time.Time
}

// DocumentStore applies the namespacing and fallback-resolution rules on
// top of a Backend.
type DocumentStore struct {
	backend Backend
}

func NewDocumentStore(backend Backend) *DocumentStore {
	return &DocumentStore{backend: backend}
}

// SanitizeOwner maps an owner email to its key-safe namespace form.
func SanitizeOwner(owner string) string {
	return strings.ReplaceAll(strings.ReplaceAll(owner, "@", "_at_"), ".", "_dot_")
}

// StorageKey builds the concrete key for a (session, owner) pair.
func StorageKey(sessionID, owner string) string {
	if owner == "" {
		return sessionID
	}
	return SanitizeOwner(owner) + "__" + sessionID
}

// Save writes the document at the key for (sessionID, owner), fully
// overwriting prior content. No fallback applies on write: an owned save
// always lands in the owner's namespace.
func (s *DocumentStore) Save(ctx context.Context, sessionID string, doc flowchart.Document, owner string) error {
	content, err := flowchart.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	if err := s.backend.Put(ctx, StorageKey(sessionID, owner), content); err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	return nil
}

// Resolve returns the storage key holding the record, searching the owner's
// namespace first and falling back to the unnamespaced key. ErrNotFound when
// neither exists.
func (s *DocumentStore) Resolve(ctx context.Context, sessionID, owner string) (string, error) {
	if owner != "" {
		key := StorageKey(sessionID, owner)
		_, err := s.backend.Stat(ctx, key)
		if err == nil {
			return key, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return "", err
		}
	}
	key := StorageKey(sessionID, "")
	if _, err := s.backend.Stat(ctx, key); err != nil {
		return "", err
	}
	return key, nil
}

// Load returns the document at the resolved key, or the canonical empty
// document when no record exists. Absence is not an error here; only
// storage-medium failures surface.
func (s *DocumentStore) Load(ctx context.Context, sessionID, owner string) (flowchart.Document, error) {
	content, _, err := s.raw(ctx, sessionID, owner)
	if errors.Is(err, ErrNotFound) {
		return flowchart.Empty(), nil
	}
	if err != nil {
		return flowchart.Empty(), err
	}
	doc, err := flowchart.Parse(content)
	if err != nil {
		return flowchart.Empty(), fmt.Errorf("parse stored document: %w", err)
	}
	return doc, nil
}

// Raw returns the stored bytes and metadata at the resolved key, for
// download and existence-sensitive callers. ErrNotFound when absent.
func (s *DocumentStore) Raw(ctx context.Context, sessionID, owner string) ([]byte, Entry, error) {
	return s.raw(ctx, sessionID, owner)
}

func (s *DocumentStore) raw(ctx context.Context, sessionID, owner string) ([]byte, Entry, error) {
	if owner != "" {
		content, entry, err := s.backend.Get(ctx, StorageKey(sessionID, owner))
		if err == nil {
			return content, entry, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, Entry{}, err
		}
	}
	return s.backend.Get(ctx, StorageKey(sessionID, ""))
}

// Delete removes the record at the resolved key. Deleting an absent record
// is a successful no-op.
func (s *DocumentStore) Delete(ctx context.Context, sessionID, owner string) error {
	key, err := s.Resolve(ctx, sessionID, owner)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return s.backend.Delete(ctx, key)
}

// ListOwned returns every record in the owner's namespace with content.
// An empty owner has no namespace and yields an empty listing.
func (s *DocumentStore) ListOwned(ctx context.Context, owner string) ([]OwnedRecord, error) {
	if owner == "" {
		return []OwnedRecord{}, nil
	}
	prefix := SanitizeOwner(owner) + "__"
	entries, err := s.backend.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list namespace: %w", err)
	}

	records := make([]OwnedRecord, 0, len(entries))
	for _, entry := range entries {
		content, meta, err := s.backend.Get(ctx, entry.Key)
		if errors.Is(err, ErrNotFound) {
			// Deleted between List and Get; skip.
			continue
		}
		if err != nil {
			return nil, err
		}
		records = append(records, OwnedRecord{
			SessionID: sessionIDFromKey(entry.Key),
			Content:   content,
			Size:      meta.Size,
			UpdatedAt: meta.UpdatedAt,
		})
	}
	return records, nil
}

// Ping reports backend reachability for readiness checks.
func (s *DocumentStore) Ping(ctx context.Context) error {
	return s.backend.Ping(ctx)
}

// sessionIDFromKey strips the owner namespace from a storage key. The
// session id is everything after the last "__" separator.
func sessionIDFromKey(key string) string {
	if idx := strings.LastIndex(key, "__"); idx >= 0 {
		return key[idx+2:]
	}
	return key
}
