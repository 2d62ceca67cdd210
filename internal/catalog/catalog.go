// Package catalog serves the read-only library of starter flowcharts and
// instantiates them into fresh sessions.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"flowsmith/api/internal/flowchart"
	"flowsmith/api/internal/util"
)

var (
	ErrNotFound = errors.New("template not found")
	ErrCorrupt  = errors.New("template corrupt")
)

// documentWriter is the slice of the document store the catalog needs.
type documentWriter interface {
	Save(ctx context.Context, sessionID string, doc flowchart.Document, owner string) error
}

// Instance is a freshly instantiated template: a new unowned session seeded
// with a copy of the template's content.
type Instance struct {
	SessionID string
	Document  flowchart.Document
	Template  string
}

// Catalog reads template JSON files from a directory and filters their
// visibility through an explicit role policy. Roles missing from the policy
// see nothing.
type Catalog struct {
	dir    string
	policy map[string][]string
	store  documentWriter
}

func New(dir string, policy map[string][]string, store documentWriter) *Catalog {
	if policy == nil {
		policy = map[string][]string{}
	}
	return &Catalog{dir: dir, policy: policy, store: store}
}

// ListAll returns every template name in the directory, sorted.
func (c *Catalog) ListAll() ([]string, error) {
	entries, err := os.ReadDir(c.dir)
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read template dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), ".json"))
	}
	sort.Strings(names)
	return names, nil
}

// ListForRole intersects the directory contents with the role's allowed
// names. Unknown roles get the empty list, not everything.
func (c *Catalog) ListForRole(role string) ([]string, error) {
	all, err := c.ListAll()
	if err != nil {
		return nil, err
	}
	allowed := map[string]bool{}
	for _, name := range c.policy[role] {
		allowed[name] = true
	}

	names := make([]string, 0)
	for _, name := range all {
		if allowed[name] {
			names = append(names, name)
		}
	}
	return names, nil
}

// Instantiate copies the named template into a brand-new unowned session.
// Repeated instantiation yields distinct sessions.
func (c *Catalog) Instantiate(ctx context.Context, name string) (Instance, error) {
	content, err := os.ReadFile(filepath.Join(c.dir, name+".json"))
	if errors.Is(err, os.ErrNotExist) {
		return Instance{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return Instance{}, fmt.Errorf("read template %s: %w", name, err)
	}

	doc, err := flowchart.Parse(content)
	if err != nil {
		return Instance{}, fmt.Errorf("%w: %s: %v", ErrCorrupt, name, err)
	}

	sessionID := util.NewID("")
	if err := c.store.Save(ctx, sessionID, doc, ""); err != nil {
		return Instance{}, err
	}
	return Instance{SessionID: sessionID, Document: doc, Template: name}, nil
}
