// Package flowchart defines the node/link document model shared by the
// store, the generation gateway, and the HTTP boundary.
package flowchart

import (
	"encoding/json"
	"strings"
)

// Node shapes accepted by the diagram front end.
const (
	ShapeRoundedRectangle = "RoundedRectangle"
	ShapeEllipse          = "Ellipse"
	ShapeDiamond          = "Diamond"
	ShapeParallelogram    = "Parallelogram"
)

// DefaultShapes is the supported shape enumeration in its canonical order.
var DefaultShapes = []string{
	ShapeRoundedRectangle,
	ShapeEllipse,
	ShapeDiamond,
	ShapeParallelogram,
}

// Node is a single diagram node. Key uniqueness within a document is the
// caller's responsibility; the store does not enforce it.
type Node struct {
	Key   int    `json:"key"`
	Text  string `json:"text"`
	Loc   string `json:"loc"`
	Shape string `json:"shape"`
}

// Link connects two nodes by key, with an optional label.
type Link struct {
	From int    `json:"from"`
	To   int    `json:"to"`
	Text string `json:"text,omitempty"`
}

// Document is the full flowchart model. Both arrays are always non-nil so
// the serialized form always carries both top-level fields.
type Document struct {
	Nodes []Node `json:"nodeDataArray"`
	Links []Link `json:"linkDataArray"`
}

// Empty returns the canonical empty document.
func Empty() Document {
	return Document{Nodes: []Node{}, Links: []Link{}}
}

// Normalize replaces nil arrays so a document never marshals with a
// missing or null field.
func (d *Document) Normalize() {
	if d.Nodes == nil {
		d.Nodes = []Node{}
	}
	if d.Links == nil {
		d.Links = []Link{}
	}
}

// Title derives a listing title: the first node's trimmed text, or a fixed
// placeholder when the document is empty or untitled.
func (d Document) Title() string {
	if len(d.Nodes) > 0 {
		if title := strings.TrimSpace(d.Nodes[0].Text); title != "" {
			return title
		}
	}
	return "Untitled flowchart"
}

// Parse decodes a serialized document, normalizing absent arrays.
func Parse(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Empty(), err
	}
	doc.Normalize()
	return doc, nil
}

// Marshal serializes a document in the stored two-space-indented form.
func Marshal(doc Document) ([]byte, error) {
	doc.Normalize()
	return json.MarshalIndent(doc, "", "  ")
}

// ValidShape reports whether s is one of the supported shape names.
func ValidShape(s string) bool {
	for _, shape := range DefaultShapes {
		if s == shape {
			return true
		}
	}
	return false
}
