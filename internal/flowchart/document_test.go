package flowchart

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestParseNormalizesMissingArrays(t *testing.T) {
	doc, err := Parse([]byte(`{"nodeDataArray":[{"key":1,"text":"Start","loc":"0 0","shape":"Ellipse"}]}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if doc.Links == nil {
		t.Fatal("expected non-nil link array")
	}
	if len(doc.Nodes) != 1 || doc.Nodes[0].Text != "Start" {
		t.Fatalf("unexpected nodes: %+v", doc.Nodes)
	}
}

func TestParseMalformed(t *testing.T) {
	doc, err := Parse([]byte("I cannot help with that"))
	if err == nil {
		t.Fatal("expected parse error")
	}
	if doc.Nodes == nil || doc.Links == nil || len(doc.Nodes) != 0 || len(doc.Links) != 0 {
		t.Fatalf("expected canonical empty document, got %+v", doc)
	}
}

func TestMarshalAlwaysEmitsBothFields(t *testing.T) {
	data, err := Marshal(Document{})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, field := range []string{"nodeDataArray", "linkDataArray"} {
		value, ok := raw[field]
		if !ok {
			t.Fatalf("missing field %s", field)
		}
		if strings.TrimSpace(string(value)) == "null" {
			t.Fatalf("field %s marshaled as null", field)
		}
	}
}

func TestTitle(t *testing.T) {
	cases := []struct {
		name string
		doc  Document
		want string
	}{
		{name: "first node text", doc: Document{Nodes: []Node{{Key: 1, Text: "Receive goods"}}}, want: "Receive goods"},
		{name: "blank text falls back", doc: Document{Nodes: []Node{{Key: 1, Text: "   "}}}, want: "Untitled flowchart"},
		{name: "empty document", doc: Empty(), want: "Untitled flowchart"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.doc.Title(); got != tc.want {
				t.Fatalf("Title() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestValidShape(t *testing.T) {
	for _, shape := range DefaultShapes {
		if !ValidShape(shape) {
			t.Fatalf("expected %q to be valid", shape)
		}
	}
	if ValidShape("Hexagon") {
		t.Fatal("Hexagon should not be a supported shape")
	}
}
