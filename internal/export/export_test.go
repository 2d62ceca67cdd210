package export

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"flowsmith/api/internal/flowchart"
)

func sampleDocument() flowchart.Document {
	return flowchart.Document{
		Nodes: []flowchart.Node{
			{Key: 1, Text: "Receive parts", Loc: "0 0", Shape: "Ellipse"},
			{Key: 2, Text: "Inspect & log", Loc: "0 100", Shape: "Diamond"},
		},
		Links: []flowchart.Link{
			{From: 1, To: 2, Text: "next"},
		},
	}
}

func TestRenderFlowchartHTML(t *testing.T) {
	html, err := RenderFlowchartHTML(sampleDocument())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(html, "Receive parts") {
		t.Error("node text missing from page")
	}
	if !strings.Contains(html, "Inspect &amp; log") {
		t.Error("node text not HTML-escaped")
	}
	if !strings.Contains(html, "<td>next</td>") {
		t.Error("link label missing from page")
	}
	if !strings.Contains(html, "2 steps") {
		t.Error("step count missing from page")
	}
}

func TestExportJSON(t *testing.T) {
	result, err := Export(sampleDocument(), FormatJSON)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if result.MimeType != "application/json" {
		t.Errorf("unexpected mime type %q", result.MimeType)
	}
	if result.Filename != "Receive-parts.json" {
		t.Errorf("unexpected filename %q", result.Filename)
	}

	var doc flowchart.Document
	if err := json.Unmarshal(result.Data, &doc); err != nil {
		t.Fatalf("export payload not valid JSON: %v", err)
	}
	if len(doc.Nodes) != 2 || len(doc.Links) != 1 {
		t.Fatalf("unexpected payload %+v", doc)
	}
}

func TestExportEmptyFormatDefaultsToJSON(t *testing.T) {
	result, err := Export(sampleDocument(), "")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if result.MimeType != "application/json" {
		t.Errorf("unexpected mime type %q", result.MimeType)
	}
}

func TestExportUnsupportedFormat(t *testing.T) {
	if _, err := Export(sampleDocument(), "docx"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Wave soldering / rework", "Wave-soldering--rework"},
		{"", "flowchart"},
		{"___", "___"},
		{strings.Repeat("a", 80), strings.Repeat("a", 50)},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPercentEncodeForDataURL(t *testing.T) {
	got := percentEncodeForDataURL("a b<c>")
	if got != "a%20b%3Cc%3E" {
		t.Errorf("unexpected encoding %q", got)
	}
}
