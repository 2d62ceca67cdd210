package export

import (
	"fmt"

	"flowsmith/api/internal/flowchart"
)

// Export renders the document in the requested format. JSON is the model's
// canonical serialization; PDF goes through headless Chrome.
func Export(doc flowchart.Document, format Format) (*Result, error) {
	switch format {
	case FormatJSON, "":
		data, err := flowchart.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("marshal flowchart: %w", err)
		}
		return &Result{
			Data:     data,
			Filename: sanitizeFilename(doc.Title()) + ".json",
			MimeType: "application/json",
		}, nil
	case FormatPDF:
		html, err := RenderFlowchartHTML(doc)
		if err != nil {
			return nil, fmt.Errorf("render flowchart page: %w", err)
		}
		return exportPDF(html, doc.Title())
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}
