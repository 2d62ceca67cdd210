// Package export renders flowcharts to downloadable files.
package export

import "errors"

// Format represents the export output format.
type Format string

const (
	FormatJSON Format = "json"
	FormatPDF  Format = "pdf"
)

// Result contains the export output.
type Result struct {
	Data     []byte
	Filename string
	MimeType string
}

var (
	// ErrPDFDependencyMissing indicates PDF export runtime dependencies are unavailable.
	ErrPDFDependencyMissing = errors.New("export pdf dependency missing")
	// ErrUnsupportedFormat indicates the requested format is not known.
	ErrUnsupportedFormat = errors.New("export format not supported")
)
