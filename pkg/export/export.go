// Package export renders tabular rosters into downloadable documents.
package export

import "fmt"

// Dataset is an ordered table with an optional heading block.
type Dataset struct {
	Title   string
	Meta    []string
	Headers []string
	Rows    [][]string
}

func (d Dataset) validate() error {
	if len(d.Headers) == 0 {
		return fmt.Errorf("dataset requires at least one header")
	}
	for i, row := range d.Rows {
		if len(row) != len(d.Headers) {
			return fmt.Errorf("row %d has %d cells, want %d", i, len(row), len(d.Headers))
		}
	}
	return nil
}

// Renderer produces a document in one format.
type Renderer interface {
	Render(data Dataset) ([]byte, error)
	ContentType() string
	Extension() string
}

// ForFormat returns the renderer for "csv" or "pdf".
func ForFormat(format string) (Renderer, bool) {
	switch format {
	case "csv":
		return NewCSVExporter(), true
	case "pdf":
		return NewPDFExporter(), true
	default:
		return nil, false
	}
}
