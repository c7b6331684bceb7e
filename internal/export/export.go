// Package export writes a session's transcript in a shareable format.
package export

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/abhisek/mathtutor/internal/session"
)

// Exporter writes one session.
type Exporter interface {
	Export(s *session.Session, w io.Writer) error
	Extension() string
}

// Formats lists the supported format names.
var Formats = []string{"json", "yaml", "md"}

// NewExporter returns the exporter for format.
func NewExporter(format string) (Exporter, error) {
	switch format {
	case "json":
		return &JSONExporter{}, nil
	case "yaml", "yml":
		return &YAMLExporter{}, nil
	case "md", "markdown":
		return &MarkdownExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: json, yaml, md)", format)
	}
}

// JSONExporter writes the full session document, pretty-printed.
type JSONExporter struct{}

func (e *JSONExporter) Export(s *session.Session, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

func (e *JSONExporter) Extension() string { return "json" }

// YAMLExporter writes the full session document as YAML.
type YAMLExporter struct{}

func (e *YAMLExporter) Export(s *session.Session, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	defer func() { _ = enc.Close() }()
	return enc.Encode(s)
}

func (e *YAMLExporter) Extension() string { return "yaml" }
