package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zjy-dev/funccov/internal/coverage"
)

// SummaryFile is the machine-readable export of a whole run.
type SummaryFile struct {
	Images []coverage.Summary `json:"images" yaml:"images"`
}

// MarshalSummary encodes summaries as YAML for .yaml/.yml paths and as
// indented JSON otherwise.
func MarshalSummary(path string, summaries []coverage.Summary) ([]byte, error) {
	doc := SummaryFile{Images: summaries}
	if doc.Images == nil {
		doc.Images = []coverage.Summary{}
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Marshal(doc)
	default:
		out, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(out, '\n'), nil
	}
}

// WriteSummary writes the summary export to path, creating parent directories.
func WriteSummary(path string, summaries []coverage.Summary) error {
	content, err := MarshalSummary(path, summaries)
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create summary directory: %w", err)
		}
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}
