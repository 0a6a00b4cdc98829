package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zjy-dev/funccov/internal/coverage"
)

// MarkdownReporter implements FileReporter by saving reports as markdown files.
type MarkdownReporter struct {
	outputDir string
}

// NewMarkdownReporter creates a new MarkdownReporter.
func NewMarkdownReporter(outputDir string) *MarkdownReporter {
	return &MarkdownReporter{
		outputDir: outputDir,
	}
}

func (r *MarkdownReporter) Format() string    { return "Markdown" }
func (r *MarkdownReporter) OutputDir() string { return r.outputDir }

// RenderMarkdown renders the coverage of one image as a markdown document.
func RenderMarkdown(s coverage.Summary) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "# Coverage Report: %s\n\n", s.Image)
	b.WriteString("## Summary\n\n")
	b.WriteString("| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Total Functions | %d |\n", s.TotalCount)
	fmt.Fprintf(&b, "| Called Functions | %d |\n", s.CalledCount)
	fmt.Fprintf(&b, "| Uncalled Functions | %d |\n", s.UncalledCount)
	fmt.Fprintf(&b, "| Coverage | %s%% |\n\n", formatPercent(s.CoveragePercentage))

	b.WriteString("## Called Functions\n\n")
	if len(s.Called) == 0 {
		b.WriteString("No functions were called for this image.\n\n")
	}
	for _, fn := range s.Called {
		fmt.Fprintf(&b, "- [x] `%s`\n", fn)
	}
	if len(s.Called) > 0 {
		b.WriteString("\n")
	}

	b.WriteString("## Uncalled Functions\n\n")
	switch {
	case len(s.Uncalled) > 0:
		for _, fn := range s.Uncalled {
			fmt.Fprintf(&b, "- [ ] `%s`\n", fn)
		}
	case s.TotalCount == 0:
		b.WriteString("No functions were defined for this image.\n")
	default:
		b.WriteString("All defined functions were called.\n")
	}

	return []byte(b.String())
}

// Save writes the markdown report for s.
func (r *MarkdownReporter) Save(s coverage.Summary) (string, error) {
	reportPath := filepath.Join(r.outputDir, FileName(s.Image, ".md"))
	return reportPath, os.WriteFile(reportPath, RenderMarkdown(s), 0644)
}
