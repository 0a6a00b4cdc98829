package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/zjy-dev/funccov/internal/coverage"
)

const ruleWidth = 50

// ConsoleReporter prints a human-readable coverage block per image.
// Styling is dropped automatically when w is not a terminal.
type ConsoleReporter struct {
	w        io.Writer
	header   lipgloss.Style
	dim      lipgloss.Style
	percent  lipgloss.Style
	called   lipgloss.Style
	uncalled lipgloss.Style
}

// NewConsoleReporter creates a ConsoleReporter writing to w.
func NewConsoleReporter(w io.Writer) *ConsoleReporter {
	r := lipgloss.NewRenderer(w)
	return &ConsoleReporter{
		w:        w,
		header:   r.NewStyle().Bold(true),
		dim:      r.NewStyle().Foreground(lipgloss.Color("240")),
		percent:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		called:   r.NewStyle().Foreground(lipgloss.Color("42")),
		uncalled: r.NewStyle().Foreground(lipgloss.Color("196")),
	}
}

// Print writes the report for every summary, in the order given.
func (c *ConsoleReporter) Print(summaries []coverage.Summary) error {
	var b strings.Builder

	if len(summaries) == 0 {
		b.WriteString("No data to report. Please check your log files.\n")
		_, err := io.WriteString(c.w, b.String())
		return err
	}

	heavy := c.dim.Render(strings.Repeat("=", ruleWidth))
	light := c.dim.Render(strings.Repeat("-", ruleWidth))

	for _, s := range summaries {
		fmt.Fprintf(&b, "\n%s\n", heavy)
		fmt.Fprintf(&b, "%s\n", c.header.Render("Image: "+s.Image))
		fmt.Fprintf(&b, "%s\n", heavy)
		fmt.Fprintf(&b, "  Functions Found:   %d\n", s.TotalCount)
		fmt.Fprintf(&b, "  Functions Called:  %d\n", s.CalledCount)
		fmt.Fprintf(&b, "  Coverage:          %s\n", c.percent.Render(formatPercent(s.CoveragePercentage)+"%"))
		fmt.Fprintf(&b, "%s\n", light)

		if len(s.Called) > 0 {
			b.WriteString("  Called Functions:\n")
			for _, fn := range s.Called {
				fmt.Fprintf(&b, "    - %s\n", c.called.Render(fn))
			}
		} else {
			b.WriteString("  No functions were called for this image.\n")
		}

		switch {
		case len(s.Uncalled) > 0:
			b.WriteString("\n  Uncalled Functions:\n")
			for _, fn := range s.Uncalled {
				fmt.Fprintf(&b, "    - %s\n", c.uncalled.Render(fn))
			}
		case s.TotalCount == 0:
			b.WriteString("\n  No functions were defined for this image.\n")
		default:
			b.WriteString("\n  All defined functions were called.\n")
		}
	}

	b.WriteString("\n--- End of Console Report ---\n")
	_, err := io.WriteString(c.w, b.String())
	return err
}
