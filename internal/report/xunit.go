package report

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zjy-dev/funccov/internal/coverage"
)

type xunitSuites struct {
	XMLName xml.Name     `xml:"testsuites"`
	Suites  []xunitSuite `xml:"testsuite"`
}

type xunitSuite struct {
	Errors   int         `xml:"errors,attr"`
	Failures int         `xml:"failures,attr"`
	Name     string      `xml:"name,attr"`
	Skipped  int         `xml:"skipped,attr"`
	Tests    int         `xml:"tests,attr"`
	Cases    []xunitCase `xml:"testcase"`
}

type xunitCase struct {
	ClassName string      `xml:"classname,attr"`
	Name      string      `xml:"name,attr"`
	Passed    xunitPassed `xml:"passed"`
}

type xunitPassed struct {
	Message string `xml:"message,attr"`
	Body    string `xml:",cdata"`
}

// RenderXUnit renders a single-testcase XUnit document for one image.
// The suite counts every defined function as a test and every uncalled one
// as skipped, so CI dashboards show coverage as a pass/skip ratio.
func RenderXUnit(s coverage.Summary) ([]byte, error) {
	name := SanitizeName(s.Image)
	suiteName := "binary_coverage_" + name

	message := strings.Join([]string{
		"Coverage Summary for " + name,
		fmt.Sprintf("Total Functions: %d", s.TotalCount),
		fmt.Sprintf("Called Functions: %d", s.CalledCount),
		fmt.Sprintf("Uncalled Functions: %d", s.UncalledCount),
		"Coverage: " + formatPercent(s.CoveragePercentage) + "%",
	}, " | ")

	var details []string
	if len(s.Called) > 0 {
		details = append(details, "CALLED FUNCTIONS:")
		for _, fn := range s.Called {
			details = append(details, "  ✓ "+fn)
		}
		details = append(details, "")
	}
	if len(s.Uncalled) > 0 {
		details = append(details, "UNCALLED FUNCTIONS:")
		for _, fn := range s.Uncalled {
			details = append(details, "  ✗ "+fn)
		}
	}

	doc := xunitSuites{
		Suites: []xunitSuite{{
			Name:    suiteName,
			Skipped: s.UncalledCount,
			Tests:   s.TotalCount,
			Cases: []xunitCase{{
				ClassName: suiteName,
				Name:      "Result",
				Passed: xunitPassed{
					Message: message,
					Body:    strings.Join(details, "\n"),
				},
			}},
		}},
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal XUnit report for %s: %w", s.Image, err)
	}
	return append([]byte(xml.Header), out...), nil
}

// XUnitReporter saves one coverage_<image>.xml document per image.
type XUnitReporter struct {
	outputDir string
}

// NewXUnitReporter creates a new XUnitReporter.
func NewXUnitReporter(outputDir string) *XUnitReporter {
	return &XUnitReporter{outputDir: outputDir}
}

func (r *XUnitReporter) Format() string    { return "XUnit" }
func (r *XUnitReporter) OutputDir() string { return r.outputDir }

// Save renders and writes the XUnit document for s.
func (r *XUnitReporter) Save(s coverage.Summary) (string, error) {
	path := filepath.Join(r.outputDir, FileName(s.Image, ".xml"))

	content, err := RenderXUnit(s)
	if err != nil {
		return path, err
	}
	return path, os.WriteFile(path, content, 0644)
}
