package report

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"

	"github.com/zjy-dev/funccov/internal/coverage"
)

var htmlTemplate = template.Must(template.New("coverage").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Coverage Report for {{.Image}}</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif; margin: 2em; background-color: #f9f9f9; color: #333; }
        .container { max-width: 1200px; margin: auto; background-color: #fff; padding: 2em; border-radius: 8px; box-shadow: 0 4px 8px rgba(0,0,0,0.1); }
        h1, h2 { color: #1a1a1a; border-bottom: 2px solid #eee; padding-bottom: 0.3em; }
        .summary { background-color: #f4f4f4; padding: 1.5em; border-radius: 8px; margin-bottom: 2em; border: 1px solid #ddd; }
        .summary p { margin: 0.5em 0; font-size: 1.1em; }
        .summary .percentage { font-size: 1.8em; font-weight: bold; color: #0056b3; }
        .progress-bar { background-color: #e9ecef; border-radius: 50px; overflow: hidden; height: 30px; margin-top: 1em; }
        .progress-bar-inner { background-color: #28a745; height: 100%; color: white; text-align: center; line-height: 30px; font-weight: bold; }
        .function-list { display: grid; grid-template-columns: repeat(auto-fill, minmax(320px, 1fr)); gap: 1em; list-style-type: none; padding: 0; }
        .function-list li { padding: 0.6em; border-radius: 5px; font-family: monospace; white-space: nowrap; overflow: hidden; text-overflow: ellipsis; }
        .called { background-color: #d4edda; color: #155724; border-left: 5px solid #28a745; }
        .uncalled { background-color: #f8d7da; color: #721c24; border-left: 5px solid #dc3545; }
    </style>
</head>
<body>
    <div class="container">
        <h1>Coverage Report</h1>
        <h2>Image: {{.Image}}</h2>
        <div class="summary">
            <p><strong>Total Functions:</strong> {{.TotalCount}}</p>
            <p><strong>Called Functions:</strong> {{.CalledCount}}</p>
            <p><strong>Uncalled Functions:</strong> {{.UncalledCount}}</p>
            <p class="percentage">Coverage: {{.Percent}}%</p>
            <div class="progress-bar">
                <div class="progress-bar-inner" style="width: {{.BarWidth}}%">{{.Percent}}%</div>
            </div>
        </div>
        <details>
        <summary><h2>Function Details</h2></summary>
        <p><strong>Legend: </strong><span class="called"> Called Function </span><span class="uncalled"> Uncalled Function </span></p>
        <p>List of functions found in the log file:</p>
        <ul class="function-list">
{{- range .Functions}}
            <li class="{{.Class}}" title="{{.Name}}">{{.Name}}</li>
{{- end}}
        </ul>
        </details>
    </div>
</body>
</html>
`))

type htmlFunction struct {
	Name  string
	Class string
}

type htmlPage struct {
	Image         string
	TotalCount    int
	CalledCount   int
	UncalledCount int
	Percent       string
	BarWidth      string
	Functions     []htmlFunction
}

// RenderHTML renders the standalone HTML page for one image.
// Every defined function is listed, marked "called" or "uncalled".
func RenderHTML(s coverage.Summary) ([]byte, error) {
	funcs := make([]htmlFunction, 0, len(s.Defined))
	for _, fn := range s.Defined {
		class := "uncalled"
		if s.IsCalled(fn) {
			class = "called"
		}
		funcs = append(funcs, htmlFunction{Name: fn, Class: class})
	}

	// The bar cannot exceed its track when calls outnumber definitions.
	width := s.CoveragePercentage
	if width > 100 {
		width = 100
	}

	page := htmlPage{
		Image:         s.Image,
		TotalCount:    s.TotalCount,
		CalledCount:   s.CalledCount,
		UncalledCount: s.UncalledCount,
		Percent:       formatPercent(s.CoveragePercentage),
		BarWidth:      formatPercent(width),
		Functions:     funcs,
	}

	var buf bytes.Buffer
	if err := htmlTemplate.Execute(&buf, page); err != nil {
		return nil, fmt.Errorf("failed to render HTML for %s: %w", s.Image, err)
	}
	return buf.Bytes(), nil
}

// HTMLReporter saves one coverage_<image>.html page per image.
type HTMLReporter struct {
	outputDir string
}

// NewHTMLReporter creates a new HTMLReporter.
func NewHTMLReporter(outputDir string) *HTMLReporter {
	return &HTMLReporter{outputDir: outputDir}
}

func (r *HTMLReporter) Format() string    { return "HTML" }
func (r *HTMLReporter) OutputDir() string { return r.outputDir }

// Save renders and writes the page for s.
func (r *HTMLReporter) Save(s coverage.Summary) (string, error) {
	path := filepath.Join(r.outputDir, FileName(s.Image, ".html"))

	content, err := RenderHTML(s)
	if err != nil {
		return path, err
	}
	return path, os.WriteFile(path, content, 0644)
}
