package report

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/zjy-dev/funccov/internal/coverage"
)

func sampleAggregator() *coverage.Aggregator {
	agg := coverage.NewAggregator()
	agg.AddDefined("myprog", "foo")
	agg.AddDefined("myprog", "bar")
	agg.AddDefined("myprog", "baz")
	agg.AddCalled("myprog", "foo")
	agg.AddCalled("/lib/x86_64-linux-gnu/libc.so.6", "puts")
	return agg
}

func TestSanitizeName(t *testing.T) {
	tests := map[string]string{
		"myprog":                         "myprog",
		"/usr/lib/libc.so.6":             "libc.so.6",
		"my prog (x86)":                  "my_prog__x86_",
		"/opt/app/bin/server-v1.2_final": "server-v1.2_final",
		"C:\\Program Files\\app.exe":     "C__Program_Files_app.exe",
		"café":                           "caf_",
		"<script>alert(1)</script>":      "script_",
		"[vdso]":                         "_vdso_",
	}
	for in, want := range tests {
		assert.Equal(t, want, SanitizeName(in), in)
	}
	assert.Equal(t, "coverage_libc.so.6.html", FileName("/usr/lib/libc.so.6", ".html"))
}

func TestConsoleReporter_Print(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewConsoleReporter(&buf).Print(sampleAggregator().Summaries()))
	out := buf.String()

	// Images are printed in sorted order.
	libc := strings.Index(out, "Image: /lib/x86_64-linux-gnu/libc.so.6")
	myprog := strings.Index(out, "Image: myprog")
	require.NotEqual(t, -1, libc)
	require.NotEqual(t, -1, myprog)
	assert.Less(t, libc, myprog)

	assert.Contains(t, out, "  Functions Found:   3\n")
	assert.Contains(t, out, "  Functions Called:  1\n")
	assert.Contains(t, out, "  Coverage:          33.33%\n")
	assert.Contains(t, out, "  Called Functions:\n    - foo\n")
	assert.Contains(t, out, "  Uncalled Functions:\n    - bar\n    - baz\n")
	assert.Contains(t, out, "No functions were defined for this image.")
	assert.Contains(t, out, strings.Repeat("=", 50))
	assert.True(t, strings.HasSuffix(out, "--- End of Console Report ---\n"))
	assert.NotContains(t, out, "\033[", "non-terminal output must be plain")
}

func TestConsoleReporter_ExplicitEmptyLists(t *testing.T) {
	agg := coverage.NewAggregator()
	agg.AddDefined("nocalls", "f")
	agg.AddDefined("allcalled", "g")
	agg.AddCalled("allcalled", "g")

	var buf bytes.Buffer
	require.NoError(t, NewConsoleReporter(&buf).Print(agg.Summaries()))
	out := buf.String()

	assert.Contains(t, out, "No functions were called for this image.")
	assert.Contains(t, out, "All defined functions were called.")
}

func TestConsoleReporter_NoData(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewConsoleReporter(&buf).Print(nil))
	assert.Equal(t, "No data to report. Please check your log files.\n", buf.String())
}

func TestRenderHTML(t *testing.T) {
	s, ok := sampleAggregator().Summarize("myprog")
	require.True(t, ok)

	content, err := RenderHTML(s)
	require.NoError(t, err)
	page := string(content)

	assert.True(t, strings.HasPrefix(page, "<!DOCTYPE html>"))
	assert.Contains(t, page, "<strong>Total Functions:</strong> 3")
	assert.Contains(t, page, "<strong>Called Functions:</strong> 1")
	assert.Contains(t, page, "<strong>Uncalled Functions:</strong> 2")
	assert.Contains(t, page, "Coverage: 33.33%")
	assert.Contains(t, page, `style="width: 33.33%"`)
	assert.Contains(t, page, `<li class="called" title="foo">foo</li>`)
	assert.Contains(t, page, `<li class="uncalled" title="bar">bar</li>`)
	assert.Contains(t, page, `<li class="uncalled" title="baz">baz</li>`)

	// Defined functions are listed in sorted order.
	assert.Less(t, strings.Index(page, ">bar<"), strings.Index(page, ">baz<"))
	assert.Less(t, strings.Index(page, ">baz<"), strings.Index(page, ">foo<"))
}

func TestRenderHTML_CalledOutsideDefinedNotListed(t *testing.T) {
	agg := coverage.NewAggregator()
	agg.AddDefined("p", "foo")
	agg.AddDefined("p", "bar")
	agg.AddCalled("p", "foo")
	agg.AddCalled("p", "imported")
	s, _ := agg.Summarize("p")

	content, err := RenderHTML(s)
	require.NoError(t, err)
	page := string(content)

	assert.Contains(t, page, `<li class="called" title="foo">foo</li>`)
	assert.Contains(t, page, `<li class="uncalled" title="bar">bar</li>`)
	assert.NotContains(t, page, `title="imported"`)
}

func TestRenderHTML_EscapesNames(t *testing.T) {
	agg := coverage.NewAggregator()
	agg.AddDefined("<img>", "operator<<")
	s, _ := agg.Summarize("<img>")

	content, err := RenderHTML(s)
	require.NoError(t, err)
	page := string(content)

	assert.Contains(t, page, "operator&lt;&lt;")
	assert.NotContains(t, page, "<img>")
}

func TestRenderHTML_BarIsClamped(t *testing.T) {
	s := coverage.Summary{Image: "p", TotalCount: 1, CalledCount: 2, CoveragePercentage: 200,
		Defined: []string{"a"}, Called: []string{"a", "b"}}

	content, err := RenderHTML(s)
	require.NoError(t, err)
	assert.Contains(t, string(content), `style="width: 100.00%"`)
	assert.Contains(t, string(content), "Coverage: 200.00%")
}

func TestRenderHTML_ZeroFunctions(t *testing.T) {
	content, err := RenderHTML(coverage.Summary{Image: "empty"})
	require.NoError(t, err)
	assert.Contains(t, string(content), "Coverage: 0.00%")
	assert.Contains(t, string(content), `style="width: 0.00%"`)
}

func TestGenerate_HTML(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "html")
	summaries := sampleAggregator().Summaries()

	failures, err := Generate(NewHTMLReporter(dir), summaries)
	require.NoError(t, err)
	assert.Empty(t, failures)

	assert.FileExists(t, filepath.Join(dir, "coverage_myprog.html"))
	assert.FileExists(t, filepath.Join(dir, "coverage_libc.so.6.html"))
}

func TestGenerate_DirectoryFailure(t *testing.T) {
	parent := t.TempDir()
	blocker := filepath.Join(parent, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	failures, err := Generate(NewHTMLReporter(filepath.Join(blocker, "out")), sampleAggregator().Summaries())
	require.Error(t, err)
	assert.Nil(t, failures)

	var derr *DirError
	require.True(t, errors.As(err, &derr))
	assert.Contains(t, err.Error(), "could not create output directory")
}

type flakyReporter struct {
	dir  string
	fail string
}

func (r *flakyReporter) Format() string    { return "test" }
func (r *flakyReporter) OutputDir() string { return r.dir }
func (r *flakyReporter) Save(s coverage.Summary) (string, error) {
	path := filepath.Join(r.dir, FileName(s.Image, ".txt"))
	if s.Image == r.fail {
		return path, errors.New("disk full")
	}
	return path, os.WriteFile(path, []byte(s.Image), 0644)
}

func TestGenerate_PerImageFailureContinues(t *testing.T) {
	dir := t.TempDir()
	r := &flakyReporter{dir: dir, fail: "/lib/x86_64-linux-gnu/libc.so.6"}

	failures, err := Generate(r, sampleAggregator().Summaries())
	require.NoError(t, err)
	require.Len(t, failures, 1)
	assert.Equal(t, "/lib/x86_64-linux-gnu/libc.so.6", failures[0].Image)
	assert.Contains(t, failures[0].Error(), "disk full")

	assert.FileExists(t, filepath.Join(dir, "coverage_myprog.txt"))
}

func TestRenderXUnit(t *testing.T) {
	s, _ := sampleAggregator().Summarize("myprog")

	content, err := RenderXUnit(s)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(content), xml.Header))

	var doc xunitSuites
	require.NoError(t, xml.Unmarshal(content, &doc))
	require.Len(t, doc.Suites, 1)

	suite := doc.Suites[0]
	assert.Equal(t, "binary_coverage_myprog", suite.Name)
	assert.Equal(t, 3, suite.Tests)
	assert.Equal(t, 2, suite.Skipped)
	require.Len(t, suite.Cases, 1)
	assert.Equal(t, "Result", suite.Cases[0].Name)
	assert.Equal(t,
		"Coverage Summary for myprog | Total Functions: 3 | Called Functions: 1 | Uncalled Functions: 2 | Coverage: 33.33%",
		suite.Cases[0].Passed.Message)
	assert.Equal(t, "CALLED FUNCTIONS:\n  ✓ foo\n\nUNCALLED FUNCTIONS:\n  ✗ bar\n  ✗ baz", suite.Cases[0].Passed.Body)

	// The body keeps literal newlines so the raw file stays readable.
	assert.Contains(t, string(content), "<![CDATA[CALLED FUNCTIONS:\n  ✓ foo\n")
	assert.NotContains(t, string(content), "&#xA;")
}

func TestGenerate_XUnit(t *testing.T) {
	dir := t.TempDir()
	failures, err := Generate(NewXUnitReporter(dir), sampleAggregator().Summaries())
	require.NoError(t, err)
	assert.Empty(t, failures)
	assert.FileExists(t, filepath.Join(dir, "coverage_myprog.xml"))
}

func TestWriteSummary(t *testing.T) {
	dir := t.TempDir()
	summaries := sampleAggregator().Summaries()

	jsonPath := filepath.Join(dir, "out", "summary.json")
	require.NoError(t, WriteSummary(jsonPath, summaries))
	raw, err := os.ReadFile(jsonPath)
	require.NoError(t, err)

	var fromJSON SummaryFile
	require.NoError(t, json.Unmarshal(raw, &fromJSON))
	assert.Equal(t, summaries, fromJSON.Images)

	yamlPath := filepath.Join(dir, "summary.yaml")
	require.NoError(t, WriteSummary(yamlPath, summaries))
	raw, err = os.ReadFile(yamlPath)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "coverage_percentage:")

	var fromYAML SummaryFile
	require.NoError(t, yaml.Unmarshal(raw, &fromYAML))
	require.Len(t, fromYAML.Images, 2)
	assert.Equal(t, "myprog", fromYAML.Images[1].Image)
	assert.Equal(t, []string{"bar", "baz"}, fromYAML.Images[1].Uncalled)
}

func TestMarshalSummary_Empty(t *testing.T) {
	out, err := MarshalSummary("summary.json", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"images": []}`, string(out))
}

func TestRenderMarkdown(t *testing.T) {
	s, _ := sampleAggregator().Summarize("myprog")
	md := string(RenderMarkdown(s))

	assert.True(t, strings.HasPrefix(md, "# Coverage Report: myprog\n"))
	assert.Contains(t, md, "| Total Functions | 3 |")
	assert.Contains(t, md, "| Uncalled Functions | 2 |")
	assert.Contains(t, md, "| Coverage | 33.33% |")
	assert.Contains(t, md, "- [x] `foo`\n")
	assert.Contains(t, md, "- [ ] `bar`\n- [ ] `baz`\n")

	empty := string(RenderMarkdown(coverage.Summary{Image: "e"}))
	assert.Contains(t, empty, "No functions were called for this image.")
	assert.Contains(t, empty, "No functions were defined for this image.")
}
