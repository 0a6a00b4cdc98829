//go:build integration

package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjy-dev/funccov/internal/coverage"
	"github.com/zjy-dev/funccov/internal/scanner"
)

// pinLog mimics the output of the Pin function tracer for one run of a
// small program linked against libc.
const pinLog = `Pin: starting tool
[Image:/home/user/example/main] [Section:.text]
[Image:/home/user/example/main] [Function:main]
[Image:/home/user/example/main] [Function:helper_used]
[Image:/home/user/example/main] [Function:helper_unused]
[Image:/lib/x86_64-linux-gnu/libc.so.6] [Section:.text]
[Image:/lib/x86_64-linux-gnu/libc.so.6] [Function:puts]
[Image:/lib/x86_64-linux-gnu/libc.so.6] [Function:printf]
[PID:4242] [Image:/home/user/example/main] [Called:main]
[PID:4242] [Image:/home/user/example/main] [Called:helper_used]
[PID:4242] [Image:/lib/x86_64-linux-gnu/libc.so.6] [Called:puts]
[PID:4242] [Image:/lib/x86_64-linux-gnu/libc.so.6] [Called:puts]
Pin: tool finished
`

func scanPinLog(t *testing.T) []coverage.Summary {
	t.Helper()
	path := filepath.Join(t.TempDir(), "functrace.out")
	require.NoError(t, os.WriteFile(path, []byte(pinLog), 0644))

	agg := coverage.NewAggregator()
	require.Empty(t, scanner.New().Scan([]string{path}, agg))
	return agg.Summaries()
}

// TestReporters_Integration_AllFormats writes every file format for a full log.
func TestReporters_Integration_AllFormats(t *testing.T) {
	summaries := scanPinLog(t)
	require.Len(t, summaries, 2)

	root := t.TempDir()
	reporters := []FileReporter{
		NewHTMLReporter(filepath.Join(root, "html")),
		NewXUnitReporter(filepath.Join(root, "xunit")),
		NewMarkdownReporter(filepath.Join(root, "md")),
	}

	for _, r := range reporters {
		failures, err := Generate(r, summaries)
		require.NoError(t, err, r.Format())
		assert.Empty(t, failures, r.Format())

		files, err := os.ReadDir(r.OutputDir())
		require.NoError(t, err)
		assert.Equal(t, 2, len(files), r.Format())
	}

	html, err := os.ReadFile(filepath.Join(root, "html", "coverage_main.html"))
	require.NoError(t, err)
	assert.Contains(t, string(html), "Coverage: 66.67%")

	xml, err := os.ReadFile(filepath.Join(root, "xunit", "coverage_libc.so.6.xml"))
	require.NoError(t, err)
	assert.Contains(t, string(xml), `skipped="1"`)
	assert.Contains(t, string(xml), `tests="2"`)
}

// TestMarkdownReporter_Integration_Save checks the markdown document content.
func TestMarkdownReporter_Integration_Save(t *testing.T) {
	summaries := scanPinLog(t)
	tempDir := t.TempDir()

	reporter := NewMarkdownReporter(tempDir)
	for _, s := range summaries {
		_, err := reporter.Save(s)
		require.NoError(t, err)
	}

	content, err := os.ReadFile(filepath.Join(tempDir, "coverage_main.md"))
	require.NoError(t, err)

	contentStr := string(content)
	assert.True(t, strings.HasPrefix(contentStr, "# Coverage Report: /home/user/example/main"))
	assert.Contains(t, contentStr, "| Total Functions | 3 |")
	assert.Contains(t, contentStr, "| Coverage | 66.67% |")
	assert.Contains(t, contentStr, "- [x] `helper_used`")
	assert.Contains(t, contentStr, "- [ ] `helper_unused`")
}

// TestMarkdownReporter_Integration_CreateDirectory tests directory creation.
func TestMarkdownReporter_Integration_CreateDirectory(t *testing.T) {
	nestedPath := filepath.Join(t.TempDir(), "nested", "reports", "md")

	_, err := Generate(NewMarkdownReporter(nestedPath), scanPinLog(t))
	require.NoError(t, err)

	assert.DirExists(t, nestedPath)
}

// TestReporters_Integration_LargeImage tests an image with many functions.
func TestReporters_Integration_LargeImage(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping large report test in short mode")
	}

	var b strings.Builder
	for i := 0; i < 5000; i++ {
		b.WriteString("[Image:big] [Function:func_")
		b.WriteString(strings.Repeat("x", i%7))
		b.WriteString(string(rune('a' + i%26)))
		b.WriteString("_")
		b.WriteString(strings.Repeat("0", i%3))
		b.WriteString("]\n")
		if i%2 == 0 {
			b.WriteString("[Image:big] [Called:func_")
			b.WriteString(strings.Repeat("x", i%7))
			b.WriteString(string(rune('a' + i%26)))
			b.WriteString("_")
			b.WriteString(strings.Repeat("0", i%3))
			b.WriteString("]\n")
		}
	}

	agg := coverage.NewAggregator()
	require.NoError(t, scanner.New().ScanReader(strings.NewReader(b.String()), agg))

	s, ok := agg.Summarize("big")
	require.True(t, ok)
	assert.Equal(t, s.TotalCount, s.CalledCount+s.UncalledCount)

	failures, err := Generate(NewHTMLReporter(t.TempDir()), []coverage.Summary{s})
	require.NoError(t, err)
	assert.Empty(t, failures)
}
