// Package report renders aggregated function coverage for people and CI
// systems: a console summary, and per-image HTML and XUnit files.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zjy-dev/funccov/internal/coverage"
	"github.com/zjy-dev/funccov/internal/logger"
)

// FileReporter writes one report file per image into a directory.
type FileReporter interface {
	// Format names the report kind in log messages, e.g. "HTML".
	Format() string

	// OutputDir is the directory the reports are written to.
	OutputDir() string

	// Save writes the report for a single image and returns the file path.
	Save(s coverage.Summary) (string, error)
}

// DirError means the output directory could not be created; no report
// files were written.
type DirError struct {
	Dir string
	Err error
}

func (e *DirError) Error() string {
	return fmt.Sprintf("could not create output directory '%s': %v", e.Dir, e.Err)
}

func (e *DirError) Unwrap() error { return e.Err }

// WriteError records a single image whose report could not be written.
type WriteError struct {
	Image string
	Path  string
	Err   error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write report for %s to %s: %v", e.Image, e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Generate creates the reporter's output directory (with parents) and saves a
// report for every summary. A failed image is logged and skipped. The
// returned error is non-nil only when the directory could not be created.
func Generate(r FileReporter, summaries []coverage.Summary) ([]WriteError, error) {
	dir := r.OutputDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		derr := &DirError{Dir: dir, Err: err}
		logger.Error("Could not create %s output directory '%s': %v", r.Format(), dir, err)
		return nil, derr
	}

	logger.Info("--> Generating %s reports in '%s'...", r.Format(), dir)

	var failures []WriteError
	written := make(map[string]string)
	for _, s := range summaries {
		path, err := r.Save(s)
		if err != nil {
			logger.Error("Error writing %s file %s: %v", r.Format(), path, err)
			failures = append(failures, WriteError{Image: s.Image, Path: path, Err: err})
			continue
		}
		if prev, ok := written[path]; ok {
			logger.Warn("%s report for %s overwrote the report for %s (%s)", r.Format(), s.Image, prev, path)
		}
		written[path] = s.Image
		logger.Info("    - %s report saved to %s", r.Format(), path)
	}

	logger.Info("--> %s generation complete.", r.Format())
	return failures, nil
}

// SanitizeName maps an image path to a file-name-safe token: the base name
// with every character outside [A-Za-z0-9._-] replaced by '_'.
func SanitizeName(image string) string {
	base := filepath.Base(image)
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '_', r == '-':
			return r
		default:
			return '_'
		}
	}, base)
}

// FileName returns "coverage_<sanitized image><ext>".
func FileName(image, ext string) string {
	return "coverage_" + SanitizeName(image) + ext
}

func formatPercent(p float64) string {
	return fmt.Sprintf("%.2f", p)
}
