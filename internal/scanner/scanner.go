// Package scanner extracts function facts from the text logs written by the
// Pin function tracer.
package scanner

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"regexp"
	"strings"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"

	"github.com/zjy-dev/funccov/internal/logger"
)

// Kind classifies a fact line.
type Kind int

const (
	// Defined marks a "[Function:<name>]" line: the image contains the function.
	Defined Kind = iota
	// Called marks a "[Called:<name>]" line: the function ran.
	Called
)

func (k Kind) String() string {
	switch k {
	case Defined:
		return "defined"
	case Called:
		return "called"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Fact is a single (image, function, kind) triple extracted from a log line.
type Fact struct {
	Image    string
	Function string
	Kind     Kind
}

// Sink receives facts in the order they are scanned.
type Sink interface {
	Add(f Fact)
}

// SinkFunc adapts a plain function to the Sink interface.
type SinkFunc func(f Fact)

// Add calls fn(f).
func (fn SinkFunc) Add(f Fact) { fn(f) }

var (
	definedPattern = regexp.MustCompile(`\[Image:(.*?)\] \[Function:(.*?)\]`)
	calledPattern  = regexp.MustCompile(`\[Image:(.*?)\] \[Called:(.*?)\]`)
)

// ParseLine classifies a single log line.
// The defined pattern is tried first; a line that matches it is never
// considered for the called pattern, even when its captures trim to empty.
func ParseLine(line string) (Fact, bool) {
	if m := definedPattern.FindStringSubmatch(line); m != nil {
		return newFact(m, Defined)
	}
	if m := calledPattern.FindStringSubmatch(line); m != nil {
		return newFact(m, Called)
	}
	return Fact{}, false
}

func newFact(m []string, kind Kind) (Fact, bool) {
	image := strings.TrimSpace(m[1])
	function := strings.TrimSpace(m[2])
	if image == "" || function == "" {
		return Fact{}, false
	}
	return Fact{Image: image, Function: function, Kind: kind}, true
}

// ErrorKind distinguishes per-file failures.
type ErrorKind int

const (
	// MissingInput means the log file does not exist.
	MissingInput ErrorKind = iota
	// ReadFailure is any other error opening or reading the file.
	ReadFailure
)

func (k ErrorKind) String() string {
	if k == MissingInput {
		return "missing input"
	}
	return "read failure"
}

// FileError records a log file that could not be (fully) scanned.
type FileError struct {
	Path string
	Kind ErrorKind
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Path, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

// Stats counts what a Scanner has seen so far.
type Stats struct {
	Files   int
	Lines   int
	Defined int
	Called  int
}

// Scanner reads log files sequentially and forwards every fact to a Sink.
type Scanner struct {
	stats Stats
}

// New creates a Scanner.
func New() *Scanner {
	return &Scanner{}
}

// Stats returns the counters accumulated over all scans.
func (s *Scanner) Stats() Stats {
	return s.stats
}

// Scan processes paths in order. Failures are logged as warnings and returned;
// they never stop the remaining files from being scanned.
func (s *Scanner) Scan(paths []string, sink Sink) []FileError {
	logger.Info("--> Processing %d log file(s)...", len(paths))

	var failures []FileError
	for _, path := range paths {
		if err := s.ScanFile(path, sink); err != nil {
			var fe *FileError
			if !errors.As(err, &fe) {
				fe = &FileError{Path: path, Kind: ReadFailure, Err: err}
			}
			if fe.Kind == MissingInput {
				logger.Warn("Log file not found: %s", path)
			} else {
				logger.Warn("An error occurred while reading %s: %v", path, fe.Err)
			}
			failures = append(failures, *fe)
		}
	}

	logger.Info("--> Processing complete.")
	return failures
}

// ScanFile scans a single file. Facts read before a read error are kept.
func (s *Scanner) ScanFile(path string, sink Sink) error {
	f, err := os.Open(path)
	if err != nil {
		kind := ReadFailure
		if errors.Is(err, fs.ErrNotExist) {
			kind = MissingInput
		}
		return &FileError{Path: path, Kind: kind, Err: err}
	}
	defer f.Close()

	before := s.stats
	if err := s.ScanReader(f, sink); err != nil {
		return &FileError{Path: path, Kind: ReadFailure, Err: err}
	}
	s.stats.Files++

	logger.Debug("Scanned %s: %d lines, %d defined, %d called", path,
		s.stats.Lines-before.Lines, s.stats.Defined-before.Defined, s.stats.Called-before.Called)
	return nil
}

func (s *Scanner) scanLine(line string, sink Sink) {
	s.stats.Lines++
	fact, ok := ParseLine(line)
	if !ok {
		return
	}
	if fact.Kind == Defined {
		s.stats.Defined++
	} else {
		s.stats.Called++
	}
	sink.Add(fact)
}

// ScanReader scans lines from r. Lines end at "\n", "\r\n" or a bare "\r".
// Byte sequences that are not valid UTF-8 are replaced with U+FFFD instead of
// failing the read.
func (s *Scanner) ScanReader(r io.Reader, sink Sink) error {
	br := bufio.NewReader(transform.NewReader(r, runes.ReplaceIllFormed()))
	for {
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			for _, part := range strings.Split(strings.TrimRight(line, "\r\n"), "\r") {
				s.scanLine(part, sink)
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read line %d: %w", s.stats.Lines+1, err)
		}
	}
}
