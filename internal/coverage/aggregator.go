// Package coverage merges scanned function facts into per-image coverage
// records and derives the statistics the reports are built from.
package coverage

import (
	"sort"
	"sync"

	"github.com/zjy-dev/funccov/internal/scanner"
)

// record holds the functions seen for one image.
// Called is not a subset of Defined: a function may be observed running
// without its definition line ever being logged for this image.
type record struct {
	defined map[string]struct{}
	called  map[string]struct{}
}

func newRecord() *record {
	return &record{
		defined: make(map[string]struct{}),
		called:  make(map[string]struct{}),
	}
}

// Defined returns the defined function names, sorted.
func (r *record) Defined() []string {
	return sortedKeys(r.defined)
}

// Called returns the called function names, sorted.
func (r *record) Called() []string {
	return sortedKeys(r.called)
}

// IsCalled reports whether fn was seen in a call line.
func (r *record) IsCalled(fn string) bool {
	_, ok := r.called[fn]
	return ok
}

// Summary is the derived view of a record that renderers consume.
type Summary struct {
	Image              string   `json:"image" yaml:"image"`
	TotalCount         int      `json:"total_count" yaml:"total_count"`
	CalledCount        int      `json:"called_count" yaml:"called_count"`
	UncalledCount      int      `json:"uncalled_count" yaml:"uncalled_count"`
	CoveragePercentage float64  `json:"coverage_percentage" yaml:"coverage_percentage"`
	Called             []string `json:"called" yaml:"called"`
	Uncalled           []string `json:"uncalled" yaml:"uncalled"`
	// Defined lists every defined function, sorted.
	Defined []string `json:"defined" yaml:"defined"`
}

// IsCalled reports whether fn is in s.Called, which is sorted.
func (s Summary) IsCalled(fn string) bool {
	i := sort.SearchStrings(s.Called, fn)
	return i < len(s.Called) && s.Called[i] == fn
}

// Percentage returns 100*called/total, or 0 when total is 0.
func Percentage(called, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(called) / float64(total) * 100
}

// Aggregator owns the per-image records for a single analysis run.
// The zero value is not usable; call NewAggregator.
type Aggregator struct {
	mu      sync.RWMutex
	records map[string]*record
}

// NewAggregator creates an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{
		records: make(map[string]*record),
	}
}

// Add merges a fact. Repeating a fact has no effect.
func (a *Aggregator) Add(f scanner.Fact) {
	a.mu.Lock()
	defer a.mu.Unlock()

	rec := a.recordFor(f.Image)
	switch f.Kind {
	case scanner.Defined:
		rec.defined[f.Function] = struct{}{}
	case scanner.Called:
		rec.called[f.Function] = struct{}{}
	}
}

// AddDefined records that image defines fn.
func (a *Aggregator) AddDefined(image, fn string) {
	a.Add(scanner.Fact{Image: image, Function: fn, Kind: scanner.Defined})
}

// AddCalled records that fn was called in image.
func (a *Aggregator) AddCalled(image, fn string) {
	a.Add(scanner.Fact{Image: image, Function: fn, Kind: scanner.Called})
}

// recordFor looks the image up and inserts an empty record if it is absent.
// Callers must hold the write lock.
func (a *Aggregator) recordFor(image string) *record {
	rec, ok := a.records[image]
	if !ok {
		rec = newRecord()
		a.records[image] = rec
	}
	return rec
}

// Images returns all known image names in byte-wise lexicographic order.
func (a *Aggregator) Images() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	images := make([]string, 0, len(a.records))
	for image := range a.records {
		images = append(images, image)
	}
	sort.Strings(images)
	return images
}

// Len returns the number of known images.
func (a *Aggregator) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.records)
}

// Summarize computes the coverage summary for image.
// It returns false if no fact has named the image.
func (a *Aggregator) Summarize(image string) (Summary, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	rec, ok := a.records[image]
	if !ok {
		return Summary{}, false
	}

	uncalled := make([]string, 0, len(rec.defined))
	for fn := range rec.defined {
		if !rec.IsCalled(fn) {
			uncalled = append(uncalled, fn)
		}
	}
	sort.Strings(uncalled)

	total := len(rec.defined)
	called := len(rec.called)
	return Summary{
		Image:              image,
		TotalCount:         total,
		CalledCount:        called,
		UncalledCount:      total - called,
		CoveragePercentage: Percentage(called, total),
		Called:             rec.Called(),
		Uncalled:           uncalled,
		Defined:            rec.Defined(),
	}, true
}

// Summaries returns the summary of every image, ordered like Images.
func (a *Aggregator) Summaries() []Summary {
	images := a.Images()
	out := make([]Summary, 0, len(images))
	for _, image := range images {
		if s, ok := a.Summarize(image); ok {
			out = append(out, s)
		}
	}
	return out
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
