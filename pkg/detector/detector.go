// Package detector identifies which result-line grammars a log file uses.
package detector

import (
	"bufio"
	"context"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/ccollicutt/testwise/pkg/parser"
)

// DefaultSampleSize is the number of non-blank lines sampled by default.
const DefaultSampleSize = 100

// DetectionResult holds the result of analyzing a log file.
type DetectionResult struct {
	Matches          []GrammarMatch // Grammars that matched, sorted by confidence descending
	SampledLines     int            // Number of non-blank lines sampled
	MatchedLines     int            // Lines matched by any grammar
	UnmatchedLines   int            // Lines no grammar matched
	TimestampedLines int            // Matched lines carrying a timestamp prefix
	UnmatchedSample  string         // Example line no grammar matched
	Note             string         // Hint about the detected layout, if any
}

// GrammarMatch represents a grammar that matched with its confidence score.
type GrammarMatch struct {
	Grammar    string
	Kind       parser.MatchKind
	Priority   int     // Position in parser.Grammars(), lower is tried first
	Confidence float64 // 0.0 to 1.0 (share of sampled lines matched)
	MatchCount int     // Number of lines that matched
	SampleLine string  // Example line that matched
}

// Detector samples log lines and classifies them against the line grammars.
type Detector struct {
	sampleSize int
}

// Option configures the Detector.
type Option func(*Detector)

// WithSampleSize sets the number of lines to sample (default 100).
func WithSampleSize(n int) Option {
	return func(d *Detector) {
		if n > 0 {
			d.sampleSize = n
		}
	}
}

// New creates a new Detector.
func New(opts ...Option) *Detector {
	d := &Detector{
		sampleSize: DefaultSampleSize,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DetectFromFile analyzes a log file and returns the matching grammars.
func (d *Detector) DetectFromFile(ctx context.Context, path string) (*DetectionResult, error) {
	lines, err := d.sampleFile(ctx, path)
	if err != nil {
		return nil, err
	}
	return d.DetectFromLines(lines), nil
}

// DetectFromLines analyzes a slice of log lines. Blank lines are ignored and
// at most the sample size is considered.
func (d *Detector) DetectFromLines(lines []string) *DetectionResult {
	result := &DetectionResult{}

	priority := make(map[string]int)
	for i, name := range parser.Grammars() {
		priority[name] = i
	}

	// Track matches per grammar
	stats := make(map[string]*GrammarMatch)

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if result.SampledLines >= d.sampleSize {
			break
		}
		result.SampledLines++

		m := parser.Classify(line)
		if m.Kind == parser.NoMatch {
			result.UnmatchedLines++
			if result.UnmatchedSample == "" {
				result.UnmatchedSample = line
			}
			continue
		}

		result.MatchedLines++
		if m.Fields[parser.ColumnTimestamp] != "" {
			result.TimestampedLines++
		}

		s := stats[m.Grammar]
		if s == nil {
			s = &GrammarMatch{
				Grammar:    m.Grammar,
				Kind:       m.Kind,
				Priority:   priority[m.Grammar],
				SampleLine: line,
			}
			stats[m.Grammar] = s
		}
		s.MatchCount++
	}

	if result.SampledLines == 0 {
		return result
	}

	for _, s := range stats {
		s.Confidence = float64(s.MatchCount) / float64(result.SampledLines)
		result.Matches = append(result.Matches, *s)
	}

	// Sort by confidence descending, then by grammar priority
	sort.Slice(result.Matches, func(i, j int) bool {
		if result.Matches[i].Confidence != result.Matches[j].Confidence {
			return result.Matches[i].Confidence > result.Matches[j].Confidence
		}
		return result.Matches[i].Priority < result.Matches[j].Priority
	})

	result.Note = noteFor(result, stats)
	return result
}

// noteFor explains layouts that parse to fewer records than expected.
func noteFor(result *DetectionResult, stats map[string]*GrammarMatch) string {
	switch {
	case result.MatchedLines == 0:
		return "No line matched a known grammar; parsing this file yields no records."
	case stats[parser.GrammarInfo] != nil && result.ResultLines() == 0:
		return "Only informational lines found; they set test types but produce no records."
	case stats[parser.GrammarSimple] != nil && stats[parser.GrammarInfo] != nil:
		return "Simple result lines carry no module; test types come from preceding informational lines."
	}
	return ""
}

// sampleFile reads up to sampleSize non-blank lines from a file.
func (d *Detector) sampleFile(_ context.Context, path string) ([]string, error) {
	// #nosec G304 - path is provided by user via CLI
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var lines []string
	reader := bufio.NewReader(file)

	// ReadString has no line-length cap, so one huge noise line cannot
	// abort detection
	for len(lines) < d.sampleSize {
		line, err := reader.ReadString('\n')
		line = strings.TrimRight(line, "\r\n")
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
	}

	return lines, nil
}

// BestMatch returns the highest confidence match, or nil if none found.
func (r *DetectionResult) BestMatch() *GrammarMatch {
	if len(r.Matches) == 0 {
		return nil
	}
	return &r.Matches[0]
}

// HasMatch returns true if at least one grammar matched.
func (r *DetectionResult) HasMatch() bool {
	return len(r.Matches) > 0
}

// ResultLines returns the number of sampled lines that would yield a record.
func (r *DetectionResult) ResultLines() int {
	n := 0
	for _, m := range r.Matches {
		if m.Kind == parser.ResultMatch {
			n += m.MatchCount
		}
	}
	return n
}
