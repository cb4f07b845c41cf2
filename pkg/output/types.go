// Package output provides formatting and output generation for test-run reports.
package output

import (
	"time"

	"github.com/google/uuid"

	"github.com/ccollicutt/testwise/pkg/analyzer"
)

// Report is the complete output of one analysis run.
type Report struct {
	// Summary provides aggregate statistics.
	Summary *analyzer.Summary `json:"summary"`

	// TopErrors lists the most frequent failures with example test cases.
	TopErrors []analyzer.ErrorExamples `json:"top_errors"`

	// LLMSummary is the generated narrative, if any.
	LLMSummary string `json:"llm_summary,omitempty"`

	// RootCause holds generated root-cause suggestions, if any.
	RootCause string `json:"root_cause,omitempty"`

	// Metadata provides context about the run.
	Metadata Metadata `json:"metadata"`
}

// Metadata provides context about the analysis run.
type Metadata struct {
	// RunID uniquely identifies this report.
	RunID string `json:"run_id"`

	// Sources lists the input files that were parsed.
	Sources []string `json:"sources"`

	// GeneratedAt is when the report was created.
	GeneratedAt time.Time `json:"generated_at"`

	// Duration is how long parsing and analysis took.
	Duration time.Duration `json:"duration"`
}

// NewReport creates a Report for summary with a fresh RunID.
func NewReport(summary *analyzer.Summary, sources []string) *Report {
	if summary == nil {
		summary = &analyzer.Summary{FailureRanking: []analyzer.ErrorCount{}}
	}
	if sources == nil {
		sources = []string{}
	}
	return &Report{
		Summary:   summary,
		TopErrors: []analyzer.ErrorExamples{},
		Metadata: Metadata{
			RunID:       uuid.NewString(),
			Sources:     sources,
			GeneratedAt: time.Now().UTC(),
		},
	}
}

// HasFailures returns true if any test failed.
func (r *Report) HasFailures() bool {
	return r.Summary != nil && r.Summary.HasFailures()
}
