package output

import (
	"context"
	"encoding/json"
	"io"

	"github.com/ccollicutt/testwise/pkg/analyzer"
)

// JSONFormatter formats reports as JSON.
type JSONFormatter struct {
	opts FormatOptions
}

// NewJSONFormatter creates a new JSON formatter with the given options.
func NewJSONFormatter(opts FormatOptions) *JSONFormatter {
	return &JSONFormatter{opts: opts}
}

// Name returns the format name.
func (f *JSONFormatter) Name() string {
	return "json"
}

// quietSummary is the --quiet JSON shape: counts without the ranking.
type quietSummary struct {
	Total    int     `json:"total"`
	Passed   int     `json:"passed"`
	Failed   int     `json:"failed"`
	PassRate float64 `json:"pass_rate"`
}

// Format renders the report as indented JSON. TopN truncates the failure
// ranking; the report itself is not modified.
func (f *JSONFormatter) Format(ctx context.Context, report *Report, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	s := report.Summary
	if f.opts.Quiet {
		return encoder.Encode(quietSummary{
			Total:    s.Total,
			Passed:   s.Passed,
			Failed:   s.Failed,
			PassRate: s.PassRate(),
		})
	}

	if f.opts.TopN <= 0 || f.opts.TopN >= len(s.FailureRanking) {
		return encoder.Encode(report)
	}

	view := *report
	view.Summary = &analyzer.Summary{
		Total:          s.Total,
		Passed:         s.Passed,
		Failed:         s.Failed,
		FailureRanking: s.Top(f.opts.TopN),
	}
	return encoder.Encode(&view)
}
