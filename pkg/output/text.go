package output

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// TextFormatter formats reports as human-readable text.
type TextFormatter struct {
	opts FormatOptions
}

// NewTextFormatter creates a new text formatter with the given options.
func NewTextFormatter(opts FormatOptions) *TextFormatter {
	return &TextFormatter{opts: opts}
}

// Name returns the format name.
func (f *TextFormatter) Name() string {
	return "text"
}

// Format renders the report as text.
func (f *TextFormatter) Format(ctx context.Context, report *Report, w io.Writer) error {
	if f.opts.Quiet {
		return f.formatQuiet(report, w)
	}
	return f.formatFull(report, w)
}

func (f *TextFormatter) formatQuiet(report *Report, w io.Writer) error {
	s := report.Summary
	_, err := fmt.Fprintf(w, "Testwise: %d tests, %d passed, %d failed (%.1f%% pass rate)\n",
		s.Total, s.Passed, s.Failed, s.PassRate())
	return err
}

func (f *TextFormatter) formatFull(report *Report, w io.Writer) error {
	s := report.Summary

	// Header
	fmt.Fprintln(w, "=== Testwise Report ===")
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Total tests: %d\n", s.Total)
	fmt.Fprintf(w, "Passed:      %d\n", s.Passed)
	fmt.Fprintf(w, "Failed:      %d\n", s.Failed)
	fmt.Fprintf(w, "Pass rate:   %.1f%%\n", s.PassRate())
	fmt.Fprintln(w)

	ranking := s.Top(f.opts.TopN)
	if len(ranking) == 0 {
		fmt.Fprintln(w, "No failures detected")
	} else {
		fmt.Fprintln(w, "Failure ranking:")
		for i, ec := range ranking {
			fmt.Fprintf(w, "  %d. %s (%d)\n", i+1, displayError(ec.Error), ec.Count)
		}
	}

	if f.opts.Verbose && len(report.TopErrors) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Examples:")
		for _, ex := range report.TopErrors {
			fmt.Fprintf(w, "  %s: %s\n", displayError(ex.Error), strings.Join(ex.TestCases, ", "))
		}
	}

	if report.LLMSummary != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "LLM summary:")
		fmt.Fprintln(w, report.LLMSummary)
	}

	if report.RootCause != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Root cause suggestions:")
		fmt.Fprintln(w, report.RootCause)
	}

	if f.opts.Verbose {
		fmt.Fprintln(w, "---")
		fmt.Fprintf(w, "Run ID: %s\n", report.Metadata.RunID)
		fmt.Fprintf(w, "Sources: %s\n", strings.Join(report.Metadata.Sources, ", "))
		fmt.Fprintf(w, "Duration: %s\n", report.Metadata.Duration.Round(1e6))
	}

	return nil
}

// displayError names the empty failure cause.
func displayError(e string) string {
	if e == "" {
		return "(no error message)"
	}
	return e
}
