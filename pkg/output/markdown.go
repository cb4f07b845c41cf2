package output

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// MarkdownTitle is the top-level heading of every Markdown report.
const MarkdownTitle = "# Testwise-AI Report"

// MarkdownFormatter formats reports as GitHub-flavored Markdown.
type MarkdownFormatter struct {
	opts FormatOptions
}

// NewMarkdownFormatter creates a new Markdown formatter with the given options.
func NewMarkdownFormatter(opts FormatOptions) *MarkdownFormatter {
	return &MarkdownFormatter{opts: opts}
}

// Name returns the format name.
func (f *MarkdownFormatter) Name() string {
	return "markdown"
}

// Format renders the report as Markdown.
func (f *MarkdownFormatter) Format(ctx context.Context, report *Report, w io.Writer) error {
	_, err := io.WriteString(w, f.Render(report))
	return err
}

// Render returns the report as a Markdown document.
func (f *MarkdownFormatter) Render(report *Report) string {
	var b strings.Builder
	s := report.Summary

	b.WriteString(MarkdownTitle + "\n\n")

	b.WriteString("## Summary\n\n")
	fmt.Fprintf(&b, "- **Total tests:** %d\n", s.Total)
	fmt.Fprintf(&b, "- **Passed:** %d\n", s.Passed)
	fmt.Fprintf(&b, "- **Failed:** %d\n", s.Failed)
	fmt.Fprintf(&b, "- **Pass rate:** %.1f%%\n", s.PassRate())
	if f.opts.Verbose {
		fmt.Fprintf(&b, "- **Run ID:** `%s`\n", report.Metadata.RunID)
		if len(report.Metadata.Sources) > 0 {
			fmt.Fprintf(&b, "- **Sources:** %s\n", strings.Join(report.Metadata.Sources, ", "))
		}
	}
	b.WriteString("\n")

	if f.opts.Quiet {
		return b.String()
	}

	b.WriteString("## Top Failing Errors\n\n")
	ranking := s.Top(f.opts.TopN)
	switch {
	case len(ranking) == 0:
		b.WriteString("No failures detected.\n")
	case f.opts.ErrorList:
		for _, ec := range ranking {
			fmt.Fprintf(&b, "- **%s**: %d failures\n", displayError(ec.Error), ec.Count)
		}
	default:
		examples := make(map[string][]string, len(report.TopErrors))
		for _, ex := range report.TopErrors {
			examples[ex.Error] = ex.TestCases
		}
		b.WriteString("| Error | Count | Example Test Cases |\n")
		b.WriteString("|---|---:|---|\n")
		for _, ec := range ranking {
			fmt.Fprintf(&b, "| %s | %d | %s |\n",
				escapeCell(displayError(ec.Error)), ec.Count, escapeCell(strings.Join(examples[ec.Error], ", ")))
		}
	}
	b.WriteString("\n")

	if report.LLMSummary != "" {
		b.WriteString("## LLM Summary\n\n")
		b.WriteString(strings.TrimSpace(report.LLMSummary) + "\n\n")
	}

	if report.RootCause != "" {
		b.WriteString("## Root Cause Suggestions\n\n")
		b.WriteString(strings.TrimSpace(report.RootCause) + "\n\n")
	}

	return b.String()
}

// escapeCell makes s safe inside a GFM table cell.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
