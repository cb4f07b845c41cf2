package output

import (
	"context"
	"fmt"
	"io"
)

// Formatter renders reports in a specific format.
type Formatter interface {
	// Format renders the report to the given writer.
	Format(ctx context.Context, report *Report, w io.Writer) error

	// Name returns the format name (text, json, markdown).
	Name() string
}

// FormatOptions controls formatter behavior.
type FormatOptions struct {
	// Verbose adds run metadata and example test cases.
	Verbose bool

	// Quiet enables minimal summary-only output.
	Quiet bool

	// ErrorList renders the failure ranking as a bullet list instead of a
	// table in Markdown output.
	ErrorList bool

	// TopN limits the number of ranking entries shown. Zero shows all.
	TopN int
}

// NewFormatter returns the report formatter registered under name.
func NewFormatter(name string, opts FormatOptions) (Formatter, error) {
	switch name {
	case "", "text":
		return NewTextFormatter(opts), nil
	case "json":
		return NewJSONFormatter(opts), nil
	case "markdown", "md":
		return NewMarkdownFormatter(opts), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (supported: text, json, markdown)", name)
	}
}
