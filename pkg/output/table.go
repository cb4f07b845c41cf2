package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/ccollicutt/testwise/pkg/parser"
)

// TableFormats lists the record table formats.
var TableFormats = []string{"text", "json", "csv"}

// TableFormatter renders a record table.
type TableFormatter struct {
	format string
}

// NewTableFormatter creates a table formatter for format. An empty format
// selects text.
func NewTableFormatter(format string) (*TableFormatter, error) {
	if format == "" {
		format = "text"
	}
	for _, f := range TableFormats {
		if f == format {
			return &TableFormatter{format: format}, nil
		}
	}
	return nil, fmt.Errorf("unknown table format %q (supported: %s)", format, strings.Join(TableFormats, ", "))
}

// Name returns the format name.
func (f *TableFormatter) Name() string {
	return f.format
}

// Format writes table to w.
func (f *TableFormatter) Format(table *parser.Table, w io.Writer) error {
	if table == nil {
		table = parser.NewTable()
	}
	switch f.format {
	case "json":
		return f.formatJSON(table, w)
	case "csv":
		return f.formatCSV(table, w)
	default:
		return f.formatText(table, w)
	}
}

func (f *TableFormatter) formatText(table *parser.Table, w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	header := make([]string, 0, len(parser.Schema))
	for _, name := range table.Columns() {
		header = append(header, strings.ToUpper(name))
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, row := range table.Rows() {
		for i, v := range row {
			if v == "" {
				row[i] = "-"
			}
		}
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

func (f *TableFormatter) formatJSON(table *parser.Table, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(table.Records)
}

func (f *TableFormatter) formatCSV(table *parser.Table, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(table.Columns()); err != nil {
		return err
	}
	if err := cw.WriteAll(table.Rows()); err != nil {
		return err
	}
	return cw.Error()
}
