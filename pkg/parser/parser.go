package parser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Format is the ingestion path chosen for an input.
type Format int

const (
	FormatText Format = iota
	FormatCSV
)

func (f Format) String() string {
	if f == FormatCSV {
		return "csv"
	}
	return "text"
}

// ErrUnsupportedType is matched by every *UnsupportedTypeError.
var ErrUnsupportedType = errors.New("unsupported file type")

// ErrDecode is wrapped when input bytes are not valid UTF-8.
var ErrDecode = errors.New("decoding input")

// UnsupportedTypeError is returned for an input whose extension is not
// .csv, .txt or .log.
type UnsupportedTypeError struct {
	Name string
	Ext  string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("%s %q: %s (supported: .csv, .txt, .log)", ErrUnsupportedType, e.Ext, e.Name)
}

// Is makes errors.Is(err, ErrUnsupportedType) succeed.
func (e *UnsupportedTypeError) Is(target error) bool {
	return target == ErrUnsupportedType
}

// FormatFor picks the ingestion path from a file name, case-insensitively.
func FormatFor(name string) (Format, error) {
	ext := filepath.Ext(name)
	switch strings.ToLower(ext) {
	case ".csv":
		return FormatCSV, nil
	case ".txt", ".log":
		return FormatText, nil
	default:
		return 0, &UnsupportedTypeError{Name: name, Ext: ext}
	}
}

// Option configures a parse call.
type Option func(*options)

type options struct {
	schema SchemaVariant
	logger *zap.Logger
}

// WithSchema selects the column set a delimited table must carry
// (default SchemaFull).
func WithSchema(v SchemaVariant) Option {
	return func(o *options) {
		if v != "" {
			o.schema = v
		}
	}
}

// WithLogger receives debug diagnostics such as skipped lines.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func newOptions(opts []Option) *options {
	o := &options{
		schema: SchemaFull,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Parse reads the file at path and normalizes it. The extension selects the
// path: .csv is a delimited table, .txt and .log are free-text logs.
func Parse(path string, opts ...Option) (*Table, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path) // #nosec G304 -- user-provided paths are expected
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	return parseFormat(path, format, f, newOptions(opts))
}

// ParseReader normalizes an open stream. name supplies the extension used
// for dispatch; an empty name routes the stream to the text path.
func ParseReader(name string, r io.Reader, opts ...Option) (*Table, error) {
	format := FormatText
	if name != "" {
		var err error
		if format, err = FormatFor(name); err != nil {
			return nil, err
		}
	}
	return parseFormat(name, format, r, newOptions(opts))
}

// ParseText normalizes a free-text log stream.
func ParseText(r io.Reader, opts ...Option) (*Table, error) {
	return parseFormat("", FormatText, r, newOptions(opts))
}

// ParseCSV normalizes a delimited table stream.
func ParseCSV(r io.Reader, opts ...Option) (*Table, error) {
	return parseFormat("", FormatCSV, r, newOptions(opts))
}

// ParseFiles parses each path independently and concatenates the results in
// order. Correlation state never crosses file boundaries.
func ParseFiles(paths []string, opts ...Option) (*Table, error) {
	table := NewTable()
	for _, path := range paths {
		t, err := Parse(path, opts...)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		table.Append(t)
	}
	return table, nil
}

func parseFormat(name string, format Format, r io.Reader, o *options) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", displayName(name), err)
	}

	text, err := decode(data)
	if err != nil {
		return nil, err
	}

	var table *Table
	switch format {
	case FormatCSV:
		table, err = parseTable(name, text, o)
	default:
		table, err = parseLines(name, text, o)
	}
	if err != nil {
		return nil, err
	}

	o.logger.Debug("parsed input",
		zap.String("source", displayName(name)),
		zap.Stringer("format", format),
		zap.Int("records", table.Len()))
	return table, nil
}

// decode validates UTF-8 and strips a byte-order mark. A UTF-16 BOM switches
// to the matching decoder.
func decode(data []byte) (string, error) {
	t := unicode.BOMOverride(encoding.UTF8Validator)
	out, _, err := transform.Bytes(t, data)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return string(out), nil
}

// parseLines applies the line grammars to every line in order. Unmatched
// lines are dropped without error.
func parseLines(name, text string, o *options) (*Table, error) {
	correlator := NewCorrelator()
	table := NewTable()

	// text is already in memory, so lines of any length are classified
	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		m := Classify(line)

		switch m.Kind {
		case InfoMatch:
			correlator.Observe(m.Fields[ColumnTestCase], m.Fields[ColumnTestType])
		case ResultMatch:
			rec, ok := reconcile(correlator.Apply(m.Fields))
			if !ok {
				continue
			}
			table.Records = append(table.Records, rec)
		default:
			if strings.TrimSpace(line) != "" {
				o.logger.Debug("skipping unmatched line",
					zap.String("source", displayName(name)),
					zap.Int("line", i+1))
			}
		}
	}

	return table, nil
}

// parseTable reads a header-delimited table and projects it onto the
// canonical schema.
func parseTable(name, text string, o *options) (*Table, error) {
	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, &SchemaError{Missing: o.schema.RequiredColumns()}
	}
	if err != nil {
		return nil, fmt.Errorf("reading header of %s: %w", displayName(name), err)
	}

	// First occurrence of a column wins.
	index := make(map[string]int, len(header))
	normalized := make([]string, len(header))
	for i, h := range header {
		col := normalizeColumn(h)
		normalized[i] = col
		if _, seen := index[col]; !seen {
			index[col] = i
		}
	}
	if err := checkColumns(normalized, o.schema); err != nil {
		return nil, err
	}

	table := NewTable()
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", displayName(name), err)
		}
		if isBlankRow(row) {
			continue
		}

		fields := make(Fields, len(Schema))
		for _, c := range Schema {
			i, ok := index[c.Name]
			if !ok || i >= len(row) {
				continue
			}
			fields[c.Name] = strings.TrimSpace(row[i])
		}

		rec, ok := reconcile(fields)
		if !ok {
			line, _ := reader.FieldPos(0)
			o.logger.Debug("skipping row without PASS/FAIL status",
				zap.String("source", displayName(name)),
				zap.Int("line", line))
			continue
		}
		table.Records = append(table.Records, rec)
	}

	return table, nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func displayName(name string) string {
	if name == "" {
		return "<stream>"
	}
	return name
}
