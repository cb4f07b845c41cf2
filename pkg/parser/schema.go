package parser

import (
	"errors"
	"fmt"
	"strings"
)

// Fields is a partial record keyed by canonical column name. Columns a source
// cannot produce are simply absent.
type Fields map[string]string

// SchemaVariant selects the set of columns a delimited table must carry.
type SchemaVariant string

const (
	// SchemaFull requires every canonical column.
	SchemaFull SchemaVariant = "full"
	// SchemaMinimal requires only test_case, status and error.
	SchemaMinimal SchemaVariant = "minimal"
)

// RequiredColumns returns the columns a table must carry for the variant,
// in canonical order.
func (v SchemaVariant) RequiredColumns() []string {
	if v == SchemaMinimal {
		return []string{ColumnTestCase, ColumnStatus, ColumnError}
	}
	return Columns()
}

// ErrMissingColumns is matched by every *SchemaError.
var ErrMissingColumns = errors.New("missing expected columns")

// SchemaError reports required columns absent from a delimited table.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingColumns, strings.Join(e.Missing, ", "))
}

// Is makes errors.Is(err, ErrMissingColumns) succeed.
func (e *SchemaError) Is(target error) bool {
	return target == ErrMissingColumns
}

// checkColumns returns a *SchemaError naming every required column not
// present in header. header names must already be normalized.
func checkColumns(header []string, variant SchemaVariant) error {
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[h] = true
	}

	var missing []string
	for _, name := range variant.RequiredColumns() {
		if !present[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return &SchemaError{Missing: missing}
	}
	return nil
}

// normalizeColumn lower-cases and trims a header cell.
func normalizeColumn(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// reconcile backfills every canonical column absent from fields with its
// schema default and builds the Record. It is the single place where either
// ingestion path is turned into the canonical shape. ok is false when the
// status is outside the PASS/FAIL vocabulary or the test case is empty.
func reconcile(fields Fields) (Record, bool) {
	values := make(map[string]string, len(Schema))
	for _, c := range Schema {
		v, present := fields[c.Name]
		if !present {
			v = c.Default
		}
		values[c.Name] = v
	}

	status, ok := ParseStatus(values[ColumnStatus])
	if !ok || values[ColumnTestCase] == "" {
		return Record{}, false
	}

	return Record{
		Timestamp: values[ColumnTimestamp],
		TestCase:  values[ColumnTestCase],
		Module:    values[ColumnModule],
		Status:    status,
		Error:     values[ColumnError],
		TestType:  values[ColumnTestType],
	}, true
}
