// Package parser normalizes test-run logs (CSV, TXT, LOG) into Canonical Records.
package parser

// Status is the outcome of a single test case.
type Status string

const (
	StatusPass Status = "PASS"
	StatusFail Status = "FAIL"
)

// ParseStatus returns the Status for s. Only the exact, upper-case
// vocabulary is accepted.
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusPass, StatusFail:
		return Status(s), true
	default:
		return "", false
	}
}

// Canonical column names, in output order.
const (
	ColumnTimestamp = "timestamp"
	ColumnTestCase  = "test_case"
	ColumnModule    = "module"
	ColumnStatus    = "status"
	ColumnError     = "error"
	ColumnTestType  = "test_type"
)

// Column is one field of the canonical schema.
type Column struct {
	Name    string
	Default string
}

// Schema is the fixed, ordered set of canonical columns. Every Record
// produced by this package carries exactly these fields.
var Schema = []Column{
	{Name: ColumnTimestamp, Default: ""},
	{Name: ColumnTestCase, Default: ""},
	{Name: ColumnModule, Default: ""},
	{Name: ColumnStatus, Default: ""},
	{Name: ColumnError, Default: ""},
	{Name: ColumnTestType, Default: ""},
}

// Columns returns the canonical column names in order.
func Columns() []string {
	names := make([]string, len(Schema))
	for i, c := range Schema {
		names[i] = c.Name
	}
	return names
}

// Record is a single normalized test result.
type Record struct {
	Timestamp string `json:"timestamp"`
	TestCase  string `json:"test_case"`
	Module    string `json:"module"`
	Status    Status `json:"status"`
	Error     string `json:"error"`
	TestType  string `json:"test_type"`
}

// Field returns the value of the named canonical column.
func (r Record) Field(name string) string {
	switch name {
	case ColumnTimestamp:
		return r.Timestamp
	case ColumnTestCase:
		return r.TestCase
	case ColumnModule:
		return r.Module
	case ColumnStatus:
		return string(r.Status)
	case ColumnError:
		return r.Error
	case ColumnTestType:
		return r.TestType
	default:
		return ""
	}
}

// Values projects the record onto the canonical column order.
func (r Record) Values() []string {
	values := make([]string, len(Schema))
	for i, c := range Schema {
		values[i] = r.Field(c.Name)
	}
	return values
}

// Failed reports whether the record has status FAIL.
func (r Record) Failed() bool {
	return r.Status == StatusFail
}

// Table is an ordered collection of Canonical Records.
type Table struct {
	Records []Record `json:"records"`
}

// NewTable returns a table holding the given records.
func NewTable(records ...Record) *Table {
	if records == nil {
		records = []Record{}
	}
	return &Table{Records: records}
}

// Len returns the number of records.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

// Columns returns the table's column names, always the canonical set.
func (t *Table) Columns() []string {
	return Columns()
}

// Rows returns every record projected onto the canonical column order.
func (t *Table) Rows() [][]string {
	rows := make([][]string, 0, t.Len())
	for _, r := range t.Records {
		rows = append(rows, r.Values())
	}
	return rows
}

// Append adds the records of other to t.
func (t *Table) Append(other *Table) {
	if other == nil {
		return
	}
	t.Records = append(t.Records, other.Records...)
}
