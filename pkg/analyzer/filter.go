package analyzer

import (
	"sort"

	"github.com/ccollicutt/testwise/pkg/parser"
)

// filter selects records by test type, module and status.
type filter struct {
	testTypes  map[string]bool // nil means all
	modules    map[string]bool // nil means all
	failedOnly bool
}

// FilterOption configures Filter.
type FilterOption func(*filter)

// WithTestTypes keeps only records whose test type is in types.
// An empty list keeps every type.
func WithTestTypes(types []string) FilterOption {
	return func(f *filter) {
		f.testTypes = toSet(types)
	}
}

// WithModules keeps only records whose module is in modules.
// An empty list keeps every module.
func WithModules(modules []string) FilterOption {
	return func(f *filter) {
		f.modules = toSet(modules)
	}
}

// WithFailedOnly keeps only FAIL records.
func WithFailedOnly(v bool) FilterOption {
	return func(f *filter) {
		f.failedOnly = v
	}
}

func toSet(values []string) map[string]bool {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

// Filter returns a new table with the records that pass every option.
// The input table is not modified.
func Filter(table *parser.Table, opts ...FilterOption) *parser.Table {
	f := &filter{}
	for _, opt := range opts {
		opt(f)
	}

	out := parser.NewTable()
	if table == nil {
		return out
	}
	for _, r := range table.Records {
		if f.testTypes != nil && !f.testTypes[r.TestType] {
			continue
		}
		if f.modules != nil && !f.modules[r.Module] {
			continue
		}
		if f.failedOnly && !r.Failed() {
			continue
		}
		out.Records = append(out.Records, r)
	}
	return out
}

// DistinctTestTypes returns the sorted non-empty test types in table.
func DistinctTestTypes(table *parser.Table) []string {
	return distinct(table, func(r parser.Record) string { return r.TestType })
}

// DistinctModules returns the sorted non-empty modules in table.
func DistinctModules(table *parser.Table) []string {
	return distinct(table, func(r parser.Record) string { return r.Module })
}

func distinct(table *parser.Table, field func(parser.Record) string) []string {
	seen := make(map[string]bool)
	values := []string{}
	if table == nil {
		return values
	}
	for _, r := range table.Records {
		v := field(r)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}
