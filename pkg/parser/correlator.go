package parser

// Correlator remembers the test type announced by informational lines so a
// later result line for the same test case can carry it. One Correlator
// serves exactly one parse call.
type Correlator struct {
	types map[string]string
}

// NewCorrelator returns an empty Correlator.
func NewCorrelator() *Correlator {
	return &Correlator{types: make(map[string]string)}
}

// Observe records the test type for testCase. A later call for the same
// test case overwrites the earlier value.
func (c *Correlator) Observe(testCase, testType string) {
	c.types[testCase] = testType
}

// Lookup returns the last test type observed for testCase, or "".
// Entries are never consumed.
func (c *Correlator) Lookup(testCase string) string {
	return c.types[testCase]
}

// Len returns the number of correlated test cases.
func (c *Correlator) Len() int {
	return len(c.types)
}

// Apply resolves the test type of a result match. A type carried on the
// result line itself wins; otherwise the correlated type (or "") is used.
func (c *Correlator) Apply(fields Fields) Fields {
	if fields[ColumnTestType] != "" {
		return fields
	}
	fields[ColumnTestType] = c.Lookup(fields[ColumnTestCase])
	return fields
}
