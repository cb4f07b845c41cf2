// Package analyzer aggregates normalized test records into pass/fail
// statistics and failure-cause rankings.
package analyzer

// Default limits for example extraction.
const (
	DefaultTopErrors   = 5
	DefaultMaxExamples = 3
)

// ErrorCount is one entry of the failure ranking.
type ErrorCount struct {
	// Error is the failure cause as it appeared in the records.
	Error string `json:"error"`

	// Count is the number of FAIL records carrying this cause.
	Count int `json:"count"`
}

// Summary holds aggregate statistics for a record table.
type Summary struct {
	// Total is the number of records.
	Total int `json:"total"`

	// Passed is the number of PASS records.
	Passed int `json:"passed"`

	// Failed is the number of FAIL records.
	Failed int `json:"failed"`

	// FailureRanking lists failure causes by descending count. Causes with
	// equal counts keep the order in which they first appeared.
	FailureRanking []ErrorCount `json:"failure_ranking"`
}

// PassRate returns passed/total as a percentage, or 0 for an empty table.
func (s *Summary) PassRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Passed) / float64(s.Total) * 100
}

// HasFailures returns true if any record failed.
func (s *Summary) HasFailures() bool {
	return s.Failed > 0
}

// Top returns at most n ranking entries. n <= 0 returns the full ranking.
func (s *Summary) Top(n int) []ErrorCount {
	if n <= 0 || n >= len(s.FailureRanking) {
		return s.FailureRanking
	}
	return s.FailureRanking[:n]
}

// ErrorExamples pairs a frequent failure cause with sample test cases.
type ErrorExamples struct {
	Error     string   `json:"error"`
	Count     int      `json:"count"`
	TestCases []string `json:"test_cases"`
}
