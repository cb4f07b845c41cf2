package analyzer

import (
	"sort"

	"github.com/ccollicutt/testwise/pkg/parser"
)

// Summarize computes totals and the failure ranking for a table.
func Summarize(table *parser.Table) *Summary {
	s := &Summary{FailureRanking: []ErrorCount{}}
	if table == nil {
		return s
	}

	s.Total = len(table.Records)
	for _, r := range table.Records {
		switch r.Status {
		case parser.StatusPass:
			s.Passed++
		case parser.StatusFail:
			s.Failed++
		}
	}

	s.FailureRanking = rankFailures(table.Records)
	return s
}

// rankFailures groups FAIL records by error and sorts by descending count.
// The sort is stable over first appearance so "top N" truncation is
// deterministic.
func rankFailures(records []parser.Record) []ErrorCount {
	index := make(map[string]int)
	ranking := []ErrorCount{}

	for _, r := range records {
		if !r.Failed() {
			continue
		}
		i, seen := index[r.Error]
		if !seen {
			i = len(ranking)
			index[r.Error] = i
			ranking = append(ranking, ErrorCount{Error: r.Error})
		}
		ranking[i].Count++
	}

	sort.SliceStable(ranking, func(i, j int) bool {
		return ranking[i].Count > ranking[j].Count
	})
	return ranking
}

// TopErrorsWithExamples returns the topN most frequent failure causes, each
// with up to maxExamples failing test cases in record order. Non-positive
// limits fall back to DefaultTopErrors and DefaultMaxExamples.
func TopErrorsWithExamples(table *parser.Table, topN, maxExamples int) []ErrorExamples {
	if topN <= 0 {
		topN = DefaultTopErrors
	}
	if maxExamples <= 0 {
		maxExamples = DefaultMaxExamples
	}

	summary := Summarize(table)
	top := summary.Top(topN)

	result := make([]ErrorExamples, 0, len(top))
	if table == nil {
		return result
	}
	position := make(map[string]int, len(top))
	for i, ec := range top {
		position[ec.Error] = i
		result = append(result, ErrorExamples{
			Error:     ec.Error,
			Count:     ec.Count,
			TestCases: []string{},
		})
	}

	for _, r := range table.Records {
		if !r.Failed() {
			continue
		}
		i, ok := position[r.Error]
		if !ok || len(result[i].TestCases) >= maxExamples {
			continue
		}
		result[i].TestCases = append(result[i].TestCases, r.TestCase)
	}

	return result
}
