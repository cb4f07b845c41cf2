package output

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/ccollicutt/testwise/pkg/analyzer"
)

func TestNewTextFormatter(t *testing.T) {
	f := NewTextFormatter(FormatOptions{})
	if f == nil {
		t.Fatal("NewTextFormatter() returned nil")
	}
	if f.Name() != "text" {
		t.Errorf("Name() = %q, want %q", f.Name(), "text")
	}
}

func TestTextFormatter_Format_Empty(t *testing.T) {
	f := NewTextFormatter(FormatOptions{})
	report := NewReport(nil, nil)

	var buf bytes.Buffer
	if err := f.Format(context.Background(), report, &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "=== Testwise Report ===") {
		t.Error("Output should contain header")
	}
	if !strings.Contains(output, "No failures detected") {
		t.Error("Output should say no failures were detected")
	}
	if !strings.Contains(output, "Pass rate:   0.0%") {
		t.Errorf("Output should show zero pass rate, got:\n%s", output)
	}
}

func TestTextFormatter_Format_WithFailures(t *testing.T) {
	f := NewTextFormatter(FormatOptions{})
	report := createTestReport()

	var buf bytes.Buffer
	if err := f.Format(context.Background(), report, &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	output := buf.String()
	for _, want := range []string{
		"Total tests: 5",
		"Failed:      3",
		"1. Timeout (2)",
		"2. (no error message) (1)",
		"LLM summary:",
		"Root cause suggestions:",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("Output missing %q:\n%s", want, output)
		}
	}
	if strings.Contains(output, "Run ID") {
		t.Error("Non-verbose output should not contain metadata")
	}
}

func TestTextFormatter_Format_Quiet(t *testing.T) {
	f := NewTextFormatter(FormatOptions{Quiet: true})
	report := createTestReport()

	var buf bytes.Buffer
	if err := f.Format(context.Background(), report, &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	want := "Testwise: 5 tests, 2 passed, 3 failed (40.0% pass rate)\n"
	if buf.String() != want {
		t.Errorf("Quiet output = %q, want %q", buf.String(), want)
	}
}

func TestTextFormatter_Format_Verbose(t *testing.T) {
	f := NewTextFormatter(FormatOptions{Verbose: true})
	report := createTestReport()

	var buf bytes.Buffer
	if err := f.Format(context.Background(), report, &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "Timeout: t1, t4") {
		t.Error("Verbose output should contain examples")
	}
	if !strings.Contains(output, "Run ID: "+report.Metadata.RunID) {
		t.Error("Verbose output should contain run ID")
	}
	if !strings.Contains(output, "Sources: run.log") {
		t.Error("Verbose output should contain sources")
	}
}

func TestTextFormatter_Format_TopN(t *testing.T) {
	f := NewTextFormatter(FormatOptions{TopN: 1})
	report := createTestReport()

	var buf bytes.Buffer
	if err := f.Format(context.Background(), report, &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if strings.Contains(buf.String(), "2. ") {
		t.Errorf("TopN=1 should show one entry:\n%s", buf.String())
	}
}

func TestNewFormatter(t *testing.T) {
	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{name: "", want: "text"},
		{name: "text", want: "text"},
		{name: "json", want: "json"},
		{name: "markdown", want: "markdown"},
		{name: "md", want: "markdown"},
		{name: "yaml", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewFormatter(tt.name, FormatOptions{})
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewFormatter() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && f.Name() != tt.want {
				t.Errorf("Name() = %q, want %q", f.Name(), tt.want)
			}
		})
	}
}

func TestNewReport(t *testing.T) {
	a := NewReport(&analyzer.Summary{Total: 1, Passed: 1}, []string{"a.log"})
	b := NewReport(nil, nil)

	if a.Metadata.RunID == "" || a.Metadata.RunID == b.Metadata.RunID {
		t.Errorf("RunIDs should be unique and non-empty: %q %q", a.Metadata.RunID, b.Metadata.RunID)
	}
	if a.Metadata.GeneratedAt.IsZero() {
		t.Error("GeneratedAt should be set")
	}
	if b.Summary == nil || b.Metadata.Sources == nil || b.TopErrors == nil {
		t.Error("NewReport(nil, nil) should fill empty values")
	}
	if a.HasFailures() {
		t.Error("HasFailures() = true for all-pass summary")
	}
}

func createTestReport() *Report {
	summary := &analyzer.Summary{
		Total:  5,
		Passed: 2,
		Failed: 3,
		FailureRanking: []analyzer.ErrorCount{
			{Error: "Timeout", Count: 2},
			{Error: "", Count: 1},
		},
	}
	report := NewReport(summary, []string{"run.log"})
	report.TopErrors = []analyzer.ErrorExamples{
		{Error: "Timeout", Count: 2, TestCases: []string{"t1", "t4"}},
		{Error: "", Count: 1, TestCases: []string{"t3"}},
	}
	report.LLMSummary = "Bus timeouts dominate."
	report.RootCause = "- **Error:** Timeout"
	report.Metadata.Duration = 1500 * time.Millisecond
	return report
}
