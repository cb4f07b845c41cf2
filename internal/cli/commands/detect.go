package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/testwise/pkg/detector"
	"github.com/ccollicutt/testwise/pkg/parser"
)

// DetectOptions holds command-line options for the detect command.
type DetectOptions struct {
	Output      string
	SampleSize  int
	ShowAll     bool
	WriteConfig string
}

// NewDetectCommand creates the detect command.
func NewDetectCommand() *cobra.Command {
	opts := &DetectOptions{}

	cmd := &cobra.Command{
		Use:   "detect <log-file>",
		Short: "Detect which result-line formats a log file uses",
		Long: `Analyze a log file to identify which result-line formats it contains.

Samples non-blank lines from the file and classifies each against the
supported shapes, in priority order:
  info       [INFO] Running test: <case> [type=<type>]
  decorated  ▶ Result: <case> | <PASS|FAIL> | Module: <m> | Type: <t> | Error: <e>
  bracketed  [RESULT] <case> [<module>] <PASS|FAIL> [type=<t>] - <error>
  simple     <case>: <PASS|FAIL> - <error>

Any of the first three may carry a leading [timestamp].
For CSV files the header is checked against the expected columns instead.

Optionally generates a starter config file with --write-config.

Example:
  testwise detect run.log
  testwise detect --sample 500 --all nightly.txt
  testwise detect --write-config testwise.yaml run.log`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDetect(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().IntVarP(&opts.SampleSize, "sample", "n", detector.DefaultSampleSize, "Number of lines to sample")
	cmd.Flags().BoolVar(&opts.ShowAll, "all", false, "Show all detected formats, not just the best match")
	cmd.Flags().StringVarP(&opts.WriteConfig, "write-config", "w", "", "Write starter config to file (will not overwrite)")

	return cmd
}

func runDetect(cmd *cobra.Command, args []string, opts *DetectOptions) error {
	logFile := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	// Check file exists
	if _, err := os.Stat(logFile); os.IsNotExist(err) {
		return fmt.Errorf("log file not found: %s", logFile)
	}

	format, err := parser.FormatFor(logFile)
	if err != nil {
		return err
	}
	if format == parser.FormatCSV {
		return detectCSV(logFile, out)
	}

	// Create detector
	d := detector.New(detector.WithSampleSize(opts.SampleSize))

	// Run detection
	result, err := d.DetectFromFile(ctx, logFile)
	if err != nil {
		return fmt.Errorf("detection failed: %w", err)
	}

	if opts.WriteConfig != "" {
		if err := writeStarterConfig(out, result, logFile, opts.WriteConfig); err != nil {
			return err
		}
	}

	// Output results
	switch opts.Output {
	case "json":
		return outputDetectJSON(out, result, logFile, opts)
	default:
		return outputDetectText(out, result, logFile, opts)
	}
}

// detectCSV reports whether a CSV file carries the expected columns.
func detectCSV(path string, w io.Writer) error {
	fmt.Fprintln(w, "=== CSV Column Check ===")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "File: %s\n", path)

	for _, variant := range []parser.SchemaVariant{parser.SchemaFull, parser.SchemaMinimal} {
		table, err := parser.Parse(path, parser.WithSchema(variant))
		var schemaErr *parser.SchemaError
		switch {
		case errors.As(err, &schemaErr):
			fmt.Fprintf(w, "Schema %s: missing %s\n", variant, strings.Join(schemaErr.Missing, ", "))
		case err != nil:
			return fmt.Errorf("detection failed: %w", err)
		default:
			fmt.Fprintf(w, "Schema %s: OK (%d records)\n", variant, table.Len())
			if variant == parser.SchemaMinimal {
				fmt.Fprintln(w)
				fmt.Fprintln(w, "Tip: set csv_schema: minimal in your config to parse this file.")
			}
			return nil
		}
	}
	return nil
}

func outputDetectText(w io.Writer, result *detector.DetectionResult, logFile string, opts *DetectOptions) error {
	fmt.Fprintln(w, "=== Result Format Detection ===")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "File: %s\n", logFile)
	fmt.Fprintf(w, "Lines sampled: %d\n", result.SampledLines)
	fmt.Fprintf(w, "Lines matched: %d (%d would produce records)\n", result.MatchedLines, result.ResultLines())
	fmt.Fprintf(w, "Lines with timestamps: %d\n", result.TimestampedLines)
	fmt.Fprintln(w)

	if !result.HasMatch() {
		fmt.Fprintln(w, "No result format detected.")
		fmt.Fprintln(w)
		if result.UnmatchedSample != "" {
			fmt.Fprintf(w, "Sample unmatched line:\n  %s\n\n", truncate(result.UnmatchedSample, 80))
		}
		fmt.Fprintln(w, "Tip: Result lines need an upper-case PASS or FAIL status.")
		return nil
	}

	// Show best match
	best := result.BestMatch()
	fmt.Fprintf(w, "Detected Format: %s (%s)\n", best.Grammar, best.Kind)
	fmt.Fprintf(w, "Confidence: %.1f%% (%d/%d lines matched)\n",
		best.Confidence*100, best.MatchCount, result.SampledLines)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Sample match:\n  %s\n", truncate(best.SampleLine, 120))
	fmt.Fprintln(w)

	if result.UnmatchedLines > 0 {
		fmt.Fprintf(w, "Unmatched lines: %d (skipped when parsing)\n", result.UnmatchedLines)
		fmt.Fprintf(w, "  e.g. %s\n", truncate(result.UnmatchedSample, 80))
		fmt.Fprintln(w)
	}

	if result.Note != "" {
		fmt.Fprintf(w, "Note: %s\n", result.Note)
		fmt.Fprintln(w)
	}

	// Show alternatives if requested
	if opts.ShowAll && len(result.Matches) > 1 {
		fmt.Fprintln(w, "--- Other formats detected ---")
		for i, m := range result.Matches[1:] {
			fmt.Fprintf(w, "%d. %s (%s, %.1f%% confidence)\n", i+2, m.Grammar, m.Kind, m.Confidence*100)
			fmt.Fprintf(w, "   e.g. %s\n", truncate(m.SampleLine, 80))
		}
		fmt.Fprintln(w)
	}

	return nil
}

// JSONMatch represents a format match in JSON output.
type JSONMatch struct {
	Grammar    string  `json:"grammar"`
	Kind       string  `json:"kind"`
	Confidence float64 `json:"confidence"`
	MatchCount int     `json:"match_count"`
	SampleLine string  `json:"sample_line"`
}

// JSONOutput represents the full JSON output.
type JSONOutput struct {
	File             string      `json:"file"`
	Matches          []JSONMatch `json:"matches"`
	SampledLines     int         `json:"sampled_lines"`
	MatchedLines     int         `json:"matched_lines"`
	UnmatchedLines   int         `json:"unmatched_lines"`
	TimestampedLines int         `json:"timestamped_lines"`
	Note             string      `json:"note,omitempty"`
}

func outputDetectJSON(w io.Writer, result *detector.DetectionResult, logFile string, opts *DetectOptions) error {
	output := JSONOutput{
		File:             logFile,
		SampledLines:     result.SampledLines,
		MatchedLines:     result.MatchedLines,
		UnmatchedLines:   result.UnmatchedLines,
		TimestampedLines: result.TimestampedLines,
		Note:             result.Note,
		Matches:          make([]JSONMatch, 0),
	}

	matches := result.Matches
	if !opts.ShowAll && len(matches) > 1 {
		matches = matches[:1] // Only show best match
	}

	for _, m := range matches {
		output.Matches = append(output.Matches, JSONMatch{
			Grammar:    m.Grammar,
			Kind:       m.Kind.String(),
			Confidence: m.Confidence,
			MatchCount: m.MatchCount,
			SampleLine: m.SampleLine,
		})
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

func writeStarterConfig(w io.Writer, result *detector.DetectionResult, logFile, configPath string) error {
	// Check if file already exists
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file already exists: %s (will not overwrite)", configPath)
	}

	if result.ResultLines() == 0 {
		return fmt.Errorf("cannot generate config: no result lines detected")
	}

	config := generateStarterConfig(logFile, result.BestMatch())

	// #nosec G306 - config file doesn't need restrictive permissions
	if err := os.WriteFile(configPath, []byte(config), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintf(w, "Wrote starter config to: %s\n\n", configPath)
	return nil
}

// generateStarterConfig creates a YAML config template.
func generateStarterConfig(logFile string, match *detector.GrammarMatch) string {
	absLogFile := logFile
	if abs, err := filepath.Abs(logFile); err == nil {
		absLogFile = abs
	}

	return fmt.Sprintf(`# Testwise Configuration
# Generated by: testwise detect
# Detected format: %s (%.0f%% confidence)

inputs:
  - %s
  # Add more files, directories or globs:
  # - results/*.csv

csv_schema: full

analysis:
  top_errors: 5
  examples_per_error: 3

# filters:
#   test_types: [Integration]
#   modules: [CAN]
#   failed_only: false

llm:
  enabled: true
  model: gemini-2.5-flash
  api_key: ${GEMINI_API_KEY}

report:
  out_dir: reports
  name: testwise-report
  html: false

# webhooks:
#   - name: ci-alerts
#     url: https://hooks.example.com/testwise
#     trigger: on_failures
`, match.Grammar, match.Confidence*100, absLogFile)
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
