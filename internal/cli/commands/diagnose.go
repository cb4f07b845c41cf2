package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/testwise/pkg/config"
	"github.com/ccollicutt/testwise/pkg/detector"
	"github.com/ccollicutt/testwise/pkg/parser"
)

// maxDiagnosedFiles caps how many input files are sampled for format checks.
const maxDiagnosedFiles = 5

// connectivityTimeout bounds the --verbose webhook reachability probe.
const connectivityTimeout = 5 * time.Second

// DiagnoseOptions holds options for the diagnose command
type DiagnoseOptions struct {
	Verbose bool
}

// CheckStatus is the outcome of one diagnostic check.
type CheckStatus string

const (
	StatusOK      CheckStatus = "ok"
	StatusWarning CheckStatus = "warning"
	StatusError   CheckStatus = "error"
)

// label is the bracketed tag printed for a status.
func (s CheckStatus) label() string {
	switch s {
	case StatusOK:
		return "PASS"
	case StatusWarning:
		return "WARN"
	default:
		return "FAIL"
	}
}

// DiagnosticResult represents the result of a single diagnostic check
type DiagnosticResult struct {
	Check    string
	Status   CheckStatus
	Message  string
	Details  []string
	Suggests []string
}

// NewDiagnoseCommand creates the diagnose command
func NewDiagnoseCommand() *cobra.Command {
	opts := &DiagnoseOptions{}

	cmd := &cobra.Command{
		Use:   "diagnose <config-file>",
		Short: "Diagnose common configuration issues",
		Long: `Diagnose common configuration issues.

This command checks your configuration file for common problems:
- Config file syntax and structure
- Input file existence and supported file types
- Result line formats and CSV columns in the actual inputs
- LLM credentials
- Webhook configuration

Example:
  testwise diagnose testwise.yaml
  testwise diagnose -v testwise.yaml  # verbose output`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return runDiagnose(ctx, cmd.OutOrStdout(), args[0], opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show detailed diagnostic output")

	return cmd
}

func runDiagnose(ctx context.Context, w io.Writer, configPath string, opts *DiagnoseOptions) error {
	results := []DiagnosticResult{}

	// 1. Check config file existence
	result := checkConfigExists(configPath)
	results = append(results, result)
	if result.Status == StatusError {
		printDiagnostics(w, results, opts)
		return nil
	}

	// 2. Parse config file
	cfg, result := checkConfigParseable(ctx, configPath)
	results = append(results, result)
	if result.Status == StatusError {
		printDiagnostics(w, results, opts)
		return nil
	}

	// 3. Check inputs
	results = append(results, checkInputs(cfg)...)

	// 4. Check result formats against actual inputs
	results = append(results, checkResultFormats(ctx, cfg, opts)...)

	// 5. Check LLM configuration
	results = append(results, checkLLM(cfg))

	// 6. Check webhooks configuration
	results = append(results, checkWebhooks(ctx, cfg, opts)...)

	printDiagnostics(w, results, opts)
	return nil
}

func checkConfigExists(path string) DiagnosticResult {
	result := DiagnosticResult{
		Check: "Config File",
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		result.Status = StatusError
		result.Message = fmt.Sprintf("Config file not found: %s", path)
		result.Suggests = []string{
			"Check the file path is correct",
			"Use 'testwise detect <log-file> --write-config testwise.yaml' to generate a starter config",
		}
		return result
	}
	if err != nil {
		result.Status = StatusError
		result.Message = fmt.Sprintf("Cannot access config file: %v", err)
		result.Suggests = []string{"Check file permissions"}
		return result
	}
	if info.IsDir() {
		result.Status = StatusError
		result.Message = "Path is a directory, not a file"
		return result
	}
	if info.Size() == 0 {
		result.Status = StatusError
		result.Message = "Config file is empty"
		result.Suggests = []string{
			"Use 'testwise detect <log-file> --write-config testwise.yaml' to generate a starter config",
		}
		return result
	}

	result.Status = StatusOK
	result.Message = fmt.Sprintf("Found: %s (%d bytes)", path, info.Size())
	return result
}

func checkConfigParseable(ctx context.Context, path string) (*config.Config, DiagnosticResult) {
	result := DiagnosticResult{
		Check: "Config Syntax",
	}

	cfg, err := config.Load(ctx, path)
	if err != nil {
		result.Status = StatusError
		result.Message = fmt.Sprintf("Failed to parse config: %v", err)
		if strings.Contains(err.Error(), "yaml") {
			result.Suggests = []string{
				"Check YAML syntax - ensure proper indentation (use spaces, not tabs)",
				"Validate YAML at https://yamlvalidator.com/",
			}
		}
		return nil, result
	}

	result.Status = StatusOK
	result.Message = "Config file parsed successfully"
	result.Details = []string{
		fmt.Sprintf("Inputs: %d", len(cfg.Inputs)),
		fmt.Sprintf("CSV schema: %s", cfg.CSVSchema),
		fmt.Sprintf("Webhooks: %d", len(cfg.Webhooks)),
	}
	return cfg, result
}

func checkInputs(cfg *config.Config) []DiagnosticResult {
	results := []DiagnosticResult{}

	if len(cfg.Inputs) == 0 {
		results = append(results, DiagnosticResult{
			Check:   "Inputs",
			Status:  StatusWarning,
			Message: "No inputs defined",
			Suggests: []string{
				"Add an inputs section to your config, or pass files on the command line",
				"Example: inputs:\n  - results/*.csv",
			},
		})
		return results
	}

	totalFiles := 0
	for _, source := range cfg.Inputs {
		result := DiagnosticResult{
			Check: fmt.Sprintf("Input: %s", source),
		}

		if strings.ContainsAny(source, "*?[") {
			files, err := existingInputs([]string{source})
			if err != nil {
				result.Status = StatusError
				result.Message = fmt.Sprintf("Invalid glob pattern: %v", err)
			} else if len(files) == 0 {
				result.Status = StatusWarning
				result.Message = "Glob pattern matches no supported files"
				result.Suggests = []string{
					"Check if the result files exist at this path",
					"Only .csv, .txt and .log files are read",
				}
			} else {
				result.Status = StatusOK
				result.Message = fmt.Sprintf("Matches %d file(s)", len(files))
				result.Details = append(result.Details, files...)
				totalFiles += len(files)
			}
			results = append(results, result)
			continue
		}

		info, err := os.Stat(source)
		switch {
		case os.IsNotExist(err):
			result.Status = StatusError
			result.Message = "Path does not exist"
			result.Suggests = []string{"Check if the input path is correct"}
		case err != nil:
			result.Status = StatusError
			result.Message = fmt.Sprintf("Cannot access path: %v", err)
			result.Suggests = []string{"Check file permissions"}
		case info.IsDir():
			files, err := existingInputs([]string{source})
			if err != nil || len(files) == 0 {
				result.Status = StatusWarning
				result.Message = "Directory contains no .csv, .txt or .log files"
			} else {
				result.Status = StatusOK
				result.Message = fmt.Sprintf("Directory with %d supported file(s)", len(files))
				result.Details = append(result.Details, files...)
				totalFiles += len(files)
			}
		default:
			if _, err := parser.FormatFor(source); err != nil {
				result.Status = StatusError
				result.Message = err.Error()
				result.Suggests = []string{"Convert the file to .csv, .txt or .log"}
			} else if info.Size() == 0 {
				result.Status = StatusWarning
				result.Message = "File is empty (0 bytes)"
			} else {
				result.Status = StatusOK
				result.Message = fmt.Sprintf("File exists (%d bytes)", info.Size())
				totalFiles++
			}
		}
		results = append(results, result)
	}

	if totalFiles == 0 {
		results = append(results, DiagnosticResult{
			Check:   "Input Files Summary",
			Status:  StatusError,
			Message: "No readable input files found",
			Suggests: []string{
				"Ensure at least one .csv, .txt or .log file exists and is readable",
			},
		})
	}

	return results
}

func checkResultFormats(ctx context.Context, cfg *config.Config, opts *DiagnoseOptions) []DiagnosticResult {
	results := []DiagnosticResult{}
	if len(cfg.Inputs) == 0 {
		return results
	}

	files, err := existingInputs(cfg.Inputs)
	if err != nil || len(files) == 0 {
		return results
	}
	if len(files) > maxDiagnosedFiles {
		files = files[:maxDiagnosedFiles]
	}

	for _, file := range files {
		if format, _ := parser.FormatFor(file); format == parser.FormatCSV {
			results = append(results, checkCSVColumns(file, cfg.Schema()))
			continue
		}
		results = append(results, checkTextFormat(ctx, file, opts))
	}

	return results
}

func checkCSVColumns(file string, schema parser.SchemaVariant) DiagnosticResult {
	result := DiagnosticResult{
		Check: fmt.Sprintf("CSV Columns: %s", filepath.Base(file)),
	}

	table, err := parser.Parse(file, parser.WithSchema(schema))
	var schemaErr *parser.SchemaError
	switch {
	case errors.As(err, &schemaErr):
		result.Status = StatusError
		result.Message = fmt.Sprintf("Missing %d column(s) for schema %s", len(schemaErr.Missing), schema)
		result.Details = schemaErr.Missing
		if schema == parser.SchemaFull {
			if _, err := parser.Parse(file, parser.WithSchema(parser.SchemaMinimal)); err == nil {
				result.Suggests = []string{"This file has the minimal columns; set csv_schema: minimal"}
			}
		}
	case err != nil:
		result.Status = StatusError
		result.Message = fmt.Sprintf("Cannot parse file: %v", err)
	case table.Len() == 0:
		result.Status = StatusWarning
		result.Message = "Header is valid but the file has no PASS/FAIL rows"
	default:
		result.Status = StatusOK
		result.Message = fmt.Sprintf("Columns match schema %s (%d records)", schema, table.Len())
	}
	return result
}

func checkTextFormat(ctx context.Context, file string, opts *DiagnoseOptions) DiagnosticResult {
	result := DiagnosticResult{
		Check: fmt.Sprintf("Result Lines: %s", filepath.Base(file)),
	}

	d := detector.New(detector.WithSampleSize(20))
	det, err := d.DetectFromFile(ctx, file)
	if err != nil {
		result.Status = StatusWarning
		result.Message = fmt.Sprintf("Cannot read file: %v", err)
		return result
	}

	resultLines := det.ResultLines()
	switch {
	case resultLines == 0:
		result.Status = StatusError
		result.Message = "No result lines found in sample"
		result.Suggests = []string{
			"Result lines need an upper-case PASS or FAIL status",
			"Use 'testwise detect " + file + "' to see how lines are classified",
		}
		if det.UnmatchedSample != "" {
			result.Details = []string{
				"Sample line that didn't match:",
				truncate(det.UnmatchedSample, 80),
			}
		}
		if det.Note != "" {
			result.Suggests = append(result.Suggests, det.Note)
		}
	case det.UnmatchedLines > det.MatchedLines:
		result.Status = StatusWarning
		result.Message = fmt.Sprintf("Only %d/%d sample lines matched a known format", det.MatchedLines, det.SampledLines)
		if det.UnmatchedSample != "" {
			result.Details = []string{
				"Sample line that didn't match:",
				truncate(det.UnmatchedSample, 80),
			}
		}
	default:
		best := det.BestMatch()
		result.Status = StatusOK
		result.Message = fmt.Sprintf("Format %s matches %d/%d sample lines", best.Grammar, best.MatchCount, det.SampledLines)
		if opts.Verbose {
			result.Details = []string{
				"Sample match:",
				truncate(best.SampleLine, 80),
			}
		}
	}

	return result
}

func checkLLM(cfg *config.Config) DiagnosticResult {
	result := DiagnosticResult{
		Check: "LLM",
	}

	if !cfg.LLM.Enabled {
		result.Status = StatusOK
		result.Message = "Disabled (reports will carry no generated summary)"
		if os.Getenv(config.EnvNoLLM) == "1" {
			result.Details = []string{config.EnvNoLLM + "=1 is set"}
		}
		return result
	}

	switch {
	case cfg.LLM.APIKey == "":
		result.Status = StatusWarning
		result.Message = "Enabled but no API key is configured"
		result.Suggests = []string{
			fmt.Sprintf("Set %s or %s, or llm.api_key in the config", config.EnvGeminiAPIKey, config.EnvGoogleAPIKey),
			fmt.Sprintf("Set %s=1 to disable summaries", config.EnvNoLLM),
		}
	case strings.HasPrefix(cfg.LLM.APIKey, "$"):
		result.Status = StatusWarning
		result.Message = fmt.Sprintf("API key appears to be an unresolved env var: %s", cfg.LLM.APIKey)
	default:
		result.Status = StatusOK
		result.Message = fmt.Sprintf("Model: %s", cfg.LLM.Model)
		result.Details = []string{
			"API key: configured",
			fmt.Sprintf("Timeout: %s", cfg.LLM.Timeout),
		}
	}
	return result
}

func printDiagnostics(w io.Writer, results []DiagnosticResult, opts *DiagnoseOptions) {
	fmt.Fprintln(w, "=== Testwise Configuration Diagnostics ===")
	fmt.Fprintln(w)

	okCount := 0
	warnCount := 0
	errCount := 0

	for _, r := range results {
		switch r.Status {
		case StatusOK:
			okCount++
		case StatusWarning:
			warnCount++
		default:
			errCount++
		}

		fmt.Fprintf(w, "[%s] %s\n", r.Status.label(), r.Check)
		fmt.Fprintf(w, "    %s\n", r.Message)

		if opts.Verbose || r.Status != StatusOK {
			for _, d := range r.Details {
				fmt.Fprintf(w, "      - %s\n", d)
			}
		}

		for _, s := range r.Suggests {
			fmt.Fprintf(w, "      Hint: %s\n", s)
		}

		fmt.Fprintln(w)
	}

	// Summary
	fmt.Fprintln(w, "---")
	fmt.Fprintf(w, "Summary: %d passed, %d warnings, %d errors\n", okCount, warnCount, errCount)

	if errCount > 0 {
		fmt.Fprintln(w, "\nFix the errors above before generating reports.")
	} else if warnCount > 0 {
		fmt.Fprintln(w, "\nConfiguration is usable but has warnings.")
	} else {
		fmt.Fprintln(w, "\nConfiguration looks good!")
	}
}

func checkWebhooks(ctx context.Context, cfg *config.Config, opts *DiagnoseOptions) []DiagnosticResult {
	results := []DiagnosticResult{}

	if len(cfg.Webhooks) == 0 {
		// Webhooks are optional, just note they're not configured
		if opts.Verbose {
			results = append(results, DiagnosticResult{
				Check:   "Webhooks",
				Status:  StatusOK,
				Message: "No webhooks configured (optional)",
			})
		}
		return results
	}

	for _, wh := range cfg.Webhooks {
		result := DiagnosticResult{
			Check: fmt.Sprintf("Webhook: %s", wh.DisplayName()),
		}

		issues := []string{}
		warnings := []string{}

		// Check URL
		if wh.URL == "" {
			issues = append(issues, "Missing url")
		} else {
			u, err := url.Parse(wh.URL)
			if err != nil {
				issues = append(issues, fmt.Sprintf("Invalid URL: %v", err))
			} else if u.Scheme != "http" && u.Scheme != "https" {
				issues = append(issues, fmt.Sprintf("URL scheme must be http or https, got %q", u.Scheme))
			} else if u.Host == "" {
				issues = append(issues, "URL must have a host")
			}
		}

		// Check trigger
		if wh.Trigger != "" {
			switch wh.Trigger {
			case config.WebhookTriggerOnFailures, config.WebhookTriggerAlways, config.WebhookTriggerNever:
				// Valid
			default:
				issues = append(issues, fmt.Sprintf("Invalid trigger %q (use on_failures, always, or never)", wh.Trigger))
			}
		}

		// Check if token looks like an unexpanded env var
		if strings.HasPrefix(wh.Token, "$") {
			warnings = append(warnings, fmt.Sprintf("Token appears to be an unresolved env var: %s", wh.Token))
		}

		if len(issues) > 0 {
			result.Status = StatusError
			result.Message = fmt.Sprintf("%d configuration issue(s)", len(issues))
			result.Details = issues
		} else if len(warnings) > 0 {
			result.Status = StatusWarning
			result.Message = fmt.Sprintf("%d warning(s)", len(warnings))
			result.Details = warnings
		} else {
			result.Status = StatusOK
			result.Message = fmt.Sprintf("Trigger: %s", wh.Trigger)
			if opts.Verbose {
				result.Details = []string{
					fmt.Sprintf("URL: %s", wh.URL),
					fmt.Sprintf("Timeout: %s", wh.Timeout),
				}
				if wh.Token != "" {
					result.Details = append(result.Details, "Token: configured")
				}
			}
		}

		results = append(results, result)
	}

	// Optionally test webhook connectivity
	if opts.Verbose {
		for _, wh := range cfg.Webhooks {
			if wh.URL == "" {
				continue
			}
			result := checkWebhookConnectivity(ctx, wh)
			result.Check = fmt.Sprintf("Webhook Connectivity: %s", wh.DisplayName())
			results = append(results, result)
		}
	}

	return results
}

func checkWebhookConnectivity(ctx context.Context, wh config.WebhookConfig) DiagnosticResult {
	result := DiagnosticResult{}

	ctx, cancel := context.WithTimeout(ctx, connectivityTimeout)
	defer cancel()

	// HEAD only proves reachability; delivery itself is a POST
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, wh.URL, nil)
	if err != nil {
		result.Status = StatusWarning
		result.Message = fmt.Sprintf("Cannot create request: %v", err)
		return result
	}

	req.Header.Set("User-Agent", "testwise/"+Version)
	if wh.Token != "" {
		req.Header.Set("Authorization", "Bearer "+wh.Token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		result.Status = StatusWarning
		result.Message = fmt.Sprintf("Cannot connect: %v", err)
		result.Suggests = []string{
			"Check if the webhook URL is correct",
			"Verify network connectivity",
		}
		return result
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		result.Status = StatusOK
		result.Message = fmt.Sprintf("Reachable (status %d)", resp.StatusCode)
	} else {
		result.Status = StatusWarning
		result.Message = fmt.Sprintf("Reachable but returned status %d", resp.StatusCode)
		result.Suggests = []string{
			"The endpoint may require POST method (will work during actual webhook send)",
			"Check authentication if using a token",
		}
	}

	return result
}
