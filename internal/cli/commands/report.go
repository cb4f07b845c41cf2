package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ccollicutt/testwise/pkg/analyzer"
	"github.com/ccollicutt/testwise/pkg/config"
	"github.com/ccollicutt/testwise/pkg/export"
	"github.com/ccollicutt/testwise/pkg/llm"
	"github.com/ccollicutt/testwise/pkg/output"
	"github.com/ccollicutt/testwise/pkg/webhook"
)

// ReportOptions holds command-line options for the report command.
type ReportOptions struct {
	OutDir        string
	Name          string
	HTML          bool
	StripNonASCII bool
	NoLLM         bool
	ErrorList     bool
	NoRender      bool
	Filter        FilterOptions

	// Webhook options
	WebhookURL     string
	WebhookToken   string
	WebhookTrigger string
}

// NewReportCommand creates the report command.
func NewReportCommand() *cobra.Command {
	opts := &ReportOptions{}

	cmd := &cobra.Command{
		Use:   "report [file|glob|dir]...",
		Short: "Generate a full Markdown report with LLM analysis",
		Long: `Generate a Markdown report of a test run: totals, the most frequent
failures with example test cases, an LLM summary and root-cause suggestions.

The report is saved to <out-dir>/<name>.md (and .html with --html). When
stdout is a terminal it is also rendered there; otherwise the saved paths
are printed. Configured webhooks receive the report as JSON.

LLM generation needs GEMINI_API_KEY (or llm.api_key in the config); set
TESTWISE_NO_LLM=1 or pass --no-llm to skip it.

Exit codes:
  0 - All tests passed
  1 - At least one test failed
  2 - Configuration or runtime error`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.OutDir, "out-dir", "", "Directory to write the report to (default from config: reports)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "Report file name without extension")
	cmd.Flags().BoolVar(&opts.HTML, "html", false, "Also write an HTML report")
	cmd.Flags().BoolVar(&opts.StripNonASCII, "strip-non-ascii", false, "Remove emoji and other non-ASCII characters from saved files")
	cmd.Flags().BoolVar(&opts.NoLLM, "no-llm", false, "Skip LLM summary and root-cause suggestions")
	cmd.Flags().BoolVar(&opts.ErrorList, "list", false, "Render failures as a list instead of a table")
	cmd.Flags().BoolVar(&opts.NoRender, "no-render", false, "Do not render the report in the terminal")
	addFilterFlags(cmd, &opts.Filter)

	// Webhook flags
	cmd.Flags().StringVar(&opts.WebhookURL, "webhook-url", "", "Webhook endpoint URL")
	cmd.Flags().StringVar(&opts.WebhookToken, "webhook-token", "", "Bearer token for webhook auth")
	cmd.Flags().StringVar(&opts.WebhookTrigger, "webhook-trigger", "on_failures", "When to fire webhook (on_failures|always|never)")

	return cmd
}

func runReport(cmd *cobra.Command, args []string, opts *ReportOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()
	log := logger()

	switch config.WebhookTrigger(opts.WebhookTrigger) {
	case "", config.WebhookTriggerOnFailures, config.WebhookTriggerAlways, config.WebhookTriggerNever:
	default:
		return fmt.Errorf("invalid webhook-trigger %q (use on_failures, always, or never)", opts.WebhookTrigger)
	}

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	applyReportFlags(cfg, opts)

	run, err := loadTable(cfg, args, opts.Filter)
	if err != nil {
		return err
	}

	summary := analyzer.Summarize(run.Table)
	report := output.NewReport(summary, run.Files)
	report.TopErrors = analyzer.TopErrorsWithExamples(run.Table, cfg.Analysis.TopErrors, cfg.Analysis.ExamplesPerError)
	report.Metadata.Duration = run.Duration

	generateAnalysis(ctx, cfg.LLM, report)

	md := output.NewMarkdownFormatter(output.FormatOptions{ErrorList: opts.ErrorList}).Render(report)

	paths, err := export.Save(cfg.Report.OutDir, cfg.Report.Name, md, export.Options{
		HTML:          cfg.Report.HTML,
		StripNonASCII: cfg.Report.StripNonASCII,
	})
	if err != nil {
		return fmt.Errorf("saving report: %w", err)
	}

	if !opts.NoRender && isTerminal(out) {
		rendered, err := output.RenderTerminal(md, output.DefaultWrapWidth)
		if err != nil {
			log.Warn("terminal rendering failed", zap.Error(err))
			fmt.Fprint(out, md)
		} else {
			fmt.Fprint(out, rendered)
		}
	}

	fmt.Fprintf(out, "Report saved to %s\n", paths.Markdown)
	if paths.HTML != "" {
		fmt.Fprintf(out, "HTML report saved to %s\n", paths.HTML)
	}

	// Send webhooks (errors logged but don't fail the run)
	sendWebhooks(ctx, cfg, opts, report, cmd.ErrOrStderr())

	setExitCode(report.HasFailures())
	return nil
}

// applyReportFlags overrides config report settings with explicit flags.
func applyReportFlags(cfg *config.Config, opts *ReportOptions) {
	if opts.OutDir != "" {
		cfg.Report.OutDir = opts.OutDir
	}
	if opts.Name != "" {
		cfg.Report.Name = opts.Name
	}
	cfg.Report.HTML = cfg.Report.HTML || opts.HTML
	cfg.Report.StripNonASCII = cfg.Report.StripNonASCII || opts.StripNonASCII
	if opts.NoLLM {
		cfg.LLM.Enabled = false
	}
}

// generateAnalysis fills the LLM sections of report. Generation failures
// become notes in the report rather than errors.
func generateAnalysis(ctx context.Context, cfg config.LLMConfig, report *output.Report) {
	log := logger()

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	client := buildLLMClient(ctx, cfg)

	summary, err := newSummarizer(client, cfg).Summarize(ctx, report.Summary)
	if err != nil {
		log.Warn("LLM summary failed", zap.Error(err))
		summary = fmt.Sprintf("Error generating summary: %v", err)
	}
	report.LLMSummary = summary

	if len(report.TopErrors) == 0 {
		return
	}

	advice, err := llm.NewAdvisor(client, cfg.Enabled).Suggest(ctx, llm.RootCausePrompt(report.TopErrors))
	if err != nil {
		log.Warn("root cause suggestions failed", zap.Error(err))
		advice = fmt.Sprintf("Error generating root cause suggestions: %v", err)
	}
	report.RootCause = advice
}

// sendWebhooks sends the report to all configured webhooks.
// Errors are reported to stderr but don't fail the run.
func sendWebhooks(ctx context.Context, cfg *config.Config, opts *ReportOptions, report *output.Report, stderr io.Writer) {
	hooks := collectWebhooks(cfg, opts)
	if len(hooks) == 0 {
		return
	}

	results, err := webhook.NewClient(webhook.WithUserAgent("testwise/"+Version)).Dispatch(ctx, report, hooks, logger())
	for _, r := range results {
		if r.Skipped || !r.Response.Success() {
			continue
		}
		fmt.Fprintf(stderr, "Webhook %s: sent (%d, %s)\n", r.Name, r.Response.StatusCode, r.Response.Duration)
	}
	if err != nil {
		fmt.Fprintf(stderr, "Webhook delivery failed: %v\n", err)
	}
}

// collectWebhooks merges config file webhooks with CLI webhook.
func collectWebhooks(cfg *config.Config, opts *ReportOptions) []config.WebhookConfig {
	webhooks := make([]config.WebhookConfig, 0, len(cfg.Webhooks)+1)

	// Add config file webhooks
	webhooks = append(webhooks, cfg.Webhooks...)

	// Add CLI webhook if specified
	if opts.WebhookURL != "" {
		trigger := config.WebhookTrigger(opts.WebhookTrigger)
		if trigger == "" {
			trigger = config.WebhookTriggerOnFailures
		}

		webhooks = append(webhooks, config.WebhookConfig{
			Name:    "cli",
			URL:     opts.WebhookURL,
			Token:   opts.WebhookToken,
			Trigger: trigger,
			Timeout: config.DefaultWebhookTimeout,
		})
	}

	return webhooks
}
