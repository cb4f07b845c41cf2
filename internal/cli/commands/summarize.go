package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ccollicutt/testwise/pkg/analyzer"
	"github.com/ccollicutt/testwise/pkg/output"
)

// SummarizeOptions holds command-line options for the summarize command.
type SummarizeOptions struct {
	Output  string
	Top     int
	LLM     bool
	Verbose bool
	Quiet   bool
	Filter  FilterOptions
}

// NewSummarizeCommand creates the summarize command.
func NewSummarizeCommand() *cobra.Command {
	opts := &SummarizeOptions{}

	cmd := &cobra.Command{
		Use:   "summarize [file|glob|dir]...",
		Short: "Show pass/fail totals and the failure ranking",
		Long: `Summarize test results: totals, pass rate and failure causes ranked
by how many tests they failed.

With --llm, a natural-language summary is generated as well.

Exit codes:
  0 - All tests passed
  1 - At least one test failed
  2 - Configuration or runtime error`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSummarize(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json|markdown)")
	cmd.Flags().IntVar(&opts.Top, "top", 0, "Show only the N most frequent failures (0 = all)")
	cmd.Flags().BoolVar(&opts.LLM, "llm", false, "Generate an LLM summary")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show example test cases and run metadata")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Summary only, no details")
	addFilterFlags(cmd, &opts.Filter)

	return cmd
}

func runSummarize(cmd *cobra.Command, args []string, opts *SummarizeOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	formatter, err := output.NewFormatter(opts.Output, output.FormatOptions{
		Verbose: opts.Verbose,
		Quiet:   opts.Quiet,
		TopN:    opts.Top,
	})
	if err != nil {
		return err
	}

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	run, err := loadTable(cfg, args, opts.Filter)
	if err != nil {
		return err
	}

	summary := analyzer.Summarize(run.Table)
	report := output.NewReport(summary, run.Files)
	report.TopErrors = analyzer.TopErrorsWithExamples(run.Table, cfg.Analysis.TopErrors, cfg.Analysis.ExamplesPerError)
	report.Metadata.Duration = run.Duration

	if opts.LLM {
		llmCtx, cancel := context.WithTimeout(ctx, cfg.LLM.Timeout)
		text, err := newSummarizer(buildLLMClient(llmCtx, cfg.LLM), cfg.LLM).Summarize(llmCtx, summary)
		cancel()
		if err != nil {
			logger().Warn("LLM summary failed", zap.Error(err))
			text = fmt.Sprintf("Error generating summary: %v", err)
		}
		report.LLMSummary = text
	}

	if err := formatter.Format(ctx, report, cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}

	setExitCode(report.HasFailures())
	return nil
}
