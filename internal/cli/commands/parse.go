package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/testwise/pkg/output"
)

// ParseOptions holds command-line options for the parse command.
type ParseOptions struct {
	Output string
	Filter FilterOptions
}

// NewParseCommand creates the parse command.
func NewParseCommand() *cobra.Command {
	opts := &ParseOptions{}

	cmd := &cobra.Command{
		Use:   "parse [file|glob|dir]...",
		Short: "Normalize test logs into canonical records",
		Long: `Parse CSV, TXT and LOG test-run files into canonical records
(timestamp, test_case, module, status, error, test_type) and print them.

Text logs are matched line by line against the supported result-line shapes;
informational "Running test" lines supply the test type of later results.
Lines that match nothing are skipped.

Inputs default to the config file's inputs when none are given.

Example:
  testwise parse results/*.log
  testwise parse -o csv run.txt > run.csv
  testwise parse --failed --module CAN nightly/`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json|csv)")
	addFilterFlags(cmd, &opts.Filter)

	return cmd
}

func addFilterFlags(cmd *cobra.Command, f *FilterOptions) {
	cmd.Flags().StringSliceVar(&f.TestTypes, "type", nil, "Only include these test types (can be repeated)")
	cmd.Flags().StringSliceVar(&f.Modules, "module", nil, "Only include these modules (can be repeated)")
	cmd.Flags().BoolVar(&f.FailedOnly, "failed", false, "Only include failed tests")
}

func runParse(cmd *cobra.Command, args []string, opts *ParseOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	formatter, err := output.NewTableFormatter(opts.Output)
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

	if err := formatter.Format(run.Table, cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}
	return nil
}
