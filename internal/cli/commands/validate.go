package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/testwise/pkg/config"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate a configuration file",
		Long: `Validate a Testwise configuration file without parsing any results.

Checks:
  - YAML syntax
  - CSV schema variant
  - Analysis, LLM and report settings
  - Webhook URLs and triggers
  - Input file existence (warning only)`,
		Args: cobra.ExactArgs(1),
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	configPath := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Validating %s...\n", configPath)

	// Load and validate config
	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	// Report what we found
	fmt.Fprintf(out, "\nConfiguration valid!\n")
	fmt.Fprintf(out, "  Inputs:     %d pattern(s)\n", len(cfg.Inputs))
	fmt.Fprintf(out, "  CSV schema: %s (%d required columns)\n", cfg.CSVSchema, len(cfg.Schema().RequiredColumns()))
	fmt.Fprintf(out, "  Top errors: %d (%d examples each)\n", cfg.Analysis.TopErrors, cfg.Analysis.ExamplesPerError)
	fmt.Fprintf(out, "  Report:     %s/%s.md", cfg.Report.OutDir, cfg.Report.Name)
	if cfg.Report.HTML {
		fmt.Fprint(out, " (+ HTML)")
	}
	fmt.Fprintln(out)

	fmt.Fprintf(out, "\nLLM:\n")
	if !cfg.LLM.Enabled {
		fmt.Fprintf(out, "  disabled\n")
	} else {
		fmt.Fprintf(out, "  Model:   %s\n", cfg.LLM.Model)
		if cfg.LLM.APIKey != "" {
			fmt.Fprintf(out, "  API key: set\n")
		} else {
			fmt.Fprintf(out, "  API key: not set (summaries will be skipped)\n")
		}
	}

	if len(cfg.Webhooks) > 0 {
		fmt.Fprintf(out, "\nWebhooks:\n")
		for i, wh := range cfg.Webhooks {
			fmt.Fprintf(out, "  %d. %s [%s]\n", i+1, wh.DisplayName(), wh.Trigger)
		}
	}

	// Check if inputs exist (warnings only)
	if len(cfg.Inputs) == 0 {
		fmt.Fprintf(out, "\nWarning: No inputs configured; pass files on the command line\n")
		return nil
	}
	files, err := existingInputs(cfg.Inputs)
	if err != nil {
		fmt.Fprintf(out, "\nWarning: Error expanding input patterns: %v\n", err)
	} else if len(files) == 0 {
		fmt.Fprintf(out, "\nWarning: No supported files match input patterns\n")
	} else {
		fmt.Fprintf(out, "\nInput files matched: %d\n", len(files))
		for _, f := range files {
			fmt.Fprintf(out, "  - %s\n", f)
		}
	}

	return nil
}
