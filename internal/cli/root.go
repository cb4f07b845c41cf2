// Package cli provides the command-line interface for Testwise.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ccollicutt/testwise/internal/cli/commands"
	"github.com/ccollicutt/testwise/internal/cli/plugins"
	"github.com/ccollicutt/testwise/internal/logging"
	"github.com/ccollicutt/testwise/pkg/config"
)

// Execute runs the root command and returns the exit code.
func Execute() int {
	return run(context.Background(), os.Args[1:], os.Stdout, os.Stderr)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	commands.ExitCode = 0
	rootCmd := NewRootCommand()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	// Check if the command might be a plugin
	globals, rest := splitGlobalArgs(args)
	if len(rest) > 0 && !isBuiltinCommand(rootCmd, rest[0]) {
		if pluginPath, err := plugins.FindPlugin(rest[0]); err == nil {
			return plugins.Run(ctx, plugins.Invocation{
				Path:       pluginPath,
				Args:       rest[1:],
				ConfigPath: globals["config"],
				LogLevel:   globals["log-level"],
				Stdout:     stdout,
				Stderr:     stderr,
			})
		}
	}

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if len(rest) > 0 && !strings.HasPrefix(rest[0], "-") && !isBuiltinCommand(rootCmd, rest[0]) {
			_, _ = fmt.Fprintln(stderr, plugins.FormatNotFoundError(rest[0]))
			return 2
		}
		// Print error to stderr (SilenceErrors prevents Cobra from doing this)
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2 // Configuration or runtime error
	}
	return commands.ExitCode
}

// splitGlobalArgs separates leading persistent flags from the command and
// its arguments. Only the flags the root command defines are recognized.
func splitGlobalArgs(args []string) (map[string]string, []string) {
	globals := make(map[string]string)
	names := map[string]string{
		"-c":           "config",
		"--config":     "config",
		"--log-level":  "log-level",
		"--log-format": "log-format",
	}

	i := 0
	for i < len(args) {
		arg := args[i]
		if !strings.HasPrefix(arg, "-") {
			break
		}
		if key, value, ok := strings.Cut(arg, "="); ok {
			if name, known := names[key]; known {
				globals[name] = value
				i++
				continue
			}
			break
		}
		name, known := names[arg]
		if !known || i+1 >= len(args) {
			break
		}
		globals[name] = args[i+1]
		i += 2
	}
	return globals, args[i:]
}

// isBuiltinCommand checks if a command name is a built-in cobra command.
func isBuiltinCommand(rootCmd *cobra.Command, name string) bool {
	for _, cmd := range rootCmd.Commands() {
		if cmd.Name() == name || cmd.HasAlias(name) {
			return true
		}
	}
	// Also check for special commands like help and completion
	return name == "help" || name == "completion"
}

// NewRootCommand creates the root cobra command.
func NewRootCommand() *cobra.Command {
	global := &commands.GlobalOptions{}

	rootCmd := &cobra.Command{
		Use:   "testwise",
		Short: "Summarize test-run logs and explain failures",
		Long: `Testwise turns test-run output into a failure report.

It reads CSV result tables and TXT/LOG console output, normalizes every
result into the same record shape, ranks failure causes by how many tests
they broke, and writes a Markdown report with an optional LLM summary and
root-cause suggestions.

Typical use:
  testwise parse run.log                # inspect normalized records
  testwise summarize results/           # totals and failure ranking
  testwise report --html results/*.csv  # full report with LLM analysis

PLUGINS:
  Unknown commands run a testwise-<command> binary when one is found next
  to testwise, in $TESTWISE_PLUGIN_PATH, in ~/.testwise/plugins/ or in PATH.
  Plugins receive --config and --log-level as TESTWISE_CONFIG and
  TESTWISE_LOG_LEVEL.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := buildLogger(cmd.Context(), global)
			if err != nil {
				return err
			}
			global.Logger = logger
			commands.Global = global
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if global.Logger != nil {
				_ = global.Logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&global.ConfigPath, "config", "c", os.Getenv(plugins.EnvConfig), "Path to a testwise config file")
	rootCmd.PersistentFlags().StringVar(&global.LogLevel, "log-level", "", "Log level (debug|info|warn|error), default from config or "+config.EnvLogLevel)
	rootCmd.PersistentFlags().StringVar(&global.LogFormat, "log-format", "", "Log format (console|json)")

	// Add subcommands
	rootCmd.AddCommand(commands.NewParseCommand())
	rootCmd.AddCommand(commands.NewSummarizeCommand())
	rootCmd.AddCommand(commands.NewReportCommand())
	rootCmd.AddCommand(commands.NewDetectCommand())
	rootCmd.AddCommand(commands.NewDiagnoseCommand())
	rootCmd.AddCommand(commands.NewValidateCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	return rootCmd
}

// buildLogger resolves the log settings: flags first, then the config file
// (which already folds in TESTWISE_LOG_LEVEL), then defaults.
func buildLogger(ctx context.Context, global *commands.GlobalOptions) (*zap.Logger, error) {
	level, format := global.LogLevel, global.LogFormat

	if level == "" || format == "" {
		if ctx == nil {
			ctx = context.Background()
		}
		// Commands report config problems themselves
		if cfg, err := config.LoadOrDefault(ctx, global.ConfigPath); err == nil {
			if level == "" {
				level = cfg.Logging.Level
			}
			if format == "" {
				format = cfg.Logging.Format
			}
		}
	}
	if level == "" {
		level = os.Getenv(config.EnvLogLevel)
	}
	if level == "" {
		level = config.DefaultLogLevel
	}
	if format == "" {
		format = config.DefaultLogFormat
	}

	return logging.New(level, format)
}
