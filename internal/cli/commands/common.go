package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"

	"github.com/ccollicutt/testwise/pkg/analyzer"
	"github.com/ccollicutt/testwise/pkg/config"
	"github.com/ccollicutt/testwise/pkg/llm"
	"github.com/ccollicutt/testwise/pkg/parser"
)

// ExitCode is set by commands to indicate the result
var ExitCode = 0

// GlobalOptions holds flags shared by every command.
type GlobalOptions struct {
	ConfigPath string
	LogLevel   string
	LogFormat  string

	// Logger is built by the root command before any subcommand runs.
	Logger *zap.Logger
}

// Global is populated by the root command.
var Global = &GlobalOptions{}

func logger() *zap.Logger {
	if Global.Logger == nil {
		return zap.NewNop()
	}
	return Global.Logger
}

func loadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(ctx, Global.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// FilterOptions holds the record selection flags shared by several commands.
type FilterOptions struct {
	TestTypes  []string
	Modules    []string
	FailedOnly bool
}

// merge fills unset flags from the config file.
func (f FilterOptions) merge(cfg *config.Config) FilterOptions {
	if len(f.TestTypes) == 0 {
		f.TestTypes = cfg.Filters.TestTypes
	}
	if len(f.Modules) == 0 {
		f.Modules = cfg.Filters.Modules
	}
	f.FailedOnly = f.FailedOnly || cfg.Filters.FailedOnly
	return f
}

func (f FilterOptions) options() []analyzer.FilterOption {
	return []analyzer.FilterOption{
		analyzer.WithTestTypes(f.TestTypes),
		analyzer.WithModules(f.Modules),
		analyzer.WithFailedOnly(f.FailedOnly),
	}
}

// loadedRun is the parsed and filtered input of one command invocation.
type loadedRun struct {
	Files    []string
	Table    *parser.Table
	Duration time.Duration
}

// loadTable expands inputs (falling back to the config's inputs), parses
// every file and applies the filters.
func loadTable(cfg *config.Config, inputs []string, filters FilterOptions) (*loadedRun, error) {
	start := time.Now()

	if len(inputs) == 0 {
		inputs = cfg.Inputs
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("no inputs given (pass files or set inputs in the config)")
	}

	files, err := parser.ExpandInputs(inputs)
	if err != nil {
		return nil, fmt.Errorf("expanding inputs: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no input files matched patterns: %v", inputs)
	}

	log := logger()
	table, err := parser.ParseFiles(files,
		parser.WithSchema(cfg.Schema()),
		parser.WithLogger(log),
	)
	if err != nil {
		return nil, err
	}

	filtered := analyzer.Filter(table, filters.merge(cfg).options()...)
	log.Debug("loaded records",
		zap.Int("files", len(files)),
		zap.Int("parsed", table.Len()),
		zap.Int("selected", filtered.Len()))

	return &loadedRun{
		Files:    files,
		Table:    filtered,
		Duration: time.Since(start),
	}, nil
}

// newLLMClient builds the generation backend. It is a variable so tests can
// substitute a fake.
var newLLMClient = func(ctx context.Context, cfg config.LLMConfig) (llm.Client, error) {
	return llm.NewGenAIClient(ctx, cfg.APIKey, cfg.Model)
}

// buildLLMClient returns nil when generation is disabled or unavailable.
// A missing backend is not an error: reports are still produced.
func buildLLMClient(ctx context.Context, cfg config.LLMConfig) llm.Client {
	if !cfg.Enabled {
		return nil
	}
	client, err := newLLMClient(ctx, cfg)
	if err != nil {
		logger().Warn("LLM unavailable, continuing without summaries", zap.Error(err))
		return nil
	}
	return client
}

func newSummarizer(client llm.Client, cfg config.LLMConfig) *llm.Summarizer {
	return llm.NewSummarizer(client,
		llm.WithChunkSize(cfg.ChunkSize),
		llm.WithTemperature(cfg.Temperature),
		llm.WithMaxTokens(cfg.MaxTokens),
		llm.WithLogger(logger()),
	)
}

// isTerminal reports whether w is an interactive terminal.
var isTerminal = func(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func setExitCode(hasFailures bool) {
	if hasFailures {
		ExitCode = 1
	}
}

// existingInputs expands patterns and keeps only readable files of a
// supported type. Unlike parser.ExpandInputs it drops unmatched patterns.
func existingInputs(patterns []string) ([]string, error) {
	files, err := parser.ExpandInputs(patterns)
	if err != nil {
		return nil, err
	}
	kept := files[:0]
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil || info.IsDir() {
			continue
		}
		if _, err := parser.FormatFor(f); err != nil {
			continue
		}
		kept = append(kept, f)
	}
	return kept, nil
}
