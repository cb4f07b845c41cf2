package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/ccollicutt/testwise/pkg/parser"
)

// Load reads and validates a configuration file.
func Load(_ context.Context, path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided config path is expected
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyEnvironmentOverrides()

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault loads path when it is set, and otherwise returns the
// defaults with environment overrides applied.
func LoadOrDefault(ctx context.Context, path string) (*Config, error) {
	if path != "" {
		return Load(ctx, path)
	}
	cfg := DefaultConfig()
	cfg.applyEnvironmentOverrides()
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Validate checks a configuration for errors and fills unset defaults.
func Validate(cfg *Config) error {
	switch parser.SchemaVariant(cfg.CSVSchema) {
	case parser.SchemaFull, parser.SchemaMinimal:
	case "":
		cfg.CSVSchema = string(parser.SchemaFull)
	default:
		return fmt.Errorf("csv_schema: invalid value %q (must be full or minimal)", cfg.CSVSchema)
	}

	if err := validateAnalysis(&cfg.Analysis); err != nil {
		return fmt.Errorf("analysis: %w", err)
	}

	if err := validateLLM(&cfg.LLM); err != nil {
		return fmt.Errorf("llm: %w", err)
	}

	if err := validateReport(&cfg.Report); err != nil {
		return fmt.Errorf("report: %w", err)
	}

	if err := validateLogging(&cfg.Logging); err != nil {
		return fmt.Errorf("logging: %w", err)
	}

	// Webhooks are optional, but validate if present
	for i := range cfg.Webhooks {
		if err := validateWebhook(&cfg.Webhooks[i]); err != nil {
			return fmt.Errorf("webhooks[%d] (%s): %w", i, cfg.Webhooks[i].DisplayName(), err)
		}
	}

	return nil
}

func validateAnalysis(a *AnalysisConfig) error {
	if a.TopErrors < 0 {
		return errors.New("top_errors must be >= 0")
	}
	if a.ExamplesPerError < 0 {
		return errors.New("examples_per_error must be >= 0")
	}
	return nil
}

func validateLLM(l *LLMConfig) error {
	if l.ChunkSize < 0 {
		return errors.New("chunk_size must be >= 0")
	}
	if l.Temperature < 0 || l.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2, got %v", l.Temperature)
	}
	if l.MaxTokens < 0 {
		return errors.New("max_tokens must be >= 0")
	}
	if l.Timeout < 0 {
		return errors.New("timeout must be >= 0")
	}
	if l.Timeout == 0 {
		l.Timeout = DefaultLLMTimeout
	}
	return nil
}

func validateReport(r *ReportConfig) error {
	if r.OutDir == "" {
		r.OutDir = DefaultOutDir
	}
	if r.Name == "" {
		r.Name = DefaultReportName
	}
	if strings.ContainsAny(r.Name, `/\`) {
		return fmt.Errorf("name %q must not contain path separators", r.Name)
	}
	return nil
}

func validateLogging(l *LoggingConfig) error {
	if l.Level == "" {
		l.Level = DefaultLogLevel
	}
	if _, err := zapcore.ParseLevel(l.Level); err != nil {
		return fmt.Errorf("invalid level: %w", err)
	}

	switch l.Format {
	case "":
		l.Format = DefaultLogFormat
	case "console", "json":
	default:
		return fmt.Errorf("invalid format %q (must be console or json)", l.Format)
	}
	return nil
}

func validateWebhook(wh *WebhookConfig) error {
	if wh.URL == "" {
		return errors.New("url is required")
	}

	// Validate URL format
	u, err := url.Parse(wh.URL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", u.Scheme)
	}

	if u.Host == "" {
		return errors.New("url must have a host")
	}

	// Expand environment variables in token
	wh.Token = expandEnvVar(wh.Token)

	// Validate trigger if specified
	if wh.Trigger != "" {
		switch wh.Trigger {
		case WebhookTriggerOnFailures, WebhookTriggerAlways, WebhookTriggerNever:
			// Valid
		default:
			return fmt.Errorf("invalid trigger %q (must be on_failures, always, or never)", wh.Trigger)
		}
	} else {
		// Default to on_failures
		wh.Trigger = WebhookTriggerOnFailures
	}

	// Default timeout
	if wh.Timeout <= 0 {
		wh.Timeout = DefaultWebhookTimeout
	}

	return nil
}

// expandEnvVar expands environment variables in the format ${VAR} or $VAR.
func expandEnvVar(s string) string {
	if s == "" {
		return s
	}

	// Handle ${VAR} format
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		varName := s[2 : len(s)-1]
		return os.Getenv(varName)
	}

	// Handle $VAR format (no braces)
	if strings.HasPrefix(s, "$") && !strings.HasPrefix(s, "${") {
		varName := s[1:]
		return os.Getenv(varName)
	}

	return s
}
