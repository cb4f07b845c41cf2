package config

import (
	"os"
	"time"

	"github.com/ccollicutt/testwise/pkg/analyzer"
	"github.com/ccollicutt/testwise/pkg/llm"
	"github.com/ccollicutt/testwise/pkg/parser"
)

// Default values for configuration.
const (
	DefaultWebhookTimeout = 10 * time.Second
	DefaultLLMTimeout     = 60 * time.Second
	DefaultOutDir         = "reports"
	DefaultReportName     = "testwise-report"
	DefaultLogLevel       = "warn"
	DefaultLogFormat      = "console"
)

// Environment variable names.
const (
	EnvNoLLM        = "TESTWISE_NO_LLM"
	EnvLogLevel     = "TESTWISE_LOG_LEVEL"
	EnvGeminiAPIKey = "GEMINI_API_KEY"
	EnvGoogleAPIKey = "GOOGLE_API_KEY"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Inputs:    []string{},
		CSVSchema: string(parser.SchemaFull),
		Analysis: AnalysisConfig{
			TopErrors:        analyzer.DefaultTopErrors,
			ExamplesPerError: analyzer.DefaultMaxExamples,
		},
		LLM: LLMConfig{
			Enabled:     true,
			Model:       llm.DefaultModel,
			ChunkSize:   llm.DefaultChunkSize,
			Temperature: llm.DefaultTemperature,
			MaxTokens:   llm.DefaultMaxTokens,
			Timeout:     DefaultLLMTimeout,
		},
		Report: ReportConfig{
			OutDir: DefaultOutDir,
			Name:   DefaultReportName,
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// applyEnvironmentOverrides applies environment variable overrides to the config.
func (c *Config) applyEnvironmentOverrides() {
	if os.Getenv(EnvNoLLM) == "1" {
		c.LLM.Enabled = false
	}

	if level := os.Getenv(EnvLogLevel); level != "" {
		c.Logging.Level = level
	}

	c.LLM.APIKey = expandEnvVar(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		c.LLM.APIKey = os.Getenv(EnvGeminiAPIKey)
	}
	if c.LLM.APIKey == "" {
		c.LLM.APIKey = os.Getenv(EnvGoogleAPIKey)
	}
}
