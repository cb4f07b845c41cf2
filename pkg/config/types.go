// Package config provides configuration loading and validation for testwise.
package config

import (
	"time"

	"github.com/ccollicutt/testwise/pkg/parser"
)

// Config is the root configuration structure loaded from YAML.
type Config struct {
	Inputs    []string        `yaml:"inputs,omitempty"`
	CSVSchema string          `yaml:"csv_schema,omitempty"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Filters   FilterConfig    `yaml:"filters,omitempty"`
	LLM       LLMConfig       `yaml:"llm"`
	Report    ReportConfig    `yaml:"report"`
	Webhooks  []WebhookConfig `yaml:"webhooks,omitempty"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// Schema returns the CSV schema variant.
func (c *Config) Schema() parser.SchemaVariant {
	return parser.SchemaVariant(c.CSVSchema)
}

// AnalysisConfig controls failure ranking output.
type AnalysisConfig struct {
	// TopErrors is how many failure causes get example test cases.
	TopErrors int `yaml:"top_errors"`

	// ExamplesPerError caps the example test cases per cause.
	ExamplesPerError int `yaml:"examples_per_error"`
}

// FilterConfig narrows the records that are analyzed. Empty lists mean all.
type FilterConfig struct {
	TestTypes  []string `yaml:"test_types,omitempty"`
	Modules    []string `yaml:"modules,omitempty"`
	FailedOnly bool     `yaml:"failed_only,omitempty"`
}

// LLMConfig configures summary and root-cause generation.
type LLMConfig struct {
	Enabled     bool          `yaml:"enabled"`
	Model       string        `yaml:"model,omitempty"`
	APIKey      string        `yaml:"api_key,omitempty"`
	ChunkSize   int           `yaml:"chunk_size,omitempty"`
	Temperature float32       `yaml:"temperature,omitempty"`
	MaxTokens   int           `yaml:"max_tokens,omitempty"`
	Timeout     time.Duration `yaml:"timeout,omitempty"`
}

// ReportConfig controls where reports are written.
type ReportConfig struct {
	// OutDir is the directory reports are saved to.
	OutDir string `yaml:"out_dir"`

	// Name is the report file name without extension.
	Name string `yaml:"name"`

	// HTML also writes an HTML rendition.
	HTML bool `yaml:"html"`

	// StripNonASCII removes emoji and other non-ASCII characters from
	// saved reports.
	StripNonASCII bool `yaml:"strip_non_ascii"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console, json
}

// WebhookTrigger determines when a webhook fires.
type WebhookTrigger string

const (
	// WebhookTriggerOnFailures fires only when a test failed (default).
	WebhookTriggerOnFailures WebhookTrigger = "on_failures"
	// WebhookTriggerAlways fires after every run.
	WebhookTriggerAlways WebhookTrigger = "always"
	// WebhookTriggerNever disables the webhook.
	WebhookTriggerNever WebhookTrigger = "never"
)

// WebhookConfig defines a webhook endpoint for sending reports.
type WebhookConfig struct {
	// Name is an optional identifier for the webhook.
	Name string `yaml:"name,omitempty"`

	// URL is the webhook endpoint (required).
	URL string `yaml:"url"`

	// Token is an optional bearer token for authentication.
	Token string `yaml:"token,omitempty"`

	// Trigger determines when the webhook fires.
	// Defaults to "on_failures" if not specified.
	Trigger WebhookTrigger `yaml:"trigger,omitempty"`

	// Timeout is the HTTP request timeout.
	// Defaults to 10s if not specified.
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// DisplayName returns the name, or the URL when unnamed.
func (w WebhookConfig) DisplayName() string {
	if w.Name != "" {
		return w.Name
	}
	return w.URL
}
