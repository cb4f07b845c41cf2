// Package llm produces natural-language test summaries and root-cause
// suggestions from aggregated failure data.
package llm

import (
	"context"
	"errors"
)

// Defaults for generation requests.
const (
	DefaultModel       = "gemini-2.5-flash"
	DefaultChunkSize   = 50
	DefaultTemperature = 0.3
	DefaultMaxTokens   = 300
)

// DisabledMessage is returned in place of a summary when generation is off.
const DisabledMessage = "[LLM disabled: no summary generated in test mode.]"

// ErrNoAPIKey is returned when a client is built without credentials.
var ErrNoAPIKey = errors.New("llm: API key is required")

// ErrEmptyResponse is returned when the model produced no text.
var ErrEmptyResponse = errors.New("llm: empty response")

// Request is a single text-generation call.
type Request struct {
	// System is the system instruction.
	System string

	// Prompt is the user message.
	Prompt string

	// Temperature is the sampling temperature.
	Temperature float32

	// MaxTokens caps the response length. Zero leaves it to the backend.
	MaxTokens int
}

// Client generates text for a Request.
type Client interface {
	Generate(ctx context.Context, req Request) (string, error)
}
