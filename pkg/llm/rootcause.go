package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/ccollicutt/testwise/pkg/analyzer"
)

const rootCauseSystemPrompt = "You are a senior embedded QA engineer who writes structured, technical failure analysis reports."

// Root-cause requests run cooler and longer than summaries.
const (
	rootCauseTemperature = 0.2
	rootCauseMaxTokens   = 500
)

// RootCausePrompt builds the analysis prompt for the given failure examples.
func RootCausePrompt(examples []analyzer.ErrorExamples) string {
	var b strings.Builder
	b.WriteString("Analyze the following recurring test failures and their associated test cases.\n\n")
	b.WriteString("For each error:\n")
	b.WriteString("- Identify the most likely root cause (specific to embedded software)\n")
	b.WriteString("- Suggest a concrete engineering fix or mitigation\n\n")
	b.WriteString("Use this format:\n")
	b.WriteString("- **Error:** ...\n")
	b.WriteString("  - **Likely Cause:** ...\n")
	b.WriteString("  - **Suggested Fix:** ...\n\n")
	b.WriteString("Top Errors:\n")
	for _, ex := range examples {
		fmt.Fprintf(&b, "- %s (e.g. %s)\n", ex.Error, strings.Join(ex.TestCases, ", "))
	}
	return b.String()
}

// Advisor requests root-cause suggestions.
type Advisor struct {
	client  Client
	enabled bool
}

// NewAdvisor creates an advisor. A nil client or enabled=false makes
// Suggest return DisabledMessage.
func NewAdvisor(client Client, enabled bool) *Advisor {
	return &Advisor{client: client, enabled: enabled && client != nil}
}

// Suggest sends prompt to the model and returns its suggestions.
func (a *Advisor) Suggest(ctx context.Context, prompt string) (string, error) {
	if !a.enabled {
		return DisabledMessage, nil
	}
	text, err := a.client.Generate(ctx, Request{
		System:      rootCauseSystemPrompt,
		Prompt:      prompt,
		Temperature: rootCauseTemperature,
		MaxTokens:   rootCauseMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("generating root cause suggestions: %w", err)
	}
	return text, nil
}
