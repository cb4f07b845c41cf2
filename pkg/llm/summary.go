package llm

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ccollicutt/testwise/pkg/analyzer"
)

const qaSystemPrompt = "You are an expert QA assistant for embedded systems."

// NoFailuresMessage is the summary for a run without failures.
const NoFailuresMessage = "No failures to summarize."

// Summarizer turns a Summary into a technical narrative.
type Summarizer struct {
	client      Client
	enabled     bool
	chunkSize   int
	temperature float32
	maxTokens   int
	logger      *zap.Logger
}

// SummarizerOption configures a Summarizer.
type SummarizerOption func(*Summarizer)

// WithChunkSize sets how many ranking entries go into one request.
func WithChunkSize(n int) SummarizerOption {
	return func(s *Summarizer) {
		if n > 0 {
			s.chunkSize = n
		}
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float32) SummarizerOption {
	return func(s *Summarizer) {
		s.temperature = t
	}
}

// WithMaxTokens caps each response.
func WithMaxTokens(n int) SummarizerOption {
	return func(s *Summarizer) {
		s.maxTokens = n
	}
}

// WithEnabled turns generation on or off. A disabled summarizer never calls
// its client.
func WithEnabled(enabled bool) SummarizerOption {
	return func(s *Summarizer) {
		s.enabled = enabled
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) SummarizerOption {
	return func(s *Summarizer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSummarizer creates a summarizer. A nil client disables generation.
func NewSummarizer(client Client, opts ...SummarizerOption) *Summarizer {
	s := &Summarizer{
		client:      client,
		enabled:     true,
		chunkSize:   DefaultChunkSize,
		temperature: DefaultTemperature,
		maxTokens:   DefaultMaxTokens,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.client == nil {
		s.enabled = false
	}
	return s
}

// Enabled reports whether the summarizer will call its client.
func (s *Summarizer) Enabled() bool {
	return s.enabled
}

// Summarize returns a summary of the run. Rankings longer than the chunk
// size are summarized chunk by chunk and then combined with one more request.
func (s *Summarizer) Summarize(ctx context.Context, summary *analyzer.Summary) (string, error) {
	if !s.enabled {
		return DisabledMessage, nil
	}
	if summary == nil || len(summary.FailureRanking) == 0 {
		return NoFailuresMessage, nil
	}

	chunks := chunkRanking(summary.FailureRanking, s.chunkSize)
	if len(chunks) == 1 {
		return s.generate(ctx, summaryPrompt(summary, chunks[0], ""))
	}

	s.logger.Debug("summarizing in chunks",
		zap.Int("errors", len(summary.FailureRanking)),
		zap.Int("chunks", len(chunks)))

	parts := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		label := fmt.Sprintf(" (Chunk %d/%d)", i+1, len(chunks))
		part, err := s.generate(ctx, summaryPrompt(summary, chunk, label))
		if err != nil {
			return "", fmt.Errorf("chunk %d/%d: %w", i+1, len(chunks), err)
		}
		parts = append(parts, part)
	}

	return s.generate(ctx, combinePrompt(parts))
}

func (s *Summarizer) generate(ctx context.Context, prompt string) (string, error) {
	text, err := s.client.Generate(ctx, Request{
		System:      qaSystemPrompt,
		Prompt:      prompt,
		Temperature: s.temperature,
		MaxTokens:   s.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("generating summary: %w", err)
	}
	return text, nil
}

func chunkRanking(ranking []analyzer.ErrorCount, size int) [][]analyzer.ErrorCount {
	if size <= 0 {
		size = DefaultChunkSize
	}
	var chunks [][]analyzer.ErrorCount
	for start := 0; start < len(ranking); start += size {
		end := min(start+size, len(ranking))
		chunks = append(chunks, ranking[start:end])
	}
	return chunks
}

func summaryPrompt(summary *analyzer.Summary, chunk []analyzer.ErrorCount, label string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a senior QA engineer summarizing automated test results for embedded systems%s.\n\n", label)
	b.WriteString("Constraints:\n")
	b.WriteString("- Be concise and direct (max 500 tokens)\n")
	b.WriteString("- Use engineering tone (clear, factual)\n")
	b.WriteString("- Use bullets where helpful\n")
	b.WriteString("- Avoid generic language or repetition\n")
	b.WriteString("- Highlight what matters most to debugging/fix\n\n")

	b.WriteString("Test Metrics:\n")
	fmt.Fprintf(&b, "- Total tests: %d\n", summary.Total)
	fmt.Fprintf(&b, "- Passed: %d\n", summary.Passed)
	fmt.Fprintf(&b, "- Failed: %d\n\n", summary.Failed)

	b.WriteString("Failure Breakdown:\n")
	for _, ec := range chunk {
		fmt.Fprintf(&b, "- %s: %d occurrences\n", ec.Error, ec.Count)
	}

	b.WriteString("\nDeliver:\n")
	b.WriteString("1. **Test Health Summary** (1-2 sentences)\n")
	b.WriteString("2. **Key Failure Patterns** (concise bullet points, sorted by frequency)\n")
	b.WriteString("3. **Suggested Actions** (short, high-impact engineering tasks)\n")
	return b.String()
}

func combinePrompt(parts []string) string {
	return "Combine the following chunked summaries into a single, concise technical summary " +
		"and action items for the test results. Avoid repetition.\n\n" +
		strings.Join(parts, "\n\n")
}
