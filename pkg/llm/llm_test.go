package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccollicutt/testwise/pkg/analyzer"
)

// fakeClient records requests and returns canned responses.
type fakeClient struct {
	requests []Request
	reply    func(n int, req Request) (string, error)
}

func (f *fakeClient) Generate(_ context.Context, req Request) (string, error) {
	f.requests = append(f.requests, req)
	if f.reply == nil {
		return fmt.Sprintf("reply %d", len(f.requests)), nil
	}
	return f.reply(len(f.requests), req)
}

func ranking(n int) []analyzer.ErrorCount {
	out := make([]analyzer.ErrorCount, n)
	for i := range out {
		out[i] = analyzer.ErrorCount{Error: fmt.Sprintf("err-%03d", i), Count: n - i}
	}
	return out
}

func TestSummarizer_SingleRequest(t *testing.T) {
	client := &fakeClient{}
	s := NewSummarizer(client)

	got, err := s.Summarize(context.Background(), &analyzer.Summary{
		Total: 10, Passed: 7, Failed: 3,
		FailureRanking: []analyzer.ErrorCount{{Error: "Timeout", Count: 2}, {Error: "NACK", Count: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, "reply 1", got)
	require.Len(t, client.requests, 1)

	req := client.requests[0]
	assert.Equal(t, qaSystemPrompt, req.System)
	assert.Contains(t, req.Prompt, "- Total tests: 10")
	assert.Contains(t, req.Prompt, "- Passed: 7")
	assert.Contains(t, req.Prompt, "- Failed: 3")
	assert.Contains(t, req.Prompt, "- Timeout: 2 occurrences")
	assert.Contains(t, req.Prompt, "- NACK: 1 occurrences")
	assert.NotContains(t, req.Prompt, "Chunk")
	assert.InDelta(t, DefaultTemperature, req.Temperature, 1e-6)
	assert.Equal(t, DefaultMaxTokens, req.MaxTokens)
}

func TestSummarizer_NoFailures(t *testing.T) {
	client := &fakeClient{}
	s := NewSummarizer(client)

	got, err := s.Summarize(context.Background(), &analyzer.Summary{Total: 3, Passed: 3})
	require.NoError(t, err)
	assert.Equal(t, NoFailuresMessage, got)
	assert.Empty(t, client.requests)
}

func TestSummarizer_Disabled(t *testing.T) {
	client := &fakeClient{}
	s := NewSummarizer(client, WithEnabled(false))

	got, err := s.Summarize(context.Background(), &analyzer.Summary{FailureRanking: ranking(3)})
	require.NoError(t, err)
	assert.Equal(t, DisabledMessage, got)
	assert.Empty(t, client.requests)
	assert.False(t, s.Enabled())
}

func TestSummarizer_NilClientDisables(t *testing.T) {
	s := NewSummarizer(nil)
	got, err := s.Summarize(context.Background(), &analyzer.Summary{FailureRanking: ranking(1)})
	require.NoError(t, err)
	assert.Equal(t, DisabledMessage, got)
}

func TestSummarizer_Chunking(t *testing.T) {
	client := &fakeClient{}
	s := NewSummarizer(client, WithChunkSize(2))

	got, err := s.Summarize(context.Background(), &analyzer.Summary{Failed: 5, FailureRanking: ranking(5)})
	require.NoError(t, err)

	// three chunk requests plus one combine request
	require.Len(t, client.requests, 4)
	assert.Equal(t, "reply 4", got)
	assert.Contains(t, client.requests[0].Prompt, "(Chunk 1/3)")
	assert.Contains(t, client.requests[1].Prompt, "(Chunk 2/3)")
	assert.Contains(t, client.requests[2].Prompt, "(Chunk 3/3)")
	assert.Contains(t, client.requests[2].Prompt, "err-004")
	assert.NotContains(t, client.requests[2].Prompt, "err-000")

	combine := client.requests[3].Prompt
	assert.Contains(t, combine, "Combine the following chunked summaries")
	assert.Contains(t, combine, "reply 1\n\nreply 2\n\nreply 3")
}

func TestSummarizer_ExactlyChunkSizeIsOneRequest(t *testing.T) {
	client := &fakeClient{}
	s := NewSummarizer(client, WithChunkSize(3))

	_, err := s.Summarize(context.Background(), &analyzer.Summary{FailureRanking: ranking(3)})
	require.NoError(t, err)
	assert.Len(t, client.requests, 1)
}

func TestSummarizer_ClientError(t *testing.T) {
	boom := errors.New("quota exceeded")
	client := &fakeClient{reply: func(n int, _ Request) (string, error) {
		if n == 2 {
			return "", boom
		}
		return "ok", nil
	}}
	s := NewSummarizer(client, WithChunkSize(1))

	_, err := s.Summarize(context.Background(), &analyzer.Summary{FailureRanking: ranking(3)})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "chunk 2/3")
	assert.Len(t, client.requests, 2)
}

func TestSummarizer_Options(t *testing.T) {
	client := &fakeClient{}
	s := NewSummarizer(client, WithTemperature(0.7), WithMaxTokens(42), WithChunkSize(0), WithLogger(nil))

	_, err := s.Summarize(context.Background(), &analyzer.Summary{FailureRanking: ranking(1)})
	require.NoError(t, err)
	assert.InDelta(t, 0.7, client.requests[0].Temperature, 1e-6)
	assert.Equal(t, 42, client.requests[0].MaxTokens)
	assert.Equal(t, DefaultChunkSize, s.chunkSize)
}

func TestChunkRanking(t *testing.T) {
	tests := []struct {
		n, size int
		want    []int
	}{
		{n: 0, size: 50, want: nil},
		{n: 50, size: 50, want: []int{50}},
		{n: 51, size: 50, want: []int{50, 1}},
		{n: 5, size: 2, want: []int{2, 2, 1}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d_by_%d", tt.n, tt.size), func(t *testing.T) {
			var sizes []int
			for _, c := range chunkRanking(ranking(tt.n), tt.size) {
				sizes = append(sizes, len(c))
			}
			assert.Equal(t, tt.want, sizes)
		})
	}
}

func TestRootCausePrompt(t *testing.T) {
	prompt := RootCausePrompt([]analyzer.ErrorExamples{
		{Error: "TimeoutError", Count: 2, TestCases: []string{"tc2", "tc3"}},
		{Error: "NullPointerException", Count: 2, TestCases: []string{"tc1", "tc4"}},
	})

	assert.Contains(t, prompt, "Top Errors:")
	assert.Contains(t, prompt, "- TimeoutError (e.g. tc2, tc3)")
	assert.Contains(t, prompt, "- NullPointerException (e.g. tc1, tc4)")
	assert.Less(t, strings.Index(prompt, "TimeoutError"), strings.Index(prompt, "NullPointerException"))
}

func TestRootCausePrompt_Empty(t *testing.T) {
	prompt := RootCausePrompt(nil)
	assert.True(t, strings.HasSuffix(prompt, "Top Errors:\n"))
}

func TestAdvisor_Suggest(t *testing.T) {
	client := &fakeClient{}
	a := NewAdvisor(client, true)

	got, err := a.Suggest(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "reply 1", got)
	require.Len(t, client.requests, 1)
	assert.Equal(t, rootCauseSystemPrompt, client.requests[0].System)
	assert.Equal(t, rootCauseMaxTokens, client.requests[0].MaxTokens)
}

func TestAdvisor_Disabled(t *testing.T) {
	client := &fakeClient{}
	for _, a := range []*Advisor{NewAdvisor(client, false), NewAdvisor(nil, true)} {
		got, err := a.Suggest(context.Background(), "prompt")
		require.NoError(t, err)
		assert.Equal(t, DisabledMessage, got)
	}
	assert.Empty(t, client.requests)
}

func TestAdvisor_Error(t *testing.T) {
	boom := errors.New("unavailable")
	a := NewAdvisor(&fakeClient{reply: func(int, Request) (string, error) { return "", boom }}, true)

	_, err := a.Suggest(context.Background(), "prompt")
	assert.ErrorIs(t, err, boom)
}

func TestNewGenAIClient_RequiresKey(t *testing.T) {
	_, err := NewGenAIClient(context.Background(), "", "")
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestContentConfig(t *testing.T) {
	cfg := contentConfig(Request{System: "You triage test failures.", Temperature: 0.2, MaxTokens: 256})

	require.NotNil(t, cfg.SystemInstruction)
	assert.Empty(t, cfg.SystemInstruction.Role)
	require.Len(t, cfg.SystemInstruction.Parts, 1)
	assert.Equal(t, "You triage test failures.", cfg.SystemInstruction.Parts[0].Text)
	require.NotNil(t, cfg.Temperature)
	assert.InDelta(t, 0.2, *cfg.Temperature, 1e-6)
	assert.Equal(t, int32(256), cfg.MaxOutputTokens)

	bare := contentConfig(Request{})
	assert.Nil(t, bare.SystemInstruction)
	assert.Zero(t, bare.MaxOutputTokens)
}
