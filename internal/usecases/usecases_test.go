package usecases

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/usecase-engine/internal/agent"
	"github.com/pdiddy/usecase-engine/internal/llm"
	"github.com/pdiddy/usecase-engine/internal/websearch"
	"github.com/pdiddy/usecase-engine/pkg/types"
)

type scriptedBackend struct {
	replies  []string
	requests []llm.Request
}

func (s *scriptedBackend) Name() string { return "scripted" }

func (s *scriptedBackend) Complete(_ context.Context, req llm.Request) (llm.Response, error) {
	s.requests = append(s.requests, req)
	r := s.replies[0]
	s.replies = s.replies[1:]
	return llm.Response{Text: r}, nil
}

type emptySearcher struct{}

func (emptySearcher) Search(context.Context, string) (websearch.Output, error) {
	return websearch.Output{}, nil
}

func TestGenerate(t *testing.T) {
	answer := "## Operations\n\n### Demand Forecasting\nPredict demand.\n\nComplexity: Low\n"
	b := &scriptedBackend{replies: []string{
		"Action: Industry AI Trends Search\nAction Input: AI in retail 2024",
		"Final Answer: " + answer,
	}}
	a := New(agent.Options{Backend: b, Searcher: emptySearcher{}})

	res, err := a.Generate(context.Background(), &types.ResearchResult{
		CompanyOrIndustry: "Retail",
		Research:          "Retail is a large industry.",
	}, "budget is small")
	require.NoError(t, err)

	assert.Equal(t, "Retail", res.CompanyOrIndustry)
	assert.Equal(t, strings.TrimSpace(answer), res.UseCases)
	require.Len(t, res.Parsed, 1)
	assert.Equal(t, types.ComplexityLow, res.Parsed[0].Complexity)
	require.Len(t, res.Steps, 1)
	assert.Equal(t, "No good search result found", res.Steps[0].Observation)

	prompt := b.requests[0].Prompt
	assert.Equal(t, Temperature, b.requests[0].Temperature)
	assert.Contains(t, prompt, "Industry Research: Retail is a large industry.")
	assert.Contains(t, prompt, "Additional Context: budget is small")
	assert.Contains(t, prompt, "Please generate AI/ML/GenAI use cases for: Retail")
	assert.Contains(t, prompt, "Industry AI Trends Search: "+toolDescription)
}

func TestGenerateTruncatesResearch(t *testing.T) {
	b := &scriptedBackend{replies: []string{"Final Answer: none"}}
	a := New(agent.Options{
		Backend:  b,
		Searcher: emptySearcher{},
		Agent:    types.AgentConfig{HandoffTokens: 5},
		Counter:  llm.WordCounter{},
	})
	research := strings.Repeat("finding\n", 50)
	_, err := a.Generate(context.Background(), &types.ResearchResult{CompanyOrIndustry: "Retail", Research: research}, "")
	require.NoError(t, err)
	assert.Contains(t, b.requests[0].Prompt, "finding\nfinding\nfinding\nfinding\nfinding\n\n[truncated]")
	assert.Less(t, strings.Count(b.requests[0].Prompt, "finding"), 10)
}

func TestGenerateRequiresResearch(t *testing.T) {
	a := New(agent.Options{Backend: &scriptedBackend{}, Searcher: emptySearcher{}})
	_, err := a.Generate(context.Background(), nil, "")
	assert.ErrorIs(t, err, ErrNoResearch)
	_, err = a.Generate(context.Background(), &types.ResearchResult{}, "")
	assert.ErrorIs(t, err, ErrNoResearch)
}
