package agent

import (
	"go.uber.org/zap"

	"github.com/pdiddy/usecase-engine/internal/llm"
	"github.com/pdiddy/usecase-engine/internal/metrics"
	"github.com/pdiddy/usecase-engine/pkg/types"
)

// Options holds what every stage agent needs to build its executor.
type Options struct {
	Backend  llm.Backend
	Searcher Searcher

	// Fetcher enables the Read Webpage tool when non-nil.
	Fetcher Fetcher

	Agent types.AgentConfig

	// MaxRetries and MaxTokens are forwarded to each model call.
	MaxRetries int
	MaxTokens  int

	Counter llm.TokenCounter
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

// NewExecutor returns an executor with a search tool under the given name,
// plus the page reader when a Fetcher is configured.
func (o Options) NewExecutor(temperature float64, toolName, toolDescription string) *Executor {
	tools := []Tool{NewSearchTool(toolName, toolDescription, o.Searcher)}
	if o.Fetcher != nil {
		tools = append(tools, NewPageTool(o.Fetcher))
	}
	return &Executor{
		Backend:           o.Backend,
		Tools:             tools,
		Temperature:       temperature,
		MaxIterations:     o.Agent.MaxIterations,
		MaxRetries:        o.MaxRetries,
		MaxTokens:         o.MaxTokens,
		ObservationTokens: o.Agent.ObservationTokens,
		Counter:           o.counter(),
		Logger:            o.Logger,
		Metrics:           o.Metrics,
	}
}

// Handoff truncates a previous stage's output to the hand-off budget.
func (o Options) Handoff(text string) string {
	return llm.Truncate(text, o.Agent.HandoffTokens, o.counter())
}

func (o Options) counter() llm.TokenCounter {
	if o.Counter == nil {
		return llm.WordCounter{}
	}
	return o.Counter
}
