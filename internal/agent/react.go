// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package agent runs the reason/act loop shared by the research, use case
// and resource agents. The model alternates Thought/Action/Observation
// turns until it produces a Final Answer or runs out of iterations.
package agent

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/usecase-engine/internal/llm"
	"github.com/pdiddy/usecase-engine/internal/logger"
	"github.com/pdiddy/usecase-engine/internal/metrics"
	"github.com/pdiddy/usecase-engine/pkg/types"
)

const (
	DefaultMaxIterations     = 15
	DefaultObservationTokens = 1500

	// StoppedOutput is the result text when the iteration limit is reached.
	StoppedOutput = "Agent stopped due to iteration limit or time limit."
)

var stopSequences = []string{"\nObservation:"}

var protocolTmpl = template.Must(template.New("react").Parse(`{{.Task}}

You have access to the following tools:

{{range .Tools}}{{.Name}}: {{.Description}}
{{end}}
Use the following format:

Question: the input question you must answer
Thought: you should always think about what to do
Action: the action to take, should be one of [{{.ToolNames}}]
Action Input: the input to the action
Observation: the result of the action
... (this Thought/Action/Action Input/Observation can repeat N times)
Thought: I now know the final answer
Final Answer: the final answer to the original input question

Begin!

Thought:`))

// Result is the outcome of one agent run.
type Result struct {
	Output     string
	Steps      []types.AgentStep
	Stopped    bool
	Iterations int
}

// Executor drives a model through the ReAct protocol with a set of tools.
type Executor struct {
	Backend     llm.Backend
	Tools       []Tool
	Temperature float64

	// MaxIterations bounds model calls (default 15).
	MaxIterations int

	// MaxRetries is passed to llm.CompleteWithRetry.
	MaxRetries int

	// MaxTokens bounds each completion. Zero uses the backend default.
	MaxTokens int

	// ObservationTokens bounds each tool observation (default 1500).
	ObservationTokens int

	Counter llm.TokenCounter
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

// Run executes task. Tool failures and malformed model output become
// observations; only model errors abort the run.
func (e *Executor) Run(ctx context.Context, task string) (Result, error) {
	log := logger.OrNop(e.Logger)
	prompt, err := e.renderProtocol(task)
	if err != nil {
		return Result{}, fmt.Errorf("rendering prompt: %w", err)
	}

	maxIter := e.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}

	var scratchpad strings.Builder
	var steps []types.AgentStep
	for i := 1; i <= maxIter; i++ {
		resp, err := llm.CompleteWithRetry(ctx, e.Backend, llm.Request{
			Prompt:      prompt + scratchpad.String(),
			Temperature: e.Temperature,
			MaxTokens:   e.MaxTokens,
			Stop:        stopSequences,
		}, e.MaxRetries)
		if err != nil {
			return Result{Steps: steps, Iterations: i}, fmt.Errorf("iteration %d: %w", i, err)
		}
		e.Metrics.AddTokens(e.Backend.Name(), resp.InputTokens, resp.OutputTokens)

		text := strings.TrimRight(resp.Text, " \n")
		if j := strings.Index(text, "\nObservation:"); j >= 0 {
			text = text[:j]
		}
		parsed, perr := parseOutput(text)
		if perr == nil && parsed.HasFinal {
			log.Debug("agent finished", zap.Int("iterations", i), zap.Int("steps", len(steps)))
			return Result{Output: parsed.Final, Steps: steps, Iterations: i}, nil
		}

		var observation string
		if perr != nil {
			log.Debug("unparsable model output", zap.Int("iteration", i), zap.Error(perr))
			observation = perr.Error()
		} else {
			observation = e.runTool(ctx, parsed.Tool, parsed.Input)
			steps = append(steps, types.AgentStep{
				Thought:     parsed.Thought,
				Tool:        parsed.Tool,
				Input:       parsed.Input,
				Observation: observation,
			})
		}

		scratchpad.WriteString(text)
		scratchpad.WriteString("\nObservation: ")
		scratchpad.WriteString(observation)
		scratchpad.WriteString("\nThought:")
	}

	log.Warn("agent hit iteration limit", zap.Int("max_iterations", maxIter))
	return Result{Output: StoppedOutput, Steps: steps, Stopped: true, Iterations: maxIter}, nil
}

// runTool invokes the named tool and returns the (truncated) observation.
func (e *Executor) runTool(ctx context.Context, name, input string) string {
	log := logger.OrNop(e.Logger)
	tool := e.tool(name)
	if tool == nil {
		return fmt.Sprintf("%s is not a valid tool, try one of [%s].", name, e.toolNames())
	}

	start := time.Now()
	out, err := tool.Run(ctx, input)
	e.Metrics.ObserveTool(tool.Name(), err)
	if err != nil {
		log.Warn("tool failed", zap.String("tool", name), zap.String("input", input), zap.Error(err))
		return "Error: " + err.Error()
	}
	log.Debug("tool ran", zap.String("tool", name), zap.String("input", input), zap.Duration("elapsed", time.Since(start)))

	limit := e.ObservationTokens
	if limit <= 0 {
		limit = DefaultObservationTokens
	}
	counter := e.Counter
	if counter == nil {
		counter = llm.WordCounter{}
	}
	return llm.Truncate(out, limit, counter)
}

func (e *Executor) tool(name string) Tool {
	for _, t := range e.Tools {
		if strings.EqualFold(t.Name(), strings.TrimSpace(name)) {
			return t
		}
	}
	return nil
}

func (e *Executor) toolNames() string {
	names := make([]string, len(e.Tools))
	for i, t := range e.Tools {
		names[i] = t.Name()
	}
	return strings.Join(names, ", ")
}

func (e *Executor) renderProtocol(task string) (string, error) {
	var buf bytes.Buffer
	err := protocolTmpl.Execute(&buf, struct {
		Task      string
		Tools     []Tool
		ToolNames string
	}{strings.TrimSpace(task), e.Tools, e.toolNames()})
	return buf.String(), err
}
