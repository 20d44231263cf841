// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package usecases implements the Use Case Generation Agent: it turns an
// industry report into categorized AI/ML/GenAI use cases.
package usecases

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"text/template"

	"go.uber.org/zap"

	"github.com/pdiddy/usecase-engine/internal/agent"
	"github.com/pdiddy/usecase-engine/internal/logger"
	"github.com/pdiddy/usecase-engine/pkg/types"
)

const (
	Temperature     = 0.7
	ToolName        = "Industry AI Trends Search"
	toolDescription = "Search for AI and ML trends in specific industries"

	formatInstructions = "Present use cases in a structured format with clear categorization and prioritization. " +
		"Use a level-2 heading for each category and a level-3 heading for each use case, and state the rating on its own line as \"Complexity: Low|Medium|High\"."
)

// ErrNoResearch is returned when Generate is called without research.
var ErrNoResearch = errors.New("research result is required")

var promptTmpl = template.Must(template.New("usecases").Parse(`You are a Use Case Generation Agent specialized in identifying valuable AI and GenAI applications for businesses.

Task: Generate relevant, high-impact AI/ML/GenAI use cases for the company/industry based on the research provided.

Industry Research: {{.Research}}

Additional Context: {{.Context}}

Detailed Instructions:
1. Analyze the industry research to identify key pain points and opportunities
2. Research current AI/ML adoption trends in this specific industry
3. Generate concrete use cases in these categories:
   - Operations optimization and efficiency
   - Customer experience enhancement
   - Decision support and business intelligence
   - Predictive maintenance and analytics
   - Process automation and workflow optimization
   - Document intelligence and knowledge management
   - Other industry-specific applications

For each use case:
- Provide a clear title and concise description
- Explain the specific business problem it solves
- Outline expected benefits and potential ROI areas
- Rate implementation complexity (Low/Medium/High)
- Note any prerequisites or challenges
- Reference similar implementations in the industry where possible

Focus on practical, feasible solutions rather than speculative applications.

{{.FormatInstructions}}

Please generate AI/ML/GenAI use cases for: {{.CompanyOrIndustry}}`))

// Agent generates use cases from research.
type Agent struct {
	opts   agent.Options
	exec   *agent.Executor
	logger *zap.Logger
}

// New builds the use case agent.
func New(opts agent.Options) *Agent {
	return &Agent{
		opts:   opts,
		exec:   opts.NewExecutor(Temperature, ToolName, toolDescription),
		logger: logger.OrNop(opts.Logger).Named("usecases"),
	}
}

// Generate proposes use cases for the researched subject. The research text
// is cut to the hand-off budget before it enters the prompt.
func (a *Agent) Generate(ctx context.Context, research *types.ResearchResult, extraContext string) (*types.UseCaseResult, error) {
	if research == nil || research.CompanyOrIndustry == "" {
		return nil, ErrNoResearch
	}

	var buf bytes.Buffer
	err := promptTmpl.Execute(&buf, map[string]string{
		"Research":           a.opts.Handoff(research.Research),
		"Context":            extraContext,
		"FormatInstructions": formatInstructions,
		"CompanyOrIndustry":  research.CompanyOrIndustry,
	})
	if err != nil {
		return nil, fmt.Errorf("rendering prompt: %w", err)
	}

	a.logger.Info("generating use cases", zap.String("subject", research.CompanyOrIndustry))
	res, err := a.exec.Run(ctx, buf.String())
	if err != nil {
		return nil, fmt.Errorf("use case agent: %w", err)
	}
	if res.Stopped {
		a.logger.Warn("use case agent stopped before a final answer", zap.Int("iterations", res.Iterations))
	}

	parsed := Parse(res.Output)
	a.logger.Debug("parsed use cases", zap.Int("count", len(parsed)))
	return &types.UseCaseResult{
		CompanyOrIndustry: research.CompanyOrIndustry,
		UseCases:          res.Output,
		Parsed:            parsed,
		Steps:             res.Steps,
	}, nil
}
