// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package research implements the Industry Research Agent: it searches the
// web for a company or industry and writes a structured report.
package research

import (
	"bytes"
	"context"
	"fmt"
	"text/template"

	"go.uber.org/zap"

	"github.com/pdiddy/usecase-engine/internal/agent"
	"github.com/pdiddy/usecase-engine/internal/logger"
	"github.com/pdiddy/usecase-engine/pkg/types"
)

const (
	Temperature     = 0.2
	ToolName        = "Web Search"
	toolDescription = "Search the web for information about companies and industries"

	formatInstructions = "Provide a detailed analysis with sections on industry overview, business model, tech infrastructure, and strategic priorities."
)

var promptTmpl = template.Must(template.New("research").Parse(`You are an Industry Research Agent specialized in gathering comprehensive information about companies and industries.

Task: Research the specified company or industry thoroughly.

Context Given: {{.Context}}

Detailed Instructions:
1. Use the tools available to research the company/industry thoroughly
2. Focus on identifying:
   - Industry classification and segment details
   - Key products/services and business model
   - Strategic focus areas and priorities
   - Current technological infrastructure and digital maturity
   - Major challenges and pain points in operations
   - Competitive landscape and market position
   - Recent initiatives or transformations

For each finding, cite the source of information if possible.

Format the output as a structured report with clear sections and bullet points. Include a brief executive summary at the beginning.

{{.FormatInstructions}}

Please begin your research on: {{.Query}}`))

// Agent researches one subject per call.
type Agent struct {
	exec   *agent.Executor
	logger *zap.Logger
}

// New builds the research agent.
func New(opts agent.Options) *Agent {
	return &Agent{
		exec:   opts.NewExecutor(Temperature, ToolName, toolDescription),
		logger: logger.OrNop(opts.Logger).Named("research"),
	}
}

// Research produces the industry report for subject.
func (a *Agent) Research(ctx context.Context, subject types.Subject) (*types.ResearchResult, error) {
	subject, err := subject.Validate()
	if err != nil {
		return nil, err
	}

	prompt, err := renderPrompt(subject)
	if err != nil {
		return nil, fmt.Errorf("rendering prompt: %w", err)
	}

	a.logger.Info("researching", zap.String("subject", subject.CompanyOrIndustry))
	res, err := a.exec.Run(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("research agent: %w", err)
	}
	if res.Stopped {
		a.logger.Warn("research agent stopped before a final answer", zap.Int("iterations", res.Iterations))
	}

	return &types.ResearchResult{
		CompanyOrIndustry: subject.CompanyOrIndustry,
		Research:          res.Output,
		Steps:             res.Steps,
	}, nil
}

func renderPrompt(subject types.Subject) (string, error) {
	var buf bytes.Buffer
	err := promptTmpl.Execute(&buf, map[string]string{
		"Context":            subject.Context,
		"FormatInstructions": formatInstructions,
		"Query":              subject.CompanyOrIndustry,
	})
	return buf.String(), err
}
