// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package proposal writes the final AI/GenAI implementation proposal from
// the three agent outputs and saves it as Markdown and HTML.
package proposal

import (
	"bytes"
	"context"
	"errors"
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

const Temperature = 0.3

var (
	// ErrMissingInput is returned when a stage result is missing.
	ErrMissingInput = errors.New("research, use case and resource results are required")

	// ErrEmptyProposal is returned when the model returns no text.
	ErrEmptyProposal = errors.New("model returned an empty proposal")
)

var promptTmpl = template.Must(template.New("proposal").Parse(`Generate a comprehensive final proposal for AI/GenAI implementation opportunities for {{.Subject}}.

The proposal should include:

1. Executive Summary:
   - Brief overview of {{.Subject}}
   - Key opportunities identified for AI/GenAI implementation
   - Expected benefits and strategic alignment

2. Industry and Company Analysis:
{{.Research}}

3. Prioritized AI/GenAI Use Cases:
{{.UseCases}}

4. Implementation Resources:
{{.Resources}}

5. Implementation Roadmap:
   - Recommended sequence of use case implementation
   - Key dependencies and prerequisites
   - Estimated timeline and resource requirements

6. Expected Outcomes:
   - Business impact metrics
   - ROI considerations
   - Competitive advantages

Format this as a professional proposal with clear section headers, concise bullet points, and visual separation between sections. Ensure all resource links are properly formatted as clickable links.
{{- if .BrokenLinks}}

The following links could not be reached and must not be included:
{{range .BrokenLinks}}- {{.URL}}
{{end}}{{end}}
`))

// Generator turns stage results into a proposal with one model call.
type Generator struct {
	Backend    llm.Backend
	MaxRetries int
	MaxTokens  int
	Logger     *zap.Logger
	Metrics    *metrics.Metrics

	// Now returns the generation time. Nil uses time.Now.
	Now func() time.Time
}

// Generate writes the proposal. Links the resource stage found broken are
// listed in the prompt so the model leaves them out.
func (g *Generator) Generate(ctx context.Context, research *types.ResearchResult, uc *types.UseCaseResult, res *types.ResourceResult) (*types.Proposal, error) {
	if research == nil || uc == nil || res == nil {
		return nil, ErrMissingInput
	}
	prompt, err := renderPrompt(research, uc, res)
	if err != nil {
		return nil, fmt.Errorf("rendering prompt: %w", err)
	}

	logger.OrNop(g.Logger).Info("generating proposal", zap.String("subject", research.CompanyOrIndustry), zap.Int("prompt_bytes", len(prompt)))
	resp, err := llm.CompleteWithRetry(ctx, g.Backend, llm.Request{
		Prompt:      prompt,
		Temperature: Temperature,
		MaxTokens:   g.MaxTokens,
	}, g.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("proposal generation: %w", err)
	}
	g.Metrics.AddTokens(g.Backend.Name(), resp.InputTokens, resp.OutputTokens)

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return nil, ErrEmptyProposal
	}
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	return &types.Proposal{
		CompanyOrIndustry: research.CompanyOrIndustry,
		Markdown:          text,
		GeneratedAt:       now(),
	}, nil
}

func renderPrompt(research *types.ResearchResult, uc *types.UseCaseResult, res *types.ResourceResult) (string, error) {
	var buf bytes.Buffer
	err := promptTmpl.Execute(&buf, struct {
		Subject     string
		Research    string
		UseCases    string
		Resources   string
		BrokenLinks []types.Link
	}{
		Subject:     research.CompanyOrIndustry,
		Research:    research.Research,
		UseCases:    uc.UseCases,
		Resources:   res.Resources,
		BrokenLinks: res.BrokenLinks(),
	})
	return buf.String(), err
}
