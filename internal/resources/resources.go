// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package resources implements the Resource Collection Agent: it finds
// datasets, models, tutorials and tools for the proposed use cases and
// checks that the links it returns resolve.
package resources

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"text/template"

	"go.uber.org/zap"

	"github.com/pdiddy/usecase-engine/internal/agent"
	"github.com/pdiddy/usecase-engine/internal/logger"
	"github.com/pdiddy/usecase-engine/pkg/types"
)

const (
	Temperature     = 0.2
	ToolName        = "Dataset and Resource Search"
	toolDescription = "Search for datasets, tutorials, and implementation resources for AI use cases"

	formatInstructions = "Organize resources by use case category with clear links and descriptions."
)

// ErrNoUseCases is returned when Collect is called without use cases.
var ErrNoUseCases = errors.New("use case result is required")

var promptTmpl = template.Must(template.New("resources").Parse(`You are a Resource Collection Agent specialized in finding relevant datasets and implementation resources for AI/ML/GenAI projects.

Task: Collect and organize datasets, code repositories, tutorials, and other resources for implementing the proposed AI use cases.

Use Cases: {{.UseCases}}

Additional Context: {{.Context}}

Detailed Instructions:
1. For each proposed use case, search for:
   - Relevant datasets from Kaggle, HuggingFace, GitHub, etc.
   - Pre-trained models or APIs that could be leveraged
   - Implementation tutorials or guides
   - Academic papers or case studies on similar applications
   - Open-source tools that could accelerate development

2. For each resource:
   - Provide the full, clickable URL
   - Include a brief description of the resource
   - Explain how it relates to the specific use case
   - Note any limitations or considerations

3. Additionally, suggest GenAI-specific solutions like:
   - Document search and retrieval systems
   - Automated report generation
   - AI-powered chat systems for internal or customer-facing use
   - Knowledge extraction from unstructured data

Ensure all links are valid and directly accessible.

{{.FormatInstructions}}

Please collect resources for implementing AI/ML/GenAI use cases for: {{.CompanyOrIndustry}}`))

// LinkChecking configures validation of the collected links.
type LinkChecking struct {
	Enabled     bool
	Client      *http.Client
	Concurrency int
}

// Agent collects implementation resources.
type Agent struct {
	opts   agent.Options
	exec   *agent.Executor
	links  LinkChecking
	logger *zap.Logger
}

// New builds the resource agent.
func New(opts agent.Options, links LinkChecking) *Agent {
	return &Agent{
		opts:   opts,
		exec:   opts.NewExecutor(Temperature, ToolName, toolDescription),
		links:  links,
		logger: logger.OrNop(opts.Logger).Named("resources"),
	}
}

// Collect gathers resources for the given use cases. Links found in the
// answer are recorded and, when link checking is enabled, validated.
func (a *Agent) Collect(ctx context.Context, uc *types.UseCaseResult, extraContext string) (*types.ResourceResult, error) {
	if uc == nil || uc.CompanyOrIndustry == "" {
		return nil, ErrNoUseCases
	}

	var buf bytes.Buffer
	err := promptTmpl.Execute(&buf, map[string]string{
		"UseCases":           a.opts.Handoff(uc.UseCases),
		"Context":            extraContext,
		"FormatInstructions": formatInstructions,
		"CompanyOrIndustry":  uc.CompanyOrIndustry,
	})
	if err != nil {
		return nil, fmt.Errorf("rendering prompt: %w", err)
	}

	a.logger.Info("collecting resources", zap.String("subject", uc.CompanyOrIndustry))
	res, err := a.exec.Run(ctx, buf.String())
	if err != nil {
		return nil, fmt.Errorf("resource agent: %w", err)
	}
	if res.Stopped {
		a.logger.Warn("resource agent stopped before a final answer", zap.Int("iterations", res.Iterations))
	}

	links := ExtractLinks(res.Output)
	if a.links.Enabled && len(links) > 0 {
		links = CheckLinks(ctx, a.links.Client, links, a.links.Concurrency)
		broken := 0
		for _, l := range links {
			if l.Status == types.LinkBroken {
				broken++
			}
		}
		a.logger.Info("checked resource links", zap.Int("links", len(links)), zap.Int("broken", broken))
	}

	return &types.ResourceResult{
		CompanyOrIndustry: uc.CompanyOrIndustry,
		UseCases:          uc.UseCases,
		Resources:         res.Output,
		Links:             links,
		Steps:             res.Steps,
	}, nil
}
