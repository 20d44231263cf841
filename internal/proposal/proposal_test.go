package proposal

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/usecase-engine/internal/llm"
	"github.com/pdiddy/usecase-engine/pkg/types"
)

type recordingBackend struct {
	reply string
	err   error
	req   llm.Request
}

func (r *recordingBackend) Name() string { return "recording" }

func (r *recordingBackend) Complete(_ context.Context, req llm.Request) (llm.Response, error) {
	r.req = req
	return llm.Response{Text: r.reply}, r.err
}

func stageResults() (*types.ResearchResult, *types.UseCaseResult, *types.ResourceResult) {
	return &types.ResearchResult{CompanyOrIndustry: "Tesla", Research: "RESEARCH-TEXT"},
		&types.UseCaseResult{CompanyOrIndustry: "Tesla", UseCases: "USECASE-TEXT"},
		&types.ResourceResult{CompanyOrIndustry: "Tesla", Resources: "RESOURCE-TEXT", Links: []types.Link{
			{URL: "https://ok.example.com", Status: types.LinkOK},
			{URL: "https://dead.example.com", Status: types.LinkBroken},
		}}
}

func TestGenerate(t *testing.T) {
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	b := &recordingBackend{reply: "\n# Proposal\n\nBody\n"}
	g := &Generator{Backend: b, Now: func() time.Time { return fixed }}

	r, u, res := stageResults()
	p, err := g.Generate(context.Background(), r, u, res)
	require.NoError(t, err)
	assert.Equal(t, "Tesla", p.CompanyOrIndustry)
	assert.Equal(t, "# Proposal\n\nBody", p.Markdown)
	assert.Equal(t, fixed, p.GeneratedAt)

	prompt := b.req.Prompt
	assert.Equal(t, Temperature, b.req.Temperature)
	assert.True(t, strings.HasPrefix(prompt, "Generate a comprehensive final proposal for AI/GenAI implementation opportunities for Tesla."))
	for _, want := range []string{
		"1. Executive Summary:", "2. Industry and Company Analysis:\nRESEARCH-TEXT",
		"3. Prioritized AI/GenAI Use Cases:\nUSECASE-TEXT", "4. Implementation Resources:\nRESOURCE-TEXT",
		"5. Implementation Roadmap:", "6. Expected Outcomes:",
		"- https://dead.example.com",
	} {
		assert.Contains(t, prompt, want)
	}
	assert.NotContains(t, prompt, "https://ok.example.com")
}

func TestGenerateNoBrokenLinks(t *testing.T) {
	b := &recordingBackend{reply: "ok"}
	g := &Generator{Backend: b}
	r, u, res := stageResults()
	res.Links = nil
	_, err := g.Generate(context.Background(), r, u, res)
	require.NoError(t, err)
	assert.NotContains(t, b.req.Prompt, "could not be reached")
}

func TestGenerateErrors(t *testing.T) {
	g := &Generator{Backend: &recordingBackend{reply: "  "}}
	r, u, res := stageResults()
	_, err := g.Generate(context.Background(), r, u, res)
	assert.ErrorIs(t, err, ErrEmptyProposal)

	_, err = g.Generate(context.Background(), r, u, nil)
	assert.ErrorIs(t, err, ErrMissingInput)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	g = &Generator{Backend: &recordingBackend{err: errors.New("quota")}}
	_, err = g.Generate(ctx, r, u, res)
	assert.ErrorContains(t, err, "proposal generation")
}

func TestSlug(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Tesla", "tesla"},
		{"Financial Services", "financial_services"},
		{"  AT&T Inc. ", "att_inc"},
		{"../../etc/passwd", "etcpasswd"},
		{"Société Générale", "société_générale"},
		{"***", "proposal"},
		{"", "proposal"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Slug(tt.in))
		})
	}
}

func TestWrite(t *testing.T) {
	dir := t.TempDir() + "/out"
	now := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)
	p := &types.Proposal{
		CompanyOrIndustry: "Retail <Stores>",
		Markdown:          "## Executive Summary\n\nSee [Kaggle](https://kaggle.com).\n",
	}

	files, err := (&Writer{Dir: dir}).Write(p, now)
	require.NoError(t, err)
	assert.Equal(t, dir+"/retail_stores_20240309_140507_proposal.md", files.Markdown)
	assert.Equal(t, dir+"/retail_stores_20240309_140507_proposal.html", files.HTML)

	mdData, err := os.ReadFile(files.Markdown)
	require.NoError(t, err)
	assert.Equal(t, p.Markdown, string(mdData))

	htmlData, err := os.ReadFile(files.HTML)
	require.NoError(t, err)
	page := string(htmlData)
	assert.Contains(t, page, "<title>AI Use Case Proposal for Retail &lt;Stores&gt;</title>")
	assert.Contains(t, page, "<h1>AI/GenAI Implementation Proposal for Retail &lt;Stores&gt;</h1>")
	assert.Contains(t, page, "<h2>Executive Summary</h2>")
	assert.Contains(t, page, `<a href="https://kaggle.com">Kaggle</a>`)
	assert.Contains(t, page, "<p>Generated on 2024-03-09 14:05:07</p>")
	assert.Contains(t, page, "max-width: 900px")
}

func TestFileBase(t *testing.T) {
	now := time.Date(2025, 12, 31, 23, 59, 58, 0, time.UTC)
	assert.Equal(t, "healthcare_20251231_235958_proposal", FileBase("Healthcare", now))
}
