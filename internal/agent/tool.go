package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/usecase-engine/internal/scrape"
	"github.com/pdiddy/usecase-engine/internal/websearch"
)

// Tool is an action the model can take between reasoning steps.
type Tool interface {
	Name() string
	Description() string
	Run(ctx context.Context, input string) (string, error)
}

// Searcher is the part of websearch.Searcher a SearchTool needs.
type Searcher interface {
	Search(ctx context.Context, query string) (websearch.Output, error)
}

// SearchTool exposes a web searcher under an agent-specific name.
type SearchTool struct {
	name        string
	description string
	searcher    Searcher
}

// NewSearchTool returns a search tool with the given name and description.
func NewSearchTool(name, description string, s Searcher) *SearchTool {
	return &SearchTool{name: name, description: description, searcher: s}
}

func (t *SearchTool) Name() string        { return t.name }
func (t *SearchTool) Description() string { return t.description }

// Run searches for input and formats the results as an observation.
func (t *SearchTool) Run(ctx context.Context, input string) (string, error) {
	out, err := t.searcher.Search(ctx, cleanInput(input))
	if err != nil {
		return "", err
	}
	return websearch.FormatObservation(out.Results), nil
}

// Fetcher is the part of scrape.Scraper a PageTool needs.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (scrape.Page, error)
}

// PageToolName is the name agents use to read a page.
const PageToolName = "Read Webpage"

// PageTool reads the main content of a web page.
type PageTool struct {
	fetcher Fetcher
}

// NewPageTool returns a page reading tool backed by f.
func NewPageTool(f Fetcher) *PageTool {
	return &PageTool{fetcher: f}
}

func (t *PageTool) Name() string { return PageToolName }

func (t *PageTool) Description() string {
	return "Read the main text of a web page. Input must be a full http or https URL"
}

// Run fetches the URL given as input.
func (t *PageTool) Run(ctx context.Context, input string) (string, error) {
	page, err := t.fetcher.Fetch(ctx, cleanInput(input))
	if err != nil {
		return "", fmt.Errorf("reading page: %w", err)
	}
	return page.Render(), nil
}

// cleanInput strips whitespace and the quotes models often wrap inputs in.
func cleanInput(s string) string {
	return strings.Trim(strings.TrimSpace(s), `"'`+"`")
}
