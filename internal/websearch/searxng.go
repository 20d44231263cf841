package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/usecase-engine/internal/httputil"
	"github.com/pdiddy/usecase-engine/pkg/types"
)

// SearxngBackend queries a SearxNG instance's JSON API.
type SearxngBackend struct {
	Client    *http.Client
	BaseURL   string
	UserAgent string
}

// Name returns the backend identifier.
func (b *SearxngBackend) Name() string { return "searxng" }

// Search queries /search?format=json on the configured instance.
func (b *SearxngBackend) Search(ctx context.Context, query string, max int) ([]types.WebResult, error) {
	params := url.Values{
		"q":          {query},
		"format":     {"json"},
		"safesearch": {"0"},
		"categories": {"general"},
	}
	reqURL := strings.TrimRight(b.BaseURL, "/") + "/search?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if b.UserAgent != "" {
		req.Header.Set("User-Agent", b.UserAgent)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := httputil.DoWithRetry(ctx, b.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("SearxNG request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("SearxNG returned HTTP %d", resp.StatusCode)
	}

	var sr searxngResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("parsing SearxNG response: %w", err)
	}

	items := sr.Results
	if max > 0 && len(items) > max {
		items = items[:max]
	}
	results := make([]types.WebResult, 0, len(items))
	for i, item := range items {
		if item.URL == "" {
			continue
		}
		results = append(results, types.WebResult{
			URL:     item.URL,
			Title:   item.Title,
			Snippet: item.Content,
			Source:  b.Name(),
			Score:   positionScore(i, len(items)),
		})
	}
	return results, nil
}

type searxngResponse struct {
	Query   string          `json:"query"`
	Results []searxngResult `json:"results"`
}

type searxngResult struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Content string `json:"content"`
}
