package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pdiddy/usecase-engine/internal/httputil"
	"github.com/pdiddy/usecase-engine/pkg/types"
)

// googleAPIBase is the Custom Search JSON API endpoint. Declared as a var
// so tests can substitute an httptest server.
var googleAPIBase = "https://www.googleapis.com/customsearch/v1"

// googleMaxNum is the largest page size the API accepts.
const googleMaxNum = 10

// GoogleBackend queries the Google Custom Search JSON API.
type GoogleBackend struct {
	Client   *http.Client
	APIKey   string
	EngineID string
}

// Name returns the backend identifier.
func (b *GoogleBackend) Name() string { return "google" }

// Search returns up to max results, skipping documents that are not HTML
// pages (PDFs, spreadsheets).
func (b *GoogleBackend) Search(ctx context.Context, query string, max int) ([]types.WebResult, error) {
	num := max
	if num <= 0 || num > googleMaxNum {
		num = googleMaxNum
	}
	params := url.Values{
		"key": {b.APIKey},
		"cx":  {b.EngineID},
		"q":   {query},
		"num": {strconv.Itoa(num)},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, googleAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := httputil.DoWithRetry(ctx, b.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("Google search request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Google search returned HTTP %d", resp.StatusCode)
	}

	var gr googleResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return nil, fmt.Errorf("parsing Google response: %w", err)
	}

	var items []googleItem
	for _, item := range gr.Items {
		if item.Mime != "" && item.Mime != "text/html" {
			continue
		}
		items = append(items, item)
	}
	results := make([]types.WebResult, 0, len(items))
	for i, item := range items {
		results = append(results, types.WebResult{
			URL:     item.Link,
			Title:   item.Title,
			Snippet: item.Snippet,
			Source:  b.Name(),
			Score:   positionScore(i, len(items)),
		})
	}
	return results, nil
}

type googleResponse struct {
	Items []googleItem `json:"items"`
}

type googleItem struct {
	Link    string `json:"link"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Mime    string `json:"mime"`
}
