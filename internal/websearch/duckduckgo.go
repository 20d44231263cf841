package websearch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/usecase-engine/internal/httputil"
	"github.com/pdiddy/usecase-engine/pkg/types"
)

// duckDuckGoURL is the DuckDuckGo HTML endpoint. Declared as a var so tests
// can substitute an httptest server.
var duckDuckGoURL = "https://html.duckduckgo.com/html/"

// DuckDuckGoBackend scrapes the DuckDuckGo HTML results page. It needs no
// API key.
type DuckDuckGoBackend struct {
	Client    *http.Client
	UserAgent string
}

// Name returns the backend identifier.
func (b *DuckDuckGoBackend) Name() string { return "duckduckgo" }

// Search fetches the results page for query and parses organic results.
func (b *DuckDuckGoBackend) Search(ctx context.Context, query string, max int) ([]types.WebResult, error) {
	reqURL := duckDuckGoURL + "?" + url.Values{"q": {query}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if b.UserAgent != "" {
		req.Header.Set("User-Agent", b.UserAgent)
	}
	req.Header.Set("Accept", "text/html")

	resp, err := httputil.DoWithRetry(ctx, b.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("DuckDuckGo request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("DuckDuckGo returned HTTP %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing DuckDuckGo page: %w", err)
	}

	var results []types.WebResult
	doc.Find(".result").Each(func(_ int, s *goquery.Selection) {
		if max > 0 && len(results) >= max {
			return
		}
		if s.HasClass("result--ad") {
			return
		}
		a := s.Find("a.result__a").First()
		href, ok := a.Attr("href")
		if !ok {
			return
		}
		link := unwrapRedirect(href)
		if link == "" {
			return
		}
		results = append(results, types.WebResult{
			URL:     link,
			Title:   strings.TrimSpace(a.Text()),
			Snippet: strings.TrimSpace(s.Find(".result__snippet").First().Text()),
			Source:  b.Name(),
		})
	})

	for i := range results {
		results[i].Score = positionScore(i, len(results))
	}
	return results, nil
}

// unwrapRedirect resolves DuckDuckGo's "/l/?uddg=<target>" links to the
// target URL. Direct absolute links are returned unchanged.
func unwrapRedirect(href string) string {
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return u.String()
}
