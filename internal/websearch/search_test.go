package websearch

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/pdiddy/usecase-engine/pkg/types"
)

// --- mock backend ---

type mockBackend struct {
	name    string
	results []types.WebResult
	err     error

	mu    sync.Mutex
	calls int
}

func (m *mockBackend) Name() string { return m.name }

func (m *mockBackend) Search(_ context.Context, _ string, _ int) ([]types.WebResult, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	out := make([]types.WebResult, len(m.results))
	copy(out, m.results)
	return out, m.err
}

// memCache is an in-memory Cache.
type memCache struct {
	data   map[string][]types.WebResult
	getErr error
}

func (c *memCache) Get(_ context.Context, key string) ([]types.WebResult, bool, error) {
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	r, ok := c.data[key]
	return r, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, results []types.WebResult) error {
	if c.data == nil {
		c.data = make(map[string][]types.WebResult)
	}
	c.data[key] = results
	return nil
}

// --- Search ---

func TestSearchEmptyQuery(t *testing.T) {
	s := &Searcher{Backends: []Backend{&mockBackend{name: "a"}}}
	_, err := s.Search(context.Background(), "   ")
	if !errors.Is(err, ErrEmptyQuery) {
		t.Fatalf("err = %v, want ErrEmptyQuery", err)
	}
}

func TestSearchNoBackends(t *testing.T) {
	s := &Searcher{}
	_, err := s.Search(context.Background(), "retail ai")
	if !errors.Is(err, ErrNoBackends) {
		t.Fatalf("err = %v, want ErrNoBackends", err)
	}
}

func TestSearchMergesAndRanks(t *testing.T) {
	a := &mockBackend{name: "duckduckgo", results: []types.WebResult{
		{URL: "https://www.example.com/a/", Title: "A", Snippet: "short", Score: 0.5, Source: "duckduckgo"},
		{URL: "https://example.com/b", Title: "B", Score: 1.0, Source: "duckduckgo"},
	}}
	b := &mockBackend{name: "searxng", results: []types.WebResult{
		{URL: "http://example.com/a#top", Title: "A", Snippet: "a longer snippet", Score: 0.9, Source: "searxng"},
		{URL: "https://example.com/c", Title: "C", Score: 0.1, Source: "searxng"},
	}}
	s := &Searcher{Backends: []Backend{a, b}, MaxResults: 10, Logger: zaptest.NewLogger(t)}

	out, err := s.Search(context.Background(), "retail ai")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if out.DupsRemoved != 1 {
		t.Errorf("DupsRemoved = %d, want 1", out.DupsRemoved)
	}
	if len(out.Results) != 3 {
		t.Fatalf("got %d results, want 3", len(out.Results))
	}
	if out.Results[0].Title != "B" || out.Results[1].Title != "A" || out.Results[2].Title != "C" {
		t.Errorf("order = %s,%s,%s, want B,A,C", out.Results[0].Title, out.Results[1].Title, out.Results[2].Title)
	}
	merged := out.Results[1]
	if merged.Score != 0.9 {
		t.Errorf("merged score = %v, want 0.9", merged.Score)
	}
	if merged.Snippet != "a longer snippet" {
		t.Errorf("merged snippet = %q", merged.Snippet)
	}
	if !strings.Contains(merged.Source, "duckduckgo") || !strings.Contains(merged.Source, "searxng") {
		t.Errorf("merged source = %q, want both backends", merged.Source)
	}
	for _, r := range out.Results {
		if r.Query != "retail ai" {
			t.Errorf("result %s query = %q", r.URL, r.Query)
		}
	}
}

func TestSearchTruncatesToMax(t *testing.T) {
	var results []types.WebResult
	for _, u := range []string{"a", "b", "c", "d"} {
		results = append(results, types.WebResult{URL: "https://x.org/" + u, Score: 0.5})
	}
	s := &Searcher{Backends: []Backend{&mockBackend{name: "a", results: results}}, MaxResults: 2}
	out, err := s.Search(context.Background(), "q")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(out.Results) != 2 {
		t.Errorf("got %d results, want 2", len(out.Results))
	}
}

func TestSearchPartialFailure(t *testing.T) {
	ok := &mockBackend{name: "ok", results: []types.WebResult{{URL: "https://x.org", Title: "X", Score: 1}}}
	bad := &mockBackend{name: "bad", err: errors.New("boom")}
	s := &Searcher{Backends: []Backend{ok, bad}}

	out, err := s.Search(context.Background(), "q")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(out.Results) != 1 {
		t.Errorf("got %d results, want 1", len(out.Results))
	}
	if len(out.BackendErrors) != 1 || !strings.HasPrefix(out.BackendErrors[0], "bad:") {
		t.Errorf("BackendErrors = %v", out.BackendErrors)
	}
}

func TestSearchAllBackendsFail(t *testing.T) {
	s := &Searcher{Backends: []Backend{
		&mockBackend{name: "a", err: errors.New("down")},
		&mockBackend{name: "b", err: errors.New("down")},
	}}
	_, err := s.Search(context.Background(), "q")
	if err == nil || !strings.Contains(err.Error(), "all search backends failed") {
		t.Fatalf("err = %v, want all-failed error", err)
	}
}

func TestSearchUsesCache(t *testing.T) {
	backend := &mockBackend{name: "a", results: []types.WebResult{{URL: "https://x.org", Title: "X", Score: 1}}}
	cache := &memCache{}
	s := &Searcher{Backends: []Backend{backend}, MaxResults: 5, Cache: cache}

	first, err := s.Search(context.Background(), "q")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if first.Cached {
		t.Error("first search should not be cached")
	}
	second, err := s.Search(context.Background(), "q")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if !second.Cached {
		t.Error("second search should come from cache")
	}
	if backend.calls != 1 {
		t.Errorf("backend called %d times, want 1", backend.calls)
	}
}

func TestSearchIgnoresCacheErrors(t *testing.T) {
	backend := &mockBackend{name: "a", results: []types.WebResult{{URL: "https://x.org", Score: 1}}}
	s := &Searcher{Backends: []Backend{backend}, Cache: &memCache{getErr: errors.New("redis down")}}
	out, err := s.Search(context.Background(), "q")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(out.Results) != 1 {
		t.Errorf("got %d results, want 1", len(out.Results))
	}
}

func TestNewSearcher(t *testing.T) {
	cfg := types.SearchConfig{EnableDuckDuckGo: true, SearxngURL: "http://searx", GoogleAPIKey: "k", GoogleEngineID: "cx"}
	s, err := NewSearcher(cfg, nil, nil)
	if err != nil {
		t.Fatalf("NewSearcher: %v", err)
	}
	var names []string
	for _, b := range s.Backends {
		names = append(names, b.Name())
	}
	if got := strings.Join(names, ","); got != "duckduckgo,searxng,google" {
		t.Errorf("backends = %s", got)
	}

	_, err = NewSearcher(types.SearchConfig{GoogleAPIKey: "k"}, nil, nil)
	if !errors.Is(err, ErrNoBackends) {
		t.Errorf("err = %v, want ErrNoBackends", err)
	}
}

// --- helpers ---

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		a, b string
		same bool
	}{
		{"https://www.example.com/path/", "http://example.com/path", true},
		{"https://example.com/path#frag", "https://example.com/path", true},
		{"https://EXAMPLE.com/", "https://example.com", true},
		{"https://example.com/a?x=1", "https://example.com/a?x=2", false},
		{"https://example.com/a", "https://example.org/a", false},
	}
	for _, tt := range tests {
		got := normalizeURL(tt.a) == normalizeURL(tt.b)
		if got != tt.same {
			t.Errorf("normalizeURL(%q) == normalizeURL(%q) is %v, want %v", tt.a, tt.b, got, tt.same)
		}
	}
	if normalizeURL("/relative") != "" {
		t.Error("relative URL should normalize to empty")
	}
}

func TestPositionScore(t *testing.T) {
	if positionScore(0, 1) != 1.0 {
		t.Error("single result should score 1.0")
	}
	if positionScore(0, 5) != 1.0 {
		t.Error("first result should score 1.0")
	}
	if math.Abs(positionScore(4, 5)-0.1) > 1e-9 {
		t.Errorf("last result = %v, want 0.1", positionScore(4, 5))
	}
}

func TestCacheKeyStable(t *testing.T) {
	if CacheKey("Retail AI ", 8) != CacheKey("retail ai", 8) {
		t.Error("cache key should ignore case and surrounding space")
	}
	if CacheKey("retail ai", 8) == CacheKey("retail ai", 5) {
		t.Error("cache key should depend on the limit")
	}
}

func TestFormatObservation(t *testing.T) {
	if got := FormatObservation(nil); got != "No good search result found" {
		t.Errorf("empty = %q", got)
	}
	got := FormatObservation([]types.WebResult{
		{URL: "https://a.org", Title: "A", Snippet: "first\n  snippet"},
		{URL: "https://b.org"},
	})
	want := "1. A — https://a.org — first snippet\n2. https://b.org — https://b.org"
	if got != want {
		t.Errorf("FormatObservation =\n%s\nwant\n%s", got, want)
	}
}
