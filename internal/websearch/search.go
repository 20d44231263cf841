// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package websearch queries web search engines and returns unified,
// deduplicated results. It is the agents' window on external knowledge.
package websearch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/pdiddy/usecase-engine/pkg/types"
)

var (
	// ErrEmptyQuery is returned when the query has no searchable terms.
	ErrEmptyQuery = errors.New("search query is empty")

	// ErrNoBackends is returned when no search backend is configured.
	ErrNoBackends = errors.New("no search backends configured")
)

// noResults is what an agent sees when a search comes back empty.
const noResults = "No good search result found"

const defaultMaxResults = 8

// Backend searches a single engine. DuckDuckGo, SearxNG and Google each
// implement it.
type Backend interface {
	Name() string
	Search(ctx context.Context, query string, max int) ([]types.WebResult, error)
}

// Cache stores merged results for a query.
type Cache interface {
	Get(ctx context.Context, key string) ([]types.WebResult, bool, error)
	Set(ctx context.Context, key string, results []types.WebResult) error
}

// Output holds the results and fan-out statistics.
type Output struct {
	Results       []types.WebResult
	DupsRemoved   int
	BackendErrors []string
	Cached        bool
}

// Searcher fans a query out to its backends.
type Searcher struct {
	Backends   []Backend
	MaxResults int
	Cache      Cache
	Logger     *zap.Logger
}

// NewSearcher builds a Searcher with every backend cfg enables.
func NewSearcher(cfg types.SearchConfig, client *http.Client, logger *zap.Logger) (*Searcher, error) {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	var backends []Backend
	if cfg.EnableDuckDuckGo {
		backends = append(backends, &DuckDuckGoBackend{Client: client, UserAgent: cfg.UserAgent})
	}
	if cfg.SearxngURL != "" {
		backends = append(backends, &SearxngBackend{Client: client, BaseURL: cfg.SearxngURL, UserAgent: cfg.UserAgent})
	}
	if cfg.GoogleAPIKey != "" && cfg.GoogleEngineID != "" {
		backends = append(backends, &GoogleBackend{Client: client, APIKey: cfg.GoogleAPIKey, EngineID: cfg.GoogleEngineID})
	}
	if len(backends) == 0 {
		return nil, fmt.Errorf("%w: enable duckduckgo or set searxng_url or google credentials", ErrNoBackends)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Searcher{Backends: backends, MaxResults: cfg.MaxResults, Logger: logger}, nil
}

// Search runs query on all backends concurrently, deduplicates the results
// and returns the top MaxResults by score. A backend failure is recorded in
// the output; the call fails only when every backend fails.
func (s *Searcher) Search(ctx context.Context, query string) (Output, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Output{}, ErrEmptyQuery
	}
	if len(s.Backends) == 0 {
		return Output{}, ErrNoBackends
	}
	log := s.logger()
	max := s.MaxResults
	if max <= 0 {
		max = defaultMaxResults
	}

	key := CacheKey(query, max)
	if s.Cache != nil {
		cached, ok, err := s.Cache.Get(ctx, key)
		if err != nil {
			log.Warn("search cache read failed", zap.Error(err))
		} else if ok {
			log.Debug("search cache hit", zap.String("query", query))
			return Output{Results: cached, Cached: true}, nil
		}
	}

	type backendResult struct {
		results []types.WebResult
		err     error
		name    string
	}

	ch := make(chan backendResult, len(s.Backends))
	var wg sync.WaitGroup
	for _, b := range s.Backends {
		wg.Add(1)
		go func(b Backend) {
			defer wg.Done()
			results, err := b.Search(ctx, query, max)
			ch <- backendResult{results: results, err: err, name: b.Name()}
		}(b)
	}
	go func() {
		wg.Wait()
		close(ch)
	}()

	var all []types.WebResult
	var backendErrors []string
	for br := range ch {
		if br.err != nil {
			backendErrors = append(backendErrors, fmt.Sprintf("%s: %v", br.name, br.err))
			log.Warn("search backend failed", zap.String("backend", br.name), zap.Error(br.err))
			continue
		}
		for i := range br.results {
			br.results[i].Query = query
		}
		all = append(all, br.results...)
	}
	if len(backendErrors) == len(s.Backends) {
		return Output{BackendErrors: backendErrors}, fmt.Errorf("all search backends failed: %s", strings.Join(backendErrors, "; "))
	}

	deduped, removed := deduplicate(all)
	sort.SliceStable(deduped, func(i, j int) bool {
		return deduped[i].Score > deduped[j].Score
	})
	if len(deduped) > max {
		deduped = deduped[:max]
	}

	if s.Cache != nil && len(deduped) > 0 {
		if err := s.Cache.Set(ctx, key, deduped); err != nil {
			log.Warn("search cache write failed", zap.Error(err))
		}
	}

	return Output{Results: deduped, DupsRemoved: removed, BackendErrors: backendErrors}, nil
}

func (s *Searcher) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

// CacheKey derives the cache key for a query and result limit.
func CacheKey(query string, max int) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(query)) + "\x00" + strconv.Itoa(max)))
	return "websearch:" + hex.EncodeToString(sum[:])
}

// deduplicate merges results that point at the same normalized URL.
func deduplicate(results []types.WebResult) ([]types.WebResult, int) {
	seen := make(map[string]int)
	var deduped []types.WebResult
	removed := 0
	for _, r := range results {
		key := normalizeURL(r.URL)
		if key == "" {
			continue
		}
		if idx, ok := seen[key]; ok {
			mergeInto(&deduped[idx], r)
			removed++
			continue
		}
		seen[key] = len(deduped)
		deduped = append(deduped, r)
	}
	return deduped, removed
}

// mergeInto fills empty fields of dst from src and keeps the higher score.
func mergeInto(dst *types.WebResult, src types.WebResult) {
	if dst.Title == "" {
		dst.Title = src.Title
	}
	if len(src.Snippet) > len(dst.Snippet) {
		dst.Snippet = src.Snippet
	}
	if src.Score > dst.Score {
		dst.Score = src.Score
	}
	if src.Source != "" && !containsSource(dst.Source, src.Source) {
		if dst.Source == "" {
			dst.Source = src.Source
		} else {
			dst.Source = dst.Source + "," + src.Source
		}
	}
}

func containsSource(list, name string) bool {
	for _, s := range strings.Split(list, ",") {
		if s == name {
			return true
		}
	}
	return false
}

// normalizeURL returns a comparison key that ignores scheme, a leading
// "www.", trailing slashes and the fragment. Unparsable or relative URLs
// yield "".
func normalizeURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return ""
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	key := host + strings.TrimRight(u.EscapedPath(), "/")
	if u.RawQuery != "" {
		key += "?" + u.RawQuery
	}
	return key
}

// positionScore maps a rank within one backend's list to (0.1, 1.0].
func positionScore(i, n int) float64 {
	if n <= 1 {
		return 1.0
	}
	return 1.0 - float64(i)/float64(n-1)*0.9
}

// FormatObservation renders results as the text an agent reads.
func FormatObservation(results []types.WebResult) string {
	if len(results) == 0 {
		return noResults
	}
	var b strings.Builder
	for i, r := range results {
		title := r.Title
		if title == "" {
			title = r.URL
		}
		fmt.Fprintf(&b, "%d. %s — %s", i+1, title, r.URL)
		if snippet := strings.Join(strings.Fields(r.Snippet), " "); snippet != "" {
			fmt.Fprintf(&b, " — %s", snippet)
		}
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}
