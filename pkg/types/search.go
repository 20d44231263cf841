// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// WebResult is a single hit returned by a web search backend.
type WebResult struct {
	// URL is the target page.
	URL string `json:"url" yaml:"url"`

	// Title is the page title as reported by the backend.
	Title string `json:"title" yaml:"title"`

	// Snippet is the short description or content excerpt.
	Snippet string `json:"snippet,omitempty" yaml:"snippet,omitempty"`

	// Source identifies the backend(s) that found this result
	// (e.g. "duckduckgo", "searxng,google").
	Source string `json:"source" yaml:"source"`

	// Query is the search query that produced the result.
	Query string `json:"query,omitempty" yaml:"query,omitempty"`

	// Score is a value between 0.0 and 1.0 derived from result position.
	Score float64 `json:"score" yaml:"score"`
}
