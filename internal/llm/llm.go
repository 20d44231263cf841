// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm abstracts the Generative AI APIs the agents reason with.
// Each provider implements Backend; callers never depend on a provider SDK.
package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/pdiddy/usecase-engine/pkg/types"
)

// ErrMissingAPIKey is returned by New when no API key is configured.
var ErrMissingAPIKey = errors.New("missing API key")

const defaultMaxTokens = 4096

// Backend completes a single prompt. Implementations must be safe for
// concurrent use.
type Backend interface {
	Name() string
	Complete(ctx context.Context, req Request) (Response, error)
}

// Request is one completion call.
type Request struct {
	// System is the optional system instruction.
	System string

	// Prompt is the user message.
	Prompt string

	Temperature float64

	// MaxTokens bounds the completion. Zero uses the backend default.
	MaxTokens int

	// Stop lists sequences at which generation halts.
	Stop []string
}

// Response is the text and usage returned by a backend.
type Response struct {
	Text         string
	Model        string
	InputTokens  int
	OutputTokens int
}

// New returns the backend selected by cfg.Provider.
func New(cfg types.AIConfig) (Backend, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w for provider %q", ErrMissingAPIKey, providerOrDefault(cfg.Provider))
	}
	switch providerOrDefault(cfg.Provider) {
	case types.ProviderOpenAI:
		return NewOpenAIBackend(cfg), nil
	case types.ProviderAnthropic:
		return NewClaudeBackend(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported provider %q: use openai or anthropic", cfg.Provider)
	}
}

func providerOrDefault(p types.Provider) types.Provider {
	if p == "" {
		return types.ProviderOpenAI
	}
	return p
}

// backoffBase controls the base duration for exponential backoff. Tests
// override this to avoid real sleeps.
var backoffBase = time.Second

// CompleteWithRetry calls the backend, retrying failures with exponential
// backoff. maxRetries <= 0 uses 3. Context cancellation stops immediately.
func CompleteWithRetry(ctx context.Context, b Backend, req Request, maxRetries int) (Response, error) {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return Response{}, ctx.Err()
			case <-time.After(backoff):
			}
		}

		resp, err := b.Complete(ctx, req)
		if err == nil {
			return resp, nil
		}
		if ctx.Err() != nil {
			return Response{}, ctx.Err()
		}
		lastErr = err
	}
	return Response{}, fmt.Errorf("%s: after %d retries: %w", b.Name(), maxRetries, lastErr)
}
