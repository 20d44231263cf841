// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/liushuangls/go-anthropic/v2"

	"github.com/pdiddy/usecase-engine/pkg/types"
)

const defaultClaudeModel = "claude-sonnet-4-5-20250929"

// ClaudeBackend calls the Anthropic Messages API.
type ClaudeBackend struct {
	client    *anthropic.Client
	model     string
	maxTokens int
}

// NewClaudeBackend builds an Anthropic backend.
func NewClaudeBackend(cfg types.AIConfig) *ClaudeBackend {
	var opts []anthropic.ClientOption
	if cfg.BaseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
	}
	model := cfg.Model
	if model == "" || strings.HasPrefix(model, "gpt-") {
		model = defaultClaudeModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return &ClaudeBackend{
		client:    anthropic.NewClient(cfg.APIKey, opts...),
		model:     model,
		maxTokens: maxTokens,
	}
}

// Name returns the backend identifier.
func (b *ClaudeBackend) Name() string { return "anthropic" }

// Complete sends one Messages API request.
func (b *ClaudeBackend) Complete(ctx context.Context, req Request) (Response, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = b.maxTokens
	}
	temp := float32(req.Temperature)

	resp, err := b.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:         anthropic.Model(b.model),
		System:        req.System,
		Messages:      []anthropic.Message{anthropic.NewUserTextMessage(req.Prompt)},
		MaxTokens:     maxTokens,
		Temperature:   &temp,
		StopSequences: req.Stop,
	})
	if err != nil {
		return Response{}, fmt.Errorf("anthropic api error: %w", err)
	}

	var text strings.Builder
	for _, c := range resp.Content {
		if c.Type == anthropic.MessagesContentTypeText && c.Text != nil {
			text.WriteString(*c.Text)
		}
	}
	if text.Len() == 0 {
		return Response{}, errors.New("anthropic returned no text content")
	}

	return Response{
		Text:         text.String(),
		Model:        string(resp.Model),
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
	}, nil
}
