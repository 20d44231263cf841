// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys and credentials from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key name and the
// file contents (trimmed) are the value. Keys missing from the directory fall back to
// well-known environment variables.
//
// Supported key files: openai-api-key, anthropic-api-key, google-cse-key, google-cse-id, searxng-url.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
)

const (
	OpenAIKey     = "openai-api-key"
	AnthropicKey  = "anthropic-api-key"
	GoogleCSEKey  = "google-cse-key"
	GoogleCSEID   = "google-cse-id"
	SearxngURLKey = "searxng-url"
)

// envFallback maps secret names to the environment variables consulted when
// the secrets directory has no file for them.
var envFallback = map[string]string{
	OpenAIKey:     "OPENAI_API_KEY",
	AnthropicKey:  "ANTHROPIC_API_KEY",
	GoogleCSEKey:  "GOOGLE_CSE_KEY",
	GoogleCSEID:   "GOOGLE_CSE_ID",
	SearxngURLKey: "SEARXNG_URL",
}

// Set holds loaded secrets.
type Set map[string]string

// Load reads all files in dir and returns a Set of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty Set.
// Unreadable files are logged as warnings but do not abort.
func Load(dir string, log *zap.Logger) (Set, error) {
	if log == nil {
		log = zap.NewNop()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Set{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(Set)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			log.Warn("could not read secret", zap.String("name", name), zap.Error(err))
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// Get returns the secret for key, falling back to its environment variable.
func (s Set) Get(key string) string {
	if v, ok := s[key]; ok {
		return v
	}
	if env, ok := envFallback[key]; ok {
		return strings.TrimSpace(os.Getenv(env))
	}
	return ""
}

// Default returns fallback when it is non-empty, otherwise the secret for key.
// Explicit configuration wins over stored secrets.
func (s Set) Default(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	return s.Get(key)
}

// Names returns the loaded secret names in sorted order. Values are never
// exposed so the result is safe to log.
func (s Set) Names() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
