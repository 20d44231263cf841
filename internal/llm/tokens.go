package llm

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter counts tokens in a string.
type TokenCounter interface {
	Count(text string) int
}

// WordCounter approximates tokens by whitespace-separated words.
type WordCounter struct{}

// Count returns the number of words in text.
func (WordCounter) Count(text string) int {
	return len(strings.Fields(text))
}

// TikTokenCounter counts tokens with an OpenAI BPE encoding.
type TikTokenCounter struct {
	tke *tiktoken.Tiktoken
}

// NewTikTokenCounter loads the named encoding (e.g. "cl100k_base").
func NewTikTokenCounter(encoding string) (*TikTokenCounter, error) {
	tke, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("loading encoding %s: %w", encoding, err)
	}
	return &TikTokenCounter{tke: tke}, nil
}

// Count returns the exact number of tokens in text.
func (c *TikTokenCounter) Count(text string) int {
	return len(c.tke.Encode(text, nil, nil))
}

var (
	defaultCounterOnce sync.Once
	defaultCounter     TokenCounter
)

// DefaultCounter returns a cl100k_base counter, or a WordCounter when the
// encoding cannot be loaded (it is fetched on first use).
func DefaultCounter() TokenCounter {
	defaultCounterOnce.Do(func() {
		c, err := NewTikTokenCounter("cl100k_base")
		if err != nil {
			defaultCounter = WordCounter{}
			return
		}
		defaultCounter = c
	})
	return defaultCounter
}

// truncationMarker is appended to text cut down to a token budget.
const truncationMarker = "\n\n[truncated]"

// Truncate returns text unchanged when it fits within maxTokens, otherwise
// the longest line-aligned prefix that fits, followed by a truncation marker.
// A single oversized first line is cut by words. maxTokens <= 0 disables
// truncation.
func Truncate(text string, maxTokens int, counter TokenCounter) string {
	if maxTokens <= 0 || counter == nil || counter.Count(text) <= maxTokens {
		return text
	}

	lines := strings.Split(text, "\n")
	lo, hi := 0, len(lines)
	// Binary search the number of whole lines that fit.
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if counter.Count(strings.Join(lines[:mid], "\n")) <= maxTokens {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	if lo > 0 {
		return strings.TrimRight(strings.Join(lines[:lo], "\n"), "\n ") + truncationMarker
	}

	words := strings.Fields(lines[0])
	lo, hi = 0, len(words)
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if counter.Count(strings.Join(words[:mid], " ")) <= maxTokens {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return strings.Join(words[:lo], " ") + truncationMarker
}
