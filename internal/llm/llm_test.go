package llm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/usecase-engine/pkg/types"
)

func TestMain(m *testing.M) {
	backoffBase = time.Millisecond
	os.Exit(m.Run())
}

// failNTimesBackend fails the first N calls, then succeeds.
type failNTimesBackend struct {
	failures  int
	callCount int
}

func (f *failNTimesBackend) Name() string { return "flaky" }

func (f *failNTimesBackend) Complete(_ context.Context, req Request) (Response, error) {
	f.callCount++
	if f.callCount <= f.failures {
		return Response{}, fmt.Errorf("transient error (call %d)", f.callCount)
	}
	return Response{Text: "ok: " + req.Prompt}, nil
}

func TestCompleteWithRetry(t *testing.T) {
	tests := []struct {
		name      string
		failures  int
		retries   int
		wantErr   bool
		wantCalls int
	}{
		{"first try", 0, 3, false, 1},
		{"two failures", 2, 3, false, 3},
		{"exhausted", 5, 2, true, 3},
		{"default retries", 3, 0, false, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &failNTimesBackend{failures: tt.failures}
			resp, err := CompleteWithRetry(context.Background(), b, Request{Prompt: "hi"}, tt.retries)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "after 2 retries")
				assert.Contains(t, err.Error(), "flaky")
			} else {
				require.NoError(t, err)
				assert.Equal(t, "ok: hi", resp.Text)
			}
			assert.Equal(t, tt.wantCalls, b.callCount)
		})
	}
}

func TestCompleteWithRetryCancelled(t *testing.T) {
	old := backoffBase
	backoffBase = time.Second
	defer func() { backoffBase = old }()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	b := &failNTimesBackend{failures: 10}
	_, err := CompleteWithRetry(ctx, b, Request{}, 3)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestNewSelectsProvider(t *testing.T) {
	b, err := New(types.AIConfig{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "openai", b.Name())

	b, err = New(types.AIConfig{APIKey: "k", Provider: types.ProviderAnthropic})
	require.NoError(t, err)
	assert.Equal(t, "anthropic", b.Name())

	_, err = New(types.AIConfig{APIKey: "k", Provider: "cohere"})
	assert.ErrorContains(t, err, "unsupported provider")

	_, err = New(types.AIConfig{})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestTruncate(t *testing.T) {
	counter := WordCounter{}
	text := "one two three\nfour five six\nseven eight nine"

	assert.Equal(t, text, Truncate(text, 100, counter))
	assert.Equal(t, text, Truncate(text, 0, counter))

	got := Truncate(text, 7, counter)
	assert.Equal(t, "one two three\nfour five six"+truncationMarker, got)

	got = Truncate("alpha beta gamma delta", 2, counter)
	assert.Equal(t, "alpha beta"+truncationMarker, got)
}

func TestWordCounter(t *testing.T) {
	assert.Equal(t, 0, WordCounter{}.Count("   "))
	assert.Equal(t, 3, WordCounter{}.Count(" a  b\tc\n"))
}

func TestTruncateKeepsBudget(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 200; i++ {
		fmt.Fprintf(&b, "line %d has five words\n", i)
	}
	got := Truncate(b.String(), 50, WordCounter{})
	body := strings.TrimSuffix(got, truncationMarker)
	assert.LessOrEqual(t, WordCounter{}.Count(body), 50)
	assert.True(t, strings.HasSuffix(got, truncationMarker))
}
