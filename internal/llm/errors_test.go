package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		kind      ErrorKind
		retryable bool
	}{
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), KindTimeout, true},
		{"canceled", context.Canceled, KindCanceled, false},
		{"empty", ErrEmptyResponse, KindEmpty, false},
		{"unauthorized text", errors.New("googleapi: Error 401: API key not valid"), KindAuth, false},
		{"openai api error", &openai.APIError{HTTPStatusCode: 401, Message: "Incorrect key"}, KindAuth, false},
		{"rate limit", errors.New("status 429: too many requests"), KindRateLimit, true},
		{"quota", errors.New("RESOURCE EXHAUSTED: quota"), KindRateLimit, true},
		{"server error", errors.New("upstream returned 503"), KindProvider, true},
		{"unknown", errors.New("something odd"), KindProvider, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyError("test", tt.err)
			require.NotNil(t, got)
			assert.Equal(t, tt.kind, got.Kind)
			assert.Equal(t, tt.retryable, got.Retryable())
			assert.ErrorIs(t, got, tt.err)
			assert.Equal(t, tt.kind, KindOf(got))
		})
	}
}

func TestClassifyError_nilAndAlreadyClassified(t *testing.T) {
	assert.Nil(t, ClassifyError("test", nil))

	first := ClassifyError("gemini", context.DeadlineExceeded)
	again := ClassifyError("openai", fmt.Errorf("wrapped: %w", first))
	assert.Same(t, first, again)
	assert.Equal(t, "gemini", again.Provider)
}

func TestGenerationError_Error(t *testing.T) {
	err := &GenerationError{Kind: KindAuth, Provider: "openai", StatusCode: 401, Message: "authentication failed",
		Cause: errors.New("bad key")}
	assert.Equal(t, "auth provider=openai HTTP 401 authentication failed: bad key", err.Error())
	assert.Equal(t, ErrorKind(""), KindOf(errors.New("plain")))
}
