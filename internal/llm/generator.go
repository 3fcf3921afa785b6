// Package llm wraps the text generation providers behind one Generator interface.
package llm

import (
	"context"

	"github.com/hyperjump/campusbot/internal/prompt"
)

// Generator produces an answer for a prompt, either all at once or as a fragment stream.
// Implementations must be safe for concurrent use.
type Generator interface {
	// Generate returns the complete answer text.
	Generate(ctx context.Context, p prompt.Prompt) (string, error)
	// Stream opens a fragment stream. The caller must Close it.
	Stream(ctx context.Context, p prompt.Prompt) (Stream, error)
	// Name identifies the provider and model for logs and status output.
	Name() string
	Close() error
}

// Stream yields answer fragments in order. Recv returns io.EOF after the last fragment.
type Stream interface {
	Recv() (string, error)
	Close() error
}

// Options are the sampling parameters shared by every provider.
type Options struct {
	Model           string
	BaseURL         string
	Temperature     float32
	TopP            float32
	TopK            int
	MaxOutputTokens int
}
