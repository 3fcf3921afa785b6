package llm

import (
	"context"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hyperjump/campusbot/internal/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.LLMConfig
		want string
	}{
		{"offline provider", config.LLMConfig{Provider: config.ProviderOffline}, "offline"},
		{"gemini without key", config.LLMConfig{Provider: config.ProviderGemini, Model: "gemini-2.0-flash-exp"}, "offline"},
		{"openai with key", config.LLMConfig{Provider: config.ProviderOpenAI, Model: "gpt-4o-mini", OpenAIAPIKey: "sk"}, "openai/gpt-4o-mini"},
		{"anthropic with key", config.LLMConfig{Provider: config.ProviderAnthropic, Model: "claude", AnthropicAPIKey: "k"}, "anthropic/claude"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen, err := New(context.Background(), &tt.cfg, zap.NewNop())
			require.NoError(t, err)
			defer gen.Close()
			assert.Equal(t, tt.want, gen.Name())
		})
	}
}

func TestNew_unknownProvider(t *testing.T) {
	_, err := New(context.Background(), &config.LLMConfig{Provider: "cohere", OpenAIAPIKey: "x"}, zap.NewNop())
	assert.Error(t, err)
}

func TestResponseText(t *testing.T) {
	resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{
		{Content: &genai.Content{Parts: []genai.Part{genai.Text("장학금은 "), genai.Text("학기마다 신청해요.")}}},
		{Content: &genai.Content{Parts: []genai.Part{genai.Text("ignored")}}},
	}}
	assert.Equal(t, "장학금은 학기마다 신청해요.", responseText(resp))
	assert.Equal(t, "", responseText(nil))
	assert.Equal(t, "", responseText(&genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}}))
}
