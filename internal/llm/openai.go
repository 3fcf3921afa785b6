package llm

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/hyperjump/campusbot/internal/prompt"
)

// OpenAI generates answers with the OpenAI chat completions API or any compatible endpoint.
type OpenAI struct {
	client *openai.Client
	opts   Options
}

// NewOpenAI creates a client for apiKey. A non-empty opts.BaseURL targets a compatible server.
func NewOpenAI(apiKey string, opts Options) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = strings.TrimSuffix(opts.BaseURL, "/")
	}
	return &OpenAI{client: openai.NewClientWithConfig(cfg), opts: opts}
}

func (o *OpenAI) Name() string { return "openai/" + o.opts.Model }

func (o *OpenAI) request(p prompt.Prompt) openai.ChatCompletionRequest {
	var messages []openai.ChatCompletionMessage
	if p.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: p.System})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: p.User()})
	return openai.ChatCompletionRequest{
		Model:       o.opts.Model,
		Messages:    messages,
		Temperature: o.opts.Temperature,
		TopP:        o.opts.TopP,
		MaxTokens:   o.opts.MaxOutputTokens,
	}
}

// Generate implements Generator.
func (o *OpenAI) Generate(ctx context.Context, p prompt.Prompt) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, o.request(p))
	if err != nil {
		return "", ClassifyError("openai", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", ClassifyError("openai", ErrEmptyResponse)
	}
	return resp.Choices[0].Message.Content, nil
}

// Stream implements Generator.
func (o *OpenAI) Stream(ctx context.Context, p prompt.Prompt) (Stream, error) {
	req := o.request(p)
	req.Stream = true
	stream, err := o.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return nil, ClassifyError("openai", err)
	}
	return &openaiStream{stream: stream}, nil
}

func (o *OpenAI) Close() error { return nil }

type openaiStream struct {
	stream *openai.ChatCompletionStream
}

func (s *openaiStream) Recv() (string, error) {
	for {
		resp, err := s.stream.Recv()
		if errors.Is(err, io.EOF) {
			return "", io.EOF
		}
		if err != nil {
			return "", ClassifyError("openai", err)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		if text := resp.Choices[0].Delta.Content; text != "" {
			return text, nil
		}
	}
}

func (s *openaiStream) Close() error {
	s.stream.Close()
	return nil
}
