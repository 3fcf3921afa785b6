package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/hyperjump/campusbot/internal/prompt"
)

// Gemini generates answers with the Google Gemini API.
type Gemini struct {
	client *genai.Client
	opts   Options
}

// NewGemini creates a Gemini client for apiKey.
func NewGemini(ctx context.Context, apiKey string, opts Options) (*Gemini, error) {
	clientOpts := []option.ClientOption{option.WithAPIKey(apiKey)}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(opts.BaseURL))
	}
	client, err := genai.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Gemini{client: client, opts: opts}, nil
}

func (g *Gemini) Name() string { return "gemini/" + g.opts.Model }

// model configures a fresh GenerativeModel; the type is not safe for concurrent mutation.
func (g *Gemini) model(p prompt.Prompt) *genai.GenerativeModel {
	m := g.client.GenerativeModel(g.opts.Model)
	m.SetTemperature(g.opts.Temperature)
	m.SetTopP(g.opts.TopP)
	m.SetTopK(int32(g.opts.TopK))
	m.SetMaxOutputTokens(int32(g.opts.MaxOutputTokens))
	if p.System != "" {
		m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(p.System)}}
	}
	return m
}

// Generate implements Generator.
func (g *Gemini) Generate(ctx context.Context, p prompt.Prompt) (string, error) {
	resp, err := g.model(p).GenerateContent(ctx, genai.Text(p.User()))
	if err != nil {
		return "", ClassifyError("gemini", err)
	}
	text := responseText(resp)
	if strings.TrimSpace(text) == "" {
		return "", ClassifyError("gemini", ErrEmptyResponse)
	}
	return text, nil
}

// Stream implements Generator.
func (g *Gemini) Stream(ctx context.Context, p prompt.Prompt) (Stream, error) {
	ctx, cancel := context.WithCancel(ctx)
	iter := g.model(p).GenerateContentStream(ctx, genai.Text(p.User()))
	return &geminiStream{iter: iter, cancel: cancel}, nil
}

func (g *Gemini) Close() error {
	return g.client.Close()
}

type geminiStream struct {
	iter   *genai.GenerateContentResponseIterator
	cancel context.CancelFunc
}

func (s *geminiStream) Recv() (string, error) {
	for {
		resp, err := s.iter.Next()
		if errors.Is(err, iterator.Done) {
			return "", io.EOF
		}
		if err != nil {
			return "", ClassifyError("gemini", err)
		}
		if text := responseText(resp); text != "" {
			return text, nil
		}
	}
}

func (s *geminiStream) Close() error {
	s.cancel()
	return nil
}

// responseText concatenates the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		var b strings.Builder
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
		return b.String()
	}
	return ""
}
