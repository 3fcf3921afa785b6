package llm

import (
	"context"
	"io"
	"strings"

	"github.com/liushuangls/go-anthropic/v2"

	"github.com/hyperjump/campusbot/internal/prompt"
)

// Anthropic generates answers with the Anthropic Messages API.
type Anthropic struct {
	client *anthropic.Client
	opts   Options
}

// NewAnthropic creates a client for apiKey.
func NewAnthropic(apiKey string, opts Options) *Anthropic {
	var clientOpts []anthropic.ClientOption
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, anthropic.WithBaseURL(strings.TrimSuffix(opts.BaseURL, "/")))
	}
	return &Anthropic{client: anthropic.NewClient(apiKey, clientOpts...), opts: opts}
}

func (a *Anthropic) Name() string { return "anthropic/" + a.opts.Model }

func (a *Anthropic) request(p prompt.Prompt) anthropic.MessagesRequest {
	user := p.User()
	temperature := a.opts.Temperature
	topP := a.opts.TopP
	topK := a.opts.TopK
	return anthropic.MessagesRequest{
		Model:     anthropic.Model(a.opts.Model),
		System:    p.System,
		MaxTokens: a.opts.MaxOutputTokens,
		Messages: []anthropic.Message{
			{Role: anthropic.RoleUser, Content: []anthropic.MessageContent{
				{Type: "text", Text: &user},
			}},
		},
		Temperature: &temperature,
		TopP:        &topP,
		TopK:        &topK,
	}
}

// Generate implements Generator.
func (a *Anthropic) Generate(ctx context.Context, p prompt.Prompt) (string, error) {
	resp, err := a.client.CreateMessages(ctx, a.request(p))
	if err != nil {
		return "", ClassifyError("anthropic", err)
	}
	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" && block.Text != nil {
			b.WriteString(*block.Text)
		}
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", ClassifyError("anthropic", ErrEmptyResponse)
	}
	return b.String(), nil
}

// Stream implements Generator. The client delivers deltas through a callback, so a goroutine
// feeds them into a channel that Recv pulls from.
func (a *Anthropic) Stream(ctx context.Context, p prompt.Prompt) (Stream, error) {
	ctx, cancel := context.WithCancel(ctx)
	s := &anthropicStream{
		ctx:       ctx,
		cancel:    cancel,
		fragments: make(chan string),
		done:      make(chan error, 1),
	}
	go func() {
		defer close(s.fragments)
		_, err := a.client.CreateMessagesStream(ctx, anthropic.MessagesStreamRequest{
			MessagesRequest: a.request(p),
			OnContentBlockDelta: func(data anthropic.MessagesEventContentBlockDeltaData) {
				if data.Delta.Text == nil || *data.Delta.Text == "" {
					return
				}
				select {
				case s.fragments <- *data.Delta.Text:
				case <-ctx.Done():
				}
			},
		})
		s.done <- err
	}()
	return s, nil
}

func (a *Anthropic) Close() error { return nil }

type anthropicStream struct {
	ctx       context.Context
	cancel    context.CancelFunc
	fragments chan string
	done      chan error

	finished bool
	final    error
}

func (s *anthropicStream) Recv() (string, error) {
	if s.finished {
		return "", s.final
	}
	select {
	case text, ok := <-s.fragments:
		if ok {
			return text, nil
		}
		s.finished = true
		s.final = io.EOF
		if err := <-s.done; err != nil {
			s.final = ClassifyError("anthropic", err)
		}
		return "", s.final
	case <-s.ctx.Done():
		return "", ClassifyError("anthropic", s.ctx.Err())
	}
}

func (s *anthropicStream) Close() error {
	s.cancel()
	return nil
}
