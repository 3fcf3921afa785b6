package llm

import (
	"context"
	"io"
	"strings"

	"github.com/hyperjump/campusbot/internal/prompt"
)

const offlinePreamble = "AI 답변 생성이 설정되어 있지 않아 관련 정보를 그대로 안내해드려요.\n\n"

// Offline answers without a model by echoing the retrieved context. It is used when no API key is
// configured so the service stays usable in development.
type Offline struct{}

// NewOffline returns the offline generator.
func NewOffline() *Offline { return &Offline{} }

func (*Offline) Name() string { return "offline" }

func (*Offline) answer(p prompt.Prompt) string {
	ctx := strings.TrimSpace(strings.TrimPrefix(p.Context, prompt.ContextHeader))
	if ctx == "" {
		return prompt.NotAvailable
	}
	return offlinePreamble + ctx
}

// Generate implements Generator.
func (o *Offline) Generate(ctx context.Context, p prompt.Prompt) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", ClassifyError("offline", err)
	}
	return o.answer(p), nil
}

// Stream implements Generator. Fragments are the answer's lines.
func (o *Offline) Stream(ctx context.Context, p prompt.Prompt) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, ClassifyError("offline", err)
	}
	return &lineStream{ctx: ctx, lines: strings.SplitAfter(o.answer(p), "\n")}, nil
}

func (*Offline) Close() error { return nil }

type lineStream struct {
	ctx   context.Context
	lines []string
	pos   int
}

func (s *lineStream) Recv() (string, error) {
	for s.pos < len(s.lines) {
		if err := s.ctx.Err(); err != nil {
			return "", ClassifyError("offline", err)
		}
		line := s.lines[s.pos]
		s.pos++
		if line != "" {
			return line, nil
		}
	}
	return "", io.EOF
}

func (s *lineStream) Close() error { return nil }
