package llm

import (
	"context"
	"io"
	"sync"
	"sync/atomic"

	"github.com/hyperjump/campusbot/internal/prompt"
)

// MockGenerator is a configurable Generator for tests.
type MockGenerator struct {
	// Answer is returned by Generate when GenerateErr is nil.
	Answer      string
	GenerateErr error

	// Fragments are yielded by the stream in order, followed by RecvErr or io.EOF.
	Fragments []string
	RecvErr   error
	// OpenErr is returned by Stream instead of a stream.
	OpenErr error

	// Hang makes Generate, and the stream after its fragments, block until the context ends.
	Hang bool

	generateCalls atomic.Int32
	streamCalls   atomic.Int32
	closedStreams atomic.Int32

	mu         sync.Mutex
	lastPrompt prompt.Prompt
}

func (m *MockGenerator) Name() string { return "mock" }

// Generate implements Generator.
func (m *MockGenerator) Generate(ctx context.Context, p prompt.Prompt) (string, error) {
	m.generateCalls.Add(1)
	m.record(p)
	if m.Hang {
		<-ctx.Done()
		return "", ClassifyError("mock", ctx.Err())
	}
	if m.GenerateErr != nil {
		return "", m.GenerateErr
	}
	return m.Answer, nil
}

// Stream implements Generator.
func (m *MockGenerator) Stream(ctx context.Context, p prompt.Prompt) (Stream, error) {
	m.streamCalls.Add(1)
	m.record(p)
	if m.OpenErr != nil {
		return nil, m.OpenErr
	}
	return &mockStream{ctx: ctx, m: m}, nil
}

func (m *MockGenerator) Close() error { return nil }

func (m *MockGenerator) record(p prompt.Prompt) {
	m.mu.Lock()
	m.lastPrompt = p
	m.mu.Unlock()
}

// LastPrompt returns the most recent prompt passed to Generate or Stream.
func (m *MockGenerator) LastPrompt() prompt.Prompt {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastPrompt
}

// GenerateCalls returns how many times Generate was called.
func (m *MockGenerator) GenerateCalls() int { return int(m.generateCalls.Load()) }

// StreamCalls returns how many streams were opened.
func (m *MockGenerator) StreamCalls() int { return int(m.streamCalls.Load()) }

// ClosedStreams returns how many streams were closed.
func (m *MockGenerator) ClosedStreams() int { return int(m.closedStreams.Load()) }

type mockStream struct {
	ctx    context.Context
	m      *MockGenerator
	pos    int
	closed atomic.Bool
}

func (s *mockStream) Recv() (string, error) {
	if err := s.ctx.Err(); err != nil {
		return "", ClassifyError("mock", err)
	}
	if s.pos < len(s.m.Fragments) {
		text := s.m.Fragments[s.pos]
		s.pos++
		return text, nil
	}
	if s.m.Hang {
		<-s.ctx.Done()
		return "", ClassifyError("mock", s.ctx.Err())
	}
	if s.m.RecvErr != nil {
		return "", s.m.RecvErr
	}
	return "", io.EOF
}

func (s *mockStream) Close() error {
	if s.closed.CompareAndSwap(false, true) {
		s.m.closedStreams.Add(1)
	}
	return nil
}
