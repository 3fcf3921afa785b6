package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/campusbot/internal/prompt"
)

func newAnthropicServer(t *testing.T, handler http.HandlerFunc) *Anthropic {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewAnthropic("key", Options{Model: "claude-test", BaseURL: srv.URL + "/v1", Temperature: 0.7, TopP: 0.95, TopK: 40, MaxOutputTokens: 256})
}

func TestAnthropic_Generate(t *testing.T) {
	var got struct {
		Model  string `json:"model"`
		System string `json:"system"`
		TopK   int    `json:"top_k"`
	}
	gen := newAnthropicServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"m1","type":"message","role":"assistant","model":"claude-test",`+
			`"content":[{"type":"text","text":"등록금은 "},{"type":"text","text":"2월에 납부해요."}],`+
			`"stop_reason":"end_turn","usage":{"input_tokens":10,"output_tokens":5}}`)
	})

	answer, err := gen.Generate(context.Background(), prompt.Prompt{System: "sys", Question: "등록금?"})
	require.NoError(t, err)
	assert.Equal(t, "등록금은 2월에 납부해요.", answer)
	assert.Equal(t, "claude-test", got.Model)
	assert.Equal(t, "sys", got.System)
	assert.Equal(t, 40, got.TopK)
}

func TestAnthropic_Stream(t *testing.T) {
	events := []struct{ name, data string }{
		{"message_start", `{"type":"message_start","message":{"id":"m1","type":"message","role":"assistant","model":"claude-test","content":[],"usage":{"input_tokens":10,"output_tokens":0}}}`},
		{"content_block_start", `{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`},
		{"content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"휴학은 "}}`},
		{"content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"학사시스템에서 신청해요."}}`},
		{"content_block_stop", `{"type":"content_block_stop","index":0}`},
		{"message_delta", `{"type":"message_delta","delta":{"stop_reason":"end_turn"},"usage":{"output_tokens":8}}`},
		{"message_stop", `{"type":"message_stop"}`},
	}
	gen := newAnthropicServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, ev := range events {
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.name, ev.data)
		}
	})

	stream, err := gen.Stream(context.Background(), prompt.Prompt{Question: "휴학?"})
	require.NoError(t, err)
	defer stream.Close()
	fragments, err := drain(t, stream)
	require.NoError(t, err)
	assert.Equal(t, "휴학은 학사시스템에서 신청해요.", strings.Join(fragments, ""))

	_, err = stream.Recv()
	assert.ErrorIs(t, err, io.EOF)
}

func TestAnthropic_StreamCloseStopsProducer(t *testing.T) {
	release := make(chan struct{})
	gen := newAnthropicServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "event: content_block_delta\ndata: {\"type\":\"content_block_delta\",\"index\":0,\"delta\":{\"type\":\"text_delta\",\"text\":\"a\"}}\n\n")
		w.(http.Flusher).Flush()
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stream, err := gen.Stream(ctx, prompt.Prompt{Question: "q"})
	require.NoError(t, err)
	text, err := stream.Recv()
	require.NoError(t, err)
	assert.Equal(t, "a", text)

	require.NoError(t, stream.Close())
	_, err = stream.Recv()
	assert.Equal(t, KindCanceled, KindOf(err))
}
