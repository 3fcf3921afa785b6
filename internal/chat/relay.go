package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hyperjump/campusbot/internal/llm"
	"github.com/hyperjump/campusbot/internal/models"
)

// RelayState is the lifecycle of one streamed answer.
type RelayState int

const (
	StateIdle RelayState = iota
	StateStreaming
	StateCompleted
	StateFailed
)

func (s RelayState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStreaming:
		return "streaming"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("RelayState(%d)", int(s))
}

// DoneFrame terminates a successful stream.
const DoneFrame = "[DONE]"

// OpenFunc starts a generator stream under ctx.
type OpenFunc func(ctx context.Context) (llm.Stream, error)

// Relay copies generator fragments to an event-stream writer. A Relay is used for one request.
type Relay struct {
	w       io.Writer
	flush   func() error
	timeout time.Duration

	state     RelayState
	fragments int
	text      strings.Builder
	canceled  bool
}

// NewRelay returns an idle relay writing to w. flush is called after every frame and may be nil.
// timeout bounds the whole stream; zero means no bound beyond the caller's context.
func NewRelay(w io.Writer, flush func() error, timeout time.Duration) *Relay {
	return &Relay{w: w, flush: flush, timeout: timeout}
}

// State returns the current state.
func (r *Relay) State() RelayState { return r.state }

// Fragments returns the number of text frames written.
func (r *Relay) Fragments() int { return r.fragments }

// Text returns the concatenated fragments written so far.
func (r *Relay) Text() string { return r.text.String() }

// Canceled reports whether the stream stopped because the client went away.
func (r *Relay) Canceled() bool { return r.canceled }

// Run opens a stream and relays it until it ends. On success the last frame is [DONE]. A generator
// failure or an expired stream deadline writes a single error frame instead. When parent is
// canceled, or a write fails, the relay stops reading and writes nothing further. The stream is
// always closed before Run returns.
func (r *Relay) Run(parent context.Context, open OpenFunc) error {
	if r.state != StateIdle {
		return errors.New("relay already used")
	}
	r.state = StateStreaming

	ctx, cancel := parent, context.CancelFunc(func() {})
	if r.timeout > 0 {
		ctx, cancel = context.WithTimeout(parent, r.timeout)
	}
	defer cancel()

	stream, err := open(ctx)
	if err != nil {
		return r.fail(parent, err)
	}
	defer stream.Close()

	for {
		if parent.Err() != nil {
			return r.stop(parent.Err())
		}
		text, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			if err := r.writeRaw(DoneFrame); err != nil {
				return r.stop(err)
			}
			r.state = StateCompleted
			return nil
		}
		if err != nil {
			return r.fail(parent, err)
		}
		if text == "" {
			continue
		}
		if parent.Err() != nil {
			return r.stop(parent.Err())
		}
		if err := r.writeFrame(models.StreamFrame{Text: text}); err != nil {
			return r.stop(err)
		}
		r.fragments++
		r.text.WriteString(text)
	}
}

// fail ends the stream after a generator error. The error frame is skipped when the client is gone.
func (r *Relay) fail(parent context.Context, cause error) error {
	if parent.Err() != nil {
		return r.stop(parent.Err())
	}
	r.state = StateFailed
	if err := r.writeFrame(models.StreamFrame{Error: MsgStreamFailed}); err != nil {
		r.canceled = true
	}
	return fmt.Errorf("%w after %d fragments: %w", ErrStreamInterrupted, r.fragments, cause)
}

func (r *Relay) stop(cause error) error {
	r.state = StateFailed
	r.canceled = true
	return fmt.Errorf("client gone: %w", cause)
}

func (r *Relay) writeFrame(frame models.StreamFrame) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	return r.writeRaw(string(data))
}

func (r *Relay) writeRaw(data string) error {
	if _, err := fmt.Fprintf(r.w, "data: %s\n\n", data); err != nil {
		return err
	}
	if r.flush != nil {
		return r.flush()
	}
	return nil
}
