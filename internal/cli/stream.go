package cli

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/hyperjump/campusbot/internal/models"
)

// ErrStreamTruncated is returned when an event stream ends without a terminal frame.
var ErrStreamTruncated = errors.New("event stream ended before [DONE]")

// StreamError is the error frame sent by the server when generation fails mid-stream.
type StreamError struct {
	Message string
}

func (e *StreamError) Error() string {
	return "stream failed: " + e.Message
}

// ReadEventStream reads data frames from r and calls onText for each text fragment.
// It returns nil after the [DONE] frame and a *StreamError after an error frame.
func ReadEventStream(r io.Reader, onText func(string)) error {
	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadBytes('\n')
		if len(line) > 0 {
			data, ok := bytes.CutPrefix(bytes.TrimRight(line, "\r\n"), []byte("data:"))
			if ok {
				data = bytes.TrimSpace(data)
				if bytes.Equal(data, []byte("[DONE]")) {
					return nil
				}
				var frame models.StreamFrame
				if jsonErr := json.Unmarshal(data, &frame); jsonErr != nil {
					return fmt.Errorf("decode frame %q: %w", data, jsonErr)
				}
				if frame.Error != "" {
					return &StreamError{Message: frame.Error}
				}
				onText(frame.Text)
			}
		}
		if err == io.EOF {
			return ErrStreamTruncated
		}
		if err != nil {
			return fmt.Errorf("read event stream: %w", err)
		}
	}
}
