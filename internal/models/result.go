package models

import (
	"bytes"
	"encoding/json"
)

// Source names a reference domain cited by an answer.
type Source struct {
	Name string `json:"name"`
}

// ChatRequest is the body accepted by the chat endpoints. Either field may carry the question.
// Raw values are kept so that non-string inputs can be rejected rather than coerced.
type ChatRequest struct {
	Message  json.RawMessage `json:"message,omitempty"`
	Question json.RawMessage `json:"question,omitempty"`
}

// NewChatRequest builds a request carrying question in the message field.
func NewChatRequest(question string) ChatRequest {
	raw, _ := json.Marshal(question)
	return ChatRequest{Message: raw}
}

// Candidate returns the first field holding a truthy JSON value, or nil when neither does.
func (r ChatRequest) Candidate() json.RawMessage {
	for _, raw := range []json.RawMessage{r.Message, r.Question} {
		if truthy(raw) {
			return raw
		}
	}
	return nil
}

func truthy(raw json.RawMessage) bool {
	v := bytes.TrimSpace(raw)
	switch string(v) {
	case "", "null", "false", `""`, "0":
		return false
	}
	return true
}

// ChatResponse is the synchronous chat reply.
type ChatResponse struct {
	Answer    string   `json:"answer"`
	Sources   []Source `json:"sources"`
	Category  string   `json:"category"`
	MessageID string   `json:"message_id,omitempty"`
}

// StreamFrame is one event-stream payload. Exactly one field is set.
type StreamFrame struct {
	Text  string `json:"text,omitempty"`
	Error string `json:"error,omitempty"`
}

// Feedback values accepted for a logged answer.
const (
	FeedbackPositive = "positive"
	FeedbackNegative = "negative"
)

// FeedbackRequest rates a previously logged answer.
type FeedbackRequest struct {
	MessageID string `json:"message_id"`
	Feedback  string `json:"feedback"`
	Comment   string `json:"comment,omitempty"`
}
