package models

import "time"

// QuestionStatus is the outcome recorded for a handled question.
type QuestionStatus string

const (
	StatusCompleted QuestionStatus = "completed"
	StatusFailed    QuestionStatus = "failed"
)

// QuestionLog is one handled question as stored in the question log.
type QuestionLog struct {
	ID              string         `json:"id"`
	Question        string         `json:"question"`
	Answer          string         `json:"answer,omitempty"`
	Category        Category       `json:"category"`
	Status          QuestionStatus `json:"status"`
	Sources         []string       `json:"sources"`
	Streamed        bool           `json:"streamed"`
	LatencyMS       int64          `json:"latency_ms"`
	Feedback        string         `json:"feedback,omitempty"`
	FeedbackComment string         `json:"feedback_comment,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// LogStats summarizes the question log for status output.
type LogStats struct {
	Questions  int64              `json:"questions"`
	Failed     int64              `json:"failed"`
	Positive   int64              `json:"positive_feedback"`
	Negative   int64              `json:"negative_feedback"`
	ByCategory map[Category]int64 `json:"by_category"`
}
