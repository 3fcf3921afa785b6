// Package storage persists the question log and user feedback.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/campusbot/internal/models"
)

// ErrNotFound is returned when a question log entry does not exist.
var ErrNotFound = errors.New("question not found")

// QuestionLog defines question log persistence operations.
type QuestionLog interface {
	RecordQuestion(ctx context.Context, entry *models.QuestionLog) error
	GetQuestion(ctx context.Context, id string) (*models.QuestionLog, error)
	ListQuestions(ctx context.Context, offset, limit int) ([]*models.QuestionLog, error)

	// SetFeedback stores feedback for an entry, replacing any earlier feedback.
	SetFeedback(ctx context.Context, id, feedback, comment string) error

	Stats(ctx context.Context) (*models.LogStats, error)

	Close() error
}
