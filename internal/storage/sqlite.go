package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/campusbot/internal/models"
)

// SQLiteStorage implements QuestionLog using SQLite.
type SQLiteStorage struct {
	db   *sql.DB
	path string
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db, path: dbPath}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS question_logs (
		id TEXT PRIMARY KEY,
		question TEXT NOT NULL,
		answer TEXT,
		category TEXT,
		status TEXT NOT NULL,
		sources TEXT,
		streamed INTEGER NOT NULL DEFAULT 0,
		latency_ms INTEGER NOT NULL DEFAULT 0,
		feedback TEXT,
		feedback_comment TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_question_logs_created_at ON question_logs(created_at);
	CREATE INDEX IF NOT EXISTS idx_question_logs_category ON question_logs(category);
	`
	_, err := db.Exec(schema)
	return err
}

// Path returns the database file path.
func (s *SQLiteStorage) Path() string {
	return s.path
}

// RecordQuestion inserts a question log entry. An empty ID is replaced with a new UUID.
func (s *SQLiteStorage) RecordQuestion(ctx context.Context, entry *models.QuestionLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	sources := entry.Sources
	if sources == nil {
		sources = []string{}
	}
	sourcesJSON, err := json.Marshal(sources)
	if err != nil {
		return fmt.Errorf("failed to marshal sources: %w", err)
	}

	now := time.Now()
	entry.CreatedAt = now
	entry.UpdatedAt = now

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO question_logs (id, question, answer, category, status, sources, streamed, latency_ms, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Question, entry.Answer, string(entry.Category), string(entry.Status),
		string(sourcesJSON), entry.Streamed, entry.LatencyMS, entry.CreatedAt, entry.UpdatedAt,
	)
	return err
}

const selectColumns = `SELECT id, question, COALESCE(answer, ''), COALESCE(category, ''), status, COALESCE(sources, '[]'),
	streamed, latency_ms, COALESCE(feedback, ''), COALESCE(feedback_comment, ''), created_at, updated_at
	FROM question_logs`

type scanner interface {
	Scan(dest ...any) error
}

func scanQuestion(row scanner) (*models.QuestionLog, error) {
	var entry models.QuestionLog
	var category, status, sourcesJSON string
	if err := row.Scan(&entry.ID, &entry.Question, &entry.Answer, &category, &status, &sourcesJSON,
		&entry.Streamed, &entry.LatencyMS, &entry.Feedback, &entry.FeedbackComment,
		&entry.CreatedAt, &entry.UpdatedAt); err != nil {
		return nil, err
	}
	entry.Category = models.Category(category)
	entry.Status = models.QuestionStatus(status)
	if err := json.Unmarshal([]byte(sourcesJSON), &entry.Sources); err != nil {
		return nil, fmt.Errorf("failed to unmarshal sources: %w", err)
	}
	return &entry, nil
}

// GetQuestion returns a question log entry by ID.
func (s *SQLiteStorage) GetQuestion(ctx context.Context, id string) (*models.QuestionLog, error) {
	entry, err := scanQuestion(s.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// ListQuestions returns entries newest first with offset and limit.
func (s *SQLiteStorage) ListQuestions(ctx context.Context, offset, limit int) ([]*models.QuestionLog, error) {
	rows, err := s.db.QueryContext(ctx,
		selectColumns+` ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*models.QuestionLog
	for rows.Next() {
		entry, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// SetFeedback records feedback on an existing entry.
func (s *SQLiteStorage) SetFeedback(ctx context.Context, id, feedback, comment string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE question_logs SET feedback = ?, feedback_comment = ?, updated_at = ? WHERE id = ?`,
		feedback, comment, time.Now(), id,
	)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Stats returns totals over the whole log.
func (s *SQLiteStorage) Stats(ctx context.Context) (*models.LogStats, error) {
	stats := &models.LogStats{ByCategory: map[models.Category]int64{}}
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN feedback = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN feedback = ? THEN 1 ELSE 0 END), 0)
		 FROM question_logs`,
		string(models.StatusFailed), models.FeedbackPositive, models.FeedbackNegative,
	).Scan(&stats.Questions, &stats.Failed, &stats.Positive, &stats.Negative)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT COALESCE(category, ''), COUNT(*) FROM question_logs GROUP BY category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var category string
		var n int64
		if err := rows.Scan(&category, &n); err != nil {
			return nil, err
		}
		stats.ByCategory[models.Category(category)] = n
	}
	return stats, rows.Err()
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
