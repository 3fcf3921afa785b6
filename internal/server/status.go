package server

import (
	"context"
	"fmt"

	"github.com/hyperjump/campusbot/internal/config"
	"github.com/hyperjump/campusbot/internal/keyword"
	"github.com/hyperjump/campusbot/internal/models"
	"github.com/hyperjump/campusbot/internal/reference"
	"github.com/hyperjump/campusbot/internal/storage"
)

// Status is the shape of GET /api/status.
type Status struct {
	Records        map[string]int   `json:"records"`
	LLM            LLMStatus        `json:"llm"`
	IndexedRecords uint64           `json:"indexed_records"`
	QuestionLog    *models.LogStats `json:"question_log,omitempty"`
	DiskUsageBytes *int64           `json:"disk_usage_bytes,omitempty"`
}

// LLMStatus describes the configured answer generator.
type LLMStatus struct {
	Provider  string `json:"provider"`
	Model     string `json:"model"`
	Generator string `json:"generator"`
}

// CollectStatus gathers record counts, generator settings and question log statistics.
// questions may be nil.
func CollectStatus(ctx context.Context, store *reference.Store, index keyword.ListingIndex,
	questions storage.QuestionLog, cfg *config.Config, generator string) (*Status, error) {
	st := &Status{
		Records: make(map[string]int),
		LLM: LLMStatus{
			Provider:  cfg.LLM.Provider,
			Model:     cfg.LLM.Model,
			Generator: generator,
		},
	}
	for d, n := range store.Counts() {
		st.Records[string(d)] = n
	}
	n, err := index.DocCount()
	if err != nil {
		return nil, fmt.Errorf("count indexed records: %w", err)
	}
	st.IndexedRecords = n

	if questions != nil {
		stats, err := questions.Stats(ctx)
		if err != nil {
			return nil, fmt.Errorf("question log stats: %w", err)
		}
		st.QuestionLog = stats
		if diskBytes, err := storage.DiskUsageBytes(storage.DatabaseFiles(cfg.Storage.DatabasePath)...); err == nil {
			st.DiskUsageBytes = &diskBytes
		}
	}
	return st, nil
}
