// Package cli provides CLI utilities for campusbot.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hyperjump/campusbot/internal/classifier"
	"github.com/hyperjump/campusbot/internal/models"
	"github.com/hyperjump/campusbot/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat maps a --output flag value to an OutputFormat.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case OutputText, OutputJSON:
		return OutputFormat(s), nil
	}
	return "", fmt.Errorf("unknown output format %q; use text or json", s)
}

// WriteAnswer writes a chat answer to w in the given format.
func WriteAnswer(w io.Writer, resp *models.ChatResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, resp)
	}
	fmt.Fprintf(w, "%s\n\n", resp.Answer)
	writeFooter(w, resp.Category, resp.Sources, resp.MessageID)
	return nil
}

func writeFooter(w io.Writer, category string, sources []models.Source, messageID string) {
	names := make([]string, 0, len(sources))
	for _, s := range sources {
		names = append(names, s.Name)
	}
	fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
	fmt.Fprintf(w, "category: %s\n", category)
	if len(names) > 0 {
		fmt.Fprintf(w, "sources:  %s\n", strings.Join(names, ", "))
	}
	if messageID != "" {
		fmt.Fprintf(w, "message:  %s\n", messageID)
	}
}

// Classification is the classify command's result.
type Classification struct {
	Question string             `json:"question"`
	Category models.Category    `json:"category"`
	Label    string             `json:"label"`
	Scores   []classifier.Score `json:"scores"`
}

// Classify scores question against every category.
func Classify(question string) *Classification {
	category := classifier.Classify(question)
	return &Classification{
		Question: question,
		Category: category,
		Label:    category.Label(),
		Scores:   classifier.Scores(question),
	}
}

// WriteClassification writes c to w in the given format.
func WriteClassification(w io.Writer, c *Classification, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, c)
	}
	fmt.Fprintf(w, "question: %s\n", utils.Truncate(c.Question, 80))
	fmt.Fprintf(w, "category: %s (%s)\n\n", c.Category, c.Label)
	for _, s := range c.Scores {
		fmt.Fprintf(w, "  %-14s %d", s.Category, s.Score)
		if len(s.Matched) > 0 {
			fmt.Fprintf(w, "  [%s]", strings.Join(s.Matched, ", "))
		}
		fmt.Fprintln(w)
	}
	return nil
}

// PrintAnswer prints resp to stdout in text format.
func PrintAnswer(resp *models.ChatResponse) {
	_ = WriteAnswer(os.Stdout, resp, OutputText)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// TruncateWords returns up to maxWords from the space-separated string.
func TruncateWords(s string, maxWords int) string {
	words := strings.Fields(s)
	if len(words) <= maxWords {
		return s
	}
	return strings.Join(words[:maxWords], " ") + "..."
}
