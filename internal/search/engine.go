// Package search retrieves reference records that share keywords with a question.
package search

import (
	"github.com/hyperjump/campusbot/internal/models"
	"github.com/hyperjump/campusbot/internal/reference"
)

// DefaultLimit is the number of snippets returned when the caller passes no limit.
const DefaultLimit = 5

// Snippet is one retrieved record with the source label it is cited under.
type Snippet struct {
	Record models.FactRecord
	Source string
}

// Retriever matches questions against an immutable reference store. It holds no mutable state.
type Retriever struct {
	store        *reference.Store
	defaultLimit int
}

// NewRetriever creates a retriever over store. defaultLimit <= 0 selects DefaultLimit.
func NewRetriever(store *reference.Store, defaultLimit int) *Retriever {
	if defaultLimit <= 0 {
		defaultLimit = DefaultLimit
	}
	return &Retriever{store: store, defaultLimit: defaultLimit}
}

// Retrieve returns records from the category's domains whose label or body contains any
// question token. Results follow domain order, then record order, and are cut at limit
// (limit <= 0 selects the retriever's default). There is no ranking.
func (r *Retriever) Retrieve(question string, category models.Category, limit int) []Snippet {
	if limit <= 0 {
		limit = r.defaultLimit
	}
	tokens := Tokenize(question)
	if len(tokens) == 0 {
		return nil
	}
	var out []Snippet
	for _, d := range category.Domains() {
		for _, rec := range r.store.Records(d) {
			if !matchesAny(searchText(rec.Label(), rec.Body()), tokens) {
				continue
			}
			out = append(out, Snippet{Record: rec, Source: d.Label()})
			if len(out) == limit {
				return out
			}
		}
	}
	return out
}

// Sources returns the distinct source labels of snippets in first-seen order.
func Sources(snippets []Snippet) []models.Source {
	sources := []models.Source{}
	seen := make(map[string]bool)
	for _, s := range snippets {
		if seen[s.Source] {
			continue
		}
		seen[s.Source] = true
		sources = append(sources, models.Source{Name: s.Source})
	}
	return sources
}
