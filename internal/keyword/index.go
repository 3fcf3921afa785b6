// Package keyword provides the full-text index behind the listing endpoints' q filter.
package keyword

import (
	"context"

	"github.com/hyperjump/campusbot/internal/models"
)

// ListingIndex finds reference records whose label or body match a free-text query.
type ListingIndex interface {
	// Search returns the ids of domain's records matching query. An empty query returns nil,
	// which callers treat as "no filter".
	Search(ctx context.Context, domain models.Domain, query string) (map[int]bool, error)
	// DocCount returns the total number of indexed records.
	DocCount() (uint64, error)
	Close() error
}
