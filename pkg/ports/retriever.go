package ports

import (
	"context"

	"github.com/espalier-ai/espalier/pkg/domain"
)

// SearchFilters narrows a retrieval query.
type SearchFilters struct {
	Subject    domain.Subject
	Level      domain.Level
	MaxResults int
}

// Retriever is the boundary to an external resource search backend. Zero
// results are a valid outcome and must be returned as an empty slice, not an
// error.
type Retriever interface {
	Search(ctx context.Context, query string, filters SearchFilters) ([]domain.Resource, error)
}
