package usecases_port

import (
	"context"

	"search-service/internal/core/domain"

	"github.com/google/uuid"
)

// PaginatedSavedSearches - страница сохраненных поисков владельца.
type PaginatedSavedSearches struct {
	Searches     []domain.SavedSearch
	TotalCount   int64
	CurrentPage  int
	ItemsPerPage int
}

type ListSavedSearchesUseCasePort interface {
	Execute(ctx context.Context, ownerID uuid.UUID, limit, offset int) (*PaginatedSavedSearches, error)
}
