package usecases_port

import (
	"context"

	"search-service/internal/core/domain"
)

type SearchRecordsUseCasePort interface {
	Execute(ctx context.Context, doc domain.FilterDocument) (*domain.SearchResultSet, error)
}
