package usecases_port

import (
	"context"

	"search-service/internal/core/domain"

	"github.com/google/uuid"
)

type ExecuteSavedSearchUseCasePort interface {
	Execute(ctx context.Context, id, ownerID uuid.UUID) (*domain.SearchResultSet, error)
}
