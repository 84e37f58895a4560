package usecases_port

import (
	"context"

	"search-service/internal/core/domain"

	"github.com/google/uuid"
)

type UpdateSavedSearchUseCasePort interface {
	Execute(ctx context.Context, id, ownerID uuid.UUID, upd domain.SavedSearchUpdate) (*domain.SavedSearch, error)
}
