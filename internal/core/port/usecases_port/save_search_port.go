package usecases_port

import (
	"context"

	"search-service/internal/core/domain"

	"github.com/google/uuid"
)

// SaveSearchInput - параметры создания сохраненного поиска.
type SaveSearchInput struct {
	Name                 string
	Description          string
	Filter               domain.FilterDocument
	NotificationsEnabled bool
	Cadence              domain.Cadence
}

type SaveSearchUseCasePort interface {
	Execute(ctx context.Context, ownerID uuid.UUID, input SaveSearchInput) (*domain.SavedSearch, error)
}
