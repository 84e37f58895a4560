package usecases_port

import (
	"context"

	"github.com/google/uuid"
)

type DeleteSavedSearchUseCasePort interface {
	Execute(ctx context.Context, id, ownerID uuid.UUID) error
}
