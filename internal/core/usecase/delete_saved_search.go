package usecase

import (
	"context"

	"search-service/internal/contextkeys"
	"search-service/internal/core/port"

	"github.com/google/uuid"
)

type DeleteSavedSearchUseCase struct {
	repo port.SavedSearchRepositoryPort
}

func NewDeleteSavedSearchUseCase(repo port.SavedSearchRepositoryPort) *DeleteSavedSearchUseCase {
	return &DeleteSavedSearchUseCase{repo: repo}
}

func (uc *DeleteSavedSearchUseCase) Execute(ctx context.Context, id, ownerID uuid.UUID) error {
	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{
		"use_case":        "DeleteSavedSearch",
		"saved_search_id": id,
		"owner_id":        ownerID,
	})

	ucLogger.Info("Use case started", nil)

	if err := uc.repo.Delete(ctx, id, ownerID); err != nil {
		ucLogger.Error("Repository returned an error", err, nil)
		return err
	}

	ucLogger.Info("Use case finished successfully", nil)
	return nil
}
