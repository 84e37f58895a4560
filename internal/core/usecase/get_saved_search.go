package usecase

import (
	"context"

	"search-service/internal/contextkeys"
	"search-service/internal/core/domain"
	"search-service/internal/core/port"

	"github.com/google/uuid"
)

type GetSavedSearchUseCase struct {
	repo port.SavedSearchRepositoryPort
}

func NewGetSavedSearchUseCase(repo port.SavedSearchRepositoryPort) *GetSavedSearchUseCase {
	return &GetSavedSearchUseCase{repo: repo}
}

// Execute возвращает сохраненный поиск владельца. Чужой или несуществующий
// id дает одинаковый domain.ErrSavedSearchNotFound.
func (uc *GetSavedSearchUseCase) Execute(ctx context.Context, id, ownerID uuid.UUID) (*domain.SavedSearch, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{
		"use_case":        "GetSavedSearch",
		"saved_search_id": id,
		"owner_id":        ownerID,
	})

	ucLogger.Info("Use case started", nil)

	search, err := uc.repo.FindByID(ctx, id, ownerID)
	if err != nil {
		ucLogger.Error("Repository returned an error", err, nil)
		return nil, err
	}

	ucLogger.Info("Use case finished successfully", nil)
	return search, nil
}
