package usecase

import (
	"context"

	"search-service/internal/contextkeys"
	"search-service/internal/core/domain"
	"search-service/internal/core/port"

	"github.com/google/uuid"
)

type ExecuteSavedSearchUseCase struct {
	repo   port.SavedSearchRepositoryPort
	engine *filterEngine
}

func NewExecuteSavedSearchUseCase(repo port.SavedSearchRepositoryPort, recordStore port.RecordStorePort) *ExecuteSavedSearchUseCase {
	return &ExecuteSavedSearchUseCase{
		repo:   repo,
		engine: newFilterEngine(recordStore),
	}
}

// Execute выполняет сохраненный поиск по требованию владельца.
// Хранимый документ фильтра валидируется заново: правила могли
// ужесточиться после того, как поиск был сохранен.
func (uc *ExecuteSavedSearchUseCase) Execute(ctx context.Context, id, ownerID uuid.UUID) (*domain.SearchResultSet, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{
		"use_case":        "ExecuteSavedSearch",
		"saved_search_id": id,
		"owner_id":        ownerID,
	})

	ucLogger.Info("Use case started", nil)

	search, err := uc.repo.FindByID(ctx, id, ownerID)
	if err != nil {
		ucLogger.Error("Repository returned an error", err, nil)
		return nil, err
	}

	vf, err := domain.ValidateFilterDocument(search.Filter)
	if err != nil {
		ucLogger.Warn("Stored filter no longer valid", port.Fields{"reason": err.Error()})
		return nil, err
	}

	resultSet, err := uc.engine.execute(ctx, vf)
	if err != nil {
		ucLogger.Error("Failed to execute filter", err, nil)
		return nil, err
	}

	ucLogger.Info("Use case finished successfully", port.Fields{
		"total_matched": resultSet.TotalMatched(),
	})
	return resultSet, nil
}
