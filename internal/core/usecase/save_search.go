package usecase

import (
	"context"
	"fmt"

	"search-service/internal/contextkeys"
	"search-service/internal/core/domain"
	"search-service/internal/core/port"
	"search-service/internal/core/port/usecases_port"

	"github.com/google/uuid"
)

type SaveSearchUseCase struct {
	repo port.SavedSearchRepositoryPort
}

func NewSaveSearchUseCase(repo port.SavedSearchRepositoryPort) *SaveSearchUseCase {
	return &SaveSearchUseCase{repo: repo}
}

// Execute создает сохраненный поиск. Документ фильтра валидируется ДО
// записи: невалидный фильтр в хранилище попасть не должен.
func (uc *SaveSearchUseCase) Execute(ctx context.Context, ownerID uuid.UUID, input usecases_port.SaveSearchInput) (*domain.SavedSearch, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{
		"use_case": "SaveSearch",
		"owner_id": ownerID,
	})

	ucLogger.Info("Use case started", nil)

	if input.Name == "" {
		ucLogger.Warn("Saved search rejected: empty name", nil)
		return nil, domain.NewValidationError("name", "must not be empty")
	}
	if !input.Cadence.IsValid() {
		ucLogger.Warn("Saved search rejected: unknown cadence", port.Fields{"cadence": input.Cadence})
		return nil, domain.NewValidationError("cadence", "must be one of daily, weekly, monthly")
	}
	if _, err := domain.ValidateFilterDocument(input.Filter); err != nil {
		ucLogger.Warn("Saved search rejected: invalid filter", port.Fields{"reason": err.Error()})
		return nil, err
	}

	search := domain.NewSavedSearch(
		ownerID,
		input.Name,
		input.Description,
		input.Filter,
		input.NotificationsEnabled,
		input.Cadence,
	)

	if err := uc.repo.Create(ctx, search); err != nil {
		ucLogger.Error("Failed to create saved search", err, nil)
		return nil, fmt.Errorf("failed to create saved search: %w", err)
	}

	ucLogger.Info("Use case finished successfully", port.Fields{"saved_search_id": search.ID})
	return search, nil
}
