package usecase

import (
	"context"

	"search-service/internal/contextkeys"
	"search-service/internal/core/domain"
	"search-service/internal/core/port"

	"github.com/google/uuid"
)

type UpdateSavedSearchUseCase struct {
	repo port.SavedSearchRepositoryPort
}

func NewUpdateSavedSearchUseCase(repo port.SavedSearchRepositoryPort) *UpdateSavedSearchUseCase {
	return &UpdateSavedSearchUseCase{repo: repo}
}

// Execute применяет частичное обновление сохраненного поиска.
// Новый фильтр и каденция проходят ту же валидацию, что и при создании.
// last_fired_at через этот путь изменить нельзя - им управляет
// только планировщик уведомлений.
func (uc *UpdateSavedSearchUseCase) Execute(ctx context.Context, id, ownerID uuid.UUID, upd domain.SavedSearchUpdate) (*domain.SavedSearch, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{
		"use_case":        "UpdateSavedSearch",
		"saved_search_id": id,
		"owner_id":        ownerID,
	})

	ucLogger.Info("Use case started", nil)

	if upd.Name != nil && *upd.Name == "" {
		ucLogger.Warn("Update rejected: empty name", nil)
		return nil, domain.NewValidationError("name", "must not be empty")
	}
	if upd.Cadence != nil && !upd.Cadence.IsValid() {
		ucLogger.Warn("Update rejected: unknown cadence", port.Fields{"cadence": *upd.Cadence})
		return nil, domain.NewValidationError("cadence", "must be one of daily, weekly, monthly")
	}
	if upd.Filter != nil {
		if _, err := domain.ValidateFilterDocument(*upd.Filter); err != nil {
			ucLogger.Warn("Update rejected: invalid filter", port.Fields{"reason": err.Error()})
			return nil, err
		}
	}

	search, err := uc.repo.Update(ctx, id, ownerID, upd)
	if err != nil {
		ucLogger.Error("Failed to update saved search", err, nil)
		return nil, err
	}

	ucLogger.Info("Use case finished successfully", nil)
	return search, nil
}
