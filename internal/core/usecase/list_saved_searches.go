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

type ListSavedSearchesUseCase struct {
	repo port.SavedSearchRepositoryPort
}

func NewListSavedSearchesUseCase(repo port.SavedSearchRepositoryPort) *ListSavedSearchesUseCase {
	return &ListSavedSearchesUseCase{repo: repo}
}

func (uc *ListSavedSearchesUseCase) Execute(ctx context.Context, ownerID uuid.UUID, limit, offset int) (*usecases_port.PaginatedSavedSearches, error) {
	// Порт безопасен сам по себе: REST-слой лимит уже зажимает,
	// но прямые вызовы - не обязательно.
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{
		"use_case": "ListSavedSearches",
		"owner_id": ownerID,
		"limit":    limit,
		"offset":   offset,
	})

	ucLogger.Info("Use case started", nil)

	searches, totalCount, err := uc.repo.FindAllByOwner(ctx, ownerID, limit, offset)
	if err != nil {
		ucLogger.Error("Failed to list saved searches", err, nil)
		return nil, fmt.Errorf("failed to list saved searches: %w", err)
	}
	if searches == nil {
		searches = []domain.SavedSearch{}
	}

	result := &usecases_port.PaginatedSavedSearches{
		Searches:     searches,
		TotalCount:   totalCount,
		CurrentPage:  offset/limit + 1,
		ItemsPerPage: limit,
	}

	ucLogger.Info("Use case finished successfully", port.Fields{
		"total_count":  totalCount,
		"ids_on_page":  len(searches),
		"current_page": result.CurrentPage,
	})
	return result, nil
}
