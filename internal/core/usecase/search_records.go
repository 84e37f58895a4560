package usecase

import (
	"context"

	"search-service/internal/contextkeys"
	"search-service/internal/core/domain"
	"search-service/internal/core/port"
)

type SearchRecordsUseCase struct {
	engine *filterEngine
}

func NewSearchRecordsUseCase(recordStore port.RecordStorePort) *SearchRecordsUseCase {
	return &SearchRecordsUseCase{engine: newFilterEngine(recordStore)}
}

// Execute выполняет разовый поиск по "сырому" документу фильтра.
// Невалидный документ отклоняется целиком - частичного выполнения нет.
func (uc *SearchRecordsUseCase) Execute(ctx context.Context, doc domain.FilterDocument) (*domain.SearchResultSet, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{
		"use_case": "SearchRecords",
	})

	ucLogger.Info("Use case started", nil)

	vf, err := domain.ValidateFilterDocument(doc)
	if err != nil {
		ucLogger.Warn("Filter document rejected", port.Fields{"reason": err.Error()})
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
