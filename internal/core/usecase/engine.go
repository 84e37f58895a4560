package usecase

import (
	"context"
	"fmt"

	"search-service/internal/core/domain"
	"search-service/internal/core/port"
)

// filterEngine - общий исполнитель проверенного фильтра. Его делят между
// собой разовый поиск, выполнение сохраненного поиска и тик планировщика,
// чтобы все три пути давали идентичные результаты на идентичных данных.
type filterEngine struct {
	recordStore port.RecordStorePort
}

func newFilterEngine(recordStore port.RecordStorePort) *filterEngine {
	return &filterEngine{recordStore: recordStore}
}

// execute выполняет фильтр по каждому затронутому виду записей.
// Для каждого вида: сводка и количество считаются по ПОЛНОМУ совпавшему
// набору, и только потом забирается страница limit/offset. Разные виды
// остаются отдельными последовательностями - между ними порядка нет.
func (e *filterEngine) execute(ctx context.Context, vf *domain.ValidatedFilter) (*domain.SearchResultSet, error) {
	resultSet := &domain.SearchResultSet{
		Kinds: make([]domain.KindResult, 0, len(vf.Kinds())),
	}

	for _, kind := range vf.Kinds() {
		predicate := vf.PredicateForKind(kind)

		aggregates, err := e.recordStore.Aggregate(ctx, predicate)
		if err != nil {
			return nil, fmt.Errorf("failed to aggregate %s records: %w", kind, err)
		}

		totalCount, err := e.recordStore.Count(ctx, predicate)
		if err != nil {
			return nil, fmt.Errorf("failed to count %s records: %w", kind, err)
		}

		records, err := e.recordStore.FindByPredicate(ctx, predicate, vf.PageSize, vf.PageOffset)
		if err != nil {
			return nil, fmt.Errorf("failed to find %s records: %w", kind, err)
		}
		if records == nil {
			records = []domain.Record{}
		}

		resultSet.Kinds = append(resultSet.Kinds, domain.KindResult{
			Kind:       kind,
			Records:    records,
			TotalCount: totalCount,
			Aggregates: *aggregates,
		})
	}

	return resultSet, nil
}
