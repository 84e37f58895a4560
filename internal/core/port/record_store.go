package port

import (
	"context"

	"search-service/internal/core/domain"
)

// RecordStorePort - доступ к хранилищу записей о жилье/аренде/трендах.
// Хранилище принадлежит другому сервису; здесь только чтение по предикату.
// Реализация обязана гарантировать стабильный порядок: сортировка по
// ключу предиката, одинаковые значения добиваются по id ASC, чтобы
// пагинация была детерминированной на неизменных данных.
type RecordStorePort interface {
	// FindByPredicate возвращает страницу записей: limit/offset применяются
	// ПОСЛЕ сортировки, никогда до нее.
	FindByPredicate(ctx context.Context, p domain.RecordPredicate, limit, offset int) ([]domain.Record, error)

	// Count - размер полного совпавшего набора (без пагинации).
	Count(ctx context.Context, p domain.RecordPredicate) (int64, error)

	// Aggregate - сводка по полному совпавшему набору. Пустой набор - это
	// не ошибка: возвращается сводка с Count == 0 и нулевыми полями.
	Aggregate(ctx context.Context, p domain.RecordPredicate) (*domain.AggregateSummary, error)
}
