package postgres

import (
	"fmt"
	"strings"

	"search-service/internal/core/domain"
)

type queryBuilder struct {
	conditions []string
	args       []interface{}
	argId      int
}

func newQueryBuilder() *queryBuilder {
	return &queryBuilder{
		argId:      1,
		conditions: make([]string, 0),
		args:       make([]interface{}, 0),
	}
}

func (qb *queryBuilder) addCondition(condition string, fieldName string, arg interface{}) {
	qb.conditions = append(qb.conditions, fmt.Sprintf(condition, fieldName, qb.argId))
	qb.args = append(qb.args, arg)
	qb.argId++
}

// AddFloatFilter принимает указатели: nil-граница означает "не ограничено"
// и в запрос не попадает вовсе (никакого неявного нуля).
func (qb *queryBuilder) AddFloatFilter(fieldName string, min *float64, max *float64) {
	if min != nil {
		qb.addCondition("%s >= $%d", fieldName, *min)
	}
	if max != nil {
		qb.addCondition("%s <= $%d", fieldName, *max)
	}
}

// build создает финальную WHERE-часть запроса
func (qb *queryBuilder) build() (string, []interface{}) {
	whereClause := ""
	if len(qb.conditions) > 0 {
		whereClause = "WHERE " + strings.Join(qb.conditions, " AND ")
	}
	return whereClause, qb.args
}

// applyPredicate разбирает предикат одного вида записей и строит WHERE.
// Все условия комбинируются по И.
func applyPredicate(p domain.RecordPredicate) (string, []interface{}) {
	qb := newQueryBuilder()

	qb.addCondition("%s = $%d", "r.kind", string(p.Kind))

	if len(p.Regions) > 0 {
		qb.addCondition("%s = ANY($%d)", "r.region", p.Regions)
	}

	qb.AddFloatFilter("r.price", p.PriceMin, p.PriceMax)
	qb.AddFloatFilter("r.rent", p.RentMin, p.RentMax)

	// Диапазон изменения уже сужен до релевантного виду поля
	switch p.Kind {
	case domain.KindRent:
		qb.AddFloatFilter("r.rent_change_pct", p.ChangeMin, p.ChangeMax)
	default:
		qb.AddFloatFilter("r.price_change_pct", p.ChangeMin, p.ChangeMax)
	}

	qb.AddFloatFilter("r.affordability_index", p.AffordabilityMin, nil)

	return qb.build()
}

// sortColumn переводит ключ сортировки в имя колонки.
// Неизвестный ключ невозможен после валидации фильтра, но запас на
// случай прямого вызова оставлен: падаем обратно на дату.
func sortColumn(key domain.SortKey) string {
	switch key {
	case domain.SortByPrice:
		return "r.price"
	case domain.SortByRent:
		return "r.rent"
	case domain.SortByPriceChange:
		return "r.price_change_pct"
	case domain.SortByRentChange:
		return "r.rent_change_pct"
	case domain.SortByDate:
		return "r.recorded_at"
	}
	return "r.recorded_at"
}

// orderByClause строит детерминированную сортировку: по ключу предиката,
// равные значения добиваются по id ASC, чтобы пагинация была стабильной.
func orderByClause(p domain.RecordPredicate) string {
	direction := "ASC"
	if p.SortDirection == domain.SortDesc {
		direction = "DESC"
	}
	return fmt.Sprintf("ORDER BY %s %s, r.id ASC", sortColumn(p.SortKey), direction)
}
