package domain

import (
	"sort"
	"strings"
)

// SortKey - поле сортировки результатов поиска
type SortKey string

const (
	SortByPrice       SortKey = "price"
	SortByRent        SortKey = "rent"
	SortByPriceChange SortKey = "priceChange"
	SortByRentChange  SortKey = "rentChange"
	SortByDate        SortKey = "date"
)

// SortDirection - направление сортировки
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Range - необязательная числовая граница {min, max}, обе включительно.
// nil-указатель означает "не ограничено" - это НЕ то же самое, что граница 0.
type Range struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// IsZero - true, если обе границы отсутствуют.
func (r Range) IsZero() bool {
	return r.Min == nil && r.Max == nil
}

// FilterDocument - набор предикатов, составленный пользователем.
// Все поля необязательны и комбинируются по И. В таком "сыром" виде
// документ хранится в saved_searches; перед выполнением он ОБЯЗАН
// пройти через ValidateFilterDocument.
type FilterDocument struct {
	Regions                []string `json:"regions,omitempty"`
	PriceRange             *Range   `json:"price_range,omitempty"`
	RentRange              *Range   `json:"rent_range,omitempty"`
	ChangeRange            *Range   `json:"change_range,omitempty"` // изменение год к году, проценты
	AffordabilityThreshold *float64 `json:"affordability_threshold,omitempty"`
	DataType               string   `json:"data_type,omitempty"` // housing | rent | trends | "" (все)
	SortKey                string   `json:"sort_key,omitempty"`
	SortDirection          string   `json:"sort_direction,omitempty"`
	PageSize               *int     `json:"page_size,omitempty"`
	PageOffset             *int     `json:"page_offset,omitempty"`
}

// ValidatedFilter - результат успешной валидации FilterDocument.
// После этой границы "сырой" документ дальше не передается.
type ValidatedFilter struct {
	Regions                []string // верхний регистр, без дубликатов, отсортированы; nil = без ограничения
	PriceRange             Range
	RentRange              Range
	ChangeRange            Range
	AffordabilityThreshold *float64
	DataType               RecordKind // "" = все виды
	SortKey                SortKey
	SortDirection          SortDirection
	PageSize               int
	PageOffset             int
}

// ValidateFilterDocument проверяет и нормализует документ фильтра.
// Инвертированные диапазоны (min > max) отклоняются - никогда не
// переставляются и не обрезаются молча.
func ValidateFilterDocument(doc FilterDocument) (*ValidatedFilter, error) {
	vf := &ValidatedFilter{
		SortKey:       SortByDate,
		SortDirection: SortDesc,
		PageSize:      DefaultPageSize,
		PageOffset:    0,
	}

	if err := validateRange("price_range", doc.PriceRange); err != nil {
		return nil, err
	}
	if err := validateRange("rent_range", doc.RentRange); err != nil {
		return nil, err
	}
	if err := validateRange("change_range", doc.ChangeRange); err != nil {
		return nil, err
	}

	if doc.PriceRange != nil {
		vf.PriceRange = *doc.PriceRange
	}
	if doc.RentRange != nil {
		vf.RentRange = *doc.RentRange
	}
	if doc.ChangeRange != nil {
		if doc.ChangeRange.Min != nil && (*doc.ChangeRange.Min < -100 || *doc.ChangeRange.Min > 100) {
			return nil, NewValidationError("change_range", "bounds must be within [-100, 100]")
		}
		if doc.ChangeRange.Max != nil && (*doc.ChangeRange.Max < -100 || *doc.ChangeRange.Max > 100) {
			return nil, NewValidationError("change_range", "bounds must be within [-100, 100]")
		}
		vf.ChangeRange = *doc.ChangeRange
	}

	if doc.AffordabilityThreshold != nil {
		if *doc.AffordabilityThreshold < 0 || *doc.AffordabilityThreshold > 100 {
			return nil, NewValidationError("affordability_threshold", "must be within [0, 100]")
		}
		threshold := *doc.AffordabilityThreshold
		vf.AffordabilityThreshold = &threshold
	}

	if doc.DataType != "" {
		if !IsValidRecordKind(doc.DataType) {
			return nil, NewValidationError("data_type", "must be one of housing, rent, trends")
		}
		vf.DataType = RecordKind(doc.DataType)
	}

	if doc.SortKey != "" {
		switch SortKey(doc.SortKey) {
		case SortByPrice, SortByRent, SortByPriceChange, SortByRentChange, SortByDate:
			vf.SortKey = SortKey(doc.SortKey)
		default:
			return nil, NewValidationError("sort_key", "must be one of price, rent, priceChange, rentChange, date")
		}
	}

	if doc.SortDirection != "" {
		switch SortDirection(doc.SortDirection) {
		case SortAsc, SortDesc:
			vf.SortDirection = SortDirection(doc.SortDirection)
		default:
			return nil, NewValidationError("sort_direction", "must be asc or desc")
		}
	}

	if doc.PageSize != nil {
		if *doc.PageSize < 1 || *doc.PageSize > MaxPageSize {
			return nil, NewValidationError("page_size", "must be within [1, 100]")
		}
		vf.PageSize = *doc.PageSize
	}
	if doc.PageOffset != nil {
		if *doc.PageOffset < 0 {
			return nil, NewValidationError("page_offset", "must be >= 0")
		}
		vf.PageOffset = *doc.PageOffset
	}

	vf.Regions = normalizeRegions(doc.Regions)

	return vf, nil
}

// validateRange проверяет только взаимное расположение границ.
// Отсутствующая граница остается "не ограничено" - никакого неявного нуля.
func validateRange(field string, r *Range) error {
	if r == nil {
		return nil
	}
	if r.Min != nil && r.Max != nil && *r.Min > *r.Max {
		return NewValidationError(field, "min must not exceed max")
	}
	return nil
}

// normalizeRegions приводит регионы к верхнему регистру, убирает дубликаты и
// пустые строки. Пустой набор эквивалентен отсутствию ограничения по региону.
func normalizeRegions(regions []string) []string {
	if len(regions) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(regions))
	normalized := make([]string, 0, len(regions))
	for _, region := range regions {
		region = strings.ToUpper(strings.TrimSpace(region))
		if region == "" {
			continue
		}
		if _, ok := seen[region]; ok {
			continue
		}
		seen[region] = struct{}{}
		normalized = append(normalized, region)
	}
	if len(normalized) == 0 {
		return nil
	}
	// Сортируем для детерминизма (одинаковые документы -> одинаковые запросы)
	sort.Strings(normalized)
	return normalized
}

// Kinds возвращает виды записей, которые затрагивает фильтр:
// конкретный вид при заданном dataType, иначе все три.
func (vf *ValidatedFilter) Kinds() []RecordKind {
	if vf.DataType != "" {
		return []RecordKind{vf.DataType}
	}
	kinds := make([]RecordKind, len(AllRecordKinds))
	copy(kinds, AllRecordKinds)
	return kinds
}

// RecordPredicate - предикат для хранилища записей по ОДНОМУ виду.
// Границы уже сужены до применимых к этому виду полей.
type RecordPredicate struct {
	Kind             RecordKind
	Regions          []string
	PriceMin         *float64
	PriceMax         *float64
	RentMin          *float64
	RentMax          *float64
	ChangeMin        *float64
	ChangeMax        *float64
	AffordabilityMin *float64
	SortKey          SortKey
	SortDirection    SortDirection
}

// PredicateForKind строит предикат для одного вида записей.
// Ценовой диапазон фильтрует только housing-записи, арендный - только
// rent-записи; диапазон изменения применяется к полю изменения,
// релевантному виду (цена для housing/trends, аренда для rent).
func (vf *ValidatedFilter) PredicateForKind(kind RecordKind) RecordPredicate {
	p := RecordPredicate{
		Kind:             kind,
		Regions:          vf.Regions,
		AffordabilityMin: vf.AffordabilityThreshold,
		SortKey:          vf.SortKey,
		SortDirection:    vf.SortDirection,
	}

	switch kind {
	case KindHousing:
		p.PriceMin = vf.PriceRange.Min
		p.PriceMax = vf.PriceRange.Max
		p.ChangeMin = vf.ChangeRange.Min
		p.ChangeMax = vf.ChangeRange.Max
	case KindRent:
		p.RentMin = vf.RentRange.Min
		p.RentMax = vf.RentRange.Max
		p.ChangeMin = vf.ChangeRange.Min
		p.ChangeMax = vf.ChangeRange.Max
	case KindTrends:
		p.ChangeMin = vf.ChangeRange.Min
		p.ChangeMax = vf.ChangeRange.Max
	}

	return p
}
