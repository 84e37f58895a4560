package domain

// AggregateSummary - сводка по ПОЛНОМУ совпавшему набору записей (до
// пагинации): количество и min/max/avg релевантного числового поля
// (цена для housing/trends, аренда для rent). Пустой набор - это не
// ошибка: Count == 0, остальные поля - нулевые значения-заглушки.
type AggregateSummary struct {
	Count int64   `json:"count"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Avg   float64 `json:"avg"`
}

// KindResult - страница записей одного вида плюс его сводка.
// При запросе без dataType разные виды возвращаются отдельными
// последовательностями: единого порядка между видами не существует.
type KindResult struct {
	Kind       RecordKind       `json:"kind"`
	Records    []Record         `json:"records"`
	TotalCount int64            `json:"total_count"`
	Aggregates AggregateSummary `json:"aggregates"`
}

// SearchResultSet - производное, нигде не хранимое значение: результат
// одного выполнения фильтра. Пересчитывается при каждом вызове.
type SearchResultSet struct {
	Kinds []KindResult `json:"kinds"`
}

// PrimarySummary возвращает сводку, используемую как базовая точка для
// дельты уведомлений: сводка вида, совпадающего с dataType фильтра, а при
// запросе по всем видам - сводка housing (ценовое поле как опорное).
func (rs *SearchResultSet) PrimarySummary(dataType RecordKind) AggregateSummary {
	if len(rs.Kinds) == 0 {
		return AggregateSummary{}
	}
	if dataType == "" {
		dataType = KindHousing
	}
	for _, kr := range rs.Kinds {
		if kr.Kind == dataType {
			return kr.Aggregates
		}
	}
	return rs.Kinds[0].Aggregates
}

// TotalMatched - суммарное количество совпавших записей по всем видам.
func (rs *SearchResultSet) TotalMatched() int64 {
	var total int64
	for _, kr := range rs.Kinds {
		total += kr.TotalCount
	}
	return total
}

// FieldDelta - изменение одного числового поля сводки между прошлым и
// текущим выполнением. Percent == nil, когда прошлое значение было нулем:
// процент в этом случае не определен (это НЕ молчаливый 0).
type FieldDelta struct {
	Absolute float64  `json:"absolute"`
	Percent  *float64 `json:"percent,omitempty"`
}

// DeltaSummary - сравнение текущей сводки с сохраненной ранее.
// HasBaseline == false означает "нет прошлой базы для сравнения".
type DeltaSummary struct {
	Current     AggregateSummary `json:"current"`
	HasBaseline bool             `json:"has_baseline"`
	Count       FieldDelta       `json:"count"`
	Min         FieldDelta       `json:"min"`
	Max         FieldDelta       `json:"max"`
	Avg         FieldDelta       `json:"avg"`
}

// BuildDeltaSummary сравнивает текущую сводку с прошлой. prior == nil
// дает дельту без базы (представляется как "no prior baseline").
func BuildDeltaSummary(current AggregateSummary, prior *AggregateSummary) DeltaSummary {
	delta := DeltaSummary{Current: current}
	if prior == nil {
		return delta
	}
	delta.HasBaseline = true
	delta.Count = fieldDelta(float64(current.Count), float64(prior.Count))
	delta.Min = fieldDelta(current.Min, prior.Min)
	delta.Max = fieldDelta(current.Max, prior.Max)
	delta.Avg = fieldDelta(current.Avg, prior.Avg)
	return delta
}

func fieldDelta(current, prior float64) FieldDelta {
	d := FieldDelta{Absolute: current - prior}
	if prior != 0 {
		pct := (current - prior) / prior * 100
		d.Percent = &pct
	}
	return d
}

// SimilarPriceBand - иллюстративная эвристика "похожих округов":
// ценовая полоса +/- 20% вокруг среднего. Ни на что не опирается,
// оставлена для совместимости с фронтендом сравнения.
func (a AggregateSummary) SimilarPriceBand() (low, high float64) {
	return a.Avg * 0.8, a.Avg * 1.2
}
