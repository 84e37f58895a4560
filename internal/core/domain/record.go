package domain

import (
	"time"

	"github.com/google/uuid"
)

// RecordKind - вид записи в хранилище (жилье / аренда / тренды)
type RecordKind string

const (
	KindHousing RecordKind = "housing"
	KindRent    RecordKind = "rent"
	KindTrends  RecordKind = "trends"
)

// AllRecordKinds - полный набор видов в фиксированном порядке.
// Порядок важен: при запросе без dataType результаты возвращаются
// отдельными последовательностями именно в этом порядке.
var AllRecordKinds = []RecordKind{KindHousing, KindRent, KindTrends}

// IsValidRecordKind проверяет, что строка является известным видом записи.
func IsValidRecordKind(s string) bool {
	switch RecordKind(s) {
	case KindHousing, KindRent, KindTrends:
		return true
	}
	return false
}

// Record - одна запись из хранилища данных о жилье/аренде/трендах.
// Хранилище принадлежит другому сервису, мы его только читаем.
type Record struct {
	ID                 uuid.UUID  `json:"id"`
	Kind               RecordKind `json:"kind"`
	Region             string     `json:"region"` // код штата или идентификатор округа, например "CA" или "CA-06037"
	Price              float64    `json:"price"`
	Rent               float64    `json:"rent"`
	PriceChangePct     float64    `json:"price_change_pct"` // изменение цены год к году, [-100, 100]
	RentChangePct      float64    `json:"rent_change_pct"`
	AffordabilityIndex float64    `json:"affordability_index"` // [0, 100]
	RecordedAt         time.Time  `json:"recorded_at"`
}
