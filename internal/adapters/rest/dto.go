package rest

import (
	"time"

	"search-service/internal/core/domain"

	"github.com/google/uuid"
)

// CreateSavedSearchRequest - тело POST /api/v1/saved-searches
type CreateSavedSearchRequest struct {
	Name                 string                `json:"name"`
	Description          string                `json:"description,omitempty"`
	Filter               domain.FilterDocument `json:"filter"`
	NotificationsEnabled bool                  `json:"notifications_enabled"`
	Cadence              string                `json:"cadence"`
}

// UpdateSavedSearchRequest - тело PATCH /api/v1/saved-searches/{searchID}.
// nil-поле означает "не менять".
type UpdateSavedSearchRequest struct {
	Name                 *string                `json:"name,omitempty"`
	Description          *string                `json:"description,omitempty"`
	Filter               *domain.FilterDocument `json:"filter,omitempty"`
	NotificationsEnabled *bool                  `json:"notifications_enabled,omitempty"`
	Cadence              *string                `json:"cadence,omitempty"`
}

// SavedSearchResponse - представление сохраненного поиска в ответах API.
type SavedSearchResponse struct {
	ID                   uuid.UUID                `json:"id"`
	Name                 string                   `json:"name"`
	Description          string                   `json:"description,omitempty"`
	Filter               domain.FilterDocument    `json:"filter"`
	NotificationsEnabled bool                     `json:"notifications_enabled"`
	Cadence              string                   `json:"cadence"`
	LastFiredAt          *time.Time               `json:"last_fired_at,omitempty"`
	LastSummary          *domain.AggregateSummary `json:"last_summary,omitempty"`
	CreatedAt            time.Time                `json:"created_at"`
	UpdatedAt            time.Time                `json:"updated_at"`
}

func toSavedSearchResponse(s *domain.SavedSearch) SavedSearchResponse {
	return SavedSearchResponse{
		ID:                   s.ID,
		Name:                 s.Name,
		Description:          s.Description,
		Filter:               s.Filter,
		NotificationsEnabled: s.NotificationsEnabled,
		Cadence:              string(s.Cadence),
		LastFiredAt:          s.LastFiredAt,
		LastSummary:          s.LastSummary,
		CreatedAt:            s.CreatedAt,
		UpdatedAt:            s.UpdatedAt,
	}
}

// PaginatedSavedSearchesResponse - страница сохраненных поисков.
type PaginatedSavedSearchesResponse struct {
	Data    []SavedSearchResponse `json:"data"`
	Total   int64                 `json:"total"`
	Page    int                   `json:"page"`
	PerPage int                   `json:"per_page"`
}

// TickRequest - тело POST /api/v1/scheduler/tick. as_of опционален
// и нужен в основном для отладки; по умолчанию берется текущее время.
type TickRequest struct {
	AsOf *time.Time `json:"as_of,omitempty"`
}

// TickResponse - итог одного прохода планировщика.
type TickResponse struct {
	Due     int `json:"due"`
	Fired   int `json:"fired"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// DictionariesResponse - справочники для построения UI фильтра.
type DictionariesResponse struct {
	DataTypes      []string `json:"data_types"`
	SortKeys       []string `json:"sort_keys"`
	SortDirections []string `json:"sort_directions"`
	Cadences       []string `json:"cadences"`
	MaxPageSize    int      `json:"max_page_size"`
}
