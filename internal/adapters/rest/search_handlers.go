package rest

import (
	"encoding/json"
	"net/http"

	"search-service/internal/contextkeys"
	"search-service/internal/core/domain"
	"search-service/internal/core/port"
	"search-service/internal/core/port/usecases_port"
)

// SearchHandler обрабатывает разовые поисковые запросы и справочники.
type SearchHandler struct {
	searchUC usecases_port.SearchRecordsUseCasePort
}

func NewSearchHandler(searchUC usecases_port.SearchRecordsUseCasePort) *SearchHandler {
	return &SearchHandler{searchUC: searchUC}
}

// Search обрабатывает POST /api/v1/search
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "Search"})

	var doc domain.FilterDocument
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		logger.Warn("Failed to decode filter document", port.Fields{"error": err.Error()})
		WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	logger.Info("Processing search request", nil)

	resultSet, err := h.searchUC.Execute(r.Context(), doc)
	if err != nil {
		if domain.IsValidationError(err) {
			WriteJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		logger.Error("Search use case failed", err, nil)
		WriteJSONError(w, http.StatusInternalServerError, "Failed to execute search")
		return
	}

	RespondWithJSON(w, http.StatusOK, resultSet)
}

// GetDictionaries обрабатывает GET /api/v1/dictionaries
func (h *SearchHandler) GetDictionaries(w http.ResponseWriter, r *http.Request) {
	response := DictionariesResponse{
		DataTypes: []string{
			string(domain.KindHousing), string(domain.KindRent), string(domain.KindTrends),
		},
		SortKeys: []string{
			string(domain.SortByPrice), string(domain.SortByRent),
			string(domain.SortByPriceChange), string(domain.SortByRentChange), string(domain.SortByDate),
		},
		SortDirections: []string{string(domain.SortAsc), string(domain.SortDesc)},
		Cadences: []string{
			string(domain.CadenceDaily), string(domain.CadenceWeekly), string(domain.CadenceMonthly),
		},
		MaxPageSize: domain.MaxPageSize,
	}

	RespondWithJSON(w, http.StatusOK, response)
}
