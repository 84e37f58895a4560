package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"search-service/internal/contextkeys"
	"search-service/internal/core/domain"
	"search-service/internal/core/port"
	"search-service/internal/core/port/usecases_port"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// SavedSearchHandler обрабатывает CRUD по сохраненным поискам владельца.
type SavedSearchHandler struct {
	saveUC    usecases_port.SaveSearchUseCasePort
	getUC     usecases_port.GetSavedSearchUseCasePort
	listUC    usecases_port.ListSavedSearchesUseCasePort
	updateUC  usecases_port.UpdateSavedSearchUseCasePort
	deleteUC  usecases_port.DeleteSavedSearchUseCasePort
	executeUC usecases_port.ExecuteSavedSearchUseCasePort
}

func NewSavedSearchHandler(
	saveUC usecases_port.SaveSearchUseCasePort,
	getUC usecases_port.GetSavedSearchUseCasePort,
	listUC usecases_port.ListSavedSearchesUseCasePort,
	updateUC usecases_port.UpdateSavedSearchUseCasePort,
	deleteUC usecases_port.DeleteSavedSearchUseCasePort,
	executeUC usecases_port.ExecuteSavedSearchUseCasePort,
) *SavedSearchHandler {
	return &SavedSearchHandler{
		saveUC:    saveUC,
		getUC:     getUC,
		listUC:    listUC,
		updateUC:  updateUC,
		deleteUC:  deleteUC,
		executeUC: executeUC,
	}
}

// ownerFromContext извлекает userID, добавленный AuthMiddleware.
func ownerFromContext(r *http.Request) (uuid.UUID, bool) {
	userID, ok := r.Context().Value(userIDKey).(uuid.UUID)
	return userID, ok
}

// searchIDFromURL разбирает {searchID} из пути.
func searchIDFromURL(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "searchID"))
}

// Create обрабатывает POST /api/v1/saved-searches
func (h *SavedSearchHandler) Create(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "CreateSavedSearch"})

	ownerID, ok := ownerFromContext(r)
	if !ok {
		logger.Error("Invalid or missing user ID in context", nil, nil)
		WriteJSONError(w, http.StatusUnauthorized, "Invalid user ID in context")
		return
	}

	var req CreateSavedSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	logger.Info("Processing request to create saved search", port.Fields{"owner_id": ownerID})

	search, err := h.saveUC.Execute(r.Context(), ownerID, usecases_port.SaveSearchInput{
		Name:                 req.Name,
		Description:          req.Description,
		Filter:               req.Filter,
		NotificationsEnabled: req.NotificationsEnabled,
		Cadence:              domain.Cadence(req.Cadence),
	})
	if err != nil {
		if domain.IsValidationError(err) {
			WriteJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		logger.Error("Save search use case failed", err, nil)
		WriteJSONError(w, http.StatusInternalServerError, "Failed to create saved search")
		return
	}

	RespondWithJSON(w, http.StatusCreated, toSavedSearchResponse(search))
}

// Get обрабатывает GET /api/v1/saved-searches/{searchID}
func (h *SavedSearchHandler) Get(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "GetSavedSearch"})

	ownerID, ok := ownerFromContext(r)
	if !ok {
		WriteJSONError(w, http.StatusUnauthorized, "Invalid user ID in context")
		return
	}

	searchID, err := searchIDFromURL(r)
	if err != nil {
		WriteJSONError(w, http.StatusBadRequest, "Invalid saved search ID format")
		return
	}

	search, err := h.getUC.Execute(r.Context(), searchID, ownerID)
	if err != nil {
		if errors.Is(err, domain.ErrSavedSearchNotFound) {
			WriteJSONError(w, http.StatusNotFound, "Saved search not found")
			return
		}
		logger.Error("Get saved search use case failed", err, nil)
		WriteJSONError(w, http.StatusInternalServerError, "Failed to retrieve saved search")
		return
	}

	RespondWithJSON(w, http.StatusOK, toSavedSearchResponse(search))
}

// List обрабатывает GET /api/v1/saved-searches
func (h *SavedSearchHandler) List(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "ListSavedSearches"})

	ownerID, ok := ownerFromContext(r)
	if !ok {
		WriteJSONError(w, http.StatusUnauthorized, "Invalid user ID in context")
		return
	}

	limit, offset := getPagination(r)

	result, err := h.listUC.Execute(r.Context(), ownerID, limit, offset)
	if err != nil {
		logger.Error("List saved searches use case failed", err, nil)
		WriteJSONError(w, http.StatusInternalServerError, "Failed to list saved searches")
		return
	}

	response := PaginatedSavedSearchesResponse{
		Data:    make([]SavedSearchResponse, len(result.Searches)),
		Total:   result.TotalCount,
		Page:    result.CurrentPage,
		PerPage: result.ItemsPerPage,
	}
	for i := range result.Searches {
		response.Data[i] = toSavedSearchResponse(&result.Searches[i])
	}

	RespondWithJSON(w, http.StatusOK, response)
}

// Update обрабатывает PATCH /api/v1/saved-searches/{searchID}
func (h *SavedSearchHandler) Update(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "UpdateSavedSearch"})

	ownerID, ok := ownerFromContext(r)
	if !ok {
		WriteJSONError(w, http.StatusUnauthorized, "Invalid user ID in context")
		return
	}

	searchID, err := searchIDFromURL(r)
	if err != nil {
		WriteJSONError(w, http.StatusBadRequest, "Invalid saved search ID format")
		return
	}

	var req UpdateSavedSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	upd := domain.SavedSearchUpdate{
		Name:                 req.Name,
		Description:          req.Description,
		Filter:               req.Filter,
		NotificationsEnabled: req.NotificationsEnabled,
	}
	if req.Cadence != nil {
		cadence := domain.Cadence(*req.Cadence)
		upd.Cadence = &cadence
	}

	search, err := h.updateUC.Execute(r.Context(), searchID, ownerID, upd)
	if err != nil {
		if domain.IsValidationError(err) {
			WriteJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		if errors.Is(err, domain.ErrSavedSearchNotFound) {
			WriteJSONError(w, http.StatusNotFound, "Saved search not found")
			return
		}
		logger.Error("Update saved search use case failed", err, nil)
		WriteJSONError(w, http.StatusInternalServerError, "Failed to update saved search")
		return
	}

	RespondWithJSON(w, http.StatusOK, toSavedSearchResponse(search))
}

// Delete обрабатывает DELETE /api/v1/saved-searches/{searchID}
func (h *SavedSearchHandler) Delete(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "DeleteSavedSearch"})

	ownerID, ok := ownerFromContext(r)
	if !ok {
		WriteJSONError(w, http.StatusUnauthorized, "Invalid user ID in context")
		return
	}

	searchID, err := searchIDFromURL(r)
	if err != nil {
		WriteJSONError(w, http.StatusBadRequest, "Invalid saved search ID format")
		return
	}

	if err := h.deleteUC.Execute(r.Context(), searchID, ownerID); err != nil {
		if errors.Is(err, domain.ErrSavedSearchNotFound) {
			WriteJSONError(w, http.StatusNotFound, "Saved search not found")
			return
		}
		logger.Error("Delete saved search use case failed", err, nil)
		WriteJSONError(w, http.StatusInternalServerError, "Failed to delete saved search")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Execute обрабатывает POST /api/v1/saved-searches/{searchID}/execute
func (h *SavedSearchHandler) Execute(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "ExecuteSavedSearch"})

	ownerID, ok := ownerFromContext(r)
	if !ok {
		WriteJSONError(w, http.StatusUnauthorized, "Invalid user ID in context")
		return
	}

	searchID, err := searchIDFromURL(r)
	if err != nil {
		WriteJSONError(w, http.StatusBadRequest, "Invalid saved search ID format")
		return
	}

	resultSet, err := h.executeUC.Execute(r.Context(), searchID, ownerID)
	if err != nil {
		if errors.Is(err, domain.ErrSavedSearchNotFound) {
			WriteJSONError(w, http.StatusNotFound, "Saved search not found")
			return
		}
		if domain.IsValidationError(err) {
			// Хранимый фильтр перестал проходить валидацию
			WriteJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		logger.Error("Execute saved search use case failed", err, nil)
		WriteJSONError(w, http.StatusInternalServerError, "Failed to execute saved search")
		return
	}

	RespondWithJSON(w, http.StatusOK, resultSet)
}
