package rest

import (
	"encoding/json"
	"net/http"
	"time"

	"search-service/internal/contextkeys"
	"search-service/internal/core/port"
	"search-service/internal/core/port/usecases_port"
)

// SchedulerHandler - ручной запуск прохода планировщика. Эндпоинт
// служебный (операторский), наружу через gateway не публикуется.
type SchedulerHandler struct {
	tickUC usecases_port.RunNotificationTickUseCasePort
}

func NewSchedulerHandler(tickUC usecases_port.RunNotificationTickUseCasePort) *SchedulerHandler {
	return &SchedulerHandler{tickUC: tickUC}
}

// RunTick обрабатывает POST /api/v1/scheduler/tick
func (h *SchedulerHandler) RunTick(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "RunTick"})

	asOf := time.Now().UTC()
	if r.Body != nil && r.ContentLength != 0 {
		var req TickRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.AsOf != nil {
			asOf = req.AsOf.UTC()
		}
	}

	logger.Info("Processing manual scheduler tick", port.Fields{"as_of": asOf.Format(time.RFC3339)})

	stats, err := h.tickUC.Execute(r.Context(), asOf)
	if err != nil {
		logger.Error("Notification tick failed", err, nil)
		WriteJSONError(w, http.StatusInternalServerError, "Failed to run notification tick")
		return
	}

	RespondWithJSON(w, http.StatusOK, TickResponse{
		Due:     stats.Due,
		Fired:   stats.Fired,
		Skipped: stats.Skipped,
		Failed:  stats.Failed,
	})
}
