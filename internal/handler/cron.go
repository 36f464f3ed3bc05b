package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dcerezal/homeplan/internal/dispatch"
)

// CronHandler is the external trigger for scheduled events. Platform crons
// POST here; the dispatcher's ledger makes retries harmless.
type CronHandler struct {
	dispatcher *dispatch.Dispatcher
	logger     *slog.Logger
}

func NewCronHandler(d *dispatch.Dispatcher, logger *slog.Logger) *CronHandler {
	return &CronHandler{dispatcher: d, logger: logger}
}

// Trigger handles POST /api/cron
func (h *CronHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	event, err := dispatch.ParseEvent(r.URL.Query().Get("event"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	report, err := h.dispatcher.HandleEvent(r.Context(), event, time.Now())
	if err != nil {
		h.logger.Error("cron event failed", "event", event, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "event handling failed"})
		return
	}
	writeJSON(w, http.StatusOK, report)
}
