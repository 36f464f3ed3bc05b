package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/dcerezal/homeplan/internal/calendar"
	"github.com/dcerezal/homeplan/internal/week"
)

// SummaryHandler serves the monthly stats read model.
type SummaryHandler struct {
	engine *week.Engine
	cal    *calendar.Calendar
	logger *slog.Logger
}

func NewSummaryHandler(engine *week.Engine, cal *calendar.Calendar, logger *slog.Logger) *SummaryHandler {
	return &SummaryHandler{engine: engine, cal: cal, logger: logger}
}

// Get handles GET /api/summary
func (h *SummaryHandler) Get(w http.ResponseWriter, r *http.Request) {
	local := h.cal.LocalNow(time.Now())
	year, month := local.Year(), local.Month()

	q := r.URL.Query()
	if y := q.Get("year"); y != "" {
		parsed, err := strconv.Atoi(y)
		if err != nil || parsed < 2000 || parsed > 2200 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid year"})
			return
		}
		year = parsed
	}
	if m := q.Get("month"); m != "" {
		parsed, err := strconv.Atoi(m)
		if err != nil || parsed < 1 || parsed > 12 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "month must be 1-12"})
			return
		}
		month = time.Month(parsed)
	}

	summary, err := h.engine.MonthlySummary(r.Context(), year, month)
	if err != nil {
		h.logger.Error("monthly summary", "year", year, "month", int(month), "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to build summary"})
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
