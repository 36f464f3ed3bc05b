package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"github.com/dcerezal/homeplan/internal/calendar"
	"github.com/dcerezal/homeplan/internal/model"
	"github.com/dcerezal/homeplan/internal/store"
)

var monthKeyRe = regexp.MustCompile(`^\d{4}-\d{2}$`)

// CheckinHandler serves the daily habit check-in log.
type CheckinHandler struct {
	checkins *store.CheckinStore
	cal      *calendar.Calendar
	logger   *slog.Logger
}

func NewCheckinHandler(cs *store.CheckinStore, cal *calendar.Calendar, logger *slog.Logger) *CheckinHandler {
	return &CheckinHandler{checkins: cs, cal: cal, logger: logger}
}

func (h *CheckinHandler) dateParam(r *http.Request) (string, bool) {
	d := r.URL.Query().Get("date")
	if d == "" {
		return calendar.FormatYMD(h.cal.LocalNow(time.Now())), true
	}
	if _, err := time.Parse("2006-01-02", d); err != nil {
		return "", false
	}
	return d, true
}

// Get handles GET /api/checkin. An unsaved date answers with an all-false
// log so the client always has something to render.
func (h *CheckinHandler) Get(w http.ResponseWriter, r *http.Request) {
	date, ok := h.dateParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "date must be YYYY-MM-DD"})
		return
	}

	log, err := h.checkins.Get(date)
	if err != nil {
		h.logger.Error("get checkin", "date", date, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load check-in"})
		return
	}
	if log == nil {
		writeJSON(w, http.StatusOK, model.CheckinLog{Date: date})
		return
	}
	writeJSON(w, http.StatusOK, log)
}

type saveCheckinRequest struct {
	Date       string `json:"date"`
	EatenWell  bool   `json:"eaten_well"`
	DidSport   bool   `json:"did_sport"`
	Studied    bool   `json:"studied"`
	SleptEarly bool   `json:"slept_early"`
}

// Save handles PUT /api/checkin
func (h *CheckinHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req saveCheckinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if req.Date == "" {
		req.Date = calendar.FormatYMD(h.cal.LocalNow(time.Now()))
	} else if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "date must be YYYY-MM-DD"})
		return
	}

	saved, err := h.checkins.Save(model.CheckinLog{
		Date:       req.Date,
		EatenWell:  req.EatenWell,
		DidSport:   req.DidSport,
		Studied:    req.Studied,
		SleptEarly: req.SleptEarly,
	})
	if err != nil {
		h.logger.Error("save checkin", "date", req.Date, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to save check-in"})
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

// Delete handles DELETE /api/checkin
func (h *CheckinHandler) Delete(w http.ResponseWriter, r *http.Request) {
	date, ok := h.dateParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "date must be YYYY-MM-DD"})
		return
	}

	deleted, err := h.checkins.Delete(date)
	if err != nil {
		h.logger.Error("delete checkin", "date", date, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete check-in"})
		return
	}
	if !deleted {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no check-in for date"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListMonth handles GET /api/checkin/month
func (h *CheckinHandler) ListMonth(w http.ResponseWriter, r *http.Request) {
	month := r.URL.Query().Get("month")
	if month == "" {
		local := h.cal.LocalNow(time.Now())
		month = calendar.FormatMonth(local.Year(), local.Month())
	} else if !monthKeyRe.MatchString(month) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "month must be YYYY-MM"})
		return
	}

	logs, err := h.checkins.ListMonth(month)
	if err != nil {
		h.logger.Error("list checkins", "month", month, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list check-ins"})
		return
	}
	if logs == nil {
		logs = []model.CheckinLog{}
	}
	writeJSON(w, http.StatusOK, logs)
}
