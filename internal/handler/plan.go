package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dcerezal/homeplan/internal/calendar"
	"github.com/dcerezal/homeplan/internal/week"
)

// PlanHandler serves the weekly cleaning plan.
type PlanHandler struct {
	engine *week.Engine
	cal    *calendar.Calendar
	logger *slog.Logger
}

func NewPlanHandler(engine *week.Engine, cal *calendar.Calendar, logger *slog.Logger) *PlanHandler {
	return &PlanHandler{engine: engine, cal: cal, logger: logger}
}

// resolveWeekKey picks the week to serve: an explicit weekStart, the week
// containing an arbitrary date, or the current week.
func (h *PlanHandler) resolveWeekKey(r *http.Request) (string, error) {
	if ws := r.URL.Query().Get("weekStart"); ws != "" {
		start, err := calendar.ParseWeekKey(ws)
		if err != nil {
			return "", err
		}
		if start.Weekday() != time.Monday {
			return "", errors.New("weekStart must be a Monday")
		}
		return ws, nil
	}
	if d := r.URL.Query().Get("date"); d != "" {
		t, err := time.Parse("2006-01-02", d)
		if err != nil {
			return "", errors.New("date must be YYYY-MM-DD")
		}
		return calendar.FormatYMD(startOfWeekFor(t)), nil
	}
	return h.cal.WeekStartKey(time.Now()), nil
}

// startOfWeekFor walks a plain date back to its Monday. The date carries no
// zone, so no projection is needed.
func startOfWeekFor(t time.Time) time.Time {
	days := int(t.Weekday()) - 1
	if days < 0 {
		days = 6
	}
	return t.AddDate(0, 0, -days)
}

// Get handles GET /api/cleaning-plan
func (h *PlanHandler) Get(w http.ResponseWriter, r *http.Request) {
	weekKey, err := h.resolveWeekKey(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	overview, err := h.engine.WeekOverview(r.Context(), weekKey)
	if err != nil {
		h.logger.Error("week overview", "week", weekKey, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load week"})
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

type completeRequest struct {
	WeekStart string `json:"weekStart"`
	TaskID    string `json:"taskId"`
	Completed *bool  `json:"completed"`
	ActorID   string `json:"actorId"`
}

// Complete handles POST /api/cleaning-plan/complete
func (h *PlanHandler) Complete(w http.ResponseWriter, r *http.Request) {
	var req completeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if req.TaskID == "" || req.Completed == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "taskId and completed are required"})
		return
	}
	weekKey := req.WeekStart
	if weekKey == "" {
		weekKey = h.cal.WeekStartKey(time.Now())
	} else if start, err := calendar.ParseWeekKey(weekKey); err != nil || start.Weekday() != time.Monday {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "weekStart must be a Monday in YYYY-MM-DD form"})
		return
	}

	result, err := h.engine.SetTaskCompletion(r.Context(), week.SetCompletionParams{
		WeekStart: weekKey,
		TaskID:    req.TaskID,
		Completed: *req.Completed,
		ActorID:   req.ActorID,
	})
	if err != nil {
		if errors.Is(err, week.ErrTaskNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "task not found"})
			return
		}
		h.logger.Error("set task completion", "week", weekKey, "task", req.TaskID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update task"})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
