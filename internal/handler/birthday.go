package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"

	"github.com/dcerezal/homeplan/internal/model"
	"github.com/dcerezal/homeplan/internal/store"
)

var ddmmRe = regexp.MustCompile(`^\d{2}/\d{2}$`)

// BirthdayHandler manages the birthday registry.
type BirthdayHandler struct {
	birthdays *store.BirthdayStore
	logger    *slog.Logger
}

func NewBirthdayHandler(bs *store.BirthdayStore, logger *slog.Logger) *BirthdayHandler {
	return &BirthdayHandler{birthdays: bs, logger: logger}
}

// List handles GET /api/birthdays
func (h *BirthdayHandler) List(w http.ResponseWriter, r *http.Request) {
	birthdays, err := h.birthdays.List()
	if err != nil {
		h.logger.Error("list birthdays", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list birthdays"})
		return
	}
	if birthdays == nil {
		birthdays = []model.Birthday{}
	}
	writeJSON(w, http.StatusOK, birthdays)
}

type createBirthdayRequest struct {
	Name        string `json:"name"`
	Date        string `json:"date"`
	Description string `json:"description"`
}

// Create handles POST /api/birthdays
func (h *BirthdayHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createBirthdayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	if !ddmmRe.MatchString(req.Date) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "date must be DD/MM"})
		return
	}

	b, err := h.birthdays.Create(req.Name, req.Date, req.Description)
	if err != nil {
		h.logger.Error("create birthday", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create birthday"})
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

// Delete handles DELETE /api/birthdays/{id}
func (h *BirthdayHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	existing, err := h.birthdays.GetByID(id)
	if err != nil {
		h.logger.Error("get birthday", "id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load birthday"})
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "birthday not found"})
		return
	}

	if err := h.birthdays.Delete(id); err != nil {
		h.logger.Error("delete birthday", "id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete birthday"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
