package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dcerezal/homeplan/internal/model"
	"github.com/dcerezal/homeplan/internal/store"
)

func setupBirthdayHandler(t *testing.T) *BirthdayHandler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewBirthdayHandler(store.NewBirthdayStore(setupTestDB(t)), logger)
}

func TestBirthdayListEmpty(t *testing.T) {
	h := setupBirthdayHandler(t)

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/birthdays", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Errorf("empty list body = %q, want []", got)
	}
}

func TestBirthdayCreateAndList(t *testing.T) {
	h := setupBirthdayHandler(t)

	body := `{"name":"Marta","date":"24/12","description":"hermana"}`
	rec := httptest.NewRecorder()
	h.Create(rec, httptest.NewRequest(http.MethodPost, "/api/birthdays", strings.NewReader(body)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", rec.Code, rec.Body)
	}
	var created model.Birthday
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if created.ID == 0 || created.Name != "Marta" || created.Date != "24/12" {
		t.Errorf("created = %+v", created)
	}

	rec = httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/birthdays", nil))
	var listed []model.Birthday
	if err := json.NewDecoder(rec.Body).Decode(&listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listed) != 1 || listed[0].Name != "Marta" {
		t.Errorf("listed = %+v", listed)
	}
}

func TestBirthdayCreateValidation(t *testing.T) {
	h := setupBirthdayHandler(t)

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{"name":`},
		{"missing name", `{"date":"24/12"}`},
		{"missing date", `{"name":"Marta"}`},
		{"wrong date format", `{"name":"Marta","date":"24-12"}`},
		{"full date not allowed", `{"name":"Marta","date":"24/12/1990"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Create(rec, httptest.NewRequest(http.MethodPost, "/api/birthdays", strings.NewReader(tt.body)))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestBirthdayDelete(t *testing.T) {
	h := setupBirthdayHandler(t)

	rec := httptest.NewRecorder()
	h.Create(rec, httptest.NewRequest(http.MethodPost, "/api/birthdays", strings.NewReader(`{"name":"Luis","date":"05/03"}`)))
	var created model.Birthday
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	req := httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/api/birthdays/%d", created.ID), nil)
	req.SetPathValue("id", fmt.Sprint(created.ID))
	rec = httptest.NewRecorder()
	h.Delete(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/birthdays/9999", nil)
	req.SetPathValue("id", "9999")
	rec = httptest.NewRecorder()
	h.Delete(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing id status = %d, want 404", rec.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/birthdays/abc", nil)
	req.SetPathValue("id", "abc")
	rec = httptest.NewRecorder()
	h.Delete(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad id status = %d, want 400", rec.Code)
	}
}
