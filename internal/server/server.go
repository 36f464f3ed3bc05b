// Package server wires the stores, engine, and dispatcher behind the HTTP API.
package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dcerezal/homeplan/internal/calendar"
	"github.com/dcerezal/homeplan/internal/catalog"
	"github.com/dcerezal/homeplan/internal/dispatch"
	"github.com/dcerezal/homeplan/internal/handler"
	"github.com/dcerezal/homeplan/internal/middleware"
	"github.com/dcerezal/homeplan/internal/notify"
	"github.com/dcerezal/homeplan/internal/store"
	"github.com/dcerezal/homeplan/internal/week"
)

type Server struct {
	planH       *handler.PlanHandler
	cronH       *handler.CronHandler
	summaryH    *handler.SummaryHandler
	checkinH    *handler.CheckinHandler
	birthdayH   *handler.BirthdayHandler
	rateLimiter *middleware.RateLimiter
	cronSecret  string
	dispatcher  *dispatch.Dispatcher
	logger      *slog.Logger
}

// Deps carries everything the server composes. The caller owns connection
// lifecycles; the server only routes.
type Deps struct {
	DB         *sql.DB
	Weeks      store.WeekStore
	Catalog    *catalog.Catalog
	Calendar   *calendar.Calendar
	Notifier   *notify.Notifier
	CronSecret string
	Logger     *slog.Logger
}

func New(d Deps) *Server {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	checkinStore := store.NewCheckinStore(d.DB)
	birthdayStore := store.NewBirthdayStore(d.DB)

	engine := week.New(d.Weeks, d.Catalog, d.Calendar, logger.With("component", "week"))
	dispatcher := dispatch.New(engine, d.Weeks, d.Catalog, d.Calendar, d.Notifier, birthdayStore, logger)

	return &Server{
		planH:       handler.NewPlanHandler(engine, d.Calendar, logger.With("component", "plan")),
		cronH:       handler.NewCronHandler(dispatcher, logger.With("component", "cron")),
		summaryH:    handler.NewSummaryHandler(engine, d.Calendar, logger.With("component", "summary")),
		checkinH:    handler.NewCheckinHandler(checkinStore, d.Calendar, logger.With("component", "checkin")),
		birthdayH:   handler.NewBirthdayHandler(birthdayStore, logger.With("component", "birthday")),
		rateLimiter: middleware.NewRateLimiter(),
		cronSecret:  d.CronSecret,
		dispatcher:  dispatcher,
		logger:      logger,
	}
}

// Dispatcher exposes the event dispatcher so the scheduler can drive it.
func (s *Server) Dispatcher() *dispatch.Dispatcher {
	return s.dispatcher
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)

	mux.HandleFunc("GET /api/cleaning-plan", s.planH.Get)
	mux.HandleFunc("POST /api/cleaning-plan/complete", s.rateLimited(s.planH.Complete))

	mux.HandleFunc("GET /api/summary", s.summaryH.Get)

	mux.HandleFunc("GET /api/checkin", s.checkinH.Get)
	mux.HandleFunc("PUT /api/checkin", s.rateLimited(s.checkinH.Save))
	mux.HandleFunc("DELETE /api/checkin", s.rateLimited(s.checkinH.Delete))
	mux.HandleFunc("GET /api/checkin/month", s.checkinH.ListMonth)

	mux.HandleFunc("GET /api/birthdays", s.birthdayH.List)
	mux.HandleFunc("POST /api/birthdays", s.rateLimited(s.birthdayH.Create))
	mux.HandleFunc("DELETE /api/birthdays/{id}", s.rateLimited(s.birthdayH.Delete))

	cronAuth := middleware.RequireCronSecret(s.cronSecret)
	mux.Handle("POST /api/cron", cronAuth(http.HandlerFunc(s.cronH.Trigger)))

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimited(h http.HandlerFunc) http.HandlerFunc {
	rl := middleware.RateLimit(s.rateLimiter, middleware.RealIP, 60, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(h).ServeHTTP(w, r)
	}
}
