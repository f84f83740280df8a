// Package app is the HTTP JSON API over the attendance stores.
package app

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/klabast/wb-services/attendance/internal/attendance"
	"github.com/klabast/wb-services/attendance/internal/config"
)

// Deps holds everything the handlers need.
type Deps struct {
	Registry   *attendance.Registry
	Daily      *attendance.Daily
	Aggregator *attendance.Aggregator
	Auth       *Auth
	Config     *config.Config
	Log        *zap.Logger
}

// Server serves the API.
type Server struct {
	registry   *attendance.Registry
	daily      *attendance.Daily
	aggregator *attendance.Aggregator
	auth       *Auth
	cfg        *config.Config
	log        *zap.Logger
	validate   *validator.Validate
}

func NewServer(d Deps) *Server {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	auth := d.Auth
	if auth == nil {
		auth = &Auth{log: log}
	}
	cfg := d.Config
	if cfg == nil {
		cfg = config.Default()
	}
	return &Server{
		registry:   d.Registry,
		daily:      d.Daily,
		aggregator: d.Aggregator,
		auth:       auth,
		cfg:        cfg,
		log:        log,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Handler returns the routed API. Mutating routes require auth.
func (s *Server) Handler() http.Handler {
	// match on the escaped path so a subject name may contain %2F
	r := mux.NewRouter().UseEncodedPath()
	r.Use(s.requestID, s.accessLog)

	protect := s.auth.Require
	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/config", s.GetConfig).Methods(http.MethodGet)
	api.HandleFunc("/overview", s.GetOverview).Methods(http.MethodGet)

	// Class registry
	api.HandleFunc("/subjects", s.ListSubjects).Methods(http.MethodGet)
	api.HandleFunc("/subjects", protect(s.AddSubject)).Methods(http.MethodPost)
	api.HandleFunc("/subjects", protect(s.ClearSubjects)).Methods(http.MethodDelete)
	api.HandleFunc("/subjects/{name}", s.GetSubject).Methods(http.MethodGet)
	api.HandleFunc("/subjects/{name}", protect(s.DeleteSubject)).Methods(http.MethodDelete)
	api.HandleFunc("/subjects/{name}/stats", s.GetStats).Methods(http.MethodGet)
	api.HandleFunc("/subjects/{name}/today", protect(s.SetToday)).Methods(http.MethodPut)
	api.HandleFunc("/subjects/{name}/today", protect(s.DeleteToday)).Methods(http.MethodDelete)

	// Import / export
	api.HandleFunc("/export", s.Export).Methods(http.MethodGet)
	api.HandleFunc("/export.csv", s.ExportCSV).Methods(http.MethodGet)
	api.HandleFunc("/import", protect(s.Import)).Methods(http.MethodPost)

	// Daily calendar
	api.HandleFunc("/daily", s.GetMonth).Methods(http.MethodGet)
	api.HandleFunc("/daily", protect(s.ClearDaily)).Methods(http.MethodDelete)
	api.HandleFunc("/daily.ics", s.DailyFeed).Methods(http.MethodGet)
	api.HandleFunc("/daily/today", protect(s.MarkToday)).Methods(http.MethodPut)
	api.HandleFunc("/daily/{date:[0-9]{4}-[0-9]{2}-[0-9]{2}}", protect(s.SetDay)).Methods(http.MethodPut)
	api.HandleFunc("/daily/{date:[0-9]{4}-[0-9]{2}-[0-9]{2}}/toggle", protect(s.ToggleDay)).Methods(http.MethodPost)

	return r
}
