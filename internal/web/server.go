package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/AlekseyZapadovnikov/review-calibration/conf"
	"github.com/AlekseyZapadovnikov/review-calibration/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Server struct {
	Address string
	server  *http.Server

	router             *chi.Mux
	calibrationService CalibrationService
	mappingService     MappingService
}

// New конструирует HTTP-сервер на базе chi и регистрирует все маршруты.
func New(cfg conf.HttpServConf, calibration CalibrationService, mapping MappingService) *Server {
	servAddress := cfg.GetAddress()
	mux := chi.NewMux()
	srv := &Server{
		Address:            servAddress,
		router:             mux,
		calibrationService: calibration,
		mappingService:     mapping,
	}
	srv.server = &http.Server{
		Addr:    servAddress,
		Handler: mux,
	}

	srv.setupRoutes()

	return srv
}

// Start запускает HTTP-сервер и блокирует поток до остановки.
func (s *Server) Start() error {
	slog.Info("server starting", "address", s.server.Addr)
	return s.server.ListenAndServe()
}

// setupRoutes настраивает middleware и HTTP-маршруты.
func (s *Server) setupRoutes() {
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)

	// Простейший health-check.
	s.router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Читающие маршруты калибровки.
	s.router.Get("/calibration/assignments/{assignment_id}/submissions", s.handleListSubmissions)
	s.router.Get("/calibration/calibration_student_report", s.handleStudentReport)
	s.router.Get("/calibration/assignments/{assignment_id}/students/{student_participant_id}/summary", s.handleSummary)
	s.router.Get("/calibration/assignments/{assignment_id}/report/{reviewee_id}", s.handleAggregateReport)

	// Маршруты управления связями.
	s.router.Post("/mappings/create", s.handleMappingCreate)
	s.router.Post("/mappings/delete", s.handleMappingDelete)

	// Маршруты жизненного цикла версий ревью.
	s.router.Post("/responses/create", s.handleResponseCreate)
	s.router.Post("/responses/submit", s.handleResponseSubmit)
	s.router.Post("/responses/answers/upsert", s.handleAnswerUpsert)
}

// Shutdown останавливает HTTP-сервер с таймаутом на корректное завершение.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// ---------- утилитарные функции ----------

// writeJSON сериализует структуру в JSON-ответ с нужным статусом.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

// mapDomainError переводит доменные ошибки в HTTP-статусы и коды ответа.
func mapDomainError(err error) (status int, code, msg string) {
	if err == nil {
		return http.StatusOK, "", ""
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, string(NOTFOUND), err.Error()
	case errors.Is(err, domain.ErrValidation):
		return http.StatusUnprocessableEntity, string(VALIDATIONERROR), err.Error()
	case errors.Is(err, domain.ErrMissingData):
		return http.StatusUnprocessableEntity, string(MISSINGDATA), err.Error()
	default:
		slog.Warn("unmapped domain error", "err", err.Error())
		return http.StatusInternalServerError, "INTERNAL_ERROR", err.Error()
	}
}
