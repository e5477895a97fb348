// Package server provides the HTTP API for the health journal.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"health-journal/internal/advisor"
	"health-journal/internal/config"
	"health-journal/internal/journal"
	"health-journal/internal/report"
)

// Server is the HTTP route layer over the journal store and the LLM
// collaborators.
type Server struct {
	store    journal.Store
	advisor  *advisor.Advisor
	renderer *report.Renderer
	config   *config.Config
	logger   *zap.Logger
	server   *http.Server
}

func New(
	store journal.Store,
	adv *advisor.Advisor,
	renderer *report.Renderer,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	return &Server{
		store:    store,
		advisor:  adv,
		renderer: renderer,
		config:   cfg,
		logger:   logger,
	}
}

// Routes builds the router. Exposed so tests can drive handlers through
// httptest without binding a socket.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/history_all", s.handleHistoryAll)
	r.Post("/history", s.handleCreateSymptom)
	r.Post("/chat", s.handleChat)
	r.Get("/chat_history", s.handleChatHistory)
	r.Post("/devices", s.handleRegisterDevice)
	r.Get("/devices", s.handleListDevices)
	r.Get("/devices_data", s.handleListSensorData)
	r.Post("/devices_data", s.handleIngestSensorData)
	r.Get("/analysis", s.handleAnalysis)
	r.Get("/doctor_report", s.handleDoctorReport)
	r.Get("/health", s.handleHealth)

	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Routes(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
