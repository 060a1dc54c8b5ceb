// Package server wires the gateway routes and middleware chain.
package server

import (
	"log/slog"
	"net/http"

	"github.com/centaurus-ai/roundtable/pkg/core/session"
	"github.com/centaurus-ai/roundtable/pkg/gateway/config"
	"github.com/centaurus-ai/roundtable/pkg/gateway/handlers"
	"github.com/centaurus-ai/roundtable/pkg/gateway/live"
	"github.com/centaurus-ai/roundtable/pkg/gateway/mw"
	"github.com/centaurus-ai/roundtable/pkg/gateway/runtime"
	"github.com/centaurus-ai/roundtable/pkg/gateway/storage"
)

type Server struct {
	cfg    config.Config
	logger *slog.Logger
	mux    *http.ServeMux

	store   *session.Store
	manager *runtime.Manager
	hub     *live.Hub
	db      *storage.Store
}

func New(cfg config.Config, logger *slog.Logger, store *session.Store, manager *runtime.Manager, hub *live.Hub, db *storage.Store) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:     cfg,
		logger:  logger,
		mux:     http.NewServeMux(),
		store:   store,
		manager: manager,
		hub:     hub,
		db:      db,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.Handle("GET /healthz", handlers.HealthHandler{})

	s.mux.Handle("POST /v1/sessions", handlers.CreateSessionHandler{
		Manager:      s.manager,
		MaxBodyBytes: s.cfg.MaxBodyBytes,
	})
	s.mux.Handle("GET /v1/sessions/{id}", handlers.GetSessionHandler{Store: s.store})
	s.mux.Handle("POST /v1/sessions/{id}/pause", handlers.SessionActionHandler{Manager: s.manager, Action: "pause"})
	s.mux.Handle("POST /v1/sessions/{id}/resume", handlers.SessionActionHandler{Manager: s.manager, Action: "resume"})
	s.mux.Handle("POST /v1/sessions/{id}/complete", handlers.SessionActionHandler{Manager: s.manager, Action: "complete"})
	s.mux.Handle("POST /v1/sessions/{id}/interject", handlers.InterjectHandler{
		Manager:      s.manager,
		MaxBodyBytes: s.cfg.MaxBodyBytes,
	})
	s.mux.Handle("GET /v1/sessions/{id}/report", handlers.SessionReportHandler{Store: s.store})
	s.mux.Handle("GET /v1/sessions/{id}/recording", handlers.RecordingHandler{Store: s.store})

	s.mux.Handle("GET /v1/sessions/{id}/feed", live.FeedHandler{
		Hub:            s.hub,
		Store:          s.store,
		AllowedOrigins: s.cfg.CORSAllowedOrigins,
		PingInterval:   s.cfg.WSPingInterval,
		WriteTimeout:   s.cfg.WSWriteTimeout,
		Logger:         s.logger,
	})

	s.mux.Handle("/v1/agents", handlers.AgentsHandler{
		DB:           s.db,
		MaxBodyBytes: s.cfg.MaxBodyBytes,
	})
	s.mux.Handle("GET /v1/reports", handlers.ListReportsHandler{DB: s.db})
	s.mux.Handle("GET /v1/reports/{sessionID}", handlers.GetReportHandler{DB: s.db})
	s.mux.Handle("/v1/settings/{key}", handlers.SettingsHandler{
		DB:           s.db,
		MaxBodyBytes: s.cfg.MaxBodyBytes,
	})

	s.mux.Handle("/", handlers.NotFoundHandler{})
}

func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = mw.CORS(s.cfg, h)
	h = mw.Recover(s.logger, h)
	h = mw.AccessLog(s.logger, h)
	h = mw.RequestID(h)
	return h
}
