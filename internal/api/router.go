package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/impostor/internal/api/handler"
	"github.com/mcoot/impostor/internal/api/middleware"
	"github.com/mcoot/impostor/internal/events"
	"github.com/mcoot/impostor/internal/services/session"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger     *slog.Logger
	Controller *session.Controller
	Hub        *events.Hub
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	sessionHandler := handler.NewSessionHandler(cfg.Controller, cfg.Logger)
	metaHandler := handler.NewMetaHandler(cfg.Controller)
	eventsHandler := handler.NewEventsHandler(cfg.Hub)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.Recovery(cfg.Logger))
	api.Use(middleware.Logging(cfg.Logger))

	api.HandleFunc("/health", metaHandler.Health).Methods(http.MethodGet)
	api.HandleFunc("/meta/categories", metaHandler.Categories).Methods(http.MethodGet)
	api.HandleFunc("/meta/impostor-options", metaHandler.ImpostorOptions).Methods(http.MethodGet)

	s := api.PathPrefix("/session").Subrouter()
	s.HandleFunc("", sessionHandler.Get).Methods(http.MethodGet)
	s.HandleFunc("/events", eventsHandler.Stream).Methods(http.MethodGet)
	s.HandleFunc("/result", sessionHandler.Result).Methods(http.MethodGet)

	// Setup
	s.HandleFunc("/players", sessionHandler.AddPlayer).Methods(http.MethodPost)
	s.HandleFunc("/players/{id}", sessionHandler.RemovePlayer).Methods(http.MethodDelete)
	s.HandleFunc("/categories/all", sessionHandler.SelectAllCategories).Methods(http.MethodPost)
	s.HandleFunc("/categories", sessionHandler.SelectNoCategories).Methods(http.MethodDelete)
	s.HandleFunc("/categories/{name}/toggle", sessionHandler.ToggleCategory).Methods(http.MethodPost)
	s.HandleFunc("/settings", sessionHandler.UpdateSettings).Methods(http.MethodPatch)

	// Round
	s.HandleFunc("/round", sessionHandler.StartRound).Methods(http.MethodPost)
	s.HandleFunc("/reveal", sessionHandler.Reveal).Methods(http.MethodGet)
	s.HandleFunc("/reveal/open", sessionHandler.OpenPanel).Methods(http.MethodPost)
	s.HandleFunc("/reveal/close", sessionHandler.CloseReveal).Methods(http.MethodPost)
	s.HandleFunc("/reveal/ack", sessionHandler.Acknowledge).Methods(http.MethodPost)
	s.HandleFunc("/reveal/{id}", sessionHandler.SelectForReveal).Methods(http.MethodPost)
	s.HandleFunc("/debate/end", sessionHandler.EndDebate).Methods(http.MethodPost)
	s.HandleFunc("/reset", sessionHandler.Reset).Methods(http.MethodPost)

	return r
}
