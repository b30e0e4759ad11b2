package handler

import (
	"net/http"
	"strconv"

	"github.com/mcoot/impostor/internal/api/response"
	"github.com/mcoot/impostor/internal/services/roles"
	"github.com/mcoot/impostor/internal/services/session"
)

// MetaHandler serves static game information for setup screens
type MetaHandler struct {
	controller *session.Controller
}

// NewMetaHandler creates a new meta handler
func NewMetaHandler(controller *session.Controller) *MetaHandler {
	return &MetaHandler{controller: controller}
}

// Categories handles GET /api/v1/meta/categories
func (h *MetaHandler) Categories(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.CategoriesResponse{Categories: h.controller.Categories()})
}

// ImpostorOptions handles GET /api/v1/meta/impostor-options.
// The roster size defaults to the current session and can be overridden with ?players=N.
func (h *MetaHandler) ImpostorOptions(w http.ResponseWriter, r *http.Request) {
	var players int
	if raw := r.URL.Query().Get("players"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			WriteError(w, NewInvalidRequestError("players must be a non-negative integer"))
			return
		}
		players = n
	} else {
		state, err := h.controller.State(r.Context())
		if err != nil {
			WriteError(w, err)
			return
		}
		players = len(state.Players)
	}

	response.JSON(w, http.StatusOK, response.ImpostorOptionsResponse{
		Players:      players,
		Options:      roles.ImpostorOptions(players),
		MaxImpostors: roles.MaxImpostors(players),
	})
}

// Health handles GET /api/v1/health
func (h *MetaHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := response.HealthResponse{Status: "ok"}
	if state, err := h.controller.State(r.Context()); err == nil {
		resp.SessionID = string(state.ID)
		resp.Phase = state.Phase.String()
	}
	response.JSON(w, http.StatusOK, resp)
}
