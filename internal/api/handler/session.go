package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/impostor/internal/api/request"
	"github.com/mcoot/impostor/internal/api/response"
	"github.com/mcoot/impostor/internal/model"
	"github.com/mcoot/impostor/internal/services/session"
)

// SessionHandler handles the session endpoints
type SessionHandler struct {
	controller *session.Controller
	logger     *slog.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(controller *session.Controller, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		controller: controller,
		logger:     logger,
	}
}

// writeState responds with the current public session state
func (h *SessionHandler) writeState(w http.ResponseWriter, r *http.Request, status int) {
	state, err := h.controller.State(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, status, response.SessionFromModel(state))
}

// Get handles GET /api/v1/session
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.writeState(w, r, http.StatusOK)
}

// Reveal handles GET /api/v1/session/reveal
func (h *SessionHandler) Reveal(w http.ResponseWriter, r *http.Request) {
	view, err := h.controller.Reveal(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.RevealResponse{View: view})
}

// Result handles GET /api/v1/session/result
func (h *SessionHandler) Result(w http.ResponseWriter, r *http.Request) {
	result, err := h.controller.Result(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.ResultFromModel(result))
}

// AddPlayer handles POST /api/v1/session/players
func (h *SessionHandler) AddPlayer(w http.ResponseWriter, r *http.Request) {
	var req request.AddPlayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("Invalid request body"))
		return
	}

	if _, err := h.controller.AddPlayer(r.Context(), req.Name); err != nil {
		WriteError(w, err)
		return
	}
	h.writeState(w, r, http.StatusCreated)
}

// RemovePlayer handles DELETE /api/v1/session/players/{id}
func (h *SessionHandler) RemovePlayer(w http.ResponseWriter, r *http.Request) {
	id := model.PlayerID(mux.Vars(r)["id"])
	if err := h.controller.RemovePlayer(r.Context(), id); err != nil {
		WriteError(w, err)
		return
	}
	h.writeState(w, r, http.StatusOK)
}

// ToggleCategory handles POST /api/v1/session/categories/{name}/toggle
func (h *SessionHandler) ToggleCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.controller.ToggleCategory(r.Context(), mux.Vars(r)["name"]); err != nil {
		WriteError(w, err)
		return
	}
	h.writeState(w, r, http.StatusOK)
}

// SelectAllCategories handles POST /api/v1/session/categories/all
func (h *SessionHandler) SelectAllCategories(w http.ResponseWriter, r *http.Request) {
	if err := h.controller.SelectAllCategories(r.Context()); err != nil {
		WriteError(w, err)
		return
	}
	h.writeState(w, r, http.StatusOK)
}

// SelectNoCategories handles DELETE /api/v1/session/categories
func (h *SessionHandler) SelectNoCategories(w http.ResponseWriter, r *http.Request) {
	if err := h.controller.SelectNoCategories(r.Context()); err != nil {
		WriteError(w, err)
		return
	}
	h.writeState(w, r, http.StatusOK)
}

// UpdateSettings handles PATCH /api/v1/session/settings
func (h *SessionHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req request.UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("Invalid request body"))
		return
	}
	if req.IsEmpty() {
		WriteError(w, NewInvalidRequestError("No settings to update"))
		return
	}

	state, err := h.controller.UpdateSettings(r.Context(), session.Settings{
		ImpostorCount: req.ImpostorCount,
		HideCategory:  req.HideCategory,
		HideHint:      req.HideHint,
	})
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.SessionFromModel(state))
}

// StartRound handles POST /api/v1/session/round
func (h *SessionHandler) StartRound(w http.ResponseWriter, r *http.Request) {
	outcome, err := h.controller.StartRound(r.Context())
	if err != nil {
		if errors.Is(err, model.ErrProvider) {
			h.logger.Warn("round start failed", slog.String("error", err.Error()))
		}
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.StartRoundResponse{
		Session:      response.SessionFromModel(outcome.Session),
		UsedFallback: outcome.UsedFallback,
	})
}

// SelectForReveal handles POST /api/v1/session/reveal/{id}
func (h *SessionHandler) SelectForReveal(w http.ResponseWriter, r *http.Request) {
	id := model.PlayerID(mux.Vars(r)["id"])
	if err := h.controller.SelectForReveal(r.Context(), id); err != nil {
		WriteError(w, err)
		return
	}
	h.writeState(w, r, http.StatusOK)
}

// OpenPanel handles POST /api/v1/session/reveal/open.
// It responds with the role view so the device can show it straight away.
func (h *SessionHandler) OpenPanel(w http.ResponseWriter, r *http.Request) {
	if err := h.controller.OpenPanel(r.Context()); err != nil {
		WriteError(w, err)
		return
	}
	h.Reveal(w, r)
}

// CloseReveal handles POST /api/v1/session/reveal/close
func (h *SessionHandler) CloseReveal(w http.ResponseWriter, r *http.Request) {
	if err := h.controller.CloseReveal(r.Context()); err != nil {
		WriteError(w, err)
		return
	}
	h.writeState(w, r, http.StatusOK)
}

// Acknowledge handles POST /api/v1/session/reveal/ack
func (h *SessionHandler) Acknowledge(w http.ResponseWriter, r *http.Request) {
	advanced, err := h.controller.Acknowledge(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	state, err := h.controller.State(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.AcknowledgeResponse{
		Session:  response.SessionFromModel(state),
		Advanced: advanced,
	})
}

// EndDebate handles POST /api/v1/session/debate/end
func (h *SessionHandler) EndDebate(w http.ResponseWriter, r *http.Request) {
	if err := h.controller.EndDebate(r.Context()); err != nil {
		WriteError(w, err)
		return
	}
	h.writeState(w, r, http.StatusOK)
}

// Reset handles POST /api/v1/session/reset
func (h *SessionHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.controller.Reset(r.Context()); err != nil {
		WriteError(w, err)
		return
	}
	h.writeState(w, r, http.StatusOK)
}
