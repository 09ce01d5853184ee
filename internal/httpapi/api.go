// Package httpapi provides the thin HTTP surface around the session
// engine: game creation and joining, the category catalog, the actor's
// token-gated prompt fetch, and the scoreboard.
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/actout/actout/internal/content"
	"github.com/actout/actout/internal/events"
	"github.com/actout/actout/internal/gateway"
	"github.com/actout/actout/internal/models"
	"github.com/actout/actout/internal/registry"
	"github.com/actout/actout/internal/room"
)

// API wires the HTTP handlers to the registry, hub, and catalog.
type API struct {
	registry *registry.Registry
	hub      *gateway.Hub
	store    content.Store
}

// New builds the API.
func New(reg *registry.Registry, hub *gateway.Hub, store content.Store) *API {
	return &API{registry: reg, hub: hub, store: store}
}

// Routes mounts the API on a chi router.
func (a *API) Routes(r chi.Router) {
	r.Post("/api/games", a.handleCreateGame)
	r.Get("/api/games/{code}", a.handleGetGame)
	r.Post("/api/games/{code}/join", a.handleJoinGame)
	r.Get("/api/games/{code}/scoreboard", a.handleScoreboard)
	r.Get("/api/games/{code}/rounds/{roundID}/prompt", a.handleGetPrompt)
	r.Get("/api/categories", a.handleListCategories)
	r.Get("/ws/{code}", a.handleWS)
	r.Get("/healthz", a.handleHealth)
}

func (a *API) handleWS(w http.ResponseWriter, r *http.Request) {
	a.hub.HandleWS(w, r, chi.URLParam(r, "code"))
}

type createGameRequest struct {
	HostName   string `json:"host_name"`
	SessionKey string `json:"session_key"`
}

type createGameResponse struct {
	Code       string              `json:"code"`
	PlayerID   uuid.UUID           `json:"player_id"`
	SessionKey string              `json:"session_key"`
	Game       models.GameSnapshot `json:"game"`
}

func (a *API) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, models.NewGameError(models.ErrValidation, "malformed request body"))
		return
	}

	rm, host, err := a.registry.CreateRoom(req.HostName, req.SessionKey)
	if err != nil {
		writeError(w, err)
		return
	}
	snap, err := rm.Snapshot(r.Context(), room.Sender{PlayerID: host.ID})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, createGameResponse{
		Code:       rm.Code(),
		PlayerID:   host.ID,
		SessionKey: host.SessionKey,
		Game:       snap,
	})
}

func (a *API) handleGetGame(w http.ResponseWriter, r *http.Request) {
	rm, err := a.registry.GetRoom(chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, err)
		return
	}
	snap, err := rm.Snapshot(r.Context(), room.Sender{})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

type joinGameRequest struct {
	PlayerName string `json:"player_name"`
	SessionKey string `json:"session_key"`
}

type joinGameResponse struct {
	PlayerID   uuid.UUID  `json:"player_id"`
	SessionKey string     `json:"session_key"`
	PlayerName string     `json:"player_name"`
	TeamID     *uuid.UUID `json:"team_id,omitempty"`
}

func (a *API) handleJoinGame(w http.ResponseWriter, r *http.Request) {
	rm, err := a.registry.GetRoom(chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, err)
		return
	}

	var req joinGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, models.NewGameError(models.ErrValidation, "malformed request body"))
		return
	}
	if req.SessionKey == "" {
		req.SessionKey = uuid.NewString()
	}

	val, err := rm.Do(r.Context(), room.JoinGame{PlayerName: req.PlayerName, SessionKey: req.SessionKey})
	if err != nil {
		writeError(w, err)
		return
	}
	player := val.(*models.Player)

	writeJSON(w, http.StatusOK, joinGameResponse{
		PlayerID:   player.ID,
		SessionKey: player.SessionKey,
		PlayerName: player.Name,
		TeamID:     player.TeamID,
	})
}

func (a *API) handleScoreboard(w http.ResponseWriter, r *http.Request) {
	rm, err := a.registry.GetRoom(chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, err)
		return
	}
	board, err := rm.Scoreboard(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

type promptResponse struct {
	RoundID  uuid.UUID `json:"round_id"`
	Title    string    `json:"title"`
	TitleAr  string    `json:"title_ar,omitempty"`
	ImageURL string    `json:"image_url,omitempty"`
}

func (a *API) handleGetPrompt(w http.ResponseWriter, r *http.Request) {
	rm, err := a.registry.GetRoom(chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, err)
		return
	}
	roundID, err := uuid.Parse(chi.URLParam(r, "roundID"))
	if err != nil {
		writeError(w, models.NewGameError(models.ErrValidation, "invalid round id"))
		return
	}
	token := r.URL.Query().Get("token")

	prompt, err := rm.PromptForToken(r.Context(), roundID, token)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, promptResponse{
		RoundID:  roundID,
		Title:    prompt.Title,
		TitleAr:  prompt.TitleAr,
		ImageURL: prompt.ImageURL,
	})
}

func (a *API) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := a.store.ListCategories(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to list categories")
		writeError(w, err)
		return
	}
	if categories == nil {
		categories = []models.Category{}
	}
	writeJSON(w, http.StatusOK, categories)
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"rooms":  a.registry.Count(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

// writeError maps the domain error taxonomy onto HTTP statuses. The
// error event shape matches the WebSocket error envelope.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	switch models.KindOf(err) {
	case models.ErrNotFound:
		status = http.StatusNotFound
	case models.ErrAuthorization:
		status = http.StatusForbidden
	case models.ErrToken:
		status = http.StatusForbidden
	case models.ErrStateConflict:
		status = http.StatusConflict
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	ev := events.NewError(err.Error())
	if encErr := json.NewEncoder(w).Encode(ev); encErr != nil {
		log.Error().Err(encErr).Msg("failed to encode error response")
	}
}
