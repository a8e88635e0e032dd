package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Dosada05/cuereview/services"
	"github.com/go-chi/chi/v5"
)

type PlayerHandler struct {
	players services.PlayerService
	matches services.MatchService
	ratings services.RatingService
}

func NewPlayerHandler(players services.PlayerService, matches services.MatchService, ratings services.RatingService) *PlayerHandler {
	return &PlayerHandler{players: players, matches: matches, ratings: ratings}
}

func (h *PlayerHandler) ListPlayersHandler(w http.ResponseWriter, r *http.Request) {
	rng, err := rangeFromQuery(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	players, err := h.players.ListPlayers(r.Context(), rng)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"players": players}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *PlayerHandler) GetPlayerStatsHandler(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		badRequestResponse(w, r, errors.New("missing player name in URL path"))
		return
	}
	rng, err := rangeFromQuery(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	stats, err := h.players.GetPlayerStats(r.Context(), name, rng)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"player": stats}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *PlayerHandler) ListPlayerMatchesHandler(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		badRequestResponse(w, r, errors.New("missing player name in URL path"))
		return
	}

	infos, err := h.matches.ListMatchesForPlayer(r.Context(), name)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": infos}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ContestProbabilityHandler answers "what is the chance player beats
// opponent right now", from live ratings.
func (h *PlayerHandler) ContestProbabilityHandler(w http.ResponseWriter, r *http.Request) {
	playerID, err := strconv.Atoi(r.URL.Query().Get("player"))
	if err != nil || playerID <= 0 {
		badRequestResponse(w, r, errors.New("player must be a positive integer id"))
		return
	}
	opponentID, err := strconv.Atoi(r.URL.Query().Get("opponent"))
	if err != nil || opponentID <= 0 {
		badRequestResponse(w, r, errors.New("opponent must be a positive integer id"))
		return
	}

	probability, err := h.ratings.ContestProbability(r.Context(), nil, playerID, opponentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"probability": probability}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
