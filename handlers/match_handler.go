package handlers

import (
	"net/http"

	"github.com/Dosada05/cuereview/services"
)

type MatchHandler struct {
	matches services.MatchService
}

func NewMatchHandler(matches services.MatchService) *MatchHandler {
	return &MatchHandler{matches: matches}
}

func (h *MatchHandler) ListMatchesHandler(w http.ResponseWriter, r *http.Request) {
	infos, err := h.matches.ListMatches(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": infos}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) GetMatchHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	detail, err := h.matches.GetMatch(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": detail}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) GetFrameHandler(w http.ResponseWriter, r *http.Request) {
	frameID, err := getIDFromURL(r, "frameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	detail, err := h.matches.GetFrame(r.Context(), frameID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"frame": detail}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) GetBreakHandler(w http.ResponseWriter, r *http.Request) {
	breakID, err := getIDFromURL(r, "breakID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	detail, err := h.matches.GetBreak(r.Context(), breakID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"break": detail}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
