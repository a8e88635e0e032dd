package handlers

import (
	"net/http"

	"github.com/Dosada05/cuereview/services"
)

type StatsHandler struct {
	stats services.StatsService
}

func NewStatsHandler(stats services.StatsService) *StatsHandler {
	return &StatsHandler{stats: stats}
}

func (h *StatsHandler) BallStatsHandler(w http.ResponseWriter, r *http.Request) {
	rng, err := rangeFromQuery(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	stats, err := h.stats.BallStats(r.Context(), rng)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"balls": stats}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
