package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/Dosada05/cuereview/models"
	"github.com/Dosada05/cuereview/services"
	"github.com/Dosada05/cuereview/utils"
	"github.com/go-chi/chi/v5"
)

type jsonResponse map[string]interface{}

func writeJSON(w http.ResponseWriter, status int, data interface{}, headers http.Header) error {
	js, err := json.MarshalIndent(data, "", "\t")
	if err != nil {
		return err
	}
	js = append(js, '\n')

	for key, value := range headers {
		w.Header()[key] = value
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(js)
	return err
}

func errorResponse(w http.ResponseWriter, r *http.Request, status int, message interface{}) {
	if err := writeJSON(w, status, jsonResponse{"error": message}, nil); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	errorResponse(w, r, http.StatusInternalServerError,
		"the server encountered a problem and could not process your request")
}

func badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func notFoundResponse(w http.ResponseWriter, r *http.Request) {
	errorResponse(w, r, http.StatusNotFound, "the requested resource could not be found")
}

func getIDFromURL(r *http.Request, paramName string) (int, error) {
	idStr := chi.URLParam(r, paramName)
	if idStr == "" {
		return 0, fmt.Errorf("missing %s in URL path", paramName)
	}
	id, err := strconv.Atoi(idStr)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive integer", paramName)
	}
	return id, nil
}

// rangeFromQuery resolves the date range a listing covers: a "duration"
// preset, or explicit "f"/"t" dates.
func rangeFromQuery(r *http.Request) (models.DateRange, error) {
	q := r.URL.Query()
	return utils.RangeFromParams(q.Get("duration"), q.Get("f"), q.Get("t"))
}

// mapServiceErrorToHTTP translates service-layer errors into HTTP responses.
// Unrecognized errors become opaque 500s; the detail stays in the logs.
func mapServiceErrorToHTTP(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrMatchNotFound),
		errors.Is(err, services.ErrFrameNotFound),
		errors.Is(err, services.ErrBreakNotFound),
		errors.Is(err, services.ErrPlayerNotFound),
		errors.Is(err, services.ErrLookupFailed):
		notFoundResponse(w, r)

	case errors.Is(err, services.ErrMalformedInput),
		errors.Is(err, services.ErrTooManyPlayers),
		errors.Is(err, services.ErrInvalidPlayerCount):
		errorResponse(w, r, http.StatusUnprocessableEntity, err.Error())

	case errors.Is(err, services.ErrIngestFailed):
		errorResponse(w, r, http.StatusUnprocessableEntity, err.Error())

	default:
		serverErrorResponse(w, r, err)
	}
}
