package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/Dosada05/cuereview/live"
	"github.com/Dosada05/cuereview/services"
	"github.com/Dosada05/cuereview/storage"
)

const maxUploadBytes = 1 << 20 // 1MB, far beyond any real match export

// Filenames like "match 2024-03-17.csv" carry the match date.
var filenameDate = regexp.MustCompile(`([0-9]+-[0-9]+-[0-9]+)`)

type UploadHandler struct {
	ingest   services.IngestService
	matches  services.MatchService
	uploader storage.FileUploader
	hub      *live.Hub
	logger   *slog.Logger
}

// NewUploadHandler accepts a nil uploader when no archive bucket is
// configured.
func NewUploadHandler(
	ingest services.IngestService,
	matches services.MatchService,
	uploader storage.FileUploader,
	hub *live.Hub,
	logger *slog.Logger,
) *UploadHandler {
	return &UploadHandler{ingest: ingest, matches: matches, uploader: uploader, hub: hub, logger: logger}
}

// UploadMatchHandler ingests one CSV export posted as a multipart "csv" file
// or a plain "csv" form field. A failed ingestion echoes the CSV back so
// nothing is lost client-side.
func (h *UploadHandler) UploadMatchHandler(w http.ResponseWriter, r *http.Request) {
	csvText, filename, err := readUploadedCSV(w, r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	date := dateFromFilename(filename)

	matchID, err := h.ingest.IngestCSV(r.Context(), csvText, date)
	if err != nil {
		// The client keeps the CSV for a corrected retry.
		if writeErr := writeJSON(w, http.StatusUnprocessableEntity, jsonResponse{
			"error": err.Error(),
			"csv":   csvText,
		}, nil); writeErr != nil {
			serverErrorResponse(w, r, writeErr)
		}
		return
	}

	h.archiveCSV(r, matchID, filename, csvText)
	h.notifyFeed(r, matchID)

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"match_id": matchID}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func readUploadedCSV(w http.ResponseWriter, r *http.Request) (string, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if file, header, err := r.FormFile("csv"); err == nil {
		defer file.Close()
		body, readErr := io.ReadAll(file)
		if readErr != nil {
			return "", "", errors.New("failed to read csv file")
		}
		return string(body), header.Filename, nil
	}

	if value := r.PostFormValue("csv"); value != "" {
		return value, "", nil
	}
	return "", "", errors.New("missing csv file or form field")
}

// dateFromFilename pulls the date out of a "match YYYY-MM-DD" style filename.
// Anything else means the match is dated today.
func dateFromFilename(filename string) time.Time {
	if !strings.Contains(strings.ToLower(filename), "match") {
		return time.Time{}
	}
	m := filenameDate.FindStringSubmatch(filename)
	if m == nil {
		return time.Time{}
	}
	date, err := time.Parse("2006-01-02", m[1])
	if err != nil {
		return time.Time{}
	}
	return date
}

func (h *UploadHandler) archiveCSV(r *http.Request, matchID int, filename, csvText string) {
	if h.uploader == nil {
		return
	}
	if filename == "" {
		filename = fmt.Sprintf("match-%d.csv", matchID)
	}
	key := time.Now().UTC().Format("2006/01/") + strings.ReplaceAll(filename, " ", "_")
	result, err := h.uploader.Upload(r.Context(), key, "text/csv", strings.NewReader(csvText))
	if err != nil {
		h.logger.Warn("failed to archive match csv",
			slog.Int("match_id", matchID), slog.Any("error", err))
		return
	}
	h.logger.Info("match csv archived",
		slog.Int("match_id", matchID), slog.String("location", result.Location))
}

func (h *UploadHandler) notifyFeed(r *http.Request, matchID int) {
	if h.hub == nil {
		return
	}
	info, err := h.matches.GetMatch(r.Context(), matchID)
	if err != nil {
		h.logger.Warn("failed to load match for feed event",
			slog.Int("match_id", matchID), slog.Any("error", err))
		return
	}
	h.hub.Publish("match_ingested", info.MatchInfo)
}
