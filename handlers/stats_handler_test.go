package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Dosada05/cuereview/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStats struct {
	rng    models.DateRange
	called bool
}

func (f *fakeStats) BallStats(_ context.Context, rng models.DateRange) ([]models.BallStat, error) {
	f.called = true
	f.rng = rng
	return []models.BallStat{}, nil
}

func getBallStats(t *testing.T, stats *fakeStats, target string) *httptest.ResponseRecorder {
	t.Helper()
	handler := NewStatsHandler(stats)
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	handler.BallStatsHandler(rec, req)
	return rec
}

func TestBallStatsExplicitRange(t *testing.T) {
	stats := &fakeStats{}
	rec := getBallStats(t, stats, "/stats?f=2024-01-01&t=2024-03-17")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), stats.rng.From)
	assert.Equal(t, time.Date(2024, 3, 17, 0, 0, 0, 0, time.UTC), stats.rng.To)
}

func TestBallStatsDurationPreset(t *testing.T) {
	stats := &fakeStats{}
	rec := getBallStats(t, stats, "/stats?duration=week")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, -7), stats.rng.From, time.Minute)
}

func TestBallStatsRejectsDurationWithExplicitRange(t *testing.T) {
	stats := &fakeStats{}
	rec := getBallStats(t, stats, "/stats?duration=week&f=2024-01-01")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, stats.called)
}

func TestBallStatsRejectsMalformedDate(t *testing.T) {
	stats := &fakeStats{}
	rec := getBallStats(t, stats, "/stats?f=17-03-2024")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, stats.called)
}
