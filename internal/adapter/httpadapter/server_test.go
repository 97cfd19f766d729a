package httpadapter_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/SurawutP/Projectpm2.5/internal/adapter/httpadapter"
	"github.com/SurawutP/Projectpm2.5/internal/domain"
	"github.com/SurawutP/Projectpm2.5/internal/observability"
	"github.com/SurawutP/Projectpm2.5/internal/session"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	reading domain.MeteorologicalReading
	err     error
}

func (s *stubSource) FetchReading(_ context.Context, _ domain.Coordinate, _ time.Time, _ int) (domain.MeteorologicalReading, error) {
	return s.reading, s.err
}

func ptr(v float64) *float64 { return &v }

func newTestServer(t *testing.T, source domain.WeatherSource) *httpadapter.Server {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Bangkok")
	require.NoError(t, err)

	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2026, 3, 14, 10, 30, 0, 0, loc)))
	t.Cleanup(func() { domain.SetClock(nil) })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sess := session.New(source, nil, loc, logger, observability.NewMetricsForTesting())
	return httpadapter.NewServer(":0", sess, loc, logger)
}

func defaultServer(t *testing.T) *httpadapter.Server {
	t.Helper()
	return newTestServer(t, &stubSource{reading: domain.MeteorologicalReading{WindSpeed: ptr(2), MixingHeight: ptr(500)}})
}

func do(t *testing.T, srv *httpadapter.Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(method, path, r))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type siteBody struct {
	ID          string            `json:"id"`
	Coordinate  domain.Coordinate `json:"coordinate"`
	BurnAreaRai float64           `json:"burn_area_rai"`
	Result      *struct {
		Concentration float64 `json:"concentration_ug_m3"`
		Level         struct {
			Code  string `json:"code"`
			Label string `json:"label"`
		} `json:"level"`
	} `json:"result"`
}

type snapshotBody struct {
	Schedule struct {
		Date string `json:"date"`
		Hour int    `json:"hour"`
	} `json:"schedule"`
	Sites          []siteBody `json:"sites"`
	SelectedSiteID string     `json:"selected_site_id"`
}

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func addSite(t *testing.T, srv *httpadapter.Server) siteBody {
	t.Helper()
	rec := do(t, srv, http.MethodPost, "/api/sites", `{"lat":18.7883,"lng":98.9853}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[siteBody](t, rec)
}

func TestHealthzReturns200(t *testing.T) {
	srv := defaultServer(t)
	rec := do(t, srv, http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decode[map[string]string](t, rec)["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	srv := defaultServer(t)
	rec := do(t, srv, http.MethodGet, "/readyz", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", decode[map[string]string](t, rec)["status"])
}

func TestReadyzReturns503WithoutSource(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := do(t, srv, http.MethodGet, "/readyz", "")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decode[map[string]string](t, rec)
	assert.Equal(t, "not ready", body["status"])
	assert.NotEmpty(t, body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv := defaultServer(t)
	rec := do(t, srv, http.MethodGet, "/metrics", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestLevels(t *testing.T) {
	srv := defaultServer(t)
	rec := do(t, srv, http.MethodGet, "/api/levels", "")
	require.Equal(t, http.StatusOK, rec.Code)

	levels := decode[[]map[string]any](t, rec)
	require.Len(t, levels, 5)
	assert.Equal(t, "very_good", levels[0]["code"])
	assert.Equal(t, "hazardous", levels[4]["code"])
}

func TestSessionWorkflow(t *testing.T) {
	srv := defaultServer(t)

	site := addSite(t, srv)
	assert.NotEmpty(t, site.ID)
	assert.Nil(t, site.Result)

	rec := do(t, srv, http.MethodPut, "/api/sites/"+site.ID+"/area", `{"area_rai":100}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 100.0, decode[siteBody](t, rec).BurnAreaRai)

	rec = do(t, srv, http.MethodPost, "/api/sites/"+site.ID+"/simulate", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := decode[map[string]any](t, rec)
	assert.InDelta(t, 3.03, result["concentration_ug_m3"], 0.01)

	rec = do(t, srv, http.MethodGet, "/api/sites/"+site.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[siteBody](t, rec)
	require.NotNil(t, got.Result)
	assert.Equal(t, "very_good", got.Result.Level.Code)
	assert.Equal(t, "ดีมาก", got.Result.Level.Label)

	rec = do(t, srv, http.MethodGet, "/api/session", "")
	require.Equal(t, http.StatusOK, rec.Code)
	snap := decode[snapshotBody](t, rec)
	require.Len(t, snap.Sites, 1)
	assert.Equal(t, site.ID, snap.SelectedSiteID)
	assert.Equal(t, "2026-03-14", snap.Schedule.Date)
	assert.Equal(t, 10, snap.Schedule.Hour)

	rec = do(t, srv, http.MethodDelete, "/api/sites/"+site.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/sites/"+site.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decode[errorBody](t, rec).Kind)
}

func TestAddSite_Validation(t *testing.T) {
	srv := defaultServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing lng", `{"lat":18.7}`},
		{"out of range", `{"lat":95,"lng":98.9}`},
		{"malformed", `{"lat":`},
		{"unknown field", `{"lat":1,"lng":2,"alt":3}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodPost, "/api/sites", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "invalid_input", decode[errorBody](t, rec).Kind)
		})
	}
}

func TestMoveSite(t *testing.T) {
	srv := defaultServer(t)
	site := addSite(t, srv)

	rec := do(t, srv, http.MethodPut, "/api/sites/"+site.ID+"/coordinate", `{"lat":13.7367,"lng":100.5232}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, domain.Coordinate{Lat: 13.7367, Lng: 100.5232}, decode[siteBody](t, rec).Coordinate)

	rec = do(t, srv, http.MethodPut, "/api/sites/missing/coordinate", `{"lat":13.7,"lng":100.5}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSelectSite(t *testing.T) {
	srv := defaultServer(t)
	first := addSite(t, srv)
	addSite(t, srv)

	rec := do(t, srv, http.MethodPost, "/api/sites/"+first.ID+"/select", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, first.ID, decode[snapshotBody](t, rec).SelectedSiteID)

	rec = do(t, srv, http.MethodPost, "/api/sites/missing/select", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSetArea_Invalid(t *testing.T) {
	srv := defaultServer(t)
	site := addSite(t, srv)

	for _, body := range []string{`{"area_rai":0}`, `{"area_rai":-1}`, `{}`} {
		rec := do(t, srv, http.MethodPut, "/api/sites/"+site.ID+"/area", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestSetSchedule(t *testing.T) {
	srv := defaultServer(t)

	rec := do(t, srv, http.MethodPut, "/api/schedule", `{"date":"2026-03-15","hour":7}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, map[string]any{"date": "2026-03-15", "hour": float64(7)}, decode[map[string]any](t, rec))

	tests := []struct {
		name string
		body string
	}{
		{"past hour", `{"date":"2026-03-14","hour":9}`},
		{"bad date", `{"date":"14/03/2026","hour":9}`},
		{"hour out of range", `{"date":"2026-03-15","hour":24}`},
		{"missing hour", `{"date":"2026-03-15"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodPut, "/api/schedule", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}

	snap := decode[snapshotBody](t, do(t, srv, http.MethodGet, "/api/session", ""))
	assert.Equal(t, "2026-03-15", snap.Schedule.Date)
	assert.Equal(t, 7, snap.Schedule.Hour)
}

func TestClear(t *testing.T) {
	srv := defaultServer(t)
	addSite(t, srv)
	addSite(t, srv)

	rec := do(t, srv, http.MethodPost, "/api/clear", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	snap := decode[snapshotBody](t, do(t, srv, http.MethodGet, "/api/session", ""))
	assert.Empty(t, snap.Sites)
	assert.Empty(t, snap.SelectedSiteID)
}

func TestSimulate_ErrorStatuses(t *testing.T) {
	tests := []struct {
		name   string
		source *stubSource
		status int
		kind   string
	}{
		{"forecast missing", &stubSource{err: domain.ErrNotFound}, http.StatusNotFound, "not_found"},
		{"provider down", &stubSource{err: domain.ErrUnavailable}, http.StatusBadGateway, "unavailable"},
		{"calm wind", &stubSource{reading: domain.MeteorologicalReading{WindSpeed: ptr(0), MixingHeight: ptr(500)}}, http.StatusUnprocessableEntity, "division_by_zero"},
		{"null mixing height", &stubSource{reading: domain.MeteorologicalReading{WindSpeed: ptr(2)}}, http.StatusUnprocessableEntity, "incomplete_data"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, tt.source)
			site := addSite(t, srv)
			require.Equal(t, http.StatusOK, do(t, srv, http.MethodPut, "/api/sites/"+site.ID+"/area", `{"area_rai":10}`).Code)

			rec := do(t, srv, http.MethodPost, "/api/sites/"+site.ID+"/simulate", "")
			assert.Equal(t, tt.status, rec.Code)
			body := decode[errorBody](t, rec)
			assert.Equal(t, tt.kind, body.Kind)
			assert.NotEmpty(t, body.Error)
		})
	}
}

// blockingSource holds each fetch until release is closed.
type blockingSource struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingSource) FetchReading(ctx context.Context, _ domain.Coordinate, _ time.Time, _ int) (domain.MeteorologicalReading, error) {
	b.started <- struct{}{}
	select {
	case <-b.release:
		return domain.MeteorologicalReading{WindSpeed: ptr(2), MixingHeight: ptr(500)}, nil
	case <-ctx.Done():
		return domain.MeteorologicalReading{}, ctx.Err()
	}
}

func TestSimulate_SiteRemovedInFlight(t *testing.T) {
	source := &blockingSource{started: make(chan struct{}, 1), release: make(chan struct{})}
	srv := newTestServer(t, source)
	site := addSite(t, srv)
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodPut, "/api/sites/"+site.ID+"/area", `{"area_rai":10}`).Code)

	done := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/sites/"+site.ID+"/simulate", nil))
		done <- rec
	}()
	<-source.started

	assert.Equal(t, http.StatusNoContent, do(t, srv, http.MethodDelete, "/api/sites/"+site.ID, "").Code)
	close(source.release)

	rec := <-done
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestSimulate_HugeAreaRejected(t *testing.T) {
	srv := defaultServer(t)
	site := addSite(t, srv)
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodPut, "/api/sites/"+site.ID+"/area", `{"area_rai":1e308}`).Code)

	rec := do(t, srv, http.MethodPost, "/api/sites/"+site.ID+"/simulate", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/session", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSimulate_WithoutArea(t *testing.T) {
	srv := defaultServer(t)
	site := addSite(t, srv)

	rec := do(t, srv, http.MethodPost, "/api/sites/"+site.ID+"/simulate", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRemoveSite_NotFound(t *testing.T) {
	srv := defaultServer(t)
	rec := do(t, srv, http.MethodDelete, "/api/sites/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	srv := defaultServer(t)
	rec := do(t, srv, http.MethodPost, "/api/session", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
