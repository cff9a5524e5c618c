package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crossing-simulator/internal/analysis"
	"crossing-simulator/internal/db"
	"crossing-simulator/internal/signal"
)

func newTestApp(t *testing.T) (*analysis.Manager, *db.MemoryStore, func(*http.Request) *http.Response) {
	t.Helper()
	store := db.NewMemoryStore(db.DemoSnapshot())
	mgr := analysis.NewManager(store, nil, analysis.Options{})
	app := NewApp(mgr, store)
	do := func(req *http.Request) *http.Response {
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		return resp
	}
	return mgr, store, do
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Errors  []string        `json:"errors"`
	Error   string          `json:"error"`
}

func decode(t *testing.T, resp *http.Response) envelope {
	t.Helper()
	defer resp.Body.Close()
	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return env
}

func TestGetSuggestions(t *testing.T) {
	_, _, do := newTestApp(t)
	resp := do(httptest.NewRequest(http.MethodGet, "/api/v1/junctions/demo/suggestions", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	env := decode(t, resp)
	var sugg []signal.Suggestion
	require.NoError(t, json.Unmarshal(env.Data, &sugg))
	require.NotEmpty(t, sugg)
	assert.Equal(t, 90, sugg[0].Duration)
}

func TestGetSegments(t *testing.T) {
	_, _, do := newTestApp(t)

	resp := do(httptest.NewRequest(http.MethodGet, "/api/v1/junctions/demo/crossings/north-a/segments", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var segs []signal.Segment
	require.NoError(t, json.Unmarshal(decode(t, resp).Data, &segs))
	assert.Equal(t, []signal.Segment{
		{Offset: 10, Duration: 40, Color: signal.Green},
		{Offset: 50, Duration: 50, Color: signal.Red},
	}, segs)

	resp = do(httptest.NewRequest(http.MethodGet, "/api/v1/junctions/demo/crossings/north-a/segments?projected=true", nil))
	require.NoError(t, json.Unmarshal(decode(t, resp).Data, &segs))
	assert.Len(t, segs, 3)

	resp = do(httptest.NewRequest(http.MethodGet, "/api/v1/junctions/demo/crossings/nowhere/segments", nil))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUnknownJunction(t *testing.T) {
	_, _, do := newTestApp(t)
	resp := do(httptest.NewRequest(http.MethodGet, "/api/v1/junctions/nope/report", nil))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	env := decode(t, resp)
	assert.False(t, env.Success)
	assert.Equal(t, "Unknown junction", env.Error)
}

func TestPutCycle_RejectsNonPositiveDuration(t *testing.T) {
	_, store, do := newTestApp(t)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/junctions/demo/cycle", strings.NewReader(`{"duration":0,"offset":3}`))
	req.Header.Set("Content-Type", "application/json")
	resp := do(req)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	s, err := store.LoadSnapshot(req.Context(), "demo")
	require.NoError(t, err)
	assert.Equal(t, 90, s.Cycle.Duration)
}

func TestPutJourneys_ReportsInvalidLines(t *testing.T) {
	mgr, _, do := newTestApp(t)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/junctions/demo/journeys", strings.NewReader("0 1\n7 0\n"))
	req.Header.Set("Content-Type", "text/plain")
	resp := do(req)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	e, ok := mgr.Latest("demo")
	require.True(t, ok)
	assert.Len(t, e.Report.Journeys, 1)
	assert.Len(t, e.Report.JourneyErrors, 1)

	resp = do(httptest.NewRequest(http.MethodGet, "/api/v1/junctions/demo/journeys", nil))
	env := decode(t, resp)
	assert.Len(t, env.Errors, 1)
}

func TestPostTransitions(t *testing.T) {
	_, store, do := newTestApp(t)
	body := `[{"crossing":"east","color":"red","at":185},{"crossing":"east","color":"green","at":235}]`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/junctions/demo/transitions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := do(req)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	s, err := store.LoadSnapshot(req.Context(), "demo")
	require.NoError(t, err)
	assert.Len(t, s.Transitions, len(db.DemoSnapshot().Transitions)+2)

	bad := httptest.NewRequest(http.MethodPost, "/api/v1/junctions/demo/transitions", strings.NewReader(`[{"crossing":"east","color":"amber","at":1}]`))
	bad.Header.Set("Content-Type", "application/json")
	assert.Equal(t, http.StatusBadRequest, do(bad).StatusCode)
}

func TestGetChart(t *testing.T) {
	_, _, do := newTestApp(t)
	resp := do(httptest.NewRequest(http.MethodGet, "/api/v1/junctions/demo/chart", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")

	resp = do(httptest.NewRequest(http.MethodGet, "/api/v1/junctions/demo/chart.png?width=4&height=3", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))

	resp = do(httptest.NewRequest(http.MethodGet, "/api/v1/junctions/demo/chart.png?width=400", nil))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
