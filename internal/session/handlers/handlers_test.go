package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aristath/cycleview/internal/catalog"
	"github.com/aristath/cycleview/internal/cycles"
	"github.com/aristath/cycleview/internal/datasets"
	"github.com/aristath/cycleview/internal/loader"
	"github.com/aristath/cycleview/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

var seriesFiles = map[string]string{
	"summary.json": `{"source":"yahoo","series":"SPY","points":3,"stable_cycle_count":2,` +
		`"selected_cycles":[{"period_days":30.0,"norm_power":0.4,"presence_ratio":0.8,"stability_score":2.0,"stable":true}]}`,
	"series.csv":   "date,value\n2024-01-01,100\n2024-01-02,110\n2024-01-03,105\n",
	"spectrum.csv": "period_days,norm_power\n90,0.2\n30,0.4\n",
	"cycles.csv": "period_days,norm_power,presence_ratio,stability_score,stable\n" +
		"90.0,0.2,0.6,4.0,True\n" +
		"30.0,0.4,0.8,2.0,True\n",
	"waves.csv": "date,period_days,component_value\n" +
		"2024-01-01,30.0,1.0\n" +
		"2024-01-02,30.0,2.0\n" +
		"2024-01-01,90.0,3.0\n",
}

func writeSeries(t *testing.T, root, id string) {
	t.Helper()
	dir := filepath.Join(root, id)
	require.NoError(t, os.MkdirAll(dir, 0755))
	for name, body := range seriesFiles {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0644))
	}
}

func setupServer(t *testing.T) (*httptest.Server, *session.Manager) {
	t.Helper()
	root := t.TempDir()
	writeSeries(t, root, "yahoo-spy")
	writeSeries(t, root, "yahoo-qqq")

	l := loader.New(datasets.NewDirSource(root), time.Second, zerolog.Nop())
	m := session.NewManager(l, nil, session.Options{}, zerolog.Nop())
	t.Cleanup(m.CloseAll)

	h := NewHandler(m, catalog.Builtin(), zerolog.Nop())
	h.pingInterval = 50 * time.Millisecond

	r := chi.NewRouter()
	r.Route("/api", h.RegisterRoutes)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, m
}

func do(t *testing.T, method, url string, body interface{}) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func createSession(t *testing.T, srv *httptest.Server) session.View {
	t.Helper()
	resp := do(t, http.MethodPost, srv.URL+"/api/sessions?wait=true", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var v session.View
	decodeBody(t, resp, &v)
	return v
}

func TestHandleCreate_DefaultSeries(t *testing.T) {
	srv, m := setupServer(t)

	v := createSession(t, srv)
	assert.NotEmpty(t, v.SessionID)
	assert.Equal(t, "yahoo-spy", v.SeriesID)
	assert.Equal(t, "YAHOO:SPY", v.Header)
	assert.Equal(t, session.StatusLoaded, v.Datasets[datasets.KindCycles].Status)
	require.Len(t, v.Table.Rows, 2)
	assert.Equal(t, 1, v.Counts.Selected)
	assert.Equal(t, 1, m.Count())
}

func TestHandleCreate_InvalidSeries(t *testing.T) {
	srv, m := setupServer(t)

	resp := do(t, http.MethodPost, srv.URL+"/api/sessions", map[string]string{"series": "../etc"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, 0, m.Count())

	resp = do(t, http.MethodPost, srv.URL+"/api/sessions", nil)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/sessions", strings.NewReader("{not json"))
	require.NoError(t, err)
	bad, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer bad.Body.Close()
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
}

func TestHandleGetAndList(t *testing.T) {
	srv, _ := setupServer(t)
	v := createSession(t, srv)

	resp := do(t, http.MethodGet, srv.URL+"/api/sessions/"+v.SessionID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got session.View
	decodeBody(t, resp, &got)
	assert.Equal(t, v.SessionID, got.SessionID)

	resp = do(t, http.MethodGet, srv.URL+"/api/sessions", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list struct {
		Sessions []session.Info `json:"sessions"`
		Count    int            `json:"count"`
	}
	decodeBody(t, resp, &list)
	assert.Equal(t, 1, list.Count)
	require.Len(t, list.Sessions, 1)
	assert.Equal(t, "yahoo-spy", list.Sessions[0].SeriesID)

	resp = do(t, http.MethodGet, srv.URL+"/api/sessions/nope", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	var errBody map[string]string
	decodeBody(t, resp, &errBody)
	assert.Contains(t, errBody["error"], "not found")
}

func TestHandleToggle(t *testing.T) {
	srv, _ := setupServer(t)
	v := createSession(t, srv)
	base := srv.URL + "/api/sessions/" + v.SessionID

	resp := do(t, http.MethodPost, base+"/cycles/90/toggle", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var toggled struct {
		Key      cycles.Key `json:"key"`
		Selected bool       `json:"selected"`
	}
	decodeBody(t, resp, &toggled)
	assert.Equal(t, cycles.KeyOf(90), toggled.Key)
	assert.True(t, toggled.Selected)

	resp = do(t, http.MethodPost, base+"/cycles/30.0/toggle", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &toggled)
	assert.False(t, toggled.Selected)

	// 45 is not a stable cycle of this series
	resp = do(t, http.MethodPost, base+"/cycles/45/toggle", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, http.MethodPost, base+"/cycles/abc/toggle", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleSortAndMode(t *testing.T) {
	srv, _ := setupServer(t)
	v := createSession(t, srv)
	base := srv.URL + "/api/sessions/" + v.SessionID

	resp := do(t, http.MethodPost, base+"/sort", map[string]string{"key": "power"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var ranking cycles.RankingState
	decodeBody(t, resp, &ranking)
	assert.Equal(t, cycles.SortPower, ranking.Key)
	assert.Equal(t, cycles.Desc, ranking.Direction)

	resp = do(t, http.MethodPost, base+"/sort", map[string]string{"key": "power"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &ranking)
	assert.Equal(t, cycles.Asc, ranking.Direction)

	resp = do(t, http.MethodPost, base+"/sort", map[string]string{"key": "color"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, http.MethodGet, base+"/table", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var table session.Table
	decodeBody(t, resp, &table)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, cycles.KeyOf(90), table.Rows[0].Key)

	resp = do(t, http.MethodPut, base+"/mode", map[string]string{"mode": "individual"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, http.MethodPut, base+"/mode", map[string]string{"mode": "sideways"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, http.MethodGet, base+"/overlays", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var overlays struct {
		Overlays []session.Overlay `json:"overlays"`
	}
	decodeBody(t, resp, &overlays)
	require.Len(t, overlays.Overlays, 1)
	assert.Equal(t, "Cycle 30.0d", overlays.Overlays[0].Name)
}

func TestHandleSwitchSeriesAndClose(t *testing.T) {
	srv, m := setupServer(t)
	v := createSession(t, srv)
	base := srv.URL + "/api/sessions/" + v.SessionID

	resp := do(t, http.MethodPut, base+"/series?wait=true", map[string]string{"series": "yahoo-qqq"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got session.View
	decodeBody(t, resp, &got)
	assert.Equal(t, "yahoo-qqq", got.SeriesID)
	assert.Equal(t, v.Generation+1, got.Generation)

	resp = do(t, http.MethodPut, base+"/series", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, http.MethodPut, base+"/series", map[string]string{"series": "Bad Id"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, 0, m.Count())

	resp = do(t, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandleStream(t *testing.T) {
	srv, m := setupServer(t)
	v := createSession(t, srv)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/sessions/" + v.SessionID + "/stream"
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	var initial session.View
	require.NoError(t, wsjson.Read(ctx, conn, &initial))
	assert.Equal(t, v.SessionID, initial.SessionID)

	s, err := m.Get(v.SessionID)
	require.NoError(t, err)
	require.NoError(t, s.SetMode(cycles.ModeIndividual))

	for {
		var next session.View
		require.NoError(t, wsjson.Read(ctx, conn, &next))
		if next.Mode == cycles.ModeIndividual {
			break
		}
	}

	require.NoError(t, m.Close(v.SessionID))
	var rest session.View
	err = wsjson.Read(ctx, conn, &rest)
	for err == nil {
		err = wsjson.Read(ctx, conn, &rest)
	}
	assert.Equal(t, websocket.StatusNormalClosure, websocket.CloseStatus(err))
}

func TestHandleStream_UnknownSession(t *testing.T) {
	srv, _ := setupServer(t)

	resp := do(t, http.MethodGet, srv.URL+"/api/sessions/missing/stream", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
