package session

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/aristath/cycleview/internal/cycles"
	"github.com/aristath/cycleview/internal/datasets"
	"github.com/aristath/cycleview/internal/events"
	"github.com/aristath/cycleview/internal/loader"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

var spyFiles = map[string]string{
	"summary.json": `{"source":"yahoo","series":"SPY","points":3,"timeframe_days":1095,"stable_cycle_count":2,` +
		`"selected_cycles":[{"period_days":30.0,"norm_power":0.4,"presence_ratio":0.8,"stability_score":2.0,"stable":true}],` +
		`"resample_rule":"1D"}`,
	"series.csv":   "date,value\n2024-01-01,100\n2024-01-02,110\n2024-01-03,105\n",
	"spectrum.csv": "period_days,norm_power\n400,0.9\n90,0.2\n30,0.4\n",
	"cycles.csv": "period_days,norm_power,presence_ratio,stability_score,stable\n" +
		"90.0,0.2,0.6,4.0,True\n" +
		"30.0,0.4,0.8,2.0,True\n" +
		"45.0,0.1,0.2,0.5,False\n",
	"waves.csv": "date,period_days,component_value\n" +
		"2024-01-02,30.0,2.0\n" +
		"2024-01-01,30.0,1.0\n" +
		"2024-01-01,90.0,3.0\n" +
		"2024-01-03,90.0,\n",
}

// writeSeries creates <root>/<id>/ with the given artifacts.
func writeSeries(t *testing.T, root, id string, files map[string]string) {
	t.Helper()
	dir := filepath.Join(root, id)
	require.NoError(t, os.MkdirAll(dir, 0755))
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0644))
	}
}

func without(files map[string]string, name string) map[string]string {
	out := make(map[string]string, len(files))
	for k, v := range files {
		if k != name {
			out[k] = v
		}
	}
	return out
}

func dirManager(t *testing.T, root string, rec *recorder) *Manager {
	t.Helper()
	l := loader.New(datasets.NewDirSource(root), time.Second, zerolog.Nop())
	m := NewManager(l, rec, Options{}, zerolog.Nop())
	t.Cleanup(m.CloseAll)
	return m
}

func waitLoaded(t *testing.T, s *Session) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.WaitLoaded(ctx))
}

// recorder captures emitted events.
type recorder struct {
	mu     sync.Mutex
	events []*events.Event
	ch     chan events.EventType
}

func newRecorder() *recorder {
	return &recorder{ch: make(chan events.EventType, 256)}
}

func (r *recorder) EmitTyped(eventType events.EventType, module string, data events.EventData) {
	r.mu.Lock()
	r.events = append(r.events, &events.Event{Type: eventType, Module: module, Data: data})
	r.mu.Unlock()
	select {
	case r.ch <- eventType:
	default:
	}
}

func (r *recorder) waitFor(t *testing.T, eventType events.EventType) {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case got := <-r.ch:
			if got == eventType {
				return
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s", eventType)
		}
	}
}

func (r *recorder) ofType(eventType events.EventType) []*events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*events.Event
	for _, e := range r.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

// loadCall is one Load invocation on a manualLoader.
type loadCall struct {
	ctx        context.Context
	seriesID   string
	generation uint64
	results    chan loader.Result
}

// manualLoader hands every Load back to the test, which delivers results.
type manualLoader struct {
	mu    sync.Mutex
	calls []*loadCall
}

func (l *manualLoader) Load(ctx context.Context, seriesID string, generation uint64) <-chan loader.Result {
	c := &loadCall{ctx: ctx, seriesID: seriesID, generation: generation, results: make(chan loader.Result, 16)}
	l.mu.Lock()
	l.calls = append(l.calls, c)
	l.mu.Unlock()
	return c.results
}

func (l *manualLoader) call(t *testing.T, i int) *loadCall {
	t.Helper()
	l.mu.Lock()
	defer l.mu.Unlock()
	require.Greater(t, len(l.calls), i)
	return l.calls[i]
}

func (c *loadCall) deliver(kind datasets.Kind, fill func(*loader.Result)) {
	res := loader.Result{SeriesID: c.seriesID, Generation: c.generation, Kind: kind}
	if fill != nil {
		fill(&res)
	}
	c.results <- res
}

func ptr(v float64) *float64 {
	return &v
}

func waveRows(period float64, values map[string]float64) []cycles.WaveSample {
	rows := make([]cycles.WaveSample, 0, len(values))
	for date, v := range values {
		rows = append(rows, cycles.WaveSample{Date: date, PeriodDays: ptr(period), ComponentValue: ptr(v)})
	}
	return rows
}
