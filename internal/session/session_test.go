package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aristath/cycleview/internal/cycles"
	"github.com/aristath/cycleview/internal/datasets"
	"github.com/aristath/cycleview/internal/events"
	"github.com/aristath/cycleview/internal/loader"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_LoadsSeries(t *testing.T) {
	root := t.TempDir()
	writeSeries(t, root, "yahoo-spy", spyFiles)
	m := dirManager(t, root, newRecorder())

	s, err := m.Create("yahoo-spy")
	require.NoError(t, err)
	waitLoaded(t, s)

	v := s.View()
	assert.Equal(t, "YAHOO:SPY", v.Header)
	assert.Equal(t, "yahoo-spy", v.SeriesID)
	for _, kind := range datasets.AllKinds {
		assert.Equal(t, StatusLoaded, v.Datasets[kind].Status, kind)
	}
	assert.Equal(t, "1D", v.Summary.ResampleRule)
	assert.Empty(t, v.Advisories)

	require.Len(t, v.Prices, 3)
	require.Len(t, v.Spectrum, 2)
	assert.Equal(t, 30.0, v.Spectrum[0].PeriodDays)

	// period desc by default; 90 has the peer max legacy score
	require.Len(t, v.Table.Rows, 2)
	assert.Empty(t, v.Table.Message)
	r90, r30 := v.Table.Rows[0], v.Table.Rows[1]
	assert.Equal(t, cycles.KeyOf(90), r90.Key)
	assert.Equal(t, 1.0, r90.Stability)
	assert.Equal(t, 0.5, r30.Stability)
	assert.Equal(t, "30.0d", r30.PeriodLabel)
	assert.Equal(t, "0.400", r30.PowerLabel)
	assert.Equal(t, "80%", r30.PresenceLabel)
	assert.Equal(t, "0.500", r30.StabilityLabel)

	// seeded from summary.selected_cycles
	assert.True(t, r30.Selected)
	assert.False(t, r90.Selected)
	assert.Equal(t, cycles.SuperpositionColor, r30.DrawColor)
	assert.Empty(t, r90.DrawColor)

	// colors follow load order, not the table order
	assert.Equal(t, cycles.DefaultPalette[0], v.Colors[cycles.KeyOf(90)])
	assert.Equal(t, cycles.DefaultPalette[1], v.Colors[cycles.KeyOf(30)])

	require.Len(t, v.Overlays, 1)
	assert.Equal(t, "Superposition", v.Overlays[0].Name)
	assert.Equal(t, cycles.SuperpositionColor, v.Overlays[0].Color)
	require.Len(t, v.Overlays[0].Points, 2)
	assert.Equal(t, "2024-01-01", v.Overlays[0].Points[0].Date.String())

	assert.Equal(t, []cycles.SpectrumPoint{{PeriodDays: 30, NormPower: 0.4}}, v.Peaks)
	assert.Equal(t, Counts{Stable: 2, Selected: 1}, v.Counts)
	assert.Equal(t, "Total stable: 2 | Selected: 1", v.Footer)

	require.NotNil(t, v.Axes.Price)
	assert.InDelta(t, 99.7, v.Axes.Price.Min, 1e-9)
	assert.InDelta(t, 110.3, v.Axes.Price.Max, 1e-9)
	require.NotNil(t, v.Axes.Overlay)
	assert.Equal(t, "↓", v.Ranking.Indicators[cycles.SortPeriod])
	assert.Equal(t, "↕", v.Ranking.Indicators[cycles.SortPower])
}

func TestSession_ToggleAndModes(t *testing.T) {
	root := t.TempDir()
	writeSeries(t, root, "yahoo-spy", spyFiles)
	rec := newRecorder()
	m := dirManager(t, root, rec)

	s, err := m.Create("yahoo-spy")
	require.NoError(t, err)
	waitLoaded(t, s)

	selected, err := s.Toggle(cycles.KeyOf(90))
	require.NoError(t, err)
	assert.True(t, selected)

	overlays := s.Overlays()
	require.Len(t, overlays, 1)
	assert.Equal(t, cycles.WaveSeries{
		{Date: cycles.NewDate(2024, time.January, 1), Value: 4},
		{Date: cycles.NewDate(2024, time.January, 2), Value: 2},
	}, overlays[0].Points)

	require.NoError(t, s.SetMode(cycles.ModeIndividual))
	overlays = s.Overlays()
	require.Len(t, overlays, 2)
	assert.Equal(t, "Cycle 90.0d", overlays[0].Name)
	assert.Equal(t, cycles.DefaultPalette[0], overlays[0].Color)
	assert.Equal(t, "Cycle 30.0d", overlays[1].Name)
	assert.Equal(t, cycles.DefaultPalette[1], overlays[1].Color)

	table := s.Table()
	assert.Equal(t, cycles.DefaultPalette[0], table.Rows[0].DrawColor)

	// switching mode leaves the selection alone
	require.NoError(t, s.SetMode(cycles.ModeSuperpose))
	assert.Equal(t, 2, s.View().Counts.Selected)

	selected, err = s.Toggle(cycles.KeyOf(90))
	require.NoError(t, err)
	assert.False(t, selected)
	assert.Equal(t, 1, s.View().Counts.Selected)

	_, err = s.Toggle(cycles.KeyOf(45))
	assert.ErrorIs(t, err, ErrNotSelectable)

	assert.Error(t, s.SetMode("stacked"))
	assert.NotEmpty(t, rec.ofType(events.SelectionChanged))
	assert.Len(t, rec.ofType(events.ModeChanged), 2)
}

func TestSession_EmptySelectionHasNoOverlay(t *testing.T) {
	root := t.TempDir()
	writeSeries(t, root, "yahoo-spy", spyFiles)
	m := dirManager(t, root, newRecorder())

	s, err := m.Create("yahoo-spy")
	require.NoError(t, err)
	waitLoaded(t, s)

	_, err = s.Toggle(cycles.KeyOf(30))
	require.NoError(t, err)

	v := s.View()
	assert.Empty(t, v.Overlays)
	assert.Nil(t, v.Axes.Overlay)
	assert.Empty(t, v.Peaks)
}

func TestSession_SelectSort(t *testing.T) {
	root := t.TempDir()
	writeSeries(t, root, "yahoo-spy", spyFiles)
	m := dirManager(t, root, newRecorder())

	s, err := m.Create("yahoo-spy")
	require.NoError(t, err)
	waitLoaded(t, s)

	r, err := s.SelectSort(cycles.SortPower)
	require.NoError(t, err)
	assert.Equal(t, cycles.Desc, r.Direction)
	assert.Equal(t, cycles.KeyOf(30), s.Table().Rows[0].Key)

	r, err = s.SelectSort(cycles.SortPower)
	require.NoError(t, err)
	assert.Equal(t, cycles.Asc, r.Direction)
	assert.Equal(t, cycles.KeyOf(90), s.Table().Rows[0].Key)
	assert.Equal(t, "↑", s.View().Ranking.Indicators[cycles.SortPower])
}

func TestSession_MissingAndEmptyWaves(t *testing.T) {
	root := t.TempDir()
	writeSeries(t, root, "yahoo-spy", without(spyFiles, "waves.csv"))
	empty := without(spyFiles, "waves.csv")
	empty["waves.csv"] = "date,period_days,component_value\n,30,1\n"
	writeSeries(t, root, "fred-dgs10", empty)
	m := dirManager(t, root, newRecorder())

	s, err := m.Create("yahoo-spy")
	require.NoError(t, err)
	waitLoaded(t, s)

	v := s.View()
	assert.Equal(t, StatusFailed, v.Datasets[datasets.KindWaves].Status)
	assert.Equal(t, StatusLoaded, v.Datasets[datasets.KindCycles].Status)
	assert.Equal(t, []string{wavesFailedMessage}, v.Advisories)
	assert.Equal(t, "Total stable: 2 | Selected: 1 | "+wavesFailedMessage, v.Footer)
	assert.Empty(t, v.Overlays)
	assert.Len(t, v.Table.Rows, 2)

	require.NoError(t, s.SwitchSeries("fred-dgs10"))
	waitLoaded(t, s)

	v = s.View()
	assert.Equal(t, StatusEmpty, v.Datasets[datasets.KindWaves].Status)
	assert.Equal(t, []string{wavesEmptyMessage}, v.Advisories)
}

func TestSession_NoStableCycles(t *testing.T) {
	root := t.TempDir()
	files := without(spyFiles, "cycles.csv")
	files["cycles.csv"] = "period_days,norm_power,presence_ratio,stability_score,stable\n30,0.1,0.1,1,False\n"
	writeSeries(t, root, "yahoo-spy", files)
	m := dirManager(t, root, newRecorder())

	s, err := m.Create("yahoo-spy")
	require.NoError(t, err)
	waitLoaded(t, s)

	v := s.View()
	assert.Equal(t, StatusEmpty, v.Datasets[datasets.KindCycles].Status)
	assert.Empty(t, v.Table.Rows)
	assert.Equal(t, emptyTableMessage, v.Table.Message)
	// the summary default is still counted even without a stable row
	assert.Equal(t, 1, v.Counts.Selected)
}

func TestSession_HeaderlessFilesAreEmpty(t *testing.T) {
	root := t.TempDir()
	renamed := without(spyFiles, "waves.csv")
	renamed["waves.csv"] = "date,period,value\n2024-01-01,30,1\n"
	writeSeries(t, root, "yahoo-spy", renamed)

	blank := without(without(spyFiles, "waves.csv"), "cycles.csv")
	blank["waves.csv"] = ""
	blank["cycles.csv"] = "period_days,norm_power,presence_ratio,stability_score\n30,0.4,0.8,2.0\n"
	writeSeries(t, root, "fred-dgs10", blank)
	m := dirManager(t, root, newRecorder())

	s, err := m.Create("yahoo-spy")
	require.NoError(t, err)
	waitLoaded(t, s)

	v := s.View()
	assert.Equal(t, StatusEmpty, v.Datasets[datasets.KindWaves].Status)
	assert.Empty(t, v.Datasets[datasets.KindWaves].Error)
	assert.Equal(t, []string{wavesEmptyMessage}, v.Advisories)

	require.NoError(t, s.SwitchSeries("fred-dgs10"))
	waitLoaded(t, s)

	v = s.View()
	assert.Equal(t, StatusEmpty, v.Datasets[datasets.KindWaves].Status)
	assert.Equal(t, StatusEmpty, v.Datasets[datasets.KindCycles].Status)
	assert.Empty(t, v.Table.Rows)
	assert.Equal(t, emptyTableMessage, v.Table.Message)
	assert.Equal(t, []string{"No stable cycles in cycles.csv.", wavesEmptyMessage}, v.Advisories)
}

func TestSession_StaleResultIsDiscarded(t *testing.T) {
	l := &manualLoader{}
	rec := newRecorder()
	m := NewManager(l, rec, Options{}, zerolog.Nop())
	t.Cleanup(m.CloseAll)

	s, err := m.Create("yahoo-spy")
	require.NoError(t, err)
	first := l.call(t, 0)
	assert.Equal(t, uint64(1), first.generation)

	first.deliver(datasets.KindSummary, func(r *loader.Result) {
		r.Summary = &cycles.Summary{Source: "yahoo", Series: "SPY", SelectedCycles: []cycles.Cycle{cycles.NewCycle(30, 0, 0, 0, nil, true)}}
	})
	rec.waitFor(t, events.DatasetLoaded)
	assert.Equal(t, "YAHOO:SPY", s.View().Header)

	require.NoError(t, s.SwitchSeries("yahoo-btc-usd"))
	second := l.call(t, 1)
	assert.Equal(t, uint64(2), second.generation)
	assert.ErrorIs(t, first.ctx.Err(), context.Canceled)
	assert.NoError(t, second.ctx.Err())

	// state is reset before anything for the new series arrives
	v := s.View()
	assert.Equal(t, "Loading...", v.Header)
	assert.Equal(t, 0, v.Counts.Selected)

	// the old series' waves resolve late
	first.deliver(datasets.KindWaves, func(r *loader.Result) {
		r.Waves = waveRows(30, map[string]float64{"2024-01-01": 1})
	})
	rec.waitFor(t, events.StaleResultDiscarded)

	v = s.View()
	assert.Equal(t, "yahoo-btc-usd", v.SeriesID)
	assert.Equal(t, StatusPending, v.Datasets[datasets.KindWaves].Status)
	assert.Empty(t, v.Overlays)

	stale := rec.ofType(events.StaleResultDiscarded)
	require.Len(t, stale, 1)
	data := stale[0].Data.(*events.StaleResultDiscardedData)
	assert.Equal(t, "yahoo-spy", data.SeriesID)
	assert.Equal(t, "yahoo-btc-usd", data.CurrentSeriesID)
	assert.Equal(t, uint64(2), data.CurrentGeneration)

	second.deliver(datasets.KindWaves, func(r *loader.Result) {
		r.Waves = waveRows(60, map[string]float64{"2024-01-01": 5})
	})
	rec.waitFor(t, events.DatasetLoaded)
	assert.Equal(t, StatusLoaded, s.View().Datasets[datasets.KindWaves].Status)
}

func TestSession_FailureIsIsolated(t *testing.T) {
	l := &manualLoader{}
	m := NewManager(l, nil, Options{}, zerolog.Nop())
	t.Cleanup(m.CloseAll)

	s, err := m.Create("yahoo-spy")
	require.NoError(t, err)
	c := l.call(t, 0)

	c.deliver(datasets.KindSpectrum, func(r *loader.Result) { r.Err = errors.New("HTTP 502") })
	c.deliver(datasets.KindCycles, func(r *loader.Result) {
		r.Cycles = []cycles.Cycle{cycles.NewCycle(30, 0.5, 0.5, 1, nil, true)}
	})
	c.deliver(datasets.KindSeries, func(r *loader.Result) { r.Err = datasets.ErrDatasetNotFound })
	c.deliver(datasets.KindSummary, func(r *loader.Result) { r.Summary = &cycles.Summary{Source: "yahoo", Series: "SPY"} })
	c.deliver(datasets.KindWaves, func(r *loader.Result) { r.Waves = waveRows(30, map[string]float64{"2024-01-01": 1}) })
	close(c.results)
	waitLoaded(t, s)

	v := s.View()
	assert.Equal(t, StatusFailed, v.Datasets[datasets.KindSpectrum].Status)
	assert.Equal(t, "HTTP 502", v.Datasets[datasets.KindSpectrum].Error)
	assert.Equal(t, StatusFailed, v.Datasets[datasets.KindSeries].Status)
	assert.Equal(t, StatusLoaded, v.Datasets[datasets.KindCycles].Status)
	assert.Equal(t, StatusLoaded, v.Datasets[datasets.KindWaves].Status)
	assert.Equal(t, []string{"series.csv missing or unreadable.", "spectrum.csv missing or unreadable."}, v.Advisories)
	assert.Nil(t, v.Axes.Price)
	assert.Len(t, v.Table.Rows, 1)
}

func TestSession_Subscribe(t *testing.T) {
	l := &manualLoader{}
	m := NewManager(l, nil, Options{}, zerolog.Nop())

	s, err := m.Create("yahoo-spy")
	require.NoError(t, err)

	ch, cancel := s.Subscribe()
	defer cancel()
	assert.Equal(t, 1, s.Info().Subscribers)

	_, err = s.SelectSort(cycles.SortPresence)
	require.NoError(t, err)

	select {
	case _, ok := <-ch:
		assert.True(t, ok)
	case <-time.After(time.Second):
		t.Fatal("no change notification")
	}

	require.NoError(t, m.Close(s.ID()))
	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("subscription not closed")
	}

	assert.ErrorIs(t, s.SwitchSeries("fred-dgs10"), ErrSessionClosed)
	_, err = s.Toggle(cycles.KeyOf(30))
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestSession_InvalidSeries(t *testing.T) {
	m := NewManager(&manualLoader{}, nil, Options{}, zerolog.Nop())

	_, err := m.Create("../secrets")
	assert.ErrorIs(t, err, ErrUnknownSeries)
	assert.ErrorIs(t, err, datasets.ErrInvalidSeries)
	assert.Equal(t, 0, m.Count())
}
