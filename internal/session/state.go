package session

import (
	"fmt"

	"github.com/aristath/cycleview/internal/cycles"
	"github.com/aristath/cycleview/internal/datasets"
	"github.com/aristath/cycleview/internal/loader"
)

// Status is the load state of one dataset.
type Status string

const (
	StatusPending Status = "pending"
	StatusLoaded  Status = "loaded"
	// StatusEmpty means the dataset loaded but nothing survived validation.
	StatusEmpty  Status = "empty"
	StatusFailed Status = "failed"
)

// DatasetState describes one dataset of the current series.
type DatasetState struct {
	Status  Status `json:"status"`
	Rows    int    `json:"rows"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

const (
	wavesEmptyMessage  = "No wave components found in waves.csv (rerun pipeline)."
	wavesFailedMessage = "waves.csv missing or unreadable (rerun pipeline)."
)

func failedMessage(kind datasets.Kind) string {
	if kind == datasets.KindWaves {
		return wavesFailedMessage
	}
	return fmt.Sprintf("%s missing or unreadable.", kind.FileName())
}

func emptyMessage(kind datasets.Kind) string {
	switch kind {
	case datasets.KindWaves:
		return wavesEmptyMessage
	case datasets.KindCycles:
		return "No stable cycles in cycles.csv."
	}
	return fmt.Sprintf("No usable rows in %s.", kind.FileName())
}

// seriesState is everything derived from the five datasets of one series.
// It is replaced wholesale on a series switch.
type seriesState struct {
	datasets  map[datasets.Kind]DatasetState
	summary   *cycles.Summary
	prices    []cycles.PricePoint
	spectrum  []cycles.SpectrumPoint
	stable    []cycles.Cycle
	peerMax   float64
	colors    map[cycles.Key]string
	waves     map[cycles.Key]cycles.WaveSeries
	selection *cycles.Selection

	pending int
	done    chan struct{}
}

func newSeriesState() *seriesState {
	st := &seriesState{
		datasets:  make(map[datasets.Kind]DatasetState, len(datasets.AllKinds)),
		colors:    map[cycles.Key]string{},
		waves:     map[cycles.Key]cycles.WaveSeries{},
		selection: cycles.NewSelection(),
		pending:   len(datasets.AllKinds),
		done:      make(chan struct{}),
	}
	for _, kind := range datasets.AllKinds {
		st.datasets[kind] = DatasetState{Status: StatusPending}
	}
	return st
}

// reduce folds one result into the state. Each dataset writes only its own
// slice; the summary additionally seeds the selection. It reports the new
// dataset state and whether the selection was seeded.
func (st *seriesState) reduce(res loader.Result, opts Options) (DatasetState, bool) {
	if st.datasets[res.Kind].Status != StatusPending {
		return st.datasets[res.Kind], false
	}

	var (
		ds     DatasetState
		seeded bool
	)
	if res.Err != nil {
		ds = DatasetState{
			Status:  StatusFailed,
			Message: failedMessage(res.Kind),
			Error:   res.Err.Error(),
		}
	} else {
		ds.Rows = st.ingest(res, opts)
		seeded = res.Kind == datasets.KindSummary
		ds.Status = StatusLoaded
		if ds.Rows == 0 {
			ds.Status = StatusEmpty
			ds.Message = emptyMessage(res.Kind)
		}
	}

	st.datasets[res.Kind] = ds
	st.pending--
	if st.pending == 0 {
		close(st.done)
	}
	return ds, seeded
}

func (st *seriesState) ingest(res loader.Result, opts Options) int {
	switch res.Kind {
	case datasets.KindSummary:
		st.summary = res.Summary
		st.selection.Seed(res.Summary.DefaultSelection())
		if st.summary == nil {
			return 0
		}
		return 1
	case datasets.KindSeries:
		st.prices = res.Prices
		return len(st.prices)
	case datasets.KindSpectrum:
		st.spectrum = cycles.FilterSpectrum(res.Spectrum, opts.MaxSpectrumPeriod)
		return len(st.spectrum)
	case datasets.KindCycles:
		st.stable = cycles.StableOnly(res.Cycles)
		st.peerMax = cycles.PeerMaxLegacyScore(st.stable)
		st.colors = cycles.AssignColors(st.stable, opts.Palette)
		return len(st.stable)
	case datasets.KindWaves:
		st.waves = cycles.GroupWaves(res.Waves)
		return len(st.waves)
	}
	return 0
}

func (st *seriesState) isStable(key cycles.Key) bool {
	for _, c := range st.stable {
		if c.Key() == key {
			return true
		}
	}
	return false
}
