// Package loader fans out the five dataset retrievals for one series and
// delivers each outcome as a tagged Result on a single channel.
package loader

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/aristath/cycleview/internal/cycles"
	"github.com/aristath/cycleview/internal/datasets"
	"github.com/rs/zerolog"
)

// DefaultTimeout bounds a single retrieval including parsing.
const DefaultTimeout = 30 * time.Second

// Result is the outcome of one retrieval. Exactly one payload field is set
// when Err is nil, matching Kind.
type Result struct {
	SeriesID   string
	Generation uint64
	Kind       datasets.Kind
	Elapsed    time.Duration

	Summary  *cycles.Summary
	Prices   []cycles.PricePoint
	Spectrum []cycles.SpectrumPoint
	Cycles   []cycles.Cycle
	Waves    []cycles.WaveSample

	Err error
}

// Rows reports how many rows the payload carries, 1 for a summary.
func (r Result) Rows() int {
	switch r.Kind {
	case datasets.KindSummary:
		if r.Summary != nil {
			return 1
		}
		return 0
	case datasets.KindSeries:
		return len(r.Prices)
	case datasets.KindSpectrum:
		return len(r.Spectrum)
	case datasets.KindCycles:
		return len(r.Cycles)
	case datasets.KindWaves:
		return len(r.Waves)
	}
	return 0
}

// Loader issues retrievals against a Source.
type Loader struct {
	src     datasets.Source
	timeout time.Duration
	log     zerolog.Logger
}

// New creates a loader. A non-positive timeout selects DefaultTimeout.
func New(src datasets.Source, timeout time.Duration, log zerolog.Logger) *Loader {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Loader{
		src:     src,
		timeout: timeout,
		log:     log.With().Str("component", "loader").Logger(),
	}
}

// Load starts one retrieval per dataset kind. Every retrieval delivers exactly
// one Result tagged with seriesID and generation; the channel is closed after
// the last one. Cancelling ctx aborts retrievals still in flight, which then
// report the context error.
func (l *Loader) Load(ctx context.Context, seriesID string, generation uint64) <-chan Result {
	out := make(chan Result, len(datasets.AllKinds))

	var wg sync.WaitGroup
	for _, kind := range datasets.AllKinds {
		wg.Add(1)
		go func(kind datasets.Kind) {
			defer wg.Done()
			out <- l.fetch(ctx, seriesID, generation, kind)
		}(kind)
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	return out
}

// Fetch performs a single retrieval synchronously.
func (l *Loader) Fetch(ctx context.Context, seriesID string, kind datasets.Kind) Result {
	return l.fetch(ctx, seriesID, 0, kind)
}

func (l *Loader) fetch(ctx context.Context, seriesID string, generation uint64, kind datasets.Kind) Result {
	start := time.Now()
	res := Result{SeriesID: seriesID, Generation: generation, Kind: kind}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	res.Err = l.retrieve(ctx, &res)
	res.Elapsed = time.Since(start)

	if res.Err != nil {
		l.log.Debug().
			Err(res.Err).
			Str("series", seriesID).
			Str("dataset", string(kind)).
			Uint64("generation", generation).
			Msg("Dataset retrieval failed")
	} else {
		l.log.Debug().
			Str("series", seriesID).
			Str("dataset", string(kind)).
			Int("rows", res.Rows()).
			Dur("elapsed", res.Elapsed).
			Msg("Dataset retrieved")
	}
	return res
}

func (l *Loader) retrieve(ctx context.Context, res *Result) error {
	rc, err := l.src.Open(ctx, res.SeriesID, res.Kind)
	if err != nil {
		return err
	}
	defer rc.Close()

	if err := parse(rc, res); err != nil {
		return err
	}
	// A source may hand back a reader that ignores ctx; a timeout that
	// fired during parsing still fails the retrieval.
	return ctx.Err()
}

func parse(r io.Reader, res *Result) error {
	var err error
	switch res.Kind {
	case datasets.KindSummary:
		res.Summary, err = datasets.ParseSummary(r)
	case datasets.KindSeries:
		res.Prices, err = datasets.ParsePriceRows(r)
	case datasets.KindSpectrum:
		res.Spectrum, err = datasets.ParseSpectrumRows(r)
	case datasets.KindCycles:
		res.Cycles, err = datasets.ParseCycleRows(r)
	case datasets.KindWaves:
		res.Waves, err = datasets.ParseWaveRows(r)
	default:
		err = fmt.Errorf("unknown dataset kind %q", res.Kind)
	}
	return err
}
