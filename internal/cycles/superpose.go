package cycles

import (
	"fmt"
	"slices"
)

// Mode is how the selected cycles are drawn over the base series.
type Mode string

const (
	// ModeSuperpose draws the date-aligned sum of all selected waveforms.
	ModeSuperpose Mode = "superpose"
	// ModeIndividual draws every selected waveform on its own.
	ModeIndividual Mode = "individual"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeSuperpose, ModeIndividual:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown overlay mode %q", s)
}

// Combined is one output series of Combine. Key is empty for the superposition.
type Combined struct {
	Key    Key
	Points WaveSeries
}

// Combine turns the selected keys and their waveforms into display series.
// Keys without wave data are skipped. In superpose mode the result is a single
// series, or nothing when no key contributes; in individual mode it is one
// series per contributing key, in the order given.
func Combine(keys []Key, waves map[Key]WaveSeries, mode Mode) []Combined {
	contributing := make([]Key, 0, len(keys))
	seen := make(map[Key]bool, len(keys))
	for _, k := range keys {
		if seen[k] || len(waves[k]) == 0 {
			continue
		}
		seen[k] = true
		contributing = append(contributing, k)
	}
	if len(contributing) == 0 {
		return nil
	}

	if mode == ModeIndividual {
		out := make([]Combined, 0, len(contributing))
		for _, k := range contributing {
			out = append(out, Combined{Key: k, Points: waves[k]})
		}
		return out
	}

	series := make([]WaveSeries, 0, len(contributing))
	// Summing in key order keeps the float result independent of selection order.
	slices.Sort(contributing)
	for _, k := range contributing {
		series = append(series, waves[k])
	}
	return []Combined{{Points: Superpose(series...)}}
}

// Superpose sums waveforms by date over the union of their dates. A series
// with no sample on a date contributes nothing to that date.
func Superpose(series ...WaveSeries) WaveSeries {
	sums := make(map[int64]float64)
	dates := make(map[int64]Date)
	for _, s := range series {
		for _, p := range s {
			k := p.Date.unixKey()
			sums[k] += p.Value
			dates[k] = p.Date
		}
	}
	if len(sums) == 0 {
		return nil
	}

	out := make(WaveSeries, 0, len(sums))
	for k, v := range sums {
		out = append(out, WavePoint{Date: dates[k], Value: v})
	}
	slices.SortFunc(out, func(a, b WavePoint) int {
		return a.Date.Compare(b.Date.Time)
	})
	return out
}
