package cycles

import (
	"encoding/json"
	"math"
	"strings"
)

// Cycle is one spectral component extracted for a series.
type Cycle struct {
	PeriodDays    float64 `json:"period_days"`
	NormPower     float64 `json:"norm_power"`
	PresenceRatio float64 `json:"presence_ratio"`
	// StabilityScore is the legacy unbounded score, comparable only within one result set.
	StabilityScore float64 `json:"stability_score"`
	// StabilityScoreNorm is present only for schema versions that pre-normalize.
	StabilityScoreNorm *float64 `json:"stability_score_norm,omitempty"`
	Stable             bool     `json:"stable"`

	// Stability is resolved once at ingestion from the two fields above.
	Stability Stability `json:"-"`
}

// NewCycle builds a cycle and resolves its stability representation.
func NewCycle(periodDays, normPower, presenceRatio, stabilityScore float64, stabilityScoreNorm *float64, stable bool) Cycle {
	return Cycle{
		PeriodDays:         periodDays,
		NormPower:          normPower,
		PresenceRatio:      presenceRatio,
		StabilityScore:     stabilityScore,
		StabilityScoreNorm: stabilityScoreNorm,
		Stable:             stable,
		Stability:          ResolveStability(stabilityScore, stabilityScoreNorm),
	}
}

// Key returns the cycle's identity.
func (c Cycle) Key() Key {
	return KeyOf(c.PeriodDays)
}

// UnmarshalJSON decodes a cycle as the pipeline writes it into summary.json.
// "stable" may be a boolean or a string, missing numbers decode as zero.
func (c *Cycle) UnmarshalJSON(data []byte) error {
	var raw struct {
		PeriodDays         *float64        `json:"period_days"`
		NormPower          *float64        `json:"norm_power"`
		PresenceRatio      *float64        `json:"presence_ratio"`
		StabilityScore     *float64        `json:"stability_score"`
		StabilityScoreNorm *float64        `json:"stability_score_norm"`
		Stable             json.RawMessage `json:"stable"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var norm *float64
	if raw.StabilityScoreNorm != nil && !math.IsNaN(*raw.StabilityScoreNorm) {
		v := *raw.StabilityScoreNorm
		norm = &v
	}

	*c = NewCycle(
		deref(raw.PeriodDays),
		deref(raw.NormPower),
		deref(raw.PresenceRatio),
		deref(raw.StabilityScore),
		norm,
		ParseStableFlag(strings.Trim(string(raw.Stable), `"`)),
	)
	return nil
}

// ParseStableFlag reports whether s is "true" in any casing. Other truthy
// spellings such as "1" or "t" are not stable.
func ParseStableFlag(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "true")
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// StableOnly keeps the cycles that passed the pipeline's stability gate,
// preserving their load order.
func StableOnly(all []Cycle) []Cycle {
	stable := make([]Cycle, 0, len(all))
	for _, c := range all {
		if c.Stable {
			stable = append(stable, c)
		}
	}
	return stable
}

// Summary is the per-series summary document.
type Summary struct {
	Series             string  `json:"series"`
	Source             string  `json:"source"`
	Points             int     `json:"points"`
	TimeframeDays      int     `json:"timeframe_days"`
	StableCycleCount   int     `json:"stable_cycle_count"`
	SelectedCycles     []Cycle `json:"selected_cycles"`
	FetchURL           string  `json:"fetch_url,omitempty"`
	ResampleRule       string  `json:"resample_rule,omitempty"`
	Transform          string  `json:"transform,omitempty"`
	StepDays           float64 `json:"step_days,omitempty"`
	SignalPoints       int     `json:"signal_points,omitempty"`
	SelectedCycleCount int     `json:"selected_cycle_count,omitempty"`
}

// DefaultSelection returns the keys of the pipeline-suggested cycles.
func (s *Summary) DefaultSelection() []Key {
	if s == nil {
		return nil
	}
	keys := make([]Key, 0, len(s.SelectedCycles))
	for _, c := range s.SelectedCycles {
		keys = append(keys, c.Key())
	}
	return keys
}

// PricePoint is one sample of the base series.
type PricePoint struct {
	Date  Date    `json:"date"`
	Value float64 `json:"value"`
}

// SpectrumPoint is one bin of the power spectrum.
type SpectrumPoint struct {
	PeriodDays float64 `json:"period_days"`
	NormPower  float64 `json:"norm_power"`
}

// WaveSample is one row of the wave export as parsed, before validation.
// Absent cells are nil.
type WaveSample struct {
	Date           string
	PeriodDays     *float64
	ComponentValue *float64
}

// WavePoint is one sample of one cycle's reconstructed waveform.
type WavePoint struct {
	Date  Date    `json:"date"`
	Value float64 `json:"value"`
}

// WaveSeries is a single cycle's waveform ordered by date.
type WaveSeries []WavePoint
