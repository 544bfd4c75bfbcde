package session

import (
	"fmt"
	"strings"

	"github.com/aristath/cycleview/internal/cycles"
	"github.com/aristath/cycleview/internal/datasets"
)

const (
	loadingHeader     = "Loading..."
	emptyTableMessage = "No stable cycles found or still loading."
	superpositionName = "Superposition"
)

// View is a render-ready snapshot of a session.
type View struct {
	SessionID  string                         `json:"session_id"`
	SeriesID   string                         `json:"series_id"`
	Generation uint64                         `json:"generation"`
	Header     string                         `json:"header"`
	Datasets   map[datasets.Kind]DatasetState `json:"datasets"`
	Summary    *cycles.Summary                `json:"summary,omitempty"`
	Prices     []cycles.PricePoint            `json:"prices"`
	Spectrum   []cycles.SpectrumPoint         `json:"spectrum"`
	Peaks      []cycles.SpectrumPoint         `json:"peaks"`
	Ranking    RankingView                    `json:"ranking"`
	Mode       cycles.Mode                    `json:"mode"`
	Table      Table                          `json:"table"`
	Overlays   []Overlay                      `json:"overlays"`
	Colors     map[cycles.Key]string          `json:"colors"`
	Counts     Counts                         `json:"counts"`
	Advisories []string                       `json:"advisories,omitempty"`
	Footer     string                         `json:"footer"`
	Axes       Axes                           `json:"axes"`
}

// RankingView is the active ranking plus the indicator for every column.
type RankingView struct {
	cycles.RankingState
	Indicators map[cycles.SortKey]string `json:"indicators"`
}

// Table is the ranked cycle table.
type Table struct {
	Rows    []Row  `json:"rows"`
	Message string `json:"message,omitempty"`
}

// Row is one stable cycle as displayed.
type Row struct {
	Key           cycles.Key `json:"key"`
	PeriodDays    float64    `json:"period_days"`
	NormPower     float64    `json:"norm_power"`
	PresenceRatio float64    `json:"presence_ratio"`
	Stability     float64    `json:"stability"`
	Selected      bool       `json:"selected"`
	Color         string     `json:"color"`
	// DrawColor is the selection marker color, empty when unselected.
	DrawColor string `json:"draw_color,omitempty"`

	PeriodLabel    string `json:"period_label"`
	PowerLabel     string `json:"power_label"`
	PresenceLabel  string `json:"presence_label"`
	StabilityLabel string `json:"stability_label"`
}

// Overlay is one line drawn over the price chart.
type Overlay struct {
	Key    cycles.Key        `json:"key,omitempty"`
	Name   string            `json:"name"`
	Color  string            `json:"color"`
	Points cycles.WaveSeries `json:"points"`
}

// Counts feed the table footer.
type Counts struct {
	Stable   int `json:"stable"`
	Selected int `json:"selected"`
}

// Axes holds padded value ranges; nil when a chart has no data.
type Axes struct {
	Price    *cycles.AxisRange `json:"price,omitempty"`
	Spectrum *cycles.AxisRange `json:"spectrum,omitempty"`
	Overlay  *cycles.AxisRange `json:"overlay,omitempty"`
}

// View renders the current state.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = s.now()

	st := s.state
	table := s.table()
	overlays := s.overlays()

	v := View{
		SessionID:  s.id,
		SeriesID:   s.seriesID,
		Generation: s.generation,
		Header:     header(st.summary),
		Datasets:   make(map[datasets.Kind]DatasetState, len(st.datasets)),
		Summary:    st.summary,
		Prices:     st.prices,
		Spectrum:   st.spectrum,
		Peaks:      cycles.SelectedPeaks(st.stable, st.selection),
		Ranking:    rankingView(s.ranking),
		Mode:       s.mode,
		Table:      table,
		Overlays:   overlays,
		Colors:     make(map[cycles.Key]string, len(st.colors)),
		Counts:     Counts{Stable: len(st.stable), Selected: st.selection.Len()},
		Axes:       axes(st, overlays),
	}
	for kind, ds := range st.datasets {
		v.Datasets[kind] = ds
	}
	for k, c := range st.colors {
		v.Colors[k] = c
	}
	for _, kind := range datasets.AllKinds {
		if msg := st.datasets[kind].Message; msg != "" {
			v.Advisories = append(v.Advisories, msg)
		}
	}
	v.Footer = footer(v.Counts, st.datasets[datasets.KindWaves])
	return v
}

// Table renders only the ranked cycle table.
func (s *Session) Table() Table {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.table()
}

// Overlays renders only the chart overlays.
func (s *Session) Overlays() []Overlay {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.overlays()
}

func (s *Session) table() Table {
	st := s.state
	ranked := cycles.Rank(st.stable, s.ranking, st.peerMax)
	if len(ranked) == 0 {
		return Table{Rows: []Row{}, Message: emptyTableMessage}
	}

	rows := make([]Row, 0, len(ranked))
	for _, c := range ranked {
		key := c.Key()
		stability := cycles.NormalizeStability(c, st.peerMax)
		row := Row{
			Key:            key,
			PeriodDays:     c.PeriodDays,
			NormPower:      c.NormPower,
			PresenceRatio:  c.PresenceRatio,
			Stability:      stability,
			Selected:       st.selection.Contains(key),
			Color:          colorOr(st.colors, key),
			PeriodLabel:    fmt.Sprintf("%.1fd", c.PeriodDays),
			PowerLabel:     fmt.Sprintf("%.3f", c.NormPower),
			PresenceLabel:  fmt.Sprintf("%.0f%%", c.PresenceRatio*100),
			StabilityLabel: fmt.Sprintf("%.3f", stability),
		}
		if row.Selected {
			row.DrawColor = cycles.SuperpositionColor
			if s.mode == cycles.ModeIndividual {
				row.DrawColor = row.Color
			}
		}
		rows = append(rows, row)
	}
	return Table{Rows: rows}
}

// overlays follows the canonical load order of the stable cycles, so the
// individual lines keep their order when the table is re-sorted.
func (s *Session) overlays() []Overlay {
	st := s.state
	if st.selection.Len() == 0 {
		return []Overlay{}
	}

	keys := make([]cycles.Key, 0, st.selection.Len())
	periods := make(map[cycles.Key]float64, len(st.stable))
	for _, c := range st.stable {
		k := c.Key()
		if _, seen := periods[k]; !seen {
			periods[k] = c.PeriodDays
		}
		if st.selection.Contains(k) {
			keys = append(keys, k)
		}
	}

	combined := cycles.Combine(keys, st.waves, s.mode)
	out := make([]Overlay, 0, len(combined))
	for _, c := range combined {
		if c.Key == "" {
			out = append(out, Overlay{
				Name:   superpositionName,
				Color:  cycles.SuperpositionColor,
				Points: c.Points,
			})
			continue
		}
		out = append(out, Overlay{
			Key:    c.Key,
			Name:   fmt.Sprintf("Cycle %.1fd", periods[c.Key]),
			Color:  colorOr(st.colors, c.Key),
			Points: c.Points,
		})
	}
	return out
}

func header(summary *cycles.Summary) string {
	if summary == nil {
		return loadingHeader
	}
	return strings.ToUpper(summary.Source) + ":" + summary.Series
}

func footer(counts Counts, waves DatasetState) string {
	text := fmt.Sprintf("Total stable: %d | Selected: %d", counts.Stable, counts.Selected)
	if waves.Message != "" {
		text += " | " + waves.Message
	}
	return text
}

func rankingView(r cycles.RankingState) RankingView {
	indicators := make(map[cycles.SortKey]string, len(cycles.SortKeys))
	for _, k := range cycles.SortKeys {
		indicators[k] = r.Indicator(k)
	}
	return RankingView{RankingState: r, Indicators: indicators}
}

func colorOr(colors map[cycles.Key]string, key cycles.Key) string {
	if c, ok := colors[key]; ok {
		return c
	}
	return cycles.SuperpositionColor
}

func axes(st *seriesState, overlays []Overlay) Axes {
	var a Axes

	prices := make([]float64, 0, len(st.prices))
	for _, p := range st.prices {
		prices = append(prices, p.Value)
	}
	if r, ok := cycles.PaddedRange(prices); ok {
		a.Price = &r
	}

	powers := make([]float64, 0, len(st.spectrum))
	for _, p := range st.spectrum {
		powers = append(powers, p.NormPower)
	}
	if r, ok := cycles.PaddedRange(powers); ok {
		a.Spectrum = &r
	}

	var values []float64
	for _, o := range overlays {
		for _, p := range o.Points {
			values = append(values, p.Value)
		}
	}
	if r, ok := cycles.PaddedRange(values); ok {
		a.Overlay = &r
	}
	return a
}
