package datasets

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/aristath/cycleview/internal/cycles"
)

// table is a header-mapped CSV document.
type table struct {
	columns map[string]int
	rows    [][]string
}

// readTable reads a CSV document keyed by its header row. An empty document
// is a table with no rows; absent columns read as empty cells.
func readTable(r io.Reader) (*table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	t := &table{columns: make(map[string]int)}
	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return t, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, dup := t.columns[name]; !dup {
			t.columns[name] = i
		}
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		if isBlank(record) {
			continue
		}
		t.rows = append(t.rows, record)
	}
	return t, nil
}

func isBlank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// cell returns the trimmed value of column name in row, or "" when absent.
func (t *table) cell(row []string, name string) string {
	i, ok := t.columns[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// number returns the finite numeric value of a cell, nil when the cell is
// empty or not a finite number.
func (t *table) number(row []string, name string) *float64 {
	s := t.cell(row, name)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// ParseSummary decodes a per-series summary.json.
func ParseSummary(r io.Reader) (*cycles.Summary, error) {
	var s cycles.Summary
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to decode summary: %w", err)
	}
	return &s, nil
}

// ParsePriceRows reads series.csv (date,value). Rows without a parseable
// date or numeric value are dropped; input order is kept.
func ParsePriceRows(r io.Reader) ([]cycles.PricePoint, error) {
	t, err := readTable(r)
	if err != nil {
		return nil, fmt.Errorf("series.csv: %w", err)
	}

	points := make([]cycles.PricePoint, 0, len(t.rows))
	for _, row := range t.rows {
		date, err := cycles.ParseDate(t.cell(row, "date"))
		if err != nil {
			continue
		}
		value := t.number(row, "value")
		if value == nil {
			continue
		}
		points = append(points, cycles.PricePoint{Date: date, Value: *value})
	}
	return points, nil
}

// ParseSpectrumRows reads spectrum.csv (period_days,norm_power). Rows
// without both numbers are dropped. Filtering and ordering are left to
// cycles.FilterSpectrum.
func ParseSpectrumRows(r io.Reader) ([]cycles.SpectrumPoint, error) {
	t, err := readTable(r)
	if err != nil {
		return nil, fmt.Errorf("spectrum.csv: %w", err)
	}

	points := make([]cycles.SpectrumPoint, 0, len(t.rows))
	for _, row := range t.rows {
		period, power := t.number(row, "period_days"), t.number(row, "norm_power")
		if period == nil || power == nil {
			continue
		}
		points = append(points, cycles.SpectrumPoint{PeriodDays: *period, NormPower: *power})
	}
	return points, nil
}

// ParseCycleRows reads cycles.csv. Every row with a numeric period is
// returned, stable or not; missing metrics read as zero, a missing stable
// column reads as not stable and a missing stability_score_norm column
// selects the legacy stability score.
func ParseCycleRows(r io.Reader) ([]cycles.Cycle, error) {
	t, err := readTable(r)
	if err != nil {
		return nil, fmt.Errorf("cycles.csv: %w", err)
	}

	out := make([]cycles.Cycle, 0, len(t.rows))
	for _, row := range t.rows {
		period := t.number(row, "period_days")
		if period == nil {
			continue
		}
		out = append(out, cycles.NewCycle(
			*period,
			orZero(t.number(row, "norm_power")),
			orZero(t.number(row, "presence_ratio")),
			orZero(t.number(row, "stability_score")),
			t.number(row, "stability_score_norm"),
			cycles.ParseStableFlag(t.cell(row, "stable")),
		))
	}
	return out, nil
}

// ParseWaveRows reads waves.csv (date,period_days,component_value). Cells
// that are empty or not numeric come back as nil so that grouping decides
// which rows to drop.
func ParseWaveRows(r io.Reader) ([]cycles.WaveSample, error) {
	t, err := readTable(r)
	if err != nil {
		return nil, fmt.Errorf("waves.csv: %w", err)
	}

	samples := make([]cycles.WaveSample, 0, len(t.rows))
	for _, row := range t.rows {
		samples = append(samples, cycles.WaveSample{
			Date:           t.cell(row, "date"),
			PeriodDays:     t.number(row, "period_days"),
			ComponentValue: t.number(row, "component_value"),
		})
	}
	return samples, nil
}

func orZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
