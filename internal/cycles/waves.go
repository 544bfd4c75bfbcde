package cycles

import (
	"math"
	"slices"
)

// GroupWaves validates wave rows and groups them by cycle key. Rows without a
// parseable date, a numeric period or a numeric value are dropped. Each group
// is sorted ascending by date.
func GroupWaves(samples []WaveSample) map[Key]WaveSeries {
	grouped := make(map[Key]WaveSeries)
	for _, row := range samples {
		if row.PeriodDays == nil || row.ComponentValue == nil {
			continue
		}
		if math.IsNaN(*row.PeriodDays) || math.IsNaN(*row.ComponentValue) {
			continue
		}
		date, err := ParseDate(row.Date)
		if err != nil {
			continue
		}
		key := KeyOf(*row.PeriodDays)
		grouped[key] = append(grouped[key], WavePoint{Date: date, Value: *row.ComponentValue})
	}

	for _, series := range grouped {
		slices.SortStableFunc(series, func(a, b WavePoint) int {
			return a.Date.Compare(b.Date.Time)
		})
	}
	return grouped
}
