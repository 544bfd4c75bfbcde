package cycles

import "slices"

// MaxDisplayPeriodDays is the longest period shown on the spectrum chart.
const MaxDisplayPeriodDays = 365.0

// FilterSpectrum drops bins longer than maxPeriodDays and sorts the rest by
// period ascending.
func FilterSpectrum(points []SpectrumPoint, maxPeriodDays float64) []SpectrumPoint {
	out := make([]SpectrumPoint, 0, len(points))
	for _, p := range points {
		if p.PeriodDays <= maxPeriodDays {
			out = append(out, p)
		}
	}
	slices.SortStableFunc(out, func(a, b SpectrumPoint) int {
		return compareFloat(a.PeriodDays, b.PeriodDays)
	})
	return out
}

// SelectedPeaks returns the spectrum highlight for every selected stable cycle,
// in load order.
func SelectedPeaks(stable []Cycle, selection *Selection) []SpectrumPoint {
	peaks := make([]SpectrumPoint, 0, selection.Len())
	for _, c := range stable {
		if selection.Contains(c.Key()) {
			peaks = append(peaks, SpectrumPoint{PeriodDays: c.PeriodDays, NormPower: c.NormPower})
		}
	}
	return peaks
}
