package cycles

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// AxisRange is a padded value-axis extent.
type AxisRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

const axisPaddingRatio = 0.03

// PaddedRange pads the extent of values by 3% of its span. A flat series is
// padded by 3% of its magnitude instead (at least 1e-6). NaNs are ignored;
// ok is false when nothing is left.
func PaddedRange(values []float64) (AxisRange, bool) {
	finite := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return AxisRange{}, false
	}

	lo, hi := floats.Min(finite), floats.Max(finite)
	span := hi - lo
	var padding float64
	if span > 0 {
		padding = span * axisPaddingRatio
	} else {
		magnitude := hi
		if magnitude == 0 {
			magnitude = 1
		}
		padding = math.Max(math.Abs(magnitude)*axisPaddingRatio, 1e-6)
	}
	return AxisRange{Min: lo - padding, Max: hi + padding}, true
}
