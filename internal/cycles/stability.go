package cycles

import "math"

// StabilityKind tags which representation a cycle's stability came in.
type StabilityKind uint8

const (
	// StabilityLegacy is an unbounded score that needs peer-relative normalization.
	StabilityLegacy StabilityKind = iota
	// StabilityNormalized is a score the pipeline already normalized to [0,1].
	StabilityNormalized
)

// Stability is the resolved stability representation of a cycle.
type Stability struct {
	Kind  StabilityKind
	Value float64
}

// Normalized wraps an already-normalized score.
func Normalized(v float64) Stability {
	return Stability{Kind: StabilityNormalized, Value: v}
}

// LegacyRaw wraps a legacy unbounded score.
func LegacyRaw(v float64) Stability {
	return Stability{Kind: StabilityLegacy, Value: v}
}

// ResolveStability picks the normalized score when present and numeric, the
// legacy score otherwise.
func ResolveStability(score float64, norm *float64) Stability {
	if norm != nil && !math.IsNaN(*norm) {
		return Normalized(*norm)
	}
	return LegacyRaw(score)
}

// PeerMaxLegacyScore returns the largest legacy score across a result set,
// or 0 when the set is empty.
func PeerMaxLegacyScore(peers []Cycle) float64 {
	maxScore := 0.0
	for _, c := range peers {
		if c.StabilityScore > maxScore {
			maxScore = c.StabilityScore
		}
	}
	return maxScore
}

// NormalizeStability maps a cycle's stability into [0,1]. Legacy scores are
// divided by the peer maximum; with no usable peer maximum the result is 0.
func NormalizeStability(c Cycle, peerMaxLegacyScore float64) float64 {
	var raw float64
	switch c.Stability.Kind {
	case StabilityNormalized:
		raw = c.Stability.Value
	default:
		if peerMaxLegacyScore > 0 {
			raw = c.Stability.Value / peerMaxLegacyScore
		}
	}
	return clamp01(raw)
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
