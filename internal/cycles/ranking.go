package cycles

import (
	"fmt"
	"slices"
	"strings"
)

// SortKey selects the field the cycle table is ordered by.
type SortKey string

const (
	SortPeriod    SortKey = "period"
	SortPower     SortKey = "power"
	SortPresence  SortKey = "presence"
	SortStability SortKey = "stability"
)

// SortKeys lists every sort key in table column order.
var SortKeys = []SortKey{SortPeriod, SortPower, SortPresence, SortStability}

// Direction is the primary sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// ParseSortKey accepts the short names and the dataset column names.
func ParseSortKey(s string) (SortKey, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "period", "period_days":
		return SortPeriod, nil
	case "power", "norm_power":
		return SortPower, nil
	case "presence", "presence_ratio":
		return SortPresence, nil
	case "stability", "stability_score", "stability_score_norm":
		return SortStability, nil
	}
	return "", fmt.Errorf("unknown sort key %q", s)
}

// RankingState is the table ordering chosen by the user.
type RankingState struct {
	Key       SortKey   `json:"key"`
	Direction Direction `json:"direction"`
}

// DefaultRanking orders by period, longest first.
func DefaultRanking() RankingState {
	return RankingState{Key: SortPeriod, Direction: Desc}
}

// Select applies a column click: the active key flips direction, any other
// key becomes active in descending order.
func (r RankingState) Select(key SortKey) RankingState {
	if r.Key == key {
		if r.Direction == Asc {
			return RankingState{Key: key, Direction: Desc}
		}
		return RankingState{Key: key, Direction: Asc}
	}
	return RankingState{Key: key, Direction: Desc}
}

// Indicator is the column header glyph for key.
func (r RankingState) Indicator(key SortKey) string {
	if r.Key != key {
		return "↕"
	}
	if r.Direction == Asc {
		return "↑"
	}
	return "↓"
}

// Rank returns a sorted copy of cycles. Equal primary values always fall back
// to period descending, whatever the direction, so the order is total.
func Rank(in []Cycle, state RankingState, peerMaxLegacyScore float64) []Cycle {
	out := slices.Clone(in)
	value := func(c Cycle) float64 {
		switch state.Key {
		case SortPower:
			return c.NormPower
		case SortPresence:
			return c.PresenceRatio
		case SortStability:
			return NormalizeStability(c, peerMaxLegacyScore)
		default:
			return c.PeriodDays
		}
	}

	slices.SortStableFunc(out, func(a, b Cycle) int {
		left, right := value(a), value(b)
		if left == right {
			return compareFloat(b.PeriodDays, a.PeriodDays)
		}
		if state.Direction == Asc {
			return compareFloat(left, right)
		}
		return compareFloat(right, left)
	})
	return out
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
