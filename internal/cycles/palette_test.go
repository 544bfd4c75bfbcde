package cycles

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPalette_AtWrapsAround(t *testing.T) {
	p := DefaultPalette
	assert.Equal(t, "#f87171", p.At(0))
	assert.Equal(t, "#e879f9", p.At(7))
	assert.Equal(t, "#f87171", p.At(8))
	assert.Equal(t, "#34d399", p.At(17))
}

func TestAssignColors_FollowsLoadOrder(t *testing.T) {
	stable := []Cycle{
		NewCycle(120, 0, 0, 0, nil, true),
		NewCycle(30, 0, 0, 0, nil, true),
		NewCycle(60, 0, 0, 0, nil, true),
	}

	colors := AssignColors(stable, DefaultPalette)
	assert.Equal(t, "#f87171", colors["120.000000"])
	assert.Equal(t, "#34d399", colors["30.000000"])
	assert.Equal(t, "#60a5fa", colors["60.000000"])

	// Reordering the table must not move colors: rank-for-color is the load order
	ranked := Rank(stable, RankingState{Key: SortPeriod, Direction: Asc}, 0)
	assert.Equal(t, 30.0, ranked[0].PeriodDays)
	assert.Equal(t, colors, AssignColors(stable, DefaultPalette))
}

func TestAssignColors_FirstWriterWins(t *testing.T) {
	stable := []Cycle{
		NewCycle(30, 0, 0, 0, nil, true),
		NewCycle(30.0000001, 0, 0, 0, nil, true),
	}
	colors := AssignColors(stable, DefaultPalette)
	assert.Len(t, colors, 1)
	assert.Equal(t, "#f87171", colors["30.000000"])
}

func TestPalette_EmptyFallsBack(t *testing.T) {
	assert.Equal(t, SuperpositionColor, Palette{}.At(3))
}
