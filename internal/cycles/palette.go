package cycles

// SuperpositionColor is used for the summed overlay and for row markers in
// superpose mode.
const SuperpositionColor = "#fbbf24"

// Palette is a fixed list of display colors.
type Palette []string

// DefaultPalette is the cycle palette of the overlay chart.
var DefaultPalette = Palette{
	"#f87171",
	"#34d399",
	"#60a5fa",
	"#fbbf24",
	"#a78bfa",
	"#f472b6",
	"#2dd4bf",
	"#e879f9",
}

// At returns the color for a rank index, wrapping around the palette.
func (p Palette) At(index int) string {
	if len(p) == 0 {
		return SuperpositionColor
	}
	if index < 0 {
		index = -index
	}
	return p[index%len(p)]
}

// AssignColors maps each stable cycle to the palette color at its position in
// the canonical (load) order. The first cycle to claim a key keeps it.
func AssignColors(stable []Cycle, p Palette) map[Key]string {
	colors := make(map[Key]string, len(stable))
	for i, c := range stable {
		k := c.Key()
		if _, taken := colors[k]; taken {
			continue
		}
		colors[k] = p.At(i)
	}
	return colors
}
