// Package catalog lists the series offered by the series picker.
package catalog

import (
	"fmt"
	"os"
	"slices"

	toml "github.com/pelletier/go-toml/v2"
)

// Series is one entry of the series picker.
type Series struct {
	ID    string `toml:"id" json:"id"`
	Label string `toml:"label" json:"label"`
}

// Catalog is the ordered list of known series plus the default selection.
// Series that are not listed can still be loaded by id.
type Catalog struct {
	DefaultID string   `toml:"default" json:"default"`
	Series    []Series `toml:"series" json:"series"`
}

// Builtin returns the catalog used when no file is configured.
func Builtin() *Catalog {
	return &Catalog{
		DefaultID: "yahoo-spy",
		Series: []Series{
			{ID: "yahoo-spy", Label: "S&P 500 (SPY)"},
			{ID: "yahoo-btc-usd", Label: "Bitcoin (BTC)"},
			{ID: "fred-dgs10", Label: "10Y Treasury (DGS10)"},
		},
	}
}

// Load reads a TOML catalog file. An empty path yields the builtin catalog.
//
//	default = "yahoo-spy"
//
//	[[series]]
//	id = "yahoo-spy"
//	label = "S&P 500 (SPY)"
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Builtin(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}

	var c Catalog
	if err := toml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", path, err)
	}
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog %s: %w", path, err)
	}
	return &c, nil
}

func (c *Catalog) validate() error {
	if len(c.Series) == 0 {
		return fmt.Errorf("no series defined")
	}
	seen := make(map[string]bool, len(c.Series))
	for i, s := range c.Series {
		if s.ID == "" {
			return fmt.Errorf("series %d has no id", i)
		}
		if seen[s.ID] {
			return fmt.Errorf("duplicate series id %q", s.ID)
		}
		seen[s.ID] = true
		if s.Label == "" {
			c.Series[i].Label = s.ID
		}
	}
	return nil
}

// WithDefault overrides the default series id when id is non-empty.
func (c *Catalog) WithDefault(id string) *Catalog {
	if id != "" {
		c.DefaultID = id
	}
	return c
}

// Default returns the series loaded for new sessions. Falls back to the
// first listed series when no default is set.
func (c *Catalog) Default() string {
	if c.DefaultID != "" {
		return c.DefaultID
	}
	if len(c.Series) > 0 {
		return c.Series[0].ID
	}
	return ""
}

// Lookup finds a listed series by id.
func (c *Catalog) Lookup(id string) (Series, bool) {
	i := slices.IndexFunc(c.Series, func(s Series) bool { return s.ID == id })
	if i < 0 {
		return Series{}, false
	}
	return c.Series[i], true
}
