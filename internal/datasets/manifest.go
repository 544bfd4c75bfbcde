package datasets

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/aristath/cycleview/internal/cycles"
)

// RunManifest is the run-level summary.json written next to the series
// directories.
type RunManifest struct {
	RunID          string                 `json:"run_id"`
	GeneratedAtUTC string                 `json:"generated_at_utc"`
	StartDate      string                 `json:"start_date"`
	EndDate        string                 `json:"end_date"`
	SuccessCount   int                    `json:"success_count"`
	FailureCount   int                    `json:"failure_count"`
	Successes      []cycles.Summary       `json:"successes"`
	Failures       []RunFailure           `json:"failures"`
	Config         map[string]interface{} `json:"config,omitempty"`
}

// RunFailure records a series the pipeline could not process.
type RunFailure struct {
	Source string `json:"source"`
	Series string `json:"series"`
	Error  string `json:"error"`
}

// ParseRunManifest decodes the run-level summary.json.
func ParseRunManifest(r io.Reader) (*RunManifest, error) {
	var m RunManifest
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to decode run manifest: %w", err)
	}
	return &m, nil
}

// LoadRunManifest opens and parses the run manifest from src.
func LoadRunManifest(ctx context.Context, src Source) (*RunManifest, error) {
	rc, err := src.Open(ctx, "", KindSummary)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return ParseRunManifest(rc)
}
