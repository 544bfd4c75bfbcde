// Package datasets reads the artifacts the analysis pipeline writes for each
// series (summary.json, series.csv, spectrum.csv, cycles.csv, waves.csv)
// from a local directory, an HTTP origin or an S3-compatible bucket, and
// parses them into domain rows.
package datasets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
)

// Kind names one of the per-series artifacts.
type Kind string

const (
	KindSummary  Kind = "summary"
	KindSeries   Kind = "series"
	KindSpectrum Kind = "spectrum"
	KindCycles   Kind = "cycles"
	KindWaves    Kind = "waves"
)

// AllKinds lists the five per-series datasets in load order.
var AllKinds = []Kind{KindSummary, KindSeries, KindSpectrum, KindCycles, KindWaves}

// FileName returns the artifact file name for k.
func (k Kind) FileName() string {
	if k == KindSummary {
		return "summary.json"
	}
	return string(k) + ".csv"
}

var (
	// ErrDatasetNotFound is returned when an artifact does not exist at the source.
	ErrDatasetNotFound = errors.New("dataset not found")
	// ErrInvalidSeries is returned for series ids that cannot name an artifact.
	ErrInvalidSeries = errors.New("invalid series id")
)

var seriesIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]*$`)

// ValidateSeriesID checks that id is safe to use in a path or object key.
func ValidateSeriesID(id string) error {
	if !seriesIDPattern.MatchString(id) || len(id) > 128 {
		return fmt.Errorf("%w: %q", ErrInvalidSeries, id)
	}
	return nil
}

// ObjectPath is the slash-separated location of an artifact relative to the
// run root. An empty seriesID addresses the run-level summary.json.
func ObjectPath(seriesID string, kind Kind) (string, error) {
	if seriesID == "" {
		if kind != KindSummary {
			return "", fmt.Errorf("%w: run root only has a summary", ErrInvalidSeries)
		}
		return kind.FileName(), nil
	}
	if err := ValidateSeriesID(seriesID); err != nil {
		return "", err
	}
	return seriesID + "/" + kind.FileName(), nil
}

// Source opens pipeline artifacts. Implementations wrap ErrDatasetNotFound
// when the artifact does not exist.
type Source interface {
	Open(ctx context.Context, seriesID string, kind Kind) (io.ReadCloser, error)
}

func notFound(path string) error {
	return fmt.Errorf("%w: %s", ErrDatasetNotFound, path)
}
