package datasets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// DirSource reads artifacts from <root>/<series>/<file>, typically the
// pipeline's output/latest directory.
type DirSource struct {
	root string
}

// NewDirSource creates a source rooted at root.
func NewDirSource(root string) *DirSource {
	return &DirSource{root: root}
}

// Open implements Source.
func (s *DirSource) Open(ctx context.Context, seriesID string, kind Kind) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rel, err := ObjectPath(seriesID, kind)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(filepath.Join(s.root, filepath.FromSlash(rel)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, notFound(rel)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", rel, err)
	}
	return f, nil
}
