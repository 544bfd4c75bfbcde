package datasets

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPSource reads artifacts from <base>/<series>/<file>, e.g. the static
// assets of a deployed dashboard.
type HTTPSource struct {
	base   string
	client *http.Client
}

// NewHTTPSource creates a source for base. A nil client gets a 30s timeout.
func NewHTTPSource(base string, client *http.Client) *HTTPSource {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPSource{base: strings.TrimRight(base, "/"), client: client}
}

// Open implements Source.
func (s *HTTPSource) Open(ctx context.Context, seriesID string, kind Kind) (io.ReadCloser, error) {
	rel, err := ObjectPath(seriesID, kind)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.base+"/"+rel, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", rel, err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", rel, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, notFound(rel)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		resp.Body.Close()
		return nil, fmt.Errorf("failed to fetch %s: unexpected status %d", rel, resp.StatusCode)
	}

	return resp.Body, nil
}
