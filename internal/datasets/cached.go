package datasets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
)

// maxArtifactBytes bounds how much of one artifact is read into memory.
const maxArtifactBytes = 64 << 20

// Cache stores artifact payloads with a TTL.
// *clientdata.Repository satisfies it.
type Cache interface {
	Store(key string, data interface{}, ttl time.Duration) error
	GetIfFresh(key string, out interface{}) (bool, error)
	Get(key string, out interface{}) (bool, error)
}

// cachedArtifact is the cached form of one artifact.
type cachedArtifact struct {
	Body      []byte    `msgpack:"body"`
	FetchedAt time.Time `msgpack:"fetched_at"`
}

// CachedSource serves artifacts cache-first: a fresh entry is returned
// without touching the inner source, a miss fetches and stores, and a failed
// fetch falls back to a stale entry when one exists. Missing artifacts are
// never served from cache.
type CachedSource struct {
	inner Source
	cache Cache
	ttl   time.Duration
	log   zerolog.Logger
}

// NewCachedSource decorates inner with cache.
func NewCachedSource(inner Source, cache Cache, ttl time.Duration, log zerolog.Logger) *CachedSource {
	return &CachedSource{
		inner: inner,
		cache: cache,
		ttl:   ttl,
		log:   log.With().Str("component", "dataset_cache").Logger(),
	}
}

// Open implements Source.
func (s *CachedSource) Open(ctx context.Context, seriesID string, kind Kind) (io.ReadCloser, error) {
	key, err := ObjectPath(seriesID, kind)
	if err != nil {
		return nil, err
	}

	var hit cachedArtifact
	found, err := s.cache.GetIfFresh(key, &hit)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("Cache read failed, fetching from source")
	} else if found {
		return io.NopCloser(bytes.NewReader(hit.Body)), nil
	}

	body, fetchErr := s.fetch(ctx, seriesID, kind)
	if fetchErr == nil {
		if err := s.cache.Store(key, cachedArtifact{Body: body, FetchedAt: time.Now().UTC()}, s.ttl); err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("Failed to cache artifact")
		}
		return io.NopCloser(bytes.NewReader(body)), nil
	}

	if errors.Is(fetchErr, ErrDatasetNotFound) || ctx.Err() != nil {
		return nil, fetchErr
	}

	var stale cachedArtifact
	if found, err := s.cache.Get(key, &stale); err == nil && found {
		s.log.Warn().
			Err(fetchErr).
			Str("key", key).
			Time("fetched_at", stale.FetchedAt).
			Msg("Source unavailable, serving stale artifact")
		return io.NopCloser(bytes.NewReader(stale.Body)), nil
	}

	return nil, fetchErr
}

func (s *CachedSource) fetch(ctx context.Context, seriesID string, kind Kind) ([]byte, error) {
	rc, err := s.inner.Open(ctx, seriesID, kind)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	body, err := io.ReadAll(io.LimitReader(rc, maxArtifactBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s for %s: %w", kind.FileName(), seriesID, err)
	}
	if len(body) > maxArtifactBytes {
		return nil, fmt.Errorf("%s for %s exceeds %d bytes", kind.FileName(), seriesID, maxArtifactBytes)
	}
	return body, nil
}
