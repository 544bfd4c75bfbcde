// Package clientdata provides the persistent cache for pipeline artifacts
// fetched from remote sources. Payloads are stored msgpack-encoded with an
// expiration timestamp for cache-first reads with a stale fallback.
package clientdata

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// DefaultTTL is used when a non-positive TTL is passed to Store.
const DefaultTTL = 10 * time.Minute

// Repository provides cache operations over the dataset_cache table.
type Repository struct {
	db  *sql.DB
	now func() time.Time
}

// NewRepository creates a new cache repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// Store saves data with expiration = now + ttl, replacing any previous entry.
func (r *Repository) Store(key string, data interface{}, ttl time.Duration) error {
	if key == "" {
		return fmt.Errorf("empty cache key")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	payload, err := msgpack.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry %s: %w", key, err)
	}

	now := r.now()
	_, err = r.db.Exec(
		"INSERT OR REPLACE INTO dataset_cache (cache_key, data, fetched_at, expires_at) VALUES (?, ?, ?, ?)",
		key, payload, now.Unix(), now.Add(ttl).Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to store cache entry %s: %w", key, err)
	}

	return nil
}

// GetIfFresh decodes the entry into out only if it has not expired.
// It reports whether an entry was decoded.
func (r *Repository) GetIfFresh(key string, out interface{}) (bool, error) {
	return r.load(
		"SELECT data FROM dataset_cache WHERE cache_key = ? AND expires_at > ?",
		out, key, r.now().Unix(),
	)
}

// Get decodes the entry into out regardless of expiration.
// Use this as a fallback when the source fails: stale data is better than none.
func (r *Repository) Get(key string, out interface{}) (bool, error) {
	return r.load("SELECT data FROM dataset_cache WHERE cache_key = ?", out, key)
}

func (r *Repository) load(query string, out interface{}, args ...interface{}) (bool, error) {
	var payload []byte
	err := r.db.QueryRow(query, args...).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read cache entry %v: %w", args[0], err)
	}

	if err := msgpack.Unmarshal(payload, out); err != nil {
		return false, fmt.Errorf("failed to decode cache entry %v: %w", args[0], err)
	}
	return true, nil
}

// Delete removes a specific entry.
func (r *Repository) Delete(key string) error {
	if _, err := r.db.Exec("DELETE FROM dataset_cache WHERE cache_key = ?", key); err != nil {
		return fmt.Errorf("failed to delete cache entry %s: %w", key, err)
	}
	return nil
}

// DeleteExpired removes all rows where expires_at < now.
// Returns the number of rows deleted.
func (r *Repository) DeleteExpired() (int64, error) {
	result, err := r.db.Exec("DELETE FROM dataset_cache WHERE expires_at < ?", r.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired cache entries: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return deleted, nil
}

// Count returns the number of cached entries, fresh or not.
func (r *Repository) Count() (int64, error) {
	var n int64
	if err := r.db.QueryRow("SELECT COUNT(*) FROM dataset_cache").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count cache entries: %w", err)
	}
	return n, nil
}
