/**
 * Package di provides dependency injection type definitions.
 *
 * This package defines the Container type which holds all application dependencies.
 * The Container is the single source of truth for all service instances and is
 * passed to the server for access to services.
 */
package di

import (
	"github.com/aristath/cycleview/internal/catalog"
	"github.com/aristath/cycleview/internal/clientdata"
	"github.com/aristath/cycleview/internal/database"
	"github.com/aristath/cycleview/internal/datasets"
	"github.com/aristath/cycleview/internal/events"
	"github.com/aristath/cycleview/internal/loader"
	"github.com/aristath/cycleview/internal/scheduler"
	"github.com/aristath/cycleview/internal/session"
)

/**
 * Container holds all dependencies for the application.
 *
 * Architecture:
 * - Databases: a single cache database (dataset_cache table)
 * - Sources: the configured artifact source and the cache-first chain in front of it
 * - Services: catalog, event bus, dataset loader and the session manager
 * - Scheduler: cron jobs for cache cleanup and idle session eviction
 */
type Container struct {
	// Databases
	CacheDB *database.DB // Ephemeral artifact cache (safe to delete)

	// Repositories
	CacheRepo *clientdata.Repository // msgpack payloads with expiry

	// Sources
	Origin datasets.Source // Configured source without caching (health checks)
	Source datasets.Source // Source used for all reads (cache-first for remote sources)

	// Services
	Catalog      *catalog.Catalog // Series picker entries
	EventBus     *events.Bus      // Event bus for pub/sub
	EventManager *events.Manager  // Event manager (wraps bus)
	Loader       *loader.Loader   // Concurrent per-dataset retrieval
	Sessions     *session.Manager // Live aggregation sessions

	// Background jobs
	Scheduler *scheduler.Scheduler
}

// JobInstances holds the registered jobs for manual triggering via API
type JobInstances struct {
	CacheCleanup     *clientdata.CleanupJob
	CacheMaintenance *scheduler.CacheMaintenanceJob
	SessionEviction  *session.EvictionJob
}
