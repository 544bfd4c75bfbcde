// Package di provides dependency injection for scheduler jobs.
package di

import (
	"fmt"

	"github.com/aristath/cycleview/internal/clientdata"
	"github.com/aristath/cycleview/internal/config"
	"github.com/aristath/cycleview/internal/scheduler"
	"github.com/aristath/cycleview/internal/session"
	"github.com/rs/zerolog"
)

// RegisterJobs registers the maintenance jobs with the scheduler.
// Returns JobInstances for manual triggering via API.
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) (*JobInstances, error) {
	if container == nil {
		return nil, fmt.Errorf("container cannot be nil")
	}
	if container.Scheduler == nil {
		return nil, fmt.Errorf("services not initialized")
	}

	instances := &JobInstances{}

	// Expired cache entries
	instances.CacheCleanup = clientdata.NewCleanupJob(container.CacheRepo, container.EventManager, log)
	if err := container.Scheduler.AddJob(cfg.CacheCleanupCron, instances.CacheCleanup); err != nil {
		return nil, fmt.Errorf("failed to register cache cleanup job: %w", err)
	}

	// Cache database health and WAL size
	instances.CacheMaintenance = scheduler.NewCacheMaintenanceJob(container.CacheDB, log)
	if err := container.Scheduler.AddJob(cfg.CacheMaintenanceCron, instances.CacheMaintenance); err != nil {
		return nil, fmt.Errorf("failed to register cache maintenance job: %w", err)
	}

	// Sessions nobody has looked at for SessionIdleTTL
	instances.SessionEviction = session.NewEvictionJob(container.Sessions, cfg.SessionIdleTTL, log)
	if err := container.Scheduler.AddJob(cfg.SessionEvictionCron, instances.SessionEviction); err != nil {
		return nil, fmt.Errorf("failed to register session eviction job: %w", err)
	}

	log.Info().Int("jobs", len(container.Scheduler.Jobs())).Msg("Jobs registered")
	return instances, nil
}
