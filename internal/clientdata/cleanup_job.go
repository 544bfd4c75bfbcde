package clientdata

import (
	"github.com/aristath/cycleview/internal/events"
	"github.com/rs/zerolog"
)

// EventEmitter publishes typed events.
type EventEmitter interface {
	EmitTyped(eventType events.EventType, module string, data events.EventData)
}

// CleanupJob removes expired entries from the dataset cache.
type CleanupJob struct {
	repo    *Repository
	emitter EventEmitter
	log     zerolog.Logger
}

// NewCleanupJob creates a new cache cleanup job. emitter may be nil.
func NewCleanupJob(repo *Repository, emitter EventEmitter, log zerolog.Logger) *CleanupJob {
	return &CleanupJob{
		repo:    repo,
		emitter: emitter,
		log:     log.With().Str("job", "dataset_cache_cleanup").Logger(),
	}
}

// Run deletes expired cache entries.
func (j *CleanupJob) Run() error {
	deleted, err := j.repo.DeleteExpired()
	if err != nil {
		j.log.Error().Err(err).Msg("Failed to delete expired cache entries")
		return err
	}

	if deleted > 0 {
		j.log.Info().
			Int64("deleted", deleted).
			Msg("Cleaned up expired cache entries")
		if j.emitter != nil {
			j.emitter.EmitTyped(events.CacheCleaned, "clientdata", &events.CacheCleanedData{Deleted: deleted})
		}
	}

	return nil
}

// Name returns the job name for scheduling and logging.
func (j *CleanupJob) Name() string {
	return "dataset_cache_cleanup"
}
