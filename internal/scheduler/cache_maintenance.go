package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/cycleview/internal/database"
	"github.com/rs/zerolog"
)

// walFrameThreshold is the WAL size, in frames, above which the WAL is
// truncated instead of only checkpointed passively.
const walFrameThreshold = 1000

// CacheMaintenanceJob checks the cache database and keeps its WAL small.
type CacheMaintenanceJob struct {
	db  *database.DB
	log zerolog.Logger
}

// NewCacheMaintenanceJob creates a new CacheMaintenanceJob
func NewCacheMaintenanceJob(db *database.DB, log zerolog.Logger) *CacheMaintenanceJob {
	return &CacheMaintenanceJob{
		db:  db,
		log: log.With().Str("job", "cache_maintenance").Logger(),
	}
}

// Name returns the job name
func (j *CacheMaintenanceJob) Name() string {
	return "cache_maintenance"
}

// Run executes the cache maintenance job
func (j *CacheMaintenanceJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := j.db.QuickCheck(ctx); err != nil {
		return fmt.Errorf("cache database unreachable: %w", err)
	}

	// PRAGMA wal_checkpoint returns: busy, log, checkpointed
	var busy, frames, checkpointed int
	err := j.db.Conn().QueryRowContext(ctx, "PRAGMA wal_checkpoint(PASSIVE)").Scan(&busy, &frames, &checkpointed)
	if err != nil {
		return fmt.Errorf("failed to check WAL checkpoint: %w", err)
	}

	if frames > walFrameThreshold {
		j.log.Warn().
			Int("wal_frames", frames).
			Int("checkpointed", checkpointed).
			Msg("WAL file is large, truncating")
		return j.db.WALCheckpoint("TRUNCATE")
	}

	j.log.Debug().
		Int("wal_frames", frames).
		Msg("WAL checkpoint status OK")
	return nil
}
