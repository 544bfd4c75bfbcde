// Package di provides dependency injection for repository implementations.
package di

import (
	"fmt"

	"github.com/aristath/cycleview/internal/clientdata"
	"github.com/rs/zerolog"
)

// InitializeRepositories creates all repositories and stores them in the container
func InitializeRepositories(container *Container, log zerolog.Logger) error {
	if container == nil {
		return fmt.Errorf("container cannot be nil")
	}
	if container.CacheDB == nil {
		return fmt.Errorf("cache database not initialized")
	}

	container.CacheRepo = clientdata.NewRepository(container.CacheDB.Conn())

	log.Debug().Msg("Repositories initialized")
	return nil
}
