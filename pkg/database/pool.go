package database

import (
	"fmt"
	"sync"
)

// databasePool holds the process-wide database instance so repeated
// lookups reuse one connection pool.
type databasePool struct {
	instance DatabaseInterface
	config   DatabaseConfig
}

var (
	globalPool *databasePool
	poolMutex  sync.Mutex
)

// GetDatabase returns the shared database instance, creating it on first
// use or when the configuration changed.
func GetDatabase(config DatabaseConfig) DatabaseInterface {
	poolMutex.Lock()
	defer poolMutex.Unlock()

	if globalPool == nil || globalPool.config != config {
		if globalPool != nil && globalPool.instance != nil {
			fmt.Printf("Database configuration changed, recreating connection\n")
			globalPool.instance.Close()
		}

		globalPool = &databasePool{
			instance: NewDatabase(config),
			config:   config,
		}
	}

	return globalPool.instance
}

// CloseDatabase closes the shared database instance if one exists
func CloseDatabase() error {
	poolMutex.Lock()
	defer poolMutex.Unlock()

	if globalPool == nil || globalPool.instance == nil {
		return nil
	}

	err := globalPool.instance.Close()
	globalPool = nil
	return err
}
