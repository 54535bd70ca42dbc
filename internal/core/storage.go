package core

import (
	"fmt"
	"os"

	"ruralstock/internal/infra/persistence/memory"
	"ruralstock/internal/infra/persistence/postgres"
	"ruralstock/internal/infra/persistence/sqlite"
)

// StorageDriver identifies a concrete persistent storage implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

// NewInMemoryService creates a service over a fresh in-memory store with the
// given rules engine. Intended for tests and ephemeral runs.
func NewInMemoryService(engine *RulesEngine, opts ...ServiceOption) *Service {
	return NewService(memory.NewStore(engine), opts...)
}

// OpenPersistentStore selects a backend using environment variables.
// Defaults to sqlite when unset.
//
//	RURALSTOCK_STORAGE_DRIVER: memory|sqlite|postgres (default sqlite)
//	RURALSTOCK_SQLITE_PATH: path to sqlite file (default ./ruralstock.db)
//	RURALSTOCK_POSTGRES_DSN: postgres DSN when driver=postgres
func OpenPersistentStore(engine *RulesEngine) (PersistentStore, error) {
	driver := os.Getenv("RURALSTOCK_STORAGE_DRIVER")
	if driver == "" {
		driver = string(StorageSQLite)
	}
	switch StorageDriver(driver) {
	case StorageMemory:
		return memory.NewStore(engine), nil
	case StorageSQLite:
		return sqlite.NewStore(os.Getenv("RURALSTOCK_SQLITE_PATH"), engine)
	case StoragePostgres:
		return postgres.NewStore(os.Getenv("RURALSTOCK_POSTGRES_DSN"), engine)
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}
