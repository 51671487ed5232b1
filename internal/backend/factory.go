package backend

import (
	"context"
	"fmt"

	"fintrack/internal/log"
	"fintrack/internal/session"
	"fintrack/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new storage factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateStorage implements Factory.CreateStorage
func (f *DefaultFactory) CreateStorage(_ context.Context, config Config) (*StorageResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteStorage:
		return f.createSQLiteStorage(config)
	case BoltStorage:
		return f.createBoltStorage(config)
	case MemoryStorage:
		return f.createMemoryStorage()
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteStorage(config Config) (*StorageResult, error) {
	store, err := storage.NewSQLiteStore(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite storage: %w", err)
	}

	f.logger.Info("Initialized SQLite session storage",
		log.FieldBackend, SQLiteStorage.String(),
		"db_path", config.SQLiteDBPath)

	return &StorageResult{
		Storage: store,
		Cleanup: store.Close,
		Ping:    store.Ping,
	}, nil
}

func (f *DefaultFactory) createBoltStorage(config Config) (*StorageResult, error) {
	store, err := storage.NewBoltStore(config.BoltDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize BBolt storage: %w", err)
	}

	f.logger.Info("Initialized BBolt session storage",
		log.FieldBackend, BoltStorage.String(),
		"db_path", config.BoltDBPath)

	return &StorageResult{
		Storage: store,
		Cleanup: store.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryStorage() (*StorageResult, error) {
	f.logger.Warn("Using in-memory session storage; the session ends with the process",
		log.FieldBackend, MemoryStorage.String())

	return &StorageResult{
		Storage: session.NewMemoryStorage(),
	}, nil
}
