package backend

import (
	"context"

	"fintrack/internal/session"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// StorageResult contains the session storage and its lifecycle hooks.
// Cleanup and Ping may be nil.
type StorageResult struct {
	Storage session.Storage
	Cleanup CleanupFunc
	Ping    func(ctx context.Context) error
}

// Close runs Cleanup if set.
func (r *StorageResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates session storage based on configuration
type Factory interface {
	CreateStorage(ctx context.Context, config Config) (*StorageResult, error)
}

// Config holds configuration for storage creation
type Config struct {
	Type StorageType

	// SQLite specific
	SQLiteDBPath string

	// BBolt specific
	BoltDBPath string
}

// StorageType represents the kind of durable slot the token lives in
type StorageType string

const (
	SQLiteStorage StorageType = "sqlite"
	BoltStorage   StorageType = "bolt"
	MemoryStorage StorageType = "memory"
)

// String implements fmt.Stringer
func (st StorageType) String() string {
	return string(st)
}

// IsValid returns true if the storage type is valid
func (st StorageType) IsValid() bool {
	switch st {
	case SQLiteStorage, BoltStorage, MemoryStorage:
		return true
	default:
		return false
	}
}
