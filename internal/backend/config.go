package backend

import (
	"fmt"

	"fintrack/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	storageType := StorageType(appConfig.SessionBackend)
	if !storageType.IsValid() {
		return Config{}, fmt.Errorf("invalid session backend %q: must be one of %v", appConfig.SessionBackend, GetStorageTypeStrings())
	}

	return Config{
		Type:         storageType,
		SQLiteDBPath: appConfig.SQLiteDBPath,
		BoltDBPath:   appConfig.BoltDBPath,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid storage type: %s", c.Type)
	}

	switch c.Type {
	case SQLiteStorage:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite backend")
		}
	case BoltStorage:
		if c.BoltDBPath == "" {
			return fmt.Errorf("BBolt database path is required for bolt backend")
		}
	case MemoryStorage:
		// Nothing to configure; the token is lost on restart.
	}

	return nil
}

// GetStorageTypes returns all valid storage types
func GetStorageTypes() []StorageType {
	return []StorageType{SQLiteStorage, BoltStorage, MemoryStorage}
}

// GetStorageTypeStrings returns all valid storage type strings
func GetStorageTypeStrings() []string {
	types := GetStorageTypes()
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = t.String()
	}
	return out
}
