package app

import (
	"context"
	"fmt"

	"finboss/internal/config"
	"finboss/internal/credentials"
	"finboss/internal/credentials/memory"
	"finboss/internal/credentials/redis"
	applog "finboss/internal/log"
	"finboss/internal/storage"
)

// BackendType names a credential store implementation.
type BackendType string

const (
	MemoryBackend BackendType = "memory"
	SQLiteBackend BackendType = "sqlite"
	RedisBackend  BackendType = "redis"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend, RedisBackend:
		return true
	default:
		return false
	}
}

// BackendTypes returns all valid backend types.
func BackendTypes() []BackendType {
	return []BackendType{MemoryBackend, SQLiteBackend, RedisBackend}
}

// CleanupFunc releases resources held by a backend.
type CleanupFunc func() error

// NewCredentialStore builds the store selected by cfg.CredentialBackend.
// The cleanup func is never nil.
func NewCredentialStore(ctx context.Context, cfg *config.Config, logger *applog.Logger) (credentials.Store, CleanupFunc, error) {
	if logger == nil {
		logger = applog.Discard()
	}
	bt := BackendType(cfg.CredentialBackend)
	if !bt.IsValid() {
		return nil, nil, fmt.Errorf("invalid credential backend: %s", cfg.CredentialBackend)
	}

	var (
		store credentials.Store
		err   error
	)
	switch bt {
	case MemoryBackend:
		store = memory.New()
	case SQLiteBackend:
		store, err = storage.NewSQLiteCredentialStore(cfg.SQLiteDBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize SQLite credential store: %w", err)
		}
	case RedisBackend:
		store, err = redis.New(ctx, cfg.RedisURL, cfg.RedisKeyPrefix)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize Redis credential store: %w", err)
		}
	}

	logger.Info("Initialized credential store", applog.FieldBackend, bt.String())

	cleanup := func() error { return nil }
	if c, ok := store.(credentials.Closer); ok {
		cleanup = c.Close
	}
	return store, cleanup, nil
}
