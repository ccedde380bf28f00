package backend

import (
	"context"
	"time"

	"finmate/internal/storage"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the store and the function releasing everything behind it
type BackendResult struct {
	Store storage.Store
	// EventsEnabled reports whether writes are announced on the broker.
	EventsEnabled bool
	Cleanup       CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite file path or PostgreSQL connection string
	DatabaseURL string

	// Optional change events
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// SummaryCacheTTL caches aggregate queries; 0 disables
	SummaryCacheTTL time.Duration

	// Clock decides createdAt; nil uses time.Now
	Clock storage.Clock
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
	MemoryBackend   BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, PostgresBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
