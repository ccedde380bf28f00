package backend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"finmate/internal/amqp"
	"finmate/internal/cache"
	"finmate/internal/core"
	"finmate/internal/log"
	"finmate/internal/storage"
	"finmate/internal/storage/memory"
)

// NotifierCloser is a change-event publisher holding a connection.
type NotifierCloser interface {
	storage.Notifier
	Close() error
}

// DialFunc opens a publisher for the given broker settings.
type DialFunc func(url, exchange, queue string) (NotifierCloser, error)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
	dial   DialFunc
}

// NewFactory creates a new backend factory publishing events through RabbitMQ.
func NewFactory(logger *log.Logger) *DefaultFactory {
	return NewFactoryWithDialer(logger, func(url, exchange, queue string) (NotifierCloser, error) {
		return amqp.NewClient(url, exchange, queue)
	})
}

// NewFactoryWithDialer creates a factory with a custom event publisher dialer.
func NewFactoryWithDialer(logger *log.Logger, dial DialFunc) *DefaultFactory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
		dial:   dial,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		store storage.Store
		err   error
	)
	switch config.Type {
	case SQLiteBackend:
		store, err = f.createSQLiteStore(config)
	case PostgresBackend:
		store, err = f.createPostgresStore(config)
	case MemoryBackend:
		store = memory.New(config.Clock)
		f.logger.Warn("Initialized memory backend; data is lost on restart")
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	result := &BackendResult{Store: store, Cleanup: store.Close}

	if config.SummaryCacheTTL > 0 {
		f.withSummaryCache(result, config.SummaryCacheTTL)
	}

	if config.AMQPURL == "" || f.dial == nil {
		return result, nil
	}

	notifier, err := f.dial(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, continuing without change events", log.FieldError, err)
		return result, nil
	}
	f.logger.Info("Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)

	inner := result.Cleanup
	result.Store = storage.NewNotifyingStore(result.Store, notifier)
	result.EventsEnabled = true
	result.Cleanup = func() error {
		// Stop announcing before the store goes away.
		return errors.Join(notifier.Close(), inner())
	}
	return result, nil
}

func (f *DefaultFactory) withSummaryCache(result *BackendResult, ttl time.Duration) {
	summaries := cache.NewLRUCache[[]core.CategoryTotal](128, ttl)
	trends := cache.NewLRUCache[[]core.MonthTotal](1, ttl)

	manager := cache.NewManager(f.logger)
	manager.Register(summaries)
	manager.Register(trends)
	manager.StartCleanup(ttl)

	inner := result.Cleanup
	result.Store = cache.NewSummaryStore(result.Store, summaries, trends)
	result.Cleanup = func() error {
		manager.Stop()
		return inner()
	}
	f.logger.Info("Summary cache enabled", "ttl", ttl.String())
}

func (f *DefaultFactory) createSQLiteStore(config Config) (storage.Store, error) {
	repo, err := storage.NewSQLiteRepository(config.DatabaseURL, config.Clock)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}
	f.logger.Info("Initialized SQLite backend", "db_path", config.DatabaseURL)
	return repo, nil
}

func (f *DefaultFactory) createPostgresStore(config Config) (storage.Store, error) {
	repo, err := storage.NewPostgresRepository(config.DatabaseURL, config.Clock)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PostgreSQL repository: %w", err)
	}
	f.logger.Info("Initialized PostgreSQL backend")
	return repo, nil
}
