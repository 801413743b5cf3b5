package backend

import (
	"context"
	"fmt"
	"io"
	"os"

	"carbon/internal/amqp"
	"carbon/internal/log"
	"carbon/internal/services"
	gsheet "carbon/internal/sheets/google"
	"carbon/internal/storage"
	"carbon/internal/storage/jsonfile"
	"carbon/internal/storage/memory"
	"carbon/internal/storage/sqlite"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger  *log.Logger
	options []services.Option
}

// NewFactory creates a new backend factory. Extra service options (clock,
// ID generator) are applied to every service it builds.
func NewFactory(logger *log.Logger, opts ...services.Option) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{
		logger:  logger.WithComponent(log.ComponentBackend),
		options: opts,
	}
}

// CreateBackend opens the configured store and attaches the optional
// publisher and mirror. Optional integrations that fail to start are logged
// and skipped.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	store, closer, err := f.createStore(config)
	if err != nil {
		return nil, err
	}

	opts := []services.Option{services.WithLogger(f.logger)}
	closers := []io.Closer{}
	if closer != nil {
		closers = append(closers, closer)
	}

	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without events", log.FieldError, err.Error())
		} else {
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
			opts = append(opts, services.WithPublisher(client))
			closers = append(closers, client)
		}
	}

	if config.Sheets.SpreadsheetID != "" {
		mirror, err := gsheet.New(ctx, config.Sheets, f.logger)
		if err != nil {
			f.logger.Warn("Failed to initialize Google Sheets mirror, continuing without it", log.FieldError, err.Error())
		} else {
			if err := mirror.EnsureHeader(ctx); err != nil {
				f.logger.Warn("Could not prepare mirror sheet", log.FieldError, err.Error())
			}
			f.logger.Info("Initialized Google Sheets mirror", "sheet", config.Sheets.SheetName)
			opts = append(opts, services.WithMirror(mirror))
		}
	}

	opts = append(opts, services.WithClosers(closers...))
	opts = append(opts, f.options...)
	svc := services.NewLedgerService(store, opts...)

	f.logger.Info("Initialized ledger backend",
		log.FieldBackend, config.Type.String(),
		"amqp_enabled", config.AMQPURL != "",
		"sheets_enabled", config.Sheets.SpreadsheetID != "")

	return &BackendResult{
		Store:   store,
		Service: svc,
		Cleanup: svc.Close,
	}, nil
}

func (f *DefaultFactory) createStore(config Config) (storage.LedgerStore, io.Closer, error) {
	switch config.Type {
	case JSONBackend:
		if err := os.MkdirAll(config.DataDir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create data directory: %w", err)
		}
		store := jsonfile.New(config.DataDir, f.logger)
		f.logger.Info("Using JSON ledger file", log.FieldFile, store.Path())
		return store, nil, nil
	case SQLiteBackend:
		store, err := sqlite.Open(config.SQLiteDBPath, f.logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
		f.logger.Info("Using SQLite ledger", "db_path", config.SQLiteDBPath)
		return store, store, nil
	case MemoryBackend:
		f.logger.Info("Using in-memory ledger")
		return memory.New(), nil, nil
	default:
		return nil, nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}
