package backend

import (
	"context"
	"fmt"

	"ebudget/internal/datastore/memory"
	"ebudget/internal/log"
	"ebudget/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
		return f.relational(ctx, repo)
	case MySQLBackend:
		repo, err := storage.NewMySQLRepository(config.MySQLDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize MySQL repository: %w", err)
		}
		f.logger.Info("Initialized MySQL backend")
		return f.relational(ctx, repo)
	default:
		dataDir := config.DataDirectory
		if dataDir == "" {
			dataDir = "data"
		}
		f.logger.Info("Initialized memory backend", "data_dir", dataDir)
		return &BackendResult{Store: memory.NewFromFiles(dataDir)}, nil
	}
}

func (f *DefaultFactory) relational(ctx context.Context, repo *storage.Repository) (*BackendResult, error) {
	if err := repo.Ping(ctx); err != nil {
		repo.Close()
		return nil, fmt.Errorf("ping %s: %w", repo.Dialect(), err)
	}
	return &BackendResult{Store: repo, Cleanup: repo.Close}, nil
}
