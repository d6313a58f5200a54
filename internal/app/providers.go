package app

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/eslsoft/vocquiz/internal/adapter/repository"
	"github.com/eslsoft/vocquiz/internal/infrastructure/config"
	"github.com/eslsoft/vocquiz/internal/infrastructure/database"
	repo "github.com/eslsoft/vocquiz/internal/repository"
	"github.com/eslsoft/vocquiz/internal/usecase/backup"
)

// ProvideStores opens the catalogue stores selected by storage.driver.
func ProvideStores(cfg *config.Config, logger *logrus.Logger) (repo.Stores, func(), error) {
	if !cfg.UsesSQL() {
		logger.WithField("data_dir", cfg.Storage.DataDir).Debug("using csv catalogue")
		return repository.NewCSVStores(cfg.Storage.DataDir), func() {}, nil
	}

	db, cleanup, err := database.Open(cfg, logger)
	if err != nil {
		return repo.Stores{}, nil, fmt.Errorf("open database: %w", err)
	}
	if err := repository.EnsureSchema(context.Background(), db); err != nil {
		cleanup()
		return repo.Stores{}, nil, err
	}
	logger.WithField("driver", cfg.DatabaseDriver()).Debug("using sql catalogue")
	return repository.NewSQLStores(db), cleanup, nil
}

// ProvideSessionStore builds the session store selected by session.backend.
func ProvideSessionStore(cfg *config.Config) (repo.SessionStore, func(), error) {
	switch cfg.SessionBackend() {
	case config.SessionRedis:
		client, cleanup, err := repository.NewRedisClient(cfg.Session.Redis)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewRedisSessionStore(client, cfg.Session.Redis.KeyPrefix, cfg.Session.TTL), cleanup, nil
	default:
		return repository.NewMemorySessionStore(cfg.Session.TTL), func() {}, nil
	}
}

// ProvideBackupService builds the NDJSON backup service over the catalogue stores.
func ProvideBackupService(stores repo.Stores) (*backup.Service, error) {
	return backup.NewService(stores)
}
