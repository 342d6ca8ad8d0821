package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/furnicart/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/furnicart/internal/health"
	"github.com/vladislavdragonenkov/furnicart/internal/storage/memory"
	"github.com/vladislavdragonenkov/furnicart/internal/storage/postgres"
)

// runtimeDependencies: хранилище записей и всё, что нужно для его проверки и закрытия.
type runtimeDependencies struct {
	storage        domain.RecordStorage
	storageChecker healthcheck.Checker
	closeFn        func() error
}

// initRuntimeDependencies выбирает хранилище по cfg.StorageDriver.
func initRuntimeDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*runtimeDependencies, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.StorageDriver))
	if driver == "" {
		driver = StorageDriverMemory
	}

	switch driver {
	case StorageDriverMemory:
		logger.Info("используется in-memory хранилище корзин")
		return &runtimeDependencies{
			storage: memory.NewRecordStorage(),
			storageChecker: healthcheck.NewFuncChecker("storage", func(context.Context) error {
				return nil
			}),
		}, nil

	case StorageDriverPostgres:
		dsn := strings.TrimSpace(cfg.PostgresDSN)
		if dsn == "" {
			return nil, errors.New("postgres storage requires FURNICART_POSTGRES_DSN")
		}

		store, err := postgres.Open(ctx, dsn)
		if err != nil {
			return nil, err
		}
		if cfg.PostgresAutoMigrate {
			if err := store.MigrateUp(ctx, 0); err != nil {
				_ = store.Close()
				return nil, fmt.Errorf("apply postgres migrations: %w", err)
			}
			version, count, err := store.MigrationStatus(ctx)
			if err == nil {
				logger.WithFields(log.Fields{
					"version": version,
					"applied": count,
				}).Info("миграции postgres применены")
			}
		}

		logger.Info("используется postgres хранилище корзин")
		return &runtimeDependencies{
			storage:        postgres.NewRecordStorage(store),
			storageChecker: healthcheck.NewFuncChecker("storage", store.Ping),
			closeFn:        store.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}
}

// close освобождает ресурсы хранилища.
func (d *runtimeDependencies) close(logger *log.Entry) {
	if d == nil || d.closeFn == nil {
		return
	}
	if err := d.closeFn(); err != nil {
		logger.WithError(err).Warn("failed to close storage")
	}
}
