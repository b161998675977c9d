package system

import (
	"context"
	"fmt"

	"github.com/KevinKickass/OpenDimmer/internal/config"
	"github.com/KevinKickass/OpenDimmer/internal/settings"
	"github.com/KevinKickass/OpenDimmer/internal/storage"
	"go.uber.org/zap"
)

// openPersistence selects the record backend. The returned client is non-nil
// only for the postgres backend and must be closed by the caller.
func openPersistence(ctx context.Context, cfg *config.Config, logger *zap.Logger) (settings.Persistence, *storage.PostgresClient, error) {
	switch cfg.Storage.Backend {
	case "memory":
		logger.Warn("Using in-memory settings storage, configuration is lost on restart")
		return storage.NewMemory(), nil, nil

	case "postgres":
		db, err := storage.NewPostgresClient(ctx, cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		table := storage.NewRecordTable(db, cfg.Storage.Slot)
		if err := table.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		logger.Info("Database connected successfully",
			zap.String("host", cfg.Database.Host),
			zap.Int("slot", cfg.Storage.Slot))
		return table, db, nil

	case "eeprom":
		logger.Info("Using EEPROM image",
			zap.String("path", cfg.Storage.Path),
			zap.Int64("offset", cfg.Storage.Offset))
		return storage.NewEEPROM(cfg.Storage.Path, cfg.Storage.Offset), nil, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage backend: %q", cfg.Storage.Backend)
	}
}
