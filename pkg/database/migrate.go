package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

// Migrate applies every Go migration registered with goose. Callers blank-import
// the migrations package so its init functions run first.
func Migrate(ctx context.Context, db *sqlx.DB, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	provider, err := goose.NewProvider(goose.DialectPostgres, db.DB, nil)
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	for _, res := range results {
		logger.Info("migration applied",
			zap.Int64("version", res.Source.Version),
			zap.String("path", res.Source.Path),
			zap.Duration("duration", res.Duration),
		)
	}
	version, err := provider.GetDBVersion(ctx)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	logger.Info("database schema ready", zap.Int64("version", version), zap.Int("applied", len(results)))
	return nil
}
