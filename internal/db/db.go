// Package db applies the media ledger schema before the pool is used.
package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/orgball2608/snappy-sync/internal/migrations"
	"github.com/orgball2608/snappy-sync/pkg/config"
	"github.com/orgball2608/snappy-sync/pkg/logger"
)

func Open(cfg *config.Config) (*sql.DB, error) {
	connect, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return connect, nil
}

// Migrate brings the schema up to date on a short-lived connection.
func Migrate(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	connect, err := Open(cfg)
	if err != nil {
		return err
	}
	defer connect.Close()

	if err := connect.PingContext(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	if err := migrations.Up(ctx, connect); err != nil {
		return err
	}

	log.Info("Migrations applied")
	return nil
}
