package database

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/smart-lay/internal/config"
)

// requiredTables are created by the migrations directory
var requiredTables = []string{"races", "race_favorites", "race_results", "backtest_results"}

// Initialize connects to PostgreSQL and verifies the schema has been migrated
func Initialize(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*DB, error) {
	if logger == nil {
		logger = logrus.New()
	}

	db, err := NewDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	for _, table := range requiredTables {
		var exists bool
		err := db.pool.QueryRow(ctx, "SELECT to_regclass($1) IS NOT NULL", "public."+table).Scan(&exists)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to check table %s: %w", table, err)
		}
		if !exists {
			db.Close()
			return nil, fmt.Errorf("table %s not found, run the migrations in ./migrations first", table)
		}
	}

	logger.WithFields(logrus.Fields{
		"host":     cfg.Database.Host,
		"database": cfg.Database.Name,
	}).Info("Connected to database")

	return db, nil
}
