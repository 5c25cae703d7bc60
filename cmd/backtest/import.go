package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/smart-lay/internal/backtest"
	"github.com/yourusername/smart-lay/internal/config"
	"github.com/yourusername/smart-lay/internal/models"
	"github.com/yourusername/smart-lay/internal/repository"
)

const importBatchSize = 500

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load races from a CSV or HTTP export into PostgreSQL",
	Annotations: map[string]string{
		annotationDatabase: "required",
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runImport(cmd.Context())
	},
}

func runImport(ctx context.Context) error {
	if cfg.Data.Source == config.SourcePostgres {
		return fmt.Errorf("import reads from a csv or http source, got %q", cfg.Data.Source)
	}
	req, err := backtest.FromConfig(cfg)
	if err != nil {
		return err
	}
	entries, err := loadEntries(ctx, req)
	if err != nil {
		return err
	}

	valid, rejected := partitionValid(entries)
	for _, r := range rejected {
		log.WithFields(logrus.Fields{
			"race_id":   r.RaceID,
			"race_date": r.RaceDate,
			"reason":    r.Reason,
		}).Warn("Race not imported")
	}

	err = db.WithTransaction(ctx, func(tx pgx.Tx) error {
		races := repository.NewRepositoriesWith(tx).RaceEntries
		for start := 0; start < len(valid); start += importBatchSize {
			end := start + importBatchSize
			if end > len(valid) {
				end = len(valid)
			}
			if err := races.UpsertBatch(ctx, valid[start:end]); err != nil {
				return fmt.Errorf("import failed after %d races: %w", start, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"imported": len(valid),
		"rejected": len(rejected),
	}).Info("Race import completed")
	return nil
}

// partitionValid separates storable entries from those missing mandatory fields
func partitionValid(entries []models.RaceEntry) ([]models.RaceEntry, []backtest.Skip) {
	valid := make([]models.RaceEntry, 0, len(entries))
	var rejected []backtest.Skip
	for i := range entries {
		if err := entries[i].Validate(); err != nil {
			rejected = append(rejected, backtest.Skip{
				RaceID:   entries[i].Race.ID,
				RaceDate: entries[i].Race.RaceDate,
				Reason:   err.Error(),
			})
			continue
		}
		valid = append(valid, entries[i])
	}
	return valid, rejected
}
