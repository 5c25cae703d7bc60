package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/yourusername/smart-lay/internal/models"
)

// DBTX is the subset of pgxpool.Pool and pgx.Tx the repositories use
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// RaceEntryRepository defines race entry storage
type RaceEntryRepository interface {
	// UpsertBatch stores entries, replacing races that already exist
	UpsertBatch(ctx context.Context, entries []models.RaceEntry) error
	// GetByDateRange returns adjudicated entries ordered by race date and time
	GetByDateRange(ctx context.Context, start, end time.Time) ([]models.RaceEntry, error)
}

// BacktestResultRepository defines backtest result persistence
type BacktestResultRepository interface {
	Save(ctx context.Context, record *models.BacktestRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.BacktestRecord, error)
	GetLatest(ctx context.Context, limit int) ([]*models.BacktestRecord, error)
}
