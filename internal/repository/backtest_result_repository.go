package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/yourusername/smart-lay/internal/models"
)

const errScanBacktestResult = "failed to scan backtest result: %w"

const backtestColumns = `id, name, parameter_hash, run_date, start_date, end_date,
	initial_bankroll, final_bankroll, roi, sharpe_ratio, max_drawdown,
	total_wagers, win_rate, profit_factor, composite_score, recommendation,
	full_results, created_at`

// selectColumns reads the date columns back as ISO text; unbounded ranges are NULL
const selectColumns = `id, name, parameter_hash, run_date, COALESCE(start_date::text, ''), COALESCE(end_date::text, ''),
	initial_bankroll, final_bankroll, roi, sharpe_ratio, max_drawdown,
	total_wagers, win_rate, profit_factor, composite_score, recommendation,
	full_results, created_at`

// PostgresBacktestResultRepository implements BacktestResultRepository for PostgreSQL
type PostgresBacktestResultRepository struct {
	db DBTX
}

// NewPostgresBacktestResultRepository creates a new backtest result repository
func NewPostgresBacktestResultRepository(db DBTX) BacktestResultRepository {
	return &PostgresBacktestResultRepository{db: db}
}

// Save inserts a backtest result. Run ids are deterministic, so re-running
// the same request replaces the stored row.
func (r *PostgresBacktestResultRepository) Save(ctx context.Context, record *models.BacktestRecord) error {
	query := `
		INSERT INTO backtest_results (` + backtestColumns + `)
		VALUES ($1,$2,$3,$4,NULLIF($5, '')::date,NULLIF($6, '')::date,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
		ON CONFLICT (id) DO UPDATE SET
			run_date        = EXCLUDED.run_date,
			final_bankroll  = EXCLUDED.final_bankroll,
			roi             = EXCLUDED.roi,
			sharpe_ratio    = EXCLUDED.sharpe_ratio,
			max_drawdown    = EXCLUDED.max_drawdown,
			total_wagers    = EXCLUDED.total_wagers,
			win_rate        = EXCLUDED.win_rate,
			profit_factor   = EXCLUDED.profit_factor,
			composite_score = EXCLUDED.composite_score,
			recommendation  = EXCLUDED.recommendation,
			full_results    = EXCLUDED.full_results
	`

	_, err := r.db.Exec(ctx, query,
		record.ID, record.Name, record.ParameterHash, record.RunDate, record.StartDate, record.EndDate,
		record.InitialBankroll, record.FinalBankroll, record.ROI, record.SharpeRatio, record.MaxDrawdown,
		record.TotalWagers, record.WinRate, record.ProfitFactor, record.CompositeScore, record.Recommendation,
		record.FullResults, record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save backtest result: %w", err)
	}
	return nil
}

// GetByID retrieves a backtest result by run id
func (r *PostgresBacktestResultRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.BacktestRecord, error) {
	query := `SELECT ` + selectColumns + ` FROM backtest_results WHERE id = $1`

	record, err := scanBacktestRecord(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get backtest result: %w", err)
	}
	return record, nil
}

// GetLatest retrieves the most recent backtest results
func (r *PostgresBacktestResultRepository) GetLatest(ctx context.Context, limit int) ([]*models.BacktestRecord, error) {
	query := `SELECT ` + selectColumns + ` FROM backtest_results ORDER BY run_date DESC LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest backtest results: %w", err)
	}
	defer rows.Close()

	var records []*models.BacktestRecord
	for rows.Next() {
		record, err := scanBacktestRecord(rows)
		if err != nil {
			return nil, fmt.Errorf(errScanBacktestResult, err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func scanBacktestRecord(row pgx.Row) (*models.BacktestRecord, error) {
	record := &models.BacktestRecord{}
	err := row.Scan(
		&record.ID, &record.Name, &record.ParameterHash, &record.RunDate, &record.StartDate, &record.EndDate,
		&record.InitialBankroll, &record.FinalBankroll, &record.ROI, &record.SharpeRatio, &record.MaxDrawdown,
		&record.TotalWagers, &record.WinRate, &record.ProfitFactor, &record.CompositeScore, &record.Recommendation,
		&record.FullResults, &record.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return record, nil
}
