// Package repository provides PostgreSQL storage for race entries and
// backtest results.
package repository

import (
	"fmt"

	"github.com/yourusername/smart-lay/internal/database"
)

// Repositories holds all repository implementations
type Repositories struct {
	RaceEntries     RaceEntryRepository
	BacktestResults BacktestResultRepository
}

// NewRepositories creates and returns all repository implementations
func NewRepositories(db *database.DB) (*Repositories, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	return NewRepositoriesWith(db.Pool()), nil
}

// NewRepositoriesWith builds repositories over any pool or transaction
func NewRepositoriesWith(conn DBTX) *Repositories {
	return &Repositories{
		RaceEntries:     NewPostgresRaceEntryRepository(conn),
		BacktestResults: NewPostgresBacktestResultRepository(conn),
	}
}
