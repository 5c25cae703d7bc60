package backtest

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/yourusername/smart-lay/internal/models"
)

// DefaultSweepConcurrency bounds parallel runs when no limit is given
const DefaultSweepConcurrency = 4

// RunSweep executes independent backtests over the same entries in parallel.
// Each run owns its ledger; the shared entries are only read. Results are
// returned in request order. The first configuration error cancels the sweep.
func (e *Engine) RunSweep(ctx context.Context, reqs []Request, entries []models.RaceEntry, concurrency int) ([]*Result, error) {
	if concurrency <= 0 {
		concurrency = DefaultSweepConcurrency
	}
	for i := range reqs {
		if err := reqs[i].Validate(); err != nil {
			return nil, fmt.Errorf("sweep request %d (%s): %w", i, reqs[i].Name, err)
		}
	}

	results := make([]*Result, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i := range reqs {
		i := i
		g.Go(func() error {
			res, err := e.Run(gctx, reqs[i], entries)
			if err != nil {
				return fmt.Errorf("sweep request %d (%s): %w", i, reqs[i].Name, err)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
