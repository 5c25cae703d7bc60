package datasource

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/smart-lay/internal/config"
	"github.com/yourusername/smart-lay/internal/metrics"
	"github.com/yourusername/smart-lay/internal/models"
)

// RaceEntryLoader is the persistence query a postgres source reads through
type RaceEntryLoader interface {
	GetByDateRange(ctx context.Context, start, end time.Time) ([]models.RaceEntry, error)
}

// RepositorySource adapts a race entry repository to a Source
type RepositorySource struct {
	repo RaceEntryLoader
}

// NewRepositorySource creates a source backed by a repository
func NewRepositorySource(repo RaceEntryLoader) *RepositorySource {
	return &RepositorySource{repo: repo}
}

// Name returns the name of the source
func (s *RepositorySource) Name() string {
	return config.SourcePostgres
}

// Load queries the repository for the range
func (s *RepositorySource) Load(ctx context.Context, start, end time.Time) ([]models.RaceEntry, error) {
	entries, err := s.repo.GetByDateRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query race entries: %w", err)
	}
	return entries, nil
}

// Factory creates Sources based on configuration
type Factory struct {
	logger *logrus.Logger
	config *config.Config
}

// NewFactory creates a new data source factory
func NewFactory(cfg *config.Config, logger *logrus.Logger) *Factory {
	if logger == nil {
		logger = logrus.New()
	}
	return &Factory{
		logger: logger,
		config: cfg,
	}
}

// NewSource creates the source named by data.source. The loader is only
// consulted for the postgres source and may be nil otherwise.
func (f *Factory) NewSource(loader RaceEntryLoader) (Source, error) {
	data := f.config.Data
	var source Source

	switch data.Source {
	case config.SourceCSV:
		if data.Path == "" {
			return nil, fmt.Errorf("csv source requires data.path")
		}
		source = NewCSVSource(data.Path)
	case config.SourceHTTP:
		if data.URL == "" {
			return nil, fmt.Errorf("http source requires data.url")
		}
		client := NewRateLimitedHTTPClient(HTTPClientConfigFromData(&data), f.logger)
		source = NewHTTPSource(client, data.URL, data.APIKey)
	case config.SourcePostgres:
		if loader == nil {
			return nil, fmt.Errorf("postgres source requires a repository")
		}
		source = NewRepositorySource(loader)
	default:
		return nil, fmt.Errorf("unknown data source: %s", data.Source)
	}

	f.logger.WithField("source", source.Name()).Info("Created data source")
	return &instrumentedSource{Source: source}, nil
}

// instrumentedSource counts loaded entries per source
type instrumentedSource struct {
	Source
}

func (s *instrumentedSource) Load(ctx context.Context, start, end time.Time) ([]models.RaceEntry, error) {
	entries, err := s.Source.Load(ctx, start, end)
	if err != nil {
		return nil, err
	}
	metrics.RecordRacesLoaded(s.Name(), len(entries))
	return entries, nil
}
