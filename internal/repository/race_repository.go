package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/yourusername/smart-lay/internal/models"
)

const errScanRace = "failed to scan race entry: %w"

// PostgresRaceEntryRepository implements RaceEntryRepository for PostgreSQL
type PostgresRaceEntryRepository struct {
	db DBTX
}

// NewPostgresRaceEntryRepository creates a new race entry repository
func NewPostgresRaceEntryRepository(db DBTX) RaceEntryRepository {
	return &PostgresRaceEntryRepository{db: db}
}

const (
	upsertRaceQuery = `
		INSERT INTO races (
			id, event_id, market_id, course_name, race_date, race_time, race_type, race_class,
			distance, going, number_of_runners, country, track_direction,
			is_handicap, is_amateur, is_apprentice, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16, NOW())
		ON CONFLICT (id) DO UPDATE SET
			event_id          = EXCLUDED.event_id,
			market_id         = EXCLUDED.market_id,
			course_name       = EXCLUDED.course_name,
			race_date         = EXCLUDED.race_date,
			race_time         = EXCLUDED.race_time,
			race_type         = EXCLUDED.race_type,
			race_class        = EXCLUDED.race_class,
			distance          = EXCLUDED.distance,
			going             = EXCLUDED.going,
			number_of_runners = EXCLUDED.number_of_runners,
			country           = EXCLUDED.country,
			track_direction   = EXCLUDED.track_direction,
			is_handicap       = EXCLUDED.is_handicap,
			is_amateur        = EXCLUDED.is_amateur,
			is_apprentice     = EXCLUDED.is_apprentice,
			updated_at        = NOW()`

	upsertFavoriteQuery = `
		INSERT INTO race_favorites (race_id, selection_id, horse_name, bsp_odds)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (race_id) DO UPDATE SET
			selection_id = EXCLUDED.selection_id,
			horse_name   = EXCLUDED.horse_name,
			bsp_odds     = EXCLUDED.bsp_odds`

	upsertResultQuery = `
		INSERT INTO race_results (race_id, status, favorite_position)
		VALUES ($1,$2,$3)
		ON CONFLICT (race_id) DO UPDATE SET
			status            = EXCLUDED.status,
			favorite_position = EXCLUDED.favorite_position`

	selectEntriesQuery = `
		SELECT r.id, r.event_id, r.market_id, r.course_name, r.race_date, r.race_time,
		       r.race_type, r.race_class, r.distance, r.going, r.number_of_runners,
		       r.country, r.track_direction, r.is_handicap, r.is_amateur, r.is_apprentice,
		       COALESCE(f.selection_id, 0), COALESCE(f.horse_name, ''), f.bsp_odds,
		       res.status, res.favorite_position
		FROM races r
		JOIN race_results res ON res.race_id = r.id
		LEFT JOIN race_favorites f ON f.race_id = r.id
		WHERE r.race_date >= $1 AND r.race_date <= $2
		ORDER BY r.race_date ASC, r.race_time ASC, r.id ASC`
)

// UpsertBatch stores races with their favorite and result in a single batch
func (r *PostgresRaceEntryRepository) UpsertBatch(ctx context.Context, entries []models.RaceEntry) error {
	if len(entries) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, e := range entries {
		id := EntryID(e)
		race := e.Race
		batch.Queue(upsertRaceQuery,
			id, race.EventID, race.MarketID, race.Course, race.RaceDate, race.RaceTime,
			string(race.RaceType), race.RaceClass, race.Distance, string(race.Going),
			race.NumberOfRunners, string(race.Country), string(race.TrackDirection),
			race.IsHandicap, race.IsAmateur, race.IsApprentice,
		)
		batch.Queue(upsertFavoriteQuery, id, e.Favorite.SelectionID, e.Favorite.HorseName, oddsParam(e.Favorite.BSPOdds))
		batch.Queue(upsertResultQuery, id, string(e.Result.Status), e.Result.FavoritePosition)
	}

	br := r.db.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to upsert race entry %d: %w", i/3, err)
		}
	}
	return nil
}

// GetByDateRange retrieves adjudicated entries within an inclusive date range
func (r *PostgresRaceEntryRepository) GetByDateRange(ctx context.Context, start, end time.Time) ([]models.RaceEntry, error) {
	from, to := dateBounds(start, end)
	rows, err := r.db.Query(ctx, selectEntriesQuery, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query race entries: %w", err)
	}
	defer rows.Close()

	entries := []models.RaceEntry{}
	for rows.Next() {
		entry, err := scanRaceEntry(rows)
		if err != nil {
			return nil, fmt.Errorf(errScanRace, err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// raceRow holds the raw column values of one joined race entry
type raceRow struct {
	ID, EventID, MarketID, Course string
	RaceDate                      time.Time
	RaceTime                      string
	RaceType                      string
	RaceClass                     int
	Distance                      string
	Going                         string
	Runners                       int
	Country, TrackDirection       string
	Handicap, Amateur, Apprentice bool
	SelectionID                   int64
	HorseName                     string
	Odds                          pgtype.Numeric
	Status                        string
	FavoritePosition              int
}

func scanRaceEntry(row pgx.Row) (models.RaceEntry, error) {
	var rr raceRow
	err := row.Scan(
		&rr.ID, &rr.EventID, &rr.MarketID, &rr.Course, &rr.RaceDate, &rr.RaceTime,
		&rr.RaceType, &rr.RaceClass, &rr.Distance, &rr.Going, &rr.Runners,
		&rr.Country, &rr.TrackDirection, &rr.Handicap, &rr.Amateur, &rr.Apprentice,
		&rr.SelectionID, &rr.HorseName, &rr.Odds,
		&rr.Status, &rr.FavoritePosition,
	)
	if err != nil {
		return models.RaceEntry{}, err
	}
	return rr.toEntry()
}

// toEntry converts stored columns back into a validated entry
func (rr raceRow) toEntry() (models.RaceEntry, error) {
	var entry models.RaceEntry
	var err error

	entry.Race = models.Race{
		ID:              rr.ID,
		EventID:         rr.EventID,
		MarketID:        rr.MarketID,
		Course:          rr.Course,
		RaceDate:        rr.RaceDate.Format(models.DateLayout),
		RaceTime:        strings.TrimSpace(rr.RaceTime),
		RaceClass:       rr.RaceClass,
		Distance:        rr.Distance,
		NumberOfRunners: rr.Runners,
		IsHandicap:      rr.Handicap,
		IsAmateur:       rr.Amateur,
		IsApprentice:    rr.Apprentice,
	}
	if entry.Race.RaceType, err = models.ParseRaceType(rr.RaceType); err != nil {
		return entry, err
	}
	if entry.Race.Going, err = models.ParseGoing(rr.Going); err != nil {
		return entry, err
	}
	if rr.Country != "" {
		if entry.Race.Country, err = models.ParseCountry(rr.Country); err != nil {
			return entry, err
		}
	}
	if rr.TrackDirection != "" {
		if entry.Race.TrackDirection, err = models.ParseTrackDirection(rr.TrackDirection); err != nil {
			return entry, err
		}
	}

	entry.Favorite = models.Favorite{
		SelectionID: rr.SelectionID,
		HorseName:   rr.HorseName,
		BSPOdds:     numericToDecimal(rr.Odds),
	}

	if entry.Result.Status, err = models.ParseResultStatus(rr.Status); err != nil {
		return entry, err
	}
	entry.Result.FavoritePosition = rr.FavoritePosition

	return entry, nil
}

// EntryID returns the stored key of an entry: its race id, or
// course|date|time for exports without one
func EntryID(e models.RaceEntry) string {
	if e.Race.ID != "" {
		return e.Race.ID
	}
	return e.Race.Course + "|" + e.Race.RaceDate + "|" + e.Race.RaceTime
}

// dateBounds formats the range for the query; zero bounds are open
func dateBounds(start, end time.Time) (string, string) {
	from, to := "0001-01-01", "9999-12-31"
	if !start.IsZero() {
		from = start.Format(models.DateLayout)
	}
	if !end.IsZero() {
		to = end.Format(models.DateLayout)
	}
	return from, to
}

func numericToDecimal(n pgtype.Numeric) *decimal.Decimal {
	if !n.Valid || n.Int == nil || n.NaN {
		return nil
	}
	d := decimal.NewFromBigInt(n.Int, n.Exp)
	return &d
}

func oddsParam(odds *decimal.Decimal) any {
	if odds == nil {
		return nil
	}
	return odds.String()
}
