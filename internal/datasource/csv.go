package datasource

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yourusername/smart-lay/internal/models"
)

const csvSourceName = "csv"

// Columns of a race export; one row per race carrying its favorite and result
const (
	colID               = "id"
	colEventID          = "event_id"
	colMarketID         = "market_id"
	colCourse           = "course_name"
	colRaceDate         = "race_date"
	colRaceTime         = "race_time"
	colRaceType         = "race_type"
	colRaceClass        = "race_class"
	colDistance         = "distance"
	colGoing            = "going"
	colRunners          = "number_of_runners"
	colCountry          = "country"
	colTrackDirection   = "track_direction"
	colHandicap         = "is_handicap"
	colAmateur          = "is_amateur"
	colApprentice       = "is_apprentice"
	colSelectionID      = "selection_id"
	colHorseName        = "horse_name"
	colBSPOdds          = "bsp_odds"
	colResultStatus     = "result_status"
	colFavoritePosition = "favorite_position"
)

var requiredColumns = []string{
	colCourse, colRaceDate, colRaceTime, colRaceType, colGoing, colRunners, colBSPOdds, colFavoritePosition,
}

// ParseRaceCSV reads a race export. Closed enumerations are validated here and
// an unknown value rejects the whole export with its row number. Blank
// mandatory fields pass through so the backtest can skip the race.
func ParseRaceCSV(r io.Reader) ([]models.RaceEntry, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty export", ErrInvalidData)
		}
		return nil, fmt.Errorf("%w: failed to read header: %v", ErrInvalidData, err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrInvalidData, col)
		}
	}

	entries := []models.RaceEntry{}
	for row := 2; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrInvalidData, row, err)
		}

		entry, err := parseRow(rowReader{index: index, record: record})
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrInvalidData, row, err)
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

type rowReader struct {
	index  map[string]int
	record []string
}

func (r rowReader) get(col string) string {
	i, ok := r.index[col]
	if !ok || i >= len(r.record) {
		return ""
	}
	return strings.TrimSpace(r.record[i])
}

func (r rowReader) intField(col string) (int, error) {
	v := r.get(col)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not an integer", col, v)
	}
	return n, nil
}

func (r rowReader) boolField(col string) (bool, error) {
	v := r.get(col)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(strings.ToLower(v))
	if err != nil {
		return false, fmt.Errorf("%s: %q is not a boolean", col, v)
	}
	return b, nil
}

func parseRow(r rowReader) (models.RaceEntry, error) {
	var entry models.RaceEntry
	race := &entry.Race

	race.ID = r.get(colID)
	race.EventID = r.get(colEventID)
	race.MarketID = r.get(colMarketID)
	race.Course = r.get(colCourse)
	race.Distance = r.get(colDistance)

	race.RaceDate = r.get(colRaceDate)
	if race.RaceDate != "" {
		if _, err := time.Parse(models.DateLayout, race.RaceDate); err != nil {
			return entry, fmt.Errorf("%s: %q is not a YYYY-MM-DD date", colRaceDate, race.RaceDate)
		}
	}
	race.RaceTime = r.get(colRaceTime)
	if race.RaceTime != "" {
		if _, err := models.ParseRaceTime(race.RaceTime); err != nil {
			return entry, fmt.Errorf("%s: %q is not a HH:MM time", colRaceTime, race.RaceTime)
		}
	}

	var err error
	if race.RaceType, err = models.ParseRaceType(r.get(colRaceType)); err != nil {
		return entry, err
	}
	if race.Going, err = models.ParseGoing(r.get(colGoing)); err != nil {
		return entry, err
	}
	if v := r.get(colCountry); v != "" {
		if race.Country, err = models.ParseCountry(v); err != nil {
			return entry, err
		}
	}
	if v := r.get(colTrackDirection); v != "" {
		if race.TrackDirection, err = models.ParseTrackDirection(v); err != nil {
			return entry, err
		}
	}

	if race.RaceClass, err = r.intField(colRaceClass); err != nil {
		return entry, err
	}
	if race.NumberOfRunners, err = r.intField(colRunners); err != nil {
		return entry, err
	}
	if race.IsHandicap, err = r.boolField(colHandicap); err != nil {
		return entry, err
	}
	if race.IsAmateur, err = r.boolField(colAmateur); err != nil {
		return entry, err
	}
	if race.IsApprentice, err = r.boolField(colApprentice); err != nil {
		return entry, err
	}

	if v := r.get(colSelectionID); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return entry, fmt.Errorf("%s: %q is not an integer", colSelectionID, v)
		}
		entry.Favorite.SelectionID = id
	}
	entry.Favorite.HorseName = r.get(colHorseName)
	if v := r.get(colBSPOdds); v != "" {
		odds, err := decimal.NewFromString(v)
		if err != nil {
			return entry, fmt.Errorf("%s: %q is not a decimal", colBSPOdds, v)
		}
		entry.Favorite.BSPOdds = &odds
	}

	entry.Result.Status = models.ResultCompleted
	if v := r.get(colResultStatus); v != "" {
		if entry.Result.Status, err = models.ParseResultStatus(v); err != nil {
			return entry, err
		}
	}
	if entry.Result.FavoritePosition, err = r.intField(colFavoritePosition); err != nil {
		return entry, err
	}

	return entry, nil
}

// CSVSource reads race entries from a local export file
type CSVSource struct {
	path string
}

// NewCSVSource creates a source for the export at path
func NewCSVSource(path string) *CSVSource {
	return &CSVSource{path: path}
}

// Name returns the name of the source
func (s *CSVSource) Name() string {
	return csvSourceName
}

// Load parses the export and keeps entries in the date range
func (s *CSVSource) Load(ctx context.Context, start, end time.Time) ([]models.RaceEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.path)
	if err != nil {
		return nil, NewDataSourceError(csvSourceName, ErrCodeNotFound, "failed to open export", err)
	}
	defer f.Close()

	entries, err := ParseRaceCSV(f)
	if err != nil {
		return nil, NewDataSourceError(csvSourceName, ErrCodeInvalidData, s.path, err)
	}
	return filterRange(entries, start, end), nil
}
