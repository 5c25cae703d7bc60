package repository

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/smart-lay/internal/models"
)

// fakeRow assigns fixed values to scan destinations
type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.values) {
		return fmt.Errorf("scan: %d destinations for %d values", len(dest), len(r.values))
	}
	for i, v := range r.values {
		reflect.ValueOf(dest[i]).Elem().Set(reflect.ValueOf(v))
	}
	return nil
}

type fakeRows struct {
	rows []fakeRow
	pos  int
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.NewCommandTag("SELECT") }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) Values() ([]any, error)                       { return nil, nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	r.pos++
	return r.pos <= len(r.rows)
}

func (r *fakeRows) Scan(dest ...any) error {
	return r.rows[r.pos-1].Scan(dest...)
}

type fakeBatchResults struct {
	execs int
	err   error
}

func (b *fakeBatchResults) Exec() (pgconn.CommandTag, error) {
	b.execs++
	return pgconn.NewCommandTag("INSERT 0 1"), b.err
}
func (b *fakeBatchResults) Query() (pgx.Rows, error) { return nil, errors.New("not supported") }
func (b *fakeBatchResults) QueryRow() pgx.Row         { return fakeRow{err: errors.New("not supported")} }
func (b *fakeBatchResults) Close() error              { return nil }

// fakeDB records statements and serves canned rows
type fakeDB struct {
	execSQL  string
	execArgs []any
	queryArg []any
	row      fakeRow
	rows     *fakeRows
	batch    *pgx.Batch
	results  *fakeBatchResults
}

func (f *fakeDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execSQL = sql
	f.execArgs = args
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (f *fakeDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	f.queryArg = args
	return f.rows, nil
}

func (f *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	f.queryArg = args
	return f.row
}

func (f *fakeDB) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	f.batch = b
	if f.results == nil {
		f.results = &fakeBatchResults{}
	}
	return f.results
}

func raceRowValues(id, date, raceTime string, odds pgtype.Numeric, status string, position int) []any {
	d, _ := time.Parse(models.DateLayout, date)
	return []any{
		id, "", "", "Ascot", d, raceTime,
		"flat", 2, "1m", "good", 12,
		"UK", "right", false, false, false,
		int64(101), "Swift Lad", odds,
		status, position,
	}
}

func TestGetByDateRangeMapsRows(t *testing.T) {
	odds := pgtype.Numeric{Int: big.NewInt(325), Exp: -2, Valid: true}
	db := &fakeDB{rows: &fakeRows{rows: []fakeRow{
		{values: raceRowValues("r1", "2024-06-03", "14:30", odds, "completed", 2)},
		{values: raceRowValues("r2", "2024-06-03", "15:00", pgtype.Numeric{}, "abandoned", 0)},
	}}}

	repo := NewPostgresRaceEntryRepository(db)
	start, _ := time.Parse(models.DateLayout, "2024-06-01")
	entries, err := repo.GetByDateRange(context.Background(), start, time.Time{})
	require.NoError(t, err)

	assert.Equal(t, []any{"2024-06-01", "9999-12-31"}, db.queryArg)
	require.Len(t, entries, 2)

	first := entries[0]
	assert.Equal(t, "2024-06-03", first.Race.RaceDate)
	assert.Equal(t, "14:30", first.Race.RaceTime)
	assert.Equal(t, models.RaceTypeFlat, first.Race.RaceType)
	assert.Equal(t, models.TrackRight, first.Race.TrackDirection)
	require.NotNil(t, first.Favorite.BSPOdds)
	assert.True(t, first.Favorite.BSPOdds.Equal(decimal.RequireFromString("3.25")))
	assert.NoError(t, first.Validate())

	assert.Nil(t, entries[1].Favorite.BSPOdds)
	assert.True(t, entries[1].Result.IsVoid())
}

func TestGetByDateRangeRejectsUnknownStoredValues(t *testing.T) {
	db := &fakeDB{rows: &fakeRows{rows: []fakeRow{
		{values: raceRowValues("r1", "2024-06-03", "14:30", pgtype.Numeric{}, "postponed", 0)},
	}}}

	_, err := NewPostgresRaceEntryRepository(db).GetByDateRange(context.Background(), time.Time{}, time.Time{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown result status")
}

func TestUpsertBatchQueuesRaceFavoriteAndResult(t *testing.T) {
	odds := decimal.RequireFromString("2.5")
	entries := []models.RaceEntry{
		{
			Race:     models.Race{ID: "r1", Course: "Ascot", RaceDate: "2024-06-03", RaceTime: "14:30"},
			Favorite: models.Favorite{BSPOdds: &odds},
			Result:   models.RaceResult{Status: models.ResultCompleted, FavoritePosition: 1},
		},
		{
			Race:   models.Race{Course: "York", RaceDate: "2024-06-04", RaceTime: "13:15"},
			Result: models.RaceResult{Status: models.ResultVoid},
		},
	}

	db := &fakeDB{}
	require.NoError(t, NewPostgresRaceEntryRepository(db).UpsertBatch(context.Background(), entries))

	require.NotNil(t, db.batch)
	assert.Equal(t, 6, db.batch.Len())
	assert.Equal(t, 6, db.results.execs)

	favorite := db.batch.QueuedQueries[1]
	assert.Equal(t, []any{"r1", int64(0), "", "2.5"}, favorite.Arguments)

	second := db.batch.QueuedQueries[3]
	assert.Equal(t, "York|2024-06-04|13:15", second.Arguments[0])
	assert.Nil(t, db.batch.QueuedQueries[4].Arguments[3])
}

func TestUpsertBatchReportsFailingEntry(t *testing.T) {
	entries := []models.RaceEntry{{Race: models.Race{ID: "r1"}}}
	db := &fakeDB{results: &fakeBatchResults{err: errors.New("constraint violation")}}

	err := NewPostgresRaceEntryRepository(db).UpsertBatch(context.Background(), entries)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "race entry 0")
}

func TestUpsertBatchEmpty(t *testing.T) {
	db := &fakeDB{}
	require.NoError(t, NewPostgresRaceEntryRepository(db).UpsertBatch(context.Background(), nil))
	assert.Nil(t, db.batch)
}

func sampleRecord() *models.BacktestRecord {
	runDate := time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)
	return &models.BacktestRecord{
		ID:              uuid.NewSHA1(uuid.NameSpaceOID, []byte("run")),
		Name:            "default",
		ParameterHash:   "abc",
		RunDate:         runDate,
		StartDate:       "2024-06-01",
		EndDate:         "2024-06-30",
		InitialBankroll: 10000,
		FinalBankroll:   10250,
		ROI:             4.5,
		TotalWagers:     40,
		Recommendation:  "ACCEPT",
		FullResults:     []byte(`{"id":"run"}`),
		CreatedAt:       runDate,
	}
}

func recordValues(r *models.BacktestRecord) []any {
	return []any{
		r.ID, r.Name, r.ParameterHash, r.RunDate, r.StartDate, r.EndDate,
		r.InitialBankroll, r.FinalBankroll, r.ROI, r.SharpeRatio, r.MaxDrawdown,
		r.TotalWagers, r.WinRate, r.ProfitFactor, r.CompositeScore, r.Recommendation,
		r.FullResults, r.CreatedAt,
	}
}

func TestBacktestResultSave(t *testing.T) {
	db := &fakeDB{}
	record := sampleRecord()

	require.NoError(t, NewPostgresBacktestResultRepository(db).Save(context.Background(), record))

	assert.Contains(t, db.execSQL, "ON CONFLICT (id) DO UPDATE")
	require.Len(t, db.execArgs, 18)
	assert.Equal(t, record.ID, db.execArgs[0])
	assert.Equal(t, "2024-06-01", db.execArgs[4])
}

func TestBacktestResultGetByID(t *testing.T) {
	record := sampleRecord()
	db := &fakeDB{row: fakeRow{values: recordValues(record)}}

	got, err := NewPostgresBacktestResultRepository(db).GetByID(context.Background(), record.ID)
	require.NoError(t, err)
	assert.Equal(t, record, got)
	assert.Equal(t, []any{record.ID}, db.queryArg)
}

func TestBacktestResultGetByIDNotFound(t *testing.T) {
	db := &fakeDB{row: fakeRow{err: pgx.ErrNoRows}}

	_, err := NewPostgresBacktestResultRepository(db).GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestBacktestResultGetLatest(t *testing.T) {
	record := sampleRecord()
	db := &fakeDB{rows: &fakeRows{rows: []fakeRow{{values: recordValues(record)}}}}

	got, err := NewPostgresBacktestResultRepository(db).GetLatest(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ACCEPT", got[0].Recommendation)
	assert.Equal(t, []any{5}, db.queryArg)
}

func TestNewRepositoriesRequiresDatabase(t *testing.T) {
	_, err := NewRepositories(nil)
	assert.Error(t, err)

	repos := NewRepositoriesWith(&fakeDB{})
	assert.NotNil(t, repos.RaceEntries)
	assert.NotNil(t, repos.BacktestResults)
}
