package datasource

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/smart-lay/internal/config"
	"github.com/yourusername/smart-lay/internal/models"
)

const exportHeader = "id,course_name,race_date,race_time,race_type,race_class,going,number_of_runners,country,track_direction,is_handicap,is_amateur,is_apprentice,selection_id,horse_name,bsp_odds,result_status,favorite_position\n"

const sampleExport = exportHeader +
	"r1,Ascot,2024-06-03,14:30,flat,2,good_to_firm,12,UK,right,false,false,false,101,Swift Lad,3.25,completed,2\n" +
	"r2,Cheltenham,2024-06-04,15:10,hurdle,3,soft,8,UK,left,true,false,false,102,Mud Lark,2.1,completed,1\n" +
	"r3,Punchestown,2024-06-05,16:00,chase,1,heavy,7,IRE,,false,false,false,103,No Price,,abandoned,0\n"

func day(s string) time.Time {
	t, _ := time.Parse(models.DateLayout, s)
	return t
}

func quietClient() *RateLimitedHTTPClient {
	cfg := DefaultHTTPClientConfig()
	cfg.MaxRetries = 0
	cfg.RateLimit = 1000
	return NewRateLimitedHTTPClient(cfg, nil)
}

func TestParseRaceCSV(t *testing.T) {
	entries, err := ParseRaceCSV(strings.NewReader(sampleExport))
	require.NoError(t, err)
	require.Len(t, entries, 3)

	first := entries[0]
	assert.Equal(t, "r1", first.Race.ID)
	assert.Equal(t, "Ascot", first.Race.Course)
	assert.Equal(t, "2024-06-03", first.Race.RaceDate)
	assert.Equal(t, "14:30", first.Race.RaceTime)
	assert.Equal(t, models.RaceTypeFlat, first.Race.RaceType)
	assert.Equal(t, models.GoingGoodToFirm, first.Race.Going)
	assert.Equal(t, 12, first.Race.NumberOfRunners)
	assert.Equal(t, models.CountryUK, first.Race.Country)
	assert.Equal(t, models.TrackRight, first.Race.TrackDirection)
	assert.Equal(t, int64(101), first.Favorite.SelectionID)
	require.NotNil(t, first.Favorite.BSPOdds)
	assert.Equal(t, "3.25", first.Favorite.BSPOdds.StringFixed(2))
	assert.Equal(t, models.ResultCompleted, first.Result.Status)
	assert.Equal(t, 2, first.Result.FavoritePosition)

	assert.True(t, entries[1].Race.IsHandicap)
	assert.True(t, entries[1].Result.FavoriteWon())

	third := entries[2]
	assert.Nil(t, third.Favorite.BSPOdds)
	assert.Equal(t, models.TrackDirection(""), third.Race.TrackDirection)
	assert.True(t, third.Result.IsVoid())
}

func TestParseRaceCSVRejectsUnknownEnumerations(t *testing.T) {
	tests := []struct {
		name string
		row  string
	}{
		{"race type", "r1,Ascot,2024-06-03,14:30,sprint,2,good,12,UK,right,false,false,false,1,H,3.0,completed,2\n"},
		{"going", "r1,Ascot,2024-06-03,14:30,flat,2,muddy,12,UK,right,false,false,false,1,H,3.0,completed,2\n"},
		{"country", "r1,Ascot,2024-06-03,14:30,flat,2,good,12,FR,right,false,false,false,1,H,3.0,completed,2\n"},
		{"track", "r1,Ascot,2024-06-03,14:30,flat,2,good,12,UK,oval,false,false,false,1,H,3.0,completed,2\n"},
		{"result status", "r1,Ascot,2024-06-03,14:30,flat,2,good,12,UK,right,false,false,false,1,H,3.0,postponed,2\n"},
		{"date", "r1,Ascot,03/06/2024,14:30,flat,2,good,12,UK,right,false,false,false,1,H,3.0,completed,2\n"},
		{"time", "r1,Ascot,2024-06-03,2.30pm,flat,2,good,12,UK,right,false,false,false,1,H,3.0,completed,2\n"},
		{"unpadded time", "r1,Ascot,2024-06-03,9:05,flat,2,good,12,UK,right,false,false,false,1,H,3.0,completed,2\n"},
		{"odds", "r1,Ascot,2024-06-03,14:30,flat,2,good,12,UK,right,false,false,false,1,H,evens,completed,2\n"},
		{"runners", "r1,Ascot,2024-06-03,14:30,flat,2,good,twelve,UK,right,false,false,false,1,H,3.0,completed,2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRaceCSV(strings.NewReader(exportHeader + tt.row))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidData))
			assert.Contains(t, err.Error(), "row 2")
		})
	}
}

func TestParseRaceCSVPassesBlankMandatoryFields(t *testing.T) {
	row := "r1,,2024-06-03,14:30,flat,2,good,,UK,right,false,false,false,1,H,3.0,completed,2\n"
	entries, err := ParseRaceCSV(strings.NewReader(exportHeader + row))
	require.NoError(t, err)
	require.Len(t, entries, 1)

	assert.Empty(t, entries[0].Race.Course)
	assert.Equal(t, 0, entries[0].Race.NumberOfRunners)
	assert.Error(t, entries[0].Validate())
}

func TestParseRaceCSVMissingColumn(t *testing.T) {
	_, err := ParseRaceCSV(strings.NewReader("id,course_name\nr1,Ascot\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing column")
}

func TestParseRaceCSVEmpty(t *testing.T) {
	_, err := ParseRaceCSV(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrInvalidData)
}

func TestCSVSourceLoadFiltersRange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "races.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleExport), 0o644))

	source := NewCSVSource(path)
	entries, err := source.Load(context.Background(), day("2024-06-04"), day("2024-06-05"))
	require.NoError(t, err)

	require.Len(t, entries, 2)
	assert.Equal(t, "r2", entries[0].Race.ID)
	assert.Equal(t, "r3", entries[1].Race.ID)
	assert.Equal(t, "csv", source.Name())
}

func TestCSVSourceMissingFile(t *testing.T) {
	_, err := NewCSVSource(filepath.Join(t.TempDir(), "missing.csv")).Load(context.Background(), time.Time{}, time.Time{})
	require.Error(t, err)

	var dsErr DataSourceError
	require.True(t, errors.As(err, &dsErr))
	assert.Equal(t, ErrCodeNotFound, dsErr.Code)
}

func TestHTTPSourceLoad(t *testing.T) {
	var gotAuth, gotFrom, gotTo string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotFrom = r.URL.Query().Get("from")
		gotTo = r.URL.Query().Get("to")
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte(sampleExport))
	}))
	defer server.Close()

	source := NewHTTPSource(quietClient(), server.URL+"/export", "secret")
	entries, err := source.Load(context.Background(), day("2024-06-03"), day("2024-06-04"))
	require.NoError(t, err)

	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "2024-06-03", gotFrom)
	assert.Equal(t, "2024-06-04", gotTo)
	require.Len(t, entries, 2)
	assert.Equal(t, "r1", entries[0].Race.ID)
}

func TestHTTPSourceUnauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	_, err := NewHTTPSource(quietClient(), server.URL, "bad").Load(context.Background(), time.Time{}, time.Time{})
	require.Error(t, err)

	var dsErr DataSourceError
	require.True(t, errors.As(err, &dsErr))
	assert.Equal(t, ErrCodeAuthenticationFailed, dsErr.Code)
}

func TestHTTPSourceInvalidBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not,a,race,export\n"))
	}))
	defer server.Close()

	_, err := NewHTTPSource(quietClient(), server.URL, "").Load(context.Background(), time.Time{}, time.Time{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidData)
}

type stubLoader struct {
	entries []models.RaceEntry
}

func (s stubLoader) GetByDateRange(ctx context.Context, start, end time.Time) ([]models.RaceEntry, error) {
	return s.entries, nil
}

func TestFactoryNewSource(t *testing.T) {
	tests := []struct {
		name     string
		data     config.DataConfig
		loader   RaceEntryLoader
		expected string
		wantErr  bool
	}{
		{"csv", config.DataConfig{Source: config.SourceCSV, Path: "races.csv"}, nil, "csv", false},
		{"csv without path", config.DataConfig{Source: config.SourceCSV}, nil, "", true},
		{"http", config.DataConfig{Source: config.SourceHTTP, URL: "http://localhost/export"}, nil, "http", false},
		{"http without url", config.DataConfig{Source: config.SourceHTTP}, nil, "", true},
		{"postgres", config.DataConfig{Source: config.SourcePostgres}, stubLoader{}, "postgres", false},
		{"postgres without repository", config.DataConfig{Source: config.SourcePostgres}, nil, "", true},
		{"unknown", config.DataConfig{Source: "ftp"}, nil, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			factory := NewFactory(&config.Config{Data: tt.data}, nil)
			source, err := factory.NewSource(tt.loader)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, source.Name())
		})
	}
}

func TestRepositorySourceLoad(t *testing.T) {
	loader := stubLoader{entries: []models.RaceEntry{{Race: models.Race{ID: "r1"}}}}
	entries, err := NewRepositorySource(loader).Load(context.Background(), day("2024-06-01"), day("2024-06-30"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
