package history

import (
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rkapoor/sortino/internal/database"
	"github.com/rkapoor/sortino/internal/domain"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.New(database.Config{
		Path: "file:" + t.Name() + "?mode=memory&cache=shared",
		Name: "history",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store, err := NewStore(db, zerolog.Nop())
	require.NoError(t, err)
	return store
}

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestStoreRoundTrip(t *testing.T) {
	store := testStore(t)

	ps := domain.PriceSeries{Symbol: "XOM", Points: []domain.PricePoint{
		{Date: day("2025-01-02"), Close: 105.5},
		{Date: day("2025-01-03"), Close: 106.0},
	}}
	require.NoError(t, store.SaveSeries(ps))

	got, err := store.Series("XOM")
	require.NoError(t, err)
	assert.Equal(t, ps, got)

	symbols, err := store.Symbols()
	require.NoError(t, err)
	assert.Equal(t, []string{"XOM"}, symbols)
}

func TestStoreUpsertOverwrites(t *testing.T) {
	store := testStore(t)

	first := domain.PriceSeries{Symbol: "PAAS", Points: []domain.PricePoint{
		{Date: day("2025-01-02"), Close: 20},
	}}
	require.NoError(t, store.SaveSeries(first))

	second := domain.PriceSeries{Symbol: "PAAS", Points: []domain.PricePoint{
		{Date: day("2025-01-02"), Close: 21},
		{Date: day("2025-01-03"), Close: 22},
	}}
	require.NoError(t, store.SaveSeries(second))

	got, err := store.Series("PAAS")
	require.NoError(t, err)
	assert.Equal(t, second, got)
}

func TestStoreMissingSymbolIsEmptyNotError(t *testing.T) {
	store := testStore(t)
	got, err := store.Series("NOPE")
	require.NoError(t, err)
	assert.Equal(t, 0, got.Len())
}

func TestReadCSV(t *testing.T) {
	input := strings.Join([]string{
		"date,XOM,PAAS",
		"2025-01-02,105.5,20.1",
		"2025-01-03,106.0,",
		"2025-01-06,107.2,20.8",
	}, "\n")

	series, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, 3, series["XOM"].Len())
	assert.Equal(t, 2, series["PAAS"].Len(), "empty cell is a gap")
	assert.Equal(t, 105.5, series["XOM"].Points[0].Close)
}

func TestReadCSVRejectsBadInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"missing date header", "XOM,PAAS\n2025-01-02,1,2"},
		{"descending dates", "date,XOM\n2025-01-03,1\n2025-01-02,2"},
		{"garbage price", "date,XOM\n2025-01-02,abc"},
		{"negative price", "date,XOM\n2025-01-02,-5"},
		{"bad date", "date,XOM\n01/02/2025,1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestAlign(t *testing.T) {
	series := map[string]domain.PriceSeries{
		"A": {Symbol: "A", Points: []domain.PricePoint{
			{Date: day("2025-01-02"), Close: 10},
			{Date: day("2025-01-03"), Close: 11},
			{Date: day("2025-01-06"), Close: 12},
		}},
		"B": {Symbol: "B", Points: []domain.PricePoint{
			{Date: day("2025-01-03"), Close: 50},
			{Date: day("2025-01-06"), Close: 55},
			{Date: day("2025-01-07"), Close: 56},
		}},
	}

	aligned, err := Align(series, []string{"A", "B"})
	require.NoError(t, err)

	assert.Equal(t, 2, aligned.Len(), "only the two shared dates survive")
	assert.Equal(t, []float64{11, 12}, aligned.Closes["A"])
	assert.Equal(t, []float64{50, 55}, aligned.Closes["B"])

	returns := aligned.Returns()
	assert.Len(t, returns["A"], 1)
	assert.InDelta(t, 12.0/11.0-1, returns["A"][0], 1e-12)
	assert.InDelta(t, 0.1, returns["B"][0], 1e-12)
}

func TestAlignErrors(t *testing.T) {
	series := map[string]domain.PriceSeries{
		"A": {Symbol: "A", Points: []domain.PricePoint{{Date: day("2025-01-02"), Close: 10}}},
		"B": {Symbol: "B", Points: []domain.PricePoint{{Date: day("2025-01-03"), Close: 50}}},
	}

	_, err := Align(series, []string{"A", "MISSING"})
	assert.ErrorContains(t, err, "MISSING")

	_, err = Align(series, []string{"A", "B"})
	assert.ErrorContains(t, err, "common trading days")

	_, err = Align(series, nil)
	assert.Error(t, err)
}

func TestImportCountsPoints(t *testing.T) {
	store := testStore(t)

	snapshot := map[string]domain.PriceSeries{
		"GDX": {Symbol: "GDX", Points: []domain.PricePoint{
			{Date: day("2025-01-02"), Close: 30},
			{Date: day("2025-01-03"), Close: 31},
			{Date: day("2025-01-06"), Close: 30.5},
		}},
		"CCJ": {Symbol: "CCJ", Points: []domain.PricePoint{
			{Date: day("2025-01-02"), Close: 50},
			{Date: day("2025-01-03"), Close: 51},
		}},
	}

	points, err := store.Import(snapshot)
	require.NoError(t, err)
	assert.Equal(t, 5, points)

	symbols, err := store.Symbols()
	require.NoError(t, err)
	assert.Equal(t, []string{"CCJ", "GDX"}, symbols)
}
