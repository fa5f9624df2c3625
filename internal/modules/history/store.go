// Package history stores total-return price snapshots in a local sqlite
// database and loads them back as aligned series for the analysis modules.
// The store is a cache of externally fetched data, never a source of truth.
package history

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/rkapoor/sortino/internal/database"
	"github.com/rkapoor/sortino/internal/domain"
)

const dayFormat = "2006-01-02"

// Store provides read/write access to the price history database.
type Store struct {
	db  *database.DB
	log zerolog.Logger
}

// NewStore creates a history store and ensures the schema exists.
func NewStore(db *database.DB, log zerolog.Logger) (*Store, error) {
	s := &Store{
		db:  db,
		log: log.With().Str("component", "history").Logger(),
	}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS prices (
			symbol TEXT NOT NULL,
			day    TEXT NOT NULL,
			close  REAL NOT NULL,
			PRIMARY KEY (symbol, day)
		)`)
	if err != nil {
		return fmt.Errorf("failed to create prices table: %w", err)
	}
	return nil
}

// SaveSeries upserts a full price series for one symbol.
func (s *Store) SaveSeries(ps domain.PriceSeries) error {
	if ps.Symbol == "" {
		return fmt.Errorf("cannot save series without a symbol")
	}

	err := database.WithTransaction(s.db.Conn(), func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT INTO prices (symbol, day, close) VALUES (?, ?, ?)
			ON CONFLICT(symbol, day) DO UPDATE SET close = excluded.close`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, p := range ps.Points {
			if _, err := stmt.Exec(ps.Symbol, p.Date.Format(dayFormat), p.Close); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save series for %s: %w", ps.Symbol, err)
	}

	s.log.Debug().Str("symbol", ps.Symbol).Int("points", ps.Len()).Msg("Saved price series")
	return nil
}

// Series loads the full price series for one symbol in date order.
// A symbol with no rows returns an empty series, not an error; callers decide
// whether missing data is fatal.
func (s *Store) Series(symbol string) (domain.PriceSeries, error) {
	rows, err := s.db.Query(
		`SELECT day, close FROM prices WHERE symbol = ? ORDER BY day ASC`, symbol)
	if err != nil {
		return domain.PriceSeries{}, fmt.Errorf("failed to query series for %s: %w", symbol, err)
	}
	defer rows.Close()

	ps := domain.PriceSeries{Symbol: symbol}
	for rows.Next() {
		var day string
		var close float64
		if err := rows.Scan(&day, &close); err != nil {
			return domain.PriceSeries{}, fmt.Errorf("failed to scan price row for %s: %w", symbol, err)
		}
		date, err := time.Parse(dayFormat, day)
		if err != nil {
			return domain.PriceSeries{}, fmt.Errorf("invalid date %q stored for %s: %w", day, symbol, err)
		}
		ps.Points = append(ps.Points, domain.PricePoint{Date: date, Close: close})
	}
	if err := rows.Err(); err != nil {
		return domain.PriceSeries{}, fmt.Errorf("failed to read series for %s: %w", symbol, err)
	}
	return ps, nil
}

// LoadAll loads every stored symbol's series.
func (s *Store) LoadAll() (map[string]domain.PriceSeries, error) {
	symbols, err := s.Symbols()
	if err != nil {
		return nil, err
	}

	all := make(map[string]domain.PriceSeries, len(symbols))
	for _, symbol := range symbols {
		ps, err := s.Series(symbol)
		if err != nil {
			return nil, err
		}
		all[symbol] = ps
	}
	return all, nil
}

// Symbols lists the symbols present in the store.
func (s *Store) Symbols() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT symbol FROM prices ORDER BY symbol ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list symbols: %w", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		symbols = append(symbols, symbol)
	}
	return symbols, rows.Err()
}

// Import stores every series from a snapshot, returning the number of price
// points written.
func (s *Store) Import(seriesBySymbol map[string]domain.PriceSeries) (int, error) {
	points := 0
	for _, ps := range seriesBySymbol {
		if err := s.SaveSeries(ps); err != nil {
			return points, err
		}
		points += ps.Len()
	}
	s.log.Info().
		Int("symbols", len(seriesBySymbol)).
		Int("points", points).
		Msg("Imported price snapshot")
	return points, nil
}
