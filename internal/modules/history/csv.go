package history

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rkapoor/sortino/internal/domain"
)

// ReadCSV parses a wide-format price snapshot: a "date" column followed by
// one column per symbol, one row per trading day, dates ascending. Empty
// cells are treated as gaps and skipped; alignment happens later.
func ReadCSV(r io.Reader) (map[string]domain.PriceSeries, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	if len(header) < 2 || !strings.EqualFold(strings.TrimSpace(header[0]), "date") {
		return nil, fmt.Errorf("CSV header must start with a date column followed by symbols, got %v", header)
	}

	symbols := make([]string, len(header)-1)
	for i, h := range header[1:] {
		symbol := strings.TrimSpace(h)
		if symbol == "" {
			return nil, fmt.Errorf("empty symbol name in CSV column %d", i+2)
		}
		symbols[i] = symbol
	}

	series := make(map[string]domain.PriceSeries, len(symbols))
	for _, symbol := range symbols {
		series[symbol] = domain.PriceSeries{Symbol: symbol}
	}

	var lastDate time.Time
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV line %d: %w", line+1, err)
		}
		line++

		date, err := time.Parse("2006-01-02", strings.TrimSpace(record[0]))
		if err != nil {
			return nil, fmt.Errorf("invalid date %q on line %d: %w", record[0], line, err)
		}
		if !lastDate.IsZero() && !date.After(lastDate) {
			return nil, fmt.Errorf("dates must be strictly ascending: %s follows %s on line %d",
				date.Format("2006-01-02"), lastDate.Format("2006-01-02"), line)
		}
		lastDate = date

		for i, symbol := range symbols {
			cell := strings.TrimSpace(record[i+1])
			if cell == "" {
				continue
			}
			close, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid price %q for %s on line %d: %w", cell, symbol, line, err)
			}
			if close <= 0 {
				return nil, fmt.Errorf("non-positive price %v for %s on line %d", close, symbol, line)
			}
			ps := series[symbol]
			ps.Points = append(ps.Points, domain.PricePoint{Date: date, Close: close})
			series[symbol] = ps
		}
	}

	return series, nil
}

// ReadCSVFile opens and parses a snapshot file.
func ReadCSVFile(path string) (map[string]domain.PriceSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open price snapshot: %w", err)
	}
	defer f.Close()
	return ReadCSV(f)
}
