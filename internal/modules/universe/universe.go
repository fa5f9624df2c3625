// Package universe holds the hand-curated investment universe: which symbols
// are in play, their sector tags, and whether they issue a simple year-end
// tax statement. The file is maintained by hand; this package only loads and
// validates it.
package universe

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/rkapoor/sortino/internal/domain"
)

// Universe is the validated set of candidate securities.
type Universe struct {
	securities map[string]domain.Security
}

// file is the on-disk YAML shape.
type file struct {
	Securities []domain.Security `yaml:"securities"`
}

// Load reads and validates a universe YAML file.
func Load(path string) (*Universe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read universe file: %w", err)
	}
	return Parse(data)
}

// Parse validates raw universe YAML.
func Parse(data []byte) (*Universe, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse universe file: %w", err)
	}
	if len(f.Securities) == 0 {
		return nil, fmt.Errorf("universe file lists no securities")
	}

	known := make(map[domain.Sector]bool, len(domain.KnownSectors))
	for _, s := range domain.KnownSectors {
		known[s] = true
	}

	securities := make(map[string]domain.Security, len(f.Securities))
	for _, sec := range f.Securities {
		if sec.Symbol == "" {
			return nil, fmt.Errorf("universe entry without a symbol (name=%q)", sec.Name)
		}
		if _, dup := securities[sec.Symbol]; dup {
			return nil, fmt.Errorf("duplicate symbol %s in universe file", sec.Symbol)
		}
		if !known[sec.Sector] {
			return nil, fmt.Errorf("unknown sector %q for %s", sec.Sector, sec.Symbol)
		}
		securities[sec.Symbol] = sec
	}

	return &Universe{securities: securities}, nil
}

// Size returns the number of securities in the universe.
func (u *Universe) Size() int { return len(u.securities) }

// Security returns the entry for a symbol.
func (u *Universe) Security(symbol string) (domain.Security, bool) {
	sec, ok := u.securities[symbol]
	return sec, ok
}

// Contains reports whether the symbol is part of the universe.
func (u *Universe) Contains(symbol string) bool {
	_, ok := u.securities[symbol]
	return ok
}

// SectorOf returns the sector tag for a symbol, SectorUnknown for strangers.
func (u *Universe) SectorOf(symbol string) domain.Sector {
	if sec, ok := u.securities[symbol]; ok {
		return sec.Sector
	}
	return domain.SectorUnknown
}

// TaxEligible reports whether the symbol issues a simple year-end tax
// statement. Unknown symbols are not eligible.
func (u *Universe) TaxEligible(symbol string) bool {
	sec, ok := u.securities[symbol]
	return ok && sec.SimpleTaxStatement
}

// Symbols returns all universe symbols sorted for deterministic iteration.
func (u *Universe) Symbols() []string {
	symbols := make([]string, 0, len(u.securities))
	for s := range u.securities {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}

// Members returns the sorted symbols tagged with the given sector.
func (u *Universe) Members(sector domain.Sector) []string {
	var members []string
	for symbol, sec := range u.securities {
		if sec.Sector == sector {
			members = append(members, symbol)
		}
	}
	sort.Strings(members)
	return members
}
