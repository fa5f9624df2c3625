package universe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rkapoor/sortino/internal/domain"
)

const validYAML = `
securities:
  - symbol: PAAS
    name: Pan American Silver
    sector: silver
    simple_tax_statement: true
  - symbol: WPM
    name: Wheaton Precious Metals
    sector: mixed-precious
    simple_tax_statement: true
  - symbol: XOM
    name: Exxon Mobil
    sector: oil-and-gas
    simple_tax_statement: true
    dividend_yield: 3.42
  - symbol: EPD
    name: Enterprise Products (MLP, K-1)
    sector: oil-and-gas
    simple_tax_statement: false
`

func TestParseValid(t *testing.T) {
	u, err := Parse([]byte(validYAML))
	require.NoError(t, err)

	assert.Equal(t, 4, u.Size())
	assert.Equal(t, domain.SectorSilver, u.SectorOf("PAAS"))
	assert.Equal(t, domain.SectorUnknown, u.SectorOf("NOPE"))
	assert.True(t, u.TaxEligible("XOM"))
	assert.False(t, u.TaxEligible("EPD"), "K-1 issuer must be tax-ineligible")
	assert.False(t, u.TaxEligible("NOPE"))
	assert.Equal(t, []string{"EPD", "PAAS", "WPM", "XOM"}, u.Symbols())
	assert.Equal(t, []string{"EPD", "XOM"}, u.Members(domain.SectorOilGas))

	sec, ok := u.Security("XOM")
	require.True(t, ok)
	assert.Equal(t, 3.42, sec.DividendYield)
}

func TestParseRejectsBadFiles(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"empty", "securities: []"},
		{"unknown sector", "securities:\n  - symbol: A\n    sector: frontier-markets"},
		{"missing symbol", "securities:\n  - name: Mystery\n    sector: gold"},
		{"duplicate symbol", "securities:\n  - symbol: A\n    sector: gold\n  - symbol: A\n    sector: silver"},
		{"not yaml", "][...garbage"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}
