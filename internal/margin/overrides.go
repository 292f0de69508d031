package margin

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

var ErrOverrideTableUnavailable = errors.New("override table unavailable")

// OverrideTable is the curated margin knowledge base: per-ticker margins
// verified in the broker terminal, per-ticker fallback rates and
// ticker-prefix groups of contracts sharing design (full and mini
// contracts on the same asset). It is a read-only snapshot for one run;
// the operator updates it out of band and the process reloads it
// between runs.
type OverrideTable struct {
	Version       string              `yaml:"version" json:"version"`
	MarginPerLot  map[string]float64  `yaml:"margin_per_lot" json:"margin_per_lot"`
	MarginRatePct map[string]float64  `yaml:"margin_rate_pct" json:"margin_rate_pct"`
	SimilarGroups map[string][]string `yaml:"similar_groups" json:"similar_groups"`
}

func NewOverrideTable() *OverrideTable {
	return &OverrideTable{
		MarginPerLot:  make(map[string]float64),
		MarginRatePct: make(map[string]float64),
		SimilarGroups: make(map[string][]string),
	}
}

// Normalize upper-cases all tickers and prefixes so lookups are
// case-insensitive, the way the terminal data is keyed.
func (t *OverrideTable) Normalize() *OverrideTable {
	margins := make(map[string]float64, len(t.MarginPerLot))
	for k, v := range t.MarginPerLot {
		margins[strings.ToUpper(k)] = v
	}
	t.MarginPerLot = margins

	rates := make(map[string]float64, len(t.MarginRatePct))
	for k, v := range t.MarginRatePct {
		rates[strings.ToUpper(k)] = v
	}
	t.MarginRatePct = rates

	groups := make(map[string][]string, len(t.SimilarGroups))
	for prefix, tickers := range t.SimilarGroups {
		upper := make([]string, len(tickers))
		for i, ticker := range tickers {
			upper[i] = strings.ToUpper(ticker)
		}
		groups[strings.ToUpper(prefix)] = upper
	}
	t.SimilarGroups = groups

	return t
}

// MarginFor returns the verified per-lot margin for a ticker. Zero and
// negative entries mean "not verified yet" and don't count.
func (t *OverrideTable) MarginFor(ticker string) (float64, bool) {
	v, ok := t.MarginPerLot[strings.ToUpper(ticker)]
	if !ok || v <= 0 {
		return 0, false
	}
	return v, true
}

// RateFor returns the per-ticker fallback rate in percent.
func (t *OverrideTable) RateFor(ticker string) (float64, bool) {
	v, ok := t.MarginRatePct[strings.ToUpper(ticker)]
	if !ok || v <= 0 {
		return 0, false
	}
	return v, true
}

// SimilarTo returns tickers from the group whose prefix matches the
// ticker. The longest matching prefix wins, the ticker itself is
// filtered out.
func (t *OverrideTable) SimilarTo(ticker string) []string {
	upper := strings.ToUpper(ticker)

	var bestPrefix string
	for prefix := range t.SimilarGroups {
		if strings.HasPrefix(upper, prefix) && len(prefix) > len(bestPrefix) {
			bestPrefix = prefix
		}
	}
	if bestPrefix == "" {
		return nil
	}

	siblings := make([]string, 0, len(t.SimilarGroups[bestPrefix]))
	for _, s := range t.SimilarGroups[bestPrefix] {
		if s != upper {
			siblings = append(siblings, s)
		}
	}
	return siblings
}

func LoadOverrideTable(filename string) (*OverrideTable, error) {
	input, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("%w: can't read %s: %s", ErrOverrideTableUnavailable, filename, err)
	}

	table := NewOverrideTable()
	if err := yaml.Unmarshal(input, table); err != nil {
		return nil, fmt.Errorf("%w: can't unmarshal %s: %s", ErrOverrideTableUnavailable, filename, err)
	}

	return table.Normalize(), nil
}
