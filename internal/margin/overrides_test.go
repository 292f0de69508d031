package margin

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestOverrideTableLookupsAreCaseInsensitive(t *testing.T) {
	table := NewOverrideTable()
	table.MarginPerLot["ngg6"] = 7667.72
	table.MarginRatePct["nrg6"] = 50
	table.Normalize()

	if v, ok := table.MarginFor("NgG6"); !ok || v != 7667.72 {
		t.Errorf("MarginFor(NgG6) = %v, %v", v, ok)
	}
	if v, ok := table.RateFor("NRG6"); !ok || v != 50.0 {
		t.Errorf("RateFor(NRG6) = %v, %v", v, ok)
	}
}

func TestOverrideTableZeroEntriesDontCount(t *testing.T) {
	table := NewOverrideTable()
	table.MarginPerLot["VBH6"] = 0 // placeholder until verified in terminal

	if _, ok := table.MarginFor("VBH6"); ok {
		t.Errorf("zero margin entry must mean try next tier")
	}
}

func TestSimilarToLongestPrefixWins(t *testing.T) {
	table := NewOverrideTable()
	table.SimilarGroups["S"] = []string{"S1H6", "SVH6"}
	table.SimilarGroups["SR"] = []string{"SRH6", "SRM6"}
	table.Normalize()

	siblings := table.SimilarTo("SRH6")
	if len(siblings) != 1 || siblings[0] != "SRM6" {
		t.Errorf("SimilarTo(SRH6) = %v, want [SRM6]", siblings)
	}
}

func TestSimilarToExcludesSelf(t *testing.T) {
	table := NewOverrideTable()
	table.SimilarGroups["NG"] = []string{"NGG6", "NRG6"}
	table.Normalize()

	siblings := table.SimilarTo("NGG6")
	if len(siblings) != 1 || siblings[0] != "NRG6" {
		t.Errorf("SimilarTo(NGG6) = %v, want [NRG6]", siblings)
	}
	if got := table.SimilarTo("TBH6"); got != nil {
		t.Errorf("SimilarTo(TBH6) = %v, want nil", got)
	}
}

func TestLoadOverrideTable(t *testing.T) {
	content := `
version: "2026-02-11"
margin_per_lot:
  ngg6: 7667.72
  tbh6: 885.75
margin_rate_pct:
  nrg6: 50
similar_groups:
  ng: [ngg6, nrg6]
`
	filename := filepath.Join(t.TempDir(), "overrides.yaml")
	if err := os.WriteFile(filename, []byte(content), 0o644); err != nil {
		t.Fatalf("can't write fixture: %s", err)
	}

	table, err := LoadOverrideTable(filename)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if table.Version != "2026-02-11" {
		t.Errorf("version = %q", table.Version)
	}
	if v, ok := table.MarginFor("NGG6"); !ok || v != 7667.72 {
		t.Errorf("MarginFor(NGG6) = %v, %v", v, ok)
	}
	if siblings := table.SimilarTo("NRG6"); len(siblings) != 1 || siblings[0] != "NGG6" {
		t.Errorf("SimilarTo(NRG6) = %v", siblings)
	}
}

func TestLoadOverrideTableUnavailable(t *testing.T) {
	if _, err := LoadOverrideTable("/nonexistent/overrides.yaml"); !errors.Is(err, ErrOverrideTableUnavailable) {
		t.Errorf("err = %v, want ErrOverrideTableUnavailable", err)
	}
}
