package margin

import (
	"errors"
	"testing"

	"github.com/STTM-NSU/futures-screener/internal/config"
	"github.com/STTM-NSU/futures-screener/internal/logger"
	"github.com/STTM-NSU/futures-screener/internal/model"
)

func newTestResolver(t *testing.T, table *OverrideTable) *Resolver {
	t.Helper()
	r, err := NewResolver(config.MarginConfig{DefaultRatePct: 15}, table, logger.NewNopLogger())
	if err != nil {
		t.Fatalf("can't create resolver: %s", err)
	}
	return r
}

func TestResolveOverrideWinsOverFormula(t *testing.T) {
	table := NewOverrideTable()
	table.MarginPerLot["NGG6"] = 7667.72

	r := newTestResolver(t, table)

	// формула дала бы ~0.33, но словарное значение всегда приоритетнее
	res, err := r.Resolve(model.Instrument{
		Ticker:            "ngg6",
		CurrentPrice:      3.0,
		Lot:               1,
		MinPriceIncrement: 0.001,
		Dlong:             0.11,
		Dshort:            0.11,
	})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if res.Tier != model.TierOverride {
		t.Errorf("tier = %s, want %s", res.Tier, model.TierOverride)
	}
	if res.PerLot != 7667.72 {
		t.Errorf("margin = %v, want 7667.72", res.PerLot)
	}
}

func TestResolveFormulaTier(t *testing.T) {
	r := newTestResolver(t, nil)

	res, err := r.Resolve(model.Instrument{
		Ticker:            "TBH6",
		CurrentPrice:      2500.0,
		Lot:               1,
		MinPriceIncrement: 0.1,
		Dlong:             0.15,
		Dshort:            0.15,
	})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if res.Tier != model.TierFormula {
		t.Errorf("tier = %s, want %s", res.Tier, model.TierFormula)
	}
	if res.PerLot != 37.5 {
		t.Errorf("margin = %v, want 37.5", res.PerLot)
	}
}

func TestResolveFormulaTakesLargerSide(t *testing.T) {
	r := newTestResolver(t, nil)

	res, err := r.Resolve(model.Instrument{
		Ticker:            "PTH6",
		CurrentPrice:      2000.0,
		Lot:               1,
		MinPriceIncrement: 0.1,
		Dlong:             0.1,
		Dshort:            0.2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if res.PerLot != 40.0 { // 0.1 * 2000 * 0.2
		t.Errorf("margin = %v, want short side 40.0", res.PerLot)
	}
}

func TestResolvePercentageFallback(t *testing.T) {
	r := newTestResolver(t, nil)

	res, err := r.Resolve(model.Instrument{Ticker: "VBH6", CurrentPrice: 1000.0, Lot: 1})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if res.Tier != model.TierPercentage {
		t.Errorf("tier = %s, want %s", res.Tier, model.TierPercentage)
	}
	if res.PerLot != 150.0 { // 1000 * 1 * 15%
		t.Errorf("margin = %v, want 150.0", res.PerLot)
	}
}

func TestResolvePercentageCustomRate(t *testing.T) {
	table := NewOverrideTable()
	table.MarginRatePct["NCM6"] = 12

	r := newTestResolver(t, table)

	res, err := r.Resolve(model.Instrument{Ticker: "NCM6", CurrentPrice: 1000.0, Lot: 1})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if res.PerLot != 120.0 {
		t.Errorf("margin = %v, want 120.0", res.PerLot)
	}
}

func TestResolveSimilarityTier(t *testing.T) {
	table := NewOverrideTable()
	table.MarginPerLot["SVH6"] = 15751.12
	table.SimilarGroups["S"] = []string{"S1H6", "SVH6"}
	table.Normalize()

	r := newTestResolver(t, table)

	res, err := r.Resolve(model.Instrument{
		Ticker:       "S1H6",
		CurrentPrice: 77.19,
		Lot:          1,
		Dshort:       0.2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if res.Tier != model.TierSimilarity {
		t.Fatalf("tier = %s, want %s", res.Tier, model.TierSimilarity)
	}
	// implied point value 15751.12/(77.19*0.2) ~ 1020 is inside the band,
	// so the sibling's margin relationship is adopted
	if res.PerLot != 15751.12 {
		t.Errorf("margin = %v, want 15751.12", res.PerLot)
	}
}

func TestResolveSimilarityRejectsImplausiblePointValue(t *testing.T) {
	table := NewOverrideTable()
	table.MarginPerLot["SVH6"] = 15751.12
	table.SimilarGroups["S"] = []string{"S1H6", "SVH6"}
	table.Normalize()

	r := newTestResolver(t, table)

	// implied point value 15751.12/(500000*0.5) ~ 0.06 is below the band
	res, err := r.Resolve(model.Instrument{
		Ticker:       "S1H6",
		CurrentPrice: 500000,
		Lot:          1,
		Dshort:       0.5,
	})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if res.Tier == model.TierSimilarity {
		t.Errorf("similarity tier must not fire on implausible point value")
	}
}

func TestResolveMissingCoefficientsDegradeFormula(t *testing.T) {
	r := newTestResolver(t, nil)

	res, err := r.Resolve(model.Instrument{
		Ticker:            "SRH6",
		CurrentPrice:      200.0,
		Lot:               10,
		MinPriceIncrement: 0.5,
	})
	if err != nil {
		t.Fatalf("missing coefficients must not error: %s", err)
	}
	if res.Tier != model.TierPercentage {
		t.Errorf("tier = %s, want %s", res.Tier, model.TierPercentage)
	}
	if res.PerLot != 300.0 { // 200 * 10 * 15%
		t.Errorf("margin = %v, want 300.0", res.PerLot)
	}
}

func TestResolveAlwaysPositiveForValidInput(t *testing.T) {
	r := newTestResolver(t, nil)

	instruments := []model.Instrument{
		{Ticker: "A", CurrentPrice: 0.01, Lot: 1},
		{Ticker: "B", CurrentPrice: 3.0, Lot: 100, Dlong: 0.1},
		{Ticker: "C", CurrentPrice: 12200.0, Lot: 1, MinPriceIncrement: 1, Dlong: 0.2, Dshort: 0.25},
	}
	for _, i := range instruments {
		res, err := r.Resolve(i)
		if err != nil {
			t.Fatalf("[%s] unexpected error: %s", i.Ticker, err)
		}
		if res.PerLot <= 0 {
			t.Errorf("[%s] margin = %v, want > 0", i.Ticker, res.PerLot)
		}
	}
}

func TestResolveInvalidInstrumentData(t *testing.T) {
	r := newTestResolver(t, nil)

	for _, i := range []model.Instrument{
		{Ticker: "X", CurrentPrice: 0, Lot: 1},
		{Ticker: "Y", CurrentPrice: 100, Lot: 0},
		{Ticker: "Z", CurrentPrice: -5, Lot: -1},
	} {
		if _, err := r.Resolve(i); !errors.Is(err, ErrInvalidInstrumentData) {
			t.Errorf("[%s] err = %v, want ErrInvalidInstrumentData", i.Ticker, err)
		}
	}
}

func TestExplainTracesEveryTier(t *testing.T) {
	table := NewOverrideTable()
	table.MarginPerLot["TBH6"] = 885.75

	r := newTestResolver(t, table)

	res, traces, err := r.Explain(model.Instrument{
		Ticker:            "TBH6",
		CurrentPrice:      2500.0,
		Lot:               1,
		MinPriceIncrement: 0.1,
		Dlong:             0.15,
		Dshort:            0.15,
	})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if len(traces) != 4 {
		t.Fatalf("traces = %d, want 4", len(traces))
	}
	if !traces[0].Fired || traces[0].Tier != model.TierOverride {
		t.Errorf("first trace must be the fired override tier: %+v", traces[0])
	}
	for _, tr := range traces[1:] {
		if tr.Fired {
			t.Errorf("only one tier may fire, got %+v", tr)
		}
	}
	// formula still shows its would-be value in the trace
	if traces[2].Value != 37.5 {
		t.Errorf("formula trace value = %v, want 37.5", traces[2].Value)
	}
	if res.PerLot != 885.75 {
		t.Errorf("margin = %v, want override 885.75", res.PerLot)
	}
}

func TestMaxLots(t *testing.T) {
	r := newTestResolver(t, nil)

	if got := r.MaxLots(5000, 37.5); got != 133 {
		t.Errorf("MaxLots(5000, 37.5) = %d, want 133", got)
	}
	if got := r.MaxLots(5000, 0); got != 0 {
		t.Errorf("MaxLots with zero margin = %d, want 0", got)
	}
	if got := r.MaxLots(0, 37.5); got != 0 {
		t.Errorf("MaxLots with zero balance = %d, want 0", got)
	}
}

func TestMaxLotsSafetyBuffer(t *testing.T) {
	r, err := NewResolver(config.MarginConfig{DefaultRatePct: 15, SafetyBuffer: 0.9}, nil, logger.NewNopLogger())
	if err != nil {
		t.Fatalf("can't create resolver: %s", err)
	}
	if got := r.MaxLots(5000, 37.5); got != 120 { // floor(4500/37.5)
		t.Errorf("MaxLots with 0.9 buffer = %d, want 120", got)
	}
}

func TestNewResolverRequiresDefaultRate(t *testing.T) {
	if _, err := NewResolver(config.MarginConfig{}, nil, logger.NewNopLogger()); err == nil {
		t.Errorf("resolver must reject missing default rate")
	}
}
