package margin

import (
	"errors"
	"fmt"
	"math"

	"github.com/STTM-NSU/futures-screener/internal/config"
	"github.com/STTM-NSU/futures-screener/internal/logger"
	"github.com/STTM-NSU/futures-screener/internal/model"
	"github.com/STTM-NSU/futures-screener/internal/tools"
)

var ErrInvalidInstrumentData = errors.New("invalid instrument data")

// Resolver computes the per-lot margin requirement (ГО) for a futures
// contract. Strategies run in a fixed priority order, the first one
// yielding a positive value wins:
//
//  1. curated override table (terminal-verified, always wins: the API
//     coefficients can be off by orders of magnitude),
//  2. inference from a similar contract with a verified margin,
//  3. min_price_increment * price * max(dlong, dshort),
//  4. percent of lot notional (always succeeds for valid input).
type Resolver struct {
	cfg    config.MarginConfig
	table  *OverrideTable
	logger logger.Logger
}

func NewResolver(cfg config.MarginConfig, table *OverrideTable, l logger.Logger) (*Resolver, error) {
	if err := cfg.Setup(); err != nil {
		return nil, fmt.Errorf("%w: can't setup margin cfg", err)
	}
	if table == nil {
		table = NewOverrideTable()
	}

	return &Resolver{
		cfg:    cfg,
		table:  table,
		logger: l,
	}, nil
}

type tier struct {
	name model.MarginTier
	fn   func(model.Instrument) (float64, string)
}

func (r *Resolver) tiers() []tier {
	return []tier{
		{model.TierOverride, r.overrideTier},
		{model.TierSimilarity, r.similarityTier},
		{model.TierFormula, r.formulaTier},
		{model.TierPercentage, r.percentageTier},
	}
}

// Resolve is deterministic given the instrument and the override table
// snapshot. It never returns a non-positive margin for valid input: the
// percentage tier needs only price and lot size.
func (r *Resolver) Resolve(i model.Instrument) (model.MarginResult, error) {
	if err := validate(i); err != nil {
		return model.MarginResult{}, err
	}

	for _, t := range r.tiers() {
		v, note := t.fn(i)
		if v > 0 {
			r.logger.Debugf("[%s] margin %.2f via %s (%s)", i.Ticker, v, t.name, note)
			return model.MarginResult{PerLot: tools.RoundMoney(v), Tier: t.name}, nil
		}
	}

	return model.MarginResult{}, fmt.Errorf("no tier yielded a margin for %s", i.Ticker)
}

// Explain evaluates every tier regardless of which one wins and returns
// the full trace. This is the diagnostics surface behind cmd/margin-diag.
func (r *Resolver) Explain(i model.Instrument) (model.MarginResult, []model.TierTrace, error) {
	if err := validate(i); err != nil {
		return model.MarginResult{}, nil, err
	}

	var (
		result model.MarginResult
		traces = make([]model.TierTrace, 0, 4)
	)
	for _, t := range r.tiers() {
		v, note := t.fn(i)
		fired := v > 0 && result.Tier == ""
		if fired {
			result = model.MarginResult{PerLot: tools.RoundMoney(v), Tier: t.name}
		}
		traces = append(traces, model.TierTrace{
			Tier:  t.name,
			Value: tools.RoundMoney(v),
			Fired: fired,
			Note:  note,
		})
	}

	return result, traces, nil
}

// MaxLots is how many lots the balance affords at the resolved margin,
// after the configured safety buffer.
func (r *Resolver) MaxLots(balance, marginPerLot float64) int {
	if balance <= 0 || marginPerLot <= 0 {
		return 0
	}
	return int(math.Floor(balance * r.cfg.SafetyBuffer / marginPerLot))
}

func validate(i model.Instrument) error {
	if i.CurrentPrice <= 0 || i.Lot <= 0 {
		return fmt.Errorf("%w: ticker=%s price=%.4f lot=%.2f", ErrInvalidInstrumentData, i.Ticker, i.CurrentPrice, i.Lot)
	}
	return nil
}

func (r *Resolver) overrideTier(i model.Instrument) (float64, string) {
	v, ok := r.table.MarginFor(i.Ticker)
	if !ok {
		return 0, "no verified margin in table"
	}
	return v, "verified from terminal"
}

// similarityTier adopts the margin relationship of a sibling contract:
// it reverses a point value out of the sibling's verified margin using
// this instrument's price and coefficients, and accepts it only inside
// the plausibility band. dshort is tried first, it tracks the exchange
// requirement closer.
func (r *Resolver) similarityTier(i model.Instrument) (float64, string) {
	siblings := r.table.SimilarTo(i.Ticker)
	if len(siblings) == 0 {
		return 0, "no similar group"
	}

	for _, sibling := range siblings {
		known, ok := r.table.MarginFor(sibling)
		if !ok {
			continue
		}
		for _, coef := range []float64{i.Dshort, i.Dlong} {
			if coef <= 0 {
				continue
			}
			pointValue := known / (i.CurrentPrice * coef)
			if pointValue <= r.cfg.PointValueMin || pointValue >= r.cfg.PointValueMax {
				continue
			}
			v := pointValue * i.CurrentPrice * coef
			return v, fmt.Sprintf("sibling %s margin %.2f, implied point value %.2f", sibling, known, pointValue)
		}
	}

	return 0, "no sibling with a verified margin"
}

// formulaTier computes both sides and takes the larger one, so the
// estimate never understates the requirement.
func (r *Resolver) formulaTier(i model.Instrument) (float64, string) {
	if i.MinPriceIncrement <= 0 {
		return 0, "no min price increment"
	}

	var long, short float64
	if i.Dlong > 0 {
		long = i.MinPriceIncrement * i.CurrentPrice * i.Dlong
	}
	if i.Dshort > 0 {
		short = i.MinPriceIncrement * i.CurrentPrice * i.Dshort
	}

	return math.Max(long, short), fmt.Sprintf("long %.2f, short %.2f", long, short)
}

func (r *Resolver) percentageTier(i model.Instrument) (float64, string) {
	rate, ok := r.table.RateFor(i.Ticker)
	if !ok {
		rate = r.cfg.DefaultRatePct
	}
	return i.LotValue() * rate / 100, fmt.Sprintf("lot value %.2f, rate %.1f%%", i.LotValue(), rate)
}
