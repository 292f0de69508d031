package screener

import (
	"fmt"
	"sort"
	"time"

	"github.com/STTM-NSU/futures-screener/internal/config"
	"github.com/STTM-NSU/futures-screener/internal/history"
	"github.com/STTM-NSU/futures-screener/internal/logger"
	"github.com/STTM-NSU/futures-screener/internal/margin"
	"github.com/STTM-NSU/futures-screener/internal/model"
	"github.com/STTM-NSU/futures-screener/internal/tools"
)

const _volumeRubNorm = 1_000_000.0 // 1M RUB daily turnover saturates the liquidity component

// Screener ranks a futures universe by affordability and
// attractiveness for a given account balance. One instrument's bad data
// never aborts a run: it lands in the exclusions with a reason.
type Screener struct {
	cfg      config.ScreenerConfig
	resolver *margin.Resolver
	logger   logger.Logger

	now func() time.Time
}

func NewScreener(cfg config.ScreenerConfig, resolver *margin.Resolver, l logger.Logger) *Screener {
	return &Screener{
		cfg:      cfg,
		resolver: resolver,
		logger:   l,
		now:      time.Now,
	}
}

// Screen is deterministic for fixed inputs: ordering is a
// post-processing sort, not an artifact of evaluation order.
func (s *Screener) Screen(universe []model.Instrument, stats map[string]model.LiquidityStats, balance float64) (model.Report, error) {
	if balance <= 0 {
		return model.Report{}, fmt.Errorf("balance must be positive, got %.2f", balance)
	}

	report := model.Report{
		Balance:            balance,
		GeneratedAt:        s.now().UTC(),
		AnalysisPeriodDays: s.cfg.AnalysisPeriodDays,
		Records:            make([]model.ScreeningRecord, 0, len(universe)),
	}

	for _, instr := range universe {
		rec, excl := s.evaluate(instr, stats[instr.FIGI], balance, report.GeneratedAt)
		if excl != nil {
			s.logger.Debugf("[%s] excluded: %s (%s)", instr.Ticker, excl.Reason, excl.Detail)
			report.Exclusions = append(report.Exclusions, *excl)
			continue
		}
		s.logger.Infof("[%s] margin=%.2f ₽ (%.2f%% of balance), volatility=%.2f%%, volume=%.0f ₽/день, score=%.1f",
			rec.Ticker, rec.MarginPerLot, rec.MarginPctOfBalance, rec.VolatilityPct, rec.AvgVolumeRub, rec.Score)
		report.Records = append(report.Records, *rec)
	}

	sort.SliceStable(report.Records, func(i, j int) bool {
		a, b := report.Records[i], report.Records[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return a.MarginPctOfBalance < b.MarginPctOfBalance
	})

	if s.cfg.TopLimit > 0 && len(report.Records) > s.cfg.TopLimit {
		report.Records = report.Records[:s.cfg.TopLimit]
	}

	return report, nil
}

func (s *Screener) evaluate(instr model.Instrument, stats model.LiquidityStats, balance float64, analyzedAt time.Time) (*model.ScreeningRecord, *model.Exclusion) {
	exclude := func(reason model.ExclusionReason, detail string) (*model.ScreeningRecord, *model.Exclusion) {
		return nil, &model.Exclusion{FIGI: instr.FIGI, Ticker: instr.Ticker, Reason: reason, Detail: detail}
	}

	res, err := s.resolver.Resolve(instr)
	if err != nil {
		return exclude(model.ExcludedInvalidData, err.Error())
	}

	if res.PerLot > balance {
		return exclude(model.ExcludedInsufficientBalance,
			fmt.Sprintf("margin %.2f > balance %.2f", res.PerLot, balance))
	}

	maxMargin := balance * s.cfg.MaxMarginPctOfBalance / 100
	if res.PerLot > maxMargin {
		return exclude(model.ExcludedRiskCap,
			fmt.Sprintf("margin %.2f > %.2f (%.0f%% of balance)", res.PerLot, maxMargin, s.cfg.MaxMarginPctOfBalance))
	}

	if stats.CandlesCount < history.MinCandles {
		return exclude(model.ExcludedNoHistory,
			fmt.Sprintf("%d candles, need %d", stats.CandlesCount, history.MinCandles))
	}
	if stats.AvgVolumeLots < s.cfg.MinAvgVolumeLots || stats.AvgVolumeRub < s.cfg.MinAvgVolumeRub {
		return exclude(model.ExcludedIlliquid,
			fmt.Sprintf("volume %.1f lots / %.0f ₽", stats.AvgVolumeLots, stats.AvgVolumeRub))
	}
	if s.cfg.VolatilityMaxPct > 0 &&
		(stats.VolatilityPct < s.cfg.VolatilityMinPct || stats.VolatilityPct > s.cfg.VolatilityMaxPct) {
		return exclude(model.ExcludedVolatilityRange,
			fmt.Sprintf("volatility %.2f%% not in [%.2f, %.2f]", stats.VolatilityPct, s.cfg.VolatilityMinPct, s.cfg.VolatilityMaxPct))
	}

	marginPct := res.PerLot / balance * 100

	return &model.ScreeningRecord{
		FIGI:               instr.FIGI,
		Ticker:             instr.Ticker,
		Name:               instr.Name,
		CurrentPrice:       instr.CurrentPrice,
		LotSize:            instr.Lot,
		PriceStep:          instr.MinPriceIncrement,
		LotValue:           tools.RoundMoney(instr.LotValue()),
		MarginPerLot:       res.PerLot,
		MarginTier:         res.Tier,
		MarginPctOfBalance: marginPct,
		MaxLotsAvailable:   s.resolver.MaxLots(balance, res.PerLot),
		VolatilityPct:      stats.VolatilityPct,
		AvgVolumeLots:      stats.AvgVolumeLots,
		AvgVolumeRub:       stats.AvgVolumeRub,
		Score:              s.score(stats, marginPct),
		DateAnalyzed:       analyzedAt,
		AnalysisPeriodDays: s.cfg.AnalysisPeriodDays,
	}, nil
}

// score is a weighted sum of three components, each in [0, 1] and
// monotonic: volatility up never raises it, capital efficiency or
// liquidity up never lowers it.
func (s *Screener) score(stats model.LiquidityStats, marginPct float64) float64 {
	w := s.cfg.ScoreWeights

	stability := 1 / (1 + stats.VolatilityPct/100)
	efficiency := 1 - marginPct/100
	liquidity := stats.AvgVolumeRub / _volumeRubNorm
	if liquidity > 1 {
		liquidity = 1
	}

	return (w.Volatility*stability + w.MarginEfficiency*efficiency + w.Liquidity*liquidity) * 100
}
