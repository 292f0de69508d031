package screener

import (
	"context"
	"fmt"

	"github.com/STTM-NSU/futures-screener/internal/model"
	"github.com/jmoiron/sqlx"
)

const (
	_upsertRecord = `INSERT INTO screening_results (
							figi,
							ticker,
							name,
							current_price,
							lot_size,
							price_step,
							lot_value,
							margin_per_lot,
							margin_tier,
							margin_pct_of_balance,
							max_lots_available,
							volatility_pct,
							avg_volume_lots,
							avg_volume_rub,
							score,
							date_analyzed,
							analysis_period_days
						) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
						ON CONFLICT (figi)
						DO UPDATE SET
							ticker = EXCLUDED.ticker,
							name = EXCLUDED.name,
							current_price = EXCLUDED.current_price,
							lot_size = EXCLUDED.lot_size,
							price_step = EXCLUDED.price_step,
							lot_value = EXCLUDED.lot_value,
							margin_per_lot = EXCLUDED.margin_per_lot,
							margin_tier = EXCLUDED.margin_tier,
							margin_pct_of_balance = EXCLUDED.margin_pct_of_balance,
							max_lots_available = EXCLUDED.max_lots_available,
							volatility_pct = EXCLUDED.volatility_pct,
							avg_volume_lots = EXCLUDED.avg_volume_lots,
							avg_volume_rub = EXCLUDED.avg_volume_rub,
							score = EXCLUDED.score,
							date_analyzed = EXCLUDED.date_analyzed,
							analysis_period_days = EXCLUDED.analysis_period_days;`
)

// ReportStore persists ranked records so screening runs can be compared
// between sessions.
type ReportStore struct {
	db *sqlx.DB
}

func NewReportStore(db *sqlx.DB) *ReportStore {
	return &ReportStore{db: db}
}

func (s *ReportStore) Save(ctx context.Context, report model.Report) error {
	if s.db == nil || len(report.Records) == 0 {
		return nil
	}

	for _, r := range report.Records {
		if _, err := s.db.ExecContext(ctx, _upsertRecord,
			r.FIGI,
			r.Ticker,
			r.Name,
			r.CurrentPrice,
			r.LotSize,
			r.PriceStep,
			r.LotValue,
			r.MarginPerLot,
			r.MarginTier,
			r.MarginPctOfBalance,
			r.MaxLotsAvailable,
			r.VolatilityPct,
			r.AvgVolumeLots,
			r.AvgVolumeRub,
			r.Score,
			r.DateAnalyzed,
			r.AnalysisPeriodDays,
		); err != nil {
			return fmt.Errorf("%w: can't upsert screening result for %s", err, r.Ticker)
		}
	}

	return nil
}
