package model

import "time"

// LiquidityStats are computed from historical candles by the history
// package and consumed by the screener as-is.
type LiquidityStats struct {
	VolatilityPct float64 `json:"volatility_pct"`
	AvgVolumeLots float64 `json:"avg_volume_lots"`
	AvgVolumeRub  float64 `json:"avg_volume_rub"`
	CandlesCount  int     `json:"candles_count"`
}

// ScreeningRecord is one surviving instrument of a screening run.
// Records are immutable once emitted.
type ScreeningRecord struct {
	FIGI               string     `json:"figi" db:"figi"`
	Ticker             string     `json:"ticker" db:"ticker"`
	Name               string     `json:"name" db:"name"`
	CurrentPrice       float64    `json:"current_price" db:"current_price"`
	LotSize            float64    `json:"lot_size" db:"lot_size"`
	PriceStep          float64    `json:"price_step" db:"price_step"`
	LotValue           float64    `json:"lot_value" db:"lot_value"`
	MarginPerLot       float64    `json:"margin_per_lot" db:"margin_per_lot"`
	MarginTier         MarginTier `json:"margin_tier" db:"margin_tier"`
	MarginPctOfBalance float64    `json:"margin_pct_of_balance" db:"margin_pct_of_balance"`
	MaxLotsAvailable   int        `json:"max_lots_available" db:"max_lots_available"`
	VolatilityPct      float64    `json:"volatility_pct" db:"volatility_pct"`
	AvgVolumeLots      float64    `json:"avg_volume_lots" db:"avg_volume_lots"`
	AvgVolumeRub       float64    `json:"avg_volume_rub" db:"avg_volume_rub"`
	Score              float64    `json:"score" db:"score"`
	DateAnalyzed       time.Time  `json:"date_analyzed" db:"date_analyzed"`
	AnalysisPeriodDays int        `json:"analysis_period_days" db:"analysis_period_days"`
}

// ExclusionReason tells an operator why an instrument was dropped.
type ExclusionReason string

const (
	ExcludedInvalidData         ExclusionReason = "invalid instrument data"
	ExcludedInsufficientBalance ExclusionReason = "insufficient balance"
	ExcludedRiskCap             ExclusionReason = "exceeds risk cap"
	ExcludedIlliquid            ExclusionReason = "illiquid"
	ExcludedVolatilityRange     ExclusionReason = "volatility out of range"
	ExcludedNoHistory           ExclusionReason = "insufficient history"
)

type Exclusion struct {
	FIGI   string          `json:"figi"`
	Ticker string          `json:"ticker"`
	Reason ExclusionReason `json:"reason"`
	Detail string          `json:"detail,omitempty"`
}

// Report is the terminal artifact of one screening run.
type Report struct {
	Balance            float64           `json:"balance"`
	GeneratedAt        time.Time         `json:"generated_at"`
	AnalysisPeriodDays int               `json:"analysis_period_days"`
	Records            []ScreeningRecord `json:"records"`
	Exclusions         []Exclusion       `json:"exclusions"`
}
