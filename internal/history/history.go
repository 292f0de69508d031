package history

import (
	"math"
	"time"

	"github.com/STTM-NSU/futures-screener/internal/model"
)

// MinCandles is the least history a liquidity estimate is trusted on.
const MinCandles = 10

const _atrPeriod = 14

// Analyze turns raw hourly candles into the liquidity figures the
// screener filters and scores on. Volatility is ATR-based, normalized
// by the current price; volume is averaged per trading day.
func Analyze(candles []model.Candle, lotSize, currentPrice float64) model.LiquidityStats {
	stats := model.LiquidityStats{CandlesCount: len(candles)}
	if len(candles) < 2 {
		return stats
	}

	stats.VolatilityPct = volatilityPct(candles, currentPrice)

	avgVolume := avgDailyVolume(candles)
	if lotSize > 0 {
		stats.AvgVolumeLots = avgVolume / lotSize
	} else {
		stats.AvgVolumeLots = avgVolume
	}
	if currentPrice > 0 {
		stats.AvgVolumeRub = stats.AvgVolumeLots * lotSize * currentPrice
	}

	return stats
}

func volatilityPct(candles []model.Candle, currentPrice float64) float64 {
	if currentPrice <= 0 {
		return 0
	}

	trs := make([]float64, 0, len(candles)-1)
	for i := 1; i < len(candles); i++ {
		prevClose := candles[i-1].ClosePrice
		c := candles[i]
		tr := math.Max(c.HighPrice-c.LowPrice,
			math.Max(math.Abs(c.HighPrice-prevClose), math.Abs(c.LowPrice-prevClose)))
		trs = append(trs, tr)
	}

	period := len(trs)
	if period > _atrPeriod {
		period = _atrPeriod
	}
	var atr float64
	for _, tr := range trs[len(trs)-period:] {
		atr += tr
	}
	atr /= float64(period)

	return atr / currentPrice * 100
}

func avgDailyVolume(candles []model.Candle) float64 {
	daily := make(map[time.Time]int64)
	for _, c := range candles {
		daily[c.Ts.UTC().Truncate(24*time.Hour)] += c.Volume
	}
	if len(daily) == 0 {
		return 0
	}

	var total int64
	for _, v := range daily {
		total += v
	}

	return float64(total) / float64(len(daily))
}
