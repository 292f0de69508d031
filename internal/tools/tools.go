package tools

import (
	"math"

	"github.com/shopspring/decimal"
)

// RoundMoney rounds a value in account currency to kopecks.
func RoundMoney(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// RoundToStep snaps a price to the nearest multiple of the instrument's
// price step. Step must be positive.
func RoundToStep(number float64, step float64) float64 {
	if step <= 0 {
		return number
	}
	// делим дробь на дробь и округляем до ближайшего целого
	k := math.Round(number / step)
	f, _ := decimal.NewFromFloat(step).Mul(decimal.NewFromFloat(k)).Float64()
	return f
}
