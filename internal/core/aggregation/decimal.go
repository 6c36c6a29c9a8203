package aggregation

import (
	"math"

	"github.com/shopspring/decimal"
)

// Rounding precisions used by the accumulators.
const (
	CostPlaces  = 4 // per-increment group cost
	MoneyPlaces = 2 // saved group totals
)

// ToDecimal converts a raw slot or event value to a decimal.
// JSON numbers unmarshal to float64 in Go, which is the common path; strings
// must parse as decimals and booleans count as 1 and 0.
// ok is false for nil, NaN, infinities and anything else unrecognized.
func ToDecimal(v any) (d decimal.Decimal, ok bool) {
	switch val := v.(type) {
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(val), true
	case float32:
		f := float64(val)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat32(val), true
	case int:
		return decimal.NewFromInt(int64(val)), true
	case int64:
		return decimal.NewFromInt(val), true
	case int32:
		return decimal.NewFromInt32(val), true
	case uint32:
		return decimal.NewFromInt(int64(val)), true
	case decimal.Decimal:
		return val, true
	case bool:
		if val {
			return decimal.NewFromInt(1), true
		}
		return decimal.Zero, true
	case string:
		d, err := decimal.NewFromString(val)
		if err == nil {
			return d, true
		}
	}
	return decimal.Zero, false
}

// ToFloat is ToDecimal for callers that work in float64.
func ToFloat(v any) (float64, bool) {
	d, ok := ToDecimal(v)
	if !ok {
		return 0, false
	}
	return d.InexactFloat64(), true
}

// Round rounds v to the given number of decimal places, halves toward
// positive infinity: 2.5 becomes 3 and -2.5 becomes -2.
func Round(v float64, places int32) float64 {
	half := decimal.New(5, -(places + 1))
	return decimal.NewFromFloat(v).Add(half).RoundFloor(places).InexactFloat64()
}

// RoundCost rounds a group cost increment to four places.
func RoundCost(v float64) float64 { return Round(v, CostPlaces) }

// RoundMoney rounds a saved group total to two places.
func RoundMoney(v float64) float64 { return Round(v, MoneyPlaces) }

// Add sums a and b without accumulating binary floating point drift.
func Add(a, b float64) float64 {
	return decimal.NewFromFloat(a).Add(decimal.NewFromFloat(b)).InexactFloat64()
}

// Sub returns a-b computed in decimal.
func Sub(a, b float64) float64 {
	return decimal.NewFromFloat(a).Sub(decimal.NewFromFloat(b)).InexactFloat64()
}

// Mul returns the decimal product of the factors.
func Mul(factors ...float64) float64 {
	out := decimal.NewFromInt(1)
	for _, f := range factors {
		out = out.Mul(decimal.NewFromFloat(f))
	}
	return out.InexactFloat64()
}
