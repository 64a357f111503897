package numeric

import (
	"math"

	"github.com/shopspring/decimal"
)

// Clamp bounds v to [lo, hi]. NaN and Inf collapse to 0 before clamping.
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Finite returns v, or 0 if v is NaN or Inf.
func Finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Round rounds half away from zero to the given number of decimal places.
func Round(v float64, places int32) float64 {
	f, _ := decimal.NewFromFloat(Finite(v)).Round(places).Float64()
	return f
}

// RoundPtr rounds a nullable value.
func RoundPtr(v *float64, places int32) *float64 {
	if v == nil {
		return nil
	}
	r := Round(*v, places)
	return &r
}

func Ptr[T any](v T) *T {
	return &v
}
