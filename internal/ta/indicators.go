package ta

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

func SMA(values []float64, period int) (float64, bool) {
	if period <= 0 || len(values) < period {
		return 0, false
	}
	return stat.Mean(values[len(values)-period:], nil), true
}

// EWMAdjusted is the normalised exponentially weighted mean of values,
// evaluated at the last element: sum((1-a)^k * x[n-1-k]) / sum((1-a)^k).
func EWMAdjusted(values []float64, alpha float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	decay := 1 - alpha
	var num, den float64
	for _, v := range values {
		num = v + decay*num
		den = 1 + decay*den
	}
	return num / den
}

// RSI uses Wilder smoothing with com = period-1 over close-to-close deltas.
// A series with no losses reports 100, and a flat series reports 50.
func RSI(closes []float64, period int) (float64, bool) {
	if period <= 0 || len(closes) < period+1 {
		return 0, false
	}

	gains := make([]float64, len(closes)-1)
	losses := make([]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gains[i-1] = delta
		} else {
			losses[i-1] = -delta
		}
	}

	alpha := 1.0 / float64(period)
	return rsiFromAvg(EWMAdjusted(gains, alpha), EWMAdjusted(losses, alpha)), true
}

func rsiFromAvg(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return 50
		}
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

func TrueRange(high, low, prevClose float64) float64 {
	return math.Max(high-low, math.Max(math.Abs(high-prevClose), math.Abs(low-prevClose)))
}

// ATR seeds with the mean of the first period true ranges and then applies
// Wilder's recursion atr = (atr*(n-1) + tr) / n.
func ATR(highs, lows, closes []float64, period int) (float64, bool) {
	n := len(closes)
	if period <= 0 || n < period+1 || len(highs) != n || len(lows) != n {
		return 0, false
	}

	var sum float64
	for i := 1; i <= period; i++ {
		sum += TrueRange(highs[i], lows[i], closes[i-1])
	}
	atr := sum / float64(period)

	for i := period + 1; i < n; i++ {
		tr := TrueRange(highs[i], lows[i], closes[i-1])
		atr = (atr*float64(period-1) + tr) / float64(period)
	}
	return atr, true
}

// PriceChange is the percentage move over the last k samples.
func PriceChange(closes []float64, k int) (float64, bool) {
	if k <= 0 || len(closes) < k+1 {
		return 0, false
	}
	base := closes[len(closes)-1-k]
	if base == 0 {
		return 0, false
	}
	return (closes[len(closes)-1] - base) / base * 100, true
}
