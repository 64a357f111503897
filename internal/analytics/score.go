package analytics

import (
	"math"

	"longentry/internal/domain"
	"longentry/internal/numeric"
)

const neutralScore = 50.0

var technicalWeights = map[string]float64{
	"win_rate":    0.20,
	"growth_loss": 0.15,
	"trend":       0.25,
	"rsi":         0.15,
	"momentum":    0.15,
	"volatility":  0.10,
}

// Score blends six sub-scores into the composite technical score. Any
// sub-score whose inputs are missing is neutral (50).
func Score(m domain.TechnicalMetrics, class domain.AssetClass) domain.TechnicalScore {
	ts := domain.TechnicalScore{
		WinRate:    numeric.Clamp((m.UpDayWinRate-45)/20*100, 0, 100),
		GrowthLoss: growthLossScore(m),
		Trend:      trendScore(m),
		RSI:        rsiScore(m.RSI14),
		Momentum:   momentumScore(m.Change1W, m.Change1M),
		Volatility: volatilityScore(m, BandFor(class)),
	}

	total := ts.WinRate*technicalWeights["win_rate"] +
		ts.GrowthLoss*technicalWeights["growth_loss"] +
		ts.Trend*technicalWeights["trend"] +
		ts.RSI*technicalWeights["rsi"] +
		ts.Momentum*technicalWeights["momentum"] +
		ts.Volatility*technicalWeights["volatility"]

	ts.Total = numeric.Round(numeric.Clamp(total, 0, 100), 1)
	return ts
}

func growthLossScore(m domain.TechnicalMetrics) float64 {
	if m.AvgDailyLoss == 0 {
		return neutralScore
	}
	ratio := math.Abs(m.AvgDailyGrowth / m.AvgDailyLoss)
	return numeric.Clamp((ratio-0.5)/1.5*100, 0, 100)
}

func trendScore(m domain.TechnicalMetrics) float64 {
	if m.CurrentPrice <= 0 {
		return neutralScore
	}
	var score float64
	if m.SMA20 != nil && m.CurrentPrice > *m.SMA20 {
		score += 33
	}
	if m.SMA50 != nil && m.CurrentPrice > *m.SMA50 {
		score += 33
	}
	if m.SMA200 != nil && m.CurrentPrice > *m.SMA200 {
		score += 34
	}
	return score
}

func rsiScore(rsi *float64) float64 {
	if rsi == nil {
		return neutralScore
	}
	r := *rsi
	switch {
	case r >= 40 && r <= 65:
		return 100 - math.Abs(r-52.5)/12.5*30
	case r < 40:
		return r / 40 * 70
	default:
		return max(0, 100-(r-65)*3)
	}
}

// momentumScore treats a single missing window as flat; with both missing
// the blend is exactly neutral.
func momentumScore(change1W, change1M *float64) float64 {
	if change1W == nil && change1M == nil {
		return neutralScore
	}
	var w, m float64
	if change1W != nil {
		w = numeric.Clamp(*change1W, -5, 5)
	}
	if change1M != nil {
		m = numeric.Clamp(*change1M, -5, 5)
	}
	return numeric.Clamp(50+(0.4*w+0.6*m)*10, 0, 100)
}

func volatilityScore(m domain.TechnicalMetrics, band VolatilityBand) float64 {
	if m.ATR14 == nil || m.CurrentPrice <= 0 {
		return neutralScore
	}
	return band.score(*m.ATR14 / m.CurrentPrice * 100)
}
