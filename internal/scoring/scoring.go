package scoring

import (
	"math"

	"longentry/internal/domain"
	"longentry/internal/numeric"
)

// StabilityLookbackWeeks is how many prior weeks of optimal parameters are
// compared against the current week.
const StabilityLookbackWeeks = 8

// Stability is the share of prior weeks whose optimal parameters exactly
// match current. No history scores 100.
func Stability(current domain.OptimalParameters, history []domain.OptimalParameters) float64 {
	if len(history) == 0 {
		return 100
	}
	if len(history) > StabilityLookbackWeeks {
		history = history[:StabilityLookbackWeeks]
	}
	matches := 0
	for _, h := range history {
		if current.Same(h) {
			matches++
		}
	}
	return numeric.Round(float64(matches)/float64(len(history))*100, 1)
}

// BacktestScore blends return, profit factor, win rate and drawdown. Unstable
// parameters (stability below 50) scale the blend down proportionally.
func BacktestScore(r domain.SimulationResult, stability float64) float64 {
	ret := numeric.Clamp(r.TotalReturn, 0, 100)
	pf := math.Min(numeric.Finite(r.ProfitFactor)/3, 1) * 100
	dd := math.Max(0, 100-numeric.Finite(r.MaxDrawdown)*5)

	score := ret*0.35 + pf*0.30 + numeric.Finite(r.WinRate)*0.15 + dd*0.20
	if stability < 50 {
		score *= numeric.Clamp(stability, 0, 100) / 100
	}
	return numeric.Round(numeric.Clamp(score, 0, 100), 1)
}

const NeutralFundamental = 50.0

// Inputs are the sub-scores of one instrument's final score. Nil Backtest
// means no sweep result; nil Fundamental is neutral; nil AI selects the
// technical weighting.
type Inputs struct {
	Technical   float64
	Backtest    *float64
	Fundamental *float64
	AI          *float64
}

func FinalScore(in Inputs) float64 {
	bt := 0.0
	if in.Backtest != nil {
		bt = numeric.Clamp(*in.Backtest, 0, 100)
	}
	fund := NeutralFundamental
	if in.Fundamental != nil {
		fund = numeric.Clamp(*in.Fundamental, 0, 100)
	}

	var total float64
	if in.AI != nil {
		total = numeric.Clamp(*in.AI, 0, 100)*0.60 + bt*0.25 + fund*0.15
	} else {
		total = numeric.Clamp(in.Technical, 0, 100)*0.50 + bt*0.35 + fund*0.15
	}
	return numeric.Round(numeric.Clamp(total, 0, 100), 1)
}
