package ranking

import "longentry/internal/numeric"

// RecentPerformance is realized trading over the threshold lookback window.
type RecentPerformance struct {
	Trades int
	Wins   int
}

func (p RecentPerformance) WinRate() float64 {
	if p.Trades <= 0 {
		return 0
	}
	return float64(p.Wins) / float64(p.Trades) * 100
}

// ThresholdRule adjusts the minimum final score when Applies matches. Rules
// are evaluated in order and the first match wins.
type ThresholdRule struct {
	Name    string
	Applies func(RecentPerformance) bool
	Adjust  float64
}

// RecentPerformanceWeeks is the realized-results lookback used for the rules.
const RecentPerformanceWeeks = 4

const minTradesForAdjustment = 10

var DefaultThresholdRules = []ThresholdRule{
	{Name: "insufficient sample", Applies: func(p RecentPerformance) bool { return p.Trades < minTradesForAdjustment }, Adjust: 0},
	{Name: "cold streak", Applies: func(p RecentPerformance) bool { return p.WinRate() < 35 }, Adjust: 10},
	{Name: "cooling", Applies: func(p RecentPerformance) bool { return p.WinRate() < 45 }, Adjust: 5},
	{Name: "hot streak", Applies: func(p RecentPerformance) bool { return p.WinRate() > 65 }, Adjust: -5},
}

// Threshold returns the minimum final score after applying the rule table.
func (p Policy) Threshold(perf RecentPerformance) (float64, string) {
	for _, r := range p.Rules {
		if r.Applies != nil && r.Applies(perf) {
			return numeric.Clamp(p.MinScore+r.Adjust, 0, 100), r.Name
		}
	}
	return numeric.Clamp(p.MinScore, 0, 100), ""
}
