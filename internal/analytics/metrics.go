package analytics

import (
	"longentry/internal/domain"
	"longentry/internal/numeric"
	"longentry/internal/series"
	"longentry/internal/ta"

	"gonum.org/v1/gonum/stat"
)

const MinDailyBars = 20

// Trading-day windows for the 1w/2w/1m/3m price changes.
const (
	window1W = 5
	window2W = 10
	window1M = 22
	window3M = 66
)

// Compute derives the technical metrics bundle from a prepared series.
func Compute(s *series.Series) (domain.TechnicalMetrics, error) {
	if s == nil || s.Len() == 0 {
		return domain.TechnicalMetrics{}, domain.ErrNoData
	}
	if err := s.RequireDaily(MinDailyBars); err != nil {
		return domain.TechnicalMetrics{}, err
	}

	var ups, downs []float64
	ranges := make([]float64, 0, len(s.Daily))
	bullish, bearish := s.Daily[0].PctChange, s.Daily[0].PctChange
	for _, d := range s.Daily {
		switch {
		case d.PctChange > 0:
			ups = append(ups, d.PctChange)
		case d.PctChange < 0:
			downs = append(downs, d.PctChange)
		}
		bullish = max(bullish, d.PctChange)
		bearish = min(bearish, d.PctChange)
		if d.Open != 0 {
			ranges = append(ranges, (d.High-d.Low)/d.Open*100)
		}
	}

	closes := s.DailyCloses()
	highs, lows, _ := s.DailyColumns()
	round1, round2 := optional(1), optional(2)

	m := domain.TechnicalMetrics{
		CurrentPrice:   s.Close[s.Len()-1],
		SMA20:          round2(ta.SMA(closes, 20)),
		SMA50:          round2(ta.SMA(closes, 50)),
		SMA200:         round2(ta.SMA(closes, 200)),
		RSI14:          round1(ta.RSI(closes, 14)),
		ATR14:          round2(ta.ATR(highs, lows, closes, 14)),
		DailyRangePct:  numeric.Round(mean(ranges), 3),
		Change1W:       round2(ta.PriceChange(closes, window1W)),
		Change2W:       round2(ta.PriceChange(closes, window2W)),
		Change1M:       round2(ta.PriceChange(closes, window1M)),
		Change3M:       round2(ta.PriceChange(closes, window3M)),
		UpDayWinRate:   numeric.Round(float64(len(ups))/float64(len(s.Daily))*100, 1),
		AvgDailyGrowth: numeric.Round(mean(ups), 4),
		AvgDailyLoss:   numeric.Round(mean(downs), 4),
		MostBullishDay: numeric.Round(bullish, 2),
		MostBearishDay: numeric.Round(bearish, 2),
		CandleCount:    s.Len(),
		DailyBarCount:  len(s.Daily),
	}
	return m, nil
}

// optional converts an indicator's (value, ok) pair into a rounded nullable.
func optional(places int32) func(float64, bool) *float64 {
	return func(v float64, ok bool) *float64 {
		if !ok {
			return nil
		}
		return numeric.Ptr(numeric.Round(v, places))
	}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}
