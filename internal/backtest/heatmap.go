package backtest

import (
	"context"
	"slices"

	"longentry/internal/domain"
	"longentry/internal/series"
)

// BuildHeatmap evaluates the full stop/target grid at one entry hour and
// every valid entry hour at the median stop/target. preferredHour is used
// when it is still a valid hour; otherwise the middle valid hour is taken.
func BuildHeatmap(ctx context.Context, s *series.Series, cfg SweepConfig, preferredHour *int) (*domain.Heatmap, error) {
	grid := cfg.Grid.OrDefault()
	hours := ValidEntryHours(s, cfg.Session)
	if len(hours) == 0 {
		return nil, domain.ErrNoValidEntryHours
	}

	hour := hours[len(hours)/2]
	if preferredHour != nil && slices.Contains(hours, *preferredHour) {
		hour = *preferredHour
	}

	combos := make([]Params, 0, grid.Size()+len(hours))
	for _, sl := range grid.StopLoss {
		for _, tp := range grid.TakeProfit {
			combos = append(combos, Params{EntryHour: hour, StopLossPct: sl, TakeProfitPct: tp})
		}
	}
	midSL, midTP := grid.Median()
	for _, h := range hours {
		combos = append(combos, Params{EntryHour: h, StopLossPct: midSL, TakeProfitPct: midTP})
	}

	results, err := evaluate(ctx, s, combos, cfg.Spread, cfg.Workers)
	if err != nil {
		return nil, err
	}

	hm := &domain.Heatmap{
		EntryHour:        hour,
		Grid:             make([]domain.HeatmapCell, 0, grid.Size()),
		EntryHourReturns: make([]domain.HourReturn, 0, len(hours)),
	}
	for i, p := range combos[:grid.Size()] {
		r := results[i]
		hm.Grid = append(hm.Grid, domain.HeatmapCell{
			SLPct:        p.StopLossPct,
			TPPct:        p.TakeProfitPct,
			TotalReturn:  r.TotalReturn,
			WinRate:      r.WinRate,
			ProfitFactor: r.ProfitFactor,
			TotalTrades:  r.TotalTrades,
		})
	}
	for i, h := range hours {
		r := results[grid.Size()+i]
		hm.EntryHourReturns = append(hm.EntryHourReturns, domain.HourReturn{
			Hour:        h,
			TotalReturn: r.TotalReturn,
			WinRate:     r.WinRate,
		})
	}
	return hm, nil
}
