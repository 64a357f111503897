package backtest

import (
	"context"
	"runtime"

	"longentry/internal/domain"
	"longentry/internal/series"

	"golang.org/x/sync/errgroup"
)

// MinHourCoverage is the share of trading days an hour must appear on to be
// considered for entry.
const MinHourCoverage = 0.5

type SweepConfig struct {
	Spread  float64
	Session domain.SessionWindow
	Grid    Grid
	// Workers bounds concurrent simulations; <= 0 means runtime.NumCPU().
	Workers int
}

type SweepResult struct {
	Best               domain.OptimalParameters
	Result             domain.SimulationResult
	CombosTested       int
	ValidHours         []int
	AmbiguousFallbacks int
}

// ValidEntryHours returns, in ascending order, the hours present on at least
// half of the trading days that also fall inside the session window.
func ValidEntryHours(s *series.Series, session domain.SessionWindow) []int {
	if s == nil || s.DayCount() == 0 {
		return nil
	}
	coverage := s.HourCoverage()
	threshold := float64(s.DayCount()) * MinHourCoverage

	var hours []int
	for h, days := range coverage {
		if days > 0 && float64(days) >= threshold && session.Contains(h) {
			hours = append(hours, h)
		}
	}
	return hours
}

// Sweep simulates every (hour, stop, target) combination and returns the
// one with the highest total return. Ties keep the first combination in
// hour, stop, target order.
func Sweep(ctx context.Context, s *series.Series, cfg SweepConfig) (*SweepResult, error) {
	grid := cfg.Grid.OrDefault()
	hours := ValidEntryHours(s, cfg.Session)
	if len(hours) == 0 {
		return nil, domain.ErrNoValidEntryHours
	}

	combos := make([]Params, 0, len(hours)*grid.Size())
	for _, h := range hours {
		for _, sl := range grid.StopLoss {
			for _, tp := range grid.TakeProfit {
				combos = append(combos, Params{EntryHour: h, StopLossPct: sl, TakeProfitPct: tp})
			}
		}
	}

	results, err := evaluate(ctx, s, combos, cfg.Spread, cfg.Workers)
	if err != nil {
		return nil, err
	}

	best := 0
	fallbacks := 0
	for i, r := range results {
		fallbacks += r.AmbiguousFallbacks
		if r.TotalReturn > results[best].TotalReturn {
			best = i
		}
	}

	return &SweepResult{
		Best: domain.OptimalParameters{
			EntryHour:     combos[best].EntryHour,
			StopLossPct:   combos[best].StopLossPct,
			TakeProfitPct: combos[best].TakeProfitPct,
		},
		Result:             results[best],
		CombosTested:       len(combos),
		ValidHours:         hours,
		AmbiguousFallbacks: fallbacks,
	}, nil
}

// evaluate runs each combination on a bounded worker pool. Every worker
// writes only its own slot, so the output order matches combos.
func evaluate(ctx context.Context, s *series.Series, combos []Params, spread float64, workers int) ([]domain.SimulationResult, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make([]domain.SimulationResult, len(combos))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, p := range combos {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = Simulate(s, p, spread)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
