package service

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"go.opentelemetry.io/otel/trace"

	"longentry/internal/domain"
	"longentry/internal/numeric"
	"longentry/internal/ranking"
)

type ResultStore interface {
	Upsert(ctx context.Context, res domain.WeeklyResult) (domain.WeeklyResult, error)
	Since(ctx context.Context, since time.Time) ([]domain.WeeklyResult, error)
}

type ResultService struct {
	tracer   trace.Tracer
	logger   *log.Logger
	universe *Universe
	store    ResultStore
}

func NewResultService(tracer trace.Tracer, logger *log.Logger, universe *Universe, store ResultStore) *ResultService {
	return &ResultService{tracer: tracer, logger: logger, universe: universe, store: store}
}

// Report validates and stores a realized weekly result. WeekStart is
// normalised to its Monday.
func (s *ResultService) Report(ctx context.Context, res domain.WeeklyResult) (domain.WeeklyResult, error) {
	ctx, span := s.tracer.Start(ctx, "result-service.report")
	defer span.End()

	inst, err := s.universe.Lookup(res.Symbol)
	if err != nil {
		return domain.WeeklyResult{}, err
	}
	if res.TradesTaken < 0 || res.Wins < 0 || res.Losses < 0 || res.Wins+res.Losses > res.TradesTaken {
		return domain.WeeklyResult{}, fmt.Errorf("%w: wins %d + losses %d exceed trades %d",
			ErrInvalidInput, res.Wins, res.Losses, res.TradesTaken)
	}
	res.Symbol = inst.Symbol
	res.WeekStart = domain.WeekStart(res.WeekStart)

	saved, err := s.store.Upsert(ctx, res)
	if err != nil {
		return domain.WeeklyResult{}, err
	}
	s.logger.Info("weekly result recorded",
		"symbol", saved.Symbol,
		"week", saved.WeekStart.Format(time.DateOnly),
		"trades", saved.TradesTaken,
		"wins", saved.Wins,
		"losses", saved.Losses,
		"pnl_pct", saved.TotalPnLPercent,
	)
	return saved, nil
}

// RecentPerformance sums realized trades over the ranking lookback weeks
// preceding week.
func (s *ResultService) RecentPerformance(ctx context.Context, week time.Time) (ranking.RecentPerformance, error) {
	ctx, span := s.tracer.Start(ctx, "result-service.recent-performance")
	defer span.End()

	since := week.AddDate(0, 0, -7*ranking.RecentPerformanceWeeks)
	results, err := s.store.Since(ctx, since)
	if err != nil {
		return ranking.RecentPerformance{}, err
	}

	var perf ranking.RecentPerformance
	for _, r := range results {
		if !r.WeekStart.Before(week) {
			continue
		}
		perf.Trades += r.TradesTaken
		perf.Wins += r.Wins
	}
	return perf, nil
}

// Summaries groups results by week, newest first.
func (s *ResultService) Summaries(ctx context.Context, weeks int) ([]domain.WeeklyResultSummary, error) {
	ctx, span := s.tracer.Start(ctx, "result-service.summaries")
	defer span.End()

	since := domain.WeekStart(time.Now()).AddDate(0, 0, -7*weeks)
	results, err := s.store.Since(ctx, since)
	if err != nil {
		return nil, err
	}
	return summarise(results), nil
}

func summarise(results []domain.WeeklyResult) []domain.WeeklyResultSummary {
	byWeek := make(map[time.Time]*domain.WeeklyResultSummary)
	for _, r := range results {
		sum, ok := byWeek[r.WeekStart]
		if !ok {
			sum = &domain.WeeklyResultSummary{WeekStart: r.WeekStart}
			byWeek[r.WeekStart] = sum
		}
		sum.TotalTrades += r.TradesTaken
		sum.TotalWins += r.Wins
		sum.TotalLosses += r.Losses
		sum.TotalPnLPercent += r.TotalPnLPercent
		if r.WasActive != nil && *r.WasActive {
			sum.ActiveMarkets++
		}
		sum.Results = append(sum.Results, r)
	}

	out := make([]domain.WeeklyResultSummary, 0, len(byWeek))
	for _, sum := range byWeek {
		sum.TotalPnLPercent = numeric.Round(sum.TotalPnLPercent, 2)
		out = append(out, *sum)
	}
	slices.SortFunc(out, func(a, b domain.WeeklyResultSummary) int { return b.WeekStart.Compare(a.WeekStart) })
	return out
}
