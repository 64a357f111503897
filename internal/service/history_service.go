package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"

	"longentry/internal/domain"
)

const (
	DefaultSymbolHistoryWeeks = 52
	MaxSymbolHistoryWeeks     = 200
	DefaultAllHistoryWeeks    = 12
	MaxAllHistoryWeeks        = 52
)

type HistoryStore interface {
	ListWeek(ctx context.Context, week time.Time) ([]domain.WeeklyScore, error)
	Latest(ctx context.Context) ([]domain.WeeklyScore, error)
	Get(ctx context.Context, symbol string, week time.Time) (*domain.WeeklyScore, error)
	SymbolHistory(ctx context.Context, symbol string, limit int) ([]domain.WeeklyScore, error)
	HistorySince(ctx context.Context, since time.Time) ([]domain.WeeklyScore, error)
}

type HistoryService struct {
	tracer   trace.Tracer
	universe *Universe
	store    HistoryStore
	now      func() time.Time
}

func NewHistoryService(tracer trace.Tracer, universe *Universe, store HistoryStore) *HistoryService {
	return &HistoryService{tracer: tracer, universe: universe, store: store, now: time.Now}
}

// Current returns the current week's scores, or the latest row per symbol
// when the week has not been analysed yet.
func (s *HistoryService) Current(ctx context.Context) ([]domain.WeeklyScore, error) {
	ctx, span := s.tracer.Start(ctx, "history-service.current")
	defer span.End()

	rows, err := s.store.ListWeek(ctx, domain.WeekStart(s.now()))
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 {
		return rows, nil
	}
	return s.store.Latest(ctx)
}

func (s *HistoryService) Symbol(ctx context.Context, symbol string) (*domain.WeeklyScore, error) {
	ctx, span := s.tracer.Start(ctx, "history-service.symbol")
	defer span.End()

	inst, err := s.universe.Lookup(symbol)
	if err != nil {
		return nil, err
	}
	row, err := s.store.Get(ctx, inst.Symbol, domain.WeekStart(s.now()))
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, domain.ErrNoData
	}
	return row, nil
}

func (s *HistoryService) SymbolHistory(ctx context.Context, symbol string, weeks int) ([]domain.WeeklyScore, error) {
	ctx, span := s.tracer.Start(ctx, "history-service.symbol-history")
	defer span.End()

	inst, err := s.universe.Lookup(symbol)
	if err != nil {
		return nil, err
	}
	return s.store.SymbolHistory(ctx, inst.Symbol, boundWeeks(weeks, DefaultSymbolHistoryWeeks, MaxSymbolHistoryWeeks))
}

func (s *HistoryService) AllHistory(ctx context.Context, weeks int) ([]domain.WeeklyScore, error) {
	ctx, span := s.tracer.Start(ctx, "history-service.all-history")
	defer span.End()

	weeks = boundWeeks(weeks, DefaultAllHistoryWeeks, MaxAllHistoryWeeks)
	since := domain.WeekStart(s.now()).AddDate(0, 0, -7*weeks)
	return s.store.HistorySince(ctx, since)
}

// boundWeeks maps non-positive requests to def and caps at max.
func boundWeeks(weeks, def, limit int) int {
	if weeks <= 0 {
		return def
	}
	return min(weeks, limit)
}
