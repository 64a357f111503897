package service

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"go.opentelemetry.io/otel/trace"

	"longentry/internal/domain"
	"longentry/internal/ranking"
	"longentry/internal/repository"
)

type ConfigStore interface {
	MarketConfig(ctx context.Context, symbol string, week time.Time) (*domain.MarketConfig, error)
	SetOverride(ctx context.Context, symbol string, pool domain.Pool, week time.Time, active bool) error
	ClearOverride(ctx context.Context, symbol string, week time.Time) error
	ListWeek(ctx context.Context, week time.Time) ([]domain.WeeklyScore, error)
	UpdateActivation(ctx context.Context, week time.Time, updates []repository.Activation) error
	CountActive(ctx context.Context, week time.Time, pool domain.Pool) (int, error)
}

// ConfigService serves the per-symbol trading configuration and the manual
// controls over it.
type ConfigService struct {
	tracer      trace.Tracer
	logger      *log.Logger
	universe    *Universe
	store       ConfigStore
	policies    *PolicyService
	performance PerformanceSource
	now         func() time.Time
}

func NewConfigService(
	tracer trace.Tracer,
	logger *log.Logger,
	universe *Universe,
	store ConfigStore,
	policies *PolicyService,
	performance PerformanceSource,
) *ConfigService {
	return &ConfigService{
		tracer:      tracer,
		logger:      logger,
		universe:    universe,
		store:       store,
		policies:    policies,
		performance: performance,
		now:         time.Now,
	}
}

// MarketConfig projects the current week's row for symbol. A symbol without
// a row gets the inactive default.
func (s *ConfigService) MarketConfig(ctx context.Context, symbol string) (domain.MarketConfig, error) {
	ctx, span := s.tracer.Start(ctx, "config-service.market-config")
	defer span.End()

	inst, err := s.universe.Lookup(symbol)
	if err != nil {
		return domain.MarketConfig{}, err
	}
	week := domain.WeekStart(s.now())

	cfg, err := s.store.MarketConfig(ctx, inst.Symbol, week)
	if err != nil {
		return domain.MarketConfig{}, err
	}
	if cfg == nil {
		return domain.DefaultMarketConfig(inst.Symbol, week), nil
	}
	return *cfg, nil
}

// SetOverride pins symbol's activation for the current week; nil releases
// the pin and leaves the stored activation as is until the next ranking.
func (s *ConfigService) SetOverride(ctx context.Context, symbol string, active *bool) (domain.MarketConfig, error) {
	ctx, span := s.tracer.Start(ctx, "config-service.set-override")
	defer span.End()

	inst, err := s.universe.Lookup(symbol)
	if err != nil {
		return domain.MarketConfig{}, err
	}
	week := domain.WeekStart(s.now())

	if active == nil {
		err = s.store.ClearOverride(ctx, inst.Symbol, week)
	} else {
		err = s.store.SetOverride(ctx, inst.Symbol, inst.Pool, week, *active)
	}
	if err != nil {
		return domain.MarketConfig{}, fmt.Errorf("override %s: %w", inst.Symbol, err)
	}
	s.logger.Info("manual override", "symbol", inst.Symbol, "week", week.Format(time.DateOnly), "active", active)
	return s.MarketConfig(ctx, inst.Symbol)
}

func (s *ConfigService) GetMaxActive(ctx context.Context, pool domain.Pool) (domain.MaxActive, error) {
	ctx, span := s.tracer.Start(ctx, "config-service.get-max-active")
	defer span.End()

	if !pool.IsValid() {
		return domain.MaxActive{}, fmt.Errorf("%w: unknown pool %q", ErrInvalidInput, pool)
	}
	policy, err := s.policies.PolicyFor(ctx, pool)
	if err != nil {
		return domain.MaxActive{}, err
	}
	count, err := s.store.CountActive(ctx, domain.WeekStart(s.now()), pool)
	if err != nil {
		return domain.MaxActive{}, err
	}
	return domain.MaxActive{Pool: pool, MaxActive: policy.MaxActiveFor(pool), ActiveCount: count}, nil
}

// SetMaxActive stores the new limit and re-applies automatic activation to
// the pool's scored rows for the current week. Overridden rows keep their
// state and still consume a slot when pinned active, scored or not.
func (s *ConfigService) SetMaxActive(ctx context.Context, pool domain.Pool, n int) (domain.MaxActive, error) {
	ctx, span := s.tracer.Start(ctx, "config-service.set-max-active")
	defer span.End()

	if !pool.IsValid() {
		return domain.MaxActive{}, fmt.Errorf("%w: unknown pool %q", ErrInvalidInput, pool)
	}
	if n < 0 {
		return domain.MaxActive{}, fmt.Errorf("%w: max active must be >= 0", ErrInvalidInput)
	}

	policy, err := s.policies.SetMaxActive(ctx, pool, n)
	if err != nil {
		return domain.MaxActive{}, err
	}

	week := domain.WeekStart(s.now())
	rows, err := s.store.ListWeek(ctx, week)
	if err != nil {
		return domain.MaxActive{}, err
	}
	perf, err := s.performance.RecentPerformance(ctx, week)
	if err != nil {
		return domain.MaxActive{}, err
	}

	var cands []ranking.Candidate
	reserved := 0
	for _, r := range rows {
		if r.Pool != pool {
			continue
		}
		if r.FinalScore == nil {
			// A pin set before any analysis has no score but holds its slot.
			if r.IsManuallyOverridden && r.IsActive {
				reserved++
			}
			continue
		}
		cands = append(cands, ranking.Candidate{
			Symbol:       r.Symbol,
			Pool:         r.Pool,
			FinalScore:   *r.FinalScore,
			Overridden:   r.IsManuallyOverridden,
			PinnedActive: r.IsActive,
		})
	}

	var updates []repository.Activation
	for _, p := range ranking.Rank(cands, policy.WithReserved(pool, reserved), perf) {
		if !p.Overridden {
			updates = append(updates, repository.Activation{Symbol: p.Symbol, Active: p.Active})
		}
	}
	if err := s.store.UpdateActivation(ctx, week, updates); err != nil {
		return domain.MaxActive{}, err
	}

	count, err := s.store.CountActive(ctx, week, pool)
	if err != nil {
		return domain.MaxActive{}, err
	}
	s.logger.Info("max active updated", "pool", pool, "max_active", n, "active_count", count)
	return domain.MaxActive{Pool: pool, MaxActive: n, ActiveCount: count}, nil
}
