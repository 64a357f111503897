package service

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"longentry/internal/backtest"
	"longentry/internal/cache"
	"longentry/internal/domain"
	"longentry/internal/series"
)

type OptimalHourSource interface {
	LatestOptimalHour(ctx context.Context, symbol string) (*int, error)
}

type HeatmapConfig struct {
	CacheTTL        time.Duration
	SweepWorkers    int
	BarLookbackDays int
}

type HeatmapService struct {
	tracer   trace.Tracer
	logger   *log.Logger
	universe *Universe
	bars     BarSource
	hours    OptimalHourSource
	redis    cache.RedisClient
	cfg      HeatmapConfig
	now      func() time.Time
}

// NewHeatmapService builds the service; a nil redis client disables caching.
func NewHeatmapService(
	tracer trace.Tracer,
	logger *log.Logger,
	universe *Universe,
	bars BarSource,
	hours OptimalHourSource,
	redisClient cache.RedisClient,
	cfg HeatmapConfig,
) *HeatmapService {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Hour
	}
	if cfg.BarLookbackDays <= 0 {
		cfg.BarLookbackDays = 730
	}
	return &HeatmapService{
		tracer:   tracer,
		logger:   logger,
		universe: universe,
		bars:     bars,
		hours:    hours,
		redis:    redisClient,
		cfg:      cfg,
		now:      time.Now,
	}
}

func heatmapKey(symbol string, week time.Time) string {
	return fmt.Sprintf("heatmap:%s:%s", symbol, week.Format(time.DateOnly))
}

// Heatmap returns the stop/target grid at the stored optimal hour (or the
// middle valid hour) plus per-hour returns at the median grid point.
func (s *HeatmapService) Heatmap(ctx context.Context, symbol string) (*domain.Heatmap, error) {
	ctx, span := s.tracer.Start(ctx, "heatmap-service.heatmap", trace.WithAttributes(attribute.String("symbol", symbol)))
	defer span.End()

	inst, err := s.universe.Lookup(symbol)
	if err != nil {
		return nil, err
	}
	week := domain.WeekStart(s.now())
	key := heatmapKey(inst.Symbol, week)

	if s.redis != nil {
		var cached domain.Heatmap
		found, err := cache.GetJSON(ctx, s.redis, key, &cached)
		if err != nil {
			s.logger.Warn("heatmap cache read failed", "key", key, "err", err)
		} else if found {
			span.SetAttributes(attribute.Bool("cache_hit", true))
			return &cached, nil
		}
	}

	since := s.now().UTC().AddDate(0, 0, -s.cfg.BarLookbackDays)
	h1, err := s.bars.GetBars(ctx, inst.Symbol, domain.TimeframeH1, since)
	if err != nil {
		return nil, fmt.Errorf("load H1 bars: %w", err)
	}
	ser, err := series.Prepare(h1)
	if err != nil {
		return nil, err
	}
	m5, err := s.bars.GetBars(ctx, inst.Symbol, domain.TimeframeM5, since)
	if err != nil {
		return nil, fmt.Errorf("load M5 bars: %w", err)
	}
	if len(m5) > 0 {
		ser = ser.WithIntrabar(series.NewIntrabar(m5))
	}

	preferred, err := s.hours.LatestOptimalHour(ctx, inst.Symbol)
	if err != nil {
		return nil, err
	}

	hm, err := backtest.BuildHeatmap(ctx, ser, backtest.SweepConfig{
		Spread:  inst.Spread,
		Session: inst.Session,
		Grid:    backtest.Grid{StopLoss: inst.SLGrid, TakeProfit: inst.TPGrid},
		Workers: s.cfg.SweepWorkers,
	}, preferred)
	if err != nil {
		return nil, err
	}
	hm.Symbol = inst.Symbol

	if s.redis != nil {
		if err := cache.SetJSON(ctx, s.redis, key, hm, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("heatmap cache write failed", "key", key, "err", err)
		}
	}
	return hm, nil
}

// Invalidate drops the cached heatmaps of the given week, used after a run
// changes the stored optimal hours.
func (s *HeatmapService) Invalidate(ctx context.Context, week time.Time) error {
	if s.redis == nil {
		return nil
	}
	instruments := s.universe.All()
	keys := make([]string, 0, len(instruments))
	for _, inst := range instruments {
		keys = append(keys, heatmapKey(inst.Symbol, week))
	}
	return s.redis.Del(ctx, keys...).Err()
}
