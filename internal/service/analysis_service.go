package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"longentry/internal/analytics"
	"longentry/internal/backtest"
	"longentry/internal/domain"
	"longentry/internal/numeric"
	"longentry/internal/ranking"
	"longentry/internal/scoring"
	"longentry/internal/series"
)

type BarSource interface {
	GetBars(ctx context.Context, symbol string, tf domain.Timeframe, since time.Time) ([]domain.PriceBar, error)
}

type ScoreStore interface {
	UpsertScores(ctx context.Context, scores []domain.WeeklyScore) error
	OptimalHistory(ctx context.Context, symbol string, week time.Time, limit int) ([]domain.OptimalParameters, error)
	Overrides(ctx context.Context, week time.Time) (map[string]bool, error)
	AIAssessments(ctx context.Context, week time.Time) (map[string]domain.AIAssessment, error)
}

type FundamentalScorer interface {
	ScoreInstrument(ctx context.Context, inst domain.Instrument, week time.Time) (float64, error)
}

type PolicySource interface {
	PolicyFor(ctx context.Context, pool domain.Pool) (ranking.Policy, error)
}

type PerformanceSource interface {
	RecentPerformance(ctx context.Context, week time.Time) (ranking.RecentPerformance, error)
}

type AnalysisConfig struct {
	Workers         int
	SweepWorkers    int
	BarLookbackDays int
}

// InstrumentError records one instrument that could not be scored.
type InstrumentError struct {
	Symbol string
	Err    error
}

func (e InstrumentError) Error() string { return e.Symbol + ": " + e.Err.Error() }

func (e InstrumentError) Unwrap() error { return e.Err }

func (e InstrumentError) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{"symbol": e.Symbol, "error": e.Err.Error()})
}

type RunReport struct {
	RunID    string               `json:"run_id"`
	Week     time.Time            `json:"week_start"`
	Scores   []domain.WeeklyScore `json:"scores"`
	Errors   []InstrumentError    `json:"errors"`
	Skipped  []string             `json:"skipped"`
	Duration time.Duration        `json:"duration"`
}

// Active returns the symbols activated by the run.
func (r *RunReport) Active() []string {
	var out []string
	for _, s := range r.Scores {
		if s.IsActive {
			out = append(out, s.Symbol)
		}
	}
	return out
}

type AnalysisService struct {
	tracer       trace.Tracer
	logger       *log.Logger
	universe     *Universe
	bars         BarSource
	scores       ScoreStore
	fundamentals FundamentalScorer
	policies     PolicySource
	performance  PerformanceSource
	cfg          AnalysisConfig
	now          func() time.Time
}

func NewAnalysisService(
	tracer trace.Tracer,
	logger *log.Logger,
	universe *Universe,
	bars BarSource,
	scores ScoreStore,
	fundamentals FundamentalScorer,
	policies PolicySource,
	performance PerformanceSource,
	cfg AnalysisConfig,
) *AnalysisService {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.BarLookbackDays <= 0 {
		cfg.BarLookbackDays = 730
	}
	return &AnalysisService{
		tracer:       tracer,
		logger:       logger,
		universe:     universe,
		bars:         bars,
		scores:       scores,
		fundamentals: fundamentals,
		policies:     policies,
		performance:  performance,
		cfg:          cfg,
		now:          time.Now,
	}
}

type outcome struct {
	score   *domain.WeeklyScore
	skipped bool
	err     error
}

// RunWeekly scores every instrument for the current week, ranks each pool,
// and persists the result. Per-instrument failures are collected in the
// report; when more than half fail, the report is returned together with
// domain.ErrMajorityFailed after the successes have been stored.
func (s *AnalysisService) RunWeekly(ctx context.Context) (*RunReport, error) {
	start := s.now()
	week := domain.WeekStart(start)
	report := &RunReport{RunID: uuid.NewString(), Week: week}

	ctx, span := s.tracer.Start(ctx, "analysis-service.run-weekly",
		trace.WithAttributes(attribute.String("run_id", report.RunID), attribute.String("week", week.Format(time.DateOnly))))
	defer span.End()

	logger := s.logger.With("run_id", report.RunID, "week", week.Format(time.DateOnly))
	instruments := s.universe.All()
	logger.Info("weekly analysis started", "instruments", len(instruments), "workers", s.cfg.Workers)

	assessments, err := s.scores.AIAssessments(ctx, week)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("load ai assessments: %w", err)
	}

	outcomes := make([]outcome, len(instruments))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for i, inst := range instruments {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			var ai *domain.AIAssessment
			if a, ok := assessments[inst.Symbol]; ok {
				ai = &a
			}
			score, skipped, err := s.analyzeInstrument(gctx, inst, week, ai)
			if err != nil && gctx.Err() != nil {
				return gctx.Err()
			}
			outcomes[i] = outcome{score: score, skipped: skipped, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	for i, o := range outcomes {
		sym := instruments[i].Symbol
		switch {
		case o.err != nil:
			logger.Error("instrument analysis failed", "symbol", sym, "err", o.err)
			report.Errors = append(report.Errors, InstrumentError{Symbol: sym, Err: o.err})
		case o.score != nil:
			if o.skipped {
				report.Skipped = append(report.Skipped, sym)
			}
			report.Scores = append(report.Scores, *o.score)
		}
	}

	if err := s.rank(ctx, week, report.Scores); err != nil {
		span.RecordError(err)
		return nil, err
	}
	if err := s.scores.UpsertScores(ctx, report.Scores); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("persist scores: %w", err)
	}

	report.Duration = s.now().Sub(start)
	logger.Info("weekly analysis complete",
		"scored", len(report.Scores),
		"failed", len(report.Errors),
		"skipped", len(report.Skipped),
		"active", len(report.Active()),
		"duration", report.Duration,
	)

	if len(report.Errors)*2 > len(instruments) {
		span.SetStatus(codes.Error, "majority failed")
		return report, fmt.Errorf("%w: %d of %d", domain.ErrMajorityFailed, len(report.Errors), len(instruments))
	}
	return report, nil
}

// rank assigns rank and automatic activation per pool, honouring pins.
func (s *AnalysisService) rank(ctx context.Context, week time.Time, scores []domain.WeeklyScore) error {
	pins, err := s.scores.Overrides(ctx, week)
	if err != nil {
		return fmt.Errorf("load overrides: %w", err)
	}
	perf, err := s.performance.RecentPerformance(ctx, week)
	if err != nil {
		return fmt.Errorf("load recent performance: %w", err)
	}

	scored := make(map[string]bool, len(scores))
	for _, sc := range scores {
		scored[sc.Symbol] = true
	}
	// Pins on instruments without a score this run still hold their slot.
	reserved := make(map[domain.Pool]int)
	for symbol, active := range pins {
		if !active || scored[symbol] {
			continue
		}
		inst, err := s.universe.Lookup(symbol)
		if err != nil {
			continue
		}
		reserved[inst.Pool]++
	}

	byPool := make(map[domain.Pool][]ranking.Candidate)
	for _, sc := range scores {
		pinned, overridden := pins[sc.Symbol]
		byPool[sc.Pool] = append(byPool[sc.Pool], ranking.Candidate{
			Symbol:       sc.Symbol,
			Pool:         sc.Pool,
			FinalScore:   *sc.FinalScore,
			Overridden:   overridden,
			PinnedActive: pinned,
		})
	}

	placed := make(map[string]ranking.Placement, len(scores))
	for pool, cands := range byPool {
		policy, err := s.policies.PolicyFor(ctx, pool)
		if err != nil {
			return err
		}
		policy = policy.WithReserved(pool, reserved[pool])
		threshold, rule := policy.Threshold(perf)
		s.logger.Info("ranking pool", "pool", pool, "candidates", len(cands),
			"max_active", policy.MaxActiveFor(pool), "reserved", reserved[pool], "threshold", threshold, "rule", rule,
			"recent_trades", perf.Trades, "recent_win_rate", numeric.Round(perf.WinRate(), 1))
		for _, p := range ranking.Rank(cands, policy, perf) {
			placed[p.Symbol] = p
		}
	}

	for i := range scores {
		p := placed[scores[i].Symbol]
		scores[i].Rank = numeric.Ptr(p.Rank)
		scores[i].IsActive = p.Active
		scores[i].IsManuallyOverridden = p.Overridden
	}
	return nil
}

// analyzeInstrument runs the per-instrument pipeline. skipped reports that no
// entry hour qualified, in which case the score carries a zero backtest score.
// A stored AI assessment, when present, is carried through and blended.
func (s *AnalysisService) analyzeInstrument(ctx context.Context, inst domain.Instrument, week time.Time, ai *domain.AIAssessment) (*domain.WeeklyScore, bool, error) {
	ctx, span := s.tracer.Start(ctx, "analysis-service.analyze-instrument",
		trace.WithAttributes(attribute.String("symbol", inst.Symbol)))
	defer span.End()

	logger := s.logger.With("symbol", inst.Symbol)
	since := s.now().UTC().AddDate(0, 0, -s.cfg.BarLookbackDays)

	h1, err := s.bars.GetBars(ctx, inst.Symbol, domain.TimeframeH1, since)
	if err != nil {
		return nil, false, fmt.Errorf("load H1 bars: %w", err)
	}
	ser, err := series.Prepare(h1)
	if err != nil {
		return nil, false, err
	}
	m5, err := s.bars.GetBars(ctx, inst.Symbol, domain.TimeframeM5, since)
	if err != nil {
		return nil, false, fmt.Errorf("load M5 bars: %w", err)
	}
	if len(m5) > 0 {
		ser = ser.WithIntrabar(series.NewIntrabar(m5))
	}

	metrics, err := analytics.Compute(ser)
	if err != nil {
		return nil, false, err
	}
	tech := analytics.Score(metrics, inst.AssetClass)

	score := &domain.WeeklyScore{
		Symbol:         inst.Symbol,
		WeekStart:      week,
		Pool:           inst.Pool,
		TechnicalScore: numeric.Ptr(tech.Total),
		Metrics:        &metrics,
	}

	skipped := false
	sweep, err := backtest.Sweep(ctx, ser, backtest.SweepConfig{
		Spread:  inst.Spread,
		Session: inst.Session,
		Grid:    backtest.Grid{StopLoss: inst.SLGrid, TakeProfit: inst.TPGrid},
		Workers: s.cfg.SweepWorkers,
	})
	switch {
	case errors.Is(err, domain.ErrNoValidEntryHours):
		skipped = true
		logger.Warn("no valid entry hours, backtest score is zero", "session_start", inst.Session.Start, "session_end", inst.Session.End)
		score.BacktestScore = numeric.Ptr(0.0)
	case err != nil:
		return nil, false, fmt.Errorf("sweep: %w", err)
	default:
		history, err := s.scores.OptimalHistory(ctx, inst.Symbol, week, scoring.StabilityLookbackWeeks)
		if err != nil {
			return nil, false, fmt.Errorf("load optimal history: %w", err)
		}
		stability := scoring.Stability(sweep.Best, history)
		best, result := sweep.Best, sweep.Result
		score.Optimal = &best
		score.Backtest = &result
		score.Stability = numeric.Ptr(stability)
		score.BacktestScore = numeric.Ptr(scoring.BacktestScore(result, stability))
		if sweep.AmbiguousFallbacks > 0 {
			logger.Debug("ambiguous intrabar fallbacks", "count", sweep.AmbiguousFallbacks, "combos", sweep.CombosTested)
		}
	}

	fund, err := s.fundamentals.ScoreInstrument(ctx, inst, week)
	if err != nil {
		logger.Warn("fundamental score unavailable, using neutral", "err", err)
		fund = scoring.NeutralFundamental
	}
	score.FundamentalScore = numeric.Ptr(fund)

	if ai != nil {
		score.AIScore = numeric.Ptr(ai.Score)
		score.AIConfidence = ai.Confidence
		score.AIBias = ai.Bias
	}

	score.FinalScore = numeric.Ptr(scoring.FinalScore(scoring.Inputs{
		Technical:   tech.Total,
		Backtest:    score.BacktestScore,
		Fundamental: score.FundamentalScore,
		AI:          score.AIScore,
	}))

	logger.Info("instrument analysed",
		"technical", tech.Total,
		"backtest", *score.BacktestScore,
		"fundamental", fund,
		"final", *score.FinalScore,
	)
	return score, skipped, nil
}
