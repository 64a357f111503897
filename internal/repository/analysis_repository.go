package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"longentry/internal/domain"
)

const scoreColumns = `symbol, week_start, pool, technical_score, backtest_score, fundamental_score,
	ai_score, ai_confidence, ai_bias, final_score, rank, is_active, is_manually_overridden,
	opt_entry_hour, opt_sl_percent, opt_tp_percent,
	bt_total_return, bt_win_rate, bt_profit_factor, bt_max_drawdown, bt_total_trades, bt_wins, bt_losses,
	bt_param_stability, metrics`

// upsertScore rewrites the analysis columns but keeps a pinned activation and
// any AI assessment the batch did not supply.
const upsertScore = `
INSERT INTO weekly_analysis (
	symbol, week_start, pool, technical_score, backtest_score, fundamental_score,
	ai_score, ai_confidence, ai_bias, final_score, rank, is_active,
	opt_entry_hour, opt_sl_percent, opt_tp_percent,
	bt_total_return, bt_win_rate, bt_profit_factor, bt_max_drawdown, bt_total_trades, bt_wins, bt_losses,
	bt_param_stability, metrics)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)
ON CONFLICT (symbol, week_start) DO UPDATE SET
	pool = EXCLUDED.pool,
	technical_score = EXCLUDED.technical_score,
	backtest_score = EXCLUDED.backtest_score,
	fundamental_score = EXCLUDED.fundamental_score,
	ai_score = COALESCE(EXCLUDED.ai_score, weekly_analysis.ai_score),
	ai_confidence = COALESCE(EXCLUDED.ai_confidence, weekly_analysis.ai_confidence),
	ai_bias = COALESCE(EXCLUDED.ai_bias, weekly_analysis.ai_bias),
	final_score = EXCLUDED.final_score,
	rank = EXCLUDED.rank,
	opt_entry_hour = EXCLUDED.opt_entry_hour,
	opt_sl_percent = EXCLUDED.opt_sl_percent,
	opt_tp_percent = EXCLUDED.opt_tp_percent,
	bt_total_return = EXCLUDED.bt_total_return,
	bt_win_rate = EXCLUDED.bt_win_rate,
	bt_profit_factor = EXCLUDED.bt_profit_factor,
	bt_max_drawdown = EXCLUDED.bt_max_drawdown,
	bt_total_trades = EXCLUDED.bt_total_trades,
	bt_wins = EXCLUDED.bt_wins,
	bt_losses = EXCLUDED.bt_losses,
	bt_param_stability = EXCLUDED.bt_param_stability,
	metrics = EXCLUDED.metrics,
	is_active = CASE
		WHEN weekly_analysis.is_manually_overridden THEN weekly_analysis.is_active
		ELSE EXCLUDED.is_active
	END,
	updated_at = NOW()
RETURNING is_active, is_manually_overridden`

// Activation is an automatic activation decision for one symbol.
type Activation struct {
	Symbol string
	Active bool
}

type AnalysisRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewAnalysisRepository(pool PgxPool, tracer trace.Tracer) *AnalysisRepository {
	return &AnalysisRepository{pool: pool, tracer: tracer}
}

// UpsertScores writes the week's scores in one batch. Each score's IsActive
// and IsManuallyOverridden are updated in place with the stored values.
func (r *AnalysisRepository) UpsertScores(ctx context.Context, scores []domain.WeeklyScore) error {
	if len(scores) == 0 {
		return nil
	}

	ctx, span := r.tracer.Start(ctx, "analysis-repo.upsert-scores")
	defer span.End()
	span.SetAttributes(attribute.Int("scores", len(scores)))

	batch := &pgx.Batch{}
	for i := range scores {
		args, err := scoreArgs(scores[i])
		if err != nil {
			return fmt.Errorf("%s: %w", scores[i].Symbol, err)
		}
		batch.Queue(upsertScore, args...)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := range scores {
		s := &scores[i]
		if err := br.QueryRow().Scan(&s.IsActive, &s.IsManuallyOverridden); err != nil {
			return fmt.Errorf("upsert %s: %w", s.Symbol, err)
		}
	}
	return nil
}

func scoreArgs(s domain.WeeklyScore) ([]any, error) {
	var (
		entryHour                       *int
		slPct, tpPct                    *float64
		btReturn, btWinRate, btPF, btDD *float64
		btTrades, btWins, btLosses      *int
		metrics                         []byte
	)
	if s.Optimal != nil {
		entryHour, slPct, tpPct = &s.Optimal.EntryHour, &s.Optimal.StopLossPct, &s.Optimal.TakeProfitPct
	}
	if s.Backtest != nil {
		b := s.Backtest
		btReturn, btWinRate, btPF, btDD = &b.TotalReturn, &b.WinRate, &b.ProfitFactor, &b.MaxDrawdown
		btTrades, btWins, btLosses = &b.TotalTrades, &b.Wins, &b.Losses
	}
	if s.Metrics != nil {
		data, err := json.Marshal(s.Metrics)
		if err != nil {
			return nil, fmt.Errorf("encode metrics: %w", err)
		}
		metrics = data
	}
	return []any{
		s.Symbol, s.WeekStart, string(s.Pool), s.TechnicalScore, s.BacktestScore, s.FundamentalScore,
		s.AIScore, s.AIConfidence, s.AIBias, s.FinalScore, s.Rank, s.IsActive,
		entryHour, slPct, tpPct,
		btReturn, btWinRate, btPF, btDD, btTrades, btWins, btLosses,
		s.Stability, metrics,
	}, nil
}

func scanScore(row pgx.Row) (domain.WeeklyScore, error) {
	var (
		s                               domain.WeeklyScore
		pool                            string
		entryHour                       *int
		slPct, tpPct                    *float64
		btReturn, btWinRate, btPF, btDD *float64
		btTrades, btWins, btLosses      *int
		metrics                         []byte
	)
	err := row.Scan(
		&s.Symbol, &s.WeekStart, &pool, &s.TechnicalScore, &s.BacktestScore, &s.FundamentalScore,
		&s.AIScore, &s.AIConfidence, &s.AIBias, &s.FinalScore, &s.Rank, &s.IsActive, &s.IsManuallyOverridden,
		&entryHour, &slPct, &tpPct,
		&btReturn, &btWinRate, &btPF, &btDD, &btTrades, &btWins, &btLosses,
		&s.Stability, &metrics,
	)
	if err != nil {
		return s, err
	}

	s.Pool = domain.Pool(pool)
	s.WeekStart = s.WeekStart.UTC()
	if entryHour != nil && slPct != nil && tpPct != nil {
		s.Optimal = &domain.OptimalParameters{EntryHour: *entryHour, StopLossPct: *slPct, TakeProfitPct: *tpPct}
	}
	if btTrades != nil {
		s.Backtest = &domain.SimulationResult{
			TotalReturn:  deref(btReturn),
			WinRate:      deref(btWinRate),
			ProfitFactor: deref(btPF),
			MaxDrawdown:  deref(btDD),
			TotalTrades:  *btTrades,
			Wins:         deref(btWins),
			Losses:       deref(btLosses),
		}
	}
	if len(metrics) > 0 {
		var m domain.TechnicalMetrics
		if err := json.Unmarshal(metrics, &m); err != nil {
			return s, fmt.Errorf("decode metrics for %s: %w", s.Symbol, err)
		}
		s.Metrics = &m
	}
	return s, nil
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

func (r *AnalysisRepository) queryScores(ctx context.Context, sql string, args ...any) ([]domain.WeeklyScore, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.WeeklyScore
	for rows.Next() {
		s, err := scanScore(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ListWeek returns every row of the week ordered by pool, rank, symbol.
func (r *AnalysisRepository) ListWeek(ctx context.Context, week time.Time) ([]domain.WeeklyScore, error) {
	ctx, span := r.tracer.Start(ctx, "analysis-repo.list-week")
	defer span.End()

	return r.queryScores(ctx,
		`SELECT `+scoreColumns+`
		 FROM weekly_analysis
		 WHERE week_start = $1
		 ORDER BY pool, rank NULLS LAST, symbol`,
		week,
	)
}

// Latest returns the most recent row per symbol.
func (r *AnalysisRepository) Latest(ctx context.Context) ([]domain.WeeklyScore, error) {
	ctx, span := r.tracer.Start(ctx, "analysis-repo.latest")
	defer span.End()

	return r.queryScores(ctx,
		`SELECT DISTINCT ON (symbol) `+scoreColumns+`
		 FROM weekly_analysis
		 ORDER BY symbol, week_start DESC`,
	)
}

// Get returns nil when the symbol has no row for the week.
func (r *AnalysisRepository) Get(ctx context.Context, symbol string, week time.Time) (*domain.WeeklyScore, error) {
	ctx, span := r.tracer.Start(ctx, "analysis-repo.get")
	defer span.End()

	s, err := scanScore(r.pool.QueryRow(ctx,
		`SELECT `+scoreColumns+` FROM weekly_analysis WHERE symbol = $1 AND week_start = $2`,
		symbol, week,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *AnalysisRepository) SymbolHistory(ctx context.Context, symbol string, limit int) ([]domain.WeeklyScore, error) {
	ctx, span := r.tracer.Start(ctx, "analysis-repo.symbol-history")
	defer span.End()

	return r.queryScores(ctx,
		`SELECT `+scoreColumns+`
		 FROM weekly_analysis
		 WHERE symbol = $1
		 ORDER BY week_start DESC
		 LIMIT $2`,
		symbol, limit,
	)
}

func (r *AnalysisRepository) HistorySince(ctx context.Context, since time.Time) ([]domain.WeeklyScore, error) {
	ctx, span := r.tracer.Start(ctx, "analysis-repo.history-since")
	defer span.End()

	return r.queryScores(ctx,
		`SELECT `+scoreColumns+`
		 FROM weekly_analysis
		 WHERE week_start >= $1
		 ORDER BY week_start DESC, final_score DESC NULLS LAST, symbol`,
		since,
	)
}

// OptimalHistory returns up to limit complete optimal tuples from weeks
// strictly before week, newest first.
func (r *AnalysisRepository) OptimalHistory(ctx context.Context, symbol string, week time.Time, limit int) ([]domain.OptimalParameters, error) {
	ctx, span := r.tracer.Start(ctx, "analysis-repo.optimal-history")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT opt_entry_hour, opt_sl_percent, opt_tp_percent
		 FROM weekly_analysis
		 WHERE symbol = $1 AND week_start < $2
		   AND opt_entry_hour IS NOT NULL AND opt_sl_percent IS NOT NULL AND opt_tp_percent IS NOT NULL
		 ORDER BY week_start DESC
		 LIMIT $3`,
		symbol, week, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.OptimalParameters
	for rows.Next() {
		var p domain.OptimalParameters
		if err := rows.Scan(&p.EntryHour, &p.StopLossPct, &p.TakeProfitPct); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// LatestOptimalHour returns nil when no week has an optimal entry hour.
func (r *AnalysisRepository) LatestOptimalHour(ctx context.Context, symbol string) (*int, error) {
	ctx, span := r.tracer.Start(ctx, "analysis-repo.latest-optimal-hour")
	defer span.End()

	var hour int
	err := r.pool.QueryRow(ctx,
		`SELECT opt_entry_hour FROM weekly_analysis
		 WHERE symbol = $1 AND opt_entry_hour IS NOT NULL
		 ORDER BY week_start DESC LIMIT 1`,
		symbol,
	).Scan(&hour)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &hour, nil
}

// MarketConfig returns nil when the symbol has no row for the week.
func (r *AnalysisRepository) MarketConfig(ctx context.Context, symbol string, week time.Time) (*domain.MarketConfig, error) {
	ctx, span := r.tracer.Start(ctx, "analysis-repo.market-config")
	defer span.End()

	var (
		active       bool
		entryHour    *int
		entryMinute  *int
		slPct, tpPct *float64
	)
	err := r.pool.QueryRow(ctx,
		`SELECT is_active, opt_entry_hour, opt_entry_minute, opt_sl_percent, opt_tp_percent
		 FROM weekly_analysis
		 WHERE symbol = $1 AND week_start = $2`,
		symbol, week,
	).Scan(&active, &entryHour, &entryMinute, &slPct, &tpPct)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	cfg := domain.DefaultMarketConfig(symbol, week)
	cfg.Active = active
	cfg.EntryHour = deref(entryHour)
	cfg.EntryMinute = deref(entryMinute)
	cfg.SLPercent = deref(slPct)
	cfg.TPPercent = deref(tpPct)
	return &cfg, nil
}

// Overrides returns the pinned activation of every overridden row in the week.
func (r *AnalysisRepository) Overrides(ctx context.Context, week time.Time) (map[string]bool, error) {
	ctx, span := r.tracer.Start(ctx, "analysis-repo.overrides")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT symbol, is_active FROM weekly_analysis
		 WHERE week_start = $1 AND is_manually_overridden`,
		week,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var symbol string
		var active bool
		if err := rows.Scan(&symbol, &active); err != nil {
			return nil, err
		}
		out[symbol] = active
	}
	return out, rows.Err()
}

// AIAssessments returns the stored AI score, confidence and bias of every row
// in the week that has an AI score.
func (r *AnalysisRepository) AIAssessments(ctx context.Context, week time.Time) (map[string]domain.AIAssessment, error) {
	ctx, span := r.tracer.Start(ctx, "analysis-repo.ai-assessments")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT symbol, ai_score, ai_confidence, ai_bias FROM weekly_analysis
		 WHERE week_start = $1 AND ai_score IS NOT NULL`,
		week,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]domain.AIAssessment)
	for rows.Next() {
		var symbol string
		var a domain.AIAssessment
		if err := rows.Scan(&symbol, &a.Score, &a.Confidence, &a.Bias); err != nil {
			return nil, err
		}
		out[symbol] = a
	}
	return out, rows.Err()
}

// SetOverride pins activation, creating the row if the week has not been
// analysed yet.
func (r *AnalysisRepository) SetOverride(ctx context.Context, symbol string, pool domain.Pool, week time.Time, active bool) error {
	ctx, span := r.tracer.Start(ctx, "analysis-repo.set-override")
	defer span.End()

	_, err := r.pool.Exec(ctx,
		`INSERT INTO weekly_analysis (symbol, week_start, pool, is_active, is_manually_overridden)
		 VALUES ($1, $2, $3, $4, true)
		 ON CONFLICT (symbol, week_start) DO UPDATE SET
		     is_active = EXCLUDED.is_active,
		     is_manually_overridden = true,
		     updated_at = NOW()`,
		symbol, week, string(pool), active,
	)
	return err
}

func (r *AnalysisRepository) ClearOverride(ctx context.Context, symbol string, week time.Time) error {
	ctx, span := r.tracer.Start(ctx, "analysis-repo.clear-override")
	defer span.End()

	_, err := r.pool.Exec(ctx,
		`UPDATE weekly_analysis
		 SET is_manually_overridden = false, updated_at = NOW()
		 WHERE symbol = $1 AND week_start = $2`,
		symbol, week,
	)
	return err
}

// UpdateActivation applies automatic activation decisions. Overridden rows
// are never touched.
func (r *AnalysisRepository) UpdateActivation(ctx context.Context, week time.Time, updates []Activation) error {
	if len(updates) == 0 {
		return nil
	}

	ctx, span := r.tracer.Start(ctx, "analysis-repo.update-activation")
	defer span.End()

	batch := &pgx.Batch{}
	for _, u := range updates {
		batch.Queue(
			`UPDATE weekly_analysis
			 SET is_active = $1, updated_at = NOW()
			 WHERE symbol = $2 AND week_start = $3 AND NOT is_manually_overridden`,
			u.Active, u.Symbol, week,
		)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for _, u := range updates {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("update activation %s: %w", u.Symbol, err)
		}
	}
	return nil
}

func (r *AnalysisRepository) CountActive(ctx context.Context, week time.Time, pool domain.Pool) (int, error) {
	ctx, span := r.tracer.Start(ctx, "analysis-repo.count-active")
	defer span.End()

	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM weekly_analysis
		 WHERE week_start = $1 AND pool = $2 AND is_active`,
		week, string(pool),
	).Scan(&n)
	return n, err
}
