package repository

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"

	"longentry/internal/domain"
)

type ResultRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewResultRepository(pool PgxPool, tracer trace.Tracer) *ResultRepository {
	return &ResultRepository{pool: pool, tracer: tracer}
}

// Upsert stores a reported result. was_active is copied from the week's
// analysis row and is NULL when the symbol was never analysed that week.
func (r *ResultRepository) Upsert(ctx context.Context, res domain.WeeklyResult) (domain.WeeklyResult, error) {
	ctx, span := r.tracer.Start(ctx, "result-repo.upsert")
	defer span.End()

	err := r.pool.QueryRow(ctx,
		`INSERT INTO weekly_results
		     (symbol, week_start, was_active, trades_taken, wins, losses, total_pnl_percent)
		 VALUES ($1, $2,
		     (SELECT is_active FROM weekly_analysis WHERE symbol = $1 AND week_start = $2),
		     $3, $4, $5, $6)
		 ON CONFLICT (symbol, week_start) DO UPDATE SET
		     was_active = EXCLUDED.was_active,
		     trades_taken = EXCLUDED.trades_taken,
		     wins = EXCLUDED.wins,
		     losses = EXCLUDED.losses,
		     total_pnl_percent = EXCLUDED.total_pnl_percent,
		     reported_at = NOW()
		 RETURNING was_active`,
		res.Symbol, res.WeekStart, res.TradesTaken, res.Wins, res.Losses, res.TotalPnLPercent,
	).Scan(&res.WasActive)
	return res, err
}

// Since returns results for weeks on or after since, newest week first.
func (r *ResultRepository) Since(ctx context.Context, since time.Time) ([]domain.WeeklyResult, error) {
	ctx, span := r.tracer.Start(ctx, "result-repo.since")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT symbol, week_start, was_active, trades_taken, wins, losses, total_pnl_percent
		 FROM weekly_results
		 WHERE week_start >= $1
		 ORDER BY week_start DESC, symbol`,
		since,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.WeeklyResult
	for rows.Next() {
		var res domain.WeeklyResult
		if err := rows.Scan(&res.Symbol, &res.WeekStart, &res.WasActive, &res.TradesTaken, &res.Wins, &res.Losses, &res.TotalPnLPercent); err != nil {
			return nil, err
		}
		res.WeekStart = res.WeekStart.UTC()
		out = append(out, res)
	}
	return out, rows.Err()
}
