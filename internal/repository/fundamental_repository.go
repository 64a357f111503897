package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/trace"

	"longentry/internal/domain"
)

type FundamentalRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewFundamentalRepository(pool PgxPool, tracer trace.Tracer) *FundamentalRepository {
	return &FundamentalRepository{pool: pool, tracer: tracer}
}

const outlookColumns = `region, cb_stance, growth_outlook, inflation_trend, risk_sentiment, notes, updated_at`

func scanOutlook(row pgx.Row) (domain.RegionOutlook, error) {
	var o domain.RegionOutlook
	err := row.Scan(&o.Region, &o.CBStance, &o.GrowthOutlook, &o.InflationTrend, &o.RiskSentiment, &o.Notes, &o.UpdatedAt)
	return o, err
}

// GetOutlook returns nil when the region has no outlook.
func (r *FundamentalRepository) GetOutlook(ctx context.Context, region string) (*domain.RegionOutlook, error) {
	ctx, span := r.tracer.Start(ctx, "fundamental-repo.get-outlook")
	defer span.End()

	o, err := scanOutlook(r.pool.QueryRow(ctx,
		`SELECT `+outlookColumns+` FROM fundamental_outlook WHERE region = $1`, region))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *FundamentalRepository) ListOutlooks(ctx context.Context) ([]domain.RegionOutlook, error) {
	ctx, span := r.tracer.Start(ctx, "fundamental-repo.list-outlooks")
	defer span.End()

	rows, err := r.pool.Query(ctx, `SELECT `+outlookColumns+` FROM fundamental_outlook ORDER BY region`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.RegionOutlook
	for rows.Next() {
		o, err := scanOutlook(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *FundamentalRepository) UpsertOutlook(ctx context.Context, o domain.RegionOutlook) (domain.RegionOutlook, error) {
	ctx, span := r.tracer.Start(ctx, "fundamental-repo.upsert-outlook")
	defer span.End()

	err := r.pool.QueryRow(ctx,
		`INSERT INTO fundamental_outlook (region, cb_stance, growth_outlook, inflation_trend, risk_sentiment, notes)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (region) DO UPDATE SET
		     cb_stance = EXCLUDED.cb_stance,
		     growth_outlook = EXCLUDED.growth_outlook,
		     inflation_trend = EXCLUDED.inflation_trend,
		     risk_sentiment = EXCLUDED.risk_sentiment,
		     notes = EXCLUDED.notes,
		     updated_at = NOW()
		 RETURNING updated_at`,
		o.Region, o.CBStance, o.GrowthOutlook, o.InflationTrend, o.RiskSentiment, o.Notes,
	).Scan(&o.UpdatedAt)
	return o, err
}

// CountHighImpactEvents counts high-impact events dated within [from, to].
func (r *FundamentalRepository) CountHighImpactEvents(ctx context.Context, region string, from, to time.Time) (int, error) {
	ctx, span := r.tracer.Start(ctx, "fundamental-repo.count-high-impact-events")
	defer span.End()

	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM economic_events
		 WHERE region = $1 AND event_date BETWEEN $2 AND $3 AND impact = 'high'`,
		region, from, to,
	).Scan(&n)
	return n, err
}

func (r *FundamentalRepository) ListEvents(ctx context.Context, from, to time.Time) ([]domain.EconomicEvent, error) {
	ctx, span := r.tracer.Start(ctx, "fundamental-repo.list-events")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT id, region, event_date, title, impact
		 FROM economic_events
		 WHERE event_date BETWEEN $1 AND $2
		 ORDER BY event_date, region, id`,
		from, to,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.EconomicEvent
	for rows.Next() {
		var e domain.EconomicEvent
		var impact string
		if err := rows.Scan(&e.ID, &e.Region, &e.EventDate, &e.Title, &impact); err != nil {
			return nil, err
		}
		e.Impact = domain.EventImpact(impact)
		e.EventDate = e.EventDate.UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *FundamentalRepository) AddEvent(ctx context.Context, e domain.EconomicEvent) (domain.EconomicEvent, error) {
	ctx, span := r.tracer.Start(ctx, "fundamental-repo.add-event")
	defer span.End()

	err := r.pool.QueryRow(ctx,
		`INSERT INTO economic_events (region, event_date, title, impact)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		e.Region, e.EventDate, e.Title, string(e.Impact),
	).Scan(&e.ID)
	return e, err
}

// DeleteEvent reports whether a row was removed.
func (r *FundamentalRepository) DeleteEvent(ctx context.Context, id int64) (bool, error) {
	ctx, span := r.tracer.Start(ctx, "fundamental-repo.delete-event")
	defer span.End()

	tag, err := r.pool.Exec(ctx, `DELETE FROM economic_events WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
