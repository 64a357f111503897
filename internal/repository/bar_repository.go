package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"longentry/internal/domain"
)

type BarRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewBarRepository(pool PgxPool, tracer trace.Tracer) *BarRepository {
	return &BarRepository{pool: pool, tracer: tracer}
}

// InsertBars stores new bars and leaves existing (symbol, timeframe,
// open_time) rows untouched. It returns the number actually inserted.
func (r *BarRepository) InsertBars(ctx context.Context, bars []domain.PriceBar) (int, error) {
	if len(bars) == 0 {
		return 0, nil
	}

	ctx, span := r.tracer.Start(ctx, "bar-repo.insert-bars")
	defer span.End()
	span.SetAttributes(attribute.Int("bars", len(bars)))

	batch := &pgx.Batch{}
	for _, b := range bars {
		batch.Queue(
			`INSERT INTO price_bars (symbol, timeframe, open_time, open, high, low, close, volume)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 ON CONFLICT (symbol, timeframe, open_time) DO NOTHING`,
			b.Symbol, string(b.Timeframe), b.OpenTime.UTC(), b.Open, b.High, b.Low, b.Close, b.Volume,
		)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	inserted := 0
	for i := range bars {
		tag, err := br.Exec()
		if err != nil {
			return inserted, fmt.Errorf("insert bar %d: %w", i, err)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

// GetBars returns bars with open_time >= since in ascending time order.
func (r *BarRepository) GetBars(ctx context.Context, symbol string, tf domain.Timeframe, since time.Time) ([]domain.PriceBar, error) {
	ctx, span := r.tracer.Start(ctx, "bar-repo.get-bars")
	defer span.End()
	span.SetAttributes(attribute.String("symbol", symbol), attribute.String("timeframe", string(tf)))

	rows, err := r.pool.Query(ctx,
		`SELECT symbol, timeframe, open_time, open, high, low, close, volume
		 FROM price_bars
		 WHERE symbol = $1 AND timeframe = $2 AND open_time >= $3
		 ORDER BY open_time ASC`,
		symbol, string(tf), since.UTC(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bars []domain.PriceBar
	for rows.Next() {
		var b domain.PriceBar
		var timeframe string
		if err := rows.Scan(&b.Symbol, &timeframe, &b.OpenTime, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, err
		}
		b.Timeframe = domain.Timeframe(timeframe)
		b.OpenTime = b.OpenTime.UTC()
		bars = append(bars, b)
	}
	return bars, rows.Err()
}
