package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/trace"

	"longentry/internal/domain"
)

type PolicyRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewPolicyRepository(pool PgxPool, tracer trace.Tracer) *PolicyRepository {
	return &PolicyRepository{pool: pool, tracer: tracer}
}

// Get returns nil when no policy has been stored for the pool.
func (r *PolicyRepository) Get(ctx context.Context, pool domain.Pool) (*domain.RankingPolicyRecord, error) {
	ctx, span := r.tracer.Start(ctx, "policy-repo.get")
	defer span.End()

	rec := domain.RankingPolicyRecord{Pool: pool}
	err := r.pool.QueryRow(ctx,
		`SELECT max_active, min_final_score, updated_at FROM ranking_policies WHERE pool = $1`,
		string(pool),
	).Scan(&rec.MaxActive, &rec.MinFinalScore, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *PolicyRepository) Upsert(ctx context.Context, rec domain.RankingPolicyRecord) (domain.RankingPolicyRecord, error) {
	ctx, span := r.tracer.Start(ctx, "policy-repo.upsert")
	defer span.End()

	err := r.pool.QueryRow(ctx,
		`INSERT INTO ranking_policies (pool, max_active, min_final_score)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (pool) DO UPDATE SET
		     max_active = EXCLUDED.max_active,
		     min_final_score = EXCLUDED.min_final_score,
		     updated_at = NOW()
		 RETURNING updated_at`,
		string(rec.Pool), rec.MaxActive, rec.MinFinalScore,
	).Scan(&rec.UpdatedAt)
	return rec, err
}
