package service

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/trace"

	"longentry/internal/domain"
	"longentry/internal/ranking"
)

type PolicyStore interface {
	Get(ctx context.Context, pool domain.Pool) (*domain.RankingPolicyRecord, error)
	Upsert(ctx context.Context, rec domain.RankingPolicyRecord) (domain.RankingPolicyRecord, error)
}

// RankingDefaults seed a pool's policy until one is stored.
type RankingDefaults struct {
	MaxActive map[domain.Pool]int
	MinScore  float64
}

type PolicyService struct {
	tracer   trace.Tracer
	store    PolicyStore
	defaults RankingDefaults
}

func NewPolicyService(tracer trace.Tracer, store PolicyStore, defaults RankingDefaults) *PolicyService {
	return &PolicyService{tracer: tracer, store: store, defaults: defaults}
}

// PolicyFor returns the effective ranking policy of one pool: the stored
// record when present, configured defaults otherwise.
func (s *PolicyService) PolicyFor(ctx context.Context, pool domain.Pool) (ranking.Policy, error) {
	ctx, span := s.tracer.Start(ctx, "policy-service.policy-for")
	defer span.End()

	policy := ranking.DefaultPolicy()
	policy.MinScore = s.defaults.MinScore
	if n, ok := s.defaults.MaxActive[pool]; ok {
		policy = policy.WithMaxActive(pool, n)
	}

	if s.store == nil {
		return policy, nil
	}
	rec, err := s.store.Get(ctx, pool)
	if err != nil {
		return policy, fmt.Errorf("load %s policy: %w", pool, err)
	}
	if rec != nil {
		policy = policy.WithMaxActive(pool, rec.MaxActive)
		policy.MinScore = rec.MinFinalScore
	}
	return policy, nil
}

// SetMaxActive stores a new limit for pool, keeping its current minimum score.
func (s *PolicyService) SetMaxActive(ctx context.Context, pool domain.Pool, n int) (ranking.Policy, error) {
	ctx, span := s.tracer.Start(ctx, "policy-service.set-max-active")
	defer span.End()

	if n < 0 {
		return ranking.Policy{}, fmt.Errorf("max active must be >= 0, got %d", n)
	}
	current, err := s.PolicyFor(ctx, pool)
	if err != nil {
		return ranking.Policy{}, err
	}
	if _, err := s.store.Upsert(ctx, domain.RankingPolicyRecord{Pool: pool, MaxActive: n, MinFinalScore: current.MinScore}); err != nil {
		return ranking.Policy{}, fmt.Errorf("store %s policy: %w", pool, err)
	}
	return current.WithMaxActive(pool, n), nil
}
