package service

import (
	"context"
	"errors"
	"testing"

	"longentry/internal/domain"
)

func TestPolicyForUsesDefaults(t *testing.T) {
	svc := NewPolicyService(testTracer, &fakePolicyStore{}, RankingDefaults{
		MaxActive: map[domain.Pool]int{domain.PoolMarkets: 3},
		MinScore:  55,
	})

	p, err := svc.PolicyFor(context.Background(), domain.PoolMarkets)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.MaxActiveFor(domain.PoolMarkets) != 3 || p.MinScore != 55 {
		t.Fatalf("unexpected policy: %+v", p)
	}
	if p.MaxActiveFor(domain.PoolStocks) != 4 {
		t.Fatalf("expected built-in stocks default, got %d", p.MaxActiveFor(domain.PoolStocks))
	}
}

func TestPolicyForStoredRecordWins(t *testing.T) {
	store := &fakePolicyStore{records: map[domain.Pool]domain.RankingPolicyRecord{
		domain.PoolMarkets: {Pool: domain.PoolMarkets, MaxActive: 2, MinFinalScore: 60},
	}}
	svc := NewPolicyService(testTracer, store, RankingDefaults{
		MaxActive: map[domain.Pool]int{domain.PoolMarkets: 9},
		MinScore:  40,
	})

	p, err := svc.PolicyFor(context.Background(), domain.PoolMarkets)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.MaxActiveFor(domain.PoolMarkets) != 2 || p.MinScore != 60 {
		t.Fatalf("expected stored policy, got %+v", p)
	}
}

func TestPolicyForStoreError(t *testing.T) {
	svc := NewPolicyService(testTracer, &fakePolicyStore{getErr: errBoom}, RankingDefaults{})

	if _, err := svc.PolicyFor(context.Background(), domain.PoolMarkets); !errors.Is(err, errBoom) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestPolicySetMaxActive(t *testing.T) {
	store := &fakePolicyStore{}
	svc := NewPolicyService(testTracer, store, RankingDefaults{MinScore: 42})

	p, err := svc.SetMaxActive(context.Background(), domain.PoolStocks, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.MaxActiveFor(domain.PoolStocks) != 1 {
		t.Fatalf("expected new limit, got %d", p.MaxActiveFor(domain.PoolStocks))
	}
	rec := store.records[domain.PoolStocks]
	if rec.MaxActive != 1 || rec.MinFinalScore != 42 {
		t.Fatalf("unexpected stored record: %+v", rec)
	}
}
