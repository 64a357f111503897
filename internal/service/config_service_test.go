package service

import (
	"context"
	"errors"
	"testing"

	"longentry/internal/domain"
	"longentry/internal/numeric"
	"longentry/internal/repository"
)

func newTestConfig(store *fakeConfigStore, policies *fakePolicyStore, results *fakeResultStore) *ConfigService {
	universe := NewUniverse([]domain.Instrument{
		testInstrument("AAA", domain.PoolMarkets),
		testInstrument("BBB", domain.PoolMarkets),
		testInstrument("CCC", domain.PoolMarkets),
	})
	svc := NewConfigService(
		testTracer,
		testLogger,
		universe,
		store,
		NewPolicyService(testTracer, policies, RankingDefaults{MinScore: 40}),
		NewResultService(testTracer, testLogger, universe, results),
	)
	svc.now = fixedNow
	return svc
}

func scored(symbol string, final float64, active, overridden bool) domain.WeeklyScore {
	return domain.WeeklyScore{
		Symbol:               symbol,
		WeekStart:            testWeek,
		Pool:                 domain.PoolMarkets,
		FinalScore:           numeric.Ptr(final),
		IsActive:             active,
		IsManuallyOverridden: overridden,
	}
}

func TestConfigServiceDefaultWhenUnscored(t *testing.T) {
	svc := newTestConfig(&fakeConfigStore{}, &fakePolicyStore{}, &fakeResultStore{})

	cfg, err := svc.MarketConfig(context.Background(), "aaa")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := domain.MarketConfig{Symbol: "AAA", WeekStart: "2026-03-09"}
	if cfg != want {
		t.Fatalf("expected %+v, got %+v", want, cfg)
	}
}

func TestConfigServiceReturnsStoredRow(t *testing.T) {
	stored := &domain.MarketConfig{Symbol: "AAA", Active: true, EntryHour: 9, SLPercent: 0.5, TPPercent: 1, WeekStart: "2026-03-09"}
	svc := newTestConfig(&fakeConfigStore{config: stored}, &fakePolicyStore{}, &fakeResultStore{})

	cfg, err := svc.MarketConfig(context.Background(), "AAA")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg != *stored {
		t.Fatalf("expected stored config, got %+v", cfg)
	}
}

func TestConfigServiceUnknownSymbol(t *testing.T) {
	svc := newTestConfig(&fakeConfigStore{}, &fakePolicyStore{}, &fakeResultStore{})

	if _, err := svc.MarketConfig(context.Background(), "NOPE"); !errors.Is(err, domain.ErrUnknownSymbol) {
		t.Fatalf("expected ErrUnknownSymbol, got %v", err)
	}
}

func TestConfigServiceOverride(t *testing.T) {
	store := &fakeConfigStore{}
	svc := newTestConfig(store, &fakePolicyStore{}, &fakeResultStore{})
	ctx := context.Background()

	if _, err := svc.SetOverride(ctx, "AAA", numeric.Ptr(true)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.SetOverride(ctx, "AAA", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.setCalls) != 1 || !store.setCalls[0] {
		t.Fatalf("expected one pin to active, got %v", store.setCalls)
	}
	if store.clearCalls != 1 {
		t.Fatalf("expected override cleared once, got %d", store.clearCalls)
	}
}

func TestConfigServiceSetMaxActiveReranks(t *testing.T) {
	store := &fakeConfigStore{
		rows: []domain.WeeklyScore{
			scored("AAA", 90, true, true),
			scored("BBB", 80, false, false),
			scored("CCC", 70, true, false),
		},
		active: 2,
	}
	policies := &fakePolicyStore{}
	svc := newTestConfig(store, policies, &fakeResultStore{})

	got, err := svc.SetMaxActive(context.Background(), domain.PoolMarkets, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.MaxActive != 2 || got.ActiveCount != 2 {
		t.Fatalf("unexpected result: %+v", got)
	}
	if len(policies.upserted) != 1 || policies.upserted[0].MinFinalScore != 40 {
		t.Fatalf("expected policy stored with current min score, got %+v", policies.upserted)
	}

	want := []repository.Activation{{Symbol: "BBB", Active: true}, {Symbol: "CCC", Active: false}}
	if len(store.updates) != len(want) {
		t.Fatalf("expected %d updates, got %+v", len(want), store.updates)
	}
	for i := range want {
		if store.updates[i] != want[i] {
			t.Fatalf("update %d: expected %+v, got %+v", i, want[i], store.updates[i])
		}
	}
}

func TestConfigServiceSetMaxActiveCountsUnscoredPin(t *testing.T) {
	pin := scored("CCC", 0, true, true)
	pin.FinalScore = nil
	store := &fakeConfigStore{
		rows: []domain.WeeklyScore{
			scored("AAA", 90, true, false),
			scored("BBB", 80, false, false),
			pin,
		},
		active: 1,
	}
	svc := newTestConfig(store, &fakePolicyStore{}, &fakeResultStore{})

	if _, err := svc.SetMaxActive(context.Background(), domain.PoolMarkets, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []repository.Activation{{Symbol: "AAA", Active: false}, {Symbol: "BBB", Active: false}}
	if len(store.updates) != len(want) {
		t.Fatalf("expected %d updates, got %+v", len(want), store.updates)
	}
	for i := range want {
		if store.updates[i] != want[i] {
			t.Fatalf("update %d: expected %+v, got %+v", i, want[i], store.updates[i])
		}
	}
}

func TestConfigServiceSetMaxActiveValidates(t *testing.T) {
	svc := newTestConfig(&fakeConfigStore{}, &fakePolicyStore{}, &fakeResultStore{})
	ctx := context.Background()

	if _, err := svc.SetMaxActive(ctx, domain.PoolMarkets, -1); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for negative limit, got %v", err)
	}
	if _, err := svc.SetMaxActive(ctx, domain.Pool("crypto"), 3); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown pool, got %v", err)
	}
}

func TestConfigServiceGetMaxActive(t *testing.T) {
	policies := &fakePolicyStore{records: map[domain.Pool]domain.RankingPolicyRecord{
		domain.PoolStocks: {Pool: domain.PoolStocks, MaxActive: 7, MinFinalScore: 45},
	}}
	svc := newTestConfig(&fakeConfigStore{active: 3}, policies, &fakeResultStore{})

	got, err := svc.GetMaxActive(context.Background(), domain.PoolStocks)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := domain.MaxActive{Pool: domain.PoolStocks, MaxActive: 7, ActiveCount: 3}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}
