package repository

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"longentry/internal/domain"
	"longentry/internal/numeric"
)

var week = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func TestUpsertScoresPreservesOverrideFromDatabase(t *testing.T) {
	pool := &fakePool{results: &fakeBatchResults{rows: []fakeRow{
		{values: []any{true, false}},
		{values: []any{true, true}},
	}}}
	repo := NewAnalysisRepository(pool, testTracer())

	scores := []domain.WeeklyScore{
		{
			Symbol:         "GER40",
			WeekStart:      week,
			Pool:           domain.PoolMarkets,
			TechnicalScore: numeric.Ptr(62.5),
			FinalScore:     numeric.Ptr(58.1),
			Rank:           numeric.Ptr(1),
			IsActive:       true,
			Optimal:        &domain.OptimalParameters{EntryHour: 9, StopLossPct: 0.5, TakeProfitPct: 1.0},
			Backtest:       &domain.SimulationResult{TotalReturn: 4.2, WinRate: 55, ProfitFactor: 1.4, MaxDrawdown: 2.1, TotalTrades: 40, Wins: 22, Losses: 18},
			Metrics:        &domain.TechnicalMetrics{CurrentPrice: 18000},
		},
		{Symbol: "UK100", WeekStart: week, Pool: domain.PoolMarkets, IsActive: false},
	}

	if err := repo.UpsertScores(context.Background(), scores); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !scores[1].IsActive || !scores[1].IsManuallyOverridden {
		t.Fatalf("stored override state must be written back, got %+v", scores[1])
	}

	q := pool.batch.QueuedQueries[0]
	if !strings.Contains(q.SQL, "WHEN weekly_analysis.is_manually_overridden THEN weekly_analysis.is_active") {
		t.Fatal("upsert must keep pinned activation")
	}
	if len(q.Arguments) != 24 {
		t.Fatalf("expected 24 arguments, got %d", len(q.Arguments))
	}
	if h := q.Arguments[12].(*int); h == nil || *h != 9 {
		t.Fatalf("expected entry hour 9, got %v", q.Arguments[12])
	}
	var m domain.TechnicalMetrics
	if err := json.Unmarshal(q.Arguments[23].([]byte), &m); err != nil || m.CurrentPrice != 18000 {
		t.Fatalf("expected encoded metrics, got %v (%v)", q.Arguments[23], err)
	}

	bare := pool.batch.QueuedQueries[1]
	if bare.Arguments[12].(*int) != nil || bare.Arguments[19].(*int) != nil || bare.Arguments[23].([]byte) != nil {
		t.Fatal("missing optimal, backtest and metrics must be written as NULL")
	}
}

func TestUpsertScoresEmpty(t *testing.T) {
	pool := &fakePool{}
	if err := NewAnalysisRepository(pool, testTracer()).UpsertScores(context.Background(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pool.batch != nil {
		t.Fatal("no batch expected")
	}
}

func scoreRow(symbol string, rank any, hour any, trades any, metrics any) []any {
	return []any{
		symbol, week, "markets", 60.0, 45.0, 50.0,
		nil, nil, nil, 55.0, rank, true, false,
		hour, 0.5, 1.0,
		3.2, 52.0, 1.3, 2.0, trades, 21, 19,
		80.0, metrics,
	}
}

func TestListWeekScansNullableColumns(t *testing.T) {
	metrics, _ := json.Marshal(domain.TechnicalMetrics{CurrentPrice: 101.5, CandleCount: 400})
	pool := &fakePool{rows: &fakeRows{data: [][]any{
		scoreRow("GER40", 1, 9, 40, metrics),
		scoreRow("UK100", nil, nil, nil, nil),
	}}}
	repo := NewAnalysisRepository(pool, testTracer())

	scores, err := repo.ListWeek(context.Background(), week)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(scores) != 2 {
		t.Fatalf("expected 2 scores, got %d", len(scores))
	}

	ger := scores[0]
	if ger.Rank == nil || *ger.Rank != 1 || ger.Pool != domain.PoolMarkets {
		t.Fatalf("unexpected rank/pool: %+v", ger)
	}
	if ger.Optimal == nil || ger.Optimal.EntryHour != 9 || ger.Optimal.TakeProfitPct != 1.0 {
		t.Fatalf("unexpected optimal: %+v", ger.Optimal)
	}
	if ger.Backtest == nil || ger.Backtest.TotalTrades != 40 || ger.Backtest.Wins != 21 {
		t.Fatalf("unexpected backtest: %+v", ger.Backtest)
	}
	if ger.Metrics == nil || ger.Metrics.CandleCount != 400 {
		t.Fatalf("unexpected metrics: %+v", ger.Metrics)
	}

	uk := scores[1]
	if uk.Rank != nil || uk.Optimal != nil || uk.Backtest != nil || uk.Metrics != nil {
		t.Fatalf("null columns must stay nil: %+v", uk)
	}
	if !strings.Contains(pool.querySQL, "ORDER BY pool, rank NULLS LAST, symbol") {
		t.Fatalf("unexpected ordering: %s", pool.querySQL)
	}
}

func TestGetAndMarketConfigMissingRow(t *testing.T) {
	pool := &fakePool{row: fakeRow{err: pgx.ErrNoRows}}
	repo := NewAnalysisRepository(pool, testTracer())

	s, err := repo.Get(context.Background(), "GER40", week)
	if err != nil || s != nil {
		t.Fatalf("expected nil, nil for missing row, got %v %v", s, err)
	}
	cfg, err := repo.MarketConfig(context.Background(), "GER40", week)
	if err != nil || cfg != nil {
		t.Fatalf("expected nil, nil for missing config, got %v %v", cfg, err)
	}
	h, err := repo.LatestOptimalHour(context.Background(), "GER40")
	if err != nil || h != nil {
		t.Fatalf("expected nil, nil for missing hour, got %v %v", h, err)
	}
}

func TestMarketConfigOverrideOnlyRow(t *testing.T) {
	pool := &fakePool{row: fakeRow{values: []any{true, nil, nil, nil, nil}}}
	repo := NewAnalysisRepository(pool, testTracer())

	cfg, err := repo.MarketConfig(context.Background(), "GER40", week)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := domain.MarketConfig{Symbol: "GER40", Active: true, WeekStart: "2026-03-02"}
	if *cfg != want {
		t.Fatalf("expected %+v, got %+v", want, *cfg)
	}
}

func TestOptimalHistory(t *testing.T) {
	pool := &fakePool{rows: &fakeRows{data: [][]any{{9, 0.5, 1.0}, {10, 0.3, 0.8}}}}
	repo := NewAnalysisRepository(pool, testTracer())

	got, err := repo.OptimalHistory(context.Background(), "GER40", week, 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[1] != (domain.OptimalParameters{EntryHour: 10, StopLossPct: 0.3, TakeProfitPct: 0.8}) {
		t.Fatalf("unexpected history: %+v", got)
	}
	if !strings.Contains(pool.querySQL, "week_start < $2") || pool.queryArgs[2] != 8 {
		t.Fatalf("history must exclude the current week and honour the limit: %s %v", pool.querySQL, pool.queryArgs)
	}
}

func TestOverridesAndActivation(t *testing.T) {
	pool := &fakePool{rows: &fakeRows{data: [][]any{{"GER40", true}, {"HK50", false}}}}
	repo := NewAnalysisRepository(pool, testTracer())

	pins, err := repo.Overrides(context.Background(), week)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pins) != 2 || !pins["GER40"] || pins["HK50"] {
		t.Fatalf("unexpected pins: %v", pins)
	}

	err = repo.UpdateActivation(context.Background(), week, []Activation{{Symbol: "UK100", Active: true}, {Symbol: "FRA40"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pool.batch.Len() != 2 {
		t.Fatalf("expected 2 updates, got %d", pool.batch.Len())
	}
	if !strings.Contains(pool.batch.QueuedQueries[0].SQL, "NOT is_manually_overridden") {
		t.Fatal("activation updates must skip overridden rows")
	}
}

func TestAIAssessmentsReadsStoredColumns(t *testing.T) {
	pool := &fakePool{rows: &fakeRows{data: [][]any{
		{"GER40", 80.0, 0.7, "bullish"},
		{"UK100", 65.0, nil, nil},
	}}}
	repo := NewAnalysisRepository(pool, testTracer())

	got, err := repo.AIAssessments(context.Background(), week)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 assessments, got %d", len(got))
	}
	ger := got["GER40"]
	if ger.Score != 80 || ger.Confidence == nil || *ger.Confidence != 0.7 || ger.Bias == nil || *ger.Bias != "bullish" {
		t.Fatalf("unexpected GER40 assessment: %+v", ger)
	}
	if uk := got["UK100"]; uk.Score != 65 || uk.Confidence != nil || uk.Bias != nil {
		t.Fatalf("unexpected UK100 assessment: %+v", uk)
	}
	if !strings.Contains(pool.querySQL, "ai_score IS NOT NULL") || pool.queryArgs[0] != week {
		t.Fatalf("unexpected query: %s %v", pool.querySQL, pool.queryArgs)
	}
}

func TestUpsertKeepsStoredAIAssessment(t *testing.T) {
	for _, col := range []string{"ai_score", "ai_confidence", "ai_bias"} {
		want := col + " = COALESCE(EXCLUDED." + col + ", weekly_analysis." + col + ")"
		if !strings.Contains(upsertScore, want) {
			t.Errorf("upsert must not null out %s: missing %q", col, want)
		}
	}
}

func TestSetAndClearOverride(t *testing.T) {
	pool := &fakePool{}
	repo := NewAnalysisRepository(pool, testTracer())

	if err := repo.SetOverride(context.Background(), "GER40", domain.PoolMarkets, week, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.ClearOverride(context.Background(), "GER40", week); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pool.execSQL) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(pool.execSQL))
	}
	if !strings.Contains(pool.execSQL[0], "is_manually_overridden = true") || pool.execArgs[0][3] != false {
		t.Fatalf("unexpected set override: %s %v", pool.execSQL[0], pool.execArgs[0])
	}
	if !strings.Contains(pool.execSQL[1], "is_manually_overridden = false") {
		t.Fatalf("unexpected clear override: %s", pool.execSQL[1])
	}
}
