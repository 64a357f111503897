package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace/noop"

	"longentry/internal/domain"
	"longentry/internal/repository"
)

var (
	testTracer = noop.NewTracerProvider().Tracer("test")
	testLogger = log.New(io.Discard)

	// Wednesday of the week starting 2026-03-09.
	testNow  = time.Date(2026, 3, 11, 15, 0, 0, 0, time.UTC)
	testWeek = time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
)

func fixedNow() time.Time { return testNow }

func testInstrument(symbol string, pool domain.Pool) domain.Instrument {
	return domain.Instrument{
		Symbol:     symbol,
		Pool:       pool,
		AssetClass: domain.AssetClassDefault,
		Region:     "US",
		Spread:     0.5,
		Session:    domain.SessionWindow{Start: 8, End: 20},
		SLGrid:     []float64{0.5, 1.0},
		TPGrid:     []float64{1.0, 2.0},
	}
}

// syntheticBars is a deterministic oscillating walk over 08:00-20:00 UTC
// for the given number of days ending before testNow.
func syntheticBars(symbol string, days int) []domain.PriceBar {
	start := testWeek.AddDate(0, 0, -days)
	bars := make([]domain.PriceBar, 0, days*13)
	price := 100.0
	for d := 0; d < days; d++ {
		for h := 8; h <= 20; h++ {
			k := float64(d*24 + h)
			drift := math.Sin(k/7)*0.6 + math.Cos(k/3)*0.3
			o := price
			c := o * (1 + drift/100)
			bars = append(bars, domain.PriceBar{
				Symbol:    symbol,
				Timeframe: domain.TimeframeH1,
				OpenTime:  start.AddDate(0, 0, d).Add(time.Duration(h) * time.Hour),
				Open:      o,
				High:      math.Max(o, c) * 1.003,
				Low:       math.Min(o, c) * 0.997,
				Close:     c,
				Volume:    1000,
			})
			price = c
		}
	}
	return bars
}

type fakeBars struct {
	h1  map[string][]domain.PriceBar
	err error

	mu    sync.Mutex
	calls int
}

func (f *fakeBars) GetBars(ctx context.Context, symbol string, tf domain.Timeframe, since time.Time) ([]domain.PriceBar, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if tf != domain.TimeframeH1 {
		return nil, nil
	}
	return f.h1[symbol], nil
}

type fakeScoreStore struct {
	overrides map[string]bool
	history   map[string][]domain.OptimalParameters
	ai        map[string]domain.AIAssessment
	upsertErr error

	upserted []domain.WeeklyScore
}

func (f *fakeScoreStore) UpsertScores(ctx context.Context, scores []domain.WeeklyScore) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserted = append(f.upserted, scores...)
	return nil
}

func (f *fakeScoreStore) OptimalHistory(ctx context.Context, symbol string, week time.Time, limit int) ([]domain.OptimalParameters, error) {
	return f.history[symbol], nil
}

func (f *fakeScoreStore) Overrides(ctx context.Context, week time.Time) (map[string]bool, error) {
	return f.overrides, nil
}

func (f *fakeScoreStore) AIAssessments(ctx context.Context, week time.Time) (map[string]domain.AIAssessment, error) {
	return f.ai, nil
}

type fakeFundamentals struct {
	scores map[string]float64
	err    error
}

func (f *fakeFundamentals) ScoreInstrument(ctx context.Context, inst domain.Instrument, week time.Time) (float64, error) {
	if f.err != nil {
		return 0, f.err
	}
	if s, ok := f.scores[inst.Symbol]; ok {
		return s, nil
	}
	return 50, nil
}

type fakePolicyStore struct {
	records  map[domain.Pool]domain.RankingPolicyRecord
	getErr   error
	upserted []domain.RankingPolicyRecord
}

func (f *fakePolicyStore) Get(ctx context.Context, pool domain.Pool) (*domain.RankingPolicyRecord, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	rec, ok := f.records[pool]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (f *fakePolicyStore) Upsert(ctx context.Context, rec domain.RankingPolicyRecord) (domain.RankingPolicyRecord, error) {
	if f.records == nil {
		f.records = make(map[domain.Pool]domain.RankingPolicyRecord)
	}
	rec.UpdatedAt = testNow
	f.records[rec.Pool] = rec
	f.upserted = append(f.upserted, rec)
	return rec, nil
}

type fakeResultStore struct {
	results []domain.WeeklyResult
	saved   []domain.WeeklyResult
	since   time.Time
}

func (f *fakeResultStore) Upsert(ctx context.Context, res domain.WeeklyResult) (domain.WeeklyResult, error) {
	f.saved = append(f.saved, res)
	return res, nil
}

func (f *fakeResultStore) Since(ctx context.Context, since time.Time) ([]domain.WeeklyResult, error) {
	f.since = since
	var out []domain.WeeklyResult
	for _, r := range f.results {
		if !r.WeekStart.Before(since) {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeConfigStore struct {
	config  *domain.MarketConfig
	rows    []domain.WeeklyScore
	active  int
	updates []repository.Activation

	setCalls   []bool
	clearCalls int
}

func (f *fakeConfigStore) MarketConfig(ctx context.Context, symbol string, week time.Time) (*domain.MarketConfig, error) {
	return f.config, nil
}

func (f *fakeConfigStore) SetOverride(ctx context.Context, symbol string, pool domain.Pool, week time.Time, active bool) error {
	f.setCalls = append(f.setCalls, active)
	return nil
}

func (f *fakeConfigStore) ClearOverride(ctx context.Context, symbol string, week time.Time) error {
	f.clearCalls++
	return nil
}

func (f *fakeConfigStore) ListWeek(ctx context.Context, week time.Time) ([]domain.WeeklyScore, error) {
	return f.rows, nil
}

func (f *fakeConfigStore) UpdateActivation(ctx context.Context, week time.Time, updates []repository.Activation) error {
	f.updates = updates
	return nil
}

func (f *fakeConfigStore) CountActive(ctx context.Context, week time.Time, pool domain.Pool) (int, error) {
	return f.active, nil
}

type fakeHistoryStore struct {
	week   []domain.WeeklyScore
	latest []domain.WeeklyScore
	row    *domain.WeeklyScore

	limit int
	since time.Time
}

func (f *fakeHistoryStore) ListWeek(ctx context.Context, week time.Time) ([]domain.WeeklyScore, error) {
	return f.week, nil
}

func (f *fakeHistoryStore) Latest(ctx context.Context) ([]domain.WeeklyScore, error) {
	return f.latest, nil
}

func (f *fakeHistoryStore) Get(ctx context.Context, symbol string, week time.Time) (*domain.WeeklyScore, error) {
	return f.row, nil
}

func (f *fakeHistoryStore) SymbolHistory(ctx context.Context, symbol string, limit int) ([]domain.WeeklyScore, error) {
	f.limit = limit
	return nil, nil
}

func (f *fakeHistoryStore) HistorySince(ctx context.Context, since time.Time) ([]domain.WeeklyScore, error) {
	f.since = since
	return nil, nil
}

type fakeHours struct {
	hour *int
}

func (f fakeHours) LatestOptimalHour(ctx context.Context, symbol string) (*int, error) {
	return f.hour, nil
}

type fakeSink struct {
	inserted int
	got      []domain.PriceBar
}

func (f *fakeSink) InsertBars(ctx context.Context, bars []domain.PriceBar) (int, error) {
	f.got = bars
	return f.inserted, nil
}

type fakeFundamentalStore struct {
	outlooks map[string]domain.RegionOutlook
	events   []domain.EconomicEvent
	nextID   int64
}

func (f *fakeFundamentalStore) GetOutlook(ctx context.Context, region string) (*domain.RegionOutlook, error) {
	o, ok := f.outlooks[region]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

func (f *fakeFundamentalStore) ListOutlooks(ctx context.Context) ([]domain.RegionOutlook, error) {
	var out []domain.RegionOutlook
	for _, o := range f.outlooks {
		out = append(out, o)
	}
	return out, nil
}

func (f *fakeFundamentalStore) UpsertOutlook(ctx context.Context, o domain.RegionOutlook) (domain.RegionOutlook, error) {
	if f.outlooks == nil {
		f.outlooks = make(map[string]domain.RegionOutlook)
	}
	o.UpdatedAt = testNow
	f.outlooks[o.Region] = o
	return o, nil
}

func (f *fakeFundamentalStore) ListEvents(ctx context.Context, from, to time.Time) ([]domain.EconomicEvent, error) {
	return f.events, nil
}

func (f *fakeFundamentalStore) AddEvent(ctx context.Context, e domain.EconomicEvent) (domain.EconomicEvent, error) {
	f.nextID++
	e.ID = f.nextID
	f.events = append(f.events, e)
	return e, nil
}

func (f *fakeFundamentalStore) DeleteEvent(ctx context.Context, id int64) (bool, error) {
	for i, e := range f.events {
		if e.ID == id {
			f.events = append(f.events[:i], f.events[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

type fakeRedis struct {
	data   map[string][]byte
	setErr error
	getErr error

	gets    int
	deleted []string
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: make(map[string][]byte)}
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	if f.setErr != nil {
		return redis.NewStatusResult("", f.setErr)
	}
	switch v := value.(type) {
	case []byte:
		f.data[key] = append([]byte(nil), v...)
	case string:
		f.data[key] = []byte(v)
	default:
		bytes, _ := json.Marshal(v)
		f.data[key] = bytes
	}
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	f.gets++
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	if v, ok := f.data[key]; ok {
		return redis.NewStringResult(string(v), nil)
	}
	return redis.NewStringResult("", redis.Nil)
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		f.deleted = append(f.deleted, k)
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

var errBoom = errors.New("boom")
