package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type memClient struct {
	data    map[string]string
	ttls    map[string]time.Duration
	getErr  error
	setErr  error
	deleted []string
}

func newMemClient() *memClient {
	return &memClient{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	if m.setErr != nil {
		return redis.NewStatusResult("", m.setErr)
	}
	switch v := value.(type) {
	case []byte:
		m.data[key] = string(v)
	case string:
		m.data[key] = v
	}
	m.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (m *memClient) Get(ctx context.Context, key string) *redis.StringCmd {
	if m.getErr != nil {
		return redis.NewStringResult("", m.getErr)
	}
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *memClient) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, k := range keys {
		delete(m.data, k)
	}
	m.deleted = append(m.deleted, keys...)
	return redis.NewIntResult(int64(len(keys)), nil)
}

type payload struct {
	Symbol string  `json:"symbol"`
	Score  float64 `json:"score"`
}

func TestJSONRoundTripAndTTL(t *testing.T) {
	ctx := context.Background()
	c := newMemClient()

	if err := SetJSON(ctx, c, "heatmap:GER40", payload{Symbol: "GER40", Score: 61.5}, time.Hour); err != nil {
		t.Fatalf("unexpected set error: %v", err)
	}
	if c.ttls["heatmap:GER40"] != time.Hour {
		t.Fatalf("expected ttl to be forwarded, got %v", c.ttls["heatmap:GER40"])
	}

	var got payload
	found, err := GetJSON(ctx, c, "heatmap:GER40", &got)
	if err != nil || !found {
		t.Fatalf("expected hit, got found=%v err=%v", found, err)
	}
	if got.Symbol != "GER40" || got.Score != 61.5 {
		t.Fatalf("unexpected value: %+v", got)
	}
}

func TestGetJSONMissAndErrors(t *testing.T) {
	ctx := context.Background()
	c := newMemClient()

	var got payload
	found, err := GetJSON(ctx, c, "missing", &got)
	if err != nil || found {
		t.Fatalf("expected clean miss, got found=%v err=%v", found, err)
	}

	c.data["corrupt"] = "{not json"
	if _, err := GetJSON(ctx, c, "corrupt", &got); err == nil {
		t.Fatal("expected decode error")
	}

	c.getErr = errors.New("connection reset")
	if _, err := GetJSON(ctx, c, "missing", &got); err == nil {
		t.Fatal("expected transport error")
	}
}
