package config

import (
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
)

type Config struct {
	DatabaseURL string
	RedisURL    string
	APIKey      string
	HTTPAddr    string

	UniverseFile string

	AnalysisCron    string
	AnalysisWorkers int
	SweepWorkers    int
	BarLookbackDays int

	MaxActiveMarkets int
	MaxActiveStocks  int
	MinFinalScore    float64

	HeatmapCacheTTLSecs int

	TracingEnabled bool
	OTLPEndpoint   string
}

func Load() *Config {
	cfg := &Config{
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		RedisURL:     os.Getenv("REDIS_URL"),
		APIKey:       os.Getenv("API_KEY"),
		HTTPAddr:     strings.TrimSpace(os.Getenv("HTTP_ADDR")),
		UniverseFile: strings.TrimSpace(os.Getenv("UNIVERSE_FILE")),
		AnalysisCron: strings.TrimSpace(os.Getenv("ANALYSIS_CRON")),
	}

	if cfg.DatabaseURL == "" {
		log.Warn("DATABASE_URL not set")
	}
	if cfg.RedisURL == "" {
		log.Warn("REDIS_URL not set, defaulting to localhost:6379")
		cfg.RedisURL = "localhost:6379"
	}
	if cfg.APIKey == "" {
		log.Warn("API_KEY not set, mutating endpoints will reject every request")
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}
	if cfg.AnalysisCron == "" {
		// Saturday 06:00 UTC, after the weekly close.
		cfg.AnalysisCron = "0 6 * * 6"
	}

	cfg.TracingEnabled = !strings.EqualFold(strings.TrimSpace(os.Getenv("TRACING_ENABLED")), "false")
	cfg.OTLPEndpoint = strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"))

	positive := func(n int) bool { return n > 0 }
	cfg.AnalysisWorkers = envInt("ANALYSIS_WORKERS", runtime.NumCPU(), positive)
	cfg.SweepWorkers = envInt("SWEEP_WORKERS", runtime.NumCPU(), positive)
	cfg.BarLookbackDays = envInt("BAR_LOOKBACK_DAYS", 730, positive)
	cfg.HeatmapCacheTTLSecs = envInt("HEATMAP_CACHE_TTL_SECS", 3600, positive)

	nonNegative := func(n int) bool { return n >= 0 }
	cfg.MaxActiveMarkets = envInt("MAX_ACTIVE_MARKETS", 6, nonNegative)
	cfg.MaxActiveStocks = envInt("MAX_ACTIVE_STOCKS", 4, nonNegative)

	cfg.MinFinalScore = 40
	if v := strings.TrimSpace(os.Getenv("MIN_FINAL_SCORE")); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n >= 0 && n <= 100 {
			cfg.MinFinalScore = n
		} else {
			log.Warn("invalid MIN_FINAL_SCORE, using default", "value", v, "default", cfg.MinFinalScore)
		}
	}

	return cfg
}

func envInt(name string, def int, valid func(int) bool) int {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || !valid(n) {
		log.Warn("invalid value, using default", "var", name, "value", v, "default", def)
		return def
	}
	return n
}
