package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	_ "longentry/docs"
	"longentry/internal/cache"
	"longentry/internal/config"
	"longentry/internal/db"
	"longentry/internal/domain"
	"longentry/internal/fundamental"
	"longentry/internal/handler"
	"longentry/internal/job"
	"longentry/internal/repository"
	"longentry/internal/service"
	"longentry/pkg/logging"
	"longentry/pkg/tracing"
)

var (
	loadEnvFunc            = godotenv.Load
	loadConfigFunc         = config.Load
	loadUniverseFunc       = config.LoadUniverse
	initPostgresFunc       = db.InitPostgres
	initRedisFunc          = cache.InitRedis
	initTracerFunc         = tracing.Init
	newHandlerFunc         = handler.New
	newRouterFunc          = gin.Default
	startJobFunc           = func(j *job.WeeklyAnalysisJob, ctx context.Context) { go j.Start(ctx) }
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
	exitFunc               = os.Exit
)

// @title           Long Entry API
// @version         1.0
// @description     Weekly market ranking and long-entry parameter optimisation.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
func main() {
	exitFunc(run())
}

func run() int {
	envErr := loadEnvFunc()
	logger := logging.New("server")
	if envErr != nil {
		logger.Debug("no .env loaded", "err", envErr)
	}

	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	instruments, err := loadUniverseFunc(cfg.UniverseFile)
	if err != nil {
		logger.Error("failed to load instrument universe", "path", cfg.UniverseFile, "err", err)
		return 1
	}
	universe := service.NewUniverse(instruments)

	tp, tracer, err := initTracerFunc(ctx, tracing.Options{
		Enabled:   cfg.TracingEnabled,
		Endpoint:  cfg.OTLPEndpoint,
		Component: "server",
	})
	if err != nil {
		logger.Error("failed to initialize tracer", "err", err)
		return 1
	}
	defer func() {
		if err := tracing.Shutdown(tp, 5*time.Second); err != nil {
			logger.Warn("error shutting down tracer provider", "err", err)
		}
	}()

	if err := initPostgresFunc(ctx, cfg.DatabaseURL, cfg.AnalysisWorkers); err != nil {
		logger.Error("failed to connect to postgres", "err", err)
		return 1
	}
	defer db.Close()

	var redisClient cache.RedisClient
	if err := initRedisFunc(ctx, cfg.RedisURL); err != nil {
		logger.Warn("redis unavailable, heatmaps will not be cached", "err", err)
	} else if cache.Client != nil {
		redisClient = cache.Client
	}

	analysisRepo := repository.NewAnalysisRepository(db.Pool, tracer)
	barRepo := repository.NewBarRepository(db.Pool, tracer)
	fundamentalRepo := repository.NewFundamentalRepository(db.Pool, tracer)
	policyRepo := repository.NewPolicyRepository(db.Pool, tracer)
	resultRepo := repository.NewResultRepository(db.Pool, tracer)

	policies := service.NewPolicyService(tracer, policyRepo, service.RankingDefaults{
		MaxActive: map[domain.Pool]int{
			domain.PoolMarkets: cfg.MaxActiveMarkets,
			domain.PoolStocks:  cfg.MaxActiveStocks,
		},
		MinScore: cfg.MinFinalScore,
	})
	results := service.NewResultService(tracer, logging.New("results"), universe, resultRepo)
	scorer := fundamental.NewScorer(fundamentalRepo, logging.New("fundamental"))

	analysis := service.NewAnalysisService(
		tracer,
		logging.New("analysis"),
		universe,
		barRepo,
		analysisRepo,
		scorer,
		policies,
		results,
		service.AnalysisConfig{
			Workers:         cfg.AnalysisWorkers,
			SweepWorkers:    cfg.SweepWorkers,
			BarLookbackDays: cfg.BarLookbackDays,
		},
	)
	heatmaps := service.NewHeatmapService(
		tracer,
		logging.New("heatmap"),
		universe,
		barRepo,
		analysisRepo,
		redisClient,
		service.HeatmapConfig{
			CacheTTL:        time.Duration(cfg.HeatmapCacheTTLSecs) * time.Second,
			SweepWorkers:    cfg.SweepWorkers,
			BarLookbackDays: cfg.BarLookbackDays,
		},
	)

	weekly, err := job.NewWeeklyAnalysisJob(tracer, logging.New("job"), analysis, heatmaps, cfg.AnalysisCron)
	if err != nil {
		logger.Error("invalid analysis schedule", "cron", cfg.AnalysisCron, "err", err)
		return 1
	}
	startJobFunc(weekly, ctx)

	h := newHandlerFunc(tracer, logging.New("http"), cfg.APIKey, handler.Services{
		Analysis:     weekly,
		History:      service.NewHistoryService(tracer, universe, analysisRepo),
		Config:       service.NewConfigService(tracer, logging.New("config"), universe, analysisRepo, policies, results),
		Heatmaps:     heatmaps,
		Results:      results,
		Ingest:       service.NewIngestService(tracer, logging.New("ingest"), universe, barRepo),
		Fundamentals: service.NewFundamentalService(tracer, fundamentalRepo),
		Markets:      universe,
	})

	r := newRouterFunc()
	r.Use(otelgin.Middleware(tracing.ServiceName))

	h.RegisterRoutes(r)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := startHTTPServerFunc(srv); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()
	logger.Info("listening", "addr", cfg.HTTPAddr, "instruments", universe.Len())

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	signalled := make(chan struct{})
	go func() {
		waitForSignalFunc(quit)
		close(signalled)
	}()

	select {
	case err := <-serveErr:
		logger.Error("listen", "err", err)
		return 1
	case <-signalled:
	}
	logger.Info("shutting down server")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "err", err)
		return 1
	}

	logger.Info("server exiting")
	return 0
}
