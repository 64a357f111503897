package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"longentry/internal/domain"
	"longentry/internal/job"
	"longentry/internal/service"
)

type AnalysisTrigger interface {
	RunOnce(ctx context.Context) (*service.RunReport, error)
}

type ScoreReader interface {
	Current(ctx context.Context) ([]domain.WeeklyScore, error)
	Symbol(ctx context.Context, symbol string) (*domain.WeeklyScore, error)
	SymbolHistory(ctx context.Context, symbol string, weeks int) ([]domain.WeeklyScore, error)
	AllHistory(ctx context.Context, weeks int) ([]domain.WeeklyScore, error)
}

type ConfigManager interface {
	MarketConfig(ctx context.Context, symbol string) (domain.MarketConfig, error)
	SetOverride(ctx context.Context, symbol string, active *bool) (domain.MarketConfig, error)
	GetMaxActive(ctx context.Context, pool domain.Pool) (domain.MaxActive, error)
	SetMaxActive(ctx context.Context, pool domain.Pool, n int) (domain.MaxActive, error)
}

type HeatmapProvider interface {
	Heatmap(ctx context.Context, symbol string) (*domain.Heatmap, error)
}

type ResultRecorder interface {
	Report(ctx context.Context, res domain.WeeklyResult) (domain.WeeklyResult, error)
	Summaries(ctx context.Context, weeks int) ([]domain.WeeklyResultSummary, error)
}

type BarIngester interface {
	Ingest(ctx context.Context, symbol string, tf domain.Timeframe, bars []domain.PriceBar) (domain.BarIngest, error)
}

type FundamentalManager interface {
	Outlooks(ctx context.Context) ([]domain.RegionOutlook, error)
	UpdateOutlook(ctx context.Context, region string, patch service.OutlookPatch) (domain.RegionOutlook, error)
	Events(ctx context.Context, from, to time.Time) ([]domain.EconomicEvent, error)
	AddEvent(ctx context.Context, e domain.EconomicEvent) (domain.EconomicEvent, error)
	DeleteEvent(ctx context.Context, id int64) error
}

type MarketLister interface {
	All() []domain.Instrument
}

// Services groups the dependencies of the HTTP surface. A nil entry makes
// its routes answer 503.
type Services struct {
	Analysis     AnalysisTrigger
	History      ScoreReader
	Config       ConfigManager
	Heatmaps     HeatmapProvider
	Results      ResultRecorder
	Ingest       BarIngester
	Fundamentals FundamentalManager
	Markets      MarketLister
}

type Handler struct {
	tracer trace.Tracer
	logger *log.Logger
	apiKey string
	svc    Services
}

func New(tracer trace.Tracer, logger *log.Logger, apiKey string, svc Services) *Handler {
	return &Handler{
		tracer: tracer,
		logger: logger,
		apiKey: apiKey,
		svc:    svc,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)

	api := r.Group("/api")
	api.GET("/markets", h.ListMarkets)
	api.GET("/analytics", h.GetAnalytics)
	api.GET("/analytics/history", h.GetAllHistory)
	api.GET("/analytics/history/:symbol", h.GetSymbolHistory)
	api.GET("/analytics/:symbol", h.GetSymbolAnalytics)
	api.GET("/config/max-active/:pool", h.GetMaxActive)
	api.GET("/config/:symbol", h.GetMarketConfig)
	api.GET("/backtest/heatmap/:symbol", h.GetHeatmap)
	api.GET("/results", h.GetResults)
	api.GET("/fundamental", h.GetOutlooks)
	api.GET("/fundamental/events", h.GetEvents)

	// Bar uploads may carry the key in the body instead of the header.
	api.POST("/candles", h.UploadCandles)

	admin := api.Group("", APIKeyAuth(h.apiKey))
	admin.POST("/analytics/run", h.TriggerAnalysis)
	admin.PUT("/config/max-active/:pool", h.SetMaxActive)
	admin.POST("/override/:symbol", h.SetOverride)
	admin.POST("/results", h.ReportResult)
	admin.PUT("/fundamental/:region", h.UpdateOutlook)
	admin.POST("/fundamental/events", h.AddEvent)
	admin.DELETE("/fundamental/events/:id", h.DeleteEvent)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnknownSymbol),
		errors.Is(err, domain.ErrNoData),
		errors.Is(err, domain.ErrNoValidEntryHours):
		return http.StatusNotFound
	case errors.Is(err, job.ErrRunInProgress):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err with its mapped status. Server errors are recorded on the
// span and logged.
func (h *Handler) fail(c *gin.Context, span trace.Span, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		span.RecordError(err)
		h.logger.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "err", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func unavailable(c *gin.Context, what string) {
	c.JSON(http.StatusServiceUnavailable, gin.H{"error": what + " service unavailable"})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// weeksParam reads ?weeks=; absent means 0, which services map to their
// default.
func weeksParam(c *gin.Context) (int, bool) {
	raw := c.Query("weeks")
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		badRequest(c, "weeks must be a non-negative integer")
		return 0, false
	}
	return n, true
}

func parseDate(raw string) (time.Time, error) {
	return time.Parse(time.DateOnly, raw)
}
