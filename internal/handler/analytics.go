package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"

	"longentry/internal/domain"
	"longentry/internal/service"
)

// ListMarkets godoc
// @Summary      List the instrument universe
// @Tags         markets
// @Produce      json
// @Success      200  {array}   domain.Instrument
// @Router       /api/markets [get]
func (h *Handler) ListMarkets(c *gin.Context) {
	if h.svc.Markets == nil {
		unavailable(c, "market")
		return
	}
	c.JSON(http.StatusOK, h.svc.Markets.All())
}

// GetAnalytics godoc
// @Summary      Current week's scores
// @Description  Returns this week's scores ordered by pool then rank, or the latest row per symbol before the week has been analysed
// @Tags         analytics
// @Produce      json
// @Success      200  {array}   domain.WeeklyScore
// @Failure      500  {object}  map[string]string
// @Router       /api/analytics [get]
func (h *Handler) GetAnalytics(c *gin.Context) {
	if h.svc.History == nil {
		unavailable(c, "history")
		return
	}
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-analytics")
	defer span.End()

	rows, err := h.svc.History.Current(ctx)
	if err != nil {
		h.fail(c, span, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(rows))
}

// GetSymbolAnalytics godoc
// @Summary      Current week's score for one symbol
// @Tags         analytics
// @Produce      json
// @Param        symbol  path  string  true  "Instrument symbol (e.g., GER40)"
// @Success      200  {object}  domain.WeeklyScore
// @Failure      404  {object}  map[string]string
// @Router       /api/analytics/{symbol} [get]
func (h *Handler) GetSymbolAnalytics(c *gin.Context) {
	if h.svc.History == nil {
		unavailable(c, "history")
		return
	}
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-symbol-analytics")
	defer span.End()

	symbol := strings.ToUpper(c.Param("symbol"))
	span.SetAttributes(attribute.String("symbol", symbol))

	row, err := h.svc.History.Symbol(ctx, symbol)
	if err != nil {
		h.fail(c, span, err)
		return
	}
	c.JSON(http.StatusOK, row)
}

// GetAllHistory godoc
// @Summary      Score history across all symbols
// @Tags         analytics
// @Produce      json
// @Param        weeks  query  int  false  "Weeks to return (default 12, max 52)"
// @Success      200  {array}   domain.WeeklyScore
// @Failure      400  {object}  map[string]string
// @Router       /api/analytics/history [get]
func (h *Handler) GetAllHistory(c *gin.Context) {
	if h.svc.History == nil {
		unavailable(c, "history")
		return
	}
	weeks, ok := weeksParam(c)
	if !ok {
		return
	}
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-all-history")
	defer span.End()

	rows, err := h.svc.History.AllHistory(ctx, weeks)
	if err != nil {
		h.fail(c, span, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(rows))
}

// GetSymbolHistory godoc
// @Summary      Score history for one symbol
// @Tags         analytics
// @Produce      json
// @Param        symbol  path   string  true   "Instrument symbol"
// @Param        weeks   query  int     false  "Weeks to return (default 52, max 200)"
// @Success      200  {array}   domain.WeeklyScore
// @Failure      404  {object}  map[string]string
// @Router       /api/analytics/history/{symbol} [get]
func (h *Handler) GetSymbolHistory(c *gin.Context) {
	if h.svc.History == nil {
		unavailable(c, "history")
		return
	}
	weeks, ok := weeksParam(c)
	if !ok {
		return
	}
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-symbol-history")
	defer span.End()

	symbol := strings.ToUpper(c.Param("symbol"))
	span.SetAttributes(attribute.String("symbol", symbol))

	rows, err := h.svc.History.SymbolHistory(ctx, symbol, weeks)
	if err != nil {
		h.fail(c, span, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(rows))
}

type runSummary struct {
	Status     string                    `json:"status"`
	RunID      string                    `json:"run_id"`
	WeekStart  string                    `json:"week_start"`
	Analyzed   int                       `json:"analyzed"`
	Failed     int                       `json:"failed"`
	Skipped    []string                  `json:"skipped"`
	Active     []string                  `json:"active"`
	Errors     []service.InstrumentError `json:"errors"`
	DurationMs int64                     `json:"duration_ms"`
}

func summarize(r *service.RunReport, status string) runSummary {
	return runSummary{
		Status:     status,
		RunID:      r.RunID,
		WeekStart:  r.Week.Format(time.DateOnly),
		Analyzed:   len(r.Scores),
		Failed:     len(r.Errors),
		Skipped:    nonNil(r.Skipped),
		Active:     nonNil(r.Active()),
		Errors:     nonNil(r.Errors),
		DurationMs: r.Duration.Milliseconds(),
	}
}

// TriggerAnalysis godoc
// @Summary      Run the weekly analysis now
// @Description  Scores every instrument for the current week. Per-instrument failures are listed in the body; 207 signals that most instruments failed.
// @Tags         analytics
// @Produce      json
// @Success      202  {object}  handler.runSummary
// @Success      207  {object}  handler.runSummary
// @Failure      409  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Security     ApiKeyAuth
// @Router       /api/analytics/run [post]
func (h *Handler) TriggerAnalysis(c *gin.Context) {
	if h.svc.Analysis == nil {
		unavailable(c, "analysis")
		return
	}
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.trigger-analysis")
	defer span.End()

	report, err := h.svc.Analysis.RunOnce(ctx)
	switch {
	case errors.Is(err, domain.ErrMajorityFailed) && report != nil:
		c.JSON(http.StatusMultiStatus, summarize(report, "degraded"))
	case err != nil:
		h.fail(c, span, err)
	case len(report.Errors) > 0:
		c.JSON(http.StatusAccepted, summarize(report, "partial"))
	default:
		c.JSON(http.StatusAccepted, summarize(report, "ok"))
	}
}

// nonNil keeps empty lists serialised as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
