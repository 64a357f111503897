package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"

	"longentry/internal/domain"
)

const defaultResultWeeks = 12

type resultRequest struct {
	Symbol          string  `json:"symbol" binding:"required"`
	WeekStart       string  `json:"week_start" binding:"required"`
	TradesTaken     int     `json:"trades_taken"`
	Wins            int     `json:"wins"`
	Losses          int     `json:"losses"`
	TotalPnLPercent float64 `json:"total_pnl_percent"`
}

// ReportResult godoc
// @Summary      Record a realized weekly result
// @Description  Upserts the live trading outcome of one symbol for one week; week_start is normalised to its Monday
// @Tags         results
// @Accept       json
// @Produce      json
// @Param        body  body  resultRequest  true  "Weekly result"
// @Success      200  {object}  domain.WeeklyResult
// @Failure      400  {object}  map[string]string
// @Security     ApiKeyAuth
// @Router       /api/results [post]
func (h *Handler) ReportResult(c *gin.Context) {
	if h.svc.Results == nil {
		unavailable(c, "results")
		return
	}
	var req resultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid body: "+err.Error())
		return
	}
	week, err := parseDate(req.WeekStart)
	if err != nil {
		badRequest(c, "week_start must be YYYY-MM-DD")
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.report-result")
	defer span.End()
	span.SetAttributes(attribute.String("symbol", req.Symbol))

	saved, err := h.svc.Results.Report(ctx, domain.WeeklyResult{
		Symbol:          req.Symbol,
		WeekStart:       week,
		TradesTaken:     req.TradesTaken,
		Wins:            req.Wins,
		Losses:          req.Losses,
		TotalPnLPercent: req.TotalPnLPercent,
	})
	if err != nil {
		h.fail(c, span, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

// GetResults godoc
// @Summary      Weekly result summaries
// @Description  Realized results grouped by week, newest first
// @Tags         results
// @Produce      json
// @Param        weeks  query  int  false  "Weeks to return (default 12)"
// @Success      200  {array}   domain.WeeklyResultSummary
// @Failure      400  {object}  map[string]string
// @Router       /api/results [get]
func (h *Handler) GetResults(c *gin.Context) {
	if h.svc.Results == nil {
		unavailable(c, "results")
		return
	}
	weeks, ok := weeksParam(c)
	if !ok {
		return
	}
	if weeks == 0 {
		weeks = defaultResultWeeks
	}
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-results")
	defer span.End()

	sums, err := h.svc.Results.Summaries(ctx, weeks)
	if err != nil {
		h.fail(c, span, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(sums))
}
