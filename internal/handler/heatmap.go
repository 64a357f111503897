package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// GetHeatmap godoc
// @Summary      Stop/target heatmap for one symbol
// @Description  Full stop-loss by take-profit grid at the optimal entry hour, plus per-hour returns at the median grid point
// @Tags         backtest
// @Produce      json
// @Param        symbol  path  string  true  "Instrument symbol"
// @Success      200  {object}  domain.Heatmap
// @Failure      404  {object}  map[string]string
// @Router       /api/backtest/heatmap/{symbol} [get]
func (h *Handler) GetHeatmap(c *gin.Context) {
	if h.svc.Heatmaps == nil {
		unavailable(c, "heatmap")
		return
	}
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-heatmap")
	defer span.End()

	symbol := strings.ToUpper(c.Param("symbol"))
	span.SetAttributes(attribute.String("symbol", symbol))

	hm, err := h.svc.Heatmaps.Heatmap(ctx, symbol)
	if err != nil {
		h.fail(c, span, err)
		return
	}
	c.JSON(http.StatusOK, hm)
}
