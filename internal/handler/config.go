package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"

	"longentry/internal/domain"
)

// GetMarketConfig godoc
// @Summary      Trading configuration for one symbol
// @Description  Returns this week's activation and optimal parameters; an unscored symbol gets an inactive zero config
// @Tags         config
// @Produce      json
// @Param        symbol  path  string  true  "Instrument symbol"
// @Success      200  {object}  domain.MarketConfig
// @Failure      404  {object}  map[string]string
// @Router       /api/config/{symbol} [get]
func (h *Handler) GetMarketConfig(c *gin.Context) {
	if h.svc.Config == nil {
		unavailable(c, "config")
		return
	}
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-market-config")
	defer span.End()

	symbol := strings.ToUpper(c.Param("symbol"))
	span.SetAttributes(attribute.String("symbol", symbol))

	cfg, err := h.svc.Config.MarketConfig(ctx, symbol)
	if err != nil {
		h.fail(c, span, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

type overrideRequest struct {
	Active *bool `json:"active"`
}

// SetOverride godoc
// @Summary      Pin or release a symbol's activation
// @Description  active true/false pins the symbol for the current week; null clears the pin
// @Tags         config
// @Accept       json
// @Produce      json
// @Param        symbol  path  string           true  "Instrument symbol"
// @Param        body    body  overrideRequest  true  "Override"
// @Success      200  {object}  domain.MarketConfig
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Security     ApiKeyAuth
// @Router       /api/override/{symbol} [post]
func (h *Handler) SetOverride(c *gin.Context) {
	if h.svc.Config == nil {
		unavailable(c, "config")
		return
	}
	var req overrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid body: "+err.Error())
		return
	}
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.set-override")
	defer span.End()

	symbol := strings.ToUpper(c.Param("symbol"))
	span.SetAttributes(attribute.String("symbol", symbol))

	cfg, err := h.svc.Config.SetOverride(ctx, symbol, req.Active)
	if err != nil {
		h.fail(c, span, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// GetMaxActive godoc
// @Summary      Activation limit of a pool
// @Tags         config
// @Produce      json
// @Param        pool  path  string  true  "markets or stocks"
// @Success      200  {object}  domain.MaxActive
// @Failure      400  {object}  map[string]string
// @Router       /api/config/max-active/{pool} [get]
func (h *Handler) GetMaxActive(c *gin.Context) {
	if h.svc.Config == nil {
		unavailable(c, "config")
		return
	}
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-max-active")
	defer span.End()

	pool := domain.Pool(strings.ToLower(c.Param("pool")))
	span.SetAttributes(attribute.String("pool", string(pool)))

	res, err := h.svc.Config.GetMaxActive(ctx, pool)
	if err != nil {
		h.fail(c, span, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type maxActiveRequest struct {
	MaxActive *int `json:"max_active"`
}

// SetMaxActive godoc
// @Summary      Change a pool's activation limit
// @Description  Stores the limit and re-ranks the pool's current week, leaving overridden symbols as they are
// @Tags         config
// @Accept       json
// @Produce      json
// @Param        pool  path  string            true  "markets or stocks"
// @Param        body  body  maxActiveRequest  true  "New limit"
// @Success      200  {object}  domain.MaxActive
// @Failure      400  {object}  map[string]string
// @Security     ApiKeyAuth
// @Router       /api/config/max-active/{pool} [put]
func (h *Handler) SetMaxActive(c *gin.Context) {
	if h.svc.Config == nil {
		unavailable(c, "config")
		return
	}
	var req maxActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.MaxActive == nil {
		badRequest(c, "body must be {\"max_active\": n}")
		return
	}
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.set-max-active")
	defer span.End()

	pool := domain.Pool(strings.ToLower(c.Param("pool")))
	span.SetAttributes(attribute.String("pool", string(pool)), attribute.Int("max_active", *req.MaxActive))

	res, err := h.svc.Config.SetMaxActive(ctx, pool, *req.MaxActive)
	if err != nil {
		h.fail(c, span, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
