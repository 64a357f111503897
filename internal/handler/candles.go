package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"

	"longentry/internal/domain"
)

type candle struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

type candleUpload struct {
	Symbol    string   `json:"symbol" binding:"required"`
	Timeframe string   `json:"timeframe"`
	APIKey    string   `json:"apiKey"`
	Candles   []candle `json:"candles"`
}

// UploadCandles godoc
// @Summary      Upload price bars
// @Description  Stores H1 or M5 bars for one symbol. Existing bars are kept and reported as duplicates. The API key may be sent in X-API-Key or as apiKey in the body.
// @Tags         candles
// @Accept       json
// @Produce      json
// @Param        body  body  candleUpload  true  "Bars"
// @Success      200  {object}  domain.BarIngest
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Router       /api/candles [post]
func (h *Handler) UploadCandles(c *gin.Context) {
	if h.svc.Ingest == nil {
		unavailable(c, "ingest")
		return
	}
	var req candleUpload
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid body: "+err.Error())
		return
	}
	if h.apiKey != "" {
		provided := strings.TrimSpace(c.GetHeader("X-API-Key"))
		if provided == "" {
			provided = req.APIKey
		}
		if !keyMatches(h.apiKey, provided) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid API key"})
			return
		}
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.upload-candles")
	defer span.End()
	span.SetAttributes(attribute.String("symbol", req.Symbol), attribute.Int("candles", len(req.Candles)))

	bars := make([]domain.PriceBar, len(req.Candles))
	for i, cd := range req.Candles {
		bars[i] = domain.PriceBar{
			OpenTime: cd.Time,
			Open:     cd.Open,
			High:     cd.High,
			Low:      cd.Low,
			Close:    cd.Close,
			Volume:   cd.Volume,
		}
	}

	res, err := h.svc.Ingest.Ingest(ctx, req.Symbol, domain.Timeframe(req.Timeframe), bars)
	if err != nil {
		h.fail(c, span, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
