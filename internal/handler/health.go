package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type runState interface {
	Running() bool
}

// Health godoc
// @Summary      Health check
// @Description  Reports liveness, the configured universe size and whether an analysis run is in flight
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]any
// @Router       /health [get]
func (h *Handler) Health(c *gin.Context) {
	resp := gin.H{"status": "healthy"}
	if h.svc.Markets != nil {
		resp["instruments"] = len(h.svc.Markets.All())
	}
	if r, ok := h.svc.Analysis.(runState); ok {
		resp["analysis_running"] = r.Running()
	}
	c.JSON(http.StatusOK, resp)
}
