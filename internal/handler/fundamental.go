package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"

	"longentry/internal/domain"
	"longentry/internal/service"
)

// Default event window when ?from/?to are omitted.
const defaultEventWindowDays = 14

// GetOutlooks godoc
// @Summary      Regional macro outlooks
// @Tags         fundamental
// @Produce      json
// @Success      200  {array}   domain.RegionOutlook
// @Router       /api/fundamental [get]
func (h *Handler) GetOutlooks(c *gin.Context) {
	if h.svc.Fundamentals == nil {
		unavailable(c, "fundamental")
		return
	}
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-outlooks")
	defer span.End()

	outlooks, err := h.svc.Fundamentals.Outlooks(ctx)
	if err != nil {
		h.fail(c, span, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(outlooks))
}

// UpdateOutlook godoc
// @Summary      Update a region's outlook
// @Description  Partial update; each supplied component must lie in [-1, 1]
// @Tags         fundamental
// @Accept       json
// @Produce      json
// @Param        region  path  string               true  "Region (e.g., US, EU, commodities)"
// @Param        body    body  service.OutlookPatch  true  "Fields to change"
// @Success      200  {object}  domain.RegionOutlook
// @Failure      400  {object}  map[string]string
// @Security     ApiKeyAuth
// @Router       /api/fundamental/{region} [put]
func (h *Handler) UpdateOutlook(c *gin.Context) {
	if h.svc.Fundamentals == nil {
		unavailable(c, "fundamental")
		return
	}
	var patch service.OutlookPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, "invalid body: "+err.Error())
		return
	}
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.update-outlook")
	defer span.End()

	region := c.Param("region")
	span.SetAttributes(attribute.String("region", region))

	o, err := h.svc.Fundamentals.UpdateOutlook(ctx, region, patch)
	if err != nil {
		h.fail(c, span, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// GetEvents godoc
// @Summary      Economic calendar
// @Tags         fundamental
// @Produce      json
// @Param        from  query  string  false  "YYYY-MM-DD, default this week's Monday"
// @Param        to    query  string  false  "YYYY-MM-DD, default two weeks after from"
// @Success      200  {array}   domain.EconomicEvent
// @Failure      400  {object}  map[string]string
// @Router       /api/fundamental/events [get]
func (h *Handler) GetEvents(c *gin.Context) {
	if h.svc.Fundamentals == nil {
		unavailable(c, "fundamental")
		return
	}
	from := domain.WeekStart(time.Now())
	if raw := c.Query("from"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			badRequest(c, "from must be YYYY-MM-DD")
			return
		}
		from = t
	}
	to := from.AddDate(0, 0, defaultEventWindowDays)
	if raw := c.Query("to"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			badRequest(c, "to must be YYYY-MM-DD")
			return
		}
		to = t
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-events")
	defer span.End()

	events, err := h.svc.Fundamentals.Events(ctx, from, to)
	if err != nil {
		h.fail(c, span, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(events))
}

type eventRequest struct {
	Region    string `json:"region" binding:"required"`
	EventDate string `json:"event_date" binding:"required"`
	Title     string `json:"title" binding:"required"`
	Impact    string `json:"impact"`
}

// AddEvent godoc
// @Summary      Add an economic event
// @Tags         fundamental
// @Accept       json
// @Produce      json
// @Param        body  body  eventRequest  true  "Event; impact is high, medium (default) or low"
// @Success      201  {object}  domain.EconomicEvent
// @Failure      400  {object}  map[string]string
// @Security     ApiKeyAuth
// @Router       /api/fundamental/events [post]
func (h *Handler) AddEvent(c *gin.Context) {
	if h.svc.Fundamentals == nil {
		unavailable(c, "fundamental")
		return
	}
	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid body: "+err.Error())
		return
	}
	date, err := parseDate(req.EventDate)
	if err != nil {
		badRequest(c, "event_date must be YYYY-MM-DD")
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.add-event")
	defer span.End()

	ev, err := h.svc.Fundamentals.AddEvent(ctx, domain.EconomicEvent{
		Region:    req.Region,
		EventDate: date,
		Title:     req.Title,
		Impact:    domain.EventImpact(req.Impact),
	})
	if err != nil {
		h.fail(c, span, err)
		return
	}
	c.JSON(http.StatusCreated, ev)
}

// DeleteEvent godoc
// @Summary      Delete an economic event
// @Tags         fundamental
// @Produce      json
// @Param        id  path  int  true  "Event id"
// @Success      200  {object}  map[string]int64
// @Failure      404  {object}  map[string]string
// @Security     ApiKeyAuth
// @Router       /api/fundamental/events/{id} [delete]
func (h *Handler) DeleteEvent(c *gin.Context) {
	if h.svc.Fundamentals == nil {
		unavailable(c, "fundamental")
		return
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "id must be a positive integer")
		return
	}
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.delete-event")
	defer span.End()
	span.SetAttributes(attribute.Int64("event_id", id))

	if err := h.svc.Fundamentals.DeleteEvent(ctx, id); err != nil {
		h.fail(c, span, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}
