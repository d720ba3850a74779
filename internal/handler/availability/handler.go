package availability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/hms-api/internal/handler"
	"github.com/jwalitptl/hms-api/internal/middleware"
	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/service/availability"
)

type Handler struct {
	service *availability.Service
}

func NewHandler(service *availability.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) SetAvailability(c *gin.Context) {
	actor, _ := middleware.ActorFrom(c)

	doctorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid doctor ID"))
		return
	}

	var req model.SetAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	slot, err := h.service.SetAvailability(c.Request.Context(), actor, doctorID, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(slot))
}

func (h *Handler) SetWeek(c *gin.Context) {
	actor, _ := middleware.ActorFrom(c)

	doctorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid doctor ID"))
		return
	}

	var req model.SetWeekRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	slots, err := h.service.SetWeek(c.Request.Context(), actor, doctorID, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(slots))
}

// ListSlots returns the doctor's bookable window. Optional query params:
// from (YYYY-MM-DD) and days.
func (h *Handler) ListSlots(c *gin.Context) {
	doctorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid doctor ID"))
		return
	}

	var from time.Time
	if s := c.Query("from"); s != "" {
		from, err = time.Parse(model.DateOnly, s)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid from date"))
			return
		}
	}

	days := 0
	if s := c.Query("days"); s != "" {
		days, err = strconv.Atoi(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid days"))
			return
		}
	}

	slots, err := h.service.ListSlots(c.Request.Context(), doctorID, from, days)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(slots))
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	doctors := r.Group("/doctors")
	{
		doctors.GET("/:id/availability", h.ListSlots)
		doctors.POST("/:id/availability", h.SetAvailability)
		doctors.POST("/:id/availability/week", h.SetWeek)
	}
}
