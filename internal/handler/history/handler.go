package history

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/hms-api/internal/handler"
	"github.com/jwalitptl/hms-api/internal/middleware"
	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/service/history"
)

type Handler struct {
	service *history.Service
}

func NewHandler(service *history.Service) *Handler {
	return &Handler{service: service}
}

// RecordHistory creates the single clinical record for a completed
// appointment.
func (h *Handler) RecordHistory(c *gin.Context) {
	actor, _ := middleware.ActorFrom(c)

	appointmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid appointment ID"))
		return
	}

	var req model.RecordHistoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	entry, err := h.service.Record(c.Request.Context(), actor, appointmentID, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(entry))
}

func (h *Handler) ListForPatient(c *gin.Context) {
	actor, _ := middleware.ActorFrom(c)

	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid patient ID"))
		return
	}

	entries, err := h.service.ListForPatient(c.Request.Context(), actor, patientID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(entries))
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/appointments/:id/history", h.RecordHistory)
	r.GET("/patients/:id/history", h.ListForPatient)
}
