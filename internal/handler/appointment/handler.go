package appointment

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/hms-api/internal/handler"
	"github.com/jwalitptl/hms-api/internal/middleware"
	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/service/appointment"
	"github.com/jwalitptl/hms-api/internal/service/booking"
	apperrors "github.com/jwalitptl/hms-api/pkg/errors"
	"github.com/jwalitptl/hms-api/pkg/metrics"
)

type Handler struct {
	bookings     *booking.Service
	appointments *appointment.Service
	metrics      *metrics.Metrics
}

func NewHandler(bookings *booking.Service, appointments *appointment.Service, m *metrics.Metrics) *Handler {
	return &Handler{bookings: bookings, appointments: appointments, metrics: m}
}

// bookingOutcome labels a booking result for the attempts counter.
func bookingOutcome(err error) string {
	if err == nil {
		return "booked"
	}
	switch apperrors.CodeOf(err) {
	case apperrors.ErrSlotUnavailable:
		return "slot_unavailable"
	case apperrors.ErrDuplicateBookingSameDay:
		return "same_day_conflict"
	default:
		return "error"
	}
}

func (h *Handler) BookAppointment(c *gin.Context) {
	actor, _ := middleware.ActorFrom(c)

	var req model.BookAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	doctorID, err := uuid.Parse(req.DoctorID)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid doctor ID"))
		return
	}

	date, err := time.Parse(model.DateOnly, req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid date"))
		return
	}

	patientID := actor.ID
	if actor.IsAdmin() && req.PatientID != "" {
		patientID, err = uuid.Parse(req.PatientID)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid patient ID"))
			return
		}
	}

	booked, err := h.bookings.Book(c.Request.Context(), actor, patientID, doctorID, date, req.Time)
	h.metrics.BookingAttempts.WithLabelValues(bookingOutcome(err)).Inc()
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(booked))
}

// Transition applies a status action (complete, cancel) to an appointment.
func (h *Handler) Transition(c *gin.Context) {
	actor, _ := middleware.ActorFrom(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid appointment ID"))
		return
	}

	var req model.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	updated, err := h.appointments.Transition(c.Request.Context(), actor, id, req.Action)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(updated))
}

func (h *Handler) GetAppointment(c *gin.Context) {
	actor, _ := middleware.ActorFrom(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid appointment ID"))
		return
	}

	result, err := h.appointments.Get(c.Request.Context(), actor, id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(result))
}

func (h *Handler) ListForPatient(c *gin.Context) {
	actor, _ := middleware.ActorFrom(c)

	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid patient ID"))
		return
	}

	result, err := h.appointments.ListForPatient(c.Request.Context(), actor, patientID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(result))
}

func (h *Handler) ListUpcomingForDoctor(c *gin.Context) {
	actor, _ := middleware.ActorFrom(c)

	doctorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid doctor ID"))
		return
	}

	result, err := h.appointments.ListUpcomingForDoctor(c.Request.Context(), actor, doctorID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(result))
}

func (h *Handler) ListCompletedForDoctor(c *gin.Context) {
	actor, _ := middleware.ActorFrom(c)

	doctorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid doctor ID"))
		return
	}

	result, err := h.appointments.ListCompletedForDoctor(c.Request.Context(), actor, doctorID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(result))
}

func (h *Handler) AssignedPatients(c *gin.Context) {
	actor, _ := middleware.ActorFrom(c)

	doctorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid doctor ID"))
		return
	}

	result, err := h.appointments.AssignedPatients(c.Request.Context(), actor, doctorID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(result))
}

// ListAll is the admin dashboard query with optional filters.
func (h *Handler) ListAll(c *gin.Context) {
	actor, _ := middleware.ActorFrom(c)

	filters := &model.AppointmentFilters{}
	if s := c.Query("doctor_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid doctor ID"))
			return
		}
		filters.DoctorID = id
	}
	if s := c.Query("patient_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid patient ID"))
			return
		}
		filters.PatientID = id
	}
	if s := c.Query("status"); s != "" {
		filters.Status = model.AppointmentStatus(s)
	}
	if s := c.Query("from"); s != "" {
		from, err := time.Parse(model.DateOnly, s)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid from date"))
			return
		}
		filters.FromDate = from
	}
	if s := c.Query("to"); s != "" {
		to, err := time.Parse(model.DateOnly, s)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid to date"))
			return
		}
		filters.ToDate = to
	}

	result, err := h.appointments.ListAll(c.Request.Context(), actor, filters)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(result))
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	appointments := r.Group("/appointments")
	{
		appointments.POST("", h.BookAppointment)
		appointments.GET("/:id", h.GetAppointment)
		appointments.POST("/:id/transition", h.Transition)
	}

	r.GET("/patients/:id/appointments", h.ListForPatient)

	doctors := r.Group("/doctors")
	{
		doctors.GET("/:id/appointments/upcoming", h.ListUpcomingForDoctor)
		doctors.GET("/:id/appointments/completed", h.ListCompletedForDoctor)
		doctors.GET("/:id/patients", h.AssignedPatients)
	}
}

func (h *Handler) RegisterAdminRoutes(r *gin.RouterGroup) {
	r.GET("/appointments", h.ListAll)
}
