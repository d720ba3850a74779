package doctor

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/hms-api/internal/handler"
	"github.com/jwalitptl/hms-api/internal/middleware"
	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/service/doctor"
)

type Handler struct {
	service *doctor.Service
	cache   *middleware.ResponseCache
}

func NewHandler(service *doctor.Service, cache *middleware.ResponseCache) *Handler {
	return &Handler{service: service, cache: cache}
}

func (h *Handler) CreateDoctor(c *gin.Context) {
	actor, _ := middleware.ActorFrom(c)

	var req model.CreateDoctorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	created, err := h.service.Create(c.Request.Context(), actor, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	h.cache.Invalidate()
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(created))
}

func (h *Handler) GetDoctor(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid doctor ID"))
		return
	}

	result, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(result))
}

func (h *Handler) UpdateDoctor(c *gin.Context) {
	actor, _ := middleware.ActorFrom(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid doctor ID"))
		return
	}

	var req model.UpdateDoctorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	updated, err := h.service.Update(c.Request.Context(), actor, id, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	h.cache.Invalidate()
	c.JSON(http.StatusOK, handler.NewSuccessResponse(updated))
}

func (h *Handler) DeleteDoctor(c *gin.Context) {
	actor, _ := middleware.ActorFrom(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid doctor ID"))
		return
	}

	if err := h.service.Delete(c.Request.Context(), actor, id); err != nil {
		_ = c.Error(err)
		return
	}

	h.cache.Invalidate()
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) BlacklistDoctor(c *gin.Context) {
	actor, _ := middleware.ActorFrom(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid doctor ID"))
		return
	}

	if err := h.service.Blacklist(c.Request.Context(), actor, id); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) ListDoctors(c *gin.Context) {
	var filters model.DoctorFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	doctors, err := h.service.List(c.Request.Context(), &filters)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(doctors))
}

func (h *Handler) ListDepartments(c *gin.Context) {
	departments, err := h.service.ListDepartments(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(departments))
}

// RegisterRoutes wires the read-only endpoints every authenticated caller
// can hit. Listing responses are served from the response cache.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	doctors := r.Group("/doctors")
	{
		doctors.GET("", h.cache.Cached(doctor.ListCacheTTL), h.ListDoctors)
		doctors.GET("/:id", h.GetDoctor)
	}
	r.GET("/departments", h.cache.Cached(doctor.ListCacheTTL), h.ListDepartments)
}

// RegisterAdminRoutes wires the management endpoints.
func (h *Handler) RegisterAdminRoutes(r *gin.RouterGroup) {
	doctors := r.Group("/doctors")
	{
		doctors.POST("", h.CreateDoctor)
		doctors.PUT("/:id", h.UpdateDoctor)
		doctors.DELETE("/:id", h.DeleteDoctor)
		doctors.POST("/:id/blacklist", h.BlacklistDoctor)
	}
}
