package router

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/hms-api/internal/handler"
	"github.com/jwalitptl/hms-api/internal/middleware"
	"github.com/jwalitptl/hms-api/internal/model"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

// AdminHandler additionally exposes routes restricted to admins.
type AdminHandler interface {
	Handler
	RegisterAdminRoutes(*gin.RouterGroup)
}

type Router struct {
	engine       *gin.Engine
	auth         *middleware.AuthMiddleware
	authH        Handler
	doctorH      AdminHandler
	patientH     AdminHandler
	availH       Handler
	appointmentH AdminHandler
	historyH     Handler
	h            *handler.Handler
	metrics      *routerMetrics
}

type routerMetrics struct {
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	errorTotal      *prometheus.CounterVec
}

type RouterConfig struct {
	RateLimit     rate.Limit
	RateBurst     int
	Timeout       time.Duration
	CORSConfig    middleware.CORSConfig
	MetricsPrefix string
}

func NewRouter(
	auth *middleware.AuthMiddleware,
	authH Handler,
	doctorH AdminHandler,
	patientH AdminHandler,
	availH Handler,
	appointmentH AdminHandler,
	historyH Handler,
	h *handler.Handler,
	config RouterConfig,
) *Router {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()

	metrics := initRouterMetrics(config.MetricsPrefix)

	r := &Router{
		engine:       engine,
		auth:         auth,
		authH:        authH,
		doctorH:      doctorH,
		patientH:     patientH,
		availH:       availH,
		appointmentH: appointmentH,
		historyH:     historyH,
		h:            h,
		metrics:      metrics,
	}

	if config.Timeout <= 0 {
		config.Timeout = middleware.DefaultTimeoutConfig().Duration
	}

	engine.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.ErrorHandler(),
		r.metricsMiddleware(),
		middleware.Timeout(middleware.TimeoutConfig{Duration: config.Timeout}),
	)

	engine.Use(middleware.CORS(config.CORSConfig))

	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Rate:  config.RateLimit,
		Burst: config.RateBurst,
	})
	engine.Use(rateLimiter.RateLimit())

	return r
}

func (r *Router) Setup() {
	api := r.engine.Group("/api/v1")

	api.Use(func(c *gin.Context) {
		c.Header("X-API-Version", "1.0")
		c.Next()
	})

	r.setupHealthCheck(api)

	// Public routes
	r.authH.RegisterRoutes(api)

	// Authenticated routes
	protected := api.Group("")
	protected.Use(r.auth.Authenticate())
	r.doctorH.RegisterRoutes(protected)
	r.patientH.RegisterRoutes(protected)
	r.availH.RegisterRoutes(protected)
	r.appointmentH.RegisterRoutes(protected)
	r.historyH.RegisterRoutes(protected)

	// Admin routes. Services re-check the role; the middleware just keeps
	// non-admin traffic out of the handlers.
	admin := api.Group("/admin")
	admin.Use(r.auth.Authenticate(), r.auth.RequireRole(model.ActorRoleAdmin))
	r.doctorH.RegisterAdminRoutes(admin)
	r.patientH.RegisterAdminRoutes(admin)
	r.appointmentH.RegisterAdminRoutes(admin)
}

func (r *Router) setupHealthCheck(rg *gin.RouterGroup) {
	health := rg.Group("/health")
	{
		health.GET("/live", r.h.LivenessCheck)
		health.GET("/ready", r.h.ReadinessCheck)
		health.GET("/metrics", r.h.MetricsHandler)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func initRouterMetrics(prefix string) *routerMetrics {
	return &routerMetrics{
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: prefix + "_request_duration_seconds",
				Help: "Duration of HTTP requests in seconds",
			},
			[]string{"method", "path", "status"},
		),
		requestTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		errorTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_errors_total",
				Help: "Total number of HTTP errors",
			},
			[]string{"method", "path", "type"},
		),
	}
}

func (r *Router) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()

		c.Next()

		status := fmt.Sprintf("%d", c.Writer.Status())
		duration := time.Since(start).Seconds()

		r.metrics.requestDuration.WithLabelValues(c.Request.Method, path, status).Observe(duration)
		r.metrics.requestTotal.WithLabelValues(c.Request.Method, path, status).Inc()

		if c.Writer.Status() >= 400 {
			r.metrics.errorTotal.WithLabelValues(c.Request.Method, path, "http").Inc()
		}
	}
}
