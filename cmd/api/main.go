package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/hms-api/internal/config"
	"github.com/jwalitptl/hms-api/internal/email"
	"github.com/jwalitptl/hms-api/internal/handler"
	appointmentHandler "github.com/jwalitptl/hms-api/internal/handler/appointment"
	authHandler "github.com/jwalitptl/hms-api/internal/handler/auth"
	availabilityHandler "github.com/jwalitptl/hms-api/internal/handler/availability"
	doctorHandler "github.com/jwalitptl/hms-api/internal/handler/doctor"
	historyHandler "github.com/jwalitptl/hms-api/internal/handler/history"
	patientHandler "github.com/jwalitptl/hms-api/internal/handler/patient"
	"github.com/jwalitptl/hms-api/internal/middleware"
	"github.com/jwalitptl/hms-api/internal/repository/postgres"
	"github.com/jwalitptl/hms-api/internal/router"
	appointmentService "github.com/jwalitptl/hms-api/internal/service/appointment"
	authService "github.com/jwalitptl/hms-api/internal/service/auth"
	availabilityService "github.com/jwalitptl/hms-api/internal/service/availability"
	bookingService "github.com/jwalitptl/hms-api/internal/service/booking"
	doctorService "github.com/jwalitptl/hms-api/internal/service/doctor"
	eventService "github.com/jwalitptl/hms-api/internal/service/event"
	historyService "github.com/jwalitptl/hms-api/internal/service/history"
	patientService "github.com/jwalitptl/hms-api/internal/service/patient"
	"github.com/jwalitptl/hms-api/pkg/auth"
	"github.com/jwalitptl/hms-api/pkg/logger"
	"github.com/jwalitptl/hms-api/pkg/messaging/redis"
	"github.com/jwalitptl/hms-api/pkg/metrics"
	"github.com/jwalitptl/hms-api/pkg/security"
	"github.com/jwalitptl/hms-api/pkg/validator"
	"github.com/jwalitptl/hms-api/pkg/worker"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	if err := validator.RegisterCustom(); err != nil {
		log.Fatal().Err(err).Msg("failed to register validations")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	departmentRepo := postgres.NewDepartmentRepository(db)
	doctorRepo := postgres.NewDoctorRepository(db)
	patientRepo := postgres.NewPatientRepository(db)
	availabilityRepo := postgres.NewAvailabilityRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(db)
	historyRepo := postgres.NewHistoryRepository(db)
	outboxRepo := postgres.NewOutboxRepository(db)

	// Services
	hasher := security.NewBcryptHasher(12)
	jwtSvc := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpiryHours)
	mailer := email.NewService(cfg.Email)
	eventSvc := eventService.NewService(outboxRepo)

	authSvc := authService.NewService(userRepo, patientRepo, hasher, jwtSvc)
	doctorSvc := doctorService.NewService(doctorRepo, departmentRepo, userRepo, hasher)
	patientSvc := patientService.NewService(patientRepo, userRepo)
	availabilitySvc := availabilityService.NewService(availabilityRepo)
	bookingSvc := bookingService.NewService(availabilityRepo, appointmentRepo, doctorRepo, patientRepo, eventSvc, mailer)
	appointmentSvc := appointmentService.NewService(appointmentRepo, patientRepo, eventSvc, mailer)
	historySvc := historyService.NewService(historyRepo, appointmentRepo, doctorRepo)

	// Middleware and handlers
	authMiddleware := middleware.NewAuthMiddleware(jwtSvc)
	listingCache := middleware.NewResponseCache(doctorService.ListCacheTTL, time.Minute)
	appMetrics := metrics.NewMetrics("hms", "api")

	h := handler.NewHandler(db)
	authH := authHandler.NewHandler(authSvc)
	doctorH := doctorHandler.NewHandler(doctorSvc, listingCache)
	patientH := patientHandler.NewHandler(patientSvc)
	availabilityH := availabilityHandler.NewHandler(availabilitySvc)
	appointmentH := appointmentHandler.NewHandler(bookingSvc, appointmentSvc, appMetrics)
	historyH := historyHandler.NewHandler(historySvc)

	r := router.NewRouter(
		authMiddleware,
		authH,
		doctorH,
		patientH,
		availabilityH,
		appointmentH,
		historyH,
		h,
		router.RouterConfig{
			RateLimit:     rate.Limit(100),
			RateBurst:     200,
			Timeout:       time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
			CORSConfig:    middleware.DefaultCORSConfig(),
			MetricsPrefix: "hms_api",
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Event delivery runs inside the API process when Redis is configured.
	// A dedicated worker binary exists for deployments that split it out;
	// SKIP LOCKED keeps the two from claiming the same events.
	if cfg.Redis.URL != "" {
		appLogger := logger.NewLogger(nil)
		broker, err := redis.NewRedisBroker(redis.Config{URL: cfg.Redis.URL}, &appLogger.ZL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to Redis")
		}
		defer broker.Close()

		processor := worker.NewOutboxProcessor(outboxRepo, broker, worker.OutboxProcessorConfig{
			BatchSize:     cfg.Outbox.BatchSize,
			PollInterval:  time.Duration(cfg.Outbox.PollIntervalSeconds) * time.Second,
			RetryAttempts: cfg.Outbox.RetryAttempts,
			RetryDelay:    time.Duration(cfg.Outbox.RetryDelaySeconds) * time.Second,
		}, appLogger, appMetrics)
		go processor.Start(ctx)
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()
	log.Info().Int("port", cfg.Server.Port).Msg("server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
