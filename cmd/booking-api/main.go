package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/class-booking-api/api/swagger"
	"github.com/noah-isme/class-booking-api/internal/geo"
	"github.com/noah-isme/class-booking-api/internal/handler"
	internalmiddleware "github.com/noah-isme/class-booking-api/internal/middleware"
	"github.com/noah-isme/class-booking-api/internal/repository"
	"github.com/noah-isme/class-booking-api/internal/service"
	_ "github.com/noah-isme/class-booking-api/migrations"
	"github.com/noah-isme/class-booking-api/pkg/cache"
	"github.com/noah-isme/class-booking-api/pkg/config"
	"github.com/noah-isme/class-booking-api/pkg/events"
	"github.com/noah-isme/class-booking-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/class-booking-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/class-booking-api/pkg/middleware/requestid"
	"github.com/noah-isme/class-booking-api/pkg/storage"
)

// @title Class Booking API
// @version 1.0.0
// @description Class session scheduling, discovery and enrollment.
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if err := run(cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	decimal.MarshalJSONWithoutQuotes = true
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	st, err := openStores(ctx, cfg, logr)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer st.Close() //nolint:errcheck

	checks := map[string]handler.Pinger{}
	if st.db != nil {
		checks["database"] = st.db
	}

	metrics := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if cfg.Search.CacheEnabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, search cache disabled", zap.Error(err))
		} else {
			defer client.Close() //nolint:errcheck
			redisRepo := repository.NewCacheRepository(client, logr)
			cacheRepo = redisRepo
			checks["redis"] = handler.PingFunc(redisRepo.Ping)
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Search.CacheTTL, logr, cacheRepo != nil)

	var dispatcher *events.Dispatcher
	if cfg.Events.NATSURL != "" {
		publisher, err := events.Connect(cfg.Events.NATSURL, cfg.Events.SubjectPrefix, logr)
		if err != nil {
			logr.Warn("nats unavailable, domain events disabled", zap.Error(err))
		} else {
			defer publisher.Close() //nolint:errcheck
			dispatcher = events.NewDispatcher(publisher, events.DispatcherConfig{
				Workers: cfg.Events.Workers,
				Retries: cfg.Events.Retries,
			}, logr)
			dispatcher.Start(ctx)
			defer dispatcher.Stop()
		}
	}

	uploads := service.NewUploadService(nil, uploadConfig(cfg), nil)
	var objects *storage.S3Presigner
	if cfg.Uploads.Bucket != "" {
		presigner, err := storage.NewS3Presigner(ctx, storage.S3Config{
			Bucket:       cfg.Uploads.Bucket,
			Region:       cfg.Uploads.Region,
			Endpoint:     cfg.Uploads.Endpoint,
			AccessKey:    cfg.Uploads.AccessKey,
			SecretKey:    cfg.Uploads.SecretKey,
			UsePathStyle: cfg.Uploads.UsePathStyle,
		})
		if err != nil {
			logr.Warn("object storage unavailable, uploads disabled", zap.Error(err))
		} else {
			uploads = service.NewUploadService(presigner, uploadConfig(cfg), nil)
			objects = presigner
		}
	}

	validate := validator.New()
	locations := geo.NewIndex(st.zips)
	sessions := service.NewSessionService(st.sessions, locations, cacheSvc, dispatcher, metrics, service.SessionServiceConfig{
		MaxRetries:   cfg.Enrollment.CapacityMaxRetries,
		StrictCancel: cfg.Sessions.StrictCancel,
	}, validate, logr)
	enrollments := service.NewEnrollmentService(st.enrollments, sessions, dispatcher, metrics, service.EnrollmentServiceConfig{
		AllowReenroll: cfg.Enrollment.AllowReenroll,
	}, logr)
	discovery := service.NewDiscoveryService(st.sessions, locations, cacheSvc, service.DiscoveryConfig{
		DefaultRadius: cfg.Search.DefaultRadius,
		MaxRadius:     cfg.Search.MaxRadius,
		CacheTTL:      cfg.Search.CacheTTL,
	}, validate, logr)
	messages := service.NewMessageService(st.messages, sessions, st.enrollments, dispatcher, metrics, validate, logr)
	rosters := service.NewRosterService(sessions, st.enrollments)
	profiles := service.NewProfileService(st.profiles, objects, dispatcher, service.ProfileServiceConfig{
		MaxImages: cfg.Uploads.MaxImages,
	}, validate, logr)
	verifier := service.NewTokenVerifier(cfg.JWT)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics, "/metrics", "/health"))
	r.Use(internalmiddleware.WithResponseMeta())

	metricsHandler := handler.NewMetricsHandler(metrics, checks)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	r.GET("/metrics/summary", metricsHandler.Summary)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	handler.Register(api, internalmiddleware.JWT(verifier), handler.Handlers{
		Classes:     handler.NewClassHandler(sessions, discovery, rosters),
		Enrollments: handler.NewEnrollmentHandler(enrollments),
		Students:    handler.NewStudentHandler(enrollments),
		Messages:    handler.NewMessageHandler(messages),
		Uploads:     handler.NewUploadHandler(uploads),
		Profiles:    handler.NewProfileHandler(profiles),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env), zap.String("storage", cfg.StorageDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func uploadConfig(cfg *config.Config) service.UploadServiceConfig {
	return service.UploadServiceConfig{URLTTL: cfg.Uploads.URLTTL, MaxImages: cfg.Uploads.MaxImages}
}
