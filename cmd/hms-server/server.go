package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/prjwlhere/hospital-management-system/internal/config"
	"github.com/prjwlhere/hospital-management-system/internal/domain/admin"
	"github.com/prjwlhere/hospital-management-system/internal/domain/catalog"
	"github.com/prjwlhere/hospital-management-system/internal/domain/clinical"
	"github.com/prjwlhere/hospital-management-system/internal/domain/export"
	"github.com/prjwlhere/hospital-management-system/internal/domain/identity"
	"github.com/prjwlhere/hospital-management-system/internal/domain/notification"
	"github.com/prjwlhere/hospital-management-system/internal/domain/scheduling"
	"github.com/prjwlhere/hospital-management-system/internal/platform/apperr"
	"github.com/prjwlhere/hospital-management-system/internal/platform/auth"
	"github.com/prjwlhere/hospital-management-system/internal/platform/db"
	"github.com/prjwlhere/hospital-management-system/internal/platform/metrics"
	"github.com/prjwlhere/hospital-management-system/internal/platform/middleware"
	"github.com/prjwlhere/hospital-management-system/internal/platform/password"
	"github.com/prjwlhere/hospital-management-system/internal/platform/phone"
)

const version = "0.1.0"

// app holds the wired services. Handlers and the seeder share it.
type app struct {
	issuer  *auth.TokenIssuer
	metrics *metrics.Metrics
	closers []io.Closer

	identity     *identity.Service
	catalog      *catalog.Service
	scheduling   *scheduling.Service
	clinical     *clinical.Service
	export       *export.Service
	notification *notification.Service
}

func newApp(cfg *config.Config, pool *pgxpool.Pool, logger zerolog.Logger) (*app, error) {
	a := &app{}

	revoked, closer, err := newRevocationStore(cfg)
	if err != nil {
		return nil, err
	}
	if closer != nil {
		a.closers = append(a.closers, closer)
	}
	a.issuer = auth.NewTokenIssuer(cfg.SigningKey(), cfg.TokenTTL, revoked)
	logger.Info().Str("backend", revocationBackend(cfg)).Msg("token revocation")

	var recorder scheduling.Recorder
	if cfg.MetricsEnabled {
		a.metrics = metrics.New()
		recorder = a.metrics
	}

	tx := db.NewTxManager(pool)

	a.identity = identity.NewService(
		identity.NewAccountRepo(pool),
		identity.NewProfileRepo(pool),
		tx,
		password.NewHasher(0),
		phone.NewNormalizer(cfg.PhoneRegion),
		a.issuer,
	)
	a.catalog = catalog.NewService(catalog.NewRepo(pool), a.identity)
	a.scheduling = scheduling.NewService(
		scheduling.NewSlotRepo(pool),
		scheduling.NewAppointmentRepo(pool),
		tx,
		a.identity,
		recorder,
	)
	a.clinical = clinical.NewService(clinical.NewTreatmentRepo(pool), a.scheduling, a.identity)
	a.export = export.NewService(export.NewJobRepo(pool), export.NewReportRepo(pool), a.identity)
	a.notification = notification.NewService(notification.NewRepo(pool))

	// Treatments reference appointments, which reference slots.
	a.identity.AddDependents(a.clinical, a.scheduling, a.catalog, a.export, a.notification)
	return a, nil
}

func (a *app) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

func revocationBackend(cfg *config.Config) string {
	if cfg.RevocationBackend == "" {
		return "none"
	}
	return cfg.RevocationBackend
}

// newRevocationStore returns a nil store for stateless logout.
func newRevocationStore(cfg *config.Config) (auth.RevocationStore, io.Closer, error) {
	switch revocationBackend(cfg) {
	case "memory":
		s := auth.NewMemoryRevocationStore(time.Minute)
		return s, s, nil
	case "redis":
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		client := redis.NewClient(opts)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("connect to redis: %w", err)
		}
		return auth.NewRedisRevocationStore(client), client, nil
	default:
		return nil, nil, nil
	}
}

func newRouter(cfg *config.Config, a *app, pool *pgxpool.Pool, logger zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = apperr.HTTPErrorHandler(logger)

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType, echo.HeaderXRequestID},
	}))
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))
	if a.metrics != nil {
		e.Use(a.metrics.Middleware())
		e.GET("/metrics", a.metrics.Handler())
	}

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "version": version})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	rateLimitCfg := middleware.DefaultRateLimitConfig()
	if cfg.RateLimitRPS > 0 {
		rateLimitCfg.RequestsPerSecond = cfg.RateLimitRPS
		rateLimitCfg.BurstSize = cfg.RateLimitBurst
	}

	api := e.Group(cfg.APIPrefix)
	api.Use(middleware.RateLimit(rateLimitCfg))
	api.Use(auth.JWTMiddleware(auth.JWTConfig{
		Issuer:  a.issuer,
		Skipper: auth.NewSkipper(cfg.APIPrefix),
	}))
	api.Use(middleware.Audit(logger, cfg.APIPrefix))

	identity.NewHandler(a.identity, a.issuer).RegisterRoutes(api)
	admin.NewHandler(a.identity).RegisterRoutes(api)
	catalog.NewHandler(a.catalog).RegisterRoutes(api)
	scheduling.NewHandler(a.scheduling).RegisterRoutes(api)
	clinical.NewHandler(a.clinical).RegisterRoutes(api)
	export.NewHandler(a.export).RegisterRoutes(api)
	notification.NewHandler(a.notification).RegisterRoutes(api)

	return e
}

func runServer(cfg *config.Config) error {
	logger, closer := newLogger(cfg)
	defer closer.Close()

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBSchema, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Error().Err(err).Msg("failed to connect to database")
		return err
	}
	defer pool.Close()
	logger.Info().Str("schema", cfg.DBSchema).Msg("connected to database")

	a, err := newApp(cfg, pool, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	e := newRouter(cfg, a, pool, logger)

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
