package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"

	"github.com/Srikanthmvtsc/doc-queue-plus/config"
	authServices "github.com/Srikanthmvtsc/doc-queue-plus/internal/auth/services"
	"github.com/Srikanthmvtsc/doc-queue-plus/internal/common/middlewares"
	"github.com/Srikanthmvtsc/doc-queue-plus/internal/common/response"
	"github.com/Srikanthmvtsc/doc-queue-plus/internal/frontdesk/repository"
	frontdeskServices "github.com/Srikanthmvtsc/doc-queue-plus/internal/frontdesk/services"
	"github.com/Srikanthmvtsc/doc-queue-plus/internal/routes"
	"github.com/Srikanthmvtsc/doc-queue-plus/pkg/cache"
	"github.com/Srikanthmvtsc/doc-queue-plus/pkg/logger"
	"github.com/Srikanthmvtsc/doc-queue-plus/pkg/storage/mariadb"
	"github.com/Srikanthmvtsc/doc-queue-plus/ws"
)

func main() {
	cfg := config.LoadConfig()
	baseLogger := logger.Setup(cfg.LogLevel, !cfg.IsProduction())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc := cfg.Location()

	store, err := openStore(ctx, cfg, loc)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open storage")
	}
	defer store.Close()

	verifier, err := authServices.NewStaticCredentialVerifier(cfg.AdminUsername, cfg.AdminPassword, cfg.AdminPasswordHash)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid admin credential")
	}
	if cfg.IsProduction() && cfg.AdminPasswordHash == "" {
		log.Warn().Msg("ADMIN_PASSWORD_HASH is not set, using the plain ADMIN_PASSWORD")
	}

	var statsCache cache.Cache
	if cfg.RedisAddr != "" {
		rc := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, "doc-queue-plus:")
		if err := rc.Ping(ctx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable, dashboard cache disabled")
			rc.Close()
		} else {
			defer rc.Close()
			statsCache = rc
			log.Info().Str("addr", cfg.RedisAddr).Msg("dashboard cache enabled")
		}
	}

	hub := ws.NewHub()
	go hub.Run(ctx)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = response.HTTPErrorHandler
	e.Use(middleware.Recover())
	e.Use(middlewares.RequestID())
	e.Use(middlewares.RequestLogger(baseLogger))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
	}))

	routes.Init(e, routes.Deps{
		Config:   cfg,
		Store:    store,
		Clock:    frontdeskServices.NewClock(loc),
		Verifier: verifier,
		Hub:      hub,
		Cache:    statsCache,
	})

	go func() {
		log.Info().Str("port", cfg.Port).Str("storage", cfg.StorageDriver).Str("timezone", loc.String()).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func openStore(ctx context.Context, cfg *config.Config, loc *time.Location) (repository.Store, error) {
	switch cfg.StorageDriver {
	case "memory":
		log.Warn().Msg("using in-memory storage, data is lost on restart")
		return repository.NewMemoryStore(), nil
	case "mysql", "mariadb":
		db, err := mariadb.Connect(ctx, cfg, loc)
		if err != nil {
			return nil, err
		}
		migrateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := mariadb.Migrate(migrateCtx, db); err != nil {
			db.Close()
			return nil, err
		}
		return repository.NewMySQLStore(db), nil
	default:
		return nil, errors.New("unknown STORAGE_DRIVER " + cfg.StorageDriver)
	}
}
