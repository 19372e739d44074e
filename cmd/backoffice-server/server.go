package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/Rendang96/MixCore-sub002/internal/config"
	"github.com/Rendang96/MixCore-sub002/internal/domain/application"
	"github.com/Rendang96/MixCore-sub002/internal/domain/catalog"
	"github.com/Rendang96/MixCore-sub002/internal/domain/panelconfig"
	"github.com/Rendang96/MixCore-sub002/internal/domain/policy"
	"github.com/Rendang96/MixCore-sub002/internal/domain/provider"
	"github.com/Rendang96/MixCore-sub002/internal/domain/setup"
	"github.com/Rendang96/MixCore-sub002/internal/platform/auth"
	"github.com/Rendang96/MixCore-sub002/internal/platform/db"
	"github.com/Rendang96/MixCore-sub002/internal/platform/events"
	"github.com/Rendang96/MixCore-sub002/internal/platform/kvstore"
	"github.com/Rendang96/MixCore-sub002/internal/platform/middleware"
)

const version = "0.1.0"

// server is the wired application.
type server struct {
	Echo    *echo.Echo
	Store   kvstore.Store
	Bus     *events.Bus
	closers []func()
}

// Close releases subscriptions, the bus and the store, in reverse order of
// acquisition.
func (s *server) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// openStore connects the configured backend. The returned pinger is nil
// for the memory backend.
func openStore(ctx context.Context, cfg *config.Config) (kvstore.Store, db.Pinger, func(), error) {
	switch cfg.StoreBackend {
	case config.BackendRedis:
		r, err := kvstore.NewRedis(ctx, cfg.RedisURL, cfg.RedisNamespace)
		if err != nil {
			return nil, nil, nil, err
		}
		return r, r, func() { r.Close() }, nil
	case config.BackendPostgres:
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return nil, nil, nil, err
		}
		return kvstore.NewPostgres(pool), pool, pool.Close, nil
	case config.BackendMemory:
		return kvstore.NewMemory(), nil, func() {}, nil
	}
	return nil, nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}

func newServer(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*server, error) {
	store, pinger, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.StoreBackend, err)
	}
	srv := &server{Store: store, closers: []func(){closeStore}}
	logger.Info().Str("backend", cfg.StoreBackend).Msg("store ready")

	bus := events.NewBus(logger)
	srv.Bus = bus
	srv.closers = append(srv.closers, bus.Close)

	hub := events.NewHub(logger)
	hubSub := hub.Attach(bus)
	srv.closers = append(srv.closers, hubSub.Unsubscribe)

	setupSvc, err := setup.NewService()
	if err != nil {
		srv.Close()
		return nil, fmt.Errorf("load setup data: %w", err)
	}

	providerSvc := provider.NewService(store, bus, logger)
	providerSvc.SetSessionIdle(time.Duration(cfg.SessionIdleMin) * time.Minute)
	for _, sub := range providerSvc.Watch(bus) {
		srv.closers = append(srv.closers, sub.Unsubscribe)
	}
	applicationSvc := application.NewService(store, bus, providerSvc, logger)
	policySvc := policy.NewService(store, bus, setupSvc, logger)
	panelSvc := panelconfig.NewService(store, bus, logger)
	cat := catalog.New(setupSvc.CatalogGroups())

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	e.GET("/health/db", db.HealthHandler(cfg.StoreBackend, pinger))

	apiV1 := e.Group("/api/v1")
	if cfg.IsDev() {
		apiV1.Use(auth.DevAuthMiddleware())
	} else {
		apiV1.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.AuthIssuer,
			Audience:   cfg.AuthAudience,
			SigningKey: []byte(cfg.AuthSigningKey),
		}))
	}

	setup.NewHandler(setupSvc).RegisterRoutes(apiV1)
	provider.NewHandler(providerSvc).RegisterRoutes(apiV1)
	application.NewHandler(applicationSvc).RegisterRoutes(apiV1)
	policy.NewHandler(policySvc).RegisterRoutes(apiV1)
	panelconfig.NewHandler(panelSvc).RegisterRoutes(apiV1)
	catalog.NewHandler(cat).RegisterRoutes(apiV1)
	events.NewWebSocketHandler(hub, cfg.EventBuffer).RegisterRoutes(apiV1)

	srv.Echo = e
	return srv, nil
}
