package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/storefront/api/controllers"
	"github.com/angelmondragon/storefront/api/routes"
	"github.com/angelmondragon/storefront/internal/app"
	"github.com/angelmondragon/storefront/internal/cron"
	"github.com/angelmondragon/storefront/internal/pricing"
	"github.com/angelmondragon/storefront/internal/session"
	"github.com/angelmondragon/storefront/pkg/apiclient"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/instance"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
	"github.com/angelmondragon/storefront/pkg/redis"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "bff"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "bff",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	storefrontMetrics := metrics.NewStorefront(registry)

	readiness := map[string]controllers.Pinger{}
	var sessions session.Store = session.NewMemoryStore()
	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		sessions, err = session.NewRedisStore(redisClient, cfg.Redis.SessionTTL)
		if err != nil {
			logg.Error(ctx, "failed to create session store", err)
			os.Exit(1)
		}
		readiness["redis"] = redisClient
	} else {
		logg.Warn(ctx, "redis not configured, session state is kept in memory")
	}

	breaker := apiclient.NewBreaker(cfg.Breaker, logg)
	readiness["storefront_api"] = apiclient.BreakerProbe{Breaker: breaker}

	client, err := apiclient.New(cfg.Upstream.BaseURL,
		apiclient.WithTimeout(cfg.Upstream.Timeout),
		apiclient.WithRefreshPath(cfg.Upstream.RefreshPath),
		apiclient.WithRefreshSkew(cfg.Upstream.TokenRefreshSkew),
		apiclient.WithBreaker(breaker),
		apiclient.WithMetrics(storefrontMetrics),
		apiclient.WithLogger(logg),
	)
	if err != nil {
		logg.Error(ctx, "failed to create storefront api client", err)
		os.Exit(1)
	}

	states, err := app.NewRegistry(app.Deps{
		API:             client,
		Sessions:        sessions,
		Logger:          logg,
		Metrics:         storefrontMetrics,
		Policy:          pricing.PolicyFromConfig(cfg.Pricing),
		Promos:          pricing.DefaultPromos(),
		RefetchAttempts: cfg.Cart.RefetchAttempts,
		RefetchBackoff:  cfg.Cart.RefetchBackoff,
		PollInterval:    cfg.Orders.PollInterval,
	})
	if err != nil {
		logg.Error(ctx, "failed to create session registry", err)
		os.Exit(1)
	}
	defer states.Close()

	sweep, err := cron.NewSessionSweepJob(cron.SessionSweepParams{Sessions: states, Logger: logg, IdleTTL: cfg.Sessions.IdleTTL})
	if err != nil {
		logg.Error(ctx, "failed to create session sweep", err)
		os.Exit(1)
	}
	housekeeping, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(sweep),
		Metrics:  metrics.NewJobMetrics(registry),
		Interval: cfg.Sessions.SweepInterval,
	})
	if err != nil {
		logg.Error(ctx, "failed to create housekeeping service", err)
		os.Exit(1)
	}
	go func() {
		_ = housekeeping.Run(ctx)
	}()

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
		"upstream": cfg.Upstream.BaseURL,
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Params{
			Config:    cfg,
			Logger:    logg,
			Sessions:  states,
			Gatherer:  registry,
			Readiness: readiness,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting bff server")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "bff server stopped unexpectedly", err)
			states.Close()
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(ctx, "shutting down bff server")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
	logg.Info(ctx, "bff server stopped")
}
