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
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dovl-commerce/dovl-backend/api"
	"github.com/dovl-commerce/dovl-backend/api/routes"
	"github.com/dovl-commerce/dovl-backend/internal/campaigns"
	"github.com/dovl-commerce/dovl-backend/internal/cart"
	"github.com/dovl-commerce/dovl-backend/internal/catalog"
	"github.com/dovl-commerce/dovl-backend/internal/checkout"
	"github.com/dovl-commerce/dovl-backend/internal/orders"
	"github.com/dovl-commerce/dovl-backend/internal/payments"
	"github.com/dovl-commerce/dovl-backend/internal/users"
	"github.com/dovl-commerce/dovl-backend/pkg/config"
	"github.com/dovl-commerce/dovl-backend/pkg/db"
	"github.com/dovl-commerce/dovl-backend/pkg/logger"
	"github.com/dovl-commerce/dovl-backend/pkg/metrics"
	"github.com/dovl-commerce/dovl-backend/pkg/migrate"
	"github.com/dovl-commerce/dovl-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.Mongo, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := dbClient.Close(closeCtx); err != nil {
			logg.Error(closeCtx, "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to ensure dev indexes", err)
		os.Exit(1)
	}

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

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)
	cartMetrics := metrics.NewCartMetrics(registry)

	catalogRepo := catalog.NewRepository(dbClient)
	campaignRepo := campaigns.NewRepository(dbClient)
	userRepo := users.NewRepository(dbClient)
	cartRepo := cart.NewRepository(dbClient)
	orderRepo := orders.NewRepository(dbClient)

	evaluator := campaigns.NewEvaluator(time.Now)
	activeCache, err := campaigns.NewActiveCache(campaignRepo, redisClient, logg)
	requireService(ctx, logg, "campaign cache", err)
	campaignService, err := campaigns.NewService(campaignRepo, activeCache, userRepo, evaluator)
	requireService(ctx, logg, "campaign service", err)
	campaignAdmin, err := campaigns.NewAdminService(campaignRepo, activeCache, logg)
	requireService(ctx, logg, "campaign admin", err)

	engine, err := cart.NewEngine(catalogRepo, campaignRepo, evaluator, cartRepo, cfg.Pricing, logg, cartMetrics)
	requireService(ctx, logg, "cart engine", err)
	cartService, err := cart.NewService(cartRepo, engine, catalogRepo, campaignRepo, userRepo)
	requireService(ctx, logg, "cart service", err)

	numbers, err := orders.NewNumberGenerator(orderRepo, cfg.Orders.NumberPrefix)
	requireService(ctx, logg, "order number generator", err)
	ordersService, err := orders.NewService(orderRepo)
	requireService(ctx, logg, "orders service", err)

	checkoutService, err := checkout.NewService(checkout.Deps{
		Carts:     cartRepo,
		Pricer:    engine,
		Buyers:    userRepo,
		Stock:     catalogRepo,
		Numbers:   numbers,
		Orders:    orderRepo,
		Gateway:   payments.NewAlwaysApprove(),
		Campaigns: campaignRepo,
		Users:     userRepo,
		Logger:    logg,
		Metrics:   checkoutMetrics,
	})
	requireService(ctx, logg, "checkout service", err)

	handler := routes.NewRouter(
		cfg,
		logg,
		dbClient,
		redisClient,
		promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		catalogRepo,
		campaignService,
		campaignAdmin,
		cart.NewResolver(),
		cartService,
		checkoutService,
		ordersService,
	)
	server := api.NewServer(cfg, os.Getenv("PORT"), handler)

	id := os.Getenv("HOSTNAME")
	if id == "" {
		id = "local"
	}
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     server.Addr,
		"instance": id,
	})
	logg.Info(logCtx, "starting api server")

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logg.Error(logCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(logCtx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(logCtx, "graceful shutdown failed", err)
		}
	}
}

func requireService(ctx context.Context, logg *logger.Logger, name string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, "failed to build "+name, err)
	os.Exit(1)
}
