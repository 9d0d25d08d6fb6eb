package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	_ "github.com/shopcart/backend/docs"
	appaccount "github.com/shopcart/backend/internal/application/account"
	apporder "github.com/shopcart/backend/internal/application/order"
	"github.com/shopcart/backend/internal/application/retry"
	"github.com/shopcart/backend/internal/domain/catalog"
	"github.com/shopcart/backend/internal/infrastructure/auth"
	"github.com/shopcart/backend/internal/infrastructure/cache"
	"github.com/shopcart/backend/internal/infrastructure/catalogimport"
	"github.com/shopcart/backend/internal/infrastructure/config"
	"github.com/shopcart/backend/internal/infrastructure/event"
	"github.com/shopcart/backend/internal/infrastructure/logger"
	"github.com/shopcart/backend/internal/infrastructure/telemetry"
	"github.com/shopcart/backend/internal/interfaces/http/handler"
	"github.com/shopcart/backend/internal/interfaces/http/middleware"
	"github.com/shopcart/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

//go:generate swag init -g cmd/server/main.go -d ../../ -o ../../docs

//	@title			Shopcart API
//	@version		1.0
//	@description	Accounts, carts, favourites and orders of the shop
//	@BasePath		/

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting shop backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("driver", cfg.Database.Driver),
		zap.String("broker", cfg.Events.Broker),
	)
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	lp, err := telemetry.NewLoggerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize log export", zap.Error(err))
	}
	log = telemetry.BridgeLogger(log, lp, cfg.Telemetry.ServiceName)

	tp, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	mp, err := telemetry.NewMeterProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}
	shopMetrics, err := telemetry.NewShopMetrics(telemetry.ShopMetricsConfig{
		Meter:  mp.Meter(cfg.Telemetry.ServiceName),
		Logger: log,
	})
	if err != nil {
		log.Fatal("Failed to create shop metrics", zap.Error(err))
	}

	serializer := event.NewDefaultSerializer()
	st, err := openStores(ctx, cfg, event.NewOutboxPublisher(serializer), mp, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}

	if cfg.Catalog.SeedFile != "" {
		if _, err := catalogimport.NewLoader(st.seeder, log).LoadFile(ctx, cfg.Catalog.SeedFile); err != nil {
			log.Fatal("Failed to seed catalog", zap.String("file", cfg.Catalog.SeedFile), zap.Error(err))
		}
	}

	var rdb *redis.Client
	products := st.catalog
	if cfg.Redis.Enabled {
		rdb, err = cache.NewRedisClient(cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		products = cache.NewCachedCatalog(st.catalog, rdb,
			cache.WithCatalogTTL(cfg.Catalog.CacheTTL),
			cache.WithCatalogLogger(log))
		log.Info("Catalog cache enabled", zap.String("addr", cfg.Redis.Addr()))
	}

	rl, err := startRelay(ctx, cfg.Events, st.outbox, serializer, rdb, log)
	if err != nil {
		log.Fatal("Failed to start event relay", zap.Error(err))
	}

	tokens := auth.NewJWTService(cfg.JWT)
	engine, err := router.NewEngine(newHandlers(cfg, st, products, tokens, shopMetrics, log), router.Options{
		Logger:   log,
		Verifier: tokens,
		Tracing: middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		},
		CORS:           corsConfig(cfg.HTTP),
		MaxBodySize:    cfg.HTTP.MaxBodySize,
		TrustedProxies: cfg.HTTP.TrustedProxies,
		AuthLimiter:    authLimiter(cfg.HTTP),
		Swagger: middleware.SwaggerConfig{
			Enabled:     cfg.Swagger.Enabled,
			RequireAuth: cfg.Swagger.RequireAuth,
			AllowedIPs:  cfg.Swagger.AllowedIPs,
		},
	})
	if err != nil {
		log.Fatal("Failed to build router", zap.Error(err))
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := rl.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping event relay", zap.Error(err))
	}
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			log.Error("Error closing Redis", zap.Error(err))
		}
	}
	if err := st.close(shutdownCtx); err != nil {
		log.Error("Error closing database", zap.Error(err))
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down tracer provider", zap.Error(err))
	}
	if err := mp.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down meter provider", zap.Error(err))
	}

	log.Info("Server exited gracefully")
	if err := lp.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down logger provider", zap.Error(err))
	}
}

func newHandlers(cfg *config.Config, st *stores, products catalog.ProductCatalog, tokens *auth.JWTService, metrics *telemetry.ShopMetrics, log *zap.Logger) router.Handlers {
	policy := retry.Policy{
		MaxRetries:      cfg.Concurrency.MaxRetries,
		InitialInterval: cfg.Concurrency.InitialBackoff,
		MaxInterval:     cfg.Concurrency.MaxBackoff,
		Observer:        metrics,
	}
	accountCfg := appaccount.ServiceConfig{VerifyProducts: cfg.Catalog.VerifyOnAdd, Retry: policy}
	orderCfg := apporder.ServiceConfig{PricingMode: cfg.Order.PricingMode, Retry: policy, Metrics: metrics}

	return router.Handlers{
		Account:   handler.NewAccountHandler(appaccount.NewCredentialService(st.users, tokens, cfg.JWT.BcryptCost, log)),
		Cart:      handler.NewCartHandler(appaccount.NewCartService(st.users, products, accountCfg, log)),
		Favourite: handler.NewFavouriteHandler(appaccount.NewFavouriteService(st.users, products, accountCfg, log)),
		Order:     handler.NewOrderHandler(apporder.NewOrderService(st.scope, st.users, st.orders, products, orderCfg, log)),
		System:    handler.NewSystemHandler(st.pinger),
	}
}

func corsConfig(cfg config.HTTPConfig) middleware.CORSConfig {
	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.CORSAllowOrigins
	if len(cfg.CORSAllowMethods) > 0 {
		cors.AllowMethods = cfg.CORSAllowMethods
	}
	if len(cfg.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = cfg.CORSAllowHeaders
	}
	return cors
}

func authLimiter(cfg config.HTTPConfig) *middleware.RateLimiter {
	if !cfg.RateLimitEnabled {
		return nil
	}
	return middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)
}
