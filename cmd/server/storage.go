package main

import (
	"context"
	"fmt"

	apporder "github.com/shopcart/backend/internal/application/order"
	"github.com/shopcart/backend/internal/domain/account"
	"github.com/shopcart/backend/internal/domain/catalog"
	"github.com/shopcart/backend/internal/domain/order"
	"github.com/shopcart/backend/internal/domain/shared"
	"github.com/shopcart/backend/internal/infrastructure/catalogimport"
	"github.com/shopcart/backend/internal/infrastructure/config"
	"github.com/shopcart/backend/internal/infrastructure/document"
	"github.com/shopcart/backend/internal/infrastructure/logger"
	"github.com/shopcart/backend/internal/infrastructure/migration"
	"github.com/shopcart/backend/internal/infrastructure/persistence"
	"github.com/shopcart/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// stores holds the repositories of the configured driver
type stores struct {
	users   account.UserRepository
	orders  order.OrderRepository
	catalog catalog.ProductCatalog
	seeder  catalogimport.Writer
	scope   apporder.TransactionScope
	outbox  shared.OutboxRepository
	pinger  interface{ Ping(ctx context.Context) error }
	close   func(ctx context.Context) error
}

func openStores(ctx context.Context, cfg *config.Config, outbox shared.OutboxBinder, mp *telemetry.MeterProvider, log *zap.Logger) (*stores, error) {
	switch cfg.Database.Driver {
	case config.DriverMongo:
		return openDocumentStores(ctx, cfg, outbox, log)
	case config.DriverPostgres, config.DriverSQLite:
		return openRelationalStores(ctx, cfg, outbox, mp, log)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
}

func openRelationalStores(ctx context.Context, cfg *config.Config, outbox shared.OutboxBinder, mp *telemetry.MeterProvider, log *zap.Logger) (*stores, error) {
	gormLog := logger.NewGormLogger(log, logger.GormLevel(cfg.Log.Level), cfg.Database.OpTimeout/2)
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		return nil, err
	}

	if cfg.Database.Driver == config.DriverPostgres && cfg.Database.AutoMigrate {
		sqlDB, err := db.DB.DB()
		if err != nil {
			return nil, err
		}
		m, err := migration.New(sqlDB, log)
		if err != nil {
			return nil, err
		}
		// Close would also close sqlDB
		if err := m.Up(); err != nil {
			return nil, err
		}
	}

	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		dbSystem := "postgresql"
		if cfg.Database.Driver == config.DriverSQLite {
			dbSystem = "sqlite"
		}
		if err := telemetry.RegisterGormTracing(db.DB, telemetry.DBTracingConfig{
			DBSystem:      dbSystem,
			SlowThreshold: cfg.Telemetry.DBSlowQueryThresh,
		}, log); err != nil {
			return nil, fmt.Errorf("failed to register database tracing: %w", err)
		}
	}

	stopMetrics := func() {}
	if mp.IsEnabled() && cfg.Telemetry.DBMetricsEnabled {
		dbMetrics, err := telemetry.RegisterDBMetrics(db.DB, mp, telemetry.DBMetricsConfig{
			SlowQueryThreshold: cfg.Telemetry.DBSlowQueryThresh,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("failed to register database metrics: %w", err)
		}
		dbMetrics.StartPoolStatsCollection(ctx)
		stopMetrics = dbMetrics.Stop
	}

	timeout := db.OpTimeout
	products := persistence.NewGormProductCatalog(db.DB, timeout)
	log.Info("Database connected", zap.String("driver", cfg.Database.Driver))
	return &stores{
		users:   persistence.NewGormUserRepository(db.DB, timeout),
		orders:  persistence.NewGormOrderRepository(db.DB, timeout),
		catalog: products,
		seeder:  products,
		scope:   persistence.NewGormTransactionScope(db.DB, timeout, outbox),
		outbox:  persistence.NewGormOutboxRepository(db.DB, timeout),
		pinger:  db,
		close: func(context.Context) error {
			stopMetrics()
			return db.Close()
		},
	}, nil
}

func openDocumentStores(ctx context.Context, cfg *config.Config, outbox shared.OutboxBinder, log *zap.Logger) (*stores, error) {
	db, err := document.Connect(ctx, &cfg.Mongo, cfg.Database.OpTimeout)
	if err != nil {
		return nil, err
	}

	timeout := db.OpTimeout
	products := document.NewProductCatalog(db.DB, timeout)
	log.Info("Database connected", zap.String("driver", config.DriverMongo), zap.String("database", cfg.Mongo.Database))
	return &stores{
		users:   document.NewUserRepository(db.DB, timeout),
		orders:  document.NewOrderRepository(db.DB, timeout),
		catalog: products,
		seeder:  products,
		scope:   document.NewTransactionScope(db.DB, timeout, outbox),
		outbox:  document.NewOutboxRepository(db.DB, timeout),
		pinger:  db,
		close:   db.Close,
	}, nil
}
