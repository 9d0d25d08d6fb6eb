package telemetry

import (
	"context"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// ShopMetrics counts order placement and optimistic-lock contention
type ShopMetrics struct {
	logger *zap.Logger

	orderPlaced        *Counter
	orderReplayed      *Counter
	orderAmount        *Counter
	conflictRetries    *Counter
	conflictsExhausted *Counter
}

// ShopMetricsConfig holds the dependencies of ShopMetrics
type ShopMetricsConfig struct {
	Meter  metric.Meter
	Logger *zap.Logger
}

// NewShopMetrics creates the shop instruments on cfg.Meter
func NewShopMetrics(cfg ShopMetricsConfig) (*ShopMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &ShopMetrics{logger: logger}
	var err error
	if m.orderPlaced, err = NewCounter(cfg.Meter, "shop_order_placed_total",
		"Orders committed", "{order}"); err != nil {
		return nil, err
	}
	if m.orderReplayed, err = NewCounter(cfg.Meter, "shop_order_replayed_total",
		"Order requests answered from an earlier order with the same idempotency key", "{order}"); err != nil {
		return nil, err
	}
	if m.orderAmount, err = NewCounter(cfg.Meter, "shop_order_amount_total",
		"Total amount of committed orders in cents", "{cent}"); err != nil {
		return nil, err
	}
	if m.conflictRetries, err = NewCounter(cfg.Meter, "shop_conflict_retries_total",
		"Optimistic-lock conflicts that were retried", "{retry}"); err != nil {
		return nil, err
	}
	if m.conflictsExhausted, err = NewCounter(cfg.Meter, "shop_conflicts_exhausted_total",
		"Operations that ran out of conflict retries and failed as transient", "{operation}"); err != nil {
		return nil, err
	}
	return m, nil
}

// OrderPlaced counts a committed order and adds its total in cents
func (m *ShopMetrics) OrderPlaced(ctx context.Context, pricingMode string, total decimal.Decimal) {
	attr := AttrPricingMode.String(pricingMode)
	m.orderPlaced.Inc(ctx, attr)
	m.orderAmount.Add(ctx, total.Shift(2).Round(0).IntPart(), attr)
}

// OrderReplayed counts an idempotent replay
func (m *ShopMetrics) OrderReplayed(ctx context.Context) {
	m.orderReplayed.Inc(ctx)
}

// ConflictRetried counts one retry after an optimistic-lock conflict
func (m *ShopMetrics) ConflictRetried(ctx context.Context) {
	m.conflictRetries.Inc(ctx)
}

// ConflictsExhausted counts an operation given up on as transient
func (m *ShopMetrics) ConflictsExhausted(ctx context.Context) {
	m.conflictsExhausted.Inc(ctx)
	m.logger.Warn("Conflict retries exhausted")
}

// ErrMeterNil is returned when a metrics set is built without a meter
var ErrMeterNil = &MetricsError{Op: "NewShopMetrics", Err: "meter cannot be nil"}

// MetricsError reports a failure to build instruments
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
