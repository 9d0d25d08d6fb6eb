package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/shopcart/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
)

func TestNewMeterProvider_Disabled(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.TelemetryConfig
	}{
		{"telemetry off", config.TelemetryConfig{Enabled: false, MetricsEnabled: true}},
		{"metrics off", config.TelemetryConfig{Enabled: true, MetricsEnabled: false}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mp, err := NewMeterProvider(context.Background(), tt.cfg, zap.NewNop())
			require.NoError(t, err)
			assert.False(t, mp.IsEnabled())
			assert.NotNil(t, mp.Meter("test"))
			assert.NoError(t, mp.Shutdown(context.Background()))
		})
	}
}

func TestNewMeterProvider_Enabled(t *testing.T) {
	// the gRPC exporter connects lazily, so no collector is needed
	mp, err := NewMeterProvider(context.Background(), config.TelemetryConfig{
		Enabled:           true,
		MetricsEnabled:    true,
		MetricsInterval:   time.Hour,
		CollectorEndpoint: "localhost:14317",
		ServiceName:       "test-service",
		Insecure:          true,
	}, zap.NewNop())
	require.NoError(t, err)
	assert.True(t, mp.IsEnabled())

	c, err := NewCounter(mp.Meter("test"), "test_total", "test", "{item}")
	require.NoError(t, err)
	c.Inc(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_ = mp.Shutdown(ctx)
}

func TestInstruments(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer provider.Shutdown(context.Background())
	meter := provider.Meter("test")
	ctx := context.Background()

	c, err := NewCounter(meter, "things_total", "things", "{thing}")
	require.NoError(t, err)
	c.Inc(ctx)
	c.Add(ctx, 4)

	h, err := NewHistogram(meter, HistogramOpts{Name: "wait_seconds", Unit: "s", Boundaries: DBDurationBuckets})
	require.NoError(t, err)
	h.RecordDuration(ctx, 20*time.Millisecond)
	h.Record(ctx, 2)

	g, err := NewGauge(meter, "level", "level", "{unit}")
	require.NoError(t, err)
	g.Record(ctx, 3)
	g.Record(ctx, 7)

	rm := collect(t, reader)
	assert.Equal(t, int64(5), counterTotal(rm, "things_total"))
	assert.Equal(t, int64(7), gaugeValue(rm, "level", nil))

	hist, ok := findMetric(rm, "wait_seconds")
	require.True(t, ok)
	points := hist.Data.(metricdata.Histogram[float64]).DataPoints
	require.Len(t, points, 1)
	assert.Equal(t, uint64(2), points[0].Count)
	assert.Equal(t, DBDurationBuckets, points[0].Bounds)
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) (metricdata.Metrics, bool) {
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return m, true
			}
		}
	}
	return metricdata.Metrics{}, false
}

// counterTotal sums every data point of an int64 counter; zero when absent
func counterTotal(rm metricdata.ResourceMetrics, name string, attrs ...attribute.KeyValue) int64 {
	m, ok := findMetric(rm, name)
	if !ok {
		return 0
	}
	want := attribute.NewSet(attrs...)
	var total int64
	for _, dp := range m.Data.(metricdata.Sum[int64]).DataPoints {
		if len(attrs) == 0 || dp.Attributes.Equals(&want) {
			total += dp.Value
		}
	}
	return total
}

// gaugeValue returns the data point matching attr, or the only one when attr is nil
func gaugeValue(rm metricdata.ResourceMetrics, name string, attr *attribute.KeyValue) int64 {
	m, ok := findMetric(rm, name)
	if !ok {
		return -1
	}
	for _, dp := range m.Data.(metricdata.Gauge[int64]).DataPoints {
		if attr == nil {
			return dp.Value
		}
		if v, ok := dp.Attributes.Value(attr.Key); ok && v.Emit() == attr.Value.Emit() {
			return dp.Value
		}
	}
	return -1
}
