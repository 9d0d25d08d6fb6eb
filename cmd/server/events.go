package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/shopcart/backend/internal/domain/order"
	"github.com/shopcart/backend/internal/domain/shared"
	"github.com/shopcart/backend/internal/infrastructure/cache"
	"github.com/shopcart/backend/internal/infrastructure/config"
	"github.com/shopcart/backend/internal/infrastructure/event"
	"go.uber.org/zap"
)

// relay is the outbox processor together with whatever it publishes to
type relay struct {
	processor *event.OutboxProcessor
	stop      []func(ctx context.Context) error
}

// newPublisher picks the outbox destination for the configured broker.
// A nil publisher means events stay in the outbox.
func newPublisher(ctx context.Context, cfg config.EventsConfig, serializer *event.EventSerializer, rdb *redis.Client, log *zap.Logger) (shared.EventPublisher, []func(context.Context) error, error) {
	switch cfg.Broker {
	case config.BrokerNone:
		return nil, nil, nil
	case config.BrokerMemory:
		bus := event.NewInMemoryEventBus(log)
		var store shared.IdempotencyStore = cache.NewMemoryProcessedEvents()
		if rdb != nil {
			store = cache.NewRedisProcessedEvents(rdb, "")
		}
		bus.Subscribe(event.NewDedupHandler(event.NewOrderLogHandler(log), store, 0, log), order.EventTypeOrderPlaced)
		if err := bus.Start(ctx); err != nil {
			return nil, nil, err
		}
		return bus, []func(context.Context) error{
			bus.Stop,
			func(context.Context) error { return store.Close() },
		}, nil
	case config.BrokerRabbitMQ:
		p, err := event.NewRabbitMQPublisher(cfg.RabbitMQURL, cfg.RabbitMQExchange, serializer)
		if err != nil {
			return nil, nil, err
		}
		return p, []func(context.Context) error{func(context.Context) error { return p.Close() }}, nil
	case config.BrokerKafka:
		p := event.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, serializer)
		return p, []func(context.Context) error{func(context.Context) error { return p.Close() }}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported event broker %q", cfg.Broker)
	}
}

func startRelay(ctx context.Context, cfg config.EventsConfig, repo shared.OutboxRepository, serializer *event.EventSerializer, rdb *redis.Client, log *zap.Logger) (*relay, error) {
	publisher, stop, err := newPublisher(ctx, cfg, serializer, rdb, log)
	if err != nil {
		return nil, err
	}
	if publisher == nil {
		log.Info("Event relay disabled")
		return &relay{}, nil
	}

	processor := event.NewOutboxProcessor(repo, publisher, serializer, event.OutboxProcessorConfig{
		BatchSize:        cfg.BatchSize,
		PollInterval:     cfg.PollInterval,
		CleanupEnabled:   cfg.CleanupRetention > 0,
		CleanupRetention: cfg.CleanupRetention,
	}, log)
	if err := processor.Start(ctx); err != nil {
		return nil, err
	}
	log.Info("Event relay started", zap.String("broker", cfg.Broker))
	return &relay{processor: processor, stop: stop}, nil
}

// Stop drains the processor before closing the publisher it feeds
func (r *relay) Stop(ctx context.Context) error {
	var firstErr error
	if r.processor != nil {
		firstErr = r.processor.Stop(ctx)
	}
	for _, stop := range r.stop {
		if err := stop(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
