package cache

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopcart/backend/internal/domain/catalog"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	defaultCatalogTTL    = 5 * time.Minute
	defaultCatalogPrefix = "catalog:product:"
)

// CachedCatalog is a read-through Redis cache in front of a ProductCatalog.
// Redis failures degrade to the underlying catalog; they never fail a read.
// Concurrent misses for the same products share one upstream call.
type CachedCatalog struct {
	next      catalog.ProductCatalog
	client    redis.UniversalClient
	ttl       time.Duration
	keyPrefix string
	group     singleflight.Group
	logger    *zap.Logger
}

// CachedCatalogOption configures a CachedCatalog
type CachedCatalogOption func(*CachedCatalog)

// WithCatalogTTL sets the base time-to-live of cached products
func WithCatalogTTL(ttl time.Duration) CachedCatalogOption {
	return func(c *CachedCatalog) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithCatalogKeyPrefix sets the Redis key prefix
func WithCatalogKeyPrefix(prefix string) CachedCatalogOption {
	return func(c *CachedCatalog) {
		if prefix != "" {
			c.keyPrefix = prefix
		}
	}
}

// WithCatalogLogger sets the logger
func WithCatalogLogger(logger *zap.Logger) CachedCatalogOption {
	return func(c *CachedCatalog) {
		c.logger = logger
	}
}

// NewCachedCatalog wraps next with a Redis cache
func NewCachedCatalog(next catalog.ProductCatalog, client redis.UniversalClient, opts ...CachedCatalogOption) *CachedCatalog {
	c := &CachedCatalog{
		next:      next,
		client:    client,
		ttl:       defaultCatalogTTL,
		keyPrefix: defaultCatalogPrefix,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns a single product. Missing products are not cached.
func (c *CachedCatalog) Get(ctx context.Context, id catalog.ProductID) (*catalog.Product, error) {
	data, err := c.client.Get(ctx, c.key(id)).Bytes()
	switch {
	case err == nil:
		if p, ok := c.decode(id, data); ok {
			return p, nil
		}
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("catalog cache read failed", zap.String("product_id", id.String()), zap.Error(err))
	}

	v, err, _ := c.group.Do(c.key(id), func() (interface{}, error) {
		p, err := c.next.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		c.store(ctx, p)
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*catalog.Product), nil
}

// GetMany returns the products that exist, keyed by ID
func (c *CachedCatalog) GetMany(ctx context.Context, ids []catalog.ProductID) (map[catalog.ProductID]*catalog.Product, error) {
	ids = catalog.UniqueIDs(ids)
	result := make(map[catalog.ProductID]*catalog.Product, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = c.key(id)
	}

	missing := ids
	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		c.logger.Warn("catalog cache read failed", zap.Int("products", len(ids)), zap.Error(err))
	} else {
		missing = make([]catalog.ProductID, 0, len(ids))
		for i, v := range values {
			s, ok := v.(string)
			if !ok {
				missing = append(missing, ids[i])
				continue
			}
			p, ok := c.decode(ids[i], []byte(s))
			if !ok {
				missing = append(missing, ids[i])
				continue
			}
			result[ids[i]] = p
		}
	}
	if len(missing) == 0 {
		return result, nil
	}

	v, err, _ := c.group.Do(c.batchKey(missing), func() (interface{}, error) {
		found, err := c.next.GetMany(ctx, missing)
		if err != nil {
			return nil, err
		}
		products := make([]*catalog.Product, 0, len(found))
		for _, p := range found {
			products = append(products, p)
		}
		c.store(ctx, products...)
		return found, nil
	})
	if err != nil {
		return nil, err
	}
	for id, p := range v.(map[catalog.ProductID]*catalog.Product) {
		result[id] = p
	}
	return result, nil
}

// Invalidate drops cached products, e.g. after the catalog changed them
func (c *CachedCatalog) Invalidate(ctx context.Context, ids ...catalog.ProductID) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = c.key(id)
	}
	return c.client.Del(ctx, keys...).Err()
}

func (c *CachedCatalog) store(ctx context.Context, products ...*catalog.Product) {
	if len(products) == 0 {
		return
	}
	pipe := c.client.Pipeline()
	for _, p := range products {
		data, err := json.Marshal(p)
		if err != nil {
			continue
		}
		pipe.Set(ctx, c.key(p.ID), data, c.jitteredTTL())
	}
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Warn("catalog cache write failed", zap.Int("products", len(products)), zap.Error(err))
	}
}

func (c *CachedCatalog) decode(id catalog.ProductID, data []byte) (*catalog.Product, bool) {
	var p catalog.Product
	if err := json.Unmarshal(data, &p); err != nil {
		c.logger.Warn("dropping unreadable catalog cache entry", zap.String("product_id", id.String()), zap.Error(err))
		return nil, false
	}
	return &p, true
}

// jitteredTTL spreads expiry over ttl..1.2*ttl so entries cached together
// do not all expire together
func (c *CachedCatalog) jitteredTTL() time.Duration {
	return c.ttl + time.Duration(rand.Int63n(int64(c.ttl)/5+1))
}

func (c *CachedCatalog) key(id catalog.ProductID) string {
	return c.keyPrefix + id.String()
}

func (c *CachedCatalog) batchKey(ids []catalog.ProductID) string {
	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = id.String()
	}
	sort.Strings(raw)
	return "batch:" + strings.Join(raw, ",")
}

// Ensure CachedCatalog implements catalog.ProductCatalog
var _ catalog.ProductCatalog = (*CachedCatalog)(nil)
