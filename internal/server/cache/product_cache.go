package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/dmitrijs2005/printpeak/internal/logging"
	"github.com/dmitrijs2005/printpeak/internal/server/models"
	"github.com/dmitrijs2005/printpeak/internal/server/repositories/products"
	"github.com/redis/go-redis/v9"
)

const (
	allProductsKey = "products:all"
	defaultTTL     = 5 * time.Minute
)

func productKey(id string) string { return "product:" + id }

// CachedProductRepository implements products.Repository. Reads are served
// from Redis when possible; every write drops the affected keys. Redis
// failures are logged and the call goes to the database.
type CachedProductRepository struct {
	realRepo products.Repository
	redis    redis.UniversalClient
	logger   logging.Logger
	ttl      time.Duration
}

var _ products.Repository = (*CachedProductRepository)(nil)

func NewCachedProductRepository(realRepo products.Repository, rdb redis.UniversalClient, logger logging.Logger) *CachedProductRepository {
	if logger == nil {
		logger = logging.Nop{}
	}
	return &CachedProductRepository{
		realRepo: realRepo,
		redis:    rdb,
		logger:   logger,
		ttl:      defaultTTL,
	}
}

// lookup reports whether key held a decodable value, decoding it into dst.
func (c *CachedProductRepository) lookup(ctx context.Context, key string, dst any) bool {
	data, err := c.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if err := json.Unmarshal(data, dst); err != nil {
			c.logger.Warn(ctx, "cached value is corrupt, continuing with DB", "key", key, "error", err)
			return false
		}
		return true
	case errors.Is(err, redis.Nil):
	default:
		c.logger.Warn(ctx, "redis error, continuing with DB", "key", key, "error", err)
	}
	return false
}

func (c *CachedProductRepository) store(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn(ctx, "failed to marshal for cache", "key", key, "error", err)
		return
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn(ctx, "failed to cache", "key", key, "error", err)
	}
}

func (c *CachedProductRepository) invalidate(ctx context.Context, ids ...string) {
	keys := []string{allProductsKey}
	for _, id := range ids {
		keys = append(keys, productKey(id))
	}
	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn(ctx, "failed to invalidate product cache", "keys", keys, "error", err)
	}
}

func (c *CachedProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	key := productKey(id)

	var cached models.Product
	if c.lookup(ctx, key, &cached) {
		return &cached, nil
	}

	p, err := c.realRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, p)
	return p, nil
}

func (c *CachedProductRepository) List(ctx context.Context) ([]*models.Product, error) {
	var cached []*models.Product
	if c.lookup(ctx, allProductsKey, &cached) {
		return cached, nil
	}

	list, err := c.realRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	c.store(ctx, allProductsKey, list)
	return list, nil
}

func (c *CachedProductRepository) Create(ctx context.Context, p *models.Product) (*models.Product, error) {
	out, err := c.realRepo.Create(ctx, p)
	c.invalidate(ctx)
	return out, err
}

func (c *CachedProductRepository) Update(ctx context.Context, p *models.Product) (*models.Product, error) {
	out, err := c.realRepo.Update(ctx, p)
	c.invalidate(ctx, p.ID)
	return out, err
}

func (c *CachedProductRepository) Delete(ctx context.Context, id string) error {
	err := c.realRepo.Delete(ctx, id)
	c.invalidate(ctx, id)
	return err
}

// DeleteAll also sweeps every product:<id> key.
func (c *CachedProductRepository) DeleteAll(ctx context.Context) (int64, error) {
	n, err := c.realRepo.DeleteAll(ctx)

	var ids []string
	iter := c.redis.Scan(ctx, 0, productKey("*"), 100).Iterator()
	for iter.Next(ctx) {
		ids = append(ids, iter.Val()[len(productKey("")):])
	}
	if scanErr := iter.Err(); scanErr != nil {
		c.logger.Warn(ctx, "failed to scan product cache", "error", scanErr)
	}
	c.invalidate(ctx, ids...)

	return n, err
}
