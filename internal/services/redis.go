package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/lowilleq/exterra/internal/models"
)

// NewRedisClient connects to addr and verifies the connection with PING.
func NewRedisClient(addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pong, err := client.Ping(ctx).Result()
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	log.Printf("[Redis] connected to %s (%s)", addr, pong)

	return client, nil
}

// RedisIdentityCache stores one device's identity under
// identity:<device>:<key>, relying on redis TTLs for expiry.
type RedisIdentityCache struct {
	client *redis.Client
	device string
}

// NewRedisIdentityCache scopes the cache to a device id.
func NewRedisIdentityCache(client *redis.Client, device string) *RedisIdentityCache {
	return &RedisIdentityCache{client: client, device: device}
}

func (r *RedisIdentityCache) key(key string) string {
	return "identity:" + r.device + ":" + key
}

// Get returns the value when the redis key still exists.
func (r *RedisIdentityCache) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := r.client.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Set writes value with ttl.
func (r *RedisIdentityCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.client.Set(ctx, r.key(key), value, ttl).Err()
}

// Remove deletes key.
func (r *RedisIdentityCache) Remove(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.key(key)).Err()
}

// ProductCache is a read-through cache in front of the products table.
type ProductCache interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Product, bool)
	Set(ctx context.Context, product *models.Product)
	Invalidate(ctx context.Context, id uuid.UUID)
}

// NoopProductCache never hits.
type NoopProductCache struct{}

func (NoopProductCache) Get(context.Context, uuid.UUID) (*models.Product, bool) { return nil, false }
func (NoopProductCache) Set(context.Context, *models.Product)                   {}
func (NoopProductCache) Invalidate(context.Context, uuid.UUID)                  {}

// RedisProductCache stores products as JSON under product:<id>.
// Failures are logged and treated as misses.
type RedisProductCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisProductCache constructs RedisProductCache.
func NewRedisProductCache(client *redis.Client, ttl time.Duration) *RedisProductCache {
	return &RedisProductCache{client: client, ttl: ttl}
}

func productKey(id uuid.UUID) string {
	return "product:" + id.String()
}

func (r *RedisProductCache) Get(ctx context.Context, id uuid.UUID) (*models.Product, bool) {
	raw, err := r.client.Get(ctx, productKey(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("[Redis] product cache read %s: %v", id, err)
		}
		return nil, false
	}
	var product models.Product
	if err := json.Unmarshal(raw, &product); err != nil {
		log.Printf("[Redis] product cache decode %s: %v", id, err)
		return nil, false
	}
	return &product, true
}

func (r *RedisProductCache) Set(ctx context.Context, product *models.Product) {
	raw, err := json.Marshal(product)
	if err != nil {
		log.Printf("[Redis] product cache encode %s: %v", product.ID, err)
		return
	}
	if err := r.client.Set(ctx, productKey(product.ID), raw, r.ttl).Err(); err != nil {
		log.Printf("[Redis] product cache write %s: %v", product.ID, err)
	}
}

func (r *RedisProductCache) Invalidate(ctx context.Context, id uuid.UUID) {
	if err := r.client.Del(ctx, productKey(id)).Err(); err != nil {
		log.Printf("[Redis] product cache invalidate %s: %v", id, err)
	}
}
