package cache

import (
	"context"
	"encoding/json"
	"time"

	redis "github.com/redis/go-redis/v9"

	"tillpoint/backend/internal/domain"
)

type RedisSuspendedCartCache struct {
	client *redis.Client
}

func NewRedisSuspendedCartCache(addr string, password string, db int) *RedisSuspendedCartCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisSuspendedCartCache{client: client}
}

func (c *RedisSuspendedCartCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisSuspendedCartCache) Close() error {
	return c.client.Close()
}

func key(cartID string) string {
	return "held-cart:" + cartID
}

func (c *RedisSuspendedCartCache) Get(ctx context.Context, cartID string) (*domain.Cart, bool, error) {
	val, err := c.client.Get(ctx, key(cartID)).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var cart domain.Cart
	if err := json.Unmarshal([]byte(val), &cart); err != nil {
		return nil, false, err
	}
	return &cart, true, nil
}

func (c *RedisSuspendedCartCache) Set(ctx context.Context, cart domain.Cart, ttl time.Duration) error {
	payload, err := json.Marshal(cart)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key(cart.ID), payload, ttl).Err()
}

func (c *RedisSuspendedCartCache) Delete(ctx context.Context, cartID string) error {
	return c.client.Del(ctx, key(cartID)).Err()
}
