package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/Hanafy91/buddytour/config"
	"github.com/Hanafy91/buddytour/internal/domain"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client          *redis.Client
	availabilityTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, availabilityTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:          redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		availabilityTTL: availabilityTTL,
	}
}

func (c *RedisCache) GetAvailability(ctx context.Context, slot domain.Slot) (int, bool, error) {
	data, err := c.client.Get(ctx, availabilityKey(slot)).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, false, nil
		}
		return 0, false, err
	}
	remaining, err := strconv.Atoi(data)
	if err != nil {
		return 0, false, nil
	}
	return remaining, true, nil
}

func (c *RedisCache) SetAvailability(ctx context.Context, slot domain.Slot, remaining int) error {
	return c.client.Set(ctx, availabilityKey(slot), strconv.Itoa(remaining), c.availabilityTTL).Err()
}

func (c *RedisCache) InvalidateAvailability(ctx context.Context, slot domain.Slot) error {
	return c.client.Del(ctx, availabilityKey(slot)).Err()
}

// AcquireReconcileLock serializes terminal processing of one gateway
// transaction across concurrent webhook redeliveries.
func (c *RedisCache) AcquireReconcileLock(ctx context.Context, transactionID string, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, reconcileLockKey(transactionID), "locked", ttl).Result()
}

func (c *RedisCache) ReleaseReconcileLock(ctx context.Context, transactionID string) error {
	return c.client.Del(ctx, reconcileLockKey(transactionID)).Err()
}

func availabilityKey(slot domain.Slot) string {
	return fmt.Sprintf("cache:availability:%d:%s:%s", slot.TourID, slot.Date, slot.Time)
}

func reconcileLockKey(transactionID string) string {
	return fmt.Sprintf("lock:reconcile:%s", transactionID)
}
