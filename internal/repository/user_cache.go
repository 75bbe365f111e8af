package repository

import (
	"context"
	"time"

	"github.com/chronos-ua/chronos-backend/internal/cache"
	"github.com/chronos-ua/chronos-backend/internal/models"
	"github.com/redis/go-redis/v9"
)

const userCacheTTL = 30 * time.Second

// CachedUserRepository caches user reads in Redis. The dispatcher loads the
// user document on every send, so even a short TTL takes the pressure off
// Mongo during reminder bursts. Writes invalidate the entry.
type CachedUserRepository struct {
	inner IUserRepository
	rdb   *redis.Client
}

func NewCachedUserRepository(inner IUserRepository, rdb *redis.Client) IUserRepository {
	return &CachedUserRepository{inner: inner, rdb: rdb}
}

func userCacheKey(id string) string {
	return "user:" + id
}

func (r *CachedUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return cache.GetOrSet(ctx, r.rdb, userCacheKey(id), userCacheTTL, func(ctx context.Context) (*models.User, error) {
		return r.inner.GetByID(ctx, id)
	})
}

func (r *CachedUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.inner.GetByEmail(ctx, email)
}

func (r *CachedUserRepository) AddPushSubscription(ctx context.Context, userID string, sub models.PushSubscription) error {
	if err := r.inner.AddPushSubscription(ctx, userID, sub); err != nil {
		return err
	}
	cache.Invalidate(ctx, r.rdb, userCacheKey(userID))
	return nil
}

func (r *CachedUserRepository) RemovePushSubscription(ctx context.Context, userID, endpoint string) error {
	if err := r.inner.RemovePushSubscription(ctx, userID, endpoint); err != nil {
		return err
	}
	cache.Invalidate(ctx, r.rdb, userCacheKey(userID))
	return nil
}

func (r *CachedUserRepository) RemovePushSubscriptions(ctx context.Context, userID string, endpoints []string) error {
	if err := r.inner.RemovePushSubscriptions(ctx, userID, endpoints); err != nil {
		return err
	}
	cache.Invalidate(ctx, r.rdb, userCacheKey(userID))
	return nil
}
