package service

import (
	"context"
	"testing"
	"time"

	"cfp-backend/internal/domain"
	"cfp-backend/pkg/redis"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupCache(t *testing.T) (*miniredis.Miniredis, *CacheService) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	client := redis.NewClientFromRedis(rdb, "test", zap.NewNop())
	t.Cleanup(func() { client.Close() })

	return mr, NewCacheService(client, zap.NewNop())
}

func TestGetEventBySlug_CacheAside(t *testing.T) {
	_, cache := setupCache(t)
	ctx := context.Background()

	loads := 0
	loader := func(ctx context.Context, slug string) (*domain.Event, error) {
		loads++
		return &domain.Event{ID: "ev-1", Slug: slug, Type: domain.EventTypeMeetup}, nil
	}

	event, err := cache.GetEventBySlug(ctx, "gophercon", loader)
	require.NoError(t, err)
	assert.Equal(t, "ev-1", event.ID)
	assert.Equal(t, 1, loads)

	// Second read is served from the cache
	event, err = cache.GetEventBySlug(ctx, "gophercon", loader)
	require.NoError(t, err)
	assert.Equal(t, "ev-1", event.ID)
	assert.Equal(t, 1, loads)
}

func TestGetEventBySlug_MissIsNotCached(t *testing.T) {
	_, cache := setupCache(t)
	ctx := context.Background()

	loads := 0
	loader := func(ctx context.Context, slug string) (*domain.Event, error) {
		loads++
		return nil, nil
	}

	event, err := cache.GetEventBySlug(ctx, "nope", loader)
	require.NoError(t, err)
	assert.Nil(t, event)

	_, err = cache.GetEventBySlug(ctx, "nope", loader)
	require.NoError(t, err)
	assert.Equal(t, 2, loads)
}

func TestSummaryCache_InvalidatedAfterWrite(t *testing.T) {
	_, cache := setupCache(t)
	ctx := context.Background()

	loads := 0
	avg := 4.0
	loader := func(ctx context.Context, proposalID string) (domain.ReviewSummary, error) {
		loads++
		return domain.ReviewSummary{Average: &avg, Positives: 1}, nil
	}

	summary, err := cache.GetSummaryWithCache(ctx, "p1", loader)
	require.NoError(t, err)
	require.NotNil(t, summary.Average)
	assert.Equal(t, 1, loads)

	_, err = cache.GetSummaryWithCache(ctx, "p1", loader)
	require.NoError(t, err)
	assert.Equal(t, 1, loads)

	cache.InvalidateSummary(ctx, "p1")

	_, err = cache.GetSummaryWithCache(ctx, "p1", loader)
	require.NoError(t, err)
	assert.Equal(t, 2, loads)
}

func TestTryIdempotencyLock(t *testing.T) {
	_, cache := setupCache(t)
	ctx := context.Background()

	acquired, err := cache.TryIdempotencyLock(ctx, "publish-req-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, acquired)

	// The same key within the TTL is rejected
	acquired, err = cache.TryIdempotencyLock(ctx, "publish-req-1", time.Minute)
	require.NoError(t, err)
	assert.False(t, acquired)

	// A different key is independent
	acquired, err = cache.TryIdempotencyLock(ctx, "publish-req-2", time.Minute)
	require.NoError(t, err)
	assert.True(t, acquired)
}

func TestCacheService_NilRedisDegrades(t *testing.T) {
	cache := NewCacheService(nil, zap.NewNop())
	ctx := context.Background()

	event, err := cache.GetEventBySlug(ctx, "gophercon", func(ctx context.Context, slug string) (*domain.Event, error) {
		return &domain.Event{ID: "ev-1"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ev-1", event.ID)

	// Without Redis the lock offers no protection but does not fail
	acquired, err := cache.TryIdempotencyLock(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.True(t, acquired)

	assert.NoError(t, cache.Health(ctx))
}

func TestGetRoleWithCache(t *testing.T) {
	_, cache := setupCache(t)
	ctx := context.Background()

	loads := 0
	loader := func(ctx context.Context, userID, teamID string) (domain.Role, error) {
		loads++
		return domain.RoleMember, nil
	}

	role, err := cache.GetRoleWithCache(ctx, "u1", "t1", loader)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleMember, role)

	role, err = cache.GetRoleWithCache(ctx, "u1", "t1", loader)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleMember, role)
	assert.Equal(t, 1, loads)
}
