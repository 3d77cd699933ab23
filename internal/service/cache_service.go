package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"cfp-backend/internal/domain"
	"cfp-backend/pkg/redis"

	"go.uber.org/zap"
)

// CacheService wraps the optional Redis layer. Every method degrades to
// the loader when Redis is unconfigured or failing; caching is never
// allowed to fail an operation.
type CacheService struct {
	redis  *redis.Client
	logger *zap.Logger
}

// NewCacheService creates a new cache service
func NewCacheService(redisClient *redis.Client, logger *zap.Logger) *CacheService {
	return &CacheService{redis: redisClient, logger: logger}
}

// GetEventBySlug returns the event through the cache
func (s *CacheService) GetEventBySlug(ctx context.Context, slug string,
	loader func(ctx context.Context, slug string) (*domain.Event, error)) (*domain.Event, error) {

	if s.redis == nil {
		return loader(ctx, slug)
	}

	key := s.redis.KeyBuilder.KeyEventBySlug(slug)
	if cached, err := s.redis.Get(ctx, key); err == nil && cached != "" {
		var event domain.Event
		if err := json.Unmarshal([]byte(cached), &event); err == nil {
			return &event, nil
		}
	}

	event, err := loader(ctx, slug)
	if err != nil || event == nil {
		return event, err
	}

	if data, err := json.Marshal(event); err == nil {
		if err := s.redis.Set(ctx, key, string(data), redis.TTLEvent); err != nil {
			s.logger.Warn("Failed to cache event", zap.String("slug", slug), zap.Error(err))
		}
	}
	return event, nil
}

// GetEventByID returns the event through the cache
func (s *CacheService) GetEventByID(ctx context.Context, eventID string,
	loader func(ctx context.Context, id string) (*domain.Event, error)) (*domain.Event, error) {

	if s.redis == nil {
		return loader(ctx, eventID)
	}

	key := s.redis.KeyBuilder.KeyEventByID(eventID)
	if cached, err := s.redis.Get(ctx, key); err == nil && cached != "" {
		var event domain.Event
		if err := json.Unmarshal([]byte(cached), &event); err == nil {
			return &event, nil
		}
	}

	event, err := loader(ctx, eventID)
	if err != nil || event == nil {
		return event, err
	}

	if data, err := json.Marshal(event); err == nil {
		if err := s.redis.Set(ctx, key, string(data), redis.TTLEvent); err != nil {
			s.logger.Warn("Failed to cache event", zap.String("event_id", eventID), zap.Error(err))
		}
	}
	return event, nil
}

// GetSummaryWithCache returns the materialized review summary through
// the cache. Review writes invalidate this key in-band, so a hit is at
// most TTLSummary behind a write that bypassed this process.
func (s *CacheService) GetSummaryWithCache(ctx context.Context, proposalID string,
	loader func(ctx context.Context, proposalID string) (domain.ReviewSummary, error)) (domain.ReviewSummary, error) {

	if s.redis == nil {
		return loader(ctx, proposalID)
	}

	key := s.redis.KeyBuilder.KeyProposalSummary(proposalID)
	if cached, err := s.redis.Get(ctx, key); err == nil && cached != "" {
		var summary domain.ReviewSummary
		if err := json.Unmarshal([]byte(cached), &summary); err == nil {
			return summary, nil
		}
	}

	summary, err := loader(ctx, proposalID)
	if err != nil {
		return summary, err
	}

	if data, err := json.Marshal(summary); err == nil {
		if err := s.redis.Set(ctx, key, string(data), redis.TTLSummary); err != nil {
			s.logger.Warn("Failed to cache summary", zap.String("proposal_id", proposalID), zap.Error(err))
		}
	}
	return summary, nil
}

// InvalidateSummary drops the cached summary after a review write
func (s *CacheService) InvalidateSummary(ctx context.Context, proposalID string) {
	if s.redis == nil {
		return
	}
	key := s.redis.KeyBuilder.KeyProposalSummary(proposalID)
	if err := s.redis.Delete(ctx, key); err != nil {
		s.logger.Warn("Failed to invalidate summary cache",
			zap.String("proposal_id", proposalID), zap.Error(err))
	}
}

// GetRoleWithCache returns the caller's team role through the cache
func (s *CacheService) GetRoleWithCache(ctx context.Context, userID, teamID string,
	loader func(ctx context.Context, userID, teamID string) (domain.Role, error)) (domain.Role, error) {

	if s.redis == nil {
		return loader(ctx, userID, teamID)
	}

	key := s.redis.KeyBuilder.KeyMemberRole(teamID, userID)
	if cached, err := s.redis.Get(ctx, key); err == nil && cached != "" {
		return domain.Role(cached), nil
	}

	role, err := loader(ctx, userID, teamID)
	if err != nil || role == "" {
		return role, err
	}

	if err := s.redis.Set(ctx, key, string(role), redis.TTLMemberRole); err != nil {
		s.logger.Warn("Failed to cache role", zap.String("team_id", teamID), zap.Error(err))
	}
	return role, nil
}

// TryIdempotencyLock attempts to acquire a lock for a client-supplied
// idempotency key. Returns true when acquired (first submission), false
// when the key is already held within the TTL. Redis being down means no
// protection, not a failure.
func (s *CacheService) TryIdempotencyLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if s.redis == nil {
		return true, nil
	}
	lockKey := s.redis.KeyBuilder.KeyBulkLock(fingerprint(key))
	acquired, err := s.redis.SetNX(ctx, lockKey, "1", ttl)
	if err != nil {
		s.logger.Warn("Idempotency lock unavailable", zap.Error(err))
		return true, nil
	}
	return acquired, nil
}

// Health checks the cache connection
func (s *CacheService) Health(ctx context.Context) error {
	if s.redis == nil {
		return nil
	}
	return s.redis.Health(ctx)
}

func fingerprint(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:8])
}
