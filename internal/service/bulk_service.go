package service

import (
	"context"

	"cfp-backend/internal/domain"
	"cfp-backend/internal/repository"
	"cfp-backend/pkg/errors"
	"cfp-backend/pkg/redis"

	"go.uber.org/zap"
)

// BulkService applies deliberation and publication to many proposals at
// once. Bulk operations are per-item: one bad proposal is skipped and
// counted, never rolled into an all-or-nothing failure.
type BulkService struct {
	proposals repository.ProposalRepository
	access    *eventAccess
	notifier  Notifier
	cache     *CacheService
	logger    *zap.Logger
}

// NewBulkService creates a new bulk workflow service
func NewBulkService(
	proposals repository.ProposalRepository,
	events repository.EventRepository,
	members repository.MembershipRepository,
	notifier Notifier,
	cache *CacheService,
	logger *zap.Logger,
) *BulkService {
	return &BulkService{
		proposals: proposals,
		access:    &eventAccess{events: events, members: members, cache: cache},
		notifier:  notifier,
		cache:     cache,
		logger:    logger,
	}
}

// BulkDeliberate moves every selected proposal to the given outcome.
// Selections are resolved at execution time, so an all-matching
// selection picks up proposals created after the client queried and
// drops ones that no longer match.
func (s *BulkService) BulkDeliberate(ctx context.Context, caller domain.Caller, slug string, sel domain.Selection, outcome domain.DeliberationStatus, force bool) (*domain.BulkResult, error) {
	event, err := s.organizerEvent(ctx, caller, slug)
	if err != nil {
		return nil, err
	}

	ids, err := s.resolveSelection(ctx, event.ID, sel, caller.UserID)
	if err != nil {
		return nil, err
	}

	result := &domain.BulkResult{}
	for _, id := range ids {
		proposal, err := s.proposals.GetByID(ctx, id)
		if err != nil {
			result.Skipped++
			s.logger.Warn("Bulk deliberation skipped proposal",
				zap.String("proposal_id", id), zap.Error(err))
			continue
		}
		// Explicit selections can carry arbitrary IDs; only proposals of
		// this event are eligible.
		if proposal == nil || proposal.EventID != event.ID {
			result.Skipped++
			continue
		}
		if _, err := s.proposals.ApplyDeliberation(ctx, id, outcome, force); err != nil {
			result.Skipped++
			s.logger.Warn("Bulk deliberation skipped proposal",
				zap.String("proposal_id", id),
				zap.String("outcome", string(outcome)),
				zap.Error(err))
			continue
		}
		result.Updated++
	}

	s.logger.Info("Bulk deliberation finished",
		zap.String("event", event.Slug),
		zap.String("outcome", string(outcome)),
		zap.Int("updated", result.Updated),
		zap.Int("skipped", result.Skipped))

	return result, nil
}

// PublishResults publishes the current deliberation outcome of every
// selected proposal. With notify set, each proposal whose outcome has
// not been announced yet gets exactly one notification; the sent-flag
// and the dispatch commit or roll back together, so a delivery failure
// leaves the proposal eligible for the next publish. Re-running a
// publish over the same selection is a no-op for already-notified
// proposals.
func (s *BulkService) PublishResults(ctx context.Context, caller domain.Caller, slug string, sel domain.Selection, notify bool, idempotencyKey string) (*domain.BulkResult, error) {
	event, err := s.organizerEvent(ctx, caller, slug)
	if err != nil {
		return nil, err
	}

	if idempotencyKey != "" {
		acquired, err := s.cache.TryIdempotencyLock(ctx, idempotencyKey, redis.TTLBulkLock)
		if err != nil {
			return nil, errors.NewInternalError("Failed to check idempotency key", err)
		}
		if !acquired {
			return nil, errors.NewConflictError("A publish with this idempotency key is already in flight", nil)
		}
	}

	ids, err := s.resolveSelection(ctx, event.ID, sel, caller.UserID)
	if err != nil {
		return nil, err
	}

	dispatch := func(ctx context.Context, p *domain.Proposal) error {
		if !notify {
			return nil
		}
		return s.notifier.Notify(ctx, p, p.DeliberationStatus)
	}

	result := &domain.BulkResult{}
	for _, id := range ids {
		proposal, err := s.proposals.GetByID(ctx, id)
		if err != nil || proposal == nil {
			result.Skipped++
			s.logger.Warn("Publish skipped missing proposal", zap.String("proposal_id", id), zap.Error(err))
			continue
		}
		if proposal.EventID != event.ID {
			result.Skipped++
			continue
		}
		if proposal.DeliberationStatus == domain.DeliberationPending {
			result.Skipped++
			continue
		}

		claimed, err := s.proposals.ClaimNotification(ctx, id, proposal.DeliberationStatus, dispatch)
		if err != nil {
			result.Skipped++
			if errors.IsType(err, errors.ErrorTypeDelivery) {
				s.logger.Warn("Notification dispatch failed, proposal left unpublished",
					zap.String("proposal_id", id), zap.Error(err))
			} else {
				s.logger.Error("Publish failed for proposal",
					zap.String("proposal_id", id), zap.Error(err))
			}
			continue
		}
		if !claimed {
			// Already announced earlier; repeated publishes count it as
			// skipped instead of re-sending.
			result.Skipped++
			continue
		}
		if notify {
			result.Notified++
		} else {
			result.Updated++
		}
	}

	s.logger.Info("Publish finished",
		zap.String("event", event.Slug),
		zap.Bool("notify", notify),
		zap.Int("notified", result.Notified),
		zap.Int("updated", result.Updated),
		zap.Int("skipped", result.Skipped))

	return result, nil
}

// resolveSelection turns a selection into concrete proposal IDs. Filter
// selections run against the database now, not against whatever the
// client saw when it built the request.
func (s *BulkService) resolveSelection(ctx context.Context, eventID string, sel domain.Selection, callerID string) ([]string, error) {
	if !sel.IsAllMatching() {
		if len(sel.IDs) == 0 {
			return nil, errors.NewValidationError("Selection is empty", nil)
		}
		return sel.IDs, nil
	}

	ids, err := s.proposals.ListIDs(ctx, eventID, *sel.AllMatching, callerID)
	if err != nil {
		return nil, errors.NewInternalError("Failed to resolve selection", err)
	}

	if len(sel.ExcludeIDs) > 0 {
		excluded := make(map[string]struct{}, len(sel.ExcludeIDs))
		for _, id := range sel.ExcludeIDs {
			excluded[id] = struct{}{}
		}
		kept := ids[:0]
		for _, id := range ids {
			if _, ok := excluded[id]; !ok {
				kept = append(kept, id)
			}
		}
		ids = kept
	}

	if len(ids) == 0 {
		return nil, errors.NewConflictError("Selection resolved to no proposals", nil)
	}
	return ids, nil
}

func (s *BulkService) organizerEvent(ctx context.Context, caller domain.Caller, slug string) (*domain.Event, error) {
	event, err := s.access.cache.GetEventBySlug(ctx, slug, s.access.events.GetBySlug)
	if err != nil {
		return nil, errors.NewInternalError("Failed to load event", err)
	}
	if event == nil {
		return nil, errors.NewNotFoundError("Event not found")
	}
	if _, err := s.access.organizerOn(ctx, event, caller); err != nil {
		return nil, err
	}
	return event, nil
}
