package service

import (
	"context"

	"cfp-backend/internal/domain"
	"cfp-backend/internal/repository"
	"cfp-backend/pkg/errors"

	"go.uber.org/zap"
)

// ReviewService maintains the per-proposal review aggregate: every write
// to a review recomputes the materialized summary in the same
// transaction, so the summary is never observable as stale.
type ReviewService struct {
	reviews   repository.ReviewRepository
	proposals repository.ProposalRepository
	access    *eventAccess
	cache     *CacheService
	logger    *zap.Logger
}

// NewReviewService creates a new review service
func NewReviewService(
	reviews repository.ReviewRepository,
	proposals repository.ProposalRepository,
	events repository.EventRepository,
	members repository.MembershipRepository,
	cache *CacheService,
	logger *zap.Logger,
) *ReviewService {
	return &ReviewService{
		reviews:   reviews,
		proposals: proposals,
		access:    &eventAccess{events: events, members: members, cache: cache},
		cache:     cache,
		logger:    logger,
	}
}

// RecordReview creates or updates the caller's review on a proposal and
// returns the recomputed summary. A second submission by the same
// reviewer updates the existing review.
func (s *ReviewService) RecordReview(ctx context.Context, caller domain.Caller, proposalID string, feeling domain.Feeling, note *int) (domain.ReviewSummary, error) {
	feeling, note, err := domain.ValidateReview(feeling, note)
	if err != nil {
		return domain.ReviewSummary{}, errors.NewValidationError(err.Error(), nil)
	}

	if _, err := s.memberOnProposal(ctx, caller, proposalID); err != nil {
		return domain.ReviewSummary{}, err
	}

	review := &domain.Review{
		ProposalID: proposalID,
		ReviewerID: caller.UserID,
		Feeling:    feeling,
		Note:       note,
	}

	summary, err := s.reviews.SaveReview(ctx, review)
	if err == domain.ErrProposalNotFound {
		return domain.ReviewSummary{}, errors.NewNotFoundError("Proposal not found")
	}
	if err != nil {
		return domain.ReviewSummary{}, errors.NewInternalError("Failed to save review", err)
	}

	s.cache.InvalidateSummary(ctx, proposalID)

	s.logger.Info("Review recorded",
		zap.String("proposal_id", proposalID),
		zap.String("reviewer_id", caller.UserID),
		zap.String("feeling", string(feeling)))

	return summary, nil
}

// RemoveReview deletes the caller's review; the recompute is identical
// to the one an insert triggers.
func (s *ReviewService) RemoveReview(ctx context.Context, caller domain.Caller, proposalID string) (domain.ReviewSummary, error) {
	if _, err := s.memberOnProposal(ctx, caller, proposalID); err != nil {
		return domain.ReviewSummary{}, err
	}

	summary, err := s.reviews.DeleteReview(ctx, proposalID, caller.UserID)
	if err == domain.ErrProposalNotFound {
		return domain.ReviewSummary{}, errors.NewNotFoundError("Proposal not found")
	}
	if err != nil {
		return domain.ReviewSummary{}, errors.NewInternalError("Failed to delete review", err)
	}

	s.cache.InvalidateSummary(ctx, proposalID)

	s.logger.Info("Review removed",
		zap.String("proposal_id", proposalID),
		zap.String("reviewer_id", caller.UserID))

	return summary, nil
}

// Summary returns the materialized aggregate for a proposal, through the
// cache. Reviewers only see it when the event discloses review data.
func (s *ReviewService) Summary(ctx context.Context, caller domain.Caller, proposalID string) (domain.ReviewSummary, error) {
	access, err := s.memberOnProposal(ctx, caller, proposalID)
	if err != nil {
		return domain.ReviewSummary{}, err
	}
	if !access.role.SeesReviews(access.event) {
		return domain.ReviewSummary{}, errors.NewForbiddenError("Review data is not visible for this event")
	}

	return s.cache.GetSummaryWithCache(ctx, proposalID, func(ctx context.Context, id string) (domain.ReviewSummary, error) {
		proposal, err := s.proposals.GetByID(ctx, id)
		if err != nil {
			return domain.ReviewSummary{}, err
		}
		if proposal == nil {
			return domain.ReviewSummary{}, domain.ErrProposalNotFound
		}
		return domain.ReviewSummary{
			Average:   proposal.ReviewAverage,
			Positives: proposal.ReviewPositives,
			Negatives: proposal.ReviewNegatives,
		}, nil
	})
}

// ReviewOf returns the caller's own review, nils when absent
func (s *ReviewService) ReviewOf(ctx context.Context, caller domain.Caller, proposalID string) (*domain.Review, error) {
	if _, err := s.memberOnProposal(ctx, caller, proposalID); err != nil {
		return nil, err
	}

	review, err := s.reviews.GetReview(ctx, proposalID, caller.UserID)
	if err != nil {
		return nil, errors.NewInternalError("Failed to get review", err)
	}
	return review, nil
}

// AllReviews lists every review on a proposal ordered by reviewer name.
// Organizer-only: reviewers never see each other's reviews.
func (s *ReviewService) AllReviews(ctx context.Context, caller domain.Caller, proposalID string) ([]domain.ReviewWithReviewer, error) {
	access, err := s.memberOnProposal(ctx, caller, proposalID)
	if err != nil {
		return nil, err
	}
	if !access.role.IsOrganizer() {
		return nil, errors.NewForbiddenError("Organizer role required")
	}

	reviews, err := s.reviews.ListByProposal(ctx, proposalID)
	if err != nil {
		return nil, errors.NewInternalError("Failed to list reviews", err)
	}
	return reviews, nil
}

type proposalAccess struct {
	proposal *domain.Proposal
	event    *domain.Event
	role     domain.Role
}

func (s *ReviewService) memberOnProposal(ctx context.Context, caller domain.Caller, proposalID string) (*proposalAccess, error) {
	proposal, err := s.proposals.GetByID(ctx, proposalID)
	if err != nil {
		return nil, errors.NewInternalError("Failed to get proposal", err)
	}
	if proposal == nil {
		return nil, errors.NewNotFoundError("Proposal not found")
	}

	event, err := s.access.eventForProposal(ctx, proposal)
	if err != nil {
		return nil, err
	}
	role, err := s.access.roleOn(ctx, event, caller)
	if err != nil {
		return nil, err
	}

	return &proposalAccess{proposal: proposal, event: event, role: role}, nil
}
