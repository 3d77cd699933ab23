package service

import (
	"context"

	"cfp-backend/internal/domain"
	"cfp-backend/internal/repository"
	"cfp-backend/pkg/errors"

	"go.uber.org/zap"
)

// SearchService answers faceted proposal queries with role-trimmed
// columns and page/total pagination.
type SearchService struct {
	proposals repository.ProposalRepository
	access    *eventAccess
	pageSize  int
	logger    *zap.Logger
}

// NewSearchService creates a new search service
func NewSearchService(
	proposals repository.ProposalRepository,
	events repository.EventRepository,
	members repository.MembershipRepository,
	cache *CacheService,
	pageSize int,
	logger *zap.Logger,
) *SearchService {
	return &SearchService{
		proposals: proposals,
		access:    &eventAccess{events: events, members: members, cache: cache},
		pageSize:  pageSize,
		logger:    logger,
	}
}

// Search returns one page of the event's proposals matching the filters.
// The caller's role and the event's display flags decide which columns
// the repository selects at all.
func (s *SearchService) Search(ctx context.Context, caller domain.Caller, slug string, filters domain.SearchFilters, page int) (*domain.SearchResult, error) {
	event, err := s.access.cache.GetEventBySlug(ctx, slug, s.access.events.GetBySlug)
	if err != nil {
		return nil, errors.NewInternalError("Failed to load event", err)
	}
	if event == nil {
		return nil, errors.NewNotFoundError("Event not found")
	}

	role, err := s.access.roleOn(ctx, event, caller)
	if err != nil {
		return nil, err
	}

	if page < 1 {
		page = 1
	}

	spec := repository.SearchSpec{
		Filters:         filters,
		CallerID:        caller.UserID,
		IncludeSpeakers: role.SeesSpeakers(event),
		IncludeReviews:  role.SeesReviews(event),
		Offset:          (page - 1) * s.pageSize,
		Limit:           s.pageSize,
	}

	items, total, err := s.proposals.Search(ctx, event.ID, spec)
	if err != nil {
		return nil, errors.NewInternalError("Failed to search proposals", err)
	}

	pageCount := (total + s.pageSize - 1) / s.pageSize

	return &domain.SearchResult{
		Items:      items,
		TotalCount: total,
		PageCount:  pageCount,
		Page:       page,
		PageSize:   s.pageSize,
	}, nil
}

// Get returns one proposal with role-appropriate fields stripped
func (s *SearchService) Get(ctx context.Context, caller domain.Caller, proposalID string) (*domain.Proposal, error) {
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
		// A speaker on the proposal may read it without team membership.
		if proposal.HasSpeaker(caller.UserID) && errors.IsType(err, errors.ErrorTypeForbidden) {
			return speakerView(proposal), nil
		}
		return nil, err
	}

	if !role.SeesSpeakers(event) {
		proposal.Speakers = nil
	}
	if !role.SeesReviews(event) {
		proposal.ReviewAverage = nil
		proposal.ReviewPositives = 0
		proposal.ReviewNegatives = 0
	}
	return proposal, nil
}

// speakerView is what a proposal's own speaker sees: never review data,
// and an outcome whose notification has not gone out reads as PENDING.
func speakerView(p *domain.Proposal) *domain.Proposal {
	view := *p
	view.ReviewAverage = nil
	view.ReviewPositives = 0
	view.ReviewNegatives = 0
	if !view.NotificationSent(view.DeliberationStatus) {
		view.DeliberationStatus = domain.DeliberationPending
		view.ConfirmationStatus = domain.ConfirmationNone
	}
	view.AcceptedNotificationSent = false
	view.RejectedNotificationSent = false
	return &view
}
