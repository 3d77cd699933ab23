package service

import (
	"context"
	"time"

	"cfp-backend/internal/domain"
	"cfp-backend/internal/repository"
	"cfp-backend/pkg/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LifecycleService owns the proposal state machine: submission against
// the CFP window, organizer deliberation and speaker confirmation.
// Publication (the notification axis) lives in BulkService.
type LifecycleService struct {
	proposals repository.ProposalRepository
	events    repository.EventRepository
	access    *eventAccess
	cache     *CacheService
	logger    *zap.Logger
	now       func() time.Time
}

// NewLifecycleService creates a new lifecycle service
func NewLifecycleService(
	proposals repository.ProposalRepository,
	events repository.EventRepository,
	members repository.MembershipRepository,
	cache *CacheService,
	logger *zap.Logger,
) *LifecycleService {
	return &LifecycleService{
		proposals: proposals,
		events:    events,
		access:    &eventAccess{events: events, members: members, cache: cache},
		cache:     cache,
		logger:    logger,
		now:       time.Now,
	}
}

// CFPWindow is the public view of an event's call-for-papers state
type CFPWindow struct {
	Slug     string           `json:"slug"`
	Type     domain.EventType `json:"type"`
	Status   domain.CFPStatus `json:"status"`
	CFPStart *time.Time       `json:"cfp_start,omitempty"`
	CFPEnd   *time.Time       `json:"cfp_end,omitempty"`
}

// CFPStatus reports the event's submission window state
func (s *LifecycleService) CFPStatus(ctx context.Context, slug string) (*CFPWindow, error) {
	event, err := s.cache.GetEventBySlug(ctx, slug, s.events.GetBySlug)
	if err != nil {
		return nil, errors.NewInternalError("Failed to load event", err)
	}
	if event == nil {
		return nil, errors.NewNotFoundError("Event not found")
	}

	return &CFPWindow{
		Slug:     event.Slug,
		Type:     event.Type,
		Status:   event.CFPStatusAt(s.now()),
		CFPStart: event.CFPStart,
		CFPEnd:   event.CFPEnd,
	}, nil
}

// SubmitProposalRequest carries the speaker's submission
type SubmitProposalRequest struct {
	Title     string   `json:"title"`
	Abstract  string   `json:"abstract"`
	Level     string   `json:"level,omitempty"`
	Languages []string `json:"languages,omitempty"`
}

// SubmitProposal creates a new PENDING proposal. Submissions are only
// accepted while the CFP window is open, and an event may cap how many
// proposals one speaker can have.
func (s *LifecycleService) SubmitProposal(ctx context.Context, caller domain.Caller, slug string, req *SubmitProposalRequest) (*domain.Proposal, error) {
	if req.Title == "" {
		return nil, errors.NewValidationError("Title is required", nil)
	}
	if req.Abstract == "" {
		return nil, errors.NewValidationError("Abstract is required", nil)
	}

	event, err := s.cache.GetEventBySlug(ctx, slug, s.events.GetBySlug)
	if err != nil {
		return nil, errors.NewInternalError("Failed to load event", err)
	}
	if event == nil {
		return nil, errors.NewNotFoundError("Event not found")
	}

	if !event.AcceptsSubmissions(s.now()) {
		return nil, errors.NewInvalidTransitionError("The call for papers is not open")
	}

	if event.MaxProposalsPerSpeaker != nil {
		count, err := s.proposals.CountBySpeaker(ctx, event.ID, caller.UserID)
		if err != nil {
			return nil, errors.NewInternalError("Failed to count proposals", err)
		}
		if count >= *event.MaxProposalsPerSpeaker {
			return nil, errors.NewValidationError("Proposal limit for this event reached", map[string]interface{}{
				"max_proposals": *event.MaxProposalsPerSpeaker,
			})
		}
	}

	proposal := &domain.Proposal{
		ID:        uuid.NewString(),
		EventID:   event.ID,
		Title:     req.Title,
		Abstract:  req.Abstract,
		Level:     req.Level,
		Languages: req.Languages,
	}
	speaker := domain.Speaker{ID: caller.UserID, Name: caller.Name}

	if err := s.proposals.Create(ctx, proposal, speaker); err != nil {
		return nil, errors.NewInternalError("Failed to create proposal", err)
	}

	s.logger.Info("Proposal submitted",
		zap.String("proposal_id", proposal.ID),
		zap.String("event", event.Slug),
		zap.String("speaker_id", caller.UserID))

	return proposal, nil
}

// Deliberate moves a proposal's deliberation status. Organizer-only.
// Reversing an outcome whose notification already went out requires the
// force flag; the old sent-flag is kept as history and a confirmed
// speaker is reset to NONE when a published acceptance is withdrawn.
func (s *LifecycleService) Deliberate(ctx context.Context, caller domain.Caller, proposalID string, outcome domain.DeliberationStatus, force bool) (*domain.Proposal, error) {
	current, err := s.proposals.GetByID(ctx, proposalID)
	if err != nil {
		return nil, errors.NewInternalError("Failed to get proposal", err)
	}
	if current == nil {
		return nil, errors.NewNotFoundError("Proposal not found")
	}

	event, err := s.access.eventForProposal(ctx, current)
	if err != nil {
		return nil, err
	}
	if _, err := s.access.organizerOn(ctx, event, caller); err != nil {
		return nil, err
	}

	proposal, err := s.proposals.ApplyDeliberation(ctx, proposalID, outcome, force)
	if err != nil {
		return nil, mapTransitionError(err)
	}

	s.logger.Info("Proposal deliberated",
		zap.String("proposal_id", proposalID),
		zap.String("outcome", string(outcome)),
		zap.Bool("force", force),
		zap.String("by", caller.UserID))

	return proposal, nil
}

// Confirm records the speaker's answer to an accepted proposal's
// invitation. Speaker-only and terminal.
func (s *LifecycleService) Confirm(ctx context.Context, caller domain.Caller, proposalID string, answer domain.ConfirmationStatus) (*domain.Proposal, error) {
	proposal, err := s.proposals.ApplyConfirmation(ctx, proposalID, caller.UserID, answer)
	if err != nil {
		return nil, mapTransitionError(err)
	}

	s.logger.Info("Proposal confirmation answered",
		zap.String("proposal_id", proposalID),
		zap.String("answer", string(answer)),
		zap.String("speaker_id", caller.UserID))

	return proposal, nil
}

// mapTransitionError translates domain sentinels into the API taxonomy
func mapTransitionError(err error) error {
	switch err {
	case domain.ErrProposalNotFound:
		return errors.NewNotFoundError("Proposal not found")
	case domain.ErrInvalidOutcome:
		return errors.NewValidationError("Invalid outcome", nil)
	case domain.ErrOutcomePublished:
		return errors.NewAlreadyPublishedError("This outcome was already published; use force to change it")
	case domain.ErrNotAccepted:
		return errors.NewInvalidTransitionError("Proposal is not accepted")
	case domain.ErrNotInvited:
		return errors.NewInvalidTransitionError("The acceptance has not been published yet")
	case domain.ErrAlreadyAnswered:
		return errors.NewInvalidTransitionError("Confirmation was already answered")
	case domain.ErrNotProposalSpeaker:
		return errors.NewForbiddenError("Only a speaker on the proposal may answer")
	default:
		return errors.NewInternalError("Failed to update proposal", err)
	}
}
