package service

import (
	"context"

	"cfp-backend/internal/domain"
	"cfp-backend/internal/repository"
	"cfp-backend/pkg/errors"
)

// eventAccess resolves the event a proposal belongs to and the caller's
// role on its team. Every role-gated operation funnels through here.
type eventAccess struct {
	events  repository.EventRepository
	members repository.MembershipRepository
	cache   *CacheService
}

// eventForProposal loads the owning event, erroring when either side of
// the relation is gone.
func (a *eventAccess) eventForProposal(ctx context.Context, proposal *domain.Proposal) (*domain.Event, error) {
	if proposal == nil {
		return nil, errors.NewNotFoundError("Proposal not found")
	}
	event, err := a.cache.GetEventByID(ctx, proposal.EventID, a.events.GetByID)
	if err != nil {
		return nil, errors.NewInternalError("Failed to load event", err)
	}
	if event == nil {
		return nil, errors.NewNotFoundError("Event not found")
	}
	return event, nil
}

// roleOn returns the caller's role on the event's team, Forbidden when
// the caller is not a member at all.
func (a *eventAccess) roleOn(ctx context.Context, event *domain.Event, caller domain.Caller) (domain.Role, error) {
	role, err := a.cache.GetRoleWithCache(ctx, caller.UserID, event.TeamID, a.members.RoleOf)
	if err != nil {
		return "", errors.NewInternalError("Failed to resolve team role", err)
	}
	if role == "" {
		return "", errors.NewForbiddenError("Not a member of this event's team")
	}
	return role, nil
}

// organizerOn is roleOn plus the organizer gate
func (a *eventAccess) organizerOn(ctx context.Context, event *domain.Event, caller domain.Caller) (domain.Role, error) {
	role, err := a.roleOn(ctx, event, caller)
	if err != nil {
		return "", err
	}
	if !role.IsOrganizer() {
		return "", errors.NewForbiddenError("Organizer role required")
	}
	return role, nil
}
