package repository

import (
	"context"

	"cfp-backend/internal/domain"
)

// SearchSpec is a fully resolved proposal search: conjunctive filters,
// the caller (for "reviewed by me" and own-review columns), visibility
// decisions already made by the service layer, and pagination bounds.
type SearchSpec struct {
	Filters  domain.SearchFilters
	CallerID string
	// IncludeSpeakers / IncludeReviews decide which columns are selected.
	// Hidden fields are never fetched, so they cannot leak through
	// serialization further up the stack.
	IncludeSpeakers bool
	IncludeReviews  bool
	Offset          int
	Limit           int
}

// EventRepository defines the interface for event data operations
type EventRepository interface {
	// GetByID retrieves an event by ID, nil when missing
	GetByID(ctx context.Context, id string) (*domain.Event, error)

	// GetBySlug retrieves an event by its public slug, nil when missing
	GetBySlug(ctx context.Context, slug string) (*domain.Event, error)
}

// MembershipRepository defines the interface for team role lookups
type MembershipRepository interface {
	// RoleOf returns the user's role on the team, "" when not a member
	RoleOf(ctx context.Context, userID, teamID string) (domain.Role, error)
}

// ReviewRepository defines the interface for review data operations.
// SaveReview and DeleteReview recompute the proposal's materialized
// summary inside the same transaction as the review write, holding a
// row lock on the proposal so concurrent recomputes serialize.
type ReviewRepository interface {
	// SaveReview upserts on (proposal, reviewer) and returns the
	// recomputed summary. Returns domain.ErrProposalNotFound when the
	// proposal does not exist.
	SaveReview(ctx context.Context, review *domain.Review) (domain.ReviewSummary, error)

	// DeleteReview removes the reviewer's review if present and returns
	// the recomputed summary. Deleting a missing review is a plain
	// recompute.
	DeleteReview(ctx context.Context, proposalID, reviewerID string) (domain.ReviewSummary, error)

	// GetReview returns the reviewer's own review, nil when absent
	GetReview(ctx context.Context, proposalID, reviewerID string) (*domain.Review, error)

	// ListByProposal returns every review, ordered by reviewer name
	ListByProposal(ctx context.Context, proposalID string) ([]domain.ReviewWithReviewer, error)
}

// ProposalRepository defines the interface for proposal data operations
type ProposalRepository interface {
	// GetByID retrieves a proposal with its speakers, nil when missing
	GetByID(ctx context.Context, id string) (*domain.Proposal, error)

	// Create inserts a submitted proposal with its first speaker
	Create(ctx context.Context, proposal *domain.Proposal, speaker domain.Speaker) error

	// CountBySpeaker counts the speaker's proposals on an event
	CountBySpeaker(ctx context.Context, eventID, speakerID string) (int, error)

	// ApplyDeliberation locks the proposal row, applies the domain
	// transition guard and persists the result atomically.
	ApplyDeliberation(ctx context.Context, id string, outcome domain.DeliberationStatus, force bool) (*domain.Proposal, error)

	// ApplyConfirmation locks the proposal row and records the speaker's
	// answer; the speaker must be on the proposal.
	ApplyConfirmation(ctx context.Context, id, speakerID string, answer domain.ConfirmationStatus) (*domain.Proposal, error)

	// Search returns one page of matching proposals plus the total size
	// of the filtered set.
	Search(ctx context.Context, eventID string, spec SearchSpec) ([]domain.ProposalCard, int, error)

	// ListIDs resolves a filter to the matching proposal IDs. Bulk
	// operations call this at execution time rather than trusting a
	// client-supplied snapshot.
	ListIDs(ctx context.Context, eventID string, filters domain.SearchFilters, callerID string) ([]string, error)

	// ClaimNotification locks the proposal row and, when the outcome's
	// notification is still owed, runs dispatch and flips the sent-flag
	// in the same transaction. A dispatch error rolls everything back so
	// the proposal is retried on the next publish. Returns whether a
	// notification was dispatched.
	ClaimNotification(ctx context.Context, id string, outcome domain.DeliberationStatus, dispatch func(ctx context.Context, p *domain.Proposal) error) (bool, error)
}
