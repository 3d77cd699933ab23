package domain

import (
	"errors"
	"time"
)

// DeliberationStatus is the organizer decision axis
type DeliberationStatus string

const (
	DeliberationPending  DeliberationStatus = "PENDING"
	DeliberationAccepted DeliberationStatus = "ACCEPTED"
	DeliberationRejected DeliberationStatus = "REJECTED"
)

// ConfirmationStatus is the speaker answer axis. It stays NONE until the
// acceptance notification goes out, then moves PENDING and is terminal
// once CONFIRMED or DECLINED.
type ConfirmationStatus string

const (
	ConfirmationNone      ConfirmationStatus = "NONE"
	ConfirmationPending   ConfirmationStatus = "PENDING"
	ConfirmationConfirmed ConfirmationStatus = "CONFIRMED"
	ConfirmationDeclined  ConfirmationStatus = "DECLINED"
)

var (
	ErrProposalNotFound   = errors.New("proposal not found")
	ErrInvalidOutcome     = errors.New("invalid deliberation outcome")
	ErrOutcomePublished   = errors.New("deliberation outcome was already published")
	ErrNotAccepted        = errors.New("proposal is not accepted")
	ErrNotInvited         = errors.New("speaker has not been invited to answer yet")
	ErrAlreadyAnswered    = errors.New("confirmation was already answered")
	ErrNotProposalSpeaker = errors.New("user is not a speaker on this proposal")
)

// Speaker is a proposal author
type Speaker struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// Proposal is a submitted talk tracked through review, deliberation,
// publication and speaker confirmation. The review_* fields are
// materialized from the reviews table and never authoritative.
type Proposal struct {
	ID        string   `json:"id"`
	EventID   string   `json:"event_id"`
	Title     string   `json:"title"`
	Abstract  string   `json:"abstract"`
	Level     string   `json:"level,omitempty"`
	Languages []string `json:"languages,omitempty"`

	DeliberationStatus DeliberationStatus `json:"deliberation_status"`
	ConfirmationStatus ConfirmationStatus `json:"confirmation_status"`

	AcceptedNotificationSent bool `json:"accepted_notification_sent"`
	RejectedNotificationSent bool `json:"rejected_notification_sent"`

	ReviewAverage   *float64 `json:"review_average"`
	ReviewPositives int      `json:"review_positives"`
	ReviewNegatives int      `json:"review_negatives"`

	Speakers  []Speaker `json:"speakers,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NotificationSent reports whether the notification for the given
// outcome already went out.
func (p *Proposal) NotificationSent(outcome DeliberationStatus) bool {
	switch outcome {
	case DeliberationAccepted:
		return p.AcceptedNotificationSent
	case DeliberationRejected:
		return p.RejectedNotificationSent
	default:
		return false
	}
}

// CanDeliberate checks whether moving to the given outcome is legal.
// Moving a proposal off an outcome whose notification was already sent
// requires force; silently un-accepting someone already congratulated is
// the failure mode this guards against.
func (p *Proposal) CanDeliberate(outcome DeliberationStatus, force bool) error {
	switch outcome {
	case DeliberationPending, DeliberationAccepted, DeliberationRejected:
	default:
		return ErrInvalidOutcome
	}

	if outcome == p.DeliberationStatus {
		return nil
	}
	if p.NotificationSent(p.DeliberationStatus) && !force {
		return ErrOutcomePublished
	}
	return nil
}

// ApplyDeliberation transitions the deliberation axis. The sent-flag for
// the previous outcome is preserved (history), the new outcome's flag is
// untouched so a fresh notification can go out. Leaving a published
// acceptance resets confirmation: a speaker must not stay confirmed on a
// proposal that is no longer accepted.
func (p *Proposal) ApplyDeliberation(outcome DeliberationStatus, force bool) error {
	if err := p.CanDeliberate(outcome, force); err != nil {
		return err
	}
	if outcome == p.DeliberationStatus {
		return nil
	}

	if p.DeliberationStatus == DeliberationAccepted {
		p.ConfirmationStatus = ConfirmationNone
	}
	p.DeliberationStatus = outcome
	return nil
}

// CanConfirm checks whether the speaker may answer the invitation now.
func (p *Proposal) CanConfirm() error {
	if p.DeliberationStatus != DeliberationAccepted {
		return ErrNotAccepted
	}
	switch p.ConfirmationStatus {
	case ConfirmationPending:
		return nil
	case ConfirmationConfirmed, ConfirmationDeclined:
		return ErrAlreadyAnswered
	default:
		return ErrNotInvited
	}
}

// ApplyConfirmation records the speaker's terminal answer.
func (p *Proposal) ApplyConfirmation(answer ConfirmationStatus) error {
	if answer != ConfirmationConfirmed && answer != ConfirmationDeclined {
		return ErrInvalidOutcome
	}
	if err := p.CanConfirm(); err != nil {
		return err
	}
	p.ConfirmationStatus = answer
	return nil
}

// NeedsNotification reports whether publishing the given outcome should
// dispatch for this proposal: it must currently hold that outcome and
// not have been notified of it yet.
func (p *Proposal) NeedsNotification(outcome DeliberationStatus) bool {
	if p.DeliberationStatus != outcome {
		return false
	}
	return !p.NotificationSent(outcome)
}

// MarkNotified flips the sent-flag for the outcome. Acceptance
// notifications invite the speaker, so confirmation enters PENDING in
// the same step (and the same transaction, at the repository layer).
func (p *Proposal) MarkNotified(outcome DeliberationStatus) {
	switch outcome {
	case DeliberationAccepted:
		p.AcceptedNotificationSent = true
		if p.ConfirmationStatus == ConfirmationNone {
			p.ConfirmationStatus = ConfirmationPending
		}
	case DeliberationRejected:
		p.RejectedNotificationSent = true
	}
}

// SpeakerStatus is the single status a speaker observes, collapsing the
// three axes. Undisclosed deliberations read as pending.
func (p *Proposal) SpeakerStatus() string {
	switch p.DeliberationStatus {
	case DeliberationAccepted:
		if !p.AcceptedNotificationSent {
			return "pending"
		}
		switch p.ConfirmationStatus {
		case ConfirmationConfirmed:
			return "confirmed"
		case ConfirmationDeclined:
			return "declined"
		default:
			return "accepted"
		}
	case DeliberationRejected:
		if !p.RejectedNotificationSent {
			return "pending"
		}
		return "rejected"
	default:
		return "pending"
	}
}

// HasSpeaker reports whether the given user is an author of the proposal
func (p *Proposal) HasSpeaker(userID string) bool {
	for _, s := range p.Speakers {
		if s.ID == userID {
			return true
		}
	}
	return false
}
