package domain

import (
	"errors"
	"time"
)

var ErrEventNotFound = errors.New("event not found")

// EventType distinguishes conferences (dated CFP window) from meetups
// (manually toggled CFP).
type EventType string

const (
	EventTypeConference EventType = "CONFERENCE"
	EventTypeMeetup     EventType = "MEETUP"
)

// CFPStatus is the state of an event's call-for-papers window. It gates
// proposal submission only, never review or deliberation.
type CFPStatus string

const (
	CFPNotStarted CFPStatus = "NOT_STARTED"
	CFPOpened     CFPStatus = "OPENED"
	CFPFinished   CFPStatus = "FINISHED"
	CFPClosed     CFPStatus = "CLOSED"
)

// Event represents a conference or meetup accepting proposals
type Event struct {
	ID     string    `json:"id"`
	TeamID string    `json:"team_id"`
	Slug   string    `json:"slug"`
	Name   string    `json:"name"`
	Type   EventType `json:"type"`
	// CFPStart and CFPEnd are both set or both nil, conferences only.
	CFPStart        *time.Time `json:"cfp_start,omitempty"`
	CFPEnd          *time.Time `json:"cfp_end,omitempty"`
	CFPManuallyOpen bool       `json:"cfp_manually_open"`

	DisplayProposalsSpeakers bool `json:"display_proposals_speakers"`
	DisplayProposalsReviews  bool `json:"display_proposals_reviews"`

	MaxProposalsPerSpeaker *int      `json:"max_proposals_per_speaker,omitempty"`
	CreatedAt              time.Time `json:"created_at"`
}

// CFPStatusAt computes the CFP window state at the given instant.
// Conferences derive it from the window bounds; meetups from the manual
// toggle. A conference without a configured window reports CLOSED.
func (e *Event) CFPStatusAt(now time.Time) CFPStatus {
	if e.Type == EventTypeMeetup {
		if e.CFPManuallyOpen {
			return CFPOpened
		}
		return CFPClosed
	}

	if e.CFPStart == nil || e.CFPEnd == nil {
		return CFPClosed
	}
	switch {
	case now.Before(*e.CFPStart):
		return CFPNotStarted
	case now.After(*e.CFPEnd):
		return CFPFinished
	default:
		return CFPOpened
	}
}

// AcceptsSubmissions reports whether a new proposal may be submitted now.
func (e *Event) AcceptsSubmissions(now time.Time) bool {
	return e.CFPStatusAt(now) == CFPOpened
}
