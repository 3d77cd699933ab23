package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCFPStatusAt(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	before := now.Add(-24 * time.Hour)
	after := now.Add(24 * time.Hour)

	tests := []struct {
		name  string
		event Event
		want  CFPStatus
	}{
		{
			name:  "conference before window",
			event: Event{Type: EventTypeConference, CFPStart: &after, CFPEnd: &after},
			want:  CFPNotStarted,
		},
		{
			name:  "conference inside window",
			event: Event{Type: EventTypeConference, CFPStart: &before, CFPEnd: &after},
			want:  CFPOpened,
		},
		{
			name:  "conference after window",
			event: Event{Type: EventTypeConference, CFPStart: &before, CFPEnd: &before},
			want:  CFPFinished,
		},
		{
			name:  "conference without window is closed",
			event: Event{Type: EventTypeConference},
			want:  CFPClosed,
		},
		{
			name:  "meetup toggled open",
			event: Event{Type: EventTypeMeetup, CFPManuallyOpen: true},
			want:  CFPOpened,
		},
		{
			name:  "meetup toggled closed ignores dates",
			event: Event{Type: EventTypeMeetup, CFPStart: &before, CFPEnd: &after},
			want:  CFPClosed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.event.CFPStatusAt(now))
		})
	}
}

func TestAcceptsSubmissions(t *testing.T) {
	now := time.Now()
	open := Event{Type: EventTypeMeetup, CFPManuallyOpen: true}
	closed := Event{Type: EventTypeMeetup}

	assert.True(t, open.AcceptsSubmissions(now))
	assert.False(t, closed.AcceptsSubmissions(now))
}

func TestRoleVisibility(t *testing.T) {
	hidden := &Event{DisplayProposalsSpeakers: false, DisplayProposalsReviews: false}
	shown := &Event{DisplayProposalsSpeakers: true, DisplayProposalsReviews: true}

	assert.True(t, RoleOwner.IsOrganizer())
	assert.True(t, RoleMember.IsOrganizer())
	assert.False(t, RoleReviewer.IsOrganizer())

	// Organizers always see everything
	assert.True(t, RoleOwner.SeesSpeakers(hidden))
	assert.True(t, RoleMember.SeesReviews(hidden))

	// Reviewers follow the event's display flags
	assert.False(t, RoleReviewer.SeesSpeakers(hidden))
	assert.False(t, RoleReviewer.SeesReviews(hidden))
	assert.True(t, RoleReviewer.SeesSpeakers(shown))
	assert.True(t, RoleReviewer.SeesReviews(shown))
}
