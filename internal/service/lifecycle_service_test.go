package service

import (
	"context"
	"testing"
	"time"

	"cfp-backend/internal/domain"
	"cfp-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCFPStatus(t *testing.T) {
	f := newFixture()
	f.seedEvent()

	window, err := f.lifecycle.CFPStatus(context.Background(), testSlug)
	require.NoError(t, err)
	assert.Equal(t, domain.CFPOpened, window.Status)

	_, err = f.lifecycle.CFPStatus(context.Background(), "no-such-event")
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))
}

func TestSubmitProposal(t *testing.T) {
	f := newFixture()
	f.seedEvent()

	proposal, err := f.lifecycle.SubmitProposal(context.Background(), speaker(), testSlug,
		&SubmitProposalRequest{Title: "Generics in practice", Abstract: "A tour."})
	require.NoError(t, err)

	assert.NotEmpty(t, proposal.ID)
	assert.Equal(t, domain.DeliberationPending, proposal.DeliberationStatus)
	assert.Equal(t, domain.ConfirmationNone, proposal.ConfirmationStatus)
	require.Len(t, proposal.Speakers, 1)
	assert.Equal(t, speaker().UserID, proposal.Speakers[0].ID)
}

func TestSubmitProposal_ClosedCFP(t *testing.T) {
	f := newFixture()
	f.store.addEvent(domain.Event{
		ID: testEventID, TeamID: testTeamID, Slug: testSlug,
		Type: domain.EventTypeMeetup, CFPManuallyOpen: false,
	})

	_, err := f.lifecycle.SubmitProposal(context.Background(), speaker(), testSlug,
		&SubmitProposalRequest{Title: "Late talk", Abstract: "Too late."})
	assert.True(t, errors.IsType(err, errors.ErrorTypeInvalidTransition))
}

func TestSubmitProposal_ConferenceWindow(t *testing.T) {
	f := newFixture()
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	f.store.addEvent(domain.Event{
		ID: testEventID, TeamID: testTeamID, Slug: testSlug,
		Type: domain.EventTypeConference, CFPStart: &start, CFPEnd: &end,
	})

	f.lifecycle.now = func() time.Time { return start.Add(-time.Hour) }
	_, err := f.lifecycle.SubmitProposal(context.Background(), speaker(), testSlug,
		&SubmitProposalRequest{Title: "Early", Abstract: "x"})
	assert.True(t, errors.IsType(err, errors.ErrorTypeInvalidTransition))

	f.lifecycle.now = func() time.Time { return start.Add(time.Hour) }
	_, err = f.lifecycle.SubmitProposal(context.Background(), speaker(), testSlug,
		&SubmitProposalRequest{Title: "On time", Abstract: "x"})
	assert.NoError(t, err)

	f.lifecycle.now = func() time.Time { return end.Add(time.Hour) }
	_, err = f.lifecycle.SubmitProposal(context.Background(), speaker(), testSlug,
		&SubmitProposalRequest{Title: "Late", Abstract: "x"})
	assert.True(t, errors.IsType(err, errors.ErrorTypeInvalidTransition))
}

func TestSubmitProposal_SpeakerCap(t *testing.T) {
	f := newFixture()
	max := 1
	f.store.addEvent(domain.Event{
		ID: testEventID, TeamID: testTeamID, Slug: testSlug,
		Type: domain.EventTypeMeetup, CFPManuallyOpen: true,
		MaxProposalsPerSpeaker: &max,
	})

	_, err := f.lifecycle.SubmitProposal(context.Background(), speaker(), testSlug,
		&SubmitProposalRequest{Title: "First", Abstract: "x"})
	require.NoError(t, err)

	_, err = f.lifecycle.SubmitProposal(context.Background(), speaker(), testSlug,
		&SubmitProposalRequest{Title: "Second", Abstract: "x"})
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestDeliberate(t *testing.T) {
	f := newFixture()
	f.seedEvent()
	f.seedTeam()
	f.store.addProposal(domain.Proposal{ID: "p1", EventID: testEventID})

	proposal, err := f.lifecycle.Deliberate(context.Background(), organizer(), "p1", domain.DeliberationAccepted, false)
	require.NoError(t, err)
	assert.Equal(t, domain.DeliberationAccepted, proposal.DeliberationStatus)

	// Reviewers cannot deliberate
	_, err = f.lifecycle.Deliberate(context.Background(), reviewer(), "p1", domain.DeliberationRejected, false)
	assert.True(t, errors.IsType(err, errors.ErrorTypeForbidden))

	// Non-members cannot either
	_, err = f.lifecycle.Deliberate(context.Background(), speaker(), "p1", domain.DeliberationRejected, false)
	assert.True(t, errors.IsType(err, errors.ErrorTypeForbidden))
}

func TestDeliberate_PublishedOutcomeNeedsForce(t *testing.T) {
	f := newFixture()
	f.seedEvent()
	f.seedTeam()
	f.store.addProposal(domain.Proposal{
		ID: "p1", EventID: testEventID,
		DeliberationStatus:       domain.DeliberationAccepted,
		ConfirmationStatus:       domain.ConfirmationConfirmed,
		AcceptedNotificationSent: true,
	})

	_, err := f.lifecycle.Deliberate(context.Background(), organizer(), "p1", domain.DeliberationRejected, false)
	assert.True(t, errors.IsType(err, errors.ErrorTypeAlreadyPublished))

	proposal, err := f.lifecycle.Deliberate(context.Background(), organizer(), "p1", domain.DeliberationRejected, true)
	require.NoError(t, err)
	assert.Equal(t, domain.DeliberationRejected, proposal.DeliberationStatus)
	// The confirmed speaker is reset when the acceptance is withdrawn
	assert.Equal(t, domain.ConfirmationNone, proposal.ConfirmationStatus)
}

func TestConfirm(t *testing.T) {
	f := newFixture()
	f.seedEvent()
	f.seedTeam()
	f.store.addProposal(domain.Proposal{
		ID: "p1", EventID: testEventID,
		DeliberationStatus:       domain.DeliberationAccepted,
		ConfirmationStatus:       domain.ConfirmationPending,
		AcceptedNotificationSent: true,
		Speakers:                 []domain.Speaker{{ID: speaker().UserID, Name: "Sam"}},
	})

	// Only a speaker on the proposal may answer
	_, err := f.lifecycle.Confirm(context.Background(), organizer(), "p1", domain.ConfirmationConfirmed)
	assert.True(t, errors.IsType(err, errors.ErrorTypeForbidden))

	proposal, err := f.lifecycle.Confirm(context.Background(), speaker(), "p1", domain.ConfirmationConfirmed)
	require.NoError(t, err)
	assert.Equal(t, domain.ConfirmationConfirmed, proposal.ConfirmationStatus)

	// The answer is terminal
	_, err = f.lifecycle.Confirm(context.Background(), speaker(), "p1", domain.ConfirmationDeclined)
	assert.True(t, errors.IsType(err, errors.ErrorTypeInvalidTransition))
}

func TestConfirm_NotInvitedYet(t *testing.T) {
	f := newFixture()
	f.seedEvent()
	f.store.addProposal(domain.Proposal{
		ID: "p1", EventID: testEventID,
		DeliberationStatus: domain.DeliberationAccepted,
		Speakers:           []domain.Speaker{{ID: speaker().UserID}},
	})

	_, err := f.lifecycle.Confirm(context.Background(), speaker(), "p1", domain.ConfirmationConfirmed)
	assert.True(t, errors.IsType(err, errors.ErrorTypeInvalidTransition))
}
