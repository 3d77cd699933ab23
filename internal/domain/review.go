package domain

import (
	"errors"
	"time"
)

// Feeling is the categorical sentiment attached to a review, independent
// of its numeric note.
type Feeling string

const (
	FeelingNoOpinion Feeling = "NO_OPINION"
	FeelingNegative  Feeling = "NEGATIVE"
	FeelingNeutral   Feeling = "NEUTRAL"
	FeelingPositive  Feeling = "POSITIVE"
)

var (
	ErrInvalidFeeling = errors.New("invalid review feeling")
	ErrNoteRequired   = errors.New("a note between 0 and 5 is required")
	ErrNoteOutOfRange = errors.New("note must be between 0 and 5")
)

// Review is one team member's opinion on a proposal. At most one review
// exists per (proposal, reviewer) pair; a second submission updates it.
type Review struct {
	ID         string    `json:"id"`
	ProposalID string    `json:"proposal_id"`
	ReviewerID string    `json:"reviewer_id"`
	Feeling    Feeling   `json:"feeling"`
	Note       *int      `json:"note"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ReviewWithReviewer attaches the reviewer's display name for listings
type ReviewWithReviewer struct {
	Review
	ReviewerName string `json:"reviewer_name"`
}

// ReviewSummary is the materialized per-proposal aggregate stored on the
// proposal row. Average is nil when no review carries a usable note;
// "unrated" is distinct from "rated zero".
type ReviewSummary struct {
	Average   *float64 `json:"average"`
	Positives int      `json:"positives"`
	Negatives int      `json:"negatives"`
}

// ValidateReview normalizes a (feeling, note) pair. NO_OPINION discards
// the note even when present; every other feeling requires one in [0,5].
func ValidateReview(feeling Feeling, note *int) (Feeling, *int, error) {
	switch feeling {
	case FeelingNoOpinion:
		return feeling, nil, nil
	case FeelingNegative, FeelingNeutral, FeelingPositive:
	default:
		return "", nil, ErrInvalidFeeling
	}

	if note == nil {
		return "", nil, ErrNoteRequired
	}
	if *note < 0 || *note > 5 {
		return "", nil, ErrNoteOutOfRange
	}
	return feeling, note, nil
}

// ComputeSummary recomputes the materialized aggregate from the full
// review set. This is the single source of truth for the aggregate: the
// repository calls it while holding the proposal row lock, so the stored
// fields are never observable as stale relative to the review rows.
func ComputeSummary(reviews []Review) ReviewSummary {
	var summary ReviewSummary
	var sum, count int

	for _, r := range reviews {
		switch r.Feeling {
		case FeelingPositive:
			summary.Positives++
		case FeelingNegative:
			summary.Negatives++
		}
		if r.Feeling != FeelingNoOpinion && r.Note != nil {
			sum += *r.Note
			count++
		}
	}

	if count > 0 {
		avg := float64(sum) / float64(count)
		summary.Average = &avg
	}
	return summary
}
