package repository

import (
	"context"
	"fmt"

	"cfp-backend/internal/domain"
	"cfp-backend/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type reviewRepository struct {
	db *database.PostgresDB
}

// NewReviewRepository creates a pgx-backed review repository
func NewReviewRepository(db *database.PostgresDB) ReviewRepository {
	return &reviewRepository{db: db}
}

// SaveReview upserts the review and recomputes the proposal's
// materialized summary in the same transaction. The proposal row is
// locked first so two reviewers writing concurrently serialize on the
// recompute instead of both reading a stale review set.
func (r *reviewRepository) SaveReview(ctx context.Context, review *domain.Review) (domain.ReviewSummary, error) {
	var summary domain.ReviewSummary

	err := r.db.WithTx(ctx, func(tx pgx.Tx) error {
		if err := lockProposal(ctx, tx, review.ProposalID); err != nil {
			return err
		}

		if review.ID == "" {
			review.ID = uuid.NewString()
		}

		query := `
			INSERT INTO reviews (id, proposal_id, reviewer_id, feeling, note)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (proposal_id, reviewer_id)
			DO UPDATE SET feeling = EXCLUDED.feeling, note = EXCLUDED.note, updated_at = now()
			RETURNING id, created_at, updated_at
		`
		err := tx.QueryRow(ctx, query,
			review.ID,
			review.ProposalID,
			review.ReviewerID,
			review.Feeling,
			review.Note,
		).Scan(&review.ID, &review.CreatedAt, &review.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to save review: %w", err)
		}

		s, err := recomputeSummary(ctx, tx, review.ProposalID)
		if err != nil {
			return err
		}
		summary = s
		return nil
	})

	return summary, err
}

// DeleteReview removes the reviewer's review and recomputes the summary,
// identically to an insert. A missing review is a plain recompute.
func (r *reviewRepository) DeleteReview(ctx context.Context, proposalID, reviewerID string) (domain.ReviewSummary, error) {
	var summary domain.ReviewSummary

	err := r.db.WithTx(ctx, func(tx pgx.Tx) error {
		if err := lockProposal(ctx, tx, proposalID); err != nil {
			return err
		}

		_, err := tx.Exec(ctx,
			`DELETE FROM reviews WHERE proposal_id = $1 AND reviewer_id = $2`,
			proposalID, reviewerID)
		if err != nil {
			return fmt.Errorf("failed to delete review: %w", err)
		}

		s, err := recomputeSummary(ctx, tx, proposalID)
		if err != nil {
			return err
		}
		summary = s
		return nil
	})

	return summary, err
}

// GetReview returns the reviewer's own review, nil when absent
func (r *reviewRepository) GetReview(ctx context.Context, proposalID, reviewerID string) (*domain.Review, error) {
	var review domain.Review
	query := `
		SELECT id, proposal_id, reviewer_id, feeling, note, created_at, updated_at
		FROM reviews
		WHERE proposal_id = $1 AND reviewer_id = $2
	`

	err := r.db.Pool.QueryRow(ctx, query, proposalID, reviewerID).Scan(
		&review.ID,
		&review.ProposalID,
		&review.ReviewerID,
		&review.Feeling,
		&review.Note,
		&review.CreatedAt,
		&review.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get review: %w", err)
	}

	return &review, nil
}

// ListByProposal returns every review on the proposal, ordered by the
// reviewer's display name.
func (r *reviewRepository) ListByProposal(ctx context.Context, proposalID string) ([]domain.ReviewWithReviewer, error) {
	query := `
		SELECT rv.id, rv.proposal_id, rv.reviewer_id, rv.feeling, rv.note,
		       rv.created_at, rv.updated_at, COALESCE(tm.name, rv.reviewer_id)
		FROM reviews rv
		JOIN proposals p ON p.id = rv.proposal_id
		JOIN events e ON e.id = p.event_id
		LEFT JOIN team_memberships tm
		       ON tm.user_id = rv.reviewer_id AND tm.team_id = e.team_id
		WHERE rv.proposal_id = $1
		ORDER BY COALESCE(tm.name, rv.reviewer_id) ASC
	`

	rows, err := r.db.Pool.Query(ctx, query, proposalID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	var reviews []domain.ReviewWithReviewer
	for rows.Next() {
		var review domain.ReviewWithReviewer
		err := rows.Scan(
			&review.ID,
			&review.ProposalID,
			&review.ReviewerID,
			&review.Feeling,
			&review.Note,
			&review.CreatedAt,
			&review.UpdatedAt,
			&review.ReviewerName,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, review)
	}

	return reviews, nil
}

// lockProposal takes the row lock that serializes all materialized-field
// writers for one proposal.
func lockProposal(ctx context.Context, tx pgx.Tx, proposalID string) error {
	var id string
	err := tx.QueryRow(ctx, `SELECT id FROM proposals WHERE id = $1 FOR UPDATE`, proposalID).Scan(&id)
	if err == pgx.ErrNoRows {
		return domain.ErrProposalNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to lock proposal: %w", err)
	}
	return nil
}

// recomputeSummary rebuilds the materialized aggregate from the live
// review set and writes it onto the proposal row. Caller must hold the
// proposal row lock.
func recomputeSummary(ctx context.Context, tx pgx.Tx, proposalID string) (domain.ReviewSummary, error) {
	rows, err := tx.Query(ctx, `SELECT feeling, note FROM reviews WHERE proposal_id = $1`, proposalID)
	if err != nil {
		return domain.ReviewSummary{}, fmt.Errorf("failed to read reviews for recompute: %w", err)
	}

	var reviews []domain.Review
	for rows.Next() {
		var review domain.Review
		if err := rows.Scan(&review.Feeling, &review.Note); err != nil {
			rows.Close()
			return domain.ReviewSummary{}, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, review)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return domain.ReviewSummary{}, fmt.Errorf("failed to iterate reviews: %w", err)
	}

	summary := domain.ComputeSummary(reviews)

	_, err = tx.Exec(ctx, `
		UPDATE proposals
		SET review_average = $1, review_positives = $2, review_negatives = $3, updated_at = now()
		WHERE id = $4`,
		summary.Average, summary.Positives, summary.Negatives, proposalID)
	if err != nil {
		return domain.ReviewSummary{}, fmt.Errorf("failed to store summary: %w", err)
	}

	return summary, nil
}
