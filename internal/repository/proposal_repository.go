package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cfp-backend/internal/domain"
	"cfp-backend/pkg/database"

	"github.com/jackc/pgx/v5"
)

type proposalRepository struct {
	db *database.PostgresDB
}

// NewProposalRepository creates a pgx-backed proposal repository
func NewProposalRepository(db *database.PostgresDB) ProposalRepository {
	return &proposalRepository{db: db}
}

const proposalColumns = `
	id, event_id, title, abstract, level, languages,
	deliberation_status, confirmation_status,
	accepted_notification_sent, rejected_notification_sent,
	review_average, review_positives, review_negatives,
	created_at, updated_at
`

// GetByID retrieves a proposal with its speakers, nil when missing
func (r *proposalRepository) GetByID(ctx context.Context, id string) (*domain.Proposal, error) {
	query := `SELECT ` + proposalColumns + ` FROM proposals WHERE id = $1`

	proposal, err := scanProposal(r.db.Pool.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get proposal: %w", err)
	}

	speakers, err := r.speakersFor(ctx, []string{proposal.ID})
	if err != nil {
		return nil, err
	}
	proposal.Speakers = speakers[proposal.ID]

	return proposal, nil
}

// Create inserts a submitted proposal with its first speaker
func (r *proposalRepository) Create(ctx context.Context, proposal *domain.Proposal, speaker domain.Speaker) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		query := `
			INSERT INTO proposals (id, event_id, title, abstract, level, languages)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING created_at, updated_at
		`
		err := tx.QueryRow(ctx, query,
			proposal.ID,
			proposal.EventID,
			proposal.Title,
			proposal.Abstract,
			proposal.Level,
			proposal.Languages,
		).Scan(&proposal.CreatedAt, &proposal.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to create proposal: %w", err)
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO proposal_speakers (proposal_id, speaker_id, name, email) VALUES ($1, $2, $3, $4)`,
			proposal.ID, speaker.ID, speaker.Name, speaker.Email)
		if err != nil {
			return fmt.Errorf("failed to attach speaker: %w", err)
		}

		proposal.DeliberationStatus = domain.DeliberationPending
		proposal.ConfirmationStatus = domain.ConfirmationNone
		proposal.Speakers = []domain.Speaker{speaker}
		return nil
	})
}

// CountBySpeaker counts the speaker's proposals on an event
func (r *proposalRepository) CountBySpeaker(ctx context.Context, eventID, speakerID string) (int, error) {
	var count int
	query := `
		SELECT COUNT(*)
		FROM proposals p
		JOIN proposal_speakers ps ON ps.proposal_id = p.id
		WHERE p.event_id = $1 AND ps.speaker_id = $2
	`
	if err := r.db.Pool.QueryRow(ctx, query, eventID, speakerID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count speaker proposals: %w", err)
	}
	return count, nil
}

// ApplyDeliberation locks the proposal row, runs the domain transition
// guard under the lock and persists both affected axes atomically.
func (r *proposalRepository) ApplyDeliberation(ctx context.Context, id string, outcome domain.DeliberationStatus, force bool) (*domain.Proposal, error) {
	var proposal *domain.Proposal

	err := r.db.WithTx(ctx, func(tx pgx.Tx) error {
		p, err := getProposalForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}

		if err := p.ApplyDeliberation(outcome, force); err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			UPDATE proposals
			SET deliberation_status = $1, confirmation_status = $2, updated_at = now()
			WHERE id = $3`,
			p.DeliberationStatus, p.ConfirmationStatus, id)
		if err != nil {
			return fmt.Errorf("failed to update deliberation: %w", err)
		}

		proposal = p
		return nil
	})

	return proposal, err
}

// ApplyConfirmation locks the proposal row and records the speaker's
// terminal answer after verifying the speaker is on the proposal.
func (r *proposalRepository) ApplyConfirmation(ctx context.Context, id, speakerID string, answer domain.ConfirmationStatus) (*domain.Proposal, error) {
	var proposal *domain.Proposal

	err := r.db.WithTx(ctx, func(tx pgx.Tx) error {
		p, err := getProposalForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}

		speakers, err := speakersForTx(ctx, tx, id)
		if err != nil {
			return err
		}
		p.Speakers = speakers
		if !p.HasSpeaker(speakerID) {
			return domain.ErrNotProposalSpeaker
		}

		if err := p.ApplyConfirmation(answer); err != nil {
			return err
		}

		_, err = tx.Exec(ctx,
			`UPDATE proposals SET confirmation_status = $1, updated_at = now() WHERE id = $2`,
			p.ConfirmationStatus, id)
		if err != nil {
			return fmt.Errorf("failed to update confirmation: %w", err)
		}

		proposal = p
		return nil
	})

	return proposal, err
}

// ClaimNotification dispatches the outcome notification and flips the
// sent-flag in one transaction. The flag only flips after dispatch
// returns nil; any dispatch error rolls the claim back so the next
// publish call retries this proposal.
func (r *proposalRepository) ClaimNotification(ctx context.Context, id string, outcome domain.DeliberationStatus, dispatch func(ctx context.Context, p *domain.Proposal) error) (bool, error) {
	claimed := false

	err := r.db.WithTx(ctx, func(tx pgx.Tx) error {
		p, err := getProposalForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}

		if !p.NeedsNotification(outcome) {
			return nil
		}

		speakers, err := speakersForTx(ctx, tx, id)
		if err != nil {
			return err
		}
		p.Speakers = speakers

		if err := dispatch(ctx, p); err != nil {
			return err
		}

		p.MarkNotified(outcome)
		_, err = tx.Exec(ctx, `
			UPDATE proposals
			SET accepted_notification_sent = $1, rejected_notification_sent = $2,
			    confirmation_status = $3, updated_at = now()
			WHERE id = $4`,
			p.AcceptedNotificationSent, p.RejectedNotificationSent, p.ConfirmationStatus, id)
		if err != nil {
			return fmt.Errorf("failed to mark notification sent: %w", err)
		}

		claimed = true
		return nil
	})

	return claimed, err
}

// Search returns one page of matching proposals plus the total size of
// the filtered set. Speaker and review columns are only selected when
// the caller may see them.
func (r *proposalRepository) Search(ctx context.Context, eventID string, spec SearchSpec) ([]domain.ProposalCard, int, error) {
	where, args := buildFilterClauses(eventID, spec.Filters, spec.CallerID)

	var total int
	countQuery := `SELECT COUNT(*) FROM proposals p ` + where
	if err := r.db.Pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count proposals: %w", err)
	}

	columns := `p.id, p.title, p.deliberation_status, p.confirmation_status, p.created_at,
	            my.feeling, my.note`
	if spec.IncludeReviews {
		columns += `, p.review_average, p.review_positives, p.review_negatives`
	}

	args = append(args, spec.CallerID)
	join := fmt.Sprintf(
		`LEFT JOIN reviews my ON my.proposal_id = p.id AND my.reviewer_id = $%d`,
		len(args))

	// Score ordering is only honored when the caller may see review
	// data; otherwise the result order would leak the ranking.
	order := `ORDER BY p.created_at DESC`
	if spec.Filters.Sort == domain.SortHighest && spec.IncludeReviews {
		order = `ORDER BY p.review_average DESC NULLS LAST, p.created_at DESC`
	}

	args = append(args, spec.Limit, spec.Offset)
	query := fmt.Sprintf(`SELECT %s FROM proposals p %s %s %s LIMIT $%d OFFSET $%d`,
		columns, join, where, order, len(args)-1, len(args))

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search proposals: %w", err)
	}
	defer rows.Close()

	var items []domain.ProposalCard
	var ids []string
	for rows.Next() {
		var card domain.ProposalCard
		var createdAt time.Time

		dest := []interface{}{
			&card.ID, &card.Title, &card.DeliberationStatus, &card.ConfirmationStatus,
			&createdAt, &card.MyFeeling, &card.MyNote,
		}
		if spec.IncludeReviews {
			dest = append(dest, &card.ReviewAverage, &card.ReviewPositives, &card.ReviewNegatives)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, 0, fmt.Errorf("failed to scan proposal: %w", err)
		}

		card.CreatedAt = createdAt.UTC().Format(time.RFC3339)
		items = append(items, card)
		ids = append(ids, card.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate proposals: %w", err)
	}

	if spec.IncludeSpeakers && len(ids) > 0 {
		speakers, err := r.speakersFor(ctx, ids)
		if err != nil {
			return nil, 0, err
		}
		for i := range items {
			items[i].Speakers = speakers[items[i].ID]
		}
	}

	return items, total, nil
}

// ListIDs resolves a filter to proposal IDs at execution time
func (r *proposalRepository) ListIDs(ctx context.Context, eventID string, filters domain.SearchFilters, callerID string) ([]string, error) {
	where, args := buildFilterClauses(eventID, filters, callerID)
	query := `SELECT p.id FROM proposals p ` + where + ` ORDER BY p.created_at DESC`

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list proposal ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan proposal id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// buildFilterClauses renders the conjunctive WHERE clause shared by
// Search and ListIDs so a bulk "all matching" selection resolves against
// exactly the filter the search showed.
func buildFilterClauses(eventID string, filters domain.SearchFilters, callerID string) (string, []interface{}) {
	conds := []string{"p.event_id = $1"}
	args := []interface{}{eventID}

	arg := func(v interface{}) int {
		args = append(args, v)
		return len(args)
	}

	if filters.Query != "" {
		conds = append(conds, fmt.Sprintf("p.title ILIKE $%d", arg("%"+filters.Query+"%")))
	}
	if filters.Status != "" {
		conds = append(conds, fmt.Sprintf("p.deliberation_status = $%d", arg(filters.Status)))
	}
	if filters.FormatID != "" {
		conds = append(conds, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM proposal_formats pf WHERE pf.proposal_id = p.id AND pf.format_id = $%d)",
			arg(filters.FormatID)))
	}
	if filters.CategoryID != "" {
		conds = append(conds, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM proposal_categories pc WHERE pc.proposal_id = p.id AND pc.category_id = $%d)",
			arg(filters.CategoryID)))
	}
	if filters.TagID != "" {
		conds = append(conds, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM proposal_tags pt WHERE pt.proposal_id = p.id AND pt.tag_id = $%d)",
			arg(filters.TagID)))
	}
	if filters.ReviewedByMe != "" && callerID != "" {
		exists := fmt.Sprintf(
			"EXISTS (SELECT 1 FROM reviews rv WHERE rv.proposal_id = p.id AND rv.reviewer_id = $%d)",
			arg(callerID))
		if filters.ReviewedByMe == domain.FilterNotReviewed {
			exists = "NOT " + exists
		}
		conds = append(conds, exists)
	}

	return "WHERE " + strings.Join(conds, " AND "), args
}

// getProposalForUpdate loads the full proposal row under FOR UPDATE
func getProposalForUpdate(ctx context.Context, tx pgx.Tx, id string) (*domain.Proposal, error) {
	query := `SELECT ` + proposalColumns + ` FROM proposals WHERE id = $1 FOR UPDATE`

	proposal, err := scanProposal(tx.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, domain.ErrProposalNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock proposal: %w", err)
	}
	return proposal, nil
}

func scanProposal(row pgx.Row) (*domain.Proposal, error) {
	var p domain.Proposal
	err := row.Scan(
		&p.ID,
		&p.EventID,
		&p.Title,
		&p.Abstract,
		&p.Level,
		&p.Languages,
		&p.DeliberationStatus,
		&p.ConfirmationStatus,
		&p.AcceptedNotificationSent,
		&p.RejectedNotificationSent,
		&p.ReviewAverage,
		&p.ReviewPositives,
		&p.ReviewNegatives,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// speakersFor loads speakers for a set of proposals in one query
func (r *proposalRepository) speakersFor(ctx context.Context, proposalIDs []string) (map[string][]domain.Speaker, error) {
	query := `
		SELECT proposal_id, speaker_id, name, email
		FROM proposal_speakers
		WHERE proposal_id = ANY($1)
		ORDER BY name ASC
	`

	rows, err := r.db.Pool.Query(ctx, query, proposalIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get speakers: %w", err)
	}
	defer rows.Close()

	speakers := make(map[string][]domain.Speaker)
	for rows.Next() {
		var proposalID string
		var speaker domain.Speaker
		if err := rows.Scan(&proposalID, &speaker.ID, &speaker.Name, &speaker.Email); err != nil {
			return nil, fmt.Errorf("failed to scan speaker: %w", err)
		}
		speakers[proposalID] = append(speakers[proposalID], speaker)
	}
	return speakers, rows.Err()
}

func speakersForTx(ctx context.Context, tx pgx.Tx, proposalID string) ([]domain.Speaker, error) {
	rows, err := tx.Query(ctx,
		`SELECT speaker_id, name, email FROM proposal_speakers WHERE proposal_id = $1 ORDER BY name ASC`,
		proposalID)
	if err != nil {
		return nil, fmt.Errorf("failed to get speakers: %w", err)
	}
	defer rows.Close()

	var speakers []domain.Speaker
	for rows.Next() {
		var speaker domain.Speaker
		if err := rows.Scan(&speaker.ID, &speaker.Name, &speaker.Email); err != nil {
			return nil, fmt.Errorf("failed to scan speaker: %w", err)
		}
		speakers = append(speakers, speaker)
	}
	return speakers, rows.Err()
}
