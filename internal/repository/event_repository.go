package repository

import (
	"context"
	"fmt"

	"cfp-backend/internal/domain"
	"cfp-backend/pkg/database"

	"github.com/jackc/pgx/v5"
)

type eventRepository struct {
	db *database.PostgresDB
}

// NewEventRepository creates a pgx-backed event repository
func NewEventRepository(db *database.PostgresDB) EventRepository {
	return &eventRepository{db: db}
}

const eventColumns = `
	id, team_id, slug, name, type, cfp_start, cfp_end, cfp_manually_open,
	display_proposals_speakers, display_proposals_reviews,
	max_proposals_per_speaker, created_at
`

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	return r.getOne(ctx, query, id)
}

func (r *eventRepository) GetBySlug(ctx context.Context, slug string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE slug = $1`
	return r.getOne(ctx, query, slug)
}

func (r *eventRepository) getOne(ctx context.Context, query string, arg interface{}) (*domain.Event, error) {
	var event domain.Event
	err := r.db.Pool.QueryRow(ctx, query, arg).Scan(
		&event.ID,
		&event.TeamID,
		&event.Slug,
		&event.Name,
		&event.Type,
		&event.CFPStart,
		&event.CFPEnd,
		&event.CFPManuallyOpen,
		&event.DisplayProposalsSpeakers,
		&event.DisplayProposalsReviews,
		&event.MaxProposalsPerSpeaker,
		&event.CreatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	return &event, nil
}
