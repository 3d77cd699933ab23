package repository

import (
	"context"
	"fmt"

	"cfp-backend/internal/domain"
	"cfp-backend/pkg/database"

	"github.com/jackc/pgx/v5"
)

type membershipRepository struct {
	db *database.PostgresDB
}

// NewMembershipRepository creates a pgx-backed membership repository
func NewMembershipRepository(db *database.PostgresDB) MembershipRepository {
	return &membershipRepository{db: db}
}

// RoleOf returns the caller's role on the team, "" when not a member.
// Every role-gated operation goes through this lookup; role storage
// itself lives outside the engine.
func (r *membershipRepository) RoleOf(ctx context.Context, userID, teamID string) (domain.Role, error) {
	var role domain.Role
	query := `SELECT role FROM team_memberships WHERE user_id = $1 AND team_id = $2`

	err := r.db.Pool.QueryRow(ctx, query, userID, teamID).Scan(&role)
	if err == pgx.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get team role: %w", err)
	}

	return role, nil
}
