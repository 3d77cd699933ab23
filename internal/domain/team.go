package domain

// Role is a user's role within an event team
type Role string

const (
	RoleOwner    Role = "OWNER"
	RoleMember   Role = "MEMBER"
	RoleReviewer Role = "REVIEWER"
)

// Membership links a user to a team with a role
type Membership struct {
	UserID string `json:"user_id"`
	TeamID string `json:"team_id"`
	Role   Role   `json:"role"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

// IsOrganizer reports whether the role may deliberate and publish.
// Reviewers only review and search.
func (r Role) IsOrganizer() bool {
	return r == RoleOwner || r == RoleMember
}

// SeesSpeakers reports whether proposal speaker identities are visible to
// this role on the given event. Organizers always see them; reviewers only
// when the event allows it.
func (r Role) SeesSpeakers(e *Event) bool {
	if r.IsOrganizer() {
		return true
	}
	return e.DisplayProposalsSpeakers
}

// SeesReviews reports whether other reviewers' scores and the materialized
// average are visible to this role on the given event.
func (r Role) SeesReviews(e *Event) bool {
	if r.IsOrganizer() {
		return true
	}
	return e.DisplayProposalsReviews
}

// Caller identifies the authenticated user making a request
type Caller struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}
