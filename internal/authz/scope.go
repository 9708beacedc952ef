package authz

import (
	"github.com/wasteer/wasteer/internal/apperr"
	"github.com/wasteer/wasteer/internal/identity"
)

// Intent names a class of read operation the scoper narrows.
type Intent int

const (
	// IntentListEntries scopes waste-entry listing.
	IntentListEntries Intent = iota
	// IntentListUsers scopes user listing.
	IntentListUsers
	// IntentAggregate scopes analytics aggregation.
	IntentAggregate
)

// Scope is the row-filtering predicate a caller is entitled to. Exactly one
// of All, TeamID, UserID or None is set.
type Scope struct {
	// All matches every row (superuser without an explicit team filter).
	All bool
	// TeamID restricts rows to one team.
	TeamID *int64
	// UserID restricts rows to those authored by one user.
	UserID *int64
	// None matches nothing (e.g. a manager-tier caller with no team).
	None bool
}

// ScopeFor computes the visibility scope for a caller and intent. The policy
// is evaluated top to bottom, first match wins:
//
//	superuser + explicit team  -> that team
//	superuser                  -> everything
//	manager tier (view_analytics) -> caller's team
//	otherwise                  -> self (entries) or deny (users, analytics)
//
// An explicit team filter from a non-superuser is ignored, never an error.
func ScopeFor(user *identity.User, intent Intent, explicitTeamID *int64) (Scope, error) {
	if user == nil {
		return Scope{}, apperr.Unauthenticated("Authentication required")
	}

	if user.IsSuperuser {
		if explicitTeamID != nil {
			return Scope{TeamID: explicitTeamID}, nil
		}
		return Scope{All: true}, nil
	}

	if user.HasPermission(PermViewAnalytics) {
		if user.TeamID == nil {
			return Scope{None: true}, nil
		}
		return Scope{TeamID: user.TeamID}, nil
	}

	switch intent {
	case IntentListEntries:
		id := user.ID
		return Scope{UserID: &id}, nil
	case IntentListUsers:
		return Scope{}, apperr.Forbidden("Access denied")
	default:
		return Scope{}, apperr.Forbidden("Manager access required")
	}
}
