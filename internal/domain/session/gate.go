// Package session routes an identity-resolution outcome to one of the
// dashboard views: unauthenticated, no-role, admin or manager.
package session

import "upr360/internal/domain/auth"

type State string

const (
	StateLoading         State = "loading"
	StateUnauthenticated State = "unauthenticated"
	StateNoRole          State = "no_role"
	StateAdmin           State = "admin"
	StateManager         State = "manager"
)

// Resolve maps a completed identity resolution to a gate state. A nil
// identity means no session; an identity without a role row lands in NoRole.
// A manager with no branch assignment is still routed to Manager; the view
// layer renders the degraded "no branch assigned" message.
func Resolve(ident *auth.Identity) State {
	if ident == nil {
		return StateUnauthenticated
	}
	switch ident.Role {
	case auth.RoleAdmin:
		return StateAdmin
	case auth.RoleManager:
		return StateManager
	default:
		return StateNoRole
	}
}

// Allowed reports whether the gate defines a transition between two states.
// NoRole -> Admin is the claim-admin bootstrap; its store precondition is
// checked at claim time, not here.
func Allowed(from, to State) bool {
	switch from {
	case StateLoading:
		return to == StateUnauthenticated || to == StateNoRole || to == StateAdmin || to == StateManager
	case StateUnauthenticated:
		return to == StateLoading
	case StateNoRole:
		return to == StateUnauthenticated || to == StateAdmin
	case StateAdmin, StateManager:
		return to == StateUnauthenticated
	default:
		return false
	}
}
