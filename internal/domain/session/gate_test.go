package session

import (
	"testing"

	"upr360/internal/domain/auth"
)

func TestResolve(t *testing.T) {
	cases := []struct {
		name  string
		ident *auth.Identity
		want  State
	}{
		{"no session", nil, StateUnauthenticated},
		{"no role row", &auth.Identity{UserID: "u1"}, StateNoRole},
		{"admin", &auth.Identity{UserID: "u1", Role: auth.RoleAdmin}, StateAdmin},
		{"manager", &auth.Identity{UserID: "u1", Role: auth.RoleManager, BranchID: "b1"}, StateManager},
		{"manager without branch stays manager", &auth.Identity{UserID: "u1", Role: auth.RoleManager}, StateManager},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Resolve(tc.ident); got != tc.want {
				t.Fatalf("Resolve() = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestAllowedTransitions(t *testing.T) {
	allowed := [][2]State{
		{StateLoading, StateUnauthenticated},
		{StateLoading, StateNoRole},
		{StateLoading, StateAdmin},
		{StateLoading, StateManager},
		{StateUnauthenticated, StateLoading},
		{StateNoRole, StateUnauthenticated},
		{StateNoRole, StateAdmin},
		{StateAdmin, StateUnauthenticated},
		{StateManager, StateUnauthenticated},
	}

	states := []State{StateLoading, StateUnauthenticated, StateNoRole, StateAdmin, StateManager}
	isAllowed := func(from, to State) bool {
		for _, pair := range allowed {
			if pair[0] == from && pair[1] == to {
				return true
			}
		}
		return false
	}

	for _, from := range states {
		for _, to := range states {
			if got, want := Allowed(from, to), isAllowed(from, to); got != want {
				t.Errorf("Allowed(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestNoRoleCannotReachManager(t *testing.T) {
	if Allowed(StateNoRole, StateManager) {
		t.Fatal("no-role users must not transition directly to manager")
	}
}
