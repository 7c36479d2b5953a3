package auth

const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
)

// MinPasswordLength is enforced before any store call.
const MinPasswordLength = 6

// Identity is an authenticated user plus the role row and branch assignment
// resolved from the store. Role is empty for a freshly registered user with
// no role row yet.
type Identity struct {
	UserID   string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Role     string `json:"role,omitempty"`
	BranchID string `json:"branchId,omitempty"`
}

// UserContext is what the auth middleware places on the request context.
type UserContext struct {
	UserID   string
	Email    string
	FullName string
	Role     string
	BranchID string
}

// Manager is the admin-facing view of a manager account.
type Manager struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	FullName   string `json:"fullName"`
	BranchID   string `json:"branchId,omitempty"`
	BranchName string `json:"branchName,omitempty"`
}
