package domain

// Role is the permission level of a user account
type Role string

const (
	RoleEditor Role = "EDITOR"
	RoleAdmin  Role = "ADMIN"
)

// AllRoles contains all valid roles in order of increasing privilege
var AllRoles = []Role{RoleEditor, RoleAdmin}

// IsValid checks if a role is valid
func (r Role) IsValid() bool {
	switch r {
	case RoleEditor, RoleAdmin:
		return true
	}
	return false
}

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a user-friendly display name for the role
func (r Role) DisplayName() string {
	switch r {
	case RoleEditor:
		return "Editor"
	case RoleAdmin:
		return "Admin"
	default:
		return string(r)
	}
}
