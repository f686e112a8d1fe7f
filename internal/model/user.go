package model

// Role of a team member. A freshly registered user has no role until a
// manager assigns one.
type Role string

const (
	RoleManager      Role = "manager"
	RoleTeamLead     Role = "team_lead"
	RoleDeveloper    Role = "developer"
	RoleTestEngineer Role = "test_engineer"
)

// ValidRole reports whether r is one of the known roles.
func ValidRole(r Role) bool {
	switch r {
	case RoleManager, RoleTeamLead, RoleDeveloper, RoleTestEngineer:
		return true
	}
	return false
}

type User struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	Role         Role   `json:"role,omitempty"`
}
