package models

const (
	RoleAdmin = "admin"
	RoleTeam  = "team"

	PermissionManageQuestions = "questions:manage"
	PermissionViewHidden      = "testcases:view-hidden"
	PermissionExport          = "leaderboard:export"
)

// Account is a login identity; accounts live in configuration, not in the database
type Account struct {
	ID           string   `yaml:"id" json:"id"`
	TeamName     string   `yaml:"team_name" json:"team_name"`
	Password     string   `yaml:"password" json:"-"`
	PasswordHash string   `yaml:"password_hash" json:"-"`
	Role         string   `yaml:"role" json:"role"`
	Permissions  []string `yaml:"permissions" json:"permissions"`
}

// HasPermission reports whether the account holds the permission, admins hold all of them
func (a Account) HasPermission(permission string) bool {
	if a.Role == RoleAdmin {
		return true
	}
	for _, p := range a.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}
