package auth

import "strings"

// Role is a game participant's access level carried in the token's role claim.
type Role string

// Players hack lanterns and read rounds and teams. Moderators also adjust
// team standings. Admins run rounds and the decay loop.
const (
	RolePlayer    Role = "player"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// roleLadder lists roles from least to most privileged.
var roleLadder = []Role{RolePlayer, RoleModerator, RoleAdmin}

// NormalizeRole maps a claim value onto a known role, ignoring case and surrounding space.
func NormalizeRole(value string) (Role, bool) {
	candidate := Role(strings.ToLower(strings.TrimSpace(value)))
	if privilege(candidate) < 0 {
		return "", false
	}
	return candidate, true
}

// RoleAtLeast reports whether role may run commands that require required.
// Unknown roles never qualify.
func RoleAtLeast(role Role, required Role) bool {
	have := privilege(role)
	return have >= 0 && have >= privilege(required)
}

func privilege(role Role) int {
	for i, step := range roleLadder {
		if step == role {
			return i
		}
	}
	return -1
}
