package auth

// Command names checked by the authorizer.
const (
	CommandGetLanternHack   = "GetLanternHack"
	CommandHackLantern      = "HackLantern"
	CommandGetRound         = "GetRound"
	CommandCreateRound      = "CreateRound"
	CommandStartRound       = "StartRound"
	CommandEndRound         = "EndRound"
	CommandGetTeams         = "GetTeams"
	CommandCreateTeam       = "CreateTeam"
	CommandUpdateTeam       = "UpdateTeam"
	CommandExportTeams      = "ExportTeams"
	CommandSetDecayInterval = "SetDecayInterval"
)

// Policy maps command names to the minimum role allowed to run them.
type Policy struct {
	Commands map[string]Role
}

// NewDefaultPolicy builds the stock command policy, applying overrides on top.
func NewDefaultPolicy(overrides map[string]Role) Policy {
	commands := map[string]Role{
		CommandGetLanternHack:   RolePlayer,
		CommandHackLantern:      RolePlayer,
		CommandGetRound:         RolePlayer,
		CommandGetTeams:         RolePlayer,
		CommandCreateRound:      RoleAdmin,
		CommandStartRound:       RoleAdmin,
		CommandEndRound:         RoleAdmin,
		CommandCreateTeam:       RoleAdmin,
		CommandUpdateTeam:       RoleModerator,
		CommandExportTeams:      RoleModerator,
		CommandSetDecayInterval: RoleAdmin,
	}
	for command, role := range overrides {
		if normalized, ok := NormalizeRole(string(role)); ok {
			commands[command] = normalized
		}
	}
	return Policy{Commands: commands}
}

// RequiredRole resolves the minimum role for command.
func (p Policy) RequiredRole(command string) (Role, bool) {
	role, ok := p.Commands[command]
	return role, ok
}
