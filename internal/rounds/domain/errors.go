package rounds

import (
	"fmt"

	"lantern-backend/internal/gameerr"
)

var (
	// ErrRoundConflict indicates another round is already active.
	ErrRoundConflict = fmt.Errorf("%w: another round is active", gameerr.ErrConflict)
	// ErrRoundEnded indicates the round already ran once.
	ErrRoundEnded = fmt.Errorf("%w: round already ended", gameerr.ErrNotAllowed)
	// ErrRoundNotFound indicates a missing round.
	ErrRoundNotFound = fmt.Errorf("%w: round", gameerr.ErrDoesNotExist)
	// ErrTeamExists indicates a duplicate short name.
	ErrTeamExists = fmt.Errorf("%w: team short name taken", gameerr.ErrConflict)
	// ErrTeamNotFound indicates a missing team.
	ErrTeamNotFound = fmt.Errorf("%w: team", gameerr.ErrDoesNotExist)
)
