package commands

import "github.com/google/uuid"

// Players resolves online players for admin commands.
// Interface to avoid import cycle with gameserver package.
type Players interface {
	// FindPlayer looks up an online player by name (case-insensitive) or uuid.
	FindPlayer(query string) (uuid.UUID, bool)
	// PlayerNames returns the names of every online player.
	PlayerNames() []string
}

// Reloader reloads quest definitions and translations from disk.
type Reloader interface {
	Reload() (loaded int, problems []error, err error)
}

// PlayerOperator is implemented by operators bound to a player session.
type PlayerOperator interface {
	PlayerID() uuid.UUID
}
