package gameserver

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/udisondev/questd/internal/gameserver/serverpackets"
)

// AdminPlayers adapts ClientManager to the commands.Players interface.
// This avoids import cycle between gameserver ↔ admin/commands packages.
type AdminPlayers struct {
	cm *ClientManager
}

// NewAdminPlayers creates a new adapter.
func NewAdminPlayers(cm *ClientManager) *AdminPlayers {
	return &AdminPlayers{cm: cm}
}

// FindPlayer looks up an online player by uuid or name (case-insensitive).
func (a *AdminPlayers) FindPlayer(query string) (uuid.UUID, bool) {
	if id, err := uuid.Parse(query); err == nil {
		return id, a.cm.GetClient(id) != nil
	}
	if c := a.cm.FindByName(query); c != nil {
		return c.PlayerID(), true
	}
	return uuid.Nil, false
}

// PlayerNames returns the names of every online player.
func (a *AdminPlayers) PlayerNames() []string {
	return a.cm.Names()
}

// clientOperator adapts a GameClient to admin.Operator.
type clientOperator struct {
	client *GameClient
}

func (o clientOperator) Name() string        { return o.client.Name() }
func (o clientOperator) AccessLevel() int32  { return o.client.AccessLevel() }
func (o clientOperator) PlayerID() uuid.UUID { return o.client.PlayerID() }

func (o clientOperator) Reply(msg string) {
	if err := o.client.SendPacket(serverpackets.AdminMessage{Text: msg}); err != nil {
		slog.Debug("admin reply dropped", "client", o.client.IP(), "error", err)
	}
}
