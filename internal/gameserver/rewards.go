package gameserver

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/udisondev/questd/internal/game/quest"
	"github.com/udisondev/questd/internal/gameserver/serverpackets"
)

// RewardForwarder implements quest.RewardDispatcher by forwarding each reward
// to the player's session, where the game bridge applies it.
type RewardForwarder struct {
	clients *ClientManager
}

// NewRewardForwarder creates a forwarder over connected clients.
func NewRewardForwarder(clients *ClientManager) *RewardForwarder {
	return &RewardForwarder{clients: clients}
}

// Apply implements quest.RewardDispatcher.
func (f *RewardForwarder) Apply(playerID uuid.UUID, questID string, r quest.Reward) error {
	client := f.clients.GetClient(playerID)
	if client == nil {
		return fmt.Errorf("forwarding %s reward: player %s not connected", r.Type, playerID)
	}
	return client.SendPacket(&serverpackets.RewardGrant{
		PlayerID: playerID,
		QuestID:  questID,
		Reward:   r,
	})
}
