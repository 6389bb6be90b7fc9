package quest

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// RewardDispatcher applies rewards in the game world.
type RewardDispatcher interface {
	Apply(playerID uuid.UUID, questID string, r Reward) error
}

// RewardDispatcherFunc adapts a function to RewardDispatcher.
type RewardDispatcherFunc func(playerID uuid.UUID, questID string, r Reward) error

// Apply implements RewardDispatcher.
func (f RewardDispatcherFunc) Apply(playerID uuid.UUID, questID string, r Reward) error {
	return f(playerID, questID, r)
}

// dispatchRewards applies every reward of def. Failures are logged and never
// propagate: a broken reward must not undo a completion.
func dispatchRewards(d RewardDispatcher, playerID uuid.UUID, def *Definition) {
	if d == nil {
		return
	}
	for _, r := range def.Rewards {
		if err := applyReward(d, playerID, def.ID, r); err != nil {
			slog.Error("reward dispatch failed",
				"playerID", playerID,
				"questID", def.ID,
				"rewardType", r.Type,
				"error", err)
		}
	}
}

func applyReward(d RewardDispatcher, playerID uuid.UUID, questID string, r Reward) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic applying reward: %v", rec)
		}
	}()
	return d.Apply(playerID, questID, r)
}
