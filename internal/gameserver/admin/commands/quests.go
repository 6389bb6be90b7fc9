package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/udisondev/questd/internal/game/quest"
	"github.com/udisondev/questd/internal/gameserver/admin"
)

// Quests handles /quests: shows the caller's active quest and today's dailies.
type Quests struct {
	engine *quest.Engine
	daily  *quest.DailyScheduler
}

// NewQuests creates the /quests user command.
func NewQuests(engine *quest.Engine, daily *quest.DailyScheduler) *Quests {
	return &Quests{engine: engine, daily: daily}
}

func (c *Quests) Names() []string { return []string{"quests"} }

func (c *Quests) Handle(op admin.Operator, _ string) error {
	po, ok := op.(PlayerOperator)
	if !ok {
		return errors.New("only players have quests")
	}
	active := c.engine.Store().Active(po.PlayerID())
	if active == "" {
		active = "none"
	}
	op.Reply("Active quest: " + active)
	if c.daily != nil {
		sel := c.daily.Selection()
		op.Reply(fmt.Sprintf("Daily quests (%s): %s", sel.Date, strings.Join(sel.QuestIDs, ", ")))
	}
	return nil
}
