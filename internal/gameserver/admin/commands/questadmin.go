package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/udisondev/questd/internal/game/quest"
	"github.com/udisondev/questd/internal/gameserver/admin"
)

const questAdminUsage = "usage: //questadmin reload | list | grant <player> <quest|all> | reset <player> [quest|all] | daily reroll"

// QuestAdmin handles //questadmin. Runs on the world loop.
type QuestAdmin struct {
	engine   *quest.Engine
	daily    *quest.DailyScheduler
	players  Players
	reloader Reloader
}

// NewQuestAdmin creates the questadmin command handler.
func NewQuestAdmin(engine *quest.Engine, daily *quest.DailyScheduler, players Players, reloader Reloader) *QuestAdmin {
	return &QuestAdmin{engine: engine, daily: daily, players: players, reloader: reloader}
}

func (c *QuestAdmin) Names() []string            { return []string{"questadmin", "qa"} }
func (c *QuestAdmin) RequiredAccessLevel() int32 { return 1 }

func (c *QuestAdmin) Handle(op admin.Operator, args []string) error {
	if len(args) < 2 {
		return errors.New(questAdminUsage)
	}
	al := admin.GetAccessLevel(op.AccessLevel())

	switch strings.ToLower(args[1]) {
	case "list":
		return c.list(op)
	case "reload":
		if !al.CanReload {
			return errors.New("reload requires administrator access")
		}
		return c.reload(op)
	case "grant":
		if !al.CanEditProgress {
			return errors.New("grant requires game master access")
		}
		return c.grant(op, args[2:])
	case "reset":
		if !al.CanEditProgress {
			return errors.New("reset requires game master access")
		}
		return c.reset(op, args[2:])
	case "daily":
		if len(args) < 3 || !strings.EqualFold(args[2], "reroll") {
			return errors.New("usage: //questadmin daily reroll")
		}
		if !al.CanReload {
			return errors.New("daily reroll requires administrator access")
		}
		return c.rerollDaily(op)
	default:
		return errors.New(questAdminUsage)
	}
}

func (c *QuestAdmin) list(op admin.Operator) error {
	daily := make(map[string]bool)
	if c.daily != nil {
		for _, id := range c.daily.QuestIDs() {
			daily[id] = true
		}
	}
	defs := c.engine.Catalog().All()
	var b strings.Builder
	fmt.Fprintf(&b, "%d quests:", len(defs))
	for _, def := range defs {
		b.WriteString(" ")
		b.WriteString(def.ID)
		if daily[def.ID] {
			b.WriteString("*")
		}
	}
	op.Reply(b.String())
	return nil
}

func (c *QuestAdmin) reload(op admin.Operator) error {
	loaded, problems, err := c.reloader.Reload()
	if err != nil {
		return fmt.Errorf("reload failed, previous content kept: %w", err)
	}
	c.engine.SyncAll()
	op.Reply(fmt.Sprintf("Reloaded %d quests, %d problems", loaded, len(problems)))
	for _, p := range problems {
		op.Reply("  " + p.Error())
	}
	return nil
}

func (c *QuestAdmin) grant(op admin.Operator, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: //questadmin grant <player> <quest|all>")
	}
	id, err := c.resolvePlayer(args[0])
	if err != nil {
		return err
	}
	if strings.EqualFold(args[1], "all") {
		if err := c.engine.GrantAll(id); err != nil {
			return err
		}
		op.Reply(fmt.Sprintf("Granted all quests to %s", args[0]))
		return nil
	}
	if err := c.engine.GrantQuest(id, args[1]); err != nil {
		return c.questError(args[1], err)
	}
	op.Reply(fmt.Sprintf("Granted %s to %s", args[1], args[0]))
	return nil
}

func (c *QuestAdmin) reset(op admin.Operator, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: //questadmin reset <player> [quest|all]")
	}
	id, err := c.resolvePlayer(args[0])
	if err != nil {
		return err
	}
	questID := ""
	if len(args) > 1 && !strings.EqualFold(args[1], "all") {
		questID = args[1]
		// Records of quests dropped by a reload can still be reset.
		_, known := c.engine.Catalog().Get(questID)
		if !known && c.engine.Store().Get(id, questID) == nil {
			return unknownError("quest", questID, c.engine.Catalog().IDs())
		}
	}
	if err := c.engine.ResetQuest(id, questID); err != nil {
		return err
	}
	if questID == "" {
		op.Reply(fmt.Sprintf("Reset all quests of %s", args[0]))
	} else {
		op.Reply(fmt.Sprintf("Reset %s for %s", questID, args[0]))
	}
	return nil
}

func (c *QuestAdmin) rerollDaily(op admin.Operator) error {
	if c.daily == nil {
		return errors.New("daily rotation is disabled")
	}
	c.daily.Reroll(true)
	c.engine.SyncAll()
	op.Reply("Daily quests: " + strings.Join(c.daily.QuestIDs(), ", "))
	return nil
}

func (c *QuestAdmin) resolvePlayer(query string) (uuid.UUID, error) {
	id, ok := c.players.FindPlayer(query)
	if !ok {
		return uuid.Nil, unknownError("player", query, c.players.PlayerNames())
	}
	return id, nil
}

func (c *QuestAdmin) questError(questID string, err error) error {
	if errors.Is(err, quest.ErrQuestNotFound) {
		return unknownError("quest", questID, c.engine.Catalog().IDs())
	}
	return err
}
