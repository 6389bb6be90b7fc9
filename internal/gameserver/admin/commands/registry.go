package commands

import (
	"github.com/udisondev/questd/internal/game/quest"
	"github.com/udisondev/questd/internal/gameserver/admin"
)

// RegisterAll registers all admin and user commands into the handler.
func RegisterAll(h *admin.Handler, engine *quest.Engine, daily *quest.DailyScheduler, players Players, reloader Reloader) {
	h.RegisterAdmin(NewQuestAdmin(engine, daily, players, reloader))

	h.RegisterUser(NewQuests(engine, daily))
}
