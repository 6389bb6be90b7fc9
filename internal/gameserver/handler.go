package gameserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/udisondev/questd/internal/game/quest"
	"github.com/udisondev/questd/internal/gameserver/admin"
	"github.com/udisondev/questd/internal/gameserver/clientpackets"
	"github.com/udisondev/questd/internal/gameserver/serverpackets"
	"github.com/udisondev/questd/internal/lang"
)

// Handler processes client packets.
type Handler struct {
	world     *World
	engine    *quest.Engine
	daily     *quest.DailyScheduler
	repo      quest.ProgressRepository
	autosaver *Autosaver
	clients   *ClientManager
	locales   *lang.LocaleStore
	accounts  *admin.Accounts
	commands  *admin.Handler
}

// HandlerDeps groups the collaborators of a Handler.
type HandlerDeps struct {
	World     *World
	Engine    *quest.Engine
	Daily     *quest.DailyScheduler
	Repo      quest.ProgressRepository
	Autosaver *Autosaver
	Clients   *ClientManager
	Locales   *lang.LocaleStore
	Accounts  *admin.Accounts
	Commands  *admin.Handler
}

// NewHandler creates a new packet handler.
func NewHandler(d HandlerDeps) *Handler {
	return &Handler{
		world:     d.World,
		engine:    d.Engine,
		daily:     d.Daily,
		repo:      d.Repo,
		autosaver: d.Autosaver,
		clients:   d.Clients,
		locales:   d.Locales,
		accounts:  d.Accounts,
		commands:  d.Commands,
	}
}

// HandlePacket dispatches a packet to the appropriate handler.
// A returned error closes the connection.
func (h *Handler) HandlePacket(ctx context.Context, client *GameClient, data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("empty packet data")
	}

	opcode := data[0]
	body := data[1:]
	state := client.State()

	switch state {
	case ClientStateConnected:
		if opcode != clientpackets.OpcodeHello {
			return fmt.Errorf("expected Hello, got opcode 0x%02X", opcode)
		}
		return h.handleHello(ctx, client, body)

	case ClientStateInGame:
		switch opcode {
		case clientpackets.OpcodeQuestStart:
			return h.handleQuestStart(client, body)
		case clientpackets.OpcodeQuestStop:
			return h.handleQuestStop(client, body)
		case clientpackets.OpcodeQuestSyncRequest:
			id := client.PlayerID()
			h.submit(func() { h.engine.SyncFull(id) })
			return nil
		case clientpackets.OpcodeClientLocale:
			return h.handleClientLocale(client, body)
		case clientpackets.OpcodeGameplayEvent:
			return h.handleGameplayEvent(client, body)
		case clientpackets.OpcodeAdminCommand:
			return h.handleAdminCommand(client, body)
		default:
			slog.Warn("unknown packet opcode",
				"opcode", fmt.Sprintf("0x%02X", opcode),
				"state", state,
				"client", client.IP())
			return nil
		}

	default:
		return fmt.Errorf("invalid state: %v", state)
	}
}

// handleHello binds the session to a player, loads progress off the world
// loop and attaches it on the loop. A failed load refuses the login.
func (h *Handler) handleHello(ctx context.Context, client *GameClient, data []byte) error {
	pkt, err := clientpackets.ParseHello(data)
	if err != nil {
		return fmt.Errorf("parsing Hello: %w", err)
	}
	id := pkt.PlayerID

	client.SetIdentity(id, pkt.Name)
	if h.accounts != nil {
		if account, level, ok := h.accounts.Authenticate(pkt.AdminToken); ok {
			client.SetAdmin(account, level)
			slog.Info("admin session", "player", pkt.Name, "account", account, "accessLevel", level)
		} else if pkt.AdminToken != "" {
			slog.Warn("rejected admin token", "player", pkt.Name, "client", client.IP())
		}
	}

	if !h.clients.Register(id, client) {
		return fmt.Errorf("player %s already connected", id)
	}
	client.SetState(ClientStateEntering)
	h.locales.Set(id, pkt.Locale)

	snap, fromPending, err := h.autosaver.TakePending(ctx, id)
	if err != nil {
		h.clients.Unregister(id, client)
		h.locales.Clear(id)
		return fmt.Errorf("waiting for previous logout of %s: %w", id, err)
	}
	if !fromPending {
		snap, err = h.repo.LoadPlayer(ctx, id)
		if err != nil {
			h.clients.Unregister(id, client)
			h.locales.Clear(id)
			return fmt.Errorf("loading progress of %s: %w", id, err)
		}
	}

	err = h.world.Do(ctx, func() {
		if h.clients.GetClient(id) != client {
			return
		}
		h.engine.Store().Attach(id, snap)
		if h.daily != nil && h.daily.EnsureSelection() {
			h.engine.SyncAll()
			return
		}
		h.engine.SyncFull(id)
	})
	if err != nil {
		if fromPending {
			h.autosaver.Keep(snap)
		}
		h.clients.Unregister(id, client)
		h.locales.Clear(id)
		// The attach may still run or have run; undo it unless a new
		// session took over.
		h.world.Submit(func() {
			if h.clients.GetClient(id) == nil {
				h.engine.Store().Detach(id)
			}
		})
		return fmt.Errorf("attaching %s: %w", id, err)
	}

	client.SetState(ClientStateInGame)
	slog.Info("player entered",
		"playerID", id,
		"name", pkt.Name,
		"locale", h.locales.Get(id),
		"client", client.IP())
	return nil
}

func (h *Handler) handleQuestStart(client *GameClient, data []byte) error {
	pkt, err := clientpackets.ParseQuestStart(data)
	if err != nil {
		return fmt.Errorf("parsing QuestStart: %w", err)
	}
	id := client.PlayerID()
	h.submit(func() {
		if err := h.engine.StartQuest(id, pkt.QuestID); err != nil {
			slog.Debug("quest start refused", "playerID", id, "questID", pkt.QuestID, "error", err)
			reply(client, startRefusal(pkt.QuestID, err))
		}
	})
	return nil
}

func startRefusal(questID string, err error) string {
	switch {
	case errors.Is(err, quest.ErrQuestNotFound):
		return "Unknown quest " + questID
	case errors.Is(err, quest.ErrQuestLocked):
		return "Quest " + questID + " is locked"
	default:
		return "Cannot start " + questID
	}
}

func (h *Handler) handleQuestStop(client *GameClient, data []byte) error {
	pkt, err := clientpackets.ParseQuestStop(data)
	if err != nil {
		return fmt.Errorf("parsing QuestStop: %w", err)
	}
	id := client.PlayerID()
	h.submit(func() { h.engine.StopQuest(id, pkt.QuestID) })
	return nil
}

func (h *Handler) handleClientLocale(client *GameClient, data []byte) error {
	pkt, err := clientpackets.ParseClientLocale(data)
	if err != nil {
		return fmt.Errorf("parsing ClientLocale: %w", err)
	}
	id := client.PlayerID()
	if h.locales.Set(id, pkt.Locale) {
		h.submit(func() { h.engine.SyncFull(id) })
	}
	return nil
}

func (h *Handler) handleGameplayEvent(client *GameClient, data []byte) error {
	pkt, err := clientpackets.ParseGameplayEvent(data)
	if err != nil {
		return fmt.Errorf("parsing GameplayEvent: %w", err)
	}
	id := client.PlayerID()
	h.submit(func() { h.engine.HandleEvent(id, pkt.Event) })
	return nil
}

func (h *Handler) handleAdminCommand(client *GameClient, data []byte) error {
	pkt, err := clientpackets.ParseAdminCommand(data)
	if err != nil {
		return fmt.Errorf("parsing AdminCommand: %w", err)
	}
	if h.commands == nil {
		return nil
	}
	h.submit(func() { h.commands.Handle(clientOperator{client: client}, pkt.Command) })
	return nil
}

// submit queues fn on the world loop; work arriving during shutdown is dropped.
func (h *Handler) submit(fn func()) {
	if !h.world.Submit(fn) {
		slog.Debug("world stopped, packet dropped")
	}
}

func reply(client *GameClient, msg string) {
	if err := client.SendPacket(serverpackets.AdminMessage{Text: msg}); err != nil {
		slog.Debug("reply dropped", "client", client.IP(), "error", err)
	}
}
