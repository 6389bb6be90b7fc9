package gameserver

import (
	"context"
	"log/slog"
	"time"

	"github.com/udisondev/questd/internal/game/quest"
)

// logoutSaveTimeout bounds the final save of a disconnecting player.
const logoutSaveTimeout = 5 * time.Second

// OnDisconnection detaches the client's player from the world and saves its
// final snapshot. Packets the client sent before disconnecting are applied
// first, since the detach is queued on the world loop after them.
func (h *Handler) OnDisconnection(ctx context.Context, client *GameClient) {
	if client.State() == ClientStateConnected {
		return
	}
	id := client.PlayerID()
	if h.clients.GetClient(id) != client {
		return
	}

	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), logoutSaveTimeout)
	defer cancel()

	// A reconnect of the same player waits for this logout to finish.
	pending := h.autosaver.BeginLogout(id)
	if !h.clients.Unregister(id, client) {
		_ = h.autosaver.EndLogout(saveCtx, id, pending, nil)
		return
	}
	h.locales.Clear(id)

	var (
		snap *quest.PlayerSnapshot
		ok   bool
	)
	err := h.world.Do(saveCtx, func() {
		snap, ok = h.engine.Store().Detach(id)
	})
	if err != nil {
		// The loop is gone; the shutdown flush saves attached players.
		slog.Debug("logout detach skipped", "playerID", id, "error", err)
		_ = h.autosaver.EndLogout(saveCtx, id, pending, nil)
		return
	}
	if !ok {
		snap = nil
	}

	if err := h.autosaver.EndLogout(saveCtx, id, pending, snap); err != nil {
		slog.Error("saving player on logout",
			"playerID", id,
			"error", err)
	}
	slog.Info("player left", "playerID", id, "name", client.Name())
}
