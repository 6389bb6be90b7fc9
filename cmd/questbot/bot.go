package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/udisondev/questd/internal/clientstate"
	"github.com/udisondev/questd/internal/gameserver/serverpackets"
)

// Packet is a serializable client packet.
type Packet interface {
	Write() []byte
}

type bot struct {
	state   *clientstate.State
	rewards []*serverpackets.RewardGrant
	replies []string
}

// run sends script in order and collects server messages until wait elapses
// without traffic.
func (b *bot) run(ctx context.Context, addr string, script []Packet, wait time.Duration) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, addr, nil)
	if err != nil {
		return fmt.Errorf("dialing %s: %w", addr, err)
	}
	defer conn.Close()

	for _, p := range script {
		if err := conn.WriteMessage(websocket.BinaryMessage, p.Write()); err != nil {
			return fmt.Errorf("sending packet: %w", err)
		}
	}

	for {
		if err := conn.SetReadDeadline(time.Now().Add(wait)); err != nil {
			return err
		}
		_, data, err := conn.ReadMessage()
		if err != nil {
			var netErr interface{ Timeout() bool }
			if errors.As(err, &netErr) && netErr.Timeout() {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return nil
			}
			return fmt.Errorf("reading: %w", err)
		}
		if err := b.handle(data); err != nil {
			return err
		}
	}
}

func (b *bot) handle(data []byte) error {
	if len(data) == 0 {
		return errors.New("empty message")
	}
	switch data[0] {
	case serverpackets.OpcodeQuestSync:
		pkt, err := serverpackets.ParseQuestSync(data[1:])
		if err != nil {
			return fmt.Errorf("parsing QuestSync: %w", err)
		}
		b.state.ApplySync(pkt, time.Now())
	case serverpackets.OpcodeRewardGrant:
		pkt, err := serverpackets.ParseRewardGrant(data[1:])
		if err != nil {
			return fmt.Errorf("parsing RewardGrant: %w", err)
		}
		b.rewards = append(b.rewards, pkt)
	case serverpackets.OpcodeAdminMessage:
		pkt, err := serverpackets.ParseAdminMessage(data[1:])
		if err != nil {
			return fmt.Errorf("parsing AdminMessage: %w", err)
		}
		b.replies = append(b.replies, pkt.Text)
	default:
		slog.Warn("unknown server opcode", "opcode", fmt.Sprintf("0x%02X", data[0]))
	}
	return nil
}

func (b *bot) print(w io.Writer) {
	active := b.state.ActiveQuestID()
	fmt.Fprintf(w, "active: %q  daily: %v\n", active, b.state.DailyIDs())
	for _, id := range b.state.QuestIDs() {
		def, _ := b.state.Definition(id)
		status := "-"
		if p := b.state.Progress(id); p != nil {
			status = "in progress"
			if p.Completed {
				status = "completed"
			}
		}
		marker := " "
		if id == active {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %-24s %-32s %s\n", marker, id, def.Title, status)
	}
	if n, ok := b.state.Notification(time.Now()); ok {
		fmt.Fprintf(w, "notification: %s %s\n", n.Kind, n.QuestID)
	}
	for _, r := range b.rewards {
		fmt.Fprintf(w, "reward: %s %s\n", r.QuestID, r.Reward.Type)
	}
	for _, msg := range b.replies {
		fmt.Fprintf(w, "> %s\n", msg)
	}
}
