// Questbot is a scripted quest client for smoke-testing a running server.
// It logs in, starts a quest, replays gameplay events and prints the
// resulting quest state.
//
// Usage:
//
//	go run ./cmd/questbot -addr ws://127.0.0.1:7780/quests -quest gather_wood \
//	    -event block_broken:minecraft:oak_log:5
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/udisondev/questd/internal/clientstate"
	"github.com/udisondev/questd/internal/game/quest"
	"github.com/udisondev/questd/internal/gameserver/clientpackets"
)

type eventList []quest.Event

func (l *eventList) String() string { return fmt.Sprint(len(*l)) }

func (l *eventList) Set(v string) error {
	ev, err := parseEvent(v)
	if err != nil {
		return err
	}
	*l = append(*l, ev)
	return nil
}

// parseEvent parses "type:target:count"; target may itself contain colons.
func parseEvent(v string) (quest.Event, error) {
	typ, rest, ok := strings.Cut(v, ":")
	if !ok {
		return quest.Event{}, fmt.Errorf("event %q: want type:target:count", v)
	}
	ct, ok := quest.ParseCriteriaType(typ)
	if !ok {
		return quest.Event{}, fmt.Errorf("event %q: unknown type %q", v, typ)
	}
	count := 1
	if i := strings.LastIndex(rest, ":"); i >= 0 {
		if n, err := strconv.Atoi(rest[i+1:]); err == nil {
			count = n
			rest = rest[:i]
		}
	}
	return quest.Event{Type: ct, Target: rest, Count: count}, nil
}

func main() {
	var (
		addr    = flag.String("addr", "ws://127.0.0.1:7780/quests", "server websocket url")
		name    = flag.String("name", "questbot", "player name")
		player  = flag.String("player", "", "player uuid (random when empty)")
		locale  = flag.String("locale", "en_us", "client locale")
		token   = flag.String("admin-token", "", "admin token")
		questID = flag.String("quest", "", "quest to start")
		command = flag.String("command", "", "command line to send, e.g. //questadmin list")
		wait    = flag.Duration("wait", 2*time.Second, "how long to wait for replies")
		events  eventList
	)
	flag.Var(&events, "event", "gameplay event type:target:count (repeatable)")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	id := uuid.New()
	if *player != "" {
		parsed, err := uuid.Parse(*player)
		if err != nil {
			slog.Error("invalid player uuid", "error", err)
			os.Exit(2)
		}
		id = parsed
	}

	b := &bot{state: clientstate.New()}
	script := []Packet{&clientpackets.Hello{PlayerID: id, Name: *name, Locale: *locale, AdminToken: *token}}
	if *questID != "" {
		script = append(script, &clientpackets.QuestStart{QuestID: *questID})
	}
	for _, ev := range events {
		script = append(script, &clientpackets.GameplayEvent{Event: ev})
	}
	if *command != "" {
		script = append(script, &clientpackets.AdminCommand{Command: *command})
	}

	if err := b.run(ctx, *addr, script, *wait); err != nil {
		slog.Error("questbot", "error", err)
		os.Exit(1)
	}
	b.print(os.Stdout)
}
