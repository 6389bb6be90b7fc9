package gameserver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/questd/internal/game/quest"
	"github.com/udisondev/questd/internal/gameserver/admin"
	"github.com/udisondev/questd/internal/gameserver/admin/commands"
	"github.com/udisondev/questd/internal/gameserver/serverpackets"
	"github.com/udisondev/questd/internal/lang"
)

// fakeConn records binary messages written by the writePump.
type fakeConn struct {
	mu       sync.Mutex
	msgs     [][]byte
	closed   bool
	writeErr error
}

func (c *fakeConn) WriteMessage(_ int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeErr != nil {
		return c.writeErr
	}
	c.msgs = append(c.msgs, slices.Clone(data))
	return nil
}

func (c *fakeConn) SetWriteDeadline(time.Time) error { return nil }

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) messages() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.msgs)
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// waitMessages waits until conn has received at least n messages.
func waitMessages(t *testing.T, conn *fakeConn, n int) [][]byte {
	t.Helper()
	require.Eventually(t, func() bool { return len(conn.messages()) >= n },
		2*time.Second, 5*time.Millisecond, "want %d messages", n)
	return conn.messages()
}

func decodeSync(t *testing.T, msg []byte) *serverpackets.QuestSync {
	t.Helper()
	require.NotEmpty(t, msg)
	require.Equal(t, byte(serverpackets.OpcodeQuestSync), msg[0])
	pkt, err := serverpackets.ParseQuestSync(msg[1:])
	require.NoError(t, err)
	return pkt
}

func decodeAdminMessage(t *testing.T, msg []byte) string {
	t.Helper()
	require.NotEmpty(t, msg)
	require.Equal(t, byte(serverpackets.OpcodeAdminMessage), msg[0])
	pkt, err := serverpackets.ParseAdminMessage(msg[1:])
	require.NoError(t, err)
	return pkt.Text
}

type memSource []quest.Record

func (s memSource) Records() ([]quest.Record, error) { return s, nil }

func blockQuest(id, block string, count int, extra string) quest.Record {
	return quest.Record{
		Path: "quests/" + id + ".json",
		Data: []byte(fmt.Sprintf(`{
  "id": %q,
  "title_key": "quest.%s.title",
  "description_key": "quest.%s.desc",
  %s
  "objectives": [{"criteria": [{"type": "block_broken", "block": %q, "count": %d}]}]
}`, id, id, id, extra, block, count)),
	}
}

// fakeProgressRepo is an in-memory quest.ProgressRepository.
type fakeProgressRepo struct {
	mu      sync.Mutex
	players map[uuid.UUID]*quest.PlayerSnapshot
	saves   int
	loadErr error
	saveErr error
	gate    chan struct{}
}

func newFakeProgressRepo() *fakeProgressRepo {
	return &fakeProgressRepo{players: make(map[uuid.UUID]*quest.PlayerSnapshot)}
}

func (r *fakeProgressRepo) LoadPlayer(_ context.Context, id uuid.UUID) (*quest.PlayerSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	if snap, ok := r.players[id]; ok {
		return snap, nil
	}
	return &quest.PlayerSnapshot{PlayerID: id}, nil
}

func (r *fakeProgressRepo) SavePlayer(ctx context.Context, snap *quest.PlayerSnapshot) error {
	r.mu.Lock()
	gate := r.gate
	r.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saves++
	r.players[snap.PlayerID] = snap
	return nil
}

func (r *fakeProgressRepo) setSaveErr(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saveErr = err
}

// holdSaves blocks SavePlayer until the returned release is called.
func (r *fakeProgressRepo) holdSaves() (release func()) {
	gate := make(chan struct{})
	r.mu.Lock()
	r.gate = gate
	r.mu.Unlock()
	return sync.OnceFunc(func() { close(gate) })
}

func (r *fakeProgressRepo) stored(id uuid.UUID) (*quest.PlayerSnapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap, ok := r.players[id]
	return snap, ok
}

// fakeDailyRepo is an in-memory quest.DailyRepository.
type fakeDailyRepo struct {
	mu      sync.Mutex
	sel     map[string]*quest.DailySelection
	saveErr error
}

func (r *fakeDailyRepo) LoadDaily(_ context.Context, worldID string) (*quest.DailySelection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sel[worldID], nil
}

func (r *fakeDailyRepo) SaveDaily(_ context.Context, worldID string, sel *quest.DailySelection) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	if r.sel == nil {
		r.sel = make(map[string]*quest.DailySelection)
	}
	r.sel[worldID] = sel
	return nil
}

// fixture wires a running world with every gameserver collaborator.
type fixture struct {
	world        *World
	catalog      *quest.Catalog
	store        *quest.ProgressStore
	daily        *quest.DailyScheduler
	engine       *quest.Engine
	clients      *ClientManager
	locales      *lang.LocaleStore
	translations *lang.Manager
	langDir      string
	repo         *fakeProgressRepo
	dailyRepo    *fakeDailyRepo
	autosaver    *Autosaver
	handler      *Handler
}

func newFixture(t *testing.T, records ...quest.Record) *fixture {
	t.Helper()
	if len(records) == 0 {
		records = []quest.Record{
			blockQuest("wood", "minecraft:oak_log", 3, `"rewards": [{"type": "xp", "amount": 50}],`),
			blockQuest("stone", "minecraft:stone", 2, `"prerequisites": ["wood"],`),
		}
	}

	langDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(langDir, "en_us.json"),
		[]byte(`{"quest.wood.title": "Gather Wood", "quest.wood.desc": "Chop three logs"}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(langDir, "de_de.toml"),
		[]byte("[quest.wood]\ntitle = \"Holz sammeln\"\n"), 0o644))

	f := &fixture{
		world:        NewWorld("overworld", 0),
		catalog:      quest.NewCatalog(),
		store:        quest.NewProgressStore(),
		clients:      NewClientManager(),
		locales:      lang.NewLocaleStore("en_us"),
		translations: lang.NewManager(langDir, "en_us"),
		langDir:      langDir,
		repo:         newFakeProgressRepo(),
		dailyRepo:    &fakeDailyRepo{},
	}
	_, err := f.catalog.Load(memSource(records))
	require.NoError(t, err)
	require.NoError(t, f.translations.Reload())

	f.daily = quest.NewDailyScheduler(f.catalog, quest.DailyConfig{Location: time.UTC}, nil)
	syncer, err := NewSyncer(f.clients, f.catalog, f.translations, f.locales, 16, 0)
	require.NoError(t, err)
	f.engine = quest.NewEngine(f.catalog, f.store, f.daily, NewRewardForwarder(f.clients), syncer)
	f.autosaver = NewAutosaver(f.world, f.store, f.daily, f.repo, f.dailyRepo, time.Hour)

	cmds := admin.NewHandler()
	content := NewContent(f.catalog, memSource(records), f.translations)
	commands.RegisterAll(cmds, f.engine, f.daily, NewAdminPlayers(f.clients), content)

	f.handler = NewHandler(HandlerDeps{
		World:     f.world,
		Engine:    f.engine,
		Daily:     f.daily,
		Repo:      f.repo,
		Autosaver: f.autosaver,
		Clients:   f.clients,
		Locales:   f.locales,
		Accounts:  admin.NewAccounts(nil),
		Commands:  cmds,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = f.world.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return f
}

// connect creates a client with a running writePump.
func (f *fixture) connect(t *testing.T) (*GameClient, *fakeConn) {
	t.Helper()
	conn := &fakeConn{}
	client := NewGameClient(conn, "127.0.0.1", 64, time.Second)
	go client.writePump()
	t.Cleanup(func() { _ = client.Close() })
	return client, conn
}

// sync waits until everything queued on the world so far has run.
func (f *fixture) sync(t *testing.T) {
	t.Helper()
	require.NoError(t, f.world.Do(context.Background(), func() {}))
}
