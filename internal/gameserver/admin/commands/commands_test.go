package commands

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/questd/internal/game/quest"
	"github.com/udisondev/questd/internal/gameserver/admin"
)

type memSource []quest.Record

func (s memSource) Records() ([]quest.Record, error) { return s, nil }

func questJSON(id string) []byte {
	return []byte(fmt.Sprintf(`{
  "id": %q,
  "title_key": "quest.title",
  "description_key": "quest.desc",
  "objectives": [{"criteria": [{"type": "block_broken", "block": "minecraft:stone", "count": 4}]}]
}`, id))
}

type fakePlayers map[string]uuid.UUID

func (p fakePlayers) FindPlayer(query string) (uuid.UUID, bool) {
	id, ok := p[strings.ToLower(query)]
	return id, ok
}

func (p fakePlayers) PlayerNames() []string {
	names := make([]string, 0, len(p))
	for n := range p {
		names = append(names, n)
	}
	return names
}

type fakeReloader struct {
	calls int
	err   error
}

func (r *fakeReloader) Reload() (int, []error, error) {
	r.calls++
	return 3, []error{errors.New("quests/broken.json: bad json")}, r.err
}

type operator struct {
	level   int32
	player  uuid.UUID
	replies []string
}

func (o *operator) Name() string        { return "op" }
func (o *operator) AccessLevel() int32  { return o.level }
func (o *operator) Reply(msg string)    { o.replies = append(o.replies, msg) }
func (o *operator) PlayerID() uuid.UUID { return o.player }

type fixture struct {
	handler  *admin.Handler
	engine   *quest.Engine
	store    *quest.ProgressStore
	daily    *quest.DailyScheduler
	reloader *fakeReloader
	steve    uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	catalog := quest.NewCatalog()
	_, err := catalog.Load(memSource{
		{Path: "quests/miner.json", Data: questJSON("miner")},
		{Path: "quests/mason.json", Data: questJSON("mason")},
		{Path: "daily/digger.json", Data: questJSON("digger"), Daily: true},
	})
	require.NoError(t, err)

	f := &fixture{
		handler:  admin.NewHandler(),
		store:    quest.NewProgressStore(),
		reloader: &fakeReloader{},
		steve:    uuid.New(),
	}
	f.daily = quest.NewDailyScheduler(catalog, quest.DailyConfig{Location: time.UTC}, nil)
	f.engine = quest.NewEngine(catalog, f.store, f.daily, nil, nil)
	f.store.Attach(f.steve, nil)

	RegisterAll(f.handler, f.engine, f.daily, fakePlayers{"steve": f.steve}, f.reloader)
	return f
}

func TestQuestAdmin_List(t *testing.T) {
	f := newFixture(t)
	f.daily.Reroll(true)
	op := &operator{level: 1}

	require.True(t, f.handler.Handle(op, "//questadmin list"))
	require.Len(t, op.replies, 1)
	assert.Equal(t, "3 quests: digger* mason miner", op.replies[0])
}

func TestQuestAdmin_Grant(t *testing.T) {
	f := newFixture(t)
	op := &operator{level: 2}

	f.handler.Handle(op, "//questadmin grant Steve miner")
	p := f.store.Get(f.steve, "miner")
	require.NotNil(t, p)
	assert.True(t, p.Completed)
	assert.Equal(t, "Granted miner to Steve", op.replies[len(op.replies)-1])

	f.handler.Handle(op, "//qa grant steve all")
	for _, id := range []string{"digger", "mason", "miner"} {
		p := f.store.Get(f.steve, id)
		require.NotNil(t, p, id)
		assert.True(t, p.Completed, id)
	}
}

func TestQuestAdmin_UnknownSuggestsNearest(t *testing.T) {
	f := newFixture(t)
	op := &operator{level: 2}

	f.handler.Handle(op, "//questadmin grant steve minr")
	require.NotEmpty(t, op.replies)
	assert.Contains(t, op.replies[0], `unknown quest "minr"`)
	assert.Contains(t, op.replies[0], "did you mean: miner")

	op.replies = nil
	f.handler.Handle(op, "//questadmin reset stve")
	require.NotEmpty(t, op.replies)
	assert.Contains(t, op.replies[0], `unknown player "stve"`)
	assert.Contains(t, op.replies[0], "steve")
}

func TestQuestAdmin_Reset(t *testing.T) {
	f := newFixture(t)
	op := &operator{level: 2}

	require.NoError(t, f.engine.StartQuest(f.steve, "miner"))
	require.NoError(t, f.engine.GrantQuest(f.steve, "mason"))

	f.handler.Handle(op, "//questadmin reset steve miner")
	assert.Nil(t, f.store.Get(f.steve, "miner"))
	assert.Empty(t, f.store.Active(f.steve))
	assert.NotNil(t, f.store.Get(f.steve, "mason"))

	f.handler.Handle(op, "//questadmin reset steve")
	assert.Empty(t, f.store.All(f.steve))
}

func TestQuestAdmin_ResetRecordOfRemovedQuest(t *testing.T) {
	f := newFixture(t)
	op := &operator{level: 2}

	require.True(t, f.store.Put(f.steve, quest.NewProgress("retired")))
	f.handler.Handle(op, "//questadmin reset steve retired")
	assert.Nil(t, f.store.Get(f.steve, "retired"))
	assert.Equal(t, "Reset retired for steve", op.replies[len(op.replies)-1])

	op.replies = nil
	f.handler.Handle(op, "//questadmin reset steve minr")
	require.NotEmpty(t, op.replies)
	assert.Contains(t, op.replies[0], "did you mean: miner")
}

func TestQuestAdmin_ReloadAndReroll(t *testing.T) {
	f := newFixture(t)
	op := &operator{level: 100}

	f.handler.Handle(op, "//questadmin reload")
	assert.Equal(t, 1, f.reloader.calls)
	assert.Equal(t, "Reloaded 3 quests, 1 problems", op.replies[0])

	op.replies = nil
	f.handler.Handle(op, "//questadmin daily reroll")
	assert.Equal(t, []string{"digger"}, f.daily.QuestIDs())
	assert.Equal(t, "Daily quests: digger", op.replies[0])

	f.reloader.err = errors.New("disk gone")
	op.replies = nil
	f.handler.Handle(op, "//questadmin reload")
	assert.Contains(t, op.replies[0], "previous content kept")
}

func TestQuestAdmin_PermissionsPerSubcommand(t *testing.T) {
	f := newFixture(t)
	mod := &operator{level: 1}

	for _, line := range []string{
		"//questadmin grant steve miner",
		"//questadmin reset steve",
		"//questadmin reload",
		"//questadmin daily reroll",
	} {
		mod.replies = nil
		f.handler.Handle(mod, line)
		require.NotEmpty(t, mod.replies, line)
		assert.Contains(t, mod.replies[0], "requires", line)
	}
	assert.Nil(t, f.store.Get(f.steve, "miner"))
	assert.Zero(t, f.reloader.calls)

	gm := &operator{level: 2}
	f.handler.Handle(gm, "//questadmin reload")
	assert.Contains(t, gm.replies[0], "administrator")
}

func TestQuestAdmin_Usage(t *testing.T) {
	f := newFixture(t)
	op := &operator{level: 100}

	for _, line := range []string{"//questadmin", "//questadmin frobnicate", "//questadmin grant steve", "//questadmin daily"} {
		op.replies = nil
		f.handler.Handle(op, line)
		require.NotEmpty(t, op.replies, line)
		assert.Contains(t, op.replies[0], "usage", line)
	}
}

func TestQuestsUserCommand(t *testing.T) {
	f := newFixture(t)
	f.daily.Reroll(true)
	require.NoError(t, f.engine.StartQuest(f.steve, "mason"))

	op := &operator{player: f.steve}
	require.True(t, f.handler.Handle(op, "/quests"))
	require.Len(t, op.replies, 2)
	assert.Equal(t, "Active quest: mason", op.replies[0])
	assert.Contains(t, op.replies[1], "digger")
}

func TestSuggest(t *testing.T) {
	pool := []string{"gather_wood", "gather_stone", "hunter", "explorer"}
	assert.Equal(t, "gather_wood", suggest("gthrwood", pool)[0])
	assert.Empty(t, suggest("zzz", pool))
	assert.LessOrEqual(t, len(suggest("e", pool)), maxSuggestions)
}
