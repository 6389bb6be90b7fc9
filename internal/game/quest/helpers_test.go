package quest

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// memSource serves records from memory.
type memSource struct {
	records []Record
	err     error
}

func (s *memSource) Records() ([]Record, error) { return s.records, s.err }

func jsonRecord(path, body string) Record {
	return Record{Path: path, Data: []byte(body)}
}

func dailyRecord(path, body string) Record {
	return Record{Path: path, Data: []byte(body), Daily: true}
}

func loadCatalog(t *testing.T, records ...Record) *Catalog {
	t.Helper()
	c := NewCatalog()
	_, err := c.Load(&memSource{records: records})
	require.NoError(t, err)
	return c
}

// recordingNotifier captures sync messages.
type recordingNotifier struct {
	fulls  []*FullSync
	deltas []*DeltaSync
}

func (n *recordingNotifier) SendFull(_ uuid.UUID, s *FullSync)   { n.fulls = append(n.fulls, s) }
func (n *recordingNotifier) SendDelta(_ uuid.UUID, s *DeltaSync) { n.deltas = append(n.deltas, s) }

func (n *recordingNotifier) lastDelta(t *testing.T) *DeltaSync {
	t.Helper()
	require.NotEmpty(t, n.deltas)
	return n.deltas[len(n.deltas)-1]
}

func (n *recordingNotifier) reset() {
	n.fulls = nil
	n.deltas = nil
}

// recordingDispatcher counts applied rewards.
type recordingDispatcher struct {
	applied []Reward
	err     error
	panics  bool
}

func (d *recordingDispatcher) Apply(_ uuid.UUID, _ string, r Reward) error {
	if d.panics {
		panic("reward backend exploded")
	}
	d.applied = append(d.applied, r)
	return d.err
}

var errRewardBackend = errors.New("reward backend down")

type engineFixture struct {
	engine   *Engine
	store    *ProgressStore
	catalog  *Catalog
	notifier *recordingNotifier
	rewards  *recordingDispatcher
	player   uuid.UUID
}

var fixedNow = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func newEngineFixture(t *testing.T, records ...Record) *engineFixture {
	t.Helper()
	f := &engineFixture{
		store:    NewProgressStore(),
		catalog:  loadCatalog(t, records...),
		notifier: &recordingNotifier{},
		rewards:  &recordingDispatcher{},
		player:   uuid.New(),
	}
	f.engine = NewEngine(f.catalog, f.store, nil, f.rewards, f.notifier)
	f.engine.SetClock(func() time.Time { return fixedNow })
	f.store.Attach(f.player, nil)
	return f
}

const woodQuest = `{
  "id": "gather_wood",
  "title_key": "quest.gather_wood.title",
  "description_key": "quest.gather_wood.desc",
  "category": "life",
  "objectives": [{
    "id": "logs",
    "criteria": [{"type": "item_acquired", "item": "minecraft:oak_log", "count": 5}]
  }],
  "rewards": [{"type": "xp", "amount": 50}]
}`

const hunterQuest = `{
  "id": "hunter",
  "title_key": "quest.hunter.title",
  "description_key": "quest.hunter.desc",
  "category": "combat",
  "objectives": [{
    "id": "kills",
    "logic": "OR",
    "criteria": [
      {"type": "entity_killed", "entity": "minecraft:zombie", "count": 3},
      {"type": "entity_killed", "entity": "minecraft:skeleton", "count": 2}
    ]
  }],
  "rewards": [{"type": "item", "item": "minecraft:bow"}]
}`

const explorerQuest = `{
  "id": "explorer",
  "title_key": "quest.explorer.title",
  "description_key": "quest.explorer.desc",
  "category": "explore",
  "repeatable": true,
  "prerequisites": ["gather_wood"],
  "objectives": [{
    "id": "visit",
    "criteria": [{"type": "location_reached", "dimension": "minecraft:overworld", "x": 0, "y": 64, "z": 0, "radius": 10}]
  }]
}`
