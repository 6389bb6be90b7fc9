package quest

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// ProgressRepository defines the interface for durable player progress.
// Implemented in the db package.
type ProgressRepository interface {
	LoadPlayer(ctx context.Context, playerID uuid.UUID) (*PlayerSnapshot, error)
	// SavePlayer replaces every stored record of the player in one transaction.
	SavePlayer(ctx context.Context, snap *PlayerSnapshot) error
}

// PlayerSnapshot is a detached copy of one player's quest state.
type PlayerSnapshot struct {
	PlayerID      uuid.UUID
	ActiveQuestID string
	Quests        []*Progress // sorted by quest id
}

type playerRecord struct {
	active string
	quests map[string]*Progress
	dirty  bool
}

// ProgressStore keeps the quest state of attached players in memory and
// tracks which players need to be written back.
// Thread-safe for concurrent access.
type ProgressStore struct {
	mu      sync.RWMutex
	players map[uuid.UUID]*playerRecord
}

// NewProgressStore creates an empty store.
func NewProgressStore() *ProgressStore {
	return &ProgressStore{
		players: make(map[uuid.UUID]*playerRecord, 256),
	}
}

// Attach installs a loaded snapshot. A nil snapshot attaches an empty player.
func (s *ProgressStore) Attach(playerID uuid.UUID, snap *PlayerSnapshot) {
	rec := &playerRecord{quests: make(map[string]*Progress, 8)}
	if snap != nil {
		rec.active = snap.ActiveQuestID
		for _, p := range snap.Quests {
			rec.quests[p.QuestID] = p.Clone()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.players[playerID] = rec
}

// Detach removes the player and returns its final snapshot.
func (s *ProgressStore) Detach(playerID uuid.UUID) (*PlayerSnapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.players[playerID]
	if !ok {
		return nil, false
	}
	delete(s.players, playerID)
	return rec.snapshot(playerID), true
}

// Loaded reports whether the player is attached.
func (s *ProgressStore) Loaded(playerID uuid.UUID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.players[playerID]
	return ok
}

// Players returns the ids of every attached player.
func (s *ProgressStore) Players() []uuid.UUID {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]uuid.UUID, 0, len(s.players))
	for id := range s.players {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

// Get returns the progress record of a quest, or nil.
// The returned record is owned by the store; callers on the world loop may
// mutate it and must call MarkDirty afterwards.
func (s *ProgressStore) Get(playerID uuid.UUID, questID string) *Progress {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.players[playerID]
	if !ok {
		return nil
	}
	return rec.quests[questID]
}

// GetOrCreate returns the record of a quest, creating an empty one if absent.
// Returns nil if the player is not attached.
func (s *ProgressStore) GetOrCreate(playerID uuid.UUID, questID string) *Progress {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.players[playerID]
	if !ok {
		return nil
	}
	p, ok := rec.quests[questID]
	if !ok {
		p = NewProgress(questID)
		rec.quests[questID] = p
		rec.dirty = true
	}
	return p
}

// Put stores p, replacing any previous record of the same quest.
func (s *ProgressStore) Put(playerID uuid.UUID, p *Progress) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.players[playerID]
	if !ok {
		return false
	}
	rec.quests[p.QuestID] = p
	rec.dirty = true
	return true
}

// Remove deletes one quest record.
func (s *ProgressStore) Remove(playerID uuid.UUID, questID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.players[playerID]
	if !ok {
		return
	}
	if _, exists := rec.quests[questID]; exists {
		delete(rec.quests, questID)
		rec.dirty = true
	}
}

// RemoveAll deletes every quest record and the active marker.
func (s *ProgressStore) RemoveAll(playerID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.players[playerID]
	if !ok {
		return
	}
	clear(rec.quests)
	rec.active = ""
	rec.dirty = true
}

// Active returns the active quest id ("" when none).
func (s *ProgressStore) Active(playerID uuid.UUID) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if rec, ok := s.players[playerID]; ok {
		return rec.active
	}
	return ""
}

// SetActive sets the active quest id; "" clears it.
func (s *ProgressStore) SetActive(playerID uuid.UUID, questID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.players[playerID]
	if !ok || rec.active == questID {
		return
	}
	rec.active = questID
	rec.dirty = true
}

// All returns the player's records sorted by quest id.
func (s *ProgressStore) All(playerID uuid.UUID) []*Progress {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.players[playerID]
	if !ok {
		return nil
	}
	return rec.sorted()
}

// MarkDirty flags the player for the next save.
func (s *ProgressStore) MarkDirty(playerID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.players[playerID]; ok {
		rec.dirty = true
	}
}

// Snapshot returns a detached copy of the player's state.
func (s *ProgressStore) Snapshot(playerID uuid.UUID) (*PlayerSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.players[playerID]
	if !ok {
		return nil, false
	}
	return rec.snapshot(playerID), true
}

// DirtySnapshots returns snapshots of every dirty player and clears their
// dirty flags. Callers re-mark players whose save failed.
func (s *ProgressStore) DirtySnapshots() []*PlayerSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	var snaps []*PlayerSnapshot
	for id, rec := range s.players {
		if !rec.dirty {
			continue
		}
		snaps = append(snaps, rec.snapshot(id))
		rec.dirty = false
	}
	return snaps
}

func (r *playerRecord) sorted() []*Progress {
	out := make([]*Progress, 0, len(r.quests))
	for _, p := range r.quests {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestID < out[j].QuestID })
	return out
}

func (r *playerRecord) snapshot(id uuid.UUID) *PlayerSnapshot {
	quests := r.sorted()
	for i, p := range quests {
		quests[i] = p.Clone()
	}
	return &PlayerSnapshot{
		PlayerID:      id,
		ActiveQuestID: r.active,
		Quests:        quests,
	}
}
