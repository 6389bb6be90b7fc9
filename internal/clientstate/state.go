// Package clientstate keeps the quest view of a connected client, built from
// QuestSync packets.
package clientstate

import (
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/udisondev/questd/internal/game/quest"
	"github.com/udisondev/questd/internal/gameserver/serverpackets"
)

// NotificationTTL is how long a non-NONE notification stays visible.
const NotificationTTL = 5 * time.Second

// Notification is the currently displayed quest notification.
type Notification struct {
	QuestID string
	Kind    quest.Notification
}

// State is the client-side replica of one player's quests.
// Thread-safe for concurrent access.
type State struct {
	mu          sync.RWMutex
	definitions map[string]serverpackets.SyncDefinition
	progress    map[string]*quest.Progress
	daily       []string
	active      string

	notification Notification
	expiresAt    time.Time
}

// New creates an empty state.
func New() *State {
	return &State{
		definitions: make(map[string]serverpackets.SyncDefinition),
		progress:    make(map[string]*quest.Progress),
	}
}

// ApplySync applies a sync packet received at now. FULL replaces everything;
// DELTA upserts the entries it carries.
func (s *State) ApplySync(pkt *serverpackets.QuestSync, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if pkt.Type == serverpackets.SyncFull {
		clear(s.definitions)
		clear(s.progress)
		s.daily = slices.Clone(pkt.DailyIDs)
	} else if len(pkt.DailyIDs) > 0 {
		s.daily = slices.Clone(pkt.DailyIDs)
	}

	for _, d := range pkt.Definitions {
		s.definitions[d.Def.ID] = d
	}
	for _, p := range pkt.Progress {
		s.progress[p.QuestID] = p
	}
	s.active = pkt.ActiveQuestID

	if pkt.Notification != quest.NotifyNone {
		s.notification = Notification{QuestID: pkt.NotificationQuestID, Kind: pkt.Notification}
		s.expiresAt = now.Add(NotificationTTL)
	}
}

// Definition returns the localized definition of questID.
func (s *State) Definition(questID string) (serverpackets.SyncDefinition, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.definitions[questID]
	return d, ok
}

// Progress returns the progress record of questID, or nil.
func (s *State) Progress(questID string) *quest.Progress {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.progress[questID]
}

// QuestIDs returns every known quest id, sorted.
func (s *State) QuestIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.definitions))
}

// DailyIDs returns the current daily quest ids.
func (s *State) DailyIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.daily)
}

// ActiveQuestID returns the active quest id, empty when none.
func (s *State) ActiveQuestID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// Notification returns the notification visible at now. Expired
// notifications are cleared.
func (s *State) Notification(now time.Time) (Notification, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.notification.Kind == quest.NotifyNone {
		return Notification{}, false
	}
	if now.After(s.expiresAt) {
		s.notification = Notification{}
		return Notification{}, false
	}
	return s.notification, true
}
