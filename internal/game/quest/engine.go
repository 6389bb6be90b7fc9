package quest

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Notification tags a delta sync for client-side feedback.
type Notification byte

const (
	NotifyNone Notification = iota
	NotifyUpdated
	NotifyCompleted
)

func (n Notification) String() string {
	switch n {
	case NotifyUpdated:
		return "updated"
	case NotifyCompleted:
		return "completed"
	default:
		return "none"
	}
}

// FullSync replaces the client's entire quest view.
type FullSync struct {
	Definitions   []*Definition
	Progress      []*Progress
	DailyIDs      []string
	ActiveQuestID string
}

// DeltaSync upserts a single quest on the client.
type DeltaSync struct {
	Definition    *Definition
	Progress      *Progress
	ActiveQuestID string
	Notification  Notification
}

// Notifier delivers sync messages to a player's client.
// Implementations must not block the caller.
type Notifier interface {
	SendFull(playerID uuid.UUID, s *FullSync)
	SendDelta(playerID uuid.UUID, s *DeltaSync)
}

// Engine applies gameplay events and player/admin actions to quest progress.
//
// Engine is not safe for concurrent use: every call for a world must come
// from that world's processing loop.
type Engine struct {
	catalog  *Catalog
	store    *ProgressStore
	daily    *DailyScheduler
	rewards  RewardDispatcher
	notifier Notifier
	now      func() time.Time
}

// NewEngine creates a progress engine. daily and rewards may be nil.
func NewEngine(catalog *Catalog, store *ProgressStore, daily *DailyScheduler, rewards RewardDispatcher, notifier Notifier) *Engine {
	return &Engine{
		catalog:  catalog,
		store:    store,
		daily:    daily,
		rewards:  rewards,
		notifier: notifier,
		now:      time.Now,
	}
}

// SetClock replaces the completion timestamp source.
func (e *Engine) SetClock(now func() time.Time) { e.now = now }

// Catalog returns the catalog the engine reads definitions from.
func (e *Engine) Catalog() *Catalog { return e.catalog }

// Store returns the backing progress store.
func (e *Engine) Store() *ProgressStore { return e.store }

// HandleEvent advances the player's active quest with a gameplay event.
// Events for players that are not attached are dropped.
func (e *Engine) HandleEvent(playerID uuid.UUID, ev Event) {
	if !e.store.Loaded(playerID) {
		slog.Debug("dropping event for unloaded player",
			"playerID", playerID,
			"eventType", ev.Type)
		return
	}
	active := e.store.Active(playerID)
	if active == "" {
		return
	}

	for _, def := range e.catalog.ByCriteriaType(ev.Type) {
		if def.ID != active {
			continue
		}
		e.advance(playerID, def, &ev)
	}
}

func (e *Engine) advance(playerID uuid.UUID, def *Definition, ev *Event) {
	p := e.store.GetOrCreate(playerID, def.ID)
	if p == nil {
		return
	}
	if p.Completed && !def.Repeatable {
		return
	}

	changed := false
	for i := range def.Objectives {
		obj := &def.Objectives[i]
		op := p.Objective(obj)
		if op.Completed {
			continue
		}
		for j := range obj.Criteria {
			inc := Evaluate(&obj.Criteria[j], ev)
			if inc <= 0 {
				continue
			}
			updated := min(obj.Criteria[j].Count, op.Counts[j]+inc)
			if updated != op.Counts[j] {
				op.Counts[j] = updated
				changed = true
			}
		}
		if objectiveComplete(obj, op.Counts) {
			op.Completed = true
			changed = true
		}
	}
	if !changed {
		return
	}
	e.store.MarkDirty(playerID)

	if !p.Completed && p.allObjectivesComplete(def) {
		e.complete(playerID, def, p)
		return
	}
	e.sendDelta(playerID, def, p, NotifyUpdated)
}

// complete marks p completed, clears the active marker and grants rewards once.
func (e *Engine) complete(playerID uuid.UUID, def *Definition, p *Progress) {
	if !p.Completed {
		p.markCompleted(e.now())
	}
	if e.store.Active(playerID) == def.ID {
		e.store.SetActive(playerID, "")
	}
	if !p.RewardsGranted {
		dispatchRewards(e.rewards, playerID, def)
		p.RewardsGranted = true
	}
	e.store.MarkDirty(playerID)

	slog.Info("quest completed",
		"playerID", playerID,
		"questID", def.ID)

	e.sendDelta(playerID, def, p, NotifyCompleted)
}

// StartQuest makes questID the player's single active quest.
// A different active quest is abandoned and its progress discarded.
func (e *Engine) StartQuest(playerID uuid.UUID, questID string) error {
	if !e.store.Loaded(playerID) {
		return ErrPlayerNotLoaded
	}
	def, ok := e.catalog.Get(questID)
	if !ok {
		return fmt.Errorf("starting quest %q: %w", questID, ErrQuestNotFound)
	}

	p := e.store.Get(playerID, def.ID)
	if p != nil && p.Completed && !def.Repeatable {
		return nil
	}
	if err := e.checkUnlocked(playerID, def); err != nil {
		return err
	}
	switch {
	case p == nil:
		p = e.store.GetOrCreate(playerID, def.ID)
	case p.Completed:
		p = NewProgress(def.ID)
		e.store.Put(playerID, p)
	}

	active := e.store.Active(playerID)
	switched := active != "" && active != def.ID
	if switched {
		e.store.Remove(playerID, active)
		slog.Debug("quest abandoned",
			"playerID", playerID,
			"questID", active)
	}
	e.store.SetActive(playerID, def.ID)

	if switched {
		e.SyncFull(playerID)
		return nil
	}
	e.sendDelta(playerID, def, p, NotifyNone)
	return nil
}

// StopQuest abandons questID if it is the active quest.
func (e *Engine) StopQuest(playerID uuid.UUID, questID string) {
	if questID == "" || e.store.Active(playerID) != questID {
		return
	}
	if _, ok := e.catalog.Get(questID); !ok {
		return
	}
	e.store.Remove(playerID, questID)
	e.store.SetActive(playerID, "")
	e.SyncFull(playerID)
}

// GrantQuest force-completes questID. Rewards are granted only if they
// have not been granted for the current record.
func (e *Engine) GrantQuest(playerID uuid.UUID, questID string) error {
	if !e.store.Loaded(playerID) {
		return ErrPlayerNotLoaded
	}
	def, ok := e.catalog.Get(questID)
	if !ok {
		return fmt.Errorf("granting quest %q: %w", questID, ErrQuestNotFound)
	}
	p := e.store.GetOrCreate(playerID, def.ID)
	for i := range def.Objectives {
		obj := &def.Objectives[i]
		op := p.Objective(obj)
		for j := range obj.Criteria {
			op.Counts[j] = obj.Criteria[j].Count
		}
		op.Completed = true
	}
	e.complete(playerID, def, p)
	return nil
}

// GrantAll force-completes every quest in the catalog in id order.
func (e *Engine) GrantAll(playerID uuid.UUID) error {
	for _, def := range e.catalog.All() {
		if err := e.GrantQuest(playerID, def.ID); err != nil {
			return err
		}
	}
	return nil
}

// ResetQuest removes the record of questID, or every record when questID
// is empty, and resyncs the player.
func (e *Engine) ResetQuest(playerID uuid.UUID, questID string) error {
	if !e.store.Loaded(playerID) {
		return ErrPlayerNotLoaded
	}
	if questID == "" {
		e.store.RemoveAll(playerID)
	} else {
		e.store.Remove(playerID, questID)
		if e.store.Active(playerID) == questID {
			e.store.SetActive(playerID, "")
		}
	}
	e.SyncFull(playerID)
	return nil
}

// Unlocked reports whether every prerequisite of def is completed by the player.
func (e *Engine) Unlocked(playerID uuid.UUID, def *Definition) bool {
	return e.checkUnlocked(playerID, def) == nil
}

func (e *Engine) checkUnlocked(playerID uuid.UUID, def *Definition) error {
	for _, pre := range def.Prerequisites {
		if _, ok := e.catalog.Get(pre); !ok {
			return fmt.Errorf("quest %s prerequisite %q: %w: %w", def.ID, pre, ErrQuestLocked, ErrMissingReference)
		}
		p := e.store.Get(playerID, pre)
		if p == nil || !p.Completed {
			return fmt.Errorf("quest %s requires %q: %w", def.ID, pre, ErrQuestLocked)
		}
	}
	return nil
}

// SyncFull sends the player's complete quest view.
func (e *Engine) SyncFull(playerID uuid.UUID) {
	if e.notifier == nil || !e.store.Loaded(playerID) {
		return
	}
	progress := e.store.All(playerID)
	for i, p := range progress {
		progress[i] = p.Clone()
	}
	var daily []string
	if e.daily != nil {
		daily = e.daily.QuestIDs()
	}
	e.notifier.SendFull(playerID, &FullSync{
		Definitions:   slices.Clone(e.catalog.All()),
		Progress:      progress,
		DailyIDs:      daily,
		ActiveQuestID: e.store.Active(playerID),
	})
}

// SyncAll sends a full sync to every attached player.
func (e *Engine) SyncAll() {
	for _, id := range e.store.Players() {
		e.SyncFull(id)
	}
}

func (e *Engine) sendDelta(playerID uuid.UUID, def *Definition, p *Progress, n Notification) {
	if e.notifier == nil {
		return
	}
	e.notifier.SendDelta(playerID, &DeltaSync{
		Definition:    def,
		Progress:      p.Clone(),
		ActiveQuestID: e.store.Active(playerID),
		Notification:  n,
	})
}
