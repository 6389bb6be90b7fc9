package quest

import (
	"slices"
	"sort"
	"time"
)

// ObjectiveProgress holds one counter per criteria of an objective.
type ObjectiveProgress struct {
	ID        string
	Counts    []int
	Completed bool
}

// Progress tracks a single player's progress in a specific quest.
type Progress struct {
	QuestID        string
	Objectives     map[string]*ObjectiveProgress
	Completed      bool
	RewardsGranted bool
	CompletedAt    time.Time
}

// NewProgress creates an empty progress record for a quest.
func NewProgress(questID string) *Progress {
	return &Progress{
		QuestID:    questID,
		Objectives: make(map[string]*ObjectiveProgress, 2),
	}
}

// Objective returns the progress entry for obj, creating it if absent.
// Counters are resized to the objective's criteria list and re-clamped, so
// records written against an older definition stay consistent after a reload.
func (p *Progress) Objective(obj *Objective) *ObjectiveProgress {
	op, ok := p.Objectives[obj.ID]
	if !ok {
		op = &ObjectiveProgress{ID: obj.ID, Counts: make([]int, len(obj.Criteria))}
		p.Objectives[obj.ID] = op
		return op
	}
	if len(op.Counts) != len(obj.Criteria) {
		counts := make([]int, len(obj.Criteria))
		copy(counts, op.Counts)
		op.Counts = counts
	}
	for i := range op.Counts {
		op.Counts[i] = min(max(op.Counts[i], 0), obj.Criteria[i].Count)
	}
	return op
}

// ObjectiveIDs returns objective ids in ascending order.
func (p *Progress) ObjectiveIDs() []string {
	ids := make([]string, 0, len(p.Objectives))
	for id := range p.Objectives {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Clone returns a deep copy safe to hand to another goroutine.
func (p *Progress) Clone() *Progress {
	c := &Progress{
		QuestID:        p.QuestID,
		Objectives:     make(map[string]*ObjectiveProgress, len(p.Objectives)),
		Completed:      p.Completed,
		RewardsGranted: p.RewardsGranted,
		CompletedAt:    p.CompletedAt,
	}
	for id, op := range p.Objectives {
		c.Objectives[id] = &ObjectiveProgress{
			ID:        op.ID,
			Counts:    slices.Clone(op.Counts),
			Completed: op.Completed,
		}
	}
	return c
}

// markCompleted records completion at millisecond precision, the
// resolution of the wire format and both stores.
func (p *Progress) markCompleted(now time.Time) {
	p.Completed = true
	p.CompletedAt = now.UTC().Truncate(time.Millisecond)
}

// allObjectivesComplete checks every objective of def against p.
func (p *Progress) allObjectivesComplete(def *Definition) bool {
	for i := range def.Objectives {
		if !p.Objective(&def.Objectives[i]).Completed {
			return false
		}
	}
	return true
}
