package quest

// Event carries one gameplay occurrence reported by the game world.
type Event struct {
	Type   CriteriaType
	Target string // item/block/entity id, custom event name
	Count  int

	Dimension string
	Biome     string
	X, Y, Z   float64
}

// Evaluate scores an event against a criteria and returns the progress
// increment (0 means no match).
//
// The criteria set is closed, so matching is a static switch per kind.
func Evaluate(c *Criteria, ev *Event) int {
	if c == nil || ev == nil || c.Type != ev.Type {
		return 0
	}
	switch c.Type {
	case CriteriaItemAcquired, CriteriaItemCrafted, CriteriaBlockBroken, CriteriaEntityKilled:
		return matchTarget(c, ev)
	case CriteriaLocationReached:
		return matchLocation(c, ev)
	case CriteriaCustomEvent:
		return normalizeCount(ev.Count)
	default:
		return 0
	}
}

func matchTarget(c *Criteria, ev *Event) int {
	if c.Item != "" && c.Item != ev.Target {
		return 0
	}
	if c.Block != "" && c.Block != ev.Target {
		return 0
	}
	if c.Entity != "" && c.Entity != ev.Target {
		return 0
	}
	return normalizeCount(ev.Count)
}

// matchLocation is binary: reaching the place once is enough.
func matchLocation(c *Criteria, ev *Event) int {
	if c.Dimension != "" && c.Dimension != ev.Dimension {
		return 0
	}
	if c.Biome != "" && c.Biome != ev.Biome {
		return 0
	}
	if c.YMin != nil && ev.Y < *c.YMin {
		return 0
	}
	if c.YMax != nil && ev.Y > *c.YMax {
		return 0
	}
	if c.Radius <= 0 {
		return 1
	}
	dx := c.X - ev.X
	dy := c.Y - ev.Y
	dz := c.Z - ev.Z
	if dx*dx+dy*dy+dz*dz <= c.Radius*c.Radius {
		return 1
	}
	return 0
}

func normalizeCount(n int) int {
	return max(1, n)
}

// objectiveComplete applies the objective's logic operator to its counters.
// An objective without criteria is trivially complete.
func objectiveComplete(obj *Objective, counts []int) bool {
	if len(obj.Criteria) == 0 {
		return true
	}
	if obj.Logic == LogicOr {
		for i := range obj.Criteria {
			if i < len(counts) && counts[i] >= obj.Criteria[i].Count {
				return true
			}
		}
		return false
	}
	for i := range obj.Criteria {
		if i >= len(counts) || counts[i] < obj.Criteria[i].Count {
			return false
		}
	}
	return true
}
