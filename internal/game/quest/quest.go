// Package quest implements the quest progression core: quest definitions and
// their catalog, criteria matching, per-player progress, the progress engine
// and the daily rotation scheduler.
//
// Every mutating call is expected to run on the owning world's processing
// loop; the package does not serialize callers itself beyond keeping its
// shared structures race-free.
package quest

import "strings"

// Quest type tags.
const (
	TypeNormal = "normal"
	TypeDaily  = "daily"
)

// Category groups quests for filtering and UI tabs.
type Category byte

const (
	CategoryAll Category = iota
	CategoryLife
	CategoryExplore
	CategoryCombat
	CategoryOther
)

// ParseCategory maps a record value to a Category.
// Unknown or empty values map to CategoryOther.
func ParseCategory(s string) Category {
	switch strings.ToLower(s) {
	case "all":
		return CategoryAll
	case "life":
		return CategoryLife
	case "explore":
		return CategoryExplore
	case "combat":
		return CategoryCombat
	default:
		return CategoryOther
	}
}

func (c Category) String() string {
	switch c {
	case CategoryAll:
		return "all"
	case CategoryLife:
		return "life"
	case CategoryExplore:
		return "explore"
	case CategoryCombat:
		return "combat"
	default:
		return "other"
	}
}

// LogicOp combines the criteria of an objective.
type LogicOp byte

const (
	LogicAnd LogicOp = iota
	LogicOr
)

func (l LogicOp) String() string {
	if l == LogicOr {
		return "OR"
	}
	return "AND"
}

// CriteriaType is the closed set of measurable conditions.
type CriteriaType byte

const (
	CriteriaItemAcquired CriteriaType = iota
	CriteriaItemCrafted
	CriteriaBlockBroken
	CriteriaEntityKilled
	CriteriaLocationReached
	CriteriaCustomEvent

	criteriaTypeCount
)

var criteriaTypeNames = [criteriaTypeCount]string{
	CriteriaItemAcquired:    "item_acquired",
	CriteriaItemCrafted:     "item_crafted",
	CriteriaBlockBroken:     "block_broken",
	CriteriaEntityKilled:    "entity_killed",
	CriteriaLocationReached: "location_reached",
	CriteriaCustomEvent:     "custom_event",
}

// ParseCriteriaType maps a record value to a CriteriaType.
func ParseCriteriaType(s string) (CriteriaType, bool) {
	s = strings.ToLower(s)
	for i, name := range criteriaTypeNames {
		if name == s {
			return CriteriaType(i), true
		}
	}
	return 0, false
}

// Valid reports whether t belongs to the closed criteria set.
func (t CriteriaType) Valid() bool { return t < criteriaTypeCount }

func (t CriteriaType) String() string {
	if !t.Valid() {
		return "unknown"
	}
	return criteriaTypeNames[t]
}

// RewardType selects how a reward is applied in the game world.
type RewardType byte

const (
	RewardItem RewardType = iota
	RewardExperience
	RewardEffect
	RewardCommand
	RewardAdvancement
)

// ParseRewardType maps a record value to a RewardType.
func ParseRewardType(s string) (RewardType, bool) {
	switch strings.ToLower(s) {
	case "item":
		return RewardItem, true
	case "xp", "experience":
		return RewardExperience, true
	case "effect":
		return RewardEffect, true
	case "command":
		return RewardCommand, true
	case "advancement":
		return RewardAdvancement, true
	default:
		return 0, false
	}
}

func (t RewardType) String() string {
	switch t {
	case RewardItem:
		return "item"
	case RewardExperience:
		return "experience"
	case RewardEffect:
		return "effect"
	case RewardCommand:
		return "command"
	case RewardAdvancement:
		return "advancement"
	default:
		return "unknown"
	}
}

// Criteria is one measurable condition inside an objective.
// Empty target strings and nil bounds are wildcards.
type Criteria struct {
	Type   CriteriaType
	Item   string
	Block  string
	Entity string
	Count  int

	// Location filters.
	Dimension string
	Biome     string
	YMin      *float64
	YMax      *float64
	X, Y, Z   float64
	Radius    float64
}

// Objective groups criteria combined by a logic operator.
type Objective struct {
	ID       string
	Logic    LogicOp
	Criteria []Criteria
}

// Reward is granted once when a quest completes.
type Reward struct {
	Type        RewardType
	Item        string
	Count       int
	Amount      int
	Effect      string
	Duration    int
	Amplifier   int
	Command     string
	Advancement string
}

// Definition is an immutable quest definition loaded from the config source.
type Definition struct {
	ID             string
	TitleKey       string
	DescriptionKey string
	Category       Category
	Type           string
	Repeatable     bool
	Prerequisites  []string
	Objectives     []Objective
	Rewards        []Reward
}

// IsDaily reports whether the quest belongs to the daily rotation pool.
func (d *Definition) IsDaily() bool { return d.Type == TypeDaily }

// CriteriaTypes returns the deduplicated criteria types referenced by any
// objective, in first-seen order.
func (d *Definition) CriteriaTypes() []CriteriaType {
	var seen [criteriaTypeCount]bool
	types := make([]CriteriaType, 0, 2)
	for _, obj := range d.Objectives {
		for _, c := range obj.Criteria {
			if !c.Type.Valid() || seen[c.Type] {
				continue
			}
			seen[c.Type] = true
			types = append(types, c.Type)
		}
	}
	return types
}
