package quest

import (
	"fmt"
	"log/slog"
	"sort"
	"sync/atomic"
)

// Catalog holds the immutable set of loaded definitions plus an index from
// criteria type to the definitions that reference it.
//
// Readers always observe a complete snapshot: Load builds a new one and swaps
// it in atomically.
type Catalog struct {
	snap    atomic.Pointer[catalogSnapshot]
	version atomic.Uint64
}

type catalogSnapshot struct {
	byID    map[string]*Definition
	index   [criteriaTypeCount][]*Definition
	all     []*Definition // sorted by id
	daily   []*Definition // sorted by id
	version uint64
}

// LoadReport summarizes one catalog load.
type LoadReport struct {
	Loaded int
	Errors []error // *ParseError and ErrMissingReference, one per problem
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	c := &Catalog{}
	c.snap.Store(&catalogSnapshot{byID: map[string]*Definition{}})
	return c
}

// Load replaces the catalog contents with every definition src yields.
// Invalid records are reported and skipped; duplicate ids keep the last record.
// If src cannot be listed at all the previous contents stay in place.
func (c *Catalog) Load(src Source) (*LoadReport, error) {
	records, err := src.Records()
	if err != nil {
		return nil, fmt.Errorf("listing quest records: %w", err)
	}

	report := &LoadReport{}
	byID := make(map[string]*Definition, len(records))
	for _, rec := range records {
		def, err := ParseDefinition(rec)
		if err != nil {
			slog.Warn("skipping quest record", "path", rec.Path, "error", err)
			report.Errors = append(report.Errors, err)
			continue
		}
		if _, dup := byID[def.ID]; dup {
			slog.Warn("duplicate quest id, last record wins", "questID", def.ID, "path", rec.Path)
		}
		byID[def.ID] = def
	}

	snap := &catalogSnapshot{
		byID:    byID,
		all:     make([]*Definition, 0, len(byID)),
		version: c.version.Add(1),
	}
	for _, def := range byID {
		snap.all = append(snap.all, def)
	}
	sort.Slice(snap.all, func(i, j int) bool { return snap.all[i].ID < snap.all[j].ID })

	for _, def := range snap.all {
		if def.IsDaily() {
			snap.daily = append(snap.daily, def)
		}
		for _, t := range def.CriteriaTypes() {
			snap.index[t] = append(snap.index[t], def)
		}
		for _, pre := range def.Prerequisites {
			if _, ok := byID[pre]; !ok {
				slog.Warn("quest references unknown prerequisite",
					"questID", def.ID,
					"prerequisite", pre)
				report.Errors = append(report.Errors,
					fmt.Errorf("quest %s prerequisite %q: %w", def.ID, pre, ErrMissingReference))
			}
		}
	}

	report.Loaded = len(snap.all)
	c.snap.Store(snap)

	slog.Info("quest catalog loaded",
		"quests", report.Loaded,
		"daily", len(snap.daily),
		"errors", len(report.Errors),
		"version", snap.version)

	return report, nil
}

// Get returns a definition by id.
func (c *Catalog) Get(id string) (*Definition, bool) {
	def, ok := c.snap.Load().byID[id]
	return def, ok
}

// ByCriteriaType returns the definitions having at least one criteria of type t.
// The returned slice is shared and must not be modified.
func (c *Catalog) ByCriteriaType(t CriteriaType) []*Definition {
	if !t.Valid() {
		return nil
	}
	return c.snap.Load().index[t]
}

// All returns every definition sorted by id.
func (c *Catalog) All() []*Definition {
	return c.snap.Load().all
}

// Daily returns the daily rotation candidates sorted by id.
func (c *Catalog) Daily() []*Definition {
	return c.snap.Load().daily
}

// IDs returns every quest id in ascending order.
func (c *Catalog) IDs() []string {
	all := c.All()
	ids := make([]string, len(all))
	for i, def := range all {
		ids[i] = def.ID
	}
	return ids
}

// Len returns the number of loaded definitions.
func (c *Catalog) Len() int { return len(c.snap.Load().all) }

// Version increases on every successful Load.
func (c *Catalog) Version() uint64 { return c.snap.Load().version }
