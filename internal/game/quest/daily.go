package quest

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultDailyCount is the number of quests in one daily rotation.
const DefaultDailyCount = 3

// DailyRepository persists the daily selection of a world.
// Implemented in the db package.
type DailyRepository interface {
	// LoadDaily returns (nil, nil) when nothing has been stored yet.
	LoadDaily(ctx context.Context, worldID string) (*DailySelection, error)
	SaveDaily(ctx context.Context, worldID string, sel *DailySelection) error
}

// DailySelection is the persisted daily rotation.
type DailySelection struct {
	Date     string // "2006-01-02", reroll-boundary adjusted
	QuestIDs []string
}

// Shuffler is the random source used for daily selection.
// *rand.Rand satisfies it.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

// DailyConfig configures a DailyScheduler.
type DailyConfig struct {
	RerollHour int            // 0-23
	Count      int            // quests per rotation, 0 means DefaultDailyCount
	Location   *time.Location // nil means time.Local
}

// DailyScheduler picks the daily quest subset once per boundary-adjusted day.
// Thread-safe for concurrent access.
type DailyScheduler struct {
	mu      sync.Mutex
	catalog *Catalog
	cfg     DailyConfig
	rng     Shuffler
	now     func() time.Time

	sel   DailySelection
	dirty bool
}

// NewDailyScheduler creates a scheduler. A nil rng uses an unseeded PCG source.
func NewDailyScheduler(catalog *Catalog, cfg DailyConfig, rng Shuffler) *DailyScheduler {
	cfg.RerollHour = min(max(cfg.RerollHour, 0), 23)
	if cfg.Count <= 0 {
		cfg.Count = DefaultDailyCount
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &DailyScheduler{
		catalog: catalog,
		cfg:     cfg,
		rng:     rng,
		now:     time.Now,
	}
}

// SetClock replaces the time source.
func (d *DailyScheduler) SetClock(now func() time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.now = now
}

// RollDate returns the calendar date of now in loc, shifted back one day
// before rerollHour.
func RollDate(now time.Time, rerollHour int, loc *time.Location) string {
	if loc != nil {
		now = now.In(loc)
	}
	if now.Hour() < rerollHour {
		now = now.AddDate(0, 0, -1)
	}
	return now.Format(time.DateOnly)
}

// Restore installs a selection loaded from storage. It is not marked dirty.
func (d *DailyScheduler) Restore(sel *DailySelection) {
	if sel == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sel = DailySelection{Date: sel.Date, QuestIDs: slices.Clone(sel.QuestIDs)}
}

// Selection returns a copy of the current selection.
func (d *DailyScheduler) Selection() DailySelection {
	d.mu.Lock()
	defer d.mu.Unlock()
	return DailySelection{Date: d.sel.Date, QuestIDs: slices.Clone(d.sel.QuestIDs)}
}

// QuestIDs returns the current daily quest ids.
func (d *DailyScheduler) QuestIDs() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.sel.QuestIDs)
}

// EnsureSelection rerolls only when the stored date is stale.
// Reports whether a new selection was made.
func (d *DailyScheduler) EnsureSelection() bool {
	return d.Reroll(false)
}

// Reroll draws a new selection. Without force it is a no-op while the stored
// date equals the current roll date.
func (d *DailyScheduler) Reroll(force bool) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	date := RollDate(d.now(), d.cfg.RerollHour, d.cfg.Location)
	if !force && date == d.sel.Date {
		return false
	}

	pool := d.catalog.Daily()
	ids := make([]string, len(pool))
	for i, def := range pool {
		ids[i] = def.ID
	}
	d.rng.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })

	d.sel = DailySelection{
		Date:     date,
		QuestIDs: ids[:min(d.cfg.Count, len(ids))],
	}
	d.dirty = true

	slog.Info("daily quests selected",
		"date", date,
		"count", len(d.sel.QuestIDs),
		"candidates", len(pool),
		"forced", force)
	return true
}

// TakeDirty returns the selection if it changed since the last call and
// clears the dirty flag.
func (d *DailyScheduler) TakeDirty() (*DailySelection, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.dirty {
		return nil, false
	}
	d.dirty = false
	return &DailySelection{Date: d.sel.Date, QuestIDs: slices.Clone(d.sel.QuestIDs)}, true
}

// MarkDirty flags the selection for the next save.
func (d *DailyScheduler) MarkDirty() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dirty = true
}

// Schedule registers a cron job at minute 0 of the reroll hour.
// The job hands the rollover to submit, which must run it on the world loop;
// onRoll is invoked there after a new selection was made.
func (d *DailyScheduler) Schedule(c *cron.Cron, submit func(func()), onRoll func()) (cron.EntryID, error) {
	spec := fmt.Sprintf("CRON_TZ=%s 0 %d * * *", d.cfg.Location.String(), d.cfg.RerollHour)
	id, err := c.AddFunc(spec, func() {
		submit(func() {
			if d.EnsureSelection() && onRoll != nil {
				onRoll()
			}
		})
	})
	if err != nil {
		return 0, fmt.Errorf("scheduling daily reroll %q: %w", spec, err)
	}
	return id, nil
}
