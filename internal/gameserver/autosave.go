package gameserver

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/udisondev/questd/internal/game/quest"
)

const defaultAutosaveInterval = 30 * time.Second

// Autosaver persists dirty progress and the daily selection.
//
// Dirty state is collected on the world loop; repository writes happen on
// the caller's goroutine. Failed writes are re-marked dirty, and failed
// saves of detached players are kept as pending until a retry succeeds.
type Autosaver struct {
	world     *World
	store     *quest.ProgressStore
	daily     *quest.DailyScheduler
	progress  quest.ProgressRepository
	dailyRepo quest.DailyRepository
	interval  time.Duration

	// saveMu orders logout saves and pending retries of the same player.
	saveMu sync.Mutex

	mu      sync.Mutex
	pending map[uuid.UUID]*PendingLogout
}

// PendingLogout tracks one player's final save. done is closed once the
// save finished; snap stays set while it has not reached storage.
type PendingLogout struct {
	snap *quest.PlayerSnapshot
	done chan struct{}
}

// NewAutosaver creates an autosaver. daily and dailyRepo may be nil.
func NewAutosaver(world *World, store *quest.ProgressStore, daily *quest.DailyScheduler, progress quest.ProgressRepository, dailyRepo quest.DailyRepository, interval time.Duration) *Autosaver {
	if interval <= 0 {
		interval = defaultAutosaveInterval
	}
	return &Autosaver{
		world:     world,
		store:     store,
		daily:     daily,
		progress:  progress,
		dailyRepo: dailyRepo,
		interval:  interval,
		pending:   make(map[uuid.UUID]*PendingLogout),
	}
}

// Run saves dirty state every interval until ctx is cancelled.
func (a *Autosaver) Run(ctx context.Context) error {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := a.SaveDirty(ctx); err != nil && !errors.Is(err, ErrWorldStopped) {
				slog.Error("autosave failed", "error", err)
			}
		}
	}
}

// SaveDirty collects dirty state on the world loop and writes it.
func (a *Autosaver) SaveDirty(ctx context.Context) error {
	var (
		snaps []*quest.PlayerSnapshot
		sel   *quest.DailySelection
	)
	err := a.world.Do(ctx, func() {
		snaps = a.store.DirtySnapshots()
		if a.daily != nil {
			sel, _ = a.daily.TakeDirty()
		}
	})
	if err != nil {
		return err
	}
	return a.write(ctx, snaps, sel, true)
}

// Flush writes everything still dirty. Call it only after the world loop
// has stopped.
func (a *Autosaver) Flush(ctx context.Context) error {
	snaps := a.store.DirtySnapshots()
	var sel *quest.DailySelection
	if a.daily != nil {
		sel, _ = a.daily.TakeDirty()
	}
	return a.write(ctx, snaps, sel, false)
}

func (a *Autosaver) write(ctx context.Context, snaps []*quest.PlayerSnapshot, sel *quest.DailySelection, remark bool) error {
	var (
		errs   []error
		failed []uuid.UUID
		saved  int
	)
	for _, snap := range snaps {
		if err := a.progress.SavePlayer(ctx, snap); err != nil {
			errs = append(errs, err)
			failed = append(failed, snap.PlayerID)
			continue
		}
		saved++
	}
	saved += a.retryPending(ctx)

	if sel != nil && a.dailyRepo != nil {
		if err := a.dailyRepo.SaveDaily(ctx, a.world.ID(), sel); err != nil {
			errs = append(errs, err)
			a.daily.MarkDirty()
		}
	}

	if len(failed) > 0 && remark {
		a.world.Submit(func() {
			for _, id := range failed {
				a.store.MarkDirty(id)
			}
		})
	}
	if saved > 0 || len(errs) > 0 {
		slog.Debug("autosave",
			"world", a.world.ID(),
			"saved", saved,
			"failed", len(errs))
	}
	return errors.Join(errs...)
}

// BeginLogout marks playerID as logging out. Call it before the session is
// unregistered, so a reconnect waits in TakePending until EndLogout.
func (a *Autosaver) BeginLogout(playerID uuid.UUID) *PendingLogout {
	l := &PendingLogout{done: make(chan struct{})}
	a.mu.Lock()
	a.pending[playerID] = l
	a.mu.Unlock()
	return l
}

// EndLogout writes the detached snapshot, if any, and releases waiters.
// On failure the snapshot stays pending and is retried with the next
// autosave.
func (a *Autosaver) EndLogout(ctx context.Context, playerID uuid.UUID, l *PendingLogout, snap *quest.PlayerSnapshot) error {
	defer close(l.done)

	var err error
	if snap != nil {
		a.saveMu.Lock()
		err = a.progress.SavePlayer(ctx, snap)
		a.saveMu.Unlock()
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if err != nil {
		l.snap = snap
		return err
	}
	if a.pending[playerID] == l {
		delete(a.pending, playerID)
	}
	return nil
}

// Keep stores snap as an unsaved snapshot of its player.
func (a *Autosaver) Keep(snap *quest.PlayerSnapshot) {
	l := &PendingLogout{snap: snap, done: make(chan struct{})}
	close(l.done)
	a.mu.Lock()
	a.pending[snap.PlayerID] = l
	a.mu.Unlock()
}

// TakePending waits for an in-flight logout of playerID and returns its
// snapshot if the save did not reach storage. A reconnecting player resumes
// from it instead of stale storage.
func (a *Autosaver) TakePending(ctx context.Context, playerID uuid.UUID) (*quest.PlayerSnapshot, bool, error) {
	a.mu.Lock()
	l, ok := a.pending[playerID]
	a.mu.Unlock()
	if !ok {
		return nil, false, nil
	}

	select {
	case <-l.done:
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.pending[playerID] != l || l.snap == nil {
		return nil, false, nil
	}
	delete(a.pending, playerID)
	return l.snap, true, nil
}

func (a *Autosaver) retryPending(ctx context.Context) int {
	a.mu.Lock()
	retry := make(map[uuid.UUID]*PendingLogout, len(a.pending))
	for id, l := range a.pending {
		if l.snap != nil {
			retry[id] = l
		}
	}
	a.mu.Unlock()

	saved := 0
	for id, l := range retry {
		if a.retryOne(ctx, id, l) {
			saved++
		}
	}
	return saved
}

func (a *Autosaver) retryOne(ctx context.Context, playerID uuid.UUID, l *PendingLogout) bool {
	a.saveMu.Lock()
	defer a.saveMu.Unlock()

	a.mu.Lock()
	current := a.pending[playerID] == l
	a.mu.Unlock()
	if !current {
		return false
	}

	if err := a.progress.SavePlayer(ctx, l.snap); err != nil {
		slog.Warn("pending save failed", "playerID", playerID, "error", err)
		return false
	}
	a.mu.Lock()
	if a.pending[playerID] == l {
		delete(a.pending, playerID)
	}
	a.mu.Unlock()
	return true
}
