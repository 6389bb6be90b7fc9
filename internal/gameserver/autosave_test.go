package gameserver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/questd/internal/game/quest"
)

func (f *fixture) attachDirty(t *testing.T, id uuid.UUID, active string) {
	t.Helper()
	require.NoError(t, f.world.Do(context.Background(), func() {
		f.store.Attach(id, &quest.PlayerSnapshot{PlayerID: id})
		f.store.GetOrCreate(id, active)
		f.store.SetActive(id, active)
		f.store.MarkDirty(id)
	}))
}

func TestAutosaver_SaveDirty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := uuid.New()
	f.attachDirty(t, id, "wood")
	require.NoError(t, f.world.Do(ctx, func() { f.daily.Reroll(true) }))

	require.NoError(t, f.autosaver.SaveDirty(ctx))
	snap, ok := f.repo.stored(id)
	require.True(t, ok)
	assert.Equal(t, "wood", snap.ActiveQuestID)

	sel, err := f.dailyRepo.LoadDaily(ctx, "overworld")
	require.NoError(t, err)
	require.NotNil(t, sel)
	assert.Equal(t, f.daily.Selection().Date, sel.Date)

	// Nothing changed since: no new writes.
	saves := f.repo.saves
	require.NoError(t, f.autosaver.SaveDirty(ctx))
	assert.Equal(t, saves, f.repo.saves)
}

func TestAutosaver_FailedSaveIsRetried(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := uuid.New()
	f.attachDirty(t, id, "wood")

	errDown := errors.New("database down")
	f.repo.setSaveErr(errDown)
	f.dailyRepo.saveErr = errDown
	require.NoError(t, f.world.Do(ctx, func() { f.daily.Reroll(true) }))

	err := f.autosaver.SaveDirty(ctx)
	require.ErrorIs(t, err, errDown)

	f.repo.setSaveErr(nil)
	f.dailyRepo.saveErr = nil
	require.NoError(t, f.autosaver.SaveDirty(ctx))

	_, ok := f.repo.stored(id)
	assert.True(t, ok, "player re-marked dirty after failure")
	sel, _ := f.dailyRepo.LoadDaily(ctx, "overworld")
	assert.NotNil(t, sel, "daily re-marked dirty after failure")
}

func TestAutosaver_PendingSnapshots(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := uuid.New()
	snap := &quest.PlayerSnapshot{PlayerID: id, ActiveQuestID: "wood"}

	f.repo.setSaveErr(errors.New("timeout"))
	pending := f.autosaver.BeginLogout(id)
	require.Error(t, f.autosaver.EndLogout(ctx, id, pending, snap))

	f.repo.setSaveErr(nil)
	require.NoError(t, f.autosaver.SaveDirty(ctx))
	stored, ok := f.repo.stored(id)
	require.True(t, ok)
	assert.Same(t, snap, stored)

	_, ok, err := f.autosaver.TakePending(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok, "saved snapshot is no longer pending")
}

func TestAutosaver_TakePendingWaitsForLogout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := uuid.New()
	snap := &quest.PlayerSnapshot{PlayerID: id, ActiveQuestID: "wood"}

	release := f.repo.holdSaves()
	pending := f.autosaver.BeginLogout(id)
	saved := make(chan error, 1)
	go func() { saved <- f.autosaver.EndLogout(ctx, id, pending, snap) }()

	shortCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, _, err := f.autosaver.TakePending(shortCtx, id)
	require.ErrorIs(t, err, context.DeadlineExceeded, "logout still saving")

	release()
	got, ok, err := f.autosaver.TakePending(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok, "the save reached storage")
	assert.Nil(t, got)
	require.NoError(t, <-saved)

	stored, ok := f.repo.stored(id)
	require.True(t, ok)
	assert.Equal(t, "wood", stored.ActiveQuestID)
}

func TestAutosaver_KeepIsRetried(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := uuid.New()
	snap := &quest.PlayerSnapshot{PlayerID: id, ActiveQuestID: "stone"}

	f.autosaver.Keep(snap)
	require.NoError(t, f.autosaver.SaveDirty(ctx))
	stored, ok := f.repo.stored(id)
	require.True(t, ok)
	assert.Same(t, snap, stored)
}

func TestAutosaver_FlushAfterStop(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()
	f.attachDirty(t, id, "stone")

	require.NoError(t, f.autosaver.Flush(context.Background()))
	snap, ok := f.repo.stored(id)
	require.True(t, ok)
	assert.Equal(t, "stone", snap.ActiveQuestID)
}
