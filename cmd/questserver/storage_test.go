package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/questd/internal/config"
	"github.com/udisondev/questd/internal/game/quest"
)

func TestOpenStorage_SQLite(t *testing.T) {
	cfg := config.DefaultQuestServer()
	cfg.Storage.SQLitePath = filepath.Join(t.TempDir(), "data", "quests.sqlite")

	s, err := openStorage(context.Background(), cfg)
	require.NoError(t, err)
	defer s.close()

	ctx := context.Background()
	id := uuid.New()
	require.NoError(t, s.progress.SavePlayer(ctx, &quest.PlayerSnapshot{PlayerID: id, ActiveQuestID: "wood"}))
	snap, err := s.progress.LoadPlayer(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "wood", snap.ActiveQuestID)

	sel, err := s.daily.LoadDaily(ctx, cfg.WorldID)
	require.NoError(t, err)
	assert.Nil(t, sel)
}

func TestOpenStorage_UnknownDriver(t *testing.T) {
	cfg := config.DefaultQuestServer()
	cfg.Storage.Driver = "mongo"
	_, err := openStorage(context.Background(), cfg)
	assert.Error(t, err)
}
