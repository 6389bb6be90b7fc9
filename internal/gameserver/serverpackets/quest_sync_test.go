package serverpackets

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/questd/internal/game/quest"
)

func sampleDefinition(id string) SyncDefinition {
	yMin := -64.0
	return SyncDefinition{
		Def: &quest.Definition{
			ID:             id,
			TitleKey:       "quest." + id + ".title",
			DescriptionKey: "quest." + id + ".desc",
			Category:       quest.CategoryExplore,
			Type:           quest.TypeDaily,
			Repeatable:     true,
			Prerequisites:  []string{"gather_wood"},
			Objectives: []quest.Objective{
				{
					ID:    "reach",
					Logic: quest.LogicOr,
					Criteria: []quest.Criteria{
						{Type: quest.CriteriaLocationReached, Count: 1, Dimension: "minecraft:overworld", Biome: "desert", YMin: &yMin, X: 10, Y: 64, Z: -20, Radius: 8},
						{Type: quest.CriteriaEntityKilled, Entity: "minecraft:husk", Count: 3},
					},
				},
			},
			Rewards: []quest.Reward{
				{Type: quest.RewardItem, Item: "minecraft:diamond", Count: 2},
				{Type: quest.RewardEffect, Effect: "minecraft:speed", Duration: 600, Amplifier: 1},
			},
		},
		Title:       "Desert Run",
		Description: "Сходи в пустыню",
	}
}

func sampleProgress(id string, done bool) *quest.Progress {
	p := quest.NewProgress(id)
	p.Objectives["reach"] = &quest.ObjectiveProgress{ID: "reach", Counts: []int{1, 2}, Completed: done}
	if done {
		p.Completed = true
		p.RewardsGranted = true
		p.CompletedAt = time.Date(2026, 5, 10, 8, 15, 0, 123_000_000, time.UTC)
	}
	return p
}

func TestQuestSync_FullRoundTrip(t *testing.T) {
	in := &QuestSync{
		Type:          SyncFull,
		Definitions:   []SyncDefinition{sampleDefinition("desert_run"), sampleDefinition("night_walk")},
		Progress:      []*quest.Progress{sampleProgress("desert_run", true), sampleProgress("night_walk", false)},
		DailyIDs:      []string{"desert_run", "night_walk"},
		ActiveQuestID: "night_walk",
	}

	data, err := in.Write()
	require.NoError(t, err)
	assert.Equal(t, byte(OpcodeQuestSync), data[0])
	assert.Zero(t, data[1]&FlagCompressed, "compression disabled by default")

	out, err := ParseQuestSync(data[1:])
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestQuestSync_DeltaRoundTrip(t *testing.T) {
	in := &QuestSync{
		Type:                SyncDelta,
		Definitions:         []SyncDefinition{sampleDefinition("desert_run")},
		Progress:            []*quest.Progress{sampleProgress("desert_run", true)},
		DailyIDs:            []string{},
		NotificationQuestID: "desert_run",
		Notification:        quest.NotifyCompleted,
		CompressThreshold:   1,
	}

	data, err := in.Write()
	require.NoError(t, err)
	assert.Zero(t, data[1]&FlagCompressed, "deltas are never compressed")

	out, err := ParseQuestSync(data[1:])
	require.NoError(t, err)
	in.CompressThreshold = 0
	assert.Equal(t, in, out)
}

func TestQuestSync_CompressedFull(t *testing.T) {
	in := &QuestSync{Type: SyncFull, DailyIDs: []string{}, CompressThreshold: 256}
	for i := range 40 {
		id := fmt.Sprintf("quest_%02d", i)
		in.Definitions = append(in.Definitions, sampleDefinition(id))
		in.Progress = append(in.Progress, sampleProgress(id, i%2 == 0))
	}

	plain := *in
	plain.CompressThreshold = 0
	raw, err := plain.Write()
	require.NoError(t, err)

	data, err := in.Write()
	require.NoError(t, err)
	assert.Equal(t, byte(FlagCompressed), data[1]&FlagCompressed)
	assert.Less(t, len(data), len(raw))

	out, err := ParseQuestSync(data[1:])
	require.NoError(t, err)
	assert.Equal(t, &plain, out)
}

func TestParseQuestSync_Errors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"no body", []byte{0x00}},
		{"bad sync type", []byte{0x00, 0x07}},
		{"truncated count", []byte{0x00, 0x00, 0x01, 0x00}},
		{"corrupt zstd", []byte{FlagCompressed, 0xDE, 0xAD, 0xBE, 0xEF}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseQuestSync(tt.data)
			assert.Error(t, err)
		})
	}
}

func TestRewardGrant_RoundTrip(t *testing.T) {
	in := &RewardGrant{
		PlayerID: uuid.New(),
		QuestID:  "gather_wood",
		Reward:   quest.Reward{Type: quest.RewardCommand, Command: "give {player} minecraft:apple 3"},
	}
	data, err := in.Write()
	require.NoError(t, err)
	assert.Equal(t, byte(OpcodeRewardGrant), data[0])

	out, err := ParseRewardGrant(data[1:])
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestAdminMessage_RoundTrip(t *testing.T) {
	data, err := AdminMessage{Text: "reloaded 12 quests"}.Write()
	require.NoError(t, err)
	assert.Equal(t, byte(OpcodeAdminMessage), data[0])

	out, err := ParseAdminMessage(data[1:])
	require.NoError(t, err)
	assert.Equal(t, "reloaded 12 quests", out.Text)
}
