package clientpackets

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/questd/internal/game/quest"
)

func TestParseHello(t *testing.T) {
	in := &Hello{PlayerID: uuid.New(), Name: "Steve", Locale: "de_de", AdminToken: "s3cret"}
	data := in.Write()
	require.Equal(t, byte(OpcodeHello), data[0])

	out, err := ParseHello(data[1:])
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestParseHello_NilPlayer(t *testing.T) {
	data := (&Hello{Name: "ghost"}).Write()
	_, err := ParseHello(data[1:])
	assert.Error(t, err)
}

func TestParseQuestStartStop(t *testing.T) {
	start := (&QuestStart{QuestID: "gather_wood"}).Write()
	require.Equal(t, byte(OpcodeQuestStart), start[0])
	s, err := ParseQuestStart(start[1:])
	require.NoError(t, err)
	assert.Equal(t, "gather_wood", s.QuestID)

	stop := (&QuestStop{QuestID: "hunter"}).Write()
	require.Equal(t, byte(OpcodeQuestStop), stop[0])
	st, err := ParseQuestStop(stop[1:])
	require.NoError(t, err)
	assert.Equal(t, "hunter", st.QuestID)

	_, err = ParseQuestStart((&QuestStart{}).Write()[1:])
	assert.Error(t, err, "empty quest id")
}

func TestParseGameplayEvent(t *testing.T) {
	in := &GameplayEvent{Event: quest.Event{
		Type:      quest.CriteriaLocationReached,
		Count:     1,
		Dimension: "minecraft:the_nether",
		Biome:     "basalt_deltas",
		X:         -120.5, Y: 70, Z: 33.25,
	}}
	data := in.Write()
	require.Equal(t, byte(OpcodeGameplayEvent), data[0])

	out, err := ParseGameplayEvent(data[1:])
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestParseGameplayEvent_Rejects(t *testing.T) {
	bad := (&GameplayEvent{Event: quest.Event{Type: quest.CriteriaType(42)}}).Write()
	_, err := ParseGameplayEvent(bad[1:])
	assert.Error(t, err, "unknown criteria type")

	neg := (&GameplayEvent{Event: quest.Event{Type: quest.CriteriaItemAcquired, Count: -3}}).Write()
	_, err = ParseGameplayEvent(neg[1:])
	assert.Error(t, err, "negative count")

	_, err = ParseGameplayEvent([]byte{byte(quest.CriteriaBlockBroken)})
	assert.Error(t, err, "truncated")
}

func TestParseClientLocaleAndAdminCommand(t *testing.T) {
	loc, err := ParseClientLocale((&ClientLocale{Locale: "ru_ru"}).Write()[1:])
	require.NoError(t, err)
	assert.Equal(t, "ru_ru", loc.Locale)

	cmd, err := ParseAdminCommand((&AdminCommand{Command: "  //questadmin list \n"}).Write()[1:])
	require.NoError(t, err)
	assert.Equal(t, "//questadmin list", cmd.Command)

	assert.Equal(t, []byte{OpcodeQuestSyncRequest}, QuestSyncRequest{}.Write())
}
