package gameserver

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/questd/internal/gameserver/serverpackets"
)

func TestGameClient_SendDeliversInOrder(t *testing.T) {
	conn := &fakeConn{}
	client := NewGameClient(conn, "10.0.0.1", 8, time.Second)
	go client.writePump()
	defer client.Close()

	require.NoError(t, client.Send([]byte{1}))
	require.NoError(t, client.SendPacket(serverpackets.AdminMessage{Text: "hi"}))

	msgs := waitMessages(t, conn, 2)
	assert.Equal(t, []byte{1}, msgs[0])
	assert.Equal(t, "hi", decodeAdminMessage(t, msgs[1]))
}

func TestGameClient_FullQueueDisconnects(t *testing.T) {
	conn := &fakeConn{}
	// No writePump: the queue never drains.
	client := NewGameClient(conn, "10.0.0.1", 2, time.Second)

	require.NoError(t, client.Send([]byte{1}))
	require.NoError(t, client.Send([]byte{2}))
	require.Error(t, client.Send([]byte{3}))

	assert.Equal(t, ClientStateDisconnected, client.State())
	select {
	case <-client.Done():
	default:
		t.Fatal("client not closed")
	}
	assert.Error(t, client.Send([]byte{4}), "closed client rejects sends")
}

func TestGameClient_WriteErrorCloses(t *testing.T) {
	conn := &fakeConn{writeErr: errors.New("broken pipe")}
	client := NewGameClient(conn, "10.0.0.1", 0, 0)
	go client.writePump()

	require.NoError(t, client.Send([]byte{1}))
	require.Eventually(t, func() bool { return client.State() == ClientStateDisconnected },
		time.Second, 5*time.Millisecond)
}

func TestGameClient_Identity(t *testing.T) {
	client := NewGameClient(&fakeConn{}, "10.0.0.1", 0, 0)
	id := uuid.New()

	client.SetIdentity(id, "Alex")
	client.SetAdmin("root", 100)

	assert.Equal(t, id, client.PlayerID())
	assert.Equal(t, "Alex", client.Name())
	assert.Equal(t, int32(100), client.AccessLevel())
	assert.Equal(t, ClientStateConnected, client.State())
	assert.Equal(t, "CONNECTED", client.State().String())
}

func TestGameClient_CloseIsIdempotent(t *testing.T) {
	conn := &fakeConn{}
	client := NewGameClient(conn, "10.0.0.1", 0, 0)
	require.NoError(t, client.Close())
	require.NoError(t, client.Close())
	assert.True(t, conn.isClosed())
}

func TestClientManager(t *testing.T) {
	cm := NewClientManager()
	a := NewGameClient(&fakeConn{}, "a", 0, 0)
	a.SetIdentity(uuid.New(), "Alex")
	b := NewGameClient(&fakeConn{}, "b", 0, 0)
	b.SetIdentity(uuid.New(), "steve")

	require.True(t, cm.Register(a.PlayerID(), a))
	require.True(t, cm.Register(b.PlayerID(), b))
	assert.False(t, cm.Register(a.PlayerID(), b), "occupied slot")
	assert.Equal(t, 2, cm.Count())

	assert.Same(t, b, cm.FindByName("STEVE"))
	assert.Nil(t, cm.FindByName("notch"))
	assert.Equal(t, []string{"Alex", "steve"}, cm.Names())

	assert.False(t, cm.Unregister(a.PlayerID(), b), "only the registered client is removed")
	assert.True(t, cm.Unregister(a.PlayerID(), a))
	assert.Nil(t, cm.GetClient(a.PlayerID()))

	visited := 0
	cm.ForEachClient(func(*GameClient) bool { visited++; return true })
	assert.Equal(t, 1, visited)
}
