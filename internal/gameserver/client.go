package gameserver

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Default write queue / timeout constants.
// Overridden by config values when available.
const (
	defaultSendQueueSize = 256
	defaultWriteTimeout  = 5 * time.Second
	defaultReadTimeout   = 120 * time.Second
)

// Conn is the write side of a websocket connection.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Packet is a serializable server packet.
type Packet interface {
	Write() ([]byte, error)
}

// GameClient represents a single client connection to the quest server.
type GameClient struct {
	conn Conn
	ip   string

	state atomic.Int32

	// mu guards the identity fields, set once by Hello.
	mu          sync.Mutex
	playerID    uuid.UUID
	name        string
	adminName   string
	accessLevel int32

	// Per-client write queue
	sendCh    chan []byte
	closeCh   chan struct{}
	closeOnce sync.Once

	writeTimeout time.Duration
}

// NewGameClient creates a new client state for the given connection.
func NewGameClient(conn Conn, ip string, sendQueueSize int, writeTimeout time.Duration) *GameClient {
	if sendQueueSize <= 0 {
		sendQueueSize = defaultSendQueueSize
	}
	if writeTimeout <= 0 {
		writeTimeout = defaultWriteTimeout
	}

	client := &GameClient{
		conn:         conn,
		ip:           ip,
		sendCh:       make(chan []byte, sendQueueSize),
		closeCh:      make(chan struct{}),
		writeTimeout: writeTimeout,
	}
	client.state.Store(int32(ClientStateConnected))
	return client
}

// IP returns the client's remote IP address.
func (c *GameClient) IP() string {
	return c.ip
}

// State returns the current connection state.
func (c *GameClient) State() ClientConnectionState {
	return ClientConnectionState(c.state.Load())
}

// SetState sets the connection state.
func (c *GameClient) SetState(s ClientConnectionState) {
	c.state.Store(int32(s))
}

// SetIdentity binds the connection to a player.
func (c *GameClient) SetIdentity(playerID uuid.UUID, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playerID = playerID
	c.name = name
}

// SetAdmin records the admin account and access level granted by token.
func (c *GameClient) SetAdmin(account string, level int32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.adminName = account
	c.accessLevel = level
}

// PlayerID returns the bound player (uuid.Nil before Hello).
func (c *GameClient) PlayerID() uuid.UUID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playerID
}

// Name returns the player name.
func (c *GameClient) Name() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.name
}

// AccessLevel returns the admin access level (0 for players).
func (c *GameClient) AccessLevel() int32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessLevel
}

// writePump is a dedicated writer goroutine for this client.
// Reads packets from sendCh and writes each as one binary message.
func (c *GameClient) writePump() {
	for {
		select {
		case pkt, ok := <-c.sendCh:
			if !ok {
				return
			}

			if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
				slog.Warn("set write deadline failed", "client", c.ip, "error", err)
				return
			}
			if err := c.conn.WriteMessage(websocket.BinaryMessage, pkt); err != nil {
				slog.Warn("write failed", "client", c.ip, "error", err)
				c.CloseAsync()
				return
			}

		case <-c.closeCh:
			return
		}
	}
}

// Send queues a serialized packet for async delivery.
// Non-blocking: returns error if queue is full (slow client → disconnect).
func (c *GameClient) Send(pkt []byte) error {
	select {
	case <-c.closeCh:
		return fmt.Errorf("client closed")
	default:
	}

	select {
	case c.sendCh <- pkt:
		return nil
	default:
		slog.Warn("send queue full, disconnecting slow client", "client", c.ip)
		c.CloseAsync()
		return fmt.Errorf("send queue full")
	}
}

// SendPacket serializes p and queues it.
func (c *GameClient) SendPacket(p Packet) error {
	data, err := p.Write()
	if err != nil {
		return fmt.Errorf("serializing packet: %w", err)
	}
	return c.Send(data)
}

// Done is closed once the client starts shutting down.
func (c *GameClient) Done() <-chan struct{} {
	return c.closeCh
}

// CloseAsync signals the writePump to stop without blocking.
// Safe to call multiple times.
func (c *GameClient) CloseAsync() {
	c.closeOnce.Do(func() {
		c.state.Store(int32(ClientStateDisconnected))
		close(c.closeCh)
	})
}

// Close closes the connection and stops the writePump.
func (c *GameClient) Close() error {
	c.CloseAsync()
	return c.conn.Close()
}
