package gameserver

// ClientConnectionState represents the state machine for a client connection.
type ClientConnectionState int32

const (
	ClientStateConnected    ClientConnectionState = iota // socket open, waiting for Hello
	ClientStateEntering                                  // Hello accepted, progress loading
	ClientStateInGame                                    // player attached to the world
	ClientStateDisconnected                              // connection closed
)

func (s ClientConnectionState) String() string {
	switch s {
	case ClientStateConnected:
		return "CONNECTED"
	case ClientStateEntering:
		return "ENTERING"
	case ClientStateInGame:
		return "IN_GAME"
	case ClientStateDisconnected:
		return "DISCONNECTED"
	default:
		return "UNKNOWN"
	}
}
