package clientpackets

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/udisondev/questd/internal/gameserver/packet"
)

const OpcodeHello = 0x00

// Hello is the first packet of every session. It binds the connection to a
// player and optionally presents an admin token.
//
// Structure:
// - 16 bytes: player uuid
// - string: player name
// - string: locale (e.g. "en_us", may be empty)
// - string: admin token (empty for regular players)
type Hello struct {
	PlayerID   uuid.UUID
	Name       string
	Locale     string
	AdminToken string
}

// ParseHello parses a Hello packet from the given data (without opcode).
func ParseHello(data []byte) (*Hello, error) {
	r := packet.NewReader(data)
	p := &Hello{}
	var err error

	if p.PlayerID, err = r.ReadUUID(); err != nil {
		return nil, fmt.Errorf("reading player id: %w", err)
	}
	if p.PlayerID == uuid.Nil {
		return nil, fmt.Errorf("player id must not be nil")
	}
	if p.Name, err = r.ReadString(); err != nil {
		return nil, fmt.Errorf("reading name: %w", err)
	}
	if p.Locale, err = r.ReadString(); err != nil {
		return nil, fmt.Errorf("reading locale: %w", err)
	}
	if p.AdminToken, err = r.ReadString(); err != nil {
		return nil, fmt.Errorf("reading admin token: %w", err)
	}
	return p, nil
}

// Write serializes the packet with its opcode.
func (p *Hello) Write() []byte {
	w := packet.NewWriter(64)
	_ = w.WriteByte(OpcodeHello)
	w.WriteUUID(p.PlayerID)
	w.WriteString(p.Name)
	w.WriteString(p.Locale)
	w.WriteString(p.AdminToken)
	return w.Bytes()
}
