package clientpackets

import (
	"fmt"

	"github.com/udisondev/questd/internal/gameserver/packet"
)

const OpcodeClientLocale = 0x04

// ClientLocale reports a change of the client's language setting.
//
// Structure:
// - string: locale
type ClientLocale struct {
	Locale string
}

// ParseClientLocale parses a ClientLocale packet from the given data (without opcode).
func ParseClientLocale(data []byte) (*ClientLocale, error) {
	loc, err := packet.NewReader(data).ReadString()
	if err != nil {
		return nil, fmt.Errorf("reading locale: %w", err)
	}
	return &ClientLocale{Locale: loc}, nil
}

// Write serializes the packet with its opcode.
func (p *ClientLocale) Write() []byte {
	w := packet.NewWriter(3 + len(p.Locale)*2)
	_ = w.WriteByte(OpcodeClientLocale)
	w.WriteString(p.Locale)
	return w.Bytes()
}
