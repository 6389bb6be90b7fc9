package clientpackets

import (
	"fmt"
	"strings"

	"github.com/udisondev/questd/internal/gameserver/packet"
)

const OpcodeAdminCommand = 0x06

// AdminCommand carries a "//"-prefixed admin command line.
//
// Structure:
// - string: command text
type AdminCommand struct {
	Command string
}

// ParseAdminCommand parses an AdminCommand packet from the given data (without opcode).
func ParseAdminCommand(data []byte) (*AdminCommand, error) {
	text, err := packet.NewReader(data).ReadString()
	if err != nil {
		return nil, fmt.Errorf("reading command: %w", err)
	}
	return &AdminCommand{Command: strings.TrimSpace(text)}, nil
}

// Write serializes the packet with its opcode.
func (p *AdminCommand) Write() []byte {
	w := packet.NewWriter(3 + len(p.Command)*2)
	_ = w.WriteByte(OpcodeAdminCommand)
	w.WriteString(p.Command)
	return w.Bytes()
}
