package serverpackets

import (
	"fmt"

	"github.com/udisondev/questd/internal/gameserver/packet"
)

// OpcodeAdminMessage is the server packet opcode for admin command replies.
const OpcodeAdminMessage = 0x03

// AdminMessage is a text reply to an admin command (S2C 0x03).
type AdminMessage struct {
	Text string
}

// Write serializes AdminMessage packet to bytes.
func (p AdminMessage) Write() ([]byte, error) {
	w := packet.NewWriter(1 + len(p.Text)*2 + 2)
	_ = w.WriteByte(OpcodeAdminMessage)
	w.WriteString(p.Text)
	return w.Bytes(), nil
}

// ParseAdminMessage decodes an AdminMessage packet from data (without opcode).
func ParseAdminMessage(data []byte) (*AdminMessage, error) {
	text, err := packet.NewReader(data).ReadString()
	if err != nil {
		return nil, fmt.Errorf("reading text: %w", err)
	}
	return &AdminMessage{Text: text}, nil
}
