package clientpackets

import (
	"fmt"

	"github.com/udisondev/questd/internal/gameserver/packet"
)

const OpcodeQuestStart = 0x01

// QuestStart makes a quest the player's active quest.
//
// Structure:
// - string: quest id
type QuestStart struct {
	QuestID string
}

// ParseQuestStart parses a QuestStart packet from the given data (without opcode).
func ParseQuestStart(data []byte) (*QuestStart, error) {
	id, err := readQuestID(data)
	if err != nil {
		return nil, err
	}
	return &QuestStart{QuestID: id}, nil
}

// Write serializes the packet with its opcode.
func (p *QuestStart) Write() []byte {
	return writeQuestID(OpcodeQuestStart, p.QuestID)
}

func readQuestID(data []byte) (string, error) {
	id, err := packet.NewReader(data).ReadString()
	if err != nil {
		return "", fmt.Errorf("reading quest id: %w", err)
	}
	if id == "" {
		return "", fmt.Errorf("quest id must not be empty")
	}
	return id, nil
}

func writeQuestID(opcode byte, id string) []byte {
	w := packet.NewWriter(3 + len(id)*2)
	_ = w.WriteByte(opcode)
	w.WriteString(id)
	return w.Bytes()
}
