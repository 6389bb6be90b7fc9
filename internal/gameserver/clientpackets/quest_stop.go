package clientpackets

const OpcodeQuestStop = 0x02

// QuestStop abandons the active quest. Stopping any other quest is ignored.
//
// Structure:
// - string: quest id
type QuestStop struct {
	QuestID string
}

// ParseQuestStop parses a QuestStop packet from the given data (without opcode).
func ParseQuestStop(data []byte) (*QuestStop, error) {
	id, err := readQuestID(data)
	if err != nil {
		return nil, err
	}
	return &QuestStop{QuestID: id}, nil
}

// Write serializes the packet with its opcode.
func (p *QuestStop) Write() []byte {
	return writeQuestID(OpcodeQuestStop, p.QuestID)
}
