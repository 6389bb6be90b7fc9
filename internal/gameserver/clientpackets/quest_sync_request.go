package clientpackets

const OpcodeQuestSyncRequest = 0x03

// QuestSyncRequest asks for a FULL sync. No payload.
type QuestSyncRequest struct{}

// Write serializes the packet with its opcode.
func (QuestSyncRequest) Write() []byte {
	return []byte{OpcodeQuestSyncRequest}
}
