package serverpackets

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/udisondev/questd/internal/game/quest"
	"github.com/udisondev/questd/internal/gameserver/packet"
)

// OpcodeRewardGrant is the server packet opcode for a reward to apply in-game.
const OpcodeRewardGrant = 0x02

// RewardGrant asks the game bridge to apply one quest reward (S2C 0x02).
//
// Packet structure:
//   - opcode (byte) 0x02
//   - player (16 bytes, uuid)
//   - quest id (string)
//   - reward (see WriteReward)
type RewardGrant struct {
	PlayerID uuid.UUID
	QuestID  string
	Reward   quest.Reward
}

// Write serializes RewardGrant packet to bytes.
func (p *RewardGrant) Write() ([]byte, error) {
	w := packet.NewWriter(64)
	_ = w.WriteByte(OpcodeRewardGrant)
	w.WriteUUID(p.PlayerID)
	w.WriteString(p.QuestID)
	WriteReward(w, p.Reward)
	return w.Bytes(), nil
}

// ParseRewardGrant decodes a RewardGrant packet from data (without opcode).
func ParseRewardGrant(data []byte) (*RewardGrant, error) {
	r := packet.NewReader(data)
	p := &RewardGrant{}
	var err error

	if p.PlayerID, err = r.ReadUUID(); err != nil {
		return nil, fmt.Errorf("reading player id: %w", err)
	}
	if p.QuestID, err = r.ReadString(); err != nil {
		return nil, fmt.Errorf("reading quest id: %w", err)
	}
	if p.Reward, err = ReadReward(r); err != nil {
		return nil, fmt.Errorf("reading reward: %w", err)
	}
	return p, nil
}

// WriteReward encodes a reward: type byte, then every payload field.
func WriteReward(w *packet.Writer, rw quest.Reward) {
	_ = w.WriteByte(byte(rw.Type))
	w.WriteString(rw.Item)
	w.WriteInt(int32(rw.Count))
	w.WriteInt(int32(rw.Amount))
	w.WriteString(rw.Effect)
	w.WriteInt(int32(rw.Duration))
	w.WriteInt(int32(rw.Amplifier))
	w.WriteString(rw.Command)
	w.WriteString(rw.Advancement)
}

// ReadReward decodes a reward written by WriteReward.
func ReadReward(r *packet.Reader) (quest.Reward, error) {
	var rw quest.Reward

	t, err := r.ReadByte()
	if err != nil {
		return rw, err
	}
	rw.Type = quest.RewardType(t)

	fields := []any{
		&rw.Item, &rw.Count, &rw.Amount, &rw.Effect,
		&rw.Duration, &rw.Amplifier, &rw.Command, &rw.Advancement,
	}
	for _, f := range fields {
		switch v := f.(type) {
		case *string:
			if *v, err = r.ReadString(); err != nil {
				return rw, err
			}
		case *int:
			n, err := r.ReadInt()
			if err != nil {
				return rw, err
			}
			*v = int(n)
		}
	}
	return rw, nil
}
