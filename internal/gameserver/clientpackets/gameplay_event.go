package clientpackets

import (
	"fmt"

	"github.com/udisondev/questd/internal/game/quest"
	"github.com/udisondev/questd/internal/gameserver/packet"
)

const OpcodeGameplayEvent = 0x05

// GameplayEvent reports something the player did in the game world.
//
// Structure:
// - byte: criteria type
// - string: target (item/block/entity id or custom event name)
// - int32: count
// - string: dimension
// - string: biome
// - double[3]: x, y, z
type GameplayEvent struct {
	Event quest.Event
}

// ParseGameplayEvent parses a GameplayEvent packet from the given data (without opcode).
func ParseGameplayEvent(data []byte) (*GameplayEvent, error) {
	r := packet.NewReader(data)
	var ev quest.Event

	t, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("reading criteria type: %w", err)
	}
	ev.Type = quest.CriteriaType(t)
	if !ev.Type.Valid() {
		return nil, fmt.Errorf("unknown criteria type %d", t)
	}

	if ev.Target, err = r.ReadString(); err != nil {
		return nil, fmt.Errorf("reading target: %w", err)
	}

	count, err := r.ReadInt()
	if err != nil {
		return nil, fmt.Errorf("reading count: %w", err)
	}
	if count < 0 {
		return nil, fmt.Errorf("negative count %d", count)
	}
	ev.Count = int(count)

	if ev.Dimension, err = r.ReadString(); err != nil {
		return nil, fmt.Errorf("reading dimension: %w", err)
	}
	if ev.Biome, err = r.ReadString(); err != nil {
		return nil, fmt.Errorf("reading biome: %w", err)
	}
	if ev.X, err = r.ReadDouble(); err != nil {
		return nil, fmt.Errorf("reading x: %w", err)
	}
	if ev.Y, err = r.ReadDouble(); err != nil {
		return nil, fmt.Errorf("reading y: %w", err)
	}
	if ev.Z, err = r.ReadDouble(); err != nil {
		return nil, fmt.Errorf("reading z: %w", err)
	}

	return &GameplayEvent{Event: ev}, nil
}

// Write serializes the packet with its opcode.
func (p *GameplayEvent) Write() []byte {
	ev := &p.Event
	w := packet.NewWriter(64)
	_ = w.WriteByte(OpcodeGameplayEvent)
	_ = w.WriteByte(byte(ev.Type))
	w.WriteString(ev.Target)
	w.WriteInt(int32(ev.Count))
	w.WriteString(ev.Dimension)
	w.WriteString(ev.Biome)
	w.WriteDouble(ev.X)
	w.WriteDouble(ev.Y)
	w.WriteDouble(ev.Z)
	return w.Bytes()
}
