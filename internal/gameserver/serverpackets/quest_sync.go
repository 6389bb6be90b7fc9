package serverpackets

import (
	"fmt"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/udisondev/questd/internal/game/quest"
	"github.com/udisondev/questd/internal/gameserver/packet"
)

// OpcodeQuestSync is the server packet opcode for quest state sync.
const OpcodeQuestSync = 0x01

// FlagCompressed marks a zstd-compressed body.
const FlagCompressed = 0x01

// SyncType distinguishes a full replace from a single-quest upsert.
type SyncType byte

const (
	SyncFull SyncType = iota
	SyncDelta
)

func (t SyncType) String() string {
	if t == SyncDelta {
		return "delta"
	}
	return "full"
}

// SyncDefinition is a quest definition with its title and description
// already resolved for the recipient's locale.
type SyncDefinition struct {
	Def         *quest.Definition
	Title       string
	Description string
}

// QuestSync carries quest definitions and progress to a client (S2C 0x01).
//
// Packet structure:
//   - opcode (byte) 0x01
//   - flags (byte), bit 0 = body is zstd-compressed
//   - body:
//     type (byte), definitions (int32 count + entries),
//     progress (int32 count + entries), daily ids (int32 count + strings),
//     active quest id (string), notification quest id (string),
//     notification (byte)
type QuestSync struct {
	Type                SyncType
	Definitions         []SyncDefinition
	Progress            []*quest.Progress
	DailyIDs            []string
	ActiveQuestID       string
	NotificationQuestID string
	Notification        quest.Notification

	// CompressThreshold enables zstd for FULL bodies larger than this many
	// bytes. Zero disables compression. Not transmitted.
	CompressThreshold int
}

var (
	zstdEncoder = sync.OnceValues(func() (*zstd.Encoder, error) {
		return zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	})
	zstdDecoder = sync.OnceValues(func() (*zstd.Decoder, error) {
		return zstd.NewReader(nil, zstd.WithDecoderMaxMemory(64<<20))
	})
)

// Write serializes the packet.
func (p *QuestSync) Write() ([]byte, error) {
	body := packet.Get()
	defer body.Put()
	p.writeBody(body)

	flags := byte(0)
	payload := body.Bytes()
	if p.Type == SyncFull && p.CompressThreshold > 0 && len(payload) > p.CompressThreshold {
		enc, err := zstdEncoder()
		if err != nil {
			return nil, fmt.Errorf("creating zstd encoder: %w", err)
		}
		payload = enc.EncodeAll(payload, make([]byte, 0, len(payload)/2))
		flags |= FlagCompressed
	}

	w := packet.NewWriter(2 + len(payload))
	_ = w.WriteByte(OpcodeQuestSync)
	_ = w.WriteByte(flags)
	w.WriteBytes(payload)
	return w.Bytes(), nil
}

func (p *QuestSync) writeBody(w *packet.Writer) {
	_ = w.WriteByte(byte(p.Type))

	w.WriteInt(int32(len(p.Definitions)))
	for i := range p.Definitions {
		writeDefinition(w, &p.Definitions[i])
	}

	w.WriteInt(int32(len(p.Progress)))
	for _, pr := range p.Progress {
		writeProgress(w, pr)
	}

	w.WriteStrings(p.DailyIDs)
	w.WriteString(p.ActiveQuestID)
	w.WriteString(p.NotificationQuestID)
	_ = w.WriteByte(byte(p.Notification))
}

func writeDefinition(w *packet.Writer, sd *SyncDefinition) {
	d := sd.Def
	w.WriteString(d.ID)
	w.WriteString(d.TitleKey)
	w.WriteString(sd.Title)
	w.WriteString(d.DescriptionKey)
	w.WriteString(sd.Description)
	_ = w.WriteByte(byte(d.Category))
	w.WriteString(d.Type)
	w.WriteBool(d.Repeatable)
	w.WriteStrings(d.Prerequisites)

	w.WriteInt(int32(len(d.Objectives)))
	for _, obj := range d.Objectives {
		w.WriteString(obj.ID)
		_ = w.WriteByte(byte(obj.Logic))
		w.WriteInt(int32(len(obj.Criteria)))
		for i := range obj.Criteria {
			writeCriteria(w, &obj.Criteria[i])
		}
	}

	w.WriteInt(int32(len(d.Rewards)))
	for _, r := range d.Rewards {
		WriteReward(w, r)
	}
}

func writeCriteria(w *packet.Writer, c *quest.Criteria) {
	_ = w.WriteByte(byte(c.Type))
	w.WriteString(c.Item)
	w.WriteString(c.Block)
	w.WriteString(c.Entity)
	w.WriteInt(int32(c.Count))
	w.WriteString(c.Dimension)
	w.WriteString(c.Biome)
	writeOptionalDouble(w, c.YMin)
	writeOptionalDouble(w, c.YMax)
	w.WriteDouble(c.X)
	w.WriteDouble(c.Y)
	w.WriteDouble(c.Z)
	w.WriteDouble(c.Radius)
}

func writeOptionalDouble(w *packet.Writer, v *float64) {
	w.WriteBool(v != nil)
	if v != nil {
		w.WriteDouble(*v)
	}
}

func writeProgress(w *packet.Writer, p *quest.Progress) {
	w.WriteString(p.QuestID)
	w.WriteBool(p.Completed)
	w.WriteBool(p.RewardsGranted)
	var completedAt int64
	if !p.CompletedAt.IsZero() {
		completedAt = p.CompletedAt.UnixMilli()
	}
	w.WriteLong(completedAt)

	ids := p.ObjectiveIDs()
	w.WriteInt(int32(len(ids)))
	for _, id := range ids {
		op := p.Objectives[id]
		w.WriteString(id)
		w.WriteBool(op.Completed)
		w.WriteInt(int32(len(op.Counts)))
		for _, c := range op.Counts {
			w.WriteInt(int32(c))
		}
	}
}

// ParseQuestSync decodes a QuestSync packet from data (without opcode).
func ParseQuestSync(data []byte) (*QuestSync, error) {
	r := packet.NewReader(data)

	flags, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("reading flags: %w", err)
	}

	body := r.Rest()
	if flags&FlagCompressed != 0 {
		dec, err := zstdDecoder()
		if err != nil {
			return nil, fmt.Errorf("creating zstd decoder: %w", err)
		}
		body, err = dec.DecodeAll(body, nil)
		if err != nil {
			return nil, fmt.Errorf("decompressing body: %w", err)
		}
	}

	p, err := readBody(packet.NewReader(body))
	if err != nil {
		return nil, err
	}
	return p, nil
}

func readBody(r *packet.Reader) (*QuestSync, error) {
	t, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("reading sync type: %w", err)
	}
	if SyncType(t) != SyncFull && SyncType(t) != SyncDelta {
		return nil, fmt.Errorf("unknown sync type %d", t)
	}
	p := &QuestSync{Type: SyncType(t)}

	n, err := r.ReadCount()
	if err != nil {
		return nil, fmt.Errorf("reading definition count: %w", err)
	}
	p.Definitions = make([]SyncDefinition, 0, n)
	for i := range n {
		sd, err := readDefinition(r)
		if err != nil {
			return nil, fmt.Errorf("reading definition %d: %w", i, err)
		}
		p.Definitions = append(p.Definitions, sd)
	}

	n, err = r.ReadCount()
	if err != nil {
		return nil, fmt.Errorf("reading progress count: %w", err)
	}
	p.Progress = make([]*quest.Progress, 0, n)
	for i := range n {
		pr, err := readProgress(r)
		if err != nil {
			return nil, fmt.Errorf("reading progress %d: %w", i, err)
		}
		p.Progress = append(p.Progress, pr)
	}

	if p.DailyIDs, err = r.ReadStrings(); err != nil {
		return nil, fmt.Errorf("reading daily ids: %w", err)
	}
	if p.ActiveQuestID, err = r.ReadString(); err != nil {
		return nil, fmt.Errorf("reading active quest: %w", err)
	}
	if p.NotificationQuestID, err = r.ReadString(); err != nil {
		return nil, fmt.Errorf("reading notification quest: %w", err)
	}
	notif, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("reading notification: %w", err)
	}
	p.Notification = quest.Notification(notif)
	return p, nil
}

func readDefinition(r *packet.Reader) (SyncDefinition, error) {
	var (
		sd  SyncDefinition
		d   = &quest.Definition{}
		err error
	)
	sd.Def = d

	if d.ID, err = r.ReadString(); err != nil {
		return sd, err
	}
	if d.TitleKey, err = r.ReadString(); err != nil {
		return sd, err
	}
	if sd.Title, err = r.ReadString(); err != nil {
		return sd, err
	}
	if d.DescriptionKey, err = r.ReadString(); err != nil {
		return sd, err
	}
	if sd.Description, err = r.ReadString(); err != nil {
		return sd, err
	}
	cat, err := r.ReadByte()
	if err != nil {
		return sd, err
	}
	d.Category = quest.Category(cat)
	if d.Type, err = r.ReadString(); err != nil {
		return sd, err
	}
	if d.Repeatable, err = r.ReadBool(); err != nil {
		return sd, err
	}
	if d.Prerequisites, err = r.ReadStrings(); err != nil {
		return sd, err
	}

	n, err := r.ReadCount()
	if err != nil {
		return sd, err
	}
	d.Objectives = make([]quest.Objective, n)
	for i := range d.Objectives {
		obj := &d.Objectives[i]
		if obj.ID, err = r.ReadString(); err != nil {
			return sd, err
		}
		logic, err := r.ReadByte()
		if err != nil {
			return sd, err
		}
		obj.Logic = quest.LogicOp(logic)
		nc, err := r.ReadCount()
		if err != nil {
			return sd, err
		}
		obj.Criteria = make([]quest.Criteria, nc)
		for j := range obj.Criteria {
			if err := readCriteria(r, &obj.Criteria[j]); err != nil {
				return sd, err
			}
		}
	}

	n, err = r.ReadCount()
	if err != nil {
		return sd, err
	}
	d.Rewards = make([]quest.Reward, n)
	for i := range d.Rewards {
		if d.Rewards[i], err = ReadReward(r); err != nil {
			return sd, err
		}
	}
	return sd, nil
}

func readCriteria(r *packet.Reader, c *quest.Criteria) error {
	t, err := r.ReadByte()
	if err != nil {
		return err
	}
	c.Type = quest.CriteriaType(t)
	if c.Item, err = r.ReadString(); err != nil {
		return err
	}
	if c.Block, err = r.ReadString(); err != nil {
		return err
	}
	if c.Entity, err = r.ReadString(); err != nil {
		return err
	}
	count, err := r.ReadInt()
	if err != nil {
		return err
	}
	c.Count = int(count)
	if c.Dimension, err = r.ReadString(); err != nil {
		return err
	}
	if c.Biome, err = r.ReadString(); err != nil {
		return err
	}
	if c.YMin, err = readOptionalDouble(r); err != nil {
		return err
	}
	if c.YMax, err = readOptionalDouble(r); err != nil {
		return err
	}
	for _, f := range []*float64{&c.X, &c.Y, &c.Z, &c.Radius} {
		if *f, err = r.ReadDouble(); err != nil {
			return err
		}
	}
	return nil
}

func readOptionalDouble(r *packet.Reader) (*float64, error) {
	ok, err := r.ReadBool()
	if err != nil || !ok {
		return nil, err
	}
	v, err := r.ReadDouble()
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func readProgress(r *packet.Reader) (*quest.Progress, error) {
	id, err := r.ReadString()
	if err != nil {
		return nil, err
	}
	p := quest.NewProgress(id)
	if p.Completed, err = r.ReadBool(); err != nil {
		return nil, err
	}
	if p.RewardsGranted, err = r.ReadBool(); err != nil {
		return nil, err
	}
	ms, err := r.ReadLong()
	if err != nil {
		return nil, err
	}
	if ms != 0 {
		p.CompletedAt = time.UnixMilli(ms).UTC()
	}

	n, err := r.ReadCount()
	if err != nil {
		return nil, err
	}
	for range n {
		op := &quest.ObjectiveProgress{}
		if op.ID, err = r.ReadString(); err != nil {
			return nil, err
		}
		if op.Completed, err = r.ReadBool(); err != nil {
			return nil, err
		}
		nc, err := r.ReadCount()
		if err != nil {
			return nil, err
		}
		op.Counts = make([]int, nc)
		for i := range op.Counts {
			c, err := r.ReadInt()
			if err != nil {
				return nil, err
			}
			op.Counts[i] = int(c)
		}
		p.Objectives[op.ID] = op
	}
	return p, nil
}
