package engine

import (
	"fmt"

	"github.com/talgya/serfworks/internal/agents"
	"github.com/talgya/serfworks/internal/economy"
	"github.com/talgya/serfworks/internal/savegame"
	"github.com/talgya/serfworks/internal/world"
)

// inventoryRecordSize converts a saved inventory byte offset to an index.
const inventoryRecordSize = 120

// noInventoryOffset marks a stock whose inventory has not been created or
// has burned.
const noInventoryOffset = 0xffffffff

// Packed state bytes of the binary building record.
const (
	packedTypeShift    = 2
	packedTypeMask     = 0x1f
	packedOwnerMask    = 0x03
	packedConstructing = 0x80

	packedThreatMask    = 0x03
	packedRequestFailed = 0x04
	packedPlayingSfx    = 0x08
	packedActive        = 0x10
	packedBurning       = 0x20
	packedHolder        = 0x40
	packedSerfRequested = 0x80

	packedHasInventory = 0xff
)

// ReadBuildingBinary loads one binary building record into the arena at
// index. Serfs referenced by the knight chain must already be loaded.
func (g *Game) ReadBuildingBinary(r *savegame.BinaryReader, index BuildingIndex) (*Building, error) {
	pos := g.Map.PosFromSaved(r.U32())
	typeByte := r.U8()
	stateByte := r.U8()
	flag := FlagIndex(r.U16())
	var stock [2]uint8
	stock[0] = r.U8()
	stock[1] = r.U8()
	firstKnight := agents.SerfIndex(r.U16())
	progress := int(r.U16())
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("building %d: %w", index, err)
	}

	t := BuildingType((typeByte >> packedTypeShift) & packedTypeMask)
	if !t.Valid() {
		return nil, fmt.Errorf("building %d type %d: %w", index, t, ErrInvalidBuildingType)
	}
	b, err := g.Buildings.AllocateAt(index)
	if err != nil {
		return nil, fmt.Errorf("building %d: %w", index, err)
	}
	b.g = g
	b.Index = index
	b.Pos = pos
	b.Type = t
	b.Owner = int(typeByte & packedOwnerMask)
	b.Constructing = typeByte&packedConstructing != 0
	b.ThreatLevel = int(stateByte & packedThreatMask)
	b.PlayingSfx = stateByte&packedPlayingSfx != 0
	b.Active = stateByte&packedActive != 0
	b.Burning = stateByte&packedBurning != 0
	b.Holder = stateByte&packedHolder != 0
	b.SerfRequest = unpackRequest(stateByte&packedSerfRequested != 0, stateByte&packedRequestFailed != 0)
	b.Flag = flag
	b.Progress = progress

	hasInventory := false
	for i, v := range stock {
		if v == packedHasInventory {
			hasInventory = hasInventory || i == 0
			continue
		}
		b.Stock[i].Available = int(v>>4) & 0xf
		b.Stock[i].Requested = int(v) & 0xf
	}
	// Stocks carry an inventory record whatever their first stock byte says.
	if t == BuildingStock && !b.Constructing {
		hasInventory = true
	}

	for idx := firstKnight; idx != 0; {
		serf, ok := g.Serf(idx)
		if !ok {
			return nil, fmt.Errorf("building %d knight %d: %w", index, idx, ErrMissingSerf)
		}
		if len(b.Knights) > maxRosterLength {
			return nil, fmt.Errorf("building %d knight chain loops at %d: %w", index, idx, ErrMissingSerf)
		}
		b.Knights = append(b.Knights, idx)
		idx = serf.Next
	}

	if hasInventory {
		offset := r.U32()
		if err := r.Err(); err != nil {
			return nil, fmt.Errorf("building %d inventory: %w", index, err)
		}
		if offset == noInventoryOffset {
			return b, nil
		}
		invIndex := InventoryIndex(offset/inventoryRecordSize) + 1
		inv, ok := g.Inventory(invIndex)
		if !ok {
			slot, err := g.Inventories.AllocateAt(invIndex)
			if err != nil {
				return nil, fmt.Errorf("building %d inventory %d: %w", index, invIndex, err)
			}
			*slot = *economy.NewInventory(uint32(invIndex))
			inv = slot
		}
		inv.Owner = b.Owner
		inv.Building = uint32(index)
		inv.Flag = uint32(flag)
		b.Inventory = invIndex
		b.Stock[0].Requested = economy.UnlimitedStock
		return b, nil
	}

	b.Level = int(r.U16())
	if b.Constructing {
		b.Stock[0].Type = economy.ResourcePlank
		b.Stock[0].Maximum = int(r.U8())
		b.Stock[1].Type = economy.ResourceStone
		b.Stock[1].Maximum = int(r.U8())
	} else if b.Holder {
		b.restoreStockLayout()
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("building %d: %w", index, err)
	}
	return b, nil
}

// maxRosterLength bounds a knight chain read from a save.
const maxRosterLength = 64

// restoreStockLayout sets the slot types and maxima a staffed building
// works with. Binary records carry only the counters.
func (b *Building) restoreStockLayout() {
	if info, ok := militaryTable[b.Type]; ok {
		b.Stock[1].Type = economy.ResourceGoldBar
		b.Stock[1].Maximum = info.maxGold
		return
	}
	for _, d := range productionDemands[b.Type] {
		b.Stock[d.slot].Type = d.kind
		b.Stock[d.slot].Maximum = ProductionStockMaximum
	}
}

func unpackRequest(requested, failed bool) RequestState {
	switch {
	case failed:
		return RequestFailed
	case requested:
		return RequestPending
	}
	return RequestNone
}

// WriteBinary appends the binary record of b. Knight chain links are
// written into the serfs' Next fields.
func (b *Building) WriteBinary(w *savegame.BinaryWriter) {
	w.PutU32(world.SavedValue(b.Pos))

	typeByte := uint8(b.Type&packedTypeMask)<<packedTypeShift | uint8(b.Owner)&packedOwnerMask
	if b.Constructing {
		typeByte |= packedConstructing
	}
	w.PutU8(typeByte)

	stateByte := uint8(b.ThreatLevel) & packedThreatMask
	for _, bit := range []struct {
		set  bool
		mask uint8
	}{
		{b.SerfRequest == RequestFailed, packedRequestFailed},
		{b.PlayingSfx, packedPlayingSfx},
		{b.Active, packedActive},
		{b.Burning, packedBurning},
		{b.Holder, packedHolder},
		{b.SerfRequest == RequestPending, packedSerfRequested},
	} {
		if bit.set {
			stateByte |= bit.mask
		}
	}
	w.PutU8(stateByte)
	w.PutU16(uint16(b.Flag))

	for i, s := range b.Stock {
		if i == 0 && b.HasInventory() {
			w.PutU8(packedHasInventory)
			continue
		}
		w.PutU8(uint8(min(s.Available, 0xf))<<4 | uint8(min(s.Requested, 0xf)))
	}

	var head agents.SerfIndex
	for i := len(b.Knights) - 1; i >= 0; i-- {
		if serf, ok := b.g.Serf(b.Knights[i]); ok {
			serf.Next = head
		}
		head = b.Knights[i]
	}
	w.PutU16(uint16(head))
	w.PutU16(uint16(b.Progress))

	switch {
	case b.HasInventory():
		w.PutU32(uint32(b.Inventory-1) * inventoryRecordSize)
		return
	case b.Type == BuildingStock && !b.Constructing:
		w.PutU32(noInventoryOffset)
		return
	}
	w.PutU16(uint16(b.Level))
	if b.Constructing {
		w.PutU8(uint8(b.Stock[0].Maximum))
		w.PutU8(uint8(b.Stock[1].Maximum))
	}
}

// EncodeText writes b into s.
func (b *Building) EncodeText(s *savegame.Section) {
	s.Put("pos", b.Pos.Q, b.Pos.R)
	s.Put("type", int(b.Type))
	s.Put("owner", b.Owner)
	s.Put("constructing", b.Constructing)
	s.Put("military_state", b.ThreatLevel)
	s.Put("playing_sfx", b.PlayingSfx)
	s.Put("serf_request_failed", b.SerfRequest == RequestFailed)
	s.Put("serf_requested", b.SerfRequest == RequestPending)
	s.Put("burning", b.Burning)
	s.Put("active", b.Active)
	s.Put("holder", b.Holder)
	s.Put("flag", uint32(b.Flag))

	for i, st := range b.Stock {
		prefix := fmt.Sprintf("stock[%d].", i)
		s.Put(prefix+"type", int(st.Type))
		s.Put(prefix+"prio", st.Priority)
		s.Put(prefix+"available", st.Available)
		s.Put(prefix+"requested", st.Requested)
		s.Put(prefix+"maximum", st.Maximum)
	}

	s.Put("serf_count", len(b.Knights))
	s.Put("serfs")
	for _, k := range b.Knights {
		s.Put("serfs", uint32(k))
	}
	s.Put("progress", b.Progress)

	switch {
	case !b.Burning && (b.IsDone() || b.Type == BuildingCastle):
		if b.Type == BuildingStock || b.Type == BuildingCastle {
			s.Put("inventory", uint32(b.Inventory))
		}
	case b.Burning:
		s.Put("tick", b.Tick)
		s.Put("burning_counter", b.BurningCounter)
	default:
		s.Put("level", b.Level)
	}
}

// DecodeBuildingText loads a building from s into the arena at s.Index. Knight
// indices are taken as saved; the serfs may be loaded later.
func (g *Game) DecodeBuildingText(s *savegame.Section) (*Building, error) {
	var d textDecoder
	d.s = s
	b := &Building{g: g, Index: BuildingIndex(s.Index)}

	b.Pos = world.HexCoord{Q: d.int("pos", 0), R: d.int("pos", 1)}
	b.Type = BuildingType(d.int("type", 0))
	b.Owner = d.int("owner", 0)
	b.Constructing = d.bool("constructing")
	b.ThreatLevel = d.int("military_state", 0)
	failed := d.bool("serf_request_failed")
	b.PlayingSfx = d.bool("playing_sfx")
	b.Active = d.bool("active")
	b.Burning = d.bool("burning")
	b.Holder = d.bool("holder")
	b.SerfRequest = unpackRequest(d.bool("serf_requested"), failed)
	b.Flag = FlagIndex(d.uint("flag"))

	for i := range b.Stock {
		prefix := fmt.Sprintf("stock[%d].", i)
		b.Stock[i] = economy.StockSlot{
			Type:      economy.ResourceKind(d.int(prefix+"type", 0)),
			Priority:  d.int(prefix+"prio", 0),
			Available: d.int(prefix+"available", 0),
			Requested: d.int(prefix+"requested", 0),
			Maximum:   d.int(prefix+"maximum", 0),
		}
	}

	count := d.int("serf_count", 0)
	for i := range count {
		b.Knights = append(b.Knights, agents.SerfIndex(d.int("serfs", i)))
	}
	b.Progress = d.int("progress", 0)

	switch {
	case !b.Burning && (b.IsDone() || b.Type == BuildingCastle):
		if b.Type == BuildingStock || b.Type == BuildingCastle {
			b.Inventory = InventoryIndex(d.uint("inventory"))
		}
	case b.Burning:
		b.Tick = d.uint("tick")
		if s.Has("burning_counter") {
			b.BurningCounter = d.int("burning_counter", 0)
		}
	default:
		b.Level = d.int("level", 0)
	}
	if d.err != nil {
		return nil, d.err
	}
	if !b.Type.Valid() {
		return nil, fmt.Errorf("building %d type %d: %w", b.Index, b.Type, ErrInvalidBuildingType)
	}

	slot, err := g.Buildings.AllocateAt(b.Index)
	if err != nil {
		return nil, fmt.Errorf("building %d: %w", b.Index, err)
	}
	*slot = *b
	return slot, nil
}

// textDecoder reads section values, keeping the first error.
type textDecoder struct {
	s   *savegame.Section
	err error
}

func (d *textDecoder) int(key string, i int) int {
	if d.err != nil {
		return 0
	}
	v, err := d.s.Int(key, i)
	d.err = err
	return v
}

func (d *textDecoder) uint(key string) uint32 {
	if d.err != nil {
		return 0
	}
	v, err := d.s.Uint(key, 0)
	d.err = err
	return v
}

func (d *textDecoder) bool(key string) bool {
	return d.int(key, 0) != 0
}
