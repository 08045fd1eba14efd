package engine

import (
	"fmt"

	"github.com/talgya/serfworks/internal/economy"
	"github.com/talgya/serfworks/internal/savegame"
	"github.com/talgya/serfworks/internal/world"
)

// EncodeText writes f into s. Each direction is one list:
// open, water, length, free transporters, request, has transporter,
// other flag, other dir, scheduled, scheduled slot.
func (f *Flag) EncodeText(s *savegame.Section) {
	s.Put("pos", f.Pos.Q, f.Pos.R)
	s.Put("owner", f.Owner)
	s.Put("building", uint32(f.Building))
	s.Put("has_resources", f.HasResources)
	s.Put("serf_request_failed", f.SerfRequestFailed)
	s.Put("has_inventory", f.HasInventory)
	s.Put("accepts_resources", f.AcceptsResources)
	s.Put("accepts_serfs", f.AcceptsSerfs)

	for d, p := range f.Paths {
		s.Put(fmt.Sprintf("path[%d]", d),
			p.Open, p.Water, p.Length, p.FreeTransporters, int(p.Request),
			p.HasTransporter, uint32(p.OtherFlag), int(p.OtherDir), p.Scheduled, p.ScheduledSlot)
	}
	for i, slot := range f.Slots {
		s.Put(fmt.Sprintf("slot[%d]", i), int(slot.Type), int(slot.Dir), uint32(slot.Dest))
	}
}

// DecodeFlagText loads a flag from s into the arena at s.Index.
func (g *Game) DecodeFlagText(s *savegame.Section) (*Flag, error) {
	d := textDecoder{s: s}
	f := &Flag{}
	index := FlagIndex(s.Index)
	pos := world.HexCoord{Q: d.int("pos", 0), R: d.int("pos", 1)}
	f.init(g, index, pos, d.int("owner", 0))
	f.Building = BuildingIndex(d.uint("building"))
	f.HasResources = d.bool("has_resources")
	f.SerfRequestFailed = d.bool("serf_request_failed")
	f.HasInventory = d.bool("has_inventory")
	f.AcceptsResources = d.bool("accepts_resources")
	f.AcceptsSerfs = d.bool("accepts_serfs")

	for dir := range f.Paths {
		key := fmt.Sprintf("path[%d]", dir)
		f.Paths[dir] = FlagPath{
			Open:             d.int(key, 0) != 0,
			Water:            d.int(key, 1) != 0,
			Length:           d.int(key, 2),
			FreeTransporters: d.int(key, 3),
			Request:          RequestState(d.int(key, 4)),
			HasTransporter:   d.int(key, 5) != 0,
			OtherFlag:        FlagIndex(d.int(key, 6)),
			OtherDir:         world.Direction(d.int(key, 7)),
			Scheduled:        d.int(key, 8) != 0,
			ScheduledSlot:    d.int(key, 9),
		}
		f.Paths[dir].LengthCategory = RoadLengthValue(f.Paths[dir].Length)
	}
	for i := range f.Slots {
		key := fmt.Sprintf("slot[%d]", i)
		f.Slots[i] = ResourceSlot{
			Type: economy.ResourceKind(d.int(key, 0)),
			Dir:  world.Direction(d.int(key, 1)),
			Dest: FlagIndex(d.int(key, 2)),
		}
	}
	if d.err != nil {
		return nil, d.err
	}

	slot, err := g.Flags.AllocateAt(index)
	if err != nil {
		return nil, fmt.Errorf("flag %d: %w", index, err)
	}
	*slot = *f
	return slot, nil
}
