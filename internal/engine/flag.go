package engine

import (
	"fmt"

	"github.com/talgya/serfworks/internal/economy"
	"github.com/talgya/serfworks/internal/social"
	"github.com/talgya/serfworks/internal/world"
)

// FlagIndex identifies a flag in the game arena. 0 means none.
type FlagIndex uint32

// FlagMaxResources is the number of resources a flag can hold.
const FlagMaxResources = 8

// maxTransporters is the transporter ceiling per road length category.
var maxTransporters = [8]int{1, 2, 3, 4, 6, 8, 11, 15}

// FlagPath is the state of the road leaving a flag in one direction.
type FlagPath struct {
	Open  bool `json:"open"`
	Water bool `json:"water"`

	Length           int          `json:"length"`
	LengthCategory   int          `json:"length_category"`
	FreeTransporters int          `json:"free_transporters"`
	Request          RequestState `json:"request"`
	HasTransporter   bool         `json:"has_transporter"`

	OtherFlag FlagIndex       `json:"other_flag"`
	OtherDir  world.Direction `json:"other_dir"`

	// Scheduled is set when ScheduledSlot waits for pickup along this path.
	Scheduled     bool `json:"scheduled"`
	ScheduledSlot int  `json:"scheduled_slot"`
}

// ResourceSlot is a resource waiting at a flag.
type ResourceSlot struct {
	Type economy.ResourceKind `json:"type"`
	Dir  world.Direction      `json:"dir"`
	Dest FlagIndex            `json:"dest"`
}

// Flag is a road junction buffering resources between paths.
type Flag struct {
	Index FlagIndex          `json:"index"`
	Pos   world.HexCoord     `json:"pos"`
	Owner social.PlayerIndex `json:"owner"`

	Paths [6]FlagPath `json:"paths"`

	// Building is the building attached up-left, 0 if none.
	Building BuildingIndex `json:"building"`

	// HasResources is set while some slot still needs scheduling.
	HasResources      bool `json:"has_resources"`
	SerfRequestFailed bool `json:"serf_request_failed"`

	HasInventory     bool `json:"has_inventory"`
	AcceptsResources bool `json:"accepts_resources"`
	AcceptsSerfs     bool `json:"accepts_serfs"`

	Slots [FlagMaxResources]ResourceSlot `json:"slots"`

	searchNum uint32
	searchDir world.Direction

	g *Game
}

func (f *Flag) init(g *Game, index FlagIndex, pos world.HexCoord, owner social.PlayerIndex) {
	f.g = g
	f.Index = index
	f.Pos = pos
	f.Owner = owner
	f.searchDir = world.DirNone
	for i := range f.Slots {
		f.Slots[i] = ResourceSlot{Dir: world.DirNone}
	}
	for i := range f.Paths {
		f.Paths[i].OtherDir = world.DirNone
	}
}

// PathBits returns the bitmap of directions with a road.
func (f *Flag) PathBits() uint8 {
	var bits uint8
	for d := range f.Paths {
		if f.Paths[d].Open {
			bits |= 1 << d
		}
	}
	return bits
}

// HasPath reports whether a road leaves in direction d.
func (f *Flag) HasPath(d world.Direction) bool {
	return d.Valid() && f.Paths[d].Open
}

// IsWaterPath reports whether the road in direction d is a water route.
func (f *Flag) IsWaterPath(d world.Direction) bool {
	return f.Paths[d].Water
}

// HasBuilding reports whether a building is attached.
func (f *Flag) HasBuilding() bool { return f.Building != 0 }

// HasTransporter reports whether a transporter serves direction d.
func (f *Flag) HasTransporter(d world.Direction) bool {
	return d.Valid() && f.Paths[d].HasTransporter
}

// Transporters reports whether any path has a transporter.
func (f *Flag) Transporters() bool {
	for _, p := range f.Paths {
		if p.HasTransporter {
			return true
		}
	}
	return false
}

// IsScheduled reports whether a pickup waits along direction d.
func (f *Flag) IsScheduled(d world.Direction) bool {
	return f.Paths[d].Scheduled
}

// AddPath opens the road in direction d.
func (f *Flag) AddPath(d world.Direction, water bool) {
	p := &f.Paths[d]
	p.Open = true
	p.Water = water
	p.Request = RequestNone
	p.FreeTransporters = 0
	p.HasTransporter = false
	p.Scheduled = false
	p.ScheduledSlot = 0
}

// DelPath closes the road in direction d and reschedules resources that
// were routed along it.
func (f *Flag) DelPath(d world.Direction) {
	f.Paths[d] = FlagPath{OtherDir: world.DirNone}
	f.InvalidateResourcePath(d)
}

// InvalidateResourcePath sends every slot routed along d back to
// scheduling.
func (f *Flag) InvalidateResourcePath(d world.Direction) {
	for i := range f.Slots {
		if f.Slots[i].Type != economy.ResourceNone && f.Slots[i].Dir == d {
			f.Slots[i].Dir = world.DirNone
			f.HasResources = true
		}
	}
}

// LinkWithFlag records a road of the given length to dest.
func (f *Flag) LinkWithFlag(dest *Flag, water bool, length int, inDir, outDir world.Direction) {
	category := RoadLengthValue(length)

	f.AddPath(outDir, water)
	f.Paths[outDir].OtherFlag = dest.Index
	f.Paths[outDir].OtherDir = inDir
	f.Paths[outDir].Length = length
	f.Paths[outDir].LengthCategory = category

	dest.AddPath(inDir, water)
	dest.Paths[inDir].OtherFlag = f.Index
	dest.Paths[inDir].OtherDir = outDir
	dest.Paths[inDir].Length = length
	dest.Paths[inDir].LengthCategory = category
}

// LinkBuilding attaches a building up-left of the flag.
func (f *Flag) LinkBuilding(b *Building) {
	f.Building = b.Index
	b.Flag = f.Index
}

// UnlinkBuilding detaches the building.
func (f *Flag) UnlinkBuilding() {
	f.Building = 0
	f.ClearInventoryFlags()
}

// ClearInventoryFlags drops the inventory capability bits.
func (f *Flag) ClearInventoryFlags() {
	f.HasInventory = false
	f.AcceptsResources = false
	f.AcceptsSerfs = false
}

// SetInventoryFlags mirrors the modes of the attached inventory.
func (f *Flag) SetInventoryFlags(inv *economy.Inventory) {
	f.HasInventory = true
	f.AcceptsResources = inv.AcceptsResources()
	f.AcceptsSerfs = inv.AcceptsSerfs()
}

// RoadLengthValue maps a road length to its transporter category.
func RoadLengthValue(length int) int {
	switch {
	case length >= 24:
		return 7
	case length >= 18:
		return 6
	case length >= 13:
		return 5
	case length >= 10:
		return 4
	case length >= 7:
		return 3
	case length >= 6:
		return 2
	case length >= 4:
		return 1
	}
	return 0
}

// MaxTransporters is the transporter ceiling for the road in direction d.
func (f *Flag) MaxTransporters(d world.Direction) int {
	return maxTransporters[f.Paths[d].LengthCategory&7]
}

// FreeTransporterCount is the number of transporters idle on the road.
func (f *Flag) FreeTransporterCount(d world.Direction) int {
	return f.Paths[d].FreeTransporters
}

// TransporterToServe takes an idle transporter off the road count.
func (f *Flag) TransporterToServe(d world.Direction) {
	f.Paths[d].FreeTransporters--
}

// CompleteSerfRequest books an arriving transporter.
func (f *Flag) CompleteSerfRequest(d world.Direction) {
	f.Paths[d].Request = RequestNone
	f.Paths[d].FreeTransporters++
}

// CancelSerfRequest drops an outstanding transporter request.
func (f *Flag) CancelSerfRequest(d world.Direction) {
	f.Paths[d].Request = RequestNone
}

// ClearSerfRequestFailure re-enables transporter requests.
func (f *Flag) ClearSerfRequestFailure() {
	f.SerfRequestFailed = false
}

// DropResource puts res with destination dest into the first empty slot.
// It returns false, changing nothing, when all slots are taken.
func (f *Flag) DropResource(res economy.ResourceKind, dest FlagIndex) bool {
	if res == economy.ResourceNone {
		return false
	}
	for i := range f.Slots {
		if f.Slots[i].Type == economy.ResourceNone {
			f.Slots[i] = ResourceSlot{Type: res, Dir: world.DirNone, Dest: dest}
			f.HasResources = true
			return true
		}
	}
	return false
}

// HasEmptySlot reports whether DropResource would succeed.
func (f *Flag) HasEmptySlot() bool {
	for _, s := range f.Slots {
		if s.Type == economy.ResourceNone {
			return true
		}
	}
	return false
}

// ResourceAt returns the resource kind in a slot.
func (f *Flag) ResourceAt(slot int) economy.ResourceKind {
	return f.Slots[slot].Type
}

// PickUpResource hands a scheduled resource to the transporter on the road
// in direction d. It fails, changing nothing, unless slot is the one
// scheduled along d.
func (f *Flag) PickUpResource(slot int, d world.Direction) (economy.ResourceKind, FlagIndex, error) {
	if slot < 0 || slot >= FlagMaxResources || !d.Valid() {
		return economy.ResourceNone, 0, fmt.Errorf("flag %d pickup slot %d dir %s: out of range", f.Index, slot, d)
	}
	s := f.Slots[slot]
	if s.Type == economy.ResourceNone || s.Dir != d || !f.Paths[d].Scheduled || f.Paths[d].ScheduledSlot != slot {
		return economy.ResourceNone, 0, fmt.Errorf("flag %d pickup slot %d dir %s: %w", f.Index, slot, d, ErrNotScheduled)
	}
	f.Slots[slot] = ResourceSlot{Dir: world.DirNone}
	f.fixScheduled()
	return s.Type, s.Dest, nil
}

// RemoveAllResources cancels and drops everything waiting at the flag.
func (f *Flag) RemoveAllResources() error {
	for i := range f.Slots {
		s := f.Slots[i]
		if s.Type == economy.ResourceNone {
			continue
		}
		if s.Dest != 0 {
			if err := f.g.CancelTransportedResource(s.Type, s.Dest); err != nil {
				return err
			}
		}
		f.Slots[i] = ResourceSlot{Dir: world.DirNone}
	}
	for d := range f.Paths {
		f.Paths[d].Scheduled = false
	}
	f.HasResources = false
	return nil
}

// PrioritizePickup schedules, for direction d, the waiting resource with
// the highest player flag priority.
func (f *Flag) PrioritizePickup(d world.Direction, p *social.Player) {
	next, best := -1, -1
	for i, s := range f.Slots {
		if s.Type == economy.ResourceNone || s.Dir != d {
			continue
		}
		if prio := p.FlagPriority(s.Type); prio > best {
			next, best = i, prio
		}
	}
	path := &f.Paths[d]
	path.Scheduled = next >= 0
	path.ScheduledSlot = max(next, 0)
}

// fixScheduled re-picks the pickup for every direction.
func (f *Flag) fixScheduled() {
	p, ok := f.g.Player(f.Owner)
	if !ok {
		return
	}
	for _, d := range world.DirectionsCW {
		f.PrioritizePickup(d, p)
	}
}

// ResetTransport clears every slot routed to other and forces rescheduling.
func (f *Flag) ResetTransport(other *Flag) {
	for i := range f.Slots {
		s := &f.Slots[i]
		if s.Type != economy.ResourceNone && s.Dest == other.Index {
			s.Dest = 0
			s.Dir = world.DirNone
			f.HasResources = true
		}
	}
	f.fixScheduled()
}

// ResetDestinationOfStolenResources forgets destinations of resources
// that now sit on a flag of another owner.
func (f *Flag) ResetDestinationOfStolenResources() {
	for i := range f.Slots {
		s := &f.Slots[i]
		if s.Type == economy.ResourceNone || s.Dest == 0 {
			continue
		}
		if dest, ok := f.g.Flag(s.Dest); !ok || dest.Owner != f.Owner {
			s.Dest = 0
			s.Dir = world.DirNone
			f.HasResources = true
		}
	}
	f.fixScheduled()
}

// CanDemolish reports whether the flag has no building and no roads.
func (f *Flag) CanDemolish() bool {
	return !f.HasBuilding() && f.PathBits() == 0
}
