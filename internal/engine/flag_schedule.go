package engine

import (
	"fmt"
	"log/slog"

	"github.com/talgya/serfworks/internal/agents"
	"github.com/talgya/serfworks/internal/economy"
	"github.com/talgya/serfworks/internal/world"
)

// unknownDestThreshold is the building priority above which the search
// for a destination stops early.
const unknownDestThreshold = 204

// routable lists the resources delivered straight to requesting buildings.
// Anything else goes to an inventory.
var routable = map[economy.ResourceKind]bool{
	economy.ResourceFish:    true,
	economy.ResourcePig:     true,
	economy.ResourceMeat:    true,
	economy.ResourceWheat:   true,
	economy.ResourceFlour:   true,
	economy.ResourceBread:   true,
	economy.ResourceLumber:  true,
	economy.ResourcePlank:   true,
	economy.ResourceStone:   true,
	economy.ResourceIronOre: true,
	economy.ResourceSteel:   true,
	economy.ResourceCoal:    true,
	economy.ResourceGoldOre: true,
	economy.ResourceGoldBar: true,
}

// resourcesWaiting returns, for k = 0..3, the bitmap of directions with
// more than k resources already routed along them.
func (f *Flag) resourcesWaiting() [4]uint8 {
	var waiting [4]uint8
	for _, s := range f.Slots {
		if s.Type == economy.ResourceNone || !s.Dir.Valid() {
			continue
		}
		bit := uint8(1) << s.Dir
		for k := range waiting {
			if waiting[k]&bit == 0 {
				waiting[k] |= bit
				break
			}
		}
	}
	return waiting
}

func (f *Flag) transporterBits() uint8 {
	var bits uint8
	for d, p := range f.Paths {
		if p.HasTransporter {
			bits |= 1 << d
		}
	}
	return bits
}

// Update schedules waiting resources and keeps roads staffed.
func (f *Flag) Update() error {
	waiting := f.resourcesWaiting()
	waitingCount := 0

	if f.HasResources {
		f.HasResources = false
		for i := range f.Slots {
			s := &f.Slots[i]
			if s.Type == economy.ResourceNone {
				continue
			}
			waitingCount++
			if s.Dir.Valid() {
				continue
			}
			var err error
			if s.Dest != 0 {
				err = f.scheduleSlotToKnownDest(i, waiting)
			} else {
				err = f.scheduleSlotToUnknownDest(i)
			}
			if err != nil {
				return err
			}
		}
	}

	for _, d := range world.DirectionsCW {
		p := &f.Paths[d]
		if !p.Open {
			continue
		}
		switch {
		case p.Request == RequestPending:
			if p.FreeTransporters > 0 {
				p.HasTransporter = true
			}
		case p.FreeTransporters == 0 || waiting[2]&(1<<d) != 0:
			if p.FreeTransporters < f.MaxTransporters(d) && !f.SerfRequestFailed {
				if !f.callTransporter(d) {
					f.SerfRequestFailed = true
				}
			}
			if p.FreeTransporters > 0 {
				p.HasTransporter = true
			}
		case p.FreeTransporters > 0:
			p.HasTransporter = true
		}
	}
	return nil
}

// scheduleSlotToKnownDest routes a slot toward its destination flag,
// preferring roads with the fewest resources already queued.
func (f *Flag) scheduleSlotToKnownDest(slot int, waiting [4]uint8) error {
	search := f.g.NewFlagSearch()
	f.searchNum = search.ID()
	f.searchDir = world.DirNone
	tr := f.transporterBits()
	sources := 0

	addSources := func(bits uint8) {
		for k := 5; k >= 0; k-- {
			d := world.Direction(k)
			if bits&(1<<d) == 0 || !f.Paths[d].Open {
				continue
			}
			tr &^= 1 << d
			other, ok := f.g.Flag(f.Paths[d].OtherFlag)
			if !ok || other.searchNum == search.ID() {
				continue
			}
			other.searchDir = d
			search.AddSource(other)
			sources++
		}
	}

	// Idle roads first, then by how many resources are queued.
	if idle := (waiting[0] ^ 0x3f) & tr; idle != 0 {
		addSources(idle)
	}
	if tr != 0 {
		for j := 0; j < 3; j++ {
			addSources(waiting[j] ^ waiting[j+1])
		}
		if tr != 0 {
			addSources(waiting[3])
		}
	}

	if sources == 0 {
		f.HasResources = true
		return nil
	}

	s := &f.Slots[slot]
	dest, ok := f.g.Flag(s.Dest)
	if !ok {
		s.Dest = 0
		f.HasResources = true
		return nil
	}

	found := search.Execute(func(fl *Flag) bool {
		if fl != dest {
			return false
		}
		if d := fl.searchDir; d.Valid() {
			f.scheduleAlong(d, slot)
		}
		return true
	}, false, true)

	if !found || dest == f {
		if err := f.g.CancelTransportedResource(s.Type, s.Dest); err != nil {
			return fmt.Errorf("flag %d slot %d: %w", f.Index, slot, err)
		}
		slog.Debug("resource undeliverable", "flag", f.Index, "slot", slot, "resource", s.Type, "dest", s.Dest)
		s.Dest = 0
		f.HasResources = true
		return nil
	}
	f.g.observer.ResourceScheduled(true)
	return nil
}

// scheduleAlong routes slot along d. An existing pickup on d is replaced
// only by a resource of higher flag priority.
func (f *Flag) scheduleAlong(d world.Direction, slot int) {
	p := &f.Paths[d]
	if !p.Scheduled {
		p.Scheduled = true
		p.ScheduledSlot = slot
	} else if owner, ok := f.g.Player(f.Owner); ok {
		prioOld := owner.FlagPriority(f.Slots[p.ScheduledSlot].Type)
		prioNew := owner.FlagPriority(f.Slots[slot].Type)
		if prioNew > prioOld {
			p.ScheduledSlot = slot
		}
	}
	f.Slots[slot].Dir = d
}

// scheduleSlotToUnknownDest finds a destination for a resource: a
// building wanting it, else the nearest inventory. With neither, the
// resource is moved along any served road.
func (f *Flag) scheduleSlotToUnknownDest(slot int) error {
	s := &f.Slots[slot]
	if routable[s.Type] {
		kind := s.Type.StockKind()
		var best *Flag
		var bestBuilding *Building
		bestPrio := 0
		f.g.SearchSingle(f, func(fl *Flag) bool {
			if !fl.HasBuilding() {
				return false
			}
			b, ok := f.g.Building(fl.Building)
			if !ok {
				return false
			}
			if prio := b.MaxPriorityForResource(kind, 16); prio > bestPrio {
				bestPrio = prio
				best = fl
				bestBuilding = b
			}
			return bestPrio > unknownDestThreshold
		}, false, true)

		if best != nil {
			if !bestBuilding.AddRequestedResource(kind, true) {
				return fmt.Errorf("flag %d route %s to building %d: %w", f.Index, s.Type, bestBuilding.Index, ErrResourceRequest)
			}
			s.Dest = best.Index
			f.HasResources = true
			f.g.observer.ResourceScheduled(false)
			return nil
		}
	}

	r := f.FindNearestInventoryForResource()
	if r != 0 && r != f.Index {
		s.Dest = r
		f.HasResources = true
		f.g.observer.ResourceScheduled(false)
		return nil
	}

	if !f.Transporters() {
		f.HasResources = true
		return nil
	}
	dir := world.DirNone
	for _, d := range world.DirectionsCCW {
		if f.HasTransporter(d) && !f.IsScheduled(d) {
			dir = d
			break
		}
	}
	if dir == world.DirNone {
		for _, d := range world.DirectionsCCW {
			if f.HasTransporter(d) {
				dir = d
				break
			}
		}
	}
	if !f.IsScheduled(dir) {
		f.Paths[dir].Scheduled = true
		f.Paths[dir].ScheduledSlot = slot
	}
	s.Dir = dir
	return nil
}

// callTransporter asks the nearest inventory reachable from either end of
// the road for a transporter, or a sailor on water.
func (f *Flag) callTransporter(d world.Direction) bool {
	p := &f.Paths[d]
	other, ok := f.g.Flag(p.OtherFlag)
	if !ok {
		return false
	}
	want := agents.SerfTransporter
	if p.Water {
		want = agents.SerfSailor
	}

	search := f.g.NewFlagSearch()
	search.AddSource(f)
	search.AddSource(other)
	var source *economy.Inventory
	found := search.Execute(func(fl *Flag) bool {
		if !fl.AcceptsSerfs || !fl.HasBuilding() {
			return false
		}
		inv, ok := f.g.inventoryAtFlag(fl)
		if !ok {
			return false
		}
		if inv.HaveSerf(want) || inv.CanSpecialize(want) {
			source = inv
			return true
		}
		return false
	}, true, false)
	if !found {
		f.g.observer.TransporterCalled(false)
		return false
	}

	if !f.g.dispatchTransporter(source, f, d, want) {
		f.g.observer.TransporterCalled(false)
		return false
	}
	p.Request = RequestPending
	if p.OtherDir.Valid() {
		other.Paths[p.OtherDir].Request = RequestPending
	}
	f.g.observer.TransporterCalled(true)
	return true
}
