package engine

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/talgya/serfworks/internal/economy"
	"github.com/talgya/serfworks/internal/world"
)

// foodKinds is the order inventories hand out food for a food group slot.
var foodKinds = [...]economy.ResourceKind{
	economy.ResourceFish,
	economy.ResourceMeat,
	economy.ResourceBread,
}

// resourceRequest is one stock slot asking to be filled.
type resourceRequest struct {
	building *Building
	slot     int
	priority int
}

// dispatchResources serves open stock slots, highest priority first, from
// the nearest inventory holding the resource. At most one unit per slot is
// queued each tick.
func (g *Game) dispatchResources() error {
	var requests []resourceRequest
	for _, b := range g.Buildings.All() {
		if b.Burning || b.HasInventory() {
			continue
		}
		for i, s := range b.Stock {
			if s.Type == economy.ResourceNone || s.Priority <= 0 || s.Full() {
				continue
			}
			requests = append(requests, resourceRequest{b, i, s.Priority})
		}
	}
	slices.SortStableFunc(requests, func(a, b resourceRequest) int {
		return cmp.Compare(b.priority, a.priority)
	})

	for _, r := range requests {
		if err := g.serveRequest(r); err != nil {
			return err
		}
	}
	return nil
}

func (g *Game) serveRequest(r resourceRequest) error {
	b := r.building
	want := b.Stock[r.slot].Type
	dest, ok := g.Flag(b.Flag)
	if !ok {
		return fmt.Errorf("building %d flag %d: %w", b.Index, b.Flag, ErrMissingFlag)
	}

	var source *economy.Inventory
	kind := economy.ResourceNone
	g.SearchSingle(dest, func(fl *Flag) bool {
		inv, ok := g.inventoryAtFlag(fl)
		if !ok || inv.IsQueueFull() {
			return false
		}
		if k := pickKind(inv, want); k != economy.ResourceNone {
			source, kind = inv, k
			return true
		}
		return false
	}, false, true)
	if source == nil {
		return nil
	}

	if !source.AddToQueue(kind, uint32(dest.Index)) {
		return nil
	}
	if !b.AddRequestedResource(kind, false) {
		return fmt.Errorf("building %d request %s: %w", b.Index, kind, ErrResourceRequest)
	}
	return nil
}

// pickKind returns the concrete resource inv hands out for want.
func pickKind(inv *economy.Inventory, want economy.ResourceKind) economy.ResourceKind {
	if want != economy.ResourceGroupFood {
		if inv.CountOf(want) > 0 {
			return want
		}
		return economy.ResourceNone
	}
	for _, k := range foodKinds {
		if inv.CountOf(k) > 0 {
			return k
		}
	}
	return economy.ResourceNone
}

// releaseQueues moves the head of every inventory out queue onto its flag.
func (g *Game) releaseQueues() {
	for _, inv := range g.Inventories.All() {
		if !inv.HasResourceInQueue() {
			continue
		}
		fl, ok := g.Flag(FlagIndex(inv.Flag))
		if !ok || !fl.HasEmptySlot() {
			continue
		}
		entry, _ := inv.ResourceFromQueue()
		fl.DropResource(entry.Type, FlagIndex(entry.Dest))
	}
}

// transportResources carries every scheduled pickup one road further. A
// resource reaching its destination flag is handed to the building.
func (g *Game) transportResources() error {
	for _, f := range g.Flags.All() {
		for _, d := range world.DirectionsCW {
			if err := g.carry(f, d); err != nil {
				return err
			}
		}
	}
	return nil
}

func (g *Game) carry(f *Flag, d world.Direction) error {
	p := &f.Paths[d]
	if !p.Open || !p.HasTransporter || !p.Scheduled {
		return nil
	}
	other, ok := g.Flag(p.OtherFlag)
	if !ok {
		return fmt.Errorf("flag %d road %s: %w", f.Index, d, ErrMissingFlag)
	}
	slot := f.Slots[p.ScheduledSlot]
	delivering := slot.Dest == other.Index && other.HasBuilding()
	if !delivering && !other.HasEmptySlot() {
		return nil
	}

	res, dest, err := f.PickUpResource(p.ScheduledSlot, d)
	if err != nil {
		return err
	}
	if !delivering {
		other.DropResource(res, dest)
		return nil
	}
	b, ok := g.Building(other.Building)
	if !ok {
		return fmt.Errorf("flag %d building %d: %w", other.Index, other.Building, ErrMissingBuilding)
	}
	if err := b.RequestedResourceDelivered(res); err != nil {
		return err
	}
	g.observer.ResourceDelivered()
	return nil
}
