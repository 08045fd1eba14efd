package engine

import (
	"fmt"
	"log/slog"

	"github.com/talgya/serfworks/internal/agents"
	"github.com/talgya/serfworks/internal/economy"
	"github.com/talgya/serfworks/internal/world"
)

// minFreeGenerics is how many idle generic serfs an inventory keeps back
// when another inventory asks for generics.
const minFreeGenerics = 4

// SendSerfToFlag finds the nearest inventory reachable over land that can
// supply a serf of type t, training a generic serf with the tools if
// needed, and sends it to the building at flag. Returns false if no
// inventory can.
func (g *Game) SendSerfToFlag(flag FlagIndex, t agents.SerfType, tool1, tool2 economy.ResourceKind) bool {
	dest, ok := g.Flag(flag)
	if !ok {
		return false
	}
	b, hasBuilding := g.Building(dest.Building)
	if hasBuilding && b.Burning {
		return false
	}

	var source *economy.Inventory
	g.SearchSingle(dest, func(fl *Flag) bool {
		if !fl.AcceptsSerfs {
			return false
		}
		inv, ok := g.inventoryAtFlag(fl)
		if !ok {
			return false
		}
		if t == agents.SerfGeneric {
			if inv.FreeSerfCount() > minFreeGenerics {
				source = inv
				return true
			}
			return false
		}
		if inv.HaveSerf(t) {
			source = inv
			return true
		}
		if hasTool(inv, tool1) && hasTool(inv, tool2) && inv.CanSpecialize(t) {
			source = inv
			return true
		}
		return false
	}, true, false)
	if source == nil {
		return false
	}

	serf, err := g.callOut(source, t)
	if err != nil {
		slog.Warn("serf dispatch failed", "inventory", source.Index, "type", t, "error", err)
		return false
	}
	serf.GoOutFromInventory(source.Index, uint32(flag))
	if hasBuilding && t != agents.SerfGeneric {
		b.SerfRequestGranted()
	}
	slog.Debug("serf dispatched", "serf", serf.Index, "type", t, "from", source.Index, "flag", flag)
	return true
}

func hasTool(inv *economy.Inventory, tool economy.ResourceKind) bool {
	return tool == economy.ResourceNone || inv.CountOf(tool) > 0
}

// SendKnightToFlag sends the strongest available knight to the building at
// flag, training one from a generic serf if no knight is idle.
func (g *Game) SendKnightToFlag(flag FlagIndex) bool {
	dest, ok := g.Flag(flag)
	if !ok {
		return false
	}
	b, ok := g.Building(dest.Building)
	if !ok || b.Burning {
		return false
	}

	var source *economy.Inventory
	knight := agents.SerfNone
	g.SearchSingle(dest, func(fl *Flag) bool {
		if !fl.AcceptsSerfs {
			return false
		}
		inv, ok := g.inventoryAtFlag(fl)
		if !ok || inv.Index == uint32(b.Inventory) {
			return false
		}
		for t := agents.SerfKnight4; t >= agents.SerfKnight0; t-- {
			if inv.HaveSerf(t) {
				source, knight = inv, t
				return true
			}
		}
		if inv.CanSpecialize(agents.SerfKnight0) {
			source, knight = inv, agents.SerfKnight0
			return true
		}
		return false
	}, true, false)
	if source == nil {
		return false
	}

	serf, err := g.callOut(source, knight)
	if err != nil {
		slog.Warn("knight dispatch failed", "inventory", source.Index, "error", err)
		return false
	}
	serf.GoOutFromInventory(source.Index, uint32(flag))
	if !b.HasInventory() {
		b.KnightRequestGranted()
	}
	return true
}

// dispatchTransporter sends a transporter (or sailor) from inv to serve
// the road leaving f in direction d.
func (g *Game) dispatchTransporter(inv *economy.Inventory, f *Flag, d world.Direction, t agents.SerfType) bool {
	serf, err := g.callOut(inv, t)
	if err != nil {
		slog.Debug("transporter not available", "inventory", inv.Index, "flag", f.Index, "error", err)
		return false
	}
	serf.GoOutFromInventory(inv.Index, uint32(f.Index))
	serf.DestDir = d
	return true
}

// callOut takes an idle serf of type t out of inv, specializing a generic
// serf when none is idle.
func (g *Game) callOut(inv *economy.Inventory, t agents.SerfType) (*agents.Serf, error) {
	if !inv.HaveSerf(t) {
		idx, ok := inv.SpecializeFreeSerf(t)
		if !ok {
			return nil, fmt.Errorf("inventory %d specialize %s: %w", inv.Index, t, ErrMissingSerf)
		}
		if serf, ok := g.Serf(idx); ok {
			serf.Type = t
		}
	}
	idx, ok := inv.CallOutSerf(t)
	if !ok {
		return nil, fmt.Errorf("inventory %d call %s: %w", inv.Index, t, ErrMissingSerf)
	}
	serf, ok := g.Serf(idx)
	if !ok {
		return nil, fmt.Errorf("inventory %d serf %d: %w", inv.Index, idx, ErrMissingSerf)
	}
	if fl, ok := g.Flag(FlagIndex(inv.Flag)); ok {
		serf.Pos = fl.Pos
	}
	return serf, nil
}

// stayIdleInStock parks serf in inv.
func (g *Game) stayIdleInStock(serf *agents.Serf, inv *economy.Inventory) {
	if b, ok := g.Building(BuildingIndex(inv.Building)); ok {
		serf.Pos = b.Pos
	}
	inv.AddSerf(serf.Type, serf.Index)
	serf.StayIdleInStock(inv.Index)
}

// sendHome sends serf to the nearest inventory that takes serfs. A serf
// with nowhere to go is lost.
func (g *Game) sendHome(serf *agents.Serf) {
	from, ok := g.FlagAt(serf.Pos)
	if !ok {
		from, ok = g.FlagAt(serf.Pos.Move(world.DirDownRight))
	}
	var dest FlagIndex
	if ok {
		dest = from.FindNearestInventoryForSerf()
	}
	if dest == 0 {
		serf.State = agents.StateLost
		slog.Debug("serf lost", "serf", serf.Index, "type", serf.Type, "pos", serf.Pos)
		return
	}
	serf.ReturnTo(uint32(dest))
}

// updateSerfs lands every serf that was dispatched on an earlier tick.
func (g *Game) updateSerfs() error {
	for _, serf := range g.Serfs.All() {
		if !serf.IsTraveling() {
			continue
		}
		if err := g.serfArrived(serf); err != nil {
			return err
		}
	}
	return nil
}

func (g *Game) serfArrived(serf *agents.Serf) error {
	dest, ok := g.Flag(FlagIndex(serf.Dest))
	if !ok {
		serf.State = agents.StateLost
		return nil
	}
	serf.Pos = dest.Pos
	if inv, ok := g.Inventory(InventoryIndex(serf.Inventory)); ok && serf.State == agents.StateWalking {
		inv.SerfAway()
	}

	if serf.State == agents.StateReturning {
		inv, ok := g.inventoryAtFlag(dest)
		if !ok || !dest.AcceptsSerfs {
			g.sendHome(serf)
			return nil
		}
		g.stayIdleInStock(serf, inv)
		return nil
	}

	if serf.DestDir.Valid() {
		return g.transporterArrived(serf, dest)
	}

	b, ok := g.Building(dest.Building)
	if !ok || b.Burning {
		g.sendHome(serf)
		return nil
	}

	switch {
	case serf.Type == agents.SerfGeneric:
		inv, ok := g.inventoryAtFlag(dest)
		if !ok {
			g.sendHome(serf)
			return nil
		}
		g.stayIdleInStock(serf, inv)
	case serf.Type.IsKnight():
		return g.knightArrived(serf, b)
	default:
		g.workerArrived(serf, b)
	}
	return nil
}

func (g *Game) transporterArrived(serf *agents.Serf, f *Flag) error {
	d := serf.DestDir
	p := &f.Paths[d]
	if !p.Open || p.Request != RequestPending {
		g.sendHome(serf)
		return nil
	}
	other, ok := g.Flag(p.OtherFlag)
	if !ok {
		return fmt.Errorf("flag %d road %s: %w", f.Index, d, ErrMissingFlag)
	}
	f.CompleteSerfRequest(d)
	if p.OtherDir.Valid() {
		other.CompleteSerfRequest(p.OtherDir)
	}
	serf.ServeRoad(f.Pos, d)
	return nil
}

func (g *Game) knightArrived(serf *agents.Serf, b *Building) error {
	if b.HasInventory() {
		inv, ok := g.Inventory(b.Inventory)
		if !ok {
			return fmt.Errorf("building %d inventory %d: %w", b.Index, b.Inventory, ErrMissingInventory)
		}
		g.stayIdleInStock(serf, inv)
		return nil
	}
	if !b.IsMilitary() || !b.IsDone() {
		g.sendHome(serf)
		return nil
	}
	if err := b.RequestedKnightArrived(); err != nil {
		return err
	}
	serf.EnterBuilding(b.Pos)
	b.RequestedSerfReached(serf.Index)
	if err := b.SetFirstKnight(serf.Index); err != nil {
		return err
	}
	slog.Debug("knight arrived", "serf", serf.Index, "type", serf.Type, "building", b.Index)
	return nil
}

func (g *Game) workerArrived(serf *agents.Serf, b *Building) {
	if b.SerfRequest != RequestPending || b.Holder {
		g.sendHome(serf)
		return
	}
	serf.EnterBuilding(b.Pos)
	b.RequestedSerfReached(serf.Index)
	if b.IsDone() {
		if b.HasInventory() && serf.Type == agents.SerfTransporter {
			serf.Type = agents.SerfTransporterInventory
		}
		b.workerEntered()
	}
	slog.Debug("worker arrived", "serf", serf.Index, "type", serf.Type, "building", b.Index)
}

// workerEntered lays out the input stock a production building works from.
func (b *Building) workerEntered() {
	if b.HasInventory() || b.IsMilitary() {
		return
	}
	b.Active = true
	b.Tick = b.g.Tick
	for _, d := range productionDemands[b.Type] {
		if b.Stock[d.slot].Type != d.kind {
			b.StockInit(d.slot, d.kind, ProductionStockMaximum)
		}
	}
}

// releaseWorker sends the serf at the front of the roster home.
func (b *Building) releaseWorker() {
	if len(b.Knights) == 0 {
		return
	}
	idx := b.Knights[0]
	b.Knights = b.Knights[1:]
	if serf, ok := b.g.Serf(idx); ok {
		serf.Pos = b.Pos
		b.g.sendHome(serf)
	}
}
