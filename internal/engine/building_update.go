package engine

import (
	"fmt"
	"log/slog"

	"github.com/talgya/serfworks/internal/agents"
	"github.com/talgya/serfworks/internal/economy"
	"github.com/talgya/serfworks/internal/social"
	"github.com/talgya/serfworks/internal/world"
)

// Update runs one tick of the building. A burning building counts down
// and is removed when its timer runs out.
func (b *Building) Update(tick uint32) error {
	if b.Burning {
		delta := int(uint16(tick - b.Tick))
		b.Tick = tick
		if b.BurningCounter >= delta {
			b.BurningCounter -= delta
			return nil
		}
		return b.g.DeleteBuilding(b.Index)
	}
	if b.Constructing {
		return b.updateUnfinishedDispatch()
	}
	return b.updateFinished()
}

func (b *Building) updateFinished() error {
	b.requestSerfIfNeeded()

	switch b.Type {
	case BuildingStock:
		return b.updateStock()
	case BuildingHut, BuildingTower, BuildingFortress:
		return b.updateMilitary()
	case BuildingCastle:
		return b.updateCastle()
	}

	if b.Holder {
		p := b.player()
		for _, d := range productionDemands[b.Type] {
			b.Stock[d.slot].UpdatePriority(d.base(p))
		}
	}
	return nil
}

func (b *Building) updateUnfinishedDispatch() error {
	switch b.Type {
	case BuildingNone, BuildingCastle:
		return nil
	case BuildingFisher, BuildingLumberjack, BuildingBoatbuilder,
		BuildingStonecutter, BuildingStoneMine, BuildingCoalMine,
		BuildingIronMine, BuildingGoldMine, BuildingForester,
		BuildingHut, BuildingMill:
		b.updateUnfinished()
		return nil
	case BuildingStock, BuildingFarm, BuildingButcher, BuildingPigFarm,
		BuildingBaker, BuildingSawmill, BuildingSteelSmelter,
		BuildingToolMaker, BuildingWeaponSmith, BuildingTower,
		BuildingFortress, BuildingGoldSmelter:
		b.updateUnfinishedAdv()
		return nil
	}
	return fmt.Errorf("update building %d: %w", b.Index, ErrInvalidBuildingType)
}

// requestSerfIfNeeded asks for the worker of a finished building.
func (b *Building) requestSerfIfNeeded() {
	if b.SerfRequest != RequestNone || b.Holder {
		return
	}
	req := workerTable[b.Type]
	if req.serf == agents.SerfNone {
		return
	}
	if !b.sendSerfToBuilding(req.serf, req.tool1, req.tool2) {
		b.SerfRequest = RequestFailed
	}
}

func (b *Building) updateUnfinished() {
	if b.SerfRequest == RequestNone && !b.Holder {
		b.Progress = 1
		if !b.sendSerfToBuilding(agents.SerfBuilder, economy.ResourceHammer, economy.ResourceNone) {
			b.SerfRequest = RequestFailed
		}
	}

	p := b.player()
	planks := &b.Stock[0]
	planks.Priority = economy.ConstructionPriority(p.PlanksConstruction, planks.Total(), planks.Maximum, b.Holder)
	stones := &b.Stock[1]
	stones.Priority = economy.ConstructionPriority(economy.FixedPriorityBase, stones.Total(), stones.Maximum, b.Holder)
}

func (b *Building) updateUnfinishedAdv() {
	if b.Progress > 0 {
		b.updateUnfinished()
		return
	}
	if b.Holder || b.SerfRequest == RequestPending {
		return
	}

	if !b.g.needsLeveling(b.Pos) {
		b.Progress = 1
		b.updateUnfinished()
		return
	}

	if b.SerfRequest != RequestFailed {
		if !b.sendSerfToBuilding(agents.SerfDigger, economy.ResourceShovel, economy.ResourceNone) {
			b.SerfRequest = RequestFailed
		}
	}
}

func (b *Building) updateStock() error {
	p := b.player()
	if !b.Active {
		inv := b.g.CreateInventory(b.Owner)
		inv.Building = uint32(b.Index)
		inv.Flag = uint32(b.Flag)
		b.Inventory = InventoryIndex(inv.Index)
		for i := range b.Stock {
			b.Stock[i].Available = economy.UnlimitedStock
			b.Stock[i].Requested = economy.UnlimitedStock
		}
		b.Active = true
		if f, ok := b.g.Flag(b.Flag); ok {
			f.SetInventoryFlags(inv)
		}
		p.AddNotification(social.MessageNewStock, b.Pos, 0)
		slog.Info("stock online", "building", b.Index, "inventory", inv.Index)
		return nil
	}

	if b.SerfRequest == RequestNone && !b.Holder {
		if !b.sendSerfToBuilding(agents.SerfTransporter, economy.ResourceNone, economy.ResourceNone) {
			b.SerfRequest = RequestFailed
		}
	}
	if err := b.topUpGenerics(p); err != nil {
		return err
	}
	b.clearStaleFlagSerf()
	return nil
}

// topUpGenerics asks for a generic serf when an idle inventory has none.
func (b *Building) topUpGenerics(p *social.Player) error {
	if !b.Holder {
		return nil
	}
	inv, ok := b.g.Inventory(b.Inventory)
	if !ok {
		return fmt.Errorf("building %d inventory %d: %w", b.Index, b.Inventory, ErrMissingInventory)
	}
	if !inv.HaveAnyOutMode() && inv.FreeSerfCount() == 0 && p.TickSendGenericDelay() {
		b.sendSerfToBuilding(agents.SerfGeneric, economy.ResourceNone, economy.ResourceNone)
	}
	return nil
}

// clearStaleFlagSerf drops a map serf reference at the flag whose serf
// has moved on.
func (b *Building) clearStaleFlagSerf() {
	m := b.g.Map
	flagPos := b.FlagPos()
	if !m.HasSerf(flagPos) {
		return
	}
	serf, ok := b.g.Serf(agents.SerfIndex(m.SerfIndex(flagPos)))
	if !ok || serf.Pos != flagPos {
		m.SetSerfIndex(flagPos, 0)
	}
}

func (b *Building) updateMilitary() error {
	info, ok := militaryTable[b.Type]
	if !ok {
		return fmt.Errorf("update military %d (%s): %w", b.Index, b.Type, ErrNotMilitary)
	}
	p := b.player()
	needed := info.occupants[p.KnightOccupationLevel(b.ThreatLevel)]

	total := b.Stock[0].Total()
	present := b.Stock[0].Available
	if total < needed {
		if b.SerfRequest != RequestFailed {
			if !b.sendKnightToBuilding() {
				b.SerfRequest = RequestFailed
			}
		}
	} else if needed < present && !b.g.Map.HasSerf(b.FlagPos()) {
		if err := b.evictWeakestKnight(); err != nil {
			return err
		}
	}

	if b.Holder {
		p.IncreaseMilitaryMaxGold(info.maxGold)
		b.Stock[1].Priority = economy.GoldPriority(b.Stock[1].Total(), info.maxGold)
	}
	return nil
}

// evictWeakestKnight sends the first least trained knight out.
func (b *Building) evictWeakestKnight() error {
	var leaving *agents.Serf
	for _, idx := range b.Knights {
		serf, ok := b.g.Serf(idx)
		if !ok {
			return fmt.Errorf("building %d knight %d: %w", b.Index, idx, ErrMissingSerf)
		}
		if leaving == nil || serf.Type < leaving.Type {
			leaving = serf
		}
	}
	if leaving == nil {
		return nil
	}
	b.RemoveKnight(leaving.Index)
	leaving.GoOutFromBuilding()
	b.Stock[0].Available--
	b.g.sendHome(leaving)
	return nil
}

func (b *Building) updateCastle() error {
	p := b.player()
	inv, ok := b.g.Inventory(b.Inventory)
	if !ok {
		return fmt.Errorf("castle %d inventory %d: %w", b.Index, b.Inventory, ErrMissingInventory)
	}

	switch {
	case p.CastleKnights == p.CastleKnightsWanted:
		var weakest *agents.Serf
		for _, idx := range b.Knights {
			serf, ok := b.g.Serf(idx)
			if !ok {
				return fmt.Errorf("castle %d knight %d: %w", b.Index, idx, ErrMissingSerf)
			}
			if weakest == nil || serf.Type < weakest.Type {
				weakest = serf
			}
		}
		if weakest != nil {
			// Rotate the weakest knight to the back of the roster.
			b.RemoveKnight(weakest.Index)
			b.Knights = append(b.Knights, weakest.Index)
		}
	case p.CastleKnights < p.CastleKnightsWanted:
		knightType := agents.SerfNone
		for t := agents.SerfKnight4; t >= agents.SerfKnight0; t-- {
			if inv.HaveSerf(t) {
				knightType = t
				break
			}
		}
		if knightType != agents.SerfNone {
			idx, ok := inv.CallInternal(knightType)
			if !ok {
				return fmt.Errorf("castle %d promote %s: %w", b.Index, knightType, ErrMissingSerf)
			}
			b.Knights = append([]agents.SerfIndex{idx}, b.Knights...)
			p.IncreaseCastleKnights()
		} else if inv.CanSpecialize(agents.SerfKnight0) {
			idx, ok := inv.SpecializeFreeSerf(agents.SerfKnight0)
			if !ok {
				return fmt.Errorf("castle %d specialize knight: %w", b.Index, ErrMissingSerf)
			}
			serf, ok := b.g.Serf(idx)
			if !ok {
				return fmt.Errorf("castle %d knight %d: %w", b.Index, idx, ErrMissingSerf)
			}
			serf.Type = agents.SerfKnight0
			inv.CallInternalSerf(agents.SerfKnight0, idx)
			b.Knights = append([]agents.SerfIndex{idx}, b.Knights...)
			p.IncreaseCastleKnights()
		} else if p.TickSendKnightDelay() {
			b.sendKnightToBuilding()
		}
	default:
		if len(b.Knights) == 0 {
			return fmt.Errorf("castle %d demote: %w", b.Index, ErrEmptyKnightQueue)
		}
		p.DecreaseCastleKnights()
		idx := b.Knights[0]
		b.Knights = b.Knights[1:]
		serf, ok := b.g.Serf(idx)
		if !ok {
			return fmt.Errorf("castle %d knight %d: %w", b.Index, idx, ErrMissingSerf)
		}
		b.g.stayIdleInStock(serf, inv)
	}

	if err := b.topUpGenerics(p); err != nil {
		return err
	}
	b.clearStaleFlagSerf()
	return nil
}

// Threat bands by spiral ring, nearest first.
var threatRings = [3]struct{ from, to int }{
	{1, 7},
	{8, 9},
	{10, 11},
}

// UpdateMilitaryFlagState recomputes the threat level from foreign land in
// the rings around the building. The nearest ring with foreign land wins.
func (b *Building) UpdateMilitaryFlagState() {
	m := b.g.Map
	for i, band := range threatRings {
		level := 3 - i
		for k := band.from; k <= band.to; k++ {
			for j := world.RingStart(k); j < world.RingStart(k+1); j++ {
				pos := world.AddSpirally(b.Pos, j)
				if m.HasOwner(pos) && m.Owner(pos) != b.Owner {
					b.ThreatLevel = level
					return
				}
			}
		}
	}
	b.ThreatLevel = 0
}

// Burnup sets the building on fire. Side effects happen only on the first
// call; it always returns true.
func (b *Building) Burnup() bool {
	if b.Burning {
		return true
	}
	b.Burning = true
	g := b.g

	if !b.Constructing {
		switch b.Type {
		case BuildingHut, BuildingTower, BuildingFortress, BuildingGoldSmelter:
			g.AddGoldTotal(-b.Stock[1].Available)
		}
	}

	if !b.Constructing && b.Active && b.IsMilitary() {
		b.Active = false
		g.UpdateLandOwnership(b.Pos)
	}

	if !b.Constructing && (b.Type == BuildingCastle || b.Type == BuildingStock) {
		if b.Active && b.HasInventory() {
			g.DeleteInventory(b.Inventory)
			b.Inventory = 0
		}
		escaping := 0
		for _, serf := range g.SerfsAt(b.Pos) {
			if serf.BuildingDeleted(b.Pos, escaping < maxEscapingSerfs) {
				escaping++
			}
		}
	} else {
		b.Active = false
	}

	b.RemoveStock()
	b.PlayingSfx = false
	b.BurningCounter = burningTicks
	b.Tick = g.Tick

	p := b.player()
	if p != nil {
		p.BuildingDemolished(int(b.Type), b.Type.Score(), !b.Constructing, b.IsMilitary())
	}

	if b.Holder {
		b.Holder = false
		if !b.Constructing && b.Type == BuildingCastle {
			b.BurningCounter = castleBurningTicks
			for _, serf := range g.SerfsAt(b.Pos) {
				serf.CastleDeleted(b.Pos, true)
			}
		}
		if !b.Constructing && b.IsMilitary() {
			for _, idx := range b.Knights {
				if serf, ok := g.Serf(idx); ok {
					serf.CastleDeleted(b.Pos, false)
				}
			}
		} else if b.Type != BuildingCastle && len(b.Knights) > 0 {
			if serf, ok := g.Serf(b.Knights[0]); ok {
				if serf.Type == agents.SerfTransporterInventory {
					serf.Type = agents.SerfTransporter
				}
				serf.CastleDeleted(b.Pos, false)
			}
		}
	}

	flagPos := b.FlagPos()
	if f, ok := g.FlagAt(flagPos); ok && g.Map.Paths(flagPos) == 0 {
		if f.Building == b.Index {
			f.UnlinkBuilding()
		}
		if err := g.DemolishFlag(flagPos); err != nil {
			slog.Debug("flag not demolished", "pos", flagPos, "error", err)
		}
	}

	g.observer.BuildingBurned(b.Type)
	slog.Info("building burning", "building", b.Index, "type", b.Type, "counter", b.BurningCounter)
	return true
}
