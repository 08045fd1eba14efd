package engine

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/talgya/serfworks/internal/agents"
	"github.com/talgya/serfworks/internal/economy"
	"github.com/talgya/serfworks/internal/social"
	"github.com/talgya/serfworks/internal/world"
)

// InventoryIndex identifies an inventory in the game arena. 0 means none.
type InventoryIndex uint32

// DefaultRetryInterval is how often sticky request failures are cleared.
const DefaultRetryInterval = 256

// Game owns every entity of a running economy. Entities refer to each
// other by index and are resolved through the game.
type Game struct {
	ID   uuid.UUID `json:"id"`
	Tick uint32    `json:"tick"`

	Map     *world.Map       `json:"-"`
	Players []*social.Player `json:"players"`

	Buildings   *Collection[BuildingIndex, Building]           `json:"-"`
	Flags       *Collection[FlagIndex, Flag]                   `json:"-"`
	Inventories *Collection[InventoryIndex, economy.Inventory] `json:"-"`
	Serfs       *Collection[agents.SerfIndex, agents.Serf]     `json:"-"`

	// GoldTotal is the gold held across all inventories and garrisons.
	GoldTotal int `json:"gold_total"`

	// RetryInterval is the tick period at which failed requests are retried.
	RetryInterval uint32 `json:"retry_interval"`

	searchCounter uint32
	observer      Observer
}

// NewGame creates an empty game on a flat map with the given players.
func NewGame(radius int, players []string) *Game {
	g := &Game{
		ID:            uuid.New(),
		Map:           world.NewMap(radius),
		Buildings:     NewCollection[BuildingIndex, Building](),
		Flags:         NewCollection[FlagIndex, Flag](),
		Inventories:   NewCollection[InventoryIndex, economy.Inventory](),
		Serfs:         NewCollection[agents.SerfIndex, agents.Serf](),
		RetryInterval: DefaultRetryInterval,
		observer:      nopObserver{},
	}
	for i, name := range players {
		g.Players = append(g.Players, social.NewPlayer(i, name))
	}
	return g
}

// SetObserver installs an event observer. nil restores the no-op observer.
func (g *Game) SetObserver(o Observer) {
	if o == nil {
		o = nopObserver{}
	}
	g.observer = o
}

// Player resolves a player index.
func (g *Game) Player(i social.PlayerIndex) (*social.Player, bool) {
	if i < 0 || i >= len(g.Players) {
		return nil, false
	}
	return g.Players[i], true
}

// Building resolves a building index.
func (g *Game) Building(i BuildingIndex) (*Building, bool) {
	return g.Buildings.Get(i)
}

// Flag resolves a flag index.
func (g *Game) Flag(i FlagIndex) (*Flag, bool) {
	return g.Flags.Get(i)
}

// Inventory resolves an inventory index.
func (g *Game) Inventory(i InventoryIndex) (*economy.Inventory, bool) {
	return g.Inventories.Get(i)
}

// Serf resolves a serf index.
func (g *Game) Serf(i agents.SerfIndex) (*agents.Serf, bool) {
	return g.Serfs.Get(i)
}

// BuildingAt returns the building at pos.
func (g *Game) BuildingAt(pos world.HexCoord) (*Building, bool) {
	obj, idx := g.Map.Object(pos)
	if obj != world.ObjectSmallBuilding && obj != world.ObjectLargeBuilding && obj != world.ObjectCastle {
		return nil, false
	}
	return g.Building(BuildingIndex(idx))
}

// FlagAt returns the flag at pos.
func (g *Game) FlagAt(pos world.HexCoord) (*Flag, bool) {
	obj, idx := g.Map.Object(pos)
	if obj != world.ObjectFlag {
		return nil, false
	}
	return g.Flag(FlagIndex(idx))
}

// SerfsAt returns the serfs standing at pos in index order.
func (g *Game) SerfsAt(pos world.HexCoord) []*agents.Serf {
	var out []*agents.Serf
	for _, s := range g.Serfs.All() {
		if s.Pos == pos {
			out = append(out, s)
		}
	}
	return out
}

// inventoryAtFlag resolves the inventory of the building behind fl.
func (g *Game) inventoryAtFlag(fl *Flag) (*economy.Inventory, bool) {
	if !fl.HasInventory {
		return nil, false
	}
	b, ok := g.Building(fl.Building)
	if !ok || !b.HasInventory() {
		return nil, false
	}
	return g.Inventory(b.Inventory)
}

// AddGoldTotal adjusts the global gold ledger.
func (g *Game) AddGoldTotal(delta int) {
	g.GoldTotal += delta
}

// CreateInventory allocates an empty inventory for owner.
func (g *Game) CreateInventory(owner social.PlayerIndex) *economy.Inventory {
	idx, slot := g.Inventories.Allocate()
	*slot = *economy.NewInventory(uint32(idx))
	slot.Owner = owner
	return slot
}

// DeleteInventory cancels queued deliveries, removes the inventory's gold
// from the ledger and frees it.
func (g *Game) DeleteInventory(i InventoryIndex) {
	inv, ok := g.Inventory(i)
	if !ok {
		return
	}
	for _, q := range inv.OutQueue {
		if q.Type != economy.ResourceNone && q.Dest != 0 {
			if err := g.CancelTransportedResource(q.Type, FlagIndex(q.Dest)); err != nil {
				slog.Warn("queued delivery not cancelled", "inventory", i, "error", err)
			}
		}
	}
	g.AddGoldTotal(-inv.CountOf(economy.ResourceGoldBar))
	if fl, ok := g.Flag(FlagIndex(inv.Flag)); ok {
		fl.ClearInventoryFlags()
	}
	g.Inventories.Erase(i)
}

// SetInventoryModes changes an inventory's modes and its flag's bits.
func (g *Game) SetInventoryModes(i InventoryIndex, res, serfs economy.InventoryMode) error {
	inv, ok := g.Inventory(i)
	if !ok {
		return fmt.Errorf("inventory %d: %w", i, ErrMissingInventory)
	}
	inv.ResMode = res
	inv.SerfMode = serfs
	if fl, ok := g.Flag(FlagIndex(inv.Flag)); ok {
		fl.SetInventoryFlags(inv)
	}
	return nil
}

// CancelTransportedResource tells the building at dest that res will not
// arrive.
func (g *Game) CancelTransportedResource(res economy.ResourceKind, dest FlagIndex) error {
	fl, ok := g.Flag(dest)
	if !ok || !fl.HasBuilding() || fl.HasInventory {
		return nil
	}
	b, ok := g.Building(fl.Building)
	if !ok {
		return nil
	}
	return b.CancelTransportedResource(res)
}

// CreateSerf allocates a serf of type t owned by owner.
func (g *Game) CreateSerf(owner social.PlayerIndex, t agents.SerfType) *agents.Serf {
	idx, s := g.Serfs.Allocate()
	s.Index = idx
	s.Owner = owner
	s.Type = t
	s.DestDir = world.DirNone
	return s
}

// BuildFlag places a flag at pos.
func (g *Game) BuildFlag(pos world.HexCoord, owner social.PlayerIndex) (*Flag, error) {
	if !g.Map.InBounds(pos) {
		return nil, fmt.Errorf("flag at %s: %w", pos, ErrInvalidPosition)
	}
	if obj, _ := g.Map.Object(pos); obj != world.ObjectNone {
		return nil, fmt.Errorf("flag at %s: %w", pos, ErrPositionOccupied)
	}
	idx, f := g.Flags.Allocate()
	f.init(g, idx, pos, owner)
	g.Map.SetObject(pos, world.ObjectFlag, uint32(idx))
	return f, nil
}

// BuildBuilding starts a construction site of type t at pos, placing its
// flag down-right of it if there is none yet.
func (g *Game) BuildBuilding(pos world.HexCoord, t BuildingType, owner social.PlayerIndex) (*Building, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("build %d at %s: %w", t, pos, ErrInvalidBuildingType)
	}
	if !g.Map.InBounds(pos) {
		return nil, fmt.Errorf("build %s at %s: %w", t, pos, ErrInvalidPosition)
	}
	if obj, _ := g.Map.Object(pos); obj != world.ObjectNone {
		return nil, fmt.Errorf("build %s at %s: %w", t, pos, ErrPositionOccupied)
	}
	flagPos := pos.Move(world.DirDownRight)
	f, ok := g.FlagAt(flagPos)
	if !ok {
		var err error
		if f, err = g.BuildFlag(flagPos, owner); err != nil {
			return nil, fmt.Errorf("build %s at %s: %w", t, pos, err)
		}
	} else if f.HasBuilding() {
		return nil, fmt.Errorf("build %s at %s: flag %d: %w", t, pos, f.Index, ErrPositionOccupied)
	}

	idx, b := g.Buildings.Allocate()
	b.g = g
	b.Index = idx
	b.Pos = pos
	b.Owner = owner
	obj, err := b.StartBuilding(t)
	if err != nil {
		g.Buildings.Erase(idx)
		return nil, err
	}
	f.LinkBuilding(b)
	g.Map.SetObject(pos, obj, uint32(idx))
	if p, ok := g.Player(owner); ok {
		p.BuildingStarted(int(t))
	}
	slog.Debug("building started", "building", idx, "type", t, "pos", pos)
	return b, nil
}

// BuildCastle places a finished castle with a stocked inventory, its
// transporter and an initial workforce.
func (g *Game) BuildCastle(pos world.HexCoord, owner social.PlayerIndex, supplies, serfs int) (*Building, error) {
	b, err := g.BuildBuilding(pos, BuildingCastle, owner)
	if err != nil {
		return nil, err
	}
	inv := g.CreateInventory(owner)
	inv.Building = uint32(b.Index)
	inv.Flag = uint32(b.Flag)
	inv.ApplySuppliesPreset(supplies)
	b.Inventory = InventoryIndex(inv.Index)
	g.AddGoldTotal(inv.CountOf(economy.ResourceGoldBar))

	for !b.BuildProgress() {
	}
	if p, ok := g.Player(owner); ok {
		p.BuildingBuilt(int(BuildingCastle), BuildingCastle.Score(), false)
	}
	if f, ok := g.Flag(b.Flag); ok {
		f.SetInventoryFlags(inv)
	}

	// The inventory transporter lives in the building but not in the
	// knight roster.
	holder := g.CreateSerf(owner, agents.SerfTransporterInventory)
	holder.EnterBuilding(pos)

	for range serfs {
		s := g.CreateSerf(owner, agents.SerfGeneric)
		g.stayIdleInStock(s, inv)
	}
	g.UpdateLandOwnership(pos)
	slog.Info("castle built", "building", b.Index, "owner", owner, "pos", pos, "supplies", supplies)
	return b, nil
}

// BuildRoad lays a road from the flag at from along dirs. The road must
// end at another flag and may not cross objects or other roads.
func (g *Game) BuildRoad(from FlagIndex, dirs []world.Direction, water bool) error {
	src, ok := g.Flag(from)
	if !ok {
		return fmt.Errorf("road from %d: %w", from, ErrMissingFlag)
	}
	if len(dirs) == 0 || src.HasPath(dirs[0]) {
		return fmt.Errorf("road from %d: %w", from, ErrNoPath)
	}
	pos := src.Pos
	for i, d := range dirs {
		pos = pos.Move(d)
		if !g.Map.InBounds(pos) {
			return fmt.Errorf("road from %d: %w", from, ErrInvalidPosition)
		}
		obj, _ := g.Map.Object(pos)
		last := i == len(dirs)-1
		if last {
			if obj != world.ObjectFlag {
				return fmt.Errorf("road from %d ends at %s: %w", from, pos, ErrNoPath)
			}
		} else if obj != world.ObjectNone || g.Map.Paths(pos) != 0 {
			return fmt.Errorf("road from %d crosses %s: %w", from, pos, ErrPositionOccupied)
		}
	}
	dest, _ := g.FlagAt(pos)
	inDir := dirs[len(dirs)-1].Reverse()
	if dest == src || dest.HasPath(inDir) {
		return fmt.Errorf("road from %d to %d: %w", from, dest.Index, ErrNoPath)
	}

	pos = src.Pos
	for _, d := range dirs {
		g.Map.AddPath(pos, d)
		pos = pos.Move(d)
		g.Map.AddPath(pos, d.Reverse())
	}
	src.LinkWithFlag(dest, water, len(dirs), inDir, dirs[0])
	slog.Debug("road built", "from", src.Index, "to", dest.Index, "length", len(dirs))
	return nil
}

// DeleteBuilding removes a building whose fire burnt out, or any building
// outright.
func (g *Game) DeleteBuilding(i BuildingIndex) error {
	b, ok := g.Building(i)
	if !ok {
		return fmt.Errorf("delete building %d: %w", i, ErrMissingBuilding)
	}
	if !b.Burning {
		b.Burnup()
	}
	if f, ok := g.Flag(b.Flag); ok && f.Building == i {
		f.UnlinkBuilding()
	}
	if obj, idx := g.Map.Object(b.Pos); obj != world.ObjectNone && obj != world.ObjectFlag && BuildingIndex(idx) == i {
		g.Map.SetObject(b.Pos, world.ObjectNone, 0)
	}
	g.Buildings.Erase(i)
	g.observer.BuildingRemoved(b.Type)
	slog.Info("building removed", "building", i, "type", b.Type)
	return nil
}

// DemolishFlag removes the flag at pos and any resources waiting there.
func (g *Game) DemolishFlag(pos world.HexCoord) error {
	f, ok := g.FlagAt(pos)
	if !ok {
		return fmt.Errorf("demolish flag at %s: %w", pos, ErrMissingFlag)
	}
	if !f.CanDemolish() {
		return fmt.Errorf("demolish flag %d: %w", f.Index, ErrFlagInUse)
	}
	if err := f.RemoveAllResources(); err != nil {
		return err
	}
	for _, inv := range g.Inventories.All() {
		inv.ResetQueueForDest(uint32(f.Index))
	}
	for _, other := range g.Flags.All() {
		if other != f {
			other.ResetTransport(f)
		}
	}
	g.Map.SetObject(pos, world.ObjectNone, 0)
	g.Flags.Erase(f.Index)
	return nil
}

// BuildingCaptured hands the flag of a newly occupied building to its
// owner and redraws the borders.
func (g *Game) BuildingCaptured(b *Building) {
	if f, ok := g.Flag(b.Flag); ok && f.Owner != b.Owner {
		f.Owner = b.Owner
		f.ResetDestinationOfStolenResources()
	}
	g.UpdateLandOwnership(b.Pos)
}

// Update advances the game one tick. Buildings run first so that flag
// scheduling sees this tick's priorities. The first fault stops the tick
// and is returned.
func (g *Game) Update() error {
	g.Tick++
	for _, p := range g.Players {
		p.BeginTick()
	}

	if err := g.updateSerfs(); err != nil {
		return fmt.Errorf("tick %d serfs: %w", g.Tick, err)
	}
	for _, b := range g.Buildings.All() {
		if err := b.Update(g.Tick); err != nil {
			return fmt.Errorf("tick %d: %w", g.Tick, err)
		}
	}
	if err := g.dispatchResources(); err != nil {
		return fmt.Errorf("tick %d dispatch: %w", g.Tick, err)
	}
	g.releaseQueues()
	for _, f := range g.Flags.All() {
		if err := f.Update(); err != nil {
			return fmt.Errorf("tick %d: %w", g.Tick, err)
		}
	}
	if err := g.transportResources(); err != nil {
		return fmt.Errorf("tick %d transport: %w", g.Tick, err)
	}
	g.updateWork()

	if g.RetryInterval > 0 && g.Tick%g.RetryInterval == 0 {
		g.clearRequestFailures()
	}
	g.observer.TickCompleted(g.Tick, g.Buildings.Len(), g.Flags.Len())
	return nil
}

// clearRequestFailures lets failed serf and transporter requests retry.
func (g *Game) clearRequestFailures() {
	for _, b := range g.Buildings.All() {
		b.ClearSerfRequestFailure()
	}
	for _, f := range g.Flags.All() {
		f.ClearSerfRequestFailure()
	}
}
