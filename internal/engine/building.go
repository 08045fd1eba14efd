package engine

import (
	"fmt"
	"log/slog"

	"github.com/talgya/serfworks/internal/agents"
	"github.com/talgya/serfworks/internal/economy"
	"github.com/talgya/serfworks/internal/social"
	"github.com/talgya/serfworks/internal/world"
)

// BuildingIndex identifies a building in the game arena. 0 means none.
type BuildingIndex uint32

// RequestState tracks an outstanding serf request. Failed is sticky until
// cleared.
type RequestState uint8

const (
	RequestNone RequestState = iota
	RequestPending
	RequestFailed
)

func (s RequestState) String() string {
	switch s {
	case RequestNone:
		return "none"
	case RequestPending:
		return "pending"
	case RequestFailed:
		return "failed"
	}
	return fmt.Sprintf("request(%d)", uint8(s))
}

const (
	burningTicks       = 2047
	castleBurningTicks = 8191
	maxEscapingSerfs   = 12
	// progressFrameFinished marks the second construction phase.
	progressFrameFinished = 0x8000
)

// Building is a structure that produces, consumes or garrisons.
type Building struct {
	Index BuildingIndex      `json:"index"`
	Pos   world.HexCoord     `json:"pos"`
	Owner social.PlayerIndex `json:"owner"`
	Type  BuildingType       `json:"type"`

	Constructing bool         `json:"constructing"`
	Active       bool         `json:"active"`
	Holder       bool         `json:"holder"`
	Burning      bool         `json:"burning"`
	PlayingSfx   bool         `json:"playing_sfx"`
	SerfRequest  RequestState `json:"serf_request"`
	ThreatLevel  int          `json:"threat_level"`

	// Progress counts construction, or the mining history once finished.
	Progress       int    `json:"progress"`
	Level          int    `json:"level"`
	Tick           uint32 `json:"tick"`
	BurningCounter int    `json:"burning_counter"`

	Stock [2]economy.StockSlot `json:"stock"`

	// Knights lists resident serfs: the garrison, or the worker at index 0.
	Knights   []agents.SerfIndex `json:"knights"`
	Inventory InventoryIndex     `json:"inventory"`
	Flag      FlagIndex          `json:"flag"`

	g *Game
}

// IsDone reports whether construction has finished.
func (b *Building) IsDone() bool { return !b.Constructing }

// IsLeveling reports whether the site is still waiting for level ground.
func (b *Building) IsLeveling() bool { return b.Constructing && b.Progress == 0 }

// IsMilitary reports whether the building holds a knight garrison.
func (b *Building) IsMilitary() bool { return b.Type.IsMilitary() }

// HasInventory reports whether the building carries an inventory.
func (b *Building) HasInventory() bool { return b.Inventory != 0 }

// HasKnight reports whether anyone is in the roster.
func (b *Building) HasKnight() bool { return len(b.Knights) > 0 }

// SerfRequested reports whether a worker is on its way.
func (b *Building) SerfRequested() bool { return b.SerfRequest == RequestPending }

// SerfRequestFailed reports whether the last request failed.
func (b *Building) SerfRequestFailed() bool { return b.SerfRequest == RequestFailed }

// ClearSerfRequestFailure re-enables requests after a failure.
func (b *Building) ClearSerfRequestFailure() {
	if b.SerfRequest == RequestFailed {
		b.SerfRequest = RequestNone
	}
}

// FlagPos is the position of the flag in front of the building.
func (b *Building) FlagPos() world.HexCoord {
	return b.Pos.Move(world.DirDownRight)
}

func (b *Building) player() *social.Player {
	p, _ := b.g.Player(b.Owner)
	return p
}

// StartBuilding turns a fresh site into a construction site of type t and
// returns the map object it occupies.
func (b *Building) StartBuilding(t BuildingType) (world.Object, error) {
	if !t.Valid() {
		return world.ObjectNone, fmt.Errorf("start building %d: %w", t, ErrInvalidBuildingType)
	}
	b.Type = t
	b.Constructing = true
	info := constructionTable[t]
	if info.obj == world.ObjectLargeBuilding {
		b.Progress = 0
	} else {
		b.Progress = 1
	}

	if t == BuildingCastle {
		b.Active = true
		b.Holder = true
		for i := range b.Stock {
			b.Stock[i].Available = economy.UnlimitedStock
			b.Stock[i].Requested = economy.UnlimitedStock
		}
	} else {
		b.StockInit(0, economy.ResourcePlank, info.planks)
		b.StockInit(1, economy.ResourceStone, info.stones)
	}
	return info.obj, nil
}

// StockInit sets slot n to hold up to maximum units of res.
func (b *Building) StockInit(n int, res economy.ResourceKind, maximum int) {
	b.Stock[n].Type = res
	b.Stock[n].Priority = 0
	b.Stock[n].Maximum = maximum
}

// DoneLeveling marks the ground as level and releases the digger.
func (b *Building) DoneLeveling() {
	b.Progress = 1
	b.Holder = false
}

// BuildProgress advances construction one step. It returns true when the
// building has just been finished.
func (b *Building) BuildProgress() bool {
	info := constructionTable[b.Type]
	if b.Progress&progressFrameFinished == 0 {
		b.Progress += info.phase1
	} else {
		b.Progress += info.phase2
	}
	if b.Progress <= 0xffff {
		return false
	}

	b.Progress = 0
	b.Constructing = false
	if b.Type == BuildingCastle {
		return true
	}

	b.Holder = false
	if b.IsMilitary() {
		b.UpdateMilitaryFlagState()
	}
	b.StockInit(0, economy.ResourceNone, 0)
	b.StockInit(1, economy.ResourceNone, 0)
	if f, ok := b.g.Flag(b.Flag); ok {
		f.ClearInventoryFlags()
	}
	if p := b.player(); p != nil {
		p.BuildingBuilt(int(b.Type), b.Type.Score(), b.IsMilitary())
	}
	b.g.observer.BuildingFinished(b.Type)
	slog.Info("building finished", "building", b.Index, "type", b.Type, "owner", b.Owner)
	return true
}

// PlankUsedForBuild consumes a delivered plank into the structure.
func (b *Building) PlankUsedForBuild() {
	b.Stock[0].Available--
	b.Stock[0].Maximum--
}

// StoneUsedForBuild consumes a delivered stone into the structure.
func (b *Building) StoneUsedForBuild() {
	b.Stock[1].Available--
	b.Stock[1].Maximum--
}

// IncreaseMining shifts a mining attempt into the progress history and
// reports an exhausted mine once a full history of misses has passed.
func (b *Building) IncreaseMining(res int) {
	b.Active = true
	if b.Progress == progressFrameFinished {
		if p := b.player(); p != nil {
			p.AddNotification(social.MessageMineEmpty, b.Pos, int(b.Type-BuildingStoneMine))
		}
	}
	b.Progress = (b.Progress << 1) & 0xffff
	if res > 0 {
		b.Progress++
	}
}

// MilitaryGoldCount returns the gold held by a garrison.
func (b *Building) MilitaryGoldCount() int {
	if !b.IsMilitary() {
		return 0
	}
	count := 0
	for _, s := range b.Stock {
		if s.Type == economy.ResourceGoldBar {
			count += s.Available
		}
	}
	return count
}

// CancelTransportedResource withdraws a request for a resource that will
// not arrive.
func (b *Building) CancelTransportedResource(res economy.ResourceKind) error {
	res = res.StockKind()
	for i := range b.Stock {
		if b.Stock[i].Type == res {
			if err := b.Stock[i].CancelRequest(); err != nil {
				return fmt.Errorf("building %d: %w", b.Index, err)
			}
			return nil
		}
	}
	return nil
}

// AddRequestedResource counts a resource routed to this building. It
// returns false if no slot takes res.
func (b *Building) AddRequestedResource(res economy.ResourceKind, fixPriority bool) bool {
	res = res.StockKind()
	for i := range b.Stock {
		if b.Stock[i].Type == res {
			b.Stock[i].AddRequest(fixPriority)
			return true
		}
	}
	return false
}

// RequestedResourceDelivered books an arriving resource.
func (b *Building) RequestedResourceDelivered(res economy.ResourceKind) error {
	if b.Burning {
		return nil
	}
	if b.HasInventory() {
		inv, ok := b.g.Inventory(b.Inventory)
		if !ok {
			return fmt.Errorf("building %d inventory %d: %w", b.Index, b.Inventory, ErrMissingInventory)
		}
		inv.PushResource(res)
		return nil
	}
	kind := res.StockKind()
	for i := range b.Stock {
		if b.Stock[i].Type == kind {
			if err := b.Stock[i].Deliver(); err != nil {
				return fmt.Errorf("building %d: %w", b.Index, err)
			}
			return nil
		}
	}
	return fmt.Errorf("building %d got %s: %w", b.Index, res, economy.ErrUnexpectedResource)
}

// RemoveStock clears both slots' counters.
func (b *Building) RemoveStock() {
	for i := range b.Stock {
		b.Stock[i].Available = 0
		b.Stock[i].Requested = 0
	}
}

// MaxPriorityForResource returns the highest slot priority for res that is
// at least minimum, or -1.
func (b *Building) MaxPriorityForResource(res economy.ResourceKind, minimum int) int {
	best := -1
	for _, s := range b.Stock {
		if s.Type == res && s.Priority >= minimum && s.Priority > best {
			best = s.Priority
		}
	}
	return best
}

// UseResourceInStock consumes one unit from slot n.
func (b *Building) UseResourceInStock(n int) bool {
	return b.Stock[n].Use()
}

// UseResourcesInStocks consumes one unit from each slot, or nothing.
func (b *Building) UseResourcesInStocks() bool {
	if b.Stock[0].Available > 0 && b.Stock[1].Available > 0 {
		b.Stock[0].Available--
		b.Stock[1].Available--
		return true
	}
	return false
}

// SerfRequestGranted records that a worker is on its way.
func (b *Building) SerfRequestGranted() {
	b.SerfRequest = RequestPending
}

// RequestedSerfLost undoes a request whose serf will not arrive.
func (b *Building) RequestedSerfLost() {
	if b.SerfRequest == RequestPending {
		b.SerfRequest = RequestNone
	} else if !b.HasInventory() && b.Stock[0].Requested > 0 {
		b.Stock[0].Requested--
	}
}

// RequestedSerfReached installs an arriving worker.
func (b *Building) RequestedSerfReached(serf agents.SerfIndex) {
	b.Holder = true
	if b.SerfRequest == RequestPending {
		b.Knights = append(b.Knights, serf)
	}
	b.SerfRequest = RequestNone
}

// KnightRequestGranted counts a knight dispatched to the garrison.
func (b *Building) KnightRequestGranted() {
	b.Stock[0].Requested++
	if b.SerfRequest == RequestPending {
		b.SerfRequest = RequestNone
	}
}

// RequestedKnightArrived moves an arriving knight from requested to present.
func (b *Building) RequestedKnightArrived() error {
	if err := b.Stock[0].Deliver(); err != nil {
		return fmt.Errorf("building %d knight arrival: %w", b.Index, err)
	}
	return nil
}

// sendSerfToBuilding asks the game for a serf of type t carrying the tools.
func (b *Building) sendSerfToBuilding(t agents.SerfType, tool1, tool2 economy.ResourceKind) bool {
	ok := b.g.SendSerfToFlag(b.Flag, t, tool1, tool2)
	b.g.observer.SerfRequested(ok)
	return ok
}

// sendKnightToBuilding asks the game for a knight.
func (b *Building) sendKnightToBuilding() bool {
	ok := b.g.SendKnightToFlag(b.Flag)
	b.g.observer.SerfRequested(ok)
	return ok
}
