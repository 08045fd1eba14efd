package economy

import (
	"slices"

	"github.com/talgya/serfworks/internal/agents"
)

// InventoryMode controls whether an inventory takes in, holds, or sends out
// resources or serfs.
type InventoryMode uint8

const (
	ModeIn   InventoryMode = 0
	ModeStop InventoryMode = 1
	ModeOut  InventoryMode = 3
)

func (m InventoryMode) String() string {
	switch m {
	case ModeIn:
		return "in"
	case ModeStop:
		return "stop"
	case ModeOut:
		return "out"
	}
	return "unknown"
}

// OutQueueEntry is a resource waiting to leave the inventory.
type OutQueueEntry struct {
	Type ResourceKind `json:"type"`
	Dest uint32       `json:"dest"`
}

// MaxSupplies is the highest starting supplies level.
const MaxSupplies = 40

// Inventory is the resource and serf warehouse of a stock or castle.
type Inventory struct {
	Index    uint32 `json:"index"`
	Owner    int    `json:"owner"`
	Flag     uint32 `json:"flag"`
	Building uint32 `json:"building"`

	Resources ResourceMap      `json:"resources"`
	OutQueue  [2]OutQueueEntry `json:"out_queue"`
	SerfsOut  int              `json:"serfs_out"`
	ResMode   InventoryMode    `json:"res_mode"`
	SerfMode  InventoryMode    `json:"serf_mode"`

	// Idle serfs by type.
	Serfs map[agents.SerfType][]agents.SerfIndex `json:"serfs"`
}

// NewInventory creates an empty inventory in In mode for both resources
// and serfs.
func NewInventory(index uint32) *Inventory {
	return &Inventory{
		Index:     index,
		Resources: make(ResourceMap),
		Serfs:     make(map[agents.SerfType][]agents.SerfIndex),
	}
}

// AcceptsResources reports whether resources may be delivered here.
func (inv *Inventory) AcceptsResources() bool { return inv.ResMode == ModeIn }

// AcceptsSerfs reports whether serfs may return here.
func (inv *Inventory) AcceptsSerfs() bool { return inv.SerfMode == ModeIn }

// HaveAnyOutMode reports whether resources or serfs are being evacuated.
func (inv *Inventory) HaveAnyOutMode() bool {
	return inv.ResMode == ModeOut || inv.SerfMode == ModeOut
}

// CountOf returns the stock of res.
func (inv *Inventory) CountOf(res ResourceKind) int {
	return inv.Resources[res]
}

// HasFood reports whether any concrete food kind is stored.
func (inv *Inventory) HasFood() bool {
	return inv.Resources[ResourceFish] != 0 ||
		inv.Resources[ResourceMeat] != 0 ||
		inv.Resources[ResourceBread] != 0
}

// PushResource stores one unit of res.
func (inv *Inventory) PushResource(res ResourceKind) {
	inv.Resources[res]++
}

// PopResource removes one unit of res, reporting whether there was one.
func (inv *Inventory) PopResource(res ResourceKind) bool {
	if inv.Resources[res] <= 0 {
		return false
	}
	inv.Resources[res]--
	return true
}

// HasResourceInQueue reports whether anything waits to leave.
func (inv *Inventory) HasResourceInQueue() bool {
	return inv.OutQueue[0].Type != ResourceNone
}

// IsQueueFull reports whether the out queue has no free entry.
func (inv *Inventory) IsQueueFull() bool {
	return inv.OutQueue[1].Type != ResourceNone
}

// AddToQueue takes one unit of res out of stock and queues it for dest.
// Returns false if the resource is missing or the queue is full.
func (inv *Inventory) AddToQueue(res ResourceKind, dest uint32) bool {
	if inv.IsQueueFull() || !inv.PopResource(res) {
		return false
	}
	if inv.OutQueue[0].Type == ResourceNone {
		inv.OutQueue[0] = OutQueueEntry{Type: res, Dest: dest}
	} else {
		inv.OutQueue[1] = OutQueueEntry{Type: res, Dest: dest}
	}
	return true
}

// ResourceFromQueue pops the head of the out queue.
func (inv *Inventory) ResourceFromQueue() (OutQueueEntry, bool) {
	head := inv.OutQueue[0]
	if head.Type == ResourceNone {
		return OutQueueEntry{}, false
	}
	inv.OutQueue[0] = inv.OutQueue[1]
	inv.OutQueue[1] = OutQueueEntry{}
	return head, true
}

// ResetQueueForDest clears the destination of queued resources bound for flag.
func (inv *Inventory) ResetQueueForDest(flag uint32) {
	for i := range inv.OutQueue {
		if inv.OutQueue[i].Type != ResourceNone && inv.OutQueue[i].Dest == flag {
			inv.OutQueue[i].Dest = 0
		}
	}
}

// AddSerf records an idle serf of type t.
func (inv *Inventory) AddSerf(t agents.SerfType, serf agents.SerfIndex) {
	inv.Serfs[t] = append(inv.Serfs[t], serf)
}

// HaveSerf reports whether an idle serf of type t is present.
func (inv *Inventory) HaveSerf(t agents.SerfType) bool {
	return len(inv.Serfs[t]) > 0
}

// SerfCount returns the number of idle serfs of type t.
func (inv *Inventory) SerfCount(t agents.SerfType) int {
	return len(inv.Serfs[t])
}

// FreeSerfCount is the number of idle generic serfs.
func (inv *Inventory) FreeSerfCount() int {
	return len(inv.Serfs[agents.SerfGeneric])
}

// CallInternal removes the first idle serf of type t from the idle set
// without sending it out.
func (inv *Inventory) CallInternal(t agents.SerfType) (agents.SerfIndex, bool) {
	list := inv.Serfs[t]
	if len(list) == 0 {
		return 0, false
	}
	serf := list[0]
	inv.Serfs[t] = list[1:]
	return serf, true
}

// CallInternalSerf removes a specific serf from the idle set.
func (inv *Inventory) CallInternalSerf(t agents.SerfType, serf agents.SerfIndex) bool {
	list := inv.Serfs[t]
	i := slices.Index(list, serf)
	if i < 0 {
		return false
	}
	inv.Serfs[t] = slices.Delete(list, i, i+1)
	return true
}

// CallOutSerf removes an idle serf of type t and counts it as leaving.
func (inv *Inventory) CallOutSerf(t agents.SerfType) (agents.SerfIndex, bool) {
	serf, ok := inv.CallInternal(t)
	if ok {
		inv.SerfsOut++
	}
	return serf, ok
}

// SerfAway marks a leaving serf as gone.
func (inv *Inventory) SerfAway() {
	if inv.SerfsOut > 0 {
		inv.SerfsOut--
	}
}

// ToolsFor lists the resources consumed when a generic serf is trained as t.
func ToolsFor(t agents.SerfType) []ResourceKind {
	switch t {
	case agents.SerfKnight0:
		return []ResourceKind{ResourceSword, ResourceShield}
	case agents.SerfFisher:
		return []ResourceKind{ResourceRod}
	case agents.SerfLumberjack:
		return []ResourceKind{ResourceAxe}
	case agents.SerfBoatBuilder, agents.SerfBuilder, agents.SerfGeologist:
		return []ResourceKind{ResourceHammer}
	case agents.SerfStonecutter, agents.SerfMiner:
		return []ResourceKind{ResourcePick}
	case agents.SerfFarmer:
		return []ResourceKind{ResourceScythe}
	case agents.SerfButcher:
		return []ResourceKind{ResourceCleaver}
	case agents.SerfSawmiller:
		return []ResourceKind{ResourceSaw}
	case agents.SerfDigger:
		return []ResourceKind{ResourceShovel}
	case agents.SerfToolmaker:
		return []ResourceKind{ResourceHammer, ResourceSaw}
	case agents.SerfWeaponSmith:
		return []ResourceKind{ResourceHammer, ResourcePincer}
	case agents.SerfSailor:
		return []ResourceKind{ResourceBoat}
	}
	return nil
}

// CanSpecialize reports whether an idle generic serf and the tools for t
// are present.
func (inv *Inventory) CanSpecialize(t agents.SerfType) bool {
	if !inv.HaveSerf(agents.SerfGeneric) {
		return false
	}
	need := make(ResourceMap)
	for _, tool := range ToolsFor(t) {
		need[tool]++
	}
	for tool, n := range need {
		if inv.Resources[tool] < n {
			return false
		}
	}
	return true
}

// SpecializeFreeSerf trains an idle generic serf as t, consuming its tools.
// The serf stays idle under its new type. The caller updates the serf
// record.
func (inv *Inventory) SpecializeFreeSerf(t agents.SerfType) (agents.SerfIndex, bool) {
	if !inv.CanSpecialize(t) {
		return 0, false
	}
	for _, tool := range ToolsFor(t) {
		inv.PopResource(tool)
	}
	serf, _ := inv.CallInternal(agents.SerfGeneric)
	inv.AddSerf(t, serf)
	return serf, true
}

// IdleSerfs returns every idle serf index in type order.
func (inv *Inventory) IdleSerfs() []agents.SerfIndex {
	types := make([]agents.SerfType, 0, len(inv.Serfs))
	for t := range inv.Serfs {
		types = append(types, t)
	}
	slices.Sort(types)
	var out []agents.SerfIndex
	for _, t := range types {
		out = append(out, inv.Serfs[t]...)
	}
	return out
}

var (
	suppliesMin = ResourceMap{
		ResourceFish: 2, ResourceWheat: 2, ResourceLumber: 4, ResourcePlank: 10,
		ResourceStone: 4, ResourceCoal: 2, ResourceIronOre: 2, ResourceSword: 1,
		ResourceShield: 1, ResourceHammer: 2, ResourceAxe: 1, ResourcePick: 1,
		ResourceSaw: 1, ResourceShovel: 2,
	}
	suppliesMax = ResourceMap{
		ResourceFish: 10, ResourceMeat: 8, ResourceBread: 8, ResourceWheat: 10,
		ResourceLumber: 30, ResourcePlank: 50, ResourceStone: 40, ResourceCoal: 16,
		ResourceIronOre: 16, ResourceSteel: 10, ResourceGoldBar: 10, ResourceSword: 8,
		ResourceShield: 8, ResourceHammer: 8, ResourceAxe: 4, ResourcePick: 4,
		ResourceSaw: 3, ResourceShovel: 4, ResourceRod: 2, ResourceScythe: 2,
		ResourceCleaver: 1, ResourcePincer: 1, ResourceBoat: 2,
	}
)

// ApplySuppliesPreset fills a starting inventory by interpolating between
// the minimal and maximal templates. supplies ranges over 0..MaxSupplies.
func (inv *Inventory) ApplySuppliesPreset(supplies int) {
	supplies = min(max(supplies, 0), MaxSupplies)
	for _, res := range AllResources() {
		lo, hi := suppliesMin[res], suppliesMax[res]
		inv.Resources[res] = lo + (hi-lo)*supplies/MaxSupplies
	}
}
