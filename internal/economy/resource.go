// Package economy provides resource kinds, building stock slots and the
// warehouse inventories that buffer resources and serfs.
package economy

import "fmt"

// ResourceKind enumerates everything a serf can carry.
type ResourceKind int8

const (
	ResourceNone ResourceKind = iota
	ResourceFish
	ResourcePig
	ResourceMeat
	ResourceWheat
	ResourceFlour
	ResourceBread
	ResourceLumber
	ResourcePlank
	ResourceBoat
	ResourceStone
	ResourceIronOre
	ResourceSteel
	ResourceCoal
	ResourceGoldOre
	ResourceGoldBar
	ResourceShovel
	ResourceHammer
	ResourceRod
	ResourceCleaver
	ResourceScythe
	ResourceAxe
	ResourceSaw
	ResourcePick
	ResourcePincer
	ResourceSword
	ResourceShield
	// ResourceGroupFood stands for fish, meat and bread in stock slots.
	ResourceGroupFood

	resourceKindCount
)

var resourceNames = [...]string{
	"none", "fish", "pig", "meat", "wheat", "flour", "bread", "lumber",
	"plank", "boat", "stone", "iron ore", "steel", "coal", "gold ore",
	"gold bar", "shovel", "hammer", "rod", "cleaver", "scythe", "axe",
	"saw", "pick", "pincer", "sword", "shield", "food",
}

func (r ResourceKind) String() string {
	if r < 0 || int(r) >= len(resourceNames) {
		return fmt.Sprintf("resource(%d)", int8(r))
	}
	return resourceNames[r]
}

// Valid reports whether r is a concrete kind or the food group.
func (r ResourceKind) Valid() bool {
	return r > ResourceNone && r < resourceKindCount
}

// IsFood reports whether r is one of the kinds folded into the food group.
func (r ResourceKind) IsFood() bool {
	return r == ResourceFish || r == ResourceMeat || r == ResourceBread
}

// StockKind folds food kinds into ResourceGroupFood, the form building
// stock slots are typed with.
func (r ResourceKind) StockKind() ResourceKind {
	if r.IsFood() {
		return ResourceGroupFood
	}
	return r
}

// AllResources lists every concrete carryable kind in enum order.
func AllResources() []ResourceKind {
	out := make([]ResourceKind, 0, int(ResourceShield))
	for r := ResourceFish; r <= ResourceShield; r++ {
		out = append(out, r)
	}
	return out
}

// ResourceMap counts resources by kind.
type ResourceMap map[ResourceKind]int

// Total returns the sum of all counts.
func (m ResourceMap) Total() int {
	n := 0
	for _, c := range m {
		n += c
	}
	return n
}
