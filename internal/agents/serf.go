// Package agents provides the serf records the economy dispatches: workers,
// transporters, generic serfs and knights. Serf movement lives elsewhere;
// this package only carries the state transitions the economy triggers.
package agents

import (
	"fmt"

	"github.com/talgya/serfworks/internal/world"
)

// SerfIndex identifies a serf in the game arena. 0 means none.
type SerfIndex uint32

// SerfType is a serf's profession.
type SerfType int8

const (
	SerfNone SerfType = iota
	SerfTransporter
	SerfSailor
	SerfDigger
	SerfBuilder
	SerfTransporterInventory
	SerfLumberjack
	SerfSawmiller
	SerfStonecutter
	SerfForester
	SerfMiner
	SerfSmelter
	SerfFisher
	SerfPigFarmer
	SerfButcher
	SerfFarmer
	SerfMiller
	SerfBaker
	SerfBoatBuilder
	SerfToolmaker
	SerfWeaponSmith
	SerfGeologist
	SerfGeneric
	SerfKnight0
	SerfKnight1
	SerfKnight2
	SerfKnight3
	SerfKnight4
	SerfDead

	serfTypeCount
)

var serfTypeNames = [...]string{
	"none", "transporter", "sailor", "digger", "builder", "inventory transporter",
	"lumberjack", "sawmiller", "stonecutter", "forester", "miner", "smelter",
	"fisher", "pig farmer", "butcher", "farmer", "miller", "baker",
	"boat builder", "toolmaker", "weapon smith", "geologist", "generic",
	"knight 0", "knight 1", "knight 2", "knight 3", "knight 4", "dead",
}

func (t SerfType) String() string {
	if t < 0 || int(t) >= len(serfTypeNames) {
		return fmt.Sprintf("serf(%d)", int8(t))
	}
	return serfTypeNames[t]
}

// Valid reports whether t is a known serf type.
func (t SerfType) Valid() bool {
	return t >= SerfNone && t < serfTypeCount
}

// IsKnight reports whether t is one of the five knight ranks.
func (t SerfType) IsKnight() bool {
	return t >= SerfKnight0 && t <= SerfKnight4
}

// KnightRank returns 0..4 for knights and -1 otherwise.
func (t SerfType) KnightRank() int {
	if !t.IsKnight() {
		return -1
	}
	return int(t - SerfKnight0)
}

// SerfState is the coarse activity of a serf as seen by the economy.
type SerfState uint8

const (
	StateIdleInStock SerfState = iota
	StateWalking
	StateInBuilding
	StateLeavingBuilding
	StateEscapeBuilding
	StateLost
	StateDefending
	StateAttacking
	StateTransporting
	StateReturning
)

var serfStateNames = [...]string{
	"idle in stock", "walking", "in building", "leaving building",
	"escaping building", "lost", "defending", "attacking",
	"transporting", "returning",
}

func (s SerfState) String() string {
	if int(s) >= len(serfStateNames) {
		return fmt.Sprintf("state(%d)", uint8(s))
	}
	return serfStateNames[s]
}

// Serf is a single worker or knight.
type Serf struct {
	Index SerfIndex      `json:"index"`
	Owner int            `json:"owner"`
	Type  SerfType       `json:"type"`
	Pos   world.HexCoord `json:"pos"`
	State SerfState      `json:"state"`

	// Next links knights garrisoned in the same building (binary saves).
	Next SerfIndex `json:"next"`

	// Inventory the serf idles in or left from, 0 if none.
	Inventory uint32 `json:"inventory"`
	// Dest is the flag the serf is walking to, 0 if none.
	Dest uint32 `json:"dest"`
	// DestDir is the road a transporter is heading for.
	DestDir world.Direction `json:"dest_dir"`
}

// BuildingDeleted tells a serf inside the building at pos that it is gone.
// Returns true if the serf escapes rather than getting lost.
func (s *Serf) BuildingDeleted(pos world.HexCoord, escape bool) bool {
	if s.Pos != pos {
		return false
	}
	if escape {
		s.State = StateEscapeBuilding
		return true
	}
	s.State = StateLost
	return false
}

// CastleDeleted expels a serf from a destroyed castle or military building.
func (s *Serf) CastleDeleted(pos world.HexCoord, transporter bool) {
	if transporter && s.Type == SerfTransporterInventory {
		s.Type = SerfTransporter
	}
	s.Pos = pos
	s.State = StateLost
	s.Inventory = 0
}

// GoOutFromBuilding sends a garrisoned knight out to look for a new home.
func (s *Serf) GoOutFromBuilding() {
	s.State = StateLeavingBuilding
	s.Dest = 0
}

// GoOutFromInventory dispatches the serf from an inventory toward a flag.
func (s *Serf) GoOutFromInventory(inventory, destFlag uint32) {
	s.State = StateWalking
	s.Inventory = inventory
	s.Dest = destFlag
	s.DestDir = world.DirNone
}

// ReturnTo sends the serf back toward the inventory behind destFlag.
func (s *Serf) ReturnTo(destFlag uint32) {
	s.State = StateReturning
	s.Dest = destFlag
	s.DestDir = world.DirNone
}

// ServeRoad puts a transporter on the road leaving the flag at pos in
// direction d.
func (s *Serf) ServeRoad(pos world.HexCoord, d world.Direction) {
	s.Pos = pos
	s.State = StateTransporting
	s.Dest = 0
	s.DestDir = d
}

// IsTraveling reports whether the serf is on its way somewhere.
func (s *Serf) IsTraveling() bool {
	return s.State == StateWalking || s.State == StateReturning
}

// EnterBuilding records arrival at the building at pos.
func (s *Serf) EnterBuilding(pos world.HexCoord) {
	s.Pos = pos
	s.State = StateInBuilding
	s.Dest = 0
}

// StayIdleInStock parks the serf inside an inventory.
func (s *Serf) StayIdleInStock(inventory uint32) {
	s.State = StateIdleInStock
	s.Inventory = inventory
	s.Dest = 0
	s.DestDir = world.DirNone
}
