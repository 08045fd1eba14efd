// Package social provides the players owning buildings and flags: their
// production priority sliders, knight settings, per-tick gates and the
// notification queue the economy reports to.
package social

import (
	"github.com/talgya/serfworks/internal/economy"
	"github.com/talgya/serfworks/internal/world"
)

// PlayerIndex identifies a player. Players are numbered from 0.
type PlayerIndex = int

// MaxPlayers is the number of owners a two-bit save field can encode.
const MaxPlayers = 4

// Player holds the configuration and bookkeeping of one owner.
type Player struct {
	Index PlayerIndex `json:"index"`
	Name  string      `json:"name"`

	// Production priority sliders (0..65500).
	FoodStoneMine      int `json:"food_stonemine"`
	FoodCoalMine       int `json:"food_coalmine"`
	FoodIronMine       int `json:"food_ironmine"`
	FoodGoldMine       int `json:"food_goldmine"`
	PlanksConstruction int `json:"planks_construction"`
	PlanksBoatbuilder  int `json:"planks_boatbuilder"`
	PlanksToolmaker    int `json:"planks_toolmaker"`
	SteelToolmaker     int `json:"steel_toolmaker"`
	SteelWeaponsmith   int `json:"steel_weaponsmith"`
	CoalSteelsmelter   int `json:"coal_steelsmelter"`
	CoalGoldsmelter    int `json:"coal_goldsmelter"`
	CoalWeaponsmith    int `json:"coal_weaponsmith"`
	WheatPigfarm       int `json:"wheat_pigfarm"`
	WheatMill          int `json:"wheat_mill"`

	// KnightOccupation holds, per threat level, the occupation level in
	// the high nibble.
	KnightOccupation    [4]int `json:"knight_occupation"`
	ReducedKnightLevel  bool   `json:"reduced_knight_level"`
	CastleKnights       int    `json:"castle_knights"`
	CastleKnightsWanted int    `json:"castle_knights_wanted"`

	SendGenericDelay int `json:"send_generic_delay"`
	SendKnightDelay  int `json:"send_knight_delay"`

	// FlagPriorities ranks resources for pickup at flags; higher goes first.
	FlagPriorities map[economy.ResourceKind]int `json:"flag_prio"`

	// MilitaryMaxGold is the gold the garrisons can hold, summed each tick.
	MilitaryMaxGold int `json:"military_max_gold"`

	CompletedBuildings  map[int]int `json:"completed_buildings"`
	IncompleteBuildings map[int]int `json:"incomplete_buildings"`
	BuildingScore       int         `json:"building_score"`
	MilitaryScore       int         `json:"military_score"`

	Notifications []Notification `json:"notifications"`
}

// genericDelayReset and knightDelayReset are the tick gaps between
// unsolicited serf requests from a stock or castle.
const (
	genericDelayReset = 5
	knightDelayReset  = 5
)

// NewPlayer creates a player with the default slider settings.
func NewPlayer(index PlayerIndex, name string) *Player {
	p := &Player{
		Index:               index,
		Name:                name,
		FoodStoneMine:       13100,
		FoodCoalMine:        45850,
		FoodIronMine:        45850,
		FoodGoldMine:        65500,
		PlanksConstruction:  65500,
		PlanksBoatbuilder:   3275,
		PlanksToolmaker:     19650,
		SteelToolmaker:      45850,
		SteelWeaponsmith:    65500,
		CoalSteelsmelter:    32750,
		CoalGoldsmelter:     65500,
		CoalWeaponsmith:     52400,
		WheatPigfarm:        65500,
		WheatMill:           32750,
		KnightOccupation:    [4]int{0x10, 0x21, 0x32, 0x43},
		CastleKnightsWanted: 3,
		FlagPriorities:      make(map[economy.ResourceKind]int),
		CompletedBuildings:  make(map[int]int),
		IncompleteBuildings: make(map[int]int),
	}
	for i, res := range defaultFlagOrder {
		p.FlagPriorities[res] = len(defaultFlagOrder) - i
	}
	return p
}

var defaultFlagOrder = []economy.ResourceKind{
	economy.ResourcePlank, economy.ResourceStone, economy.ResourceSteel,
	economy.ResourceCoal, economy.ResourceLumber, economy.ResourceIronOre,
	economy.ResourceGroupFood, economy.ResourcePig, economy.ResourceFlour,
	economy.ResourceWheat, economy.ResourceGoldBar, economy.ResourceGoldOre,
	economy.ResourceFish, economy.ResourceMeat, economy.ResourceBread,
	economy.ResourceSword, economy.ResourceShield, economy.ResourceHammer,
	economy.ResourceShovel, economy.ResourcePick, economy.ResourceAxe,
	economy.ResourceSaw, economy.ResourceScythe, economy.ResourceRod,
	economy.ResourceCleaver, economy.ResourcePincer, economy.ResourceBoat,
}

// FlagPriority returns the pickup rank of res.
func (p *Player) FlagPriority(res economy.ResourceKind) int {
	return p.FlagPriorities[res]
}

// KnightOccupationLevel is the 0..9 occupation index for a threat level,
// offset by 5 in reduced mode.
func (p *Player) KnightOccupationLevel(threat int) int {
	level := (p.KnightOccupation[threat&3] >> 4) & 0xf
	if p.ReducedKnightLevel {
		level += 5
	}
	return min(level, 9)
}

// IncreaseCastleKnights counts a knight joining the castle garrison.
func (p *Player) IncreaseCastleKnights() { p.CastleKnights++ }

// DecreaseCastleKnights counts a knight leaving the castle garrison.
func (p *Player) DecreaseCastleKnights() { p.CastleKnights-- }

// IncreaseMilitaryMaxGold adds a garrison's gold capacity to this tick's sum.
func (p *Player) IncreaseMilitaryMaxGold(gold int) { p.MilitaryMaxGold += gold }

// BeginTick resets the per-tick accumulators.
func (p *Player) BeginTick() {
	p.MilitaryMaxGold = 0
}

// TickSendGenericDelay counts down the generic serf gate. It returns true
// and rearms the gate once it expires.
func (p *Player) TickSendGenericDelay() bool {
	p.SendGenericDelay--
	if p.SendGenericDelay < 0 {
		p.SendGenericDelay = genericDelayReset
		return true
	}
	return false
}

// TickSendKnightDelay counts down the castle knight gate.
func (p *Player) TickSendKnightDelay() bool {
	p.SendKnightDelay--
	if p.SendKnightDelay < 0 {
		p.SendKnightDelay = knightDelayReset
		return true
	}
	return false
}

// BuildingStarted records a construction site of the given kind.
func (p *Player) BuildingStarted(kind int) {
	p.IncompleteBuildings[kind]++
}

// BuildingBuilt moves a building of the given kind from incomplete to
// completed.
func (p *Player) BuildingBuilt(kind, score int, military bool) {
	if p.IncompleteBuildings[kind] > 0 {
		p.IncompleteBuildings[kind]--
	}
	p.CompletedBuildings[kind]++
	p.BuildingScore += score
	if military {
		p.MilitaryScore += score
	}
}

// BuildingDemolished removes a building from the statistics.
func (p *Player) BuildingDemolished(kind, score int, finished, military bool) {
	if !finished {
		if p.IncompleteBuildings[kind] > 0 {
			p.IncompleteBuildings[kind]--
		}
		return
	}
	if p.CompletedBuildings[kind] > 0 {
		p.CompletedBuildings[kind]--
	}
	p.BuildingScore -= score
	if military {
		p.MilitaryScore -= score
	}
}

// AddNotification queues a message for the player.
func (p *Player) AddNotification(t MessageType, pos world.HexCoord, data int) {
	p.Notifications = append(p.Notifications, Notification{Type: t, Pos: pos, Data: data})
}

// PopNotification removes and returns the oldest message.
func (p *Player) PopNotification() (Notification, bool) {
	if len(p.Notifications) == 0 {
		return Notification{}, false
	}
	n := p.Notifications[0]
	p.Notifications = p.Notifications[1:]
	return n, true
}
