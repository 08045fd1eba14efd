package engine

import (
	"fmt"

	"github.com/talgya/serfworks/internal/agents"
	"github.com/talgya/serfworks/internal/economy"
	"github.com/talgya/serfworks/internal/social"
	"github.com/talgya/serfworks/internal/world"
)

// BuildingType is the kind of a building. The numbering is part of the
// save formats.
type BuildingType uint8

const (
	BuildingNone BuildingType = iota
	BuildingFisher
	BuildingLumberjack
	BuildingBoatbuilder
	BuildingStonecutter
	BuildingStoneMine
	BuildingCoalMine
	BuildingIronMine
	BuildingGoldMine
	BuildingForester
	BuildingStock
	BuildingHut
	BuildingFarm
	BuildingButcher
	BuildingPigFarm
	BuildingMill
	BuildingBaker
	BuildingSawmill
	BuildingSteelSmelter
	BuildingToolMaker
	BuildingWeaponSmith
	BuildingTower
	BuildingFortress
	BuildingGoldSmelter
	BuildingCastle

	buildingTypeCount
)

var buildingTypeNames = [...]string{
	"none", "fisher", "lumberjack", "boatbuilder", "stonecutter",
	"stone mine", "coal mine", "iron mine", "gold mine", "forester",
	"stock", "hut", "farm", "butcher", "pig farm", "mill", "baker",
	"sawmill", "steel smelter", "tool maker", "weapon smith", "tower",
	"fortress", "gold smelter", "castle",
}

func (t BuildingType) String() string {
	if t >= buildingTypeCount {
		return fmt.Sprintf("building(%d)", uint8(t))
	}
	return buildingTypeNames[t]
}

// Valid reports whether t is a real building kind.
func (t BuildingType) Valid() bool {
	return t > BuildingNone && t < buildingTypeCount
}

// IsMilitary reports whether t holds a knight garrison outside a castle.
func (t BuildingType) IsMilitary() bool {
	return t == BuildingHut || t == BuildingTower || t == BuildingFortress
}

// IsMine reports whether t is one of the four mines.
func (t BuildingType) IsMine() bool {
	return t >= BuildingStoneMine && t <= BuildingGoldMine
}

// constructionInfo describes what a construction site needs.
type constructionInfo struct {
	obj    world.Object
	planks int
	stones int
	phase1 int
	phase2 int
}

var constructionTable = [buildingTypeCount]constructionInfo{
	BuildingNone:         {world.ObjectNone, 0, 0, 0, 0},
	BuildingFisher:       {world.ObjectSmallBuilding, 2, 0, 4096, 4096},
	BuildingLumberjack:   {world.ObjectSmallBuilding, 2, 0, 4096, 4096},
	BuildingBoatbuilder:  {world.ObjectSmallBuilding, 3, 0, 4096, 2048},
	BuildingStonecutter:  {world.ObjectSmallBuilding, 2, 0, 4096, 4096},
	BuildingStoneMine:    {world.ObjectSmallBuilding, 4, 1, 2048, 1366},
	BuildingCoalMine:     {world.ObjectSmallBuilding, 5, 0, 2048, 1366},
	BuildingIronMine:     {world.ObjectSmallBuilding, 5, 0, 2048, 1366},
	BuildingGoldMine:     {world.ObjectSmallBuilding, 5, 0, 2048, 1366},
	BuildingForester:     {world.ObjectSmallBuilding, 2, 0, 4096, 4096},
	BuildingStock:        {world.ObjectLargeBuilding, 4, 3, 1366, 1024},
	BuildingHut:          {world.ObjectSmallBuilding, 1, 1, 4096, 4096},
	BuildingFarm:         {world.ObjectLargeBuilding, 4, 1, 2048, 1366},
	BuildingButcher:      {world.ObjectLargeBuilding, 2, 1, 4096, 2048},
	BuildingPigFarm:      {world.ObjectLargeBuilding, 4, 1, 2048, 1366},
	BuildingMill:         {world.ObjectSmallBuilding, 3, 1, 2048, 2048},
	BuildingBaker:        {world.ObjectLargeBuilding, 2, 1, 4096, 2048},
	BuildingSawmill:      {world.ObjectLargeBuilding, 3, 2, 2048, 1366},
	BuildingSteelSmelter: {world.ObjectLargeBuilding, 3, 2, 2048, 1366},
	BuildingToolMaker:    {world.ObjectLargeBuilding, 3, 3, 2048, 1024},
	BuildingWeaponSmith:  {world.ObjectLargeBuilding, 2, 1, 4096, 2048},
	BuildingTower:        {world.ObjectLargeBuilding, 2, 3, 2048, 1366},
	BuildingFortress:     {world.ObjectLargeBuilding, 5, 5, 1024, 683},
	BuildingGoldSmelter:  {world.ObjectLargeBuilding, 4, 1, 2048, 1366},
	BuildingCastle:       {world.ObjectCastle, 0, 0, 256, 256},
}

// MapObject is the map object a building of type t occupies.
func (t BuildingType) MapObject() world.Object {
	if t >= buildingTypeCount {
		return world.ObjectNone
	}
	return constructionTable[t].obj
}

// IsLarge reports whether t needs leveled land before construction.
func (t BuildingType) IsLarge() bool {
	return t.MapObject() == world.ObjectLargeBuilding
}

var buildingScores = [...]int{
	2, 2, 2, 2, 5, 5, 5, 5, 2, 10,
	3, 6, 4, 6, 5, 4, 7, 7, 9, 4,
	8, 15, 6, 20,
}

// Score is the statistics weight of a finished building of type t.
func (t BuildingType) Score() int {
	if !t.Valid() {
		return 0
	}
	return buildingScores[t-1]
}

// workerRequest is the serf a finished building asks for and the tools
// that serf must carry.
type workerRequest struct {
	serf  agents.SerfType
	tool1 economy.ResourceKind
	tool2 economy.ResourceKind
}

var workerTable = [buildingTypeCount]workerRequest{
	BuildingFisher:       {agents.SerfFisher, economy.ResourceRod, economy.ResourceNone},
	BuildingLumberjack:   {agents.SerfLumberjack, economy.ResourceAxe, economy.ResourceNone},
	BuildingBoatbuilder:  {agents.SerfBoatBuilder, economy.ResourceHammer, economy.ResourceNone},
	BuildingStonecutter:  {agents.SerfStonecutter, economy.ResourcePick, economy.ResourceNone},
	BuildingStoneMine:    {agents.SerfMiner, economy.ResourcePick, economy.ResourceNone},
	BuildingCoalMine:     {agents.SerfMiner, economy.ResourcePick, economy.ResourceNone},
	BuildingIronMine:     {agents.SerfMiner, economy.ResourcePick, economy.ResourceNone},
	BuildingGoldMine:     {agents.SerfMiner, economy.ResourcePick, economy.ResourceNone},
	BuildingForester:     {agents.SerfForester, economy.ResourceNone, economy.ResourceNone},
	BuildingFarm:         {agents.SerfFarmer, economy.ResourceScythe, economy.ResourceNone},
	BuildingButcher:      {agents.SerfButcher, economy.ResourceCleaver, economy.ResourceNone},
	BuildingPigFarm:      {agents.SerfPigFarmer, economy.ResourceNone, economy.ResourceNone},
	BuildingMill:         {agents.SerfMiller, economy.ResourceNone, economy.ResourceNone},
	BuildingBaker:        {agents.SerfBaker, economy.ResourceNone, economy.ResourceNone},
	BuildingSawmill:      {agents.SerfSawmiller, economy.ResourceSaw, economy.ResourceNone},
	BuildingSteelSmelter: {agents.SerfSmelter, economy.ResourceNone, economy.ResourceNone},
	BuildingToolMaker:    {agents.SerfToolmaker, economy.ResourceHammer, economy.ResourceSaw},
	BuildingWeaponSmith:  {agents.SerfWeaponSmith, economy.ResourceHammer, economy.ResourcePincer},
	BuildingGoldSmelter:  {agents.SerfSmelter, economy.ResourceNone, economy.ResourceNone},
}

// demandBase picks the priority base for a slot from the owner's sliders.
type demandBase func(p *social.Player) int

func fixedBase(*social.Player) int { return economy.FixedPriorityBase }

// stockDemand is one slot a finished building keeps filled.
type stockDemand struct {
	slot int
	kind economy.ResourceKind
	base demandBase
}

// productionDemands lists, per building type, the slots refilled while the
// worker is inside. The kinds double as the stock layout restored from
// binary saves.
var productionDemands = [buildingTypeCount][]stockDemand{
	BuildingBoatbuilder: {{0, economy.ResourcePlank, func(p *social.Player) int { return p.PlanksBoatbuilder }}},
	BuildingStoneMine:   {{0, economy.ResourceGroupFood, func(p *social.Player) int { return p.FoodStoneMine }}},
	BuildingCoalMine:    {{0, economy.ResourceGroupFood, func(p *social.Player) int { return p.FoodCoalMine }}},
	BuildingIronMine:    {{0, economy.ResourceGroupFood, func(p *social.Player) int { return p.FoodIronMine }}},
	BuildingGoldMine:    {{0, economy.ResourceGroupFood, func(p *social.Player) int { return p.FoodGoldMine }}},
	BuildingButcher:     {{0, economy.ResourcePig, fixedBase}},
	BuildingPigFarm:     {{0, economy.ResourceWheat, func(p *social.Player) int { return p.WheatPigfarm }}},
	BuildingMill:        {{0, economy.ResourceWheat, func(p *social.Player) int { return p.WheatMill }}},
	BuildingBaker:       {{0, economy.ResourceFlour, fixedBase}},
	BuildingSawmill:     {{1, economy.ResourceLumber, fixedBase}},
	BuildingSteelSmelter: {
		{0, economy.ResourceCoal, func(p *social.Player) int { return p.CoalSteelsmelter }},
		{1, economy.ResourceIronOre, fixedBase},
	},
	BuildingToolMaker: {
		{0, economy.ResourcePlank, func(p *social.Player) int { return p.PlanksToolmaker }},
		{1, economy.ResourceSteel, func(p *social.Player) int { return p.SteelToolmaker }},
	},
	BuildingWeaponSmith: {
		{0, economy.ResourceCoal, func(p *social.Player) int { return p.CoalWeaponsmith }},
		{1, economy.ResourceSteel, func(p *social.Player) int { return p.SteelWeaponsmith }},
	},
	BuildingGoldSmelter: {
		{0, economy.ResourceCoal, func(p *social.Player) int { return p.CoalGoldsmelter }},
		{1, economy.ResourceGoldOre, fixedBase},
	},
}

// ProductionStockMaximum is the capacity of every production input slot.
const ProductionStockMaximum = 8

// militaryInfo holds the garrison tables of one military building type.
type militaryInfo struct {
	occupants [10]int
	maxGold   int
	capacity  int
	kind      int
}

var militaryTable = map[BuildingType]militaryInfo{
	BuildingHut:      {[10]int{1, 1, 2, 2, 3, 1, 1, 1, 1, 2}, 2, 3, 0},
	BuildingTower:    {[10]int{1, 2, 3, 4, 6, 1, 1, 2, 3, 4}, 4, 6, 1},
	BuildingFortress: {[10]int{1, 3, 6, 9, 12, 1, 2, 4, 6, 8}, 8, 12, 2},
}

// landRadius is how far a finished military building claims land.
var landRadius = map[BuildingType]int{
	BuildingHut:      5,
	BuildingTower:    7,
	BuildingFortress: 9,
	BuildingCastle:   8,
}
