package engine

import (
	"log/slog"

	"github.com/talgya/serfworks/internal/economy"
)

// stepsPerMaterial is how many construction steps one plank or stone
// pays for.
const stepsPerMaterial = 8

// production describes what a worker makes and what it uses up.
type production struct {
	period uint32
	// uses lists the stock slots consumed per item, all at once.
	uses   []int
	output []economy.ResourceKind
	mine   bool
}

var productionTable = map[BuildingType]production{
	BuildingFisher:       {period: 160, output: []economy.ResourceKind{economy.ResourceFish}},
	BuildingLumberjack:   {period: 140, output: []economy.ResourceKind{economy.ResourceLumber}},
	BuildingStonecutter:  {period: 160, output: []economy.ResourceKind{economy.ResourceStone}},
	BuildingFarm:         {period: 220, output: []economy.ResourceKind{economy.ResourceWheat}},
	BuildingBoatbuilder:  {period: 240, uses: []int{0}, output: []economy.ResourceKind{economy.ResourceBoat}},
	BuildingStoneMine:    {period: 180, uses: []int{0}, output: []economy.ResourceKind{economy.ResourceStone}, mine: true},
	BuildingCoalMine:     {period: 180, uses: []int{0}, output: []economy.ResourceKind{economy.ResourceCoal}, mine: true},
	BuildingIronMine:     {period: 180, uses: []int{0}, output: []economy.ResourceKind{economy.ResourceIronOre}, mine: true},
	BuildingGoldMine:     {period: 180, uses: []int{0}, output: []economy.ResourceKind{economy.ResourceGoldOre}, mine: true},
	BuildingButcher:      {period: 120, uses: []int{0}, output: []economy.ResourceKind{economy.ResourceMeat}},
	BuildingPigFarm:      {period: 200, uses: []int{0}, output: []economy.ResourceKind{economy.ResourcePig}},
	BuildingMill:         {period: 120, uses: []int{0}, output: []economy.ResourceKind{economy.ResourceFlour}},
	BuildingBaker:        {period: 120, uses: []int{0}, output: []economy.ResourceKind{economy.ResourceBread}},
	BuildingSawmill:      {period: 120, uses: []int{1}, output: []economy.ResourceKind{economy.ResourcePlank}},
	BuildingSteelSmelter: {period: 160, uses: []int{0, 1}, output: []economy.ResourceKind{economy.ResourceSteel}},
	BuildingGoldSmelter:  {period: 160, uses: []int{0, 1}, output: []economy.ResourceKind{economy.ResourceGoldBar}},
	BuildingToolMaker: {period: 200, uses: []int{0, 1}, output: []economy.ResourceKind{
		economy.ResourceShovel, economy.ResourceHammer, economy.ResourceRod,
		economy.ResourceCleaver, economy.ResourceScythe, economy.ResourceAxe,
		economy.ResourceSaw, economy.ResourcePick, economy.ResourcePincer,
	}},
	BuildingWeaponSmith: {period: 200, uses: []int{0, 1}, output: []economy.ResourceKind{
		economy.ResourceSword, economy.ResourceShield,
	}},
}

// updateWork advances every serf working inside a building: diggers,
// builders and producers.
func (g *Game) updateWork() {
	for _, b := range g.Buildings.All() {
		if b.Burning || !b.Holder {
			continue
		}
		switch {
		case b.IsLeveling():
			b.levelWork()
		case b.Constructing:
			b.buildWork()
		default:
			b.produceWork()
		}
	}
}

func (b *Building) levelWork() {
	g := b.g
	if !g.levelStep(b.Pos, g.LevelingHeight(b.Pos)) {
		return
	}
	b.DoneLeveling()
	b.releaseWorker()
	slog.Debug("site leveled", "building", b.Index, "pos", b.Pos)
}

// materialsUsed is how many planks and stones have gone into the
// structure so far.
func (b *Building) materialsUsed() int {
	info := constructionTable[b.Type]
	return info.planks + info.stones - b.Stock[0].Maximum - b.Stock[1].Maximum
}

// constructionSteps counts the BuildProgress calls made so far.
func (b *Building) constructionSteps() int {
	info := constructionTable[b.Type]
	p := b.Progress - 1
	if b.Progress < progressFrameFinished {
		return p / info.phase1
	}
	phase1Steps := (progressFrameFinished - 1 + info.phase1 - 1) / info.phase1
	return phase1Steps + (p-phase1Steps*info.phase1)/info.phase2
}

// buildWork lets the builder spend a plank, else a stone, whenever the
// work done so far has used up the material already built in, then
// advances construction.
func (b *Building) buildWork() {
	if b.materialsUsed()*stepsPerMaterial <= b.constructionSteps() {
		switch {
		case b.Stock[0].Maximum > 0:
			if b.Stock[0].Available == 0 {
				return
			}
			b.PlankUsedForBuild()
		case b.Stock[1].Maximum > 0:
			if b.Stock[1].Available == 0 {
				return
			}
			b.StoneUsedForBuild()
		}
	}
	if b.BuildProgress() {
		b.releaseWorker()
	}
}

func (b *Building) produceWork() {
	info, ok := productionTable[b.Type]
	if !ok || b.g.Tick-b.Tick < info.period {
		return
	}
	f, ok := b.g.Flag(b.Flag)
	if !ok || !f.HasEmptySlot() {
		return
	}
	for _, slot := range info.uses {
		if b.Stock[slot].Available == 0 {
			return
		}
	}
	for _, slot := range info.uses {
		b.UseResourceInStock(slot)
	}
	b.Tick = b.g.Tick

	out := info.output[0]
	if len(info.output) > 1 {
		out = info.output[b.Progress%len(info.output)]
		b.Progress++
	}
	if info.mine {
		b.IncreaseMining(1)
	}
	if out == economy.ResourceGoldBar {
		b.g.AddGoldTotal(1)
	}
	f.DropResource(out, 0)
}
