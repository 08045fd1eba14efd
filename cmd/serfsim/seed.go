package main

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/talgya/serfworks/internal/economy"
	"github.com/talgya/serfworks/internal/engine"
	"github.com/talgya/serfworks/internal/world"
)

const (
	startSerfs = 16
	spokeRoad  = 2
)

// spokes are the road directions leaving the castle flag. Down-right and
// up-left are skipped: the first would put the building on its own road,
// the second runs into the castle.
var spokes = []world.Direction{world.DirRight, world.DirDown, world.DirLeft, world.DirUp}

var seedBuildings = []engine.BuildingType{
	engine.BuildingLumberjack,
	engine.BuildingStonecutter,
	engine.BuildingSawmill,
	engine.BuildingHut,
	engine.BuildingForester,
	engine.BuildingFisher,
}

// seedSettlement gives player 0 a castle at the map centre and one
// construction site at the end of each spoke road.
func seedSettlement(g *engine.Game, seed int64) error {
	rng := rand.New(rand.NewSource(seed))

	castle, err := g.BuildCastle(world.HexCoord{}, 0, economy.MaxSupplies/2, startSerfs)
	if err != nil {
		return fmt.Errorf("seed castle: %w", err)
	}

	kinds := append([]engine.BuildingType(nil), seedBuildings...)
	rng.Shuffle(len(kinds), func(i, j int) { kinds[i], kinds[j] = kinds[j], kinds[i] })

	castleFlag, _ := g.Flag(castle.Flag)
	for i, d := range spokes {
		pos := castleFlag.Pos
		dirs := make([]world.Direction, spokeRoad)
		for k := range dirs {
			dirs[k] = d
			pos = pos.Move(d)
		}
		if _, err := g.BuildFlag(pos, 0); err != nil {
			return fmt.Errorf("seed flag %d: %w", i, err)
		}
		if err := g.BuildRoad(castle.Flag, dirs, false); err != nil {
			return fmt.Errorf("seed road %d: %w", i, err)
		}
		b, err := g.BuildBuilding(pos.Move(world.DirUpLeft), kinds[i], 0)
		if err != nil {
			return fmt.Errorf("seed building %d: %w", i, err)
		}
		slog.Info("site placed", "building", b.Index, "type", b.Type, "pos", b.Pos)
	}
	return nil
}
