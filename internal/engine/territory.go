package engine

import (
	"log/slog"

	"github.com/talgya/serfworks/internal/world"
)

// levelingCells is the number of spiral cells a large site must level:
// the building position and its first ring.
const levelingCells = 7

// needsLeveling reports whether the cells under a large building differ
// in height.
func (g *Game) needsLeveling(pos world.HexCoord) bool {
	h := g.Map.Height(pos)
	for i := 1; i < levelingCells; i++ {
		if g.Map.Height(world.AddSpirally(pos, i)) != h {
			return true
		}
	}
	return false
}

// LevelingHeight is the height a digger flattens the site around pos to:
// the rounded mean of the cells to level.
func (g *Game) LevelingHeight(pos world.HexCoord) int {
	sum := 0
	for i := range levelingCells {
		sum += g.Map.Height(world.AddSpirally(pos, i))
	}
	return (sum + levelingCells/2) / levelingCells
}

// levelStep moves one cell of the site one unit toward the target height.
// It returns true when the site is level.
func (g *Game) levelStep(pos world.HexCoord, target int) bool {
	for i := range levelingCells {
		cell := world.AddSpirally(pos, i)
		h := g.Map.Height(cell)
		switch {
		case h < target:
			g.Map.SetHeight(cell, h+1)
			return false
		case h > target:
			g.Map.SetHeight(cell, h-1)
			return false
		}
	}
	return true
}

// UpdateLandOwnership recomputes who owns each cell: the owner of the
// closest active military building or castle whose radius covers it, the
// lower building index winning ties. Threat levels are refreshed after.
// pos names the building whose change triggered the update.
func (g *Game) UpdateLandOwnership(pos world.HexCoord) {
	type claim struct {
		pos    world.HexCoord
		owner  int
		radius int
	}
	var claims []claim
	for _, b := range g.Buildings.All() {
		radius, ok := landRadius[b.Type]
		if !ok || b.Burning || !b.Active || !b.IsDone() {
			continue
		}
		claims = append(claims, claim{b.Pos, b.Owner, radius})
	}

	for _, coord := range g.Map.SortedCoords() {
		best, bestDist := -1, 0
		for _, c := range claims {
			d := world.Distance(coord, c.pos)
			if d > c.radius {
				continue
			}
			if best < 0 || d < bestDist {
				best, bestDist = c.owner, d
			}
		}
		g.Map.SetOwner(coord, best)
	}

	for _, b := range g.Buildings.All() {
		if b.IsMilitary() && b.IsDone() && !b.Burning {
			b.UpdateMilitaryFlagState()
		}
	}
	slog.Debug("land ownership updated", "trigger", pos, "claims", len(claims))
}
