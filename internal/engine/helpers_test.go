package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/talgya/serfworks/internal/agents"
	"github.com/talgya/serfworks/internal/economy"
	"github.com/talgya/serfworks/internal/world"
)

func newTestGame(t *testing.T) *Game {
	t.Helper()
	return NewGame(16, []string{"Ada", "Brom"})
}

// newSettlement places a castle at the origin with the default supplies
// and 16 generic serfs. Its flag sits at (1,-1).
func newSettlement(t *testing.T) (*Game, *Building, *Flag) {
	t.Helper()
	g := newTestGame(t)
	castle, err := g.BuildCastle(world.HexCoord{}, 0, 20, 16)
	require.NoError(t, err)
	f, ok := g.Flag(castle.Flag)
	require.True(t, ok)
	return g, castle, f
}

// buildFinished places a building of type bt at pos and runs construction
// to completion.
func buildFinished(t *testing.T, g *Game, pos world.HexCoord, bt BuildingType) *Building {
	t.Helper()
	b, err := g.BuildBuilding(pos, bt, 0)
	require.NoError(t, err)
	for !b.BuildProgress() {
	}
	require.True(t, b.IsDone())
	return b
}

// connect lays a straight road of n steps in direction d from f, placing
// the far flag if there is none.
func connect(t *testing.T, g *Game, f *Flag, d world.Direction, n int) *Flag {
	t.Helper()
	pos := f.Pos
	dirs := make([]world.Direction, n)
	for i := range dirs {
		dirs[i] = d
		pos = pos.Move(d)
	}
	far, ok := g.FlagAt(pos)
	if !ok {
		var err error
		far, err = g.BuildFlag(pos, f.Owner)
		require.NoError(t, err)
	}
	require.NoError(t, g.BuildRoad(f.Index, dirs, false))
	return far
}

// staff puts an idle transporter on both ends of the road leaving f in d.
func staff(f *Flag, d world.Direction) {
	p := &f.Paths[d]
	p.FreeTransporters = 1
	p.HasTransporter = true
	if other, ok := f.g.Flag(p.OtherFlag); ok && p.OtherDir.Valid() {
		other.Paths[p.OtherDir].FreeTransporters = 1
		other.Paths[p.OtherDir].HasTransporter = true
	}
}

// garrison creates a knight of type st already living in b.
func garrison(g *Game, b *Building, st agents.SerfType) *agents.Serf {
	s := g.CreateSerf(b.Owner, st)
	s.EnterBuilding(b.Pos)
	b.Knights = append(b.Knights, s.Index)
	return s
}

func castleInventory(t *testing.T, g *Game, castle *Building) *economy.Inventory {
	t.Helper()
	inv, ok := g.Inventory(castle.Inventory)
	require.True(t, ok)
	return inv
}
