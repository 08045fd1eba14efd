package agents

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/talgya/serfworks/internal/world"
)

func TestKnightRanks(t *testing.T) {
	assert.Equal(t, -1, SerfGeneric.KnightRank())
	assert.Equal(t, 0, SerfKnight0.KnightRank())
	assert.Equal(t, 4, SerfKnight4.KnightRank())
	assert.False(t, SerfDead.IsKnight())
	assert.True(t, SerfDead.Valid())
	assert.False(t, SerfType(-2).Valid())
	assert.Equal(t, "serf(99)", SerfType(99).String())
	assert.Equal(t, "inventory transporter", SerfTransporterInventory.String())
}

func TestSerfJourney(t *testing.T) {
	s := &Serf{Index: 3, Type: SerfTransporter}
	s.GoOutFromInventory(1, 7)
	assert.True(t, s.IsTraveling())
	assert.Equal(t, uint32(7), s.Dest)
	assert.Equal(t, world.DirNone, s.DestDir)

	pos := world.HexCoord{Q: 2, R: -1}
	s.ServeRoad(pos, world.DirLeft)
	assert.False(t, s.IsTraveling())
	assert.Equal(t, StateTransporting, s.State)
	assert.Equal(t, world.DirLeft, s.DestDir)

	s.ReturnTo(1)
	assert.Equal(t, StateReturning, s.State)
	assert.True(t, s.IsTraveling())

	s.StayIdleInStock(1)
	assert.Equal(t, StateIdleInStock, s.State)
	assert.Zero(t, s.Dest)
}

func TestBuildingDeleted(t *testing.T) {
	pos := world.HexCoord{Q: 1}
	inside := &Serf{Pos: pos, State: StateInBuilding}
	elsewhere := &Serf{Pos: world.HexCoord{}, State: StateWalking}

	assert.True(t, inside.BuildingDeleted(pos, true))
	assert.Equal(t, StateEscapeBuilding, inside.State)
	assert.False(t, elsewhere.BuildingDeleted(pos, true))
	assert.Equal(t, StateWalking, elsewhere.State)

	lost := &Serf{Pos: pos}
	assert.False(t, lost.BuildingDeleted(pos, false))
	assert.Equal(t, StateLost, lost.State)
}

func TestCastleDeleted(t *testing.T) {
	pos := world.HexCoord{}
	holder := &Serf{Type: SerfTransporterInventory, Inventory: 1}
	holder.CastleDeleted(pos, true)
	assert.Equal(t, SerfTransporter, holder.Type)
	assert.Equal(t, StateLost, holder.State)
	assert.Zero(t, holder.Inventory)

	knight := &Serf{Type: SerfKnight2}
	knight.CastleDeleted(pos, false)
	assert.Equal(t, SerfKnight2, knight.Type)
}

func TestStateNames(t *testing.T) {
	assert.Equal(t, "escaping building", StateEscapeBuilding.String())
	assert.Equal(t, "state(42)", SerfState(42).String())
}
