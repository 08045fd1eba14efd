package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/serfworks/internal/agents"
	"github.com/talgya/serfworks/internal/economy"
	"github.com/talgya/serfworks/internal/world"
)

func TestStartBuildingStockLayout(t *testing.T) {
	g := newTestGame(t)

	fisher, err := g.BuildBuilding(world.HexCoord{Q: 2}, BuildingFisher, 0)
	require.NoError(t, err)
	assert.True(t, fisher.Constructing)
	assert.False(t, fisher.Holder)
	assert.Equal(t, 1, fisher.Progress)
	assert.Equal(t, economy.ResourcePlank, fisher.Stock[0].Type)
	assert.Equal(t, 2, fisher.Stock[0].Maximum)
	assert.Equal(t, economy.ResourceStone, fisher.Stock[1].Type)
	assert.Equal(t, 0, fisher.Stock[1].Maximum)
	assert.False(t, fisher.IsLeveling())

	sawmill, err := g.BuildBuilding(world.HexCoord{Q: -4, R: 2}, BuildingSawmill, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, sawmill.Progress)
	assert.True(t, sawmill.IsLeveling())
	assert.Equal(t, 3, sawmill.Stock[0].Maximum)
	assert.Equal(t, 2, sawmill.Stock[1].Maximum)

	f, ok := g.FlagAt(fisher.FlagPos())
	require.True(t, ok)
	assert.Equal(t, fisher.Index, f.Building)
	assert.Equal(t, f.Index, fisher.Flag)

	p, _ := g.Player(0)
	assert.Equal(t, 1, p.IncompleteBuildings[int(BuildingFisher)])
}

func TestBuildBuildingRejectsBadPlacement(t *testing.T) {
	g := newTestGame(t)
	_, err := g.BuildBuilding(world.HexCoord{}, BuildingType(99), 0)
	require.ErrorIs(t, err, ErrInvalidBuildingType)

	_, err = g.BuildBuilding(world.HexCoord{Q: 40}, BuildingFisher, 0)
	require.ErrorIs(t, err, ErrInvalidPosition)

	_, err = g.BuildBuilding(world.HexCoord{}, BuildingFisher, 0)
	require.NoError(t, err)
	_, err = g.BuildBuilding(world.HexCoord{}, BuildingHut, 0)
	require.ErrorIs(t, err, ErrPositionOccupied)
}

func TestBuildProgressFinishesOnce(t *testing.T) {
	g := newTestGame(t)
	b, err := g.BuildBuilding(world.HexCoord{Q: 2}, BuildingStoneMine, 0)
	require.NoError(t, err)

	prev := b.Progress
	steps := 0
	for !b.BuildProgress() {
		require.Greater(t, b.Progress, prev)
		prev = b.Progress
		steps++
		require.Less(t, steps, 100)
	}
	// 16 steps of 2048 reach the second phase; the 24th step of 1366
	// finishes.
	assert.Equal(t, 39, steps)

	assert.True(t, b.IsDone())
	assert.Equal(t, 0, b.Progress)
	assert.False(t, b.Holder)
	assert.Equal(t, economy.StockSlot{}, b.Stock[0])
	assert.Equal(t, economy.StockSlot{}, b.Stock[1])

	p, _ := g.Player(0)
	assert.Equal(t, 1, p.CompletedBuildings[int(BuildingStoneMine)])
	assert.Zero(t, p.IncompleteBuildings[int(BuildingStoneMine)])
	assert.Equal(t, BuildingStoneMine.Score(), p.BuildingScore)
}

func TestConstructionPriorityQuarteredWithoutBuilder(t *testing.T) {
	g := newTestGame(t)
	b, err := g.BuildBuilding(world.HexCoord{Q: 2}, BuildingHut, 0)
	require.NoError(t, err)

	// No inventory anywhere, so the builder request fails.
	require.NoError(t, b.Update(1))
	assert.Equal(t, RequestFailed, b.SerfRequest)
	assert.Equal(t, (65500>>8)>>2&^1, b.Stock[0].Priority)

	b.Holder = true
	require.NoError(t, b.Update(2))
	assert.Equal(t, (65500>>8)&^1, b.Stock[0].Priority)
	assert.Zero(t, b.Stock[0].Priority&1)

	b.Stock[0].Available = 1
	require.NoError(t, b.Update(3))
	assert.Zero(t, b.Stock[0].Priority, "a full slot has no demand")

	b.ClearSerfRequestFailure()
	assert.Equal(t, RequestNone, b.SerfRequest)
}

func TestBurnupIsIdempotent(t *testing.T) {
	g := newTestGame(t)
	b := buildFinished(t, g, world.HexCoord{Q: 2}, BuildingFisher)
	flagPos := b.FlagPos()

	require.True(t, b.Burnup())
	assert.True(t, b.Burning)
	assert.False(t, b.Active)
	assert.Equal(t, burningTicks, b.BurningCounter)
	_, ok := g.FlagAt(flagPos)
	assert.False(t, ok, "flag without roads goes with the building")

	p, _ := g.Player(0)
	assert.Zero(t, p.CompletedBuildings[int(BuildingFisher)])
	score := p.BuildingScore

	b.BurningCounter = 5
	require.True(t, b.Burnup())
	assert.Equal(t, 5, b.BurningCounter)
	assert.Equal(t, score, p.BuildingScore)
}

func TestBurnupExpelsStockTransporter(t *testing.T) {
	g := newTestGame(t)
	stock := buildFinished(t, g, world.HexCoord{Q: 2}, BuildingStock)
	keeper := g.CreateSerf(0, agents.SerfTransporterInventory)
	keeper.EnterBuilding(stock.Pos)
	stock.Holder = true
	stock.Knights = []agents.SerfIndex{keeper.Index}

	require.True(t, stock.Burnup())
	assert.False(t, stock.Holder)
	assert.Equal(t, agents.SerfTransporter, keeper.Type)
	assert.Equal(t, agents.StateLost, keeper.State)
	assert.Zero(t, keeper.Inventory)
}

func TestBurnupKeepsFlagWithRoads(t *testing.T) {
	g, _, cf := newSettlement(t)
	b := buildFinished(t, g, world.HexCoord{Q: 2}, BuildingFisher)
	connect(t, g, cf, world.DirRight, 2)

	b.Burnup()
	f, ok := g.FlagAt(b.FlagPos())
	require.True(t, ok)
	assert.Equal(t, b.Index, f.Building)
}

func TestBurningBuildingIsRemoved(t *testing.T) {
	g := newTestGame(t)
	b := buildFinished(t, g, world.HexCoord{Q: 2}, BuildingFisher)
	idx := b.Index
	g.Tick = 10
	b.Burnup()

	require.NoError(t, b.Update(1000))
	assert.Equal(t, burningTicks-990, b.BurningCounter)
	require.NoError(t, b.Update(3000))
	assert.False(t, g.Buildings.Exists(idx))
	obj, _ := g.Map.Object(world.HexCoord{Q: 2})
	assert.Equal(t, world.ObjectNone, obj)
}

func TestHutRequestsKnightOnce(t *testing.T) {
	g, castle, cf := newSettlement(t)
	hut := buildFinished(t, g, world.HexCoord{Q: 2}, BuildingHut)
	connect(t, g, cf, world.DirRight, 2)
	inv := castleInventory(t, g, castle)
	swords := inv.CountOf(economy.ResourceSword)

	require.NoError(t, hut.Update(1))
	assert.Equal(t, 1, hut.Stock[0].Requested)
	assert.Equal(t, RequestNone, hut.SerfRequest)
	assert.Equal(t, swords-1, inv.CountOf(economy.ResourceSword))

	require.NoError(t, hut.Update(2))
	assert.Equal(t, 1, hut.Stock[0].Requested, "one knight on the way covers the need")

	var walking []*agents.Serf
	for _, s := range g.Serfs.All() {
		if s.Type.IsKnight() && s.State == agents.StateWalking {
			walking = append(walking, s)
		}
	}
	require.Len(t, walking, 1)

	require.NoError(t, g.updateSerfs())
	assert.Equal(t, agents.StateInBuilding, walking[0].State)
	assert.Equal(t, []agents.SerfIndex{walking[0].Index}, hut.Knights)
	assert.Equal(t, 1, hut.Stock[0].Available)
	assert.Equal(t, 0, hut.Stock[0].Requested)
	assert.True(t, hut.Active)
	assert.True(t, hut.Holder)
	assert.Equal(t, economy.ResourceGoldBar, hut.Stock[1].Type)
	assert.Equal(t, 2, hut.Stock[1].Maximum)
	assert.Equal(t, 0, g.Map.Owner(hut.Pos))
}

func TestHutWithoutSourceFailsStickily(t *testing.T) {
	g := newTestGame(t)
	hut := buildFinished(t, g, world.HexCoord{Q: 2}, BuildingHut)

	require.NoError(t, hut.Update(1))
	assert.Equal(t, RequestFailed, hut.SerfRequest)
	assert.Zero(t, hut.Stock[0].Requested)

	g.clearRequestFailures()
	assert.Equal(t, RequestNone, hut.SerfRequest)
}

func TestMilitaryEvictsWeakestKnight(t *testing.T) {
	g, _, cf := newSettlement(t)
	hut := buildFinished(t, g, world.HexCoord{Q: 2}, BuildingHut)
	connect(t, g, cf, world.DirRight, 2)
	hut.Active = true
	hut.Holder = true

	first := garrison(g, hut, agents.SerfKnight0)
	strong := garrison(g, hut, agents.SerfKnight2)
	second := garrison(g, hut, agents.SerfKnight0)
	hut.Stock[0].Available = 3

	require.NoError(t, hut.Update(1))
	assert.Equal(t, []agents.SerfIndex{strong.Index, second.Index}, hut.Knights)
	assert.Equal(t, 2, hut.Stock[0].Available)
	assert.Equal(t, agents.StateReturning, first.State)
	assert.Equal(t, uint32(cf.Index), first.Dest)

	p, _ := g.Player(0)
	assert.Equal(t, 2, p.MilitaryMaxGold)
	assert.Equal(t, economy.GoldPriority(0, 2), hut.Stock[1].Priority)
}

func TestMilitaryKeepsKnightsWhileFlagBusy(t *testing.T) {
	g := newTestGame(t)
	hut := buildFinished(t, g, world.HexCoord{Q: 2}, BuildingHut)
	hut.Active = true
	hut.Holder = true
	garrison(g, hut, agents.SerfKnight0)
	garrison(g, hut, agents.SerfKnight1)
	hut.Stock[0].Available = 2

	visitor := g.CreateSerf(0, agents.SerfTransporter)
	g.Map.SetSerfIndex(hut.FlagPos(), uint32(visitor.Index))

	require.NoError(t, hut.Update(1))
	assert.Len(t, hut.Knights, 2)
	assert.Equal(t, 2, hut.Stock[0].Available)
}

func TestCastleTrainsGarrison(t *testing.T) {
	g, castle, _ := newSettlement(t)
	inv := castleInventory(t, g, castle)
	p, _ := g.Player(0)
	assert.Empty(t, castle.Knights)

	for tick := uint32(1); tick <= 3; tick++ {
		require.NoError(t, castle.Update(tick))
	}
	assert.Equal(t, 3, p.CastleKnights)
	require.Len(t, castle.Knights, 3)
	for _, idx := range castle.Knights {
		s, ok := g.Serf(idx)
		require.True(t, ok)
		assert.Equal(t, agents.SerfKnight0, s.Type)
	}
	assert.Equal(t, 1, inv.CountOf(economy.ResourceSword))
	assert.Equal(t, 1, inv.CountOf(economy.ResourceShield))
	assert.Equal(t, 13, inv.FreeSerfCount())
	assert.False(t, inv.HaveSerf(agents.SerfKnight0), "garrisoned knights are not idle")
}

func TestCastleTrainingFaultsOnMissingSerf(t *testing.T) {
	g, castle, _ := newSettlement(t)
	inv := castleInventory(t, g, castle)
	for _, idx := range inv.Serfs[agents.SerfGeneric] {
		g.Serfs.Erase(idx)
	}
	require.True(t, inv.CanSpecialize(agents.SerfKnight0))

	err := castle.Update(1)
	require.ErrorIs(t, err, ErrMissingSerf)
	assert.Empty(t, castle.Knights)
}

func TestCastleRotatesWeakestToBack(t *testing.T) {
	g, castle, _ := newSettlement(t)
	p, _ := g.Player(0)
	a := garrison(g, castle, agents.SerfKnight2)
	weak := garrison(g, castle, agents.SerfKnight0)
	c := garrison(g, castle, agents.SerfKnight1)
	p.CastleKnights = 3

	require.NoError(t, castle.Update(1))
	assert.Equal(t, []agents.SerfIndex{a.Index, c.Index, weak.Index}, castle.Knights)
	assert.Equal(t, 3, p.CastleKnights)
}

func TestCastlePrefersIdleKnights(t *testing.T) {
	g, castle, _ := newSettlement(t)
	inv := castleInventory(t, g, castle)
	p, _ := g.Player(0)
	low := g.CreateSerf(0, agents.SerfKnight1)
	g.stayIdleInStock(low, inv)
	high := g.CreateSerf(0, agents.SerfKnight3)
	g.stayIdleInStock(high, inv)
	swords := inv.CountOf(economy.ResourceSword)

	require.NoError(t, castle.Update(1))
	require.NoError(t, castle.Update(2))
	assert.Equal(t, []agents.SerfIndex{low.Index, high.Index}, castle.Knights)
	assert.Equal(t, 2, p.CastleKnights)
	assert.Equal(t, swords, inv.CountOf(economy.ResourceSword))
}

func TestCastleDemotesSurplusKnight(t *testing.T) {
	g, castle, _ := newSettlement(t)
	inv := castleInventory(t, g, castle)
	p, _ := g.Player(0)
	front := garrison(g, castle, agents.SerfKnight1)
	back := garrison(g, castle, agents.SerfKnight0)
	p.CastleKnights = 2
	p.CastleKnightsWanted = 1

	require.NoError(t, castle.Update(1))
	assert.Equal(t, []agents.SerfIndex{back.Index}, castle.Knights)
	assert.Equal(t, 1, p.CastleKnights)
	assert.Equal(t, agents.StateIdleInStock, front.State)
	assert.True(t, inv.HaveSerf(agents.SerfKnight1))
}

func TestCastleDemoteWithEmptyRoster(t *testing.T) {
	g, castle, _ := newSettlement(t)
	p, _ := g.Player(0)
	p.CastleKnights = 1
	p.CastleKnightsWanted = 0

	err := castle.Update(1)
	require.ErrorIs(t, err, ErrEmptyKnightQueue)
}

func TestCallDefenderOutIsLastIn(t *testing.T) {
	g := newTestGame(t)
	hut := buildFinished(t, g, world.HexCoord{Q: 2}, BuildingHut)
	a := garrison(g, hut, agents.SerfKnight0)
	b := garrison(g, hut, agents.SerfKnight4)
	hut.Stock[0].Available = 2

	got, err := hut.CallDefenderOut()
	require.NoError(t, err)
	assert.Equal(t, b.Index, got)
	assert.Equal(t, 1, hut.Stock[0].Available)
	assert.Equal(t, 1, hut.Stock[0].Requested)

	got, err = hut.CallDefenderOut()
	require.NoError(t, err)
	assert.Equal(t, a.Index, got)

	_, err = hut.CallDefenderOut()
	require.ErrorIs(t, err, ErrEmptyKnightQueue)
}

func TestCallDefenderOutOfCastle(t *testing.T) {
	g, castle, _ := newSettlement(t)
	p, _ := g.Player(0)
	k := garrison(g, castle, agents.SerfKnight2)
	p.CastleKnights = 1

	got, err := castle.CallDefenderOut()
	require.NoError(t, err)
	assert.Equal(t, k.Index, got)
	assert.Zero(t, p.CastleKnights)
	assert.Equal(t, economy.UnlimitedStock, castle.Stock[0].Requested)
}

func TestCallAttackerOut(t *testing.T) {
	tests := []struct {
		name      string
		ranks     []agents.SerfType
		strongest bool
		want      int
	}{
		{"strongest", []agents.SerfType{agents.SerfKnight1, agents.SerfKnight3, agents.SerfKnight2}, true, 1},
		{"weakest", []agents.SerfType{agents.SerfKnight1, agents.SerfKnight3, agents.SerfKnight2}, false, 0},
		{"strongest tie takes later", []agents.SerfType{agents.SerfKnight3, agents.SerfKnight0, agents.SerfKnight3}, true, 2},
		{"weakest tie takes later", []agents.SerfType{agents.SerfKnight0, agents.SerfKnight2, agents.SerfKnight0}, false, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGame(t)
			hut := buildFinished(t, g, world.HexCoord{Q: 2}, BuildingHut)
			var serfs []*agents.Serf
			for _, r := range tt.ranks {
				serfs = append(serfs, garrison(g, hut, r))
			}
			hut.Stock[0].Available = len(serfs)

			got, err := hut.CallAttackerOut(tt.strongest)
			require.NoError(t, err)
			assert.Equal(t, serfs[tt.want].Index, got)
			assert.Len(t, hut.Knights, len(serfs)-1)
			assert.NotContains(t, hut.Knights, got)
			assert.Equal(t, len(serfs)-1, hut.Stock[0].Available)
		})
	}
}

func TestRequestedKnightArrived(t *testing.T) {
	g := newTestGame(t)
	hut := buildFinished(t, g, world.HexCoord{Q: 2}, BuildingHut)
	hut.KnightRequestGranted()
	require.Equal(t, 1, hut.Stock[0].Requested)

	require.NoError(t, hut.RequestedKnightArrived())
	assert.Equal(t, 1, hut.Stock[0].Available)
	assert.Zero(t, hut.Stock[0].Requested)

	err := hut.RequestedKnightArrived()
	require.ErrorIs(t, err, economy.ErrUnrequestedDelivery)
	assert.Equal(t, 1, hut.Stock[0].Available)
	assert.Zero(t, hut.Stock[0].Requested)
}

func TestKnightComeBackFromFight(t *testing.T) {
	g := newTestGame(t)
	hut := buildFinished(t, g, world.HexCoord{Q: 2}, BuildingHut)
	garrison(g, hut, agents.SerfKnight0)
	hut.Stock[0].Available = 1
	hut.Stock[0].Requested = 1

	back := g.CreateSerf(0, agents.SerfKnight2)
	ok, err := hut.KnightComeBackFromFight(back.Index)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, back.Index, hut.Knights[0])
	assert.Equal(t, 2, hut.Stock[0].Available)

	// Capacity 3 is now reached.
	late := g.CreateSerf(0, agents.SerfKnight1)
	ok, err = hut.KnightComeBackFromFight(late.Index)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Len(t, hut.Knights, 2)

	fisher := buildFinished(t, g, world.HexCoord{Q: -4}, BuildingFisher)
	_, err = fisher.KnightComeBackFromFight(late.Index)
	require.ErrorIs(t, err, ErrNotMilitary)
}

func TestRequestedResourceDelivered(t *testing.T) {
	g := newTestGame(t)
	b, err := g.BuildBuilding(world.HexCoord{Q: 2}, BuildingHut, 0)
	require.NoError(t, err)

	require.True(t, b.AddRequestedResource(economy.ResourceStone, false))
	require.NoError(t, b.RequestedResourceDelivered(economy.ResourceStone))
	assert.Equal(t, 1, b.Stock[1].Available)
	assert.Zero(t, b.Stock[1].Requested)

	err = b.RequestedResourceDelivered(economy.ResourceStone)
	require.ErrorIs(t, err, economy.ErrUnrequestedDelivery)

	err = b.RequestedResourceDelivered(economy.ResourceFish)
	require.ErrorIs(t, err, economy.ErrUnexpectedResource)

	assert.False(t, b.AddRequestedResource(economy.ResourceCoal, true))
}

func TestIncreaseMiningHistory(t *testing.T) {
	g := newTestGame(t)
	mine := buildFinished(t, g, world.HexCoord{Q: 2}, BuildingCoalMine)

	mine.IncreaseMining(1)
	mine.IncreaseMining(0)
	mine.IncreaseMining(1)
	assert.Equal(t, 0b101, mine.Progress)
	assert.True(t, mine.Active)

	mine.Progress = progressFrameFinished
	mine.IncreaseMining(0)
	assert.Zero(t, mine.Progress)
	p, _ := g.Player(0)
	require.NotEmpty(t, p.Notifications)
}

func TestThreatLevelFromForeignLand(t *testing.T) {
	g := newTestGame(t)
	hut := buildFinished(t, g, world.HexCoord{}, BuildingHut)
	hut.UpdateMilitaryFlagState()
	assert.Zero(t, hut.ThreatLevel)

	far := world.AddSpirally(hut.Pos, world.RingStart(10))
	g.Map.SetOwner(far, 1)
	hut.UpdateMilitaryFlagState()
	assert.Equal(t, 1, hut.ThreatLevel)

	mid := world.AddSpirally(hut.Pos, world.RingStart(8))
	g.Map.SetOwner(mid, 1)
	hut.UpdateMilitaryFlagState()
	assert.Equal(t, 2, hut.ThreatLevel)

	near := world.AddSpirally(hut.Pos, world.RingStart(2))
	g.Map.SetOwner(near, 1)
	hut.UpdateMilitaryFlagState()
	assert.Equal(t, 3, hut.ThreatLevel)

	g.Map.SetOwner(near, 0)
	g.Map.SetOwner(mid, 0)
	g.Map.SetOwner(far, 0)
	hut.UpdateMilitaryFlagState()
	assert.Zero(t, hut.ThreatLevel)
}
