package engine

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/serfworks/internal/agents"
	"github.com/talgya/serfworks/internal/economy"
	"github.com/talgya/serfworks/internal/savegame"
	"github.com/talgya/serfworks/internal/world"
)

func detached(b *Building) Building {
	c := *b
	c.g = nil
	return c
}

func textRoundTrip(t *testing.T, b *Building) *Building {
	t.Helper()
	s := savegame.NewSection(sectionBuilding, uint32(b.Index))
	b.EncodeText(s)
	got, err := newTestGame(t).DecodeBuildingText(s)
	require.NoError(t, err)
	return got
}

func binaryRoundTrip(t *testing.T, g *Game, b *Building) *Building {
	t.Helper()
	var w savegame.BinaryWriter
	b.WriteBinary(&w)
	idx := b.Index
	require.True(t, g.Buildings.Erase(idx))
	got, err := g.ReadBuildingBinary(savegame.NewBinaryReader(w.Bytes()), idx)
	require.NoError(t, err)
	return got
}

func TestBuildingTextRoundTrip(t *testing.T) {
	t.Run("construction site", func(t *testing.T) {
		g := newTestGame(t)
		site, err := g.BuildBuilding(world.HexCoord{Q: 2}, BuildingFisher, 0)
		require.NoError(t, err)
		site.Holder = true
		site.Knights = []agents.SerfIndex{5}
		site.Level = 3
		site.Stock[0].Priority = 62
		site.Stock[0].Requested = 1

		got := textRoundTrip(t, site)
		assert.Equal(t, detached(site), detached(got))
	})

	t.Run("garrisoned hut", func(t *testing.T) {
		g := newTestGame(t)
		hut := buildFinished(t, g, world.HexCoord{Q: 2}, BuildingHut)
		garrison(g, hut, agents.SerfKnight1)
		garrison(g, hut, agents.SerfKnight3)
		hut.Active = true
		hut.Holder = true
		hut.ThreatLevel = 2
		hut.Stock[0].Available = 2
		hut.StockInit(1, economy.ResourceGoldBar, 2)
		hut.Stock[1].Available = 1
		hut.Stock[1].Priority = economy.GoldPriority(1, 2)

		got := textRoundTrip(t, hut)
		assert.Equal(t, detached(hut), detached(got))
	})

	t.Run("burning", func(t *testing.T) {
		g := newTestGame(t)
		b := buildFinished(t, g, world.HexCoord{Q: 2}, BuildingFisher)
		g.Tick = 40
		b.Burnup()
		b.BurningCounter = 1200

		got := textRoundTrip(t, b)
		assert.Equal(t, detached(b), detached(got))
	})

	t.Run("castle", func(t *testing.T) {
		_, castle, _ := newSettlement(t)
		got := textRoundTrip(t, castle)
		assert.Equal(t, castle.Inventory, got.Inventory)
		assert.Equal(t, detached(castle), detached(got))
	})
}

func TestBuildingTextRejectsBadType(t *testing.T) {
	g := newTestGame(t)
	b, err := g.BuildBuilding(world.HexCoord{Q: 2}, BuildingFisher, 0)
	require.NoError(t, err)
	b.Type = BuildingType(60)

	s := savegame.NewSection(sectionBuilding, uint32(b.Index))
	b.EncodeText(s)
	_, err = newTestGame(t).DecodeBuildingText(s)
	require.ErrorIs(t, err, ErrInvalidBuildingType)

	_, err = newTestGame(t).DecodeBuildingText(savegame.NewSection(sectionBuilding, 1))
	require.ErrorIs(t, err, savegame.ErrMissingKey)
}

func TestRequestFailureWinsOnLoad(t *testing.T) {
	assert.Equal(t, RequestFailed, unpackRequest(true, true))
	assert.Equal(t, RequestFailed, unpackRequest(false, true))
	assert.Equal(t, RequestPending, unpackRequest(true, false))
	assert.Equal(t, RequestNone, unpackRequest(false, false))
}

func TestFlagTextRoundTrip(t *testing.T) {
	_, c, d := crossroads(t)
	c.Slots[0] = ResourceSlot{Type: economy.ResourcePlank, Dir: world.DirLeft, Dest: d.Index}
	c.Slots[4] = ResourceSlot{Type: economy.ResourceCoal, Dir: world.DirNone}
	c.Paths[world.DirLeft].Scheduled = true
	c.Paths[world.DirLeft].Request = RequestPending
	c.HasResources = true
	c.SerfRequestFailed = true

	s := savegame.NewSection(sectionFlag, uint32(c.Index))
	c.EncodeText(s)
	got, err := newTestGame(t).DecodeFlagText(s)
	require.NoError(t, err)

	want := *c
	want.g, want.searchNum, want.searchDir = nil, 0, world.DirNone
	have := *got
	have.g = nil
	assert.Equal(t, want, have)
}

func TestBuildingBinaryRoundTrip(t *testing.T) {
	t.Run("construction site", func(t *testing.T) {
		g := newTestGame(t)
		site, err := g.BuildBuilding(world.HexCoord{Q: 2, R: -3}, BuildingFisher, 1)
		require.NoError(t, err)
		builder := g.CreateSerf(1, agents.SerfBuilder)
		site.Knights = []agents.SerfIndex{builder.Index}
		site.Holder = true
		site.SerfRequest = RequestPending
		site.Level = 3
		site.Stock[0].Available = 1
		site.Stock[0].Requested = 1

		got := binaryRoundTrip(t, g, site)
		assert.Equal(t, detached(site), detached(got))
	})

	t.Run("garrisoned hut", func(t *testing.T) {
		g := newTestGame(t)
		hut := buildFinished(t, g, world.HexCoord{Q: -3, R: 1}, BuildingHut)
		a := garrison(g, hut, agents.SerfKnight0)
		b := garrison(g, hut, agents.SerfKnight4)
		hut.Active = true
		hut.Holder = true
		hut.ThreatLevel = 1
		hut.SerfRequest = RequestFailed
		hut.Stock[0].Available = 2
		hut.StockInit(1, economy.ResourceGoldBar, 2)
		hut.Stock[1].Available = 1

		got := binaryRoundTrip(t, g, hut)
		assert.Equal(t, []agents.SerfIndex{a.Index, b.Index}, got.Knights)
		assert.Equal(t, b.Index, a.Next)
		assert.Equal(t, detached(hut), detached(got))
	})

	t.Run("castle", func(t *testing.T) {
		g, castle, _ := newSettlement(t)
		inv := castleInventory(t, g, castle)

		got := binaryRoundTrip(t, g, castle)
		assert.True(t, got.HasInventory())
		assert.Equal(t, InventoryIndex(inv.Index), got.Inventory)
		assert.Equal(t, economy.UnlimitedStock, got.Stock[0].Requested)
		assert.Equal(t, uint32(got.Index), inv.Building)
		assert.True(t, got.Active)
		assert.True(t, got.IsDone())
	})
}

func TestStockBinaryAlwaysHasInventory(t *testing.T) {
	t.Run("unset inventory marker", func(t *testing.T) {
		g := newTestGame(t)
		stock := buildFinished(t, g, world.HexCoord{Q: 3}, BuildingStock)
		require.NoError(t, stock.Update(1))
		require.True(t, stock.HasInventory())
		invIndex := stock.Inventory

		var w savegame.BinaryWriter
		stock.WriteBinary(&w)
		data := w.Bytes()
		require.Equal(t, byte(packedHasInventory), data[8])
		data[8] = 0
		require.True(t, g.Buildings.Erase(stock.Index))

		got, err := g.ReadBuildingBinary(savegame.NewBinaryReader(data), stock.Index)
		require.NoError(t, err)
		assert.Equal(t, invIndex, got.Inventory)
		assert.True(t, got.Active)
		assert.Equal(t, economy.UnlimitedStock, got.Stock[0].Requested)
	})

	t.Run("burned stock", func(t *testing.T) {
		g := newTestGame(t)
		stock := buildFinished(t, g, world.HexCoord{Q: 3}, BuildingStock)
		require.NoError(t, stock.Update(1))
		stock.Burnup()
		require.False(t, stock.HasInventory())

		got := binaryRoundTrip(t, g, stock)
		assert.False(t, got.HasInventory())
		assert.True(t, got.Burning)
		assert.Zero(t, g.Inventories.Len())
	})
}

func TestBuildingBinaryErrors(t *testing.T) {
	g := newTestGame(t)

	var w savegame.BinaryWriter
	w.PutU32(0)
	w.PutU8(0)
	w.PutU8(0)
	w.PutU16(1)
	w.PutU16(0)
	w.PutU16(0)
	w.PutU16(0)
	_, err := g.ReadBuildingBinary(savegame.NewBinaryReader(w.Bytes()), 1)
	require.ErrorIs(t, err, ErrInvalidBuildingType)

	_, err = g.ReadBuildingBinary(savegame.NewBinaryReader([]byte{1, 2}), 1)
	require.ErrorIs(t, err, savegame.ErrShortRead)

	w = savegame.BinaryWriter{}
	w.PutU32(0)
	w.PutU8(uint8(BuildingHut) << 2)
	w.PutU8(0)
	w.PutU16(1)
	w.PutU16(0)
	w.PutU16(42)
	w.PutU16(0)
	w.PutU16(0)
	_, err = g.ReadBuildingBinary(savegame.NewBinaryReader(w.Bytes()), 2)
	require.ErrorIs(t, err, ErrMissingSerf)
}

func TestGameTextRoundTrip(t *testing.T) {
	g, site := lumberjackScenario(t)
	for range 5 {
		require.NoError(t, g.Update())
	}

	var buf bytes.Buffer
	require.NoError(t, g.SaveText(&buf))
	loaded, err := LoadText(&buf)
	require.NoError(t, err)

	assert.Equal(t, g.ID, loaded.ID)
	assert.Equal(t, g.Tick, loaded.Tick)
	assert.Equal(t, g.Buildings.Indices(), loaded.Buildings.Indices())
	assert.Equal(t, g.Flags.Indices(), loaded.Flags.Indices())
	assert.Equal(t, g.Serfs.Indices(), loaded.Serfs.Indices())
	require.Len(t, loaded.Players, 2)
	assert.Equal(t, g.Players[0].CastleKnights, loaded.Players[0].CastleKnights)

	got, ok := loaded.Building(site.Index)
	require.True(t, ok)
	assert.Equal(t, detached(site), detached(got))
	for idx, f := range g.Flags.All() {
		lf, ok := loaded.Flag(idx)
		require.True(t, ok)
		assert.Equal(t, f.Paths, lf.Paths)
		assert.Equal(t, f.Slots, lf.Slots)
	}
	for idx, s := range g.Serfs.All() {
		ls, ok := loaded.Serf(idx)
		require.True(t, ok)
		assert.Equal(t, *s, *ls)
	}

	// Both copies advance the same way.
	for range 20 {
		require.NoError(t, g.Update())
		require.NoError(t, loaded.Update())
	}
	got, _ = loaded.Building(site.Index)
	assert.Equal(t, site.Progress, got.Progress)
	assert.Equal(t, site.Stock, got.Stock)
}
