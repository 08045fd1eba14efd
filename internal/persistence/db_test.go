package persistence

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/serfworks/internal/engine"
	"github.com/talgya/serfworks/internal/world"
)

func testGame(t *testing.T) *engine.Game {
	t.Helper()
	g := engine.NewGame(12, []string{"Ada"})
	castle, err := g.BuildCastle(world.HexCoord{}, 0, 20, 8)
	require.NoError(t, err)
	_, err = g.BuildBuilding(world.HexCoord{Q: 2}, engine.BuildingLumberjack, 0)
	require.NoError(t, err)
	require.NoError(t, g.BuildRoad(castle.Flag, []world.Direction{world.DirRight, world.DirRight}, false))
	for range 5 {
		require.NoError(t, g.Update())
	}
	return g
}

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "economy.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSaveAndLoadGame(t *testing.T) {
	db := openTestDB(t)
	g := testGame(t)

	rec, err := db.SaveGame(g)
	require.NoError(t, err)
	assert.Equal(t, g.ID.String(), rec.GameID)
	assert.Equal(t, uint32(5), rec.Tick)
	assert.Positive(t, rec.RawSize)

	latest, err := db.LatestSave(g.ID.String())
	require.NoError(t, err)
	assert.Equal(t, rec.ID, latest.ID)

	loaded, err := db.LoadGame(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, g.ID, loaded.ID)
	assert.Equal(t, g.Tick, loaded.Tick)
	assert.Equal(t, g.Buildings.Len(), loaded.Buildings.Len())
	assert.Equal(t, g.Flags.Len(), loaded.Flags.Len())
	assert.Equal(t, g.Serfs.Len(), loaded.Serfs.Len())

	last, err := db.GetMeta("last_tick")
	require.NoError(t, err)
	assert.Equal(t, "5", last)
}

func TestSummaryRowsReplaced(t *testing.T) {
	db := openTestDB(t)
	g := testGame(t)
	_, err := db.SaveGame(g)
	require.NoError(t, err)

	for range 5 {
		require.NoError(t, g.Update())
	}
	_, err = db.SaveGame(g)
	require.NoError(t, err)

	buildings, err := db.Buildings(g.ID.String())
	require.NoError(t, err)
	require.Len(t, buildings, 2)
	assert.Equal(t, "castle", buildings[0].Type)
	assert.False(t, buildings[0].Constructing)
	assert.Equal(t, "lumberjack", buildings[1].Type)
	assert.True(t, buildings[1].Constructing)
	assert.Equal(t, 2, buildings[1].PosQ)

	flags, err := db.Flags(g.ID.String())
	require.NoError(t, err)
	assert.Len(t, flags, 2)
	for _, f := range flags {
		assert.NotZero(t, f.Paths)
	}

	saves, err := db.ListSaves(10)
	require.NoError(t, err)
	require.Len(t, saves, 2)
	assert.Equal(t, uint32(10), saves[0].Tick)
	assert.Equal(t, uint32(5), saves[1].Tick)
}

func TestMissingSave(t *testing.T) {
	db := openTestDB(t)

	_, err := db.LatestSave("")
	require.ErrorIs(t, err, ErrNoSave)
	_, err = db.LoadGame(7)
	require.ErrorIs(t, err, ErrNoSave)
}

func TestSummarize(t *testing.T) {
	g := testGame(t)
	buildings, flags := Summarize(g)
	require.Len(t, buildings, 2)
	require.Len(t, flags, 2)
	assert.Equal(t, g.ID.String(), buildings[0].GameID)
	assert.Equal(t, uint32(1), buildings[0].ID)
	assert.Equal(t, 1, flags[0].PosQ)
	assert.Equal(t, -1, flags[0].PosR)
}

func TestCompressRoundTrip(t *testing.T) {
	raw := []byte("economy:\n  tick: 12\n")
	body, err := compress(raw)
	require.NoError(t, err)
	got, err := decompress(body)
	require.NoError(t, err)
	assert.Equal(t, raw, got)

	_, err = decompress([]byte("not zstd"))
	assert.Error(t, err)
}
