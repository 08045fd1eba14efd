package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMapCellCount(t *testing.T) {
	m := NewMap(3)
	assert.Equal(t, 1+3*3*4, m.CellCount())
	assert.True(t, m.InBounds(HexCoord{Q: 3, R: -3}))
	assert.False(t, m.InBounds(HexCoord{Q: 3, R: 1}))
	assert.Nil(t, m.Get(HexCoord{Q: 4}))
	assert.Equal(t, "Map(radius=3, cells=37)", m.String())
}

func TestOutOfBoundsIsInert(t *testing.T) {
	m := NewMap(2)
	far := HexCoord{Q: 5}
	m.SetHeight(far, 4)
	m.SetOwner(far, 1)
	m.AddPath(far, DirRight)
	m.SetObject(far, ObjectFlag, 3)

	assert.Zero(t, m.Height(far))
	assert.False(t, m.HasOwner(far))
	assert.Zero(t, m.Paths(far))
	obj, idx := m.Object(far)
	assert.Equal(t, ObjectNone, obj)
	assert.Zero(t, idx)
}

func TestPaths(t *testing.T) {
	m := NewMap(2)
	pos := HexCoord{}
	m.AddPath(pos, DirRight)
	m.AddPath(pos, DirUp)
	m.AddPath(pos, DirNone)
	assert.Equal(t, uint8(1<<DirRight|1<<DirUp), m.Paths(pos))

	m.DelPath(pos, DirRight)
	assert.Equal(t, uint8(1<<DirUp), m.Paths(pos))
}

func TestOwnership(t *testing.T) {
	m := NewMap(2)
	pos := HexCoord{Q: 1, R: 1}
	require.False(t, m.HasOwner(pos))

	m.SetOwner(pos, 1)
	assert.True(t, m.HasOwner(pos))
	assert.Equal(t, 1, m.Owner(pos))
}

func TestSavedValue(t *testing.T) {
	m := NewMap(20)
	for _, pos := range []HexCoord{{}, {Q: 7, R: -3}, {Q: -20, R: 20}, {Q: -1, R: -1}} {
		assert.Equal(t, pos, m.PosFromSaved(SavedValue(pos)))
	}
	assert.Equal(t, uint32(0xfffd0007), SavedValue(HexCoord{Q: 7, R: -3}))
}

func TestSortedCoords(t *testing.T) {
	m := NewMap(1)
	coords := m.SortedCoords()
	require.Len(t, coords, 7)
	assert.Equal(t, HexCoord{Q: 0, R: -1}, coords[0])
	assert.Equal(t, HexCoord{Q: 1, R: -1}, coords[1])
	assert.Equal(t, HexCoord{Q: -1, R: 1}, coords[5])
}
