package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMoveAndReverse(t *testing.T) {
	origin := HexCoord{}
	for _, d := range DirectionsCW {
		step := origin.Move(d)
		assert.Equal(t, 1, Distance(origin, step), d.String())
		assert.Equal(t, origin, step.Move(d.Reverse()), d.String())
	}
	assert.Equal(t, DirNone, DirNone.Reverse())
	assert.Equal(t, origin, origin.Move(DirNone))
	assert.Equal(t, "none", DirNone.String())
}

func TestDirectionOrders(t *testing.T) {
	for i, d := range DirectionsCW {
		assert.Equal(t, d, DirectionsCCW[5-i])
	}
}

func TestDistance(t *testing.T) {
	tests := []struct {
		a, b HexCoord
		want int
	}{
		{HexCoord{}, HexCoord{}, 0},
		{HexCoord{}, HexCoord{Q: 3}, 3},
		{HexCoord{Q: 1, R: -1}, HexCoord{Q: -1, R: 1}, 2},
		{HexCoord{Q: 2, R: 1}, HexCoord{Q: -1, R: -1}, 5},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Distance(tt.a, tt.b), "%s-%s", tt.a, tt.b)
		assert.Equal(t, tt.want, Distance(tt.b, tt.a))
	}
}

func TestSpiralRings(t *testing.T) {
	center := HexCoord{Q: 4, R: -2}
	assert.Equal(t, center, AddSpirally(center, 0))
	for k := 1; k <= SpiralRings; k++ {
		for i := RingStart(k); i < RingStart(k+1); i++ {
			assert.Equal(t, k, Distance(center, AddSpirally(center, i)), "index %d", i)
		}
	}
	assert.Equal(t, RingStart(SpiralRings+1), SpiralCount())
	assert.Equal(t, center, AddSpirally(center, SpiralCount()))
	assert.Equal(t, center, AddSpirally(center, -1))
}

func TestSpiralFirstRingIsNeighbors(t *testing.T) {
	pos := HexCoord{Q: 1}
	want := pos.Neighbors()
	got := make([]HexCoord, 0, 6)
	for i := 1; i < RingStart(2); i++ {
		got = append(got, AddSpirally(pos, i))
	}
	assert.ElementsMatch(t, want[:], got)
}
