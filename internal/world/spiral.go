package world

// SpiralRings is how many rings around a center the spiral table covers.
const SpiralRings = 12

// spiral holds axial offsets ordered ring by ring: index 0 is the center,
// 1..6 the first ring, 7..18 the second, and so on.
var spiral = buildSpiral(SpiralRings)

func buildSpiral(rings int) []HexCoord {
	offsets := []HexCoord{{}}
	for k := 1; k <= rings; k++ {
		start := HexNeighborDirections[DirUpLeft]
		cur := HexCoord{Q: start.Q * k, R: start.R * k}
		for _, d := range DirectionsCW {
			for j := 0; j < k; j++ {
				offsets = append(offsets, cur)
				cur = cur.Move(d)
			}
		}
	}
	return offsets
}

// SpiralCount returns the number of entries in the spiral table.
func SpiralCount() int {
	return len(spiral)
}

// RingStart returns the spiral index of the first cell at distance k.
func RingStart(k int) int {
	if k <= 0 {
		return 0
	}
	return 1 + 3*k*(k-1)
}

// AddSpirally returns the coordinate at spiral index i around center.
// Indices past the table wrap to the center.
func AddSpirally(center HexCoord, i int) HexCoord {
	if i < 0 || i >= len(spiral) {
		return center
	}
	off := spiral[i]
	return HexCoord{Q: center.Q + off.Q, R: center.R + off.R}
}
