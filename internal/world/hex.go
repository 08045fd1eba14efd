// Package world provides the hex grid and the map service the economy runs on.
// Uses axial coordinates (q, r) for the hex grid.
package world

import "fmt"

// HexCoord represents a position on the hex grid using axial coordinates.
// The third cube coordinate s is derived: s = -q - r.
type HexCoord struct {
	Q int `json:"q"`
	R int `json:"r"`
}

// S returns the implicit third cube coordinate.
func (h HexCoord) S() int {
	return -h.Q - h.R
}

func (h HexCoord) String() string {
	return fmt.Sprintf("(%d,%d)", h.Q, h.R)
}

// Direction is one of the six hex directions a road can leave a flag by.
type Direction int8

const (
	DirNone      Direction = -1
	DirRight     Direction = 0
	DirDownRight Direction = 1
	DirDown      Direction = 2
	DirLeft      Direction = 3
	DirUpLeft    Direction = 4
	DirUp        Direction = 5
)

// Reverse returns the opposite direction.
func (d Direction) Reverse() Direction {
	if d == DirNone {
		return DirNone
	}
	return (d + 3) % 6
}

// Valid reports whether d names one of the six directions.
func (d Direction) Valid() bool {
	return d >= DirRight && d <= DirUp
}

var directionNames = [6]string{"right", "down-right", "down", "left", "up-left", "up"}

func (d Direction) String() string {
	if !d.Valid() {
		return "none"
	}
	return directionNames[d]
}

// DirectionsCW lists directions clockwise starting at Right.
var DirectionsCW = [6]Direction{DirRight, DirDownRight, DirDown, DirLeft, DirUpLeft, DirUp}

// DirectionsCCW lists directions counter-clockwise starting at Up.
var DirectionsCCW = [6]Direction{DirUp, DirUpLeft, DirLeft, DirDown, DirDownRight, DirRight}

// HexNeighborDirections defines the six neighbor offsets in axial coordinates,
// indexed by Direction. Entry i and entry i+3 are opposite.
var HexNeighborDirections = [6]HexCoord{
	{Q: 1, R: 0},
	{Q: 1, R: -1},
	{Q: 0, R: -1},
	{Q: -1, R: 0},
	{Q: -1, R: 1},
	{Q: 0, R: 1},
}

// Move returns the coordinate one step away in direction d.
func (h HexCoord) Move(d Direction) HexCoord {
	if !d.Valid() {
		return h
	}
	off := HexNeighborDirections[d]
	return HexCoord{Q: h.Q + off.Q, R: h.R + off.R}
}

// Neighbors returns the six adjacent hex coordinates.
func (h HexCoord) Neighbors() [6]HexCoord {
	var result [6]HexCoord
	for i, dir := range HexNeighborDirections {
		result[i] = HexCoord{Q: h.Q + dir.Q, R: h.R + dir.R}
	}
	return result
}

// Distance returns the hex distance between two coordinates.
func Distance(a, b HexCoord) int {
	dq := abs(a.Q - b.Q)
	dr := abs(a.R - b.R)
	ds := abs(a.S() - b.S())
	// Max of the three absolute differences in cube coordinates.
	return max(dq, dr, ds)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
