package world

import (
	"fmt"
	"sort"
)

// Object is what occupies a map cell.
type Object uint8

const (
	ObjectNone Object = iota
	ObjectFlag
	ObjectSmallBuilding
	ObjectLargeBuilding
	ObjectCastle
)

// Cell is the per-position state the economy reads and writes.
type Cell struct {
	Coord  HexCoord `json:"coord"`
	Height int      `json:"height"`

	HasOwner bool `json:"has_owner"`
	Owner    int  `json:"owner"`

	// Serf is the index of the serf standing here, 0 if none.
	Serf uint32 `json:"serf"`

	// Paths is a 6-bit bitmap of road segments leaving this cell.
	Paths uint8 `json:"paths"`

	Object      Object `json:"object"`
	ObjectIndex uint32 `json:"object_index"`
}

// Map holds the complete hex grid state.
type Map struct {
	Cells  map[HexCoord]*Cell `json:"-"` // All cells keyed by coordinate
	Radius int                `json:"radius"`
}

// NewMap creates a flat, unowned map with the given radius.
// A hex grid of radius R contains cells where max(|q|, |r|, |s|) <= R.
func NewMap(radius int) *Map {
	m := &Map{
		Cells:  make(map[HexCoord]*Cell),
		Radius: radius,
	}
	for q := -radius; q <= radius; q++ {
		for r := -radius; r <= radius; r++ {
			c := HexCoord{Q: q, R: r}
			if m.InBounds(c) {
				m.Cells[c] = &Cell{Coord: c}
			}
		}
	}
	return m
}

// Get returns the cell at the given coordinate, or nil if out of bounds.
func (m *Map) Get(coord HexCoord) *Cell {
	return m.Cells[coord]
}

// InBounds returns true if the coordinate is within the map radius.
func (m *Map) InBounds(coord HexCoord) bool {
	return Distance(coord, HexCoord{}) <= m.Radius
}

// Height returns the terrain height at pos, 0 outside the map.
func (m *Map) Height(pos HexCoord) int {
	if c := m.Get(pos); c != nil {
		return c.Height
	}
	return 0
}

// SetHeight sets the terrain height at pos.
func (m *Map) SetHeight(pos HexCoord, h int) {
	if c := m.Get(pos); c != nil {
		c.Height = h
	}
}

// HasOwner reports whether pos belongs to any player.
func (m *Map) HasOwner(pos HexCoord) bool {
	c := m.Get(pos)
	return c != nil && c.HasOwner
}

// Owner returns the owning player of pos. Only meaningful if HasOwner.
func (m *Map) Owner(pos HexCoord) int {
	if c := m.Get(pos); c != nil {
		return c.Owner
	}
	return -1
}

// SetOwner assigns pos to player; a negative player clears ownership.
func (m *Map) SetOwner(pos HexCoord, player int) {
	c := m.Get(pos)
	if c == nil {
		return
	}
	c.HasOwner = player >= 0
	c.Owner = player
}

// HasSerf reports whether a serf occupies pos.
func (m *Map) HasSerf(pos HexCoord) bool {
	c := m.Get(pos)
	return c != nil && c.Serf != 0
}

// SerfIndex returns the index of the serf at pos, 0 if none.
func (m *Map) SerfIndex(pos HexCoord) uint32 {
	if c := m.Get(pos); c != nil {
		return c.Serf
	}
	return 0
}

// SetSerfIndex records which serf stands at pos.
func (m *Map) SetSerfIndex(pos HexCoord, serf uint32) {
	if c := m.Get(pos); c != nil {
		c.Serf = serf
	}
}

// Paths returns the road bitmap at pos.
func (m *Map) Paths(pos HexCoord) uint8 {
	if c := m.Get(pos); c != nil {
		return c.Paths & 0x3f
	}
	return 0
}

// AddPath marks a road segment leaving pos in direction d.
func (m *Map) AddPath(pos HexCoord, d Direction) {
	if c := m.Get(pos); c != nil && d.Valid() {
		c.Paths |= 1 << uint(d)
	}
}

// DelPath removes the road segment leaving pos in direction d.
func (m *Map) DelPath(pos HexCoord, d Direction) {
	if c := m.Get(pos); c != nil && d.Valid() {
		c.Paths &^= 1 << uint(d)
	}
}

// Object returns the object at pos and its collection index.
func (m *Map) Object(pos HexCoord) (Object, uint32) {
	if c := m.Get(pos); c != nil {
		return c.Object, c.ObjectIndex
	}
	return ObjectNone, 0
}

// SetObject places obj at pos.
func (m *Map) SetObject(pos HexCoord, obj Object, index uint32) {
	if c := m.Get(pos); c != nil {
		c.Object = obj
		c.ObjectIndex = index
	}
}

// SavedValue packs pos into the 32-bit form used by the binary save:
// low 16 bits hold q, high 16 bits hold r, both two's complement.
func SavedValue(pos HexCoord) uint32 {
	return uint32(uint16(int16(pos.Q))) | uint32(uint16(int16(pos.R)))<<16
}

// PosFromSaved decodes a position packed by SavedValue.
func (m *Map) PosFromSaved(v uint32) HexCoord {
	return HexCoord{Q: int(int16(uint16(v))), R: int(int16(uint16(v >> 16)))}
}

// SortedCoords returns every coordinate in a stable order (by r, then q).
func (m *Map) SortedCoords() []HexCoord {
	coords := make([]HexCoord, 0, len(m.Cells))
	for c := range m.Cells {
		coords = append(coords, c)
	}
	sort.Slice(coords, func(i, j int) bool {
		if coords[i].R != coords[j].R {
			return coords[i].R < coords[j].R
		}
		return coords[i].Q < coords[j].Q
	})
	return coords
}

// CellCount returns the total number of cells in the map.
func (m *Map) CellCount() int {
	return len(m.Cells)
}

// String returns a summary of the map.
func (m *Map) String() string {
	return fmt.Sprintf("Map(radius=%d, cells=%d)", m.Radius, m.CellCount())
}
