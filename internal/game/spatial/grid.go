// Package spatial provides the broad-phase structure used by room
// collision detection and viewport queries.
//
// Entities are referenced by uint32 indices into the caller's entity slice
// (not pointers) so the grid can be rebuilt every tick without garbage.
package spatial

import (
	"math"
)

// CellKey identifies one grid cell. Cells are unbounded in both directions
// so the grid works for a world centred on the origin.
type CellKey struct {
	X, Y int
}

// SpatialGrid is a uniform hash grid rebuilt every tick.
//
// An entity is inserted into every cell its bounding box overlaps, so a pair
// sharing several cells is reported once per shared cell. Callers that need
// each pair once must deduplicate (the room resolver does).
//
// Iteration order over cells is insertion order, which keeps pair order
// deterministic for a deterministic insertion sequence.
type SpatialGrid struct {
	invCellSize float64

	index   map[CellKey]int // cell -> position in keys/buckets
	keys    []CellKey
	buckets [][]uint32 // buckets[i] holds the members of keys[i]
	used    int        // buckets[:used] are live this tick

	// Boxes wider than maxSpan cells on either axis skip the cells and are
	// paired with everything instead.
	overflow []uint32
	inserted []uint32 // every id inserted this tick, in order

	// Query dedup: marks[id] == gen means id is already in scratch.
	marks   []uint32
	gen     uint32
	scratch []uint32
}

// NewSpatialGrid creates an empty grid. expected sizes the initial cell
// table; it is only a hint.
func NewSpatialGrid(cellSize float64, expected int) *SpatialGrid {
	if cellSize <= 0 || math.IsNaN(cellSize) || math.IsInf(cellSize, 0) {
		cellSize = 512
	}
	if expected < 16 {
		expected = 16
	}
	return &SpatialGrid{
		invCellSize: 1.0 / cellSize,
		index:       make(map[CellKey]int, expected),
		keys:        make([]CellKey, 0, expected),
		buckets:     make([][]uint32, 0, expected),
		scratch:     make([]uint32, 0, 64),
	}
}

// Clear empties every cell while keeping the allocated buckets for reuse.
func (g *SpatialGrid) Clear() {
	for i := 0; i < g.used; i++ {
		g.buckets[i] = g.buckets[i][:0]
	}
	g.keys = g.keys[:0]
	g.used = 0
	g.overflow = g.overflow[:0]
	g.inserted = g.inserted[:0]
	clear(g.index)
}

// maxCellCoord bounds cell coordinates so absurd positions cannot overflow
// the int conversion.
const maxCellCoord = 1 << 20

// maxSpan is the widest box, in cells per axis, stored in cells. Wider
// boxes go to the overflow list.
const maxSpan = 256

// CellOf returns the cell containing the point (x, y).
func (g *SpatialGrid) CellOf(x, y float64) CellKey {
	return CellKey{
		X: clampCoord(math.Floor(x * g.invCellSize)),
		Y: clampCoord(math.Floor(y * g.invCellSize)),
	}
}

func clampCoord(c float64) int {
	if c > maxCellCoord {
		return maxCellCoord
	}
	if c < -maxCellCoord {
		return -maxCellCoord
	}
	return int(c)
}

// InsertAABB adds id to every cell overlapped by the box [minX,maxX]×[minY,maxY].
// Non-finite boxes are ignored.
func (g *SpatialGrid) InsertAABB(id uint32, minX, minY, maxX, maxY float64) {
	if !finite(minX) || !finite(minY) || !finite(maxX) || !finite(maxY) {
		return
	}
	lo := g.CellOf(minX, minY)
	hi := g.CellOf(maxX, maxY)
	g.inserted = append(g.inserted, id)
	if hi.X-lo.X >= maxSpan || hi.Y-lo.Y >= maxSpan {
		g.overflow = append(g.overflow, id)
		return
	}
	for cx := lo.X; cx <= hi.X; cx++ {
		for cy := lo.Y; cy <= hi.Y; cy++ {
			g.add(CellKey{X: cx, Y: cy}, id)
		}
	}
}

// InsertCircle adds id to every cell overlapped by the circle's bounding square.
func (g *SpatialGrid) InsertCircle(id uint32, x, y, radius float64) {
	if radius < 0 {
		radius = 0
	}
	g.InsertAABB(id, x-radius, y-radius, x+radius, y+radius)
}

func (g *SpatialGrid) add(key CellKey, id uint32) {
	i, ok := g.index[key]
	if !ok {
		i = g.used
		if i == len(g.buckets) {
			g.buckets = append(g.buckets, make([]uint32, 0, 8))
		}
		g.index[key] = i
		g.keys = append(g.keys, key)
		g.used++
	}
	g.buckets[i] = append(g.buckets[i], id)
}

// ForEachPair calls fn for every unordered pair of ids sharing a cell.
// A pair sharing k cells is visited k times. Overflow boxes are paired once
// with every other inserted id.
func (g *SpatialGrid) ForEachPair(fn func(a, b uint32)) {
	for i, o := range g.overflow {
		for _, id := range g.inserted {
			if id == o || g.isOverflow(id) {
				continue
			}
			fn(o, id)
		}
		for _, other := range g.overflow[i+1:] {
			fn(o, other)
		}
	}
	for i := 0; i < g.used; i++ {
		cell := g.buckets[i]
		if len(cell) < 2 {
			continue
		}
		for j := 0; j < len(cell); j++ {
			for k := j + 1; k < len(cell); k++ {
				fn(cell[j], cell[k])
			}
		}
	}
}

// QueryRect returns every id stored in a cell overlapping the rectangle,
// each at most once. Candidates may lie outside the rectangle; callers run
// their own precise test.
//
// IMPORTANT: the returned slice is reused on the next query.
func (g *SpatialGrid) QueryRect(minX, minY, maxX, maxY float64) []uint32 {
	g.scratch = g.scratch[:0]
	if !finite(minX) || !finite(minY) || !finite(maxX) || !finite(maxY) {
		return g.scratch
	}
	g.gen++
	if g.gen == 0 {
		// Wrapped: stale marks could collide with the new generation.
		clear(g.marks)
		g.gen = 1
	}

	// Overflow boxes may overlap any rectangle.
	g.collect(g.overflow)

	lo := g.CellOf(minX, minY)
	hi := g.CellOf(maxX, maxY)

	// Wide rectangles visit the live cells instead of the key range.
	if (hi.X-lo.X+1)*(hi.Y-lo.Y+1) > g.used {
		for i := 0; i < g.used; i++ {
			k := g.keys[i]
			if k.X >= lo.X && k.X <= hi.X && k.Y >= lo.Y && k.Y <= hi.Y {
				g.collect(g.buckets[i])
			}
		}
		return g.scratch
	}

	for cx := lo.X; cx <= hi.X; cx++ {
		for cy := lo.Y; cy <= hi.Y; cy++ {
			if i, ok := g.index[CellKey{X: cx, Y: cy}]; ok {
				g.collect(g.buckets[i])
			}
		}
	}
	return g.scratch
}

// isOverflow scans the overflow list, which holds at most a few huge bodies.
func (g *SpatialGrid) isOverflow(id uint32) bool {
	for _, o := range g.overflow {
		if o == id {
			return true
		}
	}
	return false
}

func (g *SpatialGrid) collect(cell []uint32) {
	for _, id := range cell {
		if int(id) >= len(g.marks) {
			grown := make([]uint32, int(id)*2+1)
			copy(grown, g.marks)
			g.marks = grown
		}
		if g.marks[id] == g.gen {
			continue
		}
		g.marks[id] = g.gen
		g.scratch = append(g.scratch, id)
	}
}

// Stats returns grid statistics for debugging/profiling.
func (g *SpatialGrid) Stats() GridStats {
	var total, maxInCell int
	for i := 0; i < g.used; i++ {
		n := len(g.buckets[i])
		total += n
		if n > maxInCell {
			maxInCell = n
		}
	}
	avg := 0.0
	if g.used > 0 {
		avg = float64(total) / float64(g.used)
	}
	return GridStats{
		Overflow:       len(g.overflow),
		NonEmptyCells:  g.used,
		TotalEntries:   total,
		MaxInCell:      maxInCell,
		AvgPerNonEmpty: avg,
	}
}

// GridStats contains grid statistics for debugging.
type GridStats struct {
	Overflow       int // boxes too wide for cells
	NonEmptyCells  int
	TotalEntries   int // memberships, not distinct entities
	MaxInCell      int
	AvgPerNonEmpty float64
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
