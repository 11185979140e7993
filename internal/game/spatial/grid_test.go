package spatial

import (
	"math"
	"math/rand"
	"testing"
)

type circle struct {
	x, y, r float64
}

func overlaps(a, b circle) bool {
	dx, dy := a.x-b.x, a.y-b.y
	rs := a.r + b.r
	return dx*dx+dy*dy <= rs*rs
}

// TestGridCompleteness checks that every overlapping pair is reported at
// least once, with cells both larger and smaller than the radii.
func TestGridCompleteness(t *testing.T) {
	tests := []struct {
		name     string
		cellSize float64
		maxR     float64
	}{
		{"cells much larger than radii", 512, 20},
		{"cells smaller than radii", 16, 60},
		{"cells equal to radii", 40, 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rng := rand.New(rand.NewSource(42))
			circles := make([]circle, 120)
			for i := range circles {
				circles[i] = circle{
					x: rng.Float64()*800 - 400,
					y: rng.Float64()*800 - 400,
					r: 1 + rng.Float64()*tt.maxR,
				}
			}

			g := NewSpatialGrid(tt.cellSize, len(circles))
			for i, c := range circles {
				g.InsertCircle(uint32(i), c.x, c.y, c.r)
			}

			found := make(map[[2]uint32]bool)
			g.ForEachPair(func(a, b uint32) {
				if a > b {
					a, b = b, a
				}
				found[[2]uint32{a, b}] = true
			})

			for i := 0; i < len(circles); i++ {
				for j := i + 1; j < len(circles); j++ {
					if overlaps(circles[i], circles[j]) && !found[[2]uint32{uint32(i), uint32(j)}] {
						t.Errorf("overlapping pair (%d,%d) missing from broad phase", i, j)
					}
				}
			}
		})
	}
}

func TestGridNegativeCoordinates(t *testing.T) {
	g := NewSpatialGrid(512, 4)
	g.InsertCircle(0, -10, -10, 5)
	g.InsertCircle(1, 10, 10, 5)

	if g.CellOf(-10, -10) == g.CellOf(10, 10) {
		t.Fatal("points either side of the origin must land in different cells")
	}

	// Entity straddling the origin belongs to four cells.
	g.InsertCircle(2, 0, 0, 20)
	pairs := 0
	g.ForEachPair(func(a, b uint32) { pairs++ })
	if pairs != 2 {
		t.Errorf("expected 2 pair visits (0-2, 1-2), got %d", pairs)
	}
}

func TestGridClearReuses(t *testing.T) {
	g := NewSpatialGrid(100, 4)
	for i := 0; i < 10; i++ {
		g.InsertCircle(uint32(i), float64(i*10), 0, 2)
	}
	if g.Stats().TotalEntries == 0 {
		t.Fatal("expected entries before clear")
	}

	g.Clear()
	if s := g.Stats(); s.NonEmptyCells != 0 || s.TotalEntries != 0 {
		t.Errorf("stats after clear = %+v", s)
	}

	called := false
	g.ForEachPair(func(a, b uint32) { called = true })
	if called {
		t.Error("no pairs expected after clear")
	}
}

func TestQueryRectDeduplicates(t *testing.T) {
	g := NewSpatialGrid(10, 4)
	// Spans many cells.
	g.InsertCircle(7, 0, 0, 35)
	g.InsertCircle(3, 500, 500, 1)

	got := g.QueryRect(-50, -50, 50, 50)
	if len(got) != 1 || got[0] != 7 {
		t.Errorf("QueryRect = %v, want [7]", got)
	}

	// Wide query path (more cells than live cells).
	got = g.QueryRect(-1000, -1000, 1000, 1000)
	if len(got) != 2 {
		t.Errorf("wide QueryRect = %v, want both ids", got)
	}
}

// TestGridOverflowBodies checks that bodies spanning more than maxSpan cells
// still meet everything in ForEachPair and QueryRect.
func TestGridOverflowBodies(t *testing.T) {
	g := NewSpatialGrid(1, 8)
	g.InsertCircle(0, 0, 0, 300)     // 601 cells wide
	g.InsertCircle(1, 200, 0, 5)     // inside the big body, far from its first cells
	g.InsertCircle(2, -1000, 0, 200) // second oversized body
	g.InsertCircle(3, 1000, 1000, 1)

	if s := g.Stats(); s.Overflow != 2 {
		t.Fatalf("Overflow = %d, want 2", s.Overflow)
	}

	visits := make(map[[2]uint32]int)
	g.ForEachPair(func(a, b uint32) {
		if a > b {
			a, b = b, a
		}
		visits[[2]uint32{a, b}]++
	})

	want := [][2]uint32{{0, 1}, {0, 2}, {0, 3}, {1, 2}, {2, 3}}
	for _, pair := range want {
		if visits[pair] != 1 {
			t.Errorf("pair %v visited %d times, want 1", pair, visits[pair])
		}
	}
	if visits[[2]uint32{1, 3}] != 0 {
		t.Error("distant small bodies should not pair")
	}

	got := map[uint32]bool{}
	for _, id := range g.QueryRect(190, -5, 210, 5) {
		got[id] = true
	}
	if !got[0] || !got[1] || !got[2] || got[3] {
		t.Errorf("QueryRect = %v, want 0, 1 and 2", got)
	}

	g.Clear()
	if s := g.Stats(); s.Overflow != 0 {
		t.Errorf("Overflow after clear = %d", s.Overflow)
	}
}

func TestInsertIgnoresNonFinite(t *testing.T) {
	g := NewSpatialGrid(512, 4)
	g.InsertCircle(0, math.NaN(), 0, 10)
	if g.Stats().TotalEntries != 0 {
		t.Error("non-finite position should not be inserted")
	}
}

func BenchmarkGridRebuild(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	pos := make([]circle, 1000)
	for i := range pos {
		pos[i] = circle{x: rng.Float64()*2048 - 1024, y: rng.Float64()*2048 - 1024, r: 16 + rng.Float64()*40}
	}
	g := NewSpatialGrid(512, len(pos))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		g.Clear()
		for j, c := range pos {
			g.InsertCircle(uint32(j), c.x, c.y, c.r)
		}
		g.ForEachPair(func(a, b uint32) {})
	}
}
