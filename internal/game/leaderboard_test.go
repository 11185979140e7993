package game

import (
	"testing"

	"arena/internal/game/geom"
)

// TestLeaderboardRanking tests ordering, updates and removal
func TestLeaderboardRanking(t *testing.T) {
	lb := NewLeaderboard(1)
	names := []string{"ann", "ben", "cat", "dan"}
	scores := []float64{10, 300, 50, 300}

	players := make([]*Entity, len(names))
	for i, n := range names {
		p := NewPlayer(DefaultPlayer(n, geom.V(0, 0)))
		p.ID = "e" + string(rune('1'+i))
		p.Score = scores[i]
		players[i] = p
		lb.Update(p)
	}

	top := lb.Top(3)
	if len(top) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(top))
	}
	// Ties break on id: ben (e2) before dan (e4).
	wantOrder := []string{"ben", "dan", "cat"}
	for i, row := range top {
		if row.Name != wantOrder[i] || row.Rank != i+1 {
			t.Errorf("Row %d: got %s rank %d, want %s rank %d", i, row.Name, row.Rank, wantOrder[i], i+1)
		}
	}

	players[0].Score = 1000
	lb.Update(players[0])
	if r := lb.Rank(players[0].ID); r != 1 {
		t.Errorf("Expected ann at rank 1 after update, got %d", r)
	}

	around := lb.Around(players[3].ID, 1, 1)
	if len(around) != 3 || around[1].Name != "dan" {
		t.Errorf("Unexpected window around dan: %+v", around)
	}

	lb.Remove(players[1].ID)
	if lb.Len() != 3 || lb.Rank(players[1].ID) != 0 {
		t.Error("Removed player still ranked")
	}
	if lb.Around("missing", 1, 1) != nil {
		t.Error("Unknown player should have no window")
	}
}
