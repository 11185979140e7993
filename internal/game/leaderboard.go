package game

import (
	"arena/internal/game/rank"
)

// Leaderboard ranks a room's players by score using a skip list.
//
// Operations:
//   - Update: O(log n)
//   - Rank: O(log n)
//   - Top: O(log n + k)
//   - Around: O(log n + k)
type Leaderboard struct {
	list  *rank.SkipList
	names map[string]string // entity id -> display name
}

// LeaderboardEntry is one row of a ranking.
type LeaderboardEntry struct {
	EntityID string  `json:"entityID"`
	Name     string  `json:"name"`
	Score    float64 `json:"score"`
	Level    int     `json:"level"`
	Rank     int     `json:"rank"`
}

// NewLeaderboard creates an empty leaderboard.
func NewLeaderboard(seed int64) *Leaderboard {
	return &Leaderboard{
		list:  rank.NewSkipList(seed),
		names: make(map[string]string),
	}
}

// Update inserts or moves a player.
func (lb *Leaderboard) Update(e *Entity) {
	lb.names[e.ID] = e.Name
	lb.list.Set(e.ID, e.Score)
}

// Remove drops a player. Unknown ids are ignored.
func (lb *Leaderboard) Remove(entityID string) {
	delete(lb.names, entityID)
	lb.list.Remove(entityID)
}

// Rank returns a player's 1-based rank, or 0 if absent.
func (lb *Leaderboard) Rank(entityID string) int {
	return lb.list.Rank(entityID)
}

// Top returns the n best players.
func (lb *Leaderboard) Top(n int) []LeaderboardEntry {
	return lb.rows(1, n)
}

// Around returns up to above players ranked higher than entityID, the
// player itself, and up to below players ranked lower.
func (lb *Leaderboard) Around(entityID string, above, below int) []LeaderboardEntry {
	r := lb.list.Rank(entityID)
	if r == 0 {
		return nil
	}
	start := r - above
	if start < 1 {
		start = 1
	}
	return lb.rows(start, r+below)
}

func (lb *Leaderboard) rows(start, end int) []LeaderboardEntry {
	entries := lb.list.Range(start, end)
	out := make([]LeaderboardEntry, len(entries))
	for i, e := range entries {
		out[i] = LeaderboardEntry{
			EntityID: e.Key,
			Name:     lb.names[e.Key],
			Score:    e.Score,
			Level:    int(levelTable.LevelFromScore(e.Score)),
			Rank:     start + i,
		}
	}
	return out
}

// Len returns the number of ranked players.
func (lb *Leaderboard) Len() int {
	return lb.list.Len()
}
