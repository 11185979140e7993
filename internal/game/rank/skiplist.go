// Package rank implements a score-ordered skip list with span counts for
// O(log n) rank queries. Rooms use it for their live leaderboard.
//
// Origin: Pugh (1990), "Skip Lists: A Probabilistic Alternative to Balanced Trees".
// The span bookkeeping follows the Redis ZSET layout.
package rank

import (
	"math/rand"
	"sync"
)

const (
	maxLevel         = 32   // supports 2^32 elements
	levelProbability = 0.25 // P=0.25 gives optimal balance
)

// Entry is one ranked key.
type Entry struct {
	Key   string
	Score float64
}

type node struct {
	entry Entry
	next  []*node
	span  []int // distance to next[i], counted in level-0 hops
}

// SkipList orders entries by descending score, then ascending key, so ties
// rank deterministically.
type SkipList struct {
	mu     sync.RWMutex
	head   *node
	level  int
	length int
	scores map[string]float64
	rng    *rand.Rand
}

// NewSkipList creates an empty list. The seed only affects node heights.
func NewSkipList(seed int64) *SkipList {
	return &SkipList{
		head: &node{
			next: make([]*node, maxLevel),
			span: make([]int, maxLevel),
		},
		level:  1,
		scores: make(map[string]float64),
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// ranksBefore reports whether e ranks strictly ahead of (score, key).
func ranksBefore(e Entry, score float64, key string) bool {
	return e.Score > score || (e.Score == score && e.Key < key)
}

func (sl *SkipList) randomLevel() int {
	level := 1
	for level < maxLevel && sl.rng.Float64() < levelProbability {
		level++
	}
	return level
}

// Set inserts key or moves it to its new score.
// O(log n) average.
func (sl *SkipList) Set(key string, score float64) {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	if old, ok := sl.scores[key]; ok {
		if old == score {
			return
		}
		sl.delete(key, old)
	}
	sl.insert(key, score)
	sl.scores[key] = score
}

func (sl *SkipList) insert(key string, score float64) {
	var update [maxLevel]*node
	var rank [maxLevel]int

	x := sl.head
	for i := sl.level - 1; i >= 0; i-- {
		if i < sl.level-1 {
			rank[i] = rank[i+1]
		}
		for x.next[i] != nil && ranksBefore(x.next[i].entry, score, key) {
			rank[i] += x.span[i]
			x = x.next[i]
		}
		update[i] = x
	}

	lvl := sl.randomLevel()
	if lvl > sl.level {
		for i := sl.level; i < lvl; i++ {
			rank[i] = 0
			update[i] = sl.head
			update[i].span[i] = sl.length
		}
		sl.level = lvl
	}

	n := &node{
		entry: Entry{Key: key, Score: score},
		next:  make([]*node, lvl),
		span:  make([]int, lvl),
	}
	for i := 0; i < lvl; i++ {
		n.next[i] = update[i].next[i]
		update[i].next[i] = n
		n.span[i] = update[i].span[i] - (rank[0] - rank[i])
		update[i].span[i] = rank[0] - rank[i] + 1
	}
	for i := lvl; i < sl.level; i++ {
		update[i].span[i]++
	}
	sl.length++
}

func (sl *SkipList) delete(key string, score float64) bool {
	var update [maxLevel]*node

	x := sl.head
	for i := sl.level - 1; i >= 0; i-- {
		for x.next[i] != nil && ranksBefore(x.next[i].entry, score, key) {
			x = x.next[i]
		}
		update[i] = x
	}

	x = x.next[0]
	if x == nil || x.entry.Key != key {
		return false
	}

	for i := 0; i < sl.level; i++ {
		if update[i].next[i] == x {
			update[i].span[i] += x.span[i] - 1
			update[i].next[i] = x.next[i]
		} else {
			update[i].span[i]--
		}
	}
	for sl.level > 1 && sl.head.next[sl.level-1] == nil {
		sl.level--
	}
	sl.length--
	return true
}

// Remove deletes key. It reports whether the key was present.
func (sl *SkipList) Remove(key string) bool {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	score, ok := sl.scores[key]
	if !ok {
		return false
	}
	delete(sl.scores, key)
	return sl.delete(key, score)
}

// Rank returns the 1-indexed rank of key (1 = highest score), or 0.
func (sl *SkipList) Rank(key string) int {
	sl.mu.RLock()
	defer sl.mu.RUnlock()

	score, ok := sl.scores[key]
	if !ok {
		return 0
	}

	rank := 0
	x := sl.head
	for i := sl.level - 1; i >= 0; i-- {
		for x.next[i] != nil && (ranksBefore(x.next[i].entry, score, key) || x.next[i].entry.Key == key) {
			rank += x.span[i]
			x = x.next[i]
		}
		if x != sl.head && x.entry.Key == key {
			return rank
		}
	}
	return 0
}

// Score returns the score stored for key.
func (sl *SkipList) Score(key string) (float64, bool) {
	sl.mu.RLock()
	defer sl.mu.RUnlock()
	s, ok := sl.scores[key]
	return s, ok
}

// ByRank returns the entry at a 1-indexed rank.
func (sl *SkipList) ByRank(rank int) (Entry, bool) {
	sl.mu.RLock()
	defer sl.mu.RUnlock()

	if rank <= 0 || rank > sl.length {
		return Entry{}, false
	}

	traversed := 0
	x := sl.head
	for i := sl.level - 1; i >= 0; i-- {
		for x.next[i] != nil && traversed+x.span[i] <= rank {
			traversed += x.span[i]
			x = x.next[i]
		}
		if traversed == rank {
			return x.entry, true
		}
	}
	return Entry{}, false
}

// Range returns entries with rank in [start, end] (1-indexed, inclusive).
// O(log n + k).
func (sl *SkipList) Range(start, end int) []Entry {
	sl.mu.RLock()
	defer sl.mu.RUnlock()

	if start <= 0 {
		start = 1
	}
	if end > sl.length {
		end = sl.length
	}
	if start > end {
		return nil
	}

	traversed := 0
	x := sl.head
	for i := sl.level - 1; i >= 0; i-- {
		for x.next[i] != nil && traversed+x.span[i] < start {
			traversed += x.span[i]
			x = x.next[i]
		}
	}

	result := make([]Entry, 0, end-start+1)
	for x = x.next[0]; x != nil && traversed < end; x = x.next[0] {
		traversed++
		result = append(result, x.entry)
	}
	return result
}

// Len returns the number of entries.
func (sl *SkipList) Len() int {
	sl.mu.RLock()
	defer sl.mu.RUnlock()
	return sl.length
}

// Clear removes all entries.
func (sl *SkipList) Clear() {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	for i := range sl.head.next {
		sl.head.next[i] = nil
		sl.head.span[i] = 0
	}
	sl.level = 1
	sl.length = 0
	clear(sl.scores)
}
