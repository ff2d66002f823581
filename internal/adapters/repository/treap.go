package repository

import (
	"context"
	"hash/fnv"
	"math"
	"sync"
	"time"

	"github.com/okian/lottoheat/internal/domain/model"
	"github.com/okian/lottoheat/pkg/metrics"
)

// Treap-based, in-memory Leaderboard.
//
// Ordering: score DESC, then storeID ASC. "less" means ranks earlier, so an
// in-order walk yields the leaderboard from best to worst. Node priorities
// are a hash of the store id, which keeps the tree balanced in expectation
// regardless of score distribution.

// scoreScale is the fixed-point resolution of stored scores.
const scoreScale = 1e9

type scoreFP int64

func toFixedPoint(x float64) scoreFP {
	return scoreFP(math.Round(x * scoreScale))
}

type node struct {
	id    string
	score scoreFP
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

func less(aScore scoreFP, aID string, bScore scoreFP, bID string) bool {
	if aScore != bScore {
		return aScore > bScore
	}
	return aID < bID
}

func priority(id string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(id))
	// splitmix64 finalizer spreads ids sharing a prefix.
	z := h.Sum64() + 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

func insert(n *node, id string, score scoreFP) *node {
	if n == nil {
		return &node{id: id, score: score, prio: priority(id), size: 1}
	}
	if less(score, id, n.score, n.id) {
		n.left = insert(n.left, id, score)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, score)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, id string, score scoreFP) *node {
	if n == nil {
		return nil
	}
	switch {
	case score == n.score && id == n.id:
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, score)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, score)
		}
	case less(score, id, n.score, n.id):
		n.left = deleteNode(n.left, id, score)
	default:
		n.right = deleteNode(n.right, id, score)
	}
	fix(n)
	return n
}

// countBefore returns how many nodes rank strictly before (score, id).
func countBefore(n *node, score scoreFP, id string) int {
	count := 0
	for n != nil {
		if less(n.score, n.id, score, id) {
			count += nsize(n.left) + 1
			n = n.right
		} else {
			n = n.left
		}
	}
	return count
}

func collectTopN(n *node, limit int, out *[]string) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTopN(n.left, limit, out)
	if len(*out) < limit {
		*out = append(*out, n.id)
	}
	collectTopN(n.right, limit, out)
}

// TreapStore implements Leaderboard.
type TreapStore struct {
	mu   sync.RWMutex
	root *node
	byID map[string]model.StoreHeatScore
}

// NewTreapStore constructs an empty leaderboard.
func NewTreapStore() *TreapStore {
	return &TreapStore{byID: make(map[string]model.StoreHeatScore)}
}

// Upsert replaces the store's score in O(log n) expected time. A score
// computed from an older catalog version than the stored one is dropped;
// an equal version replaces it so a refresh can apply recency decay.
func (s *TreapStore) Upsert(_ context.Context, heat model.StoreHeatScore) error {
	if heat.StoreID == "" || math.IsNaN(heat.Score) || math.IsInf(heat.Score, 0) {
		metrics.RecordErrorByComponent("repository", "invalid_score")
		return ErrInvalidScore
	}
	ns := toFixedPoint(heat.Score)

	s.mu.Lock()
	if old, ok := s.byID[heat.StoreID]; ok {
		if heat.Version < old.Version {
			s.mu.Unlock()
			metrics.RecordLeaderboardStale()
			return nil
		}
		s.root = deleteNode(s.root, heat.StoreID, toFixedPoint(old.Score))
	}
	s.byID[heat.StoreID] = heat
	s.root = insert(s.root, heat.StoreID, ns)
	count := len(s.byID)
	s.mu.Unlock()

	metrics.RecordLeaderboardUpdate()
	metrics.UpdateLeaderboardSize(count)
	return nil
}

// Remove drops a store from the leaderboard.
func (s *TreapStore) Remove(_ context.Context, storeID string) bool {
	s.mu.Lock()
	old, ok := s.byID[storeID]
	if ok {
		s.root = deleteNode(s.root, storeID, toFixedPoint(old.Score))
		delete(s.byID, storeID)
	}
	count := len(s.byID)
	s.mu.Unlock()

	if ok {
		metrics.UpdateLeaderboardSize(count)
	}
	return ok
}

// Rank returns the store's competition rank: one plus the number of stores
// with a strictly higher score.
func (s *TreapStore) Rank(_ context.Context, storeID string) (Entry, error) {
	start := time.Now()
	defer func() { metrics.RecordLeaderboardQuery(time.Since(start)) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	heat, ok := s.byID[storeID]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return Entry{}, ErrNotFound
	}
	// "" sorts before every id, so this counts strictly higher scores only.
	higher := countBefore(s.root, toFixedPoint(heat.Score), "")
	return Entry{Rank: higher + 1, Heat: heat}, nil
}

// TopN returns the top n entries ordered by score desc.
func (s *TreapStore) TopN(_ context.Context, n int) ([]Entry, error) {
	start := time.Now()
	defer func() { metrics.RecordLeaderboardQuery(time.Since(start)) }()

	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, min(n, len(s.byID)))
	collectTopN(s.root, n, &ids)

	out := make([]Entry, len(ids))
	for i, id := range ids {
		out[i] = Entry{Rank: i + 1, Heat: s.byID[id]}
		if i > 0 && toFixedPoint(out[i-1].Heat.Score) == toFixedPoint(out[i].Heat.Score) {
			out[i].Rank = out[i-1].Rank
		}
	}
	return out, nil
}

// Count returns the number of stores on the leaderboard.
func (s *TreapStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}
