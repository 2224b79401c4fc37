package repository

import (
	"context"
	"hash/fnv"
	"math"
	"sync"
	"time"

	"github.com/okian/snakedraft/pkg/metrics"
)

// Treap-based, in-memory Store implementation.
//
// Ordering: fitness DESC, then ID ASC (deterministic). "less" means ranks
// earlier, so in-order traversal yields the hall of fame from best to
// worst. Subtree sizes give O(log n) rank queries.

type node struct {
	id      string
	fitness float64
	prio    uint64
	left    *node
	right   *node
	size    int
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

// less returns true if (aFit, aID) should appear before (bFit, bID).
func less(aFit float64, aID string, bFit float64, bID string) bool {
	if aFit != bFit {
		return aFit > bFit
	}
	return aID < bID
}

func rotateRight(y *node) *node {
	x := y.left
	t2 := x.right
	x.right = y
	y.left = t2
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	t2 := y.left
	y.left = x
	x.right = t2
	fix(x)
	fix(y)
	return y
}

// priority hashes the ID so tree shape does not depend on insert order.
func priority(id string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(id))
	return h.Sum64()
}

func insert(n *node, id string, fitness float64) *node {
	if n == nil {
		return &node{id: id, fitness: fitness, prio: priority(id), size: 1}
	}
	if less(fitness, id, n.fitness, n.id) {
		n.left = insert(n.left, id, fitness)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, fitness)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, id string, fitness float64) *node {
	if n == nil {
		return nil
	}
	if fitness == n.fitness && id == n.id {
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, fitness)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, fitness)
		}
	} else if less(fitness, id, n.fitness, n.id) {
		n.left = deleteNode(n.left, id, fitness)
	} else {
		n.right = deleteNode(n.right, id, fitness)
	}
	fix(n)
	return n
}

// last returns the worst-ranked node.
func last(n *node) *node {
	for n != nil && n.right != nil {
		n = n.right
	}
	return n
}

// position returns the 0-based rank of (fitness, id), which must exist.
func position(n *node, id string, fitness float64) int {
	pos := 0
	for n != nil {
		switch {
		case n.id == id && n.fitness == fitness:
			return pos + nsize(n.left)
		case less(fitness, id, n.fitness, n.id):
			n = n.left
		default:
			pos += nsize(n.left) + 1
			n = n.right
		}
	}
	return -1
}

// collectTopN appends up to limit entries in rank order.
func collectTopN(n *node, limit int, byID map[string]Strategy, out *[]Entry) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTopN(n.left, limit, byID, out)
	if len(*out) < limit {
		s := byID[n.id]
		*out = append(*out, Entry{Rank: len(*out) + 1, StrategyID: s.ID, Generation: s.Generation, Fitness: s.Fitness})
	}
	if len(*out) < limit {
		collectTopN(n.right, limit, byID, out)
	}
}

// TreapStore is the in-memory hall of fame.
type TreapStore struct {
	mu       sync.RWMutex
	root     *node
	byID     map[string]Strategy
	capacity int
}

// NewTreapStore constructs a treap store with configuration options.
func NewTreapStore(opts ...Option) *TreapStore {
	s := &TreapStore{
		byID: make(map[string]Strategy),
	}
	for _, opt := range opts {
		opt(s)
	}
	metrics.UpdateHallOfFameSize(0)
	return s
}

// Record implements Store.Record with O(log n) expected time.
func (s *TreapStore) Record(ctx context.Context, st Strategy) (bool, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryUpdateLatency(float64(time.Since(start).Nanoseconds()) / 1e6)
	}()

	if math.IsNaN(st.Fitness) {
		metrics.RecordErrorByComponent("repository", "invalid_fitness")
		return false, ErrInvalidFitness
	}
	st.Weights = cloneWeights(st.Weights)

	s.mu.Lock()
	if old, ok := s.byID[st.ID]; ok {
		if st.Fitness <= old.Fitness {
			s.mu.Unlock()
			return false, nil
		}
		s.root = deleteNode(s.root, old.ID, old.Fitness)
		delete(s.byID, old.ID)
	} else if s.capacity > 0 && len(s.byID) >= s.capacity {
		worst := last(s.root)
		if !less(st.Fitness, st.ID, worst.fitness, worst.id) {
			s.mu.Unlock()
			return false, nil
		}
		s.root = deleteNode(s.root, worst.id, worst.fitness)
		delete(s.byID, worst.id)
	}
	s.byID[st.ID] = st
	s.root = insert(s.root, st.ID, st.Fitness)
	count := len(s.byID)
	s.mu.Unlock()

	metrics.UpdateHallOfFameSize(count)
	return true, nil
}

// Rank returns the current rank of a strategy in O(log n).
func (s *TreapStore) Rank(ctx context.Context, id string) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.byID[id]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return Entry{}, ErrNotFound
	}
	return Entry{
		Rank:       position(s.root, st.ID, st.Fitness) + 1,
		StrategyID: st.ID,
		Generation: st.Generation,
		Fitness:    st.Fitness,
	}, nil
}

// Get returns a copy of the stored strategy.
func (s *TreapStore) Get(ctx context.Context, id string) (Strategy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.byID[id]
	if !ok {
		return Strategy{}, ErrNotFound
	}
	st.Weights = cloneWeights(st.Weights)
	return st, nil
}

// TopN returns the top N entries ordered by fitness desc.
func (s *TreapStore) TopN(ctx context.Context, n int) ([]Entry, error) {
	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, 0, min(n, len(s.byID)))
	collectTopN(s.root, n, s.byID, &out)
	return out, nil
}

// Count returns the number of strategies kept.
func (s *TreapStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

func cloneWeights(w [][]float64) [][]float64 {
	if w == nil {
		return nil
	}
	out := make([][]float64, len(w))
	for i, r := range w {
		out[i] = append([]float64(nil), r...)
	}
	return out
}
