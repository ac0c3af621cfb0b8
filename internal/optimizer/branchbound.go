package optimizer

import (
	"sort"

	"github.com/eugenenazirov/packer/internal/packing"
)

type bbOptimizer struct{}

// NewBranchAndBound creates an exact Optimizer that explores include/exclude
// decisions in cost density order and prunes with the fractional relaxation.
func NewBranchAndBound() Optimizer {
	return &bbOptimizer{}
}

func (o *bbOptimizer) Optimize(budget packing.Amount, candidates []packing.Item) (packing.Selection, error) {
	items, capacity, err := prepare(budget, candidates)
	if err != nil {
		return packing.Selection{}, err
	}
	if len(items) == 0 {
		return packing.Selection{Items: []packing.Item{}}, nil
	}

	order := make([]int, len(items))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return searchsBefore(items[order[a]], items[order[b]])
	})

	s := &bbSearch{
		items:    items,
		order:    order,
		capacity: capacity,
		chosen:   make([]bool, len(items)),
		best:     make([]bool, len(items)),
		seen:     make(map[stateKey]outcome),
	}
	s.walk(0, outcome{})

	return selection(items, s.best), nil
}

// denser reports whether x has a strictly higher cost per unit of weight
// than y. Weightless items with a positive cost rank first, weightless items
// without cost rank with the other zero-cost items.
func denser(x, y packing.Item) bool {
	switch {
	case x.Weight == 0 && y.Weight == 0:
		return x.Cost > 0 && y.Cost == 0
	case x.Weight == 0:
		return x.Cost > 0
	case y.Weight == 0:
		return y.Cost == 0 && x.Cost > 0
	default:
		return int64(x.Cost)*int64(y.Weight) > int64(y.Cost)*int64(x.Weight)
	}
}

// searchsBefore orders items by density, then lighter first, then costlier
// first. Identical items end up adjacent.
func searchsBefore(x, y packing.Item) bool {
	if denser(x, y) {
		return true
	}
	if denser(y, x) {
		return false
	}
	if x.Weight != y.Weight {
		return x.Weight < y.Weight
	}
	return x.Cost > y.Cost
}

// stateKey identifies a partial solution by how many items were decided and
// the weight used so far. Two partial solutions with the same key have the
// same completions.
type stateKey struct {
	depth  int
	weight packing.Amount
}

type bbSearch struct {
	items    []packing.Item
	order    []int
	capacity packing.Amount

	chosen  []bool
	best    []bool
	bestOut outcome

	// seen keeps the best cost and item count reached per state.
	seen map[stateKey]outcome
}

func (s *bbSearch) walk(depth int, cur outcome) {
	if cur.betterThan(s.bestOut) {
		s.bestOut = cur
		copy(s.best, s.chosen)
	}
	if depth == len(s.order) {
		return
	}
	if s.dominated(depth, cur) {
		return
	}

	bound := cur.cost + s.bound(depth, s.capacity-cur.weight)
	if bound < s.bestOut.cost {
		return
	}
	// At best the branch ties on cost, and its weight and item count only grow.
	if bound == s.bestOut.cost {
		if cur.weight > s.bestOut.weight {
			return
		}
		if cur.weight == s.bestOut.weight && cur.count >= s.bestOut.count {
			return
		}
	}

	idx := s.order[depth]
	item := s.items[idx]
	if cur.weight+item.Weight <= s.capacity {
		s.chosen[idx] = true
		s.walk(depth+1, outcome{
			cost:   cur.cost + item.Cost,
			weight: cur.weight + item.Weight,
			count:  cur.count + 1,
		})
		s.chosen[idx] = false
	}

	// Copies of an item are taken as a prefix of their run, so leaving this
	// one out leaves out the rest of the run too.
	next := depth + 1
	for next < len(s.order) && sameItem(s.items[s.order[next]], item) {
		next++
	}
	s.walk(next, cur)
}

// dominated reports whether an earlier visit of the same state reached at
// least the same cost with no more items, and records cur otherwise.
func (s *bbSearch) dominated(depth int, cur outcome) bool {
	key := stateKey{depth: depth, weight: cur.weight}
	prev, ok := s.seen[key]
	if ok && prev.cost >= cur.cost && prev.count <= cur.count {
		return true
	}
	if !ok || cur.cost > prev.cost || (cur.cost == prev.cost && cur.count < prev.count) {
		s.seen[key] = cur
	}
	return false
}

// bound is the fractional knapsack value of the undecided items, rounded up.
func (s *bbSearch) bound(depth int, remaining packing.Amount) packing.Amount {
	var total packing.Amount
	for _, idx := range s.order[depth:] {
		item := s.items[idx]
		if item.Weight <= remaining {
			total += item.Cost
			remaining -= item.Weight
			continue
		}
		if remaining > 0 {
			total += (item.Cost*remaining + item.Weight - 1) / item.Weight
		}
		break
	}
	return total
}

func sameItem(a, b packing.Item) bool {
	return a.Weight == b.Weight && a.Cost == b.Cost
}
