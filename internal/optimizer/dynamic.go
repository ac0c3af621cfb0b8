package optimizer

import "github.com/eugenenazirov/packer/internal/packing"

type dpOptimizer struct{}

// NewDynamic creates an Optimizer based on 0-1 knapsack dynamic programming
// over weights in hundredths.
func NewDynamic() Optimizer {
	return &dpOptimizer{}
}

type dpCell struct {
	cost      packing.Amount
	count     int
	reachable bool
}

func (c dpCell) improves(other dpCell) bool {
	if !other.reachable {
		return true
	}
	if c.cost != other.cost {
		return c.cost > other.cost
	}
	return c.count < other.count
}

func (o *dpOptimizer) Optimize(budget packing.Amount, candidates []packing.Item) (packing.Selection, error) {
	items, capacity, err := prepare(budget, candidates)
	if err != nil {
		return packing.Selection{}, err
	}
	if len(items) == 0 {
		return packing.Selection{Items: []packing.Item{}}, nil
	}

	limit := int(capacity)

	// best[w] holds the best cost reaching a total weight of exactly w.
	best := make([]dpCell, limit+1)
	best[0] = dpCell{reachable: true}
	// keep[i] has bit w set when item i improved best[w].
	words := limit/64 + 1
	keep := make([][]uint64, len(items))

	for i, item := range items {
		keep[i] = make([]uint64, words)
		w := int(item.Weight)
		for total := limit; total >= w; total-- {
			prev := best[total-w]
			if !prev.reachable {
				continue
			}
			next := dpCell{cost: prev.cost + item.Cost, count: prev.count + 1, reachable: true}
			if next.improves(best[total]) {
				best[total] = next
				keep[i][total/64] |= 1 << (total % 64)
			}
		}
	}

	// Lowest weight wins among equal costs, so scan upwards and only move on
	// a strictly better cost.
	target := 0
	for total := 1; total <= limit; total++ {
		if best[total].reachable && best[total].cost > best[target].cost {
			target = total
		}
	}

	chosen := make([]bool, len(items))
	for i, remaining := len(items)-1, target; i >= 0; i-- {
		if keep[i][remaining/64]&(1<<(remaining%64)) != 0 {
			chosen[i] = true
			remaining -= int(items[i].Weight)
		}
	}

	return selection(items, chosen), nil
}
