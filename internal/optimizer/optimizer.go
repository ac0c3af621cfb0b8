package optimizer

import (
	"errors"
	"fmt"
	"sort"

	"github.com/eugenenazirov/packer/internal/packing"
)

// Strategy names accepted by New.
const (
	Dynamic        = "dynamic"
	BranchAndBound = "branch-and-bound"
)

// ErrUnknownStrategy is returned by New for an unsupported strategy name.
var ErrUnknownStrategy = errors.New("unknown optimizer strategy")

// Optimizer selects the subset of candidates that maximises total cost
// without exceeding the budget clamped to packing.MaxAmount. Items whose
// weight or cost exceed packing.MaxAmount are never selected.
//
// Among subsets with equal maximum cost, implementations prefer the lowest
// total weight and then the fewest items. The returned items keep candidate
// order.
type Optimizer interface {
	Optimize(budget packing.Amount, candidates []packing.Item) (packing.Selection, error)
}

var constructors = map[string]func() Optimizer{
	Dynamic:        NewDynamic,
	BranchAndBound: NewBranchAndBound,
}

// New returns the optimizer registered under name. An empty name selects
// the dynamic programming optimizer.
func New(name string) (Optimizer, error) {
	if name == "" {
		name = Dynamic
	}
	ctor, ok := constructors[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
	return ctor(), nil
}

// Strategies lists the supported strategy names in sorted order.
func Strategies() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Apply optimises p and stores the result on it. On error p is left untouched
// and the error carries the package line.
func Apply(opt Optimizer, p *packing.Package) error {
	sel, err := opt.Optimize(p.Budget, p.Candidates)
	if err != nil {
		var pkgErr *packing.PackageError
		if errors.As(err, &pkgErr) && pkgErr.Line == 0 {
			pkgErr.Line = p.Line
		}
		return err
	}
	p.SetSelection(sel)
	return nil
}

// prepare validates the input and returns the candidates that can possibly be
// selected together with the effective capacity.
func prepare(budget packing.Amount, candidates []packing.Item) ([]packing.Item, packing.Amount, error) {
	if err := packing.Validate(budget, candidates); err != nil {
		return nil, 0, err
	}

	capacity := packing.Min(budget, packing.MaxAmount)
	if capacity == 0 {
		return nil, 0, nil
	}

	items := make([]packing.Item, 0, len(candidates))
	for _, item := range candidates {
		if item.Admissible() && item.Weight <= capacity {
			items = append(items, item)
		}
	}
	return items, capacity, nil
}

// outcome is the ordering key for equal-cost tie-breaking.
type outcome struct {
	cost   packing.Amount
	weight packing.Amount
	count  int
}

func (o outcome) betterThan(other outcome) bool {
	if o.cost != other.cost {
		return o.cost > other.cost
	}
	if o.weight != other.weight {
		return o.weight < other.weight
	}
	return o.count < other.count
}

func selection(items []packing.Item, chosen []bool) packing.Selection {
	picked := make([]packing.Item, 0, len(items))
	for i, item := range items {
		if chosen[i] {
			picked = append(picked, item)
		}
	}
	cost, weight := packing.Totals(picked)
	return packing.Selection{Items: picked, Cost: cost, Weight: weight}
}
