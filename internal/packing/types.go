package packing

// Item is a candidate good for a package. Index is assigned by input order and
// is only used for reporting.
type Item struct {
	Index  int
	Weight Amount
	Cost   Amount
}

// Admissible reports whether the item may ever be selected: both its weight
// and cost must be within MaxAmount.
func (i Item) Admissible() bool {
	return i.Weight <= MaxAmount && i.Cost <= MaxAmount
}

// Selection is the outcome of optimising one package.
type Selection struct {
	Items  []Item
	Cost   Amount
	Weight Amount
}

// Indices returns the indices of the selected items in selection order.
func (s Selection) Indices() []int {
	out := make([]int, len(s.Items))
	for i, item := range s.Items {
		out[i] = item.Index
	}
	return out
}

// Package is one knapsack instance together with its optimisation result.
//
// Budget and Candidates are inputs. Selected, Cost and Weight are written once
// by the optimizer, Ship is written by the shipment selector.
type Package struct {
	// Line is the 1-based source line of the package, or its position in the
	// batch when it did not come from text.
	Line       int
	Budget     Amount
	Candidates []Item

	Selected []Item
	Cost     Amount
	Weight   Amount
	Ship     bool
}

// New returns a package with the given budget and candidates.
func New(line int, budget Amount, candidates []Item) *Package {
	return &Package{
		Line:       line,
		Budget:     budget,
		Candidates: candidates,
	}
}

// EffectiveBudget is the budget clamped to MaxAmount.
func (p *Package) EffectiveBudget() Amount {
	return Min(p.Budget, MaxAmount)
}

// SetSelection stores an optimisation result on the package. Cost and weight
// are recomputed from the selected items.
func (p *Package) SetSelection(sel Selection) {
	items := make([]Item, len(sel.Items))
	copy(items, sel.Items)
	p.Selected = items
	p.Cost, p.Weight = Totals(items)
}

// SelectedIndices returns the indices of the selected items in candidate order.
func (p *Package) SelectedIndices() []int {
	return Selection{Items: p.Selected}.Indices()
}

// Totals sums the cost and weight of items.
func Totals(items []Item) (cost, weight Amount) {
	for _, item := range items {
		cost += item.Cost
		weight += item.Weight
	}
	return cost, weight
}
