// Package shipment decides which optimised packages are sent.
package shipment

import "github.com/eugenenazirov/packer/internal/packing"

// Select sets the Ship flag on every package of a batch.
//
// Packages sharing a non-zero achieved cost compete: only the lightest one
// ships, the earliest in batch order on equal weight. Every other package
// ships when it carries at least one item. A package with zero cost never
// ships. Select only reads optimisation results, so calling it again on the
// same batch yields the same flags.
func Select(packages []*packing.Package) {
	groups := make(map[packing.Amount][]*packing.Package, len(packages))
	for _, p := range packages {
		groups[p.Cost] = append(groups[p.Cost], p)
	}

	for _, p := range packages {
		group := groups[p.Cost]
		if p.Cost != 0 && len(group) > 1 {
			p.Ship = lightest(group) == p
			continue
		}
		p.Ship = p.Cost > 0 && len(p.Selected) > 0
	}
}

func lightest(group []*packing.Package) *packing.Package {
	winner := group[0]
	for _, p := range group[1:] {
		if p.Weight < winner.Weight {
			winner = p
		}
	}
	return winner
}

// Shipped returns the packages flagged for shipment, in batch order.
func Shipped(packages []*packing.Package) []*packing.Package {
	out := make([]*packing.Package, 0, len(packages))
	for _, p := range packages {
		if p.Ship {
			out = append(out, p)
		}
	}
	return out
}
