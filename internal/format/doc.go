// Package format reads packing batches from their line-oriented text form and
// renders shipment decisions back to text.
//
// Each input line describes one package:
//
//	81 : (1,53.38,€45) (2,88.62,€98) (3,78.48,€3)
//
// The number before the colon is the weight budget, each parenthesised triple
// is an item index, weight and cost. A currency symbol may prefix the cost.
// Each output line lists the shipped item indices of the matching input line,
// or "-" when the package is not shipped.
package format
