package packing

import (
	"errors"
	"fmt"
)

// ErrInvalidPackage is the single failure kind reported by the packing core.
var ErrInvalidPackage = errors.New("invalid package data")

// PackageError describes which package, and optionally which item, violated
// the input contract.
type PackageError struct {
	// Line is the package's Line, 0 when unknown.
	Line int
	// Item is the offending item index, 0 when the package itself is invalid.
	Item   int
	Reason string
}

func (e *PackageError) Error() string {
	switch {
	case e.Line > 0 && e.Item > 0:
		return fmt.Sprintf("%s: package %d item %d: %s", ErrInvalidPackage, e.Line, e.Item, e.Reason)
	case e.Line > 0:
		return fmt.Sprintf("%s: package %d: %s", ErrInvalidPackage, e.Line, e.Reason)
	case e.Item > 0:
		return fmt.Sprintf("%s: item %d: %s", ErrInvalidPackage, e.Item, e.Reason)
	default:
		return fmt.Sprintf("%s: %s", ErrInvalidPackage, e.Reason)
	}
}

// Unwrap lets errors.Is match ErrInvalidPackage.
func (e *PackageError) Unwrap() error {
	return ErrInvalidPackage
}

// Validate checks the numeric contract of a budget and its candidates.
func Validate(budget Amount, candidates []Item) error {
	if budget < 0 {
		return &PackageError{Reason: fmt.Sprintf("negative weight budget %s", budget)}
	}
	for _, item := range candidates {
		if item.Weight < 0 {
			return &PackageError{Item: item.Index, Reason: fmt.Sprintf("negative weight %s", item.Weight)}
		}
		if item.Cost < 0 {
			return &PackageError{Item: item.Index, Reason: fmt.Sprintf("negative cost %s", item.Cost)}
		}
	}
	return nil
}
