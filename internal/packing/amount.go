package packing

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Scale is the number of Amount units per whole unit of weight or cost.
const Scale = 100

// MaxAmount is the domain ceiling for a package budget and for the weight and
// cost of any single selectable item.
const MaxAmount Amount = 100 * Scale

// ErrInvalidAmount is returned when a value cannot be represented as an Amount.
var ErrInvalidAmount = errors.New("invalid amount")

// Amount is a non-negative fixed-point quantity with two decimal places.
// All weight and cost comparisons are done on Amounts so equality is exact.
type Amount int64

// ParseAmount converts a decimal string such as "53.38" into an Amount.
// Digits past the second decimal place are rounded half-up.
func ParseAmount(raw string) (Amount, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, fmt.Errorf("%w: empty value", ErrInvalidAmount)
	}
	if s[0] == '+' {
		s = s[1:]
	}

	whole, frac, hasDot := strings.Cut(s, ".")
	if whole == "" && (!hasDot || frac == "") {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}
	if !isDigits(whole) || !isDigits(frac) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}

	var units int64
	if whole != "" {
		v, err := strconv.ParseInt(whole, 10, 64)
		if err != nil || v > math.MaxInt64/Scale-1 {
			return 0, fmt.Errorf("%w: %q out of range", ErrInvalidAmount, raw)
		}
		units = v * Scale
	}

	padded := frac + "000"
	cents, _ := strconv.ParseInt(padded[:2], 10, 64)
	units += cents
	if padded[2] >= '5' {
		units++
	}

	return Amount(units), nil
}

// AmountFromFloat converts a float into an Amount, rounding to the nearest
// hundredth. NaN, infinities and negative values are rejected.
func AmountFromFloat(v float64) (Amount, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %v", ErrInvalidAmount, v)
	}
	if v < 0 {
		return 0, fmt.Errorf("%w: negative value %v", ErrInvalidAmount, v)
	}
	scaled := math.Round(v * Scale)
	if scaled > math.MaxInt64/2 {
		return 0, fmt.Errorf("%w: %v out of range", ErrInvalidAmount, v)
	}
	return Amount(scaled), nil
}

// MustAmount is like AmountFromFloat but panics on invalid input.
// It is meant for constants and tests.
func MustAmount(v float64) Amount {
	a, err := AmountFromFloat(v)
	if err != nil {
		panic(err)
	}
	return a
}

// Float returns the amount as a float64, for presentation only.
func (a Amount) Float() float64 {
	return float64(a) / Scale
}

// String renders the amount with exactly two decimal places.
func (a Amount) String() string {
	sign := ""
	v := int64(a)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/Scale, v%Scale)
}

// Min returns the smaller of a and b.
func Min(a, b Amount) Amount {
	if a < b {
		return a
	}
	return b
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
