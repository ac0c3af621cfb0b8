package format

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedLine is returned when a line does not follow the package grammar.
	ErrMalformedLine = errors.New("malformed package line")
	// ErrInvalidNumber is returned when a budget, index, weight or cost cannot be parsed.
	ErrInvalidNumber = errors.New("invalid number")
	// ErrDuplicateIndex is returned when two items of one package share an index.
	ErrDuplicateIndex = errors.New("duplicate item index")
)

// LineError ties a parse failure to its source line.
type LineError struct {
	// Line is the 1-based source line, 0 for a standalone ParseLine call.
	Line   int
	Err    error
	Detail string
}

func (e *LineError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s: %s", e.Line, e.Err, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Err, e.Detail)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

func malformed(format string, args ...any) error {
	return &LineError{Err: ErrMalformedLine, Detail: fmt.Sprintf(format, args...)}
}

func invalidNumber(format string, args ...any) error {
	return &LineError{Err: ErrInvalidNumber, Detail: fmt.Sprintf(format, args...)}
}
