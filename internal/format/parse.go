package format

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/eugenenazirov/packer/internal/packing"
)

const maxLineBytes = 1 << 20

// Parse reads one package per non-blank line. Each package is numbered by its
// 1-based source line, the same number parse errors report, so numbers skip
// blank lines.
func Parse(r io.Reader) ([]*packing.Package, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var packages []*packing.Package
	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		p, err := ParseLine(line)
		if err != nil {
			// A failed read hands back a truncated last line.
			if readErr := scanner.Err(); readErr != nil {
				return nil, fmt.Errorf("read input: %w", readErr)
			}
			var lineErr *LineError
			if errors.As(err, &lineErr) {
				lineErr.Line = lineNo
			}
			return nil, err
		}
		p.Line = lineNo
		packages = append(packages, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return packages, nil
}

// ParseLine parses a single package description.
func ParseLine(line string) (*packing.Package, error) {
	head, rest, ok := strings.Cut(line, ":")
	if !ok {
		return nil, malformed("missing ':' after weight budget")
	}

	budget, err := packing.ParseAmount(head)
	if err != nil {
		return nil, invalidNumber("weight budget %q", strings.TrimSpace(head))
	}

	items, err := parseItems(rest)
	if err != nil {
		return nil, err
	}
	return packing.New(0, budget, items), nil
}

func parseItems(rest string) ([]packing.Item, error) {
	items := make([]packing.Item, 0, strings.Count(rest, "("))
	seen := make(map[int]struct{})

	for {
		rest = strings.TrimLeftFunc(rest, unicode.IsSpace)
		if rest == "" {
			return items, nil
		}
		if rest[0] != '(' {
			return nil, malformed("expected '(' at %q", clip(rest))
		}
		end := strings.IndexByte(rest, ')')
		if end < 0 {
			return nil, malformed("unterminated item %q", clip(rest))
		}
		body := rest[1:end]
		if strings.ContainsRune(body, '(') {
			return nil, malformed("unterminated item %q", clip(rest))
		}

		item, err := parseItem(body)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[item.Index]; dup {
			return nil, &LineError{Err: ErrDuplicateIndex, Detail: strconv.Itoa(item.Index)}
		}
		seen[item.Index] = struct{}{}
		items = append(items, item)

		rest = rest[end+1:]
	}
}

func parseItem(body string) (packing.Item, error) {
	fields := strings.Split(body, ",")
	if len(fields) != 3 {
		return packing.Item{}, malformed("item (%s) must have index, weight and cost", body)
	}

	rawIndex := strings.TrimSpace(fields[0])
	index, err := strconv.Atoi(rawIndex)
	if err != nil || index <= 0 {
		return packing.Item{}, invalidNumber("item index %q", rawIndex)
	}

	weight, err := packing.ParseAmount(fields[1])
	if err != nil {
		return packing.Item{}, invalidNumber("item %d weight %q", index, strings.TrimSpace(fields[1]))
	}

	rawCost := strings.TrimLeftFunc(strings.TrimSpace(fields[2]), unicode.IsSymbol)
	cost, err := packing.ParseAmount(rawCost)
	if err != nil {
		return packing.Item{}, invalidNumber("item %d cost %q", index, strings.TrimSpace(fields[2]))
	}

	return packing.Item{Index: index, Weight: weight, Cost: cost}, nil
}

func clip(s string) string {
	const max = 24
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
