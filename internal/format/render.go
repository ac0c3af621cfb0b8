package format

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/eugenenazirov/packer/internal/packing"
)

// NotShipped is rendered for packages that are not sent.
const NotShipped = "-"

// RenderLine returns the output line for a single package without a newline.
func RenderLine(p *packing.Package) string {
	if !p.Ship || len(p.Selected) == 0 {
		return NotShipped
	}
	parts := make([]string, len(p.Selected))
	for i, item := range p.Selected {
		parts[i] = strconv.Itoa(item.Index)
	}
	return strings.Join(parts, ",")
}

// Render writes one line per package, in batch order.
func Render(w io.Writer, packages []*packing.Package) error {
	bw := bufio.NewWriter(w)
	for _, p := range packages {
		if _, err := bw.WriteString(RenderLine(p)); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}
