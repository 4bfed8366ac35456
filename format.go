package circuitry

import (
	"fmt"
	"strings"

	"github.com/aretw0/circuitry/pkg/domain"
)

// ParseBits reads a stimulus such as "101" or "1,0,1". Whitespace, commas and
// underscores are ignored.
func ParseBits(s string) ([]bool, error) {
	bits := make([]bool, 0, len(s))
	for _, r := range s {
		switch r {
		case '1':
			bits = append(bits, true)
		case '0':
			bits = append(bits, false)
		case ',', '_', ' ', '\t':
		default:
			return nil, fmt.Errorf("invalid bit %q in %q", r, s)
		}
	}
	return bits, nil
}

// FormatBits renders values as a string of 0 and 1.
func FormatBits(bits []bool) string {
	var b strings.Builder
	for _, v := range bits {
		if v {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

// TruthTableMarkdown renders rows as a Markdown table with one column per port.
func TruthTableMarkdown(rows []domain.TruthRow) string {
	if len(rows) == 0 {
		return "_empty truth table_\n"
	}
	ins, outs := len(rows[0].Inputs), len(rows[0].Outputs)

	var b strings.Builder
	header := make([]string, 0, ins+outs)
	for i := 0; i < ins; i++ {
		header = append(header, fmt.Sprintf("in%d", i))
	}
	for i := 0; i < outs; i++ {
		header = append(header, fmt.Sprintf("out%d", i))
	}
	if len(header) == 0 {
		return "_empty truth table_\n"
	}
	fmt.Fprintf(&b, "| %s |\n", strings.Join(header, " | "))
	fmt.Fprintf(&b, "|%s\n", strings.Repeat(" --- |", len(header)))

	for _, row := range rows {
		cells := make([]string, 0, len(header))
		for _, v := range row.Inputs {
			cells = append(cells, FormatBits([]bool{v}))
		}
		for _, v := range row.Outputs {
			cells = append(cells, FormatBits([]bool{v}))
		}
		fmt.Fprintf(&b, "| %s |\n", strings.Join(cells, " | "))
	}
	return b.String()
}

// Describe renders a document as a Markdown listing of components and connections.
func Describe(doc *domain.Document) string {
	var b strings.Builder
	b.WriteString("## Components\n\n")
	if len(doc.Components) == 0 {
		b.WriteString("_none_\n")
	}
	for i, c := range doc.Components {
		label := c.Kind
		if c.Name != "" {
			label = c.Name + " (custom)"
		}
		fmt.Fprintf(&b, "%d. `%s` at (%g, %g)", i, label, c.X, c.Y)
		if c.Inputs != 0 || c.Outputs != 0 {
			fmt.Fprintf(&b, " inputs=%d outputs=%d", c.Inputs, c.Outputs)
		}
		b.WriteByte('\n')
	}

	b.WriteString("\n## Connections\n\n")
	if len(doc.Connections) == 0 {
		b.WriteString("_none_\n")
	}
	for _, conn := range doc.Connections {
		fmt.Fprintf(&b, "- %d.%d → %d.%d", conn.From.Component, conn.From.Slot, conn.To.Component, conn.To.Slot)
		if len(conn.Path) > 0 {
			fmt.Fprintf(&b, " via %d waypoint(s)", len(conn.Path))
		}
		b.WriteByte('\n')
	}
	return b.String()
}
