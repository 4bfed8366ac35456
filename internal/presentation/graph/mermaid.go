package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/circuitry/pkg/domain"
)

// Overlay contains live signal values to visualize on the graph.
type Overlay struct {
	// High lists the indexes of components whose first output is true.
	High []int
}

// OverlayFrom captures the current values of c.
func OverlayFrom(c *domain.Circuit) *Overlay {
	o := &Overlay{}
	for i, comp := range c.Components() {
		if out := comp.OutputValues(); len(out) > 0 && out[0] {
			o.High = append(o.High, i)
		}
	}
	return o
}

// GenerateMermaid produces a Mermaid flowchart from a circuit document.
// It applies semantic styling:
// - Input port: [/Parallelogram/]
// - Output port: [\Parallelogram\]
// - Custom component: [[Subroutine]]
// - Gate: [Rectangle]
// Edges carry "out:in" slot labels when either side has more than one slot.
func GenerateMermaid(doc *domain.Document, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")

	inputs, outputs := 0, 0
	for i, cd := range doc.Components {
		id := nodeID(i)
		label := strings.ToUpper(cd.Kind)
		opener, closer := "[", "]"

		switch cd.Kind {
		case domain.KindInput.String():
			label = fmt.Sprintf("in%d", inputs)
			inputs++
			opener, closer = "[/", "/]"
		case domain.KindOutput.String():
			label = fmt.Sprintf("out%d", outputs)
			outputs++
			opener, closer = "[\\", "\\]"
		case domain.KindCustom.String():
			label = cd.Name
			opener, closer = "[[", "]]"
		default:
			if _, err := domain.ParseKind(cd.Kind); err != nil {
				// Registered custom components are referenced by name.
				label = cd.Kind
				opener, closer = "[[", "]]"
			}
		}
		if cd.Inputs > 0 && cd.Kind != domain.KindCustom.String() {
			label = fmt.Sprintf("%s/%d", label, cd.Inputs)
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", id, opener, escape(label), closer)
	}

	multi := slotCounts(doc)
	for _, conn := range doc.Connections {
		from, to := nodeID(conn.From.Component), nodeID(conn.To.Component)
		if multi[conn.From] || multi[conn.To] || conn.From.Slot > 0 || conn.To.Slot > 0 {
			fmt.Fprintf(&sb, "    %s -- \"%d:%d\" --> %s\n", from, conn.From.Slot, conn.To.Slot, to)
		} else {
			fmt.Fprintf(&sb, "    %s --> %s\n", from, to)
		}
	}

	if overlay != nil && len(overlay.High) > 0 {
		sb.WriteString("\n    %% Signal Overlay\n")
		sb.WriteString("    classDef high fill:#fff59d,stroke:#f9a825,stroke-width:2px,color:#000;\n")
		seen := make(map[int]bool)
		for _, i := range overlay.High {
			if seen[i] || i < 0 || i >= len(doc.Components) {
				continue
			}
			seen[i] = true
			fmt.Fprintf(&sb, "    class %s high;\n", nodeID(i))
		}
	}

	return sb.String()
}

// slotCounts marks endpoints on components that have other wired slots on the
// same side, so their edges need slot labels.
func slotCounts(doc *domain.Document) map[domain.Endpoint]bool {
	inSlots := make(map[int]map[int]bool)
	for _, conn := range doc.Connections {
		if inSlots[conn.To.Component] == nil {
			inSlots[conn.To.Component] = make(map[int]bool)
		}
		inSlots[conn.To.Component][conn.To.Slot] = true
	}
	out := make(map[domain.Endpoint]bool)
	for _, conn := range doc.Connections {
		if len(inSlots[conn.To.Component]) > 1 {
			out[conn.To] = true
		}
	}
	return out
}

func nodeID(i int) string {
	return fmt.Sprintf("c%d", i)
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}
