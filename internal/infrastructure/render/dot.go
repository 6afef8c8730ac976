package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/AtRiskMedia/inventree-wireviz-go/internal/domain/entities/wireviz"
)

// DOT renders the harness as a Graphviz graph: connectors and cables become
// record nodes with one port per pin or wire, and every connection set is
// drawn as a chain of edges.
func DOT(doc *wireviz.Document) string {
	var b strings.Builder
	b.WriteString("graph harness {\n")
	b.WriteString("\tgraph [rankdir=LR, ranksep=2, fontname=\"arial\"];\n")
	b.WriteString("\tnode [shape=record, fontname=\"arial\"];\n")
	b.WriteString("\tedge [style=bold, fontname=\"arial\"];\n")

	for _, c := range doc.Connectors {
		ports := connectorPins(c)
		title := strings.Join(nonEmpty(c.Type, c.Subtype, c.Color), ", ")
		fmt.Fprintf(&b, "\t%s [label=\"%s\"];\n", quote(c.Designator), recordLabel(c.Designator, title, "p", ports))
	}

	for _, c := range doc.Cables {
		wires := make([]string, c.EffectiveWireCount())
		for i := range wires {
			wires[i] = strconv.Itoa(i + 1)
			if i < len(c.Colors) {
				wires[i] += " " + c.Colors[i]
			}
		}
		title := c.GaugeLabel()
		if length, unit := c.Length(); length > 0 {
			title = strings.Join(nonEmpty(title, strconv.FormatFloat(length, 'f', -1, 64)+" "+unit), ", ")
		}
		fmt.Fprintf(&b, "\t%s [label=\"%s\", style=rounded];\n", quote(c.Designator), recordLabel(c.Designator, title, "w", wires))
	}

	for _, set := range doc.Connections {
		for i := 0; i+1 < len(set); i++ {
			from, to := set[i], set[i+1]
			n := max(len(from.Pins), len(to.Pins), 1)
			for k := 0; k < n; k++ {
				fmt.Fprintf(&b, "\t%s -- %s;\n", endpoint(doc, from, k), endpoint(doc, to, k))
			}
		}
	}

	b.WriteString("}\n")
	return b.String()
}

func connectorPins(c wireviz.Connector) []string {
	if len(c.Pins) > 0 {
		return c.Pins
	}
	pins := make([]string, c.EffectivePinCount())
	for i := range pins {
		pins[i] = strconv.Itoa(i + 1)
		if i < len(c.PinLabels) && c.PinLabels[i] != "" {
			pins[i] += " " + c.PinLabels[i]
		}
	}
	return pins
}

// endpoint names the node port for the k-th pin of a connection item. A
// single pin is reused for every k so one pin can fan out to many wires.
func endpoint(doc *wireviz.Document, item wireviz.ConnectionItem, k int) string {
	node := quote(item.Designator)
	if len(item.Pins) == 0 {
		return node
	}
	pin := item.Pins[min(k, len(item.Pins)-1)]

	if c, ok := doc.Connector(item.Designator); ok {
		if len(c.Pins) > 0 {
			for i, name := range c.Pins {
				if name == pin {
					return fmt.Sprintf("%s:p%d", node, i+1)
				}
			}
			return node
		}
		if n, err := strconv.Atoi(pin); err == nil && n >= 1 && n <= c.EffectivePinCount() {
			return fmt.Sprintf("%s:p%d", node, n)
		}
		return node
	}

	if c, ok := doc.Cable(item.Designator); ok {
		if n, err := strconv.Atoi(pin); err == nil && n >= 1 && n <= c.EffectiveWireCount() {
			return fmt.Sprintf("%s:w%d", node, n)
		}
	}
	return node
}

func recordLabel(designator, title, portPrefix string, ports []string) string {
	fields := []string{escapeRecord(designator)}
	if title != "" {
		fields = append(fields, escapeRecord(title))
	}
	if len(ports) > 0 {
		cells := make([]string, len(ports))
		for i, p := range ports {
			cells[i] = fmt.Sprintf("<%s%d> %s", portPrefix, i+1, escapeRecord(p))
		}
		fields = append(fields, "{"+strings.Join(cells, "|")+"}")
	}
	return "{" + strings.Join(fields, "|") + "}"
}

var recordEscaper = strings.NewReplacer(
	`\`, `\\`, `"`, `\"`, `{`, `\{`, `}`, `\}`, `|`, `\|`, `<`, `\<`, `>`, `\>`,
)

func escapeRecord(s string) string {
	return recordEscaper.Replace(s)
}

func quote(id string) string {
	return strconv.Quote(id)
}

func nonEmpty(values ...string) []string {
	out := values[:0:0]
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}
