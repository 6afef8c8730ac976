// Package wireviz parses WireViz harness descriptions and extracts their
// bill of materials.
package wireviz

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrEmptyHarness is returned for documents without connectors or cables.
var ErrEmptyHarness = errors.New("harness defines no connectors or cables")

// PartInfo carries the purchasing fields WireViz allows on any BOM item.
type PartInfo struct {
	PN           string `yaml:"pn"`
	Manufacturer string `yaml:"manufacturer"`
	MPN          string `yaml:"mpn"`
	Supplier     string `yaml:"supplier"`
	SPN          string `yaml:"spn"`
}

// AdditionalItem is an extra BOM line, either attached to a connector or
// cable or listed under additional_bom_items.
type AdditionalItem struct {
	PartInfo `yaml:",inline"`

	Type          string   `yaml:"type"`
	Subtype       string   `yaml:"subtype"`
	Description   string   `yaml:"description"`
	Qty           string   `yaml:"qty"`
	QtyMultiplier string   `yaml:"qty_multiplier"`
	Unit          string   `yaml:"unit"`
	Designators   []string `yaml:"designators"`
}

// Connector is one entry of the connectors section.
type Connector struct {
	PartInfo `yaml:",inline"`

	Designator   string           `yaml:"-"`
	Type         string           `yaml:"type"`
	Subtype      string           `yaml:"subtype"`
	Color        string           `yaml:"color"`
	PinCount     int              `yaml:"pincount"`
	Pins         []string         `yaml:"pins"`
	PinLabels    []string         `yaml:"pinlabels"`
	Autogenerate bool             `yaml:"autogenerate"`
	Additional   []AdditionalItem `yaml:"additional_components"`
}

// EffectivePinCount prefers an explicit pincount over the pin and label lists.
func (c Connector) EffectivePinCount() int {
	switch {
	case c.PinCount > 0:
		return c.PinCount
	case len(c.Pins) > 0:
		return len(c.Pins)
	default:
		return len(c.PinLabels)
	}
}

// Cable is one entry of the cables section.
type Cable struct {
	PartInfo `yaml:",inline"`

	Designator string           `yaml:"-"`
	Type       string           `yaml:"type"`
	Category   string           `yaml:"category"`
	WireCount  int              `yaml:"wirecount"`
	Colors     []string         `yaml:"colors"`
	ColorCode  string           `yaml:"color_code"`
	Color      string           `yaml:"color"`
	Gauge      string           `yaml:"gauge"`
	GaugeUnit  string           `yaml:"gauge_unit"`
	RawLength  string           `yaml:"length"`
	LengthUnit string           `yaml:"length_unit"`
	Shield     string           `yaml:"shield"`
	Additional []AdditionalItem `yaml:"additional_components"`
}

// EffectiveWireCount falls back to the colour list when wirecount is unset.
func (c Cable) EffectiveWireCount() int {
	if c.WireCount > 0 {
		return c.WireCount
	}
	return len(c.Colors)
}

// IsBundle reports whether the cable is a loose bundle of wires.
func (c Cable) IsBundle() bool {
	return strings.EqualFold(c.Category, "bundle")
}

// Shielded reports whether the cable has a shield.
func (c Cable) Shielded() bool {
	s := strings.TrimSpace(strings.ToLower(c.Shield))
	return s != "" && s != "false" && s != "no"
}

// Length parses the cable length, which may be a bare number or carry its
// unit ("2 m"). The unit defaults to metres.
func (c Cable) Length() (float64, string) {
	unit := c.LengthUnit
	raw := strings.TrimSpace(c.RawLength)

	if fields := strings.Fields(raw); len(fields) == 2 {
		raw = fields[0]
		if unit == "" {
			unit = fields[1]
		}
	}
	if unit == "" {
		unit = "m"
	}

	length, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, unit
	}
	return length, unit
}

// GaugeLabel renders the gauge with its unit, e.g. "0.25 mm²".
func (c Cable) GaugeLabel() string {
	gauge := strings.TrimSpace(c.Gauge)
	if gauge == "" {
		return ""
	}
	unit := c.GaugeUnit
	if fields := strings.Fields(gauge); len(fields) == 2 {
		gauge = fields[0]
		if unit == "" {
			unit = fields[1]
		}
	}
	if unit == "" {
		unit = "mm2"
	}
	return gauge + " " + strings.ReplaceAll(unit, "mm2", "mm²")
}

// ConnectionItem is one hop of a connection set, e.g. "X1: [1, 2]".
type ConnectionItem struct {
	Designator string
	Pins       []string
}

// ConnectionSet is one entry of the connections list.
type ConnectionSet []ConnectionItem

// Document is a parsed harness description.
type Document struct {
	Connectors      []Connector
	Cables          []Cable
	Connections     []ConnectionSet
	AdditionalItems []AdditionalItem
}

// Connector returns the connector named designator.
func (d *Document) Connector(designator string) (Connector, bool) {
	for _, c := range d.Connectors {
		if c.Designator == designator {
			return c, true
		}
	}
	return Connector{}, false
}

// Cable returns the cable named designator.
func (d *Document) Cable(designator string) (Cable, bool) {
	for _, c := range d.Cables {
		if c.Designator == designator {
			return c, true
		}
	}
	return Cable{}, false
}

// Parse decodes a harness description. Anchors and merge keys from
// prepended template files resolve as in any YAML document. A repeated
// top-level section replaces the earlier one, so a section defined by a
// template is overridden by the harness file that follows it.
func Parse(data []byte) (*Document, error) {
	var root yaml.Node
	if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyHarness
		}
		return nil, fmt.Errorf("invalid yaml: %w", err)
	}
	if len(root.Content) == 0 {
		return nil, ErrEmptyHarness
	}

	top := resolve(root.Content[0])
	if top.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("harness must be a mapping, got %s", kindName(top.Kind))
	}

	doc := &Document{}
	for i := 0; i+1 < len(top.Content); i += 2 {
		key, value := top.Content[i].Value, resolve(top.Content[i+1])

		var err error
		switch key {
		case "connectors":
			doc.Connectors = nil
			err = decodeNamed(value, func(name string, n *yaml.Node) error {
				var c Connector
				if err := n.Decode(&c); err != nil {
					return err
				}
				c.Designator = name
				doc.Connectors = append(doc.Connectors, c)
				return nil
			})
		case "cables":
			doc.Cables = nil
			err = decodeNamed(value, func(name string, n *yaml.Node) error {
				var c Cable
				if err := n.Decode(&c); err != nil {
					return err
				}
				c.Designator = name
				doc.Cables = append(doc.Cables, c)
				return nil
			})
		case "connections":
			doc.Connections, err = decodeConnections(value)
		case "additional_bom_items":
			doc.AdditionalItems = nil
			err = value.Decode(&doc.AdditionalItems)
		}
		if err != nil {
			return nil, fmt.Errorf("section %q: %w", key, err)
		}
	}

	if len(doc.Connectors) == 0 && len(doc.Cables) == 0 {
		return nil, ErrEmptyHarness
	}
	if err := doc.validateConnections(); err != nil {
		return nil, err
	}

	return doc, nil
}

func (d *Document) validateConnections() error {
	for n, set := range d.Connections {
		for _, item := range set {
			if _, ok := d.Connector(item.Designator); ok {
				continue
			}
			if _, ok := d.Cable(item.Designator); ok {
				continue
			}
			return fmt.Errorf("connection %d references unknown designator %q", n+1, item.Designator)
		}
	}
	return nil
}

func decodeNamed(node *yaml.Node, fn func(name string, n *yaml.Node) error) error {
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("expected a mapping, got %s", kindName(node.Kind))
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value
		if err := fn(name, resolve(node.Content[i+1])); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

func decodeConnections(node *yaml.Node) ([]ConnectionSet, error) {
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		return nil, nil
	}
	if node.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("expected a list, got %s", kindName(node.Kind))
	}

	sets := make([]ConnectionSet, 0, len(node.Content))
	for _, setNode := range node.Content {
		setNode = resolve(setNode)
		if setNode.Kind != yaml.SequenceNode {
			return nil, fmt.Errorf("connection set must be a list, got %s", kindName(setNode.Kind))
		}

		var set ConnectionSet
		for _, itemNode := range setNode.Content {
			itemNode = resolve(itemNode)
			switch itemNode.Kind {
			case yaml.ScalarNode:
				set = append(set, ConnectionItem{Designator: itemNode.Value})
			case yaml.MappingNode:
				for i := 0; i+1 < len(itemNode.Content); i += 2 {
					item := ConnectionItem{Designator: itemNode.Content[i].Value}
					pins := resolve(itemNode.Content[i+1])
					switch pins.Kind {
					case yaml.SequenceNode:
						var raw []string
						if err := pins.Decode(&raw); err != nil {
							return nil, err
						}
						item.Pins = expandPins(raw)
					case yaml.ScalarNode:
						item.Pins = expandPins([]string{pins.Value})
					}
					set = append(set, item)
				}
			default:
				return nil, fmt.Errorf("unsupported connection item %s", kindName(itemNode.Kind))
			}
		}
		sets = append(sets, set)
	}
	return sets, nil
}

// expandPins replaces numeric ranges such as "1-3" or "4-2" with the pins
// they cover. Anything else is kept as a pin name.
func expandPins(pins []string) []string {
	out := make([]string, 0, len(pins))
	for _, pin := range pins {
		from, to, ok := pinRange(pin)
		if !ok {
			out = append(out, pin)
			continue
		}
		step := 1
		if to < from {
			step = -1
		}
		for n := from; ; n += step {
			out = append(out, strconv.Itoa(n))
			if n == to {
				break
			}
		}
	}
	return out
}

func pinRange(pin string) (int, int, bool) {
	lo, hi, found := strings.Cut(strings.TrimSpace(pin), "-")
	if !found {
		return 0, 0, false
	}
	from, err := strconv.Atoi(strings.TrimSpace(lo))
	if err != nil || from < 0 {
		return 0, 0, false
	}
	to, err := strconv.Atoi(strings.TrimSpace(hi))
	if err != nil || to < 0 {
		return 0, 0, false
	}
	return from, to, true
}

func resolve(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "list"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	}
	return "unknown"
}
