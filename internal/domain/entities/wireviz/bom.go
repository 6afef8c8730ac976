package wireviz

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// BomItem is one grouped line of the harness bill of materials.
type BomItem struct {
	PartInfo

	Idx         int
	Description string
	Designators []string
	Qty         float64
	Unit        string
}

// DesignatorList joins the designators for display.
func (b BomItem) DesignatorList() string {
	return strings.Join(b.Designators, ", ")
}

type bomKey struct {
	description string
	unit        string
	part        PartInfo
}

type bomBuilder struct {
	order []bomKey
	lines map[bomKey]*BomItem
}

func (b *bomBuilder) add(description string, qty float64, unit string, part PartInfo, designators ...string) {
	key := bomKey{description: description, unit: unit, part: normalizePart(part)}
	line, ok := b.lines[key]
	if !ok {
		line = &BomItem{PartInfo: key.part, Description: description, Unit: unit}
		b.lines[key] = line
		b.order = append(b.order, key)
	}
	line.Qty += qty
	for _, d := range designators {
		if d != "" && !contains(line.Designators, d) {
			line.Designators = append(line.Designators, d)
		}
	}
}

func (b *bomBuilder) items() []BomItem {
	out := make([]BomItem, 0, len(b.order))
	for i, key := range b.order {
		line := *b.lines[key]
		line.Idx = i + 1
		line.Qty = roundQty(line.Qty)
		sort.Strings(line.Designators)
		out = append(out, line)
	}
	return out
}

// ExtractBOM groups the harness components into BOM lines. Lines are
// numbered from 1 in order of first appearance: connectors, then cables,
// then additional BOM items.
func ExtractBOM(doc *Document) []BomItem {
	b := &bomBuilder{lines: make(map[bomKey]*BomItem)}
	uses := doc.autogeneratedUses()

	for _, c := range doc.Connectors {
		description := joinNonEmpty(", ", "Connector", c.Type, c.Subtype, pinLabel(c.EffectivePinCount()), c.Color)

		if c.Autogenerate {
			count := uses[c.Designator]
			if count == 0 {
				continue
			}
			b.add(description, float64(count), "", c.PartInfo)
		} else {
			b.add(description, 1, "", c.PartInfo, c.Designator)
		}

		for _, extra := range c.Additional {
			multiplier := 1.0
			if strings.EqualFold(extra.QtyMultiplier, "pincount") {
				multiplier = float64(c.EffectivePinCount())
			}
			b.add(extra.describe(), extra.quantity()*multiplier, extra.Unit, extra.PartInfo, c.Designator)
		}
	}

	for _, c := range doc.Cables {
		length, unit := c.Length()

		if c.IsBundle() {
			for _, color := range c.Colors {
				description := joinNonEmpty(", ", "Wire", c.Type, c.GaugeLabel(), color)
				b.add(description, length, unit, c.PartInfo, c.Designator)
			}
		} else {
			description := joinNonEmpty(", ", "Cable", c.Type, cableSize(c.EffectiveWireCount(), c.GaugeLabel()))
			if c.Shielded() {
				description += ", shielded"
			}
			description = joinNonEmpty(", ", description, c.Color)
			b.add(description, length, unit, c.PartInfo, c.Designator)
		}

		for _, extra := range c.Additional {
			multiplier := 1.0
			switch strings.ToLower(extra.QtyMultiplier) {
			case "wirecount":
				multiplier = float64(c.EffectiveWireCount())
			case "length":
				multiplier = length
			case "total_length":
				multiplier = length * float64(c.EffectiveWireCount())
			}
			b.add(extra.describe(), extra.quantity()*multiplier, extra.Unit, extra.PartInfo, c.Designator)
		}
	}

	for _, extra := range doc.AdditionalItems {
		b.add(extra.describe(), extra.quantity(), extra.Unit, extra.PartInfo, extra.Designators...)
	}

	return b.items()
}

// autogeneratedUses counts how often each autogenerated connector appears in
// the connection sets. Every pin reference is one instance and an item
// without pins stands for one instance per wire of its set.
func (d *Document) autogeneratedUses() map[string]int {
	uses := make(map[string]int)
	for _, set := range d.Connections {
		width := set.Width()
		for _, item := range set {
			c, ok := d.Connector(item.Designator)
			if !ok || !c.Autogenerate {
				continue
			}
			if len(item.Pins) == 0 {
				uses[c.Designator] += width
			} else {
				uses[c.Designator] += len(item.Pins)
			}
		}
	}
	return uses
}

// Width is the number of parallel wires in the set: the longest pin list,
// or one when no item names pins.
func (s ConnectionSet) Width() int {
	width := 1
	for _, item := range s {
		width = max(width, len(item.Pins))
	}
	return width
}

func (a AdditionalItem) describe() string {
	if a.Description != "" {
		return a.Description
	}
	return joinNonEmpty(", ", a.Type, a.Subtype)
}

func (a AdditionalItem) quantity() float64 {
	if strings.TrimSpace(a.Qty) == "" {
		return 1
	}
	qty, err := strconv.ParseFloat(strings.TrimSpace(a.Qty), 64)
	if err != nil {
		return 1
	}
	return qty
}

func pinLabel(count int) string {
	switch count {
	case 0:
		return ""
	case 1:
		return "1 pin"
	}
	return strconv.Itoa(count) + " pins"
}

func cableSize(wires int, gauge string) string {
	switch {
	case wires > 0 && gauge != "":
		return strconv.Itoa(wires) + " x " + gauge
	case wires == 1:
		return "1 wire"
	case wires > 0:
		return strconv.Itoa(wires) + " wires"
	}
	return gauge
}

func normalizePart(p PartInfo) PartInfo {
	return PartInfo{
		PN:           strings.TrimSpace(p.PN),
		Manufacturer: strings.TrimSpace(p.Manufacturer),
		MPN:          strings.TrimSpace(p.MPN),
		Supplier:     strings.TrimSpace(p.Supplier),
		SPN:          strings.TrimSpace(p.SPN),
	}
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

func roundQty(q float64) float64 {
	return math.Round(q*1e6) / 1e6
}
