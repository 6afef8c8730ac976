package harness

import (
	"fmt"
	"strings"
)

// DefaultPartURLPrefix points at the host's part detail page.
const DefaultPartURLPrefix = "/part/"

// PartLinker builds the link target for a matched inventory part.
type PartLinker func(subPart int64) string

// DefaultPartLink links to the host part detail page for subPart.
func DefaultPartLink(subPart int64) string {
	return PartLinkWithPrefix(DefaultPartURLPrefix)(subPart)
}

// PartLinkWithPrefix returns a PartLinker rooted at prefix.
func PartLinkWithPrefix(prefix string) PartLinker {
	if prefix == "" {
		prefix = DefaultPartURLPrefix
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return func(subPart int64) string {
		return fmt.Sprintf("%s%d/", prefix, subPart)
	}
}

// BomRow is a BomEntry ready for display.
type BomRow struct {
	BomEntry
	Key      string  `json:"key"`
	PartLink *string `json:"part_link"`
}

// HasLink reports whether the row renders a part link rather than a dash.
func (r BomRow) HasLink() bool {
	return r.PartLink != nil
}

// ResolveRows maps entries to display rows in the same order. A row only
// links to a part when both the matched part id and the part number are
// present.
func ResolveRows(entries []BomEntry, link PartLinker) []BomRow {
	if link == nil {
		link = DefaultPartLink
	}

	rows := make([]BomRow, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))

	for pos, entry := range entries {
		key := fmt.Sprintf("bom-%d", entry.Idx)
		if _, dup := seen[key]; dup {
			key = fmt.Sprintf("bom-%d-%d", entry.Idx, pos)
		}
		seen[key] = struct{}{}

		row := BomRow{BomEntry: entry, Key: key}
		if entry.SubPart != nil && entry.PN != nil {
			target := link(*entry.SubPart)
			row.PartLink = &target
		}
		rows = append(rows, row)
	}

	return rows
}
