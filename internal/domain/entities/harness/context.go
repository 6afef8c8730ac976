// Package harness derives the renderable wire-harness view model from the
// loosely typed plugin context that the host hands to the panels.
package harness

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Context keys as published by the plugin context.
const (
	KeySVGFile    = "wireviz_svg_file"
	KeySourceFile = "wireviz_source_file"
	KeyBOMData    = "wireviz_bom_data"
	KeyErrors     = "wireviz_errors"
	KeyWarnings   = "wireviz_warnings"

	// KeyPreviewFile is an optional raster preview of the diagram.
	KeyPreviewFile = "wireviz_preview_file"
)

// BomEntry is a single BOM line as produced by the import step.
type BomEntry struct {
	Idx         int     `json:"idx"`
	Designators string  `json:"designators"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	Unit        *string `json:"unit"`
	PN          *string `json:"pn"`
	SubPart     *int64  `json:"sub_part"`
}

// Context is the fully defaulted plugin context for one part.
type Context struct {
	SVGFile    *string    `json:"wireviz_svg_file"`
	SourceFile *string    `json:"wireviz_source_file"`
	BOMData    []BomEntry `json:"wireviz_bom_data"`
	Errors     []string   `json:"wireviz_errors"`
	Warnings   []string   `json:"wireviz_warnings"`

	PreviewFile *string `json:"wireviz_preview_file,omitempty"`
}

// Empty returns a context with every sequence initialised and every scalar nil.
func Empty() Context {
	return Context{
		BOMData:  []BomEntry{},
		Errors:   []string{},
		Warnings: []string{},
	}
}

// NormalizeJSON decodes a raw context payload and normalizes it. The only
// failure is a payload that is not a JSON object.
func NormalizeJSON(data []byte) (Context, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return Empty(), fmt.Errorf("context payload is not a JSON object: %w", err)
	}
	return Normalize(raw), nil
}

// Normalize turns an arbitrary, possibly partial context map into a Context.
// Missing or malformed optional fields fall back to their defaults and
// unknown keys are ignored.
func Normalize(raw map[string]any) Context {
	ctx := Empty()
	if raw == nil {
		return ctx
	}

	ctx.SVGFile = optionalString(raw[KeySVGFile])
	ctx.SourceFile = optionalString(raw[KeySourceFile])
	ctx.PreviewFile = optionalString(raw[KeyPreviewFile])
	ctx.Errors = stringList(raw[KeyErrors])
	ctx.Warnings = stringList(raw[KeyWarnings])

	if items, ok := raw[KeyBOMData].([]any); ok {
		for pos, item := range items {
			fields, ok := item.(map[string]any)
			if !ok {
				continue
			}
			ctx.BOMData = append(ctx.BOMData, normalizeEntry(fields, pos+1))
		}
	}

	return ctx
}

// Map renders the context back into the loosely typed form the host uses.
func (c Context) Map() map[string]any {
	bom := make([]any, 0, len(c.BOMData))
	for _, entry := range c.BOMData {
		bom = append(bom, map[string]any{
			"idx":         entry.Idx,
			"designators": entry.Designators,
			"description": entry.Description,
			"quantity":    entry.Quantity,
			"unit":        derefString(entry.Unit),
			"pn":          derefString(entry.PN),
			"sub_part":    derefInt(entry.SubPart),
		})
	}
	out := map[string]any{
		KeySVGFile:    derefString(c.SVGFile),
		KeySourceFile: derefString(c.SourceFile),
		KeyBOMData:    bom,
		KeyErrors:     append([]string{}, c.Errors...),
		KeyWarnings:   append([]string{}, c.Warnings...),
	}
	if c.PreviewFile != nil {
		out[KeyPreviewFile] = *c.PreviewFile
	}
	return out
}

func normalizeEntry(fields map[string]any, position int) BomEntry {
	entry := BomEntry{
		Idx:         position,
		Designators: designators(fields["designators"]),
		Description: plainString(fields["description"]),
		Unit:        optionalString(fields["unit"]),
		PN:          optionalString(fields["pn"]),
	}

	if idx, ok := number(fields["idx"]); ok && idx == math.Trunc(idx) {
		entry.Idx = int(idx)
	}
	if qty, ok := number(fields["quantity"]); ok {
		entry.Quantity = qty
	}
	if sub, ok := number(fields["sub_part"]); ok && sub == math.Trunc(sub) {
		id := int64(sub)
		entry.SubPart = &id
	}

	return entry
}

func optionalString(v any) *string {
	s, ok := v.(string)
	if !ok || s == "" {
		return nil
	}
	return &s
}

func plainString(v any) string {
	s, _ := v.(string)
	return s
}

func stringList(v any) []string {
	out := []string{}
	items, ok := v.([]any)
	if !ok {
		if typed, ok := v.([]string); ok {
			return append(out, typed...)
		}
		return out
	}
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func designators(v any) string {
	switch d := v.(type) {
	case string:
		return d
	case []any:
		parts := make([]string, 0, len(d))
		for _, item := range d {
			if s, ok := item.(string); ok && s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	case []string:
		return strings.Join(d, ", ")
	}
	return ""
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n) && !math.IsInf(n, 0)
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func derefString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func derefInt(i *int64) any {
	if i == nil {
		return nil
	}
	return *i
}
